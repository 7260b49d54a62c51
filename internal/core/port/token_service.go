package port

import (
	"context"
	"time"

	"rentals-service/internal/core/domain"
)

// TokenServicePort выпускает и проверяет токены доступа.
type TokenServicePort interface {
	GenerateAccessToken(ctx context.Context, user *domain.User) (token string, expiresAt time.Time, err error)
	// ValidateAccessToken возвращает domain.ErrTokenInvalid для любого непригодного токена.
	ValidateAccessToken(ctx context.Context, token string) (*domain.Claims, error)
}
