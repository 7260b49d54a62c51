package usecases_port

import (
	"context"

	"rentals-service/internal/core/domain"
)

type AddFavoriteUseCasePort interface {
	Execute(ctx context.Context, session *domain.Session, listingID string) error
}

type RemoveFavoriteUseCasePort interface {
	Execute(ctx context.Context, session *domain.Session, listingID string) error
}

type ListFavoriteIDsUseCasePort interface {
	Execute(ctx context.Context, session *domain.Session) ([]string, error)
}
