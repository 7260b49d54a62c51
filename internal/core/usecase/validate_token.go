package usecase

import (
	"context"
	"errors"
	"fmt"

	"rentals-service/internal/contextkeys"
	"rentals-service/internal/core/domain"
	"rentals-service/internal/core/port"
)

type ValidateTokenUseCase struct {
	tokens port.TokenServicePort
}

func NewValidateTokenUseCase(tokens port.TokenServicePort) *ValidateTokenUseCase {
	return &ValidateTokenUseCase{tokens: tokens}
}

// Execute превращает токен доступа в сессию.
func (uc *ValidateTokenUseCase) Execute(ctx context.Context, token string) (*domain.Session, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{"use_case": "ValidateToken"})

	claims, err := uc.tokens.ValidateAccessToken(ctx, token)
	if err != nil {
		ucLogger.Debug("Token rejected", nil)
		return nil, domain.ErrTokenInvalid
	}
	session := claims.Session()
	return &session, nil
}

// RefreshSessionUseCase перечитывает роль из хранилища. Токен мог быть выдан
// до понижения роли или удаления учетной записи.
type RefreshSessionUseCase struct {
	users port.UserRepositoryPort
}

func NewRefreshSessionUseCase(users port.UserRepositoryPort) *RefreshSessionUseCase {
	return &RefreshSessionUseCase{users: users}
}

func (uc *RefreshSessionUseCase) Execute(ctx context.Context, session *domain.Session) (*domain.Session, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{"use_case": "RefreshSession"})

	if err := requireSession(session); err != nil {
		return nil, err
	}
	user, err := uc.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			ucLogger.Warn("Session belongs to a deleted user", port.Fields{"user_id": session.UserID})
			return nil, domain.ErrUnauthenticated
		}
		ucLogger.Error("Repository failed to get user", err, nil)
		return nil, fmt.Errorf("failed to refresh session: %w", err)
	}

	refreshed := *session
	if refreshed.Role != user.Role {
		ucLogger.Info("Session role is stale", port.Fields{"user_id": session.UserID, "token_role": session.Role.String(), "role": user.Role.String()})
		refreshed.Role = user.Role
	}
	return &refreshed, nil
}
