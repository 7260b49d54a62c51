package usecases_port

import (
	"context"

	"rentals-service/internal/core/domain"
)

type RegisterUserUseCasePort interface {
	Execute(ctx context.Context, reg domain.Registration) (*domain.AuthResult, error)
}

type LoginUserUseCasePort interface {
	Execute(ctx context.Context, email, password string) (*domain.AuthResult, error)
}

type ValidateTokenUseCasePort interface {
	Execute(ctx context.Context, token string) (*domain.Session, error)
}

type RefreshSessionUseCasePort interface {
	Execute(ctx context.Context, session *domain.Session) (*domain.Session, error)
}

type GetUserUseCasePort interface {
	Execute(ctx context.Context, session *domain.Session, userID string) (*domain.User, error)
}

type UpdateUserUseCasePort interface {
	Execute(ctx context.Context, session *domain.Session, userID string, update domain.ProfileUpdate) (*domain.User, error)
}

type DeleteUserUseCasePort interface {
	Execute(ctx context.Context, session *domain.Session, userID string) error
}

type BrowseUsersUseCasePort interface {
	Execute(ctx context.Context, session *domain.Session, term string, sort domain.SortState) (*domain.UsersPage, error)
}
