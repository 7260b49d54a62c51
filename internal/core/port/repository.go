package port

import (
	"context"

	"rentals-service/internal/core/domain"
)

// ListingRepositoryPort - хранилище объявлений.
type ListingRepositoryPort interface {
	Create(ctx context.Context, listing *domain.Listing) error
	GetByID(ctx context.Context, id string) (*domain.Listing, error)
	Delete(ctx context.Context, id string) error
	// List возвращает коллекцию в порядке, заданном запросом.
	List(ctx context.Context, query domain.CollectionQuery) ([]domain.Listing, error)
}

// UserRepositoryPort - хранилище учетных записей.
type UserRepositoryPort interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, query domain.CollectionQuery) ([]domain.User, error)
}

// FavoritesRepositoryPort - избранное пользователя, ключ (user, listing).
type FavoritesRepositoryPort interface {
	Add(ctx context.Context, userID, listingID string) error
	Remove(ctx context.Context, userID, listingID string) error
	FindIDsByUser(ctx context.Context, userID string) ([]string, error)
}
