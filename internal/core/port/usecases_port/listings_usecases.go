package usecases_port

import (
	"context"

	"rentals-service/internal/core/domain"
	"rentals-service/internal/core/view"
)

type BrowseListingsUseCasePort interface {
	// session может быть nil: тогда избранное пустое
	Execute(ctx context.Context, session *domain.Session, query domain.CollectionQuery, filters domain.ListingFilters, sort domain.SortState) (*domain.ListingsPage, error)
}

type GetFilterOptionsUseCasePort interface {
	Execute(ctx context.Context) (*domain.FilterOptions, error)
}

type GetListingUseCasePort interface {
	Execute(ctx context.Context, session *domain.Session, listingID string) (*domain.Listing, error)
}

type CreateListingUseCasePort interface {
	Execute(ctx context.Context, session *domain.Session, draft domain.ListingDraft) (*domain.Listing, error)
}

type DeleteListingUseCasePort interface {
	Execute(ctx context.Context, session *domain.Session, listingID string) error
}

// WatchListingsUseCasePort открывает живое представление. Закрыть его - задача вызывающего.
type WatchListingsUseCasePort interface {
	Execute(ctx context.Context, session *domain.Session, query domain.CollectionQuery, filters domain.ListingFilters, sort domain.SortState) (*view.ListingsView, error)
}
