package usecase

import (
	"context"
	"fmt"

	"rentals-service/internal/contextkeys"
	"rentals-service/internal/core/domain"
	"rentals-service/internal/core/pipeline"
	"rentals-service/internal/core/port"
)

// BrowseListingsUseCase - разовое чтение: последний снимок, избранное пользователя и pipeline.
type BrowseListingsUseCase struct {
	snapshots port.SnapshotReader[domain.Listing]
	favorites port.FavoritesRepositoryPort
}

func NewBrowseListingsUseCase(snapshots port.SnapshotReader[domain.Listing], favorites port.FavoritesRepositoryPort) *BrowseListingsUseCase {
	return &BrowseListingsUseCase{snapshots: snapshots, favorites: favorites}
}

func (uc *BrowseListingsUseCase) Execute(ctx context.Context, session *domain.Session, query domain.CollectionQuery, filters domain.ListingFilters, sort domain.SortState) (*domain.ListingsPage, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case": "BrowseListings",
		"owner_id": query.OwnerID,
		"city":     filters.City,
		"sort":     sort.Field,
		"order":    string(sort.Order),
	})
	ucLogger.Info("Use case started", nil)

	if filters.City == "" {
		filters.City = domain.AllCities
	}

	snapshot, ok := uc.snapshots.Snapshot()
	sourceErr := uc.snapshots.Err()
	if sourceErr != "" {
		ucLogger.Warn("Serving listings while the source is failing", port.Fields{"message": sourceErr})
	}
	if !ok {
		ucLogger.Info("Snapshot is not loaded yet", nil)
		return &domain.ListingsPage{
			Listings: []domain.Listing{},
			Loading:  sourceErr == "",
			Err:      sourceErr,
			Cities:   []string{domain.AllCities},
			Filters:  filters,
			Sort:     sort,
		}, nil
	}

	scoped := make([]domain.Listing, 0, len(snapshot))
	for _, l := range snapshot {
		if query.MatchesListing(l) {
			scoped = append(scoped, l)
		}
	}

	var favoriteIDs []string
	if session != nil {
		ids, err := uc.favorites.FindIDsByUser(ctx, session.UserID)
		if err != nil {
			ucLogger.Error("Failed to load favorites", err, nil)
			return nil, fmt.Errorf("failed to load favorites: %w", err)
		}
		favoriteIDs = ids
	}
	overlaid := overlayFavorites(scoped, favoriteIDs)

	cities := pipeline.UniqueCities(overlaid)
	if !pipeline.HasCity(cities, filters.City) {
		ucLogger.Debug("Selected city is not in the snapshot, resetting", port.Fields{"city": filters.City})
		filters.City = domain.AllCities
	}

	rendered := pipeline.RenderListings(overlaid, filters, sort)
	ucLogger.Info("Use case finished successfully", port.Fields{"total": len(rendered)})
	return &domain.ListingsPage{
		Listings: rendered,
		Total:    len(rendered),
		Err:      sourceErr,
		Cities:   cities,
		Filters:  filters,
		Sort:     sort,
	}, nil
}
