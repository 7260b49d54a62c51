package usecase

import (
	"context"
	"fmt"

	"rentals-service/internal/contextkeys"
	"rentals-service/internal/core/domain"
	"rentals-service/internal/core/port"
	"rentals-service/internal/core/view"
)

// WatchListingsUseCase открывает живое представление объявлений с избранным пользователя.
type WatchListingsUseCase struct {
	source    port.SnapshotSource[domain.Listing]
	favorites port.FavoritesRepositoryPort
}

func NewWatchListingsUseCase(source port.SnapshotSource[domain.Listing], favorites port.FavoritesRepositoryPort) *WatchListingsUseCase {
	return &WatchListingsUseCase{source: source, favorites: favorites}
}

func (uc *WatchListingsUseCase) Execute(ctx context.Context, session *domain.Session, query domain.CollectionQuery, filters domain.ListingFilters, sort domain.SortState) (*view.ListingsView, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{"use_case": "WatchListings", "owner_id": query.OwnerID})
	ucLogger.Info("Use case started", nil)

	if err := requireSession(session); err != nil {
		return nil, err
	}

	favoriteIDs, err := uc.favorites.FindIDsByUser(ctx, session.UserID)
	if err != nil {
		ucLogger.Error("Failed to load favorites", err, nil)
		return nil, fmt.Errorf("failed to load favorites: %w", err)
	}

	v := view.NewListingsView(uc.source, query, view.ListingsOptions{
		Filters:   filters,
		Sort:      sort,
		Favorites: favoriteIDs,
	}, ucLogger.WithFields(port.Fields{"user_id": session.UserID}))
	if err := v.Start(ctx); err != nil {
		v.Close()
		ucLogger.Error("Failed to start listings view", err, nil)
		return nil, err
	}

	ucLogger.Info("Use case finished successfully", nil)
	return v, nil
}
