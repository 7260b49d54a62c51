package usecase

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"rentals-service/internal/contextkeys"
	"rentals-service/internal/core/domain"
	"rentals-service/internal/core/port"
)

type GetListingUseCase struct {
	listings  port.ListingRepositoryPort
	favorites port.FavoritesRepositoryPort
}

func NewGetListingUseCase(listings port.ListingRepositoryPort, favorites port.FavoritesRepositoryPort) *GetListingUseCase {
	return &GetListingUseCase{listings: listings, favorites: favorites}
}

func (uc *GetListingUseCase) Execute(ctx context.Context, session *domain.Session, listingID string) (*domain.Listing, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case":   "GetListing",
		"listing_id": listingID,
	})
	ucLogger.Info("Use case started", nil)

	listing, err := uc.listings.GetByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			ucLogger.Warn("Listing not found", nil)
			return nil, err
		}
		ucLogger.Error("Repository failed to get listing", err, nil)
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}

	if session != nil {
		ids, err := uc.favorites.FindIDsByUser(ctx, session.UserID)
		if err != nil {
			ucLogger.Error("Failed to load favorites", err, nil)
			return nil, fmt.Errorf("failed to load favorites: %w", err)
		}
		withFavorite := listing.WithFavorite(slices.Contains(ids, listing.ID))
		listing = &withFavorite
	}

	ucLogger.Info("Use case finished successfully", nil)
	return listing, nil
}
