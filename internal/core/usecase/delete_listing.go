package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rentals-service/internal/constants"
	"rentals-service/internal/contextkeys"
	"rentals-service/internal/core/domain"
	"rentals-service/internal/core/port"
)

// DeleteListingUseCase - удалить объявление может владелец или администратор.
type DeleteListingUseCase struct {
	listings port.ListingRepositoryPort
	events   port.EventPublisherPort
	now      port.Clock
}

func NewDeleteListingUseCase(listings port.ListingRepositoryPort, events port.EventPublisherPort, now port.Clock) *DeleteListingUseCase {
	if now == nil {
		now = time.Now
	}
	return &DeleteListingUseCase{listings: listings, events: events, now: now}
}

func (uc *DeleteListingUseCase) Execute(ctx context.Context, session *domain.Session, listingID string) error {
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case":   "DeleteListing",
		"listing_id": listingID,
	})
	ucLogger.Info("Use case started", nil)

	if err := requireSession(session); err != nil {
		return err
	}

	listing, err := uc.listings.GetByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		ucLogger.Error("Repository failed to get listing", err, nil)
		return fmt.Errorf("failed to get listing: %w", err)
	}

	if !session.CanManage(listing.OwnerID) {
		ucLogger.Warn("User is not allowed to delete listing", port.Fields{"user_id": session.UserID, "owner_id": listing.OwnerID})
		return domain.ErrForbidden
	}

	if err := uc.listings.Delete(ctx, listingID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		ucLogger.Error("Repository failed to delete listing", err, nil)
		return fmt.Errorf("failed to delete listing: %w", err)
	}

	publishEvent(ctx, uc.events, ucLogger, constants.RoutingKeyListingDeleted, domain.ListingDeletedEvent{
		ListingID: listing.ID,
		OwnerID:   listing.OwnerID,
		DeletedBy: session.UserID,
		DeletedAt: uc.now().UTC(),
	})

	ucLogger.Info("Use case finished successfully", nil)
	return nil
}
