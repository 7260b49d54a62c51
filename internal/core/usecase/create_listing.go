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

type CreateListingUseCase struct {
	listings port.ListingRepositoryPort
	events   port.EventPublisherPort
	now      port.Clock
}

func NewCreateListingUseCase(listings port.ListingRepositoryPort, events port.EventPublisherPort, now port.Clock) *CreateListingUseCase {
	if now == nil {
		now = time.Now
	}
	return &CreateListingUseCase{listings: listings, events: events, now: now}
}

func (uc *CreateListingUseCase) Execute(ctx context.Context, session *domain.Session, draft domain.ListingDraft) (*domain.Listing, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{"use_case": "CreateListing"})
	ucLogger.Info("Use case started", nil)

	if err := requireSession(session); err != nil {
		return nil, err
	}
	ucLogger = ucLogger.WithFields(port.Fields{"user_id": session.UserID})

	listing, err := domain.NewListing(session.UserID, draft, uc.now())
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			ucLogger.Warn("Listing draft rejected", port.Fields{"problems": verr.Problems})
		}
		return nil, err
	}
	ucLogger = ucLogger.WithFields(port.Fields{"listing_id": listing.ID})

	if err := uc.listings.Create(ctx, listing); err != nil {
		ucLogger.Error("Repository failed to create listing", err, nil)
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}

	publishEvent(ctx, uc.events, ucLogger, constants.RoutingKeyListingCreated, domain.ListingCreatedEvent{
		ListingID: listing.ID,
		OwnerID:   listing.OwnerID,
		Name:      listing.Name,
		City:      listing.City,
		RentPrice: listing.RentPrice,
		CreatedAt: listing.CreatedAt,
	})

	ucLogger.Info("Use case finished successfully", nil)
	return listing, nil
}
