package usecase

import (
	"context"
	"errors"
	"fmt"

	"rentals-service/internal/contextkeys"
	"rentals-service/internal/core/domain"
	"rentals-service/internal/core/port"
)

type AddFavoriteUseCase struct {
	repo port.FavoritesRepositoryPort
}

func NewAddFavoriteUseCase(repo port.FavoritesRepositoryPort) *AddFavoriteUseCase {
	return &AddFavoriteUseCase{repo: repo}
}

func (uc *AddFavoriteUseCase) Execute(ctx context.Context, session *domain.Session, listingID string) error {
	if err := requireSession(session); err != nil {
		return err
	}
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case":   "AddFavorite",
		"user_id":    session.UserID,
		"listing_id": listingID,
	})
	ucLogger.Info("Use case started", nil)

	if err := uc.repo.Add(ctx, session.UserID, listingID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			ucLogger.Warn("Listing to favorite does not exist", nil)
			return err
		}
		ucLogger.Error("Repository returned an error", err, nil)
		return fmt.Errorf("failed to add favorite: %w", err)
	}

	ucLogger.Info("Use case finished successfully", nil)
	return nil
}

type RemoveFavoriteUseCase struct {
	repo port.FavoritesRepositoryPort
}

func NewRemoveFavoriteUseCase(repo port.FavoritesRepositoryPort) *RemoveFavoriteUseCase {
	return &RemoveFavoriteUseCase{repo: repo}
}

func (uc *RemoveFavoriteUseCase) Execute(ctx context.Context, session *domain.Session, listingID string) error {
	if err := requireSession(session); err != nil {
		return err
	}
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case":   "RemoveFavorite",
		"user_id":    session.UserID,
		"listing_id": listingID,
	})
	ucLogger.Info("Use case started", nil)

	if err := uc.repo.Remove(ctx, session.UserID, listingID); err != nil {
		ucLogger.Error("Repository returned an error", err, nil)
		return fmt.Errorf("failed to remove favorite: %w", err)
	}

	ucLogger.Info("Use case finished successfully", nil)
	return nil
}

type ListFavoriteIDsUseCase struct {
	repo port.FavoritesRepositoryPort
}

func NewListFavoriteIDsUseCase(repo port.FavoritesRepositoryPort) *ListFavoriteIDsUseCase {
	return &ListFavoriteIDsUseCase{repo: repo}
}

func (uc *ListFavoriteIDsUseCase) Execute(ctx context.Context, session *domain.Session) ([]string, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{"use_case": "ListFavoriteIDs", "user_id": session.UserID})

	ids, err := uc.repo.FindIDsByUser(ctx, session.UserID)
	if err != nil {
		ucLogger.Error("Repository returned an error", err, nil)
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}
	ucLogger.Debug("Favorites listed", port.Fields{"count": len(ids)})
	return ids, nil
}
