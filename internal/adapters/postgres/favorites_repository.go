package postgres_adapter

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"rentals-service/internal/contextkeys"
	"rentals-service/internal/core/domain"
	"rentals-service/internal/core/port"
)

// FavoritesRepository - избранное, ключ (user_id, listing_id).
type FavoritesRepository struct {
	pool *pgxpool.Pool
}

func NewFavoritesRepository(pool *pgxpool.Pool) (*FavoritesRepository, error) {
	if pool == nil {
		return nil, fmt.Errorf("pgxpool.Pool cannot be nil")
	}
	return &FavoritesRepository{pool: pool}, nil
}

// Add добавляет запись в user_favorites. Повторное добавление не ошибка.
func (r *FavoritesRepository) Add(ctx context.Context, userID, listingID string) error {
	logger := contextkeys.LoggerFromContext(ctx)
	repoLogger := logger.WithFields(port.Fields{
		"component":  "FavoritesRepository",
		"method":     "Add",
		"user_id":    userID,
		"listing_id": listingID,
	})

	userUUID, userOK := parseID(userID)
	listingUUID, listingOK := parseID(listingID)
	if !userOK || !listingOK {
		return domain.ErrNotFound
	}

	repoLogger.Debug("Attempting to add to favorites.", nil)
	query := `INSERT INTO user_favorites (user_id, listing_id) VALUES ($1, $2)`

	_, err := r.pool.Exec(ctx, query, userUUID, listingUUID)
	if err != nil {
		switch pgErrorCode(err) {
		case pgUniqueViolation:
			repoLogger.Warn("Favorite already exists, operation considered successful.", nil)
			return nil
		case pgForeignKeyViolation:
			return domain.ErrNotFound
		}
		repoLogger.Error("Failed to add favorite", err, port.Fields{"query": query})
		return fmt.Errorf("failed to add favorite: %w", err)
	}

	repoLogger.Debug("Successfully added to favorites.", nil)
	return nil
}

// Remove удаляет запись из user_favorites. Отсутствие записи не ошибка.
func (r *FavoritesRepository) Remove(ctx context.Context, userID, listingID string) error {
	logger := contextkeys.LoggerFromContext(ctx)
	repoLogger := logger.WithFields(port.Fields{
		"component":  "FavoritesRepository",
		"method":     "Remove",
		"user_id":    userID,
		"listing_id": listingID,
	})

	userUUID, userOK := parseID(userID)
	listingUUID, listingOK := parseID(listingID)
	if !userOK || !listingOK {
		return nil
	}

	query := `DELETE FROM user_favorites WHERE user_id = $1 AND listing_id = $2`
	cmdTag, err := r.pool.Exec(ctx, query, userUUID, listingUUID)
	if err != nil {
		repoLogger.Error("Failed to remove favorite", err, port.Fields{"query": query})
		return fmt.Errorf("failed to remove favorite: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		repoLogger.Warn("Attempted to remove a favorite that did not exist.", nil)
	}
	return nil
}

func (r *FavoritesRepository) FindIDsByUser(ctx context.Context, userID string) ([]string, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	repoLogger := logger.WithFields(port.Fields{
		"component": "FavoritesRepository",
		"method":    "FindIDsByUser",
		"user_id":   userID,
	})

	userUUID, ok := parseID(userID)
	if !ok {
		return []string{}, nil
	}

	query := `SELECT listing_id::text FROM user_favorites WHERE user_id = $1 ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query, userUUID)
	if err != nil {
		repoLogger.Error("Failed to query favorite IDs", err, port.Fields{"query": query})
		return nil, fmt.Errorf("failed to query favorite IDs: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			repoLogger.Error("Failed to scan favorite ID row", err, nil)
			return nil, fmt.Errorf("failed to scan favorite ID: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		repoLogger.Error("Error during favorite IDs iteration", err, nil)
		return nil, fmt.Errorf("error during favorite IDs iteration: %w", err)
	}
	return ids, nil
}
