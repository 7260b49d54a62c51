package postgres_adapter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"rentals-service/internal/contextkeys"
	"rentals-service/internal/core/domain"
	"rentals-service/internal/core/port"
)

const listingColumns = `id::text, owner_id::text, name, city, street, street_number, area,
	air_conditioning, year_built, date_available, rent_price, image_urls, created_at`

// ListingRepository - реализация ListingRepositoryPort для PostgreSQL.
type ListingRepository struct {
	pool *pgxpool.Pool
}

func NewListingRepository(pool *pgxpool.Pool) (*ListingRepository, error) {
	if pool == nil {
		return nil, fmt.Errorf("pgxpool.Pool cannot be nil")
	}
	return &ListingRepository{pool: pool}, nil
}

func (r *ListingRepository) Create(ctx context.Context, listing *domain.Listing) error {
	logger := contextkeys.LoggerFromContext(ctx)
	repoLogger := logger.WithFields(port.Fields{
		"component":  "ListingRepository",
		"method":     "Create",
		"listing_id": listing.ID,
	})

	query := `INSERT INTO listings (id, owner_id, name, city, street, street_number, area,
		air_conditioning, year_built, date_available, rent_price, image_urls, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	repoLogger.Debug("Executing query to create listing.", nil)
	_, err := r.pool.Exec(ctx, query,
		listing.ID, listing.OwnerID, listing.Name, listing.City, listing.Street, listing.StreetNumber,
		listing.Area, listing.AirConditioning, listing.YearBuilt, listing.DateAvailable,
		listing.RentPrice, listing.ImageURLs, listing.CreatedAt,
	)
	if err != nil {
		repoLogger.Error("Failed to create listing", err, port.Fields{"query": query})
		return fmt.Errorf("failed to create listing: %w", err)
	}
	return nil
}

func (r *ListingRepository) GetByID(ctx context.Context, id string) (*domain.Listing, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	repoLogger := logger.WithFields(port.Fields{
		"component":  "ListingRepository",
		"method":     "GetByID",
		"listing_id": id,
	})

	listingID, ok := parseID(id)
	if !ok {
		repoLogger.Debug("Malformed listing id.", nil)
		return nil, domain.ErrNotFound
	}

	query := `SELECT ` + listingColumns + ` FROM listings WHERE id = $1`
	listing, err := scanListing(r.pool.QueryRow(ctx, query, listingID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			repoLogger.Debug("Listing not found.", nil)
			return nil, domain.ErrNotFound
		}
		repoLogger.Error("Failed to get listing", err, port.Fields{"query": query})
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}
	return listing, nil
}

// Delete удаляет объявление; строки избранного удаляются каскадом.
func (r *ListingRepository) Delete(ctx context.Context, id string) error {
	logger := contextkeys.LoggerFromContext(ctx)
	repoLogger := logger.WithFields(port.Fields{
		"component":  "ListingRepository",
		"method":     "Delete",
		"listing_id": id,
	})

	listingID, ok := parseID(id)
	if !ok {
		return domain.ErrNotFound
	}

	cmdTag, err := r.pool.Exec(ctx, `DELETE FROM listings WHERE id = $1`, listingID)
	if err != nil {
		repoLogger.Error("Failed to delete listing", err, nil)
		return fmt.Errorf("failed to delete listing: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	repoLogger.Debug("Listing deleted.", nil)
	return nil
}

func (r *ListingRepository) List(ctx context.Context, q domain.CollectionQuery) ([]domain.Listing, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	repoLogger := logger.WithFields(port.Fields{
		"component": "ListingRepository",
		"method":    "List",
		"owner_id":  q.OwnerID,
	})

	qb := newQueryBuilder()
	if q.OwnerID != "" {
		qb.addCondition("%s = $%d", "owner_id::text", q.OwnerID)
	}
	where, args := qb.build()
	query := `SELECT ` + listingColumns + ` FROM listings ` + where + orderClause(listingOrderColumns, q)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		repoLogger.Error("Failed to query listings", err, port.Fields{"query": query})
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}
	defer rows.Close()

	listings := make([]domain.Listing, 0)
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			repoLogger.Error("Failed to scan listing row", err, nil)
			return nil, fmt.Errorf("failed to scan listing: %w", err)
		}
		listings = append(listings, *listing)
	}
	if err := rows.Err(); err != nil {
		repoLogger.Error("Error during listings iteration", err, nil)
		return nil, fmt.Errorf("error during listings iteration: %w", err)
	}
	return listings, nil
}

func scanListing(row pgx.Row) (*domain.Listing, error) {
	var (
		l         domain.Listing
		createdAt *time.Time
	)
	err := row.Scan(
		&l.ID, &l.OwnerID, &l.Name, &l.City, &l.Street, &l.StreetNumber, &l.Area,
		&l.AirConditioning, &l.YearBuilt, &l.DateAvailable, &l.RentPrice, &l.ImageURLs, &createdAt,
	)
	if err != nil {
		return nil, err
	}
	if createdAt != nil {
		l.CreatedAt = createdAt.UTC()
	}
	if l.ImageURLs == nil {
		l.ImageURLs = []string{}
	}
	return &l, nil
}
