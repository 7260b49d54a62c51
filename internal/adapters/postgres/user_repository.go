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

// Список объявлений пользователя не хранится, а выводится из listings.owner_id.
const userColumns = `u.id::text, u.username, u.first_name, u.last_name, u.email, u.role,
	u.birthday, u.profile_picture, u.password_hash, u.created_at,
	ARRAY(SELECT l.id::text FROM listings l WHERE l.owner_id = u.id ORDER BY l.created_at, l.id)`

// UserRepository - реализация UserRepositoryPort для PostgreSQL.
type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) (*UserRepository, error) {
	if pool == nil {
		return nil, fmt.Errorf("pgxpool.Pool cannot be nil")
	}
	return &UserRepository{pool: pool}, nil
}

// Create создает нового пользователя в БД. Занятый email - domain.ErrEmailInUse.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	logger := contextkeys.LoggerFromContext(ctx)
	repoLogger := logger.WithFields(port.Fields{
		"component": "UserRepository",
		"method":    "Create",
		"user_id":   user.ID,
		"email":     user.Email,
	})

	query := `INSERT INTO users (id, username, first_name, last_name, email, role, birthday,
		profile_picture, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	repoLogger.Debug("Executing query to create user.", nil)
	_, err := r.pool.Exec(ctx, query,
		user.ID, user.Username, user.FirstName, user.LastName, user.Email, user.Role.String(),
		user.Birthday, user.ProfilePicture, user.PasswordHash, user.CreatedAt,
	)
	if err != nil {
		if pgErrorCode(err) == pgUniqueViolation {
			repoLogger.Warn("Email already registered.", nil)
			return domain.ErrEmailInUse
		}
		repoLogger.Error("Failed to create user", err, port.Fields{"query": query})
		return fmt.Errorf("failed to create user: %w", err)
	}

	repoLogger.Debug("User created successfully.", nil)
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	userID, ok := parseID(id)
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r.getOne(ctx, "GetByID", `u.id = $1`, userID)
}

// GetByEmail ищет по нормализованному email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, "GetByEmail", `u.email = $1`, domain.NormalizeEmail(email))
}

func (r *UserRepository) getOne(ctx context.Context, method, condition string, arg interface{}) (*domain.User, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	repoLogger := logger.WithFields(port.Fields{
		"component": "UserRepository",
		"method":    method,
	})

	query := `SELECT ` + userColumns + ` FROM users u WHERE ` + condition
	user, err := scanUser(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			repoLogger.Debug("User not found.", nil)
			return nil, domain.ErrNotFound
		}
		repoLogger.Error("Failed to find user", err, port.Fields{"query": query})
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// Update меняет только редактируемые поля профиля и роль.
func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	logger := contextkeys.LoggerFromContext(ctx)
	repoLogger := logger.WithFields(port.Fields{
		"component": "UserRepository",
		"method":    "Update",
		"user_id":   user.ID,
	})

	userID, ok := parseID(user.ID)
	if !ok {
		return domain.ErrNotFound
	}

	query := `UPDATE users SET first_name = $2, last_name = $3, birthday = $4, profile_picture = $5, role = $6
		WHERE id = $1`
	cmdTag, err := r.pool.Exec(ctx, query,
		userID, user.FirstName, user.LastName, user.Birthday, user.ProfilePicture, user.Role.String(),
	)
	if err != nil {
		repoLogger.Error("Failed to update user", err, port.Fields{"query": query})
		return fmt.Errorf("failed to update user: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete удаляет пользователя; его объявления и избранное удаляются каскадом.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	logger := contextkeys.LoggerFromContext(ctx)
	repoLogger := logger.WithFields(port.Fields{
		"component": "UserRepository",
		"method":    "Delete",
		"user_id":   id,
	})

	userID, ok := parseID(id)
	if !ok {
		return domain.ErrNotFound
	}

	cmdTag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		repoLogger.Error("Failed to delete user", err, nil)
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	repoLogger.Debug("User deleted.", nil)
	return nil
}

func (r *UserRepository) List(ctx context.Context, q domain.CollectionQuery) ([]domain.User, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	repoLogger := logger.WithFields(port.Fields{
		"component": "UserRepository",
		"method":    "List",
	})

	query := `SELECT ` + userColumns + ` FROM users u ` + orderClause(userOrderColumns, q)
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		repoLogger.Error("Failed to query users", err, port.Fields{"query": query})
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			repoLogger.Error("Failed to scan user row", err, nil)
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		repoLogger.Error("Error during users iteration", err, nil)
		return nil, fmt.Errorf("error during users iteration: %w", err)
	}
	return users, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		u         domain.User
		role      string
		createdAt *time.Time
	)
	err := row.Scan(
		&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.Email, &role,
		&u.Birthday, &u.ProfilePicture, &u.PasswordHash, &createdAt, &u.ListingIDs,
	)
	if err != nil {
		return nil, err
	}
	parsed, err := domain.ParseRole(role)
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", u.ID, err)
	}
	u.Role = parsed
	if createdAt != nil {
		t := createdAt.UTC()
		u.CreatedAt = &t
	}
	if u.ListingIDs == nil {
		u.ListingIDs = []string{}
	}
	return &u, nil
}
