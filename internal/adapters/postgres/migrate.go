package postgres_adapter

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"rentals-service/internal/core/port"
)

//go:embed schema.sql
var schemaSQL string

// Migrate применяет схему. Скрипт идемпотентен и выполняется при каждом старте,
// если включен DB_AUTO_MIGRATE.
func Migrate(ctx context.Context, pool *pgxpool.Pool, logger port.LoggerPort) error {
	logger.Info("Applying database schema", nil)
	// без аргументов pgx использует простой протокол, поэтому несколько команд допустимы
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		logger.Error("Failed to apply database schema", err, nil)
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	logger.Info("Database schema is up to date", nil)
	return nil
}

// ChangeChannel - канал LISTEN/NOTIFY коллекции.
func ChangeChannel(collection string) string {
	return collection + "_changed"
}
