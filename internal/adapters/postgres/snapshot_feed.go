package postgres_adapter

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"rentals-service/internal/core/domain"
	"rentals-service/internal/core/port"
)

// SnapshotLoader загружает полный снимок коллекции.
type SnapshotLoader[T any] func(ctx context.Context, query domain.CollectionQuery) ([]T, error)

// SnapshotFeed - источник снимков поверх LISTEN/NOTIFY. Каждая подписка держит
// отдельное соединение из пула и перечитывает коллекцию после каждого уведомления.
type SnapshotFeed[T any] struct {
	pool       *pgxpool.Pool
	collection string
	load       SnapshotLoader[T]
	logger     port.LoggerPort
}

func NewSnapshotFeed[T any](pool *pgxpool.Pool, collection string, load SnapshotLoader[T], logger port.LoggerPort) *SnapshotFeed[T] {
	return &SnapshotFeed[T]{
		pool:       pool,
		collection: collection,
		load:       load,
		logger:     logger.WithFields(port.Fields{"component": "SnapshotFeed", "collection": collection}),
	}
}

// NewListingsFeed - снимки объявлений.
func NewListingsFeed(pool *pgxpool.Pool, repo *ListingRepository, logger port.LoggerPort) *SnapshotFeed[domain.Listing] {
	return NewSnapshotFeed[domain.Listing](pool, domain.CollectionListings, repo.List, logger)
}

// NewUsersFeed - снимки пользователей.
func NewUsersFeed(pool *pgxpool.Pool, repo *UserRepository, logger port.LoggerPort) *SnapshotFeed[domain.User] {
	return NewSnapshotFeed[domain.User](pool, domain.CollectionUsers, repo.List, logger)
}

// Subscribe начинает слушать канал до первой загрузки, чтобы не потерять изменения
// между загрузкой и LISTEN. Ошибки после подписки приходят в OnError, и подписка завершается.
func (f *SnapshotFeed[T]) Subscribe(ctx context.Context, query domain.CollectionQuery, listener port.SnapshotListener[T]) (port.Unsubscribe, error) {
	conn, err := f.pool.Acquire(ctx)
	if err != nil {
		f.logger.Error("Failed to acquire listen connection", err, nil)
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}

	channel := ChangeChannel(f.collection)
	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{channel}.Sanitize()); err != nil {
		conn.Release()
		f.logger.Error("Failed to LISTEN", err, port.Fields{"channel": channel})
		return nil, fmt.Errorf("failed to listen on %s: %w", channel, err)
	}

	subCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go f.run(subCtx, conn, query, listener, done)

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}, nil
}

func (f *SnapshotFeed[T]) run(ctx context.Context, conn *pgxpool.Conn, query domain.CollectionQuery, listener port.SnapshotListener[T], done chan<- struct{}) {
	defer close(done)
	defer f.release(conn)

	f.logger.Debug("Snapshot subscription started", nil)
	for {
		records, err := f.load(ctx, query)
		if err != nil {
			f.fail(ctx, listener, "load", err)
			return
		}
		if listener.OnSnapshot != nil {
			listener.OnSnapshot(records)
		}

		if _, err := conn.Conn().WaitForNotification(ctx); err != nil {
			f.fail(ctx, listener, "wait for notification", err)
			return
		}
		// уведомления, пришедшие во время загрузки, покрываются следующей загрузкой
	}
}

// fail сообщает об ошибке, если подписка не была отменена.
func (f *SnapshotFeed[T]) fail(ctx context.Context, listener port.SnapshotListener[T], stage string, err error) {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		f.logger.Debug("Snapshot subscription stopped", nil)
		return
	}
	f.logger.Error("Snapshot subscription failed", err, port.Fields{"stage": stage})
	if listener.OnError != nil {
		listener.OnError(fmt.Sprintf("failed to load %s", f.collection))
	}
}

// release снимает LISTEN, чтобы соединение вернулось в пул чистым.
func (f *SnapshotFeed[T]) release(conn *pgxpool.Conn) {
	if _, err := conn.Exec(context.Background(), "UNLISTEN *"); err != nil {
		// соединение в неизвестном состоянии, в пул его не возвращаем
		_ = conn.Hijack().Close(context.Background())
		return
	}
	conn.Release()
}
