package port

import (
	"context"

	"rentals-service/internal/core/domain"
)

// SnapshotListener получает полные снимки коллекции.
// Каждый снимок целиком заменяет предыдущий.
type SnapshotListener[T any] struct {
	OnSnapshot func(records []T)
	// OnError получает сообщение, пригодное для показа пользователю.
	// Источник после OnError подписку завершает; feed.Hub переподписывается сам,
	// и его подписчики продолжают получать снимки.
	OnError func(message string)
}

// Unsubscribe отменяет подписку. Повторный вызов безопасен.
type Unsubscribe func()

// SnapshotSource - источник живых снимков коллекции.
type SnapshotSource[T any] interface {
	Subscribe(ctx context.Context, query domain.CollectionQuery, listener SnapshotListener[T]) (Unsubscribe, error)
}

// SnapshotReader отдает последний полученный снимок для разовых чтений.
// ok == false означает, что первый снимок еще не пришел.
// Err - сообщение последней ошибки upstream, пока ее не сменил новый снимок.
type SnapshotReader[T any] interface {
	Snapshot() (records []T, ok bool)
	Err() string
}
