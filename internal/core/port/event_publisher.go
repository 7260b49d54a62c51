package port

import "context"

// EventPublisherPort публикует доменные события.
// Ошибка публикации не должна ломать операцию записи, вызывающий код только логирует ее.
type EventPublisherPort interface {
	Publish(ctx context.Context, routingKey string, payload interface{}) error
	Close() error
}
