// Package memory - источник снимков и репозитории в памяти процесса.
// Используется тестами и локальным запуском с DATA_SOURCE=memory.
package memory

import (
	"context"
	"slices"
	"sync"

	"rentals-service/internal/core/domain"
	"rentals-service/internal/core/port"
)

// Collection рассылает снимки подписчикам синхронно, в вызывающей горутине.
// Пока Set не вызван ни разу, подписчики ничего не получают (состояние "загрузка").
type Collection[T any] struct {
	name  string
	match func(domain.CollectionQuery, T) bool

	deliverMu sync.Mutex

	mu        sync.Mutex
	records   []T
	primed    bool
	listeners map[uint64]subscription[T]
	nextID    uint64
}

type subscription[T any] struct {
	query    domain.CollectionQuery
	listener port.SnapshotListener[T]
}

func NewCollection[T any](name string, match func(domain.CollectionQuery, T) bool) *Collection[T] {
	return &Collection[T]{
		name:      name,
		match:     match,
		listeners: make(map[uint64]subscription[T]),
	}
}

func (c *Collection[T]) Name() string { return c.name }

// Set заменяет содержимое коллекции целиком и рассылает новый снимок.
func (c *Collection[T]) Set(records []T) {
	c.deliverMu.Lock()
	defer c.deliverMu.Unlock()

	c.mu.Lock()
	c.records = slices.Clone(records)
	c.primed = true
	subs := c.subscriptions()
	c.mu.Unlock()

	for _, s := range subs {
		c.deliver(s, records)
	}
}

// Fail сообщает подписчикам об ошибке и завершает их подписки.
func (c *Collection[T]) Fail(message string) {
	c.deliverMu.Lock()
	defer c.deliverMu.Unlock()

	c.mu.Lock()
	subs := c.subscriptions()
	c.listeners = make(map[uint64]subscription[T])
	c.mu.Unlock()

	for _, s := range subs {
		if s.listener.OnError != nil {
			s.listener.OnError(message)
		}
	}
}

// Records возвращает копию текущего содержимого.
func (c *Collection[T]) Records() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.records)
}

// Subscribers - число активных подписок.
func (c *Collection[T]) Subscribers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.listeners)
}

func (c *Collection[T]) Subscribe(ctx context.Context, query domain.CollectionQuery, listener port.SnapshotListener[T]) (port.Unsubscribe, error) {
	c.deliverMu.Lock()
	defer c.deliverMu.Unlock()

	c.mu.Lock()
	id := c.nextID
	c.nextID++
	s := subscription[T]{query: query, listener: listener}
	c.listeners[id] = s
	records, primed := slices.Clone(c.records), c.primed
	c.mu.Unlock()

	if primed {
		c.deliver(s, records)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.listeners, id)
			c.mu.Unlock()
		})
	}, nil
}

func (c *Collection[T]) subscriptions() []subscription[T] {
	out := make([]subscription[T], 0, len(c.listeners))
	for _, s := range c.listeners {
		out = append(out, s)
	}
	return out
}

func (c *Collection[T]) deliver(s subscription[T], records []T) {
	if s.listener.OnSnapshot == nil {
		return
	}
	out := make([]T, 0, len(records))
	for _, r := range records {
		if c.match == nil || c.match(s.query, r) {
			out = append(out, r)
		}
	}
	s.listener.OnSnapshot(out)
}
