// Package feed раздает снимки одной подписки на источник любому числу подписчиков.
package feed

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"rentals-service/internal/core/domain"
	"rentals-service/internal/core/port"
)

var ErrHubStopped = errors.New("feed hub is stopped")

const (
	defaultRetryDelay = time.Second
	maxRetryDelay     = 30 * time.Second
)

// MatchFunc решает, входит ли запись в выборку подписчика.
type MatchFunc[T any] func(query domain.CollectionQuery, record T) bool

// Hub держит ОДНУ подписку на upstream и рассылает последний снимок подписчикам.
// Новый подписчик сразу получает закешированный снимок.
// Слушатели вызываются вне мьютекса состояния, но последовательно,
// поэтому снимки приходят каждому подписчику в порядке поступления.
// После ошибки upstream подписчики остаются подключены, а хаб переподписывается
// с растущей паузой; первый новый снимок сбрасывает ошибку.
type Hub[T any] struct {
	upstream port.SnapshotSource[T]
	query    domain.CollectionQuery
	match    MatchFunc[T]
	logger   port.LoggerPort

	retryDelay time.Duration

	deliverMu sync.Mutex

	mu          sync.RWMutex
	subscribers map[uint64]subscriber[T]
	nextID      uint64
	last        []T
	hasSnapshot bool
	lastErr     string
	stopped     bool
	unsubscribe port.Unsubscribe
	// generation отсекает обратные вызовы от уже закрытой подписки upstream
	generation uint64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type subscriber[T any] struct {
	query    domain.CollectionQuery
	listener port.SnapshotListener[T]
}

// NewHub создает хаб над коллекцией query.Collection. match может быть nil.
func NewHub[T any](upstream port.SnapshotSource[T], query domain.CollectionQuery, match MatchFunc[T], logger port.LoggerPort) *Hub[T] {
	return &Hub[T]{
		upstream:    upstream,
		query:       query,
		match:       match,
		logger:      logger.WithFields(port.Fields{"component": "FeedHub", "collection": query.Collection}),
		retryDelay:  defaultRetryDelay,
		subscribers: make(map[uint64]subscriber[T]),
	}
}

// SetRetryDelay задает первую паузу перед переподпиской. Вызывать до Start.
func (h *Hub[T]) SetRetryDelay(d time.Duration) {
	if d > 0 {
		h.retryDelay = d
	}
}

// Start открывает подписку на upstream. ctx ограничивает жизнь всех подписок хаба.
func (h *Hub[T]) Start(ctx context.Context) error {
	h.mu.Lock()
	h.ctx, h.cancel = context.WithCancel(ctx)
	h.mu.Unlock()

	if err := h.subscribeUpstream(); err != nil {
		return err
	}
	h.logger.Info("Feed hub started", nil)
	return nil
}

// Stop закрывает подписку на upstream и останавливает переподписку.
// Подписчики больше ничего не получат.
func (h *Hub[T]) Stop() {
	h.mu.Lock()
	unsubscribe := h.unsubscribe
	h.unsubscribe = nil
	h.stopped = true
	h.generation++
	h.subscribers = make(map[uint64]subscriber[T])
	cancel := h.cancel
	h.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if unsubscribe != nil {
		unsubscribe()
	}
	h.wg.Wait()
	h.logger.Info("Feed hub stopped", nil)
}

// subscribeUpstream открывает новое поколение подписки на upstream.
func (h *Hub[T]) subscribeUpstream() error {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return ErrHubStopped
	}
	h.generation++
	gen := h.generation
	ctx := h.ctx
	h.mu.Unlock()

	unsubscribe, err := h.upstream.Subscribe(ctx, h.query, port.SnapshotListener[T]{
		OnSnapshot: func(records []T) { h.onSnapshot(gen, records) },
		OnError:    func(message string) { h.onError(gen, message) },
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", h.query.Collection, err)
	}

	h.mu.Lock()
	if h.stopped || h.generation != gen {
		// хаб остановлен или подписка уже успела упасть
		h.mu.Unlock()
		unsubscribe()
		return nil
	}
	h.unsubscribe = unsubscribe
	h.mu.Unlock()
	return nil
}

// resubscribe закрывает упавшую подписку и открывает новую, пока не получится
// или пока хаб не остановят.
func (h *Hub[T]) resubscribe(failed port.Unsubscribe) {
	defer h.wg.Done()

	// upstream может ждать выхода из своего обратного вызова, поэтому не в onError
	if failed != nil {
		failed()
	}

	h.mu.RLock()
	ctx := h.ctx
	h.mu.RUnlock()

	delay := h.retryDelay
	for attempt := 1; ; attempt++ {
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		err := h.subscribeUpstream()
		if err == nil {
			h.logger.Info("Upstream subscription restored", port.Fields{"attempt": attempt})
			return
		}
		if errors.Is(err, ErrHubStopped) {
			return
		}
		h.logger.Warn("Failed to restore upstream subscription", port.Fields{"attempt": attempt, "error": err.Error()})
		delay = min(delay*2, maxRetryDelay)
	}
}

// Snapshot возвращает последний снимок и признак того, что он уже пришел.
func (h *Hub[T]) Snapshot() ([]T, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return slices.Clone(h.last), h.hasSnapshot
}

// Err - последнее сообщение об ошибке upstream, пустое если ошибок не было.
func (h *Hub[T]) Err() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.lastErr
}

// Subscribe реализует port.SnapshotSource. Коллекция запроса должна совпадать с коллекцией хаба.
func (h *Hub[T]) Subscribe(ctx context.Context, query domain.CollectionQuery, listener port.SnapshotListener[T]) (port.Unsubscribe, error) {
	if query.Collection != h.query.Collection {
		return nil, fmt.Errorf("hub serves %q, not %q", h.query.Collection, query.Collection)
	}

	h.deliverMu.Lock()
	defer h.deliverMu.Unlock()

	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return nil, ErrHubStopped
	}
	id := h.nextID
	h.nextID++
	sub := subscriber[T]{query: query, listener: listener}
	h.subscribers[id] = sub
	last, hasSnapshot, lastErr := h.last, h.hasSnapshot, h.lastErr
	h.mu.Unlock()

	if hasSnapshot {
		h.deliver(sub, last)
	}
	if lastErr != "" && listener.OnError != nil {
		listener.OnError(lastErr)
	}

	var once sync.Once
	return func() { once.Do(func() { h.remove(id) }) }, nil
}

func (h *Hub[T]) remove(id uint64) {
	h.mu.Lock()
	delete(h.subscribers, id)
	h.mu.Unlock()
}

func (h *Hub[T]) onSnapshot(gen uint64, records []T) {
	h.deliverMu.Lock()
	defer h.deliverMu.Unlock()

	h.mu.Lock()
	if h.stopped || gen != h.generation {
		h.mu.Unlock()
		return
	}
	h.last = slices.Clone(records)
	h.hasSnapshot = true
	h.lastErr = ""
	subs := h.snapshotSubscribers()
	h.mu.Unlock()

	h.logger.Debug("Snapshot received", port.Fields{"records": len(records), "subscribers": len(subs)})
	for _, sub := range subs {
		h.deliver(sub, records)
	}
}

// onError сообщает ошибку подписчикам и запускает переподписку.
// Кеш последнего снимка сохраняется.
func (h *Hub[T]) onError(gen uint64, message string) {
	h.deliverMu.Lock()
	defer h.deliverMu.Unlock()

	h.mu.Lock()
	if h.stopped || gen != h.generation {
		h.mu.Unlock()
		return
	}
	h.lastErr = message
	// новое поколение, чтобы запоздалые вызовы упавшей подписки игнорировались
	h.generation++
	failed := h.unsubscribe
	h.unsubscribe = nil
	subs := h.snapshotSubscribers()
	h.wg.Add(1)
	h.mu.Unlock()

	h.logger.Warn("Upstream subscription failed", port.Fields{"message": message, "subscribers": len(subs)})
	for _, sub := range subs {
		if sub.listener.OnError != nil {
			sub.listener.OnError(message)
		}
	}
	go h.resubscribe(failed)
}

func (h *Hub[T]) snapshotSubscribers() []subscriber[T] {
	subs := make([]subscriber[T], 0, len(h.subscribers))
	for _, s := range h.subscribers {
		subs = append(subs, s)
	}
	return subs
}

func (h *Hub[T]) deliver(sub subscriber[T], records []T) {
	if sub.listener.OnSnapshot == nil {
		return
	}
	if h.match == nil {
		sub.listener.OnSnapshot(slices.Clone(records))
		return
	}
	out := make([]T, 0, len(records))
	for _, r := range records {
		if h.match(sub.query, r) {
			out = append(out, r)
		}
	}
	sub.listener.OnSnapshot(out)
}
