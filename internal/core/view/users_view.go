package view

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"rentals-service/internal/core/domain"
	"rentals-service/internal/core/pipeline"
	"rentals-service/internal/core/port"
)

type UsersState struct {
	Rendered   []domain.User
	Total      int
	Loading    bool
	Err        string
	SearchTerm string
	Sort       domain.SortState
}

// UsersView - таблица пользователей для администратора: поиск и сортировка по живому снимку.
type UsersView struct {
	source port.SnapshotSource[domain.User]
	logger port.LoggerPort

	mu          sync.RWMutex
	snapshot    []domain.User
	term        string
	sort        domain.SortState
	rendered    []domain.User
	loading     bool
	err         string
	started     bool
	closed      bool
	unsubscribe port.Unsubscribe

	changes *changes
}

func NewUsersView(source port.SnapshotSource[domain.User], term string, sort domain.SortState, logger port.LoggerPort) *UsersView {
	if sort.Active() && !pipeline.UserSchema.Has(sort.Field) {
		sort = domain.SortState{}
	}
	return &UsersView{
		source:   source,
		logger:   logger.WithFields(port.Fields{"component": "UsersView"}),
		term:     term,
		sort:     sort,
		rendered: []domain.User{},
		loading:  true,
		changes:  newChanges(),
	}
}

func (v *UsersView) Start(ctx context.Context) error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ErrClosed
	}
	if v.started {
		v.mu.Unlock()
		return ErrAlreadyStarted
	}
	v.started = true
	v.mu.Unlock()

	unsubscribe, err := v.source.Subscribe(ctx, domain.NewestFirst(domain.CollectionUsers), port.SnapshotListener[domain.User]{
		OnSnapshot: func(records []domain.User) {
			v.update(func() {
				v.snapshot = slices.Clone(records)
				v.loading = false
				v.err = ""
				v.recomputeLocked()
			})
		},
		OnError: func(message string) {
			v.update(func() {
				v.loading = false
				v.err = message
			})
			v.logger.Warn("Users subscription failed", port.Fields{"message": message})
		},
	})
	if err != nil {
		v.update(func() {
			v.loading = false
			v.err = "could not load users"
		})
		return fmt.Errorf("failed to subscribe users view: %w", err)
	}

	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		unsubscribe()
		return nil
	}
	v.unsubscribe = unsubscribe
	v.mu.Unlock()
	return nil
}

func (v *UsersView) Close() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	unsubscribe := v.unsubscribe
	v.unsubscribe = nil
	v.changes.close()
	v.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

func (v *UsersView) Changes() <-chan struct{} {
	return v.changes.ch
}

func (v *UsersView) update(apply func()) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	apply()
	v.changes.notify()
}

func (v *UsersView) recomputeLocked() {
	v.rendered = pipeline.RenderUsers(v.snapshot, v.term, v.sort)
}

func (v *UsersView) SetSearchTerm(term string) {
	v.update(func() {
		v.term = term
		v.recomputeLocked()
	})
}

func (v *UsersView) ClearSearch() {
	v.SetSearchTerm("")
}

func (v *UsersView) RequestSort(field string) error {
	if !pipeline.UserSchema.Has(field) {
		return fmt.Errorf("%w: %s", ErrUnknownSortField, field)
	}
	v.update(func() {
		v.sort = pipeline.RequestSort(v.sort, field)
		v.recomputeLocked()
	})
	return nil
}

func (v *UsersView) Rendered() []domain.User {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return slices.Clone(v.rendered)
}

func (v *UsersView) Loading() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.loading
}

func (v *UsersView) Err() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.err
}

func (v *UsersView) Sort() domain.SortState {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.sort
}

func (v *UsersView) State() UsersState {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return UsersState{
		Rendered:   slices.Clone(v.rendered),
		Total:      len(v.rendered),
		Loading:    v.loading,
		Err:        v.err,
		SearchTerm: v.term,
		Sort:       v.sort,
	}
}
