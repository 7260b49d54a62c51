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

// ListingsState - согласованный срез состояния представления объявлений.
type ListingsState struct {
	Rendered []domain.Listing
	Total    int
	Loading  bool
	Err      string
	Cities   []string
	Filters  domain.ListingFilters
	Sort     domain.SortState
}

// ListingsOptions - начальное состояние представления.
type ListingsOptions struct {
	Filters   domain.ListingFilters
	Sort      domain.SortState
	Favorites []string
}

// ListingsView хранит снимок объявлений и состояние фильтров.
// Любое событие (снимок, избранное, фильтр, поиск, сортировка) пересчитывает
// результат заново и синхронно.
type ListingsView struct {
	source port.SnapshotSource[domain.Listing]
	query  domain.CollectionQuery
	logger port.LoggerPort

	mu          sync.RWMutex
	snapshot    []domain.Listing
	favorites   map[string]struct{}
	filters     domain.ListingFilters
	sort        domain.SortState
	rendered    []domain.Listing
	cities      []string
	loading     bool
	err         string
	started     bool
	closed      bool
	unsubscribe port.Unsubscribe

	changes *changes
}

func NewListingsView(source port.SnapshotSource[domain.Listing], query domain.CollectionQuery, opts ListingsOptions, logger port.LoggerPort) *ListingsView {
	filters := opts.Filters
	if filters.City == "" {
		filters.City = domain.AllCities
	}
	sort := opts.Sort
	if sort.Active() && !pipeline.ListingSchema.Has(sort.Field) {
		sort = domain.SortState{}
	}

	v := &ListingsView{
		source:    source,
		query:     query,
		logger:    logger.WithFields(port.Fields{"component": "ListingsView", "owner_id": query.OwnerID}),
		favorites: toSet(opts.Favorites),
		filters:   filters,
		sort:      sort,
		rendered:  []domain.Listing{},
		cities:    []string{domain.AllCities},
		loading:   true,
		changes:   newChanges(),
	}
	return v
}

// Start подписывается на источник. До первого снимка Loading() возвращает true.
func (v *ListingsView) Start(ctx context.Context) error {
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

	unsubscribe, err := v.source.Subscribe(ctx, v.query, port.SnapshotListener[domain.Listing]{
		OnSnapshot: v.onSnapshot,
		OnError:    v.onError,
	})
	if err != nil {
		v.mu.Lock()
		v.loading = false
		v.err = "could not load listings"
		v.changes.notify()
		v.mu.Unlock()
		return fmt.Errorf("failed to subscribe listings view: %w", err)
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

// Close отменяет подписку и закрывает канал Changes. Повторный вызов безопасен.
func (v *ListingsView) Close() {
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

// Changes получает сигнал после каждого пересчета и закрывается в Close.
func (v *ListingsView) Changes() <-chan struct{} {
	return v.changes.ch
}

func (v *ListingsView) onSnapshot(records []domain.Listing) {
	v.update(func() {
		v.snapshot = slices.Clone(records)
		v.loading = false
		v.err = ""
		v.recomputeLocked(true)
	})
	v.logger.Debug("Listings snapshot applied", port.Fields{"records": len(records)})
}

func (v *ListingsView) onError(message string) {
	v.update(func() {
		v.loading = false
		v.err = message
	})
	v.logger.Warn("Listings subscription failed", port.Fields{"message": message})
}

// update применяет изменение и сигналит в Changes под тем же мьютексом,
// что и Close, поэтому сигнал никогда не уходит в закрытый канал.
func (v *ListingsView) update(apply func()) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	apply()
	v.changes.notify()
}

// recomputeLocked накладывает избранное на снимок и прогоняет pipeline.
// resetCity сбрасывает фильтр города, если город исчез из нового снимка.
func (v *ListingsView) recomputeLocked(resetCity bool) {
	overlaid := make([]domain.Listing, 0, len(v.snapshot))
	for _, l := range v.snapshot {
		_, fav := v.favorites[l.ID]
		if l.Favorite != fav {
			l = l.WithFavorite(fav)
		}
		overlaid = append(overlaid, l)
	}

	v.cities = pipeline.UniqueCities(overlaid)
	if resetCity && !pipeline.HasCity(v.cities, v.filters.City) {
		v.filters.City = domain.AllCities
	}
	v.rendered = pipeline.RenderListings(overlaid, v.filters, v.sort)
}

func (v *ListingsView) SetShowFavorites(enabled bool) {
	v.update(func() {
		v.filters.ShowFavorites = enabled
		v.recomputeLocked(false)
	})
}

func (v *ListingsView) SetCity(city string) {
	if city == "" {
		city = domain.AllCities
	}
	v.update(func() {
		v.filters.City = city
		v.recomputeLocked(false)
	})
}

func (v *ListingsView) SetPriceRange(r domain.Range) {
	v.update(func() {
		v.filters.PriceRange = slices.Clone(r)
		v.recomputeLocked(false)
	})
}

func (v *ListingsView) SetAreaRange(r domain.Range) {
	v.update(func() {
		v.filters.AreaRange = slices.Clone(r)
		v.recomputeLocked(false)
	})
}

func (v *ListingsView) SetSearchTerm(term string) {
	v.update(func() {
		v.filters.SearchTerm = term
		v.recomputeLocked(false)
	})
}

func (v *ListingsView) ClearSearch() {
	v.SetSearchTerm("")
}

// RequestSort переключает сортировку по полю: asc, затем desc.
func (v *ListingsView) RequestSort(field string) error {
	if !pipeline.ListingSchema.Has(field) {
		return fmt.Errorf("%w: %s", ErrUnknownSortField, field)
	}
	v.update(func() {
		v.sort = pipeline.RequestSort(v.sort, field)
		v.recomputeLocked(false)
	})
	return nil
}

// ToggleFavorite меняет флаг избранного в представлении и возвращает новое значение.
// Сохранение в хранилище - задача вызывающего use case.
func (v *ListingsView) ToggleFavorite(listingID string) bool {
	var favorite bool
	v.update(func() {
		if _, ok := v.favorites[listingID]; ok {
			delete(v.favorites, listingID)
		} else {
			v.favorites[listingID] = struct{}{}
			favorite = true
		}
		v.recomputeLocked(false)
	})
	return favorite
}

// SetFavorites заменяет набор избранного целиком.
func (v *ListingsView) SetFavorites(ids []string) {
	v.update(func() {
		v.favorites = toSet(ids)
		v.recomputeLocked(false)
	})
}

func (v *ListingsView) Rendered() []domain.Listing {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return slices.Clone(v.rendered)
}

func (v *ListingsView) Loading() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.loading
}

// Err - последнее сообщение об ошибке подписки, пустое если ошибки нет.
func (v *ListingsView) Err() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.err
}

func (v *ListingsView) UniqueCities() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return slices.Clone(v.cities)
}

func (v *ListingsView) Sort() domain.SortState {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.sort
}

func (v *ListingsView) Filters() domain.ListingFilters {
	v.mu.RLock()
	defer v.mu.RUnlock()
	f := v.filters
	f.PriceRange = slices.Clone(f.PriceRange)
	f.AreaRange = slices.Clone(f.AreaRange)
	return f
}

// State возвращает все поля состояния, прочитанные под одной блокировкой.
func (v *ListingsView) State() ListingsState {
	v.mu.RLock()
	defer v.mu.RUnlock()
	f := v.filters
	f.PriceRange = slices.Clone(f.PriceRange)
	f.AreaRange = slices.Clone(f.AreaRange)
	return ListingsState{
		Rendered: slices.Clone(v.rendered),
		Total:    len(v.rendered),
		Loading:  v.loading,
		Err:      v.err,
		Cities:   slices.Clone(v.cities),
		Filters:  f,
		Sort:     v.sort,
	}
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
