package pipeline

import (
	"slices"

	"rentals-service/internal/core/domain"
)

// Фильтры - чистые функции. Каждый возвращает новый срез, который является
// подпоследовательностью входа с сохранением порядка. Некорректный параметр
// фильтра означает "фильтр выключен", а не ошибку.

// FilterFavorites оставляет только избранное, если enabled.
func FilterFavorites(listings []domain.Listing, enabled bool) []domain.Listing {
	if !enabled {
		return slices.Clone(listings)
	}
	return keep(listings, func(l domain.Listing) bool { return l.Favorite })
}

// FilterCity - точное совпадение города. domain.AllCities и пустая строка ничего не отсекают.
func FilterCity(listings []domain.Listing, city string) []domain.Listing {
	if city == "" || city == domain.AllCities {
		return slices.Clone(listings)
	}
	return keep(listings, func(l domain.Listing) bool { return l.City == city })
}

func FilterPriceRange(listings []domain.Listing, r domain.Range) []domain.Listing {
	return filterRange(listings, r, func(l domain.Listing) float64 { return l.RentPrice })
}

func FilterAreaRange(listings []domain.Listing, r domain.Range) []domain.Listing {
	return filterRange(listings, r, func(l domain.Listing) float64 { return l.Area })
}

func filterRange(listings []domain.Listing, r domain.Range, value func(domain.Listing) float64) []domain.Listing {
	if _, _, ok := r.Bounds(); !ok {
		return slices.Clone(listings)
	}
	return keep(listings, func(l domain.Listing) bool { return r.Contains(value(l)) })
}

func keep[T any](in []T, pred func(T) bool) []T {
	out := make([]T, 0, len(in))
	for _, v := range in {
		if pred(v) {
			out = append(out, v)
		}
	}
	return out
}
