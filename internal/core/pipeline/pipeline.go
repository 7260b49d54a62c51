// Package pipeline строит отображаемую последовательность записей из снимка коллекции.
// Порядок стадий фиксирован: избранное, город, цена, площадь, поиск, сортировка.
// Входной снимок никогда не изменяется, а повторное применение к результату его не меняет.
package pipeline

import (
	"slices"

	"rentals-service/internal/core/domain"
)

// RenderListings применяет все стадии к снимку объявлений.
func RenderListings(snapshot []domain.Listing, filters domain.ListingFilters, sort domain.SortState) []domain.Listing {
	out := FilterFavorites(snapshot, filters.ShowFavorites)
	out = FilterCity(out, filters.City)
	out = FilterPriceRange(out, filters.PriceRange)
	out = FilterAreaRange(out, filters.AreaRange)
	out = SearchListings(out, filters.SearchTerm)
	return Sort(out, ListingSchema, sort)
}

// RenderUsers - поиск и сортировка для таблицы пользователей.
func RenderUsers(snapshot []domain.User, term string, sort domain.SortState) []domain.User {
	return Sort(SearchUsers(snapshot, term), UserSchema, sort)
}

// UniqueCities возвращает domain.AllCities и затем отсортированные города снимка без повторов.
func UniqueCities(listings []domain.Listing) []string {
	seen := make(map[string]struct{}, len(listings))
	cities := make([]string, 0, len(listings))
	for _, l := range listings {
		if l.City == "" {
			continue
		}
		if _, ok := seen[l.City]; ok {
			continue
		}
		seen[l.City] = struct{}{}
		cities = append(cities, l.City)
	}
	slices.Sort(cities)
	return append([]string{domain.AllCities}, cities...)
}

// HasCity сообщает, есть ли город среди значений UniqueCities.
func HasCity(cities []string, city string) bool {
	return slices.Contains(cities, city)
}
