package rest

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"rentals-service/internal/core/domain"
)

// parseListingQuery читает фильтры и сортировку из query string.
// Некорректные значения не ошибка: соответствующий фильтр просто не применяется.
func parseListingQuery(r *http.Request) (domain.ListingFilters, domain.SortState) {
	q := r.URL.Query()

	filters := domain.DefaultListingFilters()
	filters.ShowFavorites = parseBool(q.Get("favorites"))
	if city := strings.TrimSpace(q.Get("city")); city != "" {
		filters.City = city
	}
	filters.PriceRange = parseRange(q.Get("price"))
	filters.AreaRange = parseRange(q.Get("area"))
	filters.SearchTerm = q.Get("q")

	return filters, parseSort(r)
}

// parseSort - поле без направления сортируется по возрастанию.
func parseSort(r *http.Request) domain.SortState {
	q := r.URL.Query()
	field := strings.TrimSpace(q.Get("sort"))
	if field == "" {
		return domain.SortState{}
	}
	order := domain.ParseSortOrder(q.Get("order"))
	if order == domain.SortNone {
		order = domain.SortAsc
	}
	return domain.SortState{Field: field, Order: order}
}

// parseRange разбирает "min,max". Нечисловой, NaN или бесконечный элемент
// выключает фильтр целиком: такие значения не сравниваются и не кодируются в JSON.
func parseRange(raw string) domain.Range {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out domain.Range
	for _, part := range strings.Split(raw, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil
		}
		out = append(out, v)
	}
	return out
}

func parseBool(raw string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	return err == nil && v
}
