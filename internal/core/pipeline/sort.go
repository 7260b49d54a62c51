package pipeline

import (
	"cmp"
	"slices"
	"strings"

	"rentals-service/internal/core/domain"
)

// RequestSort - повторный выбор поля, отсортированного по возрастанию,
// переключает на убывание; любой другой выбор дает возрастание.
func RequestSort(current domain.SortState, field string) domain.SortState {
	if current.Field == field && current.Order == domain.SortAsc {
		return domain.SortState{Field: field, Order: domain.SortDesc}
	}
	return domain.SortState{Field: field, Order: domain.SortAsc}
}

// Sort возвращает новый срез, упорядоченный стабильно. Неактивная сортировка
// или неизвестное поле сохраняют порядок источника.
func Sort[T any](records []T, schema Schema[T], state domain.SortState) []T {
	out := slices.Clone(records)
	if !state.Active() {
		return out
	}
	field, ok := schema[state.Field]
	if !ok {
		return out
	}

	sign := 1
	if state.Order == domain.SortDesc {
		sign = -1
	}
	slices.SortStableFunc(out, func(a, b T) int {
		return field.compare(a, b, sign)
	})
	return out
}

// compare применяет направление ко всему, кроме пустых дат: они всегда в конце.
func (f Field[T]) compare(a, b T, sign int) int {
	switch f.Kind {
	case KindNumeric:
		return sign * cmp.Compare(f.Number(a), f.Number(b))
	case KindCount:
		return sign * cmp.Compare(f.Count(a), f.Count(b))
	case KindDate:
		da, db := f.Date(a), f.Date(b)
		switch {
		case da == nil && db == nil:
			return 0
		case da == nil:
			return 1
		case db == nil:
			return -1
		}
		return sign * da.Compare(*db)
	default:
		return sign * strings.Compare(f.Text(a), f.Text(b))
	}
}
