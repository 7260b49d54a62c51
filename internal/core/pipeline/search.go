package pipeline

import (
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/cases"

	"rentals-service/internal/core/domain"
)

// SearchListings ищет подстроку без учета регистра по названию, городу и году постройки.
// Пустой или пробельный запрос ничего не отсекает, иначе ищется строка как есть, с пробелами.
func SearchListings(listings []domain.Listing, term string) []domain.Listing {
	return search(listings, term, func(l domain.Listing) []string {
		return []string{l.Name, l.City, strconv.Itoa(l.YearBuilt)}
	})
}

// SearchUsers - то же для пользователей: имя, фамилия, email, логин и роль.
func SearchUsers(users []domain.User, term string) []domain.User {
	return search(users, term, func(u domain.User) []string {
		return []string{u.FirstName, u.LastName, u.Email, u.Username, u.Role.String()}
	})
}

func search[T any](records []T, term string, fields func(T) []string) []T {
	if strings.TrimSpace(term) == "" {
		return slices.Clone(records)
	}

	// cases.Caser хранит состояние, поэтому новый на каждый вызов
	fold := cases.Fold()
	needle := fold.String(term)
	return keep(records, func(r T) bool {
		for _, f := range fields(r) {
			if strings.Contains(fold.String(f), needle) {
				return true
			}
		}
		return false
	})
}
