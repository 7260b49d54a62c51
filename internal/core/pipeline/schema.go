package pipeline

import (
	"time"

	"rentals-service/internal/core/domain"
)

// FieldKind определяет, каким компаратором сравнивается поле.
type FieldKind int

const (
	KindText FieldKind = iota
	KindNumeric
	KindDate
	KindCount
)

func (k FieldKind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindDate:
		return "date"
	case KindCount:
		return "count"
	default:
		return "text"
	}
}

// Field - описание сортируемого поля: вид и функция доступа к значению.
// Заполняется ровно одна функция, соответствующая Kind.
type Field[T any] struct {
	Kind   FieldKind
	Text   func(T) string
	Number func(T) float64
	Date   func(T) *time.Time
	Count  func(T) int
}

// Schema - таблица сортируемых полей записи по имени.
type Schema[T any] map[string]Field[T]

// Has проверяет имя поля на границе (запрос, форма).
func (s Schema[T]) Has(name string) bool {
	_, ok := s[name]
	return ok
}

func textField[T any](get func(T) string) Field[T] {
	return Field[T]{Kind: KindText, Text: get}
}

func numberField[T any](get func(T) float64) Field[T] {
	return Field[T]{Kind: KindNumeric, Number: get}
}

func dateField[T any](get func(T) *time.Time) Field[T] {
	return Field[T]{Kind: KindDate, Date: get}
}

var ListingSchema = Schema[domain.Listing]{
	domain.ListingFieldName:            textField(func(l domain.Listing) string { return l.Name }),
	domain.ListingFieldCity:            textField(func(l domain.Listing) string { return l.City }),
	domain.ListingFieldStreet:          textField(func(l domain.Listing) string { return l.Street }),
	domain.ListingFieldStreetNumber:    textField(func(l domain.Listing) string { return l.StreetNumber }),
	domain.ListingFieldAirConditioning: textField(func(l domain.Listing) string { return l.AirConditioning }),
	domain.ListingFieldArea:            numberField(func(l domain.Listing) float64 { return l.Area }),
	domain.ListingFieldYearBuilt:       numberField(func(l domain.Listing) float64 { return float64(l.YearBuilt) }),
	domain.ListingFieldRentPrice:       numberField(func(l domain.Listing) float64 { return l.RentPrice }),
	domain.ListingFieldDateAvailable:   dateField(func(l domain.Listing) *time.Time { return l.DateAvailable }),
	domain.ListingFieldCreatedAt: dateField(func(l domain.Listing) *time.Time {
		if l.CreatedAt.IsZero() {
			return nil
		}
		return &l.CreatedAt
	}),
}

var UserSchema = Schema[domain.User]{
	domain.UserFieldID:        textField(func(u domain.User) string { return u.ID }),
	domain.UserFieldUsername:  textField(func(u domain.User) string { return u.Username }),
	domain.UserFieldFirstName: textField(func(u domain.User) string { return u.FirstName }),
	domain.UserFieldLastName:  textField(func(u domain.User) string { return u.LastName }),
	domain.UserFieldEmail:     textField(func(u domain.User) string { return u.Email }),
	domain.UserFieldRole:      textField(func(u domain.User) string { return u.Role.String() }),
	domain.UserFieldBirthday:  dateField(func(u domain.User) *time.Time { return u.Birthday }),
	domain.UserFieldCreatedAt: dateField(func(u domain.User) *time.Time { return u.CreatedAt }),
	domain.UserFieldListings:  {Kind: KindCount, Count: func(u domain.User) int { return len(u.ListingIDs) }},
}
