package domain

import (
	"math"
	"strings"
)

// AllCities - зарезервированное значение фильтра по городу: "без фильтрации".
const AllCities = "all"

// Range - границы [min, max] включительно. Активен только диапазон
// ровно из двух значений без NaN; любой другой считается выключенным фильтром.
type Range []float64

// Bounds возвращает границы и признак того, что диапазон корректен.
func (r Range) Bounds() (min, max float64, ok bool) {
	if len(r) != 2 || math.IsNaN(r[0]) || math.IsNaN(r[1]) {
		return 0, 0, false
	}
	return r[0], r[1], true
}

func (r Range) Contains(v float64) bool {
	min, max, ok := r.Bounds()
	if !ok {
		return true
	}
	return v >= min && v <= max
}

// ListingFilters - состояние фильтров представления. Принадлежит представлению, а не записям.
type ListingFilters struct {
	ShowFavorites bool
	City          string
	PriceRange    Range
	AreaRange     Range
	SearchTerm    string
}

// DefaultListingFilters - все фильтры выключены.
func DefaultListingFilters() ListingFilters {
	return ListingFilters{City: AllCities}
}

type SortOrder string

const (
	SortNone SortOrder = ""
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

func ParseSortOrder(s string) SortOrder {
	switch SortOrder(strings.ToLower(strings.TrimSpace(s))) {
	case SortAsc:
		return SortAsc
	case SortDesc:
		return SortDesc
	default:
		return SortNone
	}
}

// SortState - текущая сортировка. Пустое поле или SortNone сохраняет порядок источника.
type SortState struct {
	Field string
	Order SortOrder
}

func (s SortState) Active() bool {
	return s.Field != "" && s.Order != SortNone
}

// Поля объявления, по которым можно сортировать.
const (
	ListingFieldName            = "flatName"
	ListingFieldCity            = "city"
	ListingFieldStreet          = "street"
	ListingFieldStreetNumber    = "streetNumber"
	ListingFieldArea            = "area"
	ListingFieldAirConditioning = "airConditioning"
	ListingFieldYearBuilt       = "yearBuilt"
	ListingFieldDateAvailable   = "dateAvailable"
	ListingFieldRentPrice       = "rentPrice"
	ListingFieldCreatedAt       = "createdAt"
)

// Поля пользователя, по которым можно сортировать.
const (
	UserFieldID        = "uid"
	UserFieldUsername  = "username"
	UserFieldFirstName = "firstName"
	UserFieldLastName  = "lastName"
	UserFieldEmail     = "email"
	UserFieldRole      = "role"
	UserFieldBirthday  = "birthday"
	UserFieldListings  = "flats"
	UserFieldCreatedAt = "createdAt"
)

// Коллекции источника данных.
const (
	CollectionListings = "flats"
	CollectionUsers    = "users"
)

// CollectionQuery описывает подписку на коллекцию: что и в каком порядке.
type CollectionQuery struct {
	Collection string
	OrderBy    string
	Descending bool
	// OwnerID ограничивает коллекцию объявлений записями одного владельца
	OwnerID string
}

// NewestFirst - порядок по умолчанию: сначала новые.
func NewestFirst(collection string) CollectionQuery {
	return CollectionQuery{Collection: collection, OrderBy: "createdAt", Descending: true}
}

// MatchesListing - попадает ли объявление в выборку запроса.
func (q CollectionQuery) MatchesListing(l Listing) bool {
	return q.OwnerID == "" || l.OwnerID == q.OwnerID
}
