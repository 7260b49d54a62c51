package domain

import "time"

// ListingsPage - результат разового чтения коллекции объявлений через pipeline.
// Err - последняя ошибка источника; Listings при этом построены по последнему удачному снимку.
type ListingsPage struct {
	Listings []Listing
	Total    int
	Loading  bool
	Err      string
	Cities   []string
	Filters  ListingFilters
	Sort     SortState
}

type UsersPage struct {
	Users   []User
	Total   int
	Loading bool
	Err     string
	Sort    SortState
}

// SliderBounds - границы слайдеров цены и площади в интерфейсе.
type SliderBounds struct {
	PriceMin float64
	PriceMax float64
	AreaMin  float64
	AreaMax  float64
}

type FilterOptions struct {
	Cities  []string
	Sliders SliderBounds
}

// AuthResult - пользователь и выданный ему токен доступа.
type AuthResult struct {
	User      *User
	Token     string
	ExpiresAt time.Time
}
