package domain

import (
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Значения поля "кондиционер", как их показывает интерфейс.
const (
	AirConditioningYes = "Si"
	AirConditioningNo  = "No"
)

const minYearBuilt = 1800

// Listing - объявление об аренде квартиры.
// Значение неизменяемо: любое изменение создает новую запись.
type Listing struct {
	ID              string
	Name            string
	City            string
	Street          string
	StreetNumber    string
	Area            float64
	AirConditioning string
	YearBuilt       int
	DateAvailable   *time.Time
	RentPrice       float64
	ImageURLs       []string
	Favorite        bool
	CreatedAt       time.Time
	OwnerID         string
}

// WithFavorite возвращает копию записи с заданным флагом избранного.
func (l Listing) WithFavorite(favorite bool) Listing {
	out := l
	out.Favorite = favorite
	out.ImageURLs = append([]string(nil), l.ImageURLs...)
	if l.DateAvailable != nil {
		d := *l.DateAvailable
		out.DateAvailable = &d
	}
	return out
}

// ListingDraft - данные формы создания объявления
type ListingDraft struct {
	Name            string
	City            string
	Street          string
	StreetNumber    string
	Area            float64
	AirConditioning string
	YearBuilt       int
	DateAvailable   time.Time
	RentPrice       float64
	ImageURLs       []string
}

// NewListing проверяет черновик и создает запись, принадлежащую ownerID.
func NewListing(ownerID string, draft ListingDraft, now time.Time) (*Listing, error) {
	var problems validationErrors

	if strings.TrimSpace(ownerID) == "" {
		problems.add("owner is required")
	}
	if strings.TrimSpace(draft.Name) == "" {
		problems.add("name is required")
	}
	if strings.TrimSpace(draft.City) == "" {
		problems.add("city is required")
	}
	if strings.TrimSpace(draft.Street) == "" {
		problems.add("street is required")
	}
	if strings.TrimSpace(draft.StreetNumber) == "" {
		problems.add("street number is required")
	}
	if draft.Area <= 0 {
		problems.add("area must be greater than 0")
	}
	if draft.RentPrice < 0 {
		problems.add("rent price must be greater or equal to 0")
	}
	if draft.YearBuilt < minYearBuilt || draft.YearBuilt > now.Year() {
		problems.add("year built must be between 1800 and the current year")
	}
	if draft.AirConditioning != AirConditioningYes && draft.AirConditioning != AirConditioningNo {
		problems.add("air conditioning must be \"Si\" or \"No\"")
	}
	if draft.DateAvailable.IsZero() {
		problems.add("date available is required")
	} else if startOfDay(draft.DateAvailable).Before(startOfDay(now)) {
		problems.add("date available cannot be in the past")
	}
	if len(draft.ImageURLs) == 0 {
		problems.add("at least one image is required")
	}
	for _, raw := range draft.ImageURLs {
		if !isHTTPURL(raw) {
			problems.add("invalid image url: " + raw)
		}
	}

	if err := problems.err(); err != nil {
		return nil, err
	}

	available := draft.DateAvailable.UTC()
	return &Listing{
		ID:              uuid.New().String(),
		Name:            strings.TrimSpace(draft.Name),
		City:            strings.TrimSpace(draft.City),
		Street:          strings.TrimSpace(draft.Street),
		StreetNumber:    strings.TrimSpace(draft.StreetNumber),
		Area:            draft.Area,
		AirConditioning: draft.AirConditioning,
		YearBuilt:       draft.YearBuilt,
		DateAvailable:   &available,
		RentPrice:       draft.RentPrice,
		ImageURLs:       append([]string(nil), draft.ImageURLs...),
		CreatedAt:       now.UTC(),
		OwnerID:         ownerID,
	}, nil
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
