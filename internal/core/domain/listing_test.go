package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

func validDraft() ListingDraft {
	return ListingDraft{
		Name:            "Loft Chapinero",
		City:            "Bogotá",
		Street:          "Calle 60",
		StreetNumber:    "7-12",
		Area:            54,
		AirConditioning: AirConditioningNo,
		YearBuilt:       1998,
		DateAvailable:   testNow.AddDate(0, 1, 0),
		RentPrice:       650,
		ImageURLs:       []string{"https://img.example.com/1.jpg"},
	}
}

func TestNewListing(t *testing.T) {
	l, err := NewListing("owner-1", validDraft(), testNow)
	require.NoError(t, err)

	assert.NotEmpty(t, l.ID)
	assert.Equal(t, "owner-1", l.OwnerID)
	assert.Equal(t, testNow, l.CreatedAt)
	assert.False(t, l.Favorite)
	require.NotNil(t, l.DateAvailable)
}

func TestNewListing_CollectsAllProblems(t *testing.T) {
	draft := validDraft()
	draft.Name = " "
	draft.Area = 0
	draft.YearBuilt = 1700
	draft.AirConditioning = "maybe"
	draft.ImageURLs = []string{"ftp://nope"}
	draft.DateAvailable = testNow.AddDate(0, 0, -2)

	_, err := NewListing("owner-1", draft, testNow)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Problems, 6)
}

func TestNewListing_TodayIsAvailable(t *testing.T) {
	draft := validDraft()
	draft.DateAvailable = time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)

	_, err := NewListing("owner-1", draft, testNow)
	assert.NoError(t, err)
}

func TestListingWithFavoriteReturnsCopy(t *testing.T) {
	original := Listing{ID: "a", ImageURLs: []string{"x"}}

	toggled := original.WithFavorite(true)
	toggled.ImageURLs[0] = "y"

	assert.False(t, original.Favorite)
	assert.True(t, toggled.Favorite)
	assert.Equal(t, "x", original.ImageURLs[0])
}

func TestRangeBounds(t *testing.T) {
	_, _, ok := Range{100}.Bounds()
	assert.False(t, ok)
	_, _, ok = Range(nil).Bounds()
	assert.False(t, ok)
	_, _, ok = Range{1, 2, 3}.Bounds()
	assert.False(t, ok)

	min, max, ok := Range{100, 900}.Bounds()
	assert.True(t, ok)
	assert.Equal(t, 100.0, min)
	assert.Equal(t, 900.0, max)

	assert.True(t, Range{100, 900}.Contains(900))
	assert.False(t, Range{100, 900}.Contains(901))
	assert.True(t, Range{100}.Contains(-5))
}

func TestParseSortOrder(t *testing.T) {
	assert.Equal(t, SortAsc, ParseSortOrder("ASC"))
	assert.Equal(t, SortDesc, ParseSortOrder("desc"))
	assert.Equal(t, SortNone, ParseSortOrder("sideways"))
	assert.False(t, SortState{Field: "city"}.Active())
	assert.True(t, SortState{Field: "city", Order: SortAsc}.Active())
}
