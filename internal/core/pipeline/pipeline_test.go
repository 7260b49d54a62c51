package pipeline

import (
	"math"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentals-service/internal/core/domain"
)

func listing(id string, price float64, city string) domain.Listing {
	return domain.Listing{ID: id, Name: "Flat " + id, City: city, RentPrice: price, Area: 50, YearBuilt: 2000}
}

func ids(listings []domain.Listing) []string {
	out := make([]string, 0, len(listings))
	for _, l := range listings {
		out = append(out, l.ID)
	}
	return out
}

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func sampleSnapshot() []domain.Listing {
	a := listing("1", 500, "A")
	a.Favorite = true
	a.Area = 40
	b := listing("2", 900, "B")
	b.Area = 120
	c := listing("3", 300, "A")
	c.Favorite = true
	c.Area = 80
	d := listing("4", 500, "C")
	d.Area = 60
	return []domain.Listing{a, b, c, d}
}

// isOrderedSubset проверяет, что sub - подпоследовательность full.
func isOrderedSubset(t *testing.T, full, sub []domain.Listing) {
	t.Helper()
	i := 0
	for _, s := range sub {
		for i < len(full) && full[i].ID != s.ID {
			i++
		}
		require.Less(t, i, len(full), "element %s out of order or missing", s.ID)
		i++
	}
}

func TestFiltersAreOrderedSubsets(t *testing.T) {
	snap := sampleSnapshot()
	outputs := map[string][]domain.Listing{
		"favorites": FilterFavorites(snap, true),
		"city":      FilterCity(snap, "A"),
		"price":     FilterPriceRange(snap, domain.Range{400, 900}),
		"area":      FilterAreaRange(snap, domain.Range{50, 100}),
		"search":    SearchListings(snap, "flat"),
	}
	for name, out := range outputs {
		t.Run(name, func(t *testing.T) {
			isOrderedSubset(t, snap, out)
		})
	}
}

func TestFiltersDoNotMutateInput(t *testing.T) {
	snap := sampleSnapshot()
	before := slices.Clone(snap)

	_ = RenderListings(snap, domain.ListingFilters{
		ShowFavorites: true,
		City:          "A",
		PriceRange:    domain.Range{0, 1000},
		SearchTerm:    "flat",
	}, domain.SortState{Field: domain.ListingFieldRentPrice, Order: domain.SortAsc})

	assert.Equal(t, ids(before), ids(snap))
}

func TestFilterCity(t *testing.T) {
	snap := sampleSnapshot()
	assert.Equal(t, []string{"1", "3"}, ids(FilterCity(snap, "A")))
	assert.Equal(t, ids(snap), ids(FilterCity(snap, domain.AllCities)))
	assert.Equal(t, ids(snap), ids(FilterCity(snap, "")))
	assert.Empty(t, FilterCity(snap, "Z"))
}

func TestFilterRangesAreInclusive(t *testing.T) {
	snap := sampleSnapshot()
	assert.Equal(t, []string{"1", "3", "4"}, ids(FilterPriceRange(snap, domain.Range{300, 500})))
	assert.Equal(t, []string{"3", "4"}, ids(FilterAreaRange(snap, domain.Range{60, 80})))
}

func TestMalformedRangeIsIdentity(t *testing.T) {
	snap := sampleSnapshot()
	for _, r := range []domain.Range{nil, {100}, {1, 2, 3}, {math.NaN(), 1000}, {0, math.NaN()}} {
		assert.Equal(t, ids(snap), ids(FilterPriceRange(snap, r)))
		assert.Equal(t, ids(snap), ids(FilterAreaRange(snap, r)))
	}
}

func TestFilterFavorites(t *testing.T) {
	snap := sampleSnapshot()
	assert.Equal(t, []string{"1", "3"}, ids(FilterFavorites(snap, true)))
	assert.Equal(t, ids(snap), ids(FilterFavorites(snap, false)))
}

func TestSearchListings(t *testing.T) {
	snap := []domain.Listing{
		{ID: "1", Name: "Juan Pérez", City: "Cali", YearBuilt: 1990},
		{ID: "2", Name: "Casa azul", City: "Juanchaco", YearBuilt: 2005},
		{ID: "3", Name: "Loft", City: "Bogotá", YearBuilt: 2019},
	}

	assert.Equal(t, []string{"1", "2"}, ids(SearchListings(snap, "juan")))
	assert.Equal(t, []string{"1", "2"}, ids(SearchListings(snap, "JUAN")))
	assert.Equal(t, []string{"3"}, ids(SearchListings(snap, "2019")))
	assert.Equal(t, []string{"3"}, ids(SearchListings(snap, "BOGOTÁ")))
	assert.Empty(t, SearchListings(snap, "medellín"))
}

func TestSearchKeepsSurroundingSpaces(t *testing.T) {
	snap := []domain.Listing{
		{ID: "1", Name: "Juan Pérez", City: "Cali"},
		{ID: "2", Name: "Casa azul", City: "Juanchaco"},
	}

	assert.Equal(t, []string{"1"}, ids(SearchListings(snap, "juan ")))
	assert.Equal(t, []string{"1", "2"}, ids(SearchListings(snap, "juan")))
	assert.Empty(t, SearchListings(snap, " cali "))
}

func TestEmptySearchIsIdentity(t *testing.T) {
	snap := sampleSnapshot()
	assert.Equal(t, ids(snap), ids(SearchListings(snap, "")))
	assert.Equal(t, ids(snap), ids(SearchListings(snap, "   ")))
}

func TestSearchUsers(t *testing.T) {
	users := []domain.User{
		{ID: "u1", FirstName: "Ana", LastName: "Gómez", Email: "ana@example.com", Username: "anag", Role: domain.RoleUser},
		{ID: "u2", FirstName: "Luis", LastName: "Ortiz", Email: "luis@example.com", Username: "lortiz", Role: domain.RoleAdmin},
	}

	assert.Len(t, SearchUsers(users, "ADMIN"), 1)
	assert.Len(t, SearchUsers(users, "example.com"), 2)
	assert.Len(t, SearchUsers(users, "gómez"), 1)
	assert.Len(t, SearchUsers(users, ""), 2)
}

func TestRequestSort(t *testing.T) {
	s := RequestSort(domain.SortState{}, domain.ListingFieldRentPrice)
	assert.Equal(t, domain.SortState{Field: domain.ListingFieldRentPrice, Order: domain.SortAsc}, s)

	s = RequestSort(s, domain.ListingFieldRentPrice)
	assert.Equal(t, domain.SortDesc, s.Order)

	s = RequestSort(s, domain.ListingFieldRentPrice)
	assert.Equal(t, domain.SortAsc, s.Order)

	s = RequestSort(s, domain.ListingFieldCity)
	assert.Equal(t, domain.SortState{Field: domain.ListingFieldCity, Order: domain.SortAsc}, s)
}

func TestSortIsStable(t *testing.T) {
	snap := []domain.Listing{
		listing("a", 500, "X"),
		listing("b", 300, "X"),
		listing("c", 500, "X"),
		listing("d", 300, "X"),
	}

	asc := Sort(snap, ListingSchema, domain.SortState{Field: domain.ListingFieldRentPrice, Order: domain.SortAsc})
	assert.Equal(t, []string{"b", "d", "a", "c"}, ids(asc))

	desc := Sort(snap, ListingSchema, domain.SortState{Field: domain.ListingFieldRentPrice, Order: domain.SortDesc})
	assert.Equal(t, []string{"a", "c", "b", "d"}, ids(desc))
}

func TestSortIsSymmetricForDistinctKeys(t *testing.T) {
	snap := []domain.Listing{
		listing("a", 700, "Medellín"),
		listing("b", 100, "Bogotá"),
		listing("c", 400, "Cali"),
		listing("d", 250, "Pasto"),
	}

	for _, field := range []string{domain.ListingFieldRentPrice, domain.ListingFieldCity, domain.ListingFieldName} {
		t.Run(field, func(t *testing.T) {
			asc := ids(Sort(snap, ListingSchema, domain.SortState{Field: field, Order: domain.SortAsc}))
			desc := ids(Sort(snap, ListingSchema, domain.SortState{Field: field, Order: domain.SortDesc}))
			slices.Reverse(asc)
			assert.Equal(t, desc, asc)
		})
	}
}

func TestNullDatesSortLast(t *testing.T) {
	snap := []domain.Listing{
		{ID: "none1"},
		{ID: "mar", DateAvailable: date(2025, time.March, 1)},
		{ID: "none2"},
		{ID: "jan", DateAvailable: date(2025, time.January, 1)},
	}

	asc := Sort(snap, ListingSchema, domain.SortState{Field: domain.ListingFieldDateAvailable, Order: domain.SortAsc})
	assert.Equal(t, []string{"jan", "mar", "none1", "none2"}, ids(asc))

	desc := Sort(snap, ListingSchema, domain.SortState{Field: domain.ListingFieldDateAvailable, Order: domain.SortDesc})
	assert.Equal(t, []string{"mar", "jan", "none1", "none2"}, ids(desc))
}

func TestSortInactiveOrUnknownFieldIsIdentity(t *testing.T) {
	snap := sampleSnapshot()
	assert.Equal(t, ids(snap), ids(Sort(snap, ListingSchema, domain.SortState{})))
	assert.Equal(t, ids(snap), ids(Sort(snap, ListingSchema, domain.SortState{Field: domain.ListingFieldCity})))
	assert.Equal(t, ids(snap), ids(Sort(snap, ListingSchema, domain.SortState{Field: "password", Order: domain.SortAsc})))
	assert.False(t, ListingSchema.Has("password"))
	assert.True(t, UserSchema.Has(domain.UserFieldListings))
}

func TestSortUsersByListingCount(t *testing.T) {
	users := []domain.User{
		{ID: "u1", ListingIDs: []string{"a", "b"}},
		{ID: "u2"},
		{ID: "u3", ListingIDs: []string{"c"}},
	}

	got := RenderUsers(users, "", domain.SortState{Field: domain.UserFieldListings, Order: domain.SortAsc})
	require.Len(t, got, 3)
	assert.Equal(t, "u2", got[0].ID)
	assert.Equal(t, "u3", got[1].ID)
	assert.Equal(t, "u1", got[2].ID)
}

func TestSortUsersByBirthdayKeepsMissingLast(t *testing.T) {
	users := []domain.User{
		{ID: "u1"},
		{ID: "u2", Birthday: date(1980, time.June, 1)},
		{ID: "u3", Birthday: date(1995, time.June, 1)},
	}

	got := RenderUsers(users, "", domain.SortState{Field: domain.UserFieldBirthday, Order: domain.SortDesc})
	assert.Equal(t, "u3", got[0].ID)
	assert.Equal(t, "u2", got[1].ID)
	assert.Equal(t, "u1", got[2].ID)
}

func TestRenderListingsScenario(t *testing.T) {
	snap := []domain.Listing{listing("1", 500, "A"), listing("2", 900, "B"), listing("3", 300, "A")}
	filters := domain.DefaultListingFilters()
	filters.City = "A"

	got := RenderListings(snap, filters, domain.SortState{})
	assert.Equal(t, []string{"1", "3"}, ids(got))

	got = RenderListings(snap, filters, domain.SortState{Field: domain.ListingFieldRentPrice, Order: domain.SortAsc})
	assert.Equal(t, []string{"3", "1"}, ids(got))
}

func TestRenderListingsIsIdempotent(t *testing.T) {
	snap := sampleSnapshot()
	cases := []struct {
		name    string
		filters domain.ListingFilters
		sort    domain.SortState
	}{
		{"defaults", domain.DefaultListingFilters(), domain.SortState{}},
		{"favorites by price desc", domain.ListingFilters{ShowFavorites: true, City: domain.AllCities}, domain.SortState{Field: domain.ListingFieldRentPrice, Order: domain.SortDesc}},
		{"range and search", domain.ListingFilters{City: domain.AllCities, PriceRange: domain.Range{0, 600}, SearchTerm: "flat"}, domain.SortState{Field: domain.ListingFieldArea, Order: domain.SortAsc}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			once := RenderListings(snap, tc.filters, tc.sort)
			twice := RenderListings(once, tc.filters, tc.sort)
			assert.Equal(t, ids(once), ids(twice))
		})
	}
}

func TestUniqueCities(t *testing.T) {
	snap := []domain.Listing{listing("1", 1, "Cali"), listing("2", 1, "Bogotá"), listing("3", 1, "Cali"), listing("4", 1, "")}
	cities := UniqueCities(snap)
	assert.Equal(t, []string{domain.AllCities, "Bogotá", "Cali"}, cities)
	assert.True(t, HasCity(cities, "Cali"))
	assert.False(t, HasCity(cities, "Pasto"))
	assert.Equal(t, []string{domain.AllCities}, UniqueCities(nil))
}
