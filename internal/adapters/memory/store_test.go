package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentals-service/internal/core/domain"
	"rentals-service/internal/core/port"
)

type recorder[T any] struct {
	snapshots [][]T
	errors    []string
}

func (r *recorder[T]) listener() port.SnapshotListener[T] {
	return port.SnapshotListener[T]{
		OnSnapshot: func(records []T) { r.snapshots = append(r.snapshots, records) },
		OnError:    func(message string) { r.errors = append(r.errors, message) },
	}
}

func TestCollectionDeliversOnlyAfterFirstSet(t *testing.T) {
	c := NewCollection[int]("numbers", nil)
	rec := &recorder[int]{}

	unsubscribe, err := c.Subscribe(context.Background(), domain.CollectionQuery{Collection: "numbers"}, rec.listener())
	require.NoError(t, err)
	assert.Empty(t, rec.snapshots)

	c.Set([]int{3, 2, 1})
	require.Len(t, rec.snapshots, 1)
	assert.Equal(t, []int{3, 2, 1}, rec.snapshots[0])

	unsubscribe()
	unsubscribe()
	c.Set([]int{4})
	assert.Len(t, rec.snapshots, 1)
	assert.Equal(t, 0, c.Subscribers())
}

func TestCollectionFailEndsSubscriptions(t *testing.T) {
	c := NewCollection[int]("numbers", nil)
	c.Set([]int{1})
	rec := &recorder[int]{}
	_, err := c.Subscribe(context.Background(), domain.CollectionQuery{Collection: "numbers"}, rec.listener())
	require.NoError(t, err)

	c.Fail("boom")
	c.Set([]int{2})

	assert.Equal(t, []string{"boom"}, rec.errors)
	assert.Len(t, rec.snapshots, 1)
}

func TestStoreListingsNewestFirstAndOwnerFilter(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	listings := NewListingRepository(store)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, listings.Create(ctx, &domain.Listing{ID: "old", OwnerID: "u1", CreatedAt: base}))
	require.NoError(t, listings.Create(ctx, &domain.Listing{ID: "new", OwnerID: "u2", CreatedAt: base.Add(time.Hour)}))

	rec := &recorder[domain.Listing]{}
	_, err := store.Listings.Subscribe(ctx, domain.CollectionQuery{Collection: domain.CollectionListings, OwnerID: "u1"}, rec.listener())
	require.NoError(t, err)
	require.Len(t, rec.snapshots, 1)
	require.Len(t, rec.snapshots[0], 1)
	assert.Equal(t, "old", rec.snapshots[0][0].ID)

	all, err := listings.List(ctx, domain.NewestFirst(domain.CollectionListings))
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "new", all[0].ID)
}

func TestStoreUserListingsAndCascade(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	users := NewUserRepository(store)
	listings := NewListingRepository(store)
	favorites := NewFavoritesRepository(store)

	require.NoError(t, users.Create(ctx, &domain.User{ID: "u1", Email: "a@example.com", Role: domain.RoleUser}))
	assert.ErrorIs(t, users.Create(ctx, &domain.User{ID: "u2", Email: "a@example.com"}), domain.ErrEmailInUse)

	require.NoError(t, listings.Create(ctx, &domain.Listing{ID: "l1", OwnerID: "u1", CreatedAt: time.Now()}))
	require.NoError(t, favorites.Add(ctx, "u1", "l1"))
	require.NoError(t, favorites.Add(ctx, "u1", "l1"))
	assert.ErrorIs(t, favorites.Add(ctx, "u1", "missing"), domain.ErrNotFound)

	u, err := users.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"l1"}, u.ListingIDs)

	ids, err := favorites.FindIDsByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"l1"}, ids)

	require.NoError(t, users.Delete(ctx, "u1"))
	_, err = listings.GetByID(ctx, "l1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	ids, err = favorites.FindIDsByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestLoadSampleSeed(t *testing.T) {
	seed, err := LoadSeed("../../../deploy/seed.json")
	require.NoError(t, err)

	store := NewStore()
	require.NoError(t, store.Load(seed))

	ctx := context.Background()
	users := NewUserRepository(store)
	admin, err := users.GetByEmail(ctx, "ADMIN@rentals.local")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, admin.Role)
	assert.True(t, admin.CheckPassword("Adm1n!pass"))

	juan, err := users.GetByEmail(ctx, "juan@rentals.local")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, juan.Role)
	assert.Len(t, juan.ListingIDs, 2)

	listings := store.Listings.Records()
	require.Len(t, listings, 3)
	assert.Equal(t, "Casa Juanchaco", listings[0].Name)
	assert.Nil(t, listings[0].DateAvailable)

	ids, err := NewFavoritesRepository(store).FindIDsByUser(ctx, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{listings[0].ID}, ids)
}
