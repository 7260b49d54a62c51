package postgres_adapter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentals-service/internal/core/domain"
)

func TestQueryBuilder(t *testing.T) {
	qb := newQueryBuilder()
	where, args := qb.build()
	assert.Empty(t, where)
	assert.Empty(t, args)

	qb.addCondition("%s = $%d", "owner_id::text", "u-1")
	qb.addCondition("%s >= $%d", "rent_price", 100.0)
	where, args = qb.build()
	assert.Equal(t, "WHERE owner_id::text = $1 AND rent_price >= $2 ", where)
	assert.Equal(t, []interface{}{"u-1", 100.0}, args)
}

func TestOrderClause(t *testing.T) {
	tests := []struct {
		name  string
		query domain.CollectionQuery
		want  string
	}{
		{"newest first", domain.NewestFirst(domain.CollectionListings), "ORDER BY created_at DESC NULLS LAST, id"},
		{"ascending price", domain.CollectionQuery{OrderBy: domain.ListingFieldRentPrice}, "ORDER BY rent_price ASC NULLS LAST, id"},
		{"unknown field falls back", domain.CollectionQuery{OrderBy: "password", Descending: true}, "ORDER BY created_at DESC NULLS LAST, id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, orderClause(listingOrderColumns, tt.query))
		})
	}

	assert.Equal(t, "ORDER BY u.created_at DESC NULLS LAST, id", orderClause(userOrderColumns, domain.NewestFirst(domain.CollectionUsers)))
}

func TestChangeChannel(t *testing.T) {
	assert.Equal(t, "flats_changed", ChangeChannel(domain.CollectionListings))
	assert.Equal(t, "users_changed", ChangeChannel(domain.CollectionUsers))
}

func TestSchemaDeclaresNotifyTriggers(t *testing.T) {
	assert.Contains(t, schemaSQL, "notify_collection_changed('flats_changed', 'users_changed')")
	assert.Contains(t, schemaSQL, "notify_collection_changed('users_changed')")
	assert.Contains(t, schemaSQL, "PRIMARY KEY (user_id, listing_id)")
}

func TestParseID(t *testing.T) {
	id, ok := parseID("C0A8E3D4-2F7B-4B8E-8F10-6A2B9D000001")
	require.True(t, ok)
	assert.Equal(t, "c0a8e3d4-2f7b-4b8e-8f10-6a2b9d000001", id.String())

	for _, raw := range []string{"", "flat-1", "c0a8e3d4-2f7b-4b8e-8f10"} {
		_, ok := parseID(raw)
		assert.False(t, ok, raw)
	}
}

// Репозитории без пула: некорректный id должен отсекаться до обращения к базе.
func TestMalformedIDsDoNotReachDatabase(t *testing.T) {
	ctx := context.Background()
	listings := &ListingRepository{}
	users := &UserRepository{}
	favorites := &FavoritesRepository{}

	_, err := listings.GetByID(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, listings.Delete(ctx, "not-a-uuid"), domain.ErrNotFound)

	_, err = users.GetByID(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, users.Update(ctx, &domain.User{ID: "not-a-uuid"}), domain.ErrNotFound)
	assert.ErrorIs(t, users.Delete(ctx, "not-a-uuid"), domain.ErrNotFound)

	assert.ErrorIs(t, favorites.Add(ctx, "not-a-uuid", "c0a8e3d4-2f7b-4b8e-8f10-6a2b9d000001"), domain.ErrNotFound)
	assert.NoError(t, favorites.Remove(ctx, "c0a8e3d4-2f7b-4b8e-8f10-6a2b9d000001", "not-a-uuid"))
	ids, err := favorites.FindIDsByUser(ctx, "not-a-uuid")
	require.NoError(t, err)
	assert.Empty(t, ids)
}
