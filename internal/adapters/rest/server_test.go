package rest

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	token_adapter "rentals-service/internal/adapters/jwt"
	"rentals-service/internal/adapters/memory"
	"rentals-service/internal/contextkeys"
	"rentals-service/internal/core/domain"
	"rentals-service/internal/core/feed"
	"rentals-service/internal/core/usecase"
)

const (
	adminID = "8f14e45f-ceea-4e7a-9c3b-000000000001"
	userID  = "8f14e45f-ceea-4e7a-9c3b-000000000002"
	flat1ID = "3c59dc04-8e1f-4b2a-a5d1-000000000001"
	flat2ID = "3c59dc04-8e1f-4b2a-a5d1-000000000002"
	// корректный uuid, которого нет в хранилище
	absentID = "3c59dc04-8e1f-4b2a-a5d1-0000000000ff"
)

type testAPI struct {
	handler http.Handler
	store   *memory.Store
	tokens  *token_adapter.TokenService
	stream  *StreamHandler
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	store := memory.NewStore()
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.Load(&memory.Seed{
		Users: []memory.SeedUser{
			{ID: adminID, Username: "admin", FirstName: "Ada", LastName: "Admin", Email: "admin@example.com", Password: "Adm1n!pass", Role: "admin"},
			{ID: userID, Username: "juan", FirstName: "Juan", LastName: "Pérez", Email: "juan@example.com", Password: "Us3r!pass"},
		},
		Listings: []memory.SeedListing{
			{ID: flat1ID, OwnerID: userID, Name: "Loft", City: "Cali", Street: "Calle 5", StreetNumber: "1", Area: 40, AirConditioning: "Si", YearBuilt: 2001, RentPrice: 500, ImageURLs: []string{"https://img.example.com/1.jpg"}, CreatedAt: created},
			{ID: flat2ID, OwnerID: adminID, Name: "Casa", City: "Bogotá", Street: "Carrera 7", StreetNumber: "2", Area: 90, AirConditioning: "No", YearBuilt: 1990, RentPrice: 900, ImageURLs: []string{"https://img.example.com/2.jpg"}, CreatedAt: created.Add(time.Hour)},
		},
	}))

	logger := contextkeys.NoopLogger{}
	listingsHub := feed.NewHub[domain.Listing](store.Listings, domain.NewestFirst(domain.CollectionListings), domain.CollectionQuery.MatchesListing, logger)
	usersHub := feed.NewHub[domain.User](store.Users, domain.NewestFirst(domain.CollectionUsers), nil, logger)
	require.NoError(t, listingsHub.Start(context.Background()))
	require.NoError(t, usersHub.Start(context.Background()))
	t.Cleanup(listingsHub.Stop)
	t.Cleanup(usersHub.Stop)

	tokens, err := token_adapter.NewTokenService("test-secret", "rentals-service", time.Hour)
	require.NoError(t, err)

	listings := memory.NewListingRepository(store)
	users := memory.NewUserRepository(store)
	favorites := memory.NewFavoritesRepository(store)

	handlers := Handlers{
		Listings: NewListingsHandler(
			usecase.NewBrowseListingsUseCase(listingsHub, favorites),
			usecase.NewGetFilterOptionsUseCase(listingsHub, domain.SliderBounds{PriceMax: 1000, AreaMax: 500}),
			usecase.NewGetListingUseCase(listings, favorites),
			usecase.NewCreateListingUseCase(listings, nil, nil),
			usecase.NewDeleteListingUseCase(listings, nil, nil),
		),
		Stream: NewStreamHandler(usecase.NewWatchListingsUseCase(listingsHub, favorites)),
		Favorites: NewFavoritesHandler(
			usecase.NewAddFavoriteUseCase(favorites),
			usecase.NewRemoveFavoriteUseCase(favorites),
			usecase.NewListFavoriteIDsUseCase(favorites),
		),
		Auth: NewAuthHandler(
			usecase.NewRegisterUserUseCase(users, tokens, nil, nil),
			usecase.NewLoginUserUseCase(users, tokens),
		),
		Users: NewUsersHandler(
			usecase.NewGetUserUseCase(users),
			usecase.NewUpdateUserUseCase(users, nil),
			usecase.NewDeleteUserUseCase(users, nil, nil),
			usecase.NewBrowseUsersUseCase(usersHub),
		),
	}
	auth := NewAuthMiddleware(usecase.NewValidateTokenUseCase(tokens), usecase.NewRefreshSessionUseCase(users))

	return &testAPI{
		handler: NewRouter(handlers, auth, []string{"http://localhost:5173"}, logger),
		store:   store,
		tokens:  tokens,
		stream:  handlers.Stream,
	}
}

func (a *testAPI) token(t *testing.T, id string, role domain.Role) string {
	t.Helper()
	token, _, err := a.tokens.GenerateAccessToken(context.Background(), &domain.User{ID: id, Email: id + "@example.com", Role: role})
	require.NoError(t, err)
	return token
}

func (a *testAPI) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestBrowseListingsPublic(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/api/v1/flats", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(traceIDHeader))
	page := decode[ListingsPageResponse](t, rec)
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, []string{domain.AllCities, "Bogotá", "Cali"}, page.Cities)
	// порядок источника: новые первыми
	assert.Equal(t, flat2ID, page.Data[0].ID)

	rec = api.do(t, http.MethodGet, "/api/v1/flats?sort=rentPrice&order=asc&price=0,600", "", nil)
	page = decode[ListingsPageResponse](t, rec)
	require.Len(t, page.Data, 1)
	assert.Equal(t, flat1ID, page.Data[0].ID)
	assert.Equal(t, SortResponse{Field: domain.ListingFieldRentPrice, Order: "asc"}, page.Sort)

	// неполный диапазон не фильтрует
	rec = api.do(t, http.MethodGet, "/api/v1/flats?price=100&city=Atlantis", "", nil)
	page = decode[ListingsPageResponse](t, rec)
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, domain.AllCities, page.Filters.City)

	// NaN и бесконечность выключают фильтр, а не опустошают список
	for _, query := range []string{"price=NaN,1000", "area=0,Inf"} {
		rec = api.do(t, http.MethodGet, "/api/v1/flats?"+query, "", nil)
		require.Equal(t, http.StatusOK, rec.Code, query)
		page = decode[ListingsPageResponse](t, rec)
		assert.Equal(t, 2, page.Total, query)
	}

	rec = api.do(t, http.MethodGet, "/api/v1/flats?q=bogo", "", nil)
	page = decode[ListingsPageResponse](t, rec)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Casa", page.Data[0].Name)
}

func TestGetListingAndOptions(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/api/v1/flats/"+flat1ID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Loft", decode[ListingResponse](t, rec).Name)

	rec = api.do(t, http.MethodGet, "/api/v1/flats/"+absentID, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// не-uuid отклоняется до use case
	rec = api.do(t, http.MethodGet, "/api/v1/flats/missing", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	// каноничная запись: регистр не важен
	rec = api.do(t, http.MethodGet, "/api/v1/flats/"+strings.ToUpper(flat1ID), "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/v1/flats/filters/options", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	options := decode[FilterOptionsResponse](t, rec)
	assert.Equal(t, [2]float64{0, 1000}, options.Sliders.Price)
	assert.Contains(t, options.Cities, "Cali")

	rec = api.do(t, http.MethodGet, "/api/v1/flats", "Bearer-less", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateAndDeleteListing(t *testing.T) {
	api := newTestAPI(t)
	owner := api.token(t, userID, domain.RoleUser)

	body := map[string]interface{}{
		"flatName":        "Estudio",
		"city":            "Medellín",
		"street":          "Calle 10",
		"streetNumber":    "4",
		"area":            30,
		"airConditioning": "Si",
		"yearBuilt":       2015,
		"dateAvailable":   time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339),
		"rentPrice":       450,
		"imgUpload":       []string{"https://img.example.com/3.jpg"},
	}

	rec := api.do(t, http.MethodPost, "/api/v1/flats", "", body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/v1/flats", owner, map[string]interface{}{"flatName": ""})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEmpty(t, decode[ErrorResponse](t, rec).Problems)

	rec = api.do(t, http.MethodPost, "/api/v1/flats", owner, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[ListingResponse](t, rec)
	assert.Equal(t, userID, created.OwnerID)

	rec = api.do(t, http.MethodGet, "/api/v1/my-flats", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, decode[ListingsPageResponse](t, rec).Total)

	stranger := api.token(t, "someone", domain.RoleUser)
	rec = api.do(t, http.MethodDelete, "/api/v1/flats/"+created.ID, stranger, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(t, http.MethodDelete, "/api/v1/flats/"+created.ID, owner, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = api.do(t, http.MethodGet, "/api/v1/flats/"+created.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFavoritesFlow(t *testing.T) {
	api := newTestAPI(t)
	token := api.token(t, userID, domain.RoleUser)

	rec := api.do(t, http.MethodPost, "/api/v1/favorites", token, AddFavoriteRequest{ListingID: flat2ID})
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = api.do(t, http.MethodPost, "/api/v1/favorites", token, AddFavoriteRequest{ListingID: absentID})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = api.do(t, http.MethodPost, "/api/v1/favorites", token, AddFavoriteRequest{ListingID: "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = api.do(t, http.MethodDelete, "/api/v1/favorites/nope", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/v1/flats?favorites=true", token, nil)
	page := decode[ListingsPageResponse](t, rec)
	require.Len(t, page.Data, 1)
	assert.True(t, page.Data[0].Favorite)

	// анонимный запрос не видит чужого избранного
	rec = api.do(t, http.MethodGet, "/api/v1/flats?favorites=true", "", nil)
	assert.Empty(t, decode[ListingsPageResponse](t, rec).Data)

	rec = api.do(t, http.MethodDelete, "/api/v1/favorites/"+flat2ID, token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = api.do(t, http.MethodGet, "/api/v1/favorites", token, nil)
	assert.Empty(t, decode[FavoriteIDsResponse](t, rec).IDs)
}

func TestAuthEndpoints(t *testing.T) {
	api := newTestAPI(t)

	register := RegisterUserRequest{
		Username:        "ana",
		FirstName:       "Ana",
		LastName:        "Gómez",
		Birthday:        time.Date(1990, 5, 1, 0, 0, 0, 0, time.UTC),
		Email:           "ana@example.com",
		Password:        "Secr3t!pass",
		ConfirmPassword: "Secr3t!pass",
	}
	rec := api.do(t, http.MethodPost, "/api/v1/auth/register", "", register)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	auth := decode[AuthResponse](t, rec)
	assert.NotEmpty(t, auth.AccessToken)
	assert.Equal(t, "user", auth.User.Role)

	rec = api.do(t, http.MethodPost, "/api/v1/auth/register", "", register)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/v1/auth/login", "", LoginUserRequest{Email: "juan@example.com", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/v1/auth/login", "", LoginUserRequest{Email: "juan@example.com", Password: "Us3r!pass"})
	require.Equal(t, http.StatusOK, rec.Code)
	login := decode[AuthResponse](t, rec)

	rec = api.do(t, http.MethodGet, "/api/v1/profile", login.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	profile := decode[UserResponse](t, rec)
	assert.Equal(t, userID, profile.ID)
	assert.Equal(t, []string{flat1ID}, profile.ListingIDs)

	rec = api.do(t, http.MethodPut, "/api/v1/profile", login.AccessToken, map[string]string{"role": "admin"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminUsersEndpoints(t *testing.T) {
	api := newTestAPI(t)
	user := api.token(t, userID, domain.RoleUser)
	admin := api.token(t, adminID, domain.RoleAdmin)

	rec := api.do(t, http.MethodGet, "/api/v1/users", user, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/v1/users?sort=flats&order=desc", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[UsersPageResponse](t, rec)
	require.Equal(t, 2, page.Total)

	rec = api.do(t, http.MethodGet, "/api/v1/users?q=juan", admin, nil)
	page = decode[UsersPageResponse](t, rec)
	require.Len(t, page.Data, 1)
	assert.Equal(t, userID, page.Data[0].ID)

	rec = api.do(t, http.MethodPut, "/api/v1/users/"+userID, admin, map[string]string{"firstName": "Juanito"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Juanito", decode[UserResponse](t, rec).FirstName)

	rec = api.do(t, http.MethodDelete, "/api/v1/users/"+userID, admin, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// объявления удаленного пользователя тоже удалены
	rec = api.do(t, http.MethodGet, "/api/v1/flats/"+flat1ID, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminRoutesUseCurrentRole(t *testing.T) {
	api := newTestAPI(t)
	admin := api.token(t, adminID, domain.RoleAdmin)
	// токен выдан, когда пользователь был обычным
	staleUser := api.token(t, userID, domain.RoleUser)

	rec := api.do(t, http.MethodPut, "/api/v1/users/"+userID, admin, map[string]string{"role": "admin"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = api.do(t, http.MethodGet, "/api/v1/users", staleUser, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// понижение действует до истечения ранее выданного токена
	promoted := api.token(t, userID, domain.RoleAdmin)
	rec = api.do(t, http.MethodPut, "/api/v1/users/"+userID, admin, map[string]string{"role": "user"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = api.do(t, http.MethodGet, "/api/v1/users", promoted, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(t, http.MethodDelete, "/api/v1/users/"+adminID, admin, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = api.do(t, http.MethodGet, "/api/v1/users", admin, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestStreamListings(t *testing.T) {
	api := newTestAPI(t)
	srv := httptest.NewServer(api.handler)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/flats/stream?city=Cali&access_token="+api.token(t, userID, domain.RoleUser), nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	event, data := readEvent(t, reader)
	assert.Equal(t, "listings", event)
	var page ListingsPageResponse
	require.NoError(t, json.Unmarshal([]byte(data), &page))
	require.Len(t, page.Data, 1)
	assert.Equal(t, flat1ID, page.Data[0].ID)

	// удаление объявления приходит следующим событием
	require.NoError(t, memory.NewListingRepository(api.store).Delete(context.Background(), flat1ID))
	event, data = readEvent(t, reader)
	assert.Equal(t, "listings", event)
	require.NoError(t, json.Unmarshal([]byte(data), &page))
	assert.Empty(t, page.Data)
}

func TestStreamEndsOnShutdown(t *testing.T) {
	api := newTestAPI(t)
	srv := httptest.NewServer(api.handler)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/flats/stream?access_token="+api.token(t, userID, domain.RoleUser), nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	reader := bufio.NewReader(resp.Body)
	event, _ := readEvent(t, reader)
	require.Equal(t, "listings", event)

	api.stream.Shutdown()
	api.stream.Shutdown()

	// обработчик вышел, сервер завершает ответ
	tail, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.NotContains(t, string(tail), "event: ")
}

func TestStreamRequiresToken(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(t, http.MethodGet, "/api/v1/flats/stream", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func readEvent(t *testing.T, reader *bufio.Reader) (string, string) {
	t.Helper()
	var event, data string
	for {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "" && event != "":
			return event, data
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		}
	}
}

func TestParseRange(t *testing.T) {
	tests := []struct {
		raw  string
		want domain.Range
	}{
		{"", nil},
		{"100,500", domain.Range{100, 500}},
		{" 100 , 500 ", domain.Range{100, 500}},
		{"100", domain.Range{100}},
		{"abc,5", nil},
		{"NaN,1000", nil},
		{"0,Inf", nil},
		{"-inf,100", nil},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, parseRange(tt.raw))
		})
	}
}
