package rest

import (
	"time"

	"rentals-service/internal/core/domain"
)

type ErrorResponse struct {
	Error    string   `json:"error"`
	Problems []string `json:"problems,omitempty"`
}

// ListingResponse - объявление в формате клиента.
type ListingResponse struct {
	ID              string     `json:"id"`
	OwnerID         string     `json:"uid"`
	Name            string     `json:"flatName"`
	City            string     `json:"city"`
	Street          string     `json:"street"`
	StreetNumber    string     `json:"streetNumber"`
	Area            float64    `json:"area"`
	AirConditioning string     `json:"airConditioning"`
	YearBuilt       int        `json:"yearBuilt"`
	DateAvailable   *time.Time `json:"dateAvailable"`
	RentPrice       float64    `json:"rentPrice"`
	ImageURLs       []string   `json:"imgUpload"`
	Favorite        bool       `json:"isFavorite"`
	CreatedAt       *time.Time `json:"createdAt"`
}

type SortResponse struct {
	Field string `json:"field,omitempty"`
	Order string `json:"order,omitempty"`
}

type FiltersResponse struct {
	ShowFavorites bool      `json:"favorites"`
	City          string    `json:"city"`
	PriceRange    []float64 `json:"price,omitempty"`
	AreaRange     []float64 `json:"area,omitempty"`
	SearchTerm    string    `json:"q,omitempty"`
}

type ListingsPageResponse struct {
	Data    []ListingResponse `json:"data"`
	Total   int               `json:"total"`
	Loading bool              `json:"loading"`
	Error   string            `json:"error,omitempty"`
	Cities  []string          `json:"cities"`
	Filters FiltersResponse   `json:"filters"`
	Sort    SortResponse      `json:"sort"`
}

type SlidersResponse struct {
	Price [2]float64 `json:"price"`
	Area  [2]float64 `json:"area"`
}

type FilterOptionsResponse struct {
	Cities  []string        `json:"cities"`
	Sliders SlidersResponse `json:"sliders"`
}

// CreateListingRequest - тело POST /flats; форма проверяется схемой CreateListingRequest.
type CreateListingRequest struct {
	Name            string    `json:"flatName"`
	City            string    `json:"city"`
	Street          string    `json:"street"`
	StreetNumber    string    `json:"streetNumber"`
	Area            float64   `json:"area"`
	AirConditioning string    `json:"airConditioning"`
	YearBuilt       int       `json:"yearBuilt"`
	DateAvailable   time.Time `json:"dateAvailable"`
	RentPrice       float64   `json:"rentPrice"`
	ImageURLs       []string  `json:"imgUpload"`
}

func (r CreateListingRequest) toDraft() domain.ListingDraft {
	return domain.ListingDraft{
		Name:            r.Name,
		City:            r.City,
		Street:          r.Street,
		StreetNumber:    r.StreetNumber,
		Area:            r.Area,
		AirConditioning: r.AirConditioning,
		YearBuilt:       r.YearBuilt,
		DateAvailable:   r.DateAvailable,
		RentPrice:       r.RentPrice,
		ImageURLs:       r.ImageURLs,
	}
}

type AddFavoriteRequest struct {
	ListingID string `json:"flatId"`
}

type FavoriteIDsResponse struct {
	IDs []string `json:"ids"`
}

type RegisterUserRequest struct {
	Username        string    `json:"username"`
	FirstName       string    `json:"firstName"`
	LastName        string    `json:"lastName"`
	Birthday        time.Time `json:"birthday"`
	Email           string    `json:"email"`
	Password        string    `json:"password"`
	ConfirmPassword string    `json:"confirmPassword"`
	ProfilePicture  string    `json:"profilePicture"`
}

func (r RegisterUserRequest) toRegistration() domain.Registration {
	return domain.Registration{
		Username:        r.Username,
		FirstName:       r.FirstName,
		LastName:        r.LastName,
		Birthday:        r.Birthday,
		Email:           r.Email,
		Password:        r.Password,
		ConfirmPassword: r.ConfirmPassword,
		ProfilePicture:  r.ProfilePicture,
	}
}

type LoginUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfileRequest - отсутствующее поле не меняется.
type UpdateProfileRequest struct {
	FirstName      *string    `json:"firstName"`
	LastName       *string    `json:"lastName"`
	Birthday       *time.Time `json:"birthday"`
	ProfilePicture *string    `json:"profilePicture"`
	Role           *string    `json:"role"`
}

func (r UpdateProfileRequest) toUpdate() (domain.ProfileUpdate, error) {
	update := domain.ProfileUpdate{
		FirstName:      r.FirstName,
		LastName:       r.LastName,
		Birthday:       r.Birthday,
		ProfilePicture: r.ProfilePicture,
	}
	if r.Role != nil {
		role, err := domain.ParseRole(*r.Role)
		if err != nil {
			return domain.ProfileUpdate{}, &domain.ValidationError{Problems: []string{err.Error()}}
		}
		update.Role = &role
	}
	return update, nil
}

type UserResponse struct {
	ID             string     `json:"uid"`
	Username       string     `json:"username"`
	FirstName      string     `json:"firstName"`
	LastName       string     `json:"lastName"`
	Email          string     `json:"email"`
	Role           string     `json:"role"`
	Birthday       *time.Time `json:"birthday"`
	ProfilePicture string     `json:"profilePicture"`
	ListingIDs     []string   `json:"flats"`
	CreatedAt      *time.Time `json:"createdAt"`
}

type UsersPageResponse struct {
	Data    []UserResponse `json:"data"`
	Total   int            `json:"total"`
	Loading bool           `json:"loading"`
	Error   string         `json:"error,omitempty"`
	Sort    SortResponse   `json:"sort"`
}

type AuthResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        UserResponse `json:"user"`
}

func toListingResponse(l domain.Listing) ListingResponse {
	resp := ListingResponse{
		ID:              l.ID,
		OwnerID:         l.OwnerID,
		Name:            l.Name,
		City:            l.City,
		Street:          l.Street,
		StreetNumber:    l.StreetNumber,
		Area:            l.Area,
		AirConditioning: l.AirConditioning,
		YearBuilt:       l.YearBuilt,
		DateAvailable:   l.DateAvailable,
		RentPrice:       l.RentPrice,
		ImageURLs:       l.ImageURLs,
		Favorite:        l.Favorite,
	}
	if !l.CreatedAt.IsZero() {
		createdAt := l.CreatedAt
		resp.CreatedAt = &createdAt
	}
	if resp.ImageURLs == nil {
		resp.ImageURLs = []string{}
	}
	return resp
}

func toListingResponses(listings []domain.Listing) []ListingResponse {
	out := make([]ListingResponse, len(listings))
	for i, l := range listings {
		out[i] = toListingResponse(l)
	}
	return out
}

func toUserResponse(u domain.User) UserResponse {
	ids := u.ListingIDs
	if ids == nil {
		ids = []string{}
	}
	return UserResponse{
		ID:             u.ID,
		Username:       u.Username,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Email:          u.Email,
		Role:           u.Role.String(),
		Birthday:       u.Birthday,
		ProfilePicture: u.ProfilePicture,
		ListingIDs:     ids,
		CreatedAt:      u.CreatedAt,
	}
}

func toSortResponse(s domain.SortState) SortResponse {
	if !s.Active() {
		return SortResponse{}
	}
	return SortResponse{Field: s.Field, Order: string(s.Order)}
}

func toFiltersResponse(f domain.ListingFilters) FiltersResponse {
	return FiltersResponse{
		ShowFavorites: f.ShowFavorites,
		City:          f.City,
		PriceRange:    f.PriceRange,
		AreaRange:     f.AreaRange,
		SearchTerm:    f.SearchTerm,
	}
}

func toListingsPageResponse(p *domain.ListingsPage) ListingsPageResponse {
	return ListingsPageResponse{
		Data:    toListingResponses(p.Listings),
		Total:   p.Total,
		Loading: p.Loading,
		Error:   p.Err,
		Cities:  p.Cities,
		Filters: toFiltersResponse(p.Filters),
		Sort:    toSortResponse(p.Sort),
	}
}

func toAuthResponse(result *domain.AuthResult) AuthResponse {
	return AuthResponse{
		AccessToken: result.Token,
		TokenType:   "Bearer",
		ExpiresAt:   result.ExpiresAt,
		User:        toUserResponse(*result.User),
	}
}
