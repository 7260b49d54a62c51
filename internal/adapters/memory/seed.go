package memory

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"golang.org/x/crypto/bcrypt"

	"rentals-service/internal/core/domain"
)

// Seed - содержимое JSON-фикстуры для локального запуска.
type Seed struct {
	Users     []SeedUser     `json:"users"`
	Listings  []SeedListing  `json:"flats"`
	Favorites []SeedFavorite `json:"favorites"`
}

type SeedUser struct {
	ID             string     `json:"uid"`
	Username       string     `json:"username"`
	FirstName      string     `json:"firstName"`
	LastName       string     `json:"lastName"`
	Email          string     `json:"email"`
	Password       string     `json:"password"`
	Role           string     `json:"role"`
	Birthday       *time.Time `json:"birthday"`
	ProfilePicture string     `json:"profilePicture"`
	CreatedAt      *time.Time `json:"createdAt"`
}

type SeedListing struct {
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
	CreatedAt       time.Time  `json:"createdAt"`
}

type SeedFavorite struct {
	UserID    string `json:"uid"`
	ListingID string `json:"flatId"`
}

// LoadSeed читает фикстуру из файла.
func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file %s: %w", path, err)
	}
	var seed Seed
	if err := json.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to decode seed file %s: %w", path, err)
	}
	return &seed, nil
}

// Load заменяет содержимое хранилища фикстурой и публикует снимки.
// Пароли фикстуры хэшируются здесь, роль по умолчанию - user.
func (s *Store) Load(seed *Seed) error {
	users := make([]domain.User, 0, len(seed.Users))
	for _, su := range seed.Users {
		role := domain.RoleUser
		if su.Role != "" {
			parsed, err := domain.ParseRole(su.Role)
			if err != nil {
				return fmt.Errorf("seed user %s: %w", su.ID, err)
			}
			role = parsed
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(su.Password), bcrypt.MinCost)
		if err != nil {
			return fmt.Errorf("seed user %s: failed to hash password: %w", su.ID, err)
		}
		users = append(users, domain.User{
			ID:             su.ID,
			Username:       su.Username,
			FirstName:      su.FirstName,
			LastName:       su.LastName,
			Email:          domain.NormalizeEmail(su.Email),
			Role:           role,
			Birthday:       su.Birthday,
			ProfilePicture: su.ProfilePicture,
			CreatedAt:      su.CreatedAt,
			PasswordHash:   string(hash),
		})
	}

	listings := make([]domain.Listing, 0, len(seed.Listings))
	for _, sl := range seed.Listings {
		listings = append(listings, domain.Listing{
			ID:              sl.ID,
			Name:            sl.Name,
			City:            sl.City,
			Street:          sl.Street,
			StreetNumber:    sl.StreetNumber,
			Area:            sl.Area,
			AirConditioning: sl.AirConditioning,
			YearBuilt:       sl.YearBuilt,
			DateAvailable:   sl.DateAvailable,
			RentPrice:       sl.RentPrice,
			ImageURLs:       sl.ImageURLs,
			CreatedAt:       sl.CreatedAt,
			OwnerID:         sl.OwnerID,
		})
	}

	favorites := make(map[string][]string)
	for _, f := range seed.Favorites {
		favorites[f.UserID] = append(favorites[f.UserID], f.ListingID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = users
	s.listings = listings
	s.favorites = favorites
	s.publishLocked()
	return nil
}
