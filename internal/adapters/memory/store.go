package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"rentals-service/internal/core/domain"
)

// Store хранит объявления, пользователей и избранное в памяти.
// Каждое изменение публикует новые снимки в Listings и Users.
// Список объявлений пользователя вычисляется по владельцу, удаление пользователя удаляет его объявления.
type Store struct {
	mu        sync.Mutex
	listings  []domain.Listing
	users     []domain.User
	favorites map[string][]string

	Listings *Collection[domain.Listing]
	Users    *Collection[domain.User]
}

func NewStore() *Store {
	return &Store{
		favorites: make(map[string][]string),
		Listings:  NewCollection[domain.Listing](domain.CollectionListings, domain.CollectionQuery.MatchesListing),
		Users:     NewCollection[domain.User](domain.CollectionUsers, nil),
	}
}

// Publish рассылает текущее состояние. Нужен после создания хранилища,
// чтобы подписчики вышли из состояния загрузки даже при пустых коллекциях.
func (s *Store) Publish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publishLocked()
}

func (s *Store) publishLocked() {
	slices.SortStableFunc(s.listings, func(a, b domain.Listing) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	slices.SortStableFunc(s.users, func(a, b domain.User) int {
		return compareNewestFirst(a.CreatedAt, b.CreatedAt)
	})

	s.Listings.Set(s.listings)
	users := make([]domain.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, s.withListingIDsLocked(u))
	}
	s.Users.Set(users)
}

// compareNewestFirst - от новых к старым, записи без даты в конце.
func compareNewestFirst(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return b.Compare(*a)
}

func (s *Store) withListingIDsLocked(u domain.User) domain.User {
	ids := []string{}
	// объявления хранятся от новых к старым, а список пользователя - в порядке добавления
	for i := len(s.listings) - 1; i >= 0; i-- {
		if s.listings[i].OwnerID == u.ID {
			ids = append(ids, s.listings[i].ID)
		}
	}
	u.ListingIDs = ids
	return u
}

func (s *Store) findListingLocked(id string) int {
	return slices.IndexFunc(s.listings, func(l domain.Listing) bool { return l.ID == id })
}

func (s *Store) findUserLocked(id string) int {
	return slices.IndexFunc(s.users, func(u domain.User) bool { return u.ID == id })
}

// ListingRepository реализует port.ListingRepositoryPort поверх Store.
type ListingRepository struct{ store *Store }

func NewListingRepository(store *Store) *ListingRepository {
	return &ListingRepository{store: store}
}

func (r *ListingRepository) Create(ctx context.Context, listing *domain.Listing) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listings = append(s.listings, listing.WithFavorite(false))
	s.publishLocked()
	return nil
}

func (r *ListingRepository) GetByID(ctx context.Context, id string) (*domain.Listing, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.findListingLocked(id)
	if i < 0 {
		return nil, domain.ErrNotFound
	}
	l := s.listings[i].WithFavorite(false)
	return &l, nil
}

func (r *ListingRepository) Delete(ctx context.Context, id string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.findListingLocked(id)
	if i < 0 {
		return domain.ErrNotFound
	}
	s.listings = slices.Delete(s.listings, i, i+1)
	for userID, ids := range s.favorites {
		s.favorites[userID] = slices.DeleteFunc(ids, func(v string) bool { return v == id })
	}
	s.publishLocked()
	return nil
}

func (r *ListingRepository) List(ctx context.Context, query domain.CollectionQuery) ([]domain.Listing, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Listing, 0, len(s.listings))
	for _, l := range s.listings {
		if query.MatchesListing(l) {
			out = append(out, l.WithFavorite(false))
		}
	}
	return out, nil
}

// UserRepository реализует port.UserRepositoryPort поверх Store.
type UserRepository struct{ store *Store }

func NewUserRepository(store *Store) *UserRepository {
	return &UserRepository{store: store}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email {
			return domain.ErrEmailInUse
		}
	}
	s.users = append(s.users, *user)
	s.publishLocked()
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.findUserLocked(id)
	if i < 0 {
		return nil, domain.ErrNotFound
	}
	u := s.withListingIDsLocked(s.users[i])
	return &u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			out := s.withListingIDsLocked(u)
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

// Update сохраняет профиль. Email, пароль и дата создания не меняются.
func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.findUserLocked(user.ID)
	if i < 0 {
		return domain.ErrNotFound
	}
	current := s.users[i]
	current.FirstName = user.FirstName
	current.LastName = user.LastName
	current.Birthday = user.Birthday
	current.ProfilePicture = user.ProfilePicture
	current.Role = user.Role
	s.users[i] = current
	s.publishLocked()
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.findUserLocked(id)
	if i < 0 {
		return domain.ErrNotFound
	}
	s.users = slices.Delete(s.users, i, i+1)
	s.listings = slices.DeleteFunc(s.listings, func(l domain.Listing) bool { return l.OwnerID == id })
	delete(s.favorites, id)
	s.publishLocked()
	return nil
}

func (r *UserRepository) List(ctx context.Context, query domain.CollectionQuery) ([]domain.User, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, s.withListingIDsLocked(u))
	}
	return out, nil
}

// FavoritesRepository реализует port.FavoritesRepositoryPort поверх Store.
type FavoritesRepository struct{ store *Store }

func NewFavoritesRepository(store *Store) *FavoritesRepository {
	return &FavoritesRepository{store: store}
}

// Add идемпотентен: повторное добавление ничего не меняет.
func (r *FavoritesRepository) Add(ctx context.Context, userID, listingID string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findListingLocked(listingID) < 0 {
		return domain.ErrNotFound
	}
	if !slices.Contains(s.favorites[userID], listingID) {
		s.favorites[userID] = append(s.favorites[userID], listingID)
	}
	return nil
}

func (r *FavoritesRepository) Remove(ctx context.Context, userID, listingID string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	s.favorites[userID] = slices.DeleteFunc(s.favorites[userID], func(v string) bool { return v == listingID })
	return nil
}

func (r *FavoritesRepository) FindIDsByUser(ctx context.Context, userID string) ([]string, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.favorites[userID]...), nil
}
