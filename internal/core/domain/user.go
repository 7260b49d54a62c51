package domain

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Role - закрытое перечисление ролей. Проверяется на границе, а не сравнением строк по коду.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleUser:
		return RoleUser, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

func (r Role) String() string { return string(r) }

// User - учетная запись.
type User struct {
	ID             string
	Username       string
	FirstName      string
	LastName       string
	Email          string
	Role           Role
	Birthday       *time.Time
	ProfilePicture string
	ListingIDs     []string
	CreatedAt      *time.Time
	PasswordHash   string
}

// CheckPassword сравнивает пароль с хэшем пользователя.
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// Session - аутентифицированная сессия. Передается явно во все use cases,
// которым нужен текущий пользователь.
type Session struct {
	UserID string
	Email  string
	Role   Role
}

func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == RoleAdmin
}

// CanManage - владелец записи или администратор.
func (s *Session) CanManage(ownerID string) bool {
	return s != nil && (s.IsAdmin() || s.UserID == ownerID)
}

// Claims - данные, которые зашиваются в токен доступа.
type Claims struct {
	UserID string
	Email  string
	Role   Role
}

func (c Claims) Session() Session {
	return Session{UserID: c.UserID, Email: c.Email, Role: c.Role}
}

// Registration - данные формы регистрации
type Registration struct {
	Username        string
	FirstName       string
	LastName        string
	Birthday        time.Time
	Email           string
	Password        string
	ConfirmPassword string
	ProfilePicture  string
}

// NewUser проверяет форму регистрации и создает пользователя с ролью user.
// Хэширование пароля происходит здесь.
func NewUser(reg Registration, now time.Time) (*User, error) {
	var problems validationErrors

	if strings.TrimSpace(reg.Username) == "" {
		problems.add("username is required")
	}
	validateNames(&problems, reg.FirstName, reg.LastName)
	if err := ValidateEmail(reg.Email); err != nil {
		problems.add(err.Error())
	}
	if err := ValidateBirthday(reg.Birthday, now); err != nil {
		problems.add(err.Error())
	}
	problems = append(problems, ValidatePassword(reg.Password)...)
	if reg.Password != reg.ConfirmPassword {
		problems.add("password and confirm password must match")
	}
	if err := problems.err(); err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	birthday := reg.Birthday.UTC()
	createdAt := now.UTC()
	return &User{
		ID:             uuid.New().String(),
		Username:       strings.TrimSpace(reg.Username),
		FirstName:      strings.TrimSpace(reg.FirstName),
		LastName:       strings.TrimSpace(reg.LastName),
		Email:          NormalizeEmail(reg.Email),
		Role:           RoleUser,
		Birthday:       &birthday,
		ProfilePicture: reg.ProfilePicture,
		ListingIDs:     []string{},
		CreatedAt:      &createdAt,
		PasswordHash:   string(hashedPassword),
	}, nil
}

// ProfileUpdate - изменяемые поля профиля. Nil означает "не менять".
type ProfileUpdate struct {
	FirstName      *string
	LastName       *string
	Birthday       *time.Time
	ProfilePicture *string
	Role           *Role
}

// Apply проверяет изменения и возвращает обновленную копию пользователя.
// Смену роли может выполнить только администратор.
func (p ProfileUpdate) Apply(u User, actor *Session, now time.Time) (*User, error) {
	var problems validationErrors

	out := u
	out.ListingIDs = append([]string(nil), u.ListingIDs...)
	if p.FirstName != nil {
		out.FirstName = strings.TrimSpace(*p.FirstName)
	}
	if p.LastName != nil {
		out.LastName = strings.TrimSpace(*p.LastName)
	}
	validateNames(&problems, out.FirstName, out.LastName)
	if p.Birthday != nil {
		if err := ValidateBirthday(*p.Birthday, now); err != nil {
			problems.add(err.Error())
		} else {
			b := p.Birthday.UTC()
			out.Birthday = &b
		}
	}
	if p.ProfilePicture != nil {
		out.ProfilePicture = *p.ProfilePicture
	}
	if p.Role != nil && *p.Role != u.Role {
		if !actor.IsAdmin() {
			return nil, ErrForbidden
		}
		out.Role = *p.Role
	}

	if err := problems.err(); err != nil {
		return nil, err
	}
	return &out, nil
}

// Пароль: минимум 8 символов, заглавная, строчная, цифра, спецсимвол, без пробелов.
func ValidatePassword(password string) []string {
	var problems []string
	var hasUpper, hasLower, hasDigit, hasSpecial, hasSpace bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		case r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f':
			hasSpace = true
			hasSpecial = true
		default:
			hasSpecial = true
		}
	}

	if len([]rune(password)) < 8 {
		problems = append(problems, "password must be at least 8 characters long")
	}
	if !hasUpper {
		problems = append(problems, "password must contain an uppercase letter")
	}
	if !hasLower {
		problems = append(problems, "password must contain a lowercase letter")
	}
	if !hasDigit {
		problems = append(problems, "password must contain a number")
	}
	if !hasSpecial {
		problems = append(problems, "password must contain a special character")
	}
	if hasSpace {
		problems = append(problems, "password must not contain spaces")
	}
	return problems
}

const (
	minAgeYears = 18
	maxAgeYears = 120
)

// ValidateBirthday - возраст от 18 до 120 лет.
func ValidateBirthday(birthday, now time.Time) error {
	if birthday.IsZero() {
		return fmt.Errorf("birthday is required")
	}
	if birthday.After(now.AddDate(-minAgeYears, 0, 0)) {
		return fmt.Errorf("user must be at least %d years old", minAgeYears)
	}
	if birthday.Before(now.AddDate(-maxAgeYears, 0, 0)) {
		return fmt.Errorf("birthday cannot be more than %d years ago", maxAgeYears)
	}
	return nil
}

func ValidateEmail(email string) error {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil || addr.Address != strings.TrimSpace(email) {
		return fmt.Errorf("invalid email")
	}
	return nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateNames(problems *validationErrors, firstName, lastName string) {
	if strings.TrimSpace(firstName) == "" {
		problems.add("first name is required")
	}
	if strings.TrimSpace(lastName) == "" {
		problems.add("last name is required")
	}
}
