package domain

import (
	"errors"
	"strings"
)

// Ошибки, которые use cases возвращают наружу.
var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailInUse         = errors.New("email already in use")
	ErrTokenInvalid       = errors.New("invalid jwt token")
)

// ValidationError собирает все нарушения сразу, чтобы форма могла
// показать их одним списком.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Problems, "; ")
}

// validationErrors - аккумулятор для функций валидации
type validationErrors []string

func (v *validationErrors) add(problem string) {
	*v = append(*v, problem)
}

func (v validationErrors) err() error {
	if len(v) == 0 {
		return nil
	}
	return &ValidationError{Problems: append([]string(nil), v...)}
}
