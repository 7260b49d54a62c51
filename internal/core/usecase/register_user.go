package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rentals-service/internal/constants"
	"rentals-service/internal/contextkeys"
	"rentals-service/internal/core/domain"
	"rentals-service/internal/core/port"
)

type RegisterUserUseCase struct {
	users  port.UserRepositoryPort
	tokens port.TokenServicePort
	events port.EventPublisherPort
	now    port.Clock
}

func NewRegisterUserUseCase(users port.UserRepositoryPort, tokens port.TokenServicePort, events port.EventPublisherPort, now port.Clock) *RegisterUserUseCase {
	if now == nil {
		now = time.Now
	}
	return &RegisterUserUseCase{users: users, tokens: tokens, events: events, now: now}
}

func (uc *RegisterUserUseCase) Execute(ctx context.Context, reg domain.Registration) (*domain.AuthResult, error) {
	email := domain.NormalizeEmail(reg.Email)
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case": "RegisterUser",
		"email":    email,
	})
	ucLogger.Info("Use case started: attempting to register user", nil)

	// Пользователь создается до проверки email: так все ошибки формы приходят одним списком
	user, err := domain.NewUser(reg, uc.now())
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			ucLogger.Warn("Registration form rejected", port.Fields{"problems": verr.Problems})
			return nil, err
		}
		ucLogger.Error("Failed to create new user domain object", err, nil)
		return nil, err
	}

	existing, err := uc.users.GetByEmail(ctx, email)
	switch {
	case err == nil && existing != nil:
		ucLogger.Warn("Registration failed: email already in use", nil)
		return nil, domain.ErrEmailInUse
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		ucLogger.Error("Repository failed while checking for existing email", err, nil)
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	ucLogger = ucLogger.WithFields(port.Fields{"user_id": user.ID})
	if err := uc.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrEmailInUse) {
			return nil, err
		}
		ucLogger.Error("Repository failed to create user", err, nil)
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, expiresAt, err := uc.tokens.GenerateAccessToken(ctx, user)
	if err != nil {
		ucLogger.Error("Failed to generate token after successful registration", err, nil)
		return nil, err
	}

	publishEvent(ctx, uc.events, ucLogger, constants.RoutingKeyUserRegistered, domain.UserRegisteredEvent{
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: *user.CreatedAt,
	})

	ucLogger.Info("Use case finished: user registered successfully", nil)
	return &domain.AuthResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}
