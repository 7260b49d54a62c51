package usecase

import (
	"context"
	"errors"
	"fmt"

	"rentals-service/internal/contextkeys"
	"rentals-service/internal/core/domain"
	"rentals-service/internal/core/port"
)

type LoginUserUseCase struct {
	users  port.UserRepositoryPort
	tokens port.TokenServicePort
}

func NewLoginUserUseCase(users port.UserRepositoryPort, tokens port.TokenServicePort) *LoginUserUseCase {
	return &LoginUserUseCase{users: users, tokens: tokens}
}

func (uc *LoginUserUseCase) Execute(ctx context.Context, email, password string) (*domain.AuthResult, error) {
	email = domain.NormalizeEmail(email)
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case": "LoginUser",
		"email":    email,
	})
	ucLogger.Info("Use case started: attempting to login user", nil)

	user, err := uc.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// наружу та же ошибка, что и при неверном пароле
			ucLogger.Warn("Login failed: user not found", nil)
			return nil, domain.ErrInvalidCredentials
		}
		ucLogger.Error("Repository failed to find user by email", err, nil)
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	ucLogger = ucLogger.WithFields(port.Fields{"user_id": user.ID})
	if !user.CheckPassword(password) {
		ucLogger.Warn("Login failed: invalid credentials", nil)
		return nil, domain.ErrInvalidCredentials
	}

	token, expiresAt, err := uc.tokens.GenerateAccessToken(ctx, user)
	if err != nil {
		ucLogger.Error("Failed to generate token after successful login", err, nil)
		return nil, err
	}

	ucLogger.Info("Use case finished: user logged in successfully", nil)
	return &domain.AuthResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}
