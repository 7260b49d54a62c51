package token_adapter

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentals-service/internal/core/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	svc, err := NewTokenService("secret", "rentals-service", time.Hour)
	require.NoError(t, err)

	user := &domain.User{ID: "u-1", Email: "ana@example.com", Role: domain.RoleAdmin}
	token, expiresAt, err := svc.GenerateAccessToken(context.Background(), user)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := svc.ValidateAccessToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, domain.Claims{UserID: "u-1", Email: "ana@example.com", Role: domain.RoleAdmin}, *claims)
}

func TestValidateRejectsBadTokens(t *testing.T) {
	ctx := context.Background()
	svc, err := NewTokenService("secret", "rentals-service", time.Hour)
	require.NoError(t, err)
	user := &domain.User{ID: "u-1", Role: domain.RoleUser}

	other, err := NewTokenService("other-secret", "rentals-service", time.Hour)
	require.NoError(t, err)
	foreign, _, err := other.GenerateAccessToken(ctx, user)
	require.NoError(t, err)
	_, err = svc.ValidateAccessToken(ctx, foreign)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)

	wrongIssuer, err := NewTokenService("secret", "someone-else", time.Hour)
	require.NoError(t, err)
	token, _, err := wrongIssuer.GenerateAccessToken(ctx, user)
	require.NoError(t, err)
	_, err = svc.ValidateAccessToken(ctx, token)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)

	expired, err := NewTokenService("secret", "rentals-service", time.Minute)
	require.NoError(t, err)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err = expired.GenerateAccessToken(ctx, user)
	require.NoError(t, err)
	_, err = svc.ValidateAccessToken(ctx, token)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"user_id": "u-1", "role": "admin", "iss": "rentals-service"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.ValidateAccessToken(ctx, unsigned)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)

	_, err = svc.ValidateAccessToken(ctx, "garbage")
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}

func TestNewTokenServiceValidatesConfig(t *testing.T) {
	_, err := NewTokenService("", "x", time.Hour)
	assert.Error(t, err)
	_, err = NewTokenService("secret", "x", 0)
	assert.Error(t, err)
}
