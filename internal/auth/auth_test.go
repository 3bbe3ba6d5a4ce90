package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/samirnavas/metro-tracker/internal/models"
)

func newService(t *testing.T) *Service {
	t.Helper()
	service, err := NewService("test-secret", time.Hour)
	require.NoError(t, err)
	return service
}

func operator() *models.User {
	return &models.User{ID: primitive.NewObjectID(), Username: "controller", Role: models.RoleOperator}
}

func TestNewService(t *testing.T) {
	service, err := NewService("secret", 0)
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, service.tokenExp)

	_, err = NewService("", time.Hour)
	assert.Error(t, err)
}

func TestService_Passwords(t *testing.T) {
	service := newService(t)

	hash, err := service.HashPassword("metro-admin-1")
	require.NoError(t, err)
	assert.NotEqual(t, "metro-admin-1", hash)
	assert.True(t, service.CheckPassword("metro-admin-1", hash))
	assert.False(t, service.CheckPassword("wrongpassword", hash))

	assert.NoError(t, service.ValidatePassword("longenough"))
	assert.ErrorContains(t, service.ValidatePassword("short"), "at least 8 characters")
}

func TestService_TokenRoundTrip(t *testing.T) {
	service := newService(t)
	user := operator()

	token, err := service.GenerateToken(user)
	require.NoError(t, err)

	for _, candidate := range []string{token, "Bearer " + token} {
		claims, err := service.ValidateToken(candidate)
		require.NoError(t, err)
		assert.Equal(t, user.ID.Hex(), claims.UserID)
		assert.Equal(t, "controller", claims.Username)
		assert.Equal(t, models.RoleOperator, claims.Role)
		assert.Greater(t, claims.Exp, time.Now().Unix())
	}
}

func TestService_ValidateTokenRejects(t *testing.T) {
	service := newService(t)

	_, err := service.ValidateToken("invalid-token")
	assert.Equal(t, ErrInvalidToken, err)

	other, err := NewService("another-secret", time.Hour)
	require.NoError(t, err)
	foreign, err := other.GenerateToken(operator())
	require.NoError(t, err)
	_, err = service.ValidateToken(foreign)
	assert.Equal(t, ErrInvalidToken, err)

	service.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	stale, err := service.GenerateToken(operator())
	require.NoError(t, err)
	service.now = time.Now
	_, err = service.ValidateToken(stale)
	assert.Equal(t, ErrExpiredToken, err)

	unknownRole := operator()
	unknownRole.Role = "superuser"
	token, err := service.GenerateToken(unknownRole)
	require.NoError(t, err)
	_, err = service.ValidateToken(token)
	assert.Equal(t, ErrInvalidToken, err)
}

func TestService_ExtractTokenFromHeader(t *testing.T) {
	service := newService(t)

	extracted, err := service.ExtractTokenFromHeader("Bearer valid-token")
	assert.NoError(t, err)
	assert.Equal(t, "valid-token", extracted)

	for _, header := range []string{"", "InvalidFormat", "Bearer ", "Basic abc"} {
		_, err := service.ExtractTokenFromHeader(header)
		assert.Equal(t, ErrInvalidToken, err, header)
	}
}
