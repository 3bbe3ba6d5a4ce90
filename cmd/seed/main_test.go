package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirnavas/metro-tracker/internal/auth"
	"github.com/samirnavas/metro-tracker/internal/models"
)

func TestAdminUser(t *testing.T) {
	service, err := auth.NewService("test-secret", time.Hour)
	require.NoError(t, err)

	t.Setenv("ADMIN_USERNAME", "")
	t.Setenv("ADMIN_PASSWORD", "")
	user, err := adminUser(service)
	require.NoError(t, err)
	assert.Equal(t, "admin", user.Username)
	assert.Equal(t, models.RoleAdmin, user.Role)
	assert.True(t, user.IsActive)
	assert.True(t, service.CheckPassword(defaultAdminPassword, user.PasswordHash))

	t.Setenv("ADMIN_USERNAME", "ops")
	t.Setenv("ADMIN_PASSWORD", "depot-night-shift")
	user, err = adminUser(service)
	require.NoError(t, err)
	assert.Equal(t, "ops", user.Username)
	assert.True(t, service.CheckPassword("depot-night-shift", user.PasswordHash))

	t.Setenv("ADMIN_PASSWORD", "short")
	_, err = adminUser(service)
	assert.Error(t, err)
}
