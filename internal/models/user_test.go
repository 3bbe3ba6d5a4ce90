package models

import (
	"testing"
)

func TestIsValidRole(t *testing.T) {
	tests := []struct {
		name     string
		role     Role
		expected bool
	}{
		{"admin role", RoleAdmin, true},
		{"operator role", RoleOperator, true},
		{"viewer role", RoleViewer, true},
		{"manager role is gone", "manager", false},
		{"empty role", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsValidRole(tt.role)
			if result != tt.expected {
				t.Errorf("IsValidRole(%s) = %v, want %v", tt.role, result, tt.expected)
			}
		})
	}
}

func TestUser_HasPermission(t *testing.T) {
	admin := &User{Role: RoleAdmin}
	operator := &User{Role: RoleOperator}
	viewer := &User{Role: RoleViewer}
	nobody := &User{Role: "unknown"}

	tests := []struct {
		name     string
		user     *User
		action   string
		expected bool
	}{
		{"admin can manage users", admin, ActionManageUsers, true},
		{"admin can retire vehicles", admin, ActionRetireVehicle, true},

		{"operator can view vehicles", operator, ActionViewVehicles, true},
		{"operator can retire vehicles", operator, ActionRetireVehicle, true},
		{"operator can refresh directory", operator, ActionRefreshDirectory, true},
		{"operator cannot manage users", operator, ActionManageUsers, false},

		{"viewer can view vehicles", viewer, ActionViewVehicles, true},
		{"viewer cannot retire vehicles", viewer, ActionRetireVehicle, false},
		{"viewer cannot refresh directory", viewer, ActionRefreshDirectory, false},

		{"unknown role has no permissions", nobody, ActionViewVehicles, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.user.HasPermission(tt.action)
			if result != tt.expected {
				t.Errorf("User with role %s HasPermission(%s) = %v, want %v",
					tt.user.Role, tt.action, result, tt.expected)
			}
		})
	}
}
