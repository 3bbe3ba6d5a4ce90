package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"

	"github.com/samirnavas/metro-tracker/internal/auth"
	"github.com/samirnavas/metro-tracker/internal/db"
	"github.com/samirnavas/metro-tracker/internal/middleware"
	"github.com/samirnavas/metro-tracker/internal/models"
)

// AuthHandler handles operator login
type AuthHandler struct {
	authService    *auth.Service
	userCollection db.UserCollection
	validate       *validator.Validate
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(authService *auth.Service, userCollection db.UserCollection) *AuthHandler {
	return &AuthHandler{
		authService:    authService,
		userCollection: userCollection,
		validate:       validator.New(),
	}
}

// Login exchanges credentials for a token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Username and password are required", nil)
		return
	}

	user, err := h.userCollection.FindUserByUsername(r.Context(), req.Username)
	if err != nil {
		if !errors.Is(err, db.ErrNotFound) {
			log.WithError(err).Error("User lookup failed")
		}
		writeError(w, http.StatusUnauthorized, auth.ErrInvalidCredentials.Error(), nil)
		return
	}
	if !user.IsActive {
		writeError(w, http.StatusUnauthorized, auth.ErrUserInactive.Error(), nil)
		return
	}
	if !h.authService.CheckPassword(req.Password, user.PasswordHash) {
		log.WithField("username", req.Username).Warn("Failed login")
		writeError(w, http.StatusUnauthorized, auth.ErrInvalidCredentials.Error(), nil)
		return
	}

	token, err := h.authService.GenerateToken(user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to generate token", err)
		return
	}
	if err := h.userCollection.UpdateLastLogin(r.Context(), user.ID.Hex()); err != nil {
		log.WithError(err).WithField("username", user.Username).Warn("Failed to update last login")
	}

	log.WithFields(log.Fields{
		"username": user.Username,
		"role":     user.Role,
	}).Info("Operator logged in")
	writeData(w, models.LoginResponse{Token: token, User: *user})
}

// SaveUser creates an operator account, or replaces the one with the same
// username.
func (h *AuthHandler) SaveUser(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Username, password and role are required", nil)
		return
	}
	if !models.IsValidRole(req.Role) {
		writeError(w, http.StatusBadRequest, "Unknown role", nil)
		return
	}
	if err := h.authService.ValidatePassword(req.Password); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	hash, err := h.authService.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to hash password", err)
		return
	}
	user := models.User{Username: req.Username, PasswordHash: hash, Role: req.Role, IsActive: true}
	if err := h.userCollection.UpsertUser(r.Context(), user); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save user", err)
		return
	}

	fields := log.Fields{"username": user.Username, "role": user.Role}
	if claims, ok := middleware.GetUserFromContext(r.Context()); ok {
		fields["by"] = claims.Username
	}
	log.WithFields(fields).Info("Operator account saved")
	writeJSON(w, http.StatusCreated, envelope{Success: true, Data: user})
}

// Profile returns the account behind the request token.
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "User context not found", nil)
		return
	}
	user, err := h.userCollection.FindUserByID(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to fetch user", err)
		return
	}
	writeData(w, user)
}
