package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/area-labs/area-core/internal/auth"
)

// ─── Request/Response Types ────────────────────────────────────────

type createUserRequest struct {
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email,omitempty"`
	Password    string    `json:"password"`
	Role        auth.Role `json:"role"`
}

type updateUserRequest struct {
	DisplayName *string    `json:"display_name,omitempty"`
	Email       *string    `json:"email,omitempty"`
	Role        *auth.Role `json:"role,omitempty"`
	IsActive    *bool      `json:"is_active,omitempty"`
}

// ─── Handlers ──────────────────────────────────────────────────────

// handleListUsers returns all user accounts.
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.List(r.Context())
	if err != nil {
		s.logger.Error("list users failed", "error", err)
		writeInternalError(w, "failed to list users")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"users": users,
		"count": len(users),
	})
}

// handleCreateUser creates a new user account.
func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if req.Username == "" || req.Password == "" || req.DisplayName == "" {
		writeBadRequest(w, "username, password, and display_name are required")
		return
	}
	if !auth.IsValidUsername(req.Username) {
		writeBadRequest(w, "username must be 1-64 characters: letters, digits, dots, hyphens, underscores")
		return
	}
	if len(req.Password) < 8 { //nolint:mnd // minimum password length
		writeBadRequest(w, "password must be at least 8 characters")
		return
	}

	if req.Role == "" {
		req.Role = auth.RoleUser
	}
	if !auth.IsValidUserRole(req.Role) {
		writeBadRequest(w, "invalid role: must be user or admin")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error("hash password failed", "error", err)
		writeInternalError(w, "failed to create user")
		return
	}

	user := &auth.User{
		Username:     req.Username,
		DisplayName:  req.DisplayName,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
		IsActive:     true,
	}

	if err := s.users.Create(r.Context(), user); err != nil {
		if errors.Is(err, auth.ErrUsernameExists) {
			writeConflict(w, "username already exists")
			return
		}
		s.logger.Error("create user failed", "error", err)
		writeInternalError(w, "failed to create user")
		return
	}

	claims := claimsFromContext(r.Context())
	s.logger.Info("user created",
		"user_id", user.ID, "username", user.Username, "role", user.Role,
		"created_by", claims.Subject)

	writeJSON(w, http.StatusCreated, user)
}

// handleUpdateUser applies partial updates to a user account.
func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	id := chi.URLParam(r, "id")

	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	user, err := s.users.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			writeNotFound(w, "user not found")
			return
		}
		s.logger.Error("load user failed", "user_id", id, "error", err)
		writeInternalError(w, "failed to load user")
		return
	}

	if req.DisplayName != nil {
		user.DisplayName = *req.DisplayName
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Role != nil {
		if !auth.IsValidUserRole(*req.Role) {
			writeBadRequest(w, "invalid role: must be user or admin")
			return
		}
		// Admins cannot demote themselves; another admin must do it
		if user.ID == claims.Subject && *req.Role != auth.RoleAdmin {
			writeConflict(w, "cannot change your own role")
			return
		}
		user.Role = *req.Role
	}
	if req.IsActive != nil {
		if user.ID == claims.Subject && !*req.IsActive {
			writeConflict(w, "cannot deactivate your own account")
			return
		}
		user.IsActive = *req.IsActive
	}

	if err := s.users.Update(r.Context(), user); err != nil {
		s.logger.Error("update user failed", "user_id", id, "error", err)
		writeInternalError(w, "failed to update user")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// handleDeleteUser removes a user account. Areas and service tokens
// cascade with it.
func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	id := chi.URLParam(r, "id")

	if id == claims.Subject {
		writeConflict(w, "cannot delete your own account")
		return
	}

	if err := s.users.Delete(r.Context(), id); err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			writeNotFound(w, "user not found")
			return
		}
		s.logger.Error("delete user failed", "user_id", id, "error", err)
		writeInternalError(w, "failed to delete user")
		return
	}

	s.logger.Info("user deleted", "user_id", id, "deleted_by", claims.Subject)
	writeJSON(w, http.StatusOK, map[string]any{"deleted": id})
}
