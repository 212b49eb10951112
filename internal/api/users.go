package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dwhitmore/meshgate-core/internal/auth"
)

// createUserRequest is the request body for POST /api/users.
type createUserRequest struct {
	Email        string `json:"email"`
	Username     string `json:"username"`
	Password     string `json:"password"`
	AccessRights string `json:"access_rights"`
}

// changePasswordRequest is the request body for POST /api/users/password.
type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// minPasswordLen is the minimum accepted password length.
const minPasswordLen = 8

// handleListUsers returns all accounts. Admin only.
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	if s.requireAdmin(w, r) == nil {
		return
	}

	users, err := s.users.List(r.Context())
	if err != nil {
		writeInternalError(w, "failed to list users")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"users":  users,
	})
}

// handleCreateUser creates a new account. Admin only.
func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	if s.requireAdmin(w, r) == nil {
		return
	}

	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Username = strings.TrimSpace(req.Username)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		writeBadRequest(w, "a valid email is required")
		return
	}
	if req.Username == "" {
		writeBadRequest(w, "username is required")
		return
	}
	if len(req.Password) < minPasswordLen {
		writeBadRequest(w, "password must be at least 8 characters")
		return
	}

	rights := req.AccessRights
	if rights == "" {
		rights = auth.AccessUser
	}
	if rights != auth.AccessUser && rights != auth.AccessAdmin {
		writeBadRequest(w, "access_rights must be \"user\" or \"admin\"")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeInternalError(w, "failed to hash password")
		return
	}

	user := &auth.User{
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: hash,
		AccessRights: rights,
		Active:       true,
	}
	if err := s.users.Create(r.Context(), user); err != nil {
		if errors.Is(err, auth.ErrUserExists) {
			writeError(w, http.StatusConflict, "user already exists")
			return
		}
		writeInternalError(w, "failed to create user")
		return
	}

	s.logger.Info("user created", "email", user.Email, "access_rights", user.AccessRights)
	writeJSON(w, http.StatusCreated, map[string]any{
		"status": "ok",
		"user":   user,
	})
}

// handleChangePassword updates the caller's own password and revokes all
// of their existing sessions.
func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if len(req.NewPassword) < minPasswordLen {
		writeBadRequest(w, "new password must be at least 8 characters")
		return
	}

	email := userEmail(r)
	user, err := s.users.GetByEmail(r.Context(), email)
	if err != nil {
		writeUnauthorized(w, "invalid session")
		return
	}

	ok, err := auth.VerifyPassword(req.CurrentPassword, user.PasswordHash)
	if err != nil || !ok {
		writeUnauthorized(w, "current password is incorrect")
		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		writeInternalError(w, "failed to hash password")
		return
	}
	if err := s.users.UpdatePassword(r.Context(), email, hash); err != nil {
		writeInternalError(w, "failed to update password")
		return
	}

	// Force re-login everywhere with the new credentials.
	if err := s.tokens.RevokeAllForUser(r.Context(), email); err != nil {
		s.logger.Warn("revoking sessions after password change", "error", err, "email", email)
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleDeleteUser removes an account and its sessions. Admin only.
// Admins cannot delete their own account.
func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	admin := s.requireAdmin(w, r)
	if admin == nil {
		return
	}

	email := strings.TrimSpace(strings.ToLower(chi.URLParam(r, "email")))
	if email == "" {
		writeBadRequest(w, "email is required")
		return
	}
	if email == admin.Email {
		writeBadRequest(w, "cannot delete your own account")
		return
	}

	if err := s.users.Delete(r.Context(), email); err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeInternalError(w, "failed to delete user")
		return
	}
	if err := s.tokens.RevokeAllForUser(r.Context(), email); err != nil {
		s.logger.Warn("revoking sessions for deleted user", "error", err, "email", email)
	}

	s.logger.Info("user deleted", "email", email)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
