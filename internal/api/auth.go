package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dwhitmore/meshgate-core/internal/auth"
)

// loginRequest is the request body for POST /api/login.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginResponse is the response body for POST /api/login.
type loginResponse struct {
	Status       string    `json:"status"`
	Token        string    `json:"token"`
	ExpiresAt    time.Time `json:"expires_at"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	AccessRights string    `json:"access_rights"`
	DeviceName   string    `json:"device_name"`
}

// handleLogin authenticates a user and issues an opaque session token.
//
// The token expires after the configured sliding window; each authenticated
// request refreshes it.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeBadRequest(w, "email and password are required")
		return
	}

	ctx := r.Context()
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			// Burn a hash comparison so missing and wrong-password
			// responses take comparable time.
			_, _ = auth.VerifyPassword(req.Password, auth.DummyHash)
			writeUnauthorized(w, "invalid credentials")
			return
		}
		writeInternalError(w, "failed to load user")
		return
	}

	ok, err := auth.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil || !ok {
		writeUnauthorized(w, "invalid credentials")
		return
	}
	if !user.Active {
		writeUnauthorized(w, "account is inactive")
		return
	}

	ttl := s.tokenTTL()
	token, err := s.tokens.Issue(ctx, user.Email, ttl)
	if err != nil {
		s.logger.Error("issuing session token", "error", err, "email", user.Email)
		writeInternalError(w, "failed to issue token")
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Status:       "ok",
		Token:        token,
		ExpiresAt:    time.Now().Add(ttl).UTC(),
		Email:        user.Email,
		Username:     user.Username,
		AccessRights: user.AccessRights,
		DeviceName:   s.deviceName(r),
	})
}

// deviceName asks the companion device for its advertised name.
// Best-effort: a dark or busy device never fails a login.
func (s *Server) deviceName(r *http.Request) string {
	info, err := s.gateway.DeviceInfo(r.Context())
	if err != nil || info == nil {
		s.logger.Warn("querying device name at login", "error", err)
		return ""
	}
	return info.Name
}

// handleLogout revokes the caller's session token.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	raw := extractToken(r)
	if err := s.tokens.Revoke(r.Context(), raw); err != nil {
		s.logger.Warn("revoking session token", "error", err)
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleMe returns the authenticated user's account.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.users.GetByEmail(r.Context(), userEmail(r))
	if err != nil {
		writeUnauthorized(w, "invalid session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"user":   user,
	})
}

// requireAdmin loads the caller's account and checks admin rights.
// Writes the error response itself; callers return on nil.
func (s *Server) requireAdmin(w http.ResponseWriter, r *http.Request) *auth.User {
	user, err := s.users.GetByEmail(r.Context(), userEmail(r))
	if err != nil {
		writeUnauthorized(w, "invalid session")
		return nil
	}
	if user.AccessRights != auth.AccessAdmin {
		writeError(w, http.StatusForbidden, "admin access required")
		return nil
	}
	return user
}
