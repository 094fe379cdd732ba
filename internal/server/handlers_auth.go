package server

import (
	"errors"
	"net/http"
	"net/mail"

	"github.com/kimhyeog/forge/internal/services/auth"
)

// handleSignup handles POST /api/auth/signup — register a new account.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		Email    string `json:"email"`
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	if _, err := mail.ParseAddress(req.Email); err != nil {
		WriteError(w, http.StatusUnprocessableEntity, "a valid email is required")
		return
	}
	if req.Username == "" {
		WriteError(w, http.StatusUnprocessableEntity, "username is required")
		return
	}
	if len(req.Password) < 8 {
		WriteError(w, http.StatusUnprocessableEntity, "password must be at least 8 characters")
		return
	}

	user, err := s.auth.Signup(r.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrConflict) {
			WriteError(w, http.StatusConflict, "email or username already registered")
			return
		}
		s.logger.Error().Err(err).Msg("Signup failed")
		WriteError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"id":       user.ID,
		"email":    user.Email,
		"username": user.Username,
	})
}

// handleLogin handles POST /api/auth/login — exchange credentials for tokens.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	pair, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	WriteJSON(w, http.StatusOK, pair)
}

// handleRefresh handles POST /api/auth/refresh — rotate the refresh token.
// A token matching no stored row is flagged as reuse with a distinct code
// so clients can force a re-login.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	pair, err := s.auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, auth.ErrTokenReuse) {
			WriteErrorWithCode(w, http.StatusUnauthorized, "refresh token reused or revoked", "refresh_token_reused")
			return
		}
		WriteError(w, http.StatusUnauthorized, "invalid or expired refresh token")
		return
	}

	WriteJSON(w, http.StatusOK, pair)
}

// handleLogout handles POST /api/auth/logout — revoke a refresh token.
// Revoking an unknown token is a successful no-op.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	if err := s.auth.Logout(r.Context(), req.RefreshToken); err != nil {
		s.logger.Warn().Err(err).Msg("Logout failed")
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{})
}

// handleMe handles GET /api/auth/me — return the authenticated account.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	user, err := s.auth.GetUser(r.Context(), userID)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "invalid or expired token")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"id":       user.ID,
		"email":    user.Email,
		"username": user.Username,
	})
}
