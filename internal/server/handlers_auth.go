package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/claude/replog/internal/apperr"
	"github.com/claude/replog/internal/auth"
	"github.com/claude/replog/internal/models"
	"github.com/claude/replog/internal/storage"
)

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

var errInvalidCredentials = apperr.Unauthorized("invalid credentials")

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in models.RegisterInput
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := in.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	u, err := s.store.CreateUser(r.Context(), models.NormalizeEmail(in.Email), strings.TrimSpace(in.Name), hash)
	if errors.Is(err, storage.ErrEmailTaken) {
		s.writeError(w, r, apperr.Conflict("email already registered"))
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.log.InfoContext(r.Context(), "user registered", "user_id", u.ID)
	writeJSON(w, http.StatusCreated, u)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in models.LoginInput
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	email := models.NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		s.writeError(w, r, apperr.Validation("email and password are required"))
		return
	}

	u, err := s.store.GetUserByEmail(r.Context(), email)
	if errors.Is(err, storage.ErrNotFound) {
		s.metrics.LoginsTotal.WithLabelValues("failure").Inc()
		s.writeError(w, r, errInvalidCredentials)
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ok, err := auth.CheckPassword(u.PasswordHash, in.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !ok {
		s.metrics.LoginsTotal.WithLabelValues("failure").Inc()
		s.writeError(w, r, errInvalidCredentials)
		return
	}

	token, exp, err := s.issuer.Issue(u, in.RememberMe)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  exp,
		MaxAge:   int(s.issuer.TTL(in.RememberMe).Seconds()),
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	s.metrics.LoginsTotal.WithLabelValues("success").Inc()
	s.log.InfoContext(r.Context(), "user logged in", "user_id", u.ID, "remember_me", in.RememberMe)
	writeJSON(w, http.StatusOK, loginResponse{Token: token, ExpiresAt: exp, User: u})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}
