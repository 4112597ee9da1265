package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"notemap/internal/apperr"
	"notemap/internal/middleware"
	"notemap/internal/models"
	"notemap/internal/session"
	"notemap/internal/store"
)

// UserFinder looks up accounts by email.
type UserFinder interface {
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// Auth groups the login and logout handlers.
type Auth struct {
	sessions session.Manager
	users    UserFinder
}

// NewAuth creates a new Auth handler group.
func NewAuth(sessions session.Manager, users UserFinder) *Auth {
	return &Auth{sessions: sessions, users: users}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Login exchanges an email and password for a bearer token.
func (a *Auth) Login(w http.ResponseWriter, r *http.Request) {
	const op = "login"

	var req loginRequest
	if err := decodeJSON(w, r, op, &req); err != nil {
		writeError(w, r, err)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, r, apperr.New(apperr.Validation, op, "email and password are required"))
		return
	}

	user, err := a.users.FindUserByEmail(r.Context(), req.Email)
	if err != nil {
		writeError(w, r, apperr.Wrap(apperr.Internal, err, op, "find user"))
		return
	}
	if user == nil || !store.CheckPassword(user, req.Password) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"error": map[string]string{"kind": "UNAUTHORIZED", "message": "invalid email or password"},
		})
		return
	}

	token, err := a.sessions.Create(r.Context(), &session.Data{
		UserID: user.ID,
		Email:  user.Email,
	})
	if err != nil {
		writeError(w, r, apperr.Wrap(apperr.Internal, err, op, "create session"))
		return
	}

	slog.Info("user logged in", "user_id", user.ID)
	writeJSON(w, http.StatusOK, loginResponse{Token: token, User: user})
}

// Logout revokes the caller's token.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	if err := a.sessions.Destroy(r.Context(), middleware.TokenFromCtx(r.Context())); err != nil {
		writeError(w, r, apperr.Wrap(apperr.Internal, err, "logout", "destroy session"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
