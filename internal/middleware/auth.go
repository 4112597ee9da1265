// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"notemap/internal/apperr"
	"notemap/internal/session"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

const (
	// SessionKey is the context key for the session data.
	SessionKey contextKey = "session"
	tokenKey   contextKey = "token"
)

// Authenticate resolves the bearer token into a session and stores it in the
// request context. Requests without a valid token are rejected with 401.
func Authenticate(sessions session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := session.TokenFromRequest(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing bearer token")
				return
			}

			data, err := sessions.Get(r.Context(), token)
			if err != nil {
				slog.Error("session lookup failed", "error", err)
				writeError(w, http.StatusInternalServerError, string(apperr.Internal), "internal error")
				return
			}
			if data == nil {
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), SessionKey, data)
			ctx = context.WithValue(ctx, tokenKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFromCtx extracts the session data from the request context.
// Returns nil if the request was not authenticated.
func SessionFromCtx(ctx context.Context) *session.Data {
	data, _ := ctx.Value(SessionKey).(*session.Data)
	return data
}

// UserIDFromCtx returns the authenticated user's id, or uuid.Nil.
func UserIDFromCtx(ctx context.Context) uuid.UUID {
	if data := SessionFromCtx(ctx); data != nil {
		return data.UserID
	}
	return uuid.Nil
}

// TokenFromCtx returns the bearer token that authenticated the request.
func TokenFromCtx(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey).(string)
	return token
}
