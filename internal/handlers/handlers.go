// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the JSON HTTP handlers for the notemap API.
// Handlers are grouped by concern (auth, categories, notes, layout,
// backups) and receive their dependencies through the handler struct.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"notemap/internal/apperr"
	"notemap/internal/middleware"
	"notemap/internal/models"
	"notemap/internal/service"
)

// maxBodyBytes caps request bodies. Layout requests carrying previous
// positions for 150 categories stay well below it.
const maxBodyBytes = 1 << 20

// Backups runs and lists snapshots. *backup.Service satisfies it.
type Backups interface {
	Run(ctx context.Context, userID uuid.UUID) (*models.Backup, error)
	History(ctx context.Context, userID uuid.UUID) ([]models.Backup, error)
	DownloadURL(ctx context.Context, userID, backupID uuid.UUID) (string, error)
}

// API groups the authenticated API handlers and their dependencies.
type API struct {
	catalog *service.Catalog
	backups Backups
}

// NewAPI creates the API handler group. backups may be nil, in which case
// the backup routes answer 404.
func NewAPI(catalog *service.Catalog, backups Backups) *API {
	return &API{catalog: catalog, backups: backups}
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response failed", "error", err)
	}
}

// writeError renders err as the API error envelope. Internal errors are
// logged and masked.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	status := apperr.HTTPStatus(kind)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "kind", kind, "error", err)
	}
	writeJSON(w, status, map[string]any{
		"error": map[string]string{"kind": string(kind), "message": apperr.Message(err)},
	})
}

// decodeJSON reads a JSON body into v. Unknown fields are rejected so
// typos surface as validation errors instead of silent no-ops.
func decodeJSON(w http.ResponseWriter, r *http.Request, op string, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.New(apperr.Validation, op, "request body is required")
		}
		return apperr.Wrap(apperr.Validation, err, op, "invalid JSON body")
	}
	return nil
}

// pathID parses a UUID URL parameter.
func pathID(r *http.Request, op, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperr.New(apperr.Validation, op, "invalid %s %q", name, raw)
	}
	return id, nil
}

// queryInt parses an integer query parameter, returning def when absent.
func queryInt(r *http.Request, op, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.New(apperr.Validation, op, "%s must be an integer", name)
	}
	return n, nil
}

func userID(r *http.Request) uuid.UUID {
	return middleware.UserIDFromCtx(r.Context())
}

// Health reports liveness. ping, when set, checks a backing service.
func Health(ping func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ping != nil {
			if err := ping(r.Context()); err != nil {
				slog.Warn("health check failed", "error", err)
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
