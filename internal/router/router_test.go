// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router tests verify the HTTP routing configuration, middleware
// chains, and the health endpoint.
package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"notemap/internal/backup"
	"notemap/internal/handlers"
	"notemap/internal/middleware"
	"notemap/internal/models"
	"notemap/internal/service"
	"notemap/internal/session"
	"notemap/internal/sizing"
	"notemap/internal/store"
	"notemap/internal/store/memstore"
)

func newTestRouter(t *testing.T, ping func(context.Context) error) (http.Handler, *middleware.RateLimiter) {
	t.Helper()

	st := memstore.New()
	hash, err := store.HashPassword("correct horse")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if _, err := st.CreateUser(context.Background(), &models.User{Email: "ana@example.com", PasswordHash: hash}); err != nil {
		t.Fatalf("create user: %v", err)
	}

	sessions := session.NewMemoryStore()
	catalog := service.New(st, sizing.New(sizing.DefaultWeights()))
	api := handlers.NewAPI(catalog, backup.New(st, st, nil, nil))
	auth := handlers.NewAuth(sessions, st)
	limiter := middleware.NewRateLimiter(3, time.Minute)
	t.Cleanup(limiter.Stop)

	return New(sessions, auth, api, limiter, ping), limiter
}

func do(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	r := httptest.NewRequest(method, path, &buf)
	r.RemoteAddr = "192.0.2.1:1234"
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func login(t *testing.T, h http.Handler) string {
	t.Helper()
	w := do(t, h, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ana@example.com", "password": "correct horse",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login: got %d, body %s", w.Code, w.Body)
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("login returned an empty token")
	}
	return resp.Token
}

func TestHealth(t *testing.T) {
	h, _ := newTestRouter(t, nil)
	w := do(t, h, http.MethodGet, "/health", "", nil)

	if w.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content-type: got %q, want application/json", ct)
	}
	if !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Errorf("body: got %s", w.Body)
	}
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("secure headers missing on /health")
	}
}

func TestHealthReportsPingFailure(t *testing.T) {
	h, _ := newTestRouter(t, func(context.Context) error { return errors.New("db down") })
	w := do(t, h, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status: got %d, want 503", w.Code)
	}
}

func TestAPIRequiresToken(t *testing.T) {
	h, _ := newTestRouter(t, nil)

	for _, path := range []string{"/api/categories", "/api/weights", "/api/backups", "/api/categories/stats"} {
		w := do(t, h, http.MethodGet, path, "", nil)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("GET %s without token: got %d, want 401", path, w.Code)
		}
	}

	w := do(t, h, http.MethodGet, "/api/categories", "not-a-token", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("bad token: got %d, want 401", w.Code)
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	h, _ := newTestRouter(t, nil)
	w := do(t, h, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ana@example.com", "password": "wrong",
	})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want 401", w.Code)
	}
}

func TestLoginIsRateLimited(t *testing.T) {
	h, _ := newTestRouter(t, nil)
	creds := map[string]string{"email": "ana@example.com", "password": "wrong"}

	for i := 0; i < 3; i++ {
		do(t, h, http.MethodPost, "/api/auth/login", "", creds)
	}
	w := do(t, h, http.MethodPost, "/api/auth/login", "", creds)
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("4th attempt: got %d, want 429", w.Code)
	}
}

func TestCategoryFlow(t *testing.T) {
	h, _ := newTestRouter(t, nil)
	token := login(t, h)

	w := do(t, h, http.MethodPost, "/api/categories", token, map[string]any{"name": "Work"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: got %d, body %s", w.Code, w.Body)
	}
	var root models.Category
	if err := json.NewDecoder(w.Body).Decode(&root); err != nil {
		t.Fatalf("decode category: %v", err)
	}

	w = do(t, h, http.MethodPost, "/api/categories", token, map[string]any{"name": "Meetings", "parent_id": root.ID})
	if w.Code != http.StatusCreated {
		t.Fatalf("create child: got %d, body %s", w.Code, w.Body)
	}

	w = do(t, h, http.MethodGet, "/api/categories/"+root.ID.String()+"?depth=2", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get tree: got %d, body %s", w.Code, w.Body)
	}
	var node models.SizedCategory
	if err := json.NewDecoder(w.Body).Decode(&node); err != nil {
		t.Fatalf("decode tree: %v", err)
	}
	if len(node.Children) != 1 || node.Children[0].Name != "Meetings" {
		t.Errorf("children: got %+v", node.Children)
	}

	w = do(t, h, http.MethodPost, "/api/layout", token, map[string]any{"width": 800, "height": 600})
	if w.Code != http.StatusOK {
		t.Fatalf("layout: got %d, body %s", w.Code, w.Body)
	}
	var boxes []models.LayoutBox
	if err := json.NewDecoder(w.Body).Decode(&boxes); err != nil {
		t.Fatalf("decode layout: %v", err)
	}
	if len(boxes) != 2 {
		t.Errorf("layout boxes: got %d, want 2", len(boxes))
	}

	w = do(t, h, http.MethodDelete, "/api/categories/"+root.ID.String(), token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete: got %d, body %s", w.Code, w.Body)
	}
	if !strings.Contains(w.Body.String(), root.ID.String()) {
		t.Errorf("delete result should list %s: %s", root.ID, w.Body)
	}

	w = do(t, h, http.MethodGet, "/api/categories", token, nil)
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Errorf("after delete: got %s, want []", w.Body)
	}
}

func TestErrorEnvelope(t *testing.T) {
	h, _ := newTestRouter(t, nil)
	token := login(t, h)

	w := do(t, h, http.MethodGet, "/api/categories/not-a-uuid", token, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", w.Code)
	}
	var body struct {
		Error struct {
			Kind    string `json:"kind"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if body.Error.Kind != "VALIDATION" || body.Error.Message == "" {
		t.Errorf("envelope: got %+v", body.Error)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	h, _ := newTestRouter(t, nil)
	token := login(t, h)

	if w := do(t, h, http.MethodPost, "/api/auth/logout", token, nil); w.Code != http.StatusNoContent {
		t.Fatalf("logout: got %d", w.Code)
	}
	if w := do(t, h, http.MethodGet, "/api/weights", token, nil); w.Code != http.StatusUnauthorized {
		t.Errorf("after logout: got %d, want 401", w.Code)
	}
}
