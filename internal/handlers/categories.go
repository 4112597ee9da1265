// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"notemap/internal/apperr"
	"notemap/internal/service"
)

// ListCategories returns a page of top-level categories.
// Query: sort (name|created|modified), limit, offset.
func (a *API) ListCategories(w http.ResponseWriter, r *http.Request) {
	const op = "list categories"

	limit, err := queryInt(r, op, "limit", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	offset, err := queryInt(r, op, "offset", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}

	cats, err := a.catalog.TopLevel(r.Context(), userID(r), r.URL.Query().Get("sort"), limit, offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(cats))
}

// CreateCategory stores a new category.
func (a *API) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var in service.CategoryInput
	if err := decodeJSON(w, r, "create category", &in); err != nil {
		writeError(w, r, err)
		return
	}

	cat, err := a.catalog.CreateCategory(r.Context(), userID(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, cat)
}

// GetCategory returns a category with its loaded descendants.
// Query: depth (default from config), page_size.
func (a *API) GetCategory(w http.ResponseWriter, r *http.Request) {
	const op = "get category"

	id, err := pathID(r, op, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	depth, err := queryInt(r, op, "depth", -1)
	if err != nil {
		writeError(w, r, err)
		return
	}
	pageSize, err := queryInt(r, op, "page_size", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}

	node, err := a.catalog.Tree(r.Context(), userID(r), id, depth, pageSize)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, node)
}

// categoryUpdate mirrors service.CategoryPatch on the wire. parent_id is
// kept raw so an explicit null (detach) differs from an absent field.
type categoryUpdate struct {
	Name             *string         `json:"name"`
	Description      *string         `json:"description"`
	Color            *string         `json:"color"`
	ManualSizeFactor *float64        `json:"manual_size_factor"`
	ParentID         json.RawMessage `json:"parent_id"`
}

func (u categoryUpdate) patch(op string) (service.CategoryPatch, error) {
	p := service.CategoryPatch{
		Name:             u.Name,
		Description:      u.Description,
		Color:            u.Color,
		ManualSizeFactor: u.ManualSizeFactor,
	}
	if len(u.ParentID) == 0 {
		return p, nil
	}

	p.Move = true
	if bytes.Equal(bytes.TrimSpace(u.ParentID), []byte("null")) {
		return p, nil
	}
	var parent uuid.UUID
	if err := json.Unmarshal(u.ParentID, &parent); err != nil {
		return p, apperr.New(apperr.Validation, op, "invalid parent_id")
	}
	p.ParentID = &parent
	return p, nil
}

// UpdateCategory edits fields and optionally moves the category.
func (a *API) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	const op = "update category"

	id, err := pathID(r, op, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var body categoryUpdate
	if err := decodeJSON(w, r, op, &body); err != nil {
		writeError(w, r, err)
		return
	}
	patch, err := body.patch(op)
	if err != nil {
		writeError(w, r, err)
		return
	}

	cat, err := a.catalog.UpdateCategory(r.Context(), userID(r), id, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cat)
}

// DeleteCategory removes a category and its subtree. The response lists
// every deleted id, children before parents.
func (a *API) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "delete category", "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	res, err := a.catalog.DeleteCategory(r.Context(), userID(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if res.Deleted == nil {
		res.Deleted = []uuid.UUID{}
	}
	writeJSON(w, http.StatusOK, res)
}

// ListChildren returns a page of a category's direct children.
func (a *API) ListChildren(w http.ResponseWriter, r *http.Request) {
	const op = "list children"

	id, err := pathID(r, op, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	limit, err := queryInt(r, op, "limit", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	offset, err := queryInt(r, op, "offset", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}

	children, err := a.catalog.Children(r.Context(), userID(r), id, offset, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(children))
}

// CategoryStats summarizes the caller's forest.
func (a *API) CategoryStats(w http.ResponseWriter, r *http.Request) {
	st, err := a.catalog.Stats(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// SearchCategories matches category names. Query: q, limit.
func (a *API) SearchCategories(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "search categories", "limit", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}

	cats, err := a.catalog.Search(r.Context(), userID(r), r.URL.Query().Get("q"), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(cats))
}

// CategoryMetrics returns the metrics snapshot of one category.
func (a *API) CategoryMetrics(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "category metrics", "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	m, err := a.catalog.Metrics(r.Context(), userID(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// nonNil keeps empty lists encoding as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

