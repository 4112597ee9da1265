// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"notemap/internal/models"
	"notemap/internal/service"
	"notemap/internal/sizing"
)

// Layout positions the requested categories on a canvas.
func (a *API) Layout(w http.ResponseWriter, r *http.Request) {
	var req service.LayoutRequest
	if err := decodeJSON(w, r, "layout", &req); err != nil {
		writeError(w, r, err)
		return
	}

	boxes, err := a.catalog.Layout(r.Context(), userID(r), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(boxes))
}

// GetWeights returns the active sizing weights.
func (a *API) GetWeights(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.catalog.Weights())
}

// SetWeights replaces the sizing weights and returns them normalized.
func (a *API) SetWeights(w http.ResponseWriter, r *http.Request) {
	var in sizing.Weights
	if err := decodeJSON(w, r, "set weights", &in); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a.catalog.SetWeights(r.Context(), in))
}

type sizeRequest struct {
	NoteCount        int      `json:"note_count"`
	EditFrequency    float64  `json:"edit_frequency"`
	ManualSizeFactor *float64 `json:"manual_size_factor"`
}

// ComputeSize scores raw inputs with the active weights. A missing
// manual_size_factor counts as the neutral factor.
func (a *API) ComputeSize(w http.ResponseWriter, r *http.Request) {
	var req sizeRequest
	if err := decodeJSON(w, r, "compute size", &req); err != nil {
		writeError(w, r, err)
		return
	}
	factor := models.DefaultManualSizeFactor
	if req.ManualSizeFactor != nil {
		factor = *req.ManualSizeFactor
	}

	size := a.catalog.ComputeSize(req.NoteCount, req.EditFrequency, factor)
	writeJSON(w, http.StatusOK, map[string]float64{"size": size})
}

// ExportCSV streams the caller's flattened forest as a CSV attachment.
// The body is rendered fully before the headers go out so a storage
// failure still produces a JSON error.
func (a *API) ExportCSV(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := a.catalog.ExportCSV(r.Context(), userID(r), &buf); err != nil {
		writeError(w, r, err)
		return
	}

	name := fmt.Sprintf("categories-%s.csv", time.Now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Warn("write csv export failed", "error", err)
	}
}
