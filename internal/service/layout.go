package service

import (
	"context"
	"encoding/json"
	"math"

	"github.com/google/uuid"

	"notemap/internal/apperr"
	"notemap/internal/cache"
	"notemap/internal/layout"
	"notemap/internal/models"
	"notemap/internal/tree"
)

// Canvas bounds accepted by Layout.
const (
	maxCanvasSide = 20_000.0
	maxIterations = 2_000
)

// LayoutRequest selects what to lay out and on which canvas. With RootID
// the subtree under that category is laid out; with IDs only the listed
// categories; with neither the whole forest. Previous, when present,
// keeps boxes that already existed at their earlier positions.
type LayoutRequest struct {
	RootID      *uuid.UUID         `json:"root_id,omitempty"`
	IDs         []uuid.UUID        `json:"ids,omitempty"`
	Width       float64            `json:"width"`
	Height      float64            `json:"height"`
	AspectRatio float64            `json:"aspect_ratio,omitempty"`
	Iterations  int                `json:"iterations,omitempty"`
	Seed        *uint64            `json:"seed,omitempty"`
	Previous    []models.LayoutBox `json:"previous,omitempty"`
}

// Layout computes box placements for the requested categories. Results
// without Previous boxes are cached until the user's data changes.
func (c *Catalog) Layout(ctx context.Context, userID uuid.UUID, req LayoutRequest) ([]models.LayoutBox, error) {
	const op = "layout"

	opts, err := c.layoutOptions(op, req)
	if err != nil {
		return nil, err
	}

	cacheable := c.cache != nil && len(req.Previous) == 0
	var key string
	if cacheable {
		keyReq := req
		keyReq.Seed = &opts.Seed
		raw, err := json.Marshal(keyReq)
		if err != nil {
			return nil, apperr.Wrap(apperr.Internal, err, op, "encode cache key")
		}
		key = cache.RequestKey(raw)
		if data, ok := c.cache.Get(ctx, userID, key); ok {
			var boxes []models.LayoutBox
			if err := json.Unmarshal(data, &boxes); err == nil {
				return boxes, nil
			}
			c.logger.Warn("discarding unreadable cached layout", "user_id", userID)
		}
	}

	cats, err := c.layoutInput(ctx, op, userID, req)
	if err != nil {
		return nil, err
	}

	var boxes []models.LayoutBox
	if len(req.Previous) > 0 {
		boxes = layout.Relayout(req.Previous, cats, opts)
	} else {
		boxes = layout.Layout(cats, opts)
	}

	if cacheable {
		if data, err := json.Marshal(boxes); err == nil {
			c.cache.Set(ctx, userID, key, data)
		}
	}
	return boxes, nil
}

func (c *Catalog) layoutOptions(op string, req LayoutRequest) (layout.Options, error) {
	for _, v := range []float64{req.Width, req.Height, req.AspectRatio} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return layout.Options{}, apperr.New(apperr.Validation, op, "canvas dimensions must be finite and non-negative")
		}
	}
	if req.Width > maxCanvasSide || req.Height > maxCanvasSide {
		return layout.Options{}, apperr.New(apperr.Validation, op, "canvas side exceeds %.0f", maxCanvasSide)
	}
	if req.Iterations < 0 || req.Iterations > maxIterations {
		return layout.Options{}, apperr.New(apperr.Validation, op, "iterations must be between 0 and %d", maxIterations)
	}

	// Zero values fall back to the engine defaults.
	opts := c.DefaultLayoutOptions(req.Width, req.Height)
	if req.AspectRatio > 0 {
		opts.AspectRatio = req.AspectRatio
	}
	if req.Iterations > 0 {
		opts.Iterations = req.Iterations
	}
	if req.Seed != nil {
		opts.Seed = *req.Seed
	}
	return opts, nil
}

// layoutInput builds the sized categories a layout request covers from a
// single listing of the user's categories and one metrics lookup.
func (c *Catalog) layoutInput(ctx context.Context, op string, userID uuid.UUID, req LayoutRequest) ([]models.SizedCategory, error) {
	all, err := c.repo.ListCategories(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, op, "list categories of user %s", userID)
	}
	ids := make([]uuid.UUID, len(all))
	for i, cat := range all {
		ids[i] = cat.ID
	}
	metrics, err := c.repo.MetricsByCategoryIDs(ctx, ids)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, op, "fetch metrics of user %s", userID)
	}

	ix := tree.NewIndex(all)
	switch {
	case req.RootID != nil:
		sub, err := ix.Subtree(*req.RootID, metrics, c.calc)
		if err != nil {
			return nil, err
		}
		return []models.SizedCategory{sub}, nil

	case len(req.IDs) > 0:
		out := make([]models.SizedCategory, 0, len(req.IDs))
		seen := make(map[uuid.UUID]bool, len(req.IDs))
		for _, id := range req.IDs {
			if seen[id] {
				continue
			}
			seen[id] = true
			cat, ok := ix.Get(id)
			if !ok {
				return nil, apperr.NotFoundID(op, id)
			}
			m := metrics[id]
			m.CategoryID = id
			out = append(out, models.SizedCategory{Category: cat, Metrics: m, Size: c.calc.Size(cat, m)})
		}
		return out, nil
	}
	return ix.Forest(metrics, c.calc)
}
