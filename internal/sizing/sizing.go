// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package sizing computes the normalized importance score of a category
// from its usage metrics and manual size factor.
package sizing

import (
	"math"
	"sync"

	"notemap/internal/models"
)

const (
	// NoteCountCeiling saturates the note-count term.
	NoteCountCeiling = 1000.0
	// EditFrequencyCeiling saturates the edit-frequency term.
	EditFrequencyCeiling = 100.0
)

// Weights is the blend applied to the three size terms.
type Weights struct {
	NoteCount     float64 `json:"note_count"`
	EditFrequency float64 `json:"edit_frequency"`
	Manual        float64 `json:"manual"`
}

// DefaultWeights returns the 0.40 / 0.35 / 0.25 blend.
func DefaultWeights() Weights {
	return Weights{NoteCount: 0.40, EditFrequency: 0.35, Manual: 0.25}
}

// Sum returns the total of the three weights.
func (w Weights) Sum() float64 {
	return w.NoteCount + w.EditFrequency + w.Manual
}

// sanitize replaces negative and NaN weights with zero and falls back to
// the defaults when nothing usable remains.
func (w Weights) sanitize() Weights {
	w.NoteCount = nonNegative(w.NoteCount)
	w.EditFrequency = nonNegative(w.EditFrequency)
	w.Manual = nonNegative(w.Manual)
	if s := w.Sum(); s == 0 || math.IsInf(s, 0) {
		return DefaultWeights()
	}
	return w
}

func (w Weights) rescale() Weights {
	s := w.Sum()
	return Weights{
		NoteCount:     w.NoteCount / s,
		EditFrequency: w.EditFrequency / s,
		Manual:        w.Manual / s,
	}
}

// Calculator holds the process-wide weight configuration. It is safe for
// concurrent use; concurrent SetWeights calls are last-writer-wins.
type Calculator struct {
	mu      sync.RWMutex
	weights Weights
}

// New creates a Calculator. The weights are rescaled proportionally so
// they sum to 1, even when the supplied sum is already close.
func New(w Weights) *Calculator {
	return &Calculator{weights: w.sanitize().rescale()}
}

// Weights returns the current configuration.
func (c *Calculator) Weights() Weights {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.weights
}

// SetWeights replaces the configuration. Externally supplied weights are
// always re-normalized so they sum to exactly 1.
func (c *Calculator) SetWeights(w Weights) Weights {
	w = w.sanitize().rescale()
	c.mu.Lock()
	c.weights = w
	c.mu.Unlock()
	return w
}

// Compute returns the size in [0,1] for the given metrics. It never
// fails: negative and NaN inputs count as zero, counts beyond the
// ceilings saturate, and the manual factor is clamped first.
func (c *Calculator) Compute(noteCount int, editFrequency, manualFactor float64) float64 {
	w := c.Weights()

	notes := math.Min(nonNegative(float64(noteCount))/NoteCountCeiling, 1)
	freq := math.Min(nonNegative(editFrequency)/EditFrequencyCeiling, 1)
	manual := ClampFactor(manualFactor)

	size := notes*w.NoteCount + freq*w.EditFrequency + manual*w.Manual
	return clamp(size, 0, 1)
}

// Size is a convenience wrapper for a category and its metrics.
func (c *Calculator) Size(cat models.Category, m models.Metrics) float64 {
	return c.Compute(m.NoteCount, m.EditFrequency, cat.ManualSizeFactor)
}

// ClampFactor forces a manual size factor into [0.5, 2.0]. NaN maps to
// the default factor.
func ClampFactor(f float64) float64 {
	if math.IsNaN(f) {
		return models.DefaultManualSizeFactor
	}
	return clamp(f, models.MinManualSizeFactor, models.MaxManualSizeFactor)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func nonNegative(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return v
}
