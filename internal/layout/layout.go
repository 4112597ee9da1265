// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package layout turns sized categories into boxes on a canvas. Box
// dimensions follow from each category's size; positions come from a
// fixed number of force-relaxation steps that pull boxes toward the
// canvas center while pushing overlapping boxes apart.
//
// Layouts are deterministic: initial positions are drawn from a PCG
// source seeded by Options.Seed and fallback colors are derived from the
// category id.
package layout

import (
	"math"
	"math/rand/v2"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r2"

	"notemap/internal/models"
)

// Box sizing constants.
const (
	BaseArea    = 15000.0
	MinWidth    = 80.0
	MinHeight   = 60.0
	MinFontSize = 12.0
	FontScale   = 24.0
)

// Options tunes a layout run. Zero fields fall back to the defaults; set
// NoPadding to let boxes touch.
type Options struct {
	Width           float64 `json:"width"`
	Height          float64 `json:"height"`
	AspectRatio     float64 `json:"aspect_ratio"`
	Iterations      int     `json:"iterations"`
	Alpha           float64 `json:"alpha"`
	AlphaDecay      float64 `json:"alpha_decay"`
	CenterStrength  float64 `json:"center_strength"`
	CollideStrength float64 `json:"collide_strength"`
	Padding         float64 `json:"padding"`
	NoPadding       bool    `json:"no_padding,omitempty"`
	Seed            uint64  `json:"seed"`
}

// DefaultOptions returns the standard settings for a canvas.
func DefaultOptions(width, height float64) Options {
	return Options{
		Width:           width,
		Height:          height,
		AspectRatio:     1.5,
		Iterations:      300,
		Alpha:           1.0,
		AlphaDecay:      0.02,
		CenterStrength:  0.05,
		CollideStrength: 0.8,
		Padding:         10,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions(1000, 600)
	if o.Width <= 0 {
		o.Width = d.Width
	}
	if o.Height <= 0 {
		o.Height = d.Height
	}
	if o.AspectRatio <= 0 || math.IsNaN(o.AspectRatio) {
		o.AspectRatio = d.AspectRatio
	}
	if o.Iterations <= 0 {
		o.Iterations = d.Iterations
	}
	if o.Alpha <= 0 {
		o.Alpha = d.Alpha
	}
	if o.AlphaDecay <= 0 || o.AlphaDecay >= 1 {
		o.AlphaDecay = d.AlphaDecay
	}
	if o.CenterStrength <= 0 {
		o.CenterStrength = d.CenterStrength
	}
	if o.CollideStrength <= 0 {
		o.CollideStrength = d.CollideStrength
	}
	switch {
	case o.NoPadding:
		o.Padding = 0
	case o.Padding <= 0 || math.IsNaN(o.Padding):
		o.Padding = d.Padding
	}
	return o
}

// Dimensions returns the width, height, and font size of a box for a
// size in [0,1]. The box area is proportional to size; width and height
// are floored so small categories stay legible.
func Dimensions(size, aspect float64) (width, height, font float64) {
	if math.IsNaN(size) {
		size = 0
	}
	size = math.Max(0, math.Min(1, size))

	area := size * BaseArea
	width = math.Sqrt(area * aspect)
	if width > 0 {
		height = area / width
	}
	return math.Max(width, MinWidth), math.Max(height, MinHeight), math.Max(MinFontSize, size*FontScale)
}

// CollisionRadius is half the box diagonal plus padding.
func CollisionRadius(width, height, padding float64) float64 {
	return math.Hypot(width, height)/2 + padding
}

// Layout places every category, including nested children, which are
// flattened depth-first into the same set. An empty input returns an
// empty slice.
func Layout(cats []models.SizedCategory, opts Options) []models.LayoutBox {
	return Relayout(nil, cats, opts)
}

// Relayout is Layout for changed inputs: categories present in prev start
// from their previous centers instead of a random position.
func Relayout(prev []models.LayoutBox, cats []models.SizedCategory, opts Options) []models.LayoutBox {
	opts = opts.withDefaults()

	flat := models.Flatten(cats)
	boxes := make([]models.LayoutBox, len(flat))
	if len(flat) == 0 {
		return boxes
	}

	start := make(map[uuid.UUID]r2.Vec, len(prev))
	for _, b := range prev {
		start[b.ID] = r2.Vec{X: b.X, Y: b.Y}
	}

	center := r2.Vec{X: opts.Width / 2, Y: opts.Height / 2}
	spread := math.Min(opts.Width, opts.Height) / 4
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))

	nodes := make([]Node, len(flat))
	for i, c := range flat {
		w, h, font := Dimensions(c.Size, opts.AspectRatio)
		boxes[i] = newBox(c, w, h, font)

		// Always draw so positions of new boxes do not depend on which
		// other boxes were carried over.
		pos := randomInDisc(rng, center, spread)
		if p, ok := start[c.ID]; ok {
			pos = p
		}
		nodes[i] = Node{ID: c.ID, Pos: pos, Radius: CollisionRadius(w, h, opts.Padding)}
	}

	forces := []Force{
		CenterX{X: center.X, Strength: opts.CenterStrength},
		CenterY{Y: center.Y, Strength: opts.CenterStrength},
		Collide{Strength: opts.CollideStrength},
	}
	state := State{Nodes: nodes, Alpha: opts.Alpha}
	for range opts.Iterations {
		state = Step(state, forces, opts.AlphaDecay)
	}

	for i, n := range state.Nodes {
		boxes[i].X = n.Pos.X
		boxes[i].Y = n.Pos.Y
	}
	return boxes
}

func newBox(c models.SizedCategory, w, h, font float64) models.LayoutBox {
	color := ColorFor(c.ID)
	if c.Color != nil && *c.Color != "" {
		color = *c.Color
	}
	return models.LayoutBox{
		ID:               c.ID,
		ParentID:         c.ParentID,
		Name:             c.Name,
		Description:      c.Description,
		Color:            color,
		Size:             c.Size,
		ManualSizeFactor: c.ManualSizeFactor,
		Metrics:          c.Metrics,
		Depth:            c.Depth,
		Width:            w,
		Height:           h,
		FontSize:         font,
	}
}

// randomInDisc returns a point uniformly distributed in the disc.
func randomInDisc(rng *rand.Rand, center r2.Vec, radius float64) r2.Vec {
	r := radius * math.Sqrt(rng.Float64())
	theta := 2 * math.Pi * rng.Float64()
	return r2.Add(center, r2.Vec{X: r * math.Cos(theta), Y: r * math.Sin(theta)})
}

// Overlap is a pair of boxes whose centers are closer than their
// combined collision radii.
type Overlap struct {
	A, B        uuid.UUID
	Distance    float64
	MinDistance float64
}

// Depth is how far the pair would need to move apart.
func (o Overlap) Depth() float64 {
	return o.MinDistance - o.Distance
}

// Overlaps reports every overlapping pair in boxes.
func Overlaps(boxes []models.LayoutBox, padding float64) []Overlap {
	var out []Overlap
	for i := range boxes {
		a := boxes[i]
		ra := CollisionRadius(a.Width, a.Height, padding)
		for j := i + 1; j < len(boxes); j++ {
			b := boxes[j]
			need := ra + CollisionRadius(b.Width, b.Height, padding)
			dist := r2.Norm(r2.Sub(r2.Vec{X: a.X, Y: a.Y}, r2.Vec{X: b.X, Y: b.Y}))
			if dist < need {
				out = append(out, Overlap{A: a.ID, B: b.ID, Distance: dist, MinDistance: need})
			}
		}
	}
	return out
}
