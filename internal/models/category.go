// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// MaxCategoriesPerUser is the hard cap on categories a single user may own.
const MaxCategoriesPerUser = 150

// ErrCategoryLimit is returned by stores when a create would exceed
// MaxCategoriesPerUser.
var ErrCategoryLimit = errors.New("category limit reached")

// ErrCategoryNotFound is returned by stores when an update targets a
// category that no longer exists for its owner.
var ErrCategoryNotFound = errors.New("category not found")

// Manual size factor bounds. Values outside the range are clamped.
const (
	MinManualSizeFactor     = 0.5
	MaxManualSizeFactor     = 2.0
	DefaultManualSizeFactor = 1.0
)

// Category is a node in a user's category forest. The parent link is the
// only stored relation; children are found by looking up parent_id.
type Category struct {
	ID               uuid.UUID  `json:"id"`
	UserID           uuid.UUID  `json:"-"`
	Name             string     `json:"name"`
	ParentID         *uuid.UUID `json:"parent_id"`
	Description      string     `json:"description"`
	Color            *string    `json:"color"`
	ManualSizeFactor float64    `json:"manual_size_factor"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// IsRoot reports whether the category has no parent.
func (c *Category) IsRoot() bool {
	return c.ParentID == nil
}

// SizedCategory is a category with its metrics and computed size attached.
// Children is populated only down to the depth a loader was asked for;
// HasMore signals that the child page was full and more may exist.
type SizedCategory struct {
	Category
	Metrics  Metrics         `json:"metrics"`
	Size     float64         `json:"size"`
	Depth    int             `json:"depth"`
	Children []SizedCategory `json:"children,omitempty"`
	HasMore  bool            `json:"has_more,omitempty"`
}

// Flatten returns the category and all loaded descendants in depth-first
// pre-order. Nested Children slices are cleared on the copies.
func Flatten(cats []SizedCategory) []SizedCategory {
	var out []SizedCategory
	var walk func([]SizedCategory)
	walk = func(level []SizedCategory) {
		for _, c := range level {
			children := c.Children
			c.Children = nil
			out = append(out, c)
			walk(children)
		}
	}
	walk(cats)
	return out
}
