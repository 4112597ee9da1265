package models

import "github.com/google/uuid"

// LayoutBox is the geometric placement of one category in the diagram.
// X and Y are the box center in canvas coordinates.
type LayoutBox struct {
	ID               uuid.UUID  `json:"id"`
	ParentID         *uuid.UUID `json:"parent_id"`
	Name             string     `json:"name"`
	Description      string     `json:"description"`
	Color            string     `json:"color"`
	Size             float64    `json:"size"`
	ManualSizeFactor float64    `json:"manual_size_factor"`
	Metrics          Metrics    `json:"metrics"`
	Depth            int        `json:"depth"`
	X                float64    `json:"x"`
	Y                float64    `json:"y"`
	Width            float64    `json:"width"`
	Height           float64    `json:"height"`
	FontSize         float64    `json:"font_size"`
}
