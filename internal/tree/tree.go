// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package tree materializes, inspects, and deletes a user's category
// forest. The storage layer only ever exposes parent-id lookups; every
// nested structure built here is reconstructed from those lookups, and
// every traversal is bounded by a visited set so a malformed parent
// chain surfaces as a CYCLE_DETECTED error instead of looping.
package tree

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"notemap/internal/apperr"
	"notemap/internal/models"
)

// Sort selects the ordering of top-level listings.
type Sort string

const (
	SortName      Sort = "name"
	SortCreatedAt Sort = "created_at"
	SortSize      Sort = "size"
)

// ParseSort validates a sort key. An empty string means SortName.
func ParseSort(s string) (Sort, error) {
	switch Sort(s) {
	case "", SortName:
		return SortName, nil
	case SortCreatedAt, SortSize:
		return Sort(s), nil
	}
	return "", apperr.New(apperr.Validation, "parse sort", "unknown sort %q", s)
}

// CategoryGetter fetches one category scoped to its owner. A category
// that does not exist or belongs to another user yields (nil, nil).
type CategoryGetter interface {
	Category(ctx context.Context, userID, id uuid.UUID) (*models.Category, error)
}

// Reader is the read side of the category store.
type Reader interface {
	CategoryGetter

	// Children returns one page of direct children ordered by name.
	Children(ctx context.Context, userID, parentID uuid.UUID, limit, offset int) ([]models.Category, error)

	// TopLevel returns one page of root categories. Only SortName and
	// SortCreatedAt are passed through to the store.
	TopLevel(ctx context.Context, userID uuid.UUID, sort Sort, limit, offset int) ([]models.Category, error)

	// MetricsByCategoryIDs fetches metrics for many categories in one
	// call. Missing entries are allowed.
	MetricsByCategoryIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Metrics, error)
}

// Writer is the delete side of the category store.
type Writer interface {
	CategoryGetter

	ChildIDs(ctx context.Context, userID, parentID uuid.UUID) ([]uuid.UUID, error)
	DeleteNotesByCategory(ctx context.Context, categoryID uuid.UUID) error
	DeleteMetrics(ctx context.Context, categoryID uuid.UUID) error
	DeleteCategory(ctx context.Context, userID, id uuid.UUID) error
}

// Transactor is implemented by stores that can run a set of writes
// atomically. fn's error rolls the transaction back.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(Writer) error) error
}

// storageErr wraps a collaborator failure with the operation and target.
// Errors that already carry a kind pass through unchanged.
func storageErr(err error, op string, format string, args ...any) error {
	var e *apperr.Error
	if errors.As(err, &e) {
		return err
	}
	return apperr.Wrap(apperr.Internal, err, op, "%s", fmt.Sprintf(format, args...))
}
