// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package tree

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"notemap/internal/apperr"
	"notemap/internal/models"
)

// Result lists the categories removed by a cascade delete, children
// before parents.
type Result struct {
	Deleted []uuid.UUID `json:"deleted"`
}

// Deleter removes a category and everything beneath it.
type Deleter struct {
	w        Writer
	maxDepth int
	logger   *slog.Logger
}

// DeleterOption configures a Deleter.
type DeleterOption func(*Deleter)

// WithDeleteLogger sets the logger used to report partial deletes.
func WithDeleteLogger(logger *slog.Logger) DeleterOption {
	return func(d *Deleter) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDeleter creates a Deleter backed by w. When w also implements
// Transactor, each subtree is deleted in one transaction.
func NewDeleter(w Writer, opts ...DeleterOption) *Deleter {
	d := &Deleter{
		w:        w,
		maxDepth: models.MaxCategoriesPerUser,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DeleteSubtree deletes id and all its descendants in post-order: child
// subtrees first, then the category's notes, its metrics, and finally
// the category row.
//
// A missing root returns NOT_FOUND, so a repeated call is a no-op. With a
// transactional store any failure rolls the whole subtree back. Without
// one, a failure after some rows were removed returns PARTIAL_FAILURE
// wrapping the cause; calling again resumes where it stopped because
// ancestors are always removed last.
func (d *Deleter) DeleteSubtree(ctx context.Context, userID, id uuid.UUID) (Result, error) {
	if tx, ok := d.w.(Transactor); ok {
		var res Result
		err := tx.WithinTx(ctx, func(w Writer) error {
			res = Result{}
			return d.run(ctx, w, userID, id, &res)
		})
		if err != nil {
			return Result{}, err
		}
		return res, nil
	}

	var res Result
	if err := d.run(ctx, d.w, userID, id, &res); err != nil {
		if len(res.Deleted) == 0 {
			return res, err
		}
		d.logger.Warn("cascade delete stopped partway",
			"category_id", id,
			"deleted", len(res.Deleted),
			"error", err,
		)
		return res, apperr.Wrap(apperr.PartialFailure, err, "delete subtree",
			"%d of the categories under %s were deleted; retry to finish", len(res.Deleted), id)
	}
	return res, nil
}

func (d *Deleter) run(ctx context.Context, w Writer, userID, id uuid.UUID, res *Result) error {
	const op = "delete subtree"

	root, err := w.Category(ctx, userID, id)
	if err != nil {
		return storageErr(err, op, "fetch category %s", id)
	}
	if root == nil {
		return apperr.NotFoundID(op, id)
	}
	return d.deleteNode(ctx, w, userID, id, 0, make(map[uuid.UUID]bool), res)
}

func (d *Deleter) deleteNode(ctx context.Context, w Writer, userID, id uuid.UUID, depth int, seen map[uuid.UUID]bool, res *Result) error {
	const op = "delete subtree"

	if depth > d.maxDepth {
		return apperr.New(apperr.CycleDetected, op, "subtree deeper than %d levels at %s", d.maxDepth, id)
	}
	if seen[id] {
		return apperr.New(apperr.CycleDetected, op, "category %s reached twice", id)
	}
	seen[id] = true

	if err := ctx.Err(); err != nil {
		return storageErr(err, op, "delete %s", id)
	}

	childIDs, err := w.ChildIDs(ctx, userID, id)
	if err != nil {
		return storageErr(err, op, "fetch children of %s", id)
	}
	for _, childID := range childIDs {
		if err := d.deleteNode(ctx, w, userID, childID, depth+1, seen, res); err != nil {
			return err
		}
	}

	if err := w.DeleteNotesByCategory(ctx, id); err != nil {
		return storageErr(err, op, "delete notes of %s", id)
	}
	if err := w.DeleteMetrics(ctx, id); err != nil {
		return storageErr(err, op, "delete metrics of %s", id)
	}
	if err := w.DeleteCategory(ctx, userID, id); err != nil {
		return storageErr(err, op, "delete category %s", id)
	}
	res.Deleted = append(res.Deleted, id)
	return nil
}
