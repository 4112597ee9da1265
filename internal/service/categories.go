package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"notemap/internal/apperr"
	"notemap/internal/models"
	"notemap/internal/sizing"
	"notemap/internal/tree"
)

// CategoryInput carries the fields of a new category. A nil
// ManualSizeFactor means the default factor.
type CategoryInput struct {
	Name             string     `json:"name"`
	ParentID         *uuid.UUID `json:"parent_id"`
	Description      string     `json:"description"`
	Color            *string    `json:"color"`
	ManualSizeFactor *float64   `json:"manual_size_factor"`
}

// CategoryPatch carries a partial update. Nil fields are left alone. When
// Move is set the category is reparented to ParentID (nil makes it a root).
type CategoryPatch struct {
	Name             *string
	Description      *string
	Color            *string
	ManualSizeFactor *float64
	Move             bool
	ParentID         *uuid.UUID
}

// TopLevel returns one page of the user's sized root categories. A
// non-positive limit selects the loader's page size.
func (c *Catalog) TopLevel(ctx context.Context, userID uuid.UUID, sortKey string, limit, offset int) ([]models.SizedCategory, error) {
	by, err := tree.ParseSort(sortKey)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = c.loader.PageSize()
	}
	return c.loader.LoadTopLevel(ctx, userID, by, limit, offset)
}

// Tree loads a category with its descendants. A negative depth or a
// non-positive pageSize selects the loader defaults.
func (c *Catalog) Tree(ctx context.Context, userID, id uuid.UUID, depth, pageSize int) (*models.SizedCategory, error) {
	return c.loader.LoadTree(ctx, userID, id, depth, pageSize)
}

// Children returns one page of a category's direct children. A
// non-positive limit selects the loader's page size.
func (c *Catalog) Children(ctx context.Context, userID, id uuid.UUID, offset, limit int) ([]models.SizedCategory, error) {
	if limit <= 0 {
		limit = c.loader.PageSize()
	}
	return c.loader.LoadChildren(ctx, userID, id, offset, limit)
}

// Category returns one sized category without children.
func (c *Catalog) Category(ctx context.Context, userID, id uuid.UUID) (*models.SizedCategory, error) {
	return c.loader.LoadTree(ctx, userID, id, 0, 1)
}

// CreateCategory validates in and stores a new category with zeroed
// metrics. The parent, when given, must exist and belong to the user.
func (c *Catalog) CreateCategory(ctx context.Context, userID uuid.UUID, in CategoryInput) (*models.Category, error) {
	const op = "create category"

	name, err := validateName(op, in.Name)
	if err != nil {
		return nil, err
	}
	desc, err := validateDescription(op, in.Description)
	if err != nil {
		return nil, err
	}
	color, err := validateColor(op, in.Color)
	if err != nil {
		return nil, err
	}
	factor := models.DefaultManualSizeFactor
	if in.ManualSizeFactor != nil {
		factor = sizing.ClampFactor(*in.ManualSizeFactor)
	}

	if in.ParentID != nil {
		if err := tree.ValidateParent(ctx, c.repo, userID, uuid.Nil, *in.ParentID); err != nil {
			return nil, err
		}
	}

	created, err := c.repo.CreateCategory(ctx, &models.Category{
		UserID:           userID,
		Name:             name,
		ParentID:         in.ParentID,
		Description:      desc,
		Color:            color,
		ManualSizeFactor: factor,
	})
	if errors.Is(err, models.ErrCategoryLimit) {
		return nil, apperr.New(apperr.LimitExceeded, op, "a user may own at most %d categories", models.MaxCategoriesPerUser)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, op, "store category %q", name)
	}

	c.invalidate(ctx, userID)
	c.logger.Info("category created", "category_id", created.ID, "user_id", userID)
	return created, nil
}

// categoryTx is the transaction-bound store an update runs against.
type categoryTx interface {
	tree.CategoryGetter
	LockOwner(ctx context.Context, userID uuid.UUID) error
	UpdateCategory(ctx context.Context, c *models.Category) error
}

// UpdateCategory applies a patch. Moving a category under itself or one
// of its descendants fails with CYCLE_DETECTED. The owner is locked for
// the whole update so two concurrent moves cannot close a loop between
// them.
func (c *Catalog) UpdateCategory(ctx context.Context, userID, id uuid.UUID, p CategoryPatch) (*models.Category, error) {
	const op = "update category"

	var updated *models.Category
	err := c.repo.WithinTx(ctx, func(w tree.Writer) error {
		tx, ok := w.(categoryTx)
		if !ok {
			return apperr.New(apperr.Internal, op, "transaction cannot update categories")
		}
		if err := tx.LockOwner(ctx, userID); err != nil {
			return apperr.Wrap(apperr.Internal, err, op, "lock categories of user %s", userID)
		}

		cur, err := tx.Category(ctx, userID, id)
		if err != nil {
			return apperr.Wrap(apperr.Internal, err, op, "fetch category %s", id)
		}
		if cur == nil {
			return apperr.NotFoundID(op, id)
		}
		if err := applyPatch(ctx, op, tx, userID, id, cur, p); err != nil {
			return err
		}

		err = tx.UpdateCategory(ctx, cur)
		if errors.Is(err, models.ErrCategoryNotFound) {
			return apperr.NotFoundID(op, id)
		}
		if err != nil {
			return apperr.Wrap(apperr.Internal, err, op, "store category %s", id)
		}
		updated = cur
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.invalidate(ctx, userID)
	return updated, nil
}

// applyPatch validates p and copies it onto cur. Parent checks read
// through g so they see the same transaction as the update.
func applyPatch(ctx context.Context, op string, g tree.CategoryGetter, userID, id uuid.UUID, cur *models.Category, p CategoryPatch) error {
	var err error
	if p.Name != nil {
		if cur.Name, err = validateName(op, *p.Name); err != nil {
			return err
		}
	}
	if p.Description != nil {
		if cur.Description, err = validateDescription(op, *p.Description); err != nil {
			return err
		}
	}
	if p.Color != nil {
		if cur.Color, err = validateColor(op, p.Color); err != nil {
			return err
		}
	}
	if p.ManualSizeFactor != nil {
		cur.ManualSizeFactor = sizing.ClampFactor(*p.ManualSizeFactor)
	}
	if p.Move {
		if p.ParentID != nil {
			if err := tree.ValidateParent(ctx, g, userID, id, *p.ParentID); err != nil {
				return err
			}
		}
		cur.ParentID = p.ParentID
	}
	return nil
}

// DeleteCategory removes a category with its whole subtree.
func (c *Catalog) DeleteCategory(ctx context.Context, userID, id uuid.UUID) (tree.Result, error) {
	res, err := c.deleter.DeleteSubtree(ctx, userID, id)
	if len(res.Deleted) > 0 {
		c.invalidate(ctx, userID)
	}
	return res, err
}

// Stats summarizes the shape of the user's forest.
func (c *Catalog) Stats(ctx context.Context, userID uuid.UUID) (tree.Stats, error) {
	cats, err := c.repo.ListCategories(ctx, userID)
	if err != nil {
		return tree.Stats{}, apperr.Wrap(apperr.Internal, err, "category stats", "list categories of user %s", userID)
	}
	return tree.NewIndex(cats).Stats(), nil
}

// Search finds categories whose name contains q, case-insensitively. An
// empty query yields no results.
func (c *Catalog) Search(ctx context.Context, userID uuid.UUID, q string, limit int) ([]models.Category, error) {
	const op = "search categories"

	q = strings.TrimSpace(q)
	if q == "" {
		return []models.Category{}, nil
	}
	if utf8.RuneCountInString(q) > maxSearchLen {
		return nil, apperr.New(apperr.Validation, op, "query is too long (max %d characters)", maxSearchLen)
	}
	if limit <= 0 {
		limit = 20
	}
	limit = min(limit, models.MaxCategoriesPerUser)

	cats, err := c.repo.SearchCategories(ctx, userID, q, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, op, "query %q", q)
	}
	if cats == nil {
		cats = []models.Category{}
	}
	return cats, nil
}

// Metrics returns the metrics snapshot of one owned category. A category
// without a metrics row reports zero metrics.
func (c *Catalog) Metrics(ctx context.Context, userID, id uuid.UUID) (models.Metrics, error) {
	const op = "category metrics"

	if _, err := c.ownedCategory(ctx, op, userID, id); err != nil {
		return models.Metrics{}, err
	}
	m, err := c.repo.Metrics(ctx, id)
	if err != nil {
		return models.Metrics{}, apperr.Wrap(apperr.Internal, err, op, "fetch metrics of %s", id)
	}
	if m == nil {
		return models.Metrics{CategoryID: id}, nil
	}
	return *m, nil
}

// ownedCategory fetches a category and maps absence to NOT_FOUND.
func (c *Catalog) ownedCategory(ctx context.Context, op string, userID, id uuid.UUID) (*models.Category, error) {
	cat, err := c.repo.Category(ctx, userID, id)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, op, "fetch category %s", id)
	}
	if cat == nil {
		return nil, apperr.NotFoundID(op, id)
	}
	return cat, nil
}
