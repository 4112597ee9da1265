// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"notemap/internal/models"
	"notemap/internal/tree"
)

// CategoryStore manages categories in the database. Every query is scoped
// to the owning user.
type CategoryStore struct {
	db DBTX
}

// NewCategoryStore returns a new CategoryStore.
func NewCategoryStore(db DBTX) *CategoryStore {
	return &CategoryStore{db: db}
}

var categoryColumns = []string{
	"id", "user_id", "name", "parent_id", "description", "color",
	"manual_size_factor", "created_at", "updated_at",
}

var categoryColumnList = strings.Join(categoryColumns, ", ")

// scanCategory scans a row into a Category struct.
func scanCategory(scanner interface{ Scan(...any) error }) (*models.Category, error) {
	var c models.Category
	err := scanner.Scan(
		&c.ID, &c.UserID, &c.Name, &c.ParentID, &c.Description, &c.Color,
		&c.ManualSizeFactor, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// queryCategories runs a built SELECT and scans every row.
func (s *CategoryStore) queryCategories(ctx context.Context, op string, b sq.SelectBuilder) ([]models.Category, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: build query: %w", op, err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	items := []models.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		items = append(items, *c)
	}
	return items, rows.Err()
}

// Category retrieves a category owned by userID. Returns nil if not found.
func (s *CategoryStore) Category(ctx context.Context, userID, id uuid.UUID) (*models.Category, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+categoryColumnList+` FROM categories WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find category by id: %w", err)
	}
	return c, nil
}

// Children returns one page of direct children ordered by name.
func (s *CategoryStore) Children(ctx context.Context, userID, parentID uuid.UUID, limit, offset int) ([]models.Category, error) {
	if limit <= 0 || offset < 0 {
		return []models.Category{}, nil
	}
	b := psql.Select(categoryColumns...).
		From("categories").
		Where(sq.Eq{"user_id": userID.String()}).
		Where(sq.Eq{"parent_id": parentID.String()}).
		OrderBy("name", "id").
		Limit(uint64(limit)).
		Offset(uint64(offset))
	return s.queryCategories(ctx, "list children", b)
}

// ChildIDs returns the ids of every direct child of parentID.
func (s *CategoryStore) ChildIDs(ctx context.Context, userID, parentID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM categories
		WHERE user_id = $1 AND parent_id = $2
		ORDER BY name, id
	`, userID, parentID)
	if err != nil {
		return nil, fmt.Errorf("list child ids: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan child id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// TopLevel returns one page of the user's root categories. SortCreatedAt
// lists newest first; anything else sorts by name.
func (s *CategoryStore) TopLevel(ctx context.Context, userID uuid.UUID, by tree.Sort, limit, offset int) ([]models.Category, error) {
	if limit <= 0 || offset < 0 {
		return []models.Category{}, nil
	}
	b := psql.Select(categoryColumns...).
		From("categories").
		Where(sq.Eq{"user_id": userID.String()}).
		Where(sq.Eq{"parent_id": nil}).
		Limit(uint64(limit)).
		Offset(uint64(offset))
	if by == tree.SortCreatedAt {
		b = b.OrderBy("created_at DESC", "name", "id")
	} else {
		b = b.OrderBy("name", "id")
	}
	return s.queryCategories(ctx, "list top-level categories", b)
}

// ListCategories returns every category the user owns, ordered by name.
func (s *CategoryStore) ListCategories(ctx context.Context, userID uuid.UUID) ([]models.Category, error) {
	b := psql.Select(categoryColumns...).
		From("categories").
		Where(sq.Eq{"user_id": userID.String()}).
		OrderBy("name", "id")
	return s.queryCategories(ctx, "list categories", b)
}

// CountCategories returns the number of categories the user owns.
func (s *CategoryStore) CountCategories(ctx context.Context, userID uuid.UUID) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories WHERE user_id = $1`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count categories: %w", err)
	}
	return n, nil
}

// likeEscaper escapes LIKE wildcards in user input.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// SearchCategories returns up to limit categories whose name contains q,
// case-insensitively.
func (s *CategoryStore) SearchCategories(ctx context.Context, userID uuid.UUID, q string, limit int) ([]models.Category, error) {
	if limit <= 0 {
		return []models.Category{}, nil
	}
	b := psql.Select(categoryColumns...).
		From("categories").
		Where(sq.Eq{"user_id": userID.String()}).
		Where(sq.ILike{"name": "%" + likeEscaper.Replace(q) + "%"}).
		OrderBy("name", "id").
		Limit(uint64(limit))
	return s.queryCategories(ctx, "search categories", b)
}

// CreateCategory inserts a category and its zeroed metrics row in one
// transaction. The owner's row is locked while counting so concurrent
// creates cannot exceed MaxCategoriesPerUser; at the cap it returns
// models.ErrCategoryLimit.
func (s *CategoryStore) CreateCategory(ctx context.Context, c *models.Category) (*models.Category, error) {
	var result *models.Category
	err := withTx(ctx, s.db, func(tx DBTX) error {
		if err := NewCategoryStore(tx).LockOwner(ctx, c.UserID); err != nil {
			return err
		}

		var n int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories WHERE user_id = $1`, c.UserID).Scan(&n); err != nil {
			return fmt.Errorf("count categories: %w", err)
		}
		if n >= models.MaxCategoriesPerUser {
			return models.ErrCategoryLimit
		}

		row := tx.QueryRowContext(ctx, `
			INSERT INTO categories (user_id, name, parent_id, description, color, manual_size_factor)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING `+categoryColumnList,
			c.UserID, c.Name, c.ParentID, c.Description, c.Color, c.ManualSizeFactor,
		)
		created, err := scanCategory(row)
		if err != nil {
			return fmt.Errorf("insert category: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `INSERT INTO metrics (category_id) VALUES ($1)`, created.ID); err != nil {
			return fmt.Errorf("insert metrics: %w", err)
		}
		result = created
		return nil
	})
	if errors.Is(err, models.ErrCategoryLimit) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return result, nil
}

// LockOwner locks the owner's user row until the surrounding transaction
// ends, serializing category creates and moves for that user. Outside a
// transaction the lock is released immediately.
func (s *CategoryStore) LockOwner(ctx context.Context, userID uuid.UUID) error {
	var locked uuid.UUID
	if err := s.db.QueryRowContext(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&locked); err != nil {
		return fmt.Errorf("lock user: %w", err)
	}
	return nil
}

// UpdateCategory saves the mutable fields of c and refreshes its
// timestamps from the database. A row that is gone yields
// models.ErrCategoryNotFound.
func (s *CategoryStore) UpdateCategory(ctx context.Context, c *models.Category) error {
	err := s.db.QueryRowContext(ctx, `
		UPDATE categories SET
			name = $1, parent_id = $2, description = $3, color = $4,
			manual_size_factor = $5, updated_at = NOW()
		WHERE id = $6 AND user_id = $7
		RETURNING created_at, updated_at
	`, c.Name, c.ParentID, c.Description, c.Color, c.ManualSizeFactor, c.ID, c.UserID,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update category %s: %w", c.ID, models.ErrCategoryNotFound)
	}
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return nil
}

// DeleteCategory removes one category row. Children, notes, and metrics
// must already be gone.
func (s *CategoryStore) DeleteCategory(ctx context.Context, userID, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}
