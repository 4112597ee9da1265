// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package store provides PostgreSQL access for all notemap entities. Each
// store struct wraps a DBTX and exposes typed query methods; Repository
// bundles the category, metrics, and note stores behind the interfaces
// the tree package consumes.
package store

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"notemap/internal/tree"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx, so every store can run
// inside or outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// psql builds statements with PostgreSQL $n placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// withTx runs fn in a transaction. When db is already a transaction fn
// joins it instead of nesting.
func withTx(ctx context.Context, db DBTX, fn func(DBTX) error) error {
	conn, ok := db.(*sql.DB)
	if !ok {
		return fn(db)
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Repository is the category-domain store: categories, their metrics,
// and their notes. It implements tree.Reader, tree.Writer, and
// tree.Transactor.
type Repository struct {
	*CategoryStore
	*MetricsStore
	*NoteStore
	db DBTX
}

// NewRepository returns a Repository over db.
func NewRepository(db DBTX) *Repository {
	return &Repository{
		CategoryStore: NewCategoryStore(db),
		MetricsStore:  NewMetricsStore(db),
		NoteStore:     NewNoteStore(db),
		db:            db,
	}
}

// WithinTx runs fn against a Repository bound to a single transaction.
// Any error from fn rolls every write back.
func (r *Repository) WithinTx(ctx context.Context, fn func(tree.Writer) error) error {
	return withTx(ctx, r.db, func(tx DBTX) error {
		return fn(NewRepository(tx))
	})
}

var (
	_ tree.Reader     = (*Repository)(nil)
	_ tree.Writer     = (*Repository)(nil)
	_ tree.Transactor = (*Repository)(nil)
)
