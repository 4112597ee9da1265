// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"notemap/internal/models"
)

// NoteStore manages notes. Every mutation updates the owning category's
// metrics in the same transaction.
type NoteStore struct {
	db  DBTX
	now func() time.Time
}

// NewNoteStore returns a new NoteStore.
func NewNoteStore(db DBTX) *NoteStore {
	return &NoteStore{db: db, now: time.Now}
}

const noteColumns = `id, category_id, title, content, created_at, updated_at`

func scanNote(scanner interface{ Scan(...any) error }) (*models.Note, error) {
	var n models.Note
	if err := scanner.Scan(&n.ID, &n.CategoryID, &n.Title, &n.Content, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return nil, err
	}
	return &n, nil
}

func (s *NoteStore) queryNotes(ctx context.Context, op, query string, args ...any) ([]models.Note, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	notes := []models.Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, *n)
	}
	return notes, rows.Err()
}

// Note retrieves a note by ID. Returns nil if not found.
func (s *NoteStore) Note(ctx context.Context, id uuid.UUID) (*models.Note, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+noteColumns+` FROM notes WHERE id = $1`, id)
	n, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find note by id: %w", err)
	}
	return n, nil
}

// NotesByCategory returns a category's notes, most recently edited first.
func (s *NoteStore) NotesByCategory(ctx context.Context, categoryID uuid.UUID) ([]models.Note, error) {
	return s.queryNotes(ctx, "list notes by category", `
		SELECT `+noteColumns+` FROM notes
		WHERE category_id = $1
		ORDER BY updated_at DESC, id
	`, categoryID)
}

// NotesByUser returns every note under the user's categories.
func (s *NoteStore) NotesByUser(ctx context.Context, userID uuid.UUID) ([]models.Note, error) {
	return s.queryNotes(ctx, "list notes by user", `
		SELECT n.id, n.category_id, n.title, n.content, n.created_at, n.updated_at
		FROM notes n
		JOIN categories c ON c.id = n.category_id
		WHERE c.user_id = $1
		ORDER BY n.updated_at DESC, n.id
	`, userID)
}

// CreateNote inserts a note and counts it on its category.
func (s *NoteStore) CreateNote(ctx context.Context, n *models.Note) (*models.Note, error) {
	var created *models.Note
	err := withTx(ctx, s.db, func(tx DBTX) error {
		row := tx.QueryRowContext(ctx, `
			INSERT INTO notes (category_id, title, content)
			VALUES ($1, $2, $3)
			RETURNING `+noteColumns,
			n.CategoryID, n.Title, n.Content,
		)
		var err error
		if created, err = scanNote(row); err != nil {
			return fmt.Errorf("insert note: %w", err)
		}
		return recordEdit(ctx, tx, n.CategoryID, 1, s.now())
	})
	if err != nil {
		return nil, fmt.Errorf("create note: %w", err)
	}
	return created, nil
}

// UpdateNote saves a note's title, content, and category. Moving a note
// shifts its count from the old category to the new one.
func (s *NoteStore) UpdateNote(ctx context.Context, n *models.Note) (*models.Note, error) {
	var updated *models.Note
	err := withTx(ctx, s.db, func(tx DBTX) error {
		var oldCategory uuid.UUID
		err := tx.QueryRowContext(ctx, `SELECT category_id FROM notes WHERE id = $1 FOR UPDATE`, n.ID).Scan(&oldCategory)
		if err != nil {
			return fmt.Errorf("lock note: %w", err)
		}

		row := tx.QueryRowContext(ctx, `
			UPDATE notes SET category_id = $1, title = $2, content = $3, updated_at = NOW()
			WHERE id = $4
			RETURNING `+noteColumns,
			n.CategoryID, n.Title, n.Content, n.ID,
		)
		if updated, err = scanNote(row); err != nil {
			return fmt.Errorf("save note: %w", err)
		}

		now := s.now()
		if oldCategory != n.CategoryID {
			if err := recordEdit(ctx, tx, oldCategory, -1, now); err != nil {
				return err
			}
			return recordEdit(ctx, tx, n.CategoryID, 1, now)
		}
		return recordEdit(ctx, tx, n.CategoryID, 0, now)
	})
	if err != nil {
		return nil, fmt.Errorf("update note: %w", err)
	}
	return updated, nil
}

// DeleteNote removes a note and uncounts it from its category. Deleting a
// missing note is not an error.
func (s *NoteStore) DeleteNote(ctx context.Context, id uuid.UUID) error {
	err := withTx(ctx, s.db, func(tx DBTX) error {
		var categoryID uuid.UUID
		err := tx.QueryRowContext(ctx, `DELETE FROM notes WHERE id = $1 RETURNING category_id`, id).Scan(&categoryID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		return recordEdit(ctx, tx, categoryID, -1, s.now())
	})
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	return nil
}

// DeleteNotesByCategory removes every note of a category without touching
// metrics; the cascade deleter drops the metrics row right after.
func (s *NoteStore) DeleteNotesByCategory(ctx context.Context, categoryID uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE category_id = $1`, categoryID); err != nil {
		return fmt.Errorf("delete notes by category: %w", err)
	}
	return nil
}
