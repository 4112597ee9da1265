package service

import (
	"context"

	"github.com/google/uuid"

	"notemap/internal/apperr"
	"notemap/internal/models"
)

// NoteInput carries the fields of a note create or update.
type NoteInput struct {
	CategoryID uuid.UUID `json:"category_id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
}

// Notes lists the notes filed under an owned category.
func (c *Catalog) Notes(ctx context.Context, userID, categoryID uuid.UUID) ([]models.Note, error) {
	const op = "list notes"

	if _, err := c.ownedCategory(ctx, op, userID, categoryID); err != nil {
		return nil, err
	}
	notes, err := c.repo.NotesByCategory(ctx, categoryID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, op, "category %s", categoryID)
	}
	return notes, nil
}

// CreateNote files a new note. The store records the edit on the
// category's metrics in the same transaction.
func (c *Catalog) CreateNote(ctx context.Context, userID uuid.UUID, in NoteInput) (*models.Note, error) {
	const op = "create note"

	title, err := validateNote(op, in.Title, in.Content)
	if err != nil {
		return nil, err
	}
	if _, err := c.ownedCategory(ctx, op, userID, in.CategoryID); err != nil {
		return nil, err
	}

	n, err := c.repo.CreateNote(ctx, &models.Note{
		CategoryID: in.CategoryID,
		Title:      title,
		Content:    in.Content,
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, op, "store note in %s", in.CategoryID)
	}
	c.invalidate(ctx, userID)
	return n, nil
}

// UpdateNote rewrites a note and may move it to another owned category.
// A zero CategoryID keeps the current category.
func (c *Catalog) UpdateNote(ctx context.Context, userID, id uuid.UUID, in NoteInput) (*models.Note, error) {
	const op = "update note"

	title, err := validateNote(op, in.Title, in.Content)
	if err != nil {
		return nil, err
	}
	cur, err := c.ownedNote(ctx, op, userID, id)
	if err != nil {
		return nil, err
	}
	if in.CategoryID != uuid.Nil && in.CategoryID != cur.CategoryID {
		if _, err := c.ownedCategory(ctx, op, userID, in.CategoryID); err != nil {
			return nil, err
		}
		cur.CategoryID = in.CategoryID
	}
	cur.Title = title
	cur.Content = in.Content

	n, err := c.repo.UpdateNote(ctx, cur)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, op, "store note %s", id)
	}
	c.invalidate(ctx, userID)
	return n, nil
}

// DeleteNote removes an owned note.
func (c *Catalog) DeleteNote(ctx context.Context, userID, id uuid.UUID) error {
	const op = "delete note"

	if _, err := c.ownedNote(ctx, op, userID, id); err != nil {
		return err
	}
	if err := c.repo.DeleteNote(ctx, id); err != nil {
		return apperr.Wrap(apperr.Internal, err, op, "note %s", id)
	}
	c.invalidate(ctx, userID)
	return nil
}

// ownedNote fetches a note whose category belongs to userID. Notes of
// other users are reported as missing.
func (c *Catalog) ownedNote(ctx context.Context, op string, userID, id uuid.UUID) (*models.Note, error) {
	n, err := c.repo.Note(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, op, "fetch note %s", id)
	}
	if n == nil {
		return nil, apperr.NotFoundID(op, id)
	}
	cat, err := c.repo.Category(ctx, userID, n.CategoryID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, op, "fetch category %s", n.CategoryID)
	}
	if cat == nil {
		return nil, apperr.NotFoundID(op, id)
	}
	return n, nil
}
