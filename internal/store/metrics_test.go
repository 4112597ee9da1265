package store

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notemap/internal/models"
)

var metricsColumns = []string{"category_id", "note_count", "edit_frequency", "last_edited"}

func TestMetricsByCategoryIDsEmpty(t *testing.T) {
	db, _ := newMock(t)
	s := NewMetricsStore(db)

	got, err := s.MetricsByCategoryIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMetricsByCategoryIDsBatch(t *testing.T) {
	db, mock := newMock(t)
	s := NewMetricsStore(db)
	a, b := uuid.New(), uuid.New()

	mock.ExpectQuery(`FROM metrics WHERE category_id IN \(\$1,\$2\)`).
		WithArgs(a.String(), b.String()).
		WillReturnRows(sqlmock.NewRows(metricsColumns).AddRow(a.String(), 4, 2.5, nil))

	got, err := s.MetricsByCategoryIDs(context.Background(), []uuid.UUID{a, b})
	require.NoError(t, err)
	require.Len(t, got, 1, "missing rows are simply absent")
	assert.Equal(t, 4, got[a].NoteCount)
	assert.Equal(t, 2.5, got[a].EditFrequency)
	assert.Nil(t, got[a].LastEdited)
}

func TestCreateNoteRecordsDecayedEdit(t *testing.T) {
	db, mock := newMock(t)
	s := NewNoteStore(db)
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	cat := uuid.New()
	noteID := uuid.New()
	last := now.Add(-models.EditHalfLife)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO notes`).
		WithArgs(cat, "Title", "Body").
		WillReturnRows(sqlmock.NewRows([]string{"id", "category_id", "title", "content", "created_at", "updated_at"}).
			AddRow(noteID.String(), cat.String(), "Title", "Body", now, now))
	mock.ExpectQuery(`FROM metrics WHERE category_id = \$1\s+FOR UPDATE`).
		WithArgs(cat).
		WillReturnRows(sqlmock.NewRows(metricsColumns).AddRow(cat.String(), 1, 2.0, last))
	mock.ExpectExec(`(?s)INSERT INTO metrics .+ ON CONFLICT \(category_id\) DO UPDATE`).
		WithArgs(cat, 2, 2.0, now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	n, err := s.CreateNote(context.Background(), &models.Note{CategoryID: cat, Title: "Title", Content: "Body"})
	require.NoError(t, err)
	assert.Equal(t, noteID, n.ID)
}

func TestDeleteNoteMissingIsNoop(t *testing.T) {
	db, mock := newMock(t)
	s := NewNoteStore(db)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`DELETE FROM notes WHERE id = \$1 RETURNING category_id`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"category_id"}))
	mock.ExpectCommit()

	assert.NoError(t, s.DeleteNote(context.Background(), id))
}

func TestDeleteNoteUncounts(t *testing.T) {
	db, mock := newMock(t)
	s := NewNoteStore(db)
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	id, cat := uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`DELETE FROM notes`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"category_id"}).AddRow(cat.String()))
	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs(cat).
		WillReturnRows(sqlmock.NewRows(metricsColumns).AddRow(cat.String(), 3, 0.0, nil))
	mock.ExpectExec(`ON CONFLICT`).
		WithArgs(cat, 2, 1.0, now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	assert.NoError(t, s.DeleteNote(context.Background(), id))
}

func TestLikeEscaper(t *testing.T) {
	assert.Equal(t, `a\%b\_c\\d`, likeEscaper.Replace(`a%b_c\d`))
}
