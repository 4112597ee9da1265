package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"notemap/internal/models"
)

// MetricsStore manages per-category usage metrics.
type MetricsStore struct {
	db DBTX
}

// NewMetricsStore returns a new MetricsStore.
func NewMetricsStore(db DBTX) *MetricsStore {
	return &MetricsStore{db: db}
}

func scanMetrics(scanner interface{ Scan(...any) error }) (*models.Metrics, error) {
	var m models.Metrics
	if err := scanner.Scan(&m.CategoryID, &m.NoteCount, &m.EditFrequency, &m.LastEdited); err != nil {
		return nil, err
	}
	return &m, nil
}

// MetricsByCategoryIDs fetches the metrics of many categories in one
// query. Categories without a metrics row are absent from the map.
func (s *MetricsStore) MetricsByCategoryIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Metrics, error) {
	out := make(map[uuid.UUID]models.Metrics, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}
	query, args, err := psql.
		Select("category_id", "note_count", "edit_frequency", "last_edited").
		From("metrics").
		Where(sq.Eq{"category_id": keys}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("metrics by ids: build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("metrics by ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		m, err := scanMetrics(rows)
		if err != nil {
			return nil, fmt.Errorf("scan metrics: %w", err)
		}
		out[m.CategoryID] = *m
	}
	return out, rows.Err()
}

// Metrics returns the metrics row of one category. Returns nil if not found.
func (s *MetricsStore) Metrics(ctx context.Context, categoryID uuid.UUID) (*models.Metrics, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT category_id, note_count, edit_frequency, last_edited
		FROM metrics WHERE category_id = $1
	`, categoryID)
	m, err := scanMetrics(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find metrics: %w", err)
	}
	return m, nil
}

// DeleteMetrics removes the metrics row of a category.
func (s *MetricsStore) DeleteMetrics(ctx context.Context, categoryID uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM metrics WHERE category_id = $1`, categoryID); err != nil {
		return fmt.Errorf("delete metrics: %w", err)
	}
	return nil
}

// recordEdit applies one note mutation to a category's metrics. The row
// is locked for the read-modify-write, so callers should pass a
// transaction.
func recordEdit(ctx context.Context, db DBTX, categoryID uuid.UUID, noteDelta int, now time.Time) error {
	row := db.QueryRowContext(ctx, `
		SELECT category_id, note_count, edit_frequency, last_edited
		FROM metrics WHERE category_id = $1
		FOR UPDATE
	`, categoryID)
	m, err := scanMetrics(row)
	if errors.Is(err, sql.ErrNoRows) {
		m = &models.Metrics{CategoryID: categoryID}
	} else if err != nil {
		return fmt.Errorf("lock metrics: %w", err)
	}

	next := m.RecordEdit(now, noteDelta)
	_, err = db.ExecContext(ctx, `
		INSERT INTO metrics (category_id, note_count, edit_frequency, last_edited)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (category_id) DO UPDATE SET
			note_count = EXCLUDED.note_count,
			edit_frequency = EXCLUDED.edit_frequency,
			last_edited = EXCLUDED.last_edited
	`, categoryID, next.NoteCount, next.EditFrequency, next.LastEdited)
	if err != nil {
		return fmt.Errorf("save metrics: %w", err)
	}
	return nil
}
