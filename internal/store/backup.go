package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"notemap/internal/models"
)

// BackupStore records backup metadata. Snapshot bodies live in object
// storage.
type BackupStore struct {
	db DBTX
}

// NewBackupStore returns a new BackupStore.
func NewBackupStore(db DBTX) *BackupStore {
	return &BackupStore{db: db}
}

const backupColumns = `id, user_id, backup_date, object_key, file_size, status`

func scanBackup(scanner interface{ Scan(...any) error }) (*models.Backup, error) {
	var b models.Backup
	if err := scanner.Scan(&b.ID, &b.UserID, &b.BackupDate, &b.ObjectKey, &b.FileSize, &b.Status); err != nil {
		return nil, err
	}
	return &b, nil
}

// CreateBackup inserts a metadata row, normally with status in_progress.
func (s *BackupStore) CreateBackup(ctx context.Context, b *models.Backup) (*models.Backup, error) {
	created, err := scanBackup(s.db.QueryRowContext(ctx, `
		INSERT INTO backups (user_id, backup_date, object_key, file_size, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+backupColumns,
		b.UserID, b.BackupDate, b.ObjectKey, b.FileSize, b.Status,
	))
	if err != nil {
		return nil, fmt.Errorf("create backup: %w", err)
	}
	return created, nil
}

// UpdateBackup saves the outcome of a backup run.
func (s *BackupStore) UpdateBackup(ctx context.Context, b *models.Backup) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE backups SET object_key = $1, file_size = $2, status = $3
		WHERE id = $4
	`, b.ObjectKey, b.FileSize, b.Status, b.ID)
	if err != nil {
		return fmt.Errorf("update backup: %w", err)
	}
	return nil
}

// ListBackups returns the user's backup history, newest first.
func (s *BackupStore) ListBackups(ctx context.Context, userID uuid.UUID) ([]models.Backup, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+backupColumns+` FROM backups
		WHERE user_id = $1
		ORDER BY backup_date DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list backups: %w", err)
	}
	defer rows.Close()

	items := []models.Backup{}
	for rows.Next() {
		b, err := scanBackup(rows)
		if err != nil {
			return nil, fmt.Errorf("scan backup: %w", err)
		}
		items = append(items, *b)
	}
	return items, rows.Err()
}
