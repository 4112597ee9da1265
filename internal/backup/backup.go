// Package backup snapshots a user's categories, notes, and metrics to
// JSON, uploads the snapshot to object storage when configured, and
// records each run's outcome.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"notemap/internal/apperr"
	"notemap/internal/models"
	"notemap/internal/storage"
)

// Source provides the data a snapshot is built from.
type Source interface {
	ListCategories(ctx context.Context, userID uuid.UUID) ([]models.Category, error)
	NotesByUser(ctx context.Context, userID uuid.UUID) ([]models.Note, error)
	MetricsByCategoryIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Metrics, error)
}

// Recorder persists backup metadata rows.
type Recorder interface {
	CreateBackup(ctx context.Context, b *models.Backup) (*models.Backup, error)
	UpdateBackup(ctx context.Context, b *models.Backup) error
	ListBackups(ctx context.Context, userID uuid.UUID) ([]models.Backup, error)
}

// Uploader writes snapshot bodies to object storage. *storage.Client
// satisfies it.
type Uploader interface {
	Upload(ctx context.Context, key, contentType string, body []byte) error
}

// Presigner issues temporary download links. *storage.Client
// satisfies it.
type Presigner interface {
	PresignedURL(ctx context.Context, key string, expires time.Duration) (string, error)
}

// DownloadTTL is how long a snapshot download link stays valid.
const DownloadTTL = 15 * time.Minute

// Service runs backups.
type Service struct {
	source   Source
	recorder Recorder
	uploader Uploader
	links    Presigner
	now      func() time.Time
	logger   *slog.Logger
}

// New returns a Service. A nil uploader records snapshots without storing
// their bodies, which is how development runs without S3.
func New(source Source, recorder Recorder, uploader Uploader, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	links, _ := uploader.(Presigner)
	return &Service{
		source:   source,
		recorder: recorder,
		uploader: uploader,
		links:    links,
		now:      time.Now,
		logger:   logger,
	}
}

// Run takes a snapshot of userID's data. The returned record reflects the
// final status; a failed upload is recorded as failed and also returned
// as an error.
func (s *Service) Run(ctx context.Context, userID uuid.UUID) (*models.Backup, error) {
	at := s.now().UTC()
	rec, err := s.recorder.CreateBackup(ctx, &models.Backup{
		UserID:     userID,
		BackupDate: at,
		Status:     models.BackupInProgress,
	})
	if err != nil {
		return nil, fmt.Errorf("start backup: %w", err)
	}

	body, err := s.snapshot(ctx, userID, at)
	if err == nil && s.uploader != nil {
		key := storage.BackupKey(userID, at)
		if err = s.uploader.Upload(ctx, key, "application/json", body); err == nil {
			rec.ObjectKey = key
		}
	}

	if err != nil {
		rec.Status = models.BackupFailed
		s.logger.Error("backup failed", "user_id", userID, "backup_id", rec.ID, "error", err)
	} else {
		rec.Status = models.BackupCompleted
		rec.FileSize = int64(len(body))
		s.logger.Info("backup completed", "user_id", userID, "backup_id", rec.ID, "bytes", rec.FileSize, "object_key", rec.ObjectKey)
	}

	// The outcome is saved even when the request context was cancelled.
	if uerr := s.recorder.UpdateBackup(context.WithoutCancel(ctx), rec); uerr != nil {
		return nil, fmt.Errorf("finish backup: %w", uerr)
	}
	if err != nil {
		return rec, fmt.Errorf("run backup: %w", err)
	}
	return rec, nil
}

// History returns the user's backups, newest first.
func (s *Service) History(ctx context.Context, userID uuid.UUID) ([]models.Backup, error) {
	items, err := s.recorder.ListBackups(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("backup history: %w", err)
	}
	if items == nil {
		items = []models.Backup{}
	}
	return items, nil
}

// DownloadURL returns a temporary link to one of the user's uploaded
// snapshots. Anything else reports NOT_FOUND.
func (s *Service) DownloadURL(ctx context.Context, userID, backupID uuid.UUID) (string, error) {
	const op = "backup download"

	if s.links == nil {
		return "", apperr.New(apperr.NotFound, op, "snapshot storage is not configured")
	}
	items, err := s.recorder.ListBackups(ctx, userID)
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, err, op, "list backups of user %s", userID)
	}
	for _, b := range items {
		if b.ID != backupID {
			continue
		}
		if b.Status != models.BackupCompleted || b.ObjectKey == "" {
			break
		}
		url, err := s.links.PresignedURL(ctx, b.ObjectKey, DownloadTTL)
		if err != nil {
			return "", apperr.Wrap(apperr.Internal, err, op, "presign %s", b.ObjectKey)
		}
		return url, nil
	}
	return "", apperr.NotFoundID(op, backupID)
}

func (s *Service) snapshot(ctx context.Context, userID uuid.UUID, at time.Time) ([]byte, error) {
	snap := models.Snapshot{UserID: userID, BackupDate: at}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cats, err := s.source.ListCategories(gctx, userID)
		snap.Categories = cats
		return err
	})
	g.Go(func() error {
		notes, err := s.source.NotesByUser(gctx, userID)
		snap.Notes = notes
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("collect snapshot: %w", err)
	}

	ids := make([]uuid.UUID, len(snap.Categories))
	for i, c := range snap.Categories {
		ids[i] = c.ID
	}
	byID, err := s.source.MetricsByCategoryIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("collect metrics: %w", err)
	}
	snap.Metrics = make([]models.Metrics, 0, len(byID))
	for _, id := range ids {
		if m, ok := byID[id]; ok {
			snap.Metrics = append(snap.Metrics, m)
		}
	}
	if snap.Categories == nil {
		snap.Categories = []models.Category{}
	}
	if snap.Notes == nil {
		snap.Notes = []models.Note{}
	}

	return json.Marshal(snap)
}
