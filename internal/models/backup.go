// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// BackupStatus tracks the lifecycle of a backup snapshot.
type BackupStatus string

const (
	BackupInProgress BackupStatus = "in_progress"
	BackupCompleted  BackupStatus = "completed"
	BackupFailed     BackupStatus = "failed"
)

// Backup is the metadata row for one snapshot of a user's data. The
// snapshot body lives in object storage under ObjectKey (empty when
// storage is not configured).
type Backup struct {
	ID         uuid.UUID    `json:"id"`
	UserID     uuid.UUID    `json:"user_id"`
	BackupDate time.Time    `json:"backup_date"`
	ObjectKey  string       `json:"object_key"`
	FileSize   int64        `json:"file_size"`
	Status     BackupStatus `json:"status"`
}

// Snapshot is the serialized body of a backup.
type Snapshot struct {
	UserID     uuid.UUID  `json:"user_id"`
	BackupDate time.Time  `json:"backup_date"`
	Categories []Category `json:"categories"`
	Notes      []Note     `json:"notes"`
	Metrics    []Metrics  `json:"metrics"`
}
