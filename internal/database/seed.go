package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

// Demo account created by Seed.
const (
	DemoEmail    = "demo@notemap.local"
	DemoPassword = "demo"
)

// sampleTree is the demo forest as (name, parent name) pairs. Parents are
// listed before their children.
var sampleTree = []struct {
	name, parent string
	notes        int
}{
	{"Work", "", 12},
	{"Projects", "Work", 30},
	{"Notemap", "Projects", 45},
	{"Website", "Projects", 8},
	{"Meetings", "Work", 20},
	{"Personal", "", 5},
	{"Reading", "Personal", 16},
	{"Health", "Personal", 3},
	{"Ideas", "", 9},
}

// Seed populates the database with a demo user owning a small sample
// tree. It does nothing when any user already exists.
func Seed(db *sql.DB) error {
	ctx := context.Background()

	// Check if any users exist already.
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed begin tx: %w", err)
	}
	defer tx.Rollback()

	var userID string
	err = tx.QueryRowContext(ctx, `
		INSERT INTO users (email, password_hash, display_name)
		VALUES ($1, $2, $3)
		RETURNING id
	`, DemoEmail, string(hash), "Demo").Scan(&userID)
	if err != nil {
		return fmt.Errorf("seed insert user: %w", err)
	}

	ids := make(map[string]string, len(sampleTree))
	for _, c := range sampleTree {
		var parent any
		if c.parent != "" {
			parent = ids[c.parent]
		}
		var id string
		err := tx.QueryRowContext(ctx, `
			INSERT INTO categories (user_id, name, parent_id)
			VALUES ($1, $2, $3)
			RETURNING id
		`, userID, c.name, parent).Scan(&id)
		if err != nil {
			return fmt.Errorf("seed insert category %s: %w", c.name, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO metrics (category_id, note_count, edit_frequency, last_edited)
			VALUES ($1, $2, $3, NOW())
		`, id, c.notes, float64(c.notes)/2)
		if err != nil {
			return fmt.Errorf("seed insert metrics %s: %w", c.name, err)
		}
		ids[c.name] = id
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}

	slog.Info("database seeded with demo user",
		"email", DemoEmail,
		"password", DemoPassword,
		"categories", len(sampleTree),
	)
	return nil
}
