// store_test.go provides a shared test database helper for all store
// integration tests. Tests are skipped if PostgreSQL is not available.
package store

import (
	"context"
	"database/sql"
	"os"
	"testing"

	_ "github.com/jackc/pgx/v5/stdlib"

	"notemap/internal/database"
	"notemap/internal/models"
)

// testDSN returns the PostgreSQL connection string for testing.
// Uses environment variables with defaults matching docker-compose.yml.
func testDSN() string {
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "notemap")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "notemap")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test database and runs migrations.
// If the database is unavailable, the test is skipped. A cleanup
// function is registered to close the connection when the test finishes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := testDSN()
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping integration test: cannot open DB: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}

	// Run migrations to ensure the schema is current.
	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

// testUser creates a throwaway user and removes it, with everything it
// owns, when the test finishes.
func testUser(t *testing.T, db *sql.DB, email string) *models.User {
	t.Helper()
	cleanUsers(t, db, email)

	hash, err := HashPassword("testpass123")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	u, err := NewUserStore(db).CreateUser(context.Background(), &models.User{
		Email:        email,
		PasswordHash: hash,
		DisplayName:  "Store Test",
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	t.Cleanup(func() { cleanUsers(t, db, email) })
	return u
}

// cleanUsers removes test users and all of their data by email.
func cleanUsers(t *testing.T, db *sql.DB, emails ...string) {
	t.Helper()
	for _, email := range emails {
		db.Exec(`DELETE FROM notes WHERE category_id IN (
			SELECT c.id FROM categories c JOIN users u ON u.id = c.user_id WHERE u.email = $1)`, email)
		db.Exec(`DELETE FROM metrics WHERE category_id IN (
			SELECT c.id FROM categories c JOIN users u ON u.id = c.user_id WHERE u.email = $1)`, email)
		// Children reference parents, so clear the links before deleting.
		db.Exec(`UPDATE categories SET parent_id = NULL WHERE user_id IN (
			SELECT id FROM users WHERE email = $1)`, email)
		db.Exec("DELETE FROM users WHERE email = $1", email)
	}
}
