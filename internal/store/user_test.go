// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"notemap/internal/models"
)

func TestUserStoreCreate(t *testing.T) {
	db := testDB(t)
	email := "test-create@store-test.local"

	user := testUser(t, db, email)

	if user.ID == uuid.Nil {
		t.Error("expected non-nil UUID")
	}
	if user.Email != email {
		t.Errorf("email: got %q, want %q", user.Email, email)
	}
	if user.DisplayName != "Store Test" {
		t.Errorf("display name: got %q, want %q", user.DisplayName, "Store Test")
	}
	if user.PasswordHash == "" {
		t.Error("expected non-empty password hash")
	}
	if user.PasswordHash == "testpass123" {
		t.Error("password hash must not be plaintext")
	}
}

func TestUserStoreFindByEmail(t *testing.T) {
	db := testDB(t)
	s := NewUserStore(db)
	ctx := context.Background()

	email := "test-findbyemail@store-test.local"
	cleanUsers(t, db, email)

	// Not found case.
	user, err := s.FindUserByEmail(ctx, email)
	if err != nil {
		t.Fatalf("FindUserByEmail (not found): %v", err)
	}
	if user != nil {
		t.Fatal("expected nil for non-existent email")
	}

	created := testUser(t, db, email)

	// Lookup ignores case.
	found, err := s.FindUserByEmail(ctx, "Test-FindByEmail@store-test.local")
	if err != nil {
		t.Fatalf("FindUserByEmail: %v", err)
	}
	if found == nil || found.ID != created.ID {
		t.Fatalf("FindUserByEmail: got %v, want id %s", found, created.ID)
	}

	byID, err := s.FindUserByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("FindUserByID: %v", err)
	}
	if byID == nil || byID.Email != email {
		t.Errorf("FindUserByID: got %v", byID)
	}
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	user := &models.User{PasswordHash: hash}
	if !CheckPassword(user, "correct horse") {
		t.Error("expected password to match")
	}
	if CheckPassword(user, "wrong") {
		t.Error("expected wrong password to fail")
	}
}
