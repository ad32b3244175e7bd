package store

import (
	"context"
	"errors"
	"testing"

	"sitereports/internal/testutil"
)

func TestCreateUserDuplicateEmail(t *testing.T) {
	st := New(testutil.OpenTestDB(t))
	ctx := context.Background()

	u, err := st.CreateUser(ctx, "Alice", "Alice@Example.com ", "hash-1")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if u.ID == "" || u.Email != "alice@example.com" {
		t.Fatalf("unexpected user: %+v", u)
	}

	_, err = st.CreateUser(ctx, "Alice Again", "alice@example.com", "hash-2")
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	got, err := st.GetUserByEmail(ctx, "ALICE@example.com")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got.ID != u.ID || got.Name != "Alice" || got.PasswordHash != "hash-1" {
		t.Fatalf("first registration should be intact, got %+v", got)
	}
}

func TestGetUserNotFound(t *testing.T) {
	st := New(testutil.OpenTestDB(t))
	if _, err := st.GetUserByEmail(context.Background(), "nobody@example.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound by email, got %v", err)
	}
	if _, err := st.GetUserByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound by id, got %v", err)
	}
}

func TestEnsureAdminCreatesOnceAndNeverMutates(t *testing.T) {
	st := New(testutil.OpenTestDB(t))
	ctx := context.Background()

	created, err := st.EnsureAdmin(ctx, "root", "hash-1")
	if err != nil || !created {
		t.Fatalf("expected admin to be created, created=%v err=%v", created, err)
	}
	created, err = st.EnsureAdmin(ctx, "root", "hash-2")
	if err != nil || created {
		t.Fatalf("expected existing admin to be kept, created=%v err=%v", created, err)
	}

	a, err := st.GetAdminByUsername(ctx, "root")
	if err != nil {
		t.Fatalf("get admin: %v", err)
	}
	if a.PasswordHash != "hash-1" {
		t.Fatalf("existing admin password must not change, got %q", a.PasswordHash)
	}
	n, err := st.CountAdmins(ctx)
	if err != nil || n != 1 {
		t.Fatalf("expected one admin, n=%d err=%v", n, err)
	}

	if _, err := st.CreateAdmin(ctx, "root", "hash-3"); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for duplicate username, got %v", err)
	}
	if _, err := st.GetAdminByUsername(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
