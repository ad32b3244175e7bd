package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"sitereports/internal/testutil"
)

func TestCreateReportDefaultsAndListByUser(t *testing.T) {
	st := New(testutil.OpenTestDB(t))
	ctx := context.Background()
	u, err := st.CreateUser(ctx, "Alice", "alice@example.com", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	r, err := st.CreateReport(ctx, u.ID, "http://example.com", "")
	if err != nil {
		t.Fatalf("create report: %v", err)
	}
	if r.ID == "" || r.Status != "Pending" || r.Note != nil {
		t.Fatalf("unexpected report: %+v", r)
	}

	items, err := st.ListReportsByUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("list by user: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected exactly one report, got %d", len(items))
	}
	if items[0].ID != r.ID || items[0].Status != "Pending" || items[0].Site != "http://example.com" {
		t.Fatalf("unexpected listed report: %+v", items[0])
	}
	if items[0].UserID == nil || *items[0].UserID != u.ID {
		t.Fatalf("expected owner %s, got %v", u.ID, items[0].UserID)
	}
}

func TestCreateReportRequiresSite(t *testing.T) {
	st := New(testutil.OpenTestDB(t))
	if _, err := st.CreateReport(context.Background(), "u1", "  ", "note"); !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected ErrMissingField, got %v", err)
	}
}

func TestListReportsNewestFirstAndScopedToOwner(t *testing.T) {
	st := New(testutil.OpenTestDB(t))
	ctx := context.Background()
	alice, _ := st.CreateUser(ctx, "Alice", "alice@example.com", "hash")
	bob, _ := st.CreateUser(ctx, "Bob", "bob@example.com", "hash")

	first, err := st.CreateReport(ctx, alice.ID, "http://one.example", "first")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, err := st.CreateReport(ctx, bob.ID, "http://bob.example", ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	second, err := st.CreateReport(ctx, alice.ID, "http://two.example", "second")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	items, err := st.ListReportsByUser(ctx, alice.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 || items[0].ID != second.ID || items[1].ID != first.ID {
		t.Fatalf("expected alice's reports newest first, got %+v", items)
	}
	if items[1].Note == nil || *items[1].Note != "first" {
		t.Fatalf("expected note to round-trip, got %v", items[1].Note)
	}

	all, err := st.ListAllReports(ctx)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 || all[0].ID != second.ID || all[2].ID != first.ID {
		t.Fatalf("expected all reports newest first, got %+v", all)
	}
	if all[1].Reporter == nil || *all[1].Reporter != "Bob" {
		t.Fatalf("expected reporter Bob, got %v", all[1].Reporter)
	}
}

func TestListAllReportsKeepsOrphans(t *testing.T) {
	d := testutil.OpenTestDB(t)
	st := New(d)
	ctx := context.Background()
	u, _ := st.CreateUser(ctx, "Gone", "gone@example.com", "hash")
	r, err := st.CreateReport(ctx, u.ID, "http://orphan.example", "")
	if err != nil {
		t.Fatalf("create report: %v", err)
	}
	if _, err := d.Exec(`DELETE FROM users WHERE id=?`, u.ID); err != nil {
		t.Fatalf("delete user: %v", err)
	}

	all, err := st.ListAllReports(ctx)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 1 || all[0].ID != r.ID {
		t.Fatalf("expected orphaned report to remain listed, got %+v", all)
	}
	if all[0].Reporter != nil || all[0].UserID != nil {
		t.Fatalf("expected null reporter and owner, got reporter=%v owner=%v", all[0].Reporter, all[0].UserID)
	}
}

func TestUpdateReportStatus(t *testing.T) {
	st := New(testutil.OpenTestDB(t))
	ctx := context.Background()
	u, _ := st.CreateUser(ctx, "Alice", "alice@example.com", "hash")
	r, _ := st.CreateReport(ctx, u.ID, "http://example.com", "")

	if err := st.UpdateReportStatus(ctx, r.ID, "Resolved"); err != nil {
		t.Fatalf("update status: %v", err)
	}
	if got := statusOf(t, st, r.ID); got != "Resolved" {
		t.Fatalf("expected Resolved, got %q", got)
	}

	if err := st.UpdateReportStatus(ctx, r.ID, ""); err != nil {
		t.Fatalf("reset status: %v", err)
	}
	if got := statusOf(t, st, r.ID); got != "Pending" {
		t.Fatalf("expected Pending after reset, got %q", got)
	}

	if err := st.UpdateReportStatus(ctx, "missing", "Resolved"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteReportIdempotent(t *testing.T) {
	st := New(testutil.OpenTestDB(t))
	ctx := context.Background()
	u, _ := st.CreateUser(ctx, "Alice", "alice@example.com", "hash")
	r, _ := st.CreateReport(ctx, u.ID, "http://example.com", "")

	for i := 0; i < 2; i++ {
		if err := st.DeleteReport(ctx, r.ID); err != nil {
			t.Fatalf("delete %d: %v", i+1, err)
		}
	}
	items, err := st.ListReportsByUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected no reports after delete, got %d", len(items))
	}
}

func statusOf(t *testing.T, st *Store, id string) string {
	t.Helper()
	all, err := st.ListAllReports(context.Background())
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	for _, r := range all {
		if r.ID == id {
			return r.Status
		}
	}
	t.Fatalf("report %s not found", id)
	return ""
}
