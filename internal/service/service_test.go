package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"sitereports/internal/session"
	"sitereports/internal/store"
	"sitereports/internal/testutil"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	st := store.New(testutil.OpenTestDB(t))
	return New(st, session.NewManager(session.NewMemoryStore(), 30*time.Minute, 24*time.Hour))
}

func TestRegisterValidationAndDuplicate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	var vErr *ValidationError
	if _, err := svc.Register(ctx, "", "a@example.com", "pw"); !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError for missing name, got %v", err)
	}
	if _, err := svc.Register(ctx, "Alice", "a@example.com", "pw-1"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Register(ctx, "Alice 2", "A@example.com", "pw-2"); !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestLoginOutcomes(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	if _, err := svc.Register(ctx, "Alice", "alice@example.com", "correct-horse"); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, _, err := svc.Login(ctx, "nobody@example.com", "x"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if _, _, err := svc.Login(ctx, "alice@example.com", "wrong"); !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("expected ErrWrongPassword, got %v", err)
	}
	raw, sess, err := svc.Login(ctx, "alice@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if sess.Role != session.RoleUser || sess.Identity.Name != "Alice" {
		t.Fatalf("unexpected session %+v", sess)
	}
	if got, err := svc.ValidateSession(ctx, raw); err != nil || got.ID != sess.ID {
		t.Fatalf("validate session: %v %+v", err, got)
	}
}

func TestAdminLoginAndBootstrap(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.BootstrapAdmin(ctx, "root", "operator-secret")
	if err != nil || !created {
		t.Fatalf("bootstrap: created=%v err=%v", created, err)
	}
	created, err = svc.BootstrapAdmin(ctx, "root", "another-secret")
	if err != nil || created {
		t.Fatalf("second bootstrap must be a no-op: created=%v err=%v", created, err)
	}

	if _, _, err := svc.AdminLogin(ctx, "root", "another-secret"); !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("expected original password to be kept, got %v", err)
	}
	_, sess, err := svc.AdminLogin(ctx, "root", "operator-secret")
	if err != nil {
		t.Fatalf("admin login: %v", err)
	}
	if sess.Role != session.RoleAdmin || sess.Identity.Name != "root" {
		t.Fatalf("unexpected admin session %+v", sess)
	}
}

func TestReportOperationsEnforceRoles(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	u, err := svc.Register(ctx, "Alice", "alice@example.com", "pw")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	userSess := session.Session{Role: session.RoleUser, Identity: session.Identity{ID: u.ID, Name: u.Name}}
	adminSess := session.Session{Role: session.RoleAdmin, Identity: session.Identity{ID: "a1", Name: "root"}}

	var vErr *ValidationError
	if _, err := svc.CreateReport(ctx, userSess, "", "note"); !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError for missing site, got %v", err)
	}
	if _, err := svc.CreateReport(ctx, adminSess, "http://example.com", ""); !errors.Is(err, ErrForbidden) {
		t.Fatalf("admin must not create reports, got %v", err)
	}
	r, err := svc.CreateReport(ctx, userSess, "http://example.com", "")
	if err != nil {
		t.Fatalf("create report: %v", err)
	}

	if _, err := svc.AllReports(ctx, userSess); !errors.Is(err, ErrForbidden) {
		t.Fatalf("user must not list all reports, got %v", err)
	}
	if err := svc.UpdateReportStatus(ctx, userSess, r.ID, "Resolved"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("user must not update status, got %v", err)
	}
	if err := svc.DeleteReport(ctx, userSess, r.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("user must not delete, got %v", err)
	}
	if _, err := svc.MyReports(ctx, adminSess); !errors.Is(err, ErrForbidden) {
		t.Fatalf("admin has no own reports, got %v", err)
	}

	if err := svc.UpdateReportStatus(ctx, adminSess, r.ID, "Resolved"); err != nil {
		t.Fatalf("update status: %v", err)
	}
	all, err := svc.AllReports(ctx, adminSess)
	if err != nil || len(all) != 1 || all[0].Status != "Resolved" {
		t.Fatalf("expected one Resolved report, got %+v err=%v", all, err)
	}
	if err := svc.DeleteReport(ctx, adminSess, r.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	mine, err := svc.MyReports(ctx, userSess)
	if err != nil || len(mine) != 0 {
		t.Fatalf("expected no reports after delete, got %+v err=%v", mine, err)
	}
}
