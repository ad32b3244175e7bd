package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"sitereports/internal/auth"
	"sitereports/internal/models"
	"sitereports/internal/session"
	"sitereports/internal/store"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrWrongPassword = errors.New("wrong password")
	ErrForbidden     = errors.New("forbidden")
)

// ValidationError reports a missing or malformed request field.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

type Service struct {
	st       *store.Store
	sessions *session.Manager
}

func New(st *store.Store, sessions *session.Manager) *Service {
	return &Service{st: st, sessions: sessions}
}

func (s *Service) Sessions() *session.Manager { return s.sessions }

func (s *Service) Register(ctx context.Context, name, email, password string) (models.User, error) {
	name = strings.TrimSpace(name)
	email = store.NormalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return models.User{}, validationf("name, email and password are required")
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return models.User{}, err
	}
	return s.st.CreateUser(ctx, name, email, hash)
}

// Login checks user credentials and opens a user session. Unknown email and
// wrong password are reported as distinct errors.
func (s *Service) Login(ctx context.Context, email, password string) (string, session.Session, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return "", session.Session{}, validationf("email and password are required")
	}
	u, err := s.st.GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return "", session.Session{}, ErrUserNotFound
	}
	if err != nil {
		return "", session.Session{}, err
	}
	if !auth.VerifyPassword(u.PasswordHash, password) {
		return "", session.Session{}, ErrWrongPassword
	}
	return s.sessions.Create(ctx, session.RoleUser, session.Identity{ID: u.ID, Name: u.Name, Email: u.Email})
}

func (s *Service) AdminLogin(ctx context.Context, username, password string) (string, session.Session, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return "", session.Session{}, validationf("username and password are required")
	}
	a, err := s.st.GetAdminByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return "", session.Session{}, ErrUserNotFound
	}
	if err != nil {
		return "", session.Session{}, err
	}
	if !auth.VerifyPassword(a.PasswordHash, password) {
		return "", session.Session{}, ErrWrongPassword
	}
	return s.sessions.Create(ctx, session.RoleAdmin, session.Identity{ID: a.ID, Name: a.Username})
}

func (s *Service) Logout(ctx context.Context, rawToken string) error {
	return s.sessions.Destroy(ctx, rawToken)
}

func (s *Service) ValidateSession(ctx context.Context, rawToken string) (session.Session, error) {
	return s.sessions.Lookup(ctx, rawToken)
}

// BootstrapAdmin creates the operator-supplied admin account when it is
// missing.
func (s *Service) BootstrapAdmin(ctx context.Context, username, password string) (bool, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return false, nil
	}
	if _, err := s.st.GetAdminByUsername(ctx, username); err == nil {
		return false, nil
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return false, err
	}
	return s.st.EnsureAdmin(ctx, username, hash)
}

func (s *Service) CreateReport(ctx context.Context, sess session.Session, site, note string) (models.Report, error) {
	if sess.Role != session.RoleUser {
		return models.Report{}, ErrForbidden
	}
	if strings.TrimSpace(site) == "" {
		return models.Report{}, validationf("site is required")
	}
	return s.st.CreateReport(ctx, sess.Identity.ID, site, note)
}

func (s *Service) MyReports(ctx context.Context, sess session.Session) ([]models.Report, error) {
	if sess.Role != session.RoleUser {
		return nil, ErrForbidden
	}
	return s.st.ListReportsByUser(ctx, sess.Identity.ID)
}

func (s *Service) AllReports(ctx context.Context, sess session.Session) ([]models.ReportWithReporter, error) {
	if sess.Role != session.RoleAdmin {
		return nil, ErrForbidden
	}
	return s.st.ListAllReports(ctx)
}

func (s *Service) UpdateReportStatus(ctx context.Context, sess session.Session, id, status string) error {
	if sess.Role != session.RoleAdmin {
		return ErrForbidden
	}
	return s.st.UpdateReportStatus(ctx, id, status)
}

func (s *Service) DeleteReport(ctx context.Context, sess session.Session, id string) error {
	if sess.Role != session.RoleAdmin {
		return ErrForbidden
	}
	return s.st.DeleteReport(ctx, id)
}

func (s *Service) Ping(ctx context.Context) error {
	return s.st.Ping(ctx)
}
