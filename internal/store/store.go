package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"sitereports/internal/db"
	"sitereports/internal/models"
)

type Store struct {
	db *db.DB
}

func New(d *db.DB) *Store { return &Store{db: d} }

func (s *Store) exec(ctx context.Context, q string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.db.Rebind(q), args...)
}

func (s *Store) queryRow(ctx context.Context, q string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, s.db.Rebind(q), args...)
}

func (s *Store) query(ctx context.Context, q string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, s.db.Rebind(q), args...)
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Store) CreateUser(ctx context.Context, name, email, passwordHash string) (models.User, error) {
	u := models.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(name),
		Email:        NormalizeEmail(email),
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	_, err := s.exec(ctx,
		`INSERT INTO users(id,name,email,password_hash,created_at) VALUES(?,?,?,?,?)`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.CreatedAt,
	)
	if isUniqueViolation(err) {
		return models.User{}, fmt.Errorf("email %s: %w", u.Email, ErrDuplicate)
	}
	if err != nil {
		return models.User{}, err
	}
	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	err := s.queryRow(ctx,
		`SELECT id,name,email,password_hash,created_at FROM users WHERE email=?`,
		NormalizeEmail(email),
	).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	return u, nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (models.User, error) {
	var u models.User
	err := s.queryRow(ctx,
		`SELECT id,name,email,password_hash,created_at FROM users WHERE id=?`,
		id,
	).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	return u, nil
}

func (s *Store) CreateAdmin(ctx context.Context, username, passwordHash string) (models.Admin, error) {
	a := models.Admin{
		ID:           uuid.NewString(),
		Username:     strings.TrimSpace(username),
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	_, err := s.exec(ctx,
		`INSERT INTO admins(id,username,password_hash,created_at) VALUES(?,?,?,?)`,
		a.ID, a.Username, a.PasswordHash, a.CreatedAt,
	)
	if isUniqueViolation(err) {
		return models.Admin{}, fmt.Errorf("admin %s: %w", a.Username, ErrDuplicate)
	}
	if err != nil {
		return models.Admin{}, err
	}
	return a, nil
}

// EnsureAdmin creates the admin when the username is unknown. An existing
// admin is left untouched.
func (s *Store) EnsureAdmin(ctx context.Context, username, passwordHash string) (bool, error) {
	username = strings.TrimSpace(username)
	if username == "" || passwordHash == "" {
		return false, nil
	}
	_, err := s.GetAdminByUsername(ctx, username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return false, err
	}
	if _, err := s.CreateAdmin(ctx, username, passwordHash); err != nil {
		// Lost a race with another instance bootstrapping the same admin.
		if errors.Is(err, ErrDuplicate) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *Store) GetAdminByUsername(ctx context.Context, username string) (models.Admin, error) {
	var a models.Admin
	err := s.queryRow(ctx,
		`SELECT id,username,password_hash,created_at FROM admins WHERE username=?`,
		strings.TrimSpace(username),
	).Scan(&a.ID, &a.Username, &a.PasswordHash, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Admin{}, ErrNotFound
	}
	if err != nil {
		return models.Admin{}, err
	}
	return a, nil
}

func (s *Store) CountAdmins(ctx context.Context) (int, error) {
	var count int
	if err := s.queryRow(ctx, `SELECT COUNT(1) FROM admins`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
