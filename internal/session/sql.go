package session

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"sitereports/internal/db"
)

// SQLStore keeps sessions in the application database so they survive
// restarts and are shared between instances.
type SQLStore struct {
	db *db.DB
}

func NewSQLStore(d *db.DB) *SQLStore { return &SQLStore{db: d} }

func (s *SQLStore) Get(ctx context.Context, key string) (Session, error) {
	var sess Session
	var role string
	err := s.db.QueryRowContext(ctx, s.db.Rebind(
		`SELECT id,role,subject_id,display_name,email,created_at,expires_at,idle_expires_at FROM sessions WHERE token_hash=?`),
		key,
	).Scan(&sess.ID, &role, &sess.Identity.ID, &sess.Identity.Name, &sess.Identity.Email, &sess.CreatedAt, &sess.ExpiresAt, &sess.IdleExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, err
	}
	if sess.Role, err = ParseRole(role); err != nil {
		return Session{}, err
	}
	if sess.Expired(time.Now().UTC()) {
		return Session{}, ErrNotFound
	}
	return sess, nil
}

// Set replaces any row under key. Delete-then-insert keeps the statement
// portable across sqlite, postgres and mysql.
func (s *SQLStore) Set(ctx context.Context, key string, sess Session) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, s.db.Rebind(`DELETE FROM sessions WHERE token_hash=?`), key); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, s.db.Rebind(
		`INSERT INTO sessions(token_hash,id,role,subject_id,display_name,email,created_at,expires_at,idle_expires_at) VALUES(?,?,?,?,?,?,?,?,?)`),
		key, sess.ID, sess.Role.String(), sess.Identity.ID, sess.Identity.Name, sess.Identity.Email, sess.CreatedAt, sess.ExpiresAt, sess.IdleExpiresAt,
	); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLStore) Touch(ctx context.Context, key string, idleExpiresAt time.Time) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`UPDATE sessions SET idle_expires_at=? WHERE token_hash=?`), idleExpiresAt, key)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) Destroy(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM sessions WHERE token_hash=?`), key)
	return err
}

// CleanupExpired removes sessions past either deadline.
func (s *SQLStore) CleanupExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM sessions WHERE expires_at < ? OR idle_expires_at < ?`), now, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
