package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"sitereports/internal/auth"
)

type Manager struct {
	store    Store
	idle     time.Duration
	absolute time.Duration
	now      func() time.Time
}

func NewManager(store Store, idle, absolute time.Duration) *Manager {
	return &Manager{store: store, idle: idle, absolute: absolute, now: func() time.Time { return time.Now().UTC() }}
}

// Create binds role and identity to a fresh session and returns the raw
// token for the cookie.
func (m *Manager) Create(ctx context.Context, role Role, id Identity) (string, Session, error) {
	raw, key, err := auth.NewOpaqueToken()
	if err != nil {
		return "", Session{}, err
	}
	now := m.now()
	sess := Session{
		ID:            uuid.NewString(),
		Role:          role,
		Identity:      id,
		CreatedAt:     now,
		ExpiresAt:     now.Add(m.absolute),
		IdleExpiresAt: now.Add(m.idle),
	}
	if sess.IdleExpiresAt.After(sess.ExpiresAt) {
		sess.IdleExpiresAt = sess.ExpiresAt
	}
	if err := m.store.Set(ctx, key, sess); err != nil {
		return "", Session{}, err
	}
	return raw, sess, nil
}

// Lookup resolves a raw token and slides the idle deadline.
func (m *Manager) Lookup(ctx context.Context, raw string) (Session, error) {
	if raw == "" {
		return Session{}, ErrNotFound
	}
	key := auth.HashToken(raw)
	sess, err := m.store.Get(ctx, key)
	if err != nil {
		return Session{}, err
	}
	now := m.now()
	if sess.Expired(now) {
		_ = m.store.Destroy(ctx, key)
		return Session{}, ErrNotFound
	}
	idle := now.Add(m.idle)
	if idle.After(sess.ExpiresAt) {
		idle = sess.ExpiresAt
	}
	if err := m.store.Touch(ctx, key, idle); err != nil {
		return Session{}, err
	}
	sess.IdleExpiresAt = idle
	return sess, nil
}

func (m *Manager) Destroy(ctx context.Context, raw string) error {
	if raw == "" {
		return nil
	}
	err := m.store.Destroy(ctx, auth.HashToken(raw))
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}
