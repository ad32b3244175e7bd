package session

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrNotFound = errors.New("session not found")

type Role int

const (
	RoleUser Role = iota + 1
	RoleAdmin
)

func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleAdmin:
		return "admin"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

func ParseRole(s string) (Role, error) {
	switch s {
	case "user":
		return RoleUser, nil
	case "admin":
		return RoleAdmin, nil
	default:
		return 0, fmt.Errorf("unknown role %q", s)
	}
}

func (r Role) MarshalText() ([]byte, error) {
	switch r {
	case RoleUser, RoleAdmin:
		return []byte(r.String()), nil
	default:
		return nil, fmt.Errorf("unknown role %d", int(r))
	}
}

func (r *Role) UnmarshalText(b []byte) error {
	v, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// Identity is the authenticated principal bound to a session. Name is the
// user's display name or the admin's username.
type Identity struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

type Session struct {
	ID            string    `json:"id"`
	Role          Role      `json:"role"`
	Identity      Identity  `json:"identity"`
	CreatedAt     time.Time `json:"created_at"`
	ExpiresAt     time.Time `json:"expires_at"`
	IdleExpiresAt time.Time `json:"idle_expires_at"`
}

func (s Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt) || now.After(s.IdleExpiresAt)
}

// Store persists sessions under the digest of their cookie token.
// Get reports ErrNotFound for unknown or expired keys; Destroy of an
// unknown key is not an error. Touch moves the idle deadline of an existing
// entry only and reports ErrNotFound when the key is gone, so it never
// brings back a destroyed session.
type Store interface {
	Get(ctx context.Context, key string) (Session, error)
	Set(ctx context.Context, key string, s Session) error
	Touch(ctx context.Context, key string, idleExpiresAt time.Time) error
	Destroy(ctx context.Context, key string) error
}
