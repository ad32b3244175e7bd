package middleware

import (
	"context"
	"net/http"

	"sitereports/internal/session"
	"sitereports/internal/util"
)

// SessionResolver maps a raw cookie token to its live session.
// *session.Manager satisfies it.
type SessionResolver interface {
	Lookup(ctx context.Context, rawToken string) (session.Session, error)
}

type ResolverFunc func(ctx context.Context, rawToken string) (session.Session, error)

func (f ResolverFunc) Lookup(ctx context.Context, rawToken string) (session.Session, error) {
	return f(ctx, rawToken)
}

// DenyMode selects how the gate answers a caller without the required role.
type DenyMode int

const (
	// DenyJSON answers 401 with a JSON error body, for API routes.
	DenyJSON DenyMode = iota
	// DenyRedirect sends the browser to the role's login page.
	DenyRedirect
)

func LoginPage(role session.Role) string {
	switch role {
	case session.RoleUser:
		return "/login.html"
	case session.RoleAdmin:
		return "/admin/login.html"
	default:
		return "/"
	}
}

// RequireRole lets a request through only when its session cookie resolves
// to a session holding exactly the given role.
func RequireRole(resolver SessionResolver, cookieName string, role session.Role, mode DenyMode) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var sess session.Session
			var err error
			if c, cerr := r.Cookie(cookieName); cerr == nil && c.Value != "" {
				sess, err = resolver.Lookup(r.Context(), c.Value)
			} else {
				err = session.ErrNotFound
			}
			if err != nil || !roleAllows(role, sess.Role) {
				deny(w, r, role, mode)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		})
	}
}

func roleAllows(required, have session.Role) bool {
	switch required {
	case session.RoleUser:
		return have == session.RoleUser
	case session.RoleAdmin:
		return have == session.RoleAdmin
	default:
		return false
	}
}

func deny(w http.ResponseWriter, r *http.Request, role session.Role, mode DenyMode) {
	switch mode {
	case DenyRedirect:
		http.Redirect(w, r, LoginPage(role), http.StatusSeeOther)
	default:
		util.WriteError(w, http.StatusUnauthorized, role.String()+" session required", RequestID(r.Context()))
	}
}
