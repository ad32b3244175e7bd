package api

import (
	"net/http"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"sitereports/internal/config"
	"sitereports/internal/middleware"
	"sitereports/internal/service"
	"sitereports/internal/session"
	"sitereports/internal/util"
	"sitereports/internal/version"
)

type Handlers struct {
	cfg config.Config
	svc *service.Service
}

func NewRouter(cfg config.Config, svc *service.Service) http.Handler {
	h := &Handlers{cfg: cfg, svc: svc}
	sessions := svc.Sessions()

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(chimw.CleanPath)
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.RequestLogger(cfg.TrustProxy))
	r.Use(middleware.SecurityHeaders)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSAllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Content-Type"},
			AllowCredentials: true,
		}))
	}

	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		util.WriteJSON(w, 200, map[string]any{"status": "ok", "version": version.Current()})
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		ready := map[string]any{"checked_at": time.Now().UTC().Format(time.RFC3339)}
		if err := h.svc.Ping(r.Context()); err != nil {
			ready["status"] = "degraded"
			ready["database"] = map[string]any{"ok": false, "error": err.Error()}
			util.WriteJSON(w, 503, ready)
			return
		}
		ready["status"] = "ready"
		ready["database"] = map[string]any{"ok": true}
		util.WriteJSON(w, 200, ready)
	})

	userAPI := middleware.RequireRole(sessions, cfg.SessionCookieName, session.RoleUser, middleware.DenyJSON)
	adminAPI := middleware.RequireRole(sessions, cfg.SessionCookieName, session.RoleAdmin, middleware.DenyJSON)

	r.Route("/api", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.Get("/me", h.Me)

		r.Group(func(r chi.Router) {
			r.Use(userAPI)
			r.Post("/report", h.CreateReport)
			r.Get("/my-reports", h.MyReports)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", h.AdminLogin)
			r.Post("/logout", h.Logout)
			r.Group(func(r chi.Router) {
				r.Use(adminAPI)
				r.Get("/reports", h.AdminListReports)
				r.Post("/reports/{id}/status", h.AdminUpdateReportStatus)
				r.Delete("/reports/{id}", h.AdminDeleteReport)
			})
		})
	})

	userPage := middleware.RequireRole(sessions, cfg.SessionCookieName, session.RoleUser, middleware.DenyRedirect)
	adminPage := middleware.RequireRole(sessions, cfg.SessionCookieName, session.RoleAdmin, middleware.DenyRedirect)
	gatedPages := map[string]string{
		"/dashboard.html":       "dashboard.html",
		"/admin/dashboard.html": filepath.Join("admin", "dashboard.html"),
	}
	r.With(userPage).Get("/dashboard.html", h.servePage(gatedPages["/dashboard.html"]))
	r.With(adminPage).Get("/admin/dashboard.html", h.servePage(gatedPages["/admin/dashboard.html"]))

	fs := http.FileServer(http.Dir(cfg.WebDir))
	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		p := path.Clean("/" + r.URL.Path)
		if strings.HasPrefix(p, "/api/") || strings.HasPrefix(p, "/health/") {
			http.NotFound(w, r)
			return
		}
		// Gated pages are only reachable through their gated routes.
		if _, ok := gatedPages[p]; ok {
			http.Redirect(w, r, p, http.StatusSeeOther)
			return
		}
		if p == "/" {
			http.ServeFile(w, r, filepath.Join(cfg.WebDir, "index.html"))
			return
		}
		fs.ServeHTTP(w, r)
	})

	return r
}

func (h *Handlers) servePage(rel string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		http.ServeFile(w, r, filepath.Join(h.cfg.WebDir, rel))
	}
}

func (h *Handlers) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(h.cfg.SessionAbsoluteDuration().Seconds()),
	})
}

func (h *Handlers) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
		Expires:  time.Unix(1, 0).UTC(),
	})
}
