package main

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"sitereports/internal/api"
	"sitereports/internal/config"
	"sitereports/internal/db"
	"sitereports/internal/service"
	"sitereports/internal/session"
	"sitereports/internal/store"
	"sitereports/internal/version"
)

func main() {
	// Real environment variables win over .env entries.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("warning: load .env: %v", err)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	sqdb, err := db.Open(cfg)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer sqdb.Close()
	if err := db.Migrate(sqdb); err != nil {
		log.Fatalf("migration: %v", err)
	}

	sessStore, stopSweep, err := openSessionStore(cfg, sqdb)
	if err != nil {
		log.Fatalf("session store: %v", err)
	}
	defer stopSweep()

	st := store.New(sqdb)
	svc := service.New(st, session.NewManager(sessStore, cfg.SessionIdleDuration(), cfg.SessionAbsoluteDuration()))

	bootstrapAdmin(cfg, svc, st)

	hsrv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           api.NewRouter(cfg, svc),
		ReadTimeout:       time.Duration(cfg.HTTPReadTimeoutSec) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.HTTPReadHeaderTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTPWriteTimeoutSec) * time.Second,
		IdleTimeout:       time.Duration(cfg.HTTPIdleTimeoutSec) * time.Second,
	}

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := hsrv.Shutdown(ctx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	v := version.Current()
	log.Printf("listening on %s version=%s commit=%s db_driver=%s session_store=%s", cfg.ListenAddr, v.Version, v.Commit, cfg.DBDriver, cfg.SessionStore)
	if err := hsrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server: %v", err)
	}
}

func openSessionStore(cfg config.Config, sqdb *db.DB) (session.Store, func(), error) {
	switch cfg.SessionStore {
	case "sql":
		ss := session.NewSQLStore(sqdb)
		stop := make(chan struct{})
		go func() {
			t := time.NewTicker(10 * time.Minute)
			defer t.Stop()
			for {
				select {
				case <-t.C:
					if n, err := ss.CleanupExpired(context.Background(), time.Now().UTC()); err != nil {
						log.Printf("session cleanup: %v", err)
					} else if n > 0 {
						log.Printf("session cleanup removed=%d", n)
					}
				case <-stop:
					return
				}
			}
		}()
		return ss, func() { close(stop) }, nil
	case "redis":
		client := session.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		rs := session.NewRedisStore(client)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rs.Ping(ctx); err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		return rs, func() { _ = client.Close() }, nil
	default:
		return session.NewMemoryStore(), func() {}, nil
	}
}

func bootstrapAdmin(cfg config.Config, svc *service.Service, st *store.Store) {
	ctx := context.Background()
	if cfg.BootstrapAdminUsername != "" {
		created, err := svc.BootstrapAdmin(ctx, cfg.BootstrapAdminUsername, cfg.BootstrapAdminPassword)
		if err != nil {
			log.Fatalf("bootstrap admin create: %v", err)
		}
		if created {
			log.Printf("bootstrap admin created username=%s", cfg.BootstrapAdminUsername)
		}
		return
	}
	n, err := st.CountAdmins(ctx)
	if err != nil {
		log.Fatalf("count admins: %v", err)
	}
	if n == 0 {
		log.Printf("warning: no admin account exists; set BOOTSTRAP_ADMIN_USERNAME and BOOTSTRAP_ADMIN_PASSWORD to create one")
	}
}
