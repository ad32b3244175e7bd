package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ListenAddr string
	WebDir     string

	DBDriver          string
	DBPath            string
	DBDSN             string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration

	SessionStore        string
	SessionCookieName   string
	SessionIdleMinutes  int
	SessionAbsoluteHour int
	CookieSecure        bool
	TrustProxy          bool
	CORSAllowedOrigins  []string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	HTTPReadTimeoutSec       int
	HTTPReadHeaderTimeoutSec int
	HTTPWriteTimeoutSec      int
	HTTPIdleTimeoutSec       int

	BootstrapAdminUsername string
	BootstrapAdminPassword string

	// LoginGenericErrors collapses "User not found" and "Wrong password"
	// into a single login failure message.
	LoginGenericErrors bool
}

func Load() (Config, error) {
	cfg := Config{
		ListenAddr:               env("LISTEN_ADDR", ":8080"),
		WebDir:                   env("WEB_DIR", "web"),
		DBDriver:                 strings.ToLower(env("DB_DRIVER", "sqlite")),
		DBPath:                   env("APP_DB_PATH", "./data/app.db"),
		DBDSN:                    env("DB_DSN", ""),
		DBMaxOpenConns:           envInt("APP_DB_MAX_OPEN_CONNS", 4),
		DBMaxIdleConns:           envInt("APP_DB_MAX_IDLE_CONNS", 2),
		DBConnMaxLifetime:        time.Duration(envInt("APP_DB_CONN_MAX_LIFETIME_MIN", 30)) * time.Minute,
		SessionStore:             strings.ToLower(env("SESSION_STORE", "memory")),
		SessionCookieName:        env("SESSION_COOKIE_NAME", "sitereports_session"),
		SessionIdleMinutes:       envInt("SESSION_IDLE_MINUTES", 30),
		SessionAbsoluteHour:      envInt("SESSION_ABSOLUTE_HOURS", 24),
		CookieSecure:             envBool("COOKIE_SECURE", false),
		TrustProxy:               envBool("TRUST_PROXY", false),
		CORSAllowedOrigins:       envCSV("CORS_ALLOWED_ORIGINS"),
		RedisAddr:                env("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword:            env("REDIS_PASSWORD", ""),
		RedisDB:                  envInt("REDIS_DB", 0),
		HTTPReadTimeoutSec:       envInt("HTTP_READ_TIMEOUT_SEC", 10),
		HTTPReadHeaderTimeoutSec: envInt("HTTP_READ_HEADER_TIMEOUT_SEC", 5),
		HTTPWriteTimeoutSec:      envInt("HTTP_WRITE_TIMEOUT_SEC", 30),
		HTTPIdleTimeoutSec:       envInt("HTTP_IDLE_TIMEOUT_SEC", 60),
		BootstrapAdminUsername:   strings.TrimSpace(env("BOOTSTRAP_ADMIN_USERNAME", "")),
		BootstrapAdminPassword:   env("BOOTSTRAP_ADMIN_PASSWORD", ""),
		LoginGenericErrors:       envBool("LOGIN_GENERIC_ERRORS", false),
	}

	if cfg.SessionIdleMinutes <= 0 || cfg.SessionAbsoluteHour <= 0 {
		return Config{}, fmt.Errorf("session timeouts must be positive")
	}
	if cfg.DBMaxOpenConns <= 0 || cfg.DBMaxIdleConns < 0 {
		return Config{}, fmt.Errorf("invalid DB pool config")
	}
	switch cfg.DBDriver {
	case "sqlite":
		if strings.TrimSpace(cfg.DBPath) == "" {
			return Config{}, fmt.Errorf("APP_DB_PATH is required when DB_DRIVER=sqlite")
		}
	case "postgres", "mysql":
		if strings.TrimSpace(cfg.DBDSN) == "" {
			return Config{}, fmt.Errorf("DB_DSN is required when DB_DRIVER=%s", cfg.DBDriver)
		}
	default:
		return Config{}, fmt.Errorf("DB_DRIVER must be one of: sqlite, postgres, mysql")
	}
	switch cfg.SessionStore {
	case "memory", "sql":
	case "redis":
		if strings.TrimSpace(cfg.RedisAddr) == "" {
			return Config{}, fmt.Errorf("REDIS_ADDR is required when SESSION_STORE=redis")
		}
	default:
		return Config{}, fmt.Errorf("SESSION_STORE must be one of: memory, sql, redis")
	}
	if (cfg.BootstrapAdminUsername == "") != (cfg.BootstrapAdminPassword == "") {
		return Config{}, fmt.Errorf("BOOTSTRAP_ADMIN_USERNAME and BOOTSTRAP_ADMIN_PASSWORD must be set together")
	}
	if cfg.BootstrapAdminPassword != "" && len(cfg.BootstrapAdminPassword) < 12 {
		return Config{}, fmt.Errorf("BOOTSTRAP_ADMIN_PASSWORD must be at least 12 characters")
	}
	if !cfg.CookieSecure && !isLocalListen(cfg.ListenAddr) {
		return Config{}, fmt.Errorf("COOKIE_SECURE=false is allowed only for local listen addresses")
	}
	return cfg, nil
}

func (c Config) SessionIdleDuration() time.Duration {
	return time.Duration(c.SessionIdleMinutes) * time.Minute
}

func (c Config) SessionAbsoluteDuration() time.Duration {
	return time.Duration(c.SessionAbsoluteHour) * time.Hour
}

func env(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return d
	}
	return n
}

func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return d
	}
	return b
}

func envCSV(k string) []string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func isLocalListen(addr string) bool {
	a := strings.ToLower(strings.TrimSpace(addr))
	return strings.Contains(a, "127.0.0.1") || strings.Contains(a, "localhost") || strings.Contains(a, "[::1]") || strings.HasPrefix(a, ":")
}
