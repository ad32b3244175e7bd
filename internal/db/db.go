package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"sitereports/internal/config"
)

type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
	MySQL    Dialect = "mysql"
)

// DB is a pool bound to the SQL dialect its queries must be written in.
type DB struct {
	*sql.DB
	Dialect Dialect
}

func Open(cfg config.Config) (*DB, error) {
	switch Dialect(cfg.DBDriver) {
	case SQLite:
		return OpenSQLite(cfg.DBPath, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns, cfg.DBConnMaxLifetime)
	case Postgres:
		cc, err := pgx.ParseConfig(cfg.DBDSN)
		if err != nil {
			return nil, fmt.Errorf("parse postgres dsn: %w", err)
		}
		return finishOpen(stdlib.OpenDB(*cc), Postgres, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns, cfg.DBConnMaxLifetime)
	case MySQL:
		mc, err := mysql.ParseDSN(cfg.DBDSN)
		if err != nil {
			return nil, fmt.Errorf("parse mysql dsn: %w", err)
		}
		// created_at columns are scanned into time.Time.
		mc.ParseTime = true
		mc.Loc = time.UTC
		// RowsAffected must count matched rows so an unchanged status
		// update is not mistaken for a missing report.
		mc.ClientFoundRows = true
		conn, err := mysql.NewConnector(mc)
		if err != nil {
			return nil, err
		}
		return finishOpen(sql.OpenDB(conn), MySQL, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns, cfg.DBConnMaxLifetime)
	default:
		return nil, fmt.Errorf("unsupported db driver %q", cfg.DBDriver)
	}
}

func OpenSQLite(path string, maxOpen, maxIdle int, maxLifetime time.Duration) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)
	sqdb, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	return finishOpen(sqdb, SQLite, maxOpen, maxIdle, maxLifetime)
}

func finishOpen(sqdb *sql.DB, d Dialect, maxOpen, maxIdle int, maxLifetime time.Duration) (*DB, error) {
	sqdb.SetMaxOpenConns(maxOpen)
	sqdb.SetMaxIdleConns(maxIdle)
	sqdb.SetConnMaxLifetime(maxLifetime)
	if err := sqdb.Ping(); err != nil {
		_ = sqdb.Close()
		return nil, err
	}
	return &DB{DB: sqdb, Dialect: d}, nil
}

// Rebind rewrites ? placeholders into the form the dialect expects.
func (d *DB) Rebind(q string) string {
	return Rebind(d.Dialect, q)
}

func Rebind(d Dialect, q string) string {
	if d != Postgres {
		return q
	}
	var b strings.Builder
	b.Grow(len(q) + 8)
	n := 0
	for i := 0; i < len(q); i++ {
		if q[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(q[i])
	}
	return b.String()
}
