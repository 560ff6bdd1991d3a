package driver

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"school-directory/config"

	"github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrations embed.FS

// DSN builds the go-sql-driver connection string for cfg.
func DSN(cfg config.DBConfig) string {
	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	mc.DBName = cfg.Name
	mc.ParseTime = true
	mc.Loc = time.UTC
	return mc.FormatDSN()
}

// ConnectDB opens the process-wide connection pool and checks that the
// server is reachable. The caller owns the returned handle.
func ConnectDB(ctx context.Context, cfg config.DBConfig) (*sql.DB, error) {
	if cfg.Host == "" || cfg.User == "" || cfg.Name == "" {
		return nil, errors.New("DB_HOST, DB_USER and DB_NAME must be set")
	}

	db, err := sql.Open("mysql", DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// Migrate brings the schema up to date. It runs once at startup, before the
// server accepts requests, on a connection borrowed from db and returned to
// the pool afterwards.
func Migrate(ctx context.Context, db *sql.DB) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("migration connection: %w", err)
	}
	// Closing an already closed conn only returns sql.ErrConnDone.
	defer conn.Close()

	target, err := migratemysql.WithConnection(ctx, conn, &migratemysql.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "mysql", target)
	if err != nil {
		target.Close()
		return fmt.Errorf("init migrations: %w", err)
	}
	// The driver was built from a conn, so Close releases only that conn
	// and leaves db open.
	defer m.Close()

	return applyMigrations(m)
}

type upMigrator interface {
	Up() error
}

// applyMigrations treats an already current schema as success.
func applyMigrations(m upMigrator) error {
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
