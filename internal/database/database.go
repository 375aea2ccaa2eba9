// Package database centralises sqlx connection helpers.  The default driver
// is go-sql-driver/mysql, which also works with MariaDB when configured for
// the MySQL wire protocol.
//
// Public entry points:
//
//	Open(ctx, dsn)                       – quick helper with conservative pool sizes.
//	OpenWithOptions(ctx, dsn, opts)      – fine-grained control.
//	Migrate(ctx, db, stmts)              – idempotent DDL at boot.
//
// Both open helpers Ping the database before returning so callers can fail
// fast during bootstrap.  Callers should Close() the returned *sqlx.DB when
// no longer needed.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// Options tune the pool and the boot-time ping.
type Options struct {
	Password        string // spliced into the DSN when non-empty
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	Retries         int           // extra ping attempts
	RetryBackoff    time.Duration // wait between attempts
}

// DefaultOptions: 15 max open, 5 idle, and a 30-minute connection lifetime.
func DefaultOptions() Options {
	return Options{
		MaxOpenConns:    15,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
		Retries:         2,
		RetryBackoff:    time.Second,
	}
}

// Open returns a *sqlx.DB with DefaultOptions.
func Open(ctx context.Context, dsn string) (*sqlx.DB, error) {
	return OpenWithOptions(ctx, dsn, DefaultOptions())
}

// OpenWithOptions opens the pool and pings it, retrying up to opts.Retries
// times.
func OpenWithOptions(ctx context.Context, dsn string, opts Options) (*sqlx.DB, error) {
	dsn, err := WithPassword(dsn, opts.Password)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxIdleConns)
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	for attempt := 0; ; attempt++ {
		err = db.PingContext(ctx)
		if err == nil {
			return db, nil
		}
		if attempt >= opts.Retries {
			break
		}
		zap.S().Warnw("database ping failed, retrying", "attempt", attempt+1, "err", err)
		select {
		case <-ctx.Done():
			_ = db.Close()
			return nil, ctx.Err()
		case <-time.After(opts.RetryBackoff):
		}
	}
	_ = db.Close()
	return nil, fmt.Errorf("database: ping: %w", err)
}

// WithPassword returns dsn with its password replaced by pw.  An empty pw
// leaves dsn untouched.
func WithPassword(dsn, pw string) (string, error) {
	if pw == "" {
		return dsn, nil
	}
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("database: parse dsn: %w", err)
	}
	cfg.Passwd = pw
	return cfg.FormatDSN(), nil
}

// Migrate executes stmts in order inside one transaction.  Statements must
// be idempotent (CREATE TABLE IF NOT EXISTS …).  MySQL commits DDL
// implicitly, so the transaction only groups the DML that may follow.
func Migrate(ctx context.Context, db *sqlx.DB, stmts []string) error {
	if len(stmts) == 0 {
		return nil
	}
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	for i, s := range stmts {
		if _, err := tx.ExecContext(ctx, s); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("database: migrate step %d: %w", i+1, err)
		}
	}
	return tx.Commit()
}
