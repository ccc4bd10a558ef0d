package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Applied to every pooled connection through the modernc DSN.
var pragmas = []string{
	"journal_mode(WAL)",
	"busy_timeout(5000)",
	"foreign_keys(1)",
}

type DB struct {
	conn   *sql.DB
	logger *slog.Logger
}

// New opens the agent database at dbPath, applies pending migrations and
// fails any clip job an earlier process left unfinished.
func New(dbPath string, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One writer keeps SQLITE_BUSY out of the job runner.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{conn: conn, logger: logger}

	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open migrations: %w", err)
	}
	if err := db.migrate(ctx, sub); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	if n, err := db.markInterruptedJobs(ctx); err != nil {
		logger.Warn("failed to mark interrupted jobs", "error", err)
	} else if n > 0 {
		logger.Info("marked interrupted jobs as failed", "count", n)
	}

	return db, nil
}

func dsn(path string) string {
	q := url.Values{}
	for _, p := range pragmas {
		q.Add("_pragma", p)
	}
	return path + "?" + q.Encode()
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) Conn() *sql.DB {
	return d.conn
}

// migrate runs every *.sql file in fsys not yet recorded in _migrations, in
// name order. Each file and its record commit together.
func (d *DB) migrate(ctx context.Context, fsys fs.FS) error {
	if _, err := d.conn.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS _migrations (
		name       TEXT PRIMARY KEY,
		applied_at TEXT NOT NULL DEFAULT (datetime('now'))
	)`); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	names, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return fmt.Errorf("failed to list migrations: %w", err)
	}
	sort.Strings(names)

	applied, err := d.appliedMigrations(ctx)
	if err != nil {
		return err
	}

	for _, name := range names {
		if applied[name] {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", name, err)
		}
		if err := d.apply(ctx, name, string(content)); err != nil {
			return err
		}
		d.logger.Info("applied migration", "name", name)
	}

	return nil
}

func (d *DB) apply(ctx context.Context, name, script string) error {
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration %s: %w", name, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, script); err != nil {
		return fmt.Errorf("failed to execute migration %s: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO _migrations (name) VALUES (?)", name); err != nil {
		return fmt.Errorf("failed to record migration %s: %w", name, err)
	}
	return tx.Commit()
}

func (d *DB) appliedMigrations(ctx context.Context) (map[string]bool, error) {
	rows, err := d.conn.QueryContext(ctx, "SELECT name FROM _migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to read applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		applied[name] = true
	}
	return applied, rows.Err()
}

// markInterruptedJobs fails every job a previous process left unfinished.
// Sessions live in memory, so neither running nor pending clip jobs have an
// owner to hand their result to after a restart.
func (d *DB) markInterruptedJobs(ctx context.Context) (int64, error) {
	res, err := d.conn.ExecContext(ctx,
		`UPDATE jobs SET status = 'failed', error = 'interrupted by restart', updated_at = ? WHERE status IN ('running', 'pending')`,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
