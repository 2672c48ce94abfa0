// Package migrate applies the embedded history schema migrations.
//
// Migration files are named NNN_description.sql. Each file runs in its own
// transaction together with its schema_migrations row, so a failing file
// leaves every earlier one applied and nothing of itself.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"slices"
	"strconv"
	"strings"
)

//go:embed migrations/*.sql
var embedded embed.FS

const schemaTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
	version    INTEGER PRIMARY KEY,
	name       VARCHAR NOT NULL,
	applied_at TIMESTAMP DEFAULT current_timestamp
)`

// step is one versioned schema change.
type step struct {
	Version int
	Name    string
	sql     string
}

// Runner brings a history database up to the latest schema version.
type Runner struct {
	db     *sql.DB
	source fs.FS
	dir    string
	logger *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithSource reads migrations from dir inside fsys instead of the embedded set.
func WithSource(fsys fs.FS, dir string) Option {
	return func(r *Runner) {
		r.source = fsys
		r.dir = dir
	}
}

// WithLogger reports applied steps to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// NewRunner creates a runner over db using the embedded migrations.
func NewRunner(db *sql.DB, opts ...Option) *Runner {
	r := &Runner{db: db, source: embedded, dir: "migrations", logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// steps lists the known migrations in version order. Duplicate versions and
// files without a numeric prefix are errors.
func (r *Runner) steps() ([]step, error) {
	entries, err := fs.ReadDir(r.source, r.dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	var steps []step
	seen := make(map[int]string)
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".sql" {
			continue
		}
		prefix, _, _ := strings.Cut(e.Name(), "_")
		version, err := strconv.Atoi(prefix)
		if err != nil || version <= 0 {
			return nil, fmt.Errorf("migration %s: name must start with a positive version", e.Name())
		}
		if prev, dup := seen[version]; dup {
			return nil, fmt.Errorf("migration %s: version %d already used by %s", e.Name(), version, prev)
		}
		seen[version] = e.Name()

		body, err := fs.ReadFile(r.source, path.Join(r.dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", e.Name(), err)
		}
		steps = append(steps, step{Version: version, Name: e.Name(), sql: string(body)})
	}

	slices.SortFunc(steps, func(a, b step) int { return a.Version - b.Version })
	return steps, nil
}

// Run applies every pending step and returns the names of those applied.
func (r *Runner) Run(ctx context.Context) ([]string, error) {
	current, steps, err := r.state(ctx)
	if err != nil {
		return nil, err
	}

	var applied []string
	for _, s := range steps {
		if s.Version <= current {
			continue
		}
		if err := r.apply(ctx, s); err != nil {
			return applied, err
		}
		r.logger.Info("history schema migrated", "version", s.Version, "name", s.Name)
		applied = append(applied, s.Name)
	}
	return applied, nil
}

// status returns the applied version and the number of pending steps.
func (r *Runner) status(ctx context.Context) (current int, pending int, err error) {
	current, steps, err := r.state(ctx)
	if err != nil {
		return 0, 0, err
	}
	for _, s := range steps {
		if s.Version > current {
			pending++
		}
	}
	return current, pending, nil
}

func (r *Runner) state(ctx context.Context) (int, []step, error) {
	if _, err := r.db.ExecContext(ctx, schemaTable); err != nil {
		return 0, nil, fmt.Errorf("create schema_migrations: %w", err)
	}
	var v sql.NullInt64
	if err := r.db.QueryRowContext(ctx, "SELECT MAX(version) FROM schema_migrations").Scan(&v); err != nil {
		return 0, nil, fmt.Errorf("read schema version: %w", err)
	}
	steps, err := r.steps()
	if err != nil {
		return 0, nil, err
	}
	return int(v.Int64), steps, nil
}

func (r *Runner) apply(ctx context.Context, s step) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("migration %s: begin: %w", s.Name, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, s.sql); err != nil {
		return fmt.Errorf("migration %s: %w", s.Name, err)
	}
	if _, err = tx.ExecContext(ctx, "INSERT INTO schema_migrations (version, name) VALUES (?, ?)", s.Version, s.Name); err != nil {
		return fmt.Errorf("migration %s: record: %w", s.Name, err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("migration %s: commit: %w", s.Name, err)
	}
	return nil
}
