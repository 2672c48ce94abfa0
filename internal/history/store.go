// Package history keeps dashboard samples in DuckDB for trend charts.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/palladium-stack/plmdash/internal/history/migrate"
	"github.com/palladium-stack/plmdash/internal/metrics"
	"github.com/palladium-stack/plmdash/internal/model"
)

// Store manages the DuckDB database connection for sample history.
type Store struct {
	db           *sql.DB
	mu           sync.RWMutex
	dbPath       string
	QueryTimeout time.Duration
}

// NewStore opens or creates a DuckDB database and applies migrations.
// If dbPath is empty, an in-memory database is used.
func NewStore(dbPath string, queryTimeout ...time.Duration) (*Store, error) {
	dsn := ""
	if dbPath != "" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
		dsn = dbPath
	}

	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	if _, err := migrate.NewRunner(db).Run(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate history: %w", err)
	}

	qt := 10 * time.Second
	if len(queryTimeout) > 0 && queryTimeout[0] > 0 {
		qt = queryTimeout[0]
	}
	return &Store{db: db, dbPath: dbPath, QueryTimeout: qt}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path, empty for in-memory stores.
func (s *Store) Path() string {
	return s.dbPath
}

// RecordSamples implements model.SampleSink.
func (s *Store) RecordSamples(ctx context.Context, samples []model.MetricSample) error {
	if len(samples) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.QueryTimeout)
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin sample tx: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO metric_samples (ts, name, value, source, labels) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare sample insert: %w", err)
	}
	defer stmt.Close()

	for _, sm := range samples {
		labels := "{}"
		if len(sm.Labels) > 0 {
			b, err := json.Marshal(sm.Labels)
			if err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("marshal labels for %s: %w", sm.Name, err)
			}
			labels = string(b)
		}
		if _, err := stmt.ExecContext(ctx, sm.Timestamp.UTC(), sm.Name, sm.Value, sm.Source, labels); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert sample %s: %w", sm.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit samples: %w", err)
	}
	metrics.HistorySamplesTotal.Add(float64(len(samples)))
	return nil
}

// RecentSamples returns up to limit of the newest samples for name, oldest first.
func (s *Store) RecentSamples(ctx context.Context, name string, limit int) ([]model.MetricSample, error) {
	if limit <= 0 {
		limit = 60
	}
	ctx, cancel := context.WithTimeout(ctx, s.QueryTimeout)
	defer cancel()

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT ts, name, value, source, labels FROM (
			SELECT ts, name, value, source, labels
			FROM metric_samples
			WHERE name = ?
			ORDER BY ts DESC
			LIMIT ?
		) ORDER BY ts ASC`, name, limit)
	if err != nil {
		return nil, fmt.Errorf("query samples %s: %w", name, err)
	}
	defer rows.Close()

	var out []model.MetricSample
	for rows.Next() {
		var (
			sm     model.MetricSample
			labels string
		)
		if err := rows.Scan(&sm.Timestamp, &sm.Name, &sm.Value, &sm.Source, &labels); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		if labels != "" && labels != "{}" {
			if err := json.Unmarshal([]byte(labels), &sm.Labels); err != nil {
				return nil, fmt.Errorf("decode labels: %w", err)
			}
		}
		out = append(out, sm)
	}
	return out, rows.Err()
}

// MetricNames lists the distinct metric names with stored samples.
func (s *Store) MetricNames(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.QueryTimeout)
	defer cancel()

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT name FROM metric_samples ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query metric names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan metric name: %w", err)
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// DeleteBefore removes samples older than cutoff and returns the number deleted.
func (s *Store) DeleteBefore(cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM metric_samples WHERE ts < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete samples: %w", err)
	}
	return res.RowsAffected()
}
