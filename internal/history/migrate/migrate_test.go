package migrate

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"strings"
	"testing"
	"testing/fstest"

	_ "github.com/duckdb/duckdb-go/v2"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("duckdb", "")
	if err != nil {
		t.Fatalf("open duckdb: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func quiet() Option {
	return WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRunCreatesSampleTable(t *testing.T) {
	db := openTestDB(t)
	applied, err := NewRunner(db, quiet()).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(applied) != 2 || applied[0] != "001_metric_samples.sql" {
		t.Errorf("applied = %v", applied)
	}

	for _, table := range []string{"metric_samples", "schema_migrations"} {
		var name string
		err := db.QueryRow("SELECT table_name FROM information_schema.tables WHERE table_name = ?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}
}

func TestStatusBeforeAndAfterRun(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	r := NewRunner(db, quiet())

	cur, pending, err := r.status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if cur != 0 || pending != 2 {
		t.Errorf("before run: version=%d pending=%d, want 0/2", cur, pending)
	}

	if _, err := r.Run(ctx); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	applied, err := r.Run(ctx)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if len(applied) != 0 {
		t.Errorf("second Run applied %v, want nothing", applied)
	}

	cur, pending, err = r.status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if cur != 2 || pending != 0 {
		t.Errorf("after run: version=%d pending=%d, want 2/0", cur, pending)
	}
}

func TestFailingStepKeepsEarlierSteps(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	src := fstest.MapFS{
		"m/001_a.sql": {Data: []byte("CREATE TABLE a (x INTEGER)")},
		"m/002_b.sql": {Data: []byte("INSERT INTO missing VALUES (1)")},
		"m/003_c.sql": {Data: []byte("CREATE TABLE c (x INTEGER)")},
		"m/README.md": {Data: []byte("ignored")},
	}
	r := NewRunner(db, WithSource(src, "m"), quiet())

	applied, err := r.Run(ctx)
	if err == nil || !strings.Contains(err.Error(), "002_b.sql") {
		t.Fatalf("Run error = %v, want failure naming 002_b.sql", err)
	}
	if len(applied) != 1 || applied[0] != "001_a.sql" {
		t.Errorf("applied = %v, want [001_a.sql]", applied)
	}

	cur, pending, err := r.status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if cur != 1 || pending != 2 {
		t.Errorf("version=%d pending=%d, want 1/2", cur, pending)
	}
	var n int
	if err := db.QueryRow("SELECT count(*) FROM information_schema.tables WHERE table_name IN ('a', 'c')").Scan(&n); err != nil || n != 1 {
		t.Errorf("tables a/c = %d (%v), want only a", n, err)
	}
}

func TestRejectsBadNames(t *testing.T) {
	tests := map[string]fstest.MapFS{
		"duplicate": {
			"m/001_a.sql": {Data: []byte("SELECT 1")},
			"m/001_b.sql": {Data: []byte("SELECT 1")},
		},
		"no version": {
			"m/init.sql": {Data: []byte("SELECT 1")},
		},
		"zero version": {
			"m/000_a.sql": {Data: []byte("SELECT 1")},
		},
	}
	for name, src := range tests {
		if _, err := NewRunner(nil, WithSource(src, "m")).steps(); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestStepsSortByVersion(t *testing.T) {
	src := fstest.MapFS{
		"m/010_late.sql":  {Data: []byte("SELECT 1")},
		"m/002_early.sql": {Data: []byte("SELECT 1")},
	}
	steps, err := NewRunner(nil, WithSource(src, "m")).steps()
	if err != nil {
		t.Fatalf("Steps: %v", err)
	}
	if len(steps) != 2 || steps[0].Version != 2 || steps[1].Version != 10 {
		t.Errorf("steps = %+v", steps)
	}
}
