// Package store keeps a SQLite ledger of every metric the pipeline computes,
// so scores from different runs and backends can be compared later.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Metric kinds recorded in the ledger
const (
	KindBLEU   = "bleu"
	KindCosine = "cosine"
	KindSmatch = "smatch"
)

// Evaluation is one computed metric. BLEU and cosine rows use Mean and Std;
// smatch rows use Precision, Recall and F1.
type Evaluation struct {
	ID        int64
	RunID     string
	Kind      string
	Subject   string // file the metric was computed for
	Language  string
	Mean      float64
	Std       float64
	Precision float64
	Recall    float64
	F1        float64
	Pairs     int
	CreatedAt time.Time
}

// Filter narrows List; empty fields match everything
type Filter struct {
	RunID    string
	Kind     string
	Language string
}

// Store is the ledger database
type Store struct {
	db *sql.DB
}

// Open opens or creates the ledger at path
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create ledger directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	// one writer at a time
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS evaluations (
			id integer primary key autoincrement,
			run_id text not null,
			kind text not null,
			subject text not null,
			language text not null default '',
			mean real not null default 0,
			std real not null default 0,
			precision real not null default 0,
			recall real not null default 0,
			f1 real not null default 0,
			pairs integer not null default 0,
			created_at integer not null
		)`,
		`CREATE INDEX IF NOT EXISTS ix_evaluations_run ON evaluations (run_id)`,
		`CREATE INDEX IF NOT EXISTS ix_evaluations_kind ON evaluations (kind, language)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to create ledger schema: %w", err)
		}
	}
	return nil
}

// Record inserts e and returns its row id
func (s *Store) Record(ctx context.Context, e Evaluation) (int64, error) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO evaluations
			(run_id, kind, subject, language, mean, std, precision, recall, f1, pairs, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.RunID, e.Kind, e.Subject, e.Language,
		nanToZero(e.Mean), nanToZero(e.Std),
		e.Precision, e.Recall, e.F1, e.Pairs,
		e.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to record evaluation: %w", err)
	}
	return res.LastInsertId()
}

// List returns matching evaluations, oldest first
func (s *Store) List(ctx context.Context, f Filter) ([]Evaluation, error) {
	query := `SELECT id, run_id, kind, subject, language, mean, std, precision, recall, f1, pairs, created_at
		FROM evaluations
		WHERE (? = '' OR run_id = ?) AND (? = '' OR kind = ?) AND (? = '' OR language = ?)
		ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, f.RunID, f.RunID, f.Kind, f.Kind, f.Language, f.Language)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger: %w", err)
	}
	defer rows.Close()

	var out []Evaluation
	for rows.Next() {
		var (
			e       Evaluation
			created int64
		)
		if err := rows.Scan(&e.ID, &e.RunID, &e.Kind, &e.Subject, &e.Language,
			&e.Mean, &e.Std, &e.Precision, &e.Recall, &e.F1, &e.Pairs, &created); err != nil {
			return nil, fmt.Errorf("failed to read ledger row: %w", err)
		}
		e.CreatedAt = time.UnixMilli(created)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// a summary of zero pairs has a NaN mean, which sqlite stores as NULL
func nanToZero(v float64) float64 {
	if v != v {
		return 0
	}
	return v
}
