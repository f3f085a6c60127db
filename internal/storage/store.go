// Package storage persists benchmark records to SQLite for offline
// model-performance analysis. The store is a sink: the pipeline tolerates
// every failure here, so errors are returned but never fatal upstream.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/raine/flipscan/internal/pipeline"
)

// BenchmarkStore implements pipeline.Recorder on SQLite.
type BenchmarkStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewBenchmarkStore opens (creating if needed) the benchmark database.
func NewBenchmarkStore(dbPath string) (*BenchmarkStore, error) {
	// WAL mode and a busy timeout for better concurrency
	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &BenchmarkStore{db: db}
	if err := store.init(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *BenchmarkStore) init() error {
	runsQuery := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		item_name TEXT NOT NULL,
		category TEXT,
		final_price REAL NOT NULL,
		method TEXT NOT NULL,
		decision TEXT NOT NULL,
		confidence REAL NOT NULL,
		quality TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);
	`
	if _, err := s.db.Exec(runsQuery); err != nil {
		return fmt.Errorf("failed to create runs table: %w", err)
	}

	votesQuery := `
	CREATE TABLE IF NOT EXISTS votes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(run_id),
		provider TEXT NOT NULL,
		stage TEXT NOT NULL,
		decision TEXT,
		estimated_value REAL NOT NULL,
		confidence REAL NOT NULL,
		weight REAL NOT NULL,
		success INTEGER NOT NULL,
		response_time_ms INTEGER NOT NULL,
		error TEXT,
		cost_usd REAL NOT NULL
	);
	`
	if _, err := s.db.Exec(votesQuery); err != nil {
		return fmt.Errorf("failed to create votes table: %w", err)
	}

	indexQuery := `CREATE INDEX IF NOT EXISTS idx_votes_run_id ON votes(run_id);`
	if _, err := s.db.Exec(indexQuery); err != nil {
		return fmt.Errorf("failed to create votes index: %w", err)
	}

	return nil
}

// Record implements pipeline.Recorder. The run row and its votes are written
// in one transaction so a torn-down process never leaves a half-written run.
func (s *BenchmarkStore) Record(ctx context.Context, rec pipeline.BenchmarkRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, item_name, category, final_price, method, decision, confidence, quality, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.ItemName, rec.Category, rec.FinalPrice, rec.Method,
		string(rec.Decision), rec.Confidence, string(rec.Quality), rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	for _, v := range rec.Votes {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO votes (run_id, provider, stage, decision, estimated_value, confidence, weight, success, response_time_ms, error, cost_usd)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.RunID, v.Provider, v.Stage, string(v.Decision), v.EstimatedValue,
			v.Confidence, v.Weight, v.Success, v.ResponseTimeMs, v.Error, v.CostUSD,
		)
		if err != nil {
			return fmt.Errorf("failed to insert vote: %w", err)
		}
	}

	return tx.Commit()
}

// RunSummary is one persisted run, used by the benchmark inspection tooling.
type RunSummary struct {
	RunID      string
	ItemName   string
	Category   string
	FinalPrice float64
	Method     string
	Decision   string
	Confidence float64
	Quality    string
	CreatedAt  time.Time
}

// RecentRuns returns up to limit of the most recent runs, newest first.
func (s *BenchmarkStore) RecentRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, item_name, category, final_price, method, decision, confidence, quality, created_at
		 FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(&r.RunID, &r.ItemName, &r.Category, &r.FinalPrice, &r.Method,
			&r.Decision, &r.Confidence, &r.Quality, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// VotesForRun returns the votes recorded for one run.
func (s *BenchmarkStore) VotesForRun(ctx context.Context, runID string) ([]pipeline.ModelVote, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT provider, stage, decision, estimated_value, confidence, weight, success, response_time_ms, error, cost_usd
		 FROM votes WHERE run_id = ?`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query votes: %w", err)
	}
	defer rows.Close()

	var votes []pipeline.ModelVote
	for rows.Next() {
		var v pipeline.ModelVote
		var decision string
		if err := rows.Scan(&v.Provider, &v.Stage, &decision, &v.EstimatedValue,
			&v.Confidence, &v.Weight, &v.Success, &v.ResponseTimeMs, &v.Error, &v.CostUSD); err != nil {
			return nil, fmt.Errorf("failed to scan vote: %w", err)
		}
		v.Decision = pipeline.Decision(decision)
		votes = append(votes, v)
	}
	return votes, rows.Err()
}

// Close closes the underlying database.
func (s *BenchmarkStore) Close() error {
	return s.db.Close()
}
