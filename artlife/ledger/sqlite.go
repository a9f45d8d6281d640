// Package ledger records runs and their evolution cycles in SQLite.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/baldhumanity/artlife-go/artlife"
)

// Run is one row of the runs table.
type Run struct {
	ID        string
	StartedAt time.Time
	Sizes     string
	PopSize   int
	Seed      int64
	Cycles    int
	Best      float64
	Finished  bool
}

// Cycle is one row of the cycles table.
type Cycle struct {
	RunID       string
	Cycle       int
	Generation  int
	Phase       string
	MaxFitness  float64
	MeanFitness float64
	BestFitness float64
	RolledBack  bool
	Winners     int
	Stagnation  int
	Diversity   float64
	DurationMS  int64
}

// Store is the ledger database. After BeginRun it can be registered as an
// artlife.Reporter and writes one row per completed cycle.
type Store struct {
	path   string
	Logger *slog.Logger

	mu    sync.RWMutex
	db    *sql.DB
	runID string
}

var _ artlife.Reporter = (*Store)(nil)

// NewStore creates a store for the database file at path. Call Init before use.
func NewStore(path string) *Store {
	return &Store{path: path, Logger: slog.Default()}
}

// Init opens the database and creates the tables.
func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("ledger path is required")
	}
	if s.db != nil {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create ledger directory: %w", err)
	}
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("failed to open ledger '%s': %w", s.path, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to open ledger '%s': %w", s.path, err)
	}
	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to create ledger tables: %w", err)
	}
	s.db = db
	return nil
}

// BeginRun inserts a new run and makes it the target of CycleCompleted.
func (s *Store) BeginRun(ctx context.Context, config *artlife.Config) (string, error) {
	db, err := s.getDB()
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	_, err = db.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, sizes, pop_size, seed)
		VALUES (?, ?, ?, ?, ?)
	`, id, time.Now().UTC().Format(time.RFC3339Nano), config.Sizes().String(), config.Evolution.PopSize, config.Evolution.Seed)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	s.mu.Lock()
	s.runID = id
	s.mu.Unlock()
	return id, nil
}

// RunID is the run that cycles are currently recorded against.
func (s *Store) RunID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runID
}

// RecordCycle stores one cycle of a run and updates the run summary.
func (s *Store) RecordCycle(ctx context.Context, runID string, r artlife.CycleReport) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO cycles (run_id, cycle, generation, phase, max_fitness, mean_fitness, best_fitness,
			rolled_back, winners, stagnation, diversity, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, cycle) DO UPDATE SET
			generation = excluded.generation,
			best_fitness = excluded.best_fitness
	`, runID, r.Cycle, r.Generation, r.Phase.String(), finite(r.MaxFitness), finite(r.MeanFitness), finite(r.BestFitness),
		r.RolledBack, r.Winners, r.Stagnation, r.Diversity, r.Duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("failed to insert cycle %d: %w", r.Cycle, err)
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE runs SET cycles = ?, best = ?, finished = ? WHERE id = ?
	`, r.Cycle, finite(r.BestFitness), r.Finished, runID)
	if err != nil {
		return fmt.Errorf("failed to update run %s: %w", runID, err)
	}
	return tx.Commit()
}

// CycleCompleted records the report against the current run. Failures are
// logged; the run is not interrupted.
func (s *Store) CycleCompleted(r artlife.CycleReport) {
	runID := s.RunID()
	if runID == "" {
		s.Logger.Warn("ledger has no active run, cycle not recorded", "cycle", r.Cycle)
		return
	}
	if err := s.RecordCycle(context.Background(), runID, r); err != nil {
		s.Logger.Error("failed to record cycle", "run", runID, "cycle", r.Cycle, "error", err)
	}
}

// Runs lists every run, newest first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `
		SELECT id, started_at, sizes, pop_size, seed, cycles, best, finished
		FROM runs ORDER BY started_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var started string
		if err := rows.Scan(&run.ID, &started, &run.Sizes, &run.PopSize, &run.Seed, &run.Cycles, &run.Best, &run.Finished); err != nil {
			return nil, err
		}
		run.StartedAt, err = time.Parse(time.RFC3339Nano, started)
		if err != nil {
			return nil, fmt.Errorf("run %s has a bad start time: %w", run.ID, err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// History returns the cycles of a run in order. ok is false if the run does not exist.
func (s *Store) History(ctx context.Context, runID string) ([]Cycle, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, false, err
	}
	var exists int
	err = db.QueryRowContext(ctx, `SELECT 1 FROM runs WHERE id = ?`, runID).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT run_id, cycle, generation, phase, max_fitness, mean_fitness, best_fitness,
			rolled_back, winners, stagnation, diversity, duration_ms
		FROM cycles WHERE run_id = ? ORDER BY cycle
	`, runID)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	var cycles []Cycle
	for rows.Next() {
		var c Cycle
		if err := rows.Scan(&c.RunID, &c.Cycle, &c.Generation, &c.Phase, &c.MaxFitness, &c.MeanFitness, &c.BestFitness,
			&c.RolledBack, &c.Winners, &c.Stagnation, &c.Diversity, &c.DurationMS); err != nil {
			return nil, false, err
		}
		cycles = append(cycles, c)
	}
	return cycles, true, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Store) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("ledger is not initialized")
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			sizes TEXT NOT NULL,
			pop_size INTEGER NOT NULL,
			seed INTEGER NOT NULL,
			cycles INTEGER NOT NULL DEFAULT 0,
			best REAL NOT NULL DEFAULT 0,
			finished INTEGER NOT NULL DEFAULT 0
		);
		CREATE TABLE IF NOT EXISTS cycles (
			run_id TEXT NOT NULL REFERENCES runs(id),
			cycle INTEGER NOT NULL,
			generation INTEGER NOT NULL,
			phase TEXT NOT NULL,
			max_fitness REAL NOT NULL,
			mean_fitness REAL NOT NULL,
			best_fitness REAL NOT NULL,
			rolled_back INTEGER NOT NULL,
			winners INTEGER NOT NULL,
			stagnation INTEGER NOT NULL,
			diversity REAL NOT NULL,
			duration_ms INTEGER NOT NULL,
			PRIMARY KEY (run_id, cycle)
		);
	`)
	return err
}

// finite maps infinities, which SQLite REAL columns cannot round-trip, to the
// largest finite values.
func finite(v float64) float64 {
	switch {
	case math.IsInf(v, 1):
		return math.MaxFloat64
	case math.IsInf(v, -1):
		return -math.MaxFloat64
	case math.IsNaN(v):
		return 0
	}
	return v
}
