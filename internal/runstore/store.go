// Package runstore persists run and sweep records in SQLite so the API
// can list and replay past evaluations. The core never depends on this
// package; persistence is strictly a collaborator of the service edge.
package runstore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id        TEXT PRIMARY KEY,
	task_id       TEXT NOT NULL,
	created_at    TEXT NOT NULL,
	verdict       TEXT NOT NULL,
	failed_gate   TEXT,
	top_fix       TEXT,
	evidence_json TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS sweeps (
	sweep_id     TEXT PRIMARY KEY,
	created_at   TEXT NOT NULL,
	n            INTEGER NOT NULL,
	seed         INTEGER NOT NULL,
	summary_json TEXT NOT NULL,
	run_ids_json TEXT NOT NULL
);
`

// ErrNotFound is returned when a run or sweep id is unknown.
var ErrNotFound = errors.New("runstore: not found")

// timeFormat is fixed-width (nine fractional digits, never trimmed) so
// that lexicographic ORDER BY on the text column matches time order.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// RunRecord is one persisted evaluation.
type RunRecord struct {
	RunID      string    `json:"run_id"`
	TaskID     string    `json:"task_id"`
	CreatedAt  time.Time `json:"created_at"`
	Verdict    string    `json:"verdict"`
	FailedGate string    `json:"failed_gate,omitempty"`
	TopFix     string    `json:"top_fix,omitempty"`
	Evidence   []byte    `json:"-"`
}

// SweepRecord is one persisted sweep with its run references.
type SweepRecord struct {
	SweepID   string    `json:"sweep_id"`
	CreatedAt time.Time `json:"created_at"`
	N         int       `json:"n"`
	Seed      int64     `json:"seed"`
	Summary   []byte    `json:"-"`
	RunIDs    []string  `json:"run_ids"`
}

// Store wraps the SQLite database holding run metadata.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// InsertRun stores one run record.
func (s *Store) InsertRun(rec RunRecord) error {
	_, err := s.db.Exec(
		`INSERT INTO runs (run_id, task_id, created_at, verdict, failed_gate, top_fix, evidence_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.TaskID, rec.CreatedAt.UTC().Format(timeFormat),
		rec.Verdict, nullable(rec.FailedGate), nullable(rec.TopFix), string(rec.Evidence),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// GetRun fetches a run by id.
func (s *Store) GetRun(runID string) (*RunRecord, error) {
	row := s.db.QueryRow(
		`SELECT run_id, task_id, created_at, verdict, failed_gate, top_fix, evidence_json
		 FROM runs WHERE run_id = ?`, runID)
	rec, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rec, err
}

// ListRecent returns up to limit runs, newest first.
func (s *Store) ListRecent(limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT run_id, task_id, created_at, verdict, failed_gate, top_fix, evidence_json
		 FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// InsertSweep stores one sweep record.
func (s *Store) InsertSweep(rec SweepRecord) error {
	runIDs, err := json.Marshal(rec.RunIDs)
	if err != nil {
		return fmt.Errorf("marshal run ids: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO sweeps (sweep_id, created_at, n, seed, summary_json, run_ids_json)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.SweepID, rec.CreatedAt.UTC().Format(timeFormat),
		rec.N, rec.Seed, string(rec.Summary), string(runIDs),
	)
	if err != nil {
		return fmt.Errorf("insert sweep: %w", err)
	}
	return nil
}

// GetSweep fetches a sweep by id.
func (s *Store) GetSweep(sweepID string) (*SweepRecord, error) {
	var rec SweepRecord
	var createdAt, summary, runIDs string
	err := s.db.QueryRow(
		`SELECT sweep_id, created_at, n, seed, summary_json, run_ids_json
		 FROM sweeps WHERE sweep_id = ?`, sweepID).
		Scan(&rec.SweepID, &createdAt, &rec.N, &rec.Seed, &summary, &runIDs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get sweep: %w", err)
	}
	rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	rec.Summary = []byte(summary)
	if err := json.Unmarshal([]byte(runIDs), &rec.RunIDs); err != nil {
		return nil, fmt.Errorf("unmarshal run ids: %w", err)
	}
	return &rec, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*RunRecord, error) {
	var rec RunRecord
	var createdAt, evidence string
	var failedGate, topFix sql.NullString
	if err := row.Scan(&rec.RunID, &rec.TaskID, &createdAt, &rec.Verdict,
		&failedGate, &topFix, &evidence); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	parsed, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	rec.CreatedAt = parsed
	rec.FailedGate = failedGate.String
	rec.TopFix = topFix.String
	rec.Evidence = []byte(evidence)
	return &rec, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
