// Package audit persists per-point run records and full conversation
// transcripts in SQLite. The CSV ledger is the analysis artifact; the audit
// store is for debugging individual conversations after the fact.
package audit

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id       TEXT PRIMARY KEY,
	beta         REAL NOT NULL,
	k            REAL NOT NULL,
	tau          REAL NOT NULL,
	alpha        REAL NOT NULL,
	seed         INTEGER NOT NULL,
	adversarial  INTEGER NOT NULL,
	failed       INTEGER NOT NULL,
	fail_reason  TEXT,
	started_at   TEXT NOT NULL,
	finished_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS turns (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id       TEXT NOT NULL,
	condition    TEXT NOT NULL,
	role         TEXT NOT NULL,
	round        INTEGER NOT NULL,
	repaired     INTEGER NOT NULL,
	raw          TEXT NOT NULL,
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);

CREATE INDEX IF NOT EXISTS idx_turns_run ON turns(run_id);
`
// #endregion schema

// #region records
// RunRecord describes one evaluated grid point.
type RunRecord struct {
	RunID       string
	Beta        float64
	K           float64
	Tau         float64
	Alpha       float64
	Seed        int
	Adversarial bool
	Failed      bool
	FailReason  string
	StartedAt   time.Time
	FinishedAt  time.Time
}

// TurnRecord is one agent turn from either condition of a run.
type TurnRecord struct {
	RunID     string
	Condition string
	Role      string
	Round     int
	Repaired  bool
	Raw       string
}
// #endregion records

// #region store
// Store manages the audit database.
type Store struct {
	db *sql.DB
}

// NewStore opens the audit database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
// #endregion store

// #region record-run
// RecordRun inserts a run and all of its turns in one transaction.
func (s *Store) RecordRun(rec RunRecord, turns []TurnRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var reasonPtr interface{}
	if rec.FailReason != "" {
		reasonPtr = rec.FailReason
	}

	_, err = tx.Exec(
		`INSERT INTO runs (run_id, beta, k, tau, alpha, seed, adversarial, failed, fail_reason, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.Beta, rec.K, rec.Tau, rec.Alpha, rec.Seed,
		boolInt(rec.Adversarial), boolInt(rec.Failed), reasonPtr,
		rec.StartedAt.Format(time.RFC3339Nano), rec.FinishedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, turn := range turns {
		_, err = tx.Exec(
			`INSERT INTO turns (run_id, condition, role, round, repaired, raw)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			rec.RunID, turn.Condition, turn.Role, turn.Round, boolInt(turn.Repaired), turn.Raw,
		)
		if err != nil {
			return fmt.Errorf("insert turn: %w", err)
		}
	}

	return tx.Commit()
}
// #endregion record-run

// #region recent-runs
// RecentRuns returns the most recently finished runs.
func (s *Store) RecentRuns(limit int) ([]RunRecord, error) {
	rows, err := s.db.Query(
		`SELECT run_id, beta, k, tau, alpha, seed, adversarial, failed, fail_reason, started_at, finished_at
		 FROM runs ORDER BY finished_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var rec RunRecord
		var adv, failed int
		var reason sql.NullString
		var startedStr, finishedStr string

		if err := rows.Scan(&rec.RunID, &rec.Beta, &rec.K, &rec.Tau, &rec.Alpha, &rec.Seed,
			&adv, &failed, &reason, &startedStr, &finishedStr); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		rec.Adversarial = adv != 0
		rec.Failed = failed != 0
		if reason.Valid {
			rec.FailReason = reason.String
		}
		rec.StartedAt, _ = time.Parse(time.RFC3339Nano, startedStr)
		rec.FinishedAt, _ = time.Parse(time.RFC3339Nano, finishedStr)
		records = append(records, rec)
	}
	return records, rows.Err()
}
// #endregion recent-runs

// #region turns-for-run
// TurnsForRun returns a run's turns in insertion order.
func (s *Store) TurnsForRun(runID string) ([]TurnRecord, error) {
	rows, err := s.db.Query(
		`SELECT run_id, condition, role, round, repaired, raw
		 FROM turns WHERE run_id = ? ORDER BY id`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}
	defer rows.Close()

	var records []TurnRecord
	for rows.Next() {
		var rec TurnRecord
		var repaired int
		if err := rows.Scan(&rec.RunID, &rec.Condition, &rec.Role, &rec.Round, &repaired, &rec.Raw); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		rec.Repaired = repaired != 0
		records = append(records, rec)
	}
	return records, rows.Err()
}
// #endregion turns-for-run

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
