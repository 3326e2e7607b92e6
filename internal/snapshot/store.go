// Package snapshot persists ActiveCommission state to SQLite for crash
// visibility. Snapshots are never read back for recovery; in-flight
// commissions do not survive a daemon restart.
package snapshot

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/atelierhq/atelier/internal/commission"
)

// Phase tags a snapshot row with the write that produced it.
type Phase string

const (
	// PhaseDispatched is written just before the worker process spawns.
	PhaseDispatched Phase = "dispatched"
	// PhaseFinal is written after finalization, best effort.
	PhaseFinal Phase = "final"
)

// Snapshot is one ActiveCommission state row.
type Snapshot struct {
	CommissionID    string
	Project         string
	Worker          string
	PID             int
	Phase           Phase
	Status          commission.Status
	ResultSubmitted bool
	WorkDir         string
	ConfigPath      string
	ConfigChecksum  string
	StartedAt       time.Time
	LastHeartbeat   time.Time
}

// Store writes snapshots into the active_commission table.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Upsert writes or replaces the snapshot row for snap.CommissionID.
func (s *Store) Upsert(ctx context.Context, snap Snapshot) error {
	if snap.CommissionID == "" {
		return fmt.Errorf("snapshot commission id is empty")
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx, `
INSERT INTO active_commission(
  commission_id, project, worker, pid, phase, status, result_submitted,
  work_dir, config_path, config_checksum, started_at, last_heartbeat, updated_at)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(commission_id) DO UPDATE SET
  project          = excluded.project,
  worker           = excluded.worker,
  pid              = excluded.pid,
  phase            = excluded.phase,
  status           = excluded.status,
  result_submitted = excluded.result_submitted,
  work_dir         = excluded.work_dir,
  config_path      = excluded.config_path,
  config_checksum  = excluded.config_checksum,
  started_at       = excluded.started_at,
  last_heartbeat   = excluded.last_heartbeat,
  updated_at       = excluded.updated_at;
`,
		snap.CommissionID, snap.Project, snap.Worker, snap.PID,
		string(snap.Phase), string(snap.Status), boolToInt(snap.ResultSubmitted),
		snap.WorkDir, snap.ConfigPath, snap.ConfigChecksum,
		snap.StartedAt.UTC().Format(time.RFC3339Nano),
		snap.LastHeartbeat.UTC().Format(time.RFC3339Nano),
		now,
	)
	if err != nil {
		return fmt.Errorf("upsert active commission snapshot: %w", err)
	}
	return nil
}

// Get reads one snapshot row, or nil when absent. Used by inspection
// tooling and tests, never by the dispatch path.
func (s *Store) Get(ctx context.Context, commissionID string) (*Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT commission_id, project, worker, pid, phase, status, result_submitted,
       work_dir, config_path, config_checksum, started_at, last_heartbeat
FROM active_commission WHERE commission_id = ?;`, commissionID)

	var snap Snapshot
	var phase, status, startedAt, lastHeartbeat string
	var resultSubmitted int
	err := row.Scan(&snap.CommissionID, &snap.Project, &snap.Worker, &snap.PID,
		&phase, &status, &resultSubmitted,
		&snap.WorkDir, &snap.ConfigPath, &snap.ConfigChecksum,
		&startedAt, &lastHeartbeat)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read active commission snapshot: %w", err)
	}

	snap.Phase = Phase(phase)
	snap.Status = commission.Status(status)
	snap.ResultSubmitted = resultSubmitted != 0
	if snap.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
		return nil, fmt.Errorf("parse started_at: %w", err)
	}
	if snap.LastHeartbeat, err = time.Parse(time.RFC3339Nano, lastHeartbeat); err != nil {
		return nil, fmt.Errorf("parse last_heartbeat: %w", err)
	}
	return &snap, nil
}

// Prune deletes final-phase rows older than retention.
func (s *Store) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, fmt.Errorf("retention must be positive")
	}
	cutoff := time.Now().UTC().Add(-retention).Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM active_commission WHERE phase = ? AND updated_at < ?;`,
		string(PhaseFinal), cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}
	return n, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
