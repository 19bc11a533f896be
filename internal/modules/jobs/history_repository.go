// Package jobs records background job executions in cache.db.
package jobs

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// Run statuses stored in job_history.status
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Run is one recorded job execution
type Run struct {
	ID         int64                  `json:"id"`
	JobName    string                 `json:"job_name"`
	StartedAt  time.Time              `json:"started_at"`
	FinishedAt *time.Time             `json:"finished_at"`
	Status     string                 `json:"status"`
	Result     map[string]interface{} `json:"result,omitempty"`
}

// HistoryRepository persists job runs in cache.db.
// Result payloads are msgpack-encoded blobs so jobs can record arbitrary
// counters without schema changes.
type HistoryRepository struct {
	db  *sql.DB // cache.db - job_history table
	log zerolog.Logger
}

// NewHistoryRepository creates a new job history repository
func NewHistoryRepository(db *sql.DB, log zerolog.Logger) *HistoryRepository {
	return &HistoryRepository{
		db:  db,
		log: log.With().Str("repo", "job_history").Logger(),
	}
}

// Start records the beginning of a job run and returns the row id
func (r *HistoryRepository) Start(jobName string, startedAt time.Time) (int64, error) {
	res, err := r.db.Exec(
		`INSERT INTO job_history (job_name, started_at, status) VALUES (?, ?, ?)`,
		jobName, startedAt.UTC().Format(time.RFC3339), StatusRunning,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to record job start: %w", err)
	}
	return res.LastInsertId()
}

// Finish records the outcome of a job run together with its result payload
func (r *HistoryRepository) Finish(id int64, status string, finishedAt time.Time, result map[string]interface{}) error {
	var blob []byte
	if result != nil {
		encoded, err := msgpack.Marshal(result)
		if err != nil {
			return fmt.Errorf("failed to encode job result: %w", err)
		}
		blob = encoded
	}

	_, err := r.db.Exec(
		`UPDATE job_history SET status = ?, finished_at = ?, result = ? WHERE id = ?`,
		status, finishedAt.UTC().Format(time.RFC3339), blob, id,
	)
	if err != nil {
		return fmt.Errorf("failed to record job finish: %w", err)
	}
	return nil
}

// Recent returns the most recent runs for a job, newest first
func (r *HistoryRepository) Recent(jobName string, limit int) ([]Run, error) {
	rows, err := r.db.Query(
		`SELECT id, job_name, started_at, finished_at, status, result
		 FROM job_history WHERE job_name = ? ORDER BY id DESC LIMIT ?`,
		jobName, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query job history: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run        Run
			startedAt  string
			finishedAt sql.NullString
			blob       []byte
		)
		if err := rows.Scan(&run.ID, &run.JobName, &startedAt, &finishedAt, &run.Status, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan job run: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, startedAt); err == nil {
			run.StartedAt = t
		}
		if finishedAt.Valid {
			if t, err := time.Parse(time.RFC3339, finishedAt.String); err == nil {
				run.FinishedAt = &t
			}
		}
		if len(blob) > 0 {
			var result map[string]interface{}
			if err := msgpack.Unmarshal(blob, &result); err != nil {
				r.log.Warn().Err(err).Int64("id", run.ID).Msg("Unreadable job result payload")
			} else {
				run.Result = result
			}
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating job history: %w", err)
	}

	return runs, nil
}

// Record wraps a job execution: it records the start, runs fn, and records
// the outcome with the counters fn returned.
func (r *HistoryRepository) Record(jobName string, now time.Time, fn func() (map[string]interface{}, error)) error {
	id, err := r.Start(jobName, now)
	if err != nil {
		// History bookkeeping must not stop the job itself
		r.log.Warn().Err(err).Str("job", jobName).Msg("Failed to record job start")
	}

	result, runErr := fn()

	status := StatusCompleted
	if runErr != nil {
		status = StatusFailed
	}
	if id != 0 {
		if err := r.Finish(id, status, time.Now(), result); err != nil {
			r.log.Warn().Err(err).Str("job", jobName).Msg("Failed to record job finish")
		}
	}

	return runErr
}
