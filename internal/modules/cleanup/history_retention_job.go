// Package cleanup provides data retention and maintenance jobs.
package cleanup

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ugclabs/innova/internal/modules/jobs"
	"github.com/ugclabs/innova/internal/modules/maturity"
)

// HistoryRetentionJob prunes old evaluation groups from history.db.
// The latest evaluation of each project is always kept, whatever its age,
// so dashboards never lose their current snapshot.
type HistoryRetentionJob struct {
	historyDB     *sql.DB
	retentionDays int
	location      *time.Location
	runs          *jobs.HistoryRepository
	log           zerolog.Logger
}

// NewHistoryRetentionJob creates a new history retention job
func NewHistoryRetentionJob(historyDB *sql.DB, retentionDays int, location *time.Location, runs *jobs.HistoryRepository, log zerolog.Logger) *HistoryRetentionJob {
	return &HistoryRetentionJob{
		historyDB:     historyDB,
		retentionDays: retentionDays,
		location:      location,
		runs:          runs,
		log:           log.With().Str("job", "history_retention").Logger(),
	}
}

// Name returns the job name for the scheduler
func (j *HistoryRetentionJob) Name() string {
	return "history_retention"
}

// Run executes the retention job
func (j *HistoryRetentionJob) Run() error {
	if j.retentionDays <= 0 {
		j.log.Debug().Msg("History retention disabled")
		return nil
	}

	now := time.Now().In(j.location)
	cutoff := now.AddDate(0, 0, -j.retentionDays).Format(maturity.EvalTimeLayout)

	return j.runs.Record(j.Name(), now, func() (map[string]interface{}, error) {
		j.log.Info().Str("cutoff", cutoff).Msg("Starting history retention job")

		maturityRows, err := j.pruneTable("trl_resultados", cutoff)
		if err != nil {
			return nil, fmt.Errorf("failed to prune trl_resultados: %w", err)
		}

		ebctRows, err := j.pruneTable("ebct_evaluaciones", cutoff)
		if err != nil {
			return nil, fmt.Errorf("failed to prune ebct_evaluaciones: %w", err)
		}

		j.log.Info().
			Int64("maturity_rows", maturityRows).
			Int64("ebct_rows", ebctRows).
			Msg("History retention job completed")

		return map[string]interface{}{
			"cutoff":        cutoff,
			"maturity_rows": maturityRows,
			"ebct_rows":     ebctRows,
		}, nil
	})
}

// pruneTable deletes evaluation groups older than the cutoff, except each
// project's most recent group. fecha_eval is stored as local wall-clock text
// in EvalTimeLayout, so lexicographic comparison orders correctly.
func (j *HistoryRetentionJob) pruneTable(table, cutoff string) (int64, error) {
	query := fmt.Sprintf(
		`DELETE FROM %s
		 WHERE fecha_eval < ?
		   AND fecha_eval != (
		       SELECT MAX(fecha_eval) FROM %s latest
		       WHERE latest.id_innovacion = %s.id_innovacion
		   )`,
		table, table, table,
	)

	result, err := j.historyDB.Exec(query, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
