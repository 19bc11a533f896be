package maturity

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/ugclabs/innova/internal/database"
)

// EvalTimeLayout is the timestamp format shared by every row of one saved
// evaluation.
const EvalTimeLayout = "2006-01-02 15:04:05"

// HistoryRow is one persisted dimension result.
type HistoryRow struct {
	ID          int64    `json:"id"`
	ProjectID   int      `json:"id_innovacion"`
	EvaluatedAt string   `json:"fecha_eval"`
	Dimension   string   `json:"dimension"`
	Level       *int     `json:"nivel"`
	Evidence    string   `json:"evidencia"`
	Global      *float64 `json:"trl_global"`
}

// Repository persists maturity evaluations in the history database.
type Repository struct {
	db  *sql.DB // history.db - trl_resultados table
	log zerolog.Logger
}

// NewRepository creates a maturity history repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "maturity_history").Logger(),
	}
}

// SaveResult appends one row per dimension, all sharing the same evaluation
// timestamp, and returns that timestamp.
func (r *Repository) SaveResult(projectID int, results []DimensionResult, global float64, now time.Time) (string, error) {
	evaluatedAt := now.Format(EvalTimeLayout)

	err := database.WithTransaction(r.db, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT INTO trl_resultados (id_innovacion, fecha_eval, dimension, nivel, evidencia, trl_global)
			VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, result := range results {
			var level interface{}
			if result.Level != nil {
				level = *result.Level
			}
			if _, err := stmt.Exec(projectID, evaluatedAt, result.Dimension, level, result.Evidence, global); err != nil {
				return fmt.Errorf("failed to insert result for %s: %w", result.Dimension, err)
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	r.log.Info().Int("project_id", projectID).Str("evaluated_at", evaluatedAt).
		Float64("global", global).Msg("Saved maturity evaluation")
	return evaluatedAt, nil
}

// GetHistory returns every persisted row for a project, newest first.
func (r *Repository) GetHistory(projectID int) ([]HistoryRow, error) {
	rows, err := r.db.Query(`
		SELECT id, id_innovacion, fecha_eval, dimension, nivel, evidencia, trl_global
		FROM trl_resultados
		WHERE id_innovacion = ?
		ORDER BY fecha_eval DESC, id DESC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	return scanHistoryRows(rows)
}

// GetLatest returns the rows of the most recent evaluation and its timestamp.
// A nil slice means the project has no history yet.
func (r *Repository) GetLatest(projectID int) ([]HistoryRow, string, error) {
	var latest sql.NullString
	err := r.db.QueryRow(`
		SELECT MAX(fecha_eval) FROM trl_resultados WHERE id_innovacion = ?`, projectID).Scan(&latest)
	if err != nil {
		return nil, "", fmt.Errorf("failed to find latest evaluation: %w", err)
	}
	if !latest.Valid {
		return nil, "", nil
	}

	rows, err := r.db.Query(`
		SELECT id, id_innovacion, fecha_eval, dimension, nivel, evidencia, trl_global
		FROM trl_resultados
		WHERE id_innovacion = ? AND fecha_eval = ?
		ORDER BY id`, projectID, latest.String)
	if err != nil {
		return nil, "", fmt.Errorf("failed to query latest evaluation: %w", err)
	}
	defer rows.Close()

	history, err := scanHistoryRows(rows)
	if err != nil {
		return nil, "", err
	}
	return history, latest.String, nil
}

// ProjectIDs returns the distinct projects with stored evaluations.
func (r *Repository) ProjectIDs() ([]int, error) {
	rows, err := r.db.Query(`SELECT DISTINCT id_innovacion FROM trl_resultados ORDER BY id_innovacion`)
	if err != nil {
		return nil, fmt.Errorf("failed to query project ids: %w", err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan project id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanHistoryRows(rows *sql.Rows) ([]HistoryRow, error) {
	var history []HistoryRow
	for rows.Next() {
		var row HistoryRow
		var level sql.NullInt64
		var global sql.NullFloat64
		var evidence sql.NullString
		if err := rows.Scan(&row.ID, &row.ProjectID, &row.EvaluatedAt, &row.Dimension, &level, &evidence, &global); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		if level.Valid {
			value := int(level.Int64)
			row.Level = &value
		}
		if global.Valid {
			row.Global = &global.Float64
		}
		row.Evidence = evidence.String
		history = append(history, row)
	}
	return history, rows.Err()
}
