package ebct

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/ugclabs/innova/internal/database"
)

// EvalTimeLayout is the timestamp format shared by every row of one saved
// assessment.
const EvalTimeLayout = "2006-01-02 15:04:05"

// HistoryRow is one persisted characteristic response.
type HistoryRow struct {
	ID                 int64   `json:"id"`
	ProjectID          int     `json:"id_innovacion"`
	EvaluatedAt        string  `json:"fecha_eval"`
	CharacteristicID   int     `json:"caracteristica_id"`
	CharacteristicName string  `json:"caracteristica_nombre"`
	PhaseID            string  `json:"fase_id"`
	PhaseName          string  `json:"fase_nombre"`
	Weight             float64 `json:"peso"`
	Score              float64 `json:"cumple"`
}

// Repository persists EBCT assessments in the history database.
type Repository struct {
	db      *sql.DB // history.db - ebct_evaluaciones table
	catalog *Catalog
	log     zerolog.Logger
}

// NewRepository creates an EBCT history repository.
func NewRepository(db *sql.DB, catalog *Catalog, log zerolog.Logger) *Repository {
	return &Repository{
		db:      db,
		catalog: catalog,
		log:     log.With().Str("repo", "ebct_history").Logger(),
	}
}

// SaveEvaluation appends one row per catalog characteristic, all sharing the
// same evaluation timestamp, and returns that timestamp. Characteristics
// missing from the responses map are stored as not met.
func (r *Repository) SaveEvaluation(projectID int, responses map[int]Status, now time.Time) (string, error) {
	evaluatedAt := now.Format(EvalTimeLayout)

	err := database.WithTransaction(r.db, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT INTO ebct_evaluaciones
				(id_innovacion, fecha_eval, caracteristica_id, caracteristica_nombre, fase_id, fase_nombre, peso, cumple)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, item := range r.catalog.Characteristics {
			status := responses[item.ID]
			if !status.Valid() {
				status = StatusNotMet
			}
			_, err := stmt.Exec(projectID, evaluatedAt, item.ID, item.Name,
				item.PhaseID, item.PhaseName, item.Weight, float64(status))
			if err != nil {
				return fmt.Errorf("failed to insert characteristic %d: %w", item.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	r.log.Info().Int("project_id", projectID).Str("evaluated_at", evaluatedAt).
		Int("characteristics", len(r.catalog.Characteristics)).Msg("Saved EBCT assessment")
	return evaluatedAt, nil
}

// GetHistory returns every persisted row for a project, newest first.
func (r *Repository) GetHistory(projectID int) ([]HistoryRow, error) {
	rows, err := r.db.Query(`
		SELECT id, id_innovacion, fecha_eval, caracteristica_id, caracteristica_nombre,
		       fase_id, fase_nombre, peso, cumple
		FROM ebct_evaluaciones
		WHERE id_innovacion = ?
		ORDER BY fecha_eval DESC, id DESC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	return scanHistoryRows(rows)
}

// GetLatest returns the rows of the most recent assessment and its timestamp.
// A nil slice means the project has no history yet.
func (r *Repository) GetLatest(projectID int) ([]HistoryRow, string, error) {
	var latest sql.NullString
	err := r.db.QueryRow(`
		SELECT MAX(fecha_eval) FROM ebct_evaluaciones WHERE id_innovacion = ?`, projectID).Scan(&latest)
	if err != nil {
		return nil, "", fmt.Errorf("failed to find latest assessment: %w", err)
	}
	if !latest.Valid {
		return nil, "", nil
	}

	rows, err := r.db.Query(`
		SELECT id, id_innovacion, fecha_eval, caracteristica_id, caracteristica_nombre,
		       fase_id, fase_nombre, peso, cumple
		FROM ebct_evaluaciones
		WHERE id_innovacion = ? AND fecha_eval = ?
		ORDER BY caracteristica_id`, projectID, latest.String)
	if err != nil {
		return nil, "", fmt.Errorf("failed to query latest assessment: %w", err)
	}
	defer rows.Close()

	history, err := scanHistoryRows(rows)
	if err != nil {
		return nil, "", err
	}
	return history, latest.String, nil
}

// LatestResponses rebuilds the responses map from the most recent assessment.
func (r *Repository) LatestResponses(projectID int) (map[int]Status, string, error) {
	latest, evaluatedAt, err := r.GetLatest(projectID)
	if err != nil || latest == nil {
		return nil, "", err
	}
	responses := make(map[int]Status, len(latest))
	for _, row := range latest {
		responses[row.CharacteristicID] = Status(row.Score)
	}
	return responses, evaluatedAt, nil
}

func scanHistoryRows(rows *sql.Rows) ([]HistoryRow, error) {
	var history []HistoryRow
	for rows.Next() {
		var row HistoryRow
		if err := rows.Scan(&row.ID, &row.ProjectID, &row.EvaluatedAt, &row.CharacteristicID,
			&row.CharacteristicName, &row.PhaseID, &row.PhaseName, &row.Weight, &row.Score); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		history = append(history, row)
	}
	return history, rows.Err()
}
