package portfolio

import (
	"database/sql"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/ugclabs/innova/internal/database"
)

// Repository handles project persistence in portfolio.db.
// The innovaciones table follows replace-all semantics: every save rewrites
// the whole table inside one transaction; rows are never updated in place.
type Repository struct {
	db  *sql.DB // portfolio.db - innovaciones table
	log zerolog.Logger
}

// NewRepository creates a new portfolio repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "portfolio").Logger(),
	}
}

const projectColumns = `id_innovacion, fecha_creacion, nombre_innovacion,
	potencial_transferencia, estatus, impacto, nombre_pm, codigo_pm,
	responsable_pm, estado_pm, activo_pm, responsable_innovacion,
	tiene_resp_in, fecha_inicio_pm, fecha_termino_pm, fecha_termino_real_pm,
	evaluacion_numerica, sugerencia_rapida`

// FetchAll returns all projects ordered by id
func (r *Repository) FetchAll() ([]Project, error) {
	rows, err := r.db.Query(`SELECT ` + projectColumns + ` FROM innovaciones ORDER BY id_innovacion`)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating projects: %w", err)
	}

	return projects, nil
}

// GetByID returns one project, or nil if it does not exist
func (r *Repository) GetByID(id int) (*Project, error) {
	row := r.db.QueryRow(`SELECT `+projectColumns+` FROM innovaciones WHERE id_innovacion = ?`, id)
	p, err := scanProject(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan project %d: %w", id, err)
	}
	return &p, nil
}

// ReplaceAll rewrites the whole table with the given projects.
// Delete-all plus re-insert inside a single transaction, so a failed save
// leaves the previous state intact.
func (r *Repository) ReplaceAll(projects []Project) error {
	err := database.WithTransaction(r.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM innovaciones`); err != nil {
			return fmt.Errorf("failed to clear projects: %w", err)
		}

		stmt, err := tx.Prepare(`INSERT INTO innovaciones (` + projectColumns + `)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, p := range projects {
			var score interface{}
			if p.Score != nil {
				score = *p.Score
			}
			if _, err := stmt.Exec(
				p.ID,
				FormatDate(p.CreatedDate),
				p.Name,
				p.TransferPotential,
				p.Status,
				p.Impact,
				p.PMName,
				p.PMCode,
				p.PMResponsible,
				p.PMState,
				p.PMActive,
				p.InnovationLead,
				p.HasInnovationLead,
				FormatDate(p.PMStartDate),
				FormatDate(p.PMDueDate),
				FormatDate(p.PMActualEndDate),
				score,
				p.Recommendation,
			); err != nil {
				return fmt.Errorf("failed to insert project %d: %w", p.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.log.Info().Int("rows", len(projects)).Msg("Portfolio replaced")
	return nil
}

// UpsertMerge merges new projects into the current set by id (new rows win)
// and rewrites the table.
func (r *Repository) UpsertMerge(incoming []Project) error {
	current, err := r.FetchAll()
	if err != nil {
		return err
	}

	merged := make(map[int]Project, len(current)+len(incoming))
	for _, p := range current {
		merged[p.ID] = p
	}
	for _, p := range incoming {
		merged[p.ID] = p
	}

	result := make([]Project, 0, len(merged))
	for _, p := range merged {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })

	return r.ReplaceAll(result)
}

// scanner abstracts *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanProject(s scanner) (Project, error) {
	var (
		p                           Project
		created, start, due, actual sql.NullString
		score                       sql.NullFloat64
		name, transfer, status      sql.NullString
		impact, pmName, pmCode      sql.NullString
		pmResp, pmState, pmActive   sql.NullString
		lead, hasLead, recommend    sql.NullString
	)

	err := s.Scan(
		&p.ID, &created, &name, &transfer, &status, &impact,
		&pmName, &pmCode, &pmResp, &pmState, &pmActive,
		&lead, &hasLead, &start, &due, &actual, &score, &recommend,
	)
	if err != nil {
		return Project{}, err
	}

	p.CreatedDate = ParseDate(created.String)
	p.Name = name.String
	p.TransferPotential = transfer.String
	p.Status = status.String
	p.Impact = impact.String
	p.PMName = pmName.String
	p.PMCode = pmCode.String
	p.PMResponsible = pmResp.String
	p.PMState = pmState.String
	p.PMActive = pmActive.String
	p.InnovationLead = lead.String
	p.HasInnovationLead = hasLead.String
	p.PMStartDate = ParseDate(start.String)
	p.PMDueDate = ParseDate(due.String)
	p.PMActualEndDate = ParseDate(actual.String)
	if score.Valid {
		v := score.Float64
		p.Score = &v
	}
	p.Recommendation = recommend.String

	return p, nil
}
