// Package dashboard derives cross-module projections for the overview views:
// the readiness radar, the portfolio heatmap and the platform summary.
package dashboard

import (
	"fmt"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/ugclabs/innova/internal/modules/ebct"
	"github.com/ugclabs/innova/internal/modules/maturity"
	"github.com/ugclabs/innova/internal/modules/portfolio"
)

// RadarPoint is one axis of the readiness radar.
type RadarPoint struct {
	Dimension string  `json:"dimension"`
	Label     string  `json:"label"`
	Level     float64 `json:"nivel"`
}

// Radar is the latest evaluation of a project, shaped for a radar chart.
type Radar struct {
	ProjectID   int          `json:"id_innovacion"`
	EvaluatedAt string       `json:"fecha_eval"`
	Global      *float64     `json:"trl_global"`
	Points      []RadarPoint `json:"points"`
}

// HeatmapRow is one project's latest level per dimension.
type HeatmapRow struct {
	ProjectID   int            `json:"id_innovacion"`
	ProjectName string         `json:"nombre_innovacion"`
	EvaluatedAt string         `json:"fecha_eval"`
	Global      *float64       `json:"trl_global"`
	Levels      map[string]int `json:"niveles"`
}

// Summary aggregates the state of the whole platform.
type Summary struct {
	Projects          int      `json:"projects"`
	EvaluatedMaturity int      `json:"evaluated_maturity"`
	EvaluatedEBCT     int      `json:"evaluated_ebct"`
	MeanGlobal        *float64 `json:"mean_global,omitempty"`
}

// Service builds dashboard projections from the module repositories.
type Service struct {
	portfolioRepo *portfolio.Repository
	maturityRepo  *maturity.Repository
	ebctRepo      *ebct.Repository
	catalog       *maturity.Catalog
	log           zerolog.Logger
}

// NewService creates the dashboard service.
func NewService(portfolioRepo *portfolio.Repository, maturityRepo *maturity.Repository,
	ebctRepo *ebct.Repository, catalog *maturity.Catalog, log zerolog.Logger) *Service {
	return &Service{
		portfolioRepo: portfolioRepo,
		maturityRepo:  maturityRepo,
		ebctRepo:      ebctRepo,
		catalog:       catalog,
		log:           log.With().Str("service", "dashboard").Logger(),
	}
}

// Radar shapes a project's latest evaluation for the radar chart. Dimensions
// without an achieved level plot at 0. Returns nil when the project has no
// history.
func (s *Service) Radar(projectID int) (*Radar, error) {
	latest, evaluatedAt, err := s.maturityRepo.GetLatest(projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load latest evaluation: %w", err)
	}
	if latest == nil {
		return nil, nil
	}

	byDimension := make(map[string]maturity.HistoryRow, len(latest))
	for _, row := range latest {
		byDimension[row.Dimension] = row
	}

	radar := &Radar{ProjectID: projectID, EvaluatedAt: evaluatedAt}
	labels := s.catalog.Labels()
	for _, id := range s.catalog.IDs() {
		point := RadarPoint{Dimension: id, Label: labels[id]}
		if row, ok := byDimension[id]; ok {
			if row.Level != nil {
				point.Level = float64(*row.Level)
			}
			if radar.Global == nil {
				radar.Global = row.Global
			}
		}
		radar.Points = append(radar.Points, point)
	}
	return radar, nil
}

// Heatmap lists the latest level per dimension for every evaluated project.
func (s *Service) Heatmap() ([]HeatmapRow, error) {
	ids, err := s.maturityRepo.ProjectIDs()
	if err != nil {
		return nil, fmt.Errorf("failed to list evaluated projects: %w", err)
	}

	rows := make([]HeatmapRow, 0, len(ids))
	for _, id := range ids {
		latest, evaluatedAt, err := s.maturityRepo.GetLatest(id)
		if err != nil {
			return nil, fmt.Errorf("failed to load evaluation for project %d: %w", id, err)
		}
		if latest == nil {
			continue
		}

		row := HeatmapRow{ProjectID: id, EvaluatedAt: evaluatedAt, Levels: make(map[string]int)}
		for _, entry := range latest {
			if entry.Level != nil {
				row.Levels[entry.Dimension] = *entry.Level
			}
			if row.Global == nil {
				row.Global = entry.Global
			}
		}
		if project, err := s.portfolioRepo.GetByID(id); err == nil && project != nil {
			row.ProjectName = project.Name
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Summary aggregates portfolio size and evaluation coverage.
func (s *Service) Summary() (*Summary, error) {
	projects, err := s.portfolioRepo.FetchAll()
	if err != nil {
		return nil, fmt.Errorf("failed to load portfolio: %w", err)
	}

	maturityIDs, err := s.maturityRepo.ProjectIDs()
	if err != nil {
		return nil, fmt.Errorf("failed to list maturity evaluations: %w", err)
	}

	summary := &Summary{
		Projects:          len(projects),
		EvaluatedMaturity: len(maturityIDs),
	}

	var globals []float64
	for _, id := range maturityIDs {
		latest, _, err := s.maturityRepo.GetLatest(id)
		if err != nil {
			return nil, err
		}
		if len(latest) > 0 && latest[0].Global != nil {
			globals = append(globals, *latest[0].Global)
		}
	}
	if len(globals) > 0 {
		mean := stat.Mean(globals, nil)
		summary.MeanGlobal = &mean
	}

	ebctSeen := make(map[int]bool)
	for _, project := range projects {
		history, err := s.ebctRepo.GetHistory(project.ID)
		if err != nil {
			return nil, err
		}
		if len(history) > 0 && !ebctSeen[project.ID] {
			ebctSeen[project.ID] = true
			summary.EvaluatedEBCT++
		}
	}
	return summary, nil
}
