package scoring

import (
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ugclabs/innova/internal/modules/portfolio"
)

// DeadlineBonus is added when the declared due date is still current
const DeadlineBonus = 10.0

// RankedProject is one row of the candidate ranking
type RankedProject struct {
	portfolio.Project
	Ranking        int     `json:"ranking"`
	Computed       float64 `json:"evaluacion_calculada"`
	Recommendation string  `json:"sugerencia_rapida"`
}

// Summary holds the ranking indicators shown alongside the table
type Summary struct {
	Projects        int        `json:"proyectos"`
	Open            int        `json:"abiertos"`
	Closed          int        `json:"cerrados"`
	AboveMedia      int        `json:"candidatos_media"`
	AboveAlta       int        `json:"candidatos_alta"`
	TopScore        float64    `json:"puntaje_maximo"`
	Thresholds      Thresholds `json:"umbrales"`
}

// Service computes candidate scores and rankings
type Service struct {
	log zerolog.Logger
}

// NewService creates a new scoring service
func NewService(log zerolog.Logger) *Service {
	return &Service{log: log.With().Str("service", "scoring").Logger()}
}

// Score computes the candidate score for one project.
// Closed or inactive projects are forced to 0 regardless of other attributes.
func (s *Service) Score(p portfolio.Project, tables Tables, today time.Time) float64 {
	active := strings.ToLower(strings.TrimSpace(p.PMActive))
	state := strings.ToLower(strings.TrimSpace(p.PMState))
	if active == "no" || state == "cerrado" {
		return 0
	}

	total := 0.0
	total += tables.Status.Lookup(p.Status)
	total += tables.Impact.Lookup(p.Impact)
	total += tables.PMState.Lookup(p.PMState)
	total += tables.TransferPotential.Lookup(p.TransferPotential)
	total += tables.PMActive.Lookup(p.PMActive)
	total += tables.HasInnovationLead.Lookup(p.HasInnovationLead)

	if p.PMDueDate != nil && !dueBefore(*p.PMDueDate, today) {
		total += DeadlineBonus
	}

	return total
}

// Recommendation builds the quick-suggestion text for a project: alert tags
// from the raw attributes followed by the priority tier derived from the score.
func (s *Service) Recommendation(p portfolio.Project, score float64, tables Tables, today time.Time) string {
	var parts []string

	if strings.EqualFold(strings.TrimSpace(p.PMState), "cerrado") {
		parts = append(parts, "Proy. cerrado")
	}

	if p.PMDueDate != nil {
		if dueBefore(*p.PMDueDate, today) {
			parts = append(parts, "Fuera de plazo")
		} else {
			parts = append(parts, "Dentro de plazo")
		}
	}

	if strings.EqualFold(strings.TrimSpace(p.Impact), "alto") {
		parts = append(parts, "Impacto alto")
	}

	if strings.EqualFold(strings.TrimSpace(p.HasInnovationLead), "no") {
		parts = append(parts, "Sin Resp IN")
	}

	th := tables.Thresholds()
	switch {
	case score <= th.Media:
		parts = append(parts, "Prioridad baja")
	case score <= th.Alta:
		parts = append(parts, "Prioridad media")
	default:
		parts = append(parts, "Prioridad alta")
	}

	return strings.Join(parts, "; ")
}

// Rank scores every project, sorts descending and assigns ranking 1..N.
// Ties are broken by ascending project id so the ranking is deterministic
// regardless of input order.
func (s *Service) Rank(projects []portfolio.Project, tables Tables, today time.Time) ([]RankedProject, Summary) {
	ranked := make([]RankedProject, 0, len(projects))
	for _, p := range projects {
		score := s.Score(p, tables, today)
		ranked = append(ranked, RankedProject{
			Project:        p,
			Computed:       score,
			Recommendation: s.Recommendation(p, score, tables, today),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Computed != ranked[j].Computed {
			return ranked[i].Computed > ranked[j].Computed
		}
		return ranked[i].ID < ranked[j].ID
	})

	for i := range ranked {
		ranked[i].Ranking = i + 1
	}

	th := tables.Thresholds()
	summary := Summary{Projects: len(ranked), Thresholds: th}
	for _, r := range ranked {
		if strings.EqualFold(strings.TrimSpace(r.PMState), "cerrado") {
			summary.Closed++
		} else {
			summary.Open++
		}
		if r.Computed > th.Media {
			summary.AboveMedia++
		}
		if r.Computed > th.Alta {
			summary.AboveAlta++
		}
		if r.Computed > summary.TopScore {
			summary.TopScore = r.Computed
		}
	}

	s.log.Debug().Int("projects", len(ranked)).Float64("top", summary.TopScore).Msg("Ranking computed")
	return ranked, summary
}

// Apply writes the computed score and recommendation back onto the projects,
// preserving input order. Used before persisting through ReplaceAll.
func Apply(projects []portfolio.Project, ranked []RankedProject) []portfolio.Project {
	byID := make(map[int]RankedProject, len(ranked))
	for _, r := range ranked {
		byID[r.ID] = r
	}

	out := make([]portfolio.Project, len(projects))
	copy(out, projects)
	for i := range out {
		if r, ok := byID[out[i].ID]; ok {
			score := r.Computed
			out[i].Score = &score
			out[i].Recommendation = r.Recommendation
		}
	}
	return out
}

// dueBefore reports whether the due date lies strictly before today
// (date precision, ignoring clock time).
func dueBefore(due, today time.Time) bool {
	d := time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	return d.Before(t)
}
