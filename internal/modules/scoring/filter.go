package scoring

import (
	"strings"
	"time"

	"github.com/ugclabs/innova/internal/modules/portfolio"
)

// impactOrder ranks the impact tiers for the minimum-impact filter
var impactOrder = map[string]int{"bajo": 1, "medio": 2, "alto": 3}

// FilterOptions configure the high-potential candidate filter
type FilterOptions struct {
	MinImpact     string  `json:"impacto_min"` // "Medio" or "Alto"
	MinScore      float64 `json:"puntaje_min"`
	RequireLead   bool    `json:"exigir_resp_in"`
	RequireOpen   bool    `json:"exigir_abierto"`
	ExcludeClosed bool    `json:"excluir_cerrados"`
}

// DefaultFilterOptions mirror the Fase 0 defaults
func DefaultFilterOptions() FilterOptions {
	return FilterOptions{
		MinImpact:     "Medio",
		MinScore:      140,
		RequireLead:   true,
		RequireOpen:   true,
		ExcludeClosed: true,
	}
}

// FilterCandidates selects the high-potential projects that advance to the
// maturity evaluation. A project qualifies when its impact meets the minimum
// tier, its persisted score meets the minimum, and the lead/open/closed
// requirements hold.
func FilterCandidates(projects []portfolio.Project, opts FilterOptions, today time.Time) []portfolio.Project {
	minImpact := 2
	if strings.EqualFold(strings.TrimSpace(opts.MinImpact), "alto") {
		minImpact = 3
	}

	var out []portfolio.Project
	for _, p := range projects {
		flags := p.ComputeFlags(today)

		if impactOrder[strings.ToLower(strings.TrimSpace(p.Impact))] < minImpact {
			continue
		}
		if p.Score == nil || *p.Score < opts.MinScore {
			continue
		}
		if opts.RequireLead && flags.MissingLead {
			continue
		}
		if opts.RequireOpen && !strings.EqualFold(strings.TrimSpace(p.PMState), "abierto") {
			continue
		}
		if opts.ExcludeClosed && flags.Closed {
			continue
		}

		out = append(out, p)
	}
	return out
}
