// Package portfolio manages the innovation-project portfolio (Fase 0 intake).
package portfolio

import "time"

// Project is one row of the innovaciones table.
// Categorical fields keep their operator-facing Spanish values ("Abierto",
// "Alto", "Si", ...); matching against score tables is case-insensitive.
type Project struct {
	ID               int        `json:"id_innovacion"`
	CreatedDate      *time.Time `json:"fecha_creacion"`
	Name             string     `json:"nombre_innovacion"`
	TransferPotential string    `json:"potencial_transferencia"`
	Status           string     `json:"estatus"`
	Impact           string     `json:"impacto"`
	PMName           string     `json:"nombre_pm"`
	PMCode           string     `json:"codigo_pm"`
	PMResponsible    string     `json:"responsable_pm"`
	PMState          string     `json:"estado_pm"`
	PMActive         string     `json:"activo_pm"`
	InnovationLead   string     `json:"responsable_innovacion"`
	HasInnovationLead string    `json:"tiene_resp_in"`
	PMStartDate      *time.Time `json:"fecha_inicio_pm"`
	PMDueDate        *time.Time `json:"fecha_termino_pm"`
	PMActualEndDate  *time.Time `json:"fecha_termino_real_pm"`
	Score            *float64   `json:"evaluacion_numerica"`
	Recommendation   string     `json:"sugerencia_rapida"`
}

// Flags are derived per-project indicators used by the candidate filter
type Flags struct {
	Closed      bool `json:"cerrado"`
	OnSchedule  bool `json:"en_plazo"`
	MissingLead bool `json:"falta_resp_in"`
}

// ComputeFlags derives the closed / on-schedule / missing-lead indicators.
// A project counts as closed when its PM state says so or an actual end date
// was recorded. On-schedule requires a due date that has not passed and an
// open project.
func (p *Project) ComputeFlags(today time.Time) Flags {
	closed := equalsFold(p.PMState, "cerrado") || p.PMActualEndDate != nil

	onSchedule := false
	if p.PMDueDate != nil && !closed {
		onSchedule = !dateOnly(*p.PMDueDate).Before(dateOnly(today))
	}

	missingLead := isNegative(p.HasInnovationLead) || trim(p.InnovationLead) == ""

	return Flags{
		Closed:      closed,
		OnSchedule:  onSchedule,
		MissingLead: missingLead,
	}
}
