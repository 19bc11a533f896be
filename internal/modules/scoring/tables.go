// Package scoring implements the Fase 0 candidate scoring and ranking.
package scoring

import "strings"

// Entry is one row of a score lookup table
type Entry struct {
	Concept string  `json:"concepto"`
	Value   float64 `json:"valor"`
}

// Table maps a categorical attribute to points. Matching is trimmed and
// case-insensitive; unmatched categories contribute 0.
type Table []Entry

// Lookup returns the points for a category value
func (t Table) Lookup(value string) float64 {
	key := strings.ToLower(strings.TrimSpace(value))
	if key == "" {
		return 0
	}
	for _, e := range t {
		if strings.ToLower(strings.TrimSpace(e.Concept)) == key {
			return e.Value
		}
	}
	return 0
}

// Options returns the configured category labels, in table order
func (t Table) Options() []string {
	opts := make([]string, 0, len(t))
	for _, e := range t {
		opts = append(opts, e.Concept)
	}
	return opts
}

// Tables holds the six attribute lookup tables plus the threshold table.
// Held in per-session state only; edits never persist (spec: score tables are
// session configuration, not data).
type Tables struct {
	Status            Table `json:"estatus"`
	Impact            Table `json:"impacto"`
	PMState           Table `json:"estado_pm"`
	PMActive          Table `json:"activo_pm"`
	TransferPotential Table `json:"potencial_transferencia"`
	HasInnovationLead Table `json:"tiene_resp_in"`
	Evaluation        Table `json:"evaluacion"`
}

// DefaultTables returns the default scoring configuration
func DefaultTables() Tables {
	return Tables{
		Status: Table{
			{"Idea", 12.5}, {"Brief", 25.0}, {"Modelo", 37.5}, {"Prototipo", 50.0},
			{"Conocimiento para futura investigacion", 40.0}, {"MVP", 62.5},
			{"Tecnologia", 75.0}, {"Servicio", 87.5}, {"EBCT", 100.0},
		},
		Impact: Table{
			{"Alto", 30}, {"Medio", 20}, {"Bajo", 10},
		},
		PMState: Table{
			{"Abierto", 10}, {"Cerrado", 0},
		},
		PMActive: Table{
			{"Si", 10}, {"No", 0},
		},
		TransferPotential: Table{
			{"Bien publico", 10}, {"Comercial", 20}, {"Uso de transferencia", 30}, {"Baja", 0},
		},
		HasInnovationLead: Table{
			{"Si", 0}, {"No", 10},
		},
		Evaluation: Table{
			{"Alta", 100}, {"Media", 50}, {"Baja", 0},
			{"Prioridad_alta_umbral", 375}, {"Prioridad_media_umbral", 250},
		},
	}
}

// Thresholds are the priority tier reference values
type Thresholds struct {
	Baja  float64 `json:"baja"`
	Media float64 `json:"media"`
	Alta  float64 `json:"alta"`
}

// Thresholds extracts the priority thresholds from the evaluation table and
// clamps them so baja <= media <= alta always holds.
func (t Tables) Thresholds() Thresholds {
	th := Thresholds{Baja: 0, Media: 50, Alta: 100}
	for _, e := range t.Evaluation {
		switch strings.ToLower(strings.TrimSpace(e.Concept)) {
		case "baja":
			th.Baja = e.Value
		case "media":
			th.Media = e.Value
		case "alta":
			th.Alta = e.Value
		}
	}
	if th.Media < th.Baja {
		th.Media = th.Baja
	}
	if th.Alta < th.Media {
		th.Alta = th.Media
	}
	return th
}

// CatalogOptions returns the allowed categorical values per project field,
// used to validate imports and manual edits.
func (t Tables) CatalogOptions() map[string][]string {
	return map[string][]string{
		"estatus":                 t.Status.Options(),
		"impacto":                 t.Impact.Options(),
		"estado_pm":               t.PMState.Options(),
		"activo_pm":               t.PMActive.Options(),
		"potencial_transferencia": t.TransferPotential.Options(),
		"tiene_resp_in":           t.HasInnovationLead.Options(),
	}
}
