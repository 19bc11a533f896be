package portfolio

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// Columns is the canonical column order for import/export files
var Columns = []string{
	"id_innovacion", "fecha_creacion", "nombre_innovacion",
	"potencial_transferencia", "estatus", "impacto", "nombre_pm", "codigo_pm",
	"responsable_pm", "estado_pm", "activo_pm", "responsable_innovacion",
	"tiene_resp_in", "fecha_inicio_pm", "fecha_termino_pm",
	"fecha_termino_real_pm", "evaluacion_numerica", "sugerencia_rapida",
}

// resultColumns are derived by the ranking and excluded from the template
var resultColumns = []string{"evaluacion_numerica", "sugerencia_rapida"}

// ImportMode selects what an import does with the existing portfolio
type ImportMode string

const (
	// ImportReplace discards the current portfolio and loads the file
	ImportReplace ImportMode = "replace"
	// ImportAppend merges the file into the current portfolio by id
	ImportAppend ImportMode = "append"
)

// ImportResult reports what an import did
type ImportResult struct {
	Rows     int               `json:"rows"`
	Mode     ImportMode        `json:"mode"`
	Warnings []string          `json:"warnings,omitempty"`
	Cleared  map[string][]string `json:"cleared,omitempty"` // field -> out-of-catalog values cleared
}

// Importer reads operator CSV files into the portfolio.
// Categorical columns are validated against the configured catalogs:
// out-of-catalog values are cleared and reported, never fatal. A structurally
// malformed file aborts without touching persisted state.
type Importer struct {
	repo *Repository
}

// NewImporter creates a new CSV importer
func NewImporter(repo *Repository) *Importer {
	return &Importer{repo: repo}
}

// Import reads a CSV file and loads it into the portfolio.
// catalogs maps categorical column name to its allowed options.
func (im *Importer) Import(r io.Reader, mode ImportMode, catalogs map[string][]string) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}

	colIndex := make(map[string]int, len(header))
	for i, name := range header {
		colIndex[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := colIndex["id_innovacion"]; !ok {
		return nil, fmt.Errorf("file is missing the id_innovacion column")
	}

	result := &ImportResult{Mode: mode, Cleared: make(map[string][]string)}

	var projects []Project
	seen := make(map[int]bool)
	line := 1
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", line+1, err)
		}
		line++

		field := func(name string) string {
			if i, ok := colIndex[name]; ok && i < len(rec) {
				return strings.TrimSpace(rec[i])
			}
			return ""
		}

		id, err := strconv.Atoi(strings.TrimSpace(field("id_innovacion")))
		if err != nil {
			return nil, fmt.Errorf("row %d: id_innovacion %q is not a number", line, field("id_innovacion"))
		}
		if seen[id] {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("row %d: duplicate id %d, keeping the last occurrence", line, id))
		}
		seen[id] = true

		ordered := make([]string, len(Columns))
		ordered[0] = strconv.Itoa(id)
		for i, col := range Columns[1:] {
			ordered[i+1] = field(col)
		}

		p := projectFromRecord(ordered)
		p.Normalize()
		projects = append(projects, p)
	}

	if len(projects) == 0 {
		return nil, fmt.Errorf("file contains no records")
	}

	clearOutOfCatalog(projects, catalogs, result)
	dedupeKeepLast(&projects)

	if err := im.restoreResultColumns(projects); err != nil {
		return nil, err
	}

	switch mode {
	case ImportAppend:
		err = im.repo.UpsertMerge(projects)
	default:
		err = im.repo.ReplaceAll(projects)
	}
	if err != nil {
		return nil, err
	}

	result.Rows = len(projects)
	if len(result.Cleared) == 0 {
		result.Cleared = nil
	}
	return result, nil
}

// clearOutOfCatalog blanks categorical values not present in the catalogs
// and records them in the result for the operator to review.
func clearOutOfCatalog(projects []Project, catalogs map[string][]string, result *ImportResult) {
	allowed := make(map[string]map[string]bool, len(catalogs))
	for field, options := range catalogs {
		set := make(map[string]bool, len(options))
		for _, opt := range options {
			set[strings.ToLower(strings.TrimSpace(opt))] = true
		}
		allowed[field] = set
	}

	check := func(field string, value *string) {
		set, ok := allowed[field]
		if !ok || *value == "" {
			return
		}
		if !set[strings.ToLower(*value)] {
			result.Cleared[field] = appendUnique(result.Cleared[field], *value)
			*value = ""
		}
	}

	for i := range projects {
		p := &projects[i]
		check("estatus", &p.Status)
		check("impacto", &p.Impact)
		check("estado_pm", &p.PMState)
		check("activo_pm", &p.PMActive)
		check("potencial_transferencia", &p.TransferPotential)
		check("tiene_resp_in", &p.HasInnovationLead)
	}

	for field, values := range result.Cleared {
		sort.Strings(values)
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("out-of-catalog values cleared in %s: %s", field, strings.Join(values, ", ")))
	}
	sort.Strings(result.Warnings)
}

// restoreResultColumns fills blank score/recommendation cells from the rows
// already persisted, so re-importing a template does not wipe ranking output.
func (im *Importer) restoreResultColumns(projects []Project) error {
	current, err := im.repo.FetchAll()
	if err != nil {
		return err
	}
	existing := make(map[int]Project, len(current))
	for _, p := range current {
		existing[p.ID] = p
	}

	for i := range projects {
		prev, ok := existing[projects[i].ID]
		if !ok {
			continue
		}
		if projects[i].Score == nil {
			projects[i].Score = prev.Score
		}
		if projects[i].Recommendation == "" {
			projects[i].Recommendation = prev.Recommendation
		}
	}
	return nil
}

func dedupeKeepLast(projects *[]Project) {
	byID := make(map[int]int)
	var out []Project
	for _, p := range *projects {
		if idx, ok := byID[p.ID]; ok {
			out[idx] = p
			continue
		}
		byID[p.ID] = len(out)
		out = append(out, p)
	}
	*projects = out
}

func appendUnique(values []string, v string) []string {
	for _, existing := range values {
		if existing == v {
			return values
		}
	}
	return append(values, v)
}

// Export writes the full portfolio as CSV
func Export(w io.Writer, projects []Project) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, p := range projects {
		score := ""
		if p.Score != nil {
			score = strconv.FormatFloat(*p.Score, 'f', -1, 64)
		}
		rec := []string{
			strconv.Itoa(p.ID),
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
		}
		if err := writer.Write(rec); err != nil {
			return fmt.Errorf("failed to write project %d: %w", p.ID, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteTemplate writes an empty import template (result columns excluded)
func WriteTemplate(w io.Writer) error {
	writer := csv.NewWriter(w)

	var cols []string
	for _, col := range Columns {
		if col == resultColumns[0] || col == resultColumns[1] {
			continue
		}
		cols = append(cols, col)
	}
	if err := writer.Write(cols); err != nil {
		return fmt.Errorf("failed to write template header: %w", err)
	}

	writer.Flush()
	return writer.Error()
}

// TemplateInstructions returns the operator guidance distributed with the template
func TemplateInstructions() []string {
	return []string{
		"Completa una fila por proyecto de innovación.",
		"id_innovacion debe ser un número entero único.",
		"Fechas en formato YYYY-MM-DD o DD/MM/YYYY.",
		"Las columnas categóricas (estatus, impacto, estado_pm, activo_pm, potencial_transferencia, tiene_resp_in) deben usar los valores configurados en las tablas de puntaje.",
		"Valores fuera de catálogo se limpian durante la carga y quedan reportados para revisión.",
		"Los campos evaluacion_numerica y sugerencia_rapida se calculan automáticamente y no van en la plantilla.",
	}
}
