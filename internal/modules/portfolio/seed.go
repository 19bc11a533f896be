package portfolio

// seedRows are the example projects loaded the first time the platform runs
// against an empty database, in the raw text form operators would import.
var seedRows = [][]string{
	{"1", "2025-06-24", "Sensor IoT para riego eficiente", "Comercial", "MVP", "Alto",
		"Plataforma AgroTech", "AGT-001", "María Torres", "Abierto", "Sí", "Dr. Juan Pérez", "Sí",
		"2025-07-24", "2025-09-17", "", "132,5", "Fuera de plazo; Impacto alto; Prioridad alta"},
	{"2", "2025-08-23", "Algoritmo de predicción de incendios", "Uso de trasferencia", "Prototipo", "Alto",
		"", "", "", "Abierto", "Sí", "", "No", "2025-09-07", "2025-11-06", "", "150",
		"Dentro de plazo; Impacto alto; Sin Resp IN; Prioridad alta"},
	{"3", "2025-09-12", "App de seguimiento de EBCT", "Bien publico", "Tecnología", "Medio",
		"Suite Innovación Digital", "SID-010", "Carlos Rivas", "Abierto", "Sí", "", "No",
		"2025-09-17", "2025-10-12", "", "145", "Dentro de plazo; Sin Resp IN; Prioridad alta"},
	{"4", "2025-05-25", "Sistema modular de casas (layout)", "Uso de trasferencia", "Servicio", "Alto",
		"Constructiva 4.0", "CON-777", "Ana González", "Cerrado", "No", "Ing. Paula Méndez", "Sí",
		"2025-06-14", "2025-09-12", "2025-09-10", "0", "Proy. cerrado; Fuera de plazo; Impacto alto; Prioridad baja"},
	{"5", "2025-03-06", "Impresión 3D de biopolímeros", "Comercial", "EBCT", "Medio",
		"BioFab LATAM", "BIO-022", "Equipo BioFab", "Cerrado", "No", "Dra. Camila Soto", "Sí",
		"2025-03-26", "2025-08-13", "2025-08-08", "0", "Proy. cerrado; Fuera de plazo; Prioridad baja"},
	{"6", "2025-07-14", "Plataforma de trazabilidad hospitalaria", "Uso de trasferencia", "Prototipo", "Medio",
		"Salud Digital", "SAL-115", "Ignacio Rojas", "Abierto", "Sí", "", "No",
		"2025-07-24", "2025-09-27", "", "130", "Fuera de plazo; Sin Resp IN; Prioridad alta"},
	{"7", "2025-09-07", "Marketplace de tecnología EBCT", "Conocimiento para futura investigacion", "Idea", "Bajo",
		"", "", "", "Abierto", "Sí", "MSc. Daniela Vidal", "Sí",
		"2025-09-12", "2025-11-21", "", "92,5", "Dentro de plazo; Prioridad media"},
	{"8", "2025-08-08", "Optimización logística forestal", "Conocimiento para futura investigacion", "Prototipo", "Alto",
		"CMPC Logística IA", "CMPC-LOG-09", "Equipo CMPC", "Abierto", "Sí", "", "No",
		"2025-08-09", "2025-10-07", "", "160", "Dentro de plazo; Impacto alto; Sin Resp IN; Prioridad alta"},
}

// SeedProjects returns the example portfolio in normalized form
func SeedProjects() []Project {
	projects := make([]Project, 0, len(seedRows))
	for _, row := range seedRows {
		p := projectFromRecord(row)
		p.Normalize()
		projects = append(projects, p)
	}
	return projects
}

// SeedIfEmpty loads the example portfolio when the table has no rows.
// Returns true when seeding happened.
func (r *Repository) SeedIfEmpty() (bool, error) {
	current, err := r.FetchAll()
	if err != nil {
		return false, err
	}
	if len(current) > 0 {
		return false, nil
	}

	if err := r.ReplaceAll(SeedProjects()); err != nil {
		return false, err
	}

	r.log.Info().Msg("Portfolio seeded with example projects")
	return true, nil
}

// projectFromRecord builds a project from a raw text record in column order.
// Shared by the seed data and the CSV importer.
func projectFromRecord(rec []string) Project {
	get := func(i int) string {
		if i < len(rec) {
			return rec[i]
		}
		return ""
	}

	id := 0
	if parsed := ParseLocalFloat(get(0)); parsed != nil {
		id = int(*parsed)
	}

	return Project{
		ID:                id,
		CreatedDate:       ParseDate(get(1)),
		Name:              get(2),
		TransferPotential: get(3),
		Status:            get(4),
		Impact:            get(5),
		PMName:            get(6),
		PMCode:            get(7),
		PMResponsible:     get(8),
		PMState:           get(9),
		PMActive:          get(10),
		InnovationLead:    get(11),
		HasInnovationLead: get(12),
		PMStartDate:       ParseDate(get(13)),
		PMDueDate:         ParseDate(get(14)),
		PMActualEndDate:   ParseDate(get(15)),
		Score:             ParseLocalFloat(get(16)),
		Recommendation:    get(17),
	}
}
