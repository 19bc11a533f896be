package dashboard

import (
	"database/sql"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ugclabs/innova/internal/modules/ebct"
	"github.com/ugclabs/innova/internal/modules/maturity"
	"github.com/ugclabs/innova/internal/modules/portfolio"

	_ "github.com/mattn/go-sqlite3"
)

func openMemoryDB(t *testing.T, schema string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	_, err = db.Exec(schema)
	require.NoError(t, err)
	return db
}

func newTestService(t *testing.T) (*Service, *portfolio.Repository, *maturity.Repository, *ebct.Repository) {
	t.Helper()

	portfolioDB := openMemoryDB(t, `
		CREATE TABLE innovaciones (
			id_innovacion INTEGER PRIMARY KEY,
			fecha_creacion TEXT,
			nombre_innovacion TEXT,
			potencial_transferencia TEXT,
			estatus TEXT,
			impacto TEXT,
			nombre_pm TEXT,
			codigo_pm TEXT,
			responsable_pm TEXT,
			estado_pm TEXT,
			activo_pm TEXT,
			responsable_innovacion TEXT,
			tiene_resp_in TEXT,
			fecha_inicio_pm TEXT,
			fecha_termino_pm TEXT,
			fecha_termino_real_pm TEXT,
			evaluacion_numerica REAL,
			sugerencia_rapida TEXT
		)`)
	historyDB := openMemoryDB(t, `
		CREATE TABLE trl_resultados (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			id_innovacion INTEGER NOT NULL,
			fecha_eval TEXT NOT NULL,
			dimension TEXT NOT NULL,
			nivel INTEGER,
			evidencia TEXT,
			trl_global REAL
		)`)
	_, err := historyDB.Exec(`
		CREATE TABLE ebct_evaluaciones (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			id_innovacion INTEGER NOT NULL,
			fecha_eval TEXT NOT NULL,
			caracteristica_id INTEGER NOT NULL,
			caracteristica_nombre TEXT NOT NULL,
			fase_id TEXT NOT NULL,
			fase_nombre TEXT NOT NULL,
			peso REAL NOT NULL,
			cumple REAL NOT NULL
		)`)
	require.NoError(t, err)

	maturityCatalog, err := maturity.LoadCatalog()
	require.NoError(t, err)
	ebctCatalog, err := ebct.LoadCatalog()
	require.NoError(t, err)

	portfolioRepo := portfolio.NewRepository(portfolioDB, zerolog.Nop())
	maturityRepo := maturity.NewRepository(historyDB, zerolog.Nop())
	ebctRepo := ebct.NewRepository(historyDB, ebctCatalog, zerolog.Nop())

	svc := NewService(portfolioRepo, maturityRepo, ebctRepo, maturityCatalog, zerolog.Nop())
	return svc, portfolioRepo, maturityRepo, ebctRepo
}

func saveEvaluation(t *testing.T, repo *maturity.Repository, projectID int, levels map[string]int, global float64, at time.Time) {
	t.Helper()
	dimensions := []struct{ id, label string }{
		{"TRL", "Tecnológico"}, {"BRL", "Negocio/Modelo"}, {"CRL", "Clientes/Mercado"},
		{"IPRL", "Propiedad Intelectual"}, {"TmRL", "Equipo/Capacidades"}, {"FRL", "Finanzas/Riesgo"},
	}
	results := make([]maturity.DimensionResult, 0, len(dimensions))
	for _, dim := range dimensions {
		result := maturity.DimensionResult{Dimension: dim.id, Label: dim.label}
		if level, ok := levels[dim.id]; ok {
			value := level
			result.Level = &value
		}
		results = append(results, result)
	}
	_, err := repo.SaveResult(projectID, results, global, at)
	require.NoError(t, err)
}

func TestRadar_NoHistory(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	radar, err := svc.Radar(1)
	require.NoError(t, err)
	assert.Nil(t, radar)
}

func TestRadar_LatestEvaluation(t *testing.T) {
	svc, _, maturityRepo, _ := newTestService(t)

	saveEvaluation(t, maturityRepo, 1, map[string]int{"TRL": 3, "CRL": 2}, 2.5,
		time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC))
	saveEvaluation(t, maturityRepo, 1, map[string]int{"TRL": 5, "CRL": 4}, 4.5,
		time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))

	radar, err := svc.Radar(1)
	require.NoError(t, err)
	require.NotNil(t, radar)
	assert.Equal(t, "2026-03-01 10:00:00", radar.EvaluatedAt)
	require.NotNil(t, radar.Global)
	assert.Equal(t, 4.5, *radar.Global)

	require.Len(t, radar.Points, 6)
	byDim := make(map[string]RadarPoint)
	for _, point := range radar.Points {
		byDim[point.Dimension] = point
	}
	assert.Equal(t, 5.0, byDim["TRL"].Level)
	assert.Equal(t, 4.0, byDim["CRL"].Level)
	assert.Equal(t, 0.0, byDim["FRL"].Level, "unachieved dimensions plot at zero")
	assert.Equal(t, "Tecnológico", byDim["TRL"].Label)
}

func TestHeatmap(t *testing.T) {
	svc, portfolioRepo, maturityRepo, _ := newTestService(t)

	require.NoError(t, portfolioRepo.ReplaceAll([]portfolio.Project{
		{ID: 1, Name: "Sensor IoT"},
		{ID: 2, Name: "Bioplástico"},
	}))
	saveEvaluation(t, maturityRepo, 1, map[string]int{"TRL": 4}, 4.0, time.Now())
	saveEvaluation(t, maturityRepo, 2, map[string]int{"BRL": 2, "FRL": 3}, 2.5, time.Now())

	rows, err := svc.Heatmap()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Sensor IoT", rows[0].ProjectName)
	assert.Equal(t, map[string]int{"TRL": 4}, rows[0].Levels)
	assert.Equal(t, map[string]int{"BRL": 2, "FRL": 3}, rows[1].Levels)
}

func TestSummary(t *testing.T) {
	svc, portfolioRepo, maturityRepo, ebctRepo := newTestService(t)

	require.NoError(t, portfolioRepo.ReplaceAll([]portfolio.Project{
		{ID: 1, Name: "Sensor IoT"},
		{ID: 2, Name: "Bioplástico"},
		{ID: 3, Name: "Dron agrícola"},
	}))
	saveEvaluation(t, maturityRepo, 1, map[string]int{"TRL": 4}, 4.0, time.Now())
	saveEvaluation(t, maturityRepo, 2, map[string]int{"BRL": 2}, 2.0, time.Now())
	_, err := ebctRepo.SaveEvaluation(1, map[int]ebct.Status{1: ebct.StatusMet}, time.Now())
	require.NoError(t, err)

	summary, err := svc.Summary()
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Projects)
	assert.Equal(t, 2, summary.EvaluatedMaturity)
	assert.Equal(t, 1, summary.EvaluatedEBCT)
	require.NotNil(t, summary.MeanGlobal)
	assert.InDelta(t, 3.0, *summary.MeanGlobal, 1e-9)
}
