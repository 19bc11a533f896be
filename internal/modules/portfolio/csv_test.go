package portfolio

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalogs() map[string][]string {
	return map[string][]string{
		"estatus":                 {"Idea", "MVP", "Prototipo"},
		"impacto":                 {"Alto", "Medio", "Bajo"},
		"estado_pm":               {"Abierto", "Cerrado"},
		"activo_pm":               {"Si", "No"},
		"potencial_transferencia": {"Comercial", "Bien publico"},
		"tiene_resp_in":           {"Si", "No"},
	}
}

const importHeader = "id_innovacion,fecha_creacion,nombre_innovacion,potencial_transferencia,estatus,impacto,nombre_pm,codigo_pm,responsable_pm,estado_pm,activo_pm,responsable_innovacion,tiene_resp_in,fecha_inicio_pm,fecha_termino_pm,fecha_termino_real_pm"

func TestImporter_ReplaceMode(t *testing.T) {
	repo := newTestRepository(t)
	require.NoError(t, repo.ReplaceAll(SeedProjects()))

	file := importHeader + "\n" +
		"10,2025-01-12,Sensor forestal,Comercial,MVP,Alto,Ana Torres,PM-101,Ana Torres,Abierto,Si,Dr. Rivas,Si,2025-02-01,2025-12-01,\n"

	im := NewImporter(repo)
	result, err := im.Import(strings.NewReader(file), ImportReplace, testCatalogs())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Rows)

	projects, err := repo.FetchAll()
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, 10, projects[0].ID)
	assert.Equal(t, "Sensor forestal", projects[0].Name)
}

func TestImporter_AppendMode(t *testing.T) {
	repo := newTestRepository(t)
	require.NoError(t, repo.ReplaceAll(SeedProjects()))

	file := importHeader + "\n" +
		"100,2025-01-12,Proyecto nuevo,Comercial,MVP,Alto,,,,Abierto,Si,,Si,,,\n"

	im := NewImporter(repo)
	result, err := im.Import(strings.NewReader(file), ImportAppend, testCatalogs())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Rows)

	projects, err := repo.FetchAll()
	require.NoError(t, err)
	assert.Len(t, projects, 9)
}

func TestImporter_OutOfCatalogValuesCleared(t *testing.T) {
	repo := newTestRepository(t)

	file := importHeader + "\n" +
		"1,2025-01-12,Proyecto,Comercial,Inexistente,Altisimo,,,,Abierto,Si,,Si,,,\n"

	im := NewImporter(repo)
	result, err := im.Import(strings.NewReader(file), ImportReplace, testCatalogs())
	require.NoError(t, err)

	require.NotNil(t, result.Cleared)
	assert.Equal(t, []string{"Inexistente"}, result.Cleared["estatus"])
	assert.Equal(t, []string{"Altisimo"}, result.Cleared["impacto"])
	assert.NotEmpty(t, result.Warnings)

	projects, err := repo.FetchAll()
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Empty(t, projects[0].Status)
	assert.Empty(t, projects[0].Impact)
	// In-catalog values survive untouched
	assert.Equal(t, "Comercial", projects[0].TransferPotential)
}

func TestImporter_MalformedFileAbortsWithoutMutation(t *testing.T) {
	repo := newTestRepository(t)
	require.NoError(t, repo.ReplaceAll(SeedProjects()))

	im := NewImporter(repo)

	// Non-numeric id
	file := importHeader + "\n" + "abc,,,,,,,,,,,,,,,\n"
	_, err := im.Import(strings.NewReader(file), ImportReplace, testCatalogs())
	require.Error(t, err)

	// Missing id column entirely
	_, err = im.Import(strings.NewReader("nombre\nX\n"), ImportReplace, testCatalogs())
	require.Error(t, err)

	// Empty file body
	_, err = im.Import(strings.NewReader(importHeader+"\n"), ImportReplace, testCatalogs())
	require.Error(t, err)

	projects, err := repo.FetchAll()
	require.NoError(t, err)
	assert.Len(t, projects, 8, "failed imports must not touch persisted state")
}

func TestImporter_RestoresResultColumns(t *testing.T) {
	repo := newTestRepository(t)
	require.NoError(t, repo.ReplaceAll(SeedProjects()))

	// Template-style file for an existing project: no result columns
	file := importHeader + "\n" +
		"1,2025-06-24,Sensor IoT para riego eficiente,Comercial,MVP,Alto,,,,Abierto,Si,Dr. Juan Pérez,Si,2025-07-24,2025-09-17,\n"

	im := NewImporter(repo)
	_, err := im.Import(strings.NewReader(file), ImportReplace, testCatalogs())
	require.NoError(t, err)

	projects, err := repo.FetchAll()
	require.NoError(t, err)
	require.Len(t, projects, 1)
	require.NotNil(t, projects[0].Score, "persisted score must survive re-import")
	assert.Equal(t, 132.5, *projects[0].Score)
	assert.NotEmpty(t, projects[0].Recommendation)
}

func TestImporter_DuplicateIDKeepsLast(t *testing.T) {
	repo := newTestRepository(t)

	file := importHeader + "\n" +
		"1,,Primero,Comercial,MVP,Alto,,,,Abierto,Si,,Si,,,\n" +
		"1,,Segundo,Comercial,MVP,Alto,,,,Abierto,Si,,Si,,,\n"

	im := NewImporter(repo)
	result, err := im.Import(strings.NewReader(file), ImportReplace, testCatalogs())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Rows)
	assert.NotEmpty(t, result.Warnings)

	projects, err := repo.FetchAll()
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "Segundo", projects[0].Name)
}

func TestExportRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, SeedProjects()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 9) // header + 8 rows
	assert.True(t, strings.HasPrefix(lines[0], "id_innovacion,"))
	assert.Contains(t, buf.String(), "Sensor IoT para riego eficiente")
}

func TestWriteTemplate_ExcludesResultColumns(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTemplate(&buf))

	header := strings.TrimSpace(buf.String())
	assert.NotContains(t, header, "evaluacion_numerica")
	assert.NotContains(t, header, "sugerencia_rapida")
	assert.Contains(t, header, "id_innovacion")
	assert.Contains(t, header, "fecha_termino_real_pm")
}
