package ebct

import (
	"database/sql"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/mattn/go-sqlite3"
)

func setupEBCTDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
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
		)
	`)
	require.NoError(t, err)
	return db
}

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	catalog, err := LoadCatalog()
	require.NoError(t, err)
	return NewRepository(setupEBCTDB(t), catalog, zerolog.Nop())
}

func TestRepository_SaveEvaluationWritesFullCatalog(t *testing.T) {
	repo := newTestRepository(t)

	now := time.Date(2026, 5, 2, 11, 0, 0, 0, time.UTC)
	responses := map[int]Status{1: StatusMet, 2: StatusPartial}
	evaluatedAt, err := repo.SaveEvaluation(4, responses, now)
	require.NoError(t, err)
	assert.Equal(t, "2026-05-02 11:00:00", evaluatedAt)

	history, err := repo.GetHistory(4)
	require.NoError(t, err)
	require.Len(t, history, 34)
	for _, row := range history {
		assert.Equal(t, evaluatedAt, row.EvaluatedAt)
		assert.Equal(t, 1.0, row.Weight)
		assert.NotEmpty(t, row.CharacteristicName)
		assert.NotEmpty(t, row.PhaseName)
	}
}

func TestRepository_PartialScoreSurvivesRoundTrip(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.SaveEvaluation(4, map[int]Status{2: StatusPartial}, time.Now())
	require.NoError(t, err)

	responses, _, err := repo.LatestResponses(4)
	require.NoError(t, err)
	assert.Equal(t, StatusPartial, responses[2])
	assert.Equal(t, StatusNotMet, responses[1])
}

func TestRepository_GetLatestPicksNewestGroup(t *testing.T) {
	repo := newTestRepository(t)

	first := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)
	second := time.Date(2026, 4, 1, 12, 30, 0, 0, time.UTC)
	_, err := repo.SaveEvaluation(4, map[int]Status{1: StatusMet}, first)
	require.NoError(t, err)
	_, err = repo.SaveEvaluation(4, map[int]Status{1: StatusNotMet, 3: StatusMet}, second)
	require.NoError(t, err)

	latest, evaluatedAt, err := repo.GetLatest(4)
	require.NoError(t, err)
	assert.Equal(t, "2026-04-01 12:30:00", evaluatedAt)
	require.Len(t, latest, 34)

	responses, _, err := repo.LatestResponses(4)
	require.NoError(t, err)
	assert.Equal(t, StatusNotMet, responses[1])
	assert.Equal(t, StatusMet, responses[3])
}

func TestRepository_EmptyHistory(t *testing.T) {
	repo := newTestRepository(t)

	latest, evaluatedAt, err := repo.GetLatest(12)
	require.NoError(t, err)
	assert.Nil(t, latest)
	assert.Empty(t, evaluatedAt)

	responses, _, err := repo.LatestResponses(12)
	require.NoError(t, err)
	assert.Nil(t, responses)
}
