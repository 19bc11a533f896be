package cleanup

import (
	"database/sql"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ugclabs/innova/internal/modules/jobs"
)

func setupRetentionDBs(t *testing.T) (history, cache *sql.DB) {
	history, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { history.Close() })

	_, err = history.Exec(`
		CREATE TABLE trl_resultados (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			id_innovacion INTEGER,
			fecha_eval TEXT,
			dimension TEXT,
			nivel INTEGER,
			evidencia TEXT,
			trl_global REAL
		);
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
		);
	`)
	require.NoError(t, err)

	cache, err = sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })

	_, err = cache.Exec(`
		CREATE TABLE job_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			job_name TEXT NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			status TEXT NOT NULL,
			result BLOB
		)
	`)
	require.NoError(t, err)

	return history, cache
}

func insertMaturityGroup(t *testing.T, db *sql.DB, projectID int, fechaEval string) {
	t.Helper()
	for _, dim := range []string{"TRL", "BRL"} {
		_, err := db.Exec(
			`INSERT INTO trl_resultados (id_innovacion, fecha_eval, dimension, nivel, evidencia, trl_global)
			 VALUES (?, ?, ?, 3, '', 3.0)`,
			projectID, fechaEval, dim,
		)
		require.NoError(t, err)
	}
}

func insertEBCTGroup(t *testing.T, db *sql.DB, projectID int, fechaEval string) {
	t.Helper()
	_, err := db.Exec(
		`INSERT INTO ebct_evaluaciones (id_innovacion, fecha_eval, caracteristica_id, caracteristica_nombre, fase_id, fase_nombre, peso, cumple)
		 VALUES (?, ?, 1, 'Idea de negocio definida', 'incipiente', 'EBCT Incipiente', 1.0, 1.0)`,
		projectID, fechaEval,
	)
	require.NoError(t, err)
}

func countRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func TestHistoryRetentionJob_PrunesOldGroups(t *testing.T) {
	history, cache := setupRetentionDBs(t)
	runs := jobs.NewHistoryRepository(cache, zerolog.Nop())
	job := NewHistoryRetentionJob(history, 30, time.UTC, runs, zerolog.Nop())

	now := time.Now().UTC()
	old := now.AddDate(0, 0, -60).Format("2006-01-02 15:04:05")
	older := now.AddDate(0, 0, -90).Format("2006-01-02 15:04:05")
	recent := now.AddDate(0, 0, -1).Format("2006-01-02 15:04:05")

	insertMaturityGroup(t, history, 1, older)
	insertMaturityGroup(t, history, 1, old)
	insertMaturityGroup(t, history, 1, recent)
	insertEBCTGroup(t, history, 1, older)
	insertEBCTGroup(t, history, 1, recent)

	require.NoError(t, job.Run())

	assert.Equal(t, 2, countRows(t, history, "trl_resultados"))
	assert.Equal(t, 1, countRows(t, history, "ebct_evaluaciones"))

	var remaining string
	require.NoError(t, history.QueryRow("SELECT DISTINCT fecha_eval FROM trl_resultados").Scan(&remaining))
	assert.Equal(t, recent, remaining)
}

func TestHistoryRetentionJob_KeepsLatestGroupEvenWhenOld(t *testing.T) {
	history, cache := setupRetentionDBs(t)
	runs := jobs.NewHistoryRepository(cache, zerolog.Nop())
	job := NewHistoryRetentionJob(history, 30, time.UTC, runs, zerolog.Nop())

	now := time.Now().UTC()
	old := now.AddDate(0, 0, -60).Format("2006-01-02 15:04:05")
	older := now.AddDate(0, 0, -90).Format("2006-01-02 15:04:05")

	insertMaturityGroup(t, history, 1, older)
	insertMaturityGroup(t, history, 1, old)

	require.NoError(t, job.Run())

	rows, err := history.Query("SELECT DISTINCT fecha_eval FROM trl_resultados")
	require.NoError(t, err)
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var d string
		require.NoError(t, rows.Scan(&d))
		dates = append(dates, d)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{old}, dates)
}

func TestHistoryRetentionJob_DisabledWhenZeroDays(t *testing.T) {
	history, cache := setupRetentionDBs(t)
	runs := jobs.NewHistoryRepository(cache, zerolog.Nop())
	job := NewHistoryRetentionJob(history, 0, time.UTC, runs, zerolog.Nop())

	old := time.Now().UTC().AddDate(0, 0, -400).Format("2006-01-02 15:04:05")
	insertMaturityGroup(t, history, 1, old)

	require.NoError(t, job.Run())
	assert.Equal(t, 2, countRows(t, history, "trl_resultados"))

	recorded, err := runs.Recent("history_retention", 1)
	require.NoError(t, err)
	assert.Empty(t, recorded)
}

func TestHistoryRetentionJob_RecordsRun(t *testing.T) {
	history, cache := setupRetentionDBs(t)
	runs := jobs.NewHistoryRepository(cache, zerolog.Nop())
	job := NewHistoryRetentionJob(history, 30, time.UTC, runs, zerolog.Nop())

	old := time.Now().UTC().AddDate(0, 0, -60).Format("2006-01-02 15:04:05")
	recent := time.Now().UTC().Format("2006-01-02 15:04:05")
	insertMaturityGroup(t, history, 1, old)
	insertMaturityGroup(t, history, 1, recent)

	require.NoError(t, job.Run())

	recorded, err := runs.Recent("history_retention", 1)
	require.NoError(t, err)
	require.Len(t, recorded, 1)
	assert.Equal(t, jobs.StatusCompleted, recorded[0].Status)
	assert.EqualValues(t, 2, recorded[0].Result["maturity_rows"])
}
