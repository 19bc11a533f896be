package reliability

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/ugclabs/innova/internal/database"
	"github.com/ugclabs/innova/internal/events"
)

func newPortfolioDB(t *testing.T, dataDir string) *database.DB {
	t.Helper()
	db, err := database.New(database.Config{
		Path:    filepath.Join(dataDir, "portfolio.db"),
		Profile: database.ProfileStandard,
		Name:    "portfolio",
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Conn().Exec("CREATE TABLE innovaciones (id_innovacion INTEGER PRIMARY KEY, nombre_innovacion TEXT)")
	require.NoError(t, err)
	_, err = db.Conn().Exec("INSERT INTO innovaciones (nombre_innovacion) VALUES ('Sensor IoT'), ('Biofiltro')")
	require.NoError(t, err)
	return db
}

func TestBackupService_Snapshot(t *testing.T) {
	tempDir := t.TempDir()
	dataDir := filepath.Join(tempDir, "data")
	backupDir := filepath.Join(tempDir, "backups")
	require.NoError(t, os.MkdirAll(dataDir, 0755))

	db := newPortfolioDB(t, dataDir)

	svc := NewBackupService(map[string]*database.DB{"portfolio": db}, backupDir, 3, nil, nil, zerolog.Nop())
	require.NoError(t, svc.Snapshot())

	latest, err := svc.LatestSnapshot()
	require.NoError(t, err)
	require.NotEmpty(t, latest)

	backupPath := filepath.Join(latest, "portfolio.db")
	backupDB, err := sql.Open("sqlite", backupPath)
	require.NoError(t, err)
	defer backupDB.Close()

	var count int
	require.NoError(t, backupDB.QueryRow("SELECT COUNT(*) FROM innovaciones").Scan(&count))
	assert.Equal(t, 2, count)
}

func TestBackupService_RotateKeepsNewest(t *testing.T) {
	tempDir := t.TempDir()
	dataDir := filepath.Join(tempDir, "data")
	backupDir := filepath.Join(tempDir, "backups")
	require.NoError(t, os.MkdirAll(dataDir, 0755))

	db := newPortfolioDB(t, dataDir)
	svc := NewBackupService(map[string]*database.DB{"portfolio": db}, backupDir, 2, nil, nil, zerolog.Nop())

	// Pre-seed old snapshot directories below the current timestamps
	for _, name := range []string{"2020-01-01_000000", "2020-01-02_000000"} {
		require.NoError(t, os.MkdirAll(filepath.Join(backupDir, name), 0755))
	}

	require.NoError(t, svc.Snapshot())

	entries, err := os.ReadDir(backupDir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Equal(t, "2020-01-02_000000", entries[0].Name())
}

func TestBackupService_PublishesEvent(t *testing.T) {
	tempDir := t.TempDir()
	dataDir := filepath.Join(tempDir, "data")
	require.NoError(t, os.MkdirAll(dataDir, 0755))

	db := newPortfolioDB(t, dataDir)
	bus := events.NewBus(zerolog.Nop())

	var got events.Event
	bus.OnEvent(func(e events.Event) { got = e })

	svc := NewBackupService(map[string]*database.DB{"portfolio": db}, filepath.Join(tempDir, "backups"), 3, nil, bus, zerolog.Nop())
	require.NoError(t, svc.Snapshot())

	assert.Equal(t, events.BackupCompleted, got.Type)
	data, ok := got.Data.(*events.BackupCompletedData)
	require.True(t, ok)
	assert.Equal(t, 1, data.Databases)
	assert.False(t, data.Uploaded)
}

type fakeUploadAPI struct {
	keys []string
}

func (f *fakeUploadAPI) Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	f.keys = append(f.keys, *input.Key)
	_, _ = io.Copy(io.Discard, input.Body)
	return &manager.UploadOutput{}, nil
}

func TestBackupService_UploadsSnapshots(t *testing.T) {
	tempDir := t.TempDir()
	dataDir := filepath.Join(tempDir, "data")
	require.NoError(t, os.MkdirAll(dataDir, 0755))

	db := newPortfolioDB(t, dataDir)

	fake := &fakeUploadAPI{}
	uploader, err := NewS3Uploader(context.Background(), "innova-backups", "", "snapshots", "", "", WithUploadAPI(fake))
	require.NoError(t, err)

	svc := NewBackupService(map[string]*database.DB{"portfolio": db}, filepath.Join(tempDir, "backups"), 3, uploader, nil, zerolog.Nop())
	require.NoError(t, svc.Snapshot())

	require.Len(t, fake.keys, 1)
	assert.Contains(t, fake.keys[0], "snapshots/")
	assert.Contains(t, fake.keys[0], "/portfolio.db")
}

func TestS3Uploader_KeyPrefix(t *testing.T) {
	fake := &fakeUploadAPI{}
	uploader, err := NewS3Uploader(context.Background(), "bucket", "us-east-1", "/backups/", "", "", WithUploadAPI(fake))
	require.NoError(t, err)

	err = uploader.Upload(context.Background(), "2026-01-01_000000/history.db", bytes.NewReader([]byte("x")))
	require.NoError(t, err)
	require.Len(t, fake.keys, 1)
	assert.Equal(t, "backups/2026-01-01_000000/history.db", fake.keys[0])
}

func TestBackupService_LatestSnapshotEmpty(t *testing.T) {
	svc := NewBackupService(nil, filepath.Join(t.TempDir(), "missing"), 3, nil, nil, zerolog.Nop())
	latest, err := svc.LatestSnapshot()
	require.NoError(t, err)
	assert.Empty(t, latest)
}
