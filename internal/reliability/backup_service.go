// Package reliability provides backup snapshots of the SQLite databases.
package reliability

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/ugclabs/innova/internal/database"
	"github.com/ugclabs/innova/internal/events"
	"github.com/ugclabs/innova/internal/modules/jobs"
)

// BackupService writes timestamped snapshots of every database into the
// backup directory and keeps the most recent ones.
type BackupService struct {
	databases map[string]*database.DB
	backupDir string
	keep      int
	uploader  *S3Uploader
	bus       *events.Bus
	log       zerolog.Logger
}

// NewBackupService creates a new backup service. uploader may be nil when
// off-site uploads are not configured.
func NewBackupService(databases map[string]*database.DB, backupDir string, keep int, uploader *S3Uploader, bus *events.Bus, log zerolog.Logger) *BackupService {
	return &BackupService{
		databases: databases,
		backupDir: backupDir,
		keep:      keep,
		uploader:  uploader,
		bus:       bus,
		log:       log.With().Str("service", "backup").Logger(),
	}
}

// Snapshot backs up every database into a new timestamped directory,
// verifies each copy, uploads when configured and rotates old snapshots.
func (s *BackupService) Snapshot() error {
	start := time.Now()
	stamp := start.Format("2006-01-02_150405")
	snapshotDir := filepath.Join(s.backupDir, stamp)
	if err := os.MkdirAll(snapshotDir, 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	backed := 0
	uploaded := false
	for name, db := range s.databases {
		backupPath := filepath.Join(snapshotDir, name+".db")

		if err := s.backupDatabase(db, backupPath); err != nil {
			s.log.Error().Err(err).Str("database", name).Msg("Failed to backup database")
			continue
		}

		if err := s.verifyBackup(backupPath); err != nil {
			s.log.Error().Err(err).Str("database", name).Msg("Backup verification failed")
			os.Remove(backupPath)
			continue
		}
		backed++

		if s.uploader != nil {
			if err := s.uploadSnapshot(stamp, name, backupPath); err != nil {
				s.log.Error().Err(err).Str("database", name).Msg("Failed to upload backup")
			} else {
				uploaded = true
			}
		}
	}

	if backed == 0 {
		os.RemoveAll(snapshotDir)
		return fmt.Errorf("no database could be backed up")
	}

	if err := s.rotate(); err != nil {
		s.log.Error().Err(err).Msg("Failed to rotate old snapshots")
		// Don't fail - backup succeeded
	}

	s.log.Info().
		Dur("duration_ms", time.Since(start)).
		Str("snapshot_dir", snapshotDir).
		Int("databases", backed).
		Msg("Backup snapshot completed")

	if s.bus != nil {
		s.bus.Publish(&events.BackupCompletedData{Databases: backed, Uploaded: uploaded})
	}

	return nil
}

// backupDatabase copies one database using SQLite's VACUUM INTO, which
// produces a consistent copy without WAL files.
func (s *BackupService) backupDatabase(db *database.DB, backupPath string) error {
	_, err := db.Conn().Exec(fmt.Sprintf("VACUUM INTO '%s'", backupPath))
	if err != nil {
		return fmt.Errorf("VACUUM INTO failed: %w", err)
	}

	info, err := os.Stat(backupPath)
	if err != nil {
		return fmt.Errorf("failed to stat backup: %w", err)
	}

	s.log.Debug().
		Str("database", db.Name()).
		Int64("size_bytes", info.Size()).
		Msg("Backup created")

	return nil
}

// verifyBackup opens the copy and runs an integrity check.
func (s *BackupService) verifyBackup(backupPath string) error {
	backupDB, err := sql.Open("sqlite", backupPath)
	if err != nil {
		return fmt.Errorf("failed to open backup: %w", err)
	}
	defer backupDB.Close()

	var result string
	if err := backupDB.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check query failed: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check failed: %s", result)
	}
	return nil
}

func (s *BackupService) uploadSnapshot(stamp, name, backupPath string) error {
	f, err := os.Open(backupPath)
	if err != nil {
		return fmt.Errorf("failed to open snapshot for upload: %w", err)
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	return s.uploader.Upload(ctx, stamp+"/"+name+".db", f)
}

// rotate deletes the oldest snapshot directories beyond the keep limit.
// Directory names are timestamps, so lexicographic order is chronological.
func (s *BackupService) rotate() error {
	entries, err := os.ReadDir(s.backupDir)
	if err != nil {
		return fmt.Errorf("failed to read backup directory: %w", err)
	}

	var snapshots []string
	for _, entry := range entries {
		if entry.IsDir() {
			snapshots = append(snapshots, entry.Name())
		}
	}

	if s.keep <= 0 || len(snapshots) <= s.keep {
		return nil
	}

	sort.Strings(snapshots)
	for _, name := range snapshots[:len(snapshots)-s.keep] {
		path := filepath.Join(s.backupDir, name)
		if err := os.RemoveAll(path); err != nil {
			s.log.Warn().Err(err).Str("path", path).Msg("Failed to delete old snapshot")
		} else {
			s.log.Debug().Str("path", path).Msg("Deleted old snapshot")
		}
	}

	return nil
}

// LatestSnapshot returns the path of the most recent snapshot directory,
// or an empty string when no snapshot exists.
func (s *BackupService) LatestSnapshot() (string, error) {
	entries, err := os.ReadDir(s.backupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read backup directory: %w", err)
	}

	latest := ""
	for _, entry := range entries {
		if entry.IsDir() && entry.Name() > latest {
			latest = entry.Name()
		}
	}
	if latest == "" {
		return "", nil
	}
	return filepath.Join(s.backupDir, latest), nil
}

// BackupJob wraps BackupService.Snapshot for the scheduler.
type BackupJob struct {
	service *BackupService
	runs    *jobs.HistoryRepository
}

// NewBackupJob creates a new backup job
func NewBackupJob(service *BackupService, runs *jobs.HistoryRepository) *BackupJob {
	return &BackupJob{service: service, runs: runs}
}

// Name returns the job name for the scheduler
func (j *BackupJob) Name() string {
	return "backup"
}

// Run executes the snapshot
func (j *BackupJob) Run() error {
	return j.runs.Record(j.Name(), time.Now(), func() (map[string]interface{}, error) {
		if err := j.service.Snapshot(); err != nil {
			return nil, err
		}
		latest, _ := j.service.LatestSnapshot()
		return map[string]interface{}{"snapshot": latest}, nil
	})
}
