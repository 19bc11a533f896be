// Package main is the entry point for the innovation maturity platform.
// The application tracks an innovation portfolio through three phases:
// prioritisation scoring, IRL maturity evaluation and EBCT assessment.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ugclabs/innova/internal/config"
	"github.com/ugclabs/innova/internal/database"
	"github.com/ugclabs/innova/internal/events"
	"github.com/ugclabs/innova/internal/modules/cleanup"
	"github.com/ugclabs/innova/internal/modules/dashboard"
	"github.com/ugclabs/innova/internal/modules/ebct"
	"github.com/ugclabs/innova/internal/modules/jobs"
	"github.com/ugclabs/innova/internal/modules/maturity"
	"github.com/ugclabs/innova/internal/modules/portfolio"
	"github.com/ugclabs/innova/internal/modules/scoring"
	"github.com/ugclabs/innova/internal/reliability"
	"github.com/ugclabs/innova/internal/scheduler"
	"github.com/ugclabs/innova/internal/server"
	"github.com/ugclabs/innova/internal/session"
	"github.com/ugclabs/innova/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Str("timezone", cfg.Timezone).Msg("Starting innova")

	// Three-database layout: portfolio state, append-only evaluation history
	// and ephemeral job bookkeeping.
	portfolioDB, err := database.New(database.Config{
		Path:    cfg.DatabasePath("portfolio.db"),
		Profile: database.ProfileStandard,
		Name:    "portfolio",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open portfolio database")
	}
	defer portfolioDB.Close()

	historyDB, err := database.New(database.Config{
		Path:    cfg.DatabasePath("history.db"),
		Profile: database.ProfileHistory,
		Name:    "history",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open history database")
	}
	defer historyDB.Close()

	cacheDB, err := database.New(database.Config{
		Path:    cfg.DatabasePath("cache.db"),
		Profile: database.ProfileCache,
		Name:    "cache",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open cache database")
	}
	defer cacheDB.Close()

	for _, db := range []*database.DB{portfolioDB, historyDB, cacheDB} {
		if err := db.Migrate(); err != nil {
			log.Fatal().Err(err).Str("database", db.Name()).Msg("Failed to apply schema")
		}
	}

	maturityCatalog, err := maturity.LoadCatalog()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load maturity catalog")
	}
	ebctCatalog, err := ebct.LoadCatalog()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load EBCT catalog")
	}

	portfolioRepo := portfolio.NewRepository(portfolioDB.Conn(), log)
	maturityRepo := maturity.NewRepository(historyDB.Conn(), log)
	ebctRepo := ebct.NewRepository(historyDB.Conn(), ebctCatalog, log)
	jobsRepo := jobs.NewHistoryRepository(cacheDB.Conn(), log)

	scoringService := scoring.NewService(log)
	maturityService := maturity.NewService(maturityCatalog, log)
	ebctService := ebct.NewService(ebctCatalog, log)
	dashboardService := dashboard.NewService(portfolioRepo, maturityRepo, ebctRepo, maturityCatalog, log)

	if seeded, err := portfolioRepo.SeedIfEmpty(); err != nil {
		log.Error().Err(err).Msg("Failed to seed portfolio")
	} else if seeded {
		log.Info().Msg("Seeded portfolio with the base project list")
	}

	bus := events.NewBus(log)
	sessions := session.NewManager(cfg.SessionTTL, log)

	var uploader *reliability.S3Uploader
	if cfg.BackupEnabled && cfg.BackupS3Bucket != "" {
		uploader, err = reliability.NewS3Uploader(context.Background(),
			cfg.BackupS3Bucket, cfg.BackupS3Region, "snapshots",
			cfg.BackupS3AccessKey, cfg.BackupS3SecretKey)
		if err != nil {
			log.Error().Err(err).Msg("Failed to configure S3 uploads, backups stay local")
			uploader = nil
		}
	}

	backupService := reliability.NewBackupService(map[string]*database.DB{
		"portfolio": portfolioDB,
		"history":   historyDB,
		"cache":     cacheDB,
	}, filepath.Join(cfg.DataDir, "backups"), cfg.BackupKeep, uploader, bus, log)

	sched := scheduler.New(log)
	if err := sched.AddJob("0 0 3 * * *", cleanup.NewHistoryRetentionJob(
		historyDB.Conn(), cfg.HistoryRetentionDays, cfg.Location, jobsRepo, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register history retention job")
	}
	if cfg.BackupEnabled {
		if err := sched.AddJob("0 30 3 * * *", reliability.NewBackupJob(backupService, jobsRepo)); err != nil {
			log.Fatal().Err(err).Msg("Failed to register backup job")
		}
	}
	if err := sched.AddJob("0 0 * * * *", cleanup.NewSessionPruneJob(sessions, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register session prune job")
	}
	sched.Start()

	srv := server.New(server.Config{
		Log:              log,
		Config:           cfg,
		Port:             cfg.Port,
		DevMode:          cfg.DevMode,
		Bus:              bus,
		Sessions:         sessions,
		PortfolioDB:      portfolioDB,
		HistoryDB:        historyDB,
		CacheDB:          cacheDB,
		PortfolioRepo:    portfolioRepo,
		ScoringService:   scoringService,
		MaturityService:  maturityService,
		MaturityRepo:     maturityRepo,
		EBCTService:      ebctService,
		EBCTRepo:         ebctRepo,
		DashboardService: dashboardService,
		JobsRepo:         jobsRepo,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	sched.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
