// Package database provides database connection and initialization functionality.
package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

//go:embed schemas/*.sql
var schemaFS embed.FS

// DatabaseProfile defines different configuration profiles for databases
type DatabaseProfile string

const (
	// ProfileHistory - Maximum safety for the append-only evaluation trail
	ProfileHistory DatabaseProfile = "history"
	// ProfileCache - Maximum speed for ephemeral data
	ProfileCache DatabaseProfile = "cache"
	// ProfileStandard - Balanced configuration for most databases
	ProfileStandard DatabaseProfile = "standard"
)

// DB wraps the database connection with production-grade configuration
type DB struct {
	conn    *sql.DB
	path    string
	profile DatabaseProfile
	name    string // Database name for logging and schema lookup
}

// Config holds database configuration
type Config struct {
	Path    string
	Profile DatabaseProfile
	Name    string // Friendly name (e.g., "portfolio", "history", "cache")
}

// New creates a new database connection with production-grade configuration
func New(cfg Config) (*DB, error) {
	// file: URIs (in-memory databases in tests) skip filepath handling
	if !strings.HasPrefix(cfg.Path, "file:") {
		absPath, err := filepath.Abs(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve database path to absolute: %w", err)
		}
		dir := filepath.Dir(absPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		cfg.Path = absPath
	}

	if cfg.Profile == "" {
		cfg.Profile = ProfileStandard
	}

	connStr := buildConnectionString(cfg.Path, cfg.Profile)

	conn, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", cfg.Name, err)
	}

	configureConnectionPool(conn, cfg.Profile)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := conn.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database %s: %w", cfg.Name, err)
	}

	return &DB{
		conn:    conn,
		path:    cfg.Path,
		profile: cfg.Profile,
		name:    cfg.Name,
	}, nil
}

// buildConnectionString creates SQLite connection string with profile-specific PRAGMAs
func buildConnectionString(path string, profile DatabaseProfile) string {
	// WAL mode for all databases
	connStr := path + "?_pragma=journal_mode(WAL)"

	switch profile {
	case ProfileHistory:
		// Maximum safety - the evaluation history is the audit trail
		connStr += "&_pragma=synchronous(FULL)"
		connStr += "&_pragma=auto_vacuum(NONE)" // Never shrink (append-only)

	case ProfileCache:
		// Maximum speed - ephemeral data
		connStr += "&_pragma=synchronous(OFF)"
		connStr += "&_pragma=auto_vacuum(FULL)"
		connStr += "&_pragma=temp_store(MEMORY)"

	case ProfileStandard:
		connStr += "&_pragma=synchronous(NORMAL)"
		connStr += "&_pragma=auto_vacuum(INCREMENTAL)"
		connStr += "&_pragma=temp_store(MEMORY)"
	}

	// Common PRAGMAs for all profiles
	connStr += "&_pragma=foreign_keys(1)"
	connStr += "&_pragma=wal_autocheckpoint(1000)"
	connStr += "&_pragma=cache_size(-64000)" // 64MB cache (negative = KB)

	return connStr
}

// configureConnectionPool sets up connection pool for long-term operation
func configureConnectionPool(conn *sql.DB, profile DatabaseProfile) {
	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(24 * time.Hour)
	conn.SetConnMaxIdleTime(30 * time.Minute)

	// Cache database is accessed rarely, keep the pool small
	if profile == ProfileCache {
		conn.SetMaxOpenConns(10)
		conn.SetMaxIdleConns(2)
	}
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying sql.DB connection.
// Used by repositories to execute queries.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Name returns the database name for logging
func (db *DB) Name() string {
	return db.name
}

// Profile returns the database profile
func (db *DB) Profile() DatabaseProfile {
	return db.profile
}

// Path returns the database file path
func (db *DB) Path() string {
	return db.path
}

// Migrate applies the embedded schema for this database.
// Each database name maps to one schema file; the schema files only use
// CREATE ... IF NOT EXISTS statements so Migrate is safe to run on every start.
func (db *DB) Migrate() error {
	schemaFiles := map[string]string{
		"portfolio": "portfolio_schema.sql",
		"history":   "history_schema.sql",
		"cache":     "cache_schema.sql",
	}

	schemaFile, ok := schemaFiles[db.name]
	if !ok {
		// Unknown database name, nothing to apply
		return nil
	}

	content, err := schemaFS.ReadFile("schemas/" + schemaFile)
	if err != nil {
		return fmt.Errorf("failed to read embedded schema %s: %w", schemaFile, err)
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction for schema %s: %w", schemaFile, err)
	}

	if _, err := tx.Exec(string(content)); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to execute schema %s for %s: %w", schemaFile, db.name, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schema %s for %s: %w", schemaFile, db.name, err)
	}

	return nil
}

// Begin starts a new transaction
func (db *DB) Begin() (*sql.Tx, error) {
	return db.conn.Begin()
}

// BeginTx starts a new transaction with options
func (db *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	return db.conn.BeginTx(ctx, opts)
}

// WithTransaction executes a function within a database transaction.
// If the function returns an error or panics, the transaction is rolled back;
// otherwise it is committed.
func WithTransaction(db *sql.DB, fn func(*sql.Tx) error) (err error) {
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
