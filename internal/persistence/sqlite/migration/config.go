package migration

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteConfig holds SQLite-specific database configuration
type SQLiteConfig struct {
	// DSN is the database file path, optionally followed by driver query parameters
	DSN string

	// BusyTimeout sets how long to wait for database locks
	BusyTimeout time.Duration

	// EnableForeignKeys enables foreign key constraint checking
	EnableForeignKeys bool

	// JournalMode sets the SQLite journal mode (WAL, DELETE, TRUNCATE, etc.)
	JournalMode string

	// Synchronous sets the synchronous mode (FULL, NORMAL, OFF)
	Synchronous string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// ConnectionManager manages SQLite database connections with proper configuration
type ConnectionManager interface {
	// GetConnection returns a configured SQLite database connection
	GetConnection() (*sql.DB, error)

	// DataSourceName returns the driver DSN with every pragma attached
	DataSourceName() string

	// CreateDatabaseFile creates the database directory and file if missing
	CreateDatabaseFile() error

	// ValidateConfig validates the SQLite configuration
	ValidateConfig() error
}

type sqliteConnectionManager struct {
	config SQLiteConfig
}

// NewConnectionManager creates a new SQLite connection manager
func NewConnectionManager(config SQLiteConfig) ConnectionManager {
	return &sqliteConnectionManager{config: config}
}

// GetConnection returns a configured SQLite database connection
func (cm *sqliteConnectionManager) GetConnection() (*sql.DB, error) {
	if err := cm.ValidateConfig(); err != nil {
		return nil, fmt.Errorf("invalid SQLite configuration: %w", err)
	}

	if err := cm.CreateDatabaseFile(); err != nil {
		return nil, fmt.Errorf("failed to create database file: %w", err)
	}

	db, err := sql.Open("sqlite", cm.DataSourceName())
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	if cm.config.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cm.config.MaxOpenConns)
	}
	if cm.config.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cm.config.MaxIdleConns)
	}
	if cm.config.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cm.config.ConnMaxLifetime)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	return db, nil
}

// DataSourceName attaches the configured pragmas as _pragma query parameters
// so every pooled connection applies them, not just the first one.
func (cm *sqliteConnectionManager) DataSourceName() string {
	pragmas := []string{
		fmt.Sprintf("busy_timeout(%d)", cm.config.BusyTimeout.Milliseconds()),
	}
	if cm.config.EnableForeignKeys {
		pragmas = append(pragmas, "foreign_keys(1)")
	}
	if cm.config.JournalMode != "" {
		pragmas = append(pragmas, fmt.Sprintf("journal_mode(%s)", cm.config.JournalMode))
	}
	if cm.config.Synchronous != "" {
		pragmas = append(pragmas, fmt.Sprintf("synchronous(%s)", cm.config.Synchronous))
	}

	params := make([]string, 0, len(pragmas))
	for _, pragma := range pragmas {
		params = append(params, "_pragma="+url.QueryEscape(pragma))
	}

	separator := "?"
	if strings.Contains(cm.config.DSN, "?") {
		separator = "&"
	}
	return cm.config.DSN + separator + strings.Join(params, "&")
}

// CreateDatabaseFile creates the database file if it doesn't exist
func (cm *sqliteConnectionManager) CreateDatabaseFile() error {
	path := databasePath(cm.config.DSN)
	if path == "" {
		return nil
	}

	dbDir := filepath.Dir(path)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
	}

	if _, err := os.Stat(path); err == nil {
		return nil
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create database file %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close database file %s: %w", path, err)
	}
	return nil
}

// ValidateConfig validates the SQLite configuration
func (cm *sqliteConnectionManager) ValidateConfig() error {
	if cm.config.DSN == "" {
		return fmt.Errorf("DSN cannot be empty")
	}
	if cm.config.BusyTimeout < 0 {
		return fmt.Errorf("BusyTimeout cannot be negative")
	}

	validJournalModes := map[string]bool{
		"DELETE":   true,
		"TRUNCATE": true,
		"PERSIST":  true,
		"MEMORY":   true,
		"WAL":      true,
		"OFF":      true,
	}
	if cm.config.JournalMode != "" && !validJournalModes[cm.config.JournalMode] {
		return fmt.Errorf("invalid journal mode: %s", cm.config.JournalMode)
	}

	validSyncModes := map[string]bool{
		"OFF":    true,
		"NORMAL": true,
		"FULL":   true,
		"EXTRA":  true,
	}
	if cm.config.Synchronous != "" && !validSyncModes[cm.config.Synchronous] {
		return fmt.Errorf("invalid synchronous mode: %s", cm.config.Synchronous)
	}

	if cm.config.MaxOpenConns < 0 {
		return fmt.Errorf("MaxOpenConns cannot be negative")
	}
	if cm.config.MaxIdleConns < 0 {
		return fmt.Errorf("MaxIdleConns cannot be negative")
	}
	if cm.config.ConnMaxLifetime < 0 {
		return fmt.Errorf("ConnMaxLifetime cannot be negative")
	}
	return nil
}

// databasePath returns the file behind dsn, or "" for in-memory and URI DSNs.
func databasePath(dsn string) string {
	path, _, _ := strings.Cut(dsn, "?")
	if path == "" || path == ":memory:" || strings.HasPrefix(path, "file:") {
		return ""
	}
	return path
}

// DefaultSQLiteConfig returns a SQLite configuration with sensible defaults
func DefaultSQLiteConfig(databasePath string) SQLiteConfig {
	return SQLiteConfig{
		DSN:               databasePath,
		BusyTimeout:       30 * time.Second,
		EnableForeignKeys: true,
		JournalMode:       "WAL",
		Synchronous:       "NORMAL",
		MaxOpenConns:      25,
		MaxIdleConns:      5,
		ConnMaxLifetime:   5 * time.Minute,
	}
}

// TempFileTestSQLiteConfig returns a SQLite configuration for temporary file-based testing
func TempFileTestSQLiteConfig(tempFilePath string) SQLiteConfig {
	return SQLiteConfig{
		DSN:               tempFilePath,
		BusyTimeout:       5 * time.Second,
		EnableForeignKeys: true,
		JournalMode:       "MEMORY",
		Synchronous:       "OFF",
		MaxOpenConns:      5,
		MaxIdleConns:      2,
		ConnMaxLifetime:   time.Minute,
	}
}
