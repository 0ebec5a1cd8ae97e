package repository

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Supported database types.
const (
	TypePostgres = "postgres"
	TypeSQLite   = "sqlite"
)

// Open connects to the configured database and brings its schema up to date.
// dsn is a PostgreSQL URL for postgres and a file path for sqlite.
func Open(dbType, dsn string, logger *zap.Logger) (*sqlx.DB, error) {
	switch dbType {
	case TypePostgres:
		db, err := NewPostgresDB(dsn, logger)
		if err != nil {
			return nil, err
		}
		if err := MigrateDB(db, logger); err != nil {
			db.Close()
			return nil, err
		}
		return db, nil
	case TypeSQLite, "":
		return NewSQLiteDB(dsn, logger)
	default:
		return nil, fmt.Errorf("unsupported database type %q", dbType)
	}
}

// NewPostgresDB establishes a new connection to the PostgreSQL database.
func NewPostgresDB(dataSourceName string, logger *zap.Logger) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	logger.Info("Successfully connected to the database!")
	return db, nil
}

// MigrateDB runs the embedded migrations against a PostgreSQL database.
func MigrateDB(db *sqlx.DB, logger *zap.Logger) error {
	driver, err := postgres.WithInstance(db.DB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("couldn't get database instance for running migrations: %w", err)
	}

	source, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("couldn't open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "offer_classifier", driver)
	if err != nil {
		return fmt.Errorf("couldn't create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("couldn't run database migration: %w", err)
	}

	logger.Info("Database migration was run successfully")
	return nil
}

// NewSQLiteDB opens a SQLite database and creates the tables. Use ":memory:"
// for a throwaway store.
func NewSQLiteDB(path string, logger *zap.Logger) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one connection keeps ":memory:" databases alive and serialises writers
	db.SetMaxOpenConns(1)

	if err := migrateSQLite(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	logger.Info("SQLite database initialized", zap.String("db_path", path))
	return db, nil
}

func migrateSQLite(db *sqlx.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS offers (
		id INTEGER PRIMARY KEY,
		brand TEXT NOT NULL,
		link TEXT NOT NULL DEFAULT '',
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		vin TEXT,
		scraped_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS offer_details (
		offer_id INTEGER PRIMARY KEY REFERENCES offers(id) ON DELETE CASCADE,
		model TEXT,
		price INTEGER,
		mileage INTEGER,
		condition TEXT,
		country_of_origin TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_offers_vin ON offers(vin);

	CREATE TABLE IF NOT EXISTS labeling_data (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		vin TEXT NOT NULL UNIQUE,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS labels (
		offer_id INTEGER NOT NULL REFERENCES offers(id) ON DELETE CASCADE,
		mode TEXT NOT NULL CHECK (mode IN ('description', 'vin')),
		is_suspicious BOOLEAN NOT NULL,
		source TEXT NOT NULL DEFAULT '',
		model_version TEXT NOT NULL DEFAULT '',
		labeled_at DATETIME NOT NULL,
		PRIMARY KEY (offer_id, mode)
	);

	CREATE INDEX IF NOT EXISTS idx_labels_mode ON labels(mode);

	CREATE TABLE IF NOT EXISTS label_jobs (
		id TEXT PRIMARY KEY,
		mode TEXT NOT NULL,
		status TEXT NOT NULL,
		offers INTEGER NOT NULL DEFAULT 0,
		inserted INTEGER NOT NULL DEFAULT 0,
		suspicious INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		completed_at DATETIME,
		error_message TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_label_jobs_status ON label_jobs(status);
	`

	_, err := db.Exec(schema)
	return err
}
