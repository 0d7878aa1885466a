package postgres

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/scholar-hub/scholarship-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATIONS
// ══════════════════════════════════════════════════════════════════════════════

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrationStatus reports the schema version after a migration run.
type MigrationStatus struct {
	Version uint
	Dirty   bool
}

// Migrator applies the embedded SQL migrations with golang-migrate.
type Migrator struct {
	databaseURL string
	log         *logger.Logger
}

// NewMigrator creates a migrator for databaseURL (postgres:// or pgx5://).
func NewMigrator(databaseURL string, log *logger.Logger) *Migrator {
	if log == nil {
		log = logger.Nop()
	}
	return &Migrator{
		databaseURL: databaseURL,
		log:         log.Named("migrate"),
	}
}

// migrateURL rewrites the scheme for the pgx/v5 golang-migrate driver.
func migrateURL(databaseURL string) string {
	for _, scheme := range []string{"postgresql://", "postgres://"} {
		if strings.HasPrefix(databaseURL, scheme) {
			return "pgx5://" + strings.TrimPrefix(databaseURL, scheme)
		}
	}
	return databaseURL
}

func (m *Migrator) open() (*migrate.Migrate, error) {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("%w: open source: %v", ErrMigrationFailed, err)
	}

	mg, err := migrate.NewWithSourceInstance("iofs", source, migrateURL(m.databaseURL))
	if err != nil {
		return nil, fmt.Errorf("%w: init: %v", ErrMigrationFailed, err)
	}
	return mg, nil
}

// Up applies all pending migrations.
func (m *Migrator) Up() (MigrationStatus, error) {
	mg, err := m.open()
	if err != nil {
		return MigrationStatus{}, err
	}
	defer mg.Close()

	if err := mg.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return MigrationStatus{}, fmt.Errorf("%w: up: %v", ErrMigrationFailed, err)
	}

	status, err := version(mg)
	if err != nil {
		return MigrationStatus{}, err
	}

	m.log.Info("migrations applied",
		logger.F("version", status.Version),
		logger.Bool("dirty", status.Dirty),
	)
	return status, nil
}

// Rollback reverts the most recently applied migration.
func (m *Migrator) Rollback() (MigrationStatus, error) {
	mg, err := m.open()
	if err != nil {
		return MigrationStatus{}, err
	}
	defer mg.Close()

	if err := mg.Steps(-1); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return MigrationStatus{}, fmt.Errorf("%w: rollback: %v", ErrMigrationFailed, err)
	}

	status, err := version(mg)
	if err != nil {
		return MigrationStatus{}, err
	}

	m.log.Warn("migration rolled back", logger.F("version", status.Version))
	return status, nil
}

// Status returns the current schema version without changing it.
func (m *Migrator) Status() (MigrationStatus, error) {
	mg, err := m.open()
	if err != nil {
		return MigrationStatus{}, err
	}
	defer mg.Close()

	return version(mg)
}

func version(mg *migrate.Migrate) (MigrationStatus, error) {
	v, dirty, err := mg.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return MigrationStatus{}, nil
	}
	if err != nil {
		return MigrationStatus{}, fmt.Errorf("%w: version: %v", ErrMigrationFailed, err)
	}
	return MigrationStatus{Version: v, Dirty: dirty}, nil
}
