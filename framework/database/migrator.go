package database

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"

	"github.com/km-arc/fastie/framework/config"
)

// engine is the subset of *migrate.Migrate the Migrator drives.
type engine interface {
	Up() error
	Down() error
	Steps(n int) error
	Version() (uint, bool, error)
	Close() (error, error)
}

// Migrator applies the SQL files in cfg.DB.MigrationsPath.
type Migrator struct {
	m   engine
	log *zap.Logger
}

// NewMigrator opens the migration source and the target database.
func NewMigrator(cfg *config.Config, log *zap.Logger) (*Migrator, error) {
	dir, err := filepath.Abs(cfg.DB.MigrationsPath)
	if err != nil {
		return nil, fmt.Errorf("database: migrations path: %w", err)
	}
	m, err := migrate.New("file://"+filepath.ToSlash(dir), cfg.DB.DSN())
	if err != nil {
		return nil, fmt.Errorf("database: open migrations: %w", err)
	}
	return newMigrator(m, log), nil
}

func newMigrator(m engine, log *zap.Logger) *Migrator {
	return &Migrator{m: m, log: log.Named("migrate")}
}

// Up applies every pending migration.
func (mg *Migrator) Up() error {
	return mg.run("up", mg.m.Up)
}

// Down rolls back the last n migrations.
func (mg *Migrator) Down(n int) error {
	if n <= 0 {
		n = 1
	}
	return mg.run(fmt.Sprintf("down %d", n), func() error { return mg.m.Steps(-n) })
}

// Reset rolls back every migration.
func (mg *Migrator) Reset() error {
	return mg.run("reset", mg.m.Down)
}

// Version returns the current schema version; 0 when nothing is applied.
func (mg *Migrator) Version() (version uint, dirty bool, err error) {
	version, dirty, err = mg.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("database: migration version: %w", err)
	}
	return version, dirty, nil
}

// Close releases the source and the database connection.
func (mg *Migrator) Close() error {
	srcErr, dbErr := mg.m.Close()
	return errors.Join(srcErr, dbErr)
}

func (mg *Migrator) run(op string, fn func() error) error {
	err := fn()
	if errors.Is(err, migrate.ErrNoChange) {
		mg.log.Info("Nothing to migrate", zap.String("op", op))
		return nil
	}
	if err != nil {
		return fmt.Errorf("database: migrate %s: %w", op, err)
	}
	v, dirty, verr := mg.Version()
	if verr != nil {
		return verr
	}
	mg.log.Info("Migrations applied", zap.String("op", op), zap.Uint("version", v), zap.Bool("dirty", dirty))
	return nil
}
