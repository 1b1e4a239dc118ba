// Package db provides database connectivity and migration functionality for
// JarvisFi. It owns the pgx connection pool handed to every store and the
// golang-migrate wiring behind the `migrate` command.
package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres" // registers the postgres:// migrate driver
	_ "github.com/golang-migrate/migrate/v4/source/file"       // For file-based migrations
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq" // database/sql driver used by migrate's postgres driver
	"go.uber.org/zap"

	"github.com/user/jarvisfi-go/apperror"
	"github.com/user/jarvisfi-go/config"
)

// Postgres SQLSTATEs for constraint failures.
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// NewPool establishes the application's pgx connection pool and verifies it
// with a ping.
func NewPool(cfg *config.DBConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, apperror.NewDatabaseError(fmt.Sprintf("error parsing DSN for database %s", cfg.DBName), err)
	}

	poolConfig.MaxConns = int32(cfg.MaxSize)
	poolConfig.MaxConnIdleTime = 10 * time.Minute
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, apperror.NewDatabaseError("error creating pgxpool", err)
	}

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, apperror.NewDatabaseError("error connecting to the database with pgxpool", err)
	}

	return pool, nil
}

// IsUniqueViolation reports whether err is a Postgres unique violation and
// returns the violated constraint name.
func IsUniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return pgErr.ConstraintName, true
	}
	return "", false
}

// IsForeignKeyViolation reports whether err is a Postgres foreign key
// violation, such as a row referencing a parent that does not exist.
func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation
}

// Migrator applies the SQL migrations under a directory.
type Migrator struct {
	m   *migrate.Migrate
	log *zap.Logger
}

// NewMigrator opens a golang-migrate instance for the configured database.
func NewMigrator(cfg *config.DBConfig, log *zap.Logger) (*Migrator, error) {
	m, err := migrate.New("file://"+cfg.MigrationsPath, cfg.DSN())
	if err != nil {
		return nil, apperror.NewMigrationError("failed to create migrator", err)
	}
	return &Migrator{m: m, log: log.With(zap.String("module", "migrate"))}, nil
}

// Up applies all pending migrations. No pending migrations is not an error.
func (mg *Migrator) Up() error {
	if err := mg.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return apperror.NewMigrationError("failed to run migrations", err)
	}
	mg.logVersion("migrations applied")
	return nil
}

// Down rolls back a single migration step.
func (mg *Migrator) Down() error {
	if err := mg.m.Steps(-1); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return apperror.NewMigrationError("failed to roll back migration", err)
	}
	mg.logVersion("migration rolled back")
	return nil
}

// Version returns the current schema version and whether it is dirty.
// A database without migrations reports version 0.
func (mg *Migrator) Version() (uint, bool, error) {
	v, dirty, err := mg.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, apperror.NewMigrationError("failed to read migration version", err)
	}
	return v, dirty, nil
}

// Close releases the migration source and database handles.
func (mg *Migrator) Close() {
	if srcErr, dbErr := mg.m.Close(); srcErr != nil || dbErr != nil {
		mg.log.Warn("error closing migrator", zap.NamedError("source", srcErr), zap.NamedError("database", dbErr))
	}
}

func (mg *Migrator) logVersion(msg string) {
	v, dirty, err := mg.Version()
	if err != nil {
		mg.log.Warn(msg, zap.Error(err))
		return
	}
	mg.log.Info(msg, zap.Uint("version", v), zap.Bool("dirty", dirty))
}

// RunMigrations applies every pending migration; used by `serve` when
// MIGRATE_ON_START is set.
func RunMigrations(cfg *config.DBConfig, log *zap.Logger) error {
	mg, err := NewMigrator(cfg, log)
	if err != nil {
		return err
	}
	defer mg.Close()
	return mg.Up()
}
