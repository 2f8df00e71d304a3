package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"courtbook/internal/domain"
	"courtbook/internal/repository"
	"courtbook/internal/schedule"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const (
	defaultBusyTimeout = 5 * time.Second
	defaultLockWait    = 3 * time.Second
)

// DB is the SQLite-backed reservation store and member directory.
type DB struct {
	*sql.DB
	path     string
	logger   *zerolog.Logger
	grid     *schedule.Grid
	locker   domain.DateLocker
	lockWait time.Duration
}

var (
	_ domain.ReservationStore   = (*DB)(nil)
	_ domain.ReservationArchive = (*DB)(nil)
	_ domain.MemberDirectory    = (*DB)(nil)
)

// Options tune the store; zero values take defaults.
type Options struct {
	BusyTimeout time.Duration
	Grid        *schedule.Grid
	Locker      domain.DateLocker
	LockWait    time.Duration
}

func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	return Open(path, logger, Options{})
}

// Open creates the database directory if needed, connects, applies the
// embedded migrations and returns a ready store.
func Open(path string, logger *zerolog.Logger, opts Options) (*DB, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if opts.BusyTimeout <= 0 {
		opts.BusyTimeout = defaultBusyTimeout
	}
	if opts.LockWait <= 0 {
		opts.LockWait = defaultLockWait
	}
	if opts.Grid == nil {
		opts.Grid = schedule.DefaultGrid()
	}
	if opts.Locker == nil {
		opts.Locker = repository.NewMemoryDateLocker()
	}

	inMemory := path == ":memory:"
	if !inMemory {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite3", buildDSN(path, opts.BusyTimeout))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if inMemory {
		// Every connection to :memory: is a separate database.
		sqlDB.SetMaxOpenConns(1)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := runMigrations(sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info().Str("path", path).Msg("Database initialized")

	return &DB{
		DB:       sqlDB,
		path:     path,
		logger:   logger,
		grid:     opts.Grid,
		locker:   opts.Locker,
		lockWait: opts.LockWait,
	}, nil
}

// buildDSN enables foreign keys and WAL, sets the busy timeout and makes
// every transaction BEGIN IMMEDIATE so writers queue on the write lock up
// front instead of failing on upgrade.
func buildDSN(path string, busyTimeout time.Duration) string {
	params := []string{
		fmt.Sprintf("_busy_timeout=%d", busyTimeout.Milliseconds()),
		"_fk=1",
		"_txlock=immediate",
	}
	if path != ":memory:" {
		params = append(params, "_journal_mode=WAL")
	}

	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + strings.Join(params, "&")
}

func runMigrations(db *sql.DB) error {
	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("could not create migrate driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("could not create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}
	return nil
}

func (db *DB) Path() string {
	return db.path
}

func (db *DB) Grid() *schedule.Grid {
	return db.grid
}

// lockDate takes the per-date lock bounded by lockWait. Failing to get it
// in time is reported as transient so callers may retry.
func (db *DB) lockDate(ctx context.Context, date schedule.Date) (func(), error) {
	lockCtx, cancel := context.WithTimeout(ctx, db.lockWait)
	defer cancel()

	unlock, err := db.locker.Lock(lockCtx, date.String())
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("acquire lock for %s: %w: %w", date, ErrTransient, err)
	}
	return unlock, nil
}

func (db *DB) Close() error {
	return db.DB.Close()
}
