// Package repo is the GORM persistence layer: excursions with their events,
// categories, staff users, feedback and idempotency records. SQLite (pure
// Go) serves development and the CLI; Postgres serves production.
package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/tbourn/go-excursion-backend/internal/config"
	"github.com/tbourn/go-excursion-backend/internal/domain"
)

// sqlitePragmas are applied by the driver on every pooled connection.
var sqlitePragmas = []string{
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
	"foreign_keys(1)",
	"busy_timeout(5000)",
}

type poolLimits struct {
	maxOpen, maxIdle int
	idleTime, life   time.Duration
}

var (
	sqlitePool   = poolLimits{maxOpen: 10, maxIdle: 10, idleTime: 5 * time.Minute, life: 30 * time.Minute}
	postgresPool = poolLimits{maxOpen: 50, maxIdle: 10, life: time.Hour}
)

// Open connects to the store selected by cfg.Driver. When traced is set the
// GORM OpenTelemetry plugin gives every statement a span.
func Open(cfg config.DBConfig, traced bool) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)
	switch cfg.Driver {
	case "", "sqlite":
		db, err = OpenSQLite(cfg.Path)
	case "postgres":
		db, err = OpenPostgres(cfg.URL)
	default:
		return nil, fmt.Errorf("unsupported db driver %q", cfg.Driver)
	}
	if err != nil || !traced {
		return db, err
	}
	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, fmt.Errorf("db tracing: %w", err)
	}
	return db, nil
}

// OpenSQLite opens or creates the database file at path. The parent
// directory must exist.
func OpenSQLite(path string) (*gorm.DB, error) {
	if dir := filepath.Dir(path); dir != "." && !strings.HasPrefix(path, "file:") {
		if _, err := os.Stat(dir); err != nil {
			return nil, fmt.Errorf("sqlite dir: %w", err)
		}
	}
	return open(sqlite.Open(sqliteDSN(path)), sqlitePool)
}

// OpenPostgres connects with a libpq DSN or a postgres:// URL.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	return open(postgres.Open(dsn), postgresPool)
}

func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	var b strings.Builder
	b.WriteString(path)
	for _, p := range sqlitePragmas {
		b.WriteString(sep)
		b.WriteString("_pragma=")
		b.WriteString(p)
		sep = "&"
	}
	return b.String()
}

func open(d gorm.Dialector, pool poolLimits) (*gorm.DB, error) {
	db, err := gorm.Open(d, &gorm.Config{Logger: newGormLogger(log.Logger)})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(pool.maxOpen)
	sqlDB.SetMaxIdleConns(pool.maxIdle)
	sqlDB.SetConnMaxIdleTime(pool.idleTime)
	sqlDB.SetConnMaxLifetime(pool.life)
	return db, nil
}

// gormWriter sends GORM's own log lines (slow queries, driver errors) to
// zerolog instead of stdout.
type gormWriter struct{ l zerolog.Logger }

func (w gormWriter) Printf(format string, args ...any) {
	w.l.Warn().Str("component", "gorm").Msgf(format, args...)
}

func newGormLogger(l zerolog.Logger) logger.Interface {
	return logger.New(gormWriter{l: l}, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}

// AutoMigrate creates or updates every table the service owns.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Category{},
		&domain.Excursion{},
		&domain.ExcursionEvent{},
		&domain.User{},
		&domain.Feedback{},
		&domain.Idempotency{},
	)
}
