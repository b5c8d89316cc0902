package db

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

type Backend string

const (
	BackendPostgres Backend = "postgres"
	BackendSQLite   Backend = "sqlite"
	BackendMongo    Backend = "mongo"
)

var ErrUnsupportedURL = errors.New("db: unsupported database url")

// BackendFor picks the store implementation from the ATLASDB_URL scheme.
func BackendFor(url string) (Backend, error) {
	switch {
	case url == "":
		return "", fmt.Errorf("%w: ATLASDB_URL is not set", ErrUnsupportedURL)
	case strings.HasPrefix(url, "mongodb://"), strings.HasPrefix(url, "mongodb+srv://"):
		return BackendMongo, nil
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return BackendPostgres, nil
	case strings.HasPrefix(url, "sqlite://"), strings.HasPrefix(url, "file:"):
		return BackendSQLite, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedURL, redact(url))
}

// Connect opens a relational database. For postgres the tables live under
// pgSchema, which is created if missing.
func Connect(url, pgSchema string, log *logrus.Logger) (*gorm.DB, error) {
	backend, err := BackendFor(url)
	if err != nil {
		return nil, err
	}

	// Slow queries and failures only; per-statement SQL is too chatty at info.
	lg := logger.New(log, logger.Config{
		SlowThreshold:             100 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})

	cfg := &gorm.Config{
		Logger:         lg,
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	}

	var dialector gorm.Dialector
	switch backend {
	case BackendPostgres:
		pcfg, err := pgx.ParseConfig(url)
		if err != nil {
			return nil, fmt.Errorf("db: parse postgres url %q: %w", redact(url), err)
		}
		if pcfg.RuntimeParams["application_name"] == "" {
			pcfg.RuntimeParams["application_name"] = "wanderlust"
		}
		dialector = postgres.New(postgres.Config{Conn: stdlib.OpenDB(*pcfg)})
		if pgSchema != "" {
			cfg.NamingStrategy = schema.NamingStrategy{TablePrefix: pgSchema + "."}
		}
	case BackendSQLite:
		dialector = sqlite.Open(strings.TrimPrefix(url, "sqlite://"))
	default:
		return nil, fmt.Errorf("%w: %s is not relational", ErrUnsupportedURL, backend)
	}

	d, err := gorm.Open(dialector, cfg)
	if err != nil {
		return nil, fmt.Errorf("db: open %s: %w", backend, err)
	}

	sqlDB, err := d.DB()
	if err != nil {
		return nil, fmt.Errorf("db: get sql.DB: %w", err)
	}

	if backend == BackendSQLite {
		// One connection keeps a shared in-memory database alive and
		// serialises writers.
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		return d, nil
	}

	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(20)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if pgSchema != "" {
		if err := EnsureSchema(d, pgSchema); err != nil {
			return nil, fmt.Errorf("db: ensure schema %s: %w", pgSchema, err)
		}
	}

	log.WithField("backend", backend).Info("connected to database")
	return d, nil
}

func redact(url string) string {
	if i := strings.Index(url, "@"); i >= 0 {
		if j := strings.Index(url, "://"); j >= 0 && j < i {
			return url[:j+3] + "***" + url[i:]
		}
	}
	return url
}
