package database

import (
	"database/sql"
	"fmt"
	"regexp"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Driver string
	Path   string // sqlite file, ":memory:" works too
	DSN    string // postgres connection string
}

type DB struct {
	*sql.DB
	driver string
}

func NewConnection(cfg Config) (*DB, error) {
	var (
		db  *sql.DB
		err error
	)

	switch cfg.Driver {
	case DriverSQLite:
		db, err = sql.Open("sqlite3", cfg.Path)
	case DriverPostgres:
		db, err = sql.Open("postgres", cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open connection: %w", err)
	}

	if cfg.Driver == DriverSQLite {
		// one writer keeps "database is locked" away
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	wrapped := &DB{DB: db, driver: cfg.Driver}
	if err := wrapped.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return wrapped, nil
}

func (db *DB) Close() error {
	return db.DB.Close()
}

var placeholderRe = regexp.MustCompile(`\$\d+`)

// rebind rewrites $N placeholders for drivers that expect ?.
func (db *DB) rebind(query string) string {
	if db.driver == DriverPostgres {
		return query
	}
	return placeholderRe.ReplaceAllString(query, "?")
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS alerts (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	query           TEXT NOT NULL,
	budget          TEXT,
	lowest_price    TEXT,
	last_price      TEXT,
	active          INTEGER NOT NULL DEFAULT 1,
	created_at      TIMESTAMP NOT NULL,
	last_checked_at TIMESTAMP
);

CREATE TABLE IF NOT EXISTS price_history (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	alert_id    INTEGER NOT NULL REFERENCES alerts(id) ON DELETE CASCADE,
	name        TEXT NOT NULL,
	price       TEXT,
	shop        TEXT,
	source_id   TEXT,
	observed_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_price_history_alert ON price_history(alert_id, observed_at);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS alerts (
	id              BIGSERIAL PRIMARY KEY,
	query           TEXT NOT NULL,
	budget          NUMERIC(20, 2),
	lowest_price    NUMERIC(20, 2),
	last_price      NUMERIC(20, 2),
	active          BOOLEAN NOT NULL DEFAULT TRUE,
	created_at      TIMESTAMPTZ NOT NULL,
	last_checked_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS price_history (
	id          BIGSERIAL PRIMARY KEY,
	alert_id    BIGINT NOT NULL REFERENCES alerts(id) ON DELETE CASCADE,
	name        TEXT NOT NULL,
	price       NUMERIC(20, 2),
	shop        TEXT,
	source_id   TEXT,
	observed_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_price_history_alert ON price_history(alert_id, observed_at);
`

func (db *DB) initSchema() error {
	schema := sqliteSchema
	if db.driver == DriverPostgres {
		schema = postgresSchema
	}

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}
