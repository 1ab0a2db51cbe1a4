package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Open opens a DB and ensures schema exists.
func Open(ctx context.Context, driver Driver, dsn string) (*sql.DB, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite" // modernc driver
		if dsn == "" {
			dsn = "file:redalab.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = "postgres://localhost:5432/redalab?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	sdb, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, err
	}
	if err := sdb.PingContext(ctx); err != nil {
		return nil, err
	}

	if err := EnsureSchema(ctx, sdb, driver); err != nil {
		return nil, err
	}
	return sdb, nil
}

// EnsureSchema creates the tables if they are missing. Exposed so tests can
// run against an in-memory sqlite database.
func EnsureSchema(ctx context.Context, sdb *sql.DB, driver Driver) error {
	var schema string
	switch driver {
	case DriverSQLite:
		schema = schemaSQLite
	case DriverPostgres:
		schema = schemaPostgres
	}
	_, err := sdb.ExecContext(ctx, schema)
	return err
}

const schemaSQLite = `
PRAGMA foreign_keys=ON;

CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL,
  created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS essays (
  id TEXT PRIMARY KEY,
  student_id TEXT NOT NULL REFERENCES users(id),
  title TEXT NOT NULL,
  body TEXT NOT NULL,
  pdf_key TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL,
  score_total INTEGER,
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS competence_scores (
  essay_id TEXT PRIMARY KEY REFERENCES essays(id) ON DELETE CASCADE,
  c1 INTEGER NOT NULL,
  c2 INTEGER NOT NULL,
  c3 INTEGER NOT NULL,
  c4 INTEGER NOT NULL,
  c5 INTEGER NOT NULL,
  graded_by TEXT NOT NULL,
  graded_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS competence_history (
  id INTEGER PRIMARY KEY AUTOINCREMENT, -- BIGSERIAL in Postgres
  student_id TEXT NOT NULL,
  essay_id TEXT NOT NULL,
  c1 INTEGER NOT NULL,
  c2 INTEGER NOT NULL,
  c3 INTEGER NOT NULL,
  c4 INTEGER NOT NULL,
  c5 INTEGER NOT NULL,
  created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS student_performance (
  student_id TEXT PRIMARY KEY,
  average_score REAL NOT NULL DEFAULT 0,
  avg_c1 REAL NOT NULL DEFAULT 0,
  avg_c2 REAL NOT NULL DEFAULT 0,
  avg_c3 REAL NOT NULL DEFAULT 0,
  avg_c4 REAL NOT NULL DEFAULT 0,
  avg_c5 REAL NOT NULL DEFAULT 0,
  total_corrected INTEGER NOT NULL DEFAULT 0,
  updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS monthly_evolution (
  student_id TEXT NOT NULL,
  year INTEGER NOT NULL,
  month INTEGER NOT NULL,
  avg_score REAL NOT NULL DEFAULT 0,
  created_at INTEGER NOT NULL,
  PRIMARY KEY (student_id, year, month)
);

CREATE TABLE IF NOT EXISTS audit_log (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  actor TEXT NOT NULL,
  action TEXT NOT NULL,
  subject TEXT NOT NULL,
  created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_essays_student ON essays(student_id);
CREATE INDEX IF NOT EXISTS idx_history_student_created ON competence_history(student_id, created_at);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL,
  created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS essays (
  id TEXT PRIMARY KEY,
  student_id TEXT NOT NULL REFERENCES users(id),
  title TEXT NOT NULL,
  body TEXT NOT NULL,
  pdf_key TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL,
  score_total INTEGER,
  created_at BIGINT NOT NULL,
  updated_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS competence_scores (
  essay_id TEXT PRIMARY KEY REFERENCES essays(id) ON DELETE CASCADE,
  c1 INTEGER NOT NULL,
  c2 INTEGER NOT NULL,
  c3 INTEGER NOT NULL,
  c4 INTEGER NOT NULL,
  c5 INTEGER NOT NULL,
  graded_by TEXT NOT NULL,
  graded_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS competence_history (
  id BIGSERIAL PRIMARY KEY,
  student_id TEXT NOT NULL,
  essay_id TEXT NOT NULL,
  c1 INTEGER NOT NULL,
  c2 INTEGER NOT NULL,
  c3 INTEGER NOT NULL,
  c4 INTEGER NOT NULL,
  c5 INTEGER NOT NULL,
  created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS student_performance (
  student_id TEXT PRIMARY KEY,
  average_score DOUBLE PRECISION NOT NULL DEFAULT 0,
  avg_c1 DOUBLE PRECISION NOT NULL DEFAULT 0,
  avg_c2 DOUBLE PRECISION NOT NULL DEFAULT 0,
  avg_c3 DOUBLE PRECISION NOT NULL DEFAULT 0,
  avg_c4 DOUBLE PRECISION NOT NULL DEFAULT 0,
  avg_c5 DOUBLE PRECISION NOT NULL DEFAULT 0,
  total_corrected INTEGER NOT NULL DEFAULT 0,
  updated_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS monthly_evolution (
  student_id TEXT NOT NULL,
  year INTEGER NOT NULL,
  month INTEGER NOT NULL,
  avg_score DOUBLE PRECISION NOT NULL DEFAULT 0,
  created_at BIGINT NOT NULL,
  PRIMARY KEY (student_id, year, month)
);

CREATE TABLE IF NOT EXISTS audit_log (
  id BIGSERIAL PRIMARY KEY,
  actor TEXT NOT NULL,
  action TEXT NOT NULL,
  subject TEXT NOT NULL,
  created_at BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_essays_student ON essays(student_id);
CREATE INDEX IF NOT EXISTS idx_history_student_created ON competence_history(student_id, created_at);
`
