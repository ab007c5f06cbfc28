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
			dsn = "file:trailquest.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = "postgres://localhost:5432/trailquest?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, err
	}
	if driver == DriverSQLite {
		// modernc sqlite allows one writer; a single pooled connection keeps
		// concurrent transactions serialized instead of failing with SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	if err := ensureSchema(ctx, db, driver); err != nil {
		return nil, err
	}
	return db, nil
}

func ensureSchema(ctx context.Context, db *sql.DB, driver Driver) error {
	var schema string
	switch driver {
	case DriverSQLite:
		schema = schemaSQLite
	case DriverPostgres:
		schema = schemaPostgres
	}
	_, err := db.ExecContext(ctx, schema)
	return err
}

const schemaSQLite = `
PRAGMA foreign_keys=ON;

CREATE TABLE IF NOT EXISTS users (
  id INTEGER PRIMARY KEY,
  subject TEXT NOT NULL UNIQUE,
  display_name TEXT NOT NULL DEFAULT '',
  avatar_url TEXT NOT NULL DEFAULT '',
  created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS themes (
  id INTEGER PRIMARY KEY,
  name TEXT NOT NULL,
  config TEXT NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS characters (
  id INTEGER PRIMARY KEY,
  name TEXT NOT NULL,
  asset_idle TEXT NOT NULL DEFAULT '',
  asset_correct TEXT NOT NULL DEFAULT '',
  asset_wrong TEXT NOT NULL DEFAULT '',
  metadata TEXT NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS campaigns (
  id INTEGER PRIMARY KEY,
  slug TEXT NOT NULL UNIQUE,
  title TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  theme_id INTEGER NOT NULL REFERENCES themes(id),
  is_active INTEGER NOT NULL DEFAULT 1,
  total_checkpoints INTEGER NOT NULL,
  rotate_on_wrong INTEGER NOT NULL DEFAULT 0,
  scene_background_url TEXT NOT NULL DEFAULT '',
  scene_characters TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS categories (
  id INTEGER PRIMARY KEY,
  name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS questions (
  id INTEGER PRIMARY KEY,
  category_id INTEGER NOT NULL REFERENCES categories(id),
  question_text TEXT NOT NULL,
  explanation TEXT NOT NULL DEFAULT '',
  is_active INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS choices (
  id INTEGER PRIMARY KEY,
  question_id INTEGER NOT NULL REFERENCES questions(id) ON DELETE CASCADE,
  choice_text TEXT NOT NULL,
  sort_order INTEGER NOT NULL DEFAULT 0,
  is_correct INTEGER NOT NULL DEFAULT 0
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_choices_one_correct
  ON choices(question_id) WHERE is_correct = 1;

CREATE TABLE IF NOT EXISTS checkpoint_tokens (
  id INTEGER PRIMARY KEY,
  token TEXT NOT NULL UNIQUE,
  campaign_id INTEGER NOT NULL REFERENCES campaigns(id),
  checkpoint_index INTEGER NOT NULL,
  category_id INTEGER NOT NULL REFERENCES categories(id),
  expires_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS sessions (
  id INTEGER PRIMARY KEY,
  user_id INTEGER NOT NULL REFERENCES users(id),
  campaign_id INTEGER NOT NULL REFERENCES campaigns(id),
  created_at INTEGER NOT NULL,
  completed_at INTEGER,
  UNIQUE (user_id, campaign_id)
);

CREATE TABLE IF NOT EXISTS session_checkpoints (
  id INTEGER PRIMARY KEY,
  session_id INTEGER NOT NULL REFERENCES sessions(id),
  checkpoint_index INTEGER NOT NULL,
  assigned_question_id INTEGER REFERENCES questions(id),
  is_completed INTEGER NOT NULL DEFAULT 0,
  completed_at INTEGER,
  UNIQUE (session_id, checkpoint_index)
);

CREATE TABLE IF NOT EXISTS attempts (
  id INTEGER PRIMARY KEY,
  session_checkpoint_id INTEGER NOT NULL REFERENCES session_checkpoints(id),
  question_id INTEGER NOT NULL REFERENCES questions(id),
  choice_id INTEGER NOT NULL REFERENCES choices(id),
  is_correct INTEGER NOT NULL,
  attempted_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_attempts_scp ON attempts(session_checkpoint_id);

CREATE TABLE IF NOT EXISTS redeem_tokens (
  id INTEGER PRIMARY KEY,
  token TEXT NOT NULL UNIQUE,
  session_id INTEGER NOT NULL UNIQUE REFERENCES sessions(id),
  expires_at INTEGER NOT NULL,
  is_used INTEGER NOT NULL DEFAULT 0,
  used_at INTEGER,
  kiosk_id TEXT NOT NULL DEFAULT ''
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS users (
  id BIGSERIAL PRIMARY KEY,
  subject TEXT NOT NULL UNIQUE,
  display_name TEXT NOT NULL DEFAULT '',
  avatar_url TEXT NOT NULL DEFAULT '',
  created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS themes (
  id BIGSERIAL PRIMARY KEY,
  name TEXT NOT NULL,
  config TEXT NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS characters (
  id BIGSERIAL PRIMARY KEY,
  name TEXT NOT NULL,
  asset_idle TEXT NOT NULL DEFAULT '',
  asset_correct TEXT NOT NULL DEFAULT '',
  asset_wrong TEXT NOT NULL DEFAULT '',
  metadata TEXT NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS campaigns (
  id BIGSERIAL PRIMARY KEY,
  slug TEXT NOT NULL UNIQUE,
  title TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  theme_id BIGINT NOT NULL REFERENCES themes(id),
  is_active BOOLEAN NOT NULL DEFAULT TRUE,
  total_checkpoints INTEGER NOT NULL,
  rotate_on_wrong BOOLEAN NOT NULL DEFAULT FALSE,
  scene_background_url TEXT NOT NULL DEFAULT '',
  scene_characters TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS categories (
  id BIGSERIAL PRIMARY KEY,
  name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS questions (
  id BIGSERIAL PRIMARY KEY,
  category_id BIGINT NOT NULL REFERENCES categories(id),
  question_text TEXT NOT NULL,
  explanation TEXT NOT NULL DEFAULT '',
  is_active BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE TABLE IF NOT EXISTS choices (
  id BIGSERIAL PRIMARY KEY,
  question_id BIGINT NOT NULL REFERENCES questions(id) ON DELETE CASCADE,
  choice_text TEXT NOT NULL,
  sort_order INTEGER NOT NULL DEFAULT 0,
  is_correct BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_choices_one_correct
  ON choices(question_id) WHERE is_correct;

CREATE TABLE IF NOT EXISTS checkpoint_tokens (
  id BIGSERIAL PRIMARY KEY,
  token TEXT NOT NULL UNIQUE,
  campaign_id BIGINT NOT NULL REFERENCES campaigns(id),
  checkpoint_index INTEGER NOT NULL,
  category_id BIGINT NOT NULL REFERENCES categories(id),
  expires_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS sessions (
  id BIGSERIAL PRIMARY KEY,
  user_id BIGINT NOT NULL REFERENCES users(id),
  campaign_id BIGINT NOT NULL REFERENCES campaigns(id),
  created_at BIGINT NOT NULL,
  completed_at BIGINT,
  UNIQUE (user_id, campaign_id)
);

CREATE TABLE IF NOT EXISTS session_checkpoints (
  id BIGSERIAL PRIMARY KEY,
  session_id BIGINT NOT NULL REFERENCES sessions(id),
  checkpoint_index INTEGER NOT NULL,
  assigned_question_id BIGINT REFERENCES questions(id),
  is_completed BOOLEAN NOT NULL DEFAULT FALSE,
  completed_at BIGINT,
  UNIQUE (session_id, checkpoint_index)
);

CREATE TABLE IF NOT EXISTS attempts (
  id BIGSERIAL PRIMARY KEY,
  session_checkpoint_id BIGINT NOT NULL REFERENCES session_checkpoints(id),
  question_id BIGINT NOT NULL REFERENCES questions(id),
  choice_id BIGINT NOT NULL REFERENCES choices(id),
  is_correct BOOLEAN NOT NULL,
  attempted_at BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_attempts_scp ON attempts(session_checkpoint_id);

CREATE TABLE IF NOT EXISTS redeem_tokens (
  id BIGSERIAL PRIMARY KEY,
  token TEXT NOT NULL UNIQUE,
  session_id BIGINT NOT NULL UNIQUE REFERENCES sessions(id),
  expires_at BIGINT NOT NULL,
  is_used BOOLEAN NOT NULL DEFAULT FALSE,
  used_at BIGINT,
  kiosk_id TEXT NOT NULL DEFAULT ''
);
`
