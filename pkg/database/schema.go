package database

import "fmt"

// schemaStatements returns the DDL for one engine. PostgreSQL assigns ids
// through BIGSERIAL; the other engines receive explicit ids from the
// generator, so their id columns are plain primary keys.
func schemaStatements(driver string) ([]string, error) {
	switch driver {
	case "pgx":
		return []string{
			`CREATE TABLE IF NOT EXISTS logbook_entries (
  id                    BIGSERIAL PRIMARY KEY,
  unique_key            TEXT NOT NULL,
  user_id               BIGINT NOT NULL,
  date                  TEXT,
  dep_ad                TEXT,
  arr_ad                TEXT,
  off_block             TEXT,
  on_block              TEXT,
  aircraft_type         TEXT,
  aircraft_registration TEXT,
  pic_name              TEXT,
  total                 DOUBLE PRECISION,
  day_time              DOUBLE PRECISION,
  night_time            DOUBLE PRECISION,
  pic_time              DOUBLE PRECISION,
  dual_time             DOUBLE PRECISION,
  land_day              INTEGER,
  land_night            INTEGER,
  remarks               TEXT,
  source                TEXT,
  created_at            BIGINT,
  CONSTRAINT logbook_entries_unique UNIQUE (unique_key)
)`,
			`CREATE INDEX IF NOT EXISTS idx_logbook_entries_user ON logbook_entries (user_id, date)`,
			`CREATE TABLE IF NOT EXISTS flight_recordings (
  id          BIGSERIAL PRIMARY KEY,
  user_id     BIGINT NOT NULL,
  source      TEXT,
  name        TEXT,
  description TEXT,
  raw_points  INTEGER,
  point_count INTEGER,
  coords      BYTEA,
  created_at  BIGINT
)`,
			`CREATE TABLE IF NOT EXISTS upload_history (
  id         BIGSERIAL PRIMARY KEY,
  upload_id  TEXT NOT NULL,
  user_id    BIGINT NOT NULL,
  kind       TEXT,
  source     TEXT,
  filename   TEXT,
  status     TEXT,
  submitted  INTEGER,
  created    INTEGER,
  duplicates INTEGER,
  failed     INTEGER,
  message    TEXT,
  created_at BIGINT
)`,
		}, nil

	case "sqlite", "duckdb":
		floatType := "REAL"
		if driver == "duckdb" {
			floatType = "DOUBLE"
		}
		return []string{
			fmt.Sprintf(`CREATE TABLE IF NOT EXISTS logbook_entries (
  id                    BIGINT PRIMARY KEY,
  unique_key            TEXT NOT NULL UNIQUE,
  user_id               BIGINT NOT NULL,
  date                  TEXT,
  dep_ad                TEXT,
  arr_ad                TEXT,
  off_block             TEXT,
  on_block              TEXT,
  aircraft_type         TEXT,
  aircraft_registration TEXT,
  pic_name              TEXT,
  total                 %[1]s,
  day_time              %[1]s,
  night_time            %[1]s,
  pic_time              %[1]s,
  dual_time             %[1]s,
  land_day              INTEGER,
  land_night            INTEGER,
  remarks               TEXT,
  source                TEXT,
  created_at            BIGINT
)`, floatType),
			`CREATE INDEX IF NOT EXISTS idx_logbook_entries_user ON logbook_entries (user_id, date)`,
			`CREATE TABLE IF NOT EXISTS flight_recordings (
  id          BIGINT PRIMARY KEY,
  user_id     BIGINT NOT NULL,
  source      TEXT,
  name        TEXT,
  description TEXT,
  raw_points  INTEGER,
  point_count INTEGER,
  coords      BLOB,
  created_at  BIGINT
)`,
			`CREATE TABLE IF NOT EXISTS upload_history (
  id         BIGINT PRIMARY KEY,
  upload_id  TEXT NOT NULL,
  user_id    BIGINT NOT NULL,
  kind       TEXT,
  source     TEXT,
  filename   TEXT,
  status     TEXT,
  submitted  INTEGER,
  created    INTEGER,
  duplicates INTEGER,
  failed     INTEGER,
  message    TEXT,
  created_at BIGINT
)`,
		}, nil

	case "genji":
		// Genji has no BIGINT alias; INTEGER is 64-bit there.
		return []string{
			`CREATE TABLE IF NOT EXISTS logbook_entries (
  id                    INTEGER PRIMARY KEY,
  unique_key            TEXT NOT NULL UNIQUE,
  user_id               INTEGER NOT NULL,
  date                  TEXT,
  dep_ad                TEXT,
  arr_ad                TEXT,
  off_block             TEXT,
  on_block              TEXT,
  aircraft_type         TEXT,
  aircraft_registration TEXT,
  pic_name              TEXT,
  total                 DOUBLE,
  day_time              DOUBLE,
  night_time            DOUBLE,
  pic_time              DOUBLE,
  dual_time             DOUBLE,
  land_day              INTEGER,
  land_night            INTEGER,
  remarks               TEXT,
  source                TEXT,
  created_at            INTEGER
)`,
			`CREATE INDEX IF NOT EXISTS idx_logbook_entries_user ON logbook_entries (user_id)`,
			`CREATE TABLE IF NOT EXISTS flight_recordings (
  id          INTEGER PRIMARY KEY,
  user_id     INTEGER NOT NULL,
  source      TEXT,
  name        TEXT,
  description TEXT,
  raw_points  INTEGER,
  point_count INTEGER,
  coords      BLOB,
  created_at  INTEGER
)`,
			`CREATE TABLE IF NOT EXISTS upload_history (
  id         INTEGER PRIMARY KEY,
  upload_id  TEXT NOT NULL,
  user_id    INTEGER NOT NULL,
  kind       TEXT,
  source     TEXT,
  filename   TEXT,
  status     TEXT,
  submitted  INTEGER,
  created    INTEGER,
  duplicates INTEGER,
  failed     INTEGER,
  message    TEXT,
  created_at INTEGER
)`,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported database type: %s", driver)
	}
}
