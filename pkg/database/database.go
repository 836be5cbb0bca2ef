// Package database persists logbook entries, telemetry recordings and the
// upload history on one of several SQL engines.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
)

const connectTimeout = 2 * time.Second

var errClosed = errors.New("database closed")

// Database is a handle plus the engine it talks to. Driver decides
// placeholders and DDL.
type Database struct {
	DB     *sql.DB
	Driver string
	Logf   func(string, ...any)

	ids  chan int64 // nil until InitSchema on engines without sequences
	done chan struct{}
}

// Config selects and addresses the engine. File engines use DBPath; pgx uses
// DBConn when set, otherwise the discrete fields.
type Config struct {
	DBType    string `toml:"type"` // sqlite, genji, duckdb or pgx
	DBPath    string `toml:"path"`
	DBConn    string `toml:"dsn"`
	DBHost    string `toml:"host"`
	DBPort    int    `toml:"port"`
	DBUser    string `toml:"user"`
	DBPass    string `toml:"password"`
	DBName    string `toml:"name"`
	PGSSLMode string `toml:"ssl_mode"`
}

// dataSource resolves the driver name and DSN.
func (c Config) dataSource() (driver, dsn string, err error) {
	driver = strings.ToLower(strings.TrimSpace(c.DBType))
	switch driver {
	case "sqlite", "genji", "duckdb":
		if c.DBPath != "" {
			return driver, c.DBPath, nil
		}
		return driver, "flown-records." + driver, nil
	case "pgx", "postgres", "postgresql":
		if dsn := strings.TrimSpace(c.DBConn); dsn != "" {
			return "pgx", dsn, nil
		}
		return "pgx", fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
			c.DBUser, c.DBPass, c.DBHost, c.DBPort, c.DBName, c.PGSSLMode), nil
	default:
		return "", "", fmt.Errorf("unsupported database type: %s", c.DBType)
	}
}

// NewDatabase opens the engine and checks it answers. Embedded engines get a
// single connection so statements never interleave.
func NewDatabase(config Config) (*Database, error) {
	driver, dsn, err := config.dataSource()
	if err != nil {
		return nil, err
	}

	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	db := &Database{DB: sqlDB, Driver: driver, Logf: log.Printf, done: make(chan struct{})}

	if driver != "pgx" {
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(0)
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}
	if err := db.tune(ctx); err != nil {
		db.logf("[db] %s tuning skipped: %v", driver, err)
	}

	db.logf("[db] using %s", driver)
	return db, nil
}

// Close stops the id sequence and releases the handle. It is safe to call
// more than once.
func (db *Database) Close() error {
	if db == nil || db.DB == nil {
		return nil
	}
	if db.done != nil {
		select {
		case <-db.done:
		default:
			close(db.done)
		}
	}
	return db.DB.Close()
}

// InitSchema creates the tables and, for engines without sequences, starts
// the id sequence after the highest id already stored.
func (db *Database) InitSchema(ctx context.Context) error {
	stmts, err := schemaStatements(db.Driver)
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		if _, err := db.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}

	if db.Driver != "pgx" && db.ids == nil {
		if db.done == nil {
			db.done = make(chan struct{})
		}
		db.ids = idSequence(db.highestID(ctx)+1, db.done)
	}
	return nil
}

// idSequence streams ids from one goroutine, so concurrent writers never
// share a counter. The goroutine exits once done is closed.
func idSequence(first int64, done <-chan struct{}) chan int64 {
	ids := make(chan int64)
	go func() {
		for id := first; ; id++ {
			select {
			case ids <- id:
			case <-done:
				return
			}
		}
	}()
	return ids
}

// highestID scans every table drawing from the shared sequence. A table that
// cannot be read counts as empty.
func (db *Database) highestID(ctx context.Context) int64 {
	var highest int64
	for _, table := range []string{"logbook_entries", "flight_recordings", "upload_history"} {
		var n sql.NullInt64
		if err := db.DB.QueryRowContext(ctx, "SELECT MAX(id) FROM "+table).Scan(&n); err != nil {
			continue
		}
		if n.Valid && n.Int64 > highest {
			highest = n.Int64
		}
	}
	return highest
}

func (db *Database) nextID(ctx context.Context) (int64, error) {
	if db.ids == nil {
		return 0, fmt.Errorf("schema not initialised")
	}
	select {
	case <-db.done:
		return 0, errClosed
	default:
	}
	select {
	case id := <-db.ids:
		return id, nil
	case <-db.done:
		return 0, errClosed
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// placeholder returns the n-th (1-based) bind marker.
func placeholder(driver string, n int) string {
	if driver == "pgx" {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func placeholders(driver string, count int) string {
	marks := make([]string, count)
	for i := range marks {
		marks[i] = placeholder(driver, i+1)
	}
	return strings.Join(marks, ",")
}

func (db *Database) logf(format string, args ...any) {
	if db.Logf != nil {
		db.Logf(format, args...)
	}
}
