package database

import (
	"context"
	"fmt"
	"runtime"
	"strings"
)

// pragma is one engine setting applied right after connecting. Settings that
// echo their new value (journal_mode) are read back for the log.
type pragma struct {
	name  string
	value string
	echo  bool
}

func enginePragmas(driver string) []pragma {
	switch driver {
	case "sqlite":
		return []pragma{
			{name: "journal_mode", value: "WAL", echo: true},
			{name: "synchronous", value: "NORMAL"},
			{name: "temp_store", value: "MEMORY"},
			{name: "cache_size", value: "-20000"},
			{name: "busy_timeout", value: "5000"},
			{name: "foreign_keys", value: "ON"},
		}
	case "duckdb":
		return []pragma{
			{name: "threads", value: fmt.Sprint(max(runtime.NumCPU(), 1))},
			{name: "checkpoint_threshold", value: "'256MB'"},
		}
	default:
		return nil
	}
}

// tune applies the engine's pragmas in order and stops at the first one the
// engine refuses.
func (db *Database) tune(ctx context.Context) error {
	tag := strings.ToUpper(db.Driver[:1]) + db.Driver[1:]
	for _, p := range enginePragmas(db.Driver) {
		stmt := fmt.Sprintf("PRAGMA %s=%s", p.name, p.value)
		if p.echo {
			var got string
			if err := db.DB.QueryRowContext(ctx, stmt).Scan(&got); err != nil {
				return fmt.Errorf("%s: %w", p.name, err)
			}
			db.logf("[db] %s %s -> %s", tag, p.name, got)
			continue
		}
		if _, err := db.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s: %w", p.name, err)
		}
	}
	return nil
}
