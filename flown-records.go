package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"flown-records/pkg/config"
)

var configPath = flag.String("config", "", "Path to a TOML config file (flags given on the command line win)")
var dbType = flag.String("db-type", "sqlite", "Type of the database driver: genji, sqlite, duckdb, or pgx (postgresql)")
var dbPath = flag.String("db-path", "", "Path to the database file (defaults to the current folder, applicable for genji, sqlite, duckdb drivers)")
var dbHost = flag.String("db-host", "localhost", "Database host (applicable for pgx driver)")
var dbPort = flag.Int("db-port", 5432, "Database port (applicable for pgx driver)")
var dbUser = flag.String("db-user", "postgres", "Database user (applicable for pgx driver)")
var dbPass = flag.String("db-pass", "", "Database password (applicable for pgx driver)")
var dbName = flag.String("db-name", "flown_records", "Database name (applicable for pgx driver)")
var pgSSLMode = flag.String("pg-ssl-mode", "disable", "PostgreSQL SSL mode: disable, allow, prefer, require, verify-ca, or verify-full")

var userID = flag.Int64("user", 1, "Owner of imported logbook entries and recordings")
var source = flag.String("source", "AIRNAV", "Source of the imported file: AIRNAV for recordings; CSV, FLIGHTLOGGER or XLSX for logbooks")

var parseFile = flag.String("parse", "", "Parse a KML, KMZ or GPX flight file and print the flights as JSON")
var geojsonOut = flag.String("geojson", "", "With -parse: write the flights as GeoJSON to this file instead")
var simplifyTolerance = flag.Float64("simplify", 0, "With -geojson: Douglas-Peucker tolerance in degrees (0 keeps every point)")
var kmlOut = flag.String("export-kml", "", "With -parse or -recording: write the result as KML to this file")
var recordingFile = flag.String("recording", "", "Import a telemetry KML recording")
var logbookFile = flag.String("logbook", "", "Import a logbook export (CSV or XLSX)")
var history = flag.Bool("history", false, "List the upload history and logbook size of -user")
var dryRun = flag.Bool("dry-run", false, "With -recording or -logbook: parse and report without touching the database")
var version = flag.Bool("version", false, "Show the application version")

var CompileVersion = "dev"

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("flown-records version %s\n", CompileVersion)
		return
	}

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	act, err := selectAction()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, act, os.Stdout); err != nil {
		if errors.Is(err, context.Canceled) {
			log.Printf("⚠  interrupted: %v", err)
			os.Exit(130)
		}
		log.Fatalf("%s: %v", act.name, err)
	}
}

// loadConfig layers the config file over the defaults and the flags the user
// actually typed over the file.
func loadConfig() (config.Config, error) {
	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return cfg, err
		}
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "db-type":
			cfg.Database.DBType = *dbType
		case "db-path":
			cfg.Database.DBPath = *dbPath
		case "db-host":
			cfg.Database.DBHost = *dbHost
		case "db-port":
			cfg.Database.DBPort = *dbPort
		case "db-user":
			cfg.Database.DBUser = *dbUser
		case "db-pass":
			cfg.Database.DBPass = *dbPass
		case "db-name":
			cfg.Database.DBName = *dbName
		case "pg-ssl-mode":
			cfg.Database.PGSSLMode = *pgSSLMode
		}
	})
	return cfg, cfg.Validate()
}

// selectAction insists on exactly one action flag.
func selectAction() (action, error) {
	var picked []action
	if *parseFile != "" {
		picked = append(picked, action{name: "parse", file: *parseFile})
	}
	if *recordingFile != "" {
		picked = append(picked, action{name: "recording", file: *recordingFile})
	}
	if *logbookFile != "" {
		picked = append(picked, action{name: "logbook", file: *logbookFile})
	}
	if *history {
		picked = append(picked, action{name: "history"})
	}

	switch len(picked) {
	case 0:
		return action{}, errors.New("nothing to do: pass one of -parse, -recording, -logbook or -history")
	case 1:
	default:
		return action{}, fmt.Errorf("only one action per run, got %d", len(picked))
	}

	act := picked[0]
	act.userID = *userID
	act.source = *source
	act.geojson = *geojsonOut
	act.kml = *kmlOut
	act.tolerance = *simplifyTolerance
	act.dryRun = *dryRun

	if act.geojson != "" && act.name != "parse" {
		return action{}, errors.New("-geojson only applies to -parse")
	}
	if act.kml != "" && act.name != "parse" && act.name != "recording" {
		return action{}, errors.New("-export-kml only applies to -parse and -recording")
	}
	return act, nil
}
