// Package config holds the settings of the flown-records binary. Defaults
// come from Default, an optional TOML file overrides them and command-line
// flags override the file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pelletier/go-toml/v2"

	"flown-records/pkg/database"
	"flown-records/pkg/ingest"
	"flown-records/pkg/uploads"
)

type Config struct {
	Database database.Config `toml:"database"`
	Ingest   Ingest          `toml:"ingest"`
	Limits   Limits          `toml:"limits"`
}

// Ingest tunes the logbook batch writer. Pause is a Go duration string;
// "0s" keeps the default and a negative value disables pausing.
type Ingest struct {
	ChunkSize int    `toml:"chunk_size"`
	Pause     string `toml:"pause"`
	Workers   int    `toml:"workers"`
}

// Limits uses human sizes ("50 MiB", "100MB").
type Limits struct {
	MaxCSVSize          string `toml:"max_csv_size"`
	MaxKMLSize          string `toml:"max_kml_size"`
	MaxLogbookEntries   int    `toml:"max_logbook_entries"`
	MaxCoordinatePoints int    `toml:"max_coordinate_points"`
}

func Default() Config {
	l := uploads.DefaultLimits()
	return Config{
		Database: database.Config{
			DBType:    "sqlite",
			DBHost:    "localhost",
			DBPort:    5432,
			DBUser:    "postgres",
			DBName:    "flown_records",
			PGSSLMode: "disable",
		},
		Ingest: Ingest{
			ChunkSize: ingest.DefaultChunkSize,
			Pause:     ingest.DefaultPause.String(),
			Workers:   1,
		},
		Limits: Limits{
			MaxCSVSize:          humanize.IBytes(uint64(l.MaxCSVBytes)),
			MaxKMLSize:          humanize.IBytes(uint64(l.MaxKMLBytes)),
			MaxLogbookEntries:   l.MaxLogbookEntries,
			MaxCoordinatePoints: l.MaxCoordinatePoints,
		},
	}
}

// Load reads a TOML file on top of Default. Unknown keys are an error so a
// typo does not silently fall back to a default.
func Load(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	dec := toml.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return cfg, fmt.Errorf("config %s: %s", path, strings.TrimSpace(strict.String()))
		}
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return cfg, fmt.Errorf("config %s:%d:%d: %w", path, row, col, err)
		}
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the fields that are parsed lazily.
func (c Config) Validate() error {
	if _, err := c.UploadLimits(); err != nil {
		return err
	}
	if _, err := c.PauseDuration(); err != nil {
		return err
	}
	if c.Ingest.ChunkSize < 0 {
		return fmt.Errorf("ingest.chunk_size must not be negative")
	}
	if c.Ingest.Workers < 0 {
		return fmt.Errorf("ingest.workers must not be negative")
	}
	return nil
}

func (c Config) PauseDuration() (time.Duration, error) {
	if strings.TrimSpace(c.Ingest.Pause) == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(c.Ingest.Pause))
	if err != nil {
		return 0, fmt.Errorf("ingest.pause: %w", err)
	}
	return d, nil
}

func (c Config) UploadLimits() (uploads.Limits, error) {
	csv, err := parseSize("limits.max_csv_size", c.Limits.MaxCSVSize)
	if err != nil {
		return uploads.Limits{}, err
	}
	kml, err := parseSize("limits.max_kml_size", c.Limits.MaxKMLSize)
	if err != nil {
		return uploads.Limits{}, err
	}
	return uploads.Limits{
		MaxCSVBytes:         csv,
		MaxKMLBytes:         kml,
		MaxLogbookEntries:   c.Limits.MaxLogbookEntries,
		MaxCoordinatePoints: c.Limits.MaxCoordinatePoints,
	}, nil
}

// Service builds an upload service over store with these settings.
func (c Config) Service(store uploads.Store) (*uploads.Service, error) {
	limits, err := c.UploadLimits()
	if err != nil {
		return nil, err
	}
	pause, err := c.PauseDuration()
	if err != nil {
		return nil, err
	}
	svc := uploads.New(store, limits)
	svc.ChunkSize = c.Ingest.ChunkSize
	svc.Pause = pause
	svc.Workers = c.Ingest.Workers
	return svc, nil
}

// parseSize accepts humanize sizes; an empty value means no limit.
func parseSize(key, v string) (int64, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if n > 1<<62 {
		return 0, fmt.Errorf("%s: %s is too large", key, v)
	}
	return int64(n), nil
}
