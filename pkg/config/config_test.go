package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flown-records/pkg/uploads"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "flown-records.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultMatchesUploadDefaults(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NoError(t, cfg.Validate())

	limits, err := cfg.UploadLimits()
	require.NoError(t, err)
	assert.Equal(t, uploads.DefaultLimits(), limits)

	pause, err := cfg.PauseDuration()
	require.NoError(t, err)
	assert.Equal(t, 50*time.Millisecond, pause)
	assert.Equal(t, "sqlite", cfg.Database.DBType)
}

func TestLoadOverridesDefaults(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
[database]
type = "pgx"
host = "db.internal"
port = 6432
name = "logbooks"

[ingest]
chunk_size = 200
pause = "-1s"
workers = 4

[limits]
max_csv_size = "10 MB"
max_coordinate_points = 20000
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "pgx", cfg.Database.DBType)
	assert.Equal(t, "db.internal", cfg.Database.DBHost)
	assert.Equal(t, 6432, cfg.Database.DBPort)
	assert.Equal(t, "postgres", cfg.Database.DBUser, "untouched keys keep their default")

	limits, err := cfg.UploadLimits()
	require.NoError(t, err)
	assert.Equal(t, int64(10_000_000), limits.MaxCSVBytes)
	assert.Equal(t, int64(100<<20), limits.MaxKMLBytes)
	assert.Equal(t, 10000, limits.MaxLogbookEntries)
	assert.Equal(t, 20000, limits.MaxCoordinatePoints)

	svc, err := cfg.Service(nil)
	require.NoError(t, err)
	assert.Equal(t, 200, svc.ChunkSize)
	assert.Equal(t, -time.Second, svc.Pause)
	assert.Equal(t, 4, svc.Workers)
	assert.Equal(t, limits, svc.Limits)
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		body string
		want string
	}{
		{name: "unknown key", body: "[database]\nflavour = \"sqlite\"\n", want: "flavour"},
		{name: "bad toml", body: "[database\n", want: "config"},
		{name: "bad size", body: "[limits]\nmax_kml_size = \"lots\"\n", want: "limits.max_kml_size"},
		{name: "bad pause", body: "[ingest]\npause = \"soon\"\n", want: "ingest.pause"},
		{name: "negative chunk", body: "[ingest]\nchunk_size = -5\n", want: "chunk_size"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := Load(writeConfig(t, tc.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestEmptySizeMeansNoLimit(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Limits.MaxCSVSize = ""
	limits, err := cfg.UploadLimits()
	require.NoError(t, err)
	assert.Zero(t, limits.MaxCSVBytes)
}
