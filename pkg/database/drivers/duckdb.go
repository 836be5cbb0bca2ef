//go:build cgo && duckdb && linux && (amd64 || arm64)

// DuckDB talks to the C++ engine through cgo, so it is only compiled with the
// duckdb tag on Linux. Build with:
//
//	CGO_ENABLED=1 go build -tags duckdb
package drivers

import (
	_ "github.com/marcboeker/go-duckdb"
)
