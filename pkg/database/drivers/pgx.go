package drivers

import (
	// Registers the "pgx" database/sql driver name used by -db-type=pgx.
	_ "github.com/jackc/pgx/v5/stdlib"
)
