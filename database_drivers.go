//go:build !test

// Heavyweight SQL drivers are linked into the binary only; builds with the
// test tag skip them.
package main

import "flown-records/pkg/database/drivers"

func init() {
	drivers.Ready()
}
