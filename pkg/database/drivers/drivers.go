// Package drivers groups database/sql driver registrations so heavy
// dependencies stay out of go test/go vet runs unless a binary explicitly
// imports this package.
package drivers

// Ready is a no-op the main package calls to make the import explicit.
func Ready() {}
