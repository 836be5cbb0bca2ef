// Package downsample thins long position sequences for display and storage.
package downsample

import "flown-records/pkg/telemetry"

// MaxPoints bounds recorded flights.
const MaxPoints = 5000

// Reduce keeps every stride-th element, stride being ceil(len/limit), so the
// result never exceeds limit. The first and last elements are always kept.
// When the input already fits it is returned as is; otherwise a new slice is
// built and the input is left alone. Reducing the result again is a no-op.
func Reduce[T any](in []T, limit int) []T {
	n := len(in)
	if limit <= 0 || n <= limit {
		return in
	}
	if limit == 1 {
		return []T{in[0]}
	}

	stride := (n + limit - 1) / limit
	out := make([]T, 0, limit)
	for i := 0; i < n; i += stride {
		out = append(out, in[i])
	}
	if (n-1)%stride != 0 {
		if len(out) < limit {
			out = append(out, in[n-1])
		} else {
			out[len(out)-1] = in[n-1]
		}
	}
	return out
}

// Coordinates bounds a recorded flight to MaxPoints.
func Coordinates(in []telemetry.Record) []telemetry.Record {
	return Reduce(in, MaxPoints)
}
