package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rec struct {
	N  int
	ID int
}

func records(n int) []rec {
	out := make([]rec, n)
	for i := range out {
		out[i] = rec{N: i + 1}
	}
	return out
}

func TestRunDuplicateInMiddleChunk(t *testing.T) {
	progress := make(chan Progress, 10)
	var logged []string
	b := &Batch[rec]{
		Pause: time.Millisecond,
		Create: func(_ context.Context, r rec) (rec, error) {
			if r.N == 700 {
				return rec{}, fmt.Errorf("insert logbook entry: %w", ErrDuplicate)
			}
			r.ID = r.N * 10
			return r, nil
		},
		Logf:     func(f string, a ...any) { logged = append(logged, fmt.Sprintf(f, a...)) },
		Progress: progress,
	}

	out, rep, err := b.Run(context.Background(), records(1200))
	require.NoError(t, err)
	require.Len(t, out, 1199)
	assert.Equal(t, Report{Submitted: 1200, Created: 1199, Duplicates: 1, Failed: 0, Chunks: 3}, rep)
	assert.Empty(t, logged, "duplicates are not logged")

	for i, r := range out {
		want := i + 1
		if want >= 700 {
			want++
		}
		require.Equal(t, want, r.N)
		require.Equal(t, want*10, r.ID)
	}

	close(progress)
	var sizes, done []int
	for p := range progress {
		sizes = append(sizes, p.Size)
		done = append(done, p.Done)
		assert.Equal(t, 1200, p.Total)
	}
	assert.Equal(t, []int{500, 500, 200}, sizes)
	assert.Equal(t, []int{500, 1000, 1200}, done)
}

func TestRunFailuresAreLoggedAndSkipped(t *testing.T) {
	var mu sync.Mutex
	var logged []string
	boom := errors.New("connection reset")
	b := &Batch[rec]{
		ChunkSize: 4,
		Pause:     -1,
		Create: func(_ context.Context, r rec) (rec, error) {
			if r.N%3 == 0 {
				return rec{}, boom
			}
			return r, nil
		},
		Logf: func(f string, a ...any) {
			mu.Lock()
			defer mu.Unlock()
			logged = append(logged, fmt.Sprintf(f, a...))
		},
	}

	out, rep, err := b.Run(context.Background(), records(10))
	require.NoError(t, err)
	assert.Equal(t, []rec{{N: 1}, {N: 2}, {N: 4}, {N: 5}, {N: 7}, {N: 8}, {N: 10}}, out)
	assert.Equal(t, Report{Submitted: 10, Created: 7, Failed: 3, Chunks: 3}, rep)
	require.Len(t, logged, 3)
	assert.Contains(t, logged[0], "record 3 failed: connection reset")
}

func TestRunCustomDuplicateClassifier(t *testing.T) {
	conflict := errors.New("UNIQUE constraint failed: logbook_entries.unique_key")
	b := &Batch[rec]{
		Pause:       -1,
		IsDuplicate: func(err error) bool { return err == conflict },
		Create: func(_ context.Context, r rec) (rec, error) {
			if r.N == 2 {
				return rec{}, conflict
			}
			return r, nil
		},
		Logf: func(string, ...any) { t.Fatal("duplicate must not be logged") },
	}
	out, rep, err := b.Run(context.Background(), records(3))
	require.NoError(t, err)
	assert.Len(t, out, 2)
	assert.Equal(t, 1, rep.Duplicates)
}

func TestRunWorkersKeepOrder(t *testing.T) {
	var inFlight, peak int32
	b := &Batch[rec]{
		ChunkSize: 50,
		Pause:     -1,
		Workers:   4,
		Create: func(_ context.Context, r rec) (rec, error) {
			n := atomic.AddInt32(&inFlight, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(time.Duration(200-r.N) * time.Microsecond)
			atomic.AddInt32(&inFlight, -1)
			if r.N == 42 {
				return rec{}, ErrDuplicate
			}
			r.ID = r.N
			return r, nil
		},
	}

	out, rep, err := b.Run(context.Background(), records(120))
	require.NoError(t, err)
	require.Len(t, out, 119)
	for i := 1; i < len(out); i++ {
		require.Less(t, out[i-1].N, out[i].N)
	}
	assert.Equal(t, 3, rep.Chunks)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(4))
}

func TestRunPausesBetweenChunksOnly(t *testing.T) {
	b := &Batch[rec]{
		ChunkSize: 2,
		Pause:     30 * time.Millisecond,
		Create:    func(_ context.Context, r rec) (rec, error) { return r, nil },
	}
	start := time.Now()
	_, rep, err := b.Run(context.Background(), records(6))
	require.NoError(t, err)
	assert.Equal(t, 3, rep.Chunks)
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
}

func TestRunCancelledBetweenRecords(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	b := &Batch[rec]{
		Pause: -1,
		Create: func(_ context.Context, r rec) (rec, error) {
			if r.N == 600 {
				cancel()
			}
			return r, nil
		},
	}
	out, rep, err := b.Run(ctx, records(1200))
	require.ErrorIs(t, err, context.Canceled)
	assert.Len(t, out, 600)
	assert.Equal(t, 600, rep.Created)
	assert.Equal(t, 2, rep.Chunks)
}

func TestRunCancelledDuringPause(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	b := &Batch[rec]{
		ChunkSize: 1,
		Pause:     time.Hour,
		Create:    func(_ context.Context, r rec) (rec, error) { return r, nil },
	}
	out, rep, err := b.Run(ctx, records(3))
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, []rec{{N: 1}}, out)
	assert.Equal(t, 1, rep.Chunks)
}

func TestRunEmptyAndMisconfigured(t *testing.T) {
	b := &Batch[rec]{Create: func(_ context.Context, r rec) (rec, error) { return r, nil }}
	out, rep, err := b.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, Report{}, rep)

	_, _, err = (&Batch[rec]{}).Run(context.Background(), records(1))
	assert.Error(t, err)
}
