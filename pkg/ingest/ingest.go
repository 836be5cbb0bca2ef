// Package ingest submits records to a persistence collaborator in chunks.
//
// Each record is created on its own so one bad row never sinks its
// neighbours. Duplicates are expected on re-uploads and are swallowed; other
// failures are logged and counted. Chunks are separated by a short pause so a
// large upload does not monopolise the database.
package ingest

import (
	"context"
	"errors"
	"log"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultChunkSize = 500
	DefaultPause     = 50 * time.Millisecond
)

// ErrDuplicate is the default duplicate marker. Collaborators wrap it, or set
// Batch.IsDuplicate to recognise their own conflict errors.
var ErrDuplicate = errors.New("duplicate record")

// Progress is sent after every chunk. Sends never block: a slow reader just
// misses updates.
type Progress struct {
	Chunk    int // 1-based
	Size     int
	Done     int
	Total    int
	Duration time.Duration
}

// Report summarises a run. Submitted == Created + Duplicates + Failed.
type Report struct {
	Submitted  int
	Created    int
	Duplicates int
	Failed     int
	Chunks     int
}

// Batch configures one ingestion run. Zero values fall back to the package
// defaults and a negative Pause disables pausing. Create is required.
type Batch[T any] struct {
	ChunkSize int
	Pause     time.Duration
	// Workers > 1 creates the records of a chunk concurrently. Results keep
	// input order either way.
	Workers int

	Create      func(ctx context.Context, rec T) (T, error)
	IsDuplicate func(error) bool
	Logf        func(format string, args ...any)
	Progress    chan<- Progress
}

type outcome int

const (
	skipped outcome = iota
	created
	duplicate
	failed
)

// Run submits records chunk by chunk and returns the created ones in input
// order. A cancelled context stops the run between records or during a
// pause; what was created so far comes back together with ctx.Err().
func (b *Batch[T]) Run(ctx context.Context, records []T) ([]T, Report, error) {
	if b.Create == nil {
		return nil, Report{}, errors.New("ingest: Create is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	chunkSize := b.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	pause := b.Pause
	if pause < 0 {
		pause = 0
	} else if pause == 0 {
		pause = DefaultPause
	}
	isDup := b.IsDuplicate
	if isDup == nil {
		isDup = func(err error) bool { return errors.Is(err, ErrDuplicate) }
	}
	logf := b.Logf
	if logf == nil {
		logf = log.Printf
	}

	var (
		rep   Report
		out   = make([]T, 0, len(records))
		total = len(records)
	)

	for start := 0; start < total; start += chunkSize {
		if start > 0 && pause > 0 {
			t := time.NewTimer(pause)
			select {
			case <-ctx.Done():
				t.Stop()
				return out, rep, ctx.Err()
			case <-t.C:
			}
		}

		end := start + chunkSize
		if end > total {
			end = total
		}
		chunk := records[start:end]
		chunkStart := time.Now()
		rep.Chunks++

		results := make([]T, len(chunk))
		outcomes := make([]outcome, len(chunk))
		submit := func(i int) {
			res, err := b.Create(ctx, chunk[i])
			switch {
			case err == nil:
				results[i] = res
				outcomes[i] = created
			case isDup(err):
				outcomes[i] = duplicate
			default:
				outcomes[i] = failed
				logf("[ingest] record %d failed: %v", start+i+1, err)
			}
		}

		if b.Workers > 1 {
			g, gctx := errgroup.WithContext(ctx)
			g.SetLimit(b.Workers)
			for i := range chunk {
				if gctx.Err() != nil {
					break
				}
				g.Go(func() error {
					if err := gctx.Err(); err != nil {
						return err
					}
					submit(i)
					return nil
				})
			}
			_ = g.Wait()
		} else {
			for i := range chunk {
				if ctx.Err() != nil {
					break
				}
				submit(i)
			}
		}

		for i, o := range outcomes {
			switch o {
			case created:
				out = append(out, results[i])
				rep.Created++
			case duplicate:
				rep.Duplicates++
			case failed:
				rep.Failed++
			default:
				continue
			}
			rep.Submitted++
		}

		if b.Progress != nil {
			select {
			case b.Progress <- Progress{Chunk: rep.Chunks, Size: len(chunk), Done: rep.Submitted, Total: total, Duration: time.Since(chunkStart)}:
			default:
			}
		}

		if err := ctx.Err(); err != nil {
			return out, rep, err
		}
	}
	return out, rep, nil
}
