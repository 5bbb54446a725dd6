package detector

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"calibra/internal/series"
)

// Aggregator turns per-detector output files into the simulated series:
// counts summed per (station, bucket) on the shared interval grid.
type Aggregator struct {
	intervalMinutes int
	workers         int
	logger          *slog.Logger
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithLogger injects a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Aggregator) { a.logger = logger }
}

// WithWorkers caps concurrent output-file parsing.
func WithWorkers(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.workers = n
		}
	}
}

// NewAggregator builds an Aggregator for the given bucket width.
func NewAggregator(intervalMinutes int, opts ...Option) *Aggregator {
	a := &Aggregator{
		intervalMinutes: intervalMinutes,
		workers:         8,
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Aggregate parses every detector's output under outputDir and sums counts
// per (station, bucket). A missing or malformed file skips that detector
// only; skips are logged and counted, never fatal. The files are independent
// so parsing fans out over a bounded worker pool.
func (a *Aggregator) Aggregate(ctx context.Context, outputDir string, defs []Definition) (series.Series, int, error) {
	out := make(series.Series)
	var (
		mu      sync.Mutex
		skipped int
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)

	for _, def := range defs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			intervals, err := parseOutputFile(filepath.Join(outputDir, def.File))
			if err != nil {
				a.logger.Warn("skipping detector output",
					"detector", def.ID, "file", def.File, "error", err)
				mu.Lock()
				skipped++
				mu.Unlock()
				return nil
			}

			station := StationID(def.ID)
			local := make(series.Series)
			for _, iv := range intervals {
				// Whole-minute floor first, then onto the bucket grid.
				minute := int(iv.Begin) / 60
				local.Add(station, series.Bucket(minute, a.intervalMinutes), iv.Count)
			}

			mu.Lock()
			out.Merge(local)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, skipped, err
	}
	return out, skipped, nil
}
