package observed

import (
	"context"
	"log/slog"
	"time"

	"calibra/internal/series"
	dErrors "calibra/pkg/domain-errors"
)

// Aligner buckets observed gantry rows onto the same interval grid the
// detector aggregator uses, so the two series share bucket boundaries
// exactly.
type Aligner struct {
	store           FlowStore
	intervalMinutes int
	logger          *slog.Logger
}

// Option configures an Aligner.
type Option func(*Aligner)

// WithLogger injects a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Aligner) { a.logger = logger }
}

// NewAligner builds an Aligner over the given store and bucket width.
func NewAligner(store FlowStore, intervalMinutes int, opts ...Option) *Aligner {
	a := &Aligner{
		store:           store,
		intervalMinutes: intervalMinutes,
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Align fetches observed rows for the station set in [start, end) and sums
// per-row class counts per (station, bucket). Bucket starts are minutes from
// the window start, floored onto the interval grid. A store failure aborts
// the whole alignment: observed data is not optional.
func (a *Aligner) Align(ctx context.Context, stations []string, start, end time.Time) (series.Series, error) {
	rows, err := a.store.Query(ctx, stations, start, end)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeDataSource, "align observed flow")
	}

	out := make(series.Series)
	for _, row := range rows {
		if row.Timestamp.Before(start) || !row.Timestamp.Before(end) {
			continue
		}
		minutes := int(row.Timestamp.Sub(start) / time.Minute)
		out.Add(row.Station, series.Bucket(minutes, a.intervalMinutes), row.Count())
	}

	a.logger.Debug("aligned observed flow",
		"rows", len(rows), "buckets", len(out), "stations", len(stations))
	return out, nil
}
