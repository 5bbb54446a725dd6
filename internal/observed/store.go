package observed

import (
	"context"
	"time"
)

// ClassColumns is the documented, fixed set of vehicle-class count columns
// summed into one per-row count: four passenger classes and six truck
// classes. Other columns of the gantry table never contribute.
var ClassColumns = []string{"k1", "k2", "k3", "k4", "h1", "h2", "h3", "h4", "h5", "h6"}

// FlowRow is one observed gantry measurement. Classes holds the values of
// ClassColumns in order; a nil entry marks a non-numeric source value, which
// is excluded from the row count rather than coerced to zero; zeroing would
// silently lower true counts.
type FlowRow struct {
	Station   string
	Timestamp time.Time
	Classes   []*float64
}

// Count sums the numeric class values of the row.
func (r FlowRow) Count() float64 {
	var total float64
	for _, c := range r.Classes {
		if c != nil {
			total += *c
		}
	}
	return total
}

// FlowStore fetches observed rows for a station set inside [start, end).
type FlowStore interface {
	Query(ctx context.Context, stations []string, start, end time.Time) ([]FlowRow, error)
}
