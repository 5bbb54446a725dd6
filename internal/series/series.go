// Package series holds the bucketed time-series shape shared by the
// simulated (detector) and observed (gantry) pipelines. Both sides must
// produce the exact same key grid or the comparison join silently starves.
package series

import "sort"

// Key addresses one count: a station and a bucket start expressed in minutes
// from the case start.
type Key struct {
	Station string
	Bucket  int
}

// Series maps keys to summed counts.
type Series map[Key]float64

// Add accumulates a count into the bucket.
func (s Series) Add(station string, bucket int, count float64) {
	s[Key{Station: station, Bucket: bucket}] += count
}

// Merge folds other into s.
func (s Series) Merge(other Series) {
	for k, v := range other {
		s[k] += v
	}
}

// Stations returns the distinct station ids, sorted.
func (s Series) Stations() []string {
	seen := make(map[string]struct{})
	for k := range s {
		seen[k.Station] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for station := range seen {
		out = append(out, station)
	}
	sort.Strings(out)
	return out
}

// Bucket floors whole minutes onto the interval grid.
func Bucket(minutes, intervalMinutes int) int {
	return minutes / intervalMinutes * intervalMinutes
}
