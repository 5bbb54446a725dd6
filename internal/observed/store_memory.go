package observed

import (
	"context"
	"sync"
	"time"
)

// InMemoryStore keeps rows in a slice; it backs unit tests and local runs
// without a warehouse.
type InMemoryStore struct {
	mu   sync.RWMutex
	rows []FlowRow
	err  error
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// Put appends rows.
func (s *InMemoryStore) Put(rows ...FlowRow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, rows...)
}

// FailWith makes every subsequent Query return err.
func (s *InMemoryStore) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *InMemoryStore) Query(_ context.Context, stations []string, start, end time.Time) ([]FlowRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return nil, s.err
	}

	wanted := make(map[string]struct{}, len(stations))
	for _, st := range stations {
		wanted[st] = struct{}{}
	}

	var out []FlowRow
	for _, row := range s.rows {
		if _, ok := wanted[row.Station]; !ok {
			continue
		}
		if row.Timestamp.Before(start) || !row.Timestamp.Before(end) {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}
