package cases

import (
	"context"
	"sort"
	"sync"
	"time"

	domainerrors "calibra/pkg/domain-errors"
)

// InMemoryStore keeps cases in a map. Used in tests and single-process
// deployments without Postgres.
type InMemoryStore struct {
	mu    sync.RWMutex
	cases map[string]Case
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{cases: make(map[string]Case)}
}

func (s *InMemoryStore) Create(_ context.Context, c Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cases[c.ID]; ok {
		return domainerrors.Newf(domainerrors.CodeConflict, "case %s already exists", c.ID)
	}
	s.cases[c.ID] = c
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, id string) (Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cases[id]
	if !ok {
		return Case{}, domainerrors.Newf(domainerrors.CodeNotFound, "case %s not found", id)
	}
	return c, nil
}

func (s *InMemoryStore) List(_ context.Context) ([]Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Case, 0, len(s.cases))
	for _, c := range s.cases {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryStore) ApplyTransition(_ context.Context, id string, from, to Status, upd TransitionUpdate) (Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cases[id]
	if !ok {
		return Case{}, domainerrors.Newf(domainerrors.CodeNotFound, "case %s not found", id)
	}
	if c.Status != from {
		return Case{}, domainerrors.Newf(domainerrors.CodeConflict,
			"case %s is %s, expected %s", id, c.Status, from)
	}
	if !CanTransition(from, to) {
		return Case{}, domainerrors.Newf(domainerrors.CodeConflict,
			"illegal transition %s -> %s for case %s", from, to, id)
	}
	c.Status = to
	c.UpdatedAt = time.Now().UTC()
	if upd.Statistics != nil {
		merged := make(map[string]any, len(c.Statistics)+len(upd.Statistics))
		for k, v := range c.Statistics {
			merged[k] = v
		}
		for k, v := range upd.Statistics {
			merged[k] = v
		}
		c.Statistics = merged
	}
	if upd.Files != nil {
		c.Files = upd.Files
	}
	if upd.Summary != nil {
		c.Summary = upd.Summary
	}
	if to == StatusFailed {
		c.FailureStage = upd.Stage
		c.FailureReason = upd.Reason
	}
	s.cases[id] = c
	return c, nil
}
