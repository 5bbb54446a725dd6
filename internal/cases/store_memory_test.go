package cases

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calibra/internal/analysis"
	domainerrors "calibra/pkg/domain-errors"
)

func testCase(t *testing.T) Case {
	t.Helper()
	start := time.Date(2025, 3, 3, 6, 0, 0, 0, time.UTC)
	c, err := New("weekday", "", TimeRange{Start: start, End: start.Add(3 * time.Hour)}, nil, nil)
	require.NoError(t, err)
	return c
}

func TestInMemoryStoreCreateAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	c := testCase(t)

	require.NoError(t, store.Create(ctx, c))

	got, err := store.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c, got)

	err = store.Create(ctx, c)
	require.Error(t, err)
	assert.True(t, domainerrors.HasCode(err, domainerrors.CodeConflict))

	_, err = store.Get(ctx, "missing")
	assert.True(t, domainerrors.HasCode(err, domainerrors.CodeNotFound))
}

func TestInMemoryStoreApplyTransition(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	c := testCase(t)
	require.NoError(t, store.Create(ctx, c))

	updated, err := store.ApplyTransition(ctx, c.ID, StatusCreated, StatusProcessing, TransitionUpdate{
		Statistics: map[string]any{"zones": 12},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, updated.Status)
	assert.Equal(t, 12, updated.Statistics["zones"])
	assert.True(t, updated.UpdatedAt.After(c.UpdatedAt) || updated.UpdatedAt.Equal(c.UpdatedAt))

	// Status guard: the stored status moved on, the stale expectation loses.
	_, err = store.ApplyTransition(ctx, c.ID, StatusCreated, StatusProcessing, TransitionUpdate{})
	require.Error(t, err)
	assert.True(t, domainerrors.HasCode(err, domainerrors.CodeConflict))

	got, err := store.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, got.Status)
}

func TestInMemoryStoreFailureCarriesStageAndReason(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	c := testCase(t)
	require.NoError(t, store.Create(ctx, c))

	failed, err := store.ApplyTransition(ctx, c.ID, StatusCreated, StatusFailed, TransitionUpdate{
		Stage:  "prepare",
		Reason: "duplicate zone ids remained after resolution",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, failed.Status)
	assert.Equal(t, "prepare", failed.FailureStage)
	assert.Equal(t, "duplicate zone ids remained after resolution", failed.FailureReason)

	// Terminal: nothing leaves FAILED.
	_, err = store.ApplyTransition(ctx, c.ID, StatusFailed, StatusProcessing, TransitionUpdate{})
	require.Error(t, err)
	assert.True(t, domainerrors.HasCode(err, domainerrors.CodeConflict))
}

func TestInMemoryStoreSummaryPersistedWithCompletion(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	c := testCase(t)
	require.NoError(t, store.Create(ctx, c))

	var err error
	for _, step := range []Status{StatusProcessing, StatusSimulating, StatusAnalyzing} {
		_, err = store.ApplyTransition(ctx, c.ID, prev(step), step, TransitionUpdate{})
		require.NoError(t, err)
	}

	summary := &analysis.Summary{Records: 4, DefinedGEH: 4, AnomalyCount: 1}
	done, err := store.ApplyTransition(ctx, c.ID, StatusAnalyzing, StatusCompleted, TransitionUpdate{Summary: summary})
	require.NoError(t, err)
	require.NotNil(t, done.Summary)
	assert.Equal(t, 4, done.Summary.Records)
	assert.Equal(t, 1, done.Summary.AnomalyCount)
}

func prev(s Status) Status {
	switch s {
	case StatusProcessing:
		return StatusCreated
	case StatusSimulating:
		return StatusProcessing
	case StatusAnalyzing:
		return StatusSimulating
	default:
		return s
	}
}

func TestInMemoryStoreListOrdering(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	first := testCase(t)
	second := testCase(t)
	second.CreatedAt = first.CreatedAt.Add(time.Minute)
	require.NoError(t, store.Create(ctx, second))
	require.NoError(t, store.Create(ctx, first))

	listed, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, first.ID, listed[0].ID)
	assert.Equal(t, second.ID, listed[1].ID)
}
