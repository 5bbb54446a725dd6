package cases

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "calibra/pkg/domain-errors"
)

func TestCanTransitionForwardChain(t *testing.T) {
	assert.True(t, CanTransition(StatusCreated, StatusProcessing))
	assert.True(t, CanTransition(StatusProcessing, StatusSimulating))
	assert.True(t, CanTransition(StatusSimulating, StatusAnalyzing))
	assert.True(t, CanTransition(StatusAnalyzing, StatusCompleted))
}

func TestCanTransitionFailFromAnyNonTerminal(t *testing.T) {
	for _, from := range []Status{StatusCreated, StatusProcessing, StatusSimulating, StatusAnalyzing} {
		assert.True(t, CanTransition(from, StatusFailed), "from %s", from)
	}
}

func TestCanTransitionTerminalStatesRejectEverything(t *testing.T) {
	all := []Status{StatusCreated, StatusProcessing, StatusSimulating, StatusAnalyzing, StatusCompleted, StatusFailed}
	for _, to := range all {
		assert.False(t, CanTransition(StatusCompleted, to), "COMPLETED -> %s", to)
		assert.False(t, CanTransition(StatusFailed, to), "FAILED -> %s", to)
	}
}

func TestCanTransitionRejectsSkipsAndReversals(t *testing.T) {
	assert.False(t, CanTransition(StatusCreated, StatusSimulating))
	assert.False(t, CanTransition(StatusCreated, StatusCompleted))
	assert.False(t, CanTransition(StatusProcessing, StatusCreated))
	assert.False(t, CanTransition(StatusAnalyzing, StatusProcessing))
}

func TestNewCase(t *testing.T) {
	start := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	c, err := New("morning peak", "", TimeRange{Start: start, End: start.Add(2 * time.Hour)}, nil, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, StatusCreated, c.Status)
	assert.Equal(t, c.CreatedAt, c.UpdatedAt)
}

func TestNewCaseRejectsEmptyRange(t *testing.T) {
	start := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	_, err := New("bad", "", TimeRange{Start: start, End: start}, nil, nil)
	require.Error(t, err)
	assert.True(t, domainerrors.HasCode(err, domainerrors.CodeValidation))
}
