package cases

import (
	"time"

	"github.com/google/uuid"

	"calibra/internal/analysis"
	domainerrors "calibra/pkg/domain-errors"
)

// Status is the lifecycle state of a case.
type Status string

const (
	StatusCreated    Status = "CREATED"
	StatusProcessing Status = "PROCESSING"
	StatusSimulating Status = "SIMULATING"
	StatusAnalyzing  Status = "ANALYZING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

// transitions is the forward edge set of the lifecycle machine. FAILED is
// reachable from every non-terminal state and handled in CanTransition
// rather than listed per state.
var transitions = map[Status]Status{
	StatusCreated:    StatusProcessing,
	StatusProcessing: StatusSimulating,
	StatusSimulating: StatusAnalyzing,
	StatusAnalyzing:  StatusCompleted,
}

// Terminal reports whether the state has no outgoing transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Valid reports whether s is one of the known states.
func (s Status) Valid() bool {
	switch s {
	case StatusCreated, StatusProcessing, StatusSimulating, StatusAnalyzing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// CanTransition reports whether from → to is a legal lifecycle edge.
func CanTransition(from, to Status) bool {
	if from.Terminal() {
		return false
	}
	if to == StatusFailed {
		return true
	}
	return transitions[from] == to
}

// Well-known keys of Case.Files.
const (
	FileTAZ            = "taz"
	FileRoleMap        = "role_map"
	FileTAZFixed       = "taz_fixed"
	FileSimConfig      = "sim_config"
	FileDetectorConfig = "detector_config"
	FileOutputDir      = "output_dir"
	FileResultsDir     = "results_dir"
)

// TimeRange is the half-open observation window [Start, End) of a case.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Case bundles one simulation run: its inputs, lifecycle status, and the
// outcomes persisted by the pipeline. It is mutated only through
// Store.ApplyTransition.
type Case struct {
	ID          string    `json:"id"`
	Name        string    `json:"name,omitempty"`
	Description string    `json:"description,omitempty"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	TimeRange   TimeRange `json:"time_range"`

	Config     map[string]any    `json:"config,omitempty"`
	Statistics map[string]any    `json:"statistics,omitempty"`
	Files      map[string]string `json:"files,omitempty"`
	Summary    *analysis.Summary `json:"summary,omitempty"`

	FailureStage  string `json:"failure_stage,omitempty"`
	FailureReason string `json:"failure_reason,omitempty"`
}

// New builds a CREATED case with a fresh id and timestamps.
func New(name, description string, tr TimeRange, config map[string]any, files map[string]string) (Case, error) {
	if !tr.End.After(tr.Start) {
		return Case{}, domainerrors.New(domainerrors.CodeValidation, "time range end must be after start")
	}
	now := time.Now().UTC()
	return Case{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Status:      StatusCreated,
		CreatedAt:   now,
		UpdatedAt:   now,
		TimeRange:   tr,
		Config:      config,
		Files:       files,
	}, nil
}

// TransitionUpdate carries the stage payload written atomically with a
// status advance. Nil fields leave the stored value untouched; Statistics
// keys are merged into the stored map so later stages extend, not replace,
// earlier counts.
type TransitionUpdate struct {
	Stage      string
	Reason     string
	Statistics map[string]any
	Files      map[string]string
	Summary    *analysis.Summary
}
