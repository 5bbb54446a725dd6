package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event records one case lifecycle transition. The originating stage rides
// along as data so diagnostics never depend on parsing reason strings.
type Event struct {
	ID         uuid.UUID `json:"id"`
	CaseID     string    `json:"case_id"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	Stage      string    `json:"stage,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Store is append-only persistence for transition events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByCase(ctx context.Context, caseID string) ([]Event, error)
}

// Publisher ships events to an external sink. Publishing is best-effort:
// the pipeline never fails because the trail could not be shipped.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}
