package cases

import "context"

// Store persists case records. ApplyTransition is the only mutation path
// after Create: it writes status, updated_at, and stage payload in one
// atomic step, guarded by the expected current status.
type Store interface {
	Create(ctx context.Context, c Case) error
	Get(ctx context.Context, id string) (Case, error)
	List(ctx context.Context) ([]Case, error)
	ApplyTransition(ctx context.Context, id string, from, to Status, upd TransitionUpdate) (Case, error)
}
