package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Recorder buffers transition events through a channel and a background
// worker: the lifecycle service emits without blocking on persistence or the
// broker. Events are appended to the store and, when a publisher is
// configured, shipped best-effort.
type Recorder struct {
	store     Store
	publisher Publisher
	inbox     chan Event
	logger    *slog.Logger
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithPublisher attaches an external sink.
func WithPublisher(p Publisher) Option {
	return func(r *Recorder) { r.publisher = p }
}

// WithLogger injects a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) { r.logger = logger }
}

// NewRecorder builds a Recorder over the given store.
func NewRecorder(store Store, opts ...Option) *Recorder {
	r := &Recorder{
		store:  store,
		inbox:  make(chan Event, 256),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Emit enqueues an event. A full inbox drops the event with a log line
// rather than stalling a pipeline run.
func (r *Recorder) Emit(event Event) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	select {
	case r.inbox <- event:
	default:
		r.logger.Warn("audit inbox full, dropping event", "case_id", event.CaseID, "to", event.To)
	}
}

// Run consumes the inbox until ctx is cancelled, draining what is already
// queued before returning.
func (r *Recorder) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			for {
				select {
				case event := <-r.inbox:
					r.handle(context.Background(), event)
				default:
					return ctx.Err()
				}
			}
		case event := <-r.inbox:
			r.handle(ctx, event)
		}
	}
}

func (r *Recorder) handle(ctx context.Context, event Event) {
	if err := r.store.Append(ctx, event); err != nil {
		r.logger.Error("append audit event", "case_id", event.CaseID, "error", err)
	}
	if r.publisher == nil {
		return
	}
	if err := r.publisher.Publish(ctx, event); err != nil {
		r.logger.Warn("publish audit event", "case_id", event.CaseID, "error", err)
	}
}
