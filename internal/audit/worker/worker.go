package worker

import (
	"context"
	"log/slog"

	"bloodlink/internal/audit"
)

// Worker consumes audit events from a channel and persists them. Persistence
// failures are logged and skipped; the audit trail is best-effort and must
// never stall the approval paths feeding it.
type Worker struct {
	store  audit.Store
	inbox  <-chan audit.Event
	logger *slog.Logger
}

func New(store audit.Store, inbox <-chan audit.Event, logger *slog.Logger) *Worker {
	return &Worker{store: store, inbox: inbox, logger: logger}
}

// Run drains the inbox until the context is canceled.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "failed to persist audit event",
					"error", err,
					"action", string(event.Action),
					"entity_id", event.EntityID,
				)
			}
		}
	}
}
