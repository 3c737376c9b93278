// Package audit records workflow decisions: who approved or rejected what,
// and when inventory was touched outside the donation flow.
//
// Services emit events through an Emitter backed by a buffered channel; a
// worker goroutine drains the channel into the store. Emission is
// best-effort: a full buffer drops the event with a warning rather than
// blocking an approval.
package audit

import (
	"context"
	"log/slog"
	"time"

	"bloodlink/pkg/requestcontext"
)

// Action names the decision being recorded.
type Action string

const (
	ActionRequestApproved     Action = "request_approved"
	ActionRequestRejected     Action = "request_rejected"
	ActionDonationApproved    Action = "donation_approved"
	ActionDonationRejected    Action = "donation_rejected"
	ActionDonationCompleted   Action = "donation_completed"
	ActionInventoryOverridden Action = "inventory_overridden"
	ActionAccountLocked       Action = "account_locked"
)

// Event is one recorded decision. Keep it transport-agnostic so stores can
// fan out without HTTP knowledge.
type Event struct {
	Action    Action
	ActorID   string
	EntityID  string
	Detail    string
	Timestamp time.Time
	RequestID string
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Emitter queues events for the background worker. A nil Emitter is valid
// and drops everything, so tests and wiring without audit stay simple.
type Emitter struct {
	inbox  chan<- Event
	logger *slog.Logger
}

// NewEmitter creates an emitter feeding the given channel.
func NewEmitter(inbox chan<- Event, logger *slog.Logger) *Emitter {
	return &Emitter{inbox: inbox, logger: logger}
}

// Emit stamps the event with the request-scoped time and correlation ID and
// queues it. Never blocks.
func (e *Emitter) Emit(ctx context.Context, event Event) {
	if e == nil || e.inbox == nil {
		return
	}
	event.Timestamp = requestcontext.Now(ctx)
	event.RequestID = requestcontext.RequestID(ctx)

	select {
	case e.inbox <- event:
	default:
		if e.logger != nil {
			e.logger.WarnContext(ctx, "audit buffer full, dropping event",
				"action", string(event.Action),
				"entity_id", event.EntityID,
			)
		}
	}
}
