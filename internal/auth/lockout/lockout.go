// Package lockout throttles repeated failed logins per account.
//
// A sliding window counts failures; crossing the threshold hard-locks the
// account for a fixed duration. Successful login clears the record. State is
// in-process: a lockout protects against online guessing, not against an
// attacker who can already rotate instances.
package lockout

import (
	"context"
	"strings"
	"sync"
	"time"

	"bloodlink/internal/audit"
	dErrors "bloodlink/pkg/domain-errors"
	"bloodlink/pkg/requestcontext"
)

type record struct {
	failures    int
	windowStart time.Time
	lockedUntil time.Time
}

// Guard tracks failed logins. A nil Guard allows everything, so wiring
// without lockout stays simple.
type Guard struct {
	mu      sync.Mutex
	records map[string]*record

	maxFailures int
	window      time.Duration
	lockFor     time.Duration
	emitter     *audit.Emitter
}

// New creates a guard locking accounts for lockFor after maxFailures failed
// attempts within window.
func New(maxFailures int, window, lockFor time.Duration, emitter *audit.Emitter) *Guard {
	return &Guard{
		records:     make(map[string]*record),
		maxFailures: maxFailures,
		window:      window,
		lockFor:     lockFor,
		emitter:     emitter,
	}
}

func key(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// Allow reports whether a login attempt for the account may proceed.
// While locked it fails with CodeRateLimited carrying the retry delay.
func (g *Guard) Allow(ctx context.Context, username string) error {
	if g == nil {
		return nil
	}
	now := requestcontext.Now(ctx)

	g.mu.Lock()
	defer g.mu.Unlock()

	r, ok := g.records[key(username)]
	if !ok || now.After(r.lockedUntil) {
		return nil
	}
	retryAfter := int(r.lockedUntil.Sub(now).Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}
	return dErrors.New(dErrors.CodeRateLimited, "too many failed login attempts").
		WithDetails(map[string]any{"retry_after_seconds": retryAfter})
}

// RecordFailure counts a failed attempt, locking the account once the
// window's failure budget is spent.
func (g *Guard) RecordFailure(ctx context.Context, username string) {
	if g == nil {
		return
	}
	now := requestcontext.Now(ctx)
	k := key(username)

	g.mu.Lock()
	r, ok := g.records[k]
	if !ok || now.Sub(r.windowStart) > g.window {
		r = &record{windowStart: now}
		g.records[k] = r
	}
	r.failures++
	locked := r.failures >= g.maxFailures
	if locked {
		r.lockedUntil = now.Add(g.lockFor)
		r.failures = 0
		r.windowStart = now
	}
	g.mu.Unlock()

	if locked {
		g.emitter.Emit(ctx, audit.Event{
			Action:   audit.ActionAccountLocked,
			EntityID: k,
			Detail:   "account locked after repeated failed logins",
		})
	}
}

// Clear forgets the account's failure history after a successful login.
func (g *Guard) Clear(ctx context.Context, username string) {
	if g == nil {
		return
	}
	g.mu.Lock()
	delete(g.records, key(username))
	g.mu.Unlock()
}
