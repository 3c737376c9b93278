// Package service implements the inventory ledger, the single owner of
// per-(bank, blood group) unit counters. Workflow services never touch
// inventory storage directly; everything goes through Debit and Credit here.
package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"bloodlink/internal/audit"
	"bloodlink/internal/inventory/models"
	"bloodlink/pkg/domain"
	dErrors "bloodlink/pkg/domain-errors"
	"bloodlink/pkg/platform/sentinel"
	"bloodlink/pkg/requestcontext"
)

// Store is the persistence contract for the ledger. Implementations must make
// Debit and Credit atomic per (bank, group) key: two concurrent debits whose
// sum exceeds the balance must not both succeed.
type Store interface {
	Debit(ctx context.Context, bank domain.BankID, group domain.BloodGroup, amount int) (*models.Entry, error)
	Credit(ctx context.Context, bank domain.BankID, group domain.BloodGroup, amount int) (*models.Entry, error)
	Get(ctx context.Context, bank domain.BankID, group domain.BloodGroup) (*models.Entry, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Entry, error)
	SetUnits(ctx context.Context, id uuid.UUID, units int) (*models.Entry, error)
	List(ctx context.Context, filter models.Filter) ([]*models.Entry, error)
	AvailabilityByGroup(ctx context.Context) (map[domain.BloodGroup]int, error)
}

// CacheInvalidator drops derived availability views after a direct stock
// correction, so dashboards do not serve the pre-override number for a full
// cache TTL.
type CacheInvalidator interface {
	Invalidate(ctx context.Context)
}

// Ledger exposes the debit/credit contract plus the read views built on it.
type Ledger struct {
	store   Store
	emitter *audit.Emitter
	cache   CacheInvalidator
}

// NewLedger creates a ledger over the given store. The emitter may be nil.
func NewLedger(store Store, emitter *audit.Emitter) *Ledger {
	return &Ledger{store: store, emitter: emitter}
}

// AttachCache wires the availability cache after construction; the cache
// reads through this ledger, so one side attaches late. A nil cache is fine.
func (l *Ledger) AttachCache(cache CacheInvalidator) {
	l.cache = cache
}

// Debit removes units from a bank's counter for one blood group.
// Fails with CodeInsufficientUnits (carrying available/required) when the
// balance cannot cover the amount; state is left untouched in that case.
func (l *Ledger) Debit(ctx context.Context, bank domain.BankID, group domain.BloodGroup, amount int) (*models.Entry, error) {
	if amount <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "debit amount must be positive")
	}
	entry, err := l.store.Debit(ctx, bank, group, amount)
	if err != nil {
		var short *models.InsufficientUnitsError
		if errors.As(err, &short) {
			return nil, dErrors.Newf(dErrors.CodeInsufficientUnits,
				"Insufficient blood units. Available: %d, Required: %d", short.Available, short.Required).
				WithDetails(map[string]any{"available": short.Available, "required": short.Required})
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to debit inventory")
	}
	return entry, nil
}

// Credit adds units to a bank's counter, creating the entry on first credit.
func (l *Ledger) Credit(ctx context.Context, bank domain.BankID, group domain.BloodGroup, amount int) (*models.Entry, error) {
	if amount <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "credit amount must be positive")
	}
	entry, err := l.store.Credit(ctx, bank, group, amount)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to credit inventory")
	}
	return entry, nil
}

// Available returns the current balance for a (bank, group) pair; a missing
// entry reads as zero.
func (l *Ledger) Available(ctx context.Context, bank domain.BankID, group domain.BloodGroup) (int, error) {
	entry, err := l.store.Get(ctx, bank, group)
	if errors.Is(err, sentinel.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read inventory")
	}
	return entry.UnitsAvailable, nil
}

// List returns inventory entries, optionally filtered by bank and group.
func (l *Ledger) List(ctx context.Context, filter models.Filter) ([]*models.Entry, error) {
	entries, err := l.store.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list inventory")
	}
	return entries, nil
}

// AvailabilityByGroup sums availability per blood group across all banks.
func (l *Ledger) AvailabilityByGroup(ctx context.Context) (map[domain.BloodGroup]int, error) {
	totals, err := l.store.AvailabilityByGroup(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to aggregate availability")
	}
	return totals, nil
}

// Override sets a counter directly. Admin-only; used for stock corrections
// outside the donation flow.
func (l *Ledger) Override(ctx context.Context, entryID uuid.UUID, units int) (*models.Entry, error) {
	actor := requestcontext.Actor(ctx)
	if !actor.IsAdmin() {
		return nil, dErrors.New(dErrors.CodeForbidden, "admin role required")
	}
	if units < 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "units_available cannot be negative")
	}

	entry, err := l.store.SetUnits(ctx, entryID, units)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "inventory entry not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to override inventory")
	}

	l.emitter.Emit(ctx, audit.Event{
		Action:   audit.ActionInventoryOverridden,
		ActorID:  actor.ID.String(),
		EntityID: entry.ID.String(),
		Detail:   string(entry.BloodGroup),
	})
	if l.cache != nil {
		l.cache.Invalidate(ctx)
	}
	return entry, nil
}
