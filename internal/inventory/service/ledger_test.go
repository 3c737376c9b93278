package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bloodlink/internal/inventory/store"
	"bloodlink/pkg/domain"
	dErrors "bloodlink/pkg/domain-errors"
	"bloodlink/pkg/requestcontext"
)

func newLedger() *Ledger {
	return NewLedger(store.NewInMemory(), nil)
}

func adminCtx() context.Context {
	return requestcontext.WithActor(context.Background(),
		domain.Actor{ID: domain.NewUserID(), Role: domain.RoleAdmin})
}

func donorCtx() context.Context {
	return requestcontext.WithActor(context.Background(),
		domain.Actor{ID: domain.NewUserID(), Role: domain.RoleDonor})
}

func TestDebitSurfacesCounts(t *testing.T) {
	ledger := newLedger()
	ctx := context.Background()
	bank := domain.NewBankID()

	_, err := ledger.Credit(ctx, bank, domain.ONegative, 1)
	require.NoError(t, err)

	_, err = ledger.Debit(ctx, bank, domain.ONegative, 3)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInsufficientUnits))

	details := dErrors.DetailsOf(err)
	require.NotNil(t, details)
	assert.Equal(t, 1, details["available"])
	assert.Equal(t, 3, details["required"])

	// The refused debit left the balance alone.
	available, err := ledger.Available(ctx, bank, domain.ONegative)
	require.NoError(t, err)
	assert.Equal(t, 1, available)
}

func TestDebitRejectsNonPositiveAmount(t *testing.T) {
	ledger := newLedger()
	_, err := ledger.Debit(context.Background(), domain.NewBankID(), domain.OPositive, 0)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = ledger.Credit(context.Background(), domain.NewBankID(), domain.OPositive, -1)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestAvailableTreatsMissingEntryAsZero(t *testing.T) {
	ledger := newLedger()
	available, err := ledger.Available(context.Background(), domain.NewBankID(), domain.ABPositive)
	require.NoError(t, err)
	assert.Zero(t, available)
}

func TestOverrideRequiresAdmin(t *testing.T) {
	ledger := newLedger()

	_, err := ledger.Override(donorCtx(), uuid.New(), 5)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))

	_, err = ledger.Override(context.Background(), uuid.New(), 5)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden), "unauthenticated context is not admin")
}

func TestOverrideSetsUnits(t *testing.T) {
	ledger := newLedger()
	bank := domain.NewBankID()

	entry, err := ledger.Credit(context.Background(), bank, domain.BPositive, 2)
	require.NoError(t, err)

	updated, err := ledger.Override(adminCtx(), entry.ID, 12)
	require.NoError(t, err)
	assert.Equal(t, 12, updated.UnitsAvailable)

	_, err = ledger.Override(adminCtx(), entry.ID, -1)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = ledger.Override(adminCtx(), uuid.New(), 1)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

type invalidateRecorder struct {
	calls int
}

func (r *invalidateRecorder) Invalidate(ctx context.Context) { r.calls++ }

func TestOverrideInvalidatesAvailabilityCache(t *testing.T) {
	ledger := newLedger()
	cache := &invalidateRecorder{}
	ledger.AttachCache(cache)

	entry, err := ledger.Credit(context.Background(), domain.NewBankID(), domain.APositive, 4)
	require.NoError(t, err)

	_, err = ledger.Override(adminCtx(), entry.ID, 12)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.calls, "a direct correction drops the cached availability")

	// Failed overrides leave the cache alone.
	_, err = ledger.Override(donorCtx(), entry.ID, 3)
	require.Error(t, err)
	_, err = ledger.Override(adminCtx(), uuid.New(), 3)
	require.Error(t, err)
	assert.Equal(t, 1, cache.calls)
}
