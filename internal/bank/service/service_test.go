package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bloodlink/internal/bank/store"
	"bloodlink/pkg/domain"
	dErrors "bloodlink/pkg/domain-errors"
	"bloodlink/pkg/requestcontext"
)

func adminCtx() context.Context {
	return requestcontext.WithActor(context.Background(),
		domain.Actor{ID: domain.NewUserID(), Role: domain.RoleAdmin})
}

func donorCtx() context.Context {
	return requestcontext.WithActor(context.Background(),
		domain.Actor{ID: domain.NewUserID(), Role: domain.RoleDonor})
}

func TestCRUDRequiresAdmin(t *testing.T) {
	svc := New(store.NewInMemory())

	_, err := svc.Create(donorCtx(), Input{Name: "Central"})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))

	_, err = svc.List(donorCtx(), ListInput{})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))

	err = svc.Delete(donorCtx(), domain.NewBankID())
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
}

func TestCreateValidatesName(t *testing.T) {
	svc := New(store.NewInMemory())
	_, err := svc.Create(adminCtx(), Input{Name: "  "})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestLifecycle(t *testing.T) {
	svc := New(store.NewInMemory())
	ctx := adminCtx()

	b, err := svc.Create(ctx, Input{Name: "Central Blood Bank", City: "Pune"})
	require.NoError(t, err)
	assert.True(t, b.IsActive)

	got, err := svc.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Central Blood Bank", got.Name)

	inactive := false
	updated, err := svc.Update(ctx, b.ID, Input{Name: "Central", City: "Pune", IsActive: &inactive})
	require.NoError(t, err)
	assert.Equal(t, "Central", updated.Name)
	assert.False(t, updated.IsActive)

	require.NoError(t, svc.Delete(ctx, b.ID))
	_, err = svc.Get(ctx, b.ID)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

	err = svc.Delete(ctx, b.ID)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestListSearchesNameCityState(t *testing.T) {
	svc := New(store.NewInMemory())
	ctx := adminCtx()

	_, err := svc.Create(ctx, Input{Name: "Red Cross Central", City: "Mumbai", State: "MH"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, Input{Name: "City Hospital Bank", City: "Delhi", State: "DL"})
	require.NoError(t, err)

	out, err := svc.List(ctx, ListInput{Search: "red cross"})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Red Cross Central", out[0].Name)

	out, err = svc.List(ctx, ListInput{Search: "delhi"})
	require.NoError(t, err)
	assert.Len(t, out, 1)

	out, err = svc.List(ctx, ListInput{})
	require.NoError(t, err)
	assert.Len(t, out, 2)
}

func TestListFiltersActive(t *testing.T) {
	svc := New(store.NewInMemory())
	ctx := adminCtx()

	b, err := svc.Create(ctx, Input{Name: "Old Bank"})
	require.NoError(t, err)
	inactive := false
	_, err = svc.Update(ctx, b.ID, Input{Name: "Old Bank", IsActive: &inactive})
	require.NoError(t, err)

	_, err = svc.Create(ctx, Input{Name: "New Bank"})
	require.NoError(t, err)

	active := true
	out, err := svc.List(ctx, ListInput{IsActive: &active})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "New Bank", out[0].Name)
}
