package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bloodlink/internal/donor/store"
	"bloodlink/pkg/domain"
	dErrors "bloodlink/pkg/domain-errors"
	"bloodlink/pkg/requestcontext"
)

// stubDirectory marks every listed user as an active donor.
type stubDirectory struct {
	contacts map[domain.UserID]UserContact
}

func (d *stubDirectory) ActiveDonors(ctx context.Context, ids []domain.UserID) (map[domain.UserID]UserContact, error) {
	out := make(map[domain.UserID]UserContact)
	for _, id := range ids {
		if c, ok := d.contacts[id]; ok {
			out[id] = c
		}
	}
	return out, nil
}

func donorCtx(id domain.UserID) context.Context {
	return requestcontext.WithActor(context.Background(),
		domain.Actor{ID: id, Role: domain.RoleDonor})
}

func TestUpsertCreatesAndPreservesWorkflowFields(t *testing.T) {
	st := store.NewInMemory()
	svc := New(st, &stubDirectory{})
	donor := domain.NewUserID()

	p, err := svc.Upsert(donorCtx(donor), UpsertInput{
		BloodGroup:  "O+",
		DateOfBirth: "1990-06-15",
		City:        "Pune",
		IsAvailable: true,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OPositive, p.BloodGroup)
	require.NotNil(t, p.DateOfBirth)
	assert.Nil(t, p.LastDonationDate)

	// A completed donation stamps the profile out-of-band.
	date := requestcontext.Now(context.Background())
	require.NoError(t, st.SetLastDonationDate(context.Background(), donor, date))

	// Re-upserting keeps the identity and the stamped date.
	updated, err := svc.Upsert(donorCtx(donor), UpsertInput{
		BloodGroup:  "O+",
		City:        "Mumbai",
		IsAvailable: false,
	})
	require.NoError(t, err)
	assert.Equal(t, p.ID, updated.ID)
	assert.Equal(t, "Mumbai", updated.City)
	require.NotNil(t, updated.LastDonationDate)
}

func TestUpsertValidation(t *testing.T) {
	svc := New(store.NewInMemory(), &stubDirectory{})
	donor := domain.NewUserID()

	_, err := svc.Upsert(context.Background(), UpsertInput{BloodGroup: "O+"})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))

	_, err = svc.Upsert(donorCtx(donor), UpsertInput{BloodGroup: "Z-"})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = svc.Upsert(donorCtx(donor), UpsertInput{BloodGroup: "O+", DateOfBirth: "15/06/1990"})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestProfileNotFound(t *testing.T) {
	svc := New(store.NewInMemory(), &stubDirectory{})
	_, err := svc.Profile(donorCtx(domain.NewUserID()))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestSearchFiltersAndExcludesInactiveAccounts(t *testing.T) {
	st := store.NewInMemory()
	active := domain.NewUserID()
	inactive := domain.NewUserID()
	dir := &stubDirectory{contacts: map[domain.UserID]UserContact{
		active: {Username: "asha", Email: "asha@example.com", Phone: "555-0101"},
	}}
	svc := New(st, dir)

	_, err := svc.Upsert(donorCtx(active), UpsertInput{
		BloodGroup: "O-", City: "New Delhi", IsAvailable: true,
	})
	require.NoError(t, err)
	_, err = svc.Upsert(donorCtx(inactive), UpsertInput{
		BloodGroup: "O-", City: "New Delhi", IsAvailable: true,
	})
	require.NoError(t, err)

	matches, err := svc.Search(donorCtx(active), SearchInput{BloodGroup: "O-", City: "delhi"})
	require.NoError(t, err)
	require.Len(t, matches, 1, "deactivated accounts stay out of the directory")
	assert.Equal(t, active, matches[0].UserID)
	assert.Equal(t, "asha", matches[0].Username)

	// City is a case-insensitive substring match.
	matches, err = svc.Search(donorCtx(active), SearchInput{City: "DELHI"})
	require.NoError(t, err)
	assert.Len(t, matches, 1)

	matches, err = svc.Search(donorCtx(active), SearchInput{City: "Chennai"})
	require.NoError(t, err)
	assert.Empty(t, matches)

	_, err = svc.Search(donorCtx(active), SearchInput{BloodGroup: "bogus"})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestSearchFiltersAvailability(t *testing.T) {
	st := store.NewInMemory()
	available := domain.NewUserID()
	unavailable := domain.NewUserID()
	dir := &stubDirectory{contacts: map[domain.UserID]UserContact{
		available:   {Username: "a"},
		unavailable: {Username: "b"},
	}}
	svc := New(st, dir)

	_, err := svc.Upsert(donorCtx(available), UpsertInput{BloodGroup: "B+", IsAvailable: true})
	require.NoError(t, err)
	_, err = svc.Upsert(donorCtx(unavailable), UpsertInput{BloodGroup: "B+", IsAvailable: false})
	require.NoError(t, err)

	yes := true
	matches, err := svc.Search(donorCtx(available), SearchInput{IsAvailable: &yes})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, available, matches[0].UserID)
}

func TestBloodGroupOf(t *testing.T) {
	st := store.NewInMemory()
	svc := New(st, &stubDirectory{})
	donor := domain.NewUserID()

	_, ok, err := svc.BloodGroupOf(context.Background(), donor)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.Upsert(donorCtx(donor), UpsertInput{BloodGroup: "AB-"})
	require.NoError(t, err)

	group, ok, err := svc.BloodGroupOf(context.Background(), donor)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.ABNegative, group)
}
