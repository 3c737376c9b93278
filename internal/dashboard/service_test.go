package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authservice "bloodlink/internal/auth/service"
	authstore "bloodlink/internal/auth/store"
	"bloodlink/internal/auth/token"
	donservice "bloodlink/internal/donation/service"
	donstore "bloodlink/internal/donation/store"
	donorservice "bloodlink/internal/donor/service"
	donorstore "bloodlink/internal/donor/store"
	invservice "bloodlink/internal/inventory/service"
	invstore "bloodlink/internal/inventory/store"
	reqservice "bloodlink/internal/request/service"
	reqstore "bloodlink/internal/request/store"
	"bloodlink/pkg/domain"
	dErrors "bloodlink/pkg/domain-errors"
	"bloodlink/pkg/requestcontext"
)

type env struct {
	svc       *Service
	ledger    *invservice.Ledger
	requests  *reqservice.Service
	donations *donservice.Service
	auth      *authservice.Service
	profiles  *donorservice.Service
	admin     domain.Actor
}

func newEnv(t *testing.T) *env {
	t.Helper()

	ledger := invservice.NewLedger(invstore.NewInMemory(), nil)
	users := authstore.NewInMemory()
	auth := authservice.New(users, token.NewService("test-key", time.Hour), nil)
	profileStore := donorstore.NewInMemory()
	profiles := donorservice.New(profileStore, auth)
	requestStore := reqstore.NewInMemory()
	donationStore := donstore.NewInMemory()

	svc := New(
		requestStore,
		donationStore,
		profileStore,
		auth,
		NewAvailabilityCache(ledger, nil, time.Minute, nil),
		nil,
	)

	return &env{
		svc:       svc,
		ledger:    ledger,
		requests:  reqservice.New(requestStore, ledger, nil, nil),
		donations: donservice.New(donationStore, ledger, profiles, nil, nil, nil),
		auth:      auth,
		profiles:  profiles,
		admin:     domain.Actor{ID: domain.NewUserID(), Role: domain.RoleAdmin},
	}
}

func (e *env) asAdmin() context.Context {
	return requestcontext.WithActor(context.Background(), e.admin)
}

func (e *env) registerDonor(t *testing.T, username string) domain.Actor {
	t.Helper()
	result, err := e.auth.Register(context.Background(), authservice.RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "long-enough-password",
	})
	require.NoError(t, err)
	return domain.Actor{ID: result.User.ID, Role: domain.RoleDonor}
}

func TestAdminRequiresAdmin(t *testing.T) {
	e := newEnv(t)
	donor := e.registerDonor(t, "asha")

	_, err := e.svc.Admin(requestcontext.WithActor(context.Background(), donor))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
}

func TestAdminAggregates(t *testing.T) {
	e := newEnv(t)
	donor := e.registerDonor(t, "asha")
	donorCtx := requestcontext.WithActor(context.Background(), donor)

	bankA := domain.NewBankID()
	bankB := domain.NewBankID()
	_, err := e.ledger.Credit(context.Background(), bankA, domain.OPositive, 5)
	require.NoError(t, err)
	_, err = e.ledger.Credit(context.Background(), bankB, domain.OPositive, 3)
	require.NoError(t, err)
	_, err = e.ledger.Credit(context.Background(), bankA, domain.ABNegative, 2)
	require.NoError(t, err)

	r1, err := e.requests.Create(donorCtx, reqservice.CreateInput{BloodGroup: "O+", Units: 1})
	require.NoError(t, err)
	_, err = e.requests.Create(donorCtx, reqservice.CreateInput{BloodGroup: "A+", Units: 1})
	require.NoError(t, err)
	_, err = e.requests.Resolve(e.asAdmin(), r1.ID, reqservice.ResolveInput{Action: reqservice.ActionReject})
	require.NoError(t, err)

	_, err = e.donations.Create(donorCtx, donservice.CreateInput{BloodGroup: "O+", UnitsDonated: 1})
	require.NoError(t, err)

	view, err := e.svc.Admin(e.asAdmin())
	require.NoError(t, err)

	assert.Equal(t, 1, view.TotalDonors)
	assert.Equal(t, 2, view.TotalRequests)
	assert.Equal(t, 1, view.PendingRequests)
	assert.Equal(t, 1, view.TotalDonations)
	assert.Len(t, view.RecentRequests, 2)
	assert.Len(t, view.RecentDonations, 1)

	// Per-group availability is the sum over banks.
	assert.Equal(t, 8, view.Availability[domain.OPositive])
	assert.Equal(t, 2, view.Availability[domain.ABNegative])
	assert.Zero(t, view.Availability[domain.BNegative])
}

func TestRecentRequestsCapped(t *testing.T) {
	e := newEnv(t)
	donor := e.registerDonor(t, "asha")
	donorCtx := requestcontext.WithActor(context.Background(), donor)

	for range 7 {
		_, err := e.requests.Create(donorCtx, reqservice.CreateInput{BloodGroup: "O+", Units: 1})
		require.NoError(t, err)
	}

	view, err := e.svc.Admin(e.asAdmin())
	require.NoError(t, err)
	assert.Len(t, view.RecentRequests, 5)
}

func TestDonorViewScopedToSelf(t *testing.T) {
	e := newEnv(t)
	asha := e.registerDonor(t, "asha")
	ravi := e.registerDonor(t, "ravi")
	ashaCtx := requestcontext.WithActor(context.Background(), asha)
	raviCtx := requestcontext.WithActor(context.Background(), ravi)

	_, err := e.profiles.Upsert(ashaCtx, donorservice.UpsertInput{BloodGroup: "O-"})
	require.NoError(t, err)

	_, err = e.requests.Create(ashaCtx, reqservice.CreateInput{BloodGroup: "O-", Units: 1})
	require.NoError(t, err)
	_, err = e.requests.Create(raviCtx, reqservice.CreateInput{BloodGroup: "A+", Units: 1})
	require.NoError(t, err)
	_, err = e.donations.Create(raviCtx, donservice.CreateInput{BloodGroup: "A+", UnitsDonated: 1})
	require.NoError(t, err)

	view, err := e.svc.Donor(ashaCtx)
	require.NoError(t, err)
	require.NotNil(t, view.Profile)
	assert.Equal(t, domain.ONegative, view.Profile.BloodGroup)
	assert.Len(t, view.Requests, 1)
	assert.Empty(t, view.Donations)

	// A donor without a profile still gets a dashboard.
	view, err = e.svc.Donor(raviCtx)
	require.NoError(t, err)
	assert.Nil(t, view.Profile)
	assert.Len(t, view.Donations, 1)
}

func TestDonorViewRejectsAdmins(t *testing.T) {
	e := newEnv(t)

	_, err := e.svc.Donor(e.asAdmin())
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))

	_, err = e.svc.Donor(context.Background())
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}
