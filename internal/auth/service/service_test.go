package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bloodlink/internal/auth/lockout"
	"bloodlink/internal/auth/store"
	"bloodlink/internal/auth/token"
	donorservice "bloodlink/internal/donor/service"
	donorstore "bloodlink/internal/donor/store"
	"bloodlink/pkg/domain"
	dErrors "bloodlink/pkg/domain-errors"
	"bloodlink/pkg/requestcontext"
)

func newService() (*Service, *donorservice.Service) {
	tokens := token.NewService("test-signing-key", time.Hour)
	users := store.NewInMemory()
	svc := New(users, tokens, nil)
	profiles := donorservice.New(donorstore.NewInMemory(), svc)
	svc.profiles = profiles
	return svc, profiles
}

func TestRegisterIssuesToken(t *testing.T) {
	svc, _ := newService()

	result, err := svc.Register(context.Background(), RegisterInput{
		Username: "asha",
		Email:    "asha@example.com",
		Password: "long-enough-password",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, domain.RoleDonor, result.User.Role)
	assert.True(t, result.User.IsActive)
	assert.NotEqual(t, "long-enough-password", result.User.PasswordHash, "password is stored hashed")
}

func TestRegisterWithBloodGroupCreatesProfile(t *testing.T) {
	svc, profiles := newService()

	result, err := svc.Register(context.Background(), RegisterInput{
		Username:   "ravi",
		Email:      "ravi@example.com",
		Password:   "long-enough-password",
		BloodGroup: "B+",
		City:       "Pune",
	})
	require.NoError(t, err)

	ctx := requestcontext.WithActor(context.Background(),
		domain.Actor{ID: result.User.ID, Role: domain.RoleDonor})
	p, err := profiles.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.BPositive, p.BloodGroup)
	assert.True(t, p.IsAvailable)
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newService()

	_, err := svc.Register(context.Background(), RegisterInput{
		Username: "x", Email: "x@example.com", Password: "short",
	})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = svc.Register(context.Background(), RegisterInput{
		Username: "", Email: "x@example.com", Password: "long-enough-password",
	})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = svc.Register(context.Background(), RegisterInput{
		Username: "x", Email: "not-an-email", Password: "long-enough-password",
	})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestRegisterDuplicateConflicts(t *testing.T) {
	svc, _ := newService()

	in := RegisterInput{Username: "asha", Email: "asha@example.com", Password: "long-enough-password"}
	_, err := svc.Register(context.Background(), in)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), in)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestLogin(t *testing.T) {
	svc, _ := newService()

	_, err := svc.Register(context.Background(), RegisterInput{
		Username: "asha", Email: "asha@example.com", Password: "long-enough-password",
	})
	require.NoError(t, err)

	result, err := svc.Login(context.Background(), LoginInput{Username: "asha", Password: "long-enough-password"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)

	// Username lookup is case-insensitive.
	_, err = svc.Login(context.Background(), LoginInput{Username: "ASHA", Password: "long-enough-password"})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), LoginInput{Username: "asha", Password: "wrong-password"})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))

	_, err = svc.Login(context.Background(), LoginInput{Username: "nobody", Password: "long-enough-password"})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestMe(t *testing.T) {
	svc, _ := newService()

	result, err := svc.Register(context.Background(), RegisterInput{
		Username: "asha", Email: "asha@example.com", Password: "long-enough-password",
	})
	require.NoError(t, err)

	ctx := requestcontext.WithActor(context.Background(),
		domain.Actor{ID: result.User.ID, Role: domain.RoleDonor})
	u, err := svc.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "asha", u.Username)

	_, err = svc.Me(context.Background())
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestSeedAdminIdempotent(t *testing.T) {
	svc, _ := newService()

	require.NoError(t, svc.SeedAdmin(context.Background(), "admin", "admin@example.com", "admin-password"))
	require.NoError(t, svc.SeedAdmin(context.Background(), "admin", "admin@example.com", "admin-password"))

	result, err := svc.Login(context.Background(), LoginInput{Username: "admin", Password: "admin-password"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, result.User.Role)
}

func TestActiveDonorsExcludesAdmins(t *testing.T) {
	svc, _ := newService()

	require.NoError(t, svc.SeedAdmin(context.Background(), "admin", "admin@example.com", "admin-password"))
	donor, err := svc.Register(context.Background(), RegisterInput{
		Username: "asha", Email: "asha@example.com", Password: "long-enough-password", Phone: "555-0101",
	})
	require.NoError(t, err)

	admin, err := svc.Login(context.Background(), LoginInput{Username: "admin", Password: "admin-password"})
	require.NoError(t, err)

	contacts, err := svc.ActiveDonors(context.Background(),
		[]domain.UserID{donor.User.ID, admin.User.ID})
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, "asha", contacts[donor.User.ID].Username)

	total, err := svc.TotalDonors(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestLoginLocksAfterRepeatedFailures(t *testing.T) {
	svc, _ := newService()
	svc.AttachLockout(lockout.New(3, 15*time.Minute, 15*time.Minute, nil))

	_, err := svc.Register(context.Background(), RegisterInput{
		Username: "mira",
		Email:    "mira@example.com",
		Password: "long-enough-password",
	})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err = svc.Login(context.Background(), LoginInput{Username: "mira", Password: "wrong"})
		require.Error(t, err)
	}

	// Locked now, even with the correct password.
	_, err = svc.Login(context.Background(), LoginInput{Username: "mira", Password: "long-enough-password"})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeRateLimited))
}

func TestLoginSuccessClearsFailureHistory(t *testing.T) {
	svc, _ := newService()
	svc.AttachLockout(lockout.New(3, 15*time.Minute, 15*time.Minute, nil))

	_, err := svc.Register(context.Background(), RegisterInput{
		Username: "noor",
		Email:    "noor@example.com",
		Password: "long-enough-password",
	})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err = svc.Login(context.Background(), LoginInput{Username: "noor", Password: "wrong"})
		require.Error(t, err)
	}
	_, err = svc.Login(context.Background(), LoginInput{Username: "noor", Password: "long-enough-password"})
	require.NoError(t, err)

	// The slate is clean: two more failures do not lock.
	for i := 0; i < 2; i++ {
		_, err = svc.Login(context.Background(), LoginInput{Username: "noor", Password: "wrong"})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	}
}
