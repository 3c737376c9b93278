package lockout

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "bloodlink/pkg/domain-errors"
	"bloodlink/pkg/requestcontext"
)

func at(t time.Time) context.Context {
	return requestcontext.WithTime(context.Background(), t)
}

func TestLocksAfterThresholdWithinWindow(t *testing.T) {
	g := New(3, 15*time.Minute, 15*time.Minute, nil)
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 2; i++ {
		g.RecordFailure(at(start), "alice")
		require.NoError(t, g.Allow(at(start), "alice"))
	}
	g.RecordFailure(at(start), "alice")

	err := g.Allow(at(start.Add(time.Minute)), "alice")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeRateLimited))
	assert.Equal(t, 14*60, dErrors.DetailsOf(err)["retry_after_seconds"])
}

func TestLockExpires(t *testing.T) {
	g := New(2, 15*time.Minute, 10*time.Minute, nil)
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	g.RecordFailure(at(start), "bob")
	g.RecordFailure(at(start), "bob")
	require.Error(t, g.Allow(at(start), "bob"))

	assert.NoError(t, g.Allow(at(start.Add(11*time.Minute)), "bob"))
}

func TestWindowResetForgetsOldFailures(t *testing.T) {
	g := New(3, 15*time.Minute, 15*time.Minute, nil)
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	g.RecordFailure(at(start), "carol")
	g.RecordFailure(at(start), "carol")
	// Third failure lands after the window; it opens a fresh count.
	g.RecordFailure(at(start.Add(16*time.Minute)), "carol")

	assert.NoError(t, g.Allow(at(start.Add(16*time.Minute)), "carol"))
}

func TestClearResetsFailures(t *testing.T) {
	g := New(2, 15*time.Minute, 15*time.Minute, nil)
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	g.RecordFailure(at(start), "dave")
	g.Clear(at(start), "dave")
	g.RecordFailure(at(start), "dave")

	assert.NoError(t, g.Allow(at(start), "dave"))
}

func TestKeyIsCaseInsensitive(t *testing.T) {
	g := New(2, 15*time.Minute, 15*time.Minute, nil)
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	g.RecordFailure(at(start), "Erin")
	g.RecordFailure(at(start), " erin ")

	require.Error(t, g.Allow(at(start), "ERIN"))
}

func TestNilGuardAllowsEverything(t *testing.T) {
	var g *Guard
	ctx := context.Background()

	assert.NoError(t, g.Allow(ctx, "anyone"))
	g.RecordFailure(ctx, "anyone")
	g.Clear(ctx, "anyone")
}
