//go:build integration

package dashboard

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	platformredis "bloodlink/internal/platform/redis"
	"bloodlink/pkg/domain"
	"bloodlink/pkg/testutil/containers"
)

type countingSource struct {
	calls  atomic.Int32
	totals map[domain.BloodGroup]int
}

func (s *countingSource) AvailabilityByGroup(ctx context.Context) (map[domain.BloodGroup]int, error) {
	s.calls.Add(1)
	return s.totals, nil
}

type AvailabilityCacheSuite struct {
	suite.Suite
	rc     *containers.RedisContainer
	client *platformredis.Client
}

func TestAvailabilityCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(AvailabilityCacheSuite))
}

func (s *AvailabilityCacheSuite) SetupSuite() {
	s.rc = containers.NewRedisContainer(s.T())
	s.client = &platformredis.Client{Client: s.rc.Client}
}

func (s *AvailabilityCacheSuite) SetupTest() {
	s.Require().NoError(s.rc.FlushAll(context.Background()))
}

func (s *AvailabilityCacheSuite) TestSecondReadServedFromCache() {
	ctx := context.Background()
	source := &countingSource{totals: map[domain.BloodGroup]int{domain.OPositive: 7}}
	cache := NewAvailabilityCache(source, s.client, time.Minute, nil)

	first, err := cache.AvailabilityByGroup(ctx)
	s.Require().NoError(err)
	s.Equal(7, first[domain.OPositive])
	s.Equal(int32(1), source.calls.Load())

	second, err := cache.AvailabilityByGroup(ctx)
	s.Require().NoError(err)
	s.Equal(7, second[domain.OPositive])
	s.Equal(int32(1), source.calls.Load(), "cached read never touches the ledger")
}

func (s *AvailabilityCacheSuite) TestStaleReadsUntilExpiry() {
	ctx := context.Background()
	source := &countingSource{totals: map[domain.BloodGroup]int{domain.ABNegative: 3}}
	cache := NewAvailabilityCache(source, s.client, 200*time.Millisecond, nil)

	_, err := cache.AvailabilityByGroup(ctx)
	s.Require().NoError(err)

	source.totals = map[domain.BloodGroup]int{domain.ABNegative: 9}
	stale, err := cache.AvailabilityByGroup(ctx)
	s.Require().NoError(err)
	s.Equal(3, stale[domain.ABNegative], "within the TTL the cached value wins")

	time.Sleep(300 * time.Millisecond)
	fresh, err := cache.AvailabilityByGroup(ctx)
	s.Require().NoError(err)
	s.Equal(9, fresh[domain.ABNegative])
	s.Equal(int32(2), source.calls.Load())
}

func (s *AvailabilityCacheSuite) TestInvalidateForcesRefetch() {
	ctx := context.Background()
	source := &countingSource{totals: map[domain.BloodGroup]int{domain.BNegative: 1}}
	cache := NewAvailabilityCache(source, s.client, time.Minute, nil)

	_, err := cache.AvailabilityByGroup(ctx)
	s.Require().NoError(err)

	source.totals = map[domain.BloodGroup]int{domain.BNegative: 4}
	cache.Invalidate(ctx)

	fresh, err := cache.AvailabilityByGroup(ctx)
	s.Require().NoError(err)
	s.Equal(4, fresh[domain.BNegative])
	s.Equal(int32(2), source.calls.Load())
}
