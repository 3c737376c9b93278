//go:build integration

package store

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	invstore "bloodlink/internal/inventory/store"
	"bloodlink/internal/request/models"
	"bloodlink/pkg/domain"
	dErrors "bloodlink/pkg/domain-errors"
	"bloodlink/pkg/platform/sentinel"
	"bloodlink/pkg/testutil/containers"
)

type PostgresRequestSuite struct {
	suite.Suite
	pg        *containers.PostgresContainer
	store     *Postgres
	inventory *invstore.Postgres
}

func TestPostgresRequestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresRequestSuite))
}

func (s *PostgresRequestSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.store = NewPostgres(s.pg.DB)
	s.inventory = invstore.NewPostgres(s.pg.DB)
}

func (s *PostgresRequestSuite) SetupTest() {
	err := s.pg.TruncateTables(context.Background(),
		"blood_requests", "blood_inventory", "blood_banks", "users")
	s.Require().NoError(err)
}

func (s *PostgresRequestSuite) seedUser() domain.UserID {
	id := domain.NewUserID()
	_, err := s.pg.DB.Exec(`
		INSERT INTO users (id, username, email, role, password_hash, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, 'donor', 'x', TRUE, now(), now())`,
		uuid.UUID(id), "donor-"+uuid.UUID(id).String()[:8], uuid.UUID(id).String()[:8]+"@example.com",
	)
	s.Require().NoError(err)
	return id
}

func (s *PostgresRequestSuite) seedBank() domain.BankID {
	id := domain.NewBankID()
	_, err := s.pg.DB.Exec(`
		INSERT INTO blood_banks (id, name, is_active, created_at, updated_at)
		VALUES ($1, $2, TRUE, now(), now())`,
		uuid.UUID(id), "Bank "+uuid.UUID(id).String()[:8],
	)
	s.Require().NoError(err)
	return id
}

func (s *PostgresRequestSuite) seedRequest(requester domain.UserID, units int) *models.BloodRequest {
	r, err := models.NewBloodRequest(domain.NewRequestID(), requester,
		domain.OPositive, units, "surgery", domain.UrgencyMedium, time.Now().UTC())
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(context.Background(), r))
	return r
}

func (s *PostgresRequestSuite) TestCreateAndFindRoundTrip() {
	ctx := context.Background()
	requester := s.seedUser()
	created := s.seedRequest(requester, 3)

	got, err := s.store.FindByID(ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(created.ID, got.ID)
	s.Equal(requester, got.RequesterID)
	s.Equal(models.StatusPending, got.Status)
	s.Nil(got.BankID)

	_, err = s.store.FindByID(ctx, domain.NewRequestID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresRequestSuite) TestExecuteCommitsDebitWithStatusChange() {
	ctx := context.Background()
	requester := s.seedUser()
	bank := s.seedBank()
	req := s.seedRequest(requester, 3)

	_, err := s.inventory.Credit(ctx, bank, domain.OPositive, 5)
	s.Require().NoError(err)

	resolved, err := s.store.Execute(ctx, req.ID,
		func(txCtx context.Context, r *models.BloodRequest) error {
			if err := r.CanResolve(); err != nil {
				return err
			}
			_, err := s.inventory.Debit(txCtx, bank, r.BloodGroup, r.UnitsRequired)
			return err
		},
		func(r *models.BloodRequest) {
			r.ApplyApproval(&bank, "approved", time.Now().UTC())
		},
	)
	s.Require().NoError(err)
	s.Equal(models.StatusApproved, resolved.Status)
	s.Require().NotNil(resolved.BankID)
	s.Equal(bank, *resolved.BankID)

	entry, err := s.inventory.Get(ctx, bank, domain.OPositive)
	s.Require().NoError(err)
	s.Equal(2, entry.UnitsAvailable, "debit committed with the status change")
}

func (s *PostgresRequestSuite) TestExecuteRollsBackDebitOnValidateFailure() {
	ctx := context.Background()
	requester := s.seedUser()
	bank := s.seedBank()
	req := s.seedRequest(requester, 3)

	_, err := s.inventory.Credit(ctx, bank, domain.OPositive, 5)
	s.Require().NoError(err)

	boom := errors.New("validation failed after debit")
	_, err = s.store.Execute(ctx, req.ID,
		func(txCtx context.Context, r *models.BloodRequest) error {
			if _, err := s.inventory.Debit(txCtx, bank, r.BloodGroup, r.UnitsRequired); err != nil {
				return err
			}
			return boom
		},
		func(r *models.BloodRequest) {
			s.T().Error("mutate must not run when validate fails")
		},
	)
	s.Require().ErrorIs(err, boom)

	entry, err := s.inventory.Get(ctx, bank, domain.OPositive)
	s.Require().NoError(err)
	s.Equal(5, entry.UnitsAvailable, "debit rolled back with the transaction")

	got, err := s.store.FindByID(ctx, req.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusPending, got.Status)
}

func (s *PostgresRequestSuite) TestConcurrentResolveSingleWinner() {
	ctx := context.Background()
	requester := s.seedUser()
	bank := s.seedBank()
	req := s.seedRequest(requester, 1)

	_, err := s.inventory.Credit(ctx, bank, domain.OPositive, 100)
	s.Require().NoError(err)

	const attempts = 20
	var succeeded, conflicted atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.Execute(ctx, req.ID,
				func(txCtx context.Context, r *models.BloodRequest) error {
					if err := r.CanResolve(); err != nil {
						return err
					}
					_, err := s.inventory.Debit(txCtx, bank, r.BloodGroup, r.UnitsRequired)
					return err
				},
				func(r *models.BloodRequest) {
					r.ApplyApproval(&bank, "", time.Now().UTC())
				},
			)
			switch {
			case err == nil:
				succeeded.Add(1)
			case dErrors.CodeOf(err) == dErrors.CodeConflict:
				conflicted.Add(1)
			default:
				s.T().Errorf("unexpected resolve error: %v", err)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), succeeded.Load(), "the row lock admits exactly one resolution")
	s.Equal(int32(attempts-1), conflicted.Load())

	entry, err := s.inventory.Get(ctx, bank, domain.OPositive)
	s.Require().NoError(err)
	s.Equal(99, entry.UnitsAvailable, "inventory debited exactly once")
}

func (s *PostgresRequestSuite) TestListAndCountFilters() {
	ctx := context.Background()
	requester := s.seedUser()
	other := s.seedUser()
	s.seedRequest(requester, 1)
	s.seedRequest(requester, 2)
	s.seedRequest(other, 3)

	mine, err := s.store.List(ctx, models.Filter{RequesterID: &requester})
	s.Require().NoError(err)
	s.Len(mine, 2)

	pending := models.StatusPending
	n, err := s.store.Count(ctx, models.Filter{Status: &pending})
	s.Require().NoError(err)
	s.Equal(3, n)
}
