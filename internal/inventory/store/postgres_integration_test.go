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

	"bloodlink/internal/inventory/models"
	"bloodlink/pkg/domain"
	"bloodlink/pkg/platform/sentinel"
	"bloodlink/pkg/testutil/containers"
)

type PostgresLedgerSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *Postgres
}

func TestPostgresLedgerSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresLedgerSuite))
}

func (s *PostgresLedgerSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.store = NewPostgres(s.pg.DB)
}

func (s *PostgresLedgerSuite) SetupTest() {
	err := s.pg.TruncateTables(context.Background(), "blood_inventory", "blood_banks")
	s.Require().NoError(err)
}

func (s *PostgresLedgerSuite) seedBank() domain.BankID {
	id := domain.NewBankID()
	_, err := s.pg.DB.Exec(`
		INSERT INTO blood_banks (id, name, is_active, created_at, updated_at)
		VALUES ($1, $2, TRUE, now(), now())`,
		uuid.UUID(id), "City Blood Bank "+uuid.UUID(id).String()[:8],
	)
	s.Require().NoError(err)
	return id
}

func (s *PostgresLedgerSuite) TestCreditUpsertsOnConflict() {
	ctx := context.Background()
	bank := s.seedBank()

	first, err := s.store.Credit(ctx, bank, domain.OPositive, 5)
	s.Require().NoError(err)
	s.Equal(5, first.UnitsAvailable)

	second, err := s.store.Credit(ctx, bank, domain.OPositive, 3)
	s.Require().NoError(err)
	s.Equal(8, second.UnitsAvailable)
	s.Equal(first.ID, second.ID, "credit reuses the existing row")
}

func (s *PostgresLedgerSuite) TestDebitReportsShortfall() {
	ctx := context.Background()
	bank := s.seedBank()

	_, err := s.store.Credit(ctx, bank, domain.ABNegative, 2)
	s.Require().NoError(err)

	_, err = s.store.Debit(ctx, bank, domain.ABNegative, 5)
	var insufficient *models.InsufficientUnitsError
	s.Require().ErrorAs(err, &insufficient)
	s.Equal(2, insufficient.Available)
	s.Equal(5, insufficient.Required)

	entry, err := s.store.Get(ctx, bank, domain.ABNegative)
	s.Require().NoError(err)
	s.Equal(2, entry.UnitsAvailable, "failed debit leaves the balance untouched")
}

func (s *PostgresLedgerSuite) TestDebitMissingRowReportsZeroAvailable() {
	ctx := context.Background()
	bank := s.seedBank()

	_, err := s.store.Debit(ctx, bank, domain.BNegative, 1)
	var insufficient *models.InsufficientUnitsError
	s.Require().ErrorAs(err, &insufficient)
	s.Equal(0, insufficient.Available)

	_, err = s.store.Get(ctx, bank, domain.BNegative)
	s.ErrorIs(err, sentinel.ErrNotFound, "debit never creates rows")
}

func (s *PostgresLedgerSuite) TestConcurrentDebitsNeverOverdraw() {
	ctx := context.Background()
	bank := s.seedBank()

	_, err := s.store.Credit(ctx, bank, domain.OPositive, 10)
	s.Require().NoError(err)

	const attempts = 50
	var succeeded atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.Debit(ctx, bank, domain.OPositive, 1)
			if err == nil {
				succeeded.Add(1)
				return
			}
			var insufficient *models.InsufficientUnitsError
			if !errors.As(err, &insufficient) {
				s.T().Errorf("unexpected debit error: %v", err)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(10), succeeded.Load(), "exactly the available units are granted")

	entry, err := s.store.Get(ctx, bank, domain.OPositive)
	s.Require().NoError(err)
	s.Equal(0, entry.UnitsAvailable)
}

func (s *PostgresLedgerSuite) TestAvailabilitySumsAcrossBanks() {
	ctx := context.Background()
	bankA := s.seedBank()
	bankB := s.seedBank()

	_, err := s.store.Credit(ctx, bankA, domain.OPositive, 5)
	s.Require().NoError(err)
	_, err = s.store.Credit(ctx, bankB, domain.OPositive, 3)
	s.Require().NoError(err)
	_, err = s.store.Credit(ctx, bankA, domain.ABNegative, 2)
	s.Require().NoError(err)

	totals, err := s.store.AvailabilityByGroup(ctx)
	s.Require().NoError(err)
	s.Equal(8, totals[domain.OPositive])
	s.Equal(2, totals[domain.ABNegative])
	s.Equal(0, totals[domain.BNegative], "groups with no rows report zero")
	s.Len(totals, len(domain.BloodGroups))
}

func (s *PostgresLedgerSuite) TestSetUnitsOverridesCounter() {
	ctx := context.Background()
	bank := s.seedBank()

	entry, err := s.store.Credit(ctx, bank, domain.APositive, 4)
	s.Require().NoError(err)

	updated, err := s.store.SetUnits(ctx, entry.ID, 12)
	s.Require().NoError(err)
	s.Equal(12, updated.UnitsAvailable)
	s.True(updated.UpdatedAt.After(time.Time{}))

	_, err = s.store.SetUnits(ctx, uuid.New(), 1)
	s.ErrorIs(err, sentinel.ErrNotFound)
}
