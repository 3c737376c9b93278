package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"bloodlink/internal/inventory/models"
	"bloodlink/pkg/domain"
	"bloodlink/pkg/platform/sentinel"
	txcontext "bloodlink/pkg/platform/tx"
)

// Postgres implements the ledger store on blood_inventory.
//
// Debit relies on a single conditional UPDATE so the sufficiency check and
// the decrement are one atomic statement; concurrent debits against the same
// row serialize on the row lock and the loser re-evaluates the predicate.
type Postgres struct {
	db *sql.DB
}

// NewPostgres creates a postgres-backed ledger store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Postgres) q(ctx context.Context) queryer {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const entryColumns = "id, blood_bank_id, blood_group, units_available, updated_at"

func scanEntry(row interface{ Scan(...any) error }) (*models.Entry, error) {
	var e models.Entry
	var bankID uuid.UUID
	if err := row.Scan(&e.ID, &bankID, &e.BloodGroup, &e.UnitsAvailable, &e.UpdatedAt); err != nil {
		return nil, err
	}
	e.BankID = domain.BankID(bankID)
	return &e, nil
}

// Debit decrements units_available iff the balance covers the amount.
func (s *Postgres) Debit(ctx context.Context, bank domain.BankID, group domain.BloodGroup, amount int) (*models.Entry, error) {
	row := s.q(ctx).QueryRowContext(ctx, `
		UPDATE blood_inventory
		SET units_available = units_available - $3, updated_at = now()
		WHERE blood_bank_id = $1 AND blood_group = $2 AND units_available >= $3
		RETURNING `+entryColumns,
		uuid.UUID(bank), string(group), amount,
	)
	e, err := scanEntry(row)
	if err == nil {
		return e, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("debit inventory: %w", err)
	}

	// Either the row is missing (zero availability) or the balance is short.
	var available int
	err = s.q(ctx).QueryRowContext(ctx, `
		SELECT units_available FROM blood_inventory
		WHERE blood_bank_id = $1 AND blood_group = $2`,
		uuid.UUID(bank), string(group),
	).Scan(&available)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("read inventory balance: %w", err)
	}
	return nil, &models.InsufficientUnitsError{Available: available, Required: amount}
}

// Credit upserts the entry and adds the amount on conflict.
func (s *Postgres) Credit(ctx context.Context, bank domain.BankID, group domain.BloodGroup, amount int) (*models.Entry, error) {
	row := s.q(ctx).QueryRowContext(ctx, `
		INSERT INTO blood_inventory (id, blood_bank_id, blood_group, units_available, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (blood_bank_id, blood_group)
		DO UPDATE SET units_available = blood_inventory.units_available + EXCLUDED.units_available,
		              updated_at = now()
		RETURNING `+entryColumns,
		uuid.New(), uuid.UUID(bank), string(group), amount,
	)
	e, err := scanEntry(row)
	if err != nil {
		return nil, fmt.Errorf("credit inventory: %w", err)
	}
	return e, nil
}

// Get returns the entry for a (bank, group) pair.
func (s *Postgres) Get(ctx context.Context, bank domain.BankID, group domain.BloodGroup) (*models.Entry, error) {
	row := s.q(ctx).QueryRowContext(ctx, `
		SELECT `+entryColumns+` FROM blood_inventory
		WHERE blood_bank_id = $1 AND blood_group = $2`,
		uuid.UUID(bank), string(group),
	)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get inventory entry: %w", err)
	}
	return e, nil
}

// GetByID returns the entry with the given primary key.
func (s *Postgres) GetByID(ctx context.Context, id uuid.UUID) (*models.Entry, error) {
	row := s.q(ctx).QueryRowContext(ctx, `
		SELECT `+entryColumns+` FROM blood_inventory WHERE id = $1`, id,
	)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get inventory entry: %w", err)
	}
	return e, nil
}

// SetUnits overwrites a counter directly (admin override path).
func (s *Postgres) SetUnits(ctx context.Context, id uuid.UUID, units int) (*models.Entry, error) {
	row := s.q(ctx).QueryRowContext(ctx, `
		UPDATE blood_inventory
		SET units_available = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+entryColumns,
		id, units,
	)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("set inventory units: %w", err)
	}
	return e, nil
}

// List returns entries matching the filter ordered by bank then group.
func (s *Postgres) List(ctx context.Context, filter models.Filter) ([]*models.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM blood_inventory WHERE 1=1`
	args := []any{}
	if filter.BankID != nil {
		args = append(args, uuid.UUID(*filter.BankID))
		query += fmt.Sprintf(" AND blood_bank_id = $%d", len(args))
	}
	if filter.BloodGroup != nil {
		args = append(args, string(*filter.BloodGroup))
		query += fmt.Sprintf(" AND blood_group = $%d", len(args))
	}
	query += " ORDER BY blood_bank_id, blood_group"

	rows, err := s.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}
	defer rows.Close()

	var out []*models.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan inventory entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// AvailabilityByGroup sums units across all banks per blood group.
func (s *Postgres) AvailabilityByGroup(ctx context.Context) (map[domain.BloodGroup]int, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `
		SELECT blood_group, COALESCE(SUM(units_available), 0)
		FROM blood_inventory
		GROUP BY blood_group`,
	)
	if err != nil {
		return nil, fmt.Errorf("aggregate availability: %w", err)
	}
	defer rows.Close()

	totals := make(map[domain.BloodGroup]int, len(domain.BloodGroups))
	for _, g := range domain.BloodGroups {
		totals[g] = 0
	}
	for rows.Next() {
		var group string
		var units int
		if err := rows.Scan(&group, &units); err != nil {
			return nil, fmt.Errorf("scan availability row: %w", err)
		}
		totals[domain.BloodGroup(group)] = units
	}
	return totals, rows.Err()
}
