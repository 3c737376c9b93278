package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"bloodlink/internal/donation/models"
	"bloodlink/pkg/domain"
	"bloodlink/pkg/platform/sentinel"
	txcontext "bloodlink/pkg/platform/tx"
)

// Postgres persists donations in the donations table.
//
// Execute mirrors the request store: FOR UPDATE row lock, transaction handed
// down through context so the inventory credit issued inside validate commits
// or rolls back together with the status change.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Postgres) q(ctx context.Context) queryer {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const donationColumns = `id, donor_id, blood_group, units_donated, status,
	blood_bank_id, donation_date, admin_notes, created_at, updated_at`

func scanDonation(row interface{ Scan(...any) error }) (*models.Donation, error) {
	var d models.Donation
	var donorID uuid.UUID
	var bankID uuid.NullUUID
	var donationDate sql.NullTime
	if err := row.Scan(&d.ID, &donorID, &d.BloodGroup, &d.UnitsDonated, &d.Status,
		&bankID, &donationDate, &d.AdminNotes, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	d.DonorID = domain.UserID(donorID)
	if bankID.Valid {
		b := domain.BankID(bankID.UUID)
		d.BankID = &b
	}
	if donationDate.Valid {
		t := donationDate.Time
		d.DonationDate = &t
	}
	return &d, nil
}

func (s *Postgres) Create(ctx context.Context, d *models.Donation) error {
	var bankID any
	if d.BankID != nil {
		bankID = uuid.UUID(*d.BankID)
	}
	var donationDate any
	if d.DonationDate != nil {
		donationDate = *d.DonationDate
	}
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO donations
			(id, donor_id, blood_group, units_donated, status, blood_bank_id, donation_date, admin_notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		uuid.UUID(d.ID), uuid.UUID(d.DonorID), string(d.BloodGroup), d.UnitsDonated,
		string(d.Status), bankID, donationDate, d.AdminNotes, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert donation: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id domain.DonationID) (*models.Donation, error) {
	row := s.q(ctx).QueryRowContext(ctx,
		`SELECT `+donationColumns+` FROM donations WHERE id = $1`, uuid.UUID(id))
	d, err := scanDonation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get donation: %w", err)
	}
	return d, nil
}

// Execute runs validate and mutate under a row lock in one transaction.
func (s *Postgres) Execute(ctx context.Context, id domain.DonationID,
	validate func(ctx context.Context, d *models.Donation) error,
	mutate func(d *models.Donation),
) (*models.Donation, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin resolve tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	txCtx := txcontext.WithTx(ctx, tx)

	row := tx.QueryRowContext(ctx,
		`SELECT `+donationColumns+` FROM donations WHERE id = $1 FOR UPDATE`, uuid.UUID(id))
	d, err := scanDonation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock donation: %w", err)
	}

	if err := validate(txCtx, d); err != nil {
		return nil, err
	}
	mutate(d)

	var bankID any
	if d.BankID != nil {
		bankID = uuid.UUID(*d.BankID)
	}
	var donationDate any
	if d.DonationDate != nil {
		donationDate = *d.DonationDate
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE donations
		SET status = $2, blood_bank_id = $3, donation_date = $4, admin_notes = $5, updated_at = $6
		WHERE id = $1`,
		uuid.UUID(d.ID), string(d.Status), bankID, donationDate, d.AdminNotes, d.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("update donation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit resolve tx: %w", err)
	}
	return d, nil
}

func (s *Postgres) List(ctx context.Context, filter models.Filter) ([]*models.Donation, error) {
	query := `SELECT ` + donationColumns + ` FROM donations WHERE 1=1`
	args := []any{}
	if filter.DonorID != nil {
		args = append(args, uuid.UUID(*filter.DonorID))
		query += fmt.Sprintf(" AND donor_id = $%d", len(args))
	}
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.BloodGroup != nil {
		args = append(args, string(*filter.BloodGroup))
		query += fmt.Sprintf(" AND blood_group = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list donations: %w", err)
	}
	defer rows.Close()

	var out []*models.Donation
	for rows.Next() {
		d, err := scanDonation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan donation: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Postgres) Count(ctx context.Context, filter models.Filter) (int, error) {
	query := `SELECT COUNT(*) FROM donations WHERE 1=1`
	args := []any{}
	if filter.DonorID != nil {
		args = append(args, uuid.UUID(*filter.DonorID))
		query += fmt.Sprintf(" AND donor_id = $%d", len(args))
	}
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.BloodGroup != nil {
		args = append(args, string(*filter.BloodGroup))
		query += fmt.Sprintf(" AND blood_group = $%d", len(args))
	}

	var n int
	if err := s.q(ctx).QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count donations: %w", err)
	}
	return n, nil
}
