package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"bloodlink/internal/request/models"
	"bloodlink/pkg/domain"
	"bloodlink/pkg/platform/sentinel"
	txcontext "bloodlink/pkg/platform/tx"
)

// Postgres persists blood requests in the blood_requests table.
//
// Execute opens a transaction, locks the row with FOR UPDATE, and hands the
// transaction down through context so the ledger debit issued inside
// validate commits or rolls back together with the status change.
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

const requestColumns = `id, requester_id, blood_group, units_required, reason,
	urgency, status, blood_bank_id, admin_notes, created_at, updated_at`

func scanRequest(row interface{ Scan(...any) error }) (*models.BloodRequest, error) {
	var r models.BloodRequest
	var requesterID uuid.UUID
	var bankID uuid.NullUUID
	if err := row.Scan(&r.ID, &requesterID, &r.BloodGroup, &r.UnitsRequired, &r.Reason,
		&r.Urgency, &r.Status, &bankID, &r.AdminNotes, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.RequesterID = domain.UserID(requesterID)
	if bankID.Valid {
		b := domain.BankID(bankID.UUID)
		r.BankID = &b
	}
	return &r, nil
}

func (s *Postgres) Create(ctx context.Context, r *models.BloodRequest) error {
	var bankID any
	if r.BankID != nil {
		bankID = uuid.UUID(*r.BankID)
	}
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO blood_requests
			(id, requester_id, blood_group, units_required, reason, urgency, status, blood_bank_id, admin_notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		uuid.UUID(r.ID), uuid.UUID(r.RequesterID), string(r.BloodGroup), r.UnitsRequired,
		r.Reason, string(r.Urgency), string(r.Status), bankID, r.AdminNotes, r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert blood request: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id domain.RequestID) (*models.BloodRequest, error) {
	row := s.q(ctx).QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM blood_requests WHERE id = $1`, uuid.UUID(id))
	r, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get blood request: %w", err)
	}
	return r, nil
}

// Execute runs validate and mutate under a row lock in one transaction.
func (s *Postgres) Execute(ctx context.Context, id domain.RequestID,
	validate func(ctx context.Context, r *models.BloodRequest) error,
	mutate func(r *models.BloodRequest),
) (*models.BloodRequest, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin resolve tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	txCtx := txcontext.WithTx(ctx, tx)

	row := tx.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM blood_requests WHERE id = $1 FOR UPDATE`, uuid.UUID(id))
	r, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock blood request: %w", err)
	}

	if err := validate(txCtx, r); err != nil {
		return nil, err
	}
	mutate(r)

	var bankID any
	if r.BankID != nil {
		bankID = uuid.UUID(*r.BankID)
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE blood_requests
		SET status = $2, blood_bank_id = $3, admin_notes = $4, updated_at = $5
		WHERE id = $1`,
		uuid.UUID(r.ID), string(r.Status), bankID, r.AdminNotes, r.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("update blood request: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit resolve tx: %w", err)
	}
	return r, nil
}

func (s *Postgres) List(ctx context.Context, filter models.Filter) ([]*models.BloodRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM blood_requests WHERE 1=1`
	args := []any{}
	if filter.RequesterID != nil {
		args = append(args, uuid.UUID(*filter.RequesterID))
		query += fmt.Sprintf(" AND requester_id = $%d", len(args))
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
		return nil, fmt.Errorf("list blood requests: %w", err)
	}
	defer rows.Close()

	var out []*models.BloodRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan blood request: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Postgres) Count(ctx context.Context, filter models.Filter) (int, error) {
	query := `SELECT COUNT(*) FROM blood_requests WHERE 1=1`
	args := []any{}
	if filter.RequesterID != nil {
		args = append(args, uuid.UUID(*filter.RequesterID))
		query += fmt.Sprintf(" AND requester_id = $%d", len(args))
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
		return 0, fmt.Errorf("count blood requests: %w", err)
	}
	return n, nil
}
