package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bloodlink/internal/bank/models"
	"bloodlink/pkg/domain"
	"bloodlink/pkg/platform/sentinel"
)

// Postgres persists blood banks in the blood_banks table.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const bankColumns = `id, name, address, city, state, zip_code, phone, email,
	is_active, created_at, updated_at`

func scanBank(row interface{ Scan(...any) error }) (*models.BloodBank, error) {
	var b models.BloodBank
	var address, city, state, zip, phone, email sql.NullString
	if err := row.Scan(&b.ID, &b.Name, &address, &city, &state, &zip, &phone,
		&email, &b.IsActive, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	b.Address, b.City, b.State = address.String, city.String, state.String
	b.ZipCode, b.Phone, b.Email = zip.String, phone.String, email.String
	return &b, nil
}

func (s *Postgres) Create(ctx context.Context, b *models.BloodBank) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO blood_banks
			(id, name, address, city, state, zip_code, phone, email, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		b.ID, b.Name, b.Address, b.City, b.State, b.ZipCode, b.Phone, b.Email,
		b.IsActive, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert blood bank: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id domain.BankID) (*models.BloodBank, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+bankColumns+` FROM blood_banks WHERE id = $1`, id)
	b, err := scanBank(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get blood bank: %w", err)
	}
	return b, nil
}

func (s *Postgres) Update(ctx context.Context, b *models.BloodBank) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE blood_banks
		SET name = $2, address = $3, city = $4, state = $5, zip_code = $6,
			phone = $7, email = $8, is_active = $9, updated_at = $10
		WHERE id = $1`,
		b.ID, b.Name, b.Address, b.City, b.State, b.ZipCode, b.Phone, b.Email,
		b.IsActive, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update blood bank: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) Delete(ctx context.Context, id domain.BankID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM blood_banks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete blood bank: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) List(ctx context.Context, filter models.Filter) ([]*models.BloodBank, error) {
	query := `SELECT ` + bankColumns + ` FROM blood_banks WHERE 1=1`
	args := []any{}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		query += fmt.Sprintf(" AND (name ILIKE $%d OR city ILIKE $%d OR state ILIKE $%d)", n, n, n)
	}
	if filter.IsActive != nil {
		args = append(args, *filter.IsActive)
		query += fmt.Sprintf(" AND is_active = $%d", len(args))
	}
	query += " ORDER BY name"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list blood banks: %w", err)
	}
	defer rows.Close()

	var out []*models.BloodBank
	for rows.Next() {
		b, err := scanBank(rows)
		if err != nil {
			return nil, fmt.Errorf("scan blood bank: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
