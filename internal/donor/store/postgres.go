package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"bloodlink/internal/donor/models"
	"bloodlink/pkg/domain"
	"bloodlink/pkg/platform/sentinel"
)

// Postgres persists donor profiles in the donor_profiles table, one row per
// user enforced by a unique constraint on user_id.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const profileColumns = `id, user_id, blood_group, date_of_birth, address, city,
	state, zip_code, is_available, last_donation_date, created_at, updated_at`

func scanProfile(row interface{ Scan(...any) error }) (*models.DonorProfile, error) {
	var p models.DonorProfile
	var userID uuid.UUID
	var dob, lastDonation sql.NullTime
	var address, city, state, zip sql.NullString
	if err := row.Scan(&p.ID, &userID, &p.BloodGroup, &dob, &address, &city,
		&state, &zip, &p.IsAvailable, &lastDonation, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.UserID = domain.UserID(userID)
	if dob.Valid {
		t := dob.Time
		p.DateOfBirth = &t
	}
	if lastDonation.Valid {
		t := lastDonation.Time
		p.LastDonationDate = &t
	}
	p.Address, p.City, p.State, p.ZipCode = address.String, city.String, state.String, zip.String
	return &p, nil
}

func (s *Postgres) Upsert(ctx context.Context, p *models.DonorProfile) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO donor_profiles
			(id, user_id, blood_group, date_of_birth, address, city, state, zip_code,
			 is_available, last_donation_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (user_id) DO UPDATE SET
			blood_group = EXCLUDED.blood_group,
			date_of_birth = EXCLUDED.date_of_birth,
			address = EXCLUDED.address,
			city = EXCLUDED.city,
			state = EXCLUDED.state,
			zip_code = EXCLUDED.zip_code,
			is_available = EXCLUDED.is_available,
			updated_at = EXCLUDED.updated_at`,
		p.ID, uuid.UUID(p.UserID), string(p.BloodGroup), nullTime(p.DateOfBirth),
		p.Address, p.City, p.State, p.ZipCode, p.IsAvailable,
		nullTime(p.LastDonationDate), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert donor profile: %w", err)
	}
	return nil
}

func (s *Postgres) FindByUser(ctx context.Context, userID domain.UserID) (*models.DonorProfile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM donor_profiles WHERE user_id = $1`, uuid.UUID(userID))
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get donor profile: %w", err)
	}
	return p, nil
}

func (s *Postgres) Search(ctx context.Context, filter models.SearchFilter) ([]*models.DonorProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM donor_profiles WHERE 1=1`
	args := []any{}
	if filter.BloodGroup != nil {
		args = append(args, string(*filter.BloodGroup))
		query += fmt.Sprintf(" AND blood_group = $%d", len(args))
	}
	if filter.City != "" {
		args = append(args, "%"+filter.City+"%")
		query += fmt.Sprintf(" AND city ILIKE $%d", len(args))
	}
	if filter.IsAvailable != nil {
		args = append(args, *filter.IsAvailable)
		query += fmt.Sprintf(" AND is_available = $%d", len(args))
	}
	query += " ORDER BY city, user_id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search donor profiles: %w", err)
	}
	defer rows.Close()

	var out []*models.DonorProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan donor profile: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Postgres) SetLastDonationDate(ctx context.Context, userID domain.UserID, date time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE donor_profiles
		SET last_donation_date = $2, updated_at = $2
		WHERE user_id = $1`,
		uuid.UUID(userID), date,
	)
	if err != nil {
		return fmt.Errorf("set last donation date: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
