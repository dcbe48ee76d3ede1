package postgres

import (
	"context"

	"cargo/internal/domain"
)

// BusinessRepository is a PostgreSQL implementation of repository.BusinessRepository.
type BusinessRepository struct {
	q Querier
}

const businessColumns = `id, name, registration_number, address, contact_email, status, created_at`

// Create persists a new business.
func (r *BusinessRepository) Create(ctx context.Context, business *domain.Business) error {
	query := `
		INSERT INTO businesses (id, name, registration_number, address, contact_email, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.q.ExecContext(ctx, query,
		business.ID,
		business.Name,
		business.RegistrationNumber,
		business.Address,
		business.ContactEmail,
		business.Status,
		business.CreatedAt,
	)
	return mapError(err)
}

// GetByID retrieves a business by ID.
func (r *BusinessRepository) GetByID(ctx context.Context, id string) (*domain.Business, error) {
	query := `SELECT ` + businessColumns + ` FROM businesses WHERE id = $1`
	return scanBusiness(r.q.QueryRowContext(ctx, query, id))
}

// GetAll retrieves businesses, optionally filtered by status.
func (r *BusinessRepository) GetAll(ctx context.Context, status domain.BusinessStatus) ([]*domain.Business, error) {
	query := `SELECT ` + businessColumns + ` FROM businesses WHERE ($1 = '' OR status = $1) ORDER BY created_at DESC`
	rows, err := r.q.QueryContext(ctx, query, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var businesses []*domain.Business
	for rows.Next() {
		business, err := scanBusiness(rows)
		if err != nil {
			return nil, err
		}
		businesses = append(businesses, business)
	}
	return businesses, rows.Err()
}

// UpdateStatus updates the approval status of a business.
func (r *BusinessRepository) UpdateStatus(ctx context.Context, id string, status domain.BusinessStatus) error {
	result, err := r.q.ExecContext(ctx, `UPDATE businesses SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

func scanBusiness(row rowScanner) (*domain.Business, error) {
	var business domain.Business
	err := row.Scan(
		&business.ID,
		&business.Name,
		&business.RegistrationNumber,
		&business.Address,
		&business.ContactEmail,
		&business.Status,
		&business.CreatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}
	return &business, nil
}
