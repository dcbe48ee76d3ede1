package postgres

import (
	"context"
	"database/sql"

	"cargo/internal/domain"
)

// DriverRepository is a PostgreSQL implementation of repository.DriverRepository.
type DriverRepository struct {
	q Querier
}

const driverColumns = `id, user_id, truck_owner_id, license_number, status, created_at`

// Create adds a new driver profile.
func (r *DriverRepository) Create(ctx context.Context, driver *domain.Driver) error {
	query := `
		INSERT INTO drivers (id, user_id, truck_owner_id, license_number, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.q.ExecContext(ctx, query,
		driver.ID,
		driver.UserID,
		nullString(driver.TruckOwnerID),
		driver.LicenseNumber,
		driver.Status,
		driver.CreatedAt,
	)
	return mapError(err)
}

// GetByID retrieves a driver by ID.
func (r *DriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers WHERE id = $1`
	return scanDriver(r.q.QueryRowContext(ctx, query, id))
}

// GetByUserID retrieves the driver profile of a user.
func (r *DriverRepository) GetByUserID(ctx context.Context, userID string) (*domain.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers WHERE user_id = $1`
	return scanDriver(r.q.QueryRowContext(ctx, query, userID))
}

// GetAll retrieves drivers, optionally only those of one truck owner.
func (r *DriverRepository) GetAll(ctx context.Context, truckOwnerID string) ([]*domain.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers WHERE ($1 = '' OR truck_owner_id::text = $1) ORDER BY created_at DESC`
	rows, err := r.q.QueryContext(ctx, query, truckOwnerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drivers []*domain.Driver
	for rows.Next() {
		driver, err := scanDriver(rows)
		if err != nil {
			return nil, err
		}
		drivers = append(drivers, driver)
	}
	return drivers, rows.Err()
}

// UpdateStatus updates the status of a driver.
func (r *DriverRepository) UpdateStatus(ctx context.Context, id string, status domain.DriverStatus) error {
	result, err := r.q.ExecContext(ctx, `UPDATE drivers SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

func scanDriver(row rowScanner) (*domain.Driver, error) {
	var driver domain.Driver
	var truckOwnerID sql.NullString
	err := row.Scan(
		&driver.ID,
		&driver.UserID,
		&truckOwnerID,
		&driver.LicenseNumber,
		&driver.Status,
		&driver.CreatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}
	driver.TruckOwnerID = truckOwnerID.String
	return &driver, nil
}
