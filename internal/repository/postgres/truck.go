package postgres

import (
	"context"
	"database/sql"

	"cargo/internal/domain"
	"cargo/internal/repository"
)

// TruckRepository is a PostgreSQL implementation of repository.TruckRepository.
type TruckRepository struct {
	q Querier
}

const truckColumns = `id, owner_id, driver_id, plate_number, truck_type, capacity_kg, status, created_at`

// Create persists a new truck.
func (r *TruckRepository) Create(ctx context.Context, truck *domain.Truck) error {
	query := `
		INSERT INTO trucks (id, owner_id, driver_id, plate_number, truck_type, capacity_kg, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.q.ExecContext(ctx, query,
		truck.ID,
		truck.OwnerID,
		nullString(truck.DriverID),
		truck.PlateNumber,
		truck.TruckType,
		truck.CapacityKg,
		truck.Status,
		truck.CreatedAt,
	)
	return mapError(err)
}

// GetByID retrieves a truck by ID.
func (r *TruckRepository) GetByID(ctx context.Context, id string) (*domain.Truck, error) {
	query := `SELECT ` + truckColumns + ` FROM trucks WHERE id = $1`
	return scanTruck(r.q.QueryRowContext(ctx, query, id))
}

// GetAll retrieves trucks matching the filter.
func (r *TruckRepository) GetAll(ctx context.Context, filter repository.TruckFilter) ([]*domain.Truck, error) {
	query := `
		SELECT ` + truckColumns + ` FROM trucks
		WHERE ($1 = '' OR owner_id::text = $1) AND ($2 = '' OR driver_id::text = $2)
		ORDER BY created_at DESC
	`
	rows, err := r.q.QueryContext(ctx, query, filter.OwnerID, filter.DriverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trucks []*domain.Truck
	for rows.Next() {
		truck, err := scanTruck(rows)
		if err != nil {
			return nil, err
		}
		trucks = append(trucks, truck)
	}
	return trucks, rows.Err()
}

// Update updates an existing truck.
func (r *TruckRepository) Update(ctx context.Context, truck *domain.Truck) error {
	query := `
		UPDATE trucks
		SET driver_id = $1, plate_number = $2, truck_type = $3, capacity_kg = $4, status = $5
		WHERE id = $6
	`
	result, err := r.q.ExecContext(ctx, query,
		nullString(truck.DriverID),
		truck.PlateNumber,
		truck.TruckType,
		truck.CapacityKg,
		truck.Status,
		truck.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return expectAffected(result)
}

func scanTruck(row rowScanner) (*domain.Truck, error) {
	var truck domain.Truck
	var driverID sql.NullString
	err := row.Scan(
		&truck.ID,
		&truck.OwnerID,
		&driverID,
		&truck.PlateNumber,
		&truck.TruckType,
		&truck.CapacityKg,
		&truck.Status,
		&truck.CreatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}
	truck.DriverID = driverID.String
	return &truck, nil
}
