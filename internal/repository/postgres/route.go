package postgres

import (
	"context"

	"cargo/internal/domain"
)

// RouteRepository is a PostgreSQL implementation of repository.RouteRepository.
type RouteRepository struct {
	q Querier
}

const routeColumns = `id, origin, destination, distance_km, base_price, active, created_at`

// Create persists a new route.
func (r *RouteRepository) Create(ctx context.Context, route *domain.Route) error {
	query := `
		INSERT INTO routes (id, origin, destination, distance_km, base_price, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.q.ExecContext(ctx, query,
		route.ID,
		route.Origin,
		route.Destination,
		route.DistanceKm,
		route.BasePrice,
		route.Active,
		route.CreatedAt,
	)
	return mapError(err)
}

// GetByID retrieves a route by ID.
func (r *RouteRepository) GetByID(ctx context.Context, id string) (*domain.Route, error) {
	query := `SELECT ` + routeColumns + ` FROM routes WHERE id = $1`
	return scanRoute(r.q.QueryRowContext(ctx, query, id))
}

// GetAll retrieves routes, optionally only active ones.
func (r *RouteRepository) GetAll(ctx context.Context, activeOnly bool) ([]*domain.Route, error) {
	query := `SELECT ` + routeColumns + ` FROM routes WHERE (NOT $1 OR active) ORDER BY origin, destination`
	rows, err := r.q.QueryContext(ctx, query, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var routes []*domain.Route
	for rows.Next() {
		route, err := scanRoute(rows)
		if err != nil {
			return nil, err
		}
		routes = append(routes, route)
	}
	return routes, rows.Err()
}

// Update updates an existing route.
func (r *RouteRepository) Update(ctx context.Context, route *domain.Route) error {
	query := `
		UPDATE routes
		SET origin = $1, destination = $2, distance_km = $3, base_price = $4, active = $5
		WHERE id = $6
	`
	result, err := r.q.ExecContext(ctx, query,
		route.Origin,
		route.Destination,
		route.DistanceKm,
		route.BasePrice,
		route.Active,
		route.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return expectAffected(result)
}

func scanRoute(row rowScanner) (*domain.Route, error) {
	var route domain.Route
	err := row.Scan(
		&route.ID,
		&route.Origin,
		&route.Destination,
		&route.DistanceKm,
		&route.BasePrice,
		&route.Active,
		&route.CreatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}
	return &route, nil
}
