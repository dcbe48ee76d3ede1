package postgres

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"cargo/internal/domain"
	"cargo/internal/repository"
)

const defaultListLimit = 100

// OrderRepository is a PostgreSQL implementation of repository.OrderRepository.
type OrderRepository struct {
	q Querier
}

const orderColumns = `id, business_id, cargo_owner_id, route_id, pickup_address, delivery_address, pickup_date, status,
	selected_bid_id, driver_id, truck_id, agreed_price, cancel_reason, created_at, updated_at, delivered_at, completed_at, cancelled_at`

// Create persists a new order and its cargo items.
func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	query := `
		INSERT INTO orders (id, business_id, cargo_owner_id, route_id, pickup_address, delivery_address, pickup_date, status,
			selected_bid_id, driver_id, truck_id, agreed_price, cancel_reason, created_at, updated_at, delivered_at, completed_at, cancelled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`
	_, err := r.q.ExecContext(ctx, query,
		order.ID,
		order.BusinessID,
		order.CargoOwnerID,
		nullString(order.RouteID),
		order.PickupAddress,
		order.DeliveryAddress,
		nullTime(order.PickupDate),
		order.Status,
		nullString(order.SelectedBidID),
		nullString(order.DriverID),
		nullString(order.TruckID),
		order.AgreedPrice,
		nullString(order.CancelReason),
		order.CreatedAt,
		order.UpdatedAt,
		nullTime(order.DeliveredAt),
		nullTime(order.CompletedAt),
		nullTime(order.CancelledAt),
	)
	if err != nil {
		return mapError(err)
	}

	return r.insertItems(ctx, order.ID, order.Items)
}

// GetByID retrieves an order with its cargo items.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	return r.get(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

// GetByIDForUpdate retrieves an order and holds its row lock for the
// rest of the transaction.
func (r *OrderRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Order, error) {
	return r.get(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id)
}

func (r *OrderRepository) get(ctx context.Context, query, id string) (*domain.Order, error) {
	order, err := scanOrder(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}

	items, err := r.getItems(ctx, id)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return order, nil
}

// GetAll retrieves orders matching the filter, newest first.
func (r *OrderRepository) GetAll(ctx context.Context, filter repository.OrderFilter) ([]*domain.Order, error) {
	query := `
		SELECT ` + orderColumns + ` FROM orders
		WHERE ($1 = '' OR business_id::text = $1)
		  AND (
			(($2 = '' OR driver_id::text = $2)
			  AND (COALESCE(cardinality($3::text[]), 0) = 0 OR status = ANY($3::text[])))
			OR status = ANY($6::text[])
		  )
		ORDER BY created_at DESC, id DESC
		LIMIT $4 OFFSET $5
	`

	limit := filter.Limit
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}

	rows, err := r.q.QueryContext(ctx, query,
		filter.BusinessID,
		filter.DriverID,
		pq.Array(statusStrings(filter.Statuses)),
		limit,
		filter.Offset,
		pq.Array(statusStrings(filter.OpenStatuses)),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

// Update updates the order columns.
func (r *OrderRepository) Update(ctx context.Context, order *domain.Order) error {
	query := `
		UPDATE orders
		SET route_id = $1, pickup_address = $2, delivery_address = $3, pickup_date = $4, status = $5,
			selected_bid_id = $6, driver_id = $7, truck_id = $8, agreed_price = $9, cancel_reason = $10,
			updated_at = $11, delivered_at = $12, completed_at = $13, cancelled_at = $14
		WHERE id = $15
	`
	result, err := r.q.ExecContext(ctx, query,
		nullString(order.RouteID),
		order.PickupAddress,
		order.DeliveryAddress,
		nullTime(order.PickupDate),
		order.Status,
		nullString(order.SelectedBidID),
		nullString(order.DriverID),
		nullString(order.TruckID),
		order.AgreedPrice,
		nullString(order.CancelReason),
		order.UpdatedAt,
		nullTime(order.DeliveredAt),
		nullTime(order.CompletedAt),
		nullTime(order.CancelledAt),
		order.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return expectAffected(result)
}

// ReplaceItems swaps the cargo items of an order.
func (r *OrderRepository) ReplaceItems(ctx context.Context, orderID string, items []domain.CargoItem) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM cargo_items WHERE order_id = $1`, orderID); err != nil {
		return err
	}
	return r.insertItems(ctx, orderID, items)
}

func (r *OrderRepository) insertItems(ctx context.Context, orderID string, items []domain.CargoItem) error {
	query := `
		INSERT INTO cargo_items (id, order_id, description, weight_kg, quantity)
		VALUES ($1, $2, $3, $4, $5)
	`
	for _, item := range items {
		if _, err := r.q.ExecContext(ctx, query, item.ID, orderID, item.Description, item.WeightKg, item.Quantity); err != nil {
			return mapError(err)
		}
	}
	return nil
}

func (r *OrderRepository) getItems(ctx context.Context, orderID string) ([]domain.CargoItem, error) {
	query := `SELECT id, order_id, description, weight_kg, quantity FROM cargo_items WHERE order_id = $1 ORDER BY description`
	rows, err := r.q.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.CargoItem
	for rows.Next() {
		var item domain.CargoItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.Description, &item.WeightKg, &item.Quantity); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var order domain.Order
	var routeID, selectedBidID, driverID, truckID, cancelReason sql.NullString
	var pickupDate, deliveredAt, completedAt, cancelledAt sql.NullTime

	err := row.Scan(
		&order.ID,
		&order.BusinessID,
		&order.CargoOwnerID,
		&routeID,
		&order.PickupAddress,
		&order.DeliveryAddress,
		&pickupDate,
		&order.Status,
		&selectedBidID,
		&driverID,
		&truckID,
		&order.AgreedPrice,
		&cancelReason,
		&order.CreatedAt,
		&order.UpdatedAt,
		&deliveredAt,
		&completedAt,
		&cancelledAt,
	)
	if err != nil {
		return nil, mapError(err)
	}

	order.RouteID = routeID.String
	order.SelectedBidID = selectedBidID.String
	order.DriverID = driverID.String
	order.TruckID = truckID.String
	order.CancelReason = cancelReason.String
	order.PickupDate = pickupDate.Time
	order.DeliveredAt = deliveredAt.Time
	order.CompletedAt = completedAt.Time
	order.CancelledAt = cancelledAt.Time

	return &order, nil
}

func statusStrings(statuses []domain.OrderStatus) []string {
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, string(s))
	}
	return out
}
