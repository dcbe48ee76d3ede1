package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"cargo/internal/domain"
)

// OrderCacheTTL bounds how stale a cached order read can be.
const OrderCacheTTL = 30 * time.Second

const orderCachePrefix = "cache:order:"

// CacheStore handles entity caching in Redis.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// CachedCargoItem is the cached form of a cargo item.
type CachedCargoItem struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	WeightKg    float64 `json:"weight_kg"`
	Quantity    int     `json:"quantity"`
}

// CachedOrder is the cached form of an order.
type CachedOrder struct {
	ID              string            `json:"id"`
	BusinessID      string            `json:"business_id"`
	CargoOwnerID    string            `json:"cargo_owner_id"`
	RouteID         string            `json:"route_id"`
	PickupAddress   string            `json:"pickup_address"`
	DeliveryAddress string            `json:"delivery_address"`
	PickupDate      time.Time         `json:"pickup_date"`
	Status          string            `json:"status"`
	SelectedBidID   string            `json:"selected_bid_id"`
	DriverID        string            `json:"driver_id"`
	TruckID         string            `json:"truck_id"`
	AgreedPrice     decimal.Decimal   `json:"agreed_price"`
	CancelReason    string            `json:"cancel_reason"`
	Items           []CachedCargoItem `json:"items"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
	DeliveredAt     time.Time         `json:"delivered_at"`
	CompletedAt     time.Time         `json:"completed_at"`
	CancelledAt     time.Time         `json:"cancelled_at"`
}

// GetOrder retrieves an order from cache. A miss returns nil, nil.
func (s *CacheStore) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	data, err := s.client.Get(ctx, orderCachePrefix+orderID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var cached CachedOrder
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, err
	}
	return cached.toDomain(), nil
}

// SetOrder stores an order in cache.
func (s *CacheStore) SetOrder(ctx context.Context, order *domain.Order) error {
	data, err := json.Marshal(newCachedOrder(order))
	if err != nil {
		return err
	}
	return s.client.Set(ctx, orderCachePrefix+order.ID, data, OrderCacheTTL).Err()
}

// InvalidateOrder removes an order from cache.
func (s *CacheStore) InvalidateOrder(ctx context.Context, orderID string) error {
	return s.client.Del(ctx, orderCachePrefix+orderID).Err()
}

func newCachedOrder(o *domain.Order) *CachedOrder {
	items := make([]CachedCargoItem, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, CachedCargoItem{
			ID:          item.ID,
			Description: item.Description,
			WeightKg:    item.WeightKg,
			Quantity:    item.Quantity,
		})
	}
	return &CachedOrder{
		ID:              o.ID,
		BusinessID:      o.BusinessID,
		CargoOwnerID:    o.CargoOwnerID,
		RouteID:         o.RouteID,
		PickupAddress:   o.PickupAddress,
		DeliveryAddress: o.DeliveryAddress,
		PickupDate:      o.PickupDate,
		Status:          string(o.Status),
		SelectedBidID:   o.SelectedBidID,
		DriverID:        o.DriverID,
		TruckID:         o.TruckID,
		AgreedPrice:     o.AgreedPrice,
		CancelReason:    o.CancelReason,
		Items:           items,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
		DeliveredAt:     o.DeliveredAt,
		CompletedAt:     o.CompletedAt,
		CancelledAt:     o.CancelledAt,
	}
}

func (c *CachedOrder) toDomain() *domain.Order {
	items := make([]domain.CargoItem, 0, len(c.Items))
	for _, item := range c.Items {
		items = append(items, domain.CargoItem{
			ID:          item.ID,
			OrderID:     c.ID,
			Description: item.Description,
			WeightKg:    item.WeightKg,
			Quantity:    item.Quantity,
		})
	}
	return &domain.Order{
		ID:              c.ID,
		BusinessID:      c.BusinessID,
		CargoOwnerID:    c.CargoOwnerID,
		RouteID:         c.RouteID,
		PickupAddress:   c.PickupAddress,
		DeliveryAddress: c.DeliveryAddress,
		PickupDate:      c.PickupDate,
		Status:          domain.OrderStatus(c.Status),
		SelectedBidID:   c.SelectedBidID,
		DriverID:        c.DriverID,
		TruckID:         c.TruckID,
		AgreedPrice:     c.AgreedPrice,
		CancelReason:    c.CancelReason,
		Items:           items,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
		DeliveredAt:     c.DeliveredAt,
		CompletedAt:     c.CompletedAt,
		CancelledAt:     c.CancelledAt,
	}
}
