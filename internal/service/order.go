package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"cargo/internal/domain"
	"cargo/internal/redis"
	"cargo/internal/repository"
)

// OrderService handles the order lifecycle from draft to completion.
type OrderService struct {
	store    repository.Store
	locks    redis.LockStoreInterface
	cache    orderCache
	payments *PaymentService
	wallets  *WalletService
	notifier *NotificationService
	logger   *zap.Logger
	now      func() time.Time
}

// NewOrderService creates a new OrderService.
func NewOrderService(
	store repository.Store,
	locks redis.LockStoreInterface,
	cache redis.OrderCache,
	payments *PaymentService,
	wallets *WalletService,
	notifier *NotificationService,
	logger *zap.Logger,
) *OrderService {
	logger = logger.Named("orders")
	return &OrderService{
		store:    store,
		locks:    locks,
		cache:    orderCache{cache: cache, logger: logger},
		payments: payments,
		wallets:  wallets,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock replaces the service clock.
func (s *OrderService) WithClock(now func() time.Time) *OrderService {
	s.now = now
	return s
}

// CargoItemInput describes one line of goods.
type CargoItemInput struct {
	Description string
	WeightKg    float64
	Quantity    int
}

// CreateOrderRequest contains the parameters for creating an order.
type CreateOrderRequest struct {
	RouteID         string
	PickupAddress   string
	DeliveryAddress string
	PickupDate      time.Time
	Items           []CargoItemInput
}

// UpdateOrderRequest contains the fields of a draft that may change.
// Nil fields are left untouched; a non-nil Items replaces every item.
type UpdateOrderRequest struct {
	RouteID         *string
	PickupAddress   *string
	DeliveryAddress *string
	PickupDate      *time.Time
	Items           []CargoItemInput
}

// ListOrdersRequest narrows an order listing.
type ListOrdersRequest struct {
	Status domain.OrderStatus
	Limit  int
	Offset int
}

// CreateOrder creates a DRAFT order for the actor's business.
func (s *OrderService) CreateOrder(ctx context.Context, actor Actor, req CreateOrderRequest) (*domain.Order, error) {
	if !actor.is(domain.RoleCargoOwner) {
		return nil, ErrForbidden
	}
	if strings.TrimSpace(req.PickupAddress) == "" || strings.TrimSpace(req.DeliveryAddress) == "" {
		return nil, fmt.Errorf("%w: pickup and delivery addresses are required", ErrInvalidInput)
	}

	repos := s.store.Repositories()
	businessID, err := businessOf(ctx, repos, actor)
	if err != nil {
		return nil, err
	}
	if err := s.checkRoute(ctx, repos, req.RouteID); err != nil {
		return nil, err
	}

	orderID := uuid.New().String()
	items, err := buildItems(orderID, req.Items)
	if err != nil {
		return nil, err
	}

	now := s.now()
	order := &domain.Order{
		ID:              orderID,
		BusinessID:      businessID,
		CargoOwnerID:    actor.UserID,
		RouteID:         req.RouteID,
		PickupAddress:   strings.TrimSpace(req.PickupAddress),
		DeliveryAddress: strings.TrimSpace(req.DeliveryAddress),
		PickupDate:      req.PickupDate,
		Status:          domain.OrderStatusDraft,
		AgreedPrice:     decimal.Zero,
		Items:           items,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err = s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		return repos.Orders.Create(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order created", zap.String("order_id", order.ID), zap.String("business_id", businessID))
	return order, nil
}

// UpdateOrder edits a draft order.
func (s *OrderService) UpdateOrder(ctx context.Context, actor Actor, id string, req UpdateOrderRequest) (*domain.Order, error) {
	var order *domain.Order
	err := s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		var err error
		order, err = s.ownedOrder(ctx, repos, actor, id)
		if err != nil {
			return err
		}
		if order.Status != domain.OrderStatusDraft {
			return ErrOrderNotEditable
		}

		if req.RouteID != nil {
			if err := s.checkRoute(ctx, repos, *req.RouteID); err != nil {
				return err
			}
			order.RouteID = *req.RouteID
		}
		if req.PickupAddress != nil {
			if strings.TrimSpace(*req.PickupAddress) == "" {
				return fmt.Errorf("%w: pickup address is required", ErrInvalidInput)
			}
			order.PickupAddress = strings.TrimSpace(*req.PickupAddress)
		}
		if req.DeliveryAddress != nil {
			if strings.TrimSpace(*req.DeliveryAddress) == "" {
				return fmt.Errorf("%w: delivery address is required", ErrInvalidInput)
			}
			order.DeliveryAddress = strings.TrimSpace(*req.DeliveryAddress)
		}
		if req.PickupDate != nil {
			order.PickupDate = *req.PickupDate
		}
		order.UpdatedAt = s.now()

		if req.Items != nil {
			items, err := buildItems(order.ID, req.Items)
			if err != nil {
				return err
			}
			if err := repos.Orders.ReplaceItems(ctx, order.ID, items); err != nil {
				return err
			}
			order.Items = items
		}

		return repos.Orders.Update(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	s.cache.invalidate(ctx, order.ID)
	return order, nil
}

// PublishOrder opens a draft for bidding. The business must be approved.
func (s *OrderService) PublishOrder(ctx context.Context, actor Actor, id string) (*domain.Order, error) {
	var order *domain.Order
	err := s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		var err error
		order, err = s.ownedOrder(ctx, repos, actor, id)
		if err != nil {
			return err
		}

		business, err := repos.Businesses.GetByID(ctx, order.BusinessID)
		if err != nil {
			return err
		}
		if business.Status != domain.BusinessStatusApproved {
			return ErrBusinessNotApproved
		}

		if err := order.TransitionTo(domain.OrderStatusOpenForBidding, s.now()); err != nil {
			return err
		}
		return repos.Orders.Update(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	s.afterTransition(ctx, order)
	s.notifyAvailableDrivers(ctx, order)
	return order, nil
}

// CancelOrder cancels an order on behalf of its owner or an admin. Pending
// bids are rejected and a driver already on the job is released.
func (s *OrderService) CancelOrder(ctx context.Context, actor Actor, id, reason string) (*domain.Order, error) {
	var (
		order    *domain.Order
		rejected []*domain.Bid
		driverID string
	)

	err := withLock(ctx, s.locks, redis.OrderLockName(id), orderLockTTL, func() error {
		return s.store.WithinTx(ctx, func(repos repository.Repositories) error {
			var err error
			if actor.IsAdmin() {
				order, err = repos.Orders.GetByIDForUpdate(ctx, id)
			} else {
				order, err = s.ownedOrder(ctx, repos, actor, id)
			}
			if err != nil {
				return err
			}

			driverID = order.DriverID
			if err := order.TransitionTo(domain.OrderStatusCancelled, s.now()); err != nil {
				return err
			}
			order.CancelReason = strings.TrimSpace(reason)
			if err := repos.Orders.Update(ctx, order); err != nil {
				return err
			}

			if rejected, err = repos.Bids.RejectPending(ctx, order.ID, ""); err != nil {
				return err
			}

			if driverID != "" {
				driver, err := repos.Drivers.GetByID(ctx, driverID)
				if err != nil {
					return err
				}
				if driver.Status == domain.DriverStatusOnJob {
					return repos.Drivers.UpdateStatus(ctx, driver.ID, domain.DriverStatusAvailable)
				}
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.afterTransition(ctx, order)

	repos := s.store.Repositories()
	notified := map[string]bool{}
	for _, bid := range rejected {
		notified[bid.DriverID] = true
	}
	if driverID != "" {
		notified[driverID] = true
	}
	for notifyID := range notified {
		s.notifier.Notifyf(ctx, driverUserID(ctx, repos, s.logger, notifyID), domain.NotificationOrderCancelled,
			"Order cancelled", "Order %s was cancelled", order.ID)
	}

	return order, nil
}

// GetOrder returns an order the actor may see: their business's orders,
// orders assigned to them, or any order open for bids.
func (s *OrderService) GetOrder(ctx context.Context, actor Actor, id string) (*domain.Order, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: order id is required", ErrInvalidInput)
	}

	repos := s.store.Repositories()
	order, err := s.cache.get(ctx, repos, id)
	if err != nil {
		return nil, err
	}
	if err := canView(ctx, repos, actor, order); err != nil {
		return nil, err
	}
	return order, nil
}

// ListOrders lists the orders visible to the actor.
func (s *OrderService) ListOrders(ctx context.Context, actor Actor, req ListOrdersRequest) ([]*domain.Order, error) {
	if req.Status != "" && !req.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, req.Status)
	}

	repos := s.store.Repositories()
	filter := repository.OrderFilter{
		Statuses: statusFilter(req.Status),
		Limit:    req.Limit,
		Offset:   req.Offset,
	}

	switch {
	case actor.IsAdmin():
		return repos.Orders.GetAll(ctx, filter)

	case actor.is(domain.RoleCargoOwner):
		businessID, err := businessOf(ctx, repos, actor)
		if err != nil {
			return nil, err
		}
		filter.BusinessID = businessID
		return repos.Orders.GetAll(ctx, filter)

	case actor.is(domain.RoleDriver):
		driver, err := driverOf(ctx, repos, actor)
		if err != nil {
			return nil, err
		}
		return s.listForDriver(ctx, repos, driver, req)
	}

	return nil, ErrForbidden
}

// StartTransit marks the pickup of an acknowledged order.
func (s *OrderService) StartTransit(ctx context.Context, actor Actor, id string) (*domain.Order, error) {
	order, err := s.driverTransition(ctx, actor, id, domain.OrderStatusInTransit)
	if err != nil {
		return nil, err
	}
	s.notifier.Notifyf(ctx, order.CargoOwnerID, domain.NotificationOrderInTransit,
		"Order in transit", "Order %s has been picked up", order.ID)
	return order, nil
}

// MarkDelivered records the delivery of an order in transit.
func (s *OrderService) MarkDelivered(ctx context.Context, actor Actor, id string) (*domain.Order, error) {
	order, err := s.driverTransition(ctx, actor, id, domain.OrderStatusDelivered)
	if err != nil {
		return nil, err
	}
	s.notifier.Notifyf(ctx, order.CargoOwnerID, domain.NotificationOrderDelivered,
		"Order delivered", "Order %s was delivered, confirm to complete it", order.ID)
	return order, nil
}

// CompleteOrder charges the agreed price and, once paid, completes the order
// and credits the driver. A declined charge leaves the order DELIVERED and
// returns ErrPaymentFailed together with the failed payment. The order lock
// is held from the status check through the credit.
func (s *OrderService) CompleteOrder(ctx context.Context, actor Actor, id string) (*domain.Order, *domain.Payment, error) {
	if id == "" {
		return nil, nil, fmt.Errorf("%w: order id is required", ErrInvalidInput)
	}

	var (
		order   *domain.Order
		payment *domain.Payment
		credit  *domain.Transaction
	)

	err := withLock(ctx, s.locks, redis.OrderLockName(id), orderLockTTL, func() error {
		var err error
		if order, err = s.store.Repositories().Orders.GetByID(ctx, id); err != nil {
			return err
		}
		if order.CargoOwnerID != actor.UserID {
			return ErrForbidden
		}
		if !order.Status.CanTransitionTo(domain.OrderStatusCompleted) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, domain.OrderStatusCompleted)
		}

		if payment, err = s.payments.ChargeOrder(ctx, order); err != nil {
			return err
		}
		if payment.Status != domain.PaymentStatusSuccess {
			return ErrPaymentFailed
		}

		return s.store.WithinTx(ctx, func(repos repository.Repositories) error {
			var err error
			if order, err = repos.Orders.GetByIDForUpdate(ctx, id); err != nil {
				return err
			}
			if err := order.TransitionTo(domain.OrderStatusCompleted, s.now()); err != nil {
				return err
			}
			if err := repos.Orders.Update(ctx, order); err != nil {
				return err
			}
			if credit, err = s.wallets.CreditOrder(ctx, repos, order); err != nil {
				return err
			}
			return repos.Drivers.UpdateStatus(ctx, order.DriverID, domain.DriverStatusAvailable)
		})
	})
	if errors.Is(err, ErrPaymentFailed) {
		s.notifier.Notifyf(ctx, order.CargoOwnerID, domain.NotificationPaymentFailed,
			"Payment failed", "We could not charge %s for order %s", payment.Amount.StringFixed(2), order.ID)
		return order, payment, err
	}
	if err != nil {
		return nil, payment, err
	}

	s.afterTransition(ctx, order)

	driverUser := driverUserID(ctx, s.store.Repositories(), s.logger, order.DriverID)
	s.notifier.Notifyf(ctx, driverUser, domain.NotificationOrderCompleted,
		"Order completed", "Order %s was confirmed by the cargo owner", order.ID)
	s.notifier.Notifyf(ctx, driverUser, domain.NotificationWalletCredited,
		"Wallet credited", "%s credited, payable on %s", credit.Amount.StringFixed(2), credit.AvailableOn.Format("2006-01-02"))

	return order, payment, nil
}

// driverTransition moves an order assigned to the acting driver to next.
func (s *OrderService) driverTransition(ctx context.Context, actor Actor, id string, next domain.OrderStatus) (*domain.Order, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: order id is required", ErrInvalidInput)
	}

	var order *domain.Order
	err := withLock(ctx, s.locks, redis.OrderLockName(id), orderLockTTL, func() error {
		return s.store.WithinTx(ctx, func(repos repository.Repositories) error {
			driver, err := driverOf(ctx, repos, actor)
			if err != nil {
				return err
			}
			if order, err = repos.Orders.GetByIDForUpdate(ctx, id); err != nil {
				return err
			}
			if order.DriverID != driver.ID {
				return ErrNotAssignedDriver
			}
			if err := order.TransitionTo(next, s.now()); err != nil {
				return err
			}
			return repos.Orders.Update(ctx, order)
		})
	})
	if err != nil {
		return nil, err
	}

	s.afterTransition(ctx, order)
	return order, nil
}

// listForDriver returns the driver's assignments together with the orders
// accepting bids, paged in one query.
func (s *OrderService) listForDriver(ctx context.Context, repos repository.Repositories, driver *domain.Driver, req ListOrdersRequest) ([]*domain.Order, error) {
	market := []domain.OrderStatus{domain.OrderStatusOpenForBidding, domain.OrderStatusBiddingInProgress}
	if req.Status != "" {
		market = nil
		if req.Status.AcceptsBids() {
			market = []domain.OrderStatus{req.Status}
		}
	}

	return repos.Orders.GetAll(ctx, repository.OrderFilter{
		DriverID:     driver.ID,
		Statuses:     statusFilter(req.Status),
		OpenStatuses: market,
		Limit:        req.Limit,
		Offset:       req.Offset,
	})
}

// ownedOrder row-locks an order of the actor; call it inside a transaction.
func (s *OrderService) ownedOrder(ctx context.Context, repos repository.Repositories, actor Actor, id string) (*domain.Order, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: order id is required", ErrInvalidInput)
	}
	order, err := repos.Orders.GetByIDForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.CargoOwnerID != actor.UserID {
		return nil, ErrForbidden
	}
	return order, nil
}

func (s *OrderService) checkRoute(ctx context.Context, repos repository.Repositories, routeID string) error {
	if routeID == "" {
		return nil
	}
	route, err := repos.Routes.GetByID(ctx, routeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: unknown route", ErrInvalidInput)
		}
		return err
	}
	if !route.Active {
		return ErrRouteInactive
	}
	return nil
}

func (s *OrderService) afterTransition(ctx context.Context, order *domain.Order) {
	s.cache.invalidate(ctx, order.ID)
	orderTransitions.WithLabelValues(string(order.Status)).Inc()
	s.logger.Info("order status changed", zap.String("order_id", order.ID), zap.String("status", string(order.Status)))
}

func (s *OrderService) notifyAvailableDrivers(ctx context.Context, order *domain.Order) {
	drivers, err := s.store.Repositories().Drivers.GetAll(ctx, "")
	if err != nil {
		s.logger.Error("failed to list drivers", zap.Error(err))
		return
	}
	for _, driver := range drivers {
		if driver.Status == domain.DriverStatusAvailable {
			s.notifier.Notifyf(ctx, driver.UserID, domain.NotificationOrderPublished,
				"New order", "%s to %s, %.0f kg", order.PickupAddress, order.DeliveryAddress, order.TotalWeightKg())
		}
	}
}

// canView reports ErrForbidden unless actor may read order.
func canView(ctx context.Context, repos repository.Repositories, actor Actor, order *domain.Order) error {
	switch {
	case actor.IsAdmin():
		return nil
	case actor.is(domain.RoleCargoOwner):
		businessID, err := businessOf(ctx, repos, actor)
		if err != nil {
			return err
		}
		if businessID == order.BusinessID {
			return nil
		}
	case actor.is(domain.RoleDriver):
		driver, err := driverOf(ctx, repos, actor)
		if err != nil {
			return err
		}
		if order.DriverID == driver.ID || order.Status.AcceptsBids() {
			return nil
		}
	}
	return ErrForbidden
}

func buildItems(orderID string, inputs []CargoItemInput) ([]domain.CargoItem, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: at least one cargo item is required", ErrInvalidInput)
	}

	items := make([]domain.CargoItem, 0, len(inputs))
	for i, in := range inputs {
		if strings.TrimSpace(in.Description) == "" {
			return nil, fmt.Errorf("%w: item %d needs a description", ErrInvalidInput, i+1)
		}
		if in.WeightKg <= 0 {
			return nil, fmt.Errorf("%w: item %d weight must be positive", ErrInvalidInput, i+1)
		}
		if in.Quantity < 1 {
			return nil, fmt.Errorf("%w: item %d quantity must be at least 1", ErrInvalidInput, i+1)
		}
		items = append(items, domain.CargoItem{
			ID:          uuid.New().String(),
			OrderID:     orderID,
			Description: strings.TrimSpace(in.Description),
			WeightKg:    in.WeightKg,
			Quantity:    in.Quantity,
		})
	}
	return items, nil
}

func statusFilter(status domain.OrderStatus) []domain.OrderStatus {
	if status == "" {
		return nil
	}
	return []domain.OrderStatus{status}
}

// driverUserID resolves the user behind a driver profile for notifications.
func driverUserID(ctx context.Context, repos repository.Repositories, logger *zap.Logger, driverID string) string {
	driver, err := repos.Drivers.GetByID(ctx, driverID)
	if err != nil {
		logger.Warn("failed to resolve driver user", zap.String("driver_id", driverID), zap.Error(err))
		return ""
	}
	return driver.UserID
}
