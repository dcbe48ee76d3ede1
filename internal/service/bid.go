package service

import (
	"context"
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

// BidService handles driver bids and the selection handshake.
// Every change to the bids of an order holds that order's lock.
type BidService struct {
	store    repository.Store
	locks    redis.LockStoreInterface
	cache    orderCache
	notifier *NotificationService
	logger   *zap.Logger
	now      func() time.Time
}

// NewBidService creates a new BidService.
func NewBidService(
	store repository.Store,
	locks redis.LockStoreInterface,
	cache redis.OrderCache,
	notifier *NotificationService,
	logger *zap.Logger,
) *BidService {
	logger = logger.Named("bids")
	return &BidService{
		store:    store,
		locks:    locks,
		cache:    orderCache{cache: cache, logger: logger},
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock replaces the service clock.
func (s *BidService) WithClock(now func() time.Time) *BidService {
	s.now = now
	return s
}

// SubmitBidRequest contains the parameters for placing a bid.
type SubmitBidRequest struct {
	OrderID string
	TruckID string
	Amount  decimal.Decimal
	Note    string
}

// SubmitBid places the acting driver's offer on an order. The first bid
// moves the order to BIDDING_IN_PROGRESS.
func (s *BidService) SubmitBid(ctx context.Context, actor Actor, req SubmitBidRequest) (*domain.Bid, error) {
	if req.OrderID == "" || req.TruckID == "" {
		return nil, fmt.Errorf("%w: order id and truck id are required", ErrInvalidInput)
	}
	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	var (
		bid   *domain.Bid
		order *domain.Order
		moved bool
	)

	err := withLock(ctx, s.locks, redis.OrderLockName(req.OrderID), orderLockTTL, func() error {
		return s.store.WithinTx(ctx, func(repos repository.Repositories) error {
			driver, err := driverOf(ctx, repos, actor)
			if err != nil {
				return err
			}

			if order, err = repos.Orders.GetByIDForUpdate(ctx, req.OrderID); err != nil {
				return err
			}
			if !order.Status.AcceptsBids() {
				return ErrOrderNotAcceptingBids
			}

			truck, err := repos.Trucks.GetByID(ctx, req.TruckID)
			if err != nil {
				return err
			}
			if truck.DriverID != driver.ID || truck.Status != domain.TruckStatusActive {
				return ErrTruckUnavailable
			}
			if !truck.CanCarry(order.TotalWeightKg()) {
				return ErrInsufficientCapacity
			}

			existing, err := repos.Bids.GetPendingByOrderAndDriver(ctx, order.ID, driver.ID)
			if err != nil {
				return err
			}
			if existing != nil {
				return ErrDuplicateBid
			}

			now := s.now()
			bid = &domain.Bid{
				ID:        uuid.New().String(),
				OrderID:   order.ID,
				DriverID:  driver.ID,
				TruckID:   truck.ID,
				Amount:    req.Amount.Round(2),
				Note:      strings.TrimSpace(req.Note),
				Status:    domain.BidStatusPending,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := repos.Bids.Create(ctx, bid); err != nil {
				return err
			}

			if order.Status == domain.OrderStatusOpenForBidding {
				if err := order.TransitionTo(domain.OrderStatusBiddingInProgress, now); err != nil {
					return err
				}
				moved = true
				return repos.Orders.Update(ctx, order)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.afterChange(ctx, order, moved)
	bidEvents.WithLabelValues("submitted").Inc()
	s.notifier.Notifyf(ctx, order.CargoOwnerID, domain.NotificationBidReceived,
		"New bid", "A driver bid %s on order %s", bid.Amount.StringFixed(2), order.ID)

	return bid, nil
}

// WithdrawBid withdraws the acting driver's pending bid. Withdrawing the
// last pending bid reopens the order.
func (s *BidService) WithdrawBid(ctx context.Context, actor Actor, bidID string) (*domain.Bid, error) {
	if bidID == "" {
		return nil, fmt.Errorf("%w: bid id is required", ErrInvalidInput)
	}

	bid, err := s.store.Repositories().Bids.GetByID(ctx, bidID)
	if err != nil {
		return nil, err
	}

	var (
		order *domain.Order
		moved bool
	)

	err = withLock(ctx, s.locks, redis.OrderLockName(bid.OrderID), orderLockTTL, func() error {
		return s.store.WithinTx(ctx, func(repos repository.Repositories) error {
			driver, err := driverOf(ctx, repos, actor)
			if err != nil {
				return err
			}

			if bid, err = repos.Bids.GetByID(ctx, bidID); err != nil {
				return err
			}
			if bid.DriverID != driver.ID {
				return ErrForbidden
			}
			if bid.Status != domain.BidStatusPending {
				return ErrBidNotPending
			}

			if err := repos.Bids.UpdateStatus(ctx, bid.ID, domain.BidStatusWithdrawn); err != nil {
				return err
			}
			bid.Status = domain.BidStatusWithdrawn
			bid.UpdatedAt = s.now()

			if order, err = repos.Orders.GetByIDForUpdate(ctx, bid.OrderID); err != nil {
				return err
			}
			pending, err := repos.Bids.CountPending(ctx, order.ID)
			if err != nil {
				return err
			}
			if pending == 0 && order.Status == domain.OrderStatusBiddingInProgress {
				if err := order.TransitionTo(domain.OrderStatusOpenForBidding, s.now()); err != nil {
					return err
				}
				moved = true
				return repos.Orders.Update(ctx, order)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.afterChange(ctx, order, moved)
	bidEvents.WithLabelValues("withdrawn").Inc()
	s.notifier.Notifyf(ctx, order.CargoOwnerID, domain.NotificationBidWithdrawn,
		"Bid withdrawn", "A driver withdrew their bid on order %s", order.ID)

	return bid, nil
}

// ListBids returns every bid on an order to its owner or an admin, and only
// their own bids to a driver.
func (s *BidService) ListBids(ctx context.Context, actor Actor, orderID string) ([]*domain.Bid, error) {
	if orderID == "" {
		return nil, fmt.Errorf("%w: order id is required", ErrInvalidInput)
	}

	repos := s.store.Repositories()
	order, err := repos.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	bids, err := repos.Bids.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	switch {
	case actor.IsAdmin(), order.CargoOwnerID == actor.UserID:
		return bids, nil
	case actor.is(domain.RoleDriver):
		driver, err := driverOf(ctx, repos, actor)
		if err != nil {
			return nil, err
		}
		own := make([]*domain.Bid, 0, 1)
		for _, bid := range bids {
			if bid.DriverID == driver.ID {
				own = append(own, bid)
			}
		}
		return own, nil
	}
	return nil, ErrForbidden
}

// AcceptBid selects a pending bid for its order: the bid is accepted, every
// other pending bid rejected and the order moves to DRIVER_SELECTED.
func (s *BidService) AcceptBid(ctx context.Context, actor Actor, orderID, bidID string) (*domain.Order, error) {
	if orderID == "" || bidID == "" {
		return nil, fmt.Errorf("%w: order id and bid id are required", ErrInvalidInput)
	}

	var (
		order    *domain.Order
		bid      *domain.Bid
		rejected []*domain.Bid
	)

	err := withLock(ctx, s.locks, redis.OrderLockName(orderID), orderLockTTL, func() error {
		return s.store.WithinTx(ctx, func(repos repository.Repositories) error {
			var err error
			if order, err = repos.Orders.GetByIDForUpdate(ctx, orderID); err != nil {
				return err
			}
			if order.CargoOwnerID != actor.UserID {
				return ErrForbidden
			}

			if bid, err = repos.Bids.GetByID(ctx, bidID); err != nil {
				return err
			}
			if bid.OrderID != order.ID {
				return ErrBidOrderMismatch
			}
			if bid.Status != domain.BidStatusPending {
				return ErrBidNotPending
			}

			if err := order.SelectBid(bid, s.now()); err != nil {
				return err
			}

			if err := repos.Bids.UpdateStatus(ctx, bid.ID, domain.BidStatusAccepted); err != nil {
				return err
			}
			bid.Status = domain.BidStatusAccepted

			if rejected, err = repos.Bids.RejectPending(ctx, order.ID, bid.ID); err != nil {
				return err
			}
			return repos.Orders.Update(ctx, order)
		})
	})
	if err != nil {
		return nil, err
	}

	s.afterChange(ctx, order, true)
	bidEvents.WithLabelValues("accepted").Inc()
	bidEvents.WithLabelValues("rejected").Add(float64(len(rejected)))

	repos := s.store.Repositories()
	s.notifier.Notifyf(ctx, driverUserID(ctx, repos, s.logger, bid.DriverID), domain.NotificationBidAccepted,
		"Bid accepted", "Your bid of %s on order %s was accepted, please confirm", bid.Amount.StringFixed(2), order.ID)
	for _, lost := range rejected {
		s.notifier.Notifyf(ctx, driverUserID(ctx, repos, s.logger, lost.DriverID), domain.NotificationBidRejected,
			"Bid not selected", "Another driver was selected for order %s", order.ID)
	}

	return order, nil
}

// AcknowledgeSelection confirms the acting driver takes the job they were
// selected for. The driver goes ON_JOB.
func (s *BidService) AcknowledgeSelection(ctx context.Context, actor Actor, orderID string) (*domain.Order, error) {
	var order *domain.Order
	err := withLock(ctx, s.locks, redis.OrderLockName(orderID), orderLockTTL, func() error {
		return s.store.WithinTx(ctx, func(repos repository.Repositories) error {
			driver, err := driverOf(ctx, repos, actor)
			if err != nil {
				return err
			}
			if order, err = repos.Orders.GetByIDForUpdate(ctx, orderID); err != nil {
				return err
			}
			if order.DriverID != driver.ID {
				return ErrNotAssignedDriver
			}
			if driver.Status == domain.DriverStatusOnJob {
				return ErrDriverOnJob
			}

			if err := order.TransitionTo(domain.OrderStatusDriverAcknowledged, s.now()); err != nil {
				return err
			}
			if err := repos.Orders.Update(ctx, order); err != nil {
				return err
			}
			return repos.Drivers.UpdateStatus(ctx, driver.ID, domain.DriverStatusOnJob)
		})
	})
	if err != nil {
		return nil, err
	}

	s.afterChange(ctx, order, true)
	s.notifier.Notifyf(ctx, order.CargoOwnerID, domain.NotificationDriverResponded,
		"Driver confirmed", "The selected driver confirmed order %s", order.ID)

	return order, nil
}

// DeclineSelection lets the selected driver turn the job down. Their bid is
// withdrawn and the order reopens for bidding.
func (s *BidService) DeclineSelection(ctx context.Context, actor Actor, orderID string) (*domain.Order, error) {
	var order *domain.Order
	err := withLock(ctx, s.locks, redis.OrderLockName(orderID), orderLockTTL, func() error {
		return s.store.WithinTx(ctx, func(repos repository.Repositories) error {
			driver, err := driverOf(ctx, repos, actor)
			if err != nil {
				return err
			}
			if order, err = repos.Orders.GetByIDForUpdate(ctx, orderID); err != nil {
				return err
			}
			if order.DriverID != driver.ID {
				return ErrNotAssignedDriver
			}
			if order.Status != domain.OrderStatusDriverSelected {
				return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, domain.OrderStatusOpenForBidding)
			}

			selected := order.SelectedBidID
			if err := order.TransitionTo(domain.OrderStatusOpenForBidding, s.now()); err != nil {
				return err
			}
			if err := repos.Bids.UpdateStatus(ctx, selected, domain.BidStatusWithdrawn); err != nil {
				return err
			}
			return repos.Orders.Update(ctx, order)
		})
	})
	if err != nil {
		return nil, err
	}

	s.afterChange(ctx, order, true)
	bidEvents.WithLabelValues("declined").Inc()
	s.notifier.Notifyf(ctx, order.CargoOwnerID, domain.NotificationDriverResponded,
		"Driver declined", "The selected driver declined order %s, it is open for bids again", order.ID)

	return order, nil
}

func (s *BidService) afterChange(ctx context.Context, order *domain.Order, transitioned bool) {
	s.cache.invalidate(ctx, order.ID)
	if transitioned {
		orderTransitions.WithLabelValues(string(order.Status)).Inc()
		s.logger.Info("order status changed", zap.String("order_id", order.ID), zap.String("status", string(order.Status)))
	}
}
