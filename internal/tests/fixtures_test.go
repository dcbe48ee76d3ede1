package tests

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"cargo/internal/domain"
	"cargo/internal/service"
)

// ──────────────────────────────────────────────
// FIXTURES
// ──────────────────────────────────────────────

// Wednesday 5 June 2024, 10:00 UTC.
var wednesday = time.Date(2024, 6, 5, 10, 0, 0, 0, time.UTC)

// testClock is a settable clock shared by every service of an env.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// env wires real services over in-memory mocks.
type env struct {
	store    *MockStore
	locks    *MockLockStore
	cache    *MockOrderCache
	psp      *MockPSP
	provider *MockPayoutProvider
	clock    *testClock

	notifier *service.NotificationService
	payments *service.PaymentService
	wallets  *service.WalletService
	orders   *service.OrderService
	bids     *service.BidService
	payouts  *service.PayoutService
}

var (
	ownerActor = service.Actor{UserID: "owner-1", Role: domain.RoleCargoOwner, BusinessID: "biz-1"}
	adminActor = service.Actor{UserID: "admin-1", Role: domain.RoleAdmin}
)

func driverActor(n string) service.Actor {
	return service.Actor{UserID: "duser-" + n, Role: domain.RoleDriver}
}

func newEnv(t *testing.T) *env {
	t.Helper()

	logger := zap.NewNop()
	e := &env{
		store:    NewMockStore(),
		locks:    NewMockLockStore(),
		cache:    NewMockOrderCache(),
		psp:      NewMockPSP(),
		provider: NewMockPayoutProvider(),
		clock:    &testClock{now: wednesday},
	}

	e.notifier = service.NewNotificationService(e.store.Notifications, logger)
	e.payments = service.NewPaymentService(e.store, e.psp, "usd", logger)
	e.wallets = service.NewWalletService(e.store, decimal.RequireFromString("0.10"), time.UTC).WithClock(e.clock.Now)
	e.orders = service.NewOrderService(e.store, e.locks, e.cache, e.payments, e.wallets, e.notifier, logger).WithClock(e.clock.Now)
	e.bids = service.NewBidService(e.store, e.locks, e.cache, e.notifier, logger).WithClock(e.clock.Now)
	e.payouts = service.NewPayoutService(e.store, e.locks, e.provider, e.notifier, logger)

	e.seed()
	return e
}

func (e *env) seed() {
	e.store.Users.AddUser(&domain.User{ID: "admin-1", Email: "admin@example.com", Role: domain.RoleAdmin})
	e.store.Users.AddUser(&domain.User{ID: "owner-1", Email: "owner@example.com", Role: domain.RoleCargoOwner, BusinessID: "biz-1"})
	e.store.Businesses.AddBusiness(&domain.Business{ID: "biz-1", Name: "Acme Freight", RegistrationNumber: "REG-1", Status: domain.BusinessStatusApproved})
	e.store.Routes.AddRoute(&domain.Route{ID: "route-1", Origin: "Lagos", Destination: "Abuja", DistanceKm: 760, BasePrice: decimal.NewFromInt(800), Active: true})

	for _, d := range []struct {
		n        string
		capacity float64
	}{{"1", 10000}, {"2", 10000}, {"3", 500}} {
		e.store.Users.AddUser(&domain.User{ID: "duser-" + d.n, Email: "driver" + d.n + "@example.com", Role: domain.RoleDriver})
		e.store.Drivers.AddDriver(&domain.Driver{ID: "driver-" + d.n, UserID: "duser-" + d.n, LicenseNumber: "LIC-" + d.n, Status: domain.DriverStatusAvailable})
		e.store.Wallets.AddWallet(&domain.Wallet{ID: "wallet-" + d.n, DriverID: "driver-" + d.n, Balance: decimal.Zero})
		e.store.Trucks.AddTruck(&domain.Truck{ID: "truck-" + d.n, OwnerID: "duser-" + d.n, DriverID: "driver-" + d.n, PlateNumber: "PLT-" + d.n, CapacityKg: d.capacity, Status: domain.TruckStatusActive})
	}
}

// publishedOrder creates and publishes a 1000 kg order.
func (e *env) publishedOrder(t *testing.T) *domain.Order {
	t.Helper()
	ctx := context.Background()

	order, err := e.orders.CreateOrder(ctx, ownerActor, service.CreateOrderRequest{
		RouteID:         "route-1",
		PickupAddress:   "12 Wharf Rd, Lagos",
		DeliveryAddress: "3 Garki St, Abuja",
		PickupDate:      wednesday.AddDate(0, 0, 2),
		Items:           []service.CargoItemInput{{Description: "Pallets", WeightKg: 500, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	order, err = e.orders.PublishOrder(ctx, ownerActor, order.ID)
	if err != nil {
		t.Fatalf("publish order: %v", err)
	}
	return order
}

// bid submits a bid from driver n with their truck.
func (e *env) bid(t *testing.T, orderID, n, amount string) *domain.Bid {
	t.Helper()
	bid, err := e.bids.SubmitBid(context.Background(), driverActor(n), service.SubmitBidRequest{
		OrderID: orderID,
		TruckID: "truck-" + n,
		Amount:  decimal.RequireFromString(amount),
	})
	if err != nil {
		t.Fatalf("submit bid for driver %s: %v", n, err)
	}
	return bid
}

// deliveredOrder runs an order up to DELIVERED with driver 1 at amount.
func (e *env) deliveredOrder(t *testing.T, amount string) *domain.Order {
	t.Helper()
	ctx := context.Background()

	order := e.publishedOrder(t)
	bid := e.bid(t, order.ID, "1", amount)

	steps := []func() (*domain.Order, error){
		func() (*domain.Order, error) { return e.bids.AcceptBid(ctx, ownerActor, order.ID, bid.ID) },
		func() (*domain.Order, error) { return e.bids.AcknowledgeSelection(ctx, driverActor("1"), order.ID) },
		func() (*domain.Order, error) { return e.orders.StartTransit(ctx, driverActor("1"), order.ID) },
		func() (*domain.Order, error) { return e.orders.MarkDelivered(ctx, driverActor("1"), order.ID) },
	}
	for i, step := range steps {
		var err error
		if order, err = step(); err != nil {
			t.Fatalf("lifecycle step %d: %v", i+1, err)
		}
	}
	return order
}

// completedOrder runs an order through completion.
func (e *env) completedOrder(t *testing.T, amount string) *domain.Order {
	t.Helper()
	order := e.deliveredOrder(t, amount)
	order, _, err := e.orders.CompleteOrder(context.Background(), ownerActor, order.ID)
	if err != nil {
		t.Fatalf("complete order: %v", err)
	}
	return order
}
