package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"cargo/internal/domain"
	"cargo/internal/service"
)

// ──────────────────────────────────────────────
// 1. ORDER LIFECYCLE
// ──────────────────────────────────────────────

func TestOrder_FullLifecycleCreditsDriver(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()

	order := e.deliveredOrder(t, "1000")
	if order.Status != domain.OrderStatusDelivered {
		t.Fatalf("expected %s, got %s", domain.OrderStatusDelivered, order.Status)
	}
	if e.store.Drivers.GetDriver("driver-1").Status != domain.DriverStatusOnJob {
		t.Error("driver should be ON_JOB while the order is under way")
	}

	order, payment, err := e.orders.CompleteOrder(ctx, ownerActor, order.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.Status != domain.OrderStatusCompleted {
		t.Errorf("expected %s, got %s", domain.OrderStatusCompleted, order.Status)
	}
	if payment.Status != domain.PaymentStatusSuccess {
		t.Errorf("expected payment %s, got %s", domain.PaymentStatusSuccess, payment.Status)
	}
	if !payment.Amount.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("expected payment of 1000, got %s", payment.Amount)
	}

	wallet := e.store.Wallets.GetWalletByDriver("driver-1")
	if !wallet.Balance.Equal(decimal.NewFromInt(900)) {
		t.Errorf("expected balance 900 after 10%% commission, got %s", wallet.Balance)
	}

	txns := e.store.Wallets.Transactions(wallet.ID)
	if len(txns) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(txns))
	}
	// Completed on a Wednesday: past the Tuesday cutoff, paid the Friday after next.
	wantPayable := time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC)
	if !txns[0].AvailableOn.Equal(wantPayable) {
		t.Errorf("expected credit payable on %s, got %s", wantPayable.Format("2006-01-02"), txns[0].AvailableOn.Format("2006-01-02"))
	}
	if txns[0].OrderID != order.ID || txns[0].Type != domain.TransactionCredit {
		t.Errorf("unexpected credit %+v", txns[0])
	}

	if e.store.Drivers.GetDriver("driver-1").Status != domain.DriverStatusAvailable {
		t.Error("driver should be AVAILABLE after completion")
	}
	if n := e.store.Notifications.CountFor("duser-1", domain.NotificationWalletCredited); n != 1 {
		t.Errorf("expected 1 wallet credited notification, got %d", n)
	}
}

func TestOrder_CompleteTwiceIsRejected(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	order := e.completedOrder(t, "1000")

	_, _, err := e.orders.CompleteOrder(context.Background(), ownerActor, order.ID)
	if !errors.Is(err, service.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
	if got := e.psp.ChargeCallCount; got != 1 {
		t.Errorf("expected a single charge, got %d", got)
	}
	wallet := e.store.Wallets.GetWalletByDriver("driver-1")
	if len(e.store.Wallets.Transactions(wallet.ID)) != 1 {
		t.Error("driver must be credited once")
	}
}

func TestOrder_CreateValidatesInput(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()

	base := service.CreateOrderRequest{
		RouteID:         "route-1",
		PickupAddress:   "A",
		DeliveryAddress: "B",
		Items:           []service.CargoItemInput{{Description: "Boxes", WeightKg: 10, Quantity: 1}},
	}

	tests := []struct {
		name   string
		actor  service.Actor
		mutate func(r *service.CreateOrderRequest)
		want   error
	}{
		{"driver cannot create", driverActor("1"), func(r *service.CreateOrderRequest) {}, service.ErrForbidden},
		{"missing address", ownerActor, func(r *service.CreateOrderRequest) { r.PickupAddress = " " }, service.ErrInvalidInput},
		{"no items", ownerActor, func(r *service.CreateOrderRequest) { r.Items = nil }, service.ErrInvalidInput},
		{"zero weight", ownerActor, func(r *service.CreateOrderRequest) {
			r.Items = []service.CargoItemInput{{Description: "Boxes", WeightKg: 0, Quantity: 1}}
		}, service.ErrInvalidInput},
		{"unknown route", ownerActor, func(r *service.CreateOrderRequest) { r.RouteID = "nope" }, service.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base
			tt.mutate(&req)
			_, err := e.orders.CreateOrder(ctx, tt.actor, req)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestOrder_InactiveRouteRejected(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.store.Routes.AddRoute(&domain.Route{ID: "route-old", Origin: "X", Destination: "Y", DistanceKm: 1, Active: false})

	_, err := e.orders.CreateOrder(context.Background(), ownerActor, service.CreateOrderRequest{
		RouteID:         "route-old",
		PickupAddress:   "A",
		DeliveryAddress: "B",
		Items:           []service.CargoItemInput{{Description: "Boxes", WeightKg: 10, Quantity: 1}},
	})
	if !errors.Is(err, service.ErrRouteInactive) {
		t.Errorf("expected ErrRouteInactive, got %v", err)
	}
}

func TestOrder_OnlyDraftsAreEditable(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	order := e.publishedOrder(t)

	addr := "New pickup"
	_, err := e.orders.UpdateOrder(context.Background(), ownerActor, order.ID, service.UpdateOrderRequest{PickupAddress: &addr})
	if !errors.Is(err, service.ErrOrderNotEditable) {
		t.Errorf("expected ErrOrderNotEditable, got %v", err)
	}
}

func TestOrder_UpdateDraftReplacesItems(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()

	order, err := e.orders.CreateOrder(ctx, ownerActor, service.CreateOrderRequest{
		PickupAddress:   "A",
		DeliveryAddress: "B",
		Items:           []service.CargoItemInput{{Description: "Boxes", WeightKg: 10, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	updated, err := e.orders.UpdateOrder(ctx, ownerActor, order.ID, service.UpdateOrderRequest{
		Items: []service.CargoItemInput{{Description: "Crates", WeightKg: 250, Quantity: 4}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.TotalWeightKg() != 1000 {
		t.Errorf("expected 1000 kg, got %.0f", updated.TotalWeightKg())
	}

	stored := e.store.Orders.GetOrder(order.ID)
	if len(stored.Items) != 1 || stored.Items[0].Description != "Crates" {
		t.Errorf("items not replaced: %+v", stored.Items)
	}
}

func TestOrder_PublishRequiresApprovedBusiness(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()

	e.store.Businesses.AddBusiness(&domain.Business{ID: "biz-2", Name: "Pending Co", RegistrationNumber: "REG-2", Status: domain.BusinessStatusPending})
	e.store.Users.AddUser(&domain.User{ID: "owner-2", Email: "owner2@example.com", Role: domain.RoleCargoOwner, BusinessID: "biz-2"})
	actor := service.Actor{UserID: "owner-2", Role: domain.RoleCargoOwner}

	order, err := e.orders.CreateOrder(ctx, actor, service.CreateOrderRequest{
		PickupAddress:   "A",
		DeliveryAddress: "B",
		Items:           []service.CargoItemInput{{Description: "Boxes", WeightKg: 10, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.BusinessID != "biz-2" {
		t.Errorf("business should be resolved from the user, got %q", order.BusinessID)
	}

	_, err = e.orders.PublishOrder(ctx, actor, order.ID)
	if !errors.Is(err, service.ErrBusinessNotApproved) {
		t.Errorf("expected ErrBusinessNotApproved, got %v", err)
	}
}

func TestOrder_PublishNotifiesAvailableDrivers(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.store.Drivers.GetDriver("driver-2").Status = domain.DriverStatusOffline

	e.publishedOrder(t)

	if n := e.store.Notifications.CountFor("duser-1", domain.NotificationOrderPublished); n != 1 {
		t.Errorf("available driver should be notified once, got %d", n)
	}
	if n := e.store.Notifications.CountFor("duser-2", domain.NotificationOrderPublished); n != 0 {
		t.Errorf("offline driver should not be notified, got %d", n)
	}
}

func TestOrder_TransitionsAreEnforced(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()

	order := e.publishedOrder(t)
	bid := e.bid(t, order.ID, "1", "900")
	if _, err := e.bids.AcceptBid(ctx, ownerActor, order.ID, bid.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Not yet acknowledged.
	if _, err := e.orders.StartTransit(ctx, driverActor("1"), order.ID); !errors.Is(err, service.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
	// Someone else's job.
	if _, err := e.orders.StartTransit(ctx, driverActor("2"), order.ID); !errors.Is(err, service.ErrNotAssignedDriver) {
		t.Errorf("expected ErrNotAssignedDriver, got %v", err)
	}
	// Not delivered yet.
	if _, _, err := e.orders.CompleteOrder(ctx, ownerActor, order.ID); !errors.Is(err, service.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
	if e.psp.ChargeCallCount != 0 {
		t.Error("no charge should happen before delivery")
	}
}

func TestOrder_CancelRejectsBidsAndReleasesDriver(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()

	order := e.publishedOrder(t)
	winner := e.bid(t, order.ID, "1", "900")
	loser := e.bid(t, order.ID, "2", "950")
	if _, err := e.bids.AcceptBid(ctx, ownerActor, order.ID, winner.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := e.bids.AcknowledgeSelection(ctx, driverActor("1"), order.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cancelled, err := e.orders.CancelOrder(ctx, ownerActor, order.ID, "  changed plans ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cancelled.Status != domain.OrderStatusCancelled || cancelled.CancelReason != "changed plans" {
		t.Errorf("unexpected cancelled order %s %q", cancelled.Status, cancelled.CancelReason)
	}
	if e.store.Drivers.GetDriver("driver-1").Status != domain.DriverStatusAvailable {
		t.Error("driver on the job should be released")
	}
	if e.store.Bids.GetBid(loser.ID).Status != domain.BidStatusRejected {
		t.Error("losing bid should be rejected")
	}
	if n := e.store.Notifications.CountFor("duser-1", domain.NotificationOrderCancelled); n != 1 {
		t.Errorf("assigned driver should hear about the cancellation, got %d", n)
	}
	if e.locks.IsLocked("order:" + order.ID) {
		t.Error("order lock should be released")
	}
}

func TestOrder_CannotCancelAfterPickup(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()

	order := e.deliveredOrder(t, "1000")
	if _, err := e.orders.CancelOrder(ctx, adminActor, order.ID, ""); !errors.Is(err, service.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestOrder_CancelByStrangerForbidden(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	order := e.publishedOrder(t)

	stranger := service.Actor{UserID: "owner-x", Role: domain.RoleCargoOwner, BusinessID: "biz-x"}
	if _, err := e.orders.CancelOrder(context.Background(), stranger, order.ID, ""); !errors.Is(err, service.ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
}

func TestOrder_CancelWhileLockedIsBusy(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	order := e.publishedOrder(t)
	e.locks.Hold("order:" + order.ID)

	if _, err := e.orders.CancelOrder(context.Background(), ownerActor, order.ID, ""); !errors.Is(err, service.ErrResourceBusy) {
		t.Errorf("expected ErrResourceBusy, got %v", err)
	}
	if e.store.Orders.GetOrder(order.ID).Status == domain.OrderStatusCancelled {
		t.Error("order must not change without the lock")
	}
}

// ──────────────────────────────────────────────
// 2. ORDER VISIBILITY
// ──────────────────────────────────────────────

func TestOrder_GetUsesCacheAndChecksAccess(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()

	order, err := e.orders.CreateOrder(ctx, ownerActor, service.CreateOrderRequest{
		PickupAddress:   "A",
		DeliveryAddress: "B",
		Items:           []service.CargoItemInput{{Description: "Boxes", WeightKg: 10, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := e.orders.GetOrder(ctx, ownerActor, order.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !e.cache.Cached(order.ID) {
		t.Error("order should be cached after a read")
	}
	if _, err := e.orders.GetOrder(ctx, ownerActor, order.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.cache.HitCount == 0 {
		t.Error("second read should hit the cache")
	}

	// Drafts are invisible to drivers.
	if _, err := e.orders.GetOrder(ctx, driverActor("1"), order.ID); !errors.Is(err, service.ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}

	if _, err := e.orders.PublishOrder(ctx, ownerActor, order.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.cache.Cached(order.ID) {
		t.Error("publishing should invalidate the cached order")
	}
	got, err := e.orders.GetOrder(ctx, driverActor("1"), order.ID)
	if err != nil {
		t.Fatalf("drivers should see open orders: %v", err)
	}
	if got.Status != domain.OrderStatusOpenForBidding {
		t.Errorf("expected fresh status, got %s", got.Status)
	}
}

func TestOrder_DriverListMergesAssignedAndMarket(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()

	assigned := e.publishedOrder(t)
	bid := e.bid(t, assigned.ID, "1", "900")
	if _, err := e.bids.AcceptBid(ctx, ownerActor, assigned.ID, bid.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	open := e.publishedOrder(t)

	mine, err := e.orders.ListOrders(ctx, driverActor("1"), service.ListOrdersRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("driver 1 should see the assigned and the open order, got %d", len(mine))
	}

	others, err := e.orders.ListOrders(ctx, driverActor("2"), service.ListOrdersRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(others) != 1 || others[0].ID != open.ID {
		t.Errorf("driver 2 should only see the open order, got %d", len(others))
	}

	if _, err := e.orders.ListOrders(ctx, service.Actor{UserID: "t-1", Role: domain.RoleTruckOwner}, service.ListOrdersRequest{}); !errors.Is(err, service.ErrForbidden) {
		t.Errorf("truck owners cannot list orders, got %v", err)
	}
	if _, err := e.orders.ListOrders(ctx, ownerActor, service.ListOrdersRequest{Status: "BOGUS"}); !errors.Is(err, service.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for unknown status, got %v", err)
	}
}

func TestOrder_DriverListPagesPastFirstPage(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()

	assigned := e.publishedOrder(t)
	bid := e.bid(t, assigned.ID, "1", "900")
	if _, err := e.bids.AcceptBid(ctx, ownerActor, assigned.ID, bid.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 1; i <= 4; i++ {
		e.clock.Set(wednesday.Add(time.Duration(i) * time.Minute))
		e.publishedOrder(t)
	}

	seen := map[string]bool{}
	for offset := 0; offset < 6; offset += 2 {
		page, err := e.orders.ListOrders(ctx, driverActor("1"), service.ListOrdersRequest{Limit: 2, Offset: offset})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, order := range page {
			if seen[order.ID] {
				t.Errorf("order %s returned on two pages", order.ID)
			}
			seen[order.ID] = true
		}
	}

	if len(seen) != 5 {
		t.Errorf("expected 5 orders across pages, got %d", len(seen))
	}
	if !seen[assigned.ID] {
		t.Error("assigned order missing from the pages")
	}
}
