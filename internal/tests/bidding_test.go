package tests

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"cargo/internal/domain"
	"cargo/internal/service"
)

// ──────────────────────────────────────────────
// 3. BIDDING
// ──────────────────────────────────────────────

func TestBid_FirstBidStartsBidding(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	order := e.publishedOrder(t)

	bid := e.bid(t, order.ID, "1", "950.555")
	if bid.Status != domain.BidStatusPending {
		t.Errorf("expected %s, got %s", domain.BidStatusPending, bid.Status)
	}
	if !bid.Amount.Equal(decimal.RequireFromString("950.56")) {
		t.Errorf("amount should be rounded to cents, got %s", bid.Amount)
	}
	if got := e.store.Orders.GetOrder(order.ID).Status; got != domain.OrderStatusBiddingInProgress {
		t.Errorf("expected %s, got %s", domain.OrderStatusBiddingInProgress, got)
	}
	if n := e.store.Notifications.CountFor("owner-1", domain.NotificationBidReceived); n != 1 {
		t.Errorf("owner should be notified of the bid, got %d", n)
	}

	// A second driver keeps the order in BIDDING_IN_PROGRESS.
	e.bid(t, order.ID, "2", "900")
	if got := e.store.Orders.GetOrder(order.ID).Status; got != domain.OrderStatusBiddingInProgress {
		t.Errorf("expected %s, got %s", domain.OrderStatusBiddingInProgress, got)
	}
}

func TestBid_SubmitRejections(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()
	order := e.publishedOrder(t)
	e.bid(t, order.ID, "1", "900")

	draft, err := e.orders.CreateOrder(ctx, ownerActor, service.CreateOrderRequest{
		PickupAddress:   "A",
		DeliveryAddress: "B",
		Items:           []service.CargoItemInput{{Description: "Boxes", WeightKg: 10, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	e.store.Trucks.AddTruck(&domain.Truck{ID: "truck-parked", OwnerID: "duser-2", DriverID: "driver-2", PlateNumber: "PLT-X", CapacityKg: 20000, Status: domain.TruckStatusInactive})

	tests := []struct {
		name  string
		actor service.Actor
		req   service.SubmitBidRequest
		want  error
	}{
		{"duplicate pending bid", driverActor("1"), service.SubmitBidRequest{OrderID: order.ID, TruckID: "truck-1", Amount: decimal.NewFromInt(800)}, service.ErrDuplicateBid},
		{"truck too small", driverActor("3"), service.SubmitBidRequest{OrderID: order.ID, TruckID: "truck-3", Amount: decimal.NewFromInt(800)}, service.ErrInsufficientCapacity},
		{"someone else's truck", driverActor("2"), service.SubmitBidRequest{OrderID: order.ID, TruckID: "truck-1", Amount: decimal.NewFromInt(800)}, service.ErrTruckUnavailable},
		{"inactive truck", driverActor("2"), service.SubmitBidRequest{OrderID: order.ID, TruckID: "truck-parked", Amount: decimal.NewFromInt(800)}, service.ErrTruckUnavailable},
		{"draft order", driverActor("2"), service.SubmitBidRequest{OrderID: draft.ID, TruckID: "truck-2", Amount: decimal.NewFromInt(800)}, service.ErrOrderNotAcceptingBids},
		{"zero amount", driverActor("2"), service.SubmitBidRequest{OrderID: order.ID, TruckID: "truck-2", Amount: decimal.Zero}, service.ErrInvalidAmount},
		{"not a driver", ownerActor, service.SubmitBidRequest{OrderID: order.ID, TruckID: "truck-2", Amount: decimal.NewFromInt(800)}, service.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.bids.SubmitBid(ctx, tt.actor, tt.req)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestBid_DriverWithoutProfile(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	order := e.publishedOrder(t)
	e.store.Users.AddUser(&domain.User{ID: "duser-new", Email: "new@example.com", Role: domain.RoleDriver})

	_, err := e.bids.SubmitBid(context.Background(), service.Actor{UserID: "duser-new", Role: domain.RoleDriver}, service.SubmitBidRequest{
		OrderID: order.ID, TruckID: "truck-1", Amount: decimal.NewFromInt(800),
	})
	if !errors.Is(err, service.ErrDriverProfileRequired) {
		t.Errorf("expected ErrDriverProfileRequired, got %v", err)
	}
}

func TestBid_SubmitWhileLockedIsBusy(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	order := e.publishedOrder(t)
	e.locks.Hold("order:" + order.ID)

	_, err := e.bids.SubmitBid(context.Background(), driverActor("1"), service.SubmitBidRequest{
		OrderID: order.ID, TruckID: "truck-1", Amount: decimal.NewFromInt(800),
	})
	if !errors.Is(err, service.ErrResourceBusy) {
		t.Errorf("expected ErrResourceBusy, got %v", err)
	}
}

func TestBid_WithdrawLastBidReopensOrder(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()
	order := e.publishedOrder(t)
	first := e.bid(t, order.ID, "1", "900")
	second := e.bid(t, order.ID, "2", "950")

	if _, err := e.bids.WithdrawBid(ctx, driverActor("2"), first.ID); !errors.Is(err, service.ErrForbidden) {
		t.Errorf("drivers cannot withdraw others' bids, got %v", err)
	}

	if _, err := e.bids.WithdrawBid(ctx, driverActor("1"), first.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := e.store.Orders.GetOrder(order.ID).Status; got != domain.OrderStatusBiddingInProgress {
		t.Errorf("order with a pending bid left should stay in bidding, got %s", got)
	}

	withdrawn, err := e.bids.WithdrawBid(ctx, driverActor("2"), second.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if withdrawn.Status != domain.BidStatusWithdrawn {
		t.Errorf("expected %s, got %s", domain.BidStatusWithdrawn, withdrawn.Status)
	}
	if got := e.store.Orders.GetOrder(order.ID).Status; got != domain.OrderStatusOpenForBidding {
		t.Errorf("expected %s, got %s", domain.OrderStatusOpenForBidding, got)
	}

	if _, err := e.bids.WithdrawBid(ctx, driverActor("2"), second.ID); !errors.Is(err, service.ErrBidNotPending) {
		t.Errorf("expected ErrBidNotPending, got %v", err)
	}

	// A withdrawn driver may bid again.
	e.bid(t, order.ID, "1", "880")
}

func TestBid_AcceptRejectsTheRest(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()
	order := e.publishedOrder(t)
	winner := e.bid(t, order.ID, "1", "900")
	loser := e.bid(t, order.ID, "2", "950")

	selected, err := e.bids.AcceptBid(ctx, ownerActor, order.ID, winner.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if selected.Status != domain.OrderStatusDriverSelected {
		t.Errorf("expected %s, got %s", domain.OrderStatusDriverSelected, selected.Status)
	}
	if selected.DriverID != "driver-1" || selected.TruckID != "truck-1" || !selected.AgreedPrice.Equal(decimal.NewFromInt(900)) {
		t.Errorf("selection not recorded: driver=%s truck=%s price=%s", selected.DriverID, selected.TruckID, selected.AgreedPrice)
	}
	if e.store.Bids.GetBid(winner.ID).Status != domain.BidStatusAccepted {
		t.Error("winning bid should be ACCEPTED")
	}
	if e.store.Bids.GetBid(loser.ID).Status != domain.BidStatusRejected {
		t.Error("other bids should be REJECTED")
	}
	if n := e.store.Notifications.CountFor("duser-1", domain.NotificationBidAccepted); n != 1 {
		t.Errorf("winner should be notified, got %d", n)
	}
	if n := e.store.Notifications.CountFor("duser-2", domain.NotificationBidRejected); n != 1 {
		t.Errorf("loser should be notified, got %d", n)
	}

	// No more bids once a driver is selected.
	_, err = e.bids.SubmitBid(ctx, driverActor("3"), service.SubmitBidRequest{OrderID: order.ID, TruckID: "truck-3", Amount: decimal.NewFromInt(1)})
	if !errors.Is(err, service.ErrOrderNotAcceptingBids) {
		t.Errorf("expected ErrOrderNotAcceptingBids, got %v", err)
	}
	// And no second acceptance.
	if _, err := e.bids.AcceptBid(ctx, ownerActor, order.ID, loser.ID); !errors.Is(err, service.ErrBidNotPending) {
		t.Errorf("expected ErrBidNotPending, got %v", err)
	}
}

func TestBid_AcceptChecksOwnershipAndOrder(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()
	order := e.publishedOrder(t)
	other := e.publishedOrder(t)
	bid := e.bid(t, order.ID, "1", "900")

	stranger := service.Actor{UserID: "owner-x", Role: domain.RoleCargoOwner, BusinessID: "biz-x"}
	if _, err := e.bids.AcceptBid(ctx, stranger, order.ID, bid.ID); !errors.Is(err, service.ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
	if _, err := e.bids.AcceptBid(ctx, ownerActor, other.ID, bid.ID); !errors.Is(err, service.ErrBidOrderMismatch) {
		t.Errorf("expected ErrBidOrderMismatch, got %v", err)
	}
}

func TestBid_ListScopedToViewer(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()
	order := e.publishedOrder(t)
	e.bid(t, order.ID, "1", "950")
	e.bid(t, order.ID, "2", "900")

	all, err := e.bids.ListBids(ctx, ownerActor, order.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("owner should see every bid, got %d", len(all))
	}
	if !all[0].Amount.Equal(decimal.NewFromInt(900)) {
		t.Errorf("bids should be cheapest first, got %s", all[0].Amount)
	}

	own, err := e.bids.ListBids(ctx, driverActor("1"), order.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(own) != 1 || own[0].DriverID != "driver-1" {
		t.Errorf("driver should only see their own bid, got %d", len(own))
	}
}

// ──────────────────────────────────────────────
// 4. DRIVER SELECTION RESPONSE
// ──────────────────────────────────────────────

func TestBid_AcknowledgePutsDriverOnJob(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()
	order := e.publishedOrder(t)
	bid := e.bid(t, order.ID, "1", "900")
	if _, err := e.bids.AcceptBid(ctx, ownerActor, order.ID, bid.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := e.bids.AcknowledgeSelection(ctx, driverActor("2"), order.ID); !errors.Is(err, service.ErrNotAssignedDriver) {
		t.Errorf("expected ErrNotAssignedDriver, got %v", err)
	}

	acked, err := e.bids.AcknowledgeSelection(ctx, driverActor("1"), order.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if acked.Status != domain.OrderStatusDriverAcknowledged {
		t.Errorf("expected %s, got %s", domain.OrderStatusDriverAcknowledged, acked.Status)
	}
	if e.store.Drivers.GetDriver("driver-1").Status != domain.DriverStatusOnJob {
		t.Error("driver should be ON_JOB")
	}
	if n := e.store.Notifications.CountFor("owner-1", domain.NotificationDriverResponded); n != 1 {
		t.Errorf("owner should hear the driver's answer, got %d", n)
	}
}

func TestBid_AcknowledgeRejectedWhenAlreadyOnJob(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()

	first := e.publishedOrder(t)
	second := e.publishedOrder(t)
	b1 := e.bid(t, first.ID, "1", "900")
	b2 := e.bid(t, second.ID, "1", "900")
	if _, err := e.bids.AcceptBid(ctx, ownerActor, first.ID, b1.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := e.bids.AcceptBid(ctx, ownerActor, second.ID, b2.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := e.bids.AcknowledgeSelection(ctx, driverActor("1"), first.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := e.bids.AcknowledgeSelection(ctx, driverActor("1"), second.ID); !errors.Is(err, service.ErrDriverOnJob) {
		t.Errorf("expected ErrDriverOnJob, got %v", err)
	}
}

func TestBid_DeclineReopensOrder(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()
	order := e.publishedOrder(t)
	bid := e.bid(t, order.ID, "1", "900")
	if _, err := e.bids.AcceptBid(ctx, ownerActor, order.ID, bid.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reopened, err := e.bids.DeclineSelection(ctx, driverActor("1"), order.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reopened.Status != domain.OrderStatusOpenForBidding {
		t.Errorf("expected %s, got %s", domain.OrderStatusOpenForBidding, reopened.Status)
	}
	if reopened.DriverID != "" || reopened.SelectedBidID != "" || !reopened.AgreedPrice.IsZero() {
		t.Error("selection should be cleared")
	}
	if e.store.Bids.GetBid(bid.ID).Status != domain.BidStatusWithdrawn {
		t.Error("declined bid should be WITHDRAWN")
	}

	// Declining twice is not a valid move.
	if _, err := e.bids.DeclineSelection(ctx, driverActor("1"), order.ID); !errors.Is(err, service.ErrNotAssignedDriver) {
		t.Errorf("expected ErrNotAssignedDriver, got %v", err)
	}

	// The order takes new bids.
	e.bid(t, order.ID, "2", "990")
	if got := e.store.Orders.GetOrder(order.ID).Status; got != domain.OrderStatusBiddingInProgress {
		t.Errorf("expected %s, got %s", domain.OrderStatusBiddingInProgress, got)
	}
}

func TestBid_DeclineAfterAcknowledgeIsInvalid(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()
	order := e.publishedOrder(t)
	bid := e.bid(t, order.ID, "1", "900")
	if _, err := e.bids.AcceptBid(ctx, ownerActor, order.ID, bid.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := e.bids.AcknowledgeSelection(ctx, driverActor("1"), order.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := e.bids.DeclineSelection(ctx, driverActor("1"), order.ID); !errors.Is(err, service.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}
