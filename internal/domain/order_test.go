package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderStatus_HappyPathTransitions(t *testing.T) {
	t.Parallel()

	path := []OrderStatus{
		OrderStatusDraft,
		OrderStatusOpenForBidding,
		OrderStatusBiddingInProgress,
		OrderStatusDriverSelected,
		OrderStatusDriverAcknowledged,
		OrderStatusInTransit,
		OrderStatusDelivered,
		OrderStatusCompleted,
	}

	for i := 0; i < len(path)-1; i++ {
		assert.Truef(t, path[i].CanTransitionTo(path[i+1]), "%s -> %s", path[i], path[i+1])
	}
}

func TestOrderStatus_RejectsSkipsAndBackwardMoves(t *testing.T) {
	t.Parallel()

	cases := []struct {
		from, to OrderStatus
	}{
		{OrderStatusDraft, OrderStatusBiddingInProgress},
		{OrderStatusDraft, OrderStatusCompleted},
		{OrderStatusOpenForBidding, OrderStatusDriverSelected},
		{OrderStatusDriverAcknowledged, OrderStatusDelivered},
		{OrderStatusInTransit, OrderStatusCancelled},
		{OrderStatusDelivered, OrderStatusCancelled},
		{OrderStatusCompleted, OrderStatusDraft},
		{OrderStatusCancelled, OrderStatusOpenForBidding},
	}

	for _, tc := range cases {
		assert.Falsef(t, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestOrderStatus_TerminalAndBidding(t *testing.T) {
	t.Parallel()

	assert.True(t, OrderStatusCompleted.Terminal())
	assert.True(t, OrderStatusCancelled.Terminal())
	assert.False(t, OrderStatusDelivered.Terminal())

	assert.True(t, OrderStatusOpenForBidding.AcceptsBids())
	assert.True(t, OrderStatusBiddingInProgress.AcceptsBids())
	assert.False(t, OrderStatusDriverSelected.AcceptsBids())
	assert.False(t, OrderStatusDraft.AcceptsBids())

	assert.False(t, OrderStatus("SHIPPED").Valid())
}

func TestOrder_TransitionToStampsTimes(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	order := &Order{Status: OrderStatusInTransit}

	require.NoError(t, order.TransitionTo(OrderStatusDelivered, now))
	assert.Equal(t, now, order.DeliveredAt)
	assert.Equal(t, now, order.UpdatedAt)

	later := now.Add(time.Hour)
	require.NoError(t, order.TransitionTo(OrderStatusCompleted, later))
	assert.Equal(t, later, order.CompletedAt)
}

func TestOrder_InvalidTransitionLeavesOrderUntouched(t *testing.T) {
	t.Parallel()

	order := &Order{Status: OrderStatusDraft}
	err := order.TransitionTo(OrderStatusInTransit, time.Now())

	assert.True(t, errors.Is(err, ErrInvalidTransition))
	assert.Equal(t, OrderStatusDraft, order.Status)
}

func TestOrder_SelectBidAndReopen(t *testing.T) {
	t.Parallel()

	now := time.Now()
	order := &Order{Status: OrderStatusBiddingInProgress}
	bid := &Bid{ID: "bid-1", DriverID: "driver-1", TruckID: "truck-1", Amount: decimal.NewFromInt(450)}

	require.NoError(t, order.SelectBid(bid, now))
	assert.Equal(t, OrderStatusDriverSelected, order.Status)
	assert.Equal(t, "driver-1", order.DriverID)
	assert.True(t, order.AgreedPrice.Equal(decimal.NewFromInt(450)))

	// Driver declines: the order goes back on the board without a selection.
	require.NoError(t, order.TransitionTo(OrderStatusOpenForBidding, now))
	assert.Empty(t, order.SelectedBidID)
	assert.Empty(t, order.DriverID)
	assert.True(t, order.AgreedPrice.IsZero())
}

func TestOrder_SelectBidRequiresBidding(t *testing.T) {
	t.Parallel()

	order := &Order{Status: OrderStatusOpenForBidding}
	err := order.SelectBid(&Bid{ID: "bid-1"}, time.Now())

	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Empty(t, order.SelectedBidID)
}

func TestOrder_TotalWeight(t *testing.T) {
	t.Parallel()

	order := &Order{Items: []CargoItem{
		{WeightKg: 100, Quantity: 3},
		{WeightKg: 50.5, Quantity: 2},
	}}

	assert.InDelta(t, 401.0, order.TotalWeightKg(), 0.0001)
}
