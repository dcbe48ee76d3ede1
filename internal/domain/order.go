package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalidTransition is returned when an order status change is not allowed.
var ErrInvalidTransition = errors.New("invalid order status transition")

// OrderStatus represents where an order is in its lifecycle.
type OrderStatus string

const (
	OrderStatusDraft              OrderStatus = "DRAFT"
	OrderStatusOpenForBidding     OrderStatus = "OPEN_FOR_BIDDING"
	OrderStatusBiddingInProgress  OrderStatus = "BIDDING_IN_PROGRESS"
	OrderStatusDriverSelected     OrderStatus = "DRIVER_SELECTED"
	OrderStatusDriverAcknowledged OrderStatus = "DRIVER_ACKNOWLEDGED"
	OrderStatusInTransit          OrderStatus = "IN_TRANSIT"
	OrderStatusDelivered          OrderStatus = "DELIVERED"
	OrderStatusCompleted          OrderStatus = "COMPLETED"
	OrderStatusCancelled          OrderStatus = "CANCELLED"
)

// orderTransitions lists every legal move. Anything not listed is rejected.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusDraft:              {OrderStatusOpenForBidding, OrderStatusCancelled},
	OrderStatusOpenForBidding:     {OrderStatusBiddingInProgress, OrderStatusCancelled},
	OrderStatusBiddingInProgress:  {OrderStatusDriverSelected, OrderStatusOpenForBidding, OrderStatusCancelled},
	OrderStatusDriverSelected:     {OrderStatusDriverAcknowledged, OrderStatusOpenForBidding, OrderStatusCancelled},
	OrderStatusDriverAcknowledged: {OrderStatusInTransit, OrderStatusCancelled},
	OrderStatusInTransit:          {OrderStatusDelivered},
	OrderStatusDelivered:          {OrderStatusCompleted},
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusDraft, OrderStatusOpenForBidding, OrderStatusBiddingInProgress,
		OrderStatusDriverSelected, OrderStatusDriverAcknowledged, OrderStatusInTransit,
		OrderStatusDelivered, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether moving from s to next is allowed.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// AcceptsBids reports whether drivers may place bids in this status.
func (s OrderStatus) AcceptsBids() bool {
	return s == OrderStatusOpenForBidding || s == OrderStatusBiddingInProgress
}

// Terminal reports whether no further transitions exist.
func (s OrderStatus) Terminal() bool {
	return len(orderTransitions[s]) == 0
}

// CargoItem is one line of goods carried by an order.
type CargoItem struct {
	ID          string
	OrderID     string
	Description string
	WeightKg    float64
	Quantity    int
}

// Order is a shipment posted by a cargo owner.
type Order struct {
	ID              string
	BusinessID      string
	CargoOwnerID    string
	RouteID         string
	PickupAddress   string
	DeliveryAddress string
	PickupDate      time.Time
	Status          OrderStatus
	SelectedBidID   string
	DriverID        string
	TruckID         string
	AgreedPrice     decimal.Decimal
	CancelReason    string
	Items           []CargoItem
	CreatedAt       time.Time
	UpdatedAt       time.Time
	DeliveredAt     time.Time
	CompletedAt     time.Time
	CancelledAt     time.Time
}

// TotalWeightKg returns the weight of all cargo items.
func (o *Order) TotalWeightKg() float64 {
	var total float64
	for _, item := range o.Items {
		total += item.WeightKg * float64(item.Quantity)
	}
	return total
}

// TransitionTo moves the order to next, stamping lifecycle timestamps.
func (o *Order) TransitionTo(next OrderStatus, at time.Time) error {
	if !o.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, next)
	}

	switch next {
	case OrderStatusOpenForBidding:
		// Reopening drops any previous selection.
		o.SelectedBidID = ""
		o.DriverID = ""
		o.TruckID = ""
		o.AgreedPrice = decimal.Zero
	case OrderStatusDelivered:
		o.DeliveredAt = at
	case OrderStatusCompleted:
		o.CompletedAt = at
	case OrderStatusCancelled:
		o.CancelledAt = at
	}

	o.Status = next
	o.UpdatedAt = at
	return nil
}

// SelectBid records the winning bid and moves the order to DRIVER_SELECTED.
func (o *Order) SelectBid(bid *Bid, at time.Time) error {
	if err := o.TransitionTo(OrderStatusDriverSelected, at); err != nil {
		return err
	}
	o.SelectedBidID = bid.ID
	o.DriverID = bid.DriverID
	o.TruckID = bid.TruckID
	o.AgreedPrice = bid.Amount
	return nil
}
