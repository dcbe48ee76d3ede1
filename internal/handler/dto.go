package handler

import (
	"time"

	"cargo/internal/domain"
)

const timeLayout = "2006-01-02T15:04:05Z07:00"
const dateLayout = "2006-01-02"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(timeLayout)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone,omitempty"`
	Role       string `json:"role"`
	BusinessID string `json:"business_id,omitempty"`
	CreatedAt  string `json:"created_at"`
}

func newUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Phone:      u.Phone,
		Role:       string(u.Role),
		BusinessID: u.BusinessID,
		CreatedAt:  formatTime(u.CreatedAt),
	}
}

// BusinessResponse is the public view of a business.
type BusinessResponse struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	RegistrationNumber string `json:"registration_number"`
	Address            string `json:"address,omitempty"`
	ContactEmail       string `json:"contact_email,omitempty"`
	Status             string `json:"status"`
	CreatedAt          string `json:"created_at"`
}

func newBusinessResponse(b *domain.Business) BusinessResponse {
	return BusinessResponse{
		ID:                 b.ID,
		Name:               b.Name,
		RegistrationNumber: b.RegistrationNumber,
		Address:            b.Address,
		ContactEmail:       b.ContactEmail,
		Status:             string(b.Status),
		CreatedAt:          formatTime(b.CreatedAt),
	}
}

// DriverResponse is the public view of a driver profile.
type DriverResponse struct {
	ID            string `json:"id"`
	UserID        string `json:"user_id"`
	TruckOwnerID  string `json:"truck_owner_id,omitempty"`
	LicenseNumber string `json:"license_number"`
	Status        string `json:"status"`
	CreatedAt     string `json:"created_at"`
}

func newDriverResponse(d *domain.Driver) DriverResponse {
	return DriverResponse{
		ID:            d.ID,
		UserID:        d.UserID,
		TruckOwnerID:  d.TruckOwnerID,
		LicenseNumber: d.LicenseNumber,
		Status:        string(d.Status),
		CreatedAt:     formatTime(d.CreatedAt),
	}
}

// TruckResponse is the public view of a truck.
type TruckResponse struct {
	ID          string  `json:"id"`
	OwnerID     string  `json:"owner_id"`
	DriverID    string  `json:"driver_id,omitempty"`
	PlateNumber string  `json:"plate_number"`
	TruckType   string  `json:"truck_type,omitempty"`
	CapacityKg  float64 `json:"capacity_kg"`
	Status      string  `json:"status"`
	CreatedAt   string  `json:"created_at"`
}

func newTruckResponse(t *domain.Truck) TruckResponse {
	return TruckResponse{
		ID:          t.ID,
		OwnerID:     t.OwnerID,
		DriverID:    t.DriverID,
		PlateNumber: t.PlateNumber,
		TruckType:   t.TruckType,
		CapacityKg:  t.CapacityKg,
		Status:      string(t.Status),
		CreatedAt:   formatTime(t.CreatedAt),
	}
}

// RouteResponse is the public view of a route.
type RouteResponse struct {
	ID          string  `json:"id"`
	Origin      string  `json:"origin"`
	Destination string  `json:"destination"`
	DistanceKm  float64 `json:"distance_km"`
	BasePrice   string  `json:"base_price"`
	Active      bool    `json:"active"`
	CreatedAt   string  `json:"created_at"`
}

func newRouteResponse(r *domain.Route) RouteResponse {
	return RouteResponse{
		ID:          r.ID,
		Origin:      r.Origin,
		Destination: r.Destination,
		DistanceKm:  r.DistanceKm,
		BasePrice:   r.BasePrice.StringFixed(2),
		Active:      r.Active,
		CreatedAt:   formatTime(r.CreatedAt),
	}
}

// CargoItemResponse is one line of an order.
type CargoItemResponse struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	WeightKg    float64 `json:"weight_kg"`
	Quantity    int     `json:"quantity"`
}

// OrderResponse is the public view of an order.
type OrderResponse struct {
	ID              string              `json:"id"`
	BusinessID      string              `json:"business_id"`
	CargoOwnerID    string              `json:"cargo_owner_id"`
	RouteID         string              `json:"route_id,omitempty"`
	PickupAddress   string              `json:"pickup_address"`
	DeliveryAddress string              `json:"delivery_address"`
	PickupDate      string              `json:"pickup_date,omitempty"`
	Status          string              `json:"status"`
	SelectedBidID   string              `json:"selected_bid_id,omitempty"`
	DriverID        string              `json:"driver_id,omitempty"`
	TruckID         string              `json:"truck_id,omitempty"`
	AgreedPrice     string              `json:"agreed_price,omitempty"`
	CancelReason    string              `json:"cancel_reason,omitempty"`
	TotalWeightKg   float64             `json:"total_weight_kg"`
	Items           []CargoItemResponse `json:"items,omitempty"`
	CreatedAt       string              `json:"created_at"`
	UpdatedAt       string              `json:"updated_at"`
	DeliveredAt     string              `json:"delivered_at,omitempty"`
	CompletedAt     string              `json:"completed_at,omitempty"`
	CancelledAt     string              `json:"cancelled_at,omitempty"`
}

func newOrderResponse(o *domain.Order) OrderResponse {
	resp := OrderResponse{
		ID:              o.ID,
		BusinessID:      o.BusinessID,
		CargoOwnerID:    o.CargoOwnerID,
		RouteID:         o.RouteID,
		PickupAddress:   o.PickupAddress,
		DeliveryAddress: o.DeliveryAddress,
		PickupDate:      formatTime(o.PickupDate),
		Status:          string(o.Status),
		SelectedBidID:   o.SelectedBidID,
		DriverID:        o.DriverID,
		TruckID:         o.TruckID,
		CancelReason:    o.CancelReason,
		TotalWeightKg:   o.TotalWeightKg(),
		CreatedAt:       formatTime(o.CreatedAt),
		UpdatedAt:       formatTime(o.UpdatedAt),
		DeliveredAt:     formatTime(o.DeliveredAt),
		CompletedAt:     formatTime(o.CompletedAt),
		CancelledAt:     formatTime(o.CancelledAt),
	}
	if o.AgreedPrice.IsPositive() {
		resp.AgreedPrice = o.AgreedPrice.StringFixed(2)
	}
	for _, item := range o.Items {
		resp.Items = append(resp.Items, CargoItemResponse{
			ID:          item.ID,
			Description: item.Description,
			WeightKg:    item.WeightKg,
			Quantity:    item.Quantity,
		})
	}
	return resp
}

// BidResponse is the public view of a bid.
type BidResponse struct {
	ID        string `json:"id"`
	OrderID   string `json:"order_id"`
	DriverID  string `json:"driver_id"`
	TruckID   string `json:"truck_id"`
	Amount    string `json:"amount"`
	Note      string `json:"note,omitempty"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func newBidResponse(b *domain.Bid) BidResponse {
	return BidResponse{
		ID:        b.ID,
		OrderID:   b.OrderID,
		DriverID:  b.DriverID,
		TruckID:   b.TruckID,
		Amount:    b.Amount.StringFixed(2),
		Note:      b.Note,
		Status:    string(b.Status),
		CreatedAt: formatTime(b.CreatedAt),
		UpdatedAt: formatTime(b.UpdatedAt),
	}
}

// WalletResponse is a wallet with its withdrawal buckets.
type WalletResponse struct {
	ID               string `json:"id"`
	DriverID         string `json:"driver_id"`
	Balance          string `json:"balance"`
	Withdrawable     string `json:"withdrawable"`
	NextPayoutDate   string `json:"next_payout_date"`
	NextPayoutAmount string `json:"next_payout_amount"`
	Pending          string `json:"pending"`
}

// TransactionResponse is the public view of a wallet transaction.
type TransactionResponse struct {
	ID          string `json:"id"`
	OrderID     string `json:"order_id,omitempty"`
	PayoutID    string `json:"payout_id,omitempty"`
	Type        string `json:"type"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	AvailableOn string `json:"available_on"`
	Settled     bool   `json:"settled"`
	CreatedAt   string `json:"created_at"`
}

func newTransactionResponse(t *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:          t.ID,
		OrderID:     t.OrderID,
		PayoutID:    t.PayoutID,
		Type:        string(t.Type),
		Amount:      t.Amount.StringFixed(2),
		Description: t.Description,
		AvailableOn: formatDate(t.AvailableOn),
		Settled:     t.Settled(),
		CreatedAt:   formatTime(t.CreatedAt),
	}
}

// PayoutBatchResponse is the public view of a payout batch.
type PayoutBatchResponse struct {
	ID          string           `json:"id"`
	RunDate     string           `json:"run_date"`
	TotalAmount string           `json:"total_amount"`
	PayoutCount int              `json:"payout_count"`
	Status      string           `json:"status"`
	CreatedAt   string           `json:"created_at"`
	Payouts     []PayoutResponse `json:"payouts,omitempty"`
}

func newPayoutBatchResponse(b *domain.PayoutBatch, payouts []*domain.Payout) PayoutBatchResponse {
	resp := PayoutBatchResponse{
		ID:          b.ID,
		RunDate:     formatDate(b.RunDate),
		TotalAmount: b.TotalAmount.StringFixed(2),
		PayoutCount: b.PayoutCount,
		Status:      string(b.Status),
		CreatedAt:   formatTime(b.CreatedAt),
	}
	for _, p := range payouts {
		resp.Payouts = append(resp.Payouts, newPayoutResponse(p))
	}
	return resp
}

// PayoutResponse is the public view of a payout.
type PayoutResponse struct {
	ID        string `json:"id"`
	BatchID   string `json:"batch_id"`
	DriverID  string `json:"driver_id"`
	Amount    string `json:"amount"`
	Status    string `json:"status"`
	Reference string `json:"reference,omitempty"`
	CreatedAt string `json:"created_at"`
}

func newPayoutResponse(p *domain.Payout) PayoutResponse {
	return PayoutResponse{
		ID:        p.ID,
		BatchID:   p.BatchID,
		DriverID:  p.DriverID,
		Amount:    p.Amount.StringFixed(2),
		Status:    string(p.Status),
		Reference: p.Reference,
		CreatedAt: formatTime(p.CreatedAt),
	}
}

// PaymentResponse is the public view of a payment.
type PaymentResponse struct {
	ID                string `json:"id"`
	OrderID           string `json:"order_id"`
	Amount            string `json:"amount"`
	Currency          string `json:"currency"`
	Status            string `json:"status"`
	ProviderReference string `json:"provider_reference,omitempty"`
	CreatedAt         string `json:"created_at"`
}

func newPaymentResponse(p *domain.Payment) PaymentResponse {
	return PaymentResponse{
		ID:                p.ID,
		OrderID:           p.OrderID,
		Amount:            p.Amount.StringFixed(2),
		Currency:          p.Currency,
		Status:            string(p.Status),
		ProviderReference: p.ProviderReference,
		CreatedAt:         formatTime(p.CreatedAt),
	}
}

// NotificationResponse is the public view of a notification.
type NotificationResponse struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Read      bool   `json:"read"`
	CreatedAt string `json:"created_at"`
}

func newNotificationResponse(n *domain.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		Type:      string(n.Type),
		Title:     n.Title,
		Message:   n.Message,
		Read:      n.Read,
		CreatedAt: formatTime(n.CreatedAt),
	}
}

func mapSlice[T, R any](items []T, fn func(T) R) []R {
	out := make([]R, 0, len(items))
	for _, item := range items {
		out = append(out, fn(item))
	}
	return out
}
