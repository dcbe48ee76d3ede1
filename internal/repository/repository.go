package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"cargo/internal/domain"
)

// UserRepository defines the persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetAll(ctx context.Context, role domain.Role) ([]*domain.User, error)
	SetBusiness(ctx context.Context, userID, businessID string) error
}

// BusinessRepository defines the persistence operations for businesses.
type BusinessRepository interface {
	Create(ctx context.Context, business *domain.Business) error
	GetByID(ctx context.Context, id string) (*domain.Business, error)
	// GetAll lists businesses; an empty status means all.
	GetAll(ctx context.Context, status domain.BusinessStatus) ([]*domain.Business, error)
	UpdateStatus(ctx context.Context, id string, status domain.BusinessStatus) error
}

// DriverRepository defines the persistence operations for driver profiles.
type DriverRepository interface {
	Create(ctx context.Context, driver *domain.Driver) error
	GetByID(ctx context.Context, id string) (*domain.Driver, error)
	GetByUserID(ctx context.Context, userID string) (*domain.Driver, error)
	// GetAll lists drivers; an empty truckOwnerID means all.
	GetAll(ctx context.Context, truckOwnerID string) ([]*domain.Driver, error)
	UpdateStatus(ctx context.Context, id string, status domain.DriverStatus) error
}

// TruckRepository defines the persistence operations for trucks.
type TruckRepository interface {
	Create(ctx context.Context, truck *domain.Truck) error
	GetByID(ctx context.Context, id string) (*domain.Truck, error)
	GetAll(ctx context.Context, filter TruckFilter) ([]*domain.Truck, error)
	Update(ctx context.Context, truck *domain.Truck) error
}

// TruckFilter narrows truck listings. Zero fields are ignored.
type TruckFilter struct {
	OwnerID  string
	DriverID string
}

// RouteRepository defines the persistence operations for routes.
type RouteRepository interface {
	Create(ctx context.Context, route *domain.Route) error
	GetByID(ctx context.Context, id string) (*domain.Route, error)
	GetAll(ctx context.Context, activeOnly bool) ([]*domain.Route, error)
	Update(ctx context.Context, route *domain.Route) error
}

// OrderFilter narrows order listings. Zero fields are ignored.
type OrderFilter struct {
	BusinessID string
	DriverID   string
	Statuses   []domain.OrderStatus
	// OpenStatuses adds every order in these statuses to the match,
	// whoever it is assigned to.
	OpenStatuses []domain.OrderStatus
	Limit        int
	Offset       int
}

// OrderRepository defines the persistence operations for orders and their cargo items.
type OrderRepository interface {
	// Create persists the order together with its cargo items.
	Create(ctx context.Context, order *domain.Order) error

	// GetByID retrieves an order with its cargo items.
	GetByID(ctx context.Context, id string) (*domain.Order, error)

	// GetByIDForUpdate is GetByID that also locks the order row until the
	// surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id string) (*domain.Order, error)

	// GetAll lists orders without cargo items.
	GetAll(ctx context.Context, filter OrderFilter) ([]*domain.Order, error)

	// Update writes the order columns only.
	Update(ctx context.Context, order *domain.Order) error

	// ReplaceItems swaps the cargo items of an order.
	ReplaceItems(ctx context.Context, orderID string, items []domain.CargoItem) error
}

// BidRepository defines the persistence operations for bids.
type BidRepository interface {
	Create(ctx context.Context, bid *domain.Bid) error
	GetByID(ctx context.Context, id string) (*domain.Bid, error)
	GetByOrderID(ctx context.Context, orderID string) ([]*domain.Bid, error)
	// GetPendingByOrderAndDriver returns nil when the driver has no pending bid.
	GetPendingByOrderAndDriver(ctx context.Context, orderID, driverID string) (*domain.Bid, error)
	CountPending(ctx context.Context, orderID string) (int, error)
	UpdateStatus(ctx context.Context, id string, status domain.BidStatus) error
	// RejectPending rejects every pending bid on the order except keepID and
	// returns the rejected bids.
	RejectPending(ctx context.Context, orderID, keepID string) ([]*domain.Bid, error)
}

// WalletRepository defines the persistence operations for wallets and
// their transactions.
type WalletRepository interface {
	Create(ctx context.Context, wallet *domain.Wallet) error
	GetByID(ctx context.Context, id string) (*domain.Wallet, error)
	GetByDriverID(ctx context.Context, driverID string) (*domain.Wallet, error)
	// AdjustBalance adds delta (negative for debits) to the wallet balance.
	AdjustBalance(ctx context.Context, walletID string, delta decimal.Decimal) error

	CreateTransaction(ctx context.Context, txn *domain.Transaction) error
	GetTransactions(ctx context.Context, walletID string, limit, offset int) ([]*domain.Transaction, error)
	// GetUnsettledCredits returns unsettled credits of a wallet.
	GetUnsettledCredits(ctx context.Context, walletID string) ([]*domain.Transaction, error)
	// GetPayableCredits returns unsettled credits of all wallets due on or before date.
	GetPayableCredits(ctx context.Context, date time.Time) ([]*domain.Transaction, error)
	SettleTransactions(ctx context.Context, ids []string, payoutID string) error
}

// PayoutRepository defines the persistence operations for payout batches and payouts.
type PayoutRepository interface {
	CreateBatch(ctx context.Context, batch *domain.PayoutBatch) error
	GetBatchByID(ctx context.Context, id string) (*domain.PayoutBatch, error)
	// GetBatchByRunDate returns nil when no batch ran on that date.
	GetBatchByRunDate(ctx context.Context, runDate time.Time) (*domain.PayoutBatch, error)
	GetBatches(ctx context.Context, limit int) ([]*domain.PayoutBatch, error)
	UpdateBatchTotals(ctx context.Context, batch *domain.PayoutBatch) error

	Create(ctx context.Context, payout *domain.Payout) error
	GetByBatchID(ctx context.Context, batchID string) ([]*domain.Payout, error)
	GetByDriverID(ctx context.Context, driverID string) ([]*domain.Payout, error)
	UpdateStatus(ctx context.Context, id string, status domain.PayoutStatus, reference string) error
}

// PaymentRepository defines the persistence operations for payments.
type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) error
	GetByID(ctx context.Context, id string) (*domain.Payment, error)
	// GetByIdempotencyKey returns nil if no payment exists with the given key.
	GetByIdempotencyKey(ctx context.Context, key string) (*domain.Payment, error)
	GetByOrderID(ctx context.Context, orderID string) (*domain.Payment, error)
	UpdateStatus(ctx context.Context, id string, status domain.PaymentStatus, reference string) error
}

// NotificationRepository defines the persistence operations for notifications.
type NotificationRepository interface {
	Create(ctx context.Context, notification *domain.Notification) error
	GetByUserID(ctx context.Context, userID string, unreadOnly bool) ([]*domain.Notification, error)
	MarkRead(ctx context.Context, id, userID string) error
}

// Repositories bundles every repository bound to one connection or transaction.
type Repositories struct {
	Users         UserRepository
	Businesses    BusinessRepository
	Drivers       DriverRepository
	Trucks        TruckRepository
	Routes        RouteRepository
	Orders        OrderRepository
	Bids          BidRepository
	Wallets       WalletRepository
	Payouts       PayoutRepository
	Payments      PaymentRepository
	Notifications NotificationRepository
}

// Transactor runs fn inside a database transaction. The transaction is
// committed when fn returns nil and rolled back otherwise.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(repos Repositories) error) error
}

// Store gives services repositories bound to the pool and transactions.
type Store interface {
	Transactor
	Repositories() Repositories
}
