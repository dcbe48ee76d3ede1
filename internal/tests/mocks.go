package tests

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"cargo/internal/domain"
	"cargo/internal/psp"
	"cargo/internal/redis"
	"cargo/internal/repository"
)

// Ensure mocks satisfy the interfaces the services depend on.
var (
	_ repository.Store         = (*MockStore)(nil)
	_ redis.LockStoreInterface = (*MockLockStore)(nil)
	_ redis.OrderCache         = (*MockOrderCache)(nil)
	_ psp.PSP                  = (*MockPSP)(nil)
	_ psp.PayoutProvider       = (*MockPayoutProvider)(nil)
)

// ──────────────────────────────────────────────
// MOCK STORE
// ──────────────────────────────────────────────

// MockStore bundles in-memory repositories. Transactions run fn directly
// against the same repositories and do not roll back.
type MockStore struct {
	Users         *MockUserRepository
	Businesses    *MockBusinessRepository
	Drivers       *MockDriverRepository
	Trucks        *MockTruckRepository
	Routes        *MockRouteRepository
	Orders        *MockOrderRepository
	Bids          *MockBidRepository
	Wallets       *MockWalletRepository
	Payouts       *MockPayoutRepository
	Payments      *MockPaymentRepository
	Notifications *MockNotificationRepository

	// Counters for verification
	TxCallCount int32

	// Error injection
	TxError error
}

// NewMockStore creates a store with empty repositories.
func NewMockStore() *MockStore {
	return &MockStore{
		Users:         NewMockUserRepository(),
		Businesses:    NewMockBusinessRepository(),
		Drivers:       NewMockDriverRepository(),
		Trucks:        NewMockTruckRepository(),
		Routes:        NewMockRouteRepository(),
		Orders:        NewMockOrderRepository(),
		Bids:          NewMockBidRepository(),
		Wallets:       NewMockWalletRepository(),
		Payouts:       NewMockPayoutRepository(),
		Payments:      NewMockPaymentRepository(),
		Notifications: NewMockNotificationRepository(),
	}
}

func (m *MockStore) Repositories() repository.Repositories {
	return repository.Repositories{
		Users:         m.Users,
		Businesses:    m.Businesses,
		Drivers:       m.Drivers,
		Trucks:        m.Trucks,
		Routes:        m.Routes,
		Orders:        m.Orders,
		Bids:          m.Bids,
		Wallets:       m.Wallets,
		Payouts:       m.Payouts,
		Payments:      m.Payments,
		Notifications: m.Notifications,
	}
}

func (m *MockStore) WithinTx(ctx context.Context, fn func(repos repository.Repositories) error) error {
	atomic.AddInt32(&m.TxCallCount, 1)
	if m.TxError != nil {
		return m.TxError
	}
	return fn(m.Repositories())
}

// ──────────────────────────────────────────────
// MOCK USER REPOSITORY
// ──────────────────────────────────────────────

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.User

	CreateError error
}

// NewMockUserRepository creates a new mock user repository.
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{users: make(map[string]*domain.User)}
}

// AddUser adds a user to the mock repository.
func (m *MockUserRepository) AddUser(user *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return repository.ErrConflict
		}
	}
	copy := *user
	m.users[user.ID] = &copy
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *user
	return &copy, nil
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			copy := *u
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockUserRepository) GetAll(ctx context.Context, role domain.Role) ([]*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.User, 0, len(m.users))
	for _, u := range m.users {
		if role == "" || u.Role == role {
			copy := *u
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (m *MockUserRepository) SetBusiness(ctx context.Context, userID, businessID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	user.BusinessID = businessID
	return nil
}

// Count returns the number of stored users.
func (m *MockUserRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users)
}

// ──────────────────────────────────────────────
// MOCK BUSINESS REPOSITORY
// ──────────────────────────────────────────────

// MockBusinessRepository is a mock implementation of BusinessRepository.
type MockBusinessRepository struct {
	mu         sync.RWMutex
	businesses map[string]*domain.Business
}

// NewMockBusinessRepository creates a new mock business repository.
func NewMockBusinessRepository() *MockBusinessRepository {
	return &MockBusinessRepository{businesses: make(map[string]*domain.Business)}
}

// AddBusiness adds a business to the mock repository.
func (m *MockBusinessRepository) AddBusiness(business *domain.Business) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.businesses[business.ID] = business
}

func (m *MockBusinessRepository) Create(ctx context.Context, business *domain.Business) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.businesses {
		if b.RegistrationNumber == business.RegistrationNumber {
			return repository.ErrConflict
		}
	}
	copy := *business
	m.businesses[business.ID] = &copy
	return nil
}

func (m *MockBusinessRepository) GetByID(ctx context.Context, id string) (*domain.Business, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	business, ok := m.businesses[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *business
	return &copy, nil
}

func (m *MockBusinessRepository) GetAll(ctx context.Context, status domain.BusinessStatus) ([]*domain.Business, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Business, 0, len(m.businesses))
	for _, b := range m.businesses {
		if status == "" || b.Status == status {
			copy := *b
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (m *MockBusinessRepository) UpdateStatus(ctx context.Context, id string, status domain.BusinessStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	business, ok := m.businesses[id]
	if !ok {
		return repository.ErrNotFound
	}
	business.Status = status
	return nil
}

// ──────────────────────────────────────────────
// MOCK DRIVER REPOSITORY
// ──────────────────────────────────────────────

// MockDriverRepository is a mock implementation of DriverRepository.
type MockDriverRepository struct {
	mu      sync.RWMutex
	drivers map[string]*domain.Driver

	// Counters for verification
	UpdateStatusCallCount int32

	// Error injection
	CreateError       error
	UpdateStatusError error
}

// NewMockDriverRepository creates a new mock driver repository.
func NewMockDriverRepository() *MockDriverRepository {
	return &MockDriverRepository{drivers: make(map[string]*domain.Driver)}
}

// AddDriver adds a driver to the mock repository.
func (m *MockDriverRepository) AddDriver(driver *domain.Driver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers[driver.ID] = driver
}

func (m *MockDriverRepository) Create(ctx context.Context, driver *domain.Driver) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.drivers {
		if d.UserID == driver.UserID || d.LicenseNumber == driver.LicenseNumber {
			return repository.ErrConflict
		}
	}
	copy := *driver
	m.drivers[driver.ID] = &copy
	return nil
}

func (m *MockDriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	driver, ok := m.drivers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	// Return a copy to avoid mutation issues.
	copy := *driver
	return &copy, nil
}

func (m *MockDriverRepository) GetByUserID(ctx context.Context, userID string) (*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, d := range m.drivers {
		if d.UserID == userID {
			copy := *d
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockDriverRepository) GetAll(ctx context.Context, truckOwnerID string) ([]*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Driver, 0, len(m.drivers))
	for _, d := range m.drivers {
		if truckOwnerID == "" || d.TruckOwnerID == truckOwnerID {
			copy := *d
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (m *MockDriverRepository) UpdateStatus(ctx context.Context, id string, status domain.DriverStatus) error {
	atomic.AddInt32(&m.UpdateStatusCallCount, 1)
	if m.UpdateStatusError != nil {
		return m.UpdateStatusError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	driver, ok := m.drivers[id]
	if !ok {
		return repository.ErrNotFound
	}
	driver.Status = status
	return nil
}

// GetDriver returns driver for test assertions.
func (m *MockDriverRepository) GetDriver(id string) *domain.Driver {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.drivers[id]
}

// ──────────────────────────────────────────────
// MOCK TRUCK REPOSITORY
// ──────────────────────────────────────────────

// MockTruckRepository is a mock implementation of TruckRepository.
type MockTruckRepository struct {
	mu     sync.RWMutex
	trucks map[string]*domain.Truck
}

// NewMockTruckRepository creates a new mock truck repository.
func NewMockTruckRepository() *MockTruckRepository {
	return &MockTruckRepository{trucks: make(map[string]*domain.Truck)}
}

// AddTruck adds a truck to the mock repository.
func (m *MockTruckRepository) AddTruck(truck *domain.Truck) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trucks[truck.ID] = truck
}

func (m *MockTruckRepository) Create(ctx context.Context, truck *domain.Truck) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.trucks {
		if t.PlateNumber == truck.PlateNumber {
			return repository.ErrConflict
		}
	}
	copy := *truck
	m.trucks[truck.ID] = &copy
	return nil
}

func (m *MockTruckRepository) GetByID(ctx context.Context, id string) (*domain.Truck, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	truck, ok := m.trucks[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *truck
	return &copy, nil
}

func (m *MockTruckRepository) GetAll(ctx context.Context, filter repository.TruckFilter) ([]*domain.Truck, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Truck, 0, len(m.trucks))
	for _, t := range m.trucks {
		if filter.OwnerID != "" && t.OwnerID != filter.OwnerID {
			continue
		}
		if filter.DriverID != "" && t.DriverID != filter.DriverID {
			continue
		}
		copy := *t
		result = append(result, &copy)
	}
	return result, nil
}

func (m *MockTruckRepository) Update(ctx context.Context, truck *domain.Truck) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.trucks[truck.ID]; !ok {
		return repository.ErrNotFound
	}
	copy := *truck
	m.trucks[truck.ID] = &copy
	return nil
}

// ──────────────────────────────────────────────
// MOCK ROUTE REPOSITORY
// ──────────────────────────────────────────────

// MockRouteRepository is a mock implementation of RouteRepository.
type MockRouteRepository struct {
	mu     sync.RWMutex
	routes map[string]*domain.Route
}

// NewMockRouteRepository creates a new mock route repository.
func NewMockRouteRepository() *MockRouteRepository {
	return &MockRouteRepository{routes: make(map[string]*domain.Route)}
}

// AddRoute adds a route to the mock repository.
func (m *MockRouteRepository) AddRoute(route *domain.Route) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes[route.ID] = route
}

func (m *MockRouteRepository) Create(ctx context.Context, route *domain.Route) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *route
	m.routes[route.ID] = &copy
	return nil
}

func (m *MockRouteRepository) GetByID(ctx context.Context, id string) (*domain.Route, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	route, ok := m.routes[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *route
	return &copy, nil
}

func (m *MockRouteRepository) GetAll(ctx context.Context, activeOnly bool) ([]*domain.Route, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Route, 0, len(m.routes))
	for _, r := range m.routes {
		if activeOnly && !r.Active {
			continue
		}
		copy := *r
		result = append(result, &copy)
	}
	return result, nil
}

func (m *MockRouteRepository) Update(ctx context.Context, route *domain.Route) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.routes[route.ID]; !ok {
		return repository.ErrNotFound
	}
	copy := *route
	m.routes[route.ID] = &copy
	return nil
}

// ──────────────────────────────────────────────
// MOCK ORDER REPOSITORY
// ──────────────────────────────────────────────

// MockOrderRepository is a mock implementation of OrderRepository.
type MockOrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order

	// Counters for verification
	UpdateCallCount int32

	// Error injection
	UpdateError error
}

// NewMockOrderRepository creates a new mock order repository.
func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{orders: make(map[string]*domain.Order)}
}

// AddOrder adds an order to the mock repository.
func (m *MockOrderRepository) AddOrder(order *domain.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[order.ID] = order
}

func cloneOrder(o *domain.Order) *domain.Order {
	copy := *o
	copy.Items = append([]domain.CargoItem(nil), o.Items...)
	return &copy
}

func (m *MockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[order.ID]; ok {
		return repository.ErrConflict
	}
	m.orders[order.ID] = cloneOrder(order)
	return nil
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	order, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneOrder(order), nil
}

func (m *MockOrderRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Order, error) {
	return m.GetByID(ctx, id)
}

func (m *MockOrderRepository) GetAll(ctx context.Context, filter repository.OrderFilter) ([]*domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*domain.Order
	for _, o := range m.orders {
		if filter.BusinessID != "" && o.BusinessID != filter.BusinessID {
			continue
		}
		matched := (filter.DriverID == "" || o.DriverID == filter.DriverID) &&
			(len(filter.Statuses) == 0 || hasStatus(filter.Statuses, o.Status))
		if !matched && !hasStatus(filter.OpenStatuses, o.Status) {
			continue
		}
		copy := *o
		copy.Items = nil
		result = append(result, &copy)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})

	if filter.Offset >= len(result) {
		return []*domain.Order{}, nil
	}
	result = result[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}
	return result, nil
}

func hasStatus(statuses []domain.OrderStatus, status domain.OrderStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

func (m *MockOrderRepository) Update(ctx context.Context, order *domain.Order) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.orders[order.ID]
	if !ok {
		return repository.ErrNotFound
	}
	updated := cloneOrder(order)
	updated.Items = existing.Items
	m.orders[order.ID] = updated
	return nil
}

func (m *MockOrderRepository) ReplaceItems(ctx context.Context, orderID string, items []domain.CargoItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[orderID]
	if !ok {
		return repository.ErrNotFound
	}
	order.Items = append([]domain.CargoItem(nil), items...)
	return nil
}

// GetOrder returns order for test assertions.
func (m *MockOrderRepository) GetOrder(id string) *domain.Order {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.orders[id]
}

// ──────────────────────────────────────────────
// MOCK BID REPOSITORY
// ──────────────────────────────────────────────

// MockBidRepository is a mock implementation of BidRepository.
type MockBidRepository struct {
	mu   sync.RWMutex
	bids map[string]*domain.Bid
}

// NewMockBidRepository creates a new mock bid repository.
func NewMockBidRepository() *MockBidRepository {
	return &MockBidRepository{bids: make(map[string]*domain.Bid)}
}

// AddBid adds a bid to the mock repository.
func (m *MockBidRepository) AddBid(bid *domain.Bid) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bids[bid.ID] = bid
}

func (m *MockBidRepository) Create(ctx context.Context, bid *domain.Bid) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bids {
		if b.OrderID == bid.OrderID && b.DriverID == bid.DriverID && b.Status == domain.BidStatusPending {
			return repository.ErrConflict
		}
	}
	copy := *bid
	m.bids[bid.ID] = &copy
	return nil
}

func (m *MockBidRepository) GetByID(ctx context.Context, id string) (*domain.Bid, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	bid, ok := m.bids[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *bid
	return &copy, nil
}

func (m *MockBidRepository) GetByOrderID(ctx context.Context, orderID string) ([]*domain.Bid, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Bid
	for _, b := range m.bids {
		if b.OrderID == orderID {
			copy := *b
			result = append(result, &copy)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Amount.Equal(result[j].Amount) {
			return result[i].Amount.LessThan(result[j].Amount)
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (m *MockBidRepository) GetPendingByOrderAndDriver(ctx context.Context, orderID, driverID string) (*domain.Bid, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, b := range m.bids {
		if b.OrderID == orderID && b.DriverID == driverID && b.Status == domain.BidStatusPending {
			copy := *b
			return &copy, nil
		}
	}
	return nil, nil
}

func (m *MockBidRepository) CountPending(ctx context.Context, orderID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, b := range m.bids {
		if b.OrderID == orderID && b.Status == domain.BidStatusPending {
			count++
		}
	}
	return count, nil
}

func (m *MockBidRepository) UpdateStatus(ctx context.Context, id string, status domain.BidStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	bid, ok := m.bids[id]
	if !ok {
		return repository.ErrNotFound
	}
	bid.Status = status
	bid.UpdatedAt = time.Now()
	return nil
}

func (m *MockBidRepository) RejectPending(ctx context.Context, orderID, keepID string) ([]*domain.Bid, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var rejected []*domain.Bid
	for _, b := range m.bids {
		if b.OrderID == orderID && b.Status == domain.BidStatusPending && b.ID != keepID {
			b.Status = domain.BidStatusRejected
			copy := *b
			rejected = append(rejected, &copy)
		}
	}
	return rejected, nil
}

// GetBid returns bid for test assertions.
func (m *MockBidRepository) GetBid(id string) *domain.Bid {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.bids[id]
}

// ──────────────────────────────────────────────
// MOCK WALLET REPOSITORY
// ──────────────────────────────────────────────

// MockWalletRepository is a mock implementation of WalletRepository.
type MockWalletRepository struct {
	mu      sync.RWMutex
	wallets map[string]*domain.Wallet
	txns    []*domain.Transaction
}

// NewMockWalletRepository creates a new mock wallet repository.
func NewMockWalletRepository() *MockWalletRepository {
	return &MockWalletRepository{wallets: make(map[string]*domain.Wallet)}
}

// AddWallet adds a wallet to the mock repository.
func (m *MockWalletRepository) AddWallet(wallet *domain.Wallet) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wallets[wallet.ID] = wallet
}

func (m *MockWalletRepository) Create(ctx context.Context, wallet *domain.Wallet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range m.wallets {
		if w.DriverID == wallet.DriverID {
			return repository.ErrConflict
		}
	}
	copy := *wallet
	m.wallets[wallet.ID] = &copy
	return nil
}

func (m *MockWalletRepository) GetByID(ctx context.Context, id string) (*domain.Wallet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	wallet, ok := m.wallets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *wallet
	return &copy, nil
}

func (m *MockWalletRepository) GetByDriverID(ctx context.Context, driverID string) (*domain.Wallet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, w := range m.wallets {
		if w.DriverID == driverID {
			copy := *w
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockWalletRepository) AdjustBalance(ctx context.Context, walletID string, delta decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	wallet, ok := m.wallets[walletID]
	if !ok {
		return repository.ErrNotFound
	}
	wallet.Balance = wallet.Balance.Add(delta)
	return nil
}

func (m *MockWalletRepository) CreateTransaction(ctx context.Context, txn *domain.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if txn.Type == domain.TransactionCredit && txn.OrderID != "" {
		for _, t := range m.txns {
			if t.Type == domain.TransactionCredit && t.OrderID == txn.OrderID {
				return repository.ErrConflict
			}
		}
	}
	copy := *txn
	m.txns = append(m.txns, &copy)
	return nil
}

func (m *MockWalletRepository) GetTransactions(ctx context.Context, walletID string, limit, offset int) ([]*domain.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Transaction
	for i := len(m.txns) - 1; i >= 0; i-- {
		if m.txns[i].WalletID == walletID {
			copy := *m.txns[i]
			result = append(result, &copy)
		}
	}
	if offset >= len(result) {
		return []*domain.Transaction{}, nil
	}
	result = result[offset:]
	if limit > 0 && limit < len(result) {
		result = result[:limit]
	}
	return result, nil
}

func (m *MockWalletRepository) GetUnsettledCredits(ctx context.Context, walletID string) ([]*domain.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Transaction
	for _, t := range m.txns {
		if t.WalletID == walletID && t.Type == domain.TransactionCredit && !t.Settled() {
			copy := *t
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (m *MockWalletRepository) GetPayableCredits(ctx context.Context, date time.Time) ([]*domain.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cutoff := domain.CivilDate(date)
	var result []*domain.Transaction
	for _, t := range m.txns {
		if t.Type == domain.TransactionCredit && !t.Settled() && !domain.CivilDate(t.AvailableOn).After(cutoff) {
			copy := *t
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (m *MockWalletRepository) SettleTransactions(ctx context.Context, ids []string, payoutID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	settle := make(map[string]bool, len(ids))
	for _, id := range ids {
		settle[id] = true
	}
	for _, t := range m.txns {
		if settle[t.ID] {
			t.PayoutID = payoutID
		}
	}
	return nil
}

// GetWalletByDriver returns the driver's wallet for test assertions.
func (m *MockWalletRepository) GetWalletByDriver(driverID string) *domain.Wallet {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, w := range m.wallets {
		if w.DriverID == driverID {
			return w
		}
	}
	return nil
}

// Transactions returns every stored transaction of a wallet in insert order.
func (m *MockWalletRepository) Transactions(walletID string) []*domain.Transaction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Transaction
	for _, t := range m.txns {
		if t.WalletID == walletID {
			result = append(result, t)
		}
	}
	return result
}

// ──────────────────────────────────────────────
// MOCK PAYOUT REPOSITORY
// ──────────────────────────────────────────────

// MockPayoutRepository is a mock implementation of PayoutRepository.
type MockPayoutRepository struct {
	mu      sync.RWMutex
	batches map[string]*domain.PayoutBatch
	payouts []*domain.Payout

	// Error injection
	CreateBatchError error
}

// NewMockPayoutRepository creates a new mock payout repository.
func NewMockPayoutRepository() *MockPayoutRepository {
	return &MockPayoutRepository{batches: make(map[string]*domain.PayoutBatch)}
}

func (m *MockPayoutRepository) CreateBatch(ctx context.Context, batch *domain.PayoutBatch) error {
	if m.CreateBatchError != nil {
		return m.CreateBatchError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.batches {
		if b.RunDate.Equal(batch.RunDate) {
			return repository.ErrConflict
		}
	}
	copy := *batch
	m.batches[batch.ID] = &copy
	return nil
}

func (m *MockPayoutRepository) GetBatchByID(ctx context.Context, id string) (*domain.PayoutBatch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	batch, ok := m.batches[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *batch
	return &copy, nil
}

func (m *MockPayoutRepository) GetBatchByRunDate(ctx context.Context, runDate time.Time) (*domain.PayoutBatch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, b := range m.batches {
		if b.RunDate.Equal(domain.CivilDate(runDate)) {
			copy := *b
			return &copy, nil
		}
	}
	return nil, nil
}

func (m *MockPayoutRepository) GetBatches(ctx context.Context, limit int) ([]*domain.PayoutBatch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.PayoutBatch, 0, len(m.batches))
	for _, b := range m.batches {
		copy := *b
		result = append(result, &copy)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].RunDate.After(result[j].RunDate) })
	if limit > 0 && limit < len(result) {
		result = result[:limit]
	}
	return result, nil
}

func (m *MockPayoutRepository) UpdateBatchTotals(ctx context.Context, batch *domain.PayoutBatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.batches[batch.ID]
	if !ok {
		return repository.ErrNotFound
	}
	existing.TotalAmount = batch.TotalAmount
	existing.PayoutCount = batch.PayoutCount
	existing.Status = batch.Status
	return nil
}

func (m *MockPayoutRepository) Create(ctx context.Context, payout *domain.Payout) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *payout
	m.payouts = append(m.payouts, &copy)
	return nil
}

func (m *MockPayoutRepository) GetByBatchID(ctx context.Context, batchID string) ([]*domain.Payout, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Payout
	for _, p := range m.payouts {
		if p.BatchID == batchID {
			copy := *p
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (m *MockPayoutRepository) GetByDriverID(ctx context.Context, driverID string) ([]*domain.Payout, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Payout
	for i := len(m.payouts) - 1; i >= 0; i-- {
		if m.payouts[i].DriverID == driverID {
			copy := *m.payouts[i]
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (m *MockPayoutRepository) UpdateStatus(ctx context.Context, id string, status domain.PayoutStatus, reference string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.payouts {
		if p.ID == id {
			p.Status = status
			p.Reference = reference
			return nil
		}
	}
	return repository.ErrNotFound
}

// CountBatches returns the number of stored batches.
func (m *MockPayoutRepository) CountBatches() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.batches)
}

// ──────────────────────────────────────────────
// MOCK PAYMENT REPOSITORY
// ──────────────────────────────────────────────

// MockPaymentRepository is a mock implementation of PaymentRepository.
type MockPaymentRepository struct {
	mu       sync.RWMutex
	payments map[string]*domain.Payment

	// Counters for verification
	CreateCallCount int32

	// Error injection
	CreateError error

	// BeforeCreate runs at the start of Create, standing in for a
	// concurrent writer.
	BeforeCreate func()
}

// NewMockPaymentRepository creates a new mock payment repository.
func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{payments: make(map[string]*domain.Payment)}
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.BeforeCreate != nil {
		m.BeforeCreate()
	}
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.payments {
		if p.IdempotencyKey == payment.IdempotencyKey {
			return repository.ErrConflict
		}
	}
	copy := *payment
	m.payments[payment.ID] = &copy
	return nil
}

// AddPayment adds a payment to the mock repository.
func (m *MockPaymentRepository) AddPayment(payment *domain.Payment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments[payment.ID] = payment
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	payment, ok := m.payments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *payment
	return &copy, nil
}

func (m *MockPaymentRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.payments {
		if p.IdempotencyKey == key {
			copy := *p
			return &copy, nil
		}
	}
	return nil, nil
}

func (m *MockPaymentRepository) GetByOrderID(ctx context.Context, orderID string) (*domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.payments {
		if p.OrderID == orderID {
			copy := *p
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockPaymentRepository) UpdateStatus(ctx context.Context, id string, status domain.PaymentStatus, reference string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	payment, ok := m.payments[id]
	if !ok {
		return repository.ErrNotFound
	}
	payment.Status = status
	payment.ProviderReference = reference
	return nil
}

// CountPayments returns the number of stored payments.
func (m *MockPaymentRepository) CountPayments() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.payments)
}

// ──────────────────────────────────────────────
// MOCK NOTIFICATION REPOSITORY
// ──────────────────────────────────────────────

// MockNotificationRepository is a mock implementation of NotificationRepository.
type MockNotificationRepository struct {
	mu            sync.RWMutex
	notifications []*domain.Notification

	// Error injection
	CreateError error
}

// NewMockNotificationRepository creates a new mock notification repository.
func NewMockNotificationRepository() *MockNotificationRepository {
	return &MockNotificationRepository{}
}

func (m *MockNotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *n
	m.notifications = append(m.notifications, &copy)
	return nil
}

func (m *MockNotificationRepository) GetByUserID(ctx context.Context, userID string, unreadOnly bool) ([]*domain.Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Notification
	for i := len(m.notifications) - 1; i >= 0; i-- {
		n := m.notifications[i]
		if n.UserID == userID && (!unreadOnly || !n.Read) {
			copy := *n
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (m *MockNotificationRepository) MarkRead(ctx context.Context, id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.notifications {
		if n.ID == id && n.UserID == userID {
			n.Read = true
			return nil
		}
	}
	return repository.ErrNotFound
}

// CountFor returns how many notifications of typ a user received.
func (m *MockNotificationRepository) CountFor(userID string, typ domain.NotificationType) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, n := range m.notifications {
		if n.UserID == userID && n.Type == typ {
			count++
		}
	}
	return count
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is a mock implementation of LockStoreInterface.
type MockLockStore struct {
	mu     sync.Mutex
	locks  map[string]string
	tokens int

	// Counters for verification
	AcquireCallCount int32
	ReleaseCallCount int32

	// Error injection
	AcquireError error
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{locks: make(map[string]string)}
}

// Hold marks a lock as taken by someone else.
func (m *MockLockStore) Hold(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locks[name] = "held-elsewhere"
}

func (m *MockLockStore) Acquire(ctx context.Context, name string, ttl time.Duration) (string, bool, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	if m.AcquireError != nil {
		return "", false, m.AcquireError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, held := m.locks[name]; held {
		return "", false, nil
	}
	m.tokens++
	token := fmt.Sprintf("token-%d", m.tokens)
	m.locks[name] = token
	return token, true, nil
}

func (m *MockLockStore) Release(ctx context.Context, name, token string) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[name] == token {
		delete(m.locks, name)
	}
	return nil
}

// IsLocked reports whether a lock is currently held.
func (m *MockLockStore) IsLocked(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, held := m.locks[name]
	return held
}

// ──────────────────────────────────────────────
// MOCK ORDER CACHE
// ──────────────────────────────────────────────

// MockOrderCache is a mock implementation of OrderCache.
type MockOrderCache struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order

	// Counters for verification
	HitCount        int32
	InvalidateCount int32

	// Error injection
	GetError error
}

// NewMockOrderCache creates a new mock order cache.
func NewMockOrderCache() *MockOrderCache {
	return &MockOrderCache{orders: make(map[string]*domain.Order)}
}

func (m *MockOrderCache) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	order, ok := m.orders[orderID]
	if !ok {
		return nil, nil
	}
	atomic.AddInt32(&m.HitCount, 1)
	return cloneOrder(order), nil
}

func (m *MockOrderCache) SetOrder(ctx context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[order.ID] = cloneOrder(order)
	return nil
}

func (m *MockOrderCache) InvalidateOrder(ctx context.Context, orderID string) error {
	atomic.AddInt32(&m.InvalidateCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.orders, orderID)
	return nil
}

// Cached reports whether an order is cached.
func (m *MockOrderCache) Cached(orderID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.orders[orderID]
	return ok
}

// ──────────────────────────────────────────────
// MOCK PSP
// ──────────────────────────────────────────────

// ErrPSPUnavailable simulates a provider outage.
var ErrPSPUnavailable = errors.New("psp unavailable")

// MockPSP is a scriptable payment provider.
type MockPSP struct {
	mu       sync.Mutex
	requests []psp.ChargeRequest

	// Counters for verification
	ChargeCallCount int32

	// Behaviour
	Decline     bool
	ChargeError error
}

// NewMockPSP creates a new mock PSP that approves every charge.
func NewMockPSP() *MockPSP {
	return &MockPSP{}
}

func (m *MockPSP) Charge(ctx context.Context, req psp.ChargeRequest) (*psp.ChargeResult, error) {
	n := atomic.AddInt32(&m.ChargeCallCount, 1)
	m.mu.Lock()
	m.requests = append(m.requests, req)
	decline, chargeErr := m.Decline, m.ChargeError
	m.mu.Unlock()

	if chargeErr != nil {
		return nil, chargeErr
	}
	if decline {
		return &psp.ChargeResult{Success: false, Reference: "declined"}, nil
	}
	return &psp.ChargeResult{Success: true, Reference: fmt.Sprintf("pi_test_%d", n)}, nil
}

// SetDecline toggles declining.
func (m *MockPSP) SetDecline(decline bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Decline = decline
}

// Requests returns every charge request seen so far.
func (m *MockPSP) Requests() []psp.ChargeRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]psp.ChargeRequest(nil), m.requests...)
}

// ──────────────────────────────────────────────
// MOCK PAYOUT PROVIDER
// ──────────────────────────────────────────────

// MockPayoutProvider records transfers and can fail selected drivers.
type MockPayoutProvider struct {
	mu        sync.Mutex
	transfers []psp.TransferRequest
	failFor   map[string]bool
}

// NewMockPayoutProvider creates a new mock payout provider.
func NewMockPayoutProvider() *MockPayoutProvider {
	return &MockPayoutProvider{failFor: make(map[string]bool)}
}

// FailFor makes transfers to a driver fail.
func (m *MockPayoutProvider) FailFor(driverID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failFor[driverID] = true
}

func (m *MockPayoutProvider) Transfer(ctx context.Context, req psp.TransferRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transfers = append(m.transfers, req)
	if m.failFor[req.DriverID] {
		return "", ErrPSPUnavailable
	}
	return "po_test_" + req.PayoutID, nil
}

// Transfers returns every transfer request seen so far.
func (m *MockPayoutProvider) Transfers() []psp.TransferRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]psp.TransferRequest(nil), m.transfers...)
}
