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
	"cargo/internal/repository"
)

// FleetService manages driver profiles and trucks.
type FleetService struct {
	store  repository.Store
	logger *zap.Logger
}

// NewFleetService creates a new FleetService.
func NewFleetService(store repository.Store, logger *zap.Logger) *FleetService {
	return &FleetService{
		store:  store,
		logger: logger.Named("fleet"),
	}
}

// RegisterDriverRequest contains the parameters for creating a driver profile.
type RegisterDriverRequest struct {
	LicenseNumber string
	TruckOwnerID  string // optional employing truck owner (user ID)
}

// RegisterDriver creates the driver profile of a DRIVER user together with its wallet.
func (s *FleetService) RegisterDriver(ctx context.Context, actor Actor, req RegisterDriverRequest) (*domain.Driver, error) {
	if !actor.is(domain.RoleDriver) {
		return nil, ErrForbidden
	}
	license := strings.TrimSpace(req.LicenseNumber)
	if license == "" {
		return nil, fmt.Errorf("%w: license number is required", ErrInvalidInput)
	}

	now := time.Now()
	driver := &domain.Driver{
		ID:            uuid.New().String(),
		UserID:        actor.UserID,
		TruckOwnerID:  req.TruckOwnerID,
		LicenseNumber: license,
		Status:        domain.DriverStatusOffline,
		CreatedAt:     now,
	}

	err := s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		if existing, err := repos.Drivers.GetByUserID(ctx, actor.UserID); err == nil && existing != nil {
			return ErrDriverProfileExists
		} else if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		if req.TruckOwnerID != "" {
			owner, err := repos.Users.GetByID(ctx, req.TruckOwnerID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return ErrInvalidTruckOwner
				}
				return err
			}
			if owner.Role != domain.RoleTruckOwner {
				return ErrInvalidTruckOwner
			}
		}

		if err := repos.Drivers.Create(ctx, driver); err != nil {
			return err
		}

		return repos.Wallets.Create(ctx, &domain.Wallet{
			ID:        uuid.New().String(),
			DriverID:  driver.ID,
			Balance:   decimal.Zero,
			CreatedAt: now,
			UpdatedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("driver registered", zap.String("driver_id", driver.ID), zap.String("user_id", actor.UserID))
	return driver, nil
}

// GetMyDriver returns the driver profile of the actor.
func (s *FleetService) GetMyDriver(ctx context.Context, actor Actor) (*domain.Driver, error) {
	return driverOf(ctx, s.store.Repositories(), actor)
}

// SetAvailability toggles a driver between AVAILABLE and OFFLINE.
func (s *FleetService) SetAvailability(ctx context.Context, actor Actor, status domain.DriverStatus) (*domain.Driver, error) {
	if status != domain.DriverStatusAvailable && status != domain.DriverStatusOffline {
		return nil, fmt.Errorf("%w: status must be AVAILABLE or OFFLINE", ErrInvalidInput)
	}

	repos := s.store.Repositories()
	driver, err := driverOf(ctx, repos, actor)
	if err != nil {
		return nil, err
	}
	if driver.Status == domain.DriverStatusOnJob {
		return nil, ErrDriverOnJob
	}

	if err := repos.Drivers.UpdateStatus(ctx, driver.ID, status); err != nil {
		return nil, err
	}
	driver.Status = status
	return driver, nil
}

// ListDrivers lists every driver for admins and employed drivers for truck owners.
func (s *FleetService) ListDrivers(ctx context.Context, actor Actor) ([]*domain.Driver, error) {
	switch {
	case actor.IsAdmin():
		return s.store.Repositories().Drivers.GetAll(ctx, "")
	case actor.is(domain.RoleTruckOwner):
		return s.store.Repositories().Drivers.GetAll(ctx, actor.UserID)
	}
	return nil, ErrForbidden
}

// RegisterTruckRequest contains the parameters for adding a truck.
type RegisterTruckRequest struct {
	PlateNumber string
	TruckType   string
	CapacityKg  float64
}

// RegisterTruck adds a truck owned by a truck owner, or by a driver who is
// then assigned to it.
func (s *FleetService) RegisterTruck(ctx context.Context, actor Actor, req RegisterTruckRequest) (*domain.Truck, error) {
	plate := strings.ToUpper(strings.TrimSpace(req.PlateNumber))
	if plate == "" {
		return nil, fmt.Errorf("%w: plate number is required", ErrInvalidInput)
	}
	if req.CapacityKg <= 0 {
		return nil, fmt.Errorf("%w: capacity must be positive", ErrInvalidInput)
	}

	truck := &domain.Truck{
		ID:          uuid.New().String(),
		OwnerID:     actor.UserID,
		PlateNumber: plate,
		TruckType:   strings.TrimSpace(req.TruckType),
		CapacityKg:  req.CapacityKg,
		Status:      domain.TruckStatusActive,
		CreatedAt:   time.Now(),
	}

	repos := s.store.Repositories()
	switch {
	case actor.is(domain.RoleTruckOwner):
	case actor.is(domain.RoleDriver):
		driver, err := driverOf(ctx, repos, actor)
		if err != nil {
			return nil, err
		}
		truck.DriverID = driver.ID
	default:
		return nil, ErrForbidden
	}

	if err := repos.Trucks.Create(ctx, truck); err != nil {
		return nil, err
	}

	s.logger.Info("truck registered", zap.String("truck_id", truck.ID), zap.String("owner_id", actor.UserID))
	return truck, nil
}

// AssignDriver puts driverID behind the wheel of truckID. The driver must be
// employed by the truck's owner, or be the owner themselves.
func (s *FleetService) AssignDriver(ctx context.Context, actor Actor, truckID, driverID string) (*domain.Truck, error) {
	if truckID == "" || driverID == "" {
		return nil, fmt.Errorf("%w: truck id and driver id are required", ErrInvalidInput)
	}

	repos := s.store.Repositories()
	truck, err := s.ownedTruck(ctx, repos, actor, truckID)
	if err != nil {
		return nil, err
	}

	driver, err := repos.Drivers.GetByID(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if driver.TruckOwnerID != actor.UserID && driver.UserID != actor.UserID {
		return nil, ErrForbidden
	}

	truck.DriverID = driver.ID
	if err := repos.Trucks.Update(ctx, truck); err != nil {
		return nil, err
	}
	return truck, nil
}

// DeactivateTruck stops a truck from being used for new bids.
func (s *FleetService) DeactivateTruck(ctx context.Context, actor Actor, truckID string) (*domain.Truck, error) {
	repos := s.store.Repositories()
	truck, err := s.ownedTruck(ctx, repos, actor, truckID)
	if err != nil {
		return nil, err
	}

	truck.Status = domain.TruckStatusInactive
	if err := repos.Trucks.Update(ctx, truck); err != nil {
		return nil, err
	}
	return truck, nil
}

// ListTrucks lists all trucks for admins, owned trucks for truck owners and
// owned or assigned trucks for drivers.
func (s *FleetService) ListTrucks(ctx context.Context, actor Actor) ([]*domain.Truck, error) {
	repos := s.store.Repositories()
	switch {
	case actor.IsAdmin():
		return repos.Trucks.GetAll(ctx, repository.TruckFilter{})
	case actor.is(domain.RoleTruckOwner):
		return repos.Trucks.GetAll(ctx, repository.TruckFilter{OwnerID: actor.UserID})
	case actor.is(domain.RoleDriver):
		driver, err := driverOf(ctx, repos, actor)
		if err != nil {
			return nil, err
		}
		return repos.Trucks.GetAll(ctx, repository.TruckFilter{DriverID: driver.ID})
	}
	return nil, ErrForbidden
}

func (s *FleetService) ownedTruck(ctx context.Context, repos repository.Repositories, actor Actor, truckID string) (*domain.Truck, error) {
	if truckID == "" {
		return nil, fmt.Errorf("%w: truck id is required", ErrInvalidInput)
	}
	truck, err := repos.Trucks.GetByID(ctx, truckID)
	if err != nil {
		return nil, err
	}
	if truck.OwnerID != actor.UserID && !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	return truck, nil
}

// driverOf loads the driver profile of a DRIVER actor.
func driverOf(ctx context.Context, repos repository.Repositories, actor Actor) (*domain.Driver, error) {
	if !actor.is(domain.RoleDriver) {
		return nil, ErrForbidden
	}
	driver, err := repos.Drivers.GetByUserID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDriverProfileRequired
		}
		return nil, err
	}
	return driver, nil
}
