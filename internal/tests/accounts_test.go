package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"cargo/internal/auth"
	"cargo/internal/domain"
	"cargo/internal/service"
)

// ──────────────────────────────────────────────
// 1. ACCOUNTS, BUSINESSES AND FLEET
// ──────────────────────────────────────────────

func newAuthService(store *MockStore) *service.AuthService {
	tokens := auth.NewTokenManager("test-secret", time.Hour, "cargo-test")
	return service.NewAuthService(store.Users, tokens, zap.NewNop())
}

func TestAuth_RegisterAndLogin(t *testing.T) {
	t.Parallel()

	store := NewMockStore()
	svc := newAuthService(store)
	ctx := context.Background()

	user, err := svc.Register(ctx, service.RegisterRequest{
		Name:     "Ada",
		Email:    "  Ada@Example.com ",
		Password: "correct-horse",
		Role:     domain.RoleCargoOwner,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.Email != "ada@example.com" {
		t.Errorf("email should be normalized, got %q", user.Email)
	}
	if user.PasswordHash == "" || user.PasswordHash == "correct-horse" {
		t.Error("password must be stored hashed")
	}

	result, err := svc.Login(ctx, service.LoginRequest{Email: "ADA@example.com", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Token == "" || result.User.ID != user.ID {
		t.Errorf("unexpected login result %+v", result)
	}
	if !result.ExpiresAt.After(time.Now()) {
		t.Error("token should expire in the future")
	}

	if _, err := svc.Login(ctx, service.LoginRequest{Email: "ada@example.com", Password: "wrong-horse"}); !errors.Is(err, service.ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(ctx, service.LoginRequest{Email: "nobody@example.com", Password: "correct-horse"}); !errors.Is(err, service.ErrInvalidCredentials) {
		t.Errorf("unknown email should look like bad credentials, got %v", err)
	}
}

func TestAuth_RegisterRejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		req  service.RegisterRequest
		want error
	}{
		{"admin role", service.RegisterRequest{Name: "Eve", Email: "eve@example.com", Password: "password1", Role: domain.RoleAdmin}, service.ErrInvalidRole},
		{"unknown role", service.RegisterRequest{Name: "Eve", Email: "eve@example.com", Password: "password1", Role: "PILOT"}, service.ErrInvalidRole},
		{"empty name", service.RegisterRequest{Email: "eve@example.com", Password: "password1", Role: domain.RoleDriver}, service.ErrInvalidInput},
		{"bad email", service.RegisterRequest{Name: "Eve", Email: "not-an-email", Password: "password1", Role: domain.RoleDriver}, service.ErrInvalidInput},
		{"short password", service.RegisterRequest{Name: "Eve", Email: "eve@example.com", Password: "short", Role: domain.RoleDriver}, service.ErrInvalidInput},
		{"email taken", service.RegisterRequest{Name: "Eve", Email: "owner@example.com", Password: "password1", Role: domain.RoleDriver}, service.ErrEmailTaken},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := NewMockStore()
			store.Users.AddUser(&domain.User{ID: "owner-1", Email: "owner@example.com", Role: domain.RoleCargoOwner})
			_, err := newAuthService(store).Register(context.Background(), tt.req)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestAuth_EnsureAdminIsIdempotent(t *testing.T) {
	t.Parallel()

	store := NewMockStore()
	svc := newAuthService(store)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := svc.EnsureAdmin(ctx, "root@example.com", "bootstrap-pass"); err != nil {
			t.Fatalf("run %d: unexpected error: %v", i+1, err)
		}
	}
	if store.Users.Count() != 1 {
		t.Errorf("expected 1 admin, got %d users", store.Users.Count())
	}

	if err := svc.EnsureAdmin(ctx, "", ""); err != nil || store.Users.Count() != 1 {
		t.Errorf("empty credentials should be a no-op, got err=%v users=%d", err, store.Users.Count())
	}
}

func TestBusiness_RegisterAndApprove(t *testing.T) {
	t.Parallel()

	store := NewMockStore()
	store.Users.AddUser(&domain.User{ID: "owner-9", Email: "nine@example.com", Role: domain.RoleCargoOwner})
	notifier := service.NewNotificationService(store.Notifications, zap.NewNop())
	svc := service.NewBusinessService(store, notifier, zap.NewNop())
	ctx := context.Background()
	owner := service.Actor{UserID: "owner-9", Role: domain.RoleCargoOwner}

	business, err := svc.CreateBusiness(ctx, owner, service.CreateBusinessRequest{Name: " Nine Logistics ", RegistrationNumber: "RC-9"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if business.Status != domain.BusinessStatusPending || business.Name != "Nine Logistics" {
		t.Errorf("unexpected business %+v", business)
	}

	user, _ := store.Users.GetByID(ctx, "owner-9")
	if user.BusinessID != business.ID {
		t.Errorf("owner should be linked to the business, got %q", user.BusinessID)
	}

	if _, err := svc.CreateBusiness(ctx, owner, service.CreateBusinessRequest{Name: "Again", RegistrationNumber: "RC-10"}); !errors.Is(err, service.ErrBusinessAlreadyRegistered) {
		t.Errorf("expected ErrBusinessAlreadyRegistered, got %v", err)
	}

	// Token issued before registration carries no business.
	if got, err := svc.GetBusiness(ctx, owner, business.ID); err != nil || got.ID != business.ID {
		t.Errorf("owner should read their business, got %v", err)
	}
	stranger := service.Actor{UserID: "owner-1", Role: domain.RoleCargoOwner, BusinessID: "biz-1"}
	if _, err := svc.GetBusiness(ctx, stranger, business.ID); !errors.Is(err, service.ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}

	for i := 0; i < 2; i++ {
		approved, err := svc.ApproveBusiness(ctx, business.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if approved.Status != domain.BusinessStatusApproved {
			t.Errorf("expected %s, got %s", domain.BusinessStatusApproved, approved.Status)
		}
	}
	if n := store.Notifications.CountFor("owner-9", domain.NotificationBusinessApproved); n != 1 {
		t.Errorf("repeated approval should notify once, got %d", n)
	}

	pending, err := svc.ListBusinesses(ctx, domain.BusinessStatusPending)
	if err != nil || len(pending) != 0 {
		t.Errorf("expected no pending businesses, got %d (%v)", len(pending), err)
	}
}

func TestBusiness_OnlyCargoOwnersRegister(t *testing.T) {
	t.Parallel()

	store := NewMockStore()
	svc := service.NewBusinessService(store, service.NewNotificationService(store.Notifications, zap.NewNop()), zap.NewNop())
	_, err := svc.CreateBusiness(context.Background(), driverActor("1"), service.CreateBusinessRequest{Name: "X", RegistrationNumber: "Y"})
	if !errors.Is(err, service.ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
}

func TestFleet_RegisterDriverCreatesWallet(t *testing.T) {
	t.Parallel()

	store := NewMockStore()
	store.Users.AddUser(&domain.User{ID: "towner-1", Email: "fleet@example.com", Role: domain.RoleTruckOwner})
	svc := service.NewFleetService(store, zap.NewNop())
	ctx := context.Background()
	actor := service.Actor{UserID: "duser-7", Role: domain.RoleDriver}

	driver, err := svc.RegisterDriver(ctx, actor, service.RegisterDriverRequest{LicenseNumber: "LIC-7", TruckOwnerID: "towner-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if driver.Status != domain.DriverStatusOffline {
		t.Errorf("new drivers start %s, got %s", domain.DriverStatusOffline, driver.Status)
	}
	if store.Wallets.GetWalletByDriver(driver.ID) == nil {
		t.Error("driver should get a wallet")
	}

	if _, err := svc.RegisterDriver(ctx, actor, service.RegisterDriverRequest{LicenseNumber: "LIC-8"}); !errors.Is(err, service.ErrDriverProfileExists) {
		t.Errorf("expected ErrDriverProfileExists, got %v", err)
	}

	other := service.Actor{UserID: "duser-8", Role: domain.RoleDriver}
	if _, err := svc.RegisterDriver(ctx, other, service.RegisterDriverRequest{LicenseNumber: "LIC-8", TruckOwnerID: "duser-7"}); !errors.Is(err, service.ErrInvalidTruckOwner) {
		t.Errorf("expected ErrInvalidTruckOwner, got %v", err)
	}

	fleetOwner := service.Actor{UserID: "towner-1", Role: domain.RoleTruckOwner}
	drivers, err := svc.ListDrivers(ctx, fleetOwner)
	if err != nil || len(drivers) != 1 {
		t.Errorf("truck owner should see their driver, got %d (%v)", len(drivers), err)
	}

	truck, err := svc.RegisterTruck(ctx, fleetOwner, service.RegisterTruckRequest{PlateNumber: " abc-123 ", CapacityKg: 8000})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if truck.PlateNumber != "ABC-123" || truck.DriverID != "" {
		t.Errorf("unexpected truck %+v", truck)
	}

	truck, err = svc.AssignDriver(ctx, fleetOwner, truck.ID, driver.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if truck.DriverID != driver.ID {
		t.Errorf("expected driver %s assigned, got %q", driver.ID, truck.DriverID)
	}

	trucks, err := svc.ListTrucks(ctx, actor)
	if err != nil || len(trucks) != 1 {
		t.Errorf("driver should see the assigned truck, got %d (%v)", len(trucks), err)
	}

	if _, err := svc.DeactivateTruck(ctx, actor, truck.ID); !errors.Is(err, service.ErrForbidden) {
		t.Errorf("only the owner deactivates, got %v", err)
	}
	truck, err = svc.DeactivateTruck(ctx, fleetOwner, truck.ID)
	if err != nil || truck.Status != domain.TruckStatusInactive {
		t.Errorf("expected inactive truck, got %+v (%v)", truck, err)
	}
}

func TestFleet_Availability(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	svc := service.NewFleetService(e.store, zap.NewNop())
	ctx := context.Background()

	driver, err := svc.SetAvailability(ctx, driverActor("2"), domain.DriverStatusOffline)
	if err != nil || driver.Status != domain.DriverStatusOffline {
		t.Fatalf("expected offline driver, got %+v (%v)", driver, err)
	}

	if _, err := svc.SetAvailability(ctx, driverActor("2"), domain.DriverStatusOnJob); !errors.Is(err, service.ErrInvalidInput) {
		t.Errorf("ON_JOB is not self-settable, got %v", err)
	}

	order := e.publishedOrder(t)
	bid := e.bid(t, order.ID, "1", "900")
	if _, err := e.bids.AcceptBid(ctx, ownerActor, order.ID, bid.ID); err != nil {
		t.Fatalf("accept bid: %v", err)
	}
	if _, err := e.bids.AcknowledgeSelection(ctx, driverActor("1"), order.ID); err != nil {
		t.Fatalf("acknowledge: %v", err)
	}
	if _, err := svc.SetAvailability(ctx, driverActor("1"), domain.DriverStatusOffline); !errors.Is(err, service.ErrDriverOnJob) {
		t.Errorf("expected ErrDriverOnJob, got %v", err)
	}

	if _, err := svc.GetMyDriver(ctx, service.Actor{UserID: "duser-404", Role: domain.RoleDriver}); !errors.Is(err, service.ErrDriverProfileRequired) {
		t.Errorf("expected ErrDriverProfileRequired, got %v", err)
	}
}
