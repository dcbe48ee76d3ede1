package service

import (
	"errors"

	"cargo/internal/domain"
)

var (
	// ErrInvalidInput is returned when a request fails validation. It is
	// wrapped with the offending field.
	ErrInvalidInput = errors.New("invalid input")

	// ErrForbidden is returned when the caller may not act on the resource.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidCredentials is returned when login fails.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrEmailTaken is returned when registering an email that already exists.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidRole is returned when a role cannot be self-registered.
	ErrInvalidRole = errors.New("invalid role")

	// ErrBusinessAlreadyRegistered is returned when a cargo owner already belongs to a business.
	ErrBusinessAlreadyRegistered = errors.New("user already belongs to a business")

	// ErrBusinessRequired is returned when a cargo owner has no business yet.
	ErrBusinessRequired = errors.New("cargo owner has no registered business")

	// ErrBusinessNotApproved is returned when an unapproved business publishes an order.
	ErrBusinessNotApproved = errors.New("business is not approved")

	// ErrDriverProfileExists is returned when a driver registers a second profile.
	ErrDriverProfileExists = errors.New("driver profile already exists")

	// ErrDriverProfileRequired is returned when a driver user has no profile yet.
	ErrDriverProfileRequired = errors.New("driver profile required")

	// ErrDriverOnJob is returned when a busy driver changes availability or takes another job.
	ErrDriverOnJob = errors.New("driver is on a job")

	// ErrInvalidTruckOwner is returned when a truck owner reference is not a truck owner.
	ErrInvalidTruckOwner = errors.New("referenced user is not a truck owner")

	// ErrTruckUnavailable is returned when a truck is inactive or not assigned to the driver.
	ErrTruckUnavailable = errors.New("truck is not available to this driver")

	// ErrInsufficientCapacity is returned when a truck cannot carry the order's cargo.
	ErrInsufficientCapacity = errors.New("truck capacity below cargo weight")

	// ErrRouteInactive is returned when an order references an inactive route.
	ErrRouteInactive = errors.New("route is not active")

	// ErrOrderNotEditable is returned when updating an order that left DRAFT.
	ErrOrderNotEditable = errors.New("order can only be edited as draft")

	// ErrOrderNotAcceptingBids is returned when bidding on a closed order.
	ErrOrderNotAcceptingBids = errors.New("order is not accepting bids")

	// ErrDuplicateBid is returned when a driver already has a pending bid on the order.
	ErrDuplicateBid = errors.New("driver already has a pending bid on this order")

	// ErrBidNotPending is returned when acting on a bid that is no longer pending.
	ErrBidNotPending = errors.New("bid is not pending")

	// ErrBidOrderMismatch is returned when a bid does not belong to the order.
	ErrBidOrderMismatch = errors.New("bid does not belong to this order")

	// ErrNotAssignedDriver is returned when a driver acts on an order assigned to someone else.
	ErrNotAssignedDriver = errors.New("driver is not assigned to this order")

	// ErrResourceBusy is returned when a distributed lock is held by another request.
	ErrResourceBusy = errors.New("resource is busy, retry shortly")

	// ErrInvalidTransition is returned for order status changes the lifecycle does not allow.
	ErrInvalidTransition = domain.ErrInvalidTransition

	// ErrInvalidAmount is returned when a money amount is not positive.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrPaymentFailed is returned when the PSP declines the charge.
	ErrPaymentFailed = errors.New("payment failed")

	// ErrNotPayoutDay is returned when a payout batch is requested for a non-payout weekday.
	ErrNotPayoutDay = errors.New("payout batches only run on fridays")

	// ErrPayoutAlreadyRun is returned when a batch already exists for the run date.
	ErrPayoutAlreadyRun = errors.New("payout batch already ran for this date")
)
