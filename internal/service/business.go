package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"cargo/internal/domain"
	"cargo/internal/repository"
)

// BusinessService handles business registration and approval.
type BusinessService struct {
	store    repository.Store
	notifier *NotificationService
	logger   *zap.Logger
}

// NewBusinessService creates a new BusinessService.
func NewBusinessService(store repository.Store, notifier *NotificationService, logger *zap.Logger) *BusinessService {
	return &BusinessService{
		store:    store,
		notifier: notifier,
		logger:   logger.Named("business"),
	}
}

// CreateBusinessRequest contains the parameters for registering a business.
type CreateBusinessRequest struct {
	Name               string
	RegistrationNumber string
	Address            string
	ContactEmail       string
}

// CreateBusiness registers a business for a cargo owner and links the owner to it.
func (s *BusinessService) CreateBusiness(ctx context.Context, actor Actor, req CreateBusinessRequest) (*domain.Business, error) {
	if !actor.is(domain.RoleCargoOwner) {
		return nil, ErrForbidden
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if strings.TrimSpace(req.RegistrationNumber) == "" {
		return nil, fmt.Errorf("%w: registration number is required", ErrInvalidInput)
	}

	business := &domain.Business{
		ID:                 uuid.New().String(),
		Name:               strings.TrimSpace(req.Name),
		RegistrationNumber: strings.TrimSpace(req.RegistrationNumber),
		Address:            strings.TrimSpace(req.Address),
		ContactEmail:       normalizeEmail(req.ContactEmail),
		Status:             domain.BusinessStatusPending,
		CreatedAt:          time.Now(),
	}

	err := s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		user, err := repos.Users.GetByID(ctx, actor.UserID)
		if err != nil {
			return err
		}
		if user.BusinessID != "" {
			return ErrBusinessAlreadyRegistered
		}
		if err := repos.Businesses.Create(ctx, business); err != nil {
			return err
		}
		return repos.Users.SetBusiness(ctx, user.ID, business.ID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("business registered", zap.String("business_id", business.ID), zap.String("owner_id", actor.UserID))
	return business, nil
}

// GetBusiness returns a business to an admin or one of its members.
func (s *BusinessService) GetBusiness(ctx context.Context, actor Actor, id string) (*domain.Business, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: business id is required", ErrInvalidInput)
	}

	repos := s.store.Repositories()
	if !actor.IsAdmin() {
		businessID, err := businessOf(ctx, repos, actor)
		if err != nil {
			return nil, err
		}
		if businessID != id {
			return nil, ErrForbidden
		}
	}

	return repos.Businesses.GetByID(ctx, id)
}

// ListBusinesses lists businesses, optionally filtered by status.
func (s *BusinessService) ListBusinesses(ctx context.Context, status domain.BusinessStatus) ([]*domain.Business, error) {
	return s.store.Repositories().Businesses.GetAll(ctx, status)
}

// ApproveBusiness allows the business to publish orders.
func (s *BusinessService) ApproveBusiness(ctx context.Context, id string) (*domain.Business, error) {
	return s.setStatus(ctx, id, domain.BusinessStatusApproved)
}

// SuspendBusiness stops the business from publishing orders.
func (s *BusinessService) SuspendBusiness(ctx context.Context, id string) (*domain.Business, error) {
	return s.setStatus(ctx, id, domain.BusinessStatusSuspended)
}

func (s *BusinessService) setStatus(ctx context.Context, id string, status domain.BusinessStatus) (*domain.Business, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: business id is required", ErrInvalidInput)
	}

	repos := s.store.Repositories()
	business, err := repos.Businesses.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if business.Status == status {
		return business, nil
	}

	if err := repos.Businesses.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	business.Status = status

	s.logger.Info("business status changed", zap.String("business_id", id), zap.String("status", string(status)))
	s.notifyMembers(ctx, repos, business)

	return business, nil
}

func (s *BusinessService) notifyMembers(ctx context.Context, repos repository.Repositories, business *domain.Business) {
	owners, err := repos.Users.GetAll(ctx, domain.RoleCargoOwner)
	if err != nil {
		s.logger.Error("failed to list business members", zap.String("business_id", business.ID), zap.Error(err))
		return
	}

	typ, title := domain.NotificationBusinessApproved, "Business approved"
	if business.Status == domain.BusinessStatusSuspended {
		typ, title = domain.NotificationBusinessSuspended, "Business suspended"
	}

	for _, owner := range owners {
		if owner.BusinessID == business.ID {
			s.notifier.Notifyf(ctx, owner.ID, typ, title, "%s is now %s", business.Name, strings.ToLower(string(business.Status)))
		}
	}
}

// businessOf resolves the business of a cargo owner from storage, since
// tokens issued before registration carry no business.
func businessOf(ctx context.Context, repos repository.Repositories, actor Actor) (string, error) {
	if actor.BusinessID != "" {
		return actor.BusinessID, nil
	}
	user, err := repos.Users.GetByID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrForbidden
		}
		return "", err
	}
	if user.BusinessID == "" {
		return "", ErrBusinessRequired
	}
	return user.BusinessID, nil
}
