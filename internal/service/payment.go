package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"cargo/internal/domain"
	"cargo/internal/psp"
	"cargo/internal/repository"
)

// PaymentService handles payment operations.
type PaymentService struct {
	store    repository.Store
	psp      psp.PSP
	currency string
	logger   *zap.Logger
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(store repository.Store, provider psp.PSP, currency string, logger *zap.Logger) *PaymentService {
	return &PaymentService{
		store:    store,
		psp:      provider,
		currency: currency,
		logger:   logger.Named("payments"),
	}
}

// PaymentKey is the idempotency key of the charge for an order.
func PaymentKey(orderID string) string {
	return fmt.Sprintf("payment:order:%s", orderID)
}

// ChargeOrder charges the agreed price of an order with idempotency support.
// A successful payment for the order is returned as is; a failed one is
// charged again on the same record. A declined charge is not an error: the
// returned payment carries FAILED.
func (s *PaymentService) ChargeOrder(ctx context.Context, order *domain.Order) (*domain.Payment, error) {
	if order == nil || order.ID == "" {
		return nil, fmt.Errorf("%w: order id is required", ErrInvalidInput)
	}
	if !order.AgreedPrice.IsPositive() {
		return nil, ErrInvalidAmount
	}

	repo := s.store.Repositories().Payments
	key := PaymentKey(order.ID)

	// Check for existing payment (idempotency).
	payment, err := repo.GetByIdempotencyKey(ctx, key)
	if err != nil {
		return nil, err
	}

	pspKey := key
	switch {
	case payment == nil:
		payment = &domain.Payment{
			ID:             uuid.New().String(),
			OrderID:        order.ID,
			Amount:         order.AgreedPrice,
			Currency:       s.currency,
			Status:         domain.PaymentStatusPending,
			IdempotencyKey: key,
			CreatedAt:      time.Now(),
		}
		if err := repo.Create(ctx, payment); err != nil {
			if !errors.Is(err, repository.ErrConflict) {
				return nil, err
			}
			// Lost a race with a concurrent charge.
			if payment, err = repo.GetByIdempotencyKey(ctx, key); err != nil || payment == nil {
				return nil, fmt.Errorf("reload payment %s: %w", key, err)
			}
			switch payment.Status {
			case domain.PaymentStatusSuccess:
				return payment, nil
			case domain.PaymentStatusPending:
				// The winner is still charging.
				return nil, ErrResourceBusy
			}
			pspKey = key + ":retry:" + uuid.New().String()
		}
	case payment.Status == domain.PaymentStatusSuccess:
		// Payment already exists - return it (idempotent).
		return payment, nil
	case payment.Status == domain.PaymentStatusFailed:
		// Stripe replays the stored result for a reused key, so a retry needs a fresh one.
		pspKey = key + ":retry:" + uuid.New().String()
	}

	result, err := s.psp.Charge(ctx, psp.ChargeRequest{
		Amount:         payment.Amount,
		Currency:       payment.Currency,
		IdempotencyKey: pspKey,
		Metadata:       map[string]string{"order_id": order.ID, "payment_id": payment.ID},
	})

	status := domain.PaymentStatusFailed
	reference := payment.ProviderReference
	if err != nil {
		s.logger.Error("psp charge failed", zap.String("order_id", order.ID), zap.Error(err))
	} else {
		reference = result.Reference
		if result.Success {
			status = domain.PaymentStatusSuccess
		}
	}

	if err := repo.UpdateStatus(ctx, payment.ID, status, reference); err != nil {
		return nil, err
	}
	payment.Status = status
	payment.ProviderReference = reference
	paymentAttempts.WithLabelValues(string(status)).Inc()

	s.logger.Info("order charged",
		zap.String("order_id", order.ID),
		zap.String("payment_id", payment.ID),
		zap.String("status", string(status)),
		zap.String("amount", payment.Amount.StringFixed(2)),
	)

	return payment, nil
}

// GetPaymentForOrder returns the payment of an order to its owner or an admin.
func (s *PaymentService) GetPaymentForOrder(ctx context.Context, actor Actor, orderID string) (*domain.Payment, error) {
	if orderID == "" {
		return nil, fmt.Errorf("%w: order id is required", ErrInvalidInput)
	}

	repos := s.store.Repositories()
	order, err := repos.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && order.CargoOwnerID != actor.UserID {
		return nil, ErrForbidden
	}

	return repos.Payments.GetByOrderID(ctx, orderID)
}
