package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"cargo/internal/domain"
	"cargo/internal/repository"
)

// NotificationService stores in-app notifications for users.
// Delivery failures are logged and never fail the calling operation.
type NotificationService struct {
	repo   repository.NotificationRepository
	logger *zap.Logger
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(repo repository.NotificationRepository, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		repo:   repo,
		logger: logger.Named("notifications"),
	}
}

// Notify stores a notification for userID.
func (s *NotificationService) Notify(ctx context.Context, userID string, typ domain.NotificationType, title, message string) {
	if userID == "" {
		return
	}

	notification := &domain.Notification{
		ID:        uuid.New().String(),
		UserID:    userID,
		Type:      typ,
		Title:     title,
		Message:   message,
		CreatedAt: time.Now(),
	}

	if err := s.repo.Create(ctx, notification); err != nil {
		s.logger.Error("failed to store notification",
			zap.String("user_id", userID),
			zap.String("type", string(typ)),
			zap.Error(err),
		)
		return
	}

	s.logger.Info("notification sent",
		zap.String("user_id", userID),
		zap.String("type", string(typ)),
		zap.String("title", title),
	)
}

// Notifyf is Notify with a formatted message.
func (s *NotificationService) Notifyf(ctx context.Context, userID string, typ domain.NotificationType, title, format string, args ...any) {
	s.Notify(ctx, userID, typ, title, fmt.Sprintf(format, args...))
}

// ListMine returns the actor's notifications, newest first.
func (s *NotificationService) ListMine(ctx context.Context, actor Actor, unreadOnly bool) ([]*domain.Notification, error) {
	return s.repo.GetByUserID(ctx, actor.UserID, unreadOnly)
}

// MarkRead marks one of the actor's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, actor Actor, id string) error {
	if id == "" {
		return fmt.Errorf("%w: notification id is required", ErrInvalidInput)
	}
	return s.repo.MarkRead(ctx, id, actor.UserID)
}
