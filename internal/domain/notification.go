package domain

import "time"

// NotificationType represents the event a notification reports.
type NotificationType string

const (
	NotificationOrderPublished    NotificationType = "ORDER_PUBLISHED"
	NotificationOrderCancelled    NotificationType = "ORDER_CANCELLED"
	NotificationBidReceived       NotificationType = "BID_RECEIVED"
	NotificationBidAccepted       NotificationType = "BID_ACCEPTED"
	NotificationBidRejected       NotificationType = "BID_REJECTED"
	NotificationBidWithdrawn      NotificationType = "BID_WITHDRAWN"
	NotificationDriverResponded   NotificationType = "DRIVER_RESPONDED"
	NotificationOrderInTransit    NotificationType = "ORDER_IN_TRANSIT"
	NotificationOrderDelivered    NotificationType = "ORDER_DELIVERED"
	NotificationOrderCompleted    NotificationType = "ORDER_COMPLETED"
	NotificationPaymentFailed     NotificationType = "PAYMENT_FAILED"
	NotificationWalletCredited    NotificationType = "WALLET_CREDITED"
	NotificationPayoutSent        NotificationType = "PAYOUT_SENT"
	NotificationPayoutFailed      NotificationType = "PAYOUT_FAILED"
	NotificationBusinessApproved  NotificationType = "BUSINESS_APPROVED"
	NotificationBusinessSuspended NotificationType = "BUSINESS_SUSPENDED"
)

// Notification is a message stored for a user.
type Notification struct {
	ID        string
	UserID    string
	Type      NotificationType
	Title     string
	Message   string
	Read      bool
	CreatedAt time.Time
}
