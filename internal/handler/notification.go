package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"

	"cargo/internal/service"
)

// NotificationHandler handles HTTP requests for in-app notifications.
type NotificationHandler struct {
	notificationService *service.NotificationService
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(notificationService *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// GetAll handles GET /v1/notifications
func (h *NotificationHandler) GetAll(c *gin.Context) {
	unreadOnly := cast.ToBool(c.Query("unread"))
	notifications, err := h.notificationService.ListMine(c.Request.Context(), actorFrom(c), unreadOnly)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, mapSlice(notifications, newNotificationResponse))
}

// MarkRead handles POST /v1/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	if err := h.notificationService.MarkRead(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, gin.H{"id": c.Param("id"), "read": true})
}
