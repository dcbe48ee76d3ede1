package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"cargo/internal/domain"
	"cargo/internal/service"
)

// OrderHandler handles HTTP requests for cargo orders.
type OrderHandler struct {
	orderService   *service.OrderService
	paymentService *service.PaymentService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orderService *service.OrderService, paymentService *service.PaymentService) *OrderHandler {
	return &OrderHandler{
		orderService:   orderService,
		paymentService: paymentService,
	}
}

// CargoItemRequest is one item of an order request.
type CargoItemRequest struct {
	Description string  `json:"description"`
	WeightKg    float64 `json:"weight_kg"`
	Quantity    int     `json:"quantity"`
}

// CreateOrderRequest is the HTTP request body for creating an order.
type CreateOrderRequest struct {
	RouteID         string             `json:"route_id" binding:"required"`
	PickupAddress   string             `json:"pickup_address" binding:"required"`
	DeliveryAddress string             `json:"delivery_address" binding:"required"`
	PickupDate      time.Time          `json:"pickup_date"`
	Items           []CargoItemRequest `json:"items" binding:"required"`
}

// UpdateOrderRequest is the HTTP request body for editing a draft order.
// Omitted fields keep their current values.
type UpdateOrderRequest struct {
	RouteID         *string            `json:"route_id"`
	PickupAddress   *string            `json:"pickup_address"`
	DeliveryAddress *string            `json:"delivery_address"`
	PickupDate      *time.Time         `json:"pickup_date"`
	Items           []CargoItemRequest `json:"items"`
}

// CancelOrderRequest is the optional HTTP request body for cancelling.
type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

// CompleteOrderResponse is an order closed out with its payment.
type CompleteOrderResponse struct {
	Order   OrderResponse   `json:"order"`
	Payment PaymentResponse `json:"payment"`
}

func toItemInputs(items []CargoItemRequest) []service.CargoItemInput {
	if items == nil {
		return nil
	}
	inputs := make([]service.CargoItemInput, 0, len(items))
	for _, item := range items {
		inputs = append(inputs, service.CargoItemInput{
			Description: item.Description,
			WeightKg:    item.WeightKg,
			Quantity:    item.Quantity,
		})
	}
	return inputs
}

// Create handles POST /v1/orders
func (h *OrderHandler) Create(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), actorFrom(c), service.CreateOrderRequest{
		RouteID:         req.RouteID,
		PickupAddress:   req.PickupAddress,
		DeliveryAddress: req.DeliveryAddress,
		PickupDate:      req.PickupDate,
		Items:           toItemInputs(req.Items),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, newOrderResponse(order))
}

// Update handles PUT /v1/orders/:id
func (h *OrderHandler) Update(c *gin.Context) {
	var req UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	order, err := h.orderService.UpdateOrder(c.Request.Context(), actorFrom(c), c.Param("id"), service.UpdateOrderRequest{
		RouteID:         req.RouteID,
		PickupAddress:   req.PickupAddress,
		DeliveryAddress: req.DeliveryAddress,
		PickupDate:      req.PickupDate,
		Items:           toItemInputs(req.Items),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, newOrderResponse(order))
}

// Get handles GET /v1/orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	order, err := h.orderService.GetOrder(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, newOrderResponse(order))
}

// GetAll handles GET /v1/orders
func (h *OrderHandler) GetAll(c *gin.Context) {
	limit, offset := pageParams(c)
	orders, err := h.orderService.ListOrders(c.Request.Context(), actorFrom(c), service.ListOrdersRequest{
		Status: domain.OrderStatus(c.Query("status")),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, mapSlice(orders, newOrderResponse))
}

// Publish handles POST /v1/orders/:id/publish
func (h *OrderHandler) Publish(c *gin.Context) {
	order, err := h.orderService.PublishOrder(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, newOrderResponse(order))
}

// Cancel handles POST /v1/orders/:id/cancel
func (h *OrderHandler) Cancel(c *gin.Context) {
	var req CancelOrderRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, "invalid request body")
			return
		}
	}

	order, err := h.orderService.CancelOrder(c.Request.Context(), actorFrom(c), c.Param("id"), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, newOrderResponse(order))
}

// StartTransit handles POST /v1/orders/:id/start
func (h *OrderHandler) StartTransit(c *gin.Context) {
	order, err := h.orderService.StartTransit(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, newOrderResponse(order))
}

// Deliver handles POST /v1/orders/:id/deliver
func (h *OrderHandler) Deliver(c *gin.Context) {
	order, err := h.orderService.MarkDelivered(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, newOrderResponse(order))
}

// Complete handles POST /v1/orders/:id/complete
func (h *OrderHandler) Complete(c *gin.Context) {
	order, payment, err := h.orderService.CompleteOrder(c.Request.Context(), actorFrom(c), c.Param("id"))
	if errors.Is(err, service.ErrPaymentFailed) && payment != nil {
		c.JSON(http.StatusPaymentRequired, Envelope{
			StatusCode: http.StatusPaymentRequired,
			Message:    err.Error(),
			Data:       newPaymentResponse(payment),
		})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, CompleteOrderResponse{
		Order:   newOrderResponse(order),
		Payment: newPaymentResponse(payment),
	})
}

// GetPayment handles GET /v1/orders/:id/payment
func (h *OrderHandler) GetPayment(c *gin.Context) {
	payment, err := h.paymentService.GetPaymentForOrder(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, newPaymentResponse(payment))
}
