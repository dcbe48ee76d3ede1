package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"cargo/internal/service"
)

// BidHandler handles HTTP requests for bids and driver selection.
type BidHandler struct {
	bidService *service.BidService
}

// NewBidHandler creates a new BidHandler.
func NewBidHandler(bidService *service.BidService) *BidHandler {
	return &BidHandler{bidService: bidService}
}

// SubmitBidRequest is the HTTP request body for bidding on an order.
type SubmitBidRequest struct {
	TruckID string          `json:"truck_id" binding:"required"`
	Amount  decimal.Decimal `json:"amount"`
	Note    string          `json:"note"`
}

// Submit handles POST /v1/orders/:id/bids
func (h *BidHandler) Submit(c *gin.Context) {
	var req SubmitBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	bid, err := h.bidService.SubmitBid(c.Request.Context(), actorFrom(c), service.SubmitBidRequest{
		OrderID: c.Param("id"),
		TruckID: req.TruckID,
		Amount:  req.Amount,
		Note:    req.Note,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, newBidResponse(bid))
}

// GetAll handles GET /v1/orders/:id/bids
func (h *BidHandler) GetAll(c *gin.Context) {
	bids, err := h.bidService.ListBids(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, mapSlice(bids, newBidResponse))
}

// Accept handles POST /v1/orders/:id/bids/:bidId/accept
func (h *BidHandler) Accept(c *gin.Context) {
	order, err := h.bidService.AcceptBid(c.Request.Context(), actorFrom(c), c.Param("id"), c.Param("bidId"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, newOrderResponse(order))
}

// Withdraw handles POST /v1/bids/:id/withdraw
func (h *BidHandler) Withdraw(c *gin.Context) {
	bid, err := h.bidService.WithdrawBid(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, newBidResponse(bid))
}

// Acknowledge handles POST /v1/orders/:id/acknowledge
func (h *BidHandler) Acknowledge(c *gin.Context) {
	order, err := h.bidService.AcknowledgeSelection(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, newOrderResponse(order))
}

// Decline handles POST /v1/orders/:id/decline
func (h *BidHandler) Decline(c *gin.Context) {
	order, err := h.bidService.DeclineSelection(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, newOrderResponse(order))
}
