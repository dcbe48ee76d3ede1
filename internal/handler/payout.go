package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"cargo/internal/service"
)

// PayoutHandler handles HTTP requests for payout batches.
type PayoutHandler struct {
	payoutService *service.PayoutService
	loc           *time.Location
}

// NewPayoutHandler creates a new PayoutHandler. loc decides "today" when a
// run request omits its date.
func NewPayoutHandler(payoutService *service.PayoutService, loc *time.Location) *PayoutHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &PayoutHandler{payoutService: payoutService, loc: loc}
}

// RunBatchRequest is the HTTP request body for running a batch by hand.
type RunBatchRequest struct {
	RunDate string `json:"run_date"`
}

// Run handles POST /v1/payouts/batches
func (h *PayoutHandler) Run(c *gin.Context) {
	var req RunBatchRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, "invalid request body")
			return
		}
	}

	runDate := time.Now().In(h.loc)
	if req.RunDate != "" {
		parsed, err := time.ParseInLocation(dateLayout, req.RunDate, h.loc)
		if err != nil {
			respondBadRequest(c, "run_date must be YYYY-MM-DD")
			return
		}
		runDate = parsed
	}

	result, err := h.payoutService.RunWeeklyBatch(c.Request.Context(), runDate)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusCreated, newPayoutBatchResponse(result.Batch, result.Payouts))
}

// GetBatches handles GET /v1/payouts/batches
func (h *PayoutHandler) GetBatches(c *gin.Context) {
	limit, _ := pageParams(c)
	batches, err := h.payoutService.ListBatches(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]PayoutBatchResponse, 0, len(batches))
	for _, b := range batches {
		resp = append(resp, newPayoutBatchResponse(b, nil))
	}
	respondJSON(c, http.StatusOK, resp)
}

// GetBatch handles GET /v1/payouts/batches/:id
func (h *PayoutHandler) GetBatch(c *gin.Context) {
	result, err := h.payoutService.GetBatch(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, newPayoutBatchResponse(result.Batch, result.Payouts))
}

// GetMine handles GET /v1/payouts/me
func (h *PayoutHandler) GetMine(c *gin.Context) {
	payouts, err := h.payoutService.ListMyPayouts(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, mapSlice(payouts, newPayoutResponse))
}
