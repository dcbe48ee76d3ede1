package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cargo/internal/service"
)

// WalletHandler handles HTTP requests for driver wallets.
type WalletHandler struct {
	walletService *service.WalletService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletService *service.WalletService) *WalletHandler {
	return &WalletHandler{walletService: walletService}
}

func newWalletResponse(s *service.WalletSummary) WalletResponse {
	return WalletResponse{
		ID:               s.Wallet.ID,
		DriverID:         s.Wallet.DriverID,
		Balance:          s.Wallet.Balance.StringFixed(2),
		Withdrawable:     s.Buckets.Withdrawable.StringFixed(2),
		NextPayoutDate:   formatDate(s.Buckets.NextPayoutDate),
		NextPayoutAmount: s.Buckets.NextPayoutAmount.StringFixed(2),
		Pending:          s.Buckets.Pending.StringFixed(2),
	}
}

// Get handles GET /v1/wallet
func (h *WalletHandler) Get(c *gin.Context) {
	summary, err := h.walletService.GetSummary(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, newWalletResponse(summary))
}

// GetTransactions handles GET /v1/wallet/transactions
func (h *WalletHandler) GetTransactions(c *gin.Context) {
	limit, offset := pageParams(c)
	txns, err := h.walletService.ListTransactions(c.Request.Context(), actorFrom(c), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, mapSlice(txns, newTransactionResponse))
}
