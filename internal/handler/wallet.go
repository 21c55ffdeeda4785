package handler

import (
	"context"
	"net/http"

	contextPkg "github.com/cradoe/quickcred/internal/context"
	"github.com/cradoe/quickcred/internal/errHandler"
	"github.com/cradoe/quickcred/internal/helper"
	"github.com/cradoe/quickcred/internal/models"
	"github.com/cradoe/quickcred/internal/repository"
	"github.com/cradoe/quickcred/internal/request"
	"github.com/cradoe/quickcred/internal/response"
	"github.com/shopspring/decimal"
)

type WalletHandler struct {
	Wallet       WalletService
	ActivityRepo repository.ActivityRepository
	Helper       helper.HelperInterface
	ErrHandler   *errHandler.ErrorRepository
}

func NewWalletHandler(handler *WalletHandler) *WalletHandler {
	return &WalletHandler{
		Wallet:       handler.Wallet,
		ActivityRepo: handler.ActivityRepo,
		Helper:       handler.Helper,
		ErrHandler:   handler.ErrHandler,
	}
}

type walletAmountInput struct {
	Amount decimal.Decimal `json:"amount"`
}

func (h *WalletHandler) logActivity(r *http.Request, userID, description string) {
	h.Helper.BackgroundTask(r, func() error {
		_, err := h.ActivityRepo.Insert(context.Background(), &models.ActivityLog{
			UserID:      userID,
			Entity:      models.ActivityLogWalletEntity,
			EntityId:    userID,
			Description: description,
		})
		return err
	})
}

func (h *WalletHandler) HandleDeposit(w http.ResponseWriter, r *http.Request) {
	var input walletAmountInput

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	user := contextPkg.ContextGetAuthenticatedUser(r)

	balance, err := h.Wallet.Deposit(r.Context(), user.ID, input.Amount)
	if err != nil {
		h.ErrHandler.LendingError(w, r, err)
		return
	}

	h.logActivity(r, user.ID, WalletActivityLogDepositDescription)

	data := map[string]any{
		"amount":        input.Amount,
		"walletBalance": balance,
	}
	err = response.JSONOkResponse(w, data, "Wallet topped up successfully", nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *WalletHandler) HandleWithdraw(w http.ResponseWriter, r *http.Request) {
	var input walletAmountInput

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	user := contextPkg.ContextGetAuthenticatedUser(r)

	balance, err := h.Wallet.Withdraw(r.Context(), user.ID, input.Amount)
	if err != nil {
		h.ErrHandler.LendingError(w, r, err)
		return
	}

	h.logActivity(r, user.ID, WalletActivityLogWithdrawalDescription)

	data := map[string]any{
		"amount":        input.Amount,
		"walletBalance": balance,
	}
	err = response.JSONOkResponse(w, data, "Withdrawal successful", nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// HandleReconcile compares the caller's wallet balance with the balance
// implied by their ledger entries.
func (h *WalletHandler) HandleReconcile(w http.ResponseWriter, r *http.Request) {
	user := contextPkg.ContextGetAuthenticatedUser(r)

	result, err := h.Wallet.Reconcile(r.Context(), user.ID)
	if err != nil {
		h.ErrHandler.LendingError(w, r, err)
		return
	}

	err = response.JSONOkResponse(w, result, "", nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}
