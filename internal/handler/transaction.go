package handler

import (
	"net/http"

	contextPkg "github.com/cradoe/quickcred/internal/context"
	"github.com/cradoe/quickcred/internal/errHandler"
	"github.com/cradoe/quickcred/internal/response"
)

type TransactionHandler struct {
	Loans      LoanService
	ErrHandler *errHandler.ErrorRepository
}

func NewTransactionHandler(handler *TransactionHandler) *TransactionHandler {
	return &TransactionHandler{
		Loans:      handler.Loans,
		ErrHandler: handler.ErrHandler,
	}
}

// HandleTransactionHistory returns the caller's ledger entries, newest
// first, optionally narrowed with start_date, end_date, limit and page.
func (h *TransactionHandler) HandleTransactionHistory(w http.ResponseWriter, r *http.Request) {
	user := contextPkg.ContextGetAuthenticatedUser(r)
	queryValues := retrieveUrlQueryValues(r)

	txs, err := h.Loans.TransactionHistory(r.Context(), user.ID)
	if err != nil {
		h.ErrHandler.LendingError(w, r, err)
		return
	}

	data := transactionResponse(filterTransactions(txs, queryValues))

	err = response.JSONOkResponse(w, data, "", nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}
