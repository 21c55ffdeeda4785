package handler

import (
	"context"
	"net/http"

	contextPkg "github.com/cradoe/quickcred/internal/context"
	"github.com/cradoe/quickcred/internal/errHandler"
	"github.com/cradoe/quickcred/internal/helper"
	"github.com/cradoe/quickcred/internal/lending"
	"github.com/cradoe/quickcred/internal/models"
	"github.com/cradoe/quickcred/internal/repository"
	"github.com/cradoe/quickcred/internal/request"
	"github.com/cradoe/quickcred/internal/response"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

type LoanHandler struct {
	Loans        LoanService
	ActivityRepo repository.ActivityRepository
	Helper       helper.HelperInterface
	ErrHandler   *errHandler.ErrorRepository
}

func NewLoanHandler(handler *LoanHandler) *LoanHandler {
	return &LoanHandler{
		Loans:        handler.Loans,
		ActivityRepo: handler.ActivityRepo,
		Helper:       handler.Helper,
		ErrHandler:   handler.ErrHandler,
	}
}

func (h *LoanHandler) logActivity(r *http.Request, userID, loanID, description string) {
	h.Helper.BackgroundTask(r, func() error {
		_, err := h.ActivityRepo.Insert(context.Background(), &models.ActivityLog{
			UserID:      userID,
			Entity:      models.ActivityLogLoanEntity,
			EntityId:    loanID,
			Description: description,
		})
		return err
	})
}

func (h *LoanHandler) HandleCreateLoan(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Amount     decimal.Decimal `json:"amount"`
		TermMonths int             `json:"term_months"`
		Purpose    string          `json:"purpose"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	user := contextPkg.ContextGetAuthenticatedUser(r)

	loan, err := h.Loans.CreateLoan(r.Context(), lending.CreateLoanInput{
		BorrowerID: user.ID,
		Amount:     input.Amount,
		TermMonths: input.TermMonths,
		Purpose:    input.Purpose,
	})
	if err != nil {
		h.ErrHandler.LendingError(w, r, err)
		return
	}

	h.logActivity(r, user.ID, loan.ID, LoanActivityLogCreatedDescription)

	err = response.JSONCreatedResponse(w, lending.NewLoanView(*loan), "Loan request created successfully")
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *LoanHandler) HandleListPendingLoans(w http.ResponseWriter, r *http.Request) {
	loans, err := h.Loans.ListPendingLoans(r.Context())
	if err != nil {
		h.ErrHandler.LendingError(w, r, err)
		return
	}

	err = response.JSONOkResponse(w, loans, "", nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// HandleListMyLoans returns the loans a borrower requested or a lender funded.
func (h *LoanHandler) HandleListMyLoans(w http.ResponseWriter, r *http.Request) {
	user := contextPkg.ContextGetAuthenticatedUser(r)

	var (
		loans []lending.LoanView
		err   error
	)
	if user.Role == models.RoleLender {
		loans, err = h.Loans.ListLoansByLender(r.Context(), user.ID)
	} else {
		loans, err = h.Loans.ListLoansByBorrower(r.Context(), user.ID)
	}
	if err != nil {
		h.ErrHandler.LendingError(w, r, err)
		return
	}

	err = response.JSONOkResponse(w, loans, "", nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *LoanHandler) HandleLoanAnalytics(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Loans.LoanAnalytics(r.Context())
	if err != nil {
		h.ErrHandler.LendingError(w, r, err)
		return
	}

	err = response.JSONOkResponse(w, summary, "", nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *LoanHandler) HandleGetLoan(w http.ResponseWriter, r *http.Request) {
	loanID := mux.Vars(r)["id"]

	loan, err := h.Loans.GetLoan(r.Context(), loanID)
	if err != nil {
		h.ErrHandler.LendingError(w, r, err)
		return
	}

	err = response.JSONOkResponse(w, loan, "", nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// HandleLoanTransactions lists a loan's ledger entries. Only the loan's
// borrower and lender may see them.
func (h *LoanHandler) HandleLoanTransactions(w http.ResponseWriter, r *http.Request) {
	loanID := mux.Vars(r)["id"]
	user := contextPkg.ContextGetAuthenticatedUser(r)

	txs, err := h.Loans.LoanTransactions(r.Context(), loanID, user.ID)
	if err != nil {
		h.ErrHandler.LendingError(w, r, err)
		return
	}

	err = response.JSONOkResponse(w, transactionResponse(txs), "", nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *LoanHandler) HandleFundLoan(w http.ResponseWriter, r *http.Request) {
	loanID := mux.Vars(r)["id"]
	user := contextPkg.ContextGetAuthenticatedUser(r)

	loan, err := h.Loans.FundLoan(r.Context(), loanID, user.ID)
	if err != nil {
		h.ErrHandler.LendingError(w, r, err)
		return
	}

	h.logActivity(r, user.ID, loan.ID, LoanActivityLogFundedDescription)

	err = response.JSONOkResponse(w, lending.NewLoanView(*loan), "Loan funded successfully", nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *LoanHandler) HandleRepayLoan(w http.ResponseWriter, r *http.Request) {
	loanID := mux.Vars(r)["id"]
	user := contextPkg.ContextGetAuthenticatedUser(r)

	result, err := h.Loans.RepayLoan(r.Context(), loanID, user.ID)
	if err != nil {
		h.ErrHandler.LendingError(w, r, err)
		return
	}

	h.logActivity(r, user.ID, result.LoanID, LoanActivityLogRepaidDescription)

	err = response.JSONOkResponse(w, result, "Loan repaid successfully", nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}
