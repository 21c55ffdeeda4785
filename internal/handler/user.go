package handler

import (
	"net/http"

	contextPkg "github.com/cradoe/quickcred/internal/context"
	"github.com/cradoe/quickcred/internal/errHandler"
	"github.com/cradoe/quickcred/internal/models"
	"github.com/cradoe/quickcred/internal/response"
)

type UserHandler struct {
	Loans      LoanService
	ErrHandler *errHandler.ErrorRepository
}

func NewUserHandler(handler *UserHandler) *UserHandler {
	return &UserHandler{
		Loans:      handler.Loans,
		ErrHandler: handler.ErrHandler,
	}
}

func (h *UserHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	user := contextPkg.ContextGetAuthenticatedUser(r)

	err := response.JSONOkResponse(w, userResponse(user), "", nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// HandleMyAnalytics returns the borrower or lender dashboard depending on the
// caller's role.
func (h *UserHandler) HandleMyAnalytics(w http.ResponseWriter, r *http.Request) {
	user := contextPkg.ContextGetAuthenticatedUser(r)

	var (
		data any
		err  error
	)
	switch user.Role {
	case models.RoleLender:
		data, err = h.Loans.LenderAnalytics(r.Context(), user.ID)
	default:
		data, err = h.Loans.BorrowerAnalytics(r.Context(), user.ID)
	}
	if err != nil {
		h.ErrHandler.LendingError(w, r, err)
		return
	}

	err = response.JSONOkResponse(w, data, "", nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *UserHandler) HandlePlatformAnalytics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Loans.PlatformAnalytics(r.Context())
	if err != nil {
		h.ErrHandler.LendingError(w, r, err)
		return
	}

	err = response.JSONOkResponse(w, stats, "", nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}
