package app

import (
	"net/http"

	"github.com/cradoe/quickcred/internal/handler"
	"github.com/cradoe/quickcred/internal/middleware"
	"github.com/cradoe/quickcred/internal/models"
	"github.com/gorilla/mux"
)

func (app *Application) routes() http.Handler {
	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(app.errorHandler.NotFound)
	router.MethodNotAllowedHandler = http.HandlerFunc(app.errorHandler.MethodNotAllowed)

	middlewareRepo := middleware.New(app.errorHandler, app.Logger, app.DB.User(), app.Config)

	healthHandler := handler.NewHealthCheckHandler(app.DB, app.errorHandler)
	authHandler := handler.NewAuthHandler(&handler.AuthHandler{
		UserRepo:     app.DB.User(),
		ActivityRepo: app.DB.Activity(),
		Helper:       app.helper,
		Mailer:       app.Mailer,
		Config:       app.Config,
		ErrHandler:   app.errorHandler,
	})
	userHandler := handler.NewUserHandler(&handler.UserHandler{
		Loans:      app.Engine,
		ErrHandler: app.errorHandler,
	})
	loanHandler := handler.NewLoanHandler(&handler.LoanHandler{
		Loans:        app.Engine,
		ActivityRepo: app.DB.Activity(),
		Helper:       app.helper,
		ErrHandler:   app.errorHandler,
	})
	walletHandler := handler.NewWalletHandler(&handler.WalletHandler{
		Wallet:       app.Wallet,
		ActivityRepo: app.DB.Activity(),
		Helper:       app.helper,
		ErrHandler:   app.errorHandler,
	})
	transactionHandler := handler.NewTransactionHandler(&handler.TransactionHandler{
		Loans:      app.Engine,
		ErrHandler: app.errorHandler,
	})

	authed := func(fn http.HandlerFunc) http.Handler {
		return middlewareRepo.RequireAuthenticatedUser(fn)
	}
	borrowerOnly := func(fn http.HandlerFunc) http.Handler {
		return middlewareRepo.RequireRole(models.RoleBorrower, fn)
	}

	// funding and repayment leave the role check to the engine so a missing
	// loan is reported before a wrong role
	router.HandleFunc("/status", healthHandler.HandleHealthCheck).Methods(http.MethodGet)

	router.HandleFunc("/auth/register", authHandler.HandleAuthRegister).Methods(http.MethodPost)
	router.HandleFunc("/auth/login", authHandler.HandleAuthLogin).Methods(http.MethodPost)

	router.Handle("/users/me", authed(userHandler.HandleProfile)).Methods(http.MethodGet)
	router.Handle("/analytics/me", authed(userHandler.HandleMyAnalytics)).Methods(http.MethodGet)
	router.Handle("/analytics/platform", authed(userHandler.HandlePlatformAnalytics)).Methods(http.MethodGet)

	router.Handle("/loans", borrowerOnly(loanHandler.HandleCreateLoan)).Methods(http.MethodPost)
	router.Handle("/loans/pending", authed(loanHandler.HandleListPendingLoans)).Methods(http.MethodGet)
	router.Handle("/loans/mine", authed(loanHandler.HandleListMyLoans)).Methods(http.MethodGet)
	router.Handle("/loans/analytics", authed(loanHandler.HandleLoanAnalytics)).Methods(http.MethodGet)
	router.Handle("/loans/{id}", authed(loanHandler.HandleGetLoan)).Methods(http.MethodGet)
	router.Handle("/loans/{id}/transactions", authed(loanHandler.HandleLoanTransactions)).Methods(http.MethodGet)
	router.Handle("/loans/{id}/fund", authed(loanHandler.HandleFundLoan)).Methods(http.MethodPost)
	router.Handle("/loans/{id}/repay", authed(loanHandler.HandleRepayLoan)).Methods(http.MethodPost)

	router.Handle("/wallet/deposit", authed(walletHandler.HandleDeposit)).Methods(http.MethodPost)
	router.Handle("/wallet/withdraw", authed(walletHandler.HandleWithdraw)).Methods(http.MethodPost)
	router.Handle("/wallet/reconcile", authed(walletHandler.HandleReconcile)).Methods(http.MethodGet)

	router.Handle("/transactions", authed(transactionHandler.HandleTransactionHistory)).Methods(http.MethodGet)

	return middlewareRepo.LogAccess(middlewareRepo.RecoverPanic(middlewareRepo.Authenticate(router)))
}
