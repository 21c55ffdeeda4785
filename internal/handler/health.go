package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/cradoe/quickcred/internal/errHandler"
	"github.com/cradoe/quickcred/internal/response"
	"github.com/cradoe/quickcred/internal/version"
)

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type healthCheckHandler struct {
	db  Pinger
	err *errHandler.ErrorRepository
}

func NewHealthCheckHandler(db Pinger, err *errHandler.ErrorRepository) *healthCheckHandler {
	return &healthCheckHandler{
		db:  db,
		err: err,
	}
}

func (app *healthCheckHandler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := app.db.Ping(ctx); err != nil {
		app.err.ServerError(w, r, err)
		return
	}

	data := map[string]any{
		"version": version.Get(),
	}
	err := response.JSONOkResponse(w, data, "Up and grateful", nil)
	if err != nil {
		app.err.ServerError(w, r, err)
	}
}
