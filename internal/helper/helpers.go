package helper

import (
	"fmt"
	"net/http"
	"sync"
)

type ErrorReporter interface {
	ReportServerError(r *http.Request, err error)
}

type HelperInterface interface {
	NewEmailData() map[string]any
	BackgroundTask(r *http.Request, fn func() error)
}

type HelperRepository struct {
	baseUrl    string
	currency   string
	WG         *sync.WaitGroup
	errHandler ErrorReporter
}

func New(baseUrl, currency string, wg *sync.WaitGroup, errHandler ErrorReporter) *HelperRepository {
	return &HelperRepository{
		baseUrl:    baseUrl,
		currency:   currency,
		WG:         wg,
		errHandler: errHandler,
	}
}

func (h *HelperRepository) NewEmailData() map[string]any {
	data := map[string]any{
		"BaseURL":  h.baseUrl,
		"Currency": h.currency,
	}

	return data
}

// BackgroundTask runs fn in its own goroutine, tracked by WG so shutdown can
// wait for it. Panics and errors are reported, never propagated.
func (h *HelperRepository) BackgroundTask(r *http.Request, fn func() error) {
	h.WG.Add(1)

	go func() {
		defer h.WG.Done()

		defer func() {
			if err := recover(); err != nil {
				h.report(r, fmt.Errorf("%s", err))
			}
		}()

		if err := fn(); err != nil {
			h.report(r, err)
		}
	}()
}

func (h *HelperRepository) report(r *http.Request, err error) {
	if h.errHandler != nil {
		h.errHandler.ReportServerError(r, err)
	}
}
