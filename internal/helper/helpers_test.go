package helper

import (
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingReporter struct {
	mu   sync.Mutex
	errs []error
}

func (r *recordingReporter) ReportServerError(_ *http.Request, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func TestBackgroundTask_ReportsErrorsAndPanics(t *testing.T) {
	var wg sync.WaitGroup
	reporter := &recordingReporter{}
	h := New("http://localhost", "INR", &wg, reporter)

	h.BackgroundTask(nil, func() error { return errors.New("send failed") })
	h.BackgroundTask(nil, func() error { panic("boom") })
	h.BackgroundTask(nil, func() error { return nil })

	wg.Wait()

	assert.Len(t, reporter.errs, 2)
}

func TestNewEmailData(t *testing.T) {
	h := New("http://localhost", "INR", &sync.WaitGroup{}, nil)

	data := h.NewEmailData()
	assert.Equal(t, "http://localhost", data["BaseURL"])
	assert.Equal(t, "INR", data["Currency"])
}
