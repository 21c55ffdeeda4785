package mocks

import (
	"log"
	"net/http"
)

// MockHelper runs background tasks inline so tests can assert on their
// effects as soon as the handler returns.
type MockHelper struct {
	BaseURL string
}

func (m *MockHelper) NewEmailData() map[string]any {
	return map[string]any{
		"BaseURL":  m.BaseURL,
		"Currency": "INR",
	}
}

func (m *MockHelper) BackgroundTask(r *http.Request, fn func() error) {
	if err := fn(); err != nil {
		log.Printf("Background task error: %v", err)
	}
}
