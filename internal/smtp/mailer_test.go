package smtp

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"
)

type mockClient struct {
	mock.Mock
}

func (m *mockClient) DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error {
	args := m.Called(ctx, messages)
	return args.Error(0)
}

func loanData() map[string]any {
	return map[string]any{
		"BaseURL":  "http://localhost",
		"Name":     "Rajesh Kumar",
		"LoanID":   "0f4a",
		"Amount":   decimal.NewFromInt(5000),
		"Currency": "INR",
	}
}

func TestSend_RendersTemplate(t *testing.T) {
	client := new(mockClient)
	client.On("DialAndSendWithContext", mock.Anything, mock.MatchedBy(func(msgs []*mail.Msg) bool {
		if len(msgs) != 1 {
			return false
		}
		subject := msgs[0].GetGenHeader(mail.HeaderSubject)
		return len(subject) == 1 && subject[0] == "Your loan has been funded"
	})).Return(nil).Once()

	m := NewMailerWithClient(client, "QuickCred <no_reply@example.org>")
	err := m.Send(context.Background(), "rajesh@example.com", loanData(), "loan-funded.tmpl")
	require.NoError(t, err)

	client.AssertExpectations(t)
}

func TestSend_RetriesThenFails(t *testing.T) {
	client := new(mockClient)
	client.On("DialAndSendWithContext", mock.Anything, mock.Anything).Return(errors.New("connection refused")).Times(sendAttempts)

	m := NewMailerWithClient(client, "QuickCred <no_reply@example.org>")
	m.retryDelay = 0

	err := m.Send(context.Background(), "rajesh@example.com", loanData(), "loan-repaid.tmpl")
	assert.EqualError(t, err, "connection refused")

	client.AssertExpectations(t)
}

func TestSend_InvalidRecipient(t *testing.T) {
	client := new(mockClient)
	m := NewMailerWithClient(client, "QuickCred <no_reply@example.org>")

	err := m.Send(context.Background(), "not an address", loanData(), "loan-defaulted.tmpl")
	assert.Error(t, err)
	client.AssertNotCalled(t, "DialAndSendWithContext", mock.Anything, mock.Anything)
}
