package request

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type loanInput struct {
	Amount     decimal.Decimal `json:"amount"`
	TermMonths int             `json:"term_months"`
}

func decode(body string, lax bool) (loanInput, error) {
	var in loanInput
	r := httptest.NewRequest(http.MethodPost, "/loans", strings.NewReader(body))
	w := httptest.NewRecorder()
	if lax {
		return in, DecodeJSONLax(w, r, &in)
	}
	return in, DecodeJSON(w, r, &in)
}

func TestDecodeJSON(t *testing.T) {
	in, err := decode(`{"amount": "5000.50", "term_months": 3}`, false)
	require.NoError(t, err)
	assert.Equal(t, "5000.5", in.Amount.String())
	assert.Equal(t, 3, in.TermMonths)

	in, err = decode(`{"amount": 700, "term_months": 1}`, false)
	require.NoError(t, err)
	assert.Equal(t, "700", in.Amount.String())
}

func TestDecodeJSON_Errors(t *testing.T) {
	tests := map[string]string{
		"":                                     "body must not be empty",
		`{"amount": `:                          "body contains badly-formed JSON",
		`{"term_months": "three"}`:             `body contains incorrect JSON type for field "term_months"`,
		`{"purpose": "x"}`:                     `body contains unknown key "purpose"`,
		`{"term_months": 1}{"term_months": 2}`: "body must only contain a single JSON value",
	}

	for body, want := range tests {
		_, err := decode(body, false)
		require.Error(t, err, body)
		assert.Equal(t, want, err.Error(), body)
	}

	_, err := decode(`{"purpose": "x"}`, true)
	assert.NoError(t, err)
}
