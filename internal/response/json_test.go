package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONOkResponse_SnakeCasesMapKeys(t *testing.T) {
	rr := httptest.NewRecorder()

	err := JSONOkResponse(rr, map[string]any{"walletBalance": "10", "nested": map[string]any{"loanID": "x"}}, "", nil)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var body Response[map[string]any]
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "Request successful", body.Message)
	assert.Contains(t, body.Data, "wallet_balance")
	assert.Contains(t, body.Data["nested"], "loan_id")
}

func TestJSONErrorResponse_DefaultsToServerError(t *testing.T) {
	rr := httptest.NewRecorder()

	require.NoError(t, JSONErrorResponse(rr, nil, "", 0, nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestMetricsResponseWriter(t *testing.T) {
	rr := httptest.NewRecorder()
	mw := NewMetricsResponseWriter(rr)

	mw.WriteHeader(http.StatusCreated)
	_, err := mw.Write([]byte("hello"))
	require.NoError(t, err)

	assert.Equal(t, http.StatusCreated, mw.StatusCode)
	assert.Equal(t, 5, mw.BytesCount)
}
