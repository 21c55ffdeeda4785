package funcs

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatMoney(t *testing.T) {
	out := FormatMoney("USD", decimal.RequireFromString("5705"))
	assert.Contains(t, out, "5,705.00")

	out = FormatMoney("???", decimal.RequireFromString("12.5"))
	assert.Equal(t, "??? 12.50", out)
}

func TestPluralize(t *testing.T) {
	s, err := pluralize(1, "loan", "loans")
	require.NoError(t, err)
	assert.Equal(t, "loan", s)

	s, err = pluralize(3, "loan", "loans")
	require.NoError(t, err)
	assert.Equal(t, "loans", s)

	_, err = pluralize("x", "loan", "loans")
	assert.Error(t, err)
}
