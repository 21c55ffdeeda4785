package validator

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestValidator_Check(t *testing.T) {
	v := Validator{}
	v.Check(true, "never added")
	v.Check(false, "first")
	v.Check(NotBlank("  "), "name is required")

	assert.True(t, v.HasErrors())
	assert.Equal(t, []string{"first", "name is required"}, v.Errors)
}

func TestInRange(t *testing.T) {
	min, max := decimal.NewFromInt(500), decimal.NewFromInt(50000)

	assert.True(t, InRange(decimal.NewFromInt(500), min, max))
	assert.True(t, InRange(decimal.NewFromInt(50000), min, max))
	assert.False(t, InRange(decimal.NewFromInt(400), min, max))
	assert.False(t, InRange(decimal.RequireFromString("50000.01"), min, max))
}

func TestIsEmail(t *testing.T) {
	assert.True(t, IsEmail("rajesh@example.com"))
	assert.False(t, IsEmail("Rajesh <rajesh@example.com>"))
	assert.False(t, IsEmail("not-an-email"))
}

func TestPermittedValue(t *testing.T) {
	assert.True(t, PermittedValue("lender", "borrower", "lender"))
	assert.False(t, PermittedValue("admin", "borrower", "lender"))
}

func TestMaxDecimalPlaces(t *testing.T) {
	assert.True(t, MaxDecimalPlaces(decimal.RequireFromString("500.55"), 2))
	assert.True(t, MaxDecimalPlaces(decimal.RequireFromString("500.5500"), 2))
	assert.True(t, MaxDecimalPlaces(decimal.NewFromInt(500), 2))
	assert.False(t, MaxDecimalPlaces(decimal.RequireFromString("500.555"), 2))
	assert.False(t, MaxDecimalPlaces(decimal.RequireFromString("0.00005"), 2))
}
