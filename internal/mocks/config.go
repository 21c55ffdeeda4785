package mocks

import (
	"time"

	"github.com/cradoe/quickcred/internal/config"
	"github.com/cradoe/quickcred/internal/lending"
)

// NewMockConfig returns a configuration for tests that never reaches out to
// Postgres, Redis, Kafka or SMTP.
func NewMockConfig() *config.Config {
	cfg := &config.Config{
		BaseURL:  "http://localhost",
		HttpPort: 8080,
		Currency: "INR",
	}

	cfg.Db.Driver = "memory"
	cfg.Jwt.SecretKey = "test_secret"
	cfg.Jwt.TTL = time.Hour
	cfg.Smtp.Host = "smtp.example.com"
	cfg.Smtp.Port = 587
	cfg.Smtp.From = "no-reply@example.com"

	rates := lending.DefaultRates()
	cfg.Lending.InterestRate = rates.InterestRate
	cfg.Lending.LenderReturnRate = rates.LenderReturnRate
	cfg.Lending.PlatformMarginRate = rates.PlatformMarginRate

	limits := lending.DefaultLimits()
	cfg.Lending.MinAmount = limits.MinAmount
	cfg.Lending.MaxAmount = limits.MaxAmount
	cfg.Lending.MinTermMonths = limits.MinTermMonths
	cfg.Lending.MaxTermMonths = limits.MaxTermMonths

	return cfg
}
