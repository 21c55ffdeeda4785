package config

import (
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/cradoe/quickcred/internal/lending"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config values come from the environment, optionally seeded from a .env file.
// Defaults are for development only; make sure no production-level value is
// exposed as a default here.
type Config struct {
	BaseURL  string `env:"BASE_URL" envDefault:"http://localhost:4444"`
	HttpPort int    `env:"HTTP_PORT" envDefault:"4444"`
	// ISO 4217 code used when amounts are rendered in emails
	Currency string `env:"CURRENCY" envDefault:"INR"`

	Db struct {
		// Driver is postgres, or memory for local runs without a database
		Driver      string `env:"DB_DRIVER" envDefault:"postgres"`
		Dsn         string `env:"DB_DSN" envDefault:"user:pass@localhost:5432/quickcred?sslmode=disable"`
		Automigrate bool   `env:"DB_AUTOMIGRATE" envDefault:"true"`
	}

	Redis struct {
		// analytics are served uncached when Addr is empty
		Addr         string        `env:"REDIS_ADDR" envDefault:""`
		DB           int           `env:"REDIS_DB" envDefault:"0"`
		AnalyticsTTL time.Duration `env:"REDIS_ANALYTICS_TTL" envDefault:"5m"`
	}

	// loan events are not published when empty
	KafkaServers string `env:"KAFKA_SERVERS" envDefault:""`

	Jwt struct {
		SecretKey string        `env:"JWT_SECRET_KEY" envDefault:"ajf5nx3qmp6zquevllxocxqvyz42ypuo"`
		TTL       time.Duration `env:"JWT_TTL" envDefault:"24h"`
	}

	Notifications struct {
		// server errors won't be sent via email when empty
		Email string `env:"NOTIFICATIONS_EMAIL" envDefault:""`
	}

	Smtp struct {
		Host     string `env:"SMTP_HOST" envDefault:"example.smtp.host"`
		Port     int    `env:"SMTP_PORT" envDefault:"25"`
		Username string `env:"SMTP_USERNAME" envDefault:"example_username"`
		Password string `env:"SMTP_PASSWORD" envDefault:"pa55word"`
		From     string `env:"SMTP_FROM" envDefault:"QuickCred <no_reply@example.org>"`
	}

	Lending struct {
		InterestRate       decimal.Decimal `env:"LENDING_INTEREST_RATE" envDefault:"0.047"`
		LenderReturnRate   decimal.Decimal `env:"LENDING_LENDER_RETURN_RATE" envDefault:"0.02"`
		PlatformMarginRate decimal.Decimal `env:"LENDING_PLATFORM_MARGIN_RATE" envDefault:"0.027"`
		MinAmount          decimal.Decimal `env:"LENDING_MIN_AMOUNT" envDefault:"500"`
		MaxAmount          decimal.Decimal `env:"LENDING_MAX_AMOUNT" envDefault:"50000"`
		MinTermMonths      int             `env:"LENDING_MIN_TERM_MONTHS" envDefault:"1"`
		MaxTermMonths      int             `env:"LENDING_MAX_TERM_MONTHS" envDefault:"12"`
	}

	Sweep struct {
		Enabled  bool   `env:"SWEEP_ENABLED" envDefault:"true"`
		Schedule string `env:"SWEEP_SCHEDULE" envDefault:"@every 1h"`
		Workers  int    `env:"SWEEP_WORKERS" envDefault:"4"`
		Batch    int    `env:"SWEEP_BATCH" envDefault:"500"`
	}

	SeedDemoData bool `env:"SEED_DEMO_DATA" envDefault:"false"`
}

// Load reads .env when present and parses the environment into a Config.
// In production the variables are usually set directly, so a missing .env
// file is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Rates() lending.Rates {
	return lending.Rates{
		InterestRate:       c.Lending.InterestRate,
		LenderReturnRate:   c.Lending.LenderReturnRate,
		PlatformMarginRate: c.Lending.PlatformMarginRate,
	}
}

func (c *Config) Limits() lending.Limits {
	return lending.Limits{
		MinAmount:     c.Lending.MinAmount,
		MaxAmount:     c.Lending.MaxAmount,
		MinTermMonths: c.Lending.MinTermMonths,
		MaxTermMonths: c.Lending.MaxTermMonths,
	}
}
