// Package seeders loads demo borrowers, lenders and loans into an empty
// ledger. Every balance and loan goes through the wallet ledger and the
// lending engine so the demo ledger reconciles like real data.
package seeders

import (
	"context"
	"log/slog"
	"time"

	"github.com/cradoe/gopass"
	"github.com/cradoe/quickcred/internal/lending"
	"github.com/cradoe/quickcred/internal/models"
	"github.com/cradoe/quickcred/internal/repository"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const defaultTimeout = 30 * time.Second

// DemoPassword is the password of every demo account.
const DemoPassword = "password123"

type Seeder struct {
	DB     repository.Database
	Wallet *lending.WalletLedger
	Engine *lending.Engine
	Logger *slog.Logger
}

func New(seeder *Seeder) *Seeder {
	logger := seeder.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{
		DB:     seeder.DB,
		Wallet: seeder.Wallet,
		Engine: seeder.Engine,
		Logger: logger,
	}
}

type demoUser struct {
	name    string
	email   string
	role    models.Role
	deposit int64
}

var demoUsers = []demoUser{
	{"Rajesh Kumar", "rajesh@example.com", models.RoleBorrower, 5000},
	{"Priya Sharma", "priya@example.com", models.RoleBorrower, 3000},
	{"Amit Singh", "amit@example.com", models.RoleBorrower, 2000},
	{"Dr. Sunita Patel", "sunita@example.com", models.RoleLender, 50000},
	{"Mr. Vikram Mehta", "vikram@example.com", models.RoleLender, 75000},
}

type demoLoan struct {
	borrower string
	lender   string
	amount   int64
	term     int
	purpose  string
	repay    bool
}

var demoLoans = []demoLoan{
	{"rajesh@example.com", "sunita@example.com", 5000, 3, "Education expenses", false},
	{"priya@example.com", "vikram@example.com", 8000, 6, "Medical emergency", false},
	{"amit@example.com", "", 3000, 1, "Short-term cash flow", false},
	{"rajesh@example.com", "vikram@example.com", 2000, 2, "Business expansion", true},
}

// Run seeds the demo data once. It does nothing when the first demo user
// already exists.
func (seeder *Seeder) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	_, found, err := seeder.DB.User().GetByEmail(ctx, demoUsers[0].email)
	if err != nil {
		return errors.Wrap(err, "check demo data")
	}
	if found {
		seeder.Logger.Info("demo data already present, skipping seed")
		return nil
	}

	hashedPassword, err := gopass.Hash(DemoPassword)
	if err != nil {
		return errors.Wrap(err, "hash demo password")
	}

	ids := make(map[string]string, len(demoUsers))
	for _, u := range demoUsers {
		id, err := seeder.DB.User().Insert(ctx, &models.User{
			Name:           u.name,
			Email:          u.email,
			HashedPassword: hashedPassword,
			Role:           u.role,
			WalletBalance:  decimal.Zero,
		})
		if err != nil {
			return errors.Wrapf(err, "insert demo user %s", u.email)
		}

		if _, err := seeder.Wallet.Deposit(ctx, id, decimal.NewFromInt(u.deposit)); err != nil {
			return errors.Wrapf(err, "fund demo wallet %s", u.email)
		}
		ids[u.email] = id
	}

	for _, l := range demoLoans {
		loan, err := seeder.Engine.CreateLoan(ctx, lending.CreateLoanInput{
			BorrowerID: ids[l.borrower],
			Amount:     decimal.NewFromInt(l.amount),
			TermMonths: l.term,
			Purpose:    l.purpose,
		})
		if err != nil {
			return errors.Wrapf(err, "create demo loan %q", l.purpose)
		}

		if l.lender == "" {
			continue
		}
		if _, err := seeder.Engine.FundLoan(ctx, loan.ID, ids[l.lender]); err != nil {
			return errors.Wrapf(err, "fund demo loan %q", l.purpose)
		}

		if !l.repay {
			continue
		}
		if _, err := seeder.Engine.RepayLoan(ctx, loan.ID, ids[l.borrower]); err != nil {
			return errors.Wrapf(err, "repay demo loan %q", l.purpose)
		}
	}

	seeder.Logger.Info("demo data seeded", "users", len(demoUsers), "loans", len(demoLoans))
	return nil
}
