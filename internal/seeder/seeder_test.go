package seeders

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/cradoe/gopass"
	"github.com/cradoe/quickcred/internal/lending"
	"github.com/cradoe/quickcred/internal/models"
	"github.com/cradoe/quickcred/internal/repository/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSeeder(t *testing.T) (*memory.Store, *lending.WalletLedger, *Seeder) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.New()
	wallet := lending.NewWalletLedger(store, logger, nil)
	engine, err := lending.NewEngine(store, wallet, lending.Options{
		Rates:  lending.DefaultRates(),
		Limits: lending.DefaultLimits(),
		Logger: logger,
	})
	require.NoError(t, err)

	return store, wallet, New(&Seeder{DB: store, Wallet: wallet, Engine: engine, Logger: logger})
}

func TestSeeder_Run(t *testing.T) {
	store, wallet, seeder := newTestSeeder(t)
	ctx := context.Background()

	require.NoError(t, seeder.Run())

	rajesh, found, err := store.User().GetByEmail(ctx, "rajesh@example.com")
	require.NoError(t, err)
	require.True(t, found)

	ok, err := gopass.ComparePasswordAndHash(DemoPassword, rajesh.HashedPassword)
	require.NoError(t, err)
	assert.True(t, ok)

	// 5000 deposited, 2000 over 2 months repaid with 188 interest
	assert.True(t, rajesh.WalletBalance.Equal(decimal.NewFromInt(2812)), rajesh.WalletBalance.String())

	loans, err := store.Loan().ListByBorrower(ctx, rajesh.ID)
	require.NoError(t, err)
	statuses := map[models.LoanStatus]int{}
	for _, l := range loans {
		statuses[l.Status]++
	}
	assert.Equal(t, map[models.LoanStatus]int{models.LoanStatusFunded: 1, models.LoanStatusRepaid: 1}, statuses)

	pending, err := store.Loan().ListByStatus(ctx, models.LoanStatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "Amit Singh", pending[0].BorrowerName)

	for _, email := range []string{"rajesh@example.com", "sunita@example.com", "vikram@example.com"} {
		u, _, err := store.User().GetByEmail(ctx, email)
		require.NoError(t, err)

		rec, err := wallet.Reconcile(ctx, u.ID)
		require.NoError(t, err)
		assert.True(t, rec.Balanced, email)
	}
}

func TestSeeder_RunTwice(t *testing.T) {
	store, _, seeder := newTestSeeder(t)

	require.NoError(t, seeder.Run())
	require.NoError(t, seeder.Run())

	counts, err := store.User().CountByRole(context.Background())
	require.NoError(t, err)

	total := 0
	for _, c := range counts {
		total += c.Count
	}
	assert.Equal(t, len(demoUsers), total)
}
