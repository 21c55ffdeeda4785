// Package memory is an in-process implementation of repository.Database.
//
// It backs the test suites and the DB_DRIVER=memory mode. Transactions are
// serialized behind one mutex; a failed unit of work restores the snapshot
// taken when it began.
package memory

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cradoe/quickcred/internal/models"
	"github.com/cradoe/quickcred/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type state struct {
	users        map[string]models.User
	loans        map[string]models.Loan
	transactions []models.Transaction
	activities   []models.ActivityLog
}

func (s *state) clone() *state {
	c := &state{
		users:        make(map[string]models.User, len(s.users)),
		loans:        make(map[string]models.Loan, len(s.loans)),
		transactions: append([]models.Transaction(nil), s.transactions...),
		activities:   append([]models.ActivityLog(nil), s.activities...),
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.loans {
		c.loans[k] = v
	}
	return c
}

type Store struct {
	mu    sync.Mutex
	state *state
	now   func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{
		state: &state{
			users: map[string]models.User{},
			loans: map[string]models.Loan{},
		},
		now: func() time.Time { return time.Now().UTC() },
	}
}

var _ repository.Database = (*Store)(nil)

// scope carries whether the caller already holds the store mutex.
type scope struct {
	store *Store
	held  bool
}

func (sc scope) do(fn func(st *state) error) error {
	if !sc.held {
		sc.store.mu.Lock()
		defer sc.store.mu.Unlock()
	}
	return fn(sc.store.state)
}

func (s *Store) User() repository.UserRepository { return userRepo{scope{store: s}} }
func (s *Store) Loan() repository.LoanRepository { return loanRepo{scope{store: s}} }
func (s *Store) Transaction() repository.TransactionRepository {
	return transactionRepo{scope{store: s}}
}
func (s *Store) Activity() repository.ActivityRepository { return activityRepo{scope{store: s}} }

func (s *Store) WithinTx(ctx context.Context, _ *sql.TxOptions, fn func(r repository.Repos) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	defer func() {
		if p := recover(); p != nil {
			s.state = snapshot
			panic(p)
		}
		if err != nil {
			s.state = snapshot
		}
	}()

	sc := scope{store: s, held: true}
	return fn(repository.Repos{
		User:        userRepo{sc},
		Loan:        loanRepo{sc},
		Transaction: transactionRepo{sc},
	})
}

func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }
func (s *Store) Close() error                   { return nil }

type userRepo struct{ scope }

func (r userRepo) Insert(_ context.Context, user *models.User) (string, error) {
	err := r.do(func(st *state) error {
		for _, u := range st.users {
			if strings.EqualFold(u.Email, user.Email) {
				return repository.ErrDuplicateEmail
			}
		}
		if user.ID == "" {
			user.ID = uuid.NewString()
		}
		now := r.store.now()
		user.CreatedAt, user.UpdatedAt = now, now
		st.users[user.ID] = *user
		return nil
	})
	if err != nil {
		return "", err
	}
	return user.ID, nil
}

func (r userRepo) GetOne(_ context.Context, id string) (*models.User, bool, error) {
	var found *models.User
	err := r.do(func(st *state) error {
		if u, ok := st.users[id]; ok {
			found = &u
		}
		return nil
	})
	return found, found != nil, err
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*models.User, bool, error) {
	var found *models.User
	err := r.do(func(st *state) error {
		for _, u := range st.users {
			if u.Email == email {
				found = &u
				break
			}
		}
		return nil
	})
	return found, found != nil, err
}

func (r userRepo) ApplyBalanceDelta(_ context.Context, id string, delta decimal.Decimal, at time.Time) (decimal.Decimal, bool, error) {
	var (
		balance decimal.Decimal
		applied bool
	)
	err := r.do(func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return nil
		}
		next := u.WalletBalance.Add(delta)
		if next.IsNegative() {
			return nil
		}
		u.WalletBalance = next
		u.UpdatedAt = at
		st.users[id] = u
		balance, applied = next, true
		return nil
	})
	return balance, applied, err
}

func (r userRepo) CountByRole(_ context.Context) ([]models.RoleCount, error) {
	counts := []models.RoleCount{}
	err := r.do(func(st *state) error {
		byRole := map[models.Role]int{}
		for _, u := range st.users {
			byRole[u.Role]++
		}
		for role, n := range byRole {
			counts = append(counts, models.RoleCount{Role: role, Count: n})
		}
		sort.Slice(counts, func(i, j int) bool { return counts[i].Role < counts[j].Role })
		return nil
	})
	return counts, err
}

type loanRepo struct{ scope }

func (r loanRepo) Insert(_ context.Context, loan *models.Loan) (string, error) {
	err := r.do(func(st *state) error {
		if loan.ID == "" {
			loan.ID = uuid.NewString()
		}
		now := r.store.now()
		loan.CreatedAt, loan.UpdatedAt = now, now
		st.loans[loan.ID] = *loan
		return nil
	})
	if err != nil {
		return "", err
	}
	return loan.ID, nil
}

func (r loanRepo) GetOne(_ context.Context, id string) (*models.Loan, bool, error) {
	var found *models.Loan
	err := r.do(func(st *state) error {
		if l, ok := st.loans[id]; ok {
			found = &l
		}
		return nil
	})
	return found, found != nil, err
}

// GetForUpdate needs no extra locking here: a transaction holds the whole store.
func (r loanRepo) GetForUpdate(ctx context.Context, id string) (*models.Loan, bool, error) {
	return r.GetOne(ctx, id)
}

func (r loanRepo) MarkFunded(_ context.Context, id, lenderID string, fundedAt, dueDate time.Time) (bool, error) {
	applied := false
	err := r.do(func(st *state) error {
		l, ok := st.loans[id]
		if !ok || l.Status != models.LoanStatusPending {
			return nil
		}
		l.Status = models.LoanStatusFunded
		l.LenderID = sql.NullString{String: lenderID, Valid: true}
		l.FundedAt = sql.NullTime{Time: fundedAt, Valid: true}
		l.DueDate = sql.NullTime{Time: dueDate, Valid: true}
		l.UpdatedAt = fundedAt
		st.loans[id] = l
		applied = true
		return nil
	})
	return applied, err
}

func (r loanRepo) UpdateStatus(_ context.Context, id string, from, to models.LoanStatus, at time.Time) (bool, error) {
	applied := false
	err := r.do(func(st *state) error {
		l, ok := st.loans[id]
		if !ok || l.Status != from {
			return nil
		}
		l.Status = to
		l.UpdatedAt = at
		st.loans[id] = l
		applied = true
		return nil
	})
	return applied, err
}

func (r loanRepo) ListByStatus(_ context.Context, status models.LoanStatus) ([]models.LoanWithBorrower, error) {
	loans := []models.LoanWithBorrower{}
	err := r.do(func(st *state) error {
		for _, l := range st.loans {
			if l.Status != status {
				continue
			}
			item := models.LoanWithBorrower{Loan: l, BorrowerName: "Unknown", BorrowerEmail: "Unknown"}
			if u, ok := st.users[l.BorrowerID]; ok {
				item.BorrowerName, item.BorrowerEmail = u.Name, u.Email
			}
			loans = append(loans, item)
		}
		return nil
	})
	sort.SliceStable(loans, func(i, j int) bool { return loans[i].CreatedAt.After(loans[j].CreatedAt) })
	return loans, err
}

func (r loanRepo) filter(keep func(models.Loan) bool, less func(a, b models.Loan) bool) ([]models.Loan, error) {
	loans := []models.Loan{}
	err := r.do(func(st *state) error {
		for _, l := range st.loans {
			if keep(l) {
				loans = append(loans, l)
			}
		}
		return nil
	})
	sort.Slice(loans, func(i, j int) bool { return loans[i].ID < loans[j].ID })
	sort.SliceStable(loans, func(i, j int) bool { return less(loans[i], loans[j]) })
	return loans, err
}

func (r loanRepo) ListByBorrower(_ context.Context, borrowerID string) ([]models.Loan, error) {
	return r.filter(
		func(l models.Loan) bool { return l.BorrowerID == borrowerID },
		func(a, b models.Loan) bool { return a.CreatedAt.After(b.CreatedAt) },
	)
}

func (r loanRepo) ListByLender(_ context.Context, lenderID string) ([]models.Loan, error) {
	return r.filter(
		func(l models.Loan) bool { return l.LenderID.Valid && l.LenderID.String == lenderID },
		func(a, b models.Loan) bool { return a.FundedAt.Time.After(b.FundedAt.Time) },
	)
}

func (r loanRepo) ListOverdue(_ context.Context, now time.Time, limit int) ([]models.Loan, error) {
	loans, err := r.filter(
		func(l models.Loan) bool {
			return l.Status == models.LoanStatusFunded && l.DueDate.Valid && l.DueDate.Time.Before(now)
		},
		func(a, b models.Loan) bool { return a.DueDate.Time.Before(b.DueDate.Time) },
	)
	if limit > 0 && len(loans) > limit {
		loans = loans[:limit]
	}
	return loans, err
}

func (r loanRepo) SummaryByStatus(_ context.Context) ([]models.LoanStatusSummary, error) {
	summary := []models.LoanStatusSummary{}
	err := r.do(func(st *state) error {
		byStatus := map[models.LoanStatus]*models.LoanStatusSummary{}
		for _, l := range st.loans {
			s, ok := byStatus[l.Status]
			if !ok {
				s = &models.LoanStatusSummary{Status: l.Status}
				byStatus[l.Status] = s
			}
			s.Count++
			s.TotalAmount = s.TotalAmount.Add(l.Amount)
		}
		for _, s := range byStatus {
			summary = append(summary, *s)
		}
		return nil
	})
	sort.Slice(summary, func(i, j int) bool { return summary[i].Status < summary[j].Status })
	return summary, err
}

type transactionRepo struct{ scope }

func (r transactionRepo) Insert(_ context.Context, transaction *models.Transaction) (string, error) {
	err := r.do(func(st *state) error {
		if transaction.ID == "" {
			transaction.ID = uuid.NewString()
		}
		if transaction.Status == "" {
			transaction.Status = models.TransactionStatusCompleted
		}
		if transaction.CreatedAt.IsZero() {
			transaction.CreatedAt = r.store.now()
		}
		st.transactions = append(st.transactions, *transaction)
		return nil
	})
	if err != nil {
		return "", err
	}
	return transaction.ID, nil
}

// newestFirst walks entries in reverse insertion order, so ties on created_at
// still come out latest first.
func (r transactionRepo) newestFirst(keep func(models.Transaction) bool) ([]models.Transaction, error) {
	out := []models.Transaction{}
	err := r.do(func(st *state) error {
		for i := len(st.transactions) - 1; i >= 0; i-- {
			if keep(st.transactions[i]) {
				out = append(out, st.transactions[i])
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, err
}

func (r transactionRepo) ListByUser(_ context.Context, userID string) ([]models.Transaction, error) {
	return r.newestFirst(func(t models.Transaction) bool { return t.UserID == userID })
}

func (r transactionRepo) ListByLoan(_ context.Context, loanID string) ([]models.Transaction, error) {
	return r.newestFirst(func(t models.Transaction) bool { return t.LoanID.Valid && t.LoanID.String == loanID })
}

func (r transactionRepo) SummaryByType(_ context.Context) ([]models.TransactionTypeSummary, error) {
	summary := []models.TransactionTypeSummary{}
	err := r.do(func(st *state) error {
		byType := map[models.TransactionType]*models.TransactionTypeSummary{}
		for _, t := range st.transactions {
			s, ok := byType[t.Type]
			if !ok {
				s = &models.TransactionTypeSummary{Type: t.Type}
				byType[t.Type] = s
			}
			s.Count++
			s.TotalAmount = s.TotalAmount.Add(t.Amount)
		}
		for _, s := range byType {
			summary = append(summary, *s)
		}
		return nil
	})
	sort.Slice(summary, func(i, j int) bool { return summary[i].Type < summary[j].Type })
	return summary, err
}

func (r transactionRepo) TotalForUser(_ context.Context, userID string, txType models.TransactionType) (models.TypeTotal, error) {
	var total models.TypeTotal
	err := r.do(func(st *state) error {
		for _, t := range st.transactions {
			if t.UserID == userID && t.Type == txType {
				total.Count++
				total.TotalAmount = total.TotalAmount.Add(t.Amount)
			}
		}
		return nil
	})
	return total, err
}

type activityRepo struct{ scope }

func (r activityRepo) Insert(_ context.Context, log *models.ActivityLog) (*models.ActivityLog, error) {
	err := r.do(func(st *state) error {
		if log.ID == "" {
			log.ID = uuid.NewString()
		}
		log.CreatedAt = r.store.now()
		st.activities = append(st.activities, *log)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return log, nil
}

func (r activityRepo) ListByEntity(_ context.Context, entity, entityID string) ([]models.ActivityLog, error) {
	logs := []models.ActivityLog{}
	err := r.do(func(st *state) error {
		for i := len(st.activities) - 1; i >= 0; i-- {
			a := st.activities[i]
			if a.Entity == entity && a.EntityId == entityID {
				logs = append(logs, a)
			}
		}
		return nil
	})
	return logs, err
}
