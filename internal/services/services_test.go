package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

var fixedNow = time.Date(2026, 3, 15, 9, 30, 0, 0, time.UTC)

type recordingPublisher struct {
	mu     sync.Mutex
	events []core.TransactionEvent
	err    error
}

func (p *recordingPublisher) PublishTransactionEvent(_ context.Context, e core.TransactionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) actions() []core.EventAction {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]core.EventAction, len(p.events))
	for i, e := range p.events {
		out[i] = e.Action
	}
	return out
}

type testEnv struct {
	repo       *storage.SQLiteRepository
	publisher  *recordingPublisher
	tx         *TransactionService
	accounts   *AccountService
	categories *CategoryService
	reports    *ReportService
	user       core.User
	checking   core.Account
	savings    core.Account
	food       core.Category
	salary     core.Category
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger.db"))
	assert.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	e := &testEnv{
		repo:       repo,
		publisher:  &recordingPublisher{},
		accounts:   NewAccountService(repo, ""),
		categories: NewCategoryService(repo),
		reports:    NewReportService(repo),
	}
	e.tx = NewTransactionService(repo, e.publisher)
	e.tx.SetClock(func() time.Time { return fixedNow })
	e.reports.SetClock(func() time.Time { return fixedNow })

	e.user = e.newUser(t, "alice@example.com")
	e.checking = e.newAccount(t, e.user.ID, "Checking", true)
	e.savings = e.newAccount(t, e.user.ID, "Savings", false)
	e.food = e.newCategory(t, e.user.ID, "Food", core.CategoryExpense)
	e.salary = e.newCategory(t, e.user.ID, "Salary", core.CategoryIncome)
	return e
}

func (e *testEnv) newUser(t *testing.T, email string) core.User {
	t.Helper()
	u, err := e.repo.CreateUser(context.Background(), core.User{
		FirstName: "Test", LastName: "User", Email: email, PasswordHash: "hash",
	})
	assert.NoError(t, err)
	return u
}

func (e *testEnv) newAccount(t *testing.T, userID, name string, isDefault bool) core.Account {
	t.Helper()
	a, err := e.accounts.Create(context.Background(), userID, core.AccountInput{
		Name:           name,
		AccountType:    "checking",
		InitialBalance: decimal.NewFromInt(1000),
		IsDefault:      isDefault,
	})
	assert.NoError(t, err)
	return a
}

func (e *testEnv) newCategory(t *testing.T, userID, name string, typ core.CategoryType) core.Category {
	t.Helper()
	c, err := e.categories.Create(context.Background(), userID, core.CategoryInput{Name: name, Type: typ})
	assert.NoError(t, err)
	return c
}

func (e *testEnv) expenseInput(amount string) core.TransactionInput {
	return core.TransactionInput{
		AccountID:   e.checking.ID,
		CategoryID:  e.food.ID,
		Type:        "expense",
		Amount:      decimal.RequireFromString(amount),
		Description: "Groceries",
	}
}

func (e *testEnv) mustCreate(t *testing.T, in core.TransactionInput) core.Transaction {
	t.Helper()
	tx, err := e.tx.Create(context.Background(), e.user.ID, in)
	assert.NoError(t, err)
	return tx
}

var errBusDown = errors.New("connection refused")
