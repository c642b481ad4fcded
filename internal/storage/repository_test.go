package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger.db"))
	assert.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

// tickingClock advances one second per call so created_at values differ.
func tickingClock(start time.Time) func() time.Time {
	current := start
	return func() time.Time {
		current = current.Add(time.Second)
		return current
	}
}

func mustUser(t *testing.T, repo *SQLiteRepository, email string) core.User {
	t.Helper()
	u, err := repo.CreateUser(context.Background(), core.User{
		FirstName:    "Test",
		LastName:     "User",
		Email:        email,
		PasswordHash: "hash",
	})
	assert.NoError(t, err)
	return u
}

func mustAccount(t *testing.T, repo *SQLiteRepository, userID, name string, isDefault bool) core.Account {
	t.Helper()
	a, err := repo.CreateAccount(context.Background(), core.Account{
		UserID:         userID,
		Name:           name,
		AccountType:    core.AccountChecking,
		InitialBalance: decimal.NewFromInt(100),
		CurrentBalance: decimal.NewFromInt(100),
		Currency:       core.DefaultCurrency,
		Color:          core.DefaultColor,
		Icon:           core.DefaultAccountIcon,
		Active:         true,
		IsDefault:      isDefault,
	})
	assert.NoError(t, err)
	return a
}

func mustCategory(t *testing.T, repo *SQLiteRepository, userID, name string, typ core.CategoryType) core.Category {
	t.Helper()
	c, err := repo.CreateCategory(context.Background(), core.Category{
		UserID: userID,
		Name:   name,
		Type:   typ,
		Color:  "#ef4444",
		Icon:   "utensils",
		Active: true,
	})
	assert.NoError(t, err)
	return c
}

func TestMigrationsApplied(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	repo, err := NewSQLiteRepository(path)
	assert.NoError(t, err)
	assert.NoError(t, repo.Ping(context.Background()))
	assert.NoError(t, repo.Close())

	version, dirty, err := MigrationVersion(path)
	assert.NoError(t, err)
	assert.Equal(t, uint(2), version)
	assert.False(t, dirty)

	// Running again is a no-op.
	assert.NoError(t, RunMigrations(path))
}

func TestUsers(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	u := mustUser(t, repo, "Alice@Example.com")
	assert.Equal(t, "alice@example.com", u.Email)

	found, err := repo.GetUserByEmail(ctx, "ALICE@example.COM")
	assert.NoError(t, err)
	assert.Equal(t, u.ID, found.ID)

	_, err = repo.CreateUser(ctx, core.User{FirstName: "A", LastName: "B", Email: "alice@EXAMPLE.com", PasswordHash: "x"})
	assert.Equal(t, core.KindConflict, core.KindOf(err))

	_, err = repo.GetUserByEmail(ctx, "nobody@example.com")
	assert.True(t, core.IsNotFound(err))
}

func TestAccountNameConflictIsPerUser(t *testing.T) {
	repo := newTestRepo(t)
	alice := mustUser(t, repo, "alice@example.com")
	bob := mustUser(t, repo, "bob@example.com")

	mustAccount(t, repo, alice.ID, "Wallet", false)
	_, err := repo.CreateAccount(context.Background(), core.Account{
		UserID: alice.ID, Name: "Wallet", AccountType: core.AccountCash, Active: true,
		Currency: "INR", Color: core.DefaultColor, Icon: "wallet",
	})
	assert.Equal(t, core.KindConflict, core.KindOf(err))
	assert.EqualError(t, err, "Account with this name already exists.")

	// Another user may reuse the name.
	mustAccount(t, repo, bob.ID, "Wallet", false)
}

func TestAccountConstraintErrors(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	u := mustUser(t, repo, "alice@example.com")
	mustAccount(t, repo, u.ID, "Wallet", true)
	bank := mustAccount(t, repo, u.ID, "Bank", false)

	// Renaming onto an existing name is a name conflict.
	bank.Name = "Wallet"
	_, err := repo.UpdateAccount(ctx, bank)
	assert.Equal(t, core.KindConflict, core.KindOf(err))
	assert.EqualError(t, err, "Account with this name already exists.")

	// A second default row written without clearing the first trips the
	// partial index, which must not read as a duplicate name.
	_, err = repo.db.ExecContext(ctx,
		`UPDATE accounts SET is_default = 1 WHERE id = ?`, bank.ID)
	assert.Error(t, err)
	assert.False(t, uniqueViolationOn(err, "accounts.user_id, accounts.name"))
	mapped := accountConstraintError(err)
	assert.Equal(t, core.KindConflict, core.KindOf(mapped))
	assert.EqualError(t, mapped, "Only one default account is allowed.")

	assert.NoError(t, accountConstraintError(errors.New("disk I/O error")))
}

func TestCategoryNameConflictIsPerUser(t *testing.T) {
	repo := newTestRepo(t)
	alice := mustUser(t, repo, "alice@example.com")
	bob := mustUser(t, repo, "bob@example.com")

	mustCategory(t, repo, alice.ID, "Food", core.CategoryExpense)
	_, err := repo.CreateCategory(context.Background(), core.Category{
		UserID: alice.ID, Name: "Food", Type: core.CategoryIncome, Active: true,
	})
	assert.Equal(t, core.KindConflict, core.KindOf(err))
	assert.EqualError(t, err, "Category with this name already exists for the user.")

	mustCategory(t, repo, bob.ID, "Food", core.CategoryExpense)
}

func TestSingleDefaultAccount(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	u := mustUser(t, repo, "alice@example.com")

	first := mustAccount(t, repo, u.ID, "First", true)
	second := mustAccount(t, repo, u.ID, "Second", true)

	first, err := repo.GetAccount(ctx, first.ID, u.ID)
	assert.NoError(t, err)
	assert.False(t, first.IsDefault)
	assert.True(t, second.IsDefault)

	promoted, err := repo.SetDefaultAccount(ctx, first.ID, u.ID)
	assert.NoError(t, err)
	assert.True(t, promoted.IsDefault)

	def, err := repo.DefaultAccount(ctx, u.ID)
	assert.NoError(t, err)
	assert.Equal(t, first.ID, def.ID)

	accounts, err := repo.ListAccounts(ctx, u.ID, core.AccountFilter{})
	assert.NoError(t, err)
	defaults := 0
	for _, a := range accounts {
		if a.IsDefault {
			defaults++
		}
	}
	assert.Equal(t, 1, defaults)
	// Default account is listed first.
	assert.Equal(t, first.ID, accounts[0].ID)
}

func TestDeactivateClearsDefault(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	u := mustUser(t, repo, "alice@example.com")
	a := mustAccount(t, repo, u.ID, "Main", true)

	a, err := repo.DeactivateAccount(ctx, a.ID, u.ID)
	assert.NoError(t, err)
	assert.False(t, a.Active)
	assert.False(t, a.IsDefault)

	_, err = repo.DefaultAccount(ctx, u.ID)
	assert.True(t, core.IsNotFound(err))
}

func TestAccountOwnershipIsolation(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	alice := mustUser(t, repo, "alice@example.com")
	bob := mustUser(t, repo, "bob@example.com")
	a := mustAccount(t, repo, alice.ID, "Main", false)

	_, err := repo.GetAccount(ctx, a.ID, bob.ID)
	assert.True(t, core.IsNotFound(err))
	_, err = repo.SetAccountBalance(ctx, a.ID, bob.ID, decimal.NewFromInt(5))
	assert.True(t, core.IsNotFound(err))
	assert.True(t, core.IsNotFound(repo.DeleteAccount(ctx, a.ID, bob.ID)))
	_, err = repo.SetDefaultAccount(ctx, a.ID, bob.ID)
	assert.True(t, core.IsNotFound(err))

	accounts, err := repo.ListAccounts(ctx, bob.ID, core.AccountFilter{})
	assert.NoError(t, err)
	assert.Equal(t, 0, len(accounts))
}

func TestSetAccountBalance(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	u := mustUser(t, repo, "alice@example.com")
	a := mustAccount(t, repo, u.ID, "Main", false)

	a, err := repo.SetAccountBalance(ctx, a.ID, u.ID, decimal.RequireFromString("1234.56"))
	assert.NoError(t, err)
	assert.Equal(t, "1234.56", a.CurrentBalance.StringFixed(2))
	assert.Equal(t, "100.00", a.InitialBalance.StringFixed(2))
}

func TestAccountsSummary(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	u := mustUser(t, repo, "alice@example.com")
	mustAccount(t, repo, u.ID, "One", false)
	mustAccount(t, repo, u.ID, "Two", false)
	inactive := mustAccount(t, repo, u.ID, "Three", false)
	_, err := repo.DeactivateAccount(ctx, inactive.ID, u.ID)
	assert.NoError(t, err)

	summary, err := repo.AccountsSummary(ctx, u.ID)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(summary))
	assert.Equal(t, core.AccountChecking, summary[0].AccountType)
	assert.Equal(t, 2, summary[0].AccountCount)
	assert.Equal(t, "200.00", summary[0].TotalBalance.StringFixed(2))
}

func TestCategoryFilters(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	u := mustUser(t, repo, "alice@example.com")
	mustCategory(t, repo, u.ID, "Salary", core.CategoryIncome)
	food := mustCategory(t, repo, u.ID, "Food", core.CategoryExpense)
	mustCategory(t, repo, u.ID, "Bills", core.CategoryExpense)
	_, err := repo.DeactivateCategory(ctx, food.ID, u.ID)
	assert.NoError(t, err)

	active := true
	got, err := repo.ListCategories(ctx, u.ID, core.CategoryFilter{Type: core.CategoryExpense, Active: &active})
	assert.NoError(t, err)
	assert.Equal(t, 1, len(got))
	assert.Equal(t, "Bills", got[0].Name)

	all, err := repo.ListCategories(ctx, u.ID, core.CategoryFilter{})
	assert.NoError(t, err)
	assert.Equal(t, []string{"Bills", "Food", "Salary"}, []string{all[0].Name, all[1].Name, all[2].Name})
}

func TestEventOutbox(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first, err := repo.RecordEvent(ctx, core.TransactionEvent{
		Action: core.EventCreated, TransactionID: "t1", UserID: "u1",
		OccurredAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	})
	assert.NoError(t, err)
	second, err := repo.RecordEvent(ctx, core.TransactionEvent{
		Action: core.EventDeleted, TransactionID: "t1", UserID: "u1",
		OccurredAt: time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC),
	})
	assert.NoError(t, err)

	pending, err := repo.PendingEvents(ctx, 10, 0)
	assert.NoError(t, err)
	assert.Equal(t, 2, len(pending))
	assert.Equal(t, first.ID, pending[0].ID)

	assert.NoError(t, repo.MarkEventJournaled(ctx, first.ID))
	assert.NoError(t, repo.MarkEventFailed(ctx, second.ID))

	done, err := repo.IsEventJournaled(ctx, first.ID)
	assert.NoError(t, err)
	assert.True(t, done)

	pending, err = repo.PendingEvents(ctx, 10, 0)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(pending))
	assert.Equal(t, second.ID, pending[0].ID)
	assert.Equal(t, 1, pending[0].Attempts)

	// Events that used up their attempts drop out of the pending set.
	pending, err = repo.PendingEvents(ctx, 10, 1)
	assert.NoError(t, err)
	assert.Equal(t, 0, len(pending))
	pending, err = repo.PendingEvents(ctx, 10, 2)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(pending))

	got, err := repo.GetEvent(ctx, second.ID)
	assert.NoError(t, err)
	assert.Equal(t, core.EventDeleted, got.Action)
}
