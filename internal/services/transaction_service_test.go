package services

import (
	"context"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

func TestCreateTransaction(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	in := e.expenseInput("12.345")
	in.Type = "EXPENSE"
	in.Tags = []string{"weekly"}
	tx := e.mustCreate(t, in)

	assert.Equal(t, core.TransactionExpense, tx.Type)
	assert.Equal(t, "12.35", tx.Amount.StringFixed(2))
	assert.Equal(t, "2026-03-15", tx.TransactionDate.String())
	assert.Equal(t, "Checking", tx.Account.Name)
	assert.Equal(t, "Food", tx.Category.Name)
	assert.Equal(t, []string{"weekly"}, tx.Tags)
	assert.Equal(t, []core.EventAction{core.EventCreated}, e.publisher.actions())

	pending, err := e.repo.PendingEvents(ctx, 10, 0)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(pending))
	assert.Equal(t, tx.ID, pending[0].TransactionID)
	assert.Equal(t, e.publisher.events[0].ID, pending[0].ID)
}

func TestCreateTransactionWrapsErrors(t *testing.T) {
	e := newTestEnv(t)
	in := e.expenseInput("0")
	in.Description = "x"

	_, err := e.tx.Create(context.Background(), e.user.ID, in)
	assert.Equal(t, core.KindValidation, core.KindOf(err))
	assert.EqualError(t, err, "Failed to create transaction: "+msgDescriptionTooShort+"; "+msgAmountNotPositive)
	assert.Equal(t, 0, len(e.publisher.actions()))
}

func TestTransactionsDoNotMoveBalances(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	e.mustCreate(t, e.expenseInput("250"))
	e.mustCreate(t, core.TransactionInput{
		AccountID: e.checking.ID, CategoryID: e.salary.ID, Type: core.TransactionIncome,
		Amount: decimal.NewFromInt(900), Description: "Payday",
	})

	acc, err := e.accounts.Get(ctx, e.user.ID, e.checking.ID)
	assert.NoError(t, err)
	assert.Equal(t, "1000.00", acc.CurrentBalance.StringFixed(2))
}

func TestPublishFailureDoesNotFailWrite(t *testing.T) {
	e := newTestEnv(t)
	e.publisher.err = errBusDown

	tx := e.mustCreate(t, e.expenseInput("5"))
	_, err := e.tx.Get(context.Background(), e.user.ID, tx.ID)
	assert.NoError(t, err)

	// The outbox still holds the event for the replay loop.
	pending, err := e.repo.PendingEvents(context.Background(), 10, 0)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(pending))
}

func TestNilPublisher(t *testing.T) {
	e := newTestEnv(t)
	svc := NewTransactionService(e.repo, nil)
	_, err := svc.Create(context.Background(), e.user.ID, e.expenseInput("5"))
	assert.NoError(t, err)
}

func TestUpdateTransaction(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	tx := e.mustCreate(t, e.expenseInput("10"))

	notes := "with receipt"
	updated, err := e.tx.Update(ctx, e.user.ID, tx.ID, core.TransactionPatch{Notes: &notes})
	assert.NoError(t, err)
	assert.Equal(t, "with receipt", updated.Notes)
	assert.Equal(t, "10.00", updated.Amount.StringFixed(2))

	// Switching type re-checks the category against the merged values.
	income := core.TransactionIncome
	_, err = e.tx.Update(ctx, e.user.ID, tx.ID, core.TransactionPatch{Type: &income})
	assert.Equal(t, core.KindValidation, core.KindOf(err))
	assert.True(t, strings.HasPrefix(err.Error(), "Failed to update transaction: Category type 'expense'"))

	updated, err = e.tx.Update(ctx, e.user.ID, tx.ID, core.TransactionPatch{Type: &income, CategoryID: &e.salary.ID})
	assert.NoError(t, err)
	assert.Equal(t, core.TransactionIncome, updated.Type)
	assert.Equal(t, "Salary", updated.Category.Name)

	tooMuch := decimal.RequireFromString("1000000")
	_, err = e.tx.Update(ctx, e.user.ID, tx.ID, core.TransactionPatch{Amount: &tooMuch})
	assert.Equal(t, []string{msgAmountTooLarge}, core.MessagesOf(err))

	future := "2026-04-01"
	_, err = e.tx.Update(ctx, e.user.ID, tx.ID, core.TransactionPatch{TransactionDate: &future})
	assert.Equal(t, []string{msgDateInFuture}, core.MessagesOf(err))

	assert.Equal(t, []core.EventAction{core.EventCreated, core.EventUpdated, core.EventUpdated}, e.publisher.actions())
}

func TestUpdateTransactionOwnership(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	bob := e.newUser(t, "bob@example.com")
	bobAccount := e.newAccount(t, bob.ID, "Bob", true)
	tx := e.mustCreate(t, e.expenseInput("10"))

	desc := "stolen"
	_, err := e.tx.Update(ctx, bob.ID, tx.ID, core.TransactionPatch{Description: &desc})
	assert.True(t, core.IsNotFound(err))

	_, err = e.tx.Update(ctx, e.user.ID, tx.ID, core.TransactionPatch{AccountID: &bobAccount.ID})
	assert.Equal(t, []string{msgAccountUnavailable}, core.MessagesOf(err))
}

func TestDeleteTransaction(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	tx := e.mustCreate(t, e.expenseInput("10"))

	err := e.tx.Delete(ctx, e.user.ID, "missing")
	assert.True(t, core.IsNotFound(err))
	assert.EqualError(t, err, "Failed to delete transaction: Transaction not found")

	assert.NoError(t, e.tx.Delete(ctx, e.user.ID, tx.ID))
	_, err = e.tx.Get(ctx, e.user.ID, tx.ID)
	assert.True(t, core.IsNotFound(err))
	assert.Equal(t, []core.EventAction{core.EventCreated, core.EventDeleted}, e.publisher.actions())
}

func TestQuickEntries(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	tx, err := e.tx.QuickExpense(ctx, e.user.ID, core.QuickEntry{
		Amount: decimal.NewFromInt(4), Description: "Coffee", CategoryID: e.food.ID,
	})
	assert.NoError(t, err)
	assert.Equal(t, e.checking.ID, tx.AccountID)
	assert.Equal(t, core.TransactionExpense, tx.Type)
	assert.Equal(t, "2026-03-15", tx.TransactionDate.String())

	tx, err = e.tx.QuickIncome(ctx, e.user.ID, core.QuickEntry{
		Amount: decimal.NewFromInt(50), Description: "Refund", CategoryID: e.salary.ID, AccountID: e.savings.ID,
	})
	assert.NoError(t, err)
	assert.Equal(t, e.savings.ID, tx.AccountID)
	assert.Equal(t, core.TransactionIncome, tx.Type)

	_, err = e.accounts.Deactivate(ctx, e.user.ID, e.checking.ID)
	assert.NoError(t, err)
	_, err = e.tx.QuickExpense(ctx, e.user.ID, core.QuickEntry{
		Amount: decimal.NewFromInt(4), Description: "Coffee", CategoryID: e.food.ID,
	})
	assert.EqualError(t, err, "Failed to create quick expense: No default account found. Please specify an account.")
}

func TestTransactionListings(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	for _, d := range []string{"2026-03-01", "2026-03-05", "2026-02-20"} {
		in := e.expenseInput("10")
		in.TransactionDate = d
		in.Description = "Expense " + d
		e.mustCreate(t, in)
	}
	e.mustCreate(t, core.TransactionInput{
		AccountID: e.savings.ID, CategoryID: e.salary.ID, Type: core.TransactionIncome,
		Amount: decimal.NewFromInt(100), Description: "Interest", TransactionDate: "2026-03-02",
	})

	all, err := e.tx.List(ctx, e.user.ID, core.TransactionFilter{})
	assert.NoError(t, err)
	assert.Equal(t, 4, len(all))
	assert.Equal(t, "2026-03-05", all[0].TransactionDate.String())

	recent, err := e.tx.Recent(ctx, e.user.ID, 2)
	assert.NoError(t, err)
	assert.Equal(t, 2, len(recent))

	march, err := e.tx.ByDateRange(ctx, e.user.ID, core.MustParseDate("2026-03-01"), core.MustParseDate("2026-03-31"))
	assert.NoError(t, err)
	assert.Equal(t, 3, len(march))

	_, err = e.tx.ByDateRange(ctx, e.user.ID, core.MustParseDate("2026-03-31"), core.MustParseDate("2026-03-01"))
	assert.Equal(t, core.KindValidation, core.KindOf(err))

	savings, err := e.tx.ForAccount(ctx, e.user.ID, e.savings.ID, 0)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(savings))

	food, err := e.tx.ForCategory(ctx, e.user.ID, e.food.ID, 2)
	assert.NoError(t, err)
	assert.Equal(t, 2, len(food))

	_, err = e.tx.ForAccount(ctx, e.user.ID, "missing", 0)
	assert.True(t, core.IsNotFound(err))

	found, err := e.tx.Search(ctx, e.user.ID, "INTEREST", 0)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(found))

	_, err = e.tx.Search(ctx, e.user.ID, "  ", 0)
	assert.Equal(t, core.KindValidation, core.KindOf(err))

	expenses, err := e.tx.Expenses(ctx, e.user.ID, 0)
	assert.NoError(t, err)
	assert.Equal(t, 3, len(expenses))

	incomes, err := e.tx.Incomes(ctx, e.user.ID, 0)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(incomes))

	stats, err := e.tx.Stats(ctx, e.user.ID, nil, nil)
	assert.NoError(t, err)
	assert.Equal(t, 2, len(stats))
	assert.Equal(t, "30.00", stats[0].Total.StringFixed(2))
}

func TestListDefaultsToPageOfFifty(t *testing.T) {
	e := newTestEnv(t)
	for i := 0; i < DefaultListLimit+2; i++ {
		e.mustCreate(t, e.expenseInput("1"))
	}
	got, err := e.tx.List(context.Background(), e.user.ID, core.TransactionFilter{})
	assert.NoError(t, err)
	assert.Equal(t, DefaultListLimit, len(got))

	got, err = e.tx.List(context.Background(), e.user.ID, core.TransactionFilter{Limit: 10, Offset: 45})
	assert.NoError(t, err)
	assert.Equal(t, 7, len(got))
}
