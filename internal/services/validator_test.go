package services

import (
	"context"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

func validInput() core.TransactionInput {
	return core.TransactionInput{
		AccountID:   "acc",
		CategoryID:  "cat",
		Type:        core.TransactionExpense,
		Amount:      decimal.RequireFromString("10.00"),
		Description: "Lunch",
	}
}

func TestCheckFields(t *testing.T) {
	v := &Validator{now: func() time.Time { return fixedNow }}

	tests := []struct {
		name   string
		modify func(*core.TransactionInput)
		want   []string
	}{
		{"valid", func(*core.TransactionInput) {}, nil},
		{"zero amount", func(in *core.TransactionInput) { in.Amount = decimal.Zero }, []string{msgAmountNotPositive}},
		{"negative amount", func(in *core.TransactionInput) { in.Amount = decimal.NewFromInt(-5) }, []string{msgAmountNotPositive}},
		{"upper bound accepted", func(in *core.TransactionInput) { in.Amount = decimal.RequireFromString("999999.99") }, nil},
		{"above upper bound", func(in *core.TransactionInput) { in.Amount = decimal.RequireFromString("1000000.00") }, []string{msgAmountTooLarge}},
		{"short description", func(in *core.TransactionInput) { in.Description = " a " }, []string{msgDescriptionTooShort}},
		{"bad type", func(in *core.TransactionInput) { in.Type = "refund" }, []string{msgInvalidType}},
		{"missing ids", func(in *core.TransactionInput) { in.AccountID, in.CategoryID = "", "" }, []string{msgAccountRequired, msgCategoryRequired}},
		{"unparseable date", func(in *core.TransactionInput) { in.TransactionDate = "15/03/2026" }, []string{msgInvalidDate}},
		{"tomorrow accepted", func(in *core.TransactionInput) { in.TransactionDate = "2026-03-16" }, nil},
		{"two days ahead", func(in *core.TransactionInput) { in.TransactionDate = "2026-03-17" }, []string{msgDateInFuture}},
		{"past date", func(in *core.TransactionInput) { in.TransactionDate = "2020-01-01" }, nil},
		{
			"every violation reported",
			func(in *core.TransactionInput) {
				in.Description = ""
				in.Amount = decimal.Zero
				in.Type = ""
			},
			[]string{msgDescriptionTooShort, msgAmountNotPositive, msgInvalidType},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.modify(&in)
			assert.Equal(t, tt.want, v.CheckFields(in))
		})
	}
}

func TestValidateCrossEntity(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	v := e.tx.validator

	bob := e.newUser(t, "bob@example.com")
	bobAccount := e.newAccount(t, bob.ID, "Bob checking", false)
	inactive := e.newAccount(t, e.user.ID, "Old card", false)
	_, err := e.accounts.Deactivate(ctx, e.user.ID, inactive.ID)
	assert.NoError(t, err)

	t.Run("valid expense", func(t *testing.T) {
		assert.NoError(t, v.Validate(ctx, e.user.ID, e.expenseInput("10")))
	})

	t.Run("category type mismatch names both types", func(t *testing.T) {
		in := e.expenseInput("10")
		in.Type = core.TransactionIncome
		err := v.Validate(ctx, e.user.ID, in)
		assert.Equal(t, core.KindValidation, core.KindOf(err))
		assert.Equal(t, []string{"Category type 'expense' does not match transaction type 'income'"}, core.MessagesOf(err))
	})

	t.Run("another user's account", func(t *testing.T) {
		in := e.expenseInput("10")
		in.AccountID = bobAccount.ID
		err := v.Validate(ctx, e.user.ID, in)
		assert.Equal(t, []string{msgAccountUnavailable}, core.MessagesOf(err))
	})

	t.Run("inactive account", func(t *testing.T) {
		in := e.expenseInput("10")
		in.AccountID = inactive.ID
		err := v.Validate(ctx, e.user.ID, in)
		assert.Equal(t, []string{msgAccountUnavailable}, core.MessagesOf(err))
	})

	t.Run("unknown category", func(t *testing.T) {
		in := e.expenseInput("10")
		in.CategoryID = "missing"
		err := v.Validate(ctx, e.user.ID, in)
		assert.Equal(t, []string{msgCategoryUnavailable}, core.MessagesOf(err))
	})

	t.Run("transfer ignores category type", func(t *testing.T) {
		in := e.expenseInput("10")
		in.Type = core.TransactionTransfer
		in.TransferAccountID = e.savings.ID
		assert.NoError(t, v.Validate(ctx, e.user.ID, in))
	})

	t.Run("transfer needs target", func(t *testing.T) {
		in := e.expenseInput("10")
		in.Type = core.TransactionTransfer
		err := v.Validate(ctx, e.user.ID, in)
		assert.Equal(t, []string{msgTransferRequired}, core.MessagesOf(err))
	})

	t.Run("transfer to same account", func(t *testing.T) {
		in := e.expenseInput("10")
		in.Type = core.TransactionTransfer
		in.TransferAccountID = e.checking.ID
		err := v.Validate(ctx, e.user.ID, in)
		assert.Equal(t, []string{msgTransferSameAccount}, core.MessagesOf(err))
	})

	t.Run("transfer to inactive account", func(t *testing.T) {
		in := e.expenseInput("10")
		in.Type = core.TransactionTransfer
		in.TransferAccountID = inactive.ID
		err := v.Validate(ctx, e.user.ID, in)
		assert.Equal(t, []string{msgTransferUnavailable}, core.MessagesOf(err))
	})

	t.Run("field and reference violations together", func(t *testing.T) {
		in := e.expenseInput("0")
		in.CategoryID = "missing"
		err := v.Validate(ctx, e.user.ID, in)
		assert.Equal(t, []string{msgAmountNotPositive, msgCategoryUnavailable}, core.MessagesOf(err))
	})
}
