package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// Validation messages shared with the API surface.
const (
	msgDescriptionTooShort = "Description must be at least 2 characters long"
	msgAmountNotPositive   = "Amount must be greater than 0"
	msgAmountTooLarge      = "Amount cannot exceed $999,999.99"
	msgInvalidType         = "Invalid transaction type"
	msgAccountRequired     = "Account ID is required"
	msgCategoryRequired    = "Category ID is required"
	msgInvalidDate         = "Invalid transaction date"
	msgDateInFuture        = "Transaction date cannot be more than 1 day in the future"
	msgAccountUnavailable  = "Account not found or inactive"
	msgCategoryUnavailable = "Category not found or inactive"
	msgTransferRequired    = "Transfer account is required for transfer transactions"
	msgTransferUnavailable = "Transfer account not found or inactive"
	msgTransferSameAccount = "Cannot transfer to the same account"
)

// Validator checks a proposed transaction against field rules and against
// the caller's accounts and categories. All violations are reported together.
type Validator struct {
	refs ReferenceLookup
	now  func() time.Time
}

func NewValidator(refs ReferenceLookup) *Validator {
	return &Validator{refs: refs, now: time.Now}
}

// CheckFields applies the rules that need no stored data.
func (v *Validator) CheckFields(in core.TransactionInput) []string {
	var msgs []string

	if len([]rune(strings.TrimSpace(in.Description))) < 2 {
		msgs = append(msgs, msgDescriptionTooShort)
	}
	if !in.Amount.GreaterThan(decimal.Zero) {
		msgs = append(msgs, msgAmountNotPositive)
	} else if in.Amount.GreaterThan(core.MaxAmount) {
		msgs = append(msgs, msgAmountTooLarge)
	}
	if !in.Type.Valid() {
		msgs = append(msgs, msgInvalidType)
	}
	if strings.TrimSpace(in.AccountID) == "" {
		msgs = append(msgs, msgAccountRequired)
	}
	if strings.TrimSpace(in.CategoryID) == "" {
		msgs = append(msgs, msgCategoryRequired)
	}
	if in.TransactionDate != "" {
		d, err := core.ParseDate(in.TransactionDate)
		switch {
		case err != nil:
			msgs = append(msgs, msgInvalidDate)
		case d.After(v.today().AddDays(1)):
			msgs = append(msgs, msgDateInFuture)
		}
	}
	return msgs
}

// Validate runs field and cross-entity checks for userID. It returns a
// validation error listing every broken rule, or an error from the lookup.
func (v *Validator) Validate(ctx context.Context, userID string, in core.TransactionInput) error {
	msgs := v.CheckFields(in)

	refMsgs, err := v.checkReferences(ctx, userID, in)
	if err != nil {
		return err
	}
	msgs = append(msgs, refMsgs...)

	if len(msgs) > 0 {
		return core.Validation(msgs...)
	}
	return nil
}

func (v *Validator) checkReferences(ctx context.Context, userID string, in core.TransactionInput) ([]string, error) {
	var msgs []string

	if in.AccountID != "" {
		ok, err := v.activeAccount(ctx, in.AccountID, userID)
		if err != nil {
			return nil, err
		}
		if !ok {
			msgs = append(msgs, msgAccountUnavailable)
		}
	}

	if in.CategoryID != "" {
		c, err := v.refs.GetCategory(ctx, in.CategoryID, userID)
		switch {
		case core.IsNotFound(err):
			msgs = append(msgs, msgCategoryUnavailable)
		case err != nil:
			return nil, fmt.Errorf("load category: %w", err)
		case !c.Active:
			msgs = append(msgs, msgCategoryUnavailable)
		case in.Type.Valid() && in.Type != core.TransactionTransfer && string(c.Type) != string(in.Type):
			msgs = append(msgs, fmt.Sprintf("Category type '%s' does not match transaction type '%s'", c.Type, in.Type))
		}
	}

	if in.Type == core.TransactionTransfer {
		switch {
		case in.TransferAccountID == "":
			msgs = append(msgs, msgTransferRequired)
		default:
			ok, err := v.activeAccount(ctx, in.TransferAccountID, userID)
			if err != nil {
				return nil, err
			}
			if !ok {
				msgs = append(msgs, msgTransferUnavailable)
			}
			if in.TransferAccountID == in.AccountID {
				msgs = append(msgs, msgTransferSameAccount)
			}
		}
	}
	return msgs, nil
}

func (v *Validator) activeAccount(ctx context.Context, id, userID string) (bool, error) {
	a, err := v.refs.GetAccount(ctx, id, userID)
	if core.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load account: %w", err)
	}
	return a.Active, nil
}

func (v *Validator) today() core.Date {
	return core.DateOf(v.now())
}
