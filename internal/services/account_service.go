package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

const msgBalanceOutOfRange = "Balance is out of range"

// defaultAccounts are created by SeedDefaults.
var defaultAccounts = []core.AccountInput{
	{
		Name:        "Primary Checking",
		AccountType: core.AccountChecking,
		BankName:    "My Bank",
		Color:       "#10b981",
		Icon:        "banknote",
		IsDefault:   true,
		Notes:       "Primary checking account",
	},
	{
		Name:        "Savings Account",
		AccountType: core.AccountSavings,
		BankName:    "My Bank",
		Color:       "#3b82f6",
		Icon:        "piggy-bank",
		Notes:       "Savings account",
	},
	{
		Name:        "Cash Wallet",
		AccountType: core.AccountCash,
		Color:       "#f59e0b",
		Icon:        "wallet",
		Notes:       "Physical cash and coins",
	},
}

// AccountService is the account ledger. Balances change only through
// UpdateBalance; recording transactions never touches them.
type AccountService struct {
	store           AccountStore
	defaultCurrency string
}

func NewAccountService(store AccountStore, defaultCurrency string) *AccountService {
	if defaultCurrency == "" {
		defaultCurrency = core.DefaultCurrency
	}
	return &AccountService{store: store, defaultCurrency: defaultCurrency}
}

func (s *AccountService) List(ctx context.Context, userID string, f core.AccountFilter) ([]core.Account, error) {
	if f.AccountType != "" {
		f.AccountType = core.NormalizeAccountType(string(f.AccountType))
		if !f.AccountType.Valid() {
			return nil, core.Validation("Invalid account type")
		}
	}
	return s.store.ListAccounts(ctx, userID, f)
}

// ListActiveOfType backs the checking, savings and credit card listings.
func (s *AccountService) ListActiveOfType(ctx context.Context, userID string, t core.AccountType) ([]core.Account, error) {
	active := true
	return s.List(ctx, userID, core.AccountFilter{AccountType: t, Active: &active})
}

func (s *AccountService) Get(ctx context.Context, userID, id string) (core.Account, error) {
	return s.store.GetAccount(ctx, id, userID)
}

// Default returns the user's active default account.
func (s *AccountService) Default(ctx context.Context, userID string) (core.Account, error) {
	a, err := s.store.DefaultAccount(ctx, userID)
	if core.IsNotFound(err) {
		return core.Account{}, core.NotFound("Default account")
	}
	return a, err
}

func (s *AccountService) Summary(ctx context.Context, userID string) ([]core.AccountTypeSummary, error) {
	return s.store.AccountsSummary(ctx, userID)
}

// Create opens an account whose current balance starts at its initial balance.
func (s *AccountService) Create(ctx context.Context, userID string, in core.AccountInput) (core.Account, error) {
	a, err := s.create(ctx, userID, in)
	return a, core.Op("create account", err)
}

func (s *AccountService) create(ctx context.Context, userID string, in core.AccountInput) (core.Account, error) {
	in.AccountType = core.NormalizeAccountType(string(in.AccountType))
	msgs := checkAccountFields(in.Name, in.AccountType, in.AccountNumberLastFour)
	if !core.BalanceInRange(in.InitialBalance) {
		msgs = append(msgs, msgBalanceOutOfRange)
	}
	if len(msgs) > 0 {
		return core.Account{}, core.Validation(msgs...)
	}

	balance := core.RoundAmount(in.InitialBalance)
	a := core.Account{
		UserID:                userID,
		Name:                  strings.TrimSpace(in.Name),
		AccountType:           in.AccountType,
		BankName:              strings.TrimSpace(in.BankName),
		AccountNumberLastFour: in.AccountNumberLastFour,
		InitialBalance:        balance,
		CurrentBalance:        balance,
		Currency:              orString(strings.ToUpper(strings.TrimSpace(in.Currency)), s.defaultCurrency),
		Color:                 orString(in.Color, core.DefaultColor),
		Icon:                  orString(in.Icon, core.DefaultAccountIcon),
		Active:                true,
		IsDefault:             in.IsDefault,
		Notes:                 strings.TrimSpace(in.Notes),
	}

	saved, err := s.store.CreateAccount(ctx, a)
	if err != nil {
		return core.Account{}, err
	}
	slog.InfoContext(ctx, "Account created",
		"account_id", saved.ID,
		"user_id", userID,
		"account_type", saved.AccountType,
		"is_default", saved.IsDefault)
	return saved, nil
}

// Update applies patch. Setting isDefault promotes the account and demotes
// the previous default in one step.
func (s *AccountService) Update(ctx context.Context, userID, id string, patch core.AccountPatch) (core.Account, error) {
	a, err := s.update(ctx, userID, id, patch)
	return a, core.Op("update account", err)
}

func (s *AccountService) update(ctx context.Context, userID, id string, p core.AccountPatch) (core.Account, error) {
	a, err := s.store.GetAccount(ctx, id, userID)
	if err != nil {
		return core.Account{}, err
	}

	if p.Name != nil {
		a.Name = strings.TrimSpace(*p.Name)
	}
	if p.AccountType != nil {
		a.AccountType = core.NormalizeAccountType(string(*p.AccountType))
	}
	if p.BankName != nil {
		a.BankName = strings.TrimSpace(*p.BankName)
	}
	if p.AccountNumberLastFour != nil {
		a.AccountNumberLastFour = *p.AccountNumberLastFour
	}
	if p.Currency != nil {
		a.Currency = orString(strings.ToUpper(strings.TrimSpace(*p.Currency)), a.Currency)
	}
	if p.Color != nil {
		a.Color = orString(*p.Color, a.Color)
	}
	if p.Icon != nil {
		a.Icon = orString(*p.Icon, a.Icon)
	}
	if p.Notes != nil {
		a.Notes = strings.TrimSpace(*p.Notes)
	}
	if p.Active != nil {
		a.Active = *p.Active
	}
	if p.IsDefault != nil {
		a.IsDefault = *p.IsDefault
	}
	if !a.Active {
		a.IsDefault = false
	}

	if msgs := checkAccountFields(a.Name, a.AccountType, a.AccountNumberLastFour); len(msgs) > 0 {
		return core.Account{}, core.Validation(msgs...)
	}
	if p.IsDefault != nil && *p.IsDefault && !a.Active {
		return core.Account{}, core.Validation("Inactive account cannot be the default")
	}

	saved, err := s.store.UpdateAccount(ctx, a)
	if err != nil {
		return core.Account{}, err
	}
	slog.InfoContext(ctx, "Account updated", "account_id", id, "user_id", userID)
	return saved, nil
}

// SetDefault promotes the account to be the user's only default.
func (s *AccountService) SetDefault(ctx context.Context, userID, id string) (core.Account, error) {
	a, err := s.setDefault(ctx, userID, id)
	return a, core.Op("set default account", err)
}

func (s *AccountService) setDefault(ctx context.Context, userID, id string) (core.Account, error) {
	a, err := s.store.GetAccount(ctx, id, userID)
	if err != nil {
		return core.Account{}, err
	}
	if !a.Active {
		return core.Account{}, core.Validation("Inactive account cannot be the default")
	}
	return s.store.SetDefaultAccount(ctx, id, userID)
}

// Deactivate clears both the active and default flags. Transactions that
// reference the account are kept.
func (s *AccountService) Deactivate(ctx context.Context, userID, id string) (core.Account, error) {
	a, err := s.store.DeactivateAccount(ctx, id, userID)
	if err != nil {
		return core.Account{}, core.Op("deactivate account", err)
	}
	slog.InfoContext(ctx, "Account deactivated", "account_id", id, "user_id", userID)
	return a, nil
}

// Delete removes the account unconditionally.
func (s *AccountService) Delete(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteAccount(ctx, id, userID); err != nil {
		return core.Op("delete account", err)
	}
	slog.InfoContext(ctx, "Account deleted", "account_id", id, "user_id", userID)
	return nil
}

// UpdateBalance overwrites the current balance with an absolute value.
// Concurrent calls on the same account are last-write-wins.
func (s *AccountService) UpdateBalance(ctx context.Context, userID, id string, balance decimal.Decimal) (core.Account, error) {
	if !core.BalanceInRange(balance) {
		return core.Account{}, core.Op("update account balance", core.Validation(msgBalanceOutOfRange))
	}
	a, err := s.store.SetAccountBalance(ctx, id, userID, core.RoundAmount(balance))
	if err != nil {
		return core.Account{}, core.Op("update account balance", err)
	}
	slog.InfoContext(ctx, "Account balance set",
		"account_id", id,
		"user_id", userID,
		"balance", a.CurrentBalance.StringFixed(2))
	return a, nil
}

// SeedDefaults creates the starter accounts, skipping any whose name the
// user already has. It returns only the accounts it created.
func (s *AccountService) SeedDefaults(ctx context.Context, userID string) ([]core.Account, error) {
	_, err := s.store.DefaultAccount(ctx, userID)
	hasDefault := err == nil

	created := []core.Account{}
	for _, in := range defaultAccounts {
		// An existing default is never demoted by seeding.
		in.IsDefault = in.IsDefault && !hasDefault
		a, err := s.create(ctx, userID, in)
		if core.IsConflict(err) {
			slog.InfoContext(ctx, "Skipping existing account", "name", in.Name, "user_id", userID)
			continue
		}
		if err != nil {
			return created, core.Op("create default accounts", err)
		}
		created = append(created, a)
	}
	return created, nil
}

func checkAccountFields(name string, t core.AccountType, lastFour string) []string {
	var msgs []string
	if strings.TrimSpace(name) == "" {
		msgs = append(msgs, "Account name is required")
	}
	if !t.Valid() {
		msgs = append(msgs, "Invalid account type")
	}
	if lastFour != "" && !isLastFour(lastFour) {
		msgs = append(msgs, "Account number must be the last 4 digits")
	}
	return msgs
}

func isLastFour(s string) bool {
	if len(s) != 4 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func orString(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
