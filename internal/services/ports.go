package services

import (
	"context"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// TransactionStore persists transactions and answers filtered lookups.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
	UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
	DeleteTransaction(ctx context.Context, id, userID string) error
	FindTransaction(ctx context.Context, id, userID string) (core.Transaction, error)
	QueryTransactions(ctx context.Context, userID string, f core.TransactionFilter) ([]core.Transaction, error)
	TransactionStats(ctx context.Context, userID string, start, end *core.Date) ([]core.TypeStats, error)
}

// AccountStore is the persistence side of the account ledger.
type AccountStore interface {
	CreateAccount(ctx context.Context, a core.Account) (core.Account, error)
	GetAccount(ctx context.Context, id, userID string) (core.Account, error)
	ListAccounts(ctx context.Context, userID string, f core.AccountFilter) ([]core.Account, error)
	DefaultAccount(ctx context.Context, userID string) (core.Account, error)
	UpdateAccount(ctx context.Context, a core.Account) (core.Account, error)
	SetDefaultAccount(ctx context.Context, id, userID string) (core.Account, error)
	DeactivateAccount(ctx context.Context, id, userID string) (core.Account, error)
	DeleteAccount(ctx context.Context, id, userID string) error
	SetAccountBalance(ctx context.Context, id, userID string, balance decimal.Decimal) (core.Account, error)
	AccountsSummary(ctx context.Context, userID string) ([]core.AccountTypeSummary, error)
}

type CategoryStore interface {
	CreateCategory(ctx context.Context, c core.Category) (core.Category, error)
	GetCategory(ctx context.Context, id, userID string) (core.Category, error)
	ListCategories(ctx context.Context, userID string, f core.CategoryFilter) ([]core.Category, error)
	UpdateCategory(ctx context.Context, c core.Category) (core.Category, error)
	DeactivateCategory(ctx context.Context, id, userID string) (core.Category, error)
	DeleteCategory(ctx context.Context, id, userID string) error
}

// ReferenceLookup resolves the accounts and categories a transaction points at.
type ReferenceLookup interface {
	GetAccount(ctx context.Context, id, userID string) (core.Account, error)
	GetCategory(ctx context.Context, id, userID string) (core.Category, error)
}

// EventOutbox records transaction changes for the journal worker.
type EventOutbox interface {
	RecordEvent(ctx context.Context, e core.TransactionEvent) (core.TransactionEvent, error)
}

// EventPublisher announces a recorded event on the message bus.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, e core.TransactionEvent) error
}

// LedgerStore is everything the transaction service needs from persistence.
type LedgerStore interface {
	TransactionStore
	ReferenceLookup
	EventOutbox
	DefaultAccount(ctx context.Context, userID string) (core.Account, error)
}
