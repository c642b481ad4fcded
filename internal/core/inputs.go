package core

import "github.com/shopspring/decimal"

// TransactionInput is a proposed new transaction. Type and TransactionDate
// arrive as the caller sent them and are checked by the validator.
type TransactionInput struct {
	AccountID         string
	CategoryID        string
	Type              TransactionType
	Amount            decimal.Decimal
	Description       string
	Notes             string
	TransactionDate   string
	TransferAccountID string
	ReferenceNumber   string
	Location          string
	Tags              []string
}

// TransactionPatch holds the fields an update sets. Nil means unchanged.
type TransactionPatch struct {
	AccountID         *string
	CategoryID        *string
	Type              *TransactionType
	Amount            *decimal.Decimal
	Description       *string
	Notes             *string
	TransactionDate   *string
	TransferAccountID *string
	ReferenceNumber   *string
	Location          *string
	Tags              *[]string
}

// QuickEntry is the reduced input of quick-expense and quick-income.
type QuickEntry struct {
	Amount      decimal.Decimal
	Description string
	CategoryID  string
	AccountID   string
}

// TransactionFilter narrows a transaction query. Zero values impose no
// constraint. Offset is honoured only together with Limit.
type TransactionFilter struct {
	Type           TransactionType
	AccountID      string
	CategoryID     string
	StartDate      *Date
	EndDate        *Date
	MinAmount      *decimal.Decimal
	MaxAmount      *decimal.Decimal
	Search         string
	OrderBy        string
	OrderDirection string
	Limit          int
	Offset         int
}

type AccountInput struct {
	Name                  string
	AccountType           AccountType
	BankName              string
	AccountNumberLastFour string
	InitialBalance        decimal.Decimal
	Currency              string
	Color                 string
	Icon                  string
	IsDefault             bool
	Notes                 string
}

type AccountPatch struct {
	Name                  *string
	AccountType           *AccountType
	BankName              *string
	AccountNumberLastFour *string
	Currency              *string
	Color                 *string
	Icon                  *string
	IsDefault             *bool
	Active                *bool
	Notes                 *string
}

type AccountFilter struct {
	AccountType AccountType
	Active      *bool
}

type CategoryInput struct {
	Name        string
	Description string
	Type        CategoryType
	Color       string
	Icon        string
}

type CategoryPatch struct {
	Name        *string
	Description *string
	Type        *CategoryType
	Color       *string
	Icon        *string
	Active      *bool
}

type CategoryFilter struct {
	Type   CategoryType
	Active *bool
}
