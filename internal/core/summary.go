package core

import "github.com/shopspring/decimal"

// Group keys used when a transaction's category or account no longer resolves.
const (
	UncategorizedKey  = "Uncategorized"
	UnknownAccountKey = "Unknown account"
)

// CategoryTotal is the amount accumulated under one category name.
type CategoryTotal struct {
	Amount decimal.Decimal `json:"amount"`
	Count  int             `json:"count"`
	Color  string          `json:"color"`
}

// AccountTotal is the activity accumulated under one account name.
type AccountTotal struct {
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
	Count    int             `json:"count"`
	Color    string          `json:"color"`
}

// MonthlySummary aggregates one calendar month for a user.
type MonthlySummary struct {
	Year                  int                      `json:"year"`
	Month                 int                      `json:"month"`
	StartDate             Date                     `json:"startDate"`
	EndDate               Date                     `json:"endDate"`
	TotalIncome           decimal.Decimal          `json:"totalIncome"`
	TotalExpenses         decimal.Decimal          `json:"totalExpenses"`
	NetIncome             decimal.Decimal          `json:"netIncome"`
	TransactionCount      int                      `json:"transactionCount"`
	ExpensesByCategory    map[string]CategoryTotal `json:"expensesByCategory"`
	IncomeByCategory      map[string]CategoryTotal `json:"incomeByCategory"`
	TransactionsByAccount map[string]AccountTotal  `json:"transactionsByAccount"`
}

// TrendPoint is one month of a spending trend.
type TrendPoint struct {
	Period           string          `json:"period"`
	Year             int             `json:"year"`
	Month            int             `json:"month"`
	Income           decimal.Decimal `json:"income"`
	Expenses         decimal.Decimal `json:"expenses"`
	NetIncome        decimal.Decimal `json:"netIncome"`
	TransactionCount int             `json:"transactionCount"`
}

// TypeStats is the per-type aggregate returned by transaction stats.
type TypeStats struct {
	Type    TransactionType `json:"type"`
	Count   int             `json:"count"`
	Total   decimal.Decimal `json:"total"`
	Average decimal.Decimal `json:"average"`
	Min     decimal.Decimal `json:"min"`
	Max     decimal.Decimal `json:"max"`
}

// AccountTypeSummary groups active accounts by type and currency.
type AccountTypeSummary struct {
	AccountType  AccountType     `json:"accountType"`
	Currency     string          `json:"currency"`
	AccountCount int             `json:"accountCount"`
	TotalBalance decimal.Decimal `json:"totalBalance"`
}
