package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	AccountChecking   AccountType = "checking"
	AccountSavings    AccountType = "savings"
	AccountCreditCard AccountType = "credit_card"
	AccountDebitCard  AccountType = "debit_card"
	AccountCash       AccountType = "cash"
	AccountInvestment AccountType = "investment"
	AccountLoan       AccountType = "loan"
	AccountOther      AccountType = "other"
)

const (
	CategoryIncome  CategoryType = "income"
	CategoryExpense CategoryType = "expense"
)

const (
	TransactionIncome   TransactionType = "income"
	TransactionExpense  TransactionType = "expense"
	TransactionTransfer TransactionType = "transfer"
)

// Defaults applied when the caller leaves presentation fields empty.
const (
	DefaultColor        = "#6366f1"
	DefaultCurrency     = "INR"
	DefaultAccountIcon  = "credit_card"
	DefaultCategoryIcon = "folder"
)

type (
	AccountType     string
	CategoryType    string
	TransactionType string

	User struct {
		ID           string    `json:"id"`
		FirstName    string    `json:"firstName"`
		LastName     string    `json:"lastName"`
		Email        string    `json:"email"`
		PasswordHash string    `json:"-"`
		CreatedAt    time.Time `json:"createdAt"`
		UpdatedAt    time.Time `json:"updatedAt"`
	}

	Account struct {
		ID                    string          `json:"id"`
		UserID                string          `json:"userId"`
		Name                  string          `json:"name"`
		AccountType           AccountType     `json:"accountType"`
		BankName              string          `json:"bankName,omitempty"`
		AccountNumberLastFour string          `json:"accountNumberLastFour,omitempty"`
		InitialBalance        decimal.Decimal `json:"initialBalance"`
		CurrentBalance        decimal.Decimal `json:"currentBalance"`
		Currency              string          `json:"currency"`
		Color                 string          `json:"color"`
		Icon                  string          `json:"icon"`
		Active                bool            `json:"active"`
		IsDefault             bool            `json:"isDefault"`
		Notes                 string          `json:"notes,omitempty"`
		CreatedAt             time.Time       `json:"createdAt"`
		UpdatedAt             time.Time       `json:"updatedAt"`
	}

	Category struct {
		ID          string       `json:"id"`
		UserID      string       `json:"userId"`
		Name        string       `json:"name"`
		Description string       `json:"description,omitempty"`
		Type        CategoryType `json:"type"`
		Color       string       `json:"color"`
		Icon        string       `json:"icon"`
		Active      bool         `json:"active"`
		CreatedAt   time.Time    `json:"createdAt"`
		UpdatedAt   time.Time    `json:"updatedAt"`
	}

	// AccountRef is the read-only account snapshot joined onto a transaction.
	AccountRef struct {
		ID          string      `json:"id"`
		Name        string      `json:"name"`
		AccountType AccountType `json:"accountType"`
		Color       string      `json:"color"`
	}

	// CategoryRef is the read-only category snapshot joined onto a transaction.
	CategoryRef struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Color string `json:"color"`
		Icon  string `json:"icon"`
	}

	TransferAccountRef struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}

	Transaction struct {
		ID                    string              `json:"id"`
		UserID                string              `json:"userId"`
		AccountID             string              `json:"accountId"`
		CategoryID            string              `json:"categoryId"`
		Type                  TransactionType     `json:"type"`
		Amount                decimal.Decimal     `json:"amount"`
		Description           string              `json:"description"`
		Notes                 string              `json:"notes,omitempty"`
		TransactionDate       Date                `json:"transactionDate"`
		TransferAccountID     string              `json:"transferAccountId,omitempty"`
		TransferTransactionID string              `json:"transferTransactionId,omitempty"`
		ReferenceNumber       string              `json:"referenceNumber,omitempty"`
		Location              string              `json:"location,omitempty"`
		Tags                  []string            `json:"tags"`
		CreatedAt             time.Time           `json:"createdAt"`
		UpdatedAt             time.Time           `json:"updatedAt"`
		Account               *AccountRef         `json:"account,omitempty"`
		Category              *CategoryRef        `json:"category,omitempty"`
		TransferAccount       *TransferAccountRef `json:"transferAccount,omitempty"`
	}
)

var (
	accountTypes = []AccountType{
		AccountChecking, AccountSavings, AccountCreditCard, AccountDebitCard,
		AccountCash, AccountInvestment, AccountLoan, AccountOther,
	}
	transactionTypes = []TransactionType{TransactionIncome, TransactionExpense, TransactionTransfer}
)

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeAccountType lower-cases the caller's spelling. The result may
// still be invalid; check it with Valid.
func NormalizeAccountType(s string) AccountType { return AccountType(normalize(s)) }

func NormalizeCategoryType(s string) CategoryType { return CategoryType(normalize(s)) }

func NormalizeTransactionType(s string) TransactionType { return TransactionType(normalize(s)) }

func (t AccountType) Valid() bool {
	for _, v := range accountTypes {
		if t == v {
			return true
		}
	}
	return false
}

func (t CategoryType) Valid() bool {
	return t == CategoryIncome || t == CategoryExpense
}

func (t TransactionType) Valid() bool {
	for _, v := range transactionTypes {
		if t == v {
			return true
		}
	}
	return false
}

// AccountTypes lists every supported account type in display order.
func AccountTypes() []AccountType {
	return append([]AccountType(nil), accountTypes...)
}

// FullName joins first and last name.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
