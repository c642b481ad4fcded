// Package http exposes the ledger as a JSON API.
//
// This file holds the request side: body decoding, query parameter parsing
// and the wire shapes of create and update payloads.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads a single JSON object from the request body into dst.
// Malformed bodies become validation errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return core.Validation("Request body is required")
		case errors.As(err, &maxErr):
			return core.Validation("Request body is too large")
		default:
			return core.Validation(fmt.Sprintf("Invalid JSON body: %s", err.Error()))
		}
	}
	if dec.More() {
		return core.Validation("Request body must contain a single JSON object")
	}
	return nil
}

// queryParser reads typed values from a query string and collects every
// problem so the caller can report them together.
type queryParser struct {
	values url.Values
	msgs   []string
}

func newQueryParser(r *http.Request) *queryParser {
	return &queryParser{values: r.URL.Query()}
}

func (p *queryParser) text(key string) string {
	return strings.TrimSpace(p.values.Get(key))
}

func (p *queryParser) integer(key string) int {
	v := p.text(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.msgs = append(p.msgs, fmt.Sprintf("Invalid %s '%s'", key, v))
		return 0
	}
	return n
}

// nonNegative parses limit and offset style parameters.
func (p *queryParser) nonNegative(key string) int {
	n := p.integer(key)
	if n < 0 {
		p.msgs = append(p.msgs, fmt.Sprintf("%s must not be negative", key))
		return 0
	}
	return n
}

func (p *queryParser) date(key string) *core.Date {
	v := p.text(key)
	if v == "" {
		return nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		p.msgs = append(p.msgs, fmt.Sprintf("Invalid %s '%s'", key, v))
		return nil
	}
	return &d
}

func (p *queryParser) amount(key string) *decimal.Decimal {
	v := p.text(key)
	if v == "" {
		return nil
	}
	d, err := core.ParseAmount(v)
	if err != nil || !core.CentsInRange(d) {
		p.msgs = append(p.msgs, fmt.Sprintf("Invalid %s '%s'", key, v))
		return nil
	}
	return &d
}

func (p *queryParser) boolean(key string) *bool {
	v := p.text(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.msgs = append(p.msgs, fmt.Sprintf("Invalid %s '%s'", key, v))
		return nil
	}
	return &b
}

func (p *queryParser) require(key string) string {
	v := p.text(key)
	if v == "" {
		p.msgs = append(p.msgs, fmt.Sprintf("%s is required", key))
	}
	return v
}

func (p *queryParser) err() error {
	if len(p.msgs) == 0 {
		return nil
	}
	return core.Validation(p.msgs...)
}

// parseTransactionFilter maps list-transactions query parameters onto a
// filter. Sort fields are checked against the allow-list by the store.
func parseTransactionFilter(r *http.Request) (core.TransactionFilter, error) {
	p := newQueryParser(r)
	f := core.TransactionFilter{
		AccountID:      p.text("accountId"),
		CategoryID:     p.text("categoryId"),
		StartDate:      p.date("startDate"),
		EndDate:        p.date("endDate"),
		MinAmount:      p.amount("minAmount"),
		MaxAmount:      p.amount("maxAmount"),
		Search:         p.text("search"),
		OrderBy:        p.text("orderBy"),
		OrderDirection: p.text("orderDirection"),
		Limit:          p.nonNegative("limit"),
		Offset:         p.nonNegative("offset"),
	}
	if v := p.text("type"); v != "" {
		f.Type = core.NormalizeTransactionType(v)
		if !f.Type.Valid() {
			p.msgs = append(p.msgs, "Invalid transaction type")
		}
	}
	return f, p.err()
}

// parseMonthParams reads year and month, defaulting each to the current one.
func parseMonthParams(r *http.Request, now time.Time) (year, month int, err error) {
	p := newQueryParser(r)
	year, month = now.Year(), int(now.Month())
	if p.text("year") != "" {
		year = p.integer("year")
	}
	if p.text("month") != "" {
		month = p.integer("month")
	}
	return year, month, p.err()
}

// transactionRequest is the create payload. Amounts accept JSON numbers or
// numeric strings.
type transactionRequest struct {
	AccountID         string          `json:"accountId"`
	CategoryID        string          `json:"categoryId"`
	Type              string          `json:"type"`
	Amount            decimal.Decimal `json:"amount"`
	Description       string          `json:"description"`
	Notes             string          `json:"notes"`
	TransactionDate   string          `json:"transactionDate"`
	TransferAccountID string          `json:"transferAccountId"`
	ReferenceNumber   string          `json:"referenceNumber"`
	Location          string          `json:"location"`
	Tags              []string        `json:"tags"`
}

func (req transactionRequest) input() core.TransactionInput {
	return core.TransactionInput{
		AccountID:         req.AccountID,
		CategoryID:        req.CategoryID,
		Type:              core.NormalizeTransactionType(req.Type),
		Amount:            req.Amount,
		Description:       req.Description,
		Notes:             req.Notes,
		TransactionDate:   req.TransactionDate,
		TransferAccountID: req.TransferAccountID,
		ReferenceNumber:   req.ReferenceNumber,
		Location:          req.Location,
		Tags:              req.Tags,
	}
}

type transactionPatchRequest struct {
	AccountID         *string          `json:"accountId"`
	CategoryID        *string          `json:"categoryId"`
	Type              *string          `json:"type"`
	Amount            *decimal.Decimal `json:"amount"`
	Description       *string          `json:"description"`
	Notes             *string          `json:"notes"`
	TransactionDate   *string          `json:"transactionDate"`
	TransferAccountID *string          `json:"transferAccountId"`
	ReferenceNumber   *string          `json:"referenceNumber"`
	Location          *string          `json:"location"`
	Tags              *[]string        `json:"tags"`
}

func (req transactionPatchRequest) patch() core.TransactionPatch {
	p := core.TransactionPatch{
		AccountID:         req.AccountID,
		CategoryID:        req.CategoryID,
		Amount:            req.Amount,
		Description:       req.Description,
		Notes:             req.Notes,
		TransactionDate:   req.TransactionDate,
		TransferAccountID: req.TransferAccountID,
		ReferenceNumber:   req.ReferenceNumber,
		Location:          req.Location,
		Tags:              req.Tags,
	}
	if req.Type != nil {
		t := core.NormalizeTransactionType(*req.Type)
		p.Type = &t
	}
	return p
}

type quickEntryRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	CategoryID  string          `json:"categoryId"`
	AccountID   string          `json:"accountId"`
}

func (req quickEntryRequest) entry() core.QuickEntry {
	return core.QuickEntry{
		Amount:      req.Amount,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		AccountID:   req.AccountID,
	}
}

type accountRequest struct {
	Name                  string          `json:"name"`
	AccountType           string          `json:"accountType"`
	BankName              string          `json:"bankName"`
	AccountNumberLastFour string          `json:"accountNumberLastFour"`
	InitialBalance        decimal.Decimal `json:"initialBalance"`
	Currency              string          `json:"currency"`
	Color                 string          `json:"color"`
	Icon                  string          `json:"icon"`
	IsDefault             bool            `json:"isDefault"`
	Notes                 string          `json:"notes"`
}

func (req accountRequest) input() core.AccountInput {
	return core.AccountInput{
		Name:                  req.Name,
		AccountType:           core.NormalizeAccountType(req.AccountType),
		BankName:              req.BankName,
		AccountNumberLastFour: req.AccountNumberLastFour,
		InitialBalance:        req.InitialBalance,
		Currency:              req.Currency,
		Color:                 req.Color,
		Icon:                  req.Icon,
		IsDefault:             req.IsDefault,
		Notes:                 req.Notes,
	}
}

type accountPatchRequest struct {
	Name                  *string `json:"name"`
	AccountType           *string `json:"accountType"`
	BankName              *string `json:"bankName"`
	AccountNumberLastFour *string `json:"accountNumberLastFour"`
	Currency              *string `json:"currency"`
	Color                 *string `json:"color"`
	Icon                  *string `json:"icon"`
	IsDefault             *bool   `json:"isDefault"`
	Active                *bool   `json:"active"`
	Notes                 *string `json:"notes"`
}

func (req accountPatchRequest) patch() core.AccountPatch {
	p := core.AccountPatch{
		Name:                  req.Name,
		BankName:              req.BankName,
		AccountNumberLastFour: req.AccountNumberLastFour,
		Currency:              req.Currency,
		Color:                 req.Color,
		Icon:                  req.Icon,
		IsDefault:             req.IsDefault,
		Active:                req.Active,
		Notes:                 req.Notes,
	}
	if req.AccountType != nil {
		t := core.NormalizeAccountType(*req.AccountType)
		p.AccountType = &t
	}
	return p
}

type balanceRequest struct {
	Balance *decimal.Decimal `json:"balance"`
}

type categoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Color       string `json:"color"`
	Icon        string `json:"icon"`
}

func (req categoryRequest) input() core.CategoryInput {
	return core.CategoryInput{
		Name:        req.Name,
		Description: req.Description,
		Type:        core.NormalizeCategoryType(req.Type),
		Color:       req.Color,
		Icon:        req.Icon,
	}
}

type categoryPatchRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Type        *string `json:"type"`
	Color       *string `json:"color"`
	Icon        *string `json:"icon"`
	Active      *bool   `json:"active"`
}

func (req categoryPatchRequest) patch() core.CategoryPatch {
	p := core.CategoryPatch{
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
		Icon:        req.Icon,
		Active:      req.Active,
	}
	if req.Type != nil {
		t := core.NormalizeCategoryType(*req.Type)
		p.Type = &t
	}
	return p
}
