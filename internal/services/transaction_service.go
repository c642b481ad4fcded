package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"fintrack/internal/core"
)

// Default page sizes for the convenience listings.
const (
	DefaultListLimit    = 50
	DefaultRecentLimit  = 10
	DefaultSearchLimit  = 20
	DefaultTypedLimit   = 20
	DefaultScopedLimit  = 50
	msgNoDefaultAccount = "No default account found. Please specify an account."
)

// TransactionService validates and records transactions, then hands the
// change to the journal pipeline. Publishing is best effort: a saved
// transaction is never rolled back because the bus is down.
type TransactionService struct {
	store     LedgerStore
	validator *Validator
	publisher EventPublisher
	now       func() time.Time
}

// NewTransactionService wires the service. publisher may be nil.
func NewTransactionService(store LedgerStore, publisher EventPublisher) *TransactionService {
	return &TransactionService{
		store:     store,
		validator: NewValidator(store),
		publisher: publisher,
		now:       time.Now,
	}
}

// SetClock replaces the time source. Intended for tests and the admin CLI.
func (s *TransactionService) SetClock(now func() time.Time) {
	s.now = now
	s.validator.now = now
}

func (s *TransactionService) List(ctx context.Context, userID string, f core.TransactionFilter) ([]core.Transaction, error) {
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	return s.store.QueryTransactions(ctx, userID, f)
}

func (s *TransactionService) Get(ctx context.Context, userID, id string) (core.Transaction, error) {
	return s.store.FindTransaction(ctx, id, userID)
}

// Recent returns the most recently recorded transactions.
func (s *TransactionService) Recent(ctx context.Context, userID string, limit int) ([]core.Transaction, error) {
	return s.store.QueryTransactions(ctx, userID, core.TransactionFilter{
		OrderBy:        "created_at",
		OrderDirection: "DESC",
		Limit:          orDefault(limit, DefaultRecentLimit),
	})
}

// ByDateRange returns every transaction dated within [start, end].
func (s *TransactionService) ByDateRange(ctx context.Context, userID string, start, end core.Date) ([]core.Transaction, error) {
	if end.Before(start) {
		return nil, core.Validation("End date must not be before start date")
	}
	return s.store.QueryTransactions(ctx, userID, core.TransactionFilter{StartDate: &start, EndDate: &end})
}

func (s *TransactionService) ForAccount(ctx context.Context, userID, accountID string, limit int) ([]core.Transaction, error) {
	if _, err := s.store.GetAccount(ctx, accountID, userID); err != nil {
		return nil, err
	}
	return s.store.QueryTransactions(ctx, userID, core.TransactionFilter{
		AccountID: accountID,
		Limit:     orDefault(limit, DefaultScopedLimit),
	})
}

func (s *TransactionService) ForCategory(ctx context.Context, userID, categoryID string, limit int) ([]core.Transaction, error) {
	if _, err := s.store.GetCategory(ctx, categoryID, userID); err != nil {
		return nil, err
	}
	return s.store.QueryTransactions(ctx, userID, core.TransactionFilter{
		CategoryID: categoryID,
		Limit:      orDefault(limit, DefaultScopedLimit),
	})
}

// Search matches query against description, notes, account and category names.
func (s *TransactionService) Search(ctx context.Context, userID, query string, limit int) ([]core.Transaction, error) {
	if strings.TrimSpace(query) == "" {
		return nil, core.Validation("Search query is required")
	}
	return s.store.QueryTransactions(ctx, userID, core.TransactionFilter{
		Search: query,
		Limit:  orDefault(limit, DefaultSearchLimit),
	})
}

func (s *TransactionService) Expenses(ctx context.Context, userID string, limit int) ([]core.Transaction, error) {
	return s.store.QueryTransactions(ctx, userID, core.TransactionFilter{
		Type:  core.TransactionExpense,
		Limit: orDefault(limit, DefaultTypedLimit),
	})
}

func (s *TransactionService) Incomes(ctx context.Context, userID string, limit int) ([]core.Transaction, error) {
	return s.store.QueryTransactions(ctx, userID, core.TransactionFilter{
		Type:  core.TransactionIncome,
		Limit: orDefault(limit, DefaultTypedLimit),
	})
}

// Stats aggregates per transaction type, optionally within date bounds.
func (s *TransactionService) Stats(ctx context.Context, userID string, start, end *core.Date) ([]core.TypeStats, error) {
	return s.store.TransactionStats(ctx, userID, start, end)
}

// Create validates in and records it. The date defaults to today.
func (s *TransactionService) Create(ctx context.Context, userID string, in core.TransactionInput) (core.Transaction, error) {
	t, err := s.create(ctx, userID, in)
	return t, core.Op("create transaction", err)
}

func (s *TransactionService) create(ctx context.Context, userID string, in core.TransactionInput) (core.Transaction, error) {
	in.Type = core.NormalizeTransactionType(string(in.Type))
	in.Amount = core.RoundAmount(in.Amount)
	if in.TransactionDate == "" {
		in.TransactionDate = core.DateOf(s.now()).String()
	}

	if err := s.validator.Validate(ctx, userID, in); err != nil {
		return core.Transaction{}, err
	}

	date, _ := core.ParseDate(in.TransactionDate)
	t := core.Transaction{
		UserID:          userID,
		AccountID:       in.AccountID,
		CategoryID:      in.CategoryID,
		Type:            in.Type,
		Amount:          in.Amount,
		Description:     strings.TrimSpace(in.Description),
		Notes:           strings.TrimSpace(in.Notes),
		TransactionDate: date,
		ReferenceNumber: in.ReferenceNumber,
		Location:        in.Location,
		Tags:            in.Tags,
	}
	if in.Type == core.TransactionTransfer {
		t.TransferAccountID = in.TransferAccountID
	}

	saved, err := s.store.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, err
	}

	slog.InfoContext(ctx, "Transaction created",
		"transaction_id", saved.ID,
		"user_id", userID,
		"type", saved.Type,
		"amount", saved.Amount.StringFixed(2))

	s.emit(ctx, core.EventCreated, saved.ID, userID)
	return saved, nil
}

// Update merges patch onto the stored transaction. Rules are re-checked
// against the merged values whenever a field they depend on changes.
func (s *TransactionService) Update(ctx context.Context, userID, id string, patch core.TransactionPatch) (core.Transaction, error) {
	t, err := s.update(ctx, userID, id, patch)
	return t, core.Op("update transaction", err)
}

func (s *TransactionService) update(ctx context.Context, userID, id string, patch core.TransactionPatch) (core.Transaction, error) {
	current, err := s.store.FindTransaction(ctx, id, userID)
	if err != nil {
		return core.Transaction{}, err
	}

	merged := core.TransactionInput{
		AccountID:         current.AccountID,
		CategoryID:        current.CategoryID,
		Type:              current.Type,
		Amount:            current.Amount,
		Description:       current.Description,
		Notes:             current.Notes,
		TransferAccountID: current.TransferAccountID,
		ReferenceNumber:   current.ReferenceNumber,
		Location:          current.Location,
		Tags:              current.Tags,
	}
	recheck := applyPatch(&merged, patch)

	date := current.TransactionDate
	if patch.TransactionDate != nil {
		merged.TransactionDate = *patch.TransactionDate
		recheck = true
	}

	if recheck {
		if err := s.validator.Validate(ctx, userID, merged); err != nil {
			return core.Transaction{}, err
		}
	}
	if merged.TransactionDate != "" {
		date, _ = core.ParseDate(merged.TransactionDate)
	}

	next := current
	next.AccountID = merged.AccountID
	next.CategoryID = merged.CategoryID
	next.Type = merged.Type
	next.Amount = merged.Amount
	next.Description = strings.TrimSpace(merged.Description)
	next.Notes = strings.TrimSpace(merged.Notes)
	next.TransactionDate = date
	next.TransferAccountID = ""
	if merged.Type == core.TransactionTransfer {
		next.TransferAccountID = merged.TransferAccountID
	}
	next.ReferenceNumber = merged.ReferenceNumber
	next.Location = merged.Location
	next.Tags = merged.Tags

	saved, err := s.store.UpdateTransaction(ctx, next)
	if err != nil {
		return core.Transaction{}, err
	}

	slog.InfoContext(ctx, "Transaction updated",
		"transaction_id", saved.ID,
		"user_id", userID)

	s.emit(ctx, core.EventUpdated, saved.ID, userID)
	return saved, nil
}

// applyPatch copies the set fields of p onto in and reports whether any
// validated field changed.
func applyPatch(in *core.TransactionInput, p core.TransactionPatch) bool {
	recheck := false
	if p.AccountID != nil {
		in.AccountID = *p.AccountID
		recheck = true
	}
	if p.CategoryID != nil {
		in.CategoryID = *p.CategoryID
		recheck = true
	}
	if p.Type != nil {
		in.Type = core.NormalizeTransactionType(string(*p.Type))
		recheck = true
	}
	if p.Amount != nil {
		in.Amount = core.RoundAmount(*p.Amount)
		recheck = true
	}
	if p.Description != nil {
		in.Description = *p.Description
		recheck = true
	}
	if p.TransferAccountID != nil {
		in.TransferAccountID = *p.TransferAccountID
		recheck = true
	}
	if p.Notes != nil {
		in.Notes = *p.Notes
	}
	if p.ReferenceNumber != nil {
		in.ReferenceNumber = *p.ReferenceNumber
	}
	if p.Location != nil {
		in.Location = *p.Location
	}
	if p.Tags != nil {
		in.Tags = *p.Tags
	}
	return recheck
}

// Delete permanently removes the transaction.
func (s *TransactionService) Delete(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteTransaction(ctx, id, userID); err != nil {
		return core.Op("delete transaction", err)
	}
	slog.InfoContext(ctx, "Transaction deleted", "transaction_id", id, "user_id", userID)
	s.emit(ctx, core.EventDeleted, id, userID)
	return nil
}

// QuickExpense records an expense dated today, falling back to the
// user's default account when none is given.
func (s *TransactionService) QuickExpense(ctx context.Context, userID string, q core.QuickEntry) (core.Transaction, error) {
	t, err := s.quick(ctx, userID, core.TransactionExpense, q)
	return t, core.Op("create quick expense", err)
}

func (s *TransactionService) QuickIncome(ctx context.Context, userID string, q core.QuickEntry) (core.Transaction, error) {
	t, err := s.quick(ctx, userID, core.TransactionIncome, q)
	return t, core.Op("create quick income", err)
}

func (s *TransactionService) quick(ctx context.Context, userID string, typ core.TransactionType, q core.QuickEntry) (core.Transaction, error) {
	accountID := q.AccountID
	if accountID == "" {
		def, err := s.store.DefaultAccount(ctx, userID)
		if core.IsNotFound(err) {
			return core.Transaction{}, core.NotFoundf(msgNoDefaultAccount)
		}
		if err != nil {
			return core.Transaction{}, err
		}
		accountID = def.ID
	}

	return s.create(ctx, userID, core.TransactionInput{
		AccountID:       accountID,
		CategoryID:      q.CategoryID,
		Type:            typ,
		Amount:          q.Amount,
		Description:     q.Description,
		TransactionDate: core.DateOf(s.now()).String(),
	})
}

// emit records the change in the outbox and publishes it. Failures are
// logged; the replay loop picks up anything that was not delivered.
func (s *TransactionService) emit(ctx context.Context, action core.EventAction, transactionID, userID string) {
	event, err := s.store.RecordEvent(ctx, core.TransactionEvent{
		Action:        action,
		TransactionID: transactionID,
		UserID:        userID,
		OccurredAt:    s.now().UTC(),
	})
	if err != nil {
		slog.ErrorContext(ctx, "Failed to record transaction event",
			"transaction_id", transactionID, "action", action, "error", err)
		return
	}

	if s.publisher == nil {
		slog.DebugContext(ctx, "No event publisher configured, leaving event for replay",
			"event_id", event.ID)
		return
	}
	if err := s.publisher.PublishTransactionEvent(ctx, event); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"event_id", event.ID, "transaction_id", transactionID, "error", err)
	}
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
