package sheets

import (
	"context"
	"time"

	"fintrack/internal/core"
)

// Header is the first row of a journal sheet.
var Header = []string{"Occurred At", "Action", "Transaction ID", "Date", "Type", "Amount", "Account", "Category", "Description"}

// JournalEntry is one line of the append-only transaction journal.
// Transaction is nil for deletions.
type JournalEntry struct {
	OccurredAt    time.Time
	Action        core.EventAction
	TransactionID string
	Transaction   *core.Transaction
}

// Row renders the entry in journal column order. Deleted transactions
// only carry the first three columns.
func (e JournalEntry) Row() []string {
	row := []string{e.OccurredAt.UTC().Format(time.RFC3339), string(e.Action), e.TransactionID}
	if e.Action == core.EventDeleted || e.Transaction == nil {
		return row
	}
	t := e.Transaction
	account, category := "", ""
	if t.Account != nil {
		account = t.Account.Name
	}
	if t.Category != nil {
		category = t.Category.Name
	}
	return append(row,
		t.TransactionDate.String(),
		string(t.Type),
		t.Amount.StringFixed(2),
		account,
		category,
		t.Description,
	)
}

// Ports for outbound adapters.
type (
	JournalWriter interface {
		// Append writes one entry and returns a backend-specific row reference.
		Append(ctx context.Context, e JournalEntry) (rowRef string, err error)
	}

	JournalReader interface {
		// Rows returns every journal row in append order, header excluded.
		Rows(ctx context.Context) ([][]string, error)
	}

	Journal interface {
		JournalWriter
		JournalReader
	}
)
