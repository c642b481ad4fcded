package sheets

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

func TestJournalEntryRow(t *testing.T) {
	at := time.Date(2026, 3, 1, 11, 30, 0, 0, time.FixedZone("IST", 5*3600+1800))
	tx := &core.Transaction{
		Type:            core.TransactionIncome,
		Amount:          decimal.NewFromInt(1000),
		Description:     "Salary",
		TransactionDate: core.NewDate(2026, 3, 1),
	}

	tests := []struct {
		name  string
		entry JournalEntry
		want  []string
	}{
		{
			name:  "created with references",
			entry: JournalEntry{OccurredAt: at, Action: core.EventCreated, TransactionID: "tx-1", Transaction: withRefs(tx)},
			want:  []string{"2026-03-01T06:00:00Z", "created", "tx-1", "2026-03-01", "income", "1000.00", "Checking", "Salary", "Salary"},
		},
		{
			name:  "orphaned references leave blanks",
			entry: JournalEntry{OccurredAt: at, Action: core.EventUpdated, TransactionID: "tx-1", Transaction: tx},
			want:  []string{"2026-03-01T06:00:00Z", "updated", "tx-1", "2026-03-01", "income", "1000.00", "", "", "Salary"},
		},
		{
			name:  "deleted",
			entry: JournalEntry{OccurredAt: at, Action: core.EventDeleted, TransactionID: "tx-1", Transaction: tx},
			want:  []string{"2026-03-01T06:00:00Z", "deleted", "tx-1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.entry.Row()
			if len(got) != len(tt.want) {
				t.Fatalf("Row() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Row()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func withRefs(t *core.Transaction) *core.Transaction {
	c := *t
	c.Account = &core.AccountRef{Name: "Checking"}
	c.Category = &core.CategoryRef{Name: "Salary"}
	return &c
}
