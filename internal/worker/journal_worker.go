package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/sheets"
)

// EventStore is the slice of the repository the worker needs.
type EventStore interface {
	FindTransaction(ctx context.Context, id, userID string) (core.Transaction, error)
	PendingEvents(ctx context.Context, limit, maxAttempts int) ([]core.TransactionEvent, error)
	IsEventJournaled(ctx context.Context, id string) (bool, error)
	MarkEventJournaled(ctx context.Context, id string) error
	MarkEventFailed(ctx context.Context, id string) error
}

// DefaultMaxAttempts is how many times a failing event is tried before the
// replay loop stops picking it up.
const DefaultMaxAttempts = 10

// JournalWorker mirrors transaction events into the journal. Each event is
// appended at most once.
type JournalWorker struct {
	store       EventStore
	journal     sheets.JournalWriter
	maxAttempts int

	// Serializes the consumer and the replay loop on the same event.
	mu sync.Mutex
}

func NewJournalWorker(store EventStore, journal sheets.JournalWriter) *JournalWorker {
	return &JournalWorker{
		store:       store,
		journal:     journal,
		maxAttempts: DefaultMaxAttempts,
	}
}

// SetMaxAttempts caps replay retries of failing events. Zero or less
// retries them forever.
func (w *JournalWorker) SetMaxAttempts(n int) {
	w.maxAttempts = n
}

// HandleMessage processes a single transaction event delivered over AMQP.
func (w *JournalWorker) HandleMessage(ctx context.Context, msg *amqp.TransactionEventMessage) error {
	slog.InfoContext(ctx, "Processing transaction event",
		"event_id", msg.EventID,
		"action", msg.Action,
		"transaction_id", msg.TransactionID)

	return w.ProcessEvent(ctx, msg.Event())
}

// ProcessEvent appends the journal row for e and records the outcome in
// the outbox. A returned error means the event should be retried.
func (w *JournalWorker) ProcessEvent(ctx context.Context, e core.TransactionEvent) error {
	if !e.Action.Valid() {
		slog.WarnContext(ctx, "Dropping event with unknown action", "event_id", e.ID, "action", e.Action)
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	journaled, err := w.store.IsEventJournaled(ctx, e.ID)
	switch {
	case core.IsNotFound(err):
		slog.WarnContext(ctx, "Event not in outbox, skipping", "event_id", e.ID)
		return nil
	case err != nil:
		return fmt.Errorf("check event status: %w", err)
	case journaled:
		slog.DebugContext(ctx, "Event already journaled", "event_id", e.ID)
		return nil
	}

	entry := sheets.JournalEntry{
		OccurredAt:    e.OccurredAt,
		Action:        e.Action,
		TransactionID: e.TransactionID,
	}
	if e.Action != core.EventDeleted {
		tx, err := w.store.FindTransaction(ctx, e.TransactionID, e.UserID)
		if core.IsNotFound(err) {
			// Deleted before we got here; its deleted event follows.
			slog.WarnContext(ctx, "Transaction no longer exists, skipping event",
				"event_id", e.ID,
				"transaction_id", e.TransactionID)
			w.markJournaled(ctx, e.ID)
			return nil
		}
		if err != nil {
			w.markFailed(ctx, e.ID)
			return fmt.Errorf("load transaction: %w", err)
		}
		entry.Transaction = &tx
	}

	ref, err := w.journal.Append(ctx, entry)
	if err != nil {
		w.markFailed(ctx, e.ID)
		return fmt.Errorf("append to journal: %w", err)
	}
	w.markJournaled(ctx, e.ID)

	log.NewStructuredLogger(log.FromContext(ctx)).
		LogJournalAppend(ctx, e.ID, string(e.Action), e.TransactionID, ref)
	return nil
}

// ProcessPending replays up to limit events that were never journaled.
// It is the backup path for messages lost by the broker.
func (w *JournalWorker) ProcessPending(ctx context.Context, limit int) (processed int, err error) {
	events, err := w.store.PendingEvents(ctx, limit, w.maxAttempts)
	if err != nil {
		return 0, fmt.Errorf("get pending events: %w", err)
	}
	if len(events) == 0 {
		return 0, nil
	}

	slog.InfoContext(ctx, "Replaying pending events", "count", len(events))

	for _, e := range events {
		if ctx.Err() != nil {
			return processed, ctx.Err()
		}
		if err := w.ProcessEvent(ctx, e); err != nil {
			slog.ErrorContext(ctx, "Failed to replay event",
				"event_id", e.ID, "attempts", e.Attempts+1, "error", err)
			if w.maxAttempts > 0 && e.Attempts+1 >= w.maxAttempts {
				slog.ErrorContext(ctx, "Giving up on event after repeated failures",
					"event_id", e.ID, "transaction_id", e.TransactionID, "attempts", e.Attempts+1)
			}
			continue
		}
		processed++
	}
	return processed, nil
}

func (w *JournalWorker) markJournaled(ctx context.Context, id string) {
	// The row is already in the journal; a stale status only costs a
	// skipped duplicate check.
	if err := w.store.MarkEventJournaled(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to mark event journaled", "event_id", id, "error", err)
	}
}

func (w *JournalWorker) markFailed(ctx context.Context, id string) {
	if err := w.store.MarkEventFailed(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to mark event failed", "event_id", id, "error", err)
	}
}
