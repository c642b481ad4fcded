package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"fintrack/internal/core"
)

const eventColumns = `id, action, transaction_id, user_id, occurred_at, attempts`

// RecordEvent appends a transaction change to the outbox as pending.
func (r *SQLiteRepository) RecordEvent(ctx context.Context, e core.TransactionEvent) (core.TransactionEvent, error) {
	if e.ID == "" {
		e.ID = newID()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = r.now()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transaction_events (id, action, transaction_id, user_id, occurred_at)
		VALUES (?, ?, ?, ?, ?)`,
		e.ID, string(e.Action), e.TransactionID, e.UserID, e.OccurredAt.UTC().Format(timestampLayout))
	if err != nil {
		return core.TransactionEvent{}, fmt.Errorf("insert transaction event: %w", err)
	}
	return e, nil
}

func (r *SQLiteRepository) GetEvent(ctx context.Context, id string) (core.TransactionEvent, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM transaction_events WHERE id = ?`, id)
	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.TransactionEvent{}, core.NotFound("Transaction event")
	}
	return e, err
}

// PendingEvents returns up to limit events not yet journaled, oldest first.
// Failed events are retried until they reach maxAttempts; zero means no cap.
func (r *SQLiteRepository) PendingEvents(ctx context.Context, limit, maxAttempts int) ([]core.TransactionEvent, error) {
	q := sq.Select(eventColumns).
		From("transaction_events").
		Where(sq.Eq{"journal_status": []string{"pending", "error"}}).
		OrderBy("occurred_at ASC", "id ASC").
		Limit(uint64(max(limit, 0)))
	if maxAttempts > 0 {
		q = q.Where(sq.Lt{"attempts": maxAttempts})
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build pending events query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query pending events: %w", err)
	}
	defer rows.Close()

	events := []core.TransactionEvent{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// MarkEventJournaled records that the event reached the journal.
func (r *SQLiteRepository) MarkEventJournaled(ctx context.Context, id string) error {
	ts := r.timestamp()
	_, err := r.db.ExecContext(ctx,
		`UPDATE transaction_events SET journal_status = 'journaled', journaled_at = ?, attempts = attempts + 1
		WHERE id = ?`, ts, id)
	if err != nil {
		return fmt.Errorf("mark event journaled: %w", err)
	}
	return nil
}

// MarkEventFailed counts a failed attempt so the event is retried later.
func (r *SQLiteRepository) MarkEventFailed(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE transaction_events SET journal_status = 'error', attempts = attempts + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark event failed: %w", err)
	}
	return nil
}

// IsEventJournaled reports whether the event was already mirrored, which
// lets redelivered messages be acknowledged without a second row.
func (r *SQLiteRepository) IsEventJournaled(ctx context.Context, id string) (bool, error) {
	var status string
	err := r.db.QueryRowContext(ctx, `SELECT journal_status FROM transaction_events WHERE id = ?`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return false, core.NotFound("Transaction event")
	}
	if err != nil {
		return false, fmt.Errorf("read event status: %w", err)
	}
	return status == "journaled", nil
}

func scanEvent(row rowScanner) (core.TransactionEvent, error) {
	var (
		e          core.TransactionEvent
		action     string
		occurredAt string
	)
	if err := row.Scan(&e.ID, &action, &e.TransactionID, &e.UserID, &occurredAt, &e.Attempts); err != nil {
		return core.TransactionEvent{}, err
	}
	e.Action = core.EventAction(action)
	e.OccurredAt = parseTimestamp(occurredAt)
	return e, nil
}
