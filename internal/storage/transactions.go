package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// CreateTransaction persists a single transaction row and returns it
// enriched with its snapshots. Transfers write only the origin leg.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if t.ID == "" {
		t.ID = newID()
	}
	tags, err := encodeTags(t.Tags)
	if err != nil {
		return core.Transaction{}, err
	}
	ts := r.timestamp()

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO transactions (id, user_id, account_id, category_id, type, amount_cents,
			description, notes, transaction_date, transfer_account_id, transfer_transaction_id,
			reference_number, location, tags, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.AccountID, t.CategoryID, string(t.Type), core.ToCents(t.Amount),
		t.Description, t.Notes, t.TransactionDate.String(), nullString(t.TransferAccountID),
		t.ReferenceNumber, t.Location, tags, ts, ts)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"transaction_id", t.ID,
		"user_id", t.UserID,
		"type", t.Type,
		"amount_cents", core.ToCents(t.Amount),
		"date", t.TransactionDate.String())

	return r.FindTransaction(ctx, t.ID, t.UserID)
}

// UpdateTransaction overwrites the stored fields of t.
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	tags, err := encodeTags(t.Tags)
	if err != nil {
		return core.Transaction{}, err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET account_id = ?, category_id = ?, type = ?, amount_cents = ?,
			description = ?, notes = ?, transaction_date = ?, transfer_account_id = ?,
			reference_number = ?, location = ?, tags = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		t.AccountID, t.CategoryID, string(t.Type), core.ToCents(t.Amount),
		t.Description, t.Notes, t.TransactionDate.String(), nullString(t.TransferAccountID),
		t.ReferenceNumber, t.Location, tags, r.timestamp(),
		t.ID, t.UserID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	if err := expectOneRow(res, "Transaction"); err != nil {
		return core.Transaction{}, err
	}
	return r.FindTransaction(ctx, t.ID, t.UserID)
}

// DeleteTransaction permanently removes the transaction.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id, userID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if err := expectOneRow(res, "Transaction"); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Transaction deleted from SQLite", "transaction_id", id, "user_id", userID)
	return nil
}

// FindTransaction looks a transaction up by id within the user's rows.
func (r *SQLiteRepository) FindTransaction(ctx context.Context, id, userID string) (core.Transaction, error) {
	query, args, err := baseTransactionQuery(userID).Where(sq.Eq{"t.id": id}).ToSql()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("build transaction query: %w", err)
	}
	t, err := scanTransaction(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.NotFound("Transaction")
	}
	return t, err
}

// QueryTransactions runs a filtered, sorted and paginated lookup.
func (r *SQLiteRepository) QueryTransactions(ctx context.Context, userID string, f core.TransactionFilter) ([]core.Transaction, error) {
	q, err := buildTransactionQuery(userID, f)
	if err != nil {
		return nil, err
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build transaction query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	out := []core.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

// TransactionStats aggregates count, total, average, min and max per type.
func (r *SQLiteRepository) TransactionStats(ctx context.Context, userID string, start, end *core.Date) ([]core.TypeStats, error) {
	q := sq.Select("type", "COUNT(*)", "SUM(amount_cents)", "MIN(amount_cents)", "MAX(amount_cents)").
		From("transactions").
		Where(sq.Eq{"user_id": userID})
	if start != nil {
		q = q.Where(sq.GtOrEq{"transaction_date": start.String()})
	}
	if end != nil {
		q = q.Where(sq.LtOrEq{"transaction_date": end.String()})
	}
	query, args, err := q.GroupBy("type").OrderBy("type").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build stats query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transaction stats: %w", err)
	}
	defer rows.Close()

	stats := []core.TypeStats{}
	for rows.Next() {
		var (
			s                 core.TypeStats
			txType            string
			total, minC, maxC int64
		)
		if err := rows.Scan(&txType, &s.Count, &total, &minC, &maxC); err != nil {
			return nil, fmt.Errorf("scan transaction stats: %w", err)
		}
		s.Type = core.TransactionType(txType)
		s.Total = core.FromCents(total)
		s.Min = core.FromCents(minC)
		s.Max = core.FromCents(maxC)
		if s.Count > 0 {
			s.Average = s.Total.Div(decimal.NewFromInt(int64(s.Count))).Round(2)
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t                                 core.Transaction
		txType, date, tags                string
		amountCents                       int64
		createdAt, updatedAt              string
		transferAccountID, transferTxID   sql.NullString
		accID, accName, accType, accColor sql.NullString
		catID, catName, catColor, catIcon sql.NullString
		trID, trName                      sql.NullString
	)
	err := row.Scan(
		&t.ID, &t.UserID, &t.AccountID, &t.CategoryID, &txType, &amountCents,
		&t.Description, &t.Notes, &date, &transferAccountID,
		&transferTxID, &t.ReferenceNumber, &t.Location, &tags,
		&createdAt, &updatedAt,
		&accID, &accName, &accType, &accColor,
		&catID, &catName, &catColor, &catIcon,
		&trID, &trName,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Transaction{}, err
		}
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}

	t.Type = core.TransactionType(txType)
	t.Amount = core.FromCents(amountCents)
	t.TransactionDate, err = core.ParseDate(date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse transaction date %q: %w", date, err)
	}
	t.TransferAccountID = transferAccountID.String
	t.TransferTransactionID = transferTxID.String
	t.Tags = decodeTags(tags)
	t.CreatedAt = parseTimestamp(createdAt)
	t.UpdatedAt = parseTimestamp(updatedAt)

	if accID.Valid {
		t.Account = &core.AccountRef{
			ID:          accID.String,
			Name:        accName.String,
			AccountType: core.AccountType(accType.String),
			Color:       accColor.String,
		}
	}
	if catID.Valid {
		t.Category = &core.CategoryRef{
			ID:    catID.String,
			Name:  catName.String,
			Color: catColor.String,
			Icon:  catIcon.String,
		}
	}
	if trID.Valid {
		t.TransferAccount = &core.TransferAccountRef{ID: trID.String, Name: trName.String}
	}
	return t, nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encode tags: %w", err)
	}
	return string(b), nil
}

func decodeTags(s string) []string {
	tags := []string{}
	if s == "" {
		return tags
	}
	if err := json.Unmarshal([]byte(s), &tags); err != nil {
		return []string{}
	}
	return tags
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
