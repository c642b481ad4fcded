package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

const accountColumns = `id, user_id, name, account_type, bank_name, account_number_last_four,
	initial_balance_cents, current_balance_cents, currency, color, icon,
	active, is_default, notes, created_at, updated_at`

const (
	accountConflictMessage = "Account with this name already exists."
	defaultConflictMessage = "Only one default account is allowed."
)

// accountConstraintError maps unique violations on accounts to conflicts.
// Only the (user_id, name) constraint means a duplicate name.
func accountConstraintError(err error) error {
	switch {
	case uniqueViolationOn(err, "accounts.user_id, accounts.name"):
		return core.Conflict(accountConflictMessage, err)
	case uniqueViolationOn(err, "accounts.user_id"):
		return core.Conflict(defaultConflictMessage, err)
	case isUniqueViolation(err):
		return core.Conflict("Account conflicts with an existing account.", err)
	}
	return nil
}

// CreateAccount inserts an account. When it is flagged default, every other
// account of the user loses the flag in the same database transaction.
func (r *SQLiteRepository) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	if a.ID == "" {
		a.ID = newID()
	}
	ts := r.timestamp()

	err := r.inTx(ctx, func(tx *sql.Tx) error {
		if a.IsDefault {
			if err := clearDefault(ctx, tx, a.UserID, ts); err != nil {
				return err
			}
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO accounts (`+accountColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			a.ID, a.UserID, a.Name, string(a.AccountType), a.BankName, a.AccountNumberLastFour,
			core.ToCents(a.InitialBalance), core.ToCents(a.CurrentBalance), a.Currency, a.Color, a.Icon,
			boolToInt(a.Active), boolToInt(a.IsDefault), a.Notes, ts, ts)
		return err
	})
	if err != nil {
		if cerr := accountConstraintError(err); cerr != nil {
			return core.Account{}, cerr
		}
		return core.Account{}, fmt.Errorf("insert account: %w", err)
	}

	slog.InfoContext(ctx, "Account saved to SQLite",
		"account_id", a.ID,
		"user_id", a.UserID,
		"account_type", a.AccountType,
		"is_default", a.IsDefault)

	return r.GetAccount(ctx, a.ID, a.UserID)
}

// GetAccount returns the account only when userID owns it.
func (r *SQLiteRepository) GetAccount(ctx context.Context, id, userID string) (core.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ? AND user_id = ?`, id, userID)
	return scanAccount(row)
}

// ListAccounts returns the default account first, then by name.
func (r *SQLiteRepository) ListAccounts(ctx context.Context, userID string, f core.AccountFilter) ([]core.Account, error) {
	q := sq.Select(accountColumns).From("accounts").Where(sq.Eq{"user_id": userID})
	if f.AccountType != "" {
		q = q.Where(sq.Eq{"account_type": string(f.AccountType)})
	}
	if f.Active != nil {
		q = q.Where(sq.Eq{"active": boolToInt(*f.Active)})
	}
	q = q.OrderBy("is_default DESC", "name ASC")

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build account query: %w", err)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	accounts := []core.Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// DefaultAccount returns the user's default account among active ones.
func (r *SQLiteRepository) DefaultAccount(ctx context.Context, userID string) (core.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts
		WHERE user_id = ? AND is_default = 1 AND active = 1`, userID)
	return scanAccount(row)
}

// UpdateAccount writes every mutable field of a. Balances are not touched;
// they change only through SetAccountBalance.
func (r *SQLiteRepository) UpdateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	ts := r.timestamp()
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		if a.IsDefault {
			if err := clearDefault(ctx, tx, a.UserID, ts); err != nil {
				return err
			}
		}
		res, err := tx.ExecContext(ctx,
			`UPDATE accounts SET name = ?, account_type = ?, bank_name = ?, account_number_last_four = ?,
				currency = ?, color = ?, icon = ?, active = ?, is_default = ?, notes = ?, updated_at = ?
			WHERE id = ? AND user_id = ?`,
			a.Name, string(a.AccountType), a.BankName, a.AccountNumberLastFour,
			a.Currency, a.Color, a.Icon, boolToInt(a.Active), boolToInt(a.IsDefault), a.Notes, ts,
			a.ID, a.UserID)
		if err != nil {
			return err
		}
		return expectOneRow(res, "Account")
	})
	if err != nil {
		if cerr := accountConstraintError(err); cerr != nil {
			return core.Account{}, cerr
		}
		if core.IsNotFound(err) {
			return core.Account{}, err
		}
		return core.Account{}, fmt.Errorf("update account: %w", err)
	}
	return r.GetAccount(ctx, a.ID, a.UserID)
}

// SetDefaultAccount makes id the user's only default account. Clearing the
// old default and setting the new one commit together.
func (r *SQLiteRepository) SetDefaultAccount(ctx context.Context, id, userID string) (core.Account, error) {
	ts := r.timestamp()
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		if err := clearDefault(ctx, tx, userID, ts); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			`UPDATE accounts SET is_default = 1, updated_at = ? WHERE id = ? AND user_id = ?`,
			ts, id, userID)
		if err != nil {
			return err
		}
		return expectOneRow(res, "Account")
	})
	if err != nil {
		if core.IsNotFound(err) {
			return core.Account{}, err
		}
		return core.Account{}, fmt.Errorf("set default account: %w", err)
	}

	slog.InfoContext(ctx, "Default account changed", "account_id", id, "user_id", userID)
	return r.GetAccount(ctx, id, userID)
}

// DeactivateAccount clears active and default together.
func (r *SQLiteRepository) DeactivateAccount(ctx context.Context, id, userID string) (core.Account, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET active = 0, is_default = 0, updated_at = ? WHERE id = ? AND user_id = ?`,
		r.timestamp(), id, userID)
	if err != nil {
		return core.Account{}, fmt.Errorf("deactivate account: %w", err)
	}
	if err := expectOneRow(res, "Account"); err != nil {
		return core.Account{}, err
	}
	return r.GetAccount(ctx, id, userID)
}

// DeleteAccount removes the account row. Transactions referencing it stay.
func (r *SQLiteRepository) DeleteAccount(ctx context.Context, id, userID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if err := expectOneRow(res, "Account"); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Account deleted from SQLite", "account_id", id, "user_id", userID)
	return nil
}

// SetAccountBalance overwrites the current balance with an absolute value.
// Concurrent calls race; the last write wins.
func (r *SQLiteRepository) SetAccountBalance(ctx context.Context, id, userID string, balance decimal.Decimal) (core.Account, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET current_balance_cents = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		core.ToCents(balance), r.timestamp(), id, userID)
	if err != nil {
		return core.Account{}, fmt.Errorf("update account balance: %w", err)
	}
	if err := expectOneRow(res, "Account"); err != nil {
		return core.Account{}, err
	}
	slog.InfoContext(ctx, "Account balance updated",
		"account_id", id,
		"user_id", userID,
		"balance", balance.StringFixed(2))
	return r.GetAccount(ctx, id, userID)
}

// AccountsSummary groups active accounts by type and currency.
func (r *SQLiteRepository) AccountsSummary(ctx context.Context, userID string) ([]core.AccountTypeSummary, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT account_type, currency, COUNT(*), COALESCE(SUM(current_balance_cents), 0)
		FROM accounts
		WHERE user_id = ? AND active = 1
		GROUP BY account_type, currency
		ORDER BY account_type, currency`, userID)
	if err != nil {
		return nil, fmt.Errorf("query accounts summary: %w", err)
	}
	defer rows.Close()

	out := []core.AccountTypeSummary{}
	for rows.Next() {
		var (
			s           core.AccountTypeSummary
			accountType string
			totalCents  int64
		)
		if err := rows.Scan(&accountType, &s.Currency, &s.AccountCount, &totalCents); err != nil {
			return nil, fmt.Errorf("scan accounts summary: %w", err)
		}
		s.AccountType = core.AccountType(accountType)
		s.TotalBalance = core.FromCents(totalCents)
		out = append(out, s)
	}
	return out, rows.Err()
}

func clearDefault(ctx context.Context, tx runner, userID, ts string) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE accounts SET is_default = 0, updated_at = ? WHERE user_id = ? AND is_default = 1`,
		ts, userID)
	if err != nil {
		return fmt.Errorf("clear default account: %w", err)
	}
	return nil
}

func expectOneRow(res sql.Result, entity string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.NotFound(entity)
	}
	return nil
}

func scanAccount(row rowScanner) (core.Account, error) {
	var (
		a                    core.Account
		accountType          string
		initial, current     int64
		active, isDefault    int
		createdAt, updatedAt string
	)
	err := row.Scan(&a.ID, &a.UserID, &a.Name, &accountType, &a.BankName, &a.AccountNumberLastFour,
		&initial, &current, &a.Currency, &a.Color, &a.Icon,
		&active, &isDefault, &a.Notes, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, core.NotFound("Account")
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("scan account: %w", err)
	}
	a.AccountType = core.AccountType(accountType)
	a.InitialBalance = core.FromCents(initial)
	a.CurrentBalance = core.FromCents(current)
	a.Active = active == 1
	a.IsDefault = isDefault == 1
	a.CreatedAt = parseTimestamp(createdAt)
	a.UpdatedAt = parseTimestamp(updatedAt)
	return a, nil
}
