package storage

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"fintrack/internal/core"
)

// transactionSelect lists the transaction columns followed by the joined
// account, category and transfer-account snapshots, in scan order.
var transactionSelect = []string{
	"t.id", "t.user_id", "t.account_id", "t.category_id", "t.type", "t.amount_cents",
	"t.description", "t.notes", "t.transaction_date", "t.transfer_account_id",
	"t.transfer_transaction_id", "t.reference_number", "t.location", "t.tags",
	"t.created_at", "t.updated_at",
	"a.id", "a.name", "a.account_type", "a.color",
	"c.id", "c.name", "c.color", "c.icon",
	"ta.id", "ta.name",
}

// sortColumns maps accepted sort keys, with underscores removed and
// lower-cased, to the column they order by.
var sortColumns = map[string]string{
	"transactiondate": "t.transaction_date",
	"amount":          "t.amount_cents",
	"createdat":       "t.created_at",
	"updatedat":       "t.updated_at",
	"description":     "t.description",
	"type":            "t.type",
}

// baseTransactionQuery selects a user's transactions with their snapshots.
// Joins are scoped to the same user so a foreign row never leaks in.
func baseTransactionQuery(userID string) sq.SelectBuilder {
	return sq.Select(transactionSelect...).
		From("transactions t").
		LeftJoin("accounts a ON a.id = t.account_id AND a.user_id = t.user_id").
		LeftJoin("categories c ON c.id = t.category_id AND c.user_id = t.user_id").
		LeftJoin("accounts ta ON ta.id = t.transfer_account_id AND ta.user_id = t.user_id").
		Where(sq.Eq{"t.user_id": userID})
}

// buildTransactionQuery composes every supplied filter conjunctively.
func buildTransactionQuery(userID string, f core.TransactionFilter) (sq.SelectBuilder, error) {
	orderBy, err := orderClause(f.OrderBy, f.OrderDirection)
	if err != nil {
		return sq.SelectBuilder{}, err
	}

	q := baseTransactionQuery(userID)
	if f.Type != "" {
		q = q.Where(sq.Eq{"t.type": string(f.Type)})
	}
	if f.AccountID != "" {
		q = q.Where(sq.Eq{"t.account_id": f.AccountID})
	}
	if f.CategoryID != "" {
		q = q.Where(sq.Eq{"t.category_id": f.CategoryID})
	}
	if f.StartDate != nil {
		q = q.Where(sq.GtOrEq{"t.transaction_date": f.StartDate.String()})
	}
	if f.EndDate != nil {
		q = q.Where(sq.LtOrEq{"t.transaction_date": f.EndDate.String()})
	}
	if f.MinAmount != nil {
		if !core.CentsInRange(*f.MinAmount) {
			return sq.SelectBuilder{}, core.Validation("Invalid minAmount")
		}
		q = q.Where(sq.GtOrEq{"t.amount_cents": core.ToCents(*f.MinAmount)})
	}
	if f.MaxAmount != nil {
		if !core.CentsInRange(*f.MaxAmount) {
			return sq.SelectBuilder{}, core.Validation("Invalid maxAmount")
		}
		q = q.Where(sq.LtOrEq{"t.amount_cents": core.ToCents(*f.MaxAmount)})
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		pattern := "%" + escapeLike(strings.ToLower(search)) + "%"
		q = q.Where(sq.Or{
			sq.Expr(`LOWER(t.description) LIKE ? ESCAPE '\'`, pattern),
			sq.Expr(`LOWER(t.notes) LIKE ? ESCAPE '\'`, pattern),
			sq.Expr(`LOWER(COALESCE(a.name, '')) LIKE ? ESCAPE '\'`, pattern),
			sq.Expr(`LOWER(COALESCE(c.name, '')) LIKE ? ESCAPE '\'`, pattern),
		})
	}

	q = q.OrderBy(orderBy...)
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
		if f.Offset > 0 {
			q = q.Offset(uint64(f.Offset))
		}
	}
	return q, nil
}

// orderClause resolves caller-supplied ordering against the allow-list.
// Anything outside it is rejected, never passed through.
func orderClause(orderBy, direction string) ([]string, error) {
	var msgs []string

	column := "t.transaction_date"
	if key := strings.TrimSpace(orderBy); key != "" {
		c, ok := sortColumns[strings.ToLower(strings.ReplaceAll(key, "_", ""))]
		if !ok {
			msgs = append(msgs, fmt.Sprintf("Invalid sort field '%s'", orderBy))
		}
		column = c
	}

	dir := "DESC"
	switch strings.ToUpper(strings.TrimSpace(direction)) {
	case "":
	case "ASC":
		dir = "ASC"
	case "DESC":
		dir = "DESC"
	default:
		msgs = append(msgs, fmt.Sprintf("Invalid sort direction '%s'", direction))
	}

	if len(msgs) > 0 {
		return nil, core.Validation(msgs...)
	}

	clauses := []string{column + " " + dir}
	if column != "t.created_at" {
		clauses = append(clauses, "t.created_at DESC")
	}
	return append(clauses, "t.id ASC"), nil
}

// escapeLike makes LIKE wildcards in a search term literal.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
