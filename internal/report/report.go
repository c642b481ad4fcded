// Package report turns transaction rows into monthly summaries and trends.
// It does no I/O; callers fetch the rows and pass them in.
package report

import (
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// TrendMonths is the length of the rolling spending trend window.
const TrendMonths = 6

// Monthly aggregates txs, which must already be restricted to the given
// calendar month. Every row counts towards TransactionCount and its account
// bucket; only income and expense rows move the totals.
func Monthly(year, month int, txs []core.Transaction) core.MonthlySummary {
	start, end := core.MonthBounds(year, month)
	s := core.MonthlySummary{
		Year:                  year,
		Month:                 month,
		StartDate:             start,
		EndDate:               end,
		TotalIncome:           decimal.Zero,
		TotalExpenses:         decimal.Zero,
		NetIncome:             decimal.Zero,
		ExpensesByCategory:    map[string]core.CategoryTotal{},
		IncomeByCategory:      map[string]core.CategoryTotal{},
		TransactionsByAccount: map[string]core.AccountTotal{},
	}

	for _, tx := range txs {
		s.TransactionCount++

		accKey, accColor := accountKey(tx)
		acc, ok := s.TransactionsByAccount[accKey]
		if !ok {
			acc = core.AccountTotal{Income: decimal.Zero, Expenses: decimal.Zero, Color: accColor}
		}
		acc.Count++

		switch tx.Type {
		case core.TransactionIncome:
			s.TotalIncome = s.TotalIncome.Add(tx.Amount)
			acc.Income = acc.Income.Add(tx.Amount)
			addCategory(s.IncomeByCategory, tx)
		case core.TransactionExpense:
			s.TotalExpenses = s.TotalExpenses.Add(tx.Amount)
			acc.Expenses = acc.Expenses.Add(tx.Amount)
			addCategory(s.ExpensesByCategory, tx)
		}
		s.TransactionsByAccount[accKey] = acc
	}

	s.NetIncome = s.TotalIncome.Sub(s.TotalExpenses)
	return s
}

func addCategory(m map[string]core.CategoryTotal, tx core.Transaction) {
	key, color := categoryKey(tx)
	ct, ok := m[key]
	if !ok {
		ct = core.CategoryTotal{Amount: decimal.Zero, Color: color}
	}
	ct.Amount = ct.Amount.Add(tx.Amount)
	ct.Count++
	m[key] = ct
}

func categoryKey(tx core.Transaction) (string, string) {
	if tx.Category == nil {
		return core.UncategorizedKey, core.DefaultColor
	}
	return tx.Category.Name, tx.Category.Color
}

func accountKey(tx core.Transaction) (string, string) {
	if tx.Account == nil {
		return core.UnknownAccountKey, core.DefaultColor
	}
	return tx.Account.Name, tx.Account.Color
}

// Month identifies one calendar month.
type Month struct {
	Year  int
	Month int
}

// TrendWindow returns the TrendMonths calendar months ending at the month
// containing now, oldest first.
func TrendWindow(now time.Time) []Month {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	months := make([]Month, TrendMonths)
	for i := range months {
		m := first.AddDate(0, i-(TrendMonths-1), 0)
		months[i] = Month{Year: m.Year(), Month: int(m.Month())}
	}
	return months
}

// TrendPoint projects a monthly summary onto one point of the trend.
func TrendPoint(s core.MonthlySummary) core.TrendPoint {
	return core.TrendPoint{
		Period:           core.MonthLabel(s.Year, s.Month),
		Year:             s.Year,
		Month:            s.Month,
		Income:           s.TotalIncome,
		Expenses:         s.TotalExpenses,
		NetIncome:        s.NetIncome,
		TransactionCount: s.TransactionCount,
	}
}
