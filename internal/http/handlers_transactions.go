package http

import (
	"context"
	"net/http"

	"fintrack/internal/core"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request, userID string) {
	f, err := parseTransactionFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	txs, err := s.deps.Transactions.List(r.Context(), userID, f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newList(txs))
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request, userID string) {
	t, err := s.deps.Transactions.Get(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleRecentTransactions(w http.ResponseWriter, r *http.Request, userID string) {
	p := newQueryParser(r)
	limit := p.nonNegative("limit")
	if err := p.err(); err != nil {
		writeError(w, r, err)
		return
	}
	s.writeTransactions(w, r)(s.deps.Transactions.Recent(r.Context(), userID, limit))
}

func (s *Server) handleTransactionsByDateRange(w http.ResponseWriter, r *http.Request, userID string) {
	p := newQueryParser(r)
	p.require("startDate")
	p.require("endDate")
	start, end := p.date("startDate"), p.date("endDate")
	if err := p.err(); err != nil {
		writeError(w, r, err)
		return
	}
	s.writeTransactions(w, r)(s.deps.Transactions.ByDateRange(r.Context(), userID, *start, *end))
}

func (s *Server) handleSearchTransactions(w http.ResponseWriter, r *http.Request, userID string) {
	p := newQueryParser(r)
	q := p.text("q")
	limit := p.nonNegative("limit")
	if err := p.err(); err != nil {
		writeError(w, r, err)
		return
	}
	s.writeTransactions(w, r)(s.deps.Transactions.Search(r.Context(), userID, q, limit))
}

func (s *Server) handleExpenseTransactions(w http.ResponseWriter, r *http.Request, userID string) {
	p := newQueryParser(r)
	limit := p.nonNegative("limit")
	if err := p.err(); err != nil {
		writeError(w, r, err)
		return
	}
	s.writeTransactions(w, r)(s.deps.Transactions.Expenses(r.Context(), userID, limit))
}

func (s *Server) handleIncomeTransactions(w http.ResponseWriter, r *http.Request, userID string) {
	p := newQueryParser(r)
	limit := p.nonNegative("limit")
	if err := p.err(); err != nil {
		writeError(w, r, err)
		return
	}
	s.writeTransactions(w, r)(s.deps.Transactions.Incomes(r.Context(), userID, limit))
}

func (s *Server) handleAccountTransactions(w http.ResponseWriter, r *http.Request, userID string) {
	p := newQueryParser(r)
	limit := p.nonNegative("limit")
	if err := p.err(); err != nil {
		writeError(w, r, err)
		return
	}
	s.writeTransactions(w, r)(s.deps.Transactions.ForAccount(r.Context(), userID, r.PathValue("id"), limit))
}

func (s *Server) handleCategoryTransactions(w http.ResponseWriter, r *http.Request, userID string) {
	p := newQueryParser(r)
	limit := p.nonNegative("limit")
	if err := p.err(); err != nil {
		writeError(w, r, err)
		return
	}
	s.writeTransactions(w, r)(s.deps.Transactions.ForCategory(r.Context(), userID, r.PathValue("id"), limit))
}

func (s *Server) handleTransactionStats(w http.ResponseWriter, r *http.Request, userID string) {
	p := newQueryParser(r)
	start, end := p.date("startDate"), p.date("endDate")
	if err := p.err(); err != nil {
		writeError(w, r, err)
		return
	}
	stats, err := s.deps.Transactions.Stats(r.Context(), userID, start, end)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newList(stats))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request, userID string) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	t, err := s.deps.Transactions.Create(r.Context(), userID, req.input())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request, userID string) {
	var req transactionPatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	t, err := s.deps.Transactions.Update(r.Context(), userID, r.PathValue("id"), req.patch())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request, userID string) {
	if err := s.deps.Transactions.Delete(r.Context(), userID, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleQuickExpense(w http.ResponseWriter, r *http.Request, userID string) {
	s.handleQuickEntry(w, r, userID, s.deps.Transactions.QuickExpense)
}

func (s *Server) handleQuickIncome(w http.ResponseWriter, r *http.Request, userID string) {
	s.handleQuickEntry(w, r, userID, s.deps.Transactions.QuickIncome)
}

type quickFunc func(ctx context.Context, userID string, q core.QuickEntry) (core.Transaction, error)

func (s *Server) handleQuickEntry(w http.ResponseWriter, r *http.Request, userID string, record quickFunc) {
	var req quickEntryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	t, err := record(r.Context(), userID, req.entry())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// writeTransactions adapts a service call's results to a list response.
func (s *Server) writeTransactions(w http.ResponseWriter, r *http.Request) func([]core.Transaction, error) {
	return func(txs []core.Transaction, err error) {
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, newList(txs))
	}
}
