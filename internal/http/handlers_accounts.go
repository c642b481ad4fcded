package http

import (
	"net/http"

	"fintrack/internal/core"
)

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request, userID string) {
	p := newQueryParser(r)
	f := core.AccountFilter{Active: p.boolean("active")}
	if v := p.text("accountType"); v != "" {
		f.AccountType = core.NormalizeAccountType(v)
		if !f.AccountType.Valid() {
			p.msgs = append(p.msgs, "Invalid account type")
		}
	}
	if err := p.err(); err != nil {
		writeError(w, r, err)
		return
	}
	accounts, err := s.deps.Accounts.List(r.Context(), userID, f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newList(accounts))
}

// handleAccountsOfType serves the fixed per-type shortcuts.
func (s *Server) handleAccountsOfType(t core.AccountType) userHandler {
	return func(w http.ResponseWriter, r *http.Request, userID string) {
		accounts, err := s.deps.Accounts.ListActiveOfType(r.Context(), userID, t)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, newList(accounts))
	}
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request, userID string) {
	s.writeAccount(w, r, http.StatusOK)(s.deps.Accounts.Get(r.Context(), userID, r.PathValue("id")))
}

func (s *Server) handleDefaultAccount(w http.ResponseWriter, r *http.Request, userID string) {
	s.writeAccount(w, r, http.StatusOK)(s.deps.Accounts.Default(r.Context(), userID))
}

func (s *Server) handleAccountsSummary(w http.ResponseWriter, r *http.Request, userID string) {
	summary, err := s.deps.Accounts.Summary(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newList(summary))
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request, userID string) {
	var req accountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s.writeAccount(w, r, http.StatusCreated)(s.deps.Accounts.Create(r.Context(), userID, req.input()))
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request, userID string) {
	var req accountPatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s.writeAccount(w, r, http.StatusOK)(s.deps.Accounts.Update(r.Context(), userID, r.PathValue("id"), req.patch()))
}

func (s *Server) handleSetDefaultAccount(w http.ResponseWriter, r *http.Request, userID string) {
	s.writeAccount(w, r, http.StatusOK)(s.deps.Accounts.SetDefault(r.Context(), userID, r.PathValue("id")))
}

func (s *Server) handleDeactivateAccount(w http.ResponseWriter, r *http.Request, userID string) {
	s.writeAccount(w, r, http.StatusOK)(s.deps.Accounts.Deactivate(r.Context(), userID, r.PathValue("id")))
}

func (s *Server) handleUpdateAccountBalance(w http.ResponseWriter, r *http.Request, userID string) {
	var req balanceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Balance == nil {
		writeError(w, r, core.Validation("Balance is required"))
		return
	}
	s.writeAccount(w, r, http.StatusOK)(s.deps.Accounts.UpdateBalance(r.Context(), userID, r.PathValue("id"), *req.Balance))
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request, userID string) {
	if err := s.deps.Accounts.Delete(r.Context(), userID, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSeedAccounts(w http.ResponseWriter, r *http.Request, userID string) {
	created, err := s.deps.Accounts.SeedDefaults(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newList(created))
}

func (s *Server) writeAccount(w http.ResponseWriter, r *http.Request, status int) func(core.Account, error) {
	return func(a core.Account, err error) {
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, status, a)
	}
}
