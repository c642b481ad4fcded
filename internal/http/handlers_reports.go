package http

import "net/http"

// handleMonthlySummary defaults year and month to the current month.
func (s *Server) handleMonthlySummary(w http.ResponseWriter, r *http.Request, userID string) {
	year, month, err := parseMonthParams(r, s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	summary, err := s.deps.Reports.MonthlySummary(r.Context(), userID, year, month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleSpendingTrends(w http.ResponseWriter, r *http.Request, userID string) {
	trends, err := s.deps.Reports.SpendingTrends(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newList(trends))
}
