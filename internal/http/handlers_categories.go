package http

import (
	"net/http"

	"fintrack/internal/core"
)

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request, userID string) {
	p := newQueryParser(r)
	f := core.CategoryFilter{Active: p.boolean("active")}
	if v := p.text("type"); v != "" {
		f.Type = core.NormalizeCategoryType(v)
		if !f.Type.Valid() {
			p.msgs = append(p.msgs, "Invalid category type")
		}
	}
	if err := p.err(); err != nil {
		writeError(w, r, err)
		return
	}
	categories, err := s.deps.Categories.List(r.Context(), userID, f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newList(categories))
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request, userID string) {
	s.writeCategory(w, r, http.StatusOK)(s.deps.Categories.Get(r.Context(), userID, r.PathValue("id")))
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request, userID string) {
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s.writeCategory(w, r, http.StatusCreated)(s.deps.Categories.Create(r.Context(), userID, req.input()))
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request, userID string) {
	var req categoryPatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s.writeCategory(w, r, http.StatusOK)(s.deps.Categories.Update(r.Context(), userID, r.PathValue("id"), req.patch()))
}

func (s *Server) handleDeactivateCategory(w http.ResponseWriter, r *http.Request, userID string) {
	s.writeCategory(w, r, http.StatusOK)(s.deps.Categories.Deactivate(r.Context(), userID, r.PathValue("id")))
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request, userID string) {
	if err := s.deps.Categories.Delete(r.Context(), userID, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSeedCategories(w http.ResponseWriter, r *http.Request, userID string) {
	created, err := s.deps.Categories.SeedDefaults(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newList(created))
}

func (s *Server) writeCategory(w http.ResponseWriter, r *http.Request, status int) func(core.Category, error) {
	return func(c core.Category, err error) {
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, status, c)
	}
}
