package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

// errorBody is the JSON shape of every failed response.
type errorBody struct {
	Error    string   `json:"error"`
	Kind     string   `json:"kind"`
	Messages []string `json:"messages,omitempty"`
}

// listBody wraps collection responses so they can grow metadata later.
type listBody[T any] struct {
	Data  []T `json:"data"`
	Count int `json:"count"`
}

func newList[T any](items []T) listBody[T] {
	if items == nil {
		items = []T{}
	}
	return listBody[T]{Data: items, Count: len(items)}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func statusForKind(k core.Kind) int {
	switch k {
	case core.KindValidation:
		return http.StatusUnprocessableEntity
	case core.KindNotFound:
		return http.StatusNotFound
	case core.KindConflict:
		return http.StatusConflict
	case core.KindAuthentication:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as an errorBody. Internal errors are logged in
// full and reported without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := core.KindOf(err)
	status := statusForKind(kind)

	body := errorBody{Error: err.Error(), Kind: string(kind)}
	var ce *core.Error
	if errors.As(err, &ce) && len(ce.Messages) > 0 {
		body.Messages = ce.Messages
	}
	if kind == core.KindInternal {
		body.Error = "Internal server error"
	}
	if kind == core.KindAuthentication {
		w.Header().Set("WWW-Authenticate", `Bearer realm="fintrack"`)
	}

	log.NewStructuredLogger(log.FromContext(r.Context())).
		LogRequestError(r.Context(), r, status, string(kind), err)
	writeJSON(w, status, body)
}
