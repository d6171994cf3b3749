package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"routegeo/internal/dispatch"
	"routegeo/internal/store"
)

// Problem represents an RFC7807 problem details response body.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeProblem(w http.ResponseWriter, status int, title, detail, instance string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Problem{
		Type:     "about:blank",
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: instance,
	})
}

// writeError maps engine and store errors onto problem responses.
func writeError(w http.ResponseWriter, r *http.Request, title string, err error) {
	var we *dispatch.WorkerError
	switch {
	case errors.Is(err, dispatch.ErrTimeout):
		writeProblem(w, http.StatusGatewayTimeout, "Decode Timed Out", err.Error(), r.URL.Path)
	case errors.As(err, &we):
		writeProblem(w, http.StatusUnprocessableEntity, "Decode Failed", we.Message, r.URL.Path)
	case errors.Is(err, store.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", err.Error(), r.URL.Path)
	case errors.Is(err, context.Canceled):
		// client went away; nobody reads this
		w.WriteHeader(499)
	default:
		writeProblem(w, http.StatusInternalServerError, title, err.Error(), r.URL.Path)
	}
}
