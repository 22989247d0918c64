// Package respond writes the JSON envelope every endpoint answers with.
package respond

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/nikhilbhutani/staffdesk/internal/apperr"
	"github.com/nikhilbhutani/staffdesk/internal/query"
)

type Envelope struct {
	Success    bool              `json:"success"`
	Message    string            `json:"message"`
	Data       any               `json:"data"`
	Pagination *query.Pagination `json:"pagination,omitempty"`
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func OK(w http.ResponseWriter, message string, data any) {
	JSON(w, http.StatusOK, Envelope{Success: true, Message: message, Data: data})
}

func Created(w http.ResponseWriter, message string, data any) {
	JSON(w, http.StatusCreated, Envelope{Success: true, Message: message, Data: data})
}

func Page[T any](w http.ResponseWriter, message string, res query.Result[T]) {
	JSON(w, http.StatusOK, Envelope{Success: true, Message: message, Data: res.Items, Pagination: &res.Pagination})
}

// Error writes err in the caller's language. Errors outside the apperr
// taxonomy are logged and reported as a generic 500.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	e := apperr.From(err)
	if e == nil {
		slog.Error("unhandled error", "method", r.Method, "path", r.URL.Path, "error", err)
		e = apperr.ErrInternal
	} else if e.Status >= http.StatusInternalServerError {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	JSON(w, e.Status, Envelope{
		Success: false,
		Message: e.Message(apperr.LangFromContext(r.Context())),
		Data:    struct{}{},
	})
}
