package router

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/shandysiswandi/medicore/internal/pkg/goerror"
)

// Middleware wraps an http.Handler with cross-cutting behavior.
type Middleware func(next http.Handler) http.Handler

// Chain applies mws to h so that mws[0] is the outermost handler.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] != nil {
			h = mws[i](h)
		}
	}
	return h
}

type errorResponse struct {
	Message string            `json:"message" example:"example string message"`
	Code    string            `json:"code" example:"VALIDATION_ERROR"`
	Error   map[string]string `json:"error,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code goerror.Code, msg string) {
	writeJSON(w, errorResponse{Message: msg, Code: code.String()}, status)
}

func writeJSON(w http.ResponseWriter, data any, code int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("server: failed to encode data to json", "error", err)
	}
}
