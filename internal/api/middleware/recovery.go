package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/chi/v5"
	"github.com/kiranshivaraju/bizlens/internal/api/response"
)

// Recovery turns a handler panic into a 500 envelope. The log entry names the
// matched route and, on analysis routes, the feature being served.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			attrs := []any{"panic", rec, "method", r.Method, "path", r.URL.Path, "request_id", GetRequestID(r)}
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if route := rctx.RoutePattern(); route != "" {
					attrs = append(attrs, "route", route)
				}
				if feature := rctx.URLParam("feature"); feature != "" {
					attrs = append(attrs, "feature", feature)
				}
			}
			if client, ok := GetClientID(r); ok {
				attrs = append(attrs, "client", client)
			}
			slog.Error("handler panicked", append(attrs, "stack", string(debug.Stack()))...)

			response.Error(w, http.StatusInternalServerError,
				"INTERNAL_ERROR", "An unexpected error occurred", nil)
		}()
		next.ServeHTTP(w, r)
	})
}
