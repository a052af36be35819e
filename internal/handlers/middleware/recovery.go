package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/nkiryanov/userbook/internal/handlers/render"
)

type errorLogger interface {
	Error(msg string, args ...any)
}

// Recovery answers handler panics with the opaque service error and logs them with request id.
// Put it after RequestID and LoggerMiddleware so the 500 is logged too
func Recovery(l errorLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}

				l.Error(
					"panic while handling HTTP request",
					"request_id", RequestIDFromContext(r.Context()),
					"panic", fmt.Sprint(rec),
					"stack", string(debug.Stack()),
				)
				render.ServiceError(w, render.ServiceFailureMessage, http.StatusInternalServerError)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
