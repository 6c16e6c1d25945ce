package http

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/mkrupp/affinity/internal/infra/logging"
)

// panicBody keeps the API envelope shape so clients surface a readable failure.
const panicBody = `{"success":false,"message":"internal server error","user":null,"redirect":null}`

// RescueingMiddleware recovers from panics in HTTP handlers, logs the panic
// with its stack and answers 500 with a failure envelope.
func RescueingMiddleware(next http.Handler, log logging.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			p := recover()
			if p == nil {
				return
			}

			if p == http.ErrAbortHandler { //nolint:errorlint,err113
				panic(p)
			}

			log.ErrorContext(r.Context(), "request panic", slog.Group("http",
				"uri", r.RequestURI,
				"method", r.Method,
			), slog.Group("error",
				"panic", p,
				"stack", string(debug.Stack()),
			))

			_ = WriteJSON(w, http.StatusInternalServerError, []byte(panicBody))
		}()

		next.ServeHTTP(w, r)
	})
}
