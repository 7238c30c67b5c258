// internal/middleware/logging.go
//
// Access-log middleware.
//
// Context
// -------
// Runs after chi's RequestID middleware.  For each request it derives a
// child logger tagged with the request id, stores it in the context for
// handlers (logger.FromContext), and writes one INFO line when the response
// completes.  4xx and 5xx responses are logged at WARN and ERROR.

package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/yanizio/profileform/internal/logger"
)

// RequestIDHeader echoes the request id back to the client.
const RequestIDHeader = "X-Request-Id"

// AccessLog returns a middleware that logs every request through base.
func AccessLog(base *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqID := chimw.GetReqID(r.Context())

			l := base
			if reqID != "" {
				l = base.With("request_id", reqID)
				w.Header().Set(RequestIDHeader, reqID)
			}

			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(logger.WithContext(r.Context(), l)))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			fields := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
			}
			switch {
			case status >= 500:
				l.Errorw("http request", fields...)
			case status >= 400:
				l.Warnw("http request", fields...)
			default:
				l.Infow("http request", fields...)
			}
		})
	}
}
