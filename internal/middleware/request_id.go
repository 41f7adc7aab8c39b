// Package middleware holds net/http middleware shared by every route.
package middleware

import (
	"context"
	"net/http"

	"github.com/felixge/httpsnoop"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey string

const RequestIDKey contextKey = "request_id"

// HeaderRequestID is read from the request and echoed on the response.
const HeaderRequestID = "X-Request-ID"

// RequestID tags each request with an id, puts a child logger carrying it into the
// request context and logs the outcome with status, bytes written and duration.
func RequestID(logger zerolog.Logger) func(http.Handler) http.Handler {
	logger = logger.With().Str("module", "http").Str("component", "request").Logger()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(HeaderRequestID)
			if requestID == "" {
				requestID = uuid.New().String()
			}
			w.Header().Set(HeaderRequestID, requestID)

			ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
			reqLogger := logger.With().Str("request_id", requestID).Logger()
			ctx = reqLogger.WithContext(ctx)

			m := httpsnoop.CaptureMetrics(next, w, r.WithContext(ctx))

			ev := reqLogger.Info()
			if m.Code >= http.StatusInternalServerError {
				ev = reqLogger.Error()
			} else if m.Code >= http.StatusBadRequest {
				ev = reqLogger.Warn()
			}
			ev.Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("remote_addr", r.RemoteAddr).
				Int("status", m.Code).
				Int64("bytes", m.Written).
				Int64("duration_ms", m.Duration.Milliseconds()).
				Dur("duration", m.Duration).
				Msg("request completed")
		})
	}
}

func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}
