package middleware

import (
	"log/slog"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	ctxutil "3tcapital/ms_comprobantes_sri/internal/infrastructure/context"
)

// RequestLogger logs one line per request and stores the chi request id as
// the correlation id of the request context. 5xx responses log at error
// level and 4xx at warn.
func RequestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ctx := r.Context()
			if requestID := chimw.GetReqID(ctx); requestID != "" {
				ctx = ctxutil.WithCorrelationID(ctx, requestID)
			}

			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			attrs := append(ctxutil.LogAttrs(ctx),
				"method", r.Method,
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
				"status", status,
				"duration_ms", float64(time.Since(start).Microseconds())/1000,
				"bytes", ww.BytesWritten(),
			)
			if r.ContentLength > 0 {
				attrs = append(attrs, "request_bytes", r.ContentLength)
			}
			if ua := r.UserAgent(); ua != "" {
				attrs = append(attrs, "user_agent", ua)
			}

			switch {
			case status >= 500:
				log.Error("http_request", attrs...)
			case status >= 400:
				log.Warn("http_request", attrs...)
			default:
				log.Info("http_request", attrs...)
			}
		})
	}
}
