package middleware

import (
	"context"
	"net/http"
	"time"
)

// BatchTimeout lets batch routes outlive the server-wide read and write
// deadlines. It pushes both connection deadlines out to d and bounds the
// request context by the same amount.
func BatchTimeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			deadline := time.Now().Add(d)
			rc := http.NewResponseController(w)
			// Not every writer supports deadlines (httptest.ResponseRecorder).
			_ = rc.SetReadDeadline(deadline)
			_ = rc.SetWriteDeadline(deadline)

			ctx, cancel := context.WithDeadline(r.Context(), deadline)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
