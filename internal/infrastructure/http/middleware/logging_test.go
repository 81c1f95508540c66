package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	ctxutil "3tcapital/ms_comprobantes_sri/internal/infrastructure/context"
	"3tcapital/ms_comprobantes_sri/internal/testutil"
)

func TestRequestLogger_LevelByStatus(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		wantLevel  string
	}{
		{name: "2xx logs as info", statusCode: http.StatusOK, wantLevel: "INFO"},
		{name: "3xx logs as info", statusCode: http.StatusMovedPermanently, wantLevel: "INFO"},
		{name: "4xx logs as warn", statusCode: http.StatusBadRequest, wantLevel: "WARN"},
		{name: "5xx logs as error", statusCode: http.StatusInternalServerError, wantLevel: "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			handler := RequestLogger(testutil.NewCaptureLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte("respuesta"))
			}))

			req := httptest.NewRequest(http.MethodPost, "/api/v1/comprobantes/extraer", nil)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.statusCode {
				t.Errorf("expected status code %d, got %d", tt.statusCode, w.Code)
			}

			var entry map[string]any
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Fatalf("expected one JSON log line, got %q: %v", buf.String(), err)
			}
			if entry["level"] != tt.wantLevel {
				t.Errorf("expected level %s, got %v", tt.wantLevel, entry["level"])
			}
			if entry["msg"] != "http_request" {
				t.Errorf("expected msg http_request, got %v", entry["msg"])
			}
			if entry["status"] != float64(tt.statusCode) {
				t.Errorf("expected status %d in log, got %v", tt.statusCode, entry["status"])
			}
			if entry["bytes"] != float64(len("respuesta")) {
				t.Errorf("expected bytes %d, got %v", len("respuesta"), entry["bytes"])
			}
		})
	}
}

func TestRequestLogger_DefaultStatusWithoutWriteHeader(t *testing.T) {
	var buf bytes.Buffer
	handler := RequestLogger(testutil.NewCaptureLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	if !strings.Contains(buf.String(), `"status":200`) {
		t.Errorf("expected status 200 in log, got %s", buf.String())
	}
}

func TestRequestLogger_PropagatesCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	var seen string
	handler := RequestLogger(testutil.NewCaptureLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ctxutil.GetCorrelationID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req = req.WithContext(context.WithValue(req.Context(), chimw.RequestIDKey, "test-request-id"))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if seen != "test-request-id" {
		t.Errorf("expected correlation id test-request-id in handler context, got %q", seen)
	}
	if !strings.Contains(buf.String(), `"correlation_id":"test-request-id"`) {
		t.Errorf("expected correlation_id in log, got %s", buf.String())
	}
}

func TestRequestLogger_WithUserAgent(t *testing.T) {
	var buf bytes.Buffer
	handler := RequestLogger(testutil.NewCaptureLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("User-Agent", "test-agent/1.0")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if !strings.Contains(buf.String(), `"user_agent":"test-agent/1.0"`) {
		t.Errorf("expected user_agent in log, got %s", buf.String())
	}
}

func TestBatchTimeout(t *testing.T) {
	var deadline time.Time
	var hasDeadline bool
	handler := BatchTimeout(5*time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deadline, hasDeadline = r.Context().Deadline()
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/comprobantes/sri", nil))

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	if !hasDeadline {
		t.Fatal("expected request context to carry a deadline")
	}
	if remaining := time.Until(deadline); remaining < 4*time.Minute {
		t.Errorf("expected deadline about 5m away, got %s", remaining)
	}
}

func TestBatchTimeout_Disabled(t *testing.T) {
	called := false
	handler := BatchTimeout(0)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if _, ok := r.Context().Deadline(); ok {
			t.Error("expected no deadline when timeout is disabled")
		}
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !called {
		t.Error("expected next handler to be called")
	}
}
