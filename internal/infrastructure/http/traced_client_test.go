package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"3tcapital/ms_comprobantes_sri/internal/core/audit"
	ctxutil "3tcapital/ms_comprobantes_sri/internal/infrastructure/context"
)

const soapRequest = `<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/" xmlns:ec="http://ec.gob.sri.ws.autorizacion">
<soapenv:Header/>
<soapenv:Body>
<ec:autorizacionComprobante><claveAccesoComprobante>123</claveAccesoComprobante></ec:autorizacionComprobante>
</soapenv:Body>
</soapenv:Envelope>`

// mockAuditRepo records saved entries and signals each save on savedChan.
type mockAuditRepo struct {
	mu        sync.Mutex
	saved     []audit.ProviderAuditLog
	savedChan chan audit.ProviderAuditLog
}

func (m *mockAuditRepo) Save(ctx context.Context, log audit.ProviderAuditLog) error {
	m.mu.Lock()
	m.saved = append(m.saved, log)
	m.mu.Unlock()
	if m.savedChan != nil {
		select {
		case m.savedChan <- log:
		default:
		}
	}
	return nil
}

func (m *mockAuditRepo) FindByCorrelationID(ctx context.Context, correlationID string) ([]audit.ProviderAuditLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var results []audit.ProviderAuditLog
	for _, log := range m.saved {
		if log.CorrelationID == correlationID {
			results = append(results, log)
		}
	}
	return results, nil
}

func (m *mockAuditRepo) FindByLote(ctx context.Context, lote string) ([]audit.ProviderAuditLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var results []audit.ProviderAuditLog
	for _, log := range m.saved {
		if log.Lote == lote {
			results = append(results, log)
		}
	}
	return results, nil
}

func newTracedClient(repo audit.Repository, auditEnabled bool) *TracedClient {
	return NewTracedClient(&TracedClientConfig{
		Timeout:         5 * time.Second,
		AuditEnabled:    auditEnabled,
		LogRequestBody:  true,
		LogResponseBody: true,
		MaxBodySize:     4096,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)), repo, "sri")
}

func TestTracedClientDo_SOAPAudit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Correlation-ID") != "req-123" {
			t.Errorf("expected correlation header, got %q", r.Header.Get("X-Correlation-ID"))
		}
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), "claveAccesoComprobante") {
			t.Error("request body not forwarded")
		}
		w.Header().Set("Content-Type", "text/xml")
		_, _ = w.Write([]byte(`<RespuestaAutorizacionComprobante><numeroComprobantes>1</numeroComprobantes></RespuestaAutorizacionComprobante>`))
	}))
	defer server.Close()

	repo := &mockAuditRepo{savedChan: make(chan audit.ProviderAuditLog, 1)}
	client := newTracedClient(repo, true)

	ctx := ctxutil.WithCorrelationID(context.Background(), "req-123")
	ctx = ctxutil.WithLote(ctx, "lote-1")
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, server.URL+"/comprobantes-electronicos-ws/AutorizacionComprobantesOffline", strings.NewReader(soapRequest))

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "numeroComprobantes") {
		t.Error("response body not restored for the caller")
	}

	select {
	case entry := <-repo.savedChan:
		if entry.Operation != "autorizacionComprobante" {
			t.Errorf("expected SOAP operation name, got %q", entry.Operation)
		}
		if entry.Provider != "sri" || entry.CorrelationID != "req-123" || entry.Lote != "lote-1" {
			t.Errorf("unexpected audit entry %+v", entry)
		}
		if entry.ResponseStatus == nil || *entry.ResponseStatus != http.StatusOK {
			t.Error("expected response status 200")
		}
		if !json.Valid(entry.RequestBody) || !json.Valid(entry.ResponseBody) {
			t.Error("expected XML bodies to be stored as valid JSON documents")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("audit log was not saved")
	}
}

func TestTracedClientDo_AuditDisabled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	repo := &mockAuditRepo{}
	client := newTracedClient(repo, false)

	req, _ := http.NewRequest(http.MethodGet, server.URL, nil)
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	time.Sleep(50 * time.Millisecond)
	if logs, _ := repo.FindByCorrelationID(context.Background(), ""); len(logs) != 0 {
		t.Errorf("expected no audit entries, got %d", len(logs))
	}
}

func TestTracedClient_AuditLogPersistsAfterContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`ok`))
	}))
	defer server.Close()

	repo := &mockAuditRepo{savedChan: make(chan audit.ProviderAuditLog, 1)}
	client := newTracedClient(repo, true)

	ctx, cancel := context.WithCancel(context.Background())
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, server.URL, strings.NewReader(soapRequest))

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()
	cancel()

	select {
	case entry := <-repo.savedChan:
		if !strings.HasPrefix(entry.CorrelationID, "audit-") {
			t.Errorf("expected generated correlation id, got %q", entry.CorrelationID)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("audit log was not saved after context cancellation")
	}
}

func TestTracedClientExtractOperation(t *testing.T) {
	client := newTracedClient(nil, false)

	tests := []struct {
		name     string
		url      string
		method   string
		body     string
		expected string
	}{
		{
			name:     "soap operation",
			url:      "https://cel.sri.gob.ec/comprobantes-electronicos-ws/AutorizacionComprobantesOffline",
			method:   http.MethodPost,
			body:     soapRequest,
			expected: "autorizacionComprobante",
		},
		{
			name:     "last path segment",
			url:      "https://cel.sri.gob.ec/comprobantes-electronicos-ws/AutorizacionComprobantesOffline",
			method:   http.MethodGet,
			expected: "AutorizacionComprobantesOffline",
		},
		{
			name:     "falls back to method",
			url:      "https://cel.sri.gob.ec/",
			method:   http.MethodDelete,
			expected: "DELETE_sri",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(tt.method, tt.url, nil)
			if got := client.extractOperation(req, []byte(tt.body)); got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}
