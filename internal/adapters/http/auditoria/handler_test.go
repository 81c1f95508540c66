package auditoria

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"3tcapital/ms_comprobantes_sri/internal/core/audit"
	"3tcapital/ms_comprobantes_sri/internal/testutil"
)

type mockRepo struct {
	byLote        map[string][]audit.ProviderAuditLog
	byCorrelation map[string][]audit.ProviderAuditLog
	err           error
}

func (m *mockRepo) Save(ctx context.Context, log audit.ProviderAuditLog) error { return nil }

func (m *mockRepo) FindByCorrelationID(ctx context.Context, correlationID string) ([]audit.ProviderAuditLog, error) {
	return m.byCorrelation[correlationID], m.err
}

func (m *mockRepo) FindByLote(ctx context.Context, lote string) ([]audit.ProviderAuditLog, error) {
	return m.byLote[lote], m.err
}

func router(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/api/v1/auditoria/lotes/{lote}", h.ByLote)
	r.Get("/api/v1/auditoria/solicitudes/{correlationID}", h.ByCorrelationID)
	return r
}

func TestHandler_ByLote(t *testing.T) {
	status := http.StatusOK
	repo := &mockRepo{byLote: map[string][]audit.ProviderAuditLog{
		"lote-1": {
			{ID: 1, Lote: "lote-1", Operation: "autorizacionComprobante", ResponseStatus: &status},
			{ID: 2, Lote: "lote-1", Operation: "autorizacionComprobante", ErrorMessage: "timeout"},
		},
	}}
	h := NewHandler(repo, testutil.NewNullLogger())

	w := httptest.NewRecorder()
	router(h).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/auditoria/lotes/lote-1", nil))

	var response Response
	testutil.ReadJSONResponse(t, w, &response)
	if response.Total != 2 || len(response.Registros) != 2 {
		t.Fatalf("expected 2 entries, got %+v", response)
	}
	if response.Registros[1].ErrorMessage != "timeout" {
		t.Errorf("unexpected second entry %+v", response.Registros[1])
	}
}

func TestHandler_ByCorrelationID_Empty(t *testing.T) {
	h := NewHandler(&mockRepo{}, testutil.NewNullLogger())

	w := httptest.NewRecorder()
	router(h).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/auditoria/solicitudes/abc", nil))

	var response Response
	testutil.ReadJSONResponse(t, w, &response)
	if response.Total != 0 || response.Registros == nil {
		t.Errorf("expected an empty list, got %+v", response)
	}
}

func TestHandler_QueryError(t *testing.T) {
	h := NewHandler(&mockRepo{err: errors.New("connection refused")}, testutil.NewNullLogger())

	w := httptest.NewRecorder()
	router(h).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/auditoria/lotes/x", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", w.Code)
	}
}
