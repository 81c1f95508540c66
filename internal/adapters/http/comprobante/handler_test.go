package comprobante

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	appcomprobante "3tcapital/ms_comprobantes_sri/internal/application/comprobante"
	"3tcapital/ms_comprobantes_sri/internal/core/categoria"
	"3tcapital/ms_comprobantes_sri/internal/testutil"
)

func newHandler(fetcher *testutil.MockFetcher, limits Limits) *Handler {
	lookup := testutil.MockLookup{"CORPORACION FAVORITA C.A.": categoria.Category{Detalle: "ALIMENTACION", Memo: "PERSONAL"}}
	var service *appcomprobante.Service
	if fetcher == nil {
		service = appcomprobante.NewService(lookup, nil, 2, 2, testutil.NewNullLogger())
	} else {
		service = appcomprobante.NewService(lookup, fetcher, 2, 2, testutil.NewNullLogger())
	}
	return NewHandler(service, limits, testutil.NewNullLogger())
}

func TestNewHandler(t *testing.T) {
	logger := testutil.NewNullLogger()
	handler := NewHandler(&appcomprobante.Service{}, Limits{MaxFiles: 3}, logger)

	if handler == nil {
		t.Fatal("expected handler to be created, got nil")
	}
	if handler.log != logger {
		t.Error("expected handler to have the provided logger")
	}
	if handler.limits.MaxFiles != 3 {
		t.Errorf("expected MaxFiles 3, got %d", handler.limits.MaxFiles)
	}
}

func TestHandler_Extract(t *testing.T) {
	handler := newHandler(nil, Limits{MaxUploadBytes: 1 << 20, MaxFiles: 10})

	req := testutil.CreateMultipartRequest(http.MethodPost, "/api/v1/comprobantes/extraer", []testutil.FilePart{
		{Field: "archivos", Filename: "factura.xml", Content: testutil.NewFactura().XML()},
		{Field: "archivos", Filename: "roto.xml", Content: []byte("no es xml")},
		{Field: "archivos", Filename: "retencion.xml", Content: testutil.NewRetencion().XML()},
	})
	w := httptest.NewRecorder()

	handler.Extract(w, req)

	var result appcomprobante.BatchResult
	testutil.ReadJSONResponse(t, w, &result)

	if result.Lote == "" {
		t.Error("expected a lote identifier")
	}
	if len(result.Procesados) != 2 {
		t.Fatalf("expected 2 processed records, got %d", len(result.Procesados))
	}
	if result.Procesados[0].Compra == nil || result.Procesados[0].Compra.Detalle != "ALIMENTACION" {
		t.Errorf("expected first record to be the categorized factura, got %+v", result.Procesados[0])
	}
	if result.Procesados[1].Retencion == nil {
		t.Errorf("expected second record to be the retention, got %+v", result.Procesados[1])
	}
	if len(result.Fallidos) != 1 || result.Fallidos[0].Archivo != "roto.xml" {
		t.Errorf("expected roto.xml to fail, got %+v", result.Fallidos)
	}
	if result.Stats.TotalDocuments != 3 {
		t.Errorf("expected total 3, got %d", result.Stats.TotalDocuments)
	}
}

func TestHandler_Extract_ValidationErrors(t *testing.T) {
	tests := []struct {
		name           string
		limits         Limits
		request        func() *http.Request
		expectedStatus int
		expectedError  string
	}{
		{
			name:   "not multipart",
			limits: Limits{},
			request: func() *http.Request {
				return testutil.CreateRequest(http.MethodPost, "/api/v1/comprobantes/extraer", map[string]string{"a": "b"}, nil)
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Se esperaba un formulario multipart",
		},
		{
			name:   "no archivos field",
			limits: Limits{},
			request: func() *http.Request {
				return testutil.CreateMultipartRequest(http.MethodPost, "/api/v1/comprobantes/extraer", []testutil.FilePart{
					{Field: "otro", Filename: "factura.xml", Content: testutil.NewFactura().XML()},
				})
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Debe adjuntar al menos un archivo en 'archivos'",
		},
		{
			name:   "too many files",
			limits: Limits{MaxFiles: 1},
			request: func() *http.Request {
				return testutil.CreateMultipartRequest(http.MethodPost, "/api/v1/comprobantes/extraer", []testutil.FilePart{
					{Field: "archivos", Filename: "a.xml", Content: testutil.NewFactura().XML()},
					{Field: "archivos", Filename: "b.xml", Content: testutil.NewFactura().XML()},
				})
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Se permiten como máximo 1 archivos por petición",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := newHandler(nil, tt.limits)
			w := httptest.NewRecorder()

			handler.Extract(w, tt.request())

			if w.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			body := testutil.ReadErrorResponse(t, w)
			errs, _ := body["errors"].([]interface{})
			if len(errs) != 1 || errs[0] != tt.expectedError {
				t.Errorf("expected error %q, got %v", tt.expectedError, body["errors"])
			}
		})
	}
}

func TestHandler_Extract_BodyTooLarge(t *testing.T) {
	handler := newHandler(nil, Limits{MaxUploadBytes: 64})

	req := testutil.CreateMultipartRequest(http.MethodPost, "/api/v1/comprobantes/extraer", []testutil.FilePart{
		{Field: "archivos", Filename: "factura.xml", Content: testutil.NewFactura().XML()},
	})
	w := httptest.NewRecorder()

	handler.Extract(w, req)

	if w.Code != http.StatusRequestEntityTooLarge && w.Code != http.StatusBadRequest {
		t.Errorf("expected the oversized upload to be rejected, got %d", w.Code)
	}
}

func TestHandler_Report(t *testing.T) {
	handler := newHandler(nil, Limits{})

	req := testutil.CreateMultipartRequest(http.MethodPost, "/api/v1/comprobantes/reporte", []testutil.FilePart{
		{Field: "archivos", Filename: "factura.xml", Content: testutil.NewFactura().XML()},
		{Field: "archivos", Filename: "roto.xml", Content: []byte("<<")},
	})
	w := httptest.NewRecorder()

	handler.Report(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != xlsxContentType {
		t.Errorf("expected xlsx content type, got %s", ct)
	}
	if !strings.HasPrefix(w.Header().Get("Content-Disposition"), `attachment; filename="reporte_sri_`) {
		t.Errorf("unexpected Content-Disposition %q", w.Header().Get("Content-Disposition"))
	}
	if w.Header().Get("X-Documentos-Procesados") != "1" || w.Header().Get("X-Documentos-Fallidos") != "1" {
		t.Errorf("unexpected batch headers %v", w.Header())
	}

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	if err != nil {
		t.Fatalf("response is not a workbook: %v", err)
	}
	defer f.Close()
	total, err := f.GetCellValue("COMPRAS", "P2", excelize.Options{RawCellValue: true})
	if err != nil {
		t.Fatalf("read total: %v", err)
	}
	if total != "121" {
		t.Errorf("expected total 121 in COMPRAS!P2, got %q", total)
	}
}

func TestHandler_FromSRI(t *testing.T) {
	clave := testutil.ClaveAcceso("2", 7)
	fetcher := &testutil.MockFetcher{
		FetchFunc: func(ctx context.Context, claveAcceso string) ([]byte, error) {
			return testutil.WrapSOAP(testutil.NewFactura().XML(), "AUTORIZADO"), nil
		},
	}
	handler := newHandler(fetcher, Limits{MaxFiles: 10})

	req := testutil.CreateRequest(http.MethodPost, "/api/v1/comprobantes/sri", ClavesRequest{Claves: []string{clave, " ", "123"}}, nil)
	w := httptest.NewRecorder()

	handler.FromSRI(w, req)

	var result appcomprobante.BatchResult
	testutil.ReadJSONResponse(t, w, &result)

	if len(result.Procesados) != 1 {
		t.Fatalf("expected 1 processed record, got %d", len(result.Procesados))
	}
	if len(result.Fallidos) != 1 || result.Fallidos[0].Archivo != "123" {
		t.Errorf("expected the short key to fail, got %+v", result.Fallidos)
	}
}

func TestHandler_FromSRI_Xlsx(t *testing.T) {
	fetcher := &testutil.MockFetcher{
		FetchFunc: func(ctx context.Context, claveAcceso string) ([]byte, error) {
			return testutil.WrapSOAP(testutil.NewFactura().XML(), "AUTORIZADO"), nil
		},
	}
	handler := newHandler(fetcher, Limits{})

	req := testutil.CreateRequest(http.MethodPost, "/api/v1/comprobantes/sri?formato=XLSX", ClavesRequest{Claves: []string{testutil.ClaveAcceso("2", 1)}}, nil)
	w := httptest.NewRecorder()

	handler.FromSRI(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != xlsxContentType {
		t.Errorf("expected xlsx content type, got %s", ct)
	}
}

func TestHandler_FromSRI_Errors(t *testing.T) {
	tests := []struct {
		name           string
		fetcher        *testutil.MockFetcher
		limits         Limits
		body           func() *http.Request
		expectedStatus int
	}{
		{
			name:    "invalid json",
			fetcher: &testutil.MockFetcher{},
			body: func() *http.Request {
				return httptest.NewRequest(http.MethodPost, "/api/v1/comprobantes/sri", strings.NewReader("{"))
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:    "empty claves",
			fetcher: &testutil.MockFetcher{},
			body: func() *http.Request {
				return testutil.CreateRequest(http.MethodPost, "/api/v1/comprobantes/sri", ClavesRequest{Claves: []string{"  "}}, nil)
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:    "too many claves",
			fetcher: &testutil.MockFetcher{},
			limits:  Limits{MaxFiles: 1},
			body: func() *http.Request {
				return testutil.CreateRequest(http.MethodPost, "/api/v1/comprobantes/sri", ClavesRequest{Claves: []string{"1", "2"}}, nil)
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:    "sri disabled",
			fetcher: nil,
			body: func() *http.Request {
				return testutil.CreateRequest(http.MethodPost, "/api/v1/comprobantes/sri", ClavesRequest{Claves: []string{testutil.ClaveAcceso("2", 1)}}, nil)
			},
			expectedStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := newHandler(tt.fetcher, tt.limits)
			w := httptest.NewRecorder()

			handler.FromSRI(w, tt.body())

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			var body map[string]interface{}
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("expected JSON error body: %v", err)
			}
			if body["message"] == "" {
				t.Error("expected an error message")
			}
		})
	}
}
