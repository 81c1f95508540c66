package comprobante

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"3tcapital/ms_comprobantes_sri/internal/adapters/excel"
	appcomprobante "3tcapital/ms_comprobantes_sri/internal/application/comprobante"
	"3tcapital/ms_comprobantes_sri/internal/core/comprobante"
	ctxutil "3tcapital/ms_comprobantes_sri/internal/infrastructure/context"
	httperrors "3tcapital/ms_comprobantes_sri/internal/infrastructure/http"
)

const (
	formFieldArchivos = "archivos"
	xlsxContentType   = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Limits bounds what a single request may upload.
type Limits struct {
	MaxUploadBytes int64
	MaxFiles       int
}

// Handler bridges HTTP traffic with the comprobante application service.
type Handler struct {
	service *appcomprobante.Service
	limits  Limits
	log     *slog.Logger
}

// NewHandler creates a new comprobante HTTP handler.
func NewHandler(service *appcomprobante.Service, limits Limits, log *slog.Logger) *Handler {
	return &Handler{service: service, limits: limits, log: log}
}

// ClavesRequest is the body of POST /api/v1/comprobantes/sri.
type ClavesRequest struct {
	Claves []string `json:"claves"`
}

// Extract handles POST /api/v1/comprobantes/extraer.
func (h *Handler) Extract(w http.ResponseWriter, r *http.Request) {
	uploads, ok := h.readUploads(w, r)
	if !ok {
		return
	}
	result := h.service.ProcessBatch(r.Context(), uploads)
	httperrors.WriteJSON(w, http.StatusOK, result, h.log)
}

// Report handles POST /api/v1/comprobantes/reporte and answers the xlsx
// workbook of every extracted record.
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	uploads, ok := h.readUploads(w, r)
	if !ok {
		return
	}
	result := h.service.ProcessBatch(r.Context(), uploads)
	h.writeReport(w, r, result)
}

// FromSRI handles POST /api/v1/comprobantes/sri. With ?formato=xlsx the
// answer is the workbook instead of the JSON batch.
func (h *Handler) FromSRI(w http.ResponseWriter, r *http.Request) {
	var req ClavesRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{"El cuerpo de la petición no es válido"}, h.log)
		return
	}

	claves := make([]string, 0, len(req.Claves))
	for _, c := range req.Claves {
		if c = strings.TrimSpace(c); c != "" {
			claves = append(claves, c)
		}
	}
	if len(claves) == 0 {
		httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{"claves es requerido"}, h.log)
		return
	}
	if h.limits.MaxFiles > 0 && len(claves) > h.limits.MaxFiles {
		httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación",
			[]string{fmt.Sprintf("Se permiten como máximo %d claves por petición", h.limits.MaxFiles)}, h.log)
		return
	}

	result, err := h.service.ProcessClaves(r.Context(), claves)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	if strings.EqualFold(r.URL.Query().Get("formato"), "xlsx") {
		h.writeReport(w, r, result)
		return
	}
	httperrors.WriteJSON(w, http.StatusOK, result, h.log)
}

// readUploads reads every "archivos" part of a multipart request. It writes
// the error response itself and reports false when the request is unusable.
func (h *Handler) readUploads(w http.ResponseWriter, r *http.Request) ([]comprobante.Upload, bool) {
	if h.limits.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.limits.MaxUploadBytes)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httperrors.WriteError(w, http.StatusRequestEntityTooLarge, "Error de Validación",
				[]string{fmt.Sprintf("La petición supera el máximo de %d bytes", tooLarge.Limit)}, h.log)
			return nil, false
		}
		httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{"Se esperaba un formulario multipart"}, h.log)
		return nil, false
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	files := r.MultipartForm.File[formFieldArchivos]
	if len(files) == 0 {
		httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{"Debe adjuntar al menos un archivo en 'archivos'"}, h.log)
		return nil, false
	}
	if h.limits.MaxFiles > 0 && len(files) > h.limits.MaxFiles {
		httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación",
			[]string{fmt.Sprintf("Se permiten como máximo %d archivos por petición", h.limits.MaxFiles)}, h.log)
		return nil, false
	}

	uploads := make([]comprobante.Upload, 0, len(files))
	for _, fh := range files {
		content, err := readPart(fh)
		if err != nil {
			h.log.Warn("upload_read_failed", append(ctxutil.LogAttrs(r.Context()), "archivo", fh.Filename, "error", err)...)
			httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación",
				[]string{fmt.Sprintf("No se pudo leer el archivo %s", fh.Filename)}, h.log)
			return nil, false
		}
		uploads = append(uploads, comprobante.Upload{Nombre: fh.Filename, Contenido: content})
	}
	return uploads, true
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// writeReport renders the batch as xlsx. The workbook is built in memory
// first so a failure can still answer with a JSON error.
func (h *Handler) writeReport(w http.ResponseWriter, r *http.Request, result appcomprobante.BatchResult) {
	var buf bytes.Buffer
	if err := excel.WriteReport(&buf, result.Procesados); err != nil {
		h.handleError(w, r, fmt.Errorf("error al generar el reporte: %w", err))
		return
	}

	filename := fmt.Sprintf("reporte_sri_%s.xlsx", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("X-Lote", result.Lote)
	w.Header().Set("X-Documentos-Procesados", strconv.Itoa(len(result.Procesados)))
	w.Header().Set("X-Documentos-Fallidos", strconv.Itoa(len(result.Fallidos)))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.log.Warn("report_write_failed", append(ctxutil.LogAttrs(r.Context()), "error", err)...)
	}
}

func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	attrs := append(ctxutil.LogAttrs(r.Context()), "path", r.URL.Path, "error", err)

	switch {
	case errors.Is(err, appcomprobante.ErrFetcherNotConfigured):
		h.log.Warn("comprobante_request_failed", attrs...)
		httperrors.WriteError(w, http.StatusServiceUnavailable, "Servicio no disponible", []string{"La descarga desde el SRI no está habilitada"}, h.log)
	default:
		h.log.Error("comprobante_request_failed", attrs...)
		httperrors.WriteError(w, http.StatusInternalServerError, "Error Interno del Servidor", []string{"Ha ocurrido un error interno"}, h.log)
	}
}
