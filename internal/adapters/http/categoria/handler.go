package categoria

import (
	"errors"
	"log/slog"
	"net/http"

	"3tcapital/ms_comprobantes_sri/internal/adapters/excel"
	appcategoria "3tcapital/ms_comprobantes_sri/internal/application/categoria"
	"3tcapital/ms_comprobantes_sri/internal/core/categoria"
	ctxutil "3tcapital/ms_comprobantes_sri/internal/infrastructure/context"
	httperrors "3tcapital/ms_comprobantes_sri/internal/infrastructure/http"
	"3tcapital/ms_comprobantes_sri/internal/infrastructure/http/middleware"
)

const formFieldMaestro = "maestro"

// Handler exposes the learned category memory over HTTP.
type Handler struct {
	memoria        *appcategoria.Memoria
	maxUploadBytes int64
	log            *slog.Logger
}

func NewHandler(memoria *appcategoria.Memoria, maxUploadBytes int64, log *slog.Logger) *Handler {
	return &Handler{memoria: memoria, maxUploadBytes: maxUploadBytes, log: log}
}

// ListResponse is the body of GET /api/v1/categorias.
type ListResponse struct {
	Total    int                           `json:"total"`
	Empresas map[string]categoria.Category `json:"empresas"`
}

// LearnResponse is the body of POST /api/v1/categorias/aprender.
type LearnResponse struct {
	Aprendidos int `json:"aprendidos"`
	Total      int `json:"total"`
}

// List handles GET /api/v1/categorias.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	entries := h.memoria.Entries()
	httperrors.WriteJSON(w, http.StatusOK, ListResponse{Total: len(entries), Empresas: entries}, h.log)
}

// Learn handles POST /api/v1/categorias/aprender: it reads the master
// spreadsheet in the "maestro" field, learns its rows and persists the
// memory.
func (h *Handler) Learn(w http.ResponseWriter, r *http.Request) {
	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	}
	file, header, err := r.FormFile(formFieldMaestro)
	if err != nil {
		httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{"Debe adjuntar el Excel maestro en 'maestro'"}, h.log)
		return
	}
	defer file.Close()

	rows, err := excel.ReadMaestro(file)
	if err != nil {
		msg := "El archivo no es un Excel válido"
		if errors.Is(err, excel.ErrMaestroSinNombre) {
			msg = err.Error()
		}
		h.log.Warn("maestro_rejected", append(ctxutil.LogAttrs(r.Context()), "archivo", header.Filename, "error", err)...)
		httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{msg}, h.log)
		return
	}

	learned := h.memoria.Learn(rows)
	if err := h.memoria.Persist(r.Context()); err != nil {
		h.log.Error("memoria_persist_failed", append(ctxutil.LogAttrs(r.Context()), "error", err)...)
		httperrors.WriteError(w, http.StatusInternalServerError, "Error Interno del Servidor",
			[]string{"La memoria se actualizó pero no se pudo guardar"}, h.log)
		return
	}

	attrs := append(ctxutil.LogAttrs(r.Context()), "archivo", header.Filename, "aprendidos", learned, "total", h.memoria.Len())
	if sub := middleware.Subject(r.Context()); sub != "" {
		attrs = append(attrs, "subject", sub)
	}
	h.log.Info("maestro_learned", attrs...)

	httperrors.WriteJSON(w, http.StatusOK, LearnResponse{Aprendidos: learned, Total: h.memoria.Len()}, h.log)
}
