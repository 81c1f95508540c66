package auditoria

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"3tcapital/ms_comprobantes_sri/internal/core/audit"
	ctxutil "3tcapital/ms_comprobantes_sri/internal/infrastructure/context"
	httperrors "3tcapital/ms_comprobantes_sri/internal/infrastructure/http"
)

// Handler serves the SRI call audit trail.
type Handler struct {
	repo audit.Repository
	log  *slog.Logger
}

func NewHandler(repo audit.Repository, log *slog.Logger) *Handler {
	return &Handler{repo: repo, log: log}
}

// Response lists the audit entries of one lote or correlation id.
type Response struct {
	Total     int                      `json:"total"`
	Registros []audit.ProviderAuditLog `json:"registros"`
}

// ByLote handles GET /api/v1/auditoria/lotes/{lote}.
func (h *Handler) ByLote(w http.ResponseWriter, r *http.Request) {
	lote := chi.URLParam(r, "lote")
	logs, err := h.repo.FindByLote(r.Context(), lote)
	h.respond(w, r, logs, err)
}

// ByCorrelationID handles GET /api/v1/auditoria/solicitudes/{correlationID}.
func (h *Handler) ByCorrelationID(w http.ResponseWriter, r *http.Request) {
	correlationID := chi.URLParam(r, "correlationID")
	logs, err := h.repo.FindByCorrelationID(r.Context(), correlationID)
	h.respond(w, r, logs, err)
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, logs []audit.ProviderAuditLog, err error) {
	if err != nil {
		h.log.Error("audit_query_failed", append(ctxutil.LogAttrs(r.Context()), "path", r.URL.Path, "error", err)...)
		httperrors.WriteError(w, http.StatusInternalServerError, "Error Interno del Servidor", []string{"No se pudo consultar la auditoría"}, h.log)
		return
	}
	if logs == nil {
		logs = []audit.ProviderAuditLog{}
	}
	httperrors.WriteJSON(w, http.StatusOK, Response{Total: len(logs), Registros: logs}, h.log)
}
