package health

import (
	"log/slog"
	"net/http"

	apphealth "3tcapital/ms_comprobantes_sri/internal/application/health"
	httperrors "3tcapital/ms_comprobantes_sri/internal/infrastructure/http"
)

// Handler bridges HTTP traffic with the health application service.
type Handler struct {
	service *apphealth.Service
	log     *slog.Logger
}

func NewHandler(service *apphealth.Service, log *slog.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// Status always answers 200: a DEGRADED SRI or database does not stop local
// XML extraction.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	httperrors.WriteJSON(w, http.StatusOK, h.service.Status(r.Context()), h.log)
}
