package audit

import (
	"context"
	"encoding/json"
	"time"
)

// ProviderAuditLog is one call to an external provider (the SRI
// authorization web service). Headers and bodies are stored sanitized.
type ProviderAuditLog struct {
	ID              int64             `json:"id"`
	CorrelationID   string            `json:"correlation_id"`
	Lote            string            `json:"lote,omitempty"`
	Provider        string            `json:"provider"`
	Operation       string            `json:"operation"`
	RequestMethod   string            `json:"request_method"`
	RequestURL      string            `json:"request_url"`
	RequestHeaders  map[string]string `json:"request_headers,omitempty"`
	RequestBody     json.RawMessage   `json:"request_body,omitempty"`
	ResponseStatus  *int              `json:"response_status,omitempty"`
	ResponseHeaders map[string]string `json:"response_headers,omitempty"`
	ResponseBody    json.RawMessage   `json:"response_body,omitempty"`
	DurationMs      int64             `json:"duration_ms"`
	ErrorMessage    string            `json:"error_message,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
}

// Repository persists and queries the audit trail.
type Repository interface {
	Save(ctx context.Context, log ProviderAuditLog) error

	// FindByCorrelationID returns every call made while serving one HTTP
	// request, newest first.
	FindByCorrelationID(ctx context.Context, correlationID string) ([]ProviderAuditLog, error)

	// FindByLote returns every SRI download of one processing batch,
	// newest first.
	FindByLote(ctx context.Context, lote string) ([]ProviderAuditLog, error)
}
