package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"3tcapital/ms_comprobantes_sri/internal/core/audit"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const selectColumns = `
	SELECT id, correlation_id, COALESCE(lote, ''), provider, operation, request_method, request_url,
	       request_headers, request_body, response_status, response_headers,
	       response_body, duration_ms, COALESCE(error_message, ''), created_at
	FROM provider_audit_log
`

// Repository implements the audit.Repository interface using PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

// NewRepository creates a new PostgreSQL audit repository. log may be nil.
func NewRepository(pool *pgxpool.Pool, log *slog.Logger) audit.Repository {
	return &Repository{pool: pool, log: log}
}

// Save persists an audit log entry.
func (r *Repository) Save(ctx context.Context, entry audit.ProviderAuditLog) error {
	query := `
		INSERT INTO provider_audit_log (
			correlation_id, lote, provider, operation, request_method, request_url,
			request_headers, request_body, response_status, response_headers,
			response_body, duration_ms, error_message
		) VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	requestHeaders, err := json.Marshal(entry.RequestHeaders)
	if err != nil {
		return fmt.Errorf("marshal request headers: %w", err)
	}
	responseHeaders, err := json.Marshal(entry.ResponseHeaders)
	if err != nil {
		return fmt.Errorf("marshal response headers: %w", err)
	}

	_, err = r.pool.Exec(ctx, query,
		entry.CorrelationID,
		entry.Lote,
		entry.Provider,
		entry.Operation,
		entry.RequestMethod,
		entry.RequestURL,
		requestHeaders,
		nullableJSON(entry.RequestBody),
		entry.ResponseStatus,
		responseHeaders,
		nullableJSON(entry.ResponseBody),
		entry.DurationMs,
		entry.ErrorMessage,
	)
	if err != nil {
		if r.log != nil {
			r.log.Error("audit_insert_failed",
				"correlation_id", entry.CorrelationID,
				"lote", entry.Lote,
				"operation", entry.Operation,
				"error", err,
			)
		}
		return fmt.Errorf("insert audit log: %w", err)
	}

	if r.log != nil {
		r.log.Debug("audit_saved",
			"correlation_id", entry.CorrelationID,
			"lote", entry.Lote,
			"operation", entry.Operation,
			"response_status", entry.ResponseStatus,
		)
	}
	return nil
}

// FindByCorrelationID retrieves all audit logs with the given correlation ID.
func (r *Repository) FindByCorrelationID(ctx context.Context, correlationID string) ([]audit.ProviderAuditLog, error) {
	return r.find(ctx, selectColumns+" WHERE correlation_id = $1 ORDER BY created_at DESC", correlationID)
}

// FindByLote retrieves all audit logs recorded for one batch.
func (r *Repository) FindByLote(ctx context.Context, lote string) ([]audit.ProviderAuditLog, error) {
	return r.find(ctx, selectColumns+" WHERE lote = $1 ORDER BY created_at DESC", lote)
}

func (r *Repository) find(ctx context.Context, query string, arg string) ([]audit.ProviderAuditLog, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("query audit logs: %w", err)
	}
	logs, err := pgx.CollectRows(rows, scanAuditLog)
	if err != nil {
		return nil, fmt.Errorf("scan audit logs: %w", err)
	}
	return logs, nil
}

func scanAuditLog(row pgx.CollectableRow) (audit.ProviderAuditLog, error) {
	var entry audit.ProviderAuditLog
	var requestHeaders, responseHeaders []byte
	var requestBody, responseBody []byte

	err := row.Scan(
		&entry.ID,
		&entry.CorrelationID,
		&entry.Lote,
		&entry.Provider,
		&entry.Operation,
		&entry.RequestMethod,
		&entry.RequestURL,
		&requestHeaders,
		&requestBody,
		&entry.ResponseStatus,
		&responseHeaders,
		&responseBody,
		&entry.DurationMs,
		&entry.ErrorMessage,
		&entry.CreatedAt,
	)
	if err != nil {
		return entry, err
	}

	if err := decodeHeaders(requestHeaders, &entry.RequestHeaders); err != nil {
		return entry, fmt.Errorf("unmarshal request headers: %w", err)
	}
	if err := decodeHeaders(responseHeaders, &entry.ResponseHeaders); err != nil {
		return entry, fmt.Errorf("unmarshal response headers: %w", err)
	}
	entry.RequestBody = requestBody
	entry.ResponseBody = responseBody
	return entry, nil
}

// nullableJSON stores empty bodies as SQL NULL instead of invalid JSONB.
func nullableJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}

func decodeHeaders(raw []byte, dst *map[string]string) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}
