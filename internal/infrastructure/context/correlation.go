package context

import "context"

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

const (
	// CorrelationIDKey is the context key for the inbound request id.
	CorrelationIDKey contextKey = "correlation_id"
	// LoteKey is the context key for the batch (lote) being processed.
	LoteKey contextKey = "lote"
)

// WithCorrelationID adds a correlation ID to the context. It follows a
// request from the HTTP handler down to every SRI call it triggers.
func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, CorrelationIDKey, correlationID)
}

// GetCorrelationID retrieves the correlation ID, or "" when absent.
func GetCorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(CorrelationIDKey).(string); ok {
		return id
	}
	return ""
}

// WithLote tags the context with the batch identifier.
func WithLote(ctx context.Context, lote string) context.Context {
	return context.WithValue(ctx, LoteKey, lote)
}

// GetLote retrieves the batch identifier, or "" when absent.
func GetLote(ctx context.Context) string {
	if lote, ok := ctx.Value(LoteKey).(string); ok {
		return lote
	}
	return ""
}

// LogAttrs returns the tracing identifiers present in ctx as slog key/value
// pairs.
func LogAttrs(ctx context.Context) []any {
	var attrs []any
	if id := GetCorrelationID(ctx); id != "" {
		attrs = append(attrs, "correlation_id", id)
	}
	if lote := GetLote(ctx); lote != "" {
		attrs = append(attrs, "lote", lote)
	}
	return attrs
}
