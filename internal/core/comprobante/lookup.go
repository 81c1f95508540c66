package comprobante

import (
	"context"

	"3tcapital/ms_comprobantes_sri/internal/core/categoria"
)

// CategoryLookup resolves the learned accounting category of an emitter.
// Implementations must be safe for concurrent reads.
type CategoryLookup interface {
	Lookup(nombre string) (categoria.Category, bool)
}

// Fetcher retrieves the raw authorization response of a voucher by its
// 49-digit access key.
type Fetcher interface {
	Fetch(ctx context.Context, claveAcceso string) ([]byte, error)
}
