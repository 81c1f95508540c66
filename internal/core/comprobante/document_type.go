package comprobante

import "strings"

// DocumentType identifies which SRI voucher a document carries.
type DocumentType string

const (
	TypeFactura           DocumentType = "FC"
	TypeNotaCredito       DocumentType = "NC"
	TypeLiquidacionCompra DocumentType = "LC"
	TypeRetencion         DocumentType = "RET"
)

// rootTags maps the root element of each voucher schema to its type.
var rootTags = map[string]DocumentType{
	"factura":              TypeFactura,
	"notacredito":          TypeNotaCredito,
	"liquidacioncompra":    TypeLiquidacionCompra,
	"comprobanteretencion": TypeRetencion,
}

// precedence ranks indicator matches when several coexist in one document.
var precedence = map[DocumentType]int{
	TypeFactura:           0,
	TypeLiquidacionCompra: 1,
	TypeNotaCredito:       2,
	TypeRetencion:         3,
}

// IsValid reports whether t is one of the four supported types.
func (t DocumentType) IsValid() bool {
	_, ok := precedence[t]
	return ok
}

// IsCompra reports whether the type follows the purchase (FC/LC/NC) path.
func (t DocumentType) IsCompra() bool {
	return t == TypeFactura || t == TypeNotaCredito || t == TypeLiquidacionCompra
}

// Sign is -1 for credit notes, which reduce a prior expense, and 1 otherwise.
func (t DocumentType) Sign() int64 {
	if t == TypeNotaCredito {
		return -1
	}
	return 1
}

func (t DocumentType) String() string {
	return string(t)
}

// TypeFromTag returns the type indicated by a single tag name.
// Matching is a case-insensitive substring test; ok is false for tags that
// carry no indicator.
func TypeFromTag(tag string) (DocumentType, bool) {
	lower := strings.ToLower(tag)
	switch {
	case strings.Contains(lower, "retencion"):
		return TypeRetencion, true
	case strings.Contains(lower, "notacredito"):
		return TypeNotaCredito, true
	case strings.Contains(lower, "liquidacioncompra"):
		return TypeLiquidacionCompra, true
	}
	return "", false
}

// TypeFromRootTag returns the type for an exact schema root element name.
func TypeFromRootTag(tag string) (DocumentType, bool) {
	t, ok := rootTags[strings.ToLower(tag)]
	return t, ok
}

// TypeDetector accumulates indicator tags seen during a traversal and
// resolves them with a fixed precedence: RET > NC > LC > FC.
type TypeDetector struct {
	current DocumentType
	seen    bool
}

// Observe feeds one tag name to the detector.
func (d *TypeDetector) Observe(tag string) {
	t, ok := TypeFromTag(tag)
	if !ok {
		return
	}
	if !d.seen || precedence[t] > precedence[d.current] {
		d.current = t
		d.seen = true
	}
}

// Type returns the resolved type, FC when nothing matched.
func (d *TypeDetector) Type() DocumentType {
	if !d.seen {
		return TypeFactura
	}
	return d.current
}
