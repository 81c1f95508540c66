package comprobante

import (
	"strings"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"

	"3tcapital/ms_comprobantes_sri/internal/core/comprobante"
)

// Candidate tag names per logical field, in priority order. Older schema
// versions used different names for the same value.
var (
	tagsTotal           = []string{"importeTotal", "valorModificado", "total"}
	tagsSubtotal        = []string{"totalSinImpuestos", "subtotal"}
	tagsPropina         = []string{"propina"}
	tagsFechaEmision    = []string{"fechaEmision"}
	tagsRUC             = []string{"ruc"}
	tagsRazonSocial     = []string{"razonSocial"}
	tagsIDComprador     = []string{"identificacionComprador", "identificacionProveedor", "identificacionSujetoRetenido"}
	tagsNombreComprador = []string{"razonSocialComprador", "razonSocialProveedor", "razonSocialSujetoRetenido"}
	tagsDocSustento     = []string{"numDocSustento"}
	tagsCodSustento     = []string{"codDocSustento"}
	tagsDocModificado   = []string{"numDocModificado"}
	tagsFechaSustento   = []string{"fechaEmisionDocSustento"}
	tagsPeriodoFiscal   = []string{"periodoFiscal"}
)

// document wraps a normalized voucher subtree with tolerant field lookups.
type document struct {
	root *etree.Element
}

// find returns the first descendant, in document order, whose tag is one
// of tags (tried in priority order) and whose text is not blank.
func (d document) find(tags ...string) *etree.Element {
	for _, tag := range tags {
		if el := firstWithText(d.root, tag); el != nil {
			return el
		}
	}
	return nil
}

// text resolves a string field; absent fields yield "".
func (d document) text(tags ...string) string {
	if el := d.find(tags...); el != nil {
		return strings.TrimSpace(el.Text())
	}
	return ""
}

// has reports whether any element named tag exists, regardless of content.
func (d document) has(tag string) bool {
	return len(descendants(d.root, tag)) > 0
}

// decimal resolves a monetary field; absent fields yield zero, non-numeric
// text is an extraction error.
func (d document) decimal(field string, tags ...string) (decimal.Decimal, error) {
	return parseAmount(field, d.text(tags...))
}

func firstWithText(e *etree.Element, tag string) *etree.Element {
	for _, child := range e.ChildElements() {
		if child.Tag == tag && strings.TrimSpace(child.Text()) != "" {
			return child
		}
		if found := firstWithText(child, tag); found != nil {
			return found
		}
	}
	return nil
}

// descendants collects every descendant of e whose tag is one of tags, in
// document order.
func descendants(e *etree.Element, tags ...string) []*etree.Element {
	var out []*etree.Element
	var walk func(*etree.Element)
	walk = func(parent *etree.Element) {
		for _, child := range parent.ChildElements() {
			for _, tag := range tags {
				if child.Tag == tag {
					out = append(out, child)
					break
				}
			}
			walk(child)
		}
	}
	walk(e)
	return out
}

// childText returns the trimmed text of the first direct child named tag
// and whether that child exists.
func childText(e *etree.Element, tag string) (string, bool) {
	child := e.SelectElement(tag)
	if child == nil {
		return "", false
	}
	return strings.TrimSpace(child.Text()), true
}

// requiredAmount reads a direct child amount that must be present; empty
// text counts as zero.
func requiredAmount(e *etree.Element, tag string) (decimal.Decimal, error) {
	text, ok := childText(e, tag)
	if !ok {
		return decimal.Zero, comprobante.NewExtractionError(comprobante.ErrMissingField, e.Tag+"/"+tag, nil)
	}
	return parseAmount(tag, text)
}

func parseAmount(field, text string) (decimal.Decimal, error) {
	if text == "" {
		return decimal.Zero, nil
	}
	value, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero, comprobante.NewExtractionError(comprobante.ErrInvalidNumber, field, err)
	}
	return value, nil
}
