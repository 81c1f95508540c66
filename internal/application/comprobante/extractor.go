package comprobante

import (
	"strings"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"

	"3tcapital/ms_comprobantes_sri/internal/core/categoria"
	"3tcapital/ms_comprobantes_sri/internal/core/comprobante"
)

// SRI tax kind codes (codigo) found in totalImpuesto and retention lines.
const (
	impuestoRenta = "1"
	impuestoIVA   = "2"
	impuestoICE   = "3"
)

// IVA rate codes (codigoPorcentaje).
const (
	tarifaCero      = "0"
	tarifaNoObjeto  = "6"
	tarifaExenta    = "7"
	maxSubdetalles  = 5
	sinDescripcion  = "Sin descripción"
	naturalIDDigits = 10
)

// tarifasGravadas are the standard-rate codes used over the years
// (12%, 14%, 15% and their transitional variants).
var tarifasGravadas = map[string]bool{
	"2":  true,
	"3":  true,
	"4":  true,
	"5":  true,
	"8":  true,
	"10": true,
}

// surplusTolerance is the smallest derived difference kept as NO IVA.
var surplusTolerance = decimal.New(1, -2)

// Extract computes the canonical record of a normalized voucher subtree.
// It is a pure function of its inputs; lookup is only read.
func Extract(root *etree.Element, tipo comprobante.DocumentType, lookup comprobante.CategoryLookup) (comprobante.Record, error) {
	if root == nil {
		return comprobante.Record{}, comprobante.NewExtractionError(comprobante.ErrUnparseable, "", nil)
	}
	if !tipo.IsValid() {
		tipo = comprobante.TypeFactura
	}

	doc := document{root: root}
	fecha := doc.text(tagsFechaEmision...)
	record := comprobante.Record{
		Mes:             comprobante.MonthName(fecha),
		Fecha:           fecha,
		Numero:          comprobante.FormatNumero(doc.text("estab"), doc.text("ptoEmi"), doc.text("secuencial")),
		Tipo:            tipo,
		RUC:             doc.text(tagsRUC...),
		Nombre:          categoria.NormalizeName(doc.text(tagsRazonSocial...)),
		RUCComprador:    doc.text(tagsIDComprador...),
		NombreComprador: strings.TrimSpace(doc.text(tagsNombreComprador...)),
	}

	if tipo == comprobante.TypeRetencion {
		ret, err := extractRetencion(doc)
		if err != nil {
			return comprobante.Record{}, err
		}
		record.Retencion = ret
		return record, nil
	}

	compra, err := extractCompra(doc, tipo)
	if err != nil {
		return comprobante.Record{}, err
	}
	category := classify(record.Nombre, record.RUCComprador, lookup)
	compra.Detalle = category.Detalle
	compra.Memo = category.Memo
	record.Compra = compra
	return record, nil
}

func extractCompra(doc document, tipo comprobante.DocumentType) (*comprobante.Compra, error) {
	total, err := doc.decimal("total", tagsTotal...)
	if err != nil {
		return nil, err
	}
	subtotal, err := doc.decimal("subtotal", tagsSubtotal...)
	if err != nil {
		return nil, err
	}
	propina, err := doc.decimal("propina", tagsPropina...)
	if err != nil {
		return nil, err
	}

	c := &comprobante.Compra{
		Total:         total,
		Subtotal:      subtotal,
		Propina:       propina,
		Subdetalle:    subdetalle(doc.root),
		DocModificado: comprobante.NormalizeNumero(doc.text(tagsDocModificado...)),
	}

	itemized := doc.has("propina")
	for _, imp := range descendants(doc.root, "totalImpuesto") {
		codigo, _ := childText(imp, "codigo")
		tarifa, _ := childText(imp, "codigoPorcentaje")
		base, err := requiredAmount(imp, "baseImponible")
		if err != nil {
			return nil, err
		}
		valor, err := requiredAmount(imp, "valor")
		if err != nil {
			return nil, err
		}

		switch codigo {
		case impuestoIVA:
			switch {
			case tarifa == tarifaCero:
				c.Base0 = c.Base0.Add(base)
			case tarifasGravadas[tarifa]:
				c.BaseGravada = c.BaseGravada.Add(base)
				c.IVA = c.IVA.Add(valor)
			case tarifa == tarifaNoObjeto:
				c.BaseNoObjeto = c.BaseNoObjeto.Add(base)
				itemized = true
			case tarifa == tarifaExenta:
				c.BaseExenta = c.BaseExenta.Add(base)
				itemized = true
			default:
				c.OtraBaseIVA = c.OtraBaseIVA.Add(base)
				c.OtroMontoIVA = c.OtroMontoIVA.Add(valor)
			}
		case impuestoICE:
			c.MontoICE = c.MontoICE.Add(valor)
		}
	}

	if !itemized {
		c.NoIVA = noIVA(total, subtotal, c.IVA, c.OtroMontoIVA, c.MontoICE)
	}

	if tipo.Sign() < 0 {
		negate(c)
	}
	return c, nil
}

// noIVA derives the amount subject to neither IVA nor ICE that older
// schemas leave unitemized. Differences under one cent are noise, and a
// negative difference is never an untaxed amount, so both yield zero.
func noIVA(total, subtotal, iva, otroIVA, ice decimal.Decimal) decimal.Decimal {
	diff := total.Sub(subtotal.Add(iva).Add(otroIVA).Add(ice)).Round(2)
	if diff.LessThan(surplusTolerance) {
		return decimal.Zero
	}
	return diff
}

func negate(c *comprobante.Compra) {
	for _, amount := range []*decimal.Decimal{
		&c.NoIVA, &c.MontoICE, &c.OtraBaseIVA, &c.OtroMontoIVA, &c.Base0,
		&c.BaseGravada, &c.IVA, &c.BaseExenta, &c.BaseNoObjeto, &c.Propina,
		&c.Subtotal, &c.Total,
	} {
		*amount = amount.Neg()
	}
}

// subdetalle joins the first line-item descriptions of the voucher.
func subdetalle(root *etree.Element) string {
	var items []string
	for _, det := range descendants(root, "detalle") {
		text, ok := childText(det, "descripcion")
		if !ok || text == "" {
			continue
		}
		items = append(items, text)
		if len(items) == maxSubdetalles {
			break
		}
	}
	if len(items) == 0 {
		return sinDescripcion
	}
	return strings.Join(items, " | ")
}

// classify resolves the accounting category of the emitter. Purchases made
// with a cédula (10-digit buyer id) are personal expenses.
func classify(nombre, idComprador string, lookup comprobante.CategoryLookup) categoria.Category {
	var (
		category categoria.Category
		known    bool
	)
	if lookup != nil {
		category, known = lookup.Lookup(nombre)
	}

	if esPersonaNatural(idComprador) {
		if !known {
			category.Detalle = categoria.DetalleNoDeducible
		}
		category.Memo = categoria.MemoPersonal
		return category
	}
	if !known {
		return categoria.Default()
	}
	return category
}

func esPersonaNatural(id string) bool {
	id = strings.TrimSpace(id)
	if len(id) != naturalIDDigits {
		return false
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func extractRetencion(doc document) (*comprobante.Retencion, error) {
	r := &comprobante.Retencion{
		DocSustento:    comprobante.NormalizeNumero(doc.text(tagsDocSustento...)),
		CodDocSustento: doc.text(tagsCodSustento...),
		FechaSustento:  doc.text(tagsFechaSustento...),
		PeriodoFiscal:  doc.text(tagsPeriodoFiscal...),
	}

	for _, line := range descendants(doc.root, "impuesto", "retencion") {
		if line.SelectElement("valorRetenido") == nil {
			continue
		}
		codigo, _ := childText(line, "codigo")
		base, err := requiredAmount(line, "baseImponible")
		if err != nil {
			return nil, err
		}
		retenido, err := requiredAmount(line, "valorRetenido")
		if err != nil {
			return nil, err
		}

		switch codigo {
		case impuestoRenta:
			r.BaseRenta = r.BaseRenta.Add(base)
			r.RetenidoRenta = r.RetenidoRenta.Add(retenido)
		case impuestoIVA:
			r.BaseIVA = r.BaseIVA.Add(base)
			r.RetenidoIVA = r.RetenidoIVA.Add(retenido)
		}
		r.TotalRetenido = r.TotalRetenido.Add(retenido)
	}
	return r, nil
}
