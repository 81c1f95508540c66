package comprobante

import (
	"github.com/shopspring/decimal"
)

// Record is the canonical tax-accounting row extracted from one voucher.
// Exactly one of Compra or Retencion is set, depending on Tipo.
type Record struct {
	Mes             string       `json:"mes"`
	Fecha           string       `json:"fecha"`
	Numero          string       `json:"numero"`
	Tipo            DocumentType `json:"tipo"`
	RUC             string       `json:"ruc"`
	Nombre          string       `json:"nombre"`
	RUCComprador    string       `json:"rucComprador"`
	NombreComprador string       `json:"nombreComprador"`

	Compra    *Compra    `json:"compra,omitempty"`
	Retencion *Retencion `json:"retencion,omitempty"`
}

// Compra holds the purchase buckets of a factura, liquidación de compra or
// nota de crédito. Credit-note amounts are already negated.
type Compra struct {
	Detalle      string          `json:"detalle"`
	Memo         string          `json:"memo"`
	NoIVA        decimal.Decimal `json:"noIva"`
	MontoICE     decimal.Decimal `json:"montoIce"`
	OtraBaseIVA  decimal.Decimal `json:"otraBaseIva"`
	OtroMontoIVA decimal.Decimal `json:"otroMontoIva"`
	Base0        decimal.Decimal `json:"base0"`
	BaseGravada  decimal.Decimal `json:"baseGravada"`
	IVA          decimal.Decimal `json:"iva"`
	BaseExenta   decimal.Decimal `json:"baseExenta"`
	BaseNoObjeto decimal.Decimal `json:"baseNoObjeto"`
	Propina      decimal.Decimal `json:"propina"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	Total        decimal.Decimal `json:"total"`
	Subdetalle   string          `json:"subdetalle"`

	// DocModificado is the voucher a credit note amends, when present.
	DocModificado string `json:"docModificado,omitempty"`
}

// Retencion holds the withholding totals of a comprobante de retención.
type Retencion struct {
	DocSustento    string          `json:"docSustento"`
	CodDocSustento string          `json:"codDocSustento"`
	FechaSustento  string          `json:"fechaSustento"`
	PeriodoFiscal  string          `json:"periodoFiscal"`
	BaseRenta      decimal.Decimal `json:"baseRenta"`
	RetenidoRenta  decimal.Decimal `json:"retenidoRenta"`
	BaseIVA        decimal.Decimal `json:"baseIva"`
	RetenidoIVA    decimal.Decimal `json:"retenidoIva"`
	TotalRetenido  decimal.Decimal `json:"totalRetenido"`
}

// Column names of the purchase report, in sheet order.
const (
	ColMes          = "MES"
	ColFecha        = "FECHA"
	ColNumero       = "N. FACTURA"
	ColTipo         = "TIPO DE DOCUMENTO"
	ColRUC          = "RUC"
	ColNombre       = "NOMBRE"
	ColDetalle      = "DETALLE"
	ColMemo         = "MEMO"
	ColNoIVA        = "NO IVA"
	ColMontoICE     = "MONTO ICE"
	ColOtraBaseIVA  = "OTRA BASE IVA"
	ColOtroMontoIVA = "OTRO MONTO IVA"
	ColBase0        = "BASE. 0"
	ColBaseGravada  = "BASE. 12 / 15"
	ColIVA          = "IVA."
	ColTotal        = "TOTAL"
	ColSubdetalle   = "SUBDETALLE"
	ColPropina      = "PROPINA"
	ColBaseExenta   = "BASE EXENTA"
	ColBaseNoObjeto = "BASE NO OBJETO"

	ColRUCSujeto     = "RUC SUJETO RETENIDO"
	ColNombreSujeto  = "SUJETO RETENIDO"
	ColDocSustento   = "DOC. SUSTENTO"
	ColBaseRenta     = "BASE RENTA"
	ColRetenidoRenta = "RETENCION RENTA"
	ColBaseIVARet    = "BASE IVA"
	ColRetenidoIVA   = "RETENCION IVA"
	ColTotalRetenido = "TOTAL RETENIDO"
)

var compraColumns = []string{
	ColMes, ColFecha, ColNumero, ColTipo, ColRUC, ColNombre, ColDetalle, ColMemo,
	ColNoIVA, ColMontoICE, ColOtraBaseIVA, ColOtroMontoIVA, ColBase0, ColBaseGravada,
	ColIVA, ColTotal, ColSubdetalle, ColPropina, ColBaseExenta, ColBaseNoObjeto,
}

var retencionColumns = []string{
	ColMes, ColFecha, ColNumero, ColTipo, ColRUC, ColNombre, ColRUCSujeto, ColNombreSujeto,
	ColDocSustento, ColBaseRenta, ColRetenidoRenta, ColBaseIVARet, ColRetenidoIVA, ColTotalRetenido,
}

// Columns returns the stable, ordered field set for a document type.
func Columns(t DocumentType) []string {
	if t == TypeRetencion {
		return append([]string(nil), retencionColumns...)
	}
	return append([]string(nil), compraColumns...)
}

// Fields exposes the record as a mapping of column name to value. Monetary
// values are float64 rounded to cents; everything else is a string.
func (r Record) Fields() map[string]any {
	fields := map[string]any{
		ColMes:    r.Mes,
		ColFecha:  r.Fecha,
		ColNumero: r.Numero,
		ColTipo:   string(r.Tipo),
		ColRUC:    r.RUC,
		ColNombre: r.Nombre,
	}

	if c := r.Compra; c != nil {
		fields[ColDetalle] = c.Detalle
		fields[ColMemo] = c.Memo
		fields[ColNoIVA] = money(c.NoIVA)
		fields[ColMontoICE] = money(c.MontoICE)
		fields[ColOtraBaseIVA] = money(c.OtraBaseIVA)
		fields[ColOtroMontoIVA] = money(c.OtroMontoIVA)
		fields[ColBase0] = money(c.Base0)
		fields[ColBaseGravada] = money(c.BaseGravada)
		fields[ColIVA] = money(c.IVA)
		fields[ColTotal] = money(c.Total)
		fields[ColSubdetalle] = c.Subdetalle
		fields[ColPropina] = money(c.Propina)
		fields[ColBaseExenta] = money(c.BaseExenta)
		fields[ColBaseNoObjeto] = money(c.BaseNoObjeto)
	}

	if rt := r.Retencion; rt != nil {
		fields[ColRUCSujeto] = r.RUCComprador
		fields[ColNombreSujeto] = r.NombreComprador
		fields[ColDocSustento] = rt.DocSustento
		fields[ColBaseRenta] = money(rt.BaseRenta)
		fields[ColRetenidoRenta] = money(rt.RetenidoRenta)
		fields[ColBaseIVARet] = money(rt.BaseIVA)
		fields[ColRetenidoIVA] = money(rt.RetenidoIVA)
		fields[ColTotalRetenido] = money(rt.TotalRetenido)
	}

	return fields
}

// Values returns the record's fields in Columns order.
func (r Record) Values() []any {
	fields := r.Fields()
	cols := Columns(r.Tipo)
	values := make([]any, len(cols))
	for i, col := range cols {
		values[i] = fields[col]
	}
	return values
}

func money(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}
