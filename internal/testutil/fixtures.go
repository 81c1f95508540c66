package testutil

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"3tcapital/ms_comprobantes_sri/internal/core/comprobante"
)

// TaxLine is one totalImpuesto entry of a fixture voucher.
type TaxLine struct {
	Codigo           string
	CodigoPorcentaje string
	BaseImponible    string
	Valor            string
}

// Voucher builds synthetic factura, notaCredito and liquidacionCompra
// documents. Empty optional fields are omitted from the output.
type Voucher struct {
	Root              string
	RazonSocial       string
	RUC               string
	Estab             string
	PtoEmi            string
	Secuencial        string
	FechaEmision      string
	Comprador         string
	NombreComprador   string
	TotalSinImpuestos string
	ImporteTotal      string
	Propina           string
	NumDocModificado  string
	Impuestos         []TaxLine
	Detalles          []string
}

// NewFactura returns a 100.00 + 21.00 IVA = 121.00 invoice.
func NewFactura() Voucher {
	return Voucher{
		Root:              "factura",
		RazonSocial:       " Corporacion Favorita c.a. ",
		RUC:               "1790016919001",
		Estab:             "001",
		PtoEmi:            "002",
		Secuencial:        "000004567",
		FechaEmision:      "15/03/2024",
		Comprador:         "1792146739001",
		NombreComprador:   "COMERCIAL ANDINA S.A.",
		TotalSinImpuestos: "100.00",
		ImporteTotal:      "121.00",
		Impuestos: []TaxLine{
			{Codigo: "2", CodigoPorcentaje: "2", BaseImponible: "100.00", Valor: "21.00"},
		},
		Detalles: []string{"ARROZ FLOR 2KG"},
	}
}

// XML renders the voucher.
func (v Voucher) XML() []byte {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	fmt.Fprintf(&b, "<%s id=\"comprobante\" version=\"1.1.0\">\n", v.Root)
	b.WriteString("<infoTributaria>\n")
	writeElement(&b, "ambiente", "2")
	writeElement(&b, "razonSocial", v.RazonSocial)
	writeElement(&b, "ruc", v.RUC)
	writeElement(&b, "estab", v.Estab)
	writeElement(&b, "ptoEmi", v.PtoEmi)
	writeElement(&b, "secuencial", v.Secuencial)
	b.WriteString("</infoTributaria>\n")

	b.WriteString("<infoDocumento>\n")
	writeElement(&b, "fechaEmision", v.FechaEmision)
	writeElement(&b, "identificacionComprador", v.Comprador)
	writeElement(&b, "razonSocialComprador", v.NombreComprador)
	writeElement(&b, "numDocModificado", v.NumDocModificado)
	writeElement(&b, "totalSinImpuestos", v.TotalSinImpuestos)
	if len(v.Impuestos) > 0 {
		b.WriteString("<totalConImpuestos>\n")
		for _, imp := range v.Impuestos {
			b.WriteString("<totalImpuesto>")
			writeElement(&b, "codigo", imp.Codigo)
			writeElement(&b, "codigoPorcentaje", imp.CodigoPorcentaje)
			writeElement(&b, "baseImponible", imp.BaseImponible)
			writeElement(&b, "valor", imp.Valor)
			b.WriteString("</totalImpuesto>\n")
		}
		b.WriteString("</totalConImpuestos>\n")
	}
	writeElement(&b, "propina", v.Propina)
	writeElement(&b, "importeTotal", v.ImporteTotal)
	b.WriteString("</infoDocumento>\n")

	b.WriteString("<detalles>\n")
	for _, d := range v.Detalles {
		b.WriteString("<detalle>")
		writeElement(&b, "descripcion", d)
		b.WriteString("</detalle>\n")
	}
	b.WriteString("</detalles>\n")
	fmt.Fprintf(&b, "</%s>\n", v.Root)
	return []byte(b.String())
}

// RetentionLine is one impuesto entry of a fixture retention.
type RetentionLine struct {
	Codigo        string
	BaseImponible string
	ValorRetenido string
}

// Retencion builds synthetic comprobanteRetencion (v1.0) documents.
type Retencion struct {
	RazonSocial      string
	RUC              string
	FechaEmision     string
	SujetoRetenido   string
	NombreSujeto     string
	PeriodoFiscal    string
	NumDocSustento   string
	FechaDocSustento string
	Lineas           []RetentionLine
}

// NewRetencion returns a retention with one income-tax and one IVA line.
func NewRetencion() Retencion {
	return Retencion{
		RazonSocial:      "Banco del Pacifico S.A.",
		RUC:              "0990005737001",
		FechaEmision:     "05/11/2024",
		SujetoRetenido:   "1792146739001",
		NombreSujeto:     "COMERCIAL ANDINA S.A.",
		PeriodoFiscal:    "11/2024",
		NumDocSustento:   "001002000123456",
		FechaDocSustento: "01/11/2024",
		Lineas: []RetentionLine{
			{Codigo: "1", BaseImponible: "100.00", ValorRetenido: "2.00"},
			{Codigo: "2", BaseImponible: "15.00", ValorRetenido: "4.50"},
		},
	}
}

// XML renders the retention.
func (r Retencion) XML() []byte {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString("<comprobanteRetencion id=\"comprobante\" version=\"1.0.0\">\n")
	b.WriteString("<infoTributaria>\n")
	writeElement(&b, "razonSocial", r.RazonSocial)
	writeElement(&b, "ruc", r.RUC)
	writeElement(&b, "estab", "001")
	writeElement(&b, "ptoEmi", "001")
	writeElement(&b, "secuencial", "000000321")
	b.WriteString("</infoTributaria>\n")
	b.WriteString("<infoCompRetencion>\n")
	writeElement(&b, "fechaEmision", r.FechaEmision)
	writeElement(&b, "identificacionSujetoRetenido", r.SujetoRetenido)
	writeElement(&b, "razonSocialSujetoRetenido", r.NombreSujeto)
	writeElement(&b, "periodoFiscal", r.PeriodoFiscal)
	b.WriteString("</infoCompRetencion>\n")
	b.WriteString("<impuestos>\n")
	for _, l := range r.Lineas {
		b.WriteString("<impuesto>")
		writeElement(&b, "codigo", l.Codigo)
		writeElement(&b, "baseImponible", l.BaseImponible)
		writeElement(&b, "valorRetenido", l.ValorRetenido)
		writeElement(&b, "codDocSustento", "01")
		writeElement(&b, "numDocSustento", r.NumDocSustento)
		writeElement(&b, "fechaEmisionDocSustento", r.FechaDocSustento)
		b.WriteString("</impuesto>\n")
	}
	b.WriteString("</impuestos>\n")
	b.WriteString("</comprobanteRetencion>\n")
	return []byte(b.String())
}

// WrapEscaped nests inner as escaped text in <response><comprobante>.
func WrapEscaped(inner []byte) []byte {
	var escaped bytes.Buffer
	_ = xml.EscapeText(&escaped, inner)
	return []byte("<response><comprobante>" + escaped.String() + "</comprobante></response>")
}

// WrapSOAP nests inner as CDATA in an SRI authorization SOAP response.
func WrapSOAP(inner []byte, estado string) []byte {
	return []byte(`<?xml version="1.0" encoding="UTF-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
<soap:Body>
<ns2:autorizacionComprobanteResponse xmlns:ns2="http://ec.gob.sri.ws.autorizacion">
<RespuestaAutorizacionComprobante>
<claveAccesoConsultada>0000000000000000000000000000000000000000000000000</claveAccesoConsultada>
<numeroComprobantes>1</numeroComprobantes>
<autorizaciones>
<autorizacion>
<estado>` + estado + `</estado>
<numeroAutorizacion>0000000000000000000000000000000000000000000000000</numeroAutorizacion>
<ambiente>PRODUCCIÓN</ambiente>
<comprobante><![CDATA[` + string(inner) + `]]></comprobante>
</autorizacion>
</autorizaciones>
</RespuestaAutorizacionComprobante>
</ns2:autorizacionComprobanteResponse>
</soap:Body>
</soap:Envelope>`)
}

func writeElement(b *strings.Builder, tag, value string) {
	if value == "" {
		return
	}
	b.WriteString("<" + tag + ">")
	_ = xml.EscapeText(b, []byte(value))
	b.WriteString("</" + tag + ">")
}

// ClaveAcceso builds a valid 49-digit factura access key for the given
// ambiente ("1" pruebas, "2" produccion) and sequence number.
func ClaveAcceso(ambiente string, secuencial int) string {
	base := fmt.Sprintf("15032024011790016919001%s001002%09d123456781", ambiente, secuencial)
	return base + fmt.Sprint(comprobante.DigitoVerificador(base))
}
