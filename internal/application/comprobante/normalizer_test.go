package comprobante

import (
	"errors"
	"testing"

	"3tcapital/ms_comprobantes_sri/internal/core/comprobante"
	"3tcapital/ms_comprobantes_sri/internal/testutil"
)

func TestNormalize_RootDocuments(t *testing.T) {
	tests := []struct {
		name     string
		raw      []byte
		wantTag  string
		wantType comprobante.DocumentType
	}{
		{
			name:     "factura",
			raw:      testutil.NewFactura().XML(),
			wantTag:  "factura",
			wantType: comprobante.TypeFactura,
		},
		{
			name: "nota de credito",
			raw: func() []byte {
				v := testutil.NewFactura()
				v.Root = "notaCredito"
				return v.XML()
			}(),
			wantTag:  "notaCredito",
			wantType: comprobante.TypeNotaCredito,
		},
		{
			name: "liquidacion de compra",
			raw: func() []byte {
				v := testutil.NewFactura()
				v.Root = "liquidacionCompra"
				return v.XML()
			}(),
			wantTag:  "liquidacionCompra",
			wantType: comprobante.TypeLiquidacionCompra,
		},
		{
			name:     "retencion",
			raw:      testutil.NewRetencion().XML(),
			wantTag:  "comprobanteRetencion",
			wantType: comprobante.TypeRetencion,
		},
		{
			name:     "unknown root defaults to factura",
			raw:      []byte(`<documento><importeTotal>5.00</importeTotal></documento>`),
			wantTag:  "documento",
			wantType: comprobante.TypeFactura,
		},
		{
			name:     "indicator precedence without schema root",
			raw:      []byte(`<lote><infoNotaCredito/><retenciones/><infoLiquidacionCompra/></lote>`),
			wantTag:  "lote",
			wantType: comprobante.TypeRetencion,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subtree, tipo, err := Normalize(tt.raw)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if subtree.Tag != tt.wantTag {
				t.Errorf("expected subtree %s, got %s", tt.wantTag, subtree.Tag)
			}
			if tipo != tt.wantType {
				t.Errorf("expected type %s, got %s", tt.wantType, tipo)
			}
		})
	}
}

func TestNormalize_FacturaWithRetentionsKeepsRootType(t *testing.T) {
	raw := []byte(`<factura><infoFactura><retenciones><retencion/></retenciones></infoFactura></factura>`)

	_, tipo, err := Normalize(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tipo != comprobante.TypeFactura {
		t.Errorf("expected FC, got %s", tipo)
	}
}

func TestNormalize_EmbeddedEnvelope(t *testing.T) {
	raw := testutil.WrapEscaped(testutil.NewFactura().XML())

	subtree, tipo, err := Normalize(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if subtree.Tag != "factura" {
		t.Fatalf("expected inner factura subtree, got %s", subtree.Tag)
	}
	if tipo != comprobante.TypeFactura {
		t.Errorf("expected FC, got %s", tipo)
	}
	if subtree.FindElement(".//importeTotal") == nil {
		t.Error("expected inner document fields to be reachable")
	}
}

func TestNormalize_SOAPWrappedNotaCredito(t *testing.T) {
	nc := testutil.NewFactura()
	nc.Root = "notaCredito"
	raw := testutil.WrapSOAP(nc.XML(), "AUTORIZADO")

	subtree, tipo, err := Normalize(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if subtree.Tag != "notaCredito" {
		t.Errorf("expected notaCredito subtree, got %s", subtree.Tag)
	}
	if tipo != comprobante.TypeNotaCredito {
		t.Errorf("expected NC, got %s", tipo)
	}
}

func TestNormalize_UnparseableInnerFallsBackToOuter(t *testing.T) {
	raw := []byte(`<factura><comprobante>a &lt; b</comprobante><importeTotal>3.00</importeTotal></factura>`)

	subtree, _, err := Normalize(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if subtree.Tag != "factura" {
		t.Errorf("expected outer root, got %s", subtree.Tag)
	}
}

func TestNormalize_Windows1252Fallback(t *testing.T) {
	// 0xD1 is Ñ in Windows-1252 and invalid as UTF-8.
	raw := []byte("<factura><infoTributaria><razonSocial>\xd1ANDU S.A.</razonSocial></infoTributaria></factura>")

	subtree, _, err := Normalize(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	el := subtree.FindElement(".//razonSocial")
	if el == nil || el.Text() != "ÑANDU S.A." {
		t.Errorf("expected re-decoded razonSocial, got %v", el)
	}
}

func TestNormalize_DeclaredLatin1(t *testing.T) {
	raw := []byte("<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?>\n<factura><razonSocial>JOS\xc9 P\xc9REZ</razonSocial></factura>")

	subtree, _, err := Normalize(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := subtree.FindElement(".//razonSocial").Text(); got != "JOSÉ PÉREZ" {
		t.Errorf("expected JOSÉ PÉREZ, got %q", got)
	}
}

func TestNormalize_Unparseable(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
	}{
		{name: "empty", raw: nil},
		{name: "not xml", raw: []byte("esto no es xml")},
		{name: "malformed", raw: []byte("<factura><<</factura>")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Normalize(tt.raw)
			if !errors.Is(err, comprobante.ErrUnparseable) {
				t.Errorf("expected ErrUnparseable, got %v", err)
			}
		})
	}
}
