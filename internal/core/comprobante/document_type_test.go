package comprobante

import "testing"

func TestTypeFromTag(t *testing.T) {
	tests := []struct {
		tag    string
		want   DocumentType
		wantOK bool
	}{
		{tag: "infoNotaCredito", want: TypeNotaCredito, wantOK: true},
		{tag: "LIQUIDACIONCOMPRA", want: TypeLiquidacionCompra, wantOK: true},
		{tag: "comprobanteRetencion", want: TypeRetencion, wantOK: true},
		{tag: "infoFactura", wantOK: false},
	}

	for _, tt := range tests {
		got, ok := TypeFromTag(tt.tag)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("TypeFromTag(%s) = %s, %v; want %s, %v", tt.tag, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestTypeDetector_Precedence(t *testing.T) {
	tests := []struct {
		name string
		tags []string
		want DocumentType
	}{
		{name: "nothing matched", tags: []string{"factura", "infoFactura"}, want: TypeFactura},
		{name: "nc beats later lc", tags: []string{"infoNotaCredito", "liquidacionCompra"}, want: TypeNotaCredito},
		{name: "ret beats earlier nc", tags: []string{"notaCredito", "retenciones"}, want: TypeRetencion},
		{name: "lc alone", tags: []string{"infoLiquidacionCompra"}, want: TypeLiquidacionCompra},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d TypeDetector
			for _, tag := range tt.tags {
				d.Observe(tag)
			}
			if got := d.Type(); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestDocumentType_Sign(t *testing.T) {
	if TypeNotaCredito.Sign() != -1 {
		t.Error("credit notes must be negative")
	}
	for _, tipo := range []DocumentType{TypeFactura, TypeLiquidacionCompra, TypeRetencion} {
		if tipo.Sign() != 1 {
			t.Errorf("%s must keep its sign", tipo)
		}
	}
	if DocumentType("ND").IsValid() {
		t.Error("ND is not a supported type")
	}
}
