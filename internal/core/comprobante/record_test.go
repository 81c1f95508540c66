package comprobante

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestColumns(t *testing.T) {
	compra := Columns(TypeFactura)
	if compra[0] != ColMes || compra[16] != ColSubdetalle || len(compra) != 20 {
		t.Errorf("unexpected purchase columns %v", compra)
	}
	if got := Columns(TypeNotaCredito); len(got) != len(compra) {
		t.Errorf("credit notes must share the purchase columns")
	}

	ret := Columns(TypeRetencion)
	if ret[len(ret)-1] != ColTotalRetenido {
		t.Errorf("unexpected retention columns %v", ret)
	}

	compra[0] = "MUTATED"
	if Columns(TypeFactura)[0] != ColMes {
		t.Error("Columns must return a copy")
	}
}

func TestRecord_Values(t *testing.T) {
	r := Record{
		Mes:    "MARZO",
		Fecha:  "15/03/2024",
		Numero: "001-002-000000001",
		Tipo:   TypeFactura,
		RUC:    "1790016919001",
		Nombre: "SUPERMAXI",
		Compra: &Compra{
			Detalle:     "ALIMENTACION",
			Memo:        "PERSONAL",
			BaseGravada: decimal.RequireFromString("100.004"),
			IVA:         decimal.RequireFromString("15"),
			Total:       decimal.RequireFromString("115.00"),
			Subdetalle:  "PAN",
		},
	}

	values := r.Values()
	cols := Columns(TypeFactura)
	if len(values) != len(cols) {
		t.Fatalf("expected %d values, got %d", len(cols), len(values))
	}

	byCol := make(map[string]any, len(cols))
	for i, col := range cols {
		byCol[col] = values[i]
	}
	if byCol[ColBaseGravada] != 100.0 {
		t.Errorf("expected rounded base 100, got %v", byCol[ColBaseGravada])
	}
	if byCol[ColTotal] != 115.0 || byCol[ColDetalle] != "ALIMENTACION" {
		t.Errorf("unexpected values %v", byCol)
	}
	if byCol[ColBase0] != 0.0 {
		t.Errorf("expected zero bucket, got %v", byCol[ColBase0])
	}
}
