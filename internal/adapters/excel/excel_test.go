package excel

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"3tcapital/ms_comprobantes_sri/internal/core/comprobante"
)

func maestroWorkbook(t *testing.T, rows [][]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return &buf
}

func TestReadMaestro(t *testing.T) {
	buf := maestroWorkbook(t, [][]any{
		{" nombre ", "Detalle", "memo"},
		{"Supermaxi", "alimentacion", "personal"},
		{"CNEL EP", "SERVICIOS BASICOS"},
		{"", "SALUD", "PERSONAL"},
	})

	rows, err := ReadMaestro(buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0].Nombre != "Supermaxi" || rows[0].Detalle != "alimentacion" || rows[0].Memo != "personal" {
		t.Errorf("unexpected first row %+v", rows[0])
	}
	if rows[1].Memo != "" {
		t.Errorf("expected missing memo to be empty, got %q", rows[1].Memo)
	}
}

func TestReadMaestro_WithoutNombre(t *testing.T) {
	buf := maestroWorkbook(t, [][]any{{"RUC", "DETALLE"}, {"1790016919001", "SALUD"}})

	if _, err := ReadMaestro(buf); !errors.Is(err, ErrMaestroSinNombre) {
		t.Errorf("expected ErrMaestroSinNombre, got %v", err)
	}
}

func TestReadMaestro_NotAWorkbook(t *testing.T) {
	if _, err := ReadMaestro(strings.NewReader("no es un excel")); err == nil {
		t.Error("expected error for invalid workbook")
	}
}

func TestWriteReport(t *testing.T) {
	records := []comprobante.Record{
		{
			Mes: "MARZO", Fecha: "15/03/2024", Numero: "001-002-000000001", Tipo: comprobante.TypeFactura,
			RUC: "1790016919001", Nombre: "SUPERMAXI",
			Compra: &comprobante.Compra{
				Detalle: "ALIMENTACION", Memo: "PERSONAL",
				BaseGravada: decimal.RequireFromString("100"), IVA: decimal.RequireFromString("15"),
				Total: decimal.RequireFromString("115"), Subdetalle: "PAN",
			},
		},
		{
			Mes: "NOVIEMBRE", Fecha: "05/11/2024", Numero: "001-001-000000321", Tipo: comprobante.TypeRetencion,
			RUC: "0990005737001", Nombre: "BANCO DEL PACIFICO S.A.",
			Retencion: &comprobante.Retencion{
				DocSustento:   "001-002-000123456",
				TotalRetenido: decimal.RequireFromString("6.50"),
			},
		},
	}

	var buf bytes.Buffer
	if err := WriteReport(&buf, records); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	want := []string{SheetCompras, SheetRetenciones, SheetAnual}
	if strings.Join(sheets, ",") != strings.Join(want, ",") {
		t.Fatalf("expected sheets %v, got %v", want, sheets)
	}

	raw := excelize.Options{RawCellValue: true}
	cases := []struct {
		sheet, cell, want string
	}{
		{SheetCompras, "A1", "MES"},
		{SheetCompras, "P1", "TOTAL"},
		{SheetCompras, "A2", "MARZO"},
		{SheetCompras, "P2", "115"},
		{SheetCompras, "G2", "ALIMENTACION"},
		{SheetCompras, "A3", ""},
		{SheetRetenciones, "I2", "001-002-000123456"},
		{SheetRetenciones, "N2", "6.5"},
		{SheetAnual, "A4", "Enero"},
		{SheetAnual, "F2", "Alimentacion"},
	}
	for _, c := range cases {
		got, err := f.GetCellValue(c.sheet, c.cell, raw)
		if err != nil {
			t.Fatalf("%s!%s: %v", c.sheet, c.cell, err)
		}
		if got != c.want {
			t.Errorf("%s!%s: expected %q, got %q", c.sheet, c.cell, c.want, got)
		}
	}

	formula, err := f.GetCellFormula(SheetAnual, "F6")
	if err != nil {
		t.Fatalf("formula: %v", err)
	}
	if formula != `SUMIFS('COMPRAS'!$P:$P,'COMPRAS'!$A:$A,"MARZO",'COMPRAS'!$G:$G,"ALIMENTACION")` {
		t.Errorf("unexpected formula %s", formula)
	}
	profesional, _ := f.GetCellFormula(SheetAnual, "B4")
	if !strings.Contains(profesional, `'COMPRAS'!$H:$H,"PROFESIONAL"`) {
		t.Errorf("unexpected PROFESIONAL formula %s", profesional)
	}
	total, _ := f.GetCellFormula(SheetAnual, "K15")
	if total != "SUM(B15:J15)" {
		t.Errorf("unexpected total formula %s", total)
	}
}
