package excel

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"3tcapital/ms_comprobantes_sri/internal/core/categoria"
	"3tcapital/ms_comprobantes_sri/internal/core/comprobante"
)

// Sheet names of the generated workbook.
const (
	SheetCompras     = "COMPRAS"
	SheetRetenciones = "RETENCIONES"
	SheetAnual       = "REPORTE ANUAL"
)

// accountingFormat renders negatives in red and zero as a dash.
const accountingFormat = `_-$ * #,##0.00_-;[Red]_-$ * -#,##0.00_-;_-$ * "-"??_-;_-@_-`

// firstMonthRow is the annual-report row holding ENERO.
const firstMonthRow = 4

// WriteReport renders records as an xlsx workbook into w.
func WriteReport(w io.Writer, records []comprobante.Record) error {
	f, err := NewReport(records)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// NewReport builds the workbook: purchases, retentions and the annual
// per-category summary driven by SUMIFS over the purchases sheet.
func NewReport(records []comprobante.Record) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetCompras); err != nil {
		f.Close()
		return nil, err
	}
	for _, sheet := range []string{SheetRetenciones, SheetAnual} {
		if _, err := f.NewSheet(sheet); err != nil {
			f.Close()
			return nil, err
		}
	}

	styles, err := newStyles(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	var compras, retenciones []comprobante.Record
	for _, r := range records {
		if r.Tipo == comprobante.TypeRetencion {
			retenciones = append(retenciones, r)
		} else {
			compras = append(compras, r)
		}
	}

	steps := []func() error{
		func() error {
			return writeTable(f, SheetCompras, comprobante.Columns(comprobante.TypeFactura), compras, styles)
		},
		func() error {
			return writeTable(f, SheetRetenciones, comprobante.Columns(comprobante.TypeRetencion), retenciones, styles)
		},
		func() error { return writeAnnual(f, styles) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			f.Close()
			return nil, fmt.Errorf("build report: %w", err)
		}
	}
	return f, nil
}

type reportStyles struct {
	header int
	money  int
	even   int
	odd    int
}

func newStyles(f *excelize.File) (reportStyles, error) {
	format := accountingFormat
	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}

	var s reportStyles
	var err error
	if s.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Border:    border,
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	}); err != nil {
		return s, err
	}
	if s.money, err = f.NewStyle(&excelize.Style{CustomNumFmt: &format}); err != nil {
		return s, err
	}
	if s.even, err = f.NewStyle(&excelize.Style{
		CustomNumFmt: &format,
		Border:       border,
		Fill:         excelize.Fill{Type: "pattern", Color: []string{"#FFFFFF"}, Pattern: 1},
	}); err != nil {
		return s, err
	}
	if s.odd, err = f.NewStyle(&excelize.Style{
		CustomNumFmt: &format,
		Border:       border,
		Fill:         excelize.Fill{Type: "pattern", Color: []string{"#FAFAFA"}, Pattern: 1},
	}); err != nil {
		return s, err
	}
	return s, nil
}

func writeTable(f *excelize.File, sheet string, columns []string, records []comprobante.Record, styles reportStyles) error {
	header := make([]any, len(columns))
	for i, col := range columns {
		header[i] = col
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	if err := f.SetRowStyle(sheet, 1, 1, styles.header); err != nil {
		return err
	}

	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := r.Values()
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}

	if len(records) > 0 {
		for i, v := range records[0].Values() {
			if _, ok := v.(float64); !ok {
				continue
			}
			top, _ := excelize.CoordinatesToCellName(i+1, 2)
			bottom, _ := excelize.CoordinatesToCellName(i+1, len(records)+1)
			if err := f.SetCellStyle(sheet, top, bottom, styles.money); err != nil {
				return fmt.Errorf("style %s: %w", columns[i], err)
			}
		}
	}

	last, err := excelize.ColumnNumberToName(len(columns))
	if err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", last, 16)
}

// writeAnnual lays out one row per month and one column per category, plus
// the PROFESIONAL column and a row total.
func writeAnnual(f *excelize.File, styles reportStyles) error {
	sheet := SheetAnual
	titleCase := cases.Title(language.Spanish)
	totalCol, err := excelize.ColumnNumberToName(len(categoria.ReportCategories) + 3)
	if err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", totalCol, 14); err != nil {
		return err
	}

	if err := f.MergeCell(sheet, "B1", "B2"); err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, "B1", "Negocios y\nServicios"); err != nil {
		return err
	}
	for i, cat := range categoria.ReportCategories {
		cell, _ := excelize.CoordinatesToCellName(i+3, 2)
		if err := f.SetCellValue(sheet, cell, titleCase.String(cat)); err != nil {
			return err
		}
	}
	if err := f.SetCellValue(sheet, totalCol+"2", "Total"); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", totalCol+"2", styles.header); err != nil {
		return err
	}

	monto := quoteRange(comprobante.ColTotal)
	mes := quoteRange(comprobante.ColMes)
	detalle := quoteRange(comprobante.ColDetalle)
	memo := quoteRange(comprobante.ColMemo)

	for i, month := range comprobante.Months {
		row := firstMonthRow + i
		if err := f.SetCellValue(sheet, fmt.Sprintf("A%d", row), titleCase.String(month)); err != nil {
			return err
		}
		profesional := fmt.Sprintf(`SUMIFS(%s,%s,"%s",%s,"%s")`, monto, mes, month, memo, categoria.MemoProfesional)
		if err := f.SetCellFormula(sheet, fmt.Sprintf("B%d", row), profesional); err != nil {
			return err
		}
		for j, cat := range categoria.ReportCategories {
			cell, _ := excelize.CoordinatesToCellName(j+3, row)
			formula := fmt.Sprintf(`SUMIFS(%s,%s,"%s",%s,"%s")`, monto, mes, month, detalle, cat)
			if err := f.SetCellFormula(sheet, cell, formula); err != nil {
				return err
			}
		}
		lastCat, _ := excelize.ColumnNumberToName(len(categoria.ReportCategories) + 2)
		if err := f.SetCellFormula(sheet, fmt.Sprintf("%s%d", totalCol, row), fmt.Sprintf("SUM(B%d:%s%d)", row, lastCat, row)); err != nil {
			return err
		}

		style := styles.even
		if i%2 != 0 {
			style = styles.odd
		}
		if err := f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("%s%d", totalCol, row), style); err != nil {
			return err
		}
	}
	return nil
}

// quoteRange returns the absolute whole-column reference of a purchases
// sheet column, e.g. 'COMPRAS'!$P:$P for TOTAL.
func quoteRange(column string) string {
	for i, col := range comprobante.Columns(comprobante.TypeFactura) {
		if col == column {
			name, _ := excelize.ColumnNumberToName(i + 1)
			return fmt.Sprintf("'%s'!$%s:$%s", SheetCompras, name, name)
		}
	}
	return ""
}
