package excel

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"3tcapital/ms_comprobantes_sri/internal/core/categoria"
)

// ErrMaestroSinNombre is returned when the master sheet has no NOMBRE column.
var ErrMaestroSinNombre = errors.New("el Excel maestro no tiene la columna NOMBRE")

// ReadMaestro reads the emitter classification rows from the first sheet of
// a master workbook. Header names are matched case-insensitively; DETALLE
// and MEMO are optional.
func ReadMaestro(r io.Reader) ([]categoria.Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open master workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("el Excel maestro no tiene hojas")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, ErrMaestroSinNombre
	}

	index := map[string]int{}
	for i, h := range rows[0] {
		index[strings.ToUpper(strings.TrimSpace(h))] = i
	}
	nombreCol, ok := index["NOMBRE"]
	if !ok {
		return nil, ErrMaestroSinNombre
	}

	out := make([]categoria.Row, 0, len(rows)-1)
	for _, row := range rows[1:] {
		out = append(out, categoria.Row{
			Nombre:  cellAt(row, nombreCol, true),
			Detalle: cellAt(row, index["DETALLE"], hasColumn(index, "DETALLE")),
			Memo:    cellAt(row, index["MEMO"], hasColumn(index, "MEMO")),
		})
	}
	return out, nil
}

func hasColumn(index map[string]int, name string) bool {
	_, ok := index[name]
	return ok
}

func cellAt(row []string, i int, present bool) string {
	if !present || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
