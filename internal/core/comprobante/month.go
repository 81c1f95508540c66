package comprobante

import "strings"

// MonthUnknown is returned when the emission date carries no valid month.
const MonthUnknown = "DESCONOCIDO"

var monthNames = map[string]string{
	"01": "ENERO",
	"02": "FEBRERO",
	"03": "MARZO",
	"04": "ABRIL",
	"05": "MAYO",
	"06": "JUNIO",
	"07": "JULIO",
	"08": "AGOSTO",
	"09": "SEPTIEMBRE",
	"10": "OCTUBRE",
	"11": "NOVIEMBRE",
	"12": "DICIEMBRE",
}

// Months lists the Spanish month names in calendar order.
var Months = []string{
	"ENERO", "FEBRERO", "MARZO", "ABRIL", "MAYO", "JUNIO",
	"JULIO", "AGOSTO", "SEPTIEMBRE", "OCTUBRE", "NOVIEMBRE", "DICIEMBRE",
}

// MonthName maps a DD/MM/YYYY emission date to its Spanish month name.
func MonthName(fecha string) string {
	parts := strings.Split(strings.TrimSpace(fecha), "/")
	if len(parts) < 2 {
		return MonthUnknown
	}
	if name, ok := monthNames[strings.TrimSpace(parts[1])]; ok {
		return name
	}
	return MonthUnknown
}
