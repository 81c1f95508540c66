package categoria

import (
	"context"
	"strings"
)

// Default accounting labels.
const (
	DetalleOtros       = "OTROS"
	DetalleNoDeducible = "NO DEDUCIBLE"
	MemoProfesional    = "PROFESIONAL"
	MemoPersonal       = "PERSONAL"
)

// ReportCategories are the personal-expense categories summarised in the
// annual report, in column order.
var ReportCategories = []string{
	"VIVIENDA",
	"SALUD",
	"EDUCACION",
	"ALIMENTACION",
	"VESTIMENTA",
	"TURISMO",
	DetalleNoDeducible,
	"SERVICIOS BASICOS",
}

// Category is the learned classification of an emitter.
type Category struct {
	Detalle string `json:"DETALLE" yaml:"DETALLE"`
	Memo    string `json:"MEMO" yaml:"MEMO"`
}

// Default is used for emitters with no learned category.
func Default() Category {
	return Category{Detalle: DetalleOtros, Memo: MemoProfesional}
}

// Row is one line of the master spreadsheet used to teach categories.
type Row struct {
	Nombre  string
	Detalle string
	Memo    string
}

// NormalizeName is the key form of an emitter name.
func NormalizeName(nombre string) string {
	return strings.ToUpper(strings.TrimSpace(nombre))
}

// Repository persists the learned emitter memory.
type Repository interface {
	// Load returns every learned emitter keyed by normalized name.
	Load(ctx context.Context) (map[string]Category, error)

	// Save stores the given entries, replacing existing ones with the same name.
	Save(ctx context.Context, entries map[string]Category) error
}
