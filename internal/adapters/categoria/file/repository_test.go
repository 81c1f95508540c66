package file

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"3tcapital/ms_comprobantes_sri/internal/core/categoria"
)

func TestRepository_LoadMissingFile(t *testing.T) {
	repo := NewRepository(filepath.Join(t.TempDir(), "conocimiento_contable.json"))

	entries, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected empty memory, got %d entries", len(entries))
	}
}

func TestRepository_LoadLegacyJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conocimiento_contable.json")
	content := `{
    "empresas": {
        "FARMACIAS CRUZ AZUL": {"DETALLE": "SALUD", "MEMO": "PERSONAL"}
    }
}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	entries, err := NewRepository(path).Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, ok := entries["FARMACIAS CRUZ AZUL"]
	if !ok {
		t.Fatal("expected FARMACIAS CRUZ AZUL to be loaded")
	}
	if got.Detalle != "SALUD" || got.Memo != "PERSONAL" {
		t.Errorf("unexpected category: %+v", got)
	}
}

func TestRepository_SaveMergesAndRoundTrips(t *testing.T) {
	tests := []struct {
		name string
		file string
		want string
	}{
		{name: "json", file: "memoria.json", want: `"empresas"`},
		{name: "yaml", file: "memoria.yaml", want: "empresas:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			path := filepath.Join(t.TempDir(), tt.file)
			repo := NewRepository(path)

			if err := repo.Save(ctx, map[string]categoria.Category{
				"CNEL EP": {Detalle: "SERVICIOS BASICOS", Memo: "PERSONAL"},
			}); err != nil {
				t.Fatalf("first save: %v", err)
			}
			if err := repo.Save(ctx, map[string]categoria.Category{
				"KFC": {Detalle: "ALIMENTACION", Memo: "PERSONAL"},
			}); err != nil {
				t.Fatalf("second save: %v", err)
			}

			raw, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("read file: %v", err)
			}
			if !strings.Contains(string(raw), tt.want) {
				t.Errorf("expected %s in file, got:\n%s", tt.want, raw)
			}

			entries, err := repo.Load(ctx)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if len(entries) != 2 {
				t.Fatalf("expected 2 entries, got %d", len(entries))
			}
			if entries["CNEL EP"].Detalle != "SERVICIOS BASICOS" {
				t.Errorf("unexpected CNEL EP entry: %+v", entries["CNEL EP"])
			}
			if entries["KFC"].Memo != "PERSONAL" {
				t.Errorf("unexpected KFC entry: %+v", entries["KFC"])
			}
		})
	}
}
