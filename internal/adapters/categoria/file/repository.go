package file

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"3tcapital/ms_comprobantes_sri/internal/core/categoria"
)

// document is the on-disk layout shared by the JSON and YAML formats.
type document struct {
	Empresas map[string]categoria.Category `json:"empresas" yaml:"empresas"`
}

// Repository stores the learned memory in a single JSON or YAML file. The
// format follows the file extension; anything other than .yaml/.yml is JSON.
type Repository struct {
	path string
}

// NewRepository creates a file-backed category repository.
func NewRepository(path string) categoria.Repository {
	return &Repository{path: path}
}

// Load reads the file. A missing file is an empty memory.
func (r *Repository) Load(ctx context.Context) (map[string]categoria.Category, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]categoria.Category{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", r.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return map[string]categoria.Category{}, nil
	}

	var doc document
	if r.isYAML() {
		err = yaml.Unmarshal(data, &doc)
	} else {
		err = json.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", r.path, err)
	}
	if doc.Empresas == nil {
		doc.Empresas = map[string]categoria.Category{}
	}
	return doc.Empresas, nil
}

// Save merges entries into the stored memory and rewrites the file
// atomically (temporary file + rename).
func (r *Repository) Save(ctx context.Context, entries map[string]categoria.Category) error {
	current, err := r.Load(ctx)
	if err != nil {
		return err
	}
	for nombre, c := range entries {
		current[nombre] = c
	}

	data, err := r.encode(document{Empresas: current})
	if err != nil {
		return fmt.Errorf("encode %s: %w", r.path, err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("replace %s: %w", r.path, err)
	}
	return nil
}

func (r *Repository) encode(doc document) ([]byte, error) {
	if r.isYAML() {
		return yaml.Marshal(doc)
	}
	return json.MarshalIndent(doc, "", "    ")
}

func (r *Repository) isYAML() bool {
	ext := strings.ToLower(filepath.Ext(r.path))
	return ext == ".yaml" || ext == ".yml"
}
