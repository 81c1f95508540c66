package categoria

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"3tcapital/ms_comprobantes_sri/internal/core/categoria"
	"3tcapital/ms_comprobantes_sri/internal/core/comprobante"
)

// Memoria is the learned emitter → category memory. It is safe for
// concurrent use; batches read an immutable Snapshot.
type Memoria struct {
	mu      sync.RWMutex
	entries map[string]categoria.Category
	repo    categoria.Repository // Optional: nil keeps the memory in process only
}

// NewMemoria creates an empty memory backed by repo.
func NewMemoria(repo categoria.Repository) *Memoria {
	return &Memoria{
		entries: make(map[string]categoria.Category),
		repo:    repo,
	}
}

// Lookup returns the learned category of nombre.
func (m *Memoria) Lookup(nombre string) (categoria.Category, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.entries[categoria.NormalizeName(nombre)]
	return c, ok
}

// Snapshot returns a copy of the memory that later Learn calls do not affect.
func (m *Memoria) Snapshot() comprobante.CategoryLookup {
	return snapshot(m.Entries())
}

// Entries returns a copy of every learned emitter.
func (m *Memoria) Entries() map[string]categoria.Category {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]categoria.Category, len(m.entries))
	for k, v := range m.entries {
		out[k] = v
	}
	return out
}

// Len returns the number of learned emitters.
func (m *Memoria) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Learn upserts master-sheet rows and returns how many were learned. Rows
// without a name are skipped; missing labels take the defaults.
func (m *Memoria) Learn(rows []categoria.Row) int {
	def := categoria.Default()

	m.mu.Lock()
	defer m.mu.Unlock()

	learned := 0
	for _, row := range rows {
		nombre := categoria.NormalizeName(row.Nombre)
		if nombre == "" || nombre == "NAN" {
			continue
		}
		m.entries[nombre] = categoria.Category{
			Detalle: label(row.Detalle, def.Detalle),
			Memo:    label(row.Memo, def.Memo),
		}
		learned++
	}
	return learned
}

// Load replaces the memory with the repository contents.
func (m *Memoria) Load(ctx context.Context) error {
	if m.repo == nil {
		return nil
	}
	entries, err := m.repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("error al cargar la memoria contable: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]categoria.Category, len(entries))
	for k, v := range entries {
		m.entries[categoria.NormalizeName(k)] = v
	}
	return nil
}

// Persist saves the whole memory through the repository. Without a
// repository it is a no-op.
func (m *Memoria) Persist(ctx context.Context) error {
	if m.repo == nil {
		return nil
	}
	if err := m.repo.Save(ctx, m.Entries()); err != nil {
		return fmt.Errorf("error al guardar la memoria contable: %w", err)
	}
	return nil
}

func label(value, fallback string) string {
	v := strings.ToUpper(strings.TrimSpace(value))
	if v == "" || v == "NAN" {
		return fallback
	}
	return v
}

type snapshot map[string]categoria.Category

func (s snapshot) Lookup(nombre string) (categoria.Category, bool) {
	c, ok := s[categoria.NormalizeName(nombre)]
	return c, ok
}
