package testutil

import (
	"context"

	"3tcapital/ms_comprobantes_sri/internal/core/categoria"
	"3tcapital/ms_comprobantes_sri/internal/core/comprobante"
)

// MockFetcher is a mock implementation of comprobante.Fetcher for testing.
type MockFetcher struct {
	FetchFunc func(ctx context.Context, claveAcceso string) ([]byte, error)
}

// Fetch calls the mock function if set, otherwise returns an empty body.
func (m *MockFetcher) Fetch(ctx context.Context, claveAcceso string) ([]byte, error) {
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, claveAcceso)
	}
	return nil, nil
}

// MockLookup is a fixed category lookup keyed by normalized emitter name.
type MockLookup map[string]categoria.Category

// Lookup returns the category stored under the normalized name.
func (m MockLookup) Lookup(nombre string) (categoria.Category, bool) {
	c, ok := m[categoria.NormalizeName(nombre)]
	return c, ok
}

// Snapshot returns the lookup itself, which never changes.
func (m MockLookup) Snapshot() comprobante.CategoryLookup {
	return m
}

// MockCategoryRepository is a mock implementation of categoria.Repository.
type MockCategoryRepository struct {
	LoadFunc func(ctx context.Context) (map[string]categoria.Category, error)
	SaveFunc func(ctx context.Context, entries map[string]categoria.Category) error
}

// Load calls the mock function if set, otherwise returns an empty memory.
func (m *MockCategoryRepository) Load(ctx context.Context) (map[string]categoria.Category, error) {
	if m.LoadFunc != nil {
		return m.LoadFunc(ctx)
	}
	return map[string]categoria.Category{}, nil
}

// Save calls the mock function if set, otherwise succeeds.
func (m *MockCategoryRepository) Save(ctx context.Context, entries map[string]categoria.Category) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, entries)
	}
	return nil
}

// Ensure the mocks implement the domain ports.
var (
	_ comprobante.Fetcher        = (*MockFetcher)(nil)
	_ comprobante.CategoryLookup = MockLookup(nil)
	_ categoria.Repository       = (*MockCategoryRepository)(nil)
)
