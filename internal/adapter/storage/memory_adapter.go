package storage

import (
	"context"
	"sync"

	"github.com/rl1809/products-api/internal/core/domain"
)

type MemoryAdapter struct {
	mu       sync.RWMutex
	products map[memoryKey]domain.Product
}

type memoryKey struct {
	category string
	id       string
}

func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{products: make(map[memoryKey]domain.Product)}
}

func (m *MemoryAdapter) List(ctx context.Context) ([]domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, p)
	}
	return out, nil
}

func (m *MemoryAdapter) ListByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []domain.Product{}
	for k, p := range m.products {
		if k.category == category {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *MemoryAdapter) Get(ctx context.Context, id, category string) (domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.products[memoryKey{category, id}]
	if !ok {
		return domain.Product{}, domain.ErrNotFound
	}
	return p, nil
}

func (m *MemoryAdapter) Create(ctx context.Context, product domain.Product) (domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := memoryKey{product.Category, product.ID}
	if _, exists := m.products[key]; exists {
		return domain.Product{}, ErrConflict
	}
	m.products[key] = product
	return product, nil
}

func (m *MemoryAdapter) Upsert(ctx context.Context, product domain.Product) (domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.products[memoryKey{product.Category, product.ID}] = product
	return product, nil
}

func (m *MemoryAdapter) Delete(ctx context.Context, id, category string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := memoryKey{category, id}
	if _, ok := m.products[key]; !ok {
		return domain.ErrNotFound
	}
	delete(m.products, key)
	return nil
}

func (m *MemoryAdapter) Ping(ctx context.Context) error {
	return nil
}
