package port

import (
	"context"

	"github.com/rl1809/products-api/internal/core/domain"
)

type ProductRepository interface {
	// List returns every product in the collection
	List(ctx context.Context) ([]domain.Product, error)

	// ListByCategory returns the products stored under one partition key
	ListByCategory(ctx context.Context, category string) ([]domain.Product, error)

	// Get reads a single product, domain.ErrNotFound if absent
	Get(ctx context.Context, id, category string) (domain.Product, error)

	// Create inserts a new product and returns it as stored
	Create(ctx context.Context, product domain.Product) (domain.Product, error)

	// Upsert creates or fully replaces a product and returns it as stored
	Upsert(ctx context.Context, product domain.Product) (domain.Product, error)

	// Delete removes a product, domain.ErrNotFound if absent
	Delete(ctx context.Context, id, category string) error

	// Ping checks the store is reachable
	Ping(ctx context.Context) error
}
