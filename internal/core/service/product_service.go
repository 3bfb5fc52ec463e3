package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rl1809/products-api/internal/core/domain"
	"github.com/rl1809/products-api/internal/port"
)

// ProductService is the typed data access seam over a ProductRepository.
// It assigns ids and write timestamps and keeps listings newest-first; it
// does not validate input.
type ProductService struct {
	repo  port.ProductRepository
	newID func() string
	now   func() time.Time

	mu        sync.Mutex
	lastStamp time.Time
}

type Option func(*ProductService)

func WithClock(now func() time.Time) Option {
	return func(s *ProductService) { s.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *ProductService) { s.newID = newID }
}

func NewProductService(repo port.ProductRepository, opts ...Option) *ProductService {
	s := &ProductService{
		repo:  repo,
		newID: uuid.NewString,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *ProductService) ListAll(ctx context.Context) ([]domain.Product, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, &domain.StoreError{Op: "list", Err: err}
	}
	domain.SortNewestFirst(products)
	return nonNil(products), nil
}

func (s *ProductService) Create(ctx context.Context, in domain.NewProductInput) (domain.Product, error) {
	product := in.Product(s.newID())
	product.UpdatedAt = s.stamp()

	stored, err := s.repo.Create(ctx, product)
	if err != nil {
		return domain.Product{}, &domain.StoreError{Op: "create", Err: err}
	}
	return stored, nil
}

func (s *ProductService) GetByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	products, err := s.repo.ListByCategory(ctx, category)
	if err != nil {
		return nil, &domain.StoreError{Op: "list by category", Err: err}
	}
	domain.SortNewestFirst(products)
	return nonNil(products), nil
}

func (s *ProductService) Get(ctx context.Context, id, category string) (domain.Product, error) {
	product, err := s.repo.Get(ctx, id, category)
	if err != nil {
		return domain.Product{}, &domain.StoreError{Op: "get", Err: err}
	}
	return product, nil
}

// Update fully replaces product, creating it when no record with the same
// id and category exists.
func (s *ProductService) Update(ctx context.Context, product domain.Product) (domain.Product, error) {
	product.UpdatedAt = s.stamp()

	stored, err := s.repo.Upsert(ctx, product)
	if err != nil {
		return domain.Product{}, &domain.StoreError{Op: "update", Err: err}
	}
	return stored, nil
}

func (s *ProductService) Delete(ctx context.Context, id, category string) error {
	if err := s.repo.Delete(ctx, id, category); err != nil {
		return &domain.StoreError{Op: "delete", Err: err}
	}
	return nil
}

func (s *ProductService) Ping(ctx context.Context) error {
	if err := s.repo.Ping(ctx); err != nil {
		return &domain.StoreError{Op: "ping", Err: err}
	}
	return nil
}

// stamp returns a UTC write timestamp, truncated to the millisecond every
// backend can hold, strictly later than the previous one handed out by this
// service.
func (s *ProductService) stamp() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := s.now().UTC().Truncate(time.Millisecond)
	if !ts.After(s.lastStamp) {
		ts = s.lastStamp.Add(time.Millisecond)
	}
	s.lastStamp = ts
	return ts
}

func nonNil(products []domain.Product) []domain.Product {
	if products == nil {
		return []domain.Product{}
	}
	return products
}
