package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rl1809/products-api/internal/core/domain"
)

// Mock ProductRepository
type mockProductRepo struct {
	mu       sync.Mutex
	products map[string]domain.Product
	err      error
}

func newMockProductRepo() *mockProductRepo {
	return &mockProductRepo{products: make(map[string]domain.Product)}
}

func (m *mockProductRepo) List(ctx context.Context) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.Product
	for _, p := range m.products {
		out = append(out, p)
	}
	return out, nil
}

func (m *mockProductRepo) ListByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	all, err := m.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []domain.Product
	for _, p := range all {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockProductRepo) Get(ctx context.Context, id, category string) (domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[category+"/"+id]
	if !ok {
		return domain.Product{}, domain.ErrNotFound
	}
	return p, nil
}

func (m *mockProductRepo) Create(ctx context.Context, p domain.Product) (domain.Product, error) {
	return m.Upsert(ctx, p)
}

func (m *mockProductRepo) Upsert(ctx context.Context, p domain.Product) (domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return domain.Product{}, m.err
	}
	m.products[p.Category+"/"+p.ID] = p
	return p, nil
}

func (m *mockProductRepo) Delete(ctx context.Context, id, category string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := category + "/" + id
	if _, ok := m.products[key]; !ok {
		return domain.ErrNotFound
	}
	delete(m.products, key)
	return nil
}

func (m *mockProductRepo) Ping(ctx context.Context) error {
	return m.err
}

func TestCreate_AssignsIDAndTimestamp(t *testing.T) {
	repo := newMockProductRepo()
	svc := NewProductService(repo)

	in := domain.NewProductInput{Name: "Board", Category: "surf", Quantity: 5, Price: 100}
	p, err := svc.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if p.ID == "" {
		t.Error("expected generated id")
	}
	if p.UpdatedAt.IsZero() {
		t.Error("expected write timestamp")
	}
	if p.Name != "Board" || p.Category != "surf" || p.Quantity != 5 || p.Price != 100 || p.Clearance {
		t.Errorf("unexpected product: %+v", p)
	}
}

func TestCreate_UniqueIDs(t *testing.T) {
	svc := NewProductService(newMockProductRepo())
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		p, err := svc.Create(ctx, domain.NewProductInput{Name: "n", Category: "c"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if seen[p.ID] {
			t.Fatalf("duplicate id %s", p.ID)
		}
		seen[p.ID] = true
	}
}

func TestCreateThenGetByCategory(t *testing.T) {
	svc := NewProductService(newMockProductRepo())
	ctx := context.Background()

	in := domain.NewProductInput{Name: "Kiama", Category: "boards", Quantity: 25, Price: 790, Clearance: true}
	created, err := svc.Create(ctx, in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := svc.GetByCategory(ctx, "boards")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != created.ID || got[0].Clearance != true || got[0].Quantity != 25 {
		t.Fatalf("unexpected listing: %+v", got)
	}

	if err := svc.Delete(ctx, created.ID, created.Category); err != nil {
		t.Fatalf("unexpected delete error: %v", err)
	}
	got, err = svc.GetByCategory(ctx, "boards")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}
}

func TestListAll_NewestFirst(t *testing.T) {
	// A frozen clock still yields strictly increasing stamps.
	frozen := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := NewProductService(newMockProductRepo(), WithClock(func() time.Time { return frozen }))
	ctx := context.Background()

	first, _ := svc.Create(ctx, domain.NewProductInput{Name: "first", Category: "a"})
	second, _ := svc.Create(ctx, domain.NewProductInput{Name: "second", Category: "b"})

	if !second.UpdatedAt.After(first.UpdatedAt) {
		t.Fatalf("expected increasing stamps, got %v then %v", first.UpdatedAt, second.UpdatedAt)
	}

	all, err := svc.ListAll(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 2 || all[0].ID != second.ID || all[1].ID != first.ID {
		t.Fatalf("expected newest first, got %+v", all)
	}

	// Updating the older record moves it to the front.
	first.Price = 42
	if _, err := svc.Update(ctx, first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	all, _ = svc.ListAll(ctx)
	if all[0].ID != first.ID || all[0].Price != 42 {
		t.Errorf("expected updated record first, got %+v", all[0])
	}
}

func TestUpdate_CreatesWhenAbsent(t *testing.T) {
	repo := newMockProductRepo()
	svc := NewProductService(repo)

	p := domain.Product{ID: "fixed-id", Category: "gear", Name: "Yamba", Quantity: 12, Price: 850}
	stored, err := svc.Update(context.Background(), p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.ID != "fixed-id" {
		t.Errorf("expected id preserved, got %s", stored.ID)
	}
	if len(repo.products) != 1 {
		t.Errorf("expected 1 stored product, got %d", len(repo.products))
	}
}

func TestDelete_NotFound(t *testing.T) {
	svc := NewProductService(newMockProductRepo())

	err := svc.Delete(context.Background(), "missing", "none")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	var storeErr *domain.StoreError
	if !errors.As(err, &storeErr) || storeErr.Op != "delete" {
		t.Errorf("expected StoreError for delete, got %T %v", err, err)
	}
}

func TestStoreErrorPropagation(t *testing.T) {
	repo := newMockProductRepo()
	repo.err = errors.New("throttled")
	svc := NewProductService(repo)
	ctx := context.Background()

	if _, err := svc.ListAll(ctx); err == nil || err.Error() != "throttled" {
		t.Errorf("expected throttled from ListAll, got %v", err)
	}
	if _, err := svc.Create(ctx, domain.NewProductInput{Name: "n", Category: "c"}); err == nil {
		t.Error("expected error from Create")
	}
	if _, err := svc.GetByCategory(ctx, "c"); err == nil {
		t.Error("expected error from GetByCategory")
	}
	if err := svc.Ping(ctx); err == nil {
		t.Error("expected error from Ping")
	}
}

func TestCreate_CustomIDGenerator(t *testing.T) {
	svc := NewProductService(newMockProductRepo(), WithIDGenerator(func() string { return "id-1" }))

	p, err := svc.Create(context.Background(), domain.NewProductInput{Name: "n", Category: "c"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID != "id-1" {
		t.Errorf("expected id-1, got %s", p.ID)
	}
}

func TestConcurrentCreates_DistinctTimestamps(t *testing.T) {
	frozen := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	svc := NewProductService(newMockProductRepo(), WithClock(func() time.Time { return frozen }))

	const n = 100
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		stamps = make(map[time.Time]bool)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := svc.Create(context.Background(), domain.NewProductInput{Name: "n", Category: "c"})
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			mu.Lock()
			stamps[p.UpdatedAt] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(stamps) != n {
		t.Errorf("expected %d distinct timestamps, got %d", n, len(stamps))
	}
}
