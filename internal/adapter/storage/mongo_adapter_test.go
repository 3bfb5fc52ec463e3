package storage

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/rl1809/products-api/internal/core/domain"
)

func getMongoAdapter(t *testing.T) *MongoAdapter {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}

	a := NewMongoAdapter(uri, "products_test", "products")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.Ping(ctx); err != nil {
		t.Skipf("MongoDB not available: %v", err)
	}
	t.Cleanup(func() { a.Close(context.Background()) })
	return a
}

func TestMongoAdapter_CRUD(t *testing.T) {
	a := getMongoAdapter(t)
	ctx := context.Background()
	category := "mongo-test-" + uuid.NewString()

	older := domain.Product{
		ID: uuid.NewString(), Category: category, Name: "Yamba", Quantity: 12, Price: 850,
		UpdatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	newer := domain.Product{
		ID: uuid.NewString(), Category: category, Name: "Kiama", Quantity: 25, Price: 790, Clearance: true,
		UpdatedAt: older.UpdatedAt.Add(time.Millisecond),
	}

	if _, err := a.Create(ctx, older); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := a.Create(ctx, newer); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := a.Create(ctx, older); !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}

	got, err := a.ListByCategory(ctx, category)
	if err != nil {
		t.Fatalf("ListByCategory failed: %v", err)
	}
	if len(got) != 2 || got[0].ID != newer.ID {
		t.Fatalf("expected newest first, got %+v", got)
	}

	older.Price = 700
	older.UpdatedAt = newer.UpdatedAt.Add(time.Millisecond)
	if _, err := a.Upsert(ctx, older); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	read, err := a.Get(ctx, older.ID, category)
	if err != nil || read.Price != 700 {
		t.Fatalf("Get after upsert: %+v %v", read, err)
	}

	for _, p := range []domain.Product{older, newer} {
		if err := a.Delete(ctx, p.ID, category); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
	}
	if err := a.Delete(ctx, older.ID, category); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := a.Get(ctx, older.ID, category); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMongoDoc_KeyIncludesCategory(t *testing.T) {
	p := domain.Product{ID: "abc", Category: "gear/surf", Name: "Board", UpdatedAt: time.Now().UTC().Truncate(time.Millisecond)}

	raw, err := bson.Marshal(toDoc(p))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	key := bson.Raw(raw).Lookup("_id").Document()
	if got := key.Lookup("category").StringValue(); got != "gear/surf" {
		t.Errorf("expected category in _id, got %q", got)
	}
	if got := key.Lookup("id").StringValue(); got != "abc" {
		t.Errorf("expected id in _id, got %q", got)
	}

	var back productDoc
	if err := bson.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got := back.product(); got.ID != p.ID || got.Category != p.Category || !got.UpdatedAt.Equal(p.UpdatedAt) {
		t.Errorf("unexpected product %+v", got)
	}

	filter, err := bson.Marshal(pointFilter("abc", "gear/surf"))
	if err != nil {
		t.Fatalf("marshal filter: %v", err)
	}
	if !bytes.Equal(bson.Raw(filter).Lookup("_id").Value, bson.Raw(raw).Lookup("_id").Value) {
		t.Error("point filter must match the stored _id exactly")
	}
}

func TestMongoAdapter_SameIDAcrossCategories(t *testing.T) {
	a := getMongoAdapter(t)
	ctx := context.Background()

	id := uuid.NewString()
	from := "mongo-test-" + uuid.NewString()
	to := "mongo-test-" + uuid.NewString()
	now := time.Now().UTC().Truncate(time.Millisecond)

	if _, err := a.Create(ctx, domain.Product{ID: id, Category: from, Name: "Board", UpdatedAt: now}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	moved := domain.Product{ID: id, Category: to, Name: "Board", UpdatedAt: now.Add(time.Millisecond)}
	if _, err := a.Upsert(ctx, moved); err != nil {
		t.Fatalf("Upsert into another category failed: %v", err)
	}

	for _, category := range []string{from, to} {
		if _, err := a.Get(ctx, id, category); err != nil {
			t.Errorf("Get %s: %v", category, err)
		}
		if err := a.Delete(ctx, id, category); err != nil {
			t.Errorf("Delete %s: %v", category, err)
		}
	}
}
