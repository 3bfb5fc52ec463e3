// Package demo runs a short scripted walkthrough against the product store:
// two upserts, a point read and a category query.
package demo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rl1809/products-api/internal/core/domain"
	"github.com/rl1809/products-api/internal/core/service"
)

// Emit receives one human-readable line per step.
type Emit func(line string)

const SurfboardCategory = "gear-surf-surfboards"

var (
	Yamba = domain.Product{
		ID:       "aaaaaaaa-0000-1111-2222-bbbbbbbbbbbb",
		Category: SurfboardCategory,
		Name:     "Yamba Surfboard",
		Quantity: 12,
		Price:    850.0,
	}
	Kiama = domain.Product{
		ID:        "bbbbbbbb-1111-2222-3333-cccccccccccc",
		Category:  SurfboardCategory,
		Name:      "Kiama Classic Surfboard",
		Quantity:  25,
		Price:     790.0,
		Clearance: true,
	}
)

func Run(ctx context.Context, products *service.ProductService, emit Emit) error {
	emit("Current Status:\tStarting demo...")

	for _, p := range []domain.Product{Yamba, Kiama} {
		stored, err := products.Update(ctx, p)
		if err != nil {
			return fmt.Errorf("upsert %s: %w", p.ID, err)
		}
		emit("Upserted item:\t" + asJSON(stored))
	}

	read, err := products.Get(ctx, Yamba.ID, Yamba.Category)
	if err != nil {
		return fmt.Errorf("read %s: %w", Yamba.ID, err)
	}
	emit("Read item id:\t" + read.ID)
	emit("Read item:\t" + asJSON(read))

	found, err := products.GetByCategory(ctx, SurfboardCategory)
	if err != nil {
		return fmt.Errorf("query %s: %w", SurfboardCategory, err)
	}
	for _, p := range found {
		emit(fmt.Sprintf("Found item:\t%s\t%s", p.Name, p.ID))
	}

	emit("Current Status:\tDemo complete!")
	return nil
}

func asJSON(p domain.Product) string {
	b, err := json.Marshal(p)
	if err != nil {
		return fmt.Sprintf("%+v", p)
	}
	return string(b)
}
