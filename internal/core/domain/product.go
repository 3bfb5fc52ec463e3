package domain

import (
	"slices"
	"strings"
	"time"
)

type Product struct {
	ID        string    `json:"id"`
	Category  string    `json:"category"`
	Name      string    `json:"name"`
	Quantity  int       `json:"quantity"`
	Price     float64   `json:"price"`
	Clearance bool      `json:"clearance"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewProductInput is the client-supplied shape for creating or replacing a
// product. It never carries an id.
type NewProductInput struct {
	Name      string  `json:"name"`
	Category  string  `json:"category"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
	Clearance bool    `json:"clearance"`
}

func (in NewProductInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Category) == "" {
		return &ValidationError{Message: "Name and category are required"}
	}
	if in.Quantity < 0 {
		return &ValidationError{Message: "Quantity must be a non-negative integer"}
	}
	if in.Price < 0 {
		return &ValidationError{Message: "Price must be a non-negative number"}
	}
	return nil
}

// Product builds the stored record for id. UpdatedAt is left for the data
// access layer to stamp.
func (in NewProductInput) Product(id string) Product {
	return Product{
		ID:        id,
		Category:  in.Category,
		Name:      in.Name,
		Quantity:  in.Quantity,
		Price:     in.Price,
		Clearance: in.Clearance,
	}
}

// SortNewestFirst orders products by UpdatedAt, most recent write first.
func SortNewestFirst(products []Product) {
	slices.SortStableFunc(products, func(a, b Product) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
}
