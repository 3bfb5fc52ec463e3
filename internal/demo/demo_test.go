package demo

import (
	"context"
	"strings"
	"testing"

	"github.com/rl1809/products-api/internal/adapter/storage"
	"github.com/rl1809/products-api/internal/core/service"
)

func TestRun(t *testing.T) {
	svc := service.NewProductService(storage.NewMemoryAdapter())

	var lines []string
	if err := Run(context.Background(), svc, func(l string) { lines = append(lines, l) }); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(lines) != 8 {
		t.Fatalf("expected 8 lines, got %d: %q", len(lines), lines)
	}
	if lines[0] != "Current Status:\tStarting demo..." || lines[len(lines)-1] != "Current Status:\tDemo complete!" {
		t.Errorf("unexpected framing: %q", lines)
	}
	if lines[3] != "Read item id:\t"+Yamba.ID {
		t.Errorf("unexpected read line %q", lines[3])
	}
	// Kiama was written last, so it lists first.
	if !strings.HasPrefix(lines[5], "Found item:\tKiama Classic Surfboard") || !strings.HasPrefix(lines[6], "Found item:\tYamba Surfboard") {
		t.Errorf("unexpected query lines %q", lines[5:7])
	}
}

func TestRun_Rerunnable(t *testing.T) {
	svc := service.NewProductService(storage.NewMemoryAdapter())
	for i := 0; i < 2; i++ {
		if err := Run(context.Background(), svc, func(string) {}); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}
	all, err := svc.ListAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Errorf("upserts must not duplicate, got %d products", len(all))
	}
}
