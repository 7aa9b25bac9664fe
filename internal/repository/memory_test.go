package repository

import (
	"context"
	"testing"

	"github.com/servicepack/restock-backend/internal/domain"
)

func TestMemoryStore_UpsertAndList(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.UpsertProducts(ctx, []domain.Product{
		{Code: "B2", Name: "Second"},
		{Code: "A1", Name: "First"},
	}); err != nil {
		t.Fatalf("UpsertProducts error: %v", err)
	}

	products, err := s.ListProducts(ctx)
	if err != nil {
		t.Fatalf("ListProducts error: %v", err)
	}
	if len(products) != 2 || products[0].Code != "A1" || products[1].Code != "B2" {
		t.Fatalf("listing not sorted by code: %+v", products)
	}

	created := products[0].CreatedAt
	if created.IsZero() {
		t.Fatal("CreatedAt not set on insert")
	}

	if err := s.UpsertProducts(ctx, []domain.Product{{Code: "A1", Name: "Renamed"}}); err != nil {
		t.Fatalf("UpsertProducts error: %v", err)
	}
	products, _ = s.ListProducts(ctx)
	if products[0].Name != "Renamed" {
		t.Fatalf("upsert did not replace: %+v", products[0])
	}
	if !products[0].CreatedAt.Equal(created) {
		t.Fatal("CreatedAt must survive upserts")
	}
}

func TestMemoryStore_ReplaceWindow(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.ReplaceWindow(ctx, "w1", []domain.StockMovement{
		{Code: "A1", Outflow: 3},
		{Code: "B2", Outflow: 1},
	}); err != nil {
		t.Fatalf("ReplaceWindow error: %v", err)
	}
	if err := s.ReplaceWindow(ctx, "w2", []domain.StockMovement{
		{Code: "A1", Outflow: 9},
	}); err != nil {
		t.Fatalf("ReplaceWindow error: %v", err)
	}

	movements, err := s.ListMovements(ctx)
	if err != nil {
		t.Fatalf("ListMovements error: %v", err)
	}
	if len(movements) != 3 {
		t.Fatalf("got %d movements, want 3", len(movements))
	}
	for _, m := range movements {
		if m.WindowTag == "" {
			t.Fatalf("window tag not stamped: %+v", m)
		}
	}

	// Re-importing a window replaces it wholesale.
	if err := s.ReplaceWindow(ctx, "w1", []domain.StockMovement{{Code: "C3", Outflow: 2}}); err != nil {
		t.Fatalf("ReplaceWindow error: %v", err)
	}
	movements, _ = s.ListMovements(ctx)
	if len(movements) != 2 {
		t.Fatalf("got %d movements after replace, want 2", len(movements))
	}
	for _, m := range movements {
		if m.WindowTag == "w1" && m.Code != "C3" {
			t.Fatalf("stale movement survived replace: %+v", m)
		}
	}
}
