package service

import (
	"context"
	"errors"
	"testing"

	"github.com/servicepack/restock-backend/internal/domain"
	"github.com/servicepack/restock-backend/internal/recommend"
	"github.com/servicepack/restock-backend/internal/repository"
)

const (
	recentTag = "recent-30d"
	totalTag  = "full-period"
)

func catalogRows() [][]string {
	return [][]string{
		{"Cod", "Denumire", "Pret achizitie", "Grup"},
		{"A1", "Widget Albastru", "10.00", ""},
		{"B2", "Widget Albastru", "9.00", ""},
		{"C3", "Gadget", "4.00", "A1"},
	}
}

func movementRows(inflow, outflow, closing string) [][]string {
	return [][]string{
		{"Fisa de magazie"},
		{"Produs", "Cod", "UM", "Stoc initial", "Intrari", "Iesiri", "Stoc final"},
		{"Widget Albastru", "A1", "buc", "5", inflow, outflow, closing},
		{"Necatalogat", "X5", "buc", "0", "0", "2", "0"},
	}
}

func newTestService(t *testing.T) (*RestockService, *repository.MemoryStore) {
	t.Helper()
	store := repository.NewMemoryStore()
	return NewRestockService(store, recentTag, totalTag), store
}

func TestImportCatalog(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	result, err := svc.ImportCatalog(ctx, catalogRows())
	if err != nil {
		t.Fatalf("ImportCatalog error: %v", err)
	}
	if result.RowsImported != 3 {
		t.Fatalf("RowsImported = %d, want 3", result.RowsImported)
	}

	products, _ := store.ListProducts(ctx)
	if len(products) != 3 {
		t.Fatalf("store holds %d products, want 3", len(products))
	}
}

func TestImportMovements_ReportsNewCodes(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.ImportCatalog(ctx, catalogRows()); err != nil {
		t.Fatalf("ImportCatalog error: %v", err)
	}

	result, err := svc.ImportMovements(ctx, movementRows("1", "10", "3"), recentTag)
	if err != nil {
		t.Fatalf("ImportMovements error: %v", err)
	}
	if len(result.NewCodes) != 1 || result.NewCodes[0] != "X5" {
		t.Fatalf("NewCodes = %v, want [X5]", result.NewCodes)
	}
	if result.WindowTag != recentTag {
		t.Fatalf("WindowTag = %q", result.WindowTag)
	}
}

func TestRecommend_RequiresBothWindows(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.ImportCatalog(ctx, catalogRows()); err != nil {
		t.Fatalf("ImportCatalog error: %v", err)
	}
	if _, err := svc.ImportMovements(ctx, movementRows("1", "10", "3"), recentTag); err != nil {
		t.Fatalf("ImportMovements error: %v", err)
	}

	if _, err := svc.Recommend(ctx, recommend.Coefficients{}); !errors.Is(err, domain.ErrWindowMissing) {
		t.Fatalf("expected ErrWindowMissing, got %v", err)
	}
}

func TestRecommend_EndToEnd(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	if _, err := svc.ImportCatalog(ctx, catalogRows()); err != nil {
		t.Fatalf("ImportCatalog error: %v", err)
	}
	if _, err := svc.ImportMovements(ctx, movementRows("1", "10", "3"), recentTag); err != nil {
		t.Fatalf("ImportMovements error: %v", err)
	}
	if _, err := svc.ImportMovements(ctx, movementRows("5", "40", "3"), totalTag); err != nil {
		t.Fatalf("ImportMovements error: %v", err)
	}

	recs, err := svc.Recommend(ctx, recommend.Coefficients{})
	if err != nil {
		t.Fatalf("Recommend error: %v", err)
	}

	var a1 *domain.Recommendation
	for i := range recs {
		if recs[i].GroupKey == "A1" {
			a1 = &recs[i]
		}
	}
	if a1 == nil {
		t.Fatalf("no recommendation for group A1: %+v", recs)
	}

	// A1 carries the movements, B2 joins by shared name, C3 by explicit key.
	if len(a1.MemberCodes) != 3 {
		t.Fatalf("MemberCodes = %v, want A1, B2 and C3", a1.MemberCodes)
	}
	// 10*1.5 + 40*0.2 - 3 = 20.
	if a1.ReorderQty != 20 {
		t.Fatalf("ReorderQty = %d, want 20", a1.ReorderQty)
	}
	if a1.CheapestMemberCode != "C3" {
		t.Fatalf("CheapestMemberCode = %q, want C3", a1.CheapestMemberCode)
	}

	// The dangling movement code is synthesized and persisted with its own
	// code as the group key.
	products, _ := store.ListProducts(ctx)
	var x5, b2 *domain.Product
	for i := range products {
		switch products[i].Code {
		case "X5":
			x5 = &products[i]
		case "B2":
			b2 = &products[i]
		}
	}
	if x5 == nil || x5.GroupKey != "X5" {
		t.Fatalf("synthesized product not persisted: %+v", x5)
	}
	// B2's key was derived from the shared name; it must not be persisted
	// as if it were explicit.
	if b2 == nil || b2.GroupKey != "" {
		t.Fatalf("derived group key leaked into the store: %+v", b2)
	}

	// A second run on unchanged data yields the same report.
	again, err := svc.Recommend(ctx, recommend.Coefficients{})
	if err != nil {
		t.Fatalf("second Recommend error: %v", err)
	}
	if len(again) != len(recs) {
		t.Fatalf("rerun changed the report: %d vs %d rows", len(again), len(recs))
	}
	for i := range recs {
		if again[i].GroupKey != recs[i].GroupKey || again[i].ReorderQty != recs[i].ReorderQty {
			t.Fatalf("rerun changed row %d: %+v vs %+v", i, again[i], recs[i])
		}
	}
}
