package recommend

import (
	"reflect"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/servicepack/restock-backend/internal/domain"
)

const (
	recentTag = "recent-30d"
	totalTag  = "full-period"
)

func price(s string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: decimal.RequireFromString(s), Valid: true}
}

func TestRun_Formula(t *testing.T) {
	products := []domain.Product{{Code: "A1", Name: "Widget", GroupKey: "A1"}}
	movements := []domain.StockMovement{
		{Code: "A1", WindowTag: recentTag, Outflow: 10, ClosingStock: 5},
		{Code: "A1", WindowTag: totalTag, Outflow: 40, ClosingStock: 5},
	}

	engine := NewEngine(Coefficients{}, recentTag, totalTag)
	recs := engine.Run(products, movements)
	if len(recs) != 1 {
		t.Fatalf("got %d recommendations, want 1", len(recs))
	}

	rec := recs[0]
	if rec.SalesRecent != 10 || rec.SalesTotal != 40 || rec.StockFinal != 5 {
		t.Fatalf("aggregates wrong: %+v", rec)
	}
	// 10*1.5 + 40*0.2 - 5 = 18 with the default coefficients.
	if rec.ReorderQty != 18 {
		t.Fatalf("ReorderQty = %d, want 18", rec.ReorderQty)
	}
	if rec.ProductName != "Widget" {
		t.Fatalf("ProductName = %q, want Widget", rec.ProductName)
	}
}

func TestRun_CustomCoefficientsAndRounding(t *testing.T) {
	products := []domain.Product{{Code: "A1", GroupKey: "A1"}}
	movements := []domain.StockMovement{
		{Code: "A1", WindowTag: recentTag, Outflow: 3, ClosingStock: 1},
		{Code: "A1", WindowTag: totalTag, Outflow: 7, ClosingStock: 1},
	}

	engine := NewEngine(Coefficients{Recent: 1.0, Total: 0.5}, recentTag, totalTag)
	recs := engine.Run(products, movements)
	// 3*1.0 + 7*0.5 - 1 = 5.5, rounded half away from zero.
	if len(recs) != 1 || recs[0].ReorderQty != 6 {
		t.Fatalf("recs = %+v, want one with qty 6", recs)
	}
}

func TestRun_DropsNonPositiveGroups(t *testing.T) {
	products := []domain.Product{
		{Code: "A1", GroupKey: "A1"},
		{Code: "B2", GroupKey: "B2"},
	}
	movements := []domain.StockMovement{
		// Well stocked: 1*1.5 + 1*0.2 - 100 is far below zero.
		{Code: "A1", WindowTag: recentTag, Outflow: 1, ClosingStock: 100},
		{Code: "A1", WindowTag: totalTag, Outflow: 1, ClosingStock: 100},
		// Exactly zero demand.
		{Code: "B2", WindowTag: recentTag, Outflow: 0, ClosingStock: 0},
	}

	recs := NewEngine(Coefficients{}, recentTag, totalTag).Run(products, movements)
	if len(recs) != 0 {
		t.Fatalf("expected no recommendations, got %+v", recs)
	}
}

func TestRun_GroupAggregation(t *testing.T) {
	products := []domain.Product{
		{Code: "A1", Name: "Widget", GroupKey: "A1", PurchasePrice: price("5.00")},
		{Code: "B2", Name: "Widget (vechi)", GroupKey: "A1", PurchasePrice: price("4.50")},
	}
	movements := []domain.StockMovement{
		{Code: "A1", WindowTag: recentTag, Outflow: 6, ClosingStock: 2},
		{Code: "B2", WindowTag: recentTag, Outflow: 4, ClosingStock: 3},
		{Code: "A1", WindowTag: totalTag, Outflow: 20, ClosingStock: 2},
		{Code: "B2", WindowTag: totalTag, Outflow: 10, ClosingStock: 3},
	}

	recs := NewEngine(Coefficients{}, recentTag, totalTag).Run(products, movements)
	if len(recs) != 1 {
		t.Fatalf("got %d recommendations, want 1", len(recs))
	}

	rec := recs[0]
	if rec.SalesRecent != 10 || rec.SalesTotal != 30 {
		t.Fatalf("sales not summed across members: %+v", rec)
	}
	// Stock takes the max member snapshot, not the sum.
	if rec.StockFinal != 3 {
		t.Fatalf("StockFinal = %v, want 3", rec.StockFinal)
	}
	if !reflect.DeepEqual(rec.MemberCodes, []string{"A1", "B2"}) {
		t.Fatalf("MemberCodes = %v", rec.MemberCodes)
	}
	if rec.CheapestMemberCode != "B2" || !rec.CheapestMemberPrice.Decimal.Equal(decimal.RequireFromString("4.5")) {
		t.Fatalf("cheapest member wrong: %s %+v", rec.CheapestMemberCode, rec.CheapestMemberPrice)
	}
	// The member whose code equals the group key names the group.
	if rec.ProductName != "Widget" {
		t.Fatalf("ProductName = %q, want Widget", rec.ProductName)
	}
}

func TestRun_CheapestPriceTieBreaksOnCode(t *testing.T) {
	products := []domain.Product{
		{Code: "B2", GroupKey: "G", PurchasePrice: price("4.50")},
		{Code: "A1", GroupKey: "G", PurchasePrice: price("4.50")},
	}
	movements := []domain.StockMovement{
		{Code: "A1", WindowTag: recentTag, Outflow: 10},
		{Code: "A1", WindowTag: totalTag, Outflow: 10},
	}

	recs := NewEngine(Coefficients{}, recentTag, totalTag).Run(products, movements)
	if len(recs) != 1 || recs[0].CheapestMemberCode != "A1" {
		t.Fatalf("recs = %+v, want cheapest member A1", recs)
	}
}

func TestRun_NameFallsBackToMovementVotes(t *testing.T) {
	// No member's code equals the group key, so the most frequent movement
	// name wins.
	products := []domain.Product{
		{Code: "A1", Name: "", GroupKey: "G"},
		{Code: "B2", Name: "", GroupKey: "G"},
	}
	movements := []domain.StockMovement{
		{Code: "A1", Name: "Widget", WindowTag: recentTag, Outflow: 5},
		{Code: "B2", Name: "Widget", WindowTag: recentTag, Outflow: 5},
		{Code: "A1", Name: "Altceva", WindowTag: totalTag, Outflow: 5},
	}

	recs := NewEngine(Coefficients{}, recentTag, totalTag).Run(products, movements)
	if len(recs) != 1 || recs[0].ProductName != "Widget" {
		t.Fatalf("recs = %+v, want name Widget", recs)
	}
}

func TestRun_Ordering(t *testing.T) {
	products := []domain.Product{
		{Code: "A1", GroupKey: "A1"},
		{Code: "B2", GroupKey: "B2"},
		{Code: "C3", GroupKey: "C3"},
	}
	movements := []domain.StockMovement{
		{Code: "A1", WindowTag: recentTag, Outflow: 2},
		{Code: "B2", WindowTag: recentTag, Outflow: 10},
		{Code: "C3", WindowTag: recentTag, Outflow: 2},
	}

	recs := NewEngine(Coefficients{}, recentTag, totalTag).Run(products, movements)
	got := make([]string, len(recs))
	for i, r := range recs {
		got[i] = r.GroupKey
	}
	// Quantity descending, ties by group key ascending.
	if !reflect.DeepEqual(got, []string{"B2", "A1", "C3"}) {
		t.Fatalf("order = %v", got)
	}
}
