package ingest

import (
	"testing"

	"github.com/servicepack/restock-backend/internal/domain"
)

func findMovement(t *testing.T, movements []domain.StockMovement, code string) domain.StockMovement {
	t.Helper()
	for _, m := range movements {
		if m.Code == code {
			return m
		}
	}
	t.Fatalf("no movement for code %s", code)
	return domain.StockMovement{}
}

func TestConsolidate_SumsFlowsAndMaxesSnapshots(t *testing.T) {
	raw := []rawMovement{
		{code: "A1", name: "Widget", opening: 20, inflow: 3, outflow: 2, closing: 21, closingKnown: true},
		{code: "A1", name: "Widget", opening: 20, inflow: 5, outflow: 1, closing: 21, closingKnown: true},
	}

	movements, conflicts := Consolidate(raw, "w")
	if len(conflicts) != 0 {
		t.Fatalf("unexpected conflicts: %v", conflicts)
	}
	if len(movements) != 1 {
		t.Fatalf("got %d movements, want 1", len(movements))
	}

	m := movements[0]
	if m.Inflow != 8 || m.Outflow != 3 {
		t.Fatalf("flows not additive: inflow=%v outflow=%v", m.Inflow, m.Outflow)
	}
	if m.OpeningStock != 20 || m.ClosingStock != 21 {
		t.Fatalf("snapshots wrong: opening=%v closing=%v", m.OpeningStock, m.ClosingStock)
	}
	if m.WindowTag != "w" {
		t.Fatalf("window tag = %q", m.WindowTag)
	}
}

func TestConsolidate_FlagsClosingConflict(t *testing.T) {
	raw := []rawMovement{
		{code: "A1", name: "Widget", closing: 10, closingKnown: true},
		{code: "A1", name: "Widget", closing: 4, closingKnown: true},
		{code: "B2", name: "Alt", closing: 7, closingKnown: true},
	}

	movements, conflicts := Consolidate(raw, "w")
	if len(conflicts) != 1 || conflicts[0] != "A1" {
		t.Fatalf("conflicts = %v, want [A1]", conflicts)
	}
	// Max wins, but the disagreement is surfaced.
	if m := findMovement(t, movements, "A1"); m.ClosingStock != 10 {
		t.Fatalf("ClosingStock = %v, want 10", m.ClosingStock)
	}
}

func TestConsolidate_MergesNamesOfOneCode(t *testing.T) {
	raw := []rawMovement{
		{code: "A1", name: "Widget Vechi", outflow: 2},
		{code: "A1", name: "Widget Nou", outflow: 9},
	}

	movements, _ := Consolidate(raw, "w")
	if len(movements) != 1 {
		t.Fatalf("got %d movements, want 1 per code", len(movements))
	}
	m := movements[0]
	if m.Outflow != 11 {
		t.Fatalf("Outflow = %v, want 11", m.Outflow)
	}
	// The name with the most outflow represents the code.
	if m.Name != "Widget Nou" {
		t.Fatalf("Name = %q, want Widget Nou", m.Name)
	}
}

func TestConsolidate_DerivesMissingClosing(t *testing.T) {
	raw := []rawMovement{
		{code: "A1", opening: 5, inflow: 2, outflow: 4},
		{code: "B2", opening: 1, inflow: 0, outflow: 9},
	}

	movements, _ := Consolidate(raw, "w")
	if m := findMovement(t, movements, "A1"); m.ClosingStock != 3 {
		t.Fatalf("ClosingStock = %v, want opening+inflow-outflow = 3", m.ClosingStock)
	}
	// The derived value clamps at zero.
	if m := findMovement(t, movements, "B2"); m.ClosingStock != 0 {
		t.Fatalf("ClosingStock = %v, want 0", m.ClosingStock)
	}
}

func TestImportMovements_HeaderOnSecondRow(t *testing.T) {
	rows := [][]string{
		{"Fisa de magazie 01.01 - 31.01"},
		{"Produs", "Cod", "UM", "Stoc initial", "Intrari", "Iesiri", "Stoc final"},
		{"Widget", "A1", "buc", "20", "3", "2", "21"},
		{"Widget", "A1", "buc", "20", "5", "1", "21"},
		{"", "", "", "", "", "", ""},
	}

	movements, result, err := ImportMovements(rows, "recent-30d")
	if err != nil {
		t.Fatalf("ImportMovements error: %v", err)
	}
	if result.UsedPositionalFallback {
		t.Fatal("aliases matched, fallback should not be flagged")
	}
	if result.RowsImported != 1 || result.RowsSkipped != 1 {
		t.Fatalf("imported=%d skipped=%d, want 1/1", result.RowsImported, result.RowsSkipped)
	}

	m := movements[0]
	if m.Code != "A1" || m.WindowTag != "recent-30d" {
		t.Fatalf("unexpected movement: %+v", m)
	}
	if m.Inflow != 8 || m.Outflow != 3 || m.OpeningStock != 20 || m.ClosingStock != 21 {
		t.Fatalf("consolidation wrong: %+v", m)
	}
}

func TestImportMovements_PositionalFallback(t *testing.T) {
	rows := [][]string{
		{"col a", "col b", "col c", "col d", "col e", "col f", "col g"},
		{"Widget", "A1", "buc", "10", "2", "3", "9"},
	}

	movements, result, err := ImportMovements(rows, "w")
	if err != nil {
		t.Fatalf("ImportMovements error: %v", err)
	}
	if !result.UsedPositionalFallback {
		t.Fatal("expected positional fallback to be flagged")
	}
	m := movements[0]
	if m.Code != "A1" || m.Name != "Widget" || m.OpeningStock != 10 || m.Inflow != 2 || m.Outflow != 3 || m.ClosingStock != 9 {
		t.Fatalf("positional mapping wrong: %+v", m)
	}
}

func TestImportMovements_Empty(t *testing.T) {
	if _, _, err := ImportMovements(nil, "w"); err == nil {
		t.Fatal("expected error on empty input")
	}
}
