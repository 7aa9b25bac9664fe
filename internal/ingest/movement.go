package ingest

import (
	"fmt"

	"github.com/servicepack/restock-backend/internal/domain"
	"github.com/servicepack/restock-backend/internal/schema"
)

// rawMovement is one un-consolidated movement line, e.g. one warehouse's
// figures for a code within the reporting window.
type rawMovement struct {
	code string
	name string

	opening float64
	inflow  float64
	outflow float64

	closing      float64
	closingKnown bool
}

// ImportMovements maps a raw movement export onto consolidated
// StockMovement records for one window. The header may sit on the first or
// second physical row; labels are alias-bound with a fixed positional
// fallback for exports whose headers changed between tool versions.
func ImportMovements(rows [][]string, windowTag string) ([]domain.StockMovement, domain.ImportResult, error) {
	result := domain.ImportResult{Source: "movements", WindowTag: windowTag}

	table, res, err := schema.ResolveWithHeaderDetection(rows, MovementSpec())
	if err != nil {
		return nil, result, fmt.Errorf("movement import: %w", err)
	}
	result.UsedPositionalFallback = res.UsedPositional

	raw := make([]rawMovement, 0, len(table.Rows))
	for _, row := range table.Rows {
		code := res.Get(row, FieldCode)
		if code == "" {
			result.RowsSkipped++
			continue
		}

		m := rawMovement{
			code:    code,
			name:    res.Get(row, FieldName),
			opening: schema.ParseQuantity(res.Get(row, FieldOpeningStock)),
			inflow:  schema.ParseQuantity(res.Get(row, FieldInflow)),
			outflow: schema.ParseQuantity(res.Get(row, FieldOutflow)),
		}
		if cell := res.Get(row, FieldClosingStock); cell != "" {
			m.closing = schema.ParseQuantity(cell)
			m.closingKnown = true
		}
		raw = append(raw, m)
	}

	if len(raw) == 0 {
		return nil, result, domain.ErrEmptyTable
	}

	movements, conflicts := Consolidate(raw, windowTag)
	result.RowsImported = len(movements)
	result.ConflictCodes = conflicts

	return movements, result, nil
}
