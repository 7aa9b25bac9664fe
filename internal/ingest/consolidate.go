package ingest

import (
	"sort"

	"github.com/servicepack/restock-backend/internal/domain"
)

// Consolidate reduces raw movement lines to exactly one StockMovement per
// code for the given window.
//
// Rows are first grouped by (code, display name) — name absent, code alone —
// then the per-name groups of one code are merged. Within a group inflow
// and outflow combine additively (multiple warehouse lines for one code),
// while opening and closing stock take the maximum: duplicate rows repeat a
// snapshot value, and max avoids collapsing a valid reading into an
// accidental zero row. That is a documented heuristic, not a guarantee, so
// codes whose duplicate rows disagreed on the closing snapshot are returned
// as conflicts for manual review.
func Consolidate(raw []rawMovement, windowTag string) ([]domain.StockMovement, []string) {
	type key struct{ code, name string }

	groups := make(map[key]*rawMovement)
	order := make([]key, 0, len(raw))
	conflicts := make(map[string]bool)

	for _, m := range raw {
		k := key{code: m.code, name: m.name}
		g, ok := groups[k]
		if !ok {
			cp := m
			groups[k] = &cp
			order = append(order, k)
			continue
		}

		g.inflow += m.inflow
		g.outflow += m.outflow
		if m.opening > g.opening {
			g.opening = m.opening
		}
		if m.closingKnown {
			if g.closingKnown && g.closing != m.closing {
				conflicts[m.code] = true
			}
			if !g.closingKnown || m.closing > g.closing {
				g.closing = m.closing
			}
			g.closingKnown = true
		}
	}

	// Second pass: a code that appeared under two display names still gets
	// one consolidated record per window. The name with the most outflow
	// represents the code.
	byCode := make(map[string]*rawMovement)
	codes := make([]string, 0, len(order))
	nameOutflow := make(map[string]float64)

	for _, k := range order {
		g := groups[k]
		c, ok := byCode[k.code]
		if !ok {
			cp := *g
			byCode[k.code] = &cp
			codes = append(codes, k.code)
			nameOutflow[k.code] = g.outflow
			continue
		}

		c.inflow += g.inflow
		c.outflow += g.outflow
		if g.opening > c.opening {
			c.opening = g.opening
		}
		if g.closingKnown {
			if c.closingKnown && c.closing != g.closing {
				conflicts[k.code] = true
			}
			if !c.closingKnown || g.closing > c.closing {
				c.closing = g.closing
			}
			c.closingKnown = true
		}
		if g.name != "" && g.outflow > nameOutflow[k.code] {
			c.name = g.name
			nameOutflow[k.code] = g.outflow
		}
	}

	movements := make([]domain.StockMovement, 0, len(codes))
	for _, code := range codes {
		g := byCode[code]
		closing := g.closing
		if !g.closingKnown {
			closing = g.opening + g.inflow - g.outflow
			if closing < 0 {
				closing = 0
			}
		}
		movements = append(movements, domain.StockMovement{
			Code:         code,
			WindowTag:    windowTag,
			Name:         g.name,
			OpeningStock: g.opening,
			Inflow:       g.inflow,
			Outflow:      g.outflow,
			ClosingStock: closing,
		})
	}

	conflictCodes := make([]string, 0, len(conflicts))
	for code := range conflicts {
		conflictCodes = append(conflictCodes, code)
	}
	sort.Strings(conflictCodes)

	return movements, conflictCodes
}
