package recommend

import (
	"math"
	"sort"

	"github.com/servicepack/restock-backend/internal/domain"
)

// Coefficients weight the two sales windows in the reorder formula. Recent
// velocity is weighted well above the long-period baseline.
type Coefficients struct {
	Recent float64
	Total  float64
}

// DefaultCoefficients returns the standard weights.
func DefaultCoefficients() Coefficients {
	return Coefficients{Recent: 1.5, Total: 0.2}
}

// Engine computes purchase-order recommendations per SKU group. It is a
// pure batch computation: the same inputs and coefficients always produce
// the same output, and nothing is cached between runs.
type Engine struct {
	coef         Coefficients
	recentWindow string
	totalWindow  string
}

// NewEngine creates an engine for one pair of window tags.
func NewEngine(coef Coefficients, recentWindow, totalWindow string) *Engine {
	if coef.Recent == 0 && coef.Total == 0 {
		coef = DefaultCoefficients()
	}
	return &Engine{coef: coef, recentWindow: recentWindow, totalWindow: totalWindow}
}

// Run aggregates movements and prices per group and derives the reorder
// quantity:
//
//	reorder = max(0, round(sales_recent*coefRecent + sales_total*coefTotal - stock_final))
//
// Groups at or below zero are dropped; the rest sort by reorder quantity
// descending, ties by group key ascending.
func (e *Engine) Run(products []domain.Product, movements []domain.StockMovement) []domain.Recommendation {
	members := make(map[string][]domain.Product)
	for _, p := range products {
		g := p.EffectiveGroupKey()
		members[g] = append(members[g], p)
	}

	byCode := make(map[string][]domain.StockMovement)
	for _, m := range movements {
		byCode[m.Code] = append(byCode[m.Code], m)
	}

	recs := make([]domain.Recommendation, 0, len(members))
	for groupKey, group := range members {
		rec := domain.Recommendation{GroupKey: groupKey}

		nameVotes := make(map[string]int)
		for _, p := range group {
			rec.MemberCodes = append(rec.MemberCodes, p.Code)

			for _, m := range byCode[p.Code] {
				switch m.WindowTag {
				case e.recentWindow:
					rec.SalesRecent += m.Outflow
				case e.totalWindow:
					rec.SalesTotal += m.Outflow
				}
				if m.ClosingStock > rec.StockFinal {
					rec.StockFinal = m.ClosingStock
				}
				if m.Name != "" {
					nameVotes[m.Name]++
				}
			}

			if p.Code == groupKey && p.Name != "" {
				rec.ProductName = p.Name
			}

			if p.PurchasePrice.Valid {
				if !rec.CheapestMemberPrice.Valid ||
					p.PurchasePrice.Decimal.LessThan(rec.CheapestMemberPrice.Decimal) ||
					(p.PurchasePrice.Decimal.Equal(rec.CheapestMemberPrice.Decimal) && p.Code < rec.CheapestMemberCode) {
					rec.CheapestMemberPrice = p.PurchasePrice
					rec.CheapestMemberCode = p.Code
				}
			}
		}
		sort.Strings(rec.MemberCodes)

		if rec.ProductName == "" {
			rec.ProductName = mostFrequentName(nameVotes)
		}

		raw := rec.SalesRecent*e.coef.Recent + rec.SalesTotal*e.coef.Total - rec.StockFinal
		qty := int64(math.Round(raw))
		if qty <= 0 {
			continue
		}
		rec.ReorderQty = qty
		recs = append(recs, rec)
	}

	sort.Slice(recs, func(i, j int) bool {
		if recs[i].ReorderQty != recs[j].ReorderQty {
			return recs[i].ReorderQty > recs[j].ReorderQty
		}
		return recs[i].GroupKey < recs[j].GroupKey
	})

	return recs
}

// mostFrequentName picks the display name seen most often among a group's
// movements, ties broken by the lexicographically smallest name.
func mostFrequentName(votes map[string]int) string {
	best, bestCount := "", 0
	for name, count := range votes {
		if count > bestCount || (count == bestCount && best != "" && name < best) {
			best, bestCount = name, count
		}
	}
	return best
}
