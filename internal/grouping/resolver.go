package grouping

import (
	"sort"

	"github.com/servicepack/restock-backend/internal/domain"
)

// Options tunes group resolution.
type Options struct {
	// PreferLexicographic disables the "most sales activity wins" heuristic
	// and always picks the lexicographically smallest candidate code for a
	// shared name key.
	PreferLexicographic bool
}

// Result of one resolution pass.
type Result struct {
	// Products is the full product set with GroupKey assigned everywhere,
	// including products synthesized for dangling movement codes. Derived
	// keys live only in this snapshot — persisting them would turn a
	// heuristic into an explicit assignment on the next run.
	Products []domain.Product

	// Synthesized holds the minimal products created for dangling movement
	// codes; these are meant to be persisted so the codes exist by the next
	// import.
	Synthesized []domain.Product

	// NewCodes lists the synthesized codes, sorted ascending.
	NewCodes []string
}

// Resolve assigns a group key to every product so that codes representing
// the same sellable item collapse to one group. Per product, first match
// wins:
//
//  1. an explicit GroupKey already set (never overwritten),
//  2. the movement code sharing the product's normalized name key with the
//     highest total outflow (ties: smallest code),
//  3. the product's own code.
//
// Movement codes with no catalog entry are synthesized into minimal
// products grouped under their own code, so movement data is never dropped
// from aggregation. The pass is a pure function of its inputs and
// idempotent: rerunning on unchanged data yields an identical mapping.
func Resolve(products []domain.Product, movements []domain.StockMovement, opts Options) Result {
	known := make(map[string]bool, len(products))
	for _, p := range products {
		known[p.Code] = true
	}

	// Total outflow per movement code, and each code's name key as seen in
	// the movement data.
	outflow := make(map[string]float64)
	movementNames := make(map[string]string)
	for _, m := range movements {
		outflow[m.Code] += m.Outflow
		if m.Name != "" {
			movementNames[m.Code] = m.Name
		}
	}

	// Candidate canonical code per name key.
	canonical := make(map[string]string)
	for code, name := range movementNames {
		key := domain.NormalizeNameKey(name)
		if key == "" {
			continue
		}
		cur, ok := canonical[key]
		if !ok {
			canonical[key] = code
			continue
		}
		if better(code, cur, outflow, opts) {
			canonical[key] = code
		}
	}

	out := Result{Products: make([]domain.Product, 0, len(products))}

	for _, p := range products {
		switch {
		case p.GroupKey != "":
			// explicit assignment wins
		case p.NameKey() != "" && canonical[p.NameKey()] != "":
			p.GroupKey = canonical[p.NameKey()]
		default:
			p.GroupKey = p.Code
		}
		out.Products = append(out.Products, p)
	}

	// Synthesize minimal products for dangling movement codes.
	for _, m := range movements {
		if known[m.Code] {
			continue
		}
		known[m.Code] = true
		p := domain.Product{
			Code:     m.Code,
			Name:     movementNames[m.Code],
			GroupKey: m.Code,
		}
		out.Products = append(out.Products, p)
		out.Synthesized = append(out.Synthesized, p)
		out.NewCodes = append(out.NewCodes, m.Code)
	}
	sort.Strings(out.NewCodes)

	return out
}

// better reports whether candidate should replace current as the canonical
// code for a name key.
func better(candidate, current string, outflow map[string]float64, opts Options) bool {
	if opts.PreferLexicographic {
		return candidate < current
	}
	co, cu := outflow[candidate], outflow[current]
	if co != cu {
		return co > cu
	}
	return candidate < current
}
