package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Product is one catalog entry, keyed by supplier code.
type Product struct {
	Code             string              `json:"code" db:"code"`
	Name             string              `json:"name" db:"name"`
	PurchasePrice    decimal.NullDecimal `json:"purchase_price" db:"purchase_price"`
	PurchasePriceVAT decimal.NullDecimal `json:"purchase_price_vat" db:"purchase_price_vat"`
	SalePrice        decimal.NullDecimal `json:"sale_price" db:"sale_price"`
	SalePriceVAT     decimal.NullDecimal `json:"sale_price_vat" db:"sale_price_vat"`
	SitePrice        decimal.NullDecimal `json:"site_price" db:"site_price"`
	ProfitAmount     decimal.NullDecimal `json:"profit_amount" db:"profit_amount"`
	ProfitPct        decimal.NullDecimal `json:"profit_pct" db:"profit_pct"`

	// CompetitorPrices holds up to six named competitor price columns from
	// the catalog import, keyed by the source column label.
	CompetitorPrices map[string]decimal.Decimal `json:"competitor_prices,omitempty" db:"-"`

	// GroupKey is the SKU group this product belongs to. Never empty after
	// group resolution; falls back to Code.
	GroupKey string `json:"group_key" db:"group_key"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// NameKey returns the normalized grouping key derived from the product name:
// lower-cased with internal whitespace collapsed. Used only for matching,
// never for display.
func (p Product) NameKey() string {
	return NormalizeNameKey(p.Name)
}

// EffectiveGroupKey returns GroupKey, defaulting to Code when unset.
func (p Product) EffectiveGroupKey() string {
	if p.GroupKey != "" {
		return p.GroupKey
	}
	return p.Code
}

// NormalizeNameKey lower-cases s and collapses all internal whitespace runs
// to single spaces.
func NormalizeNameKey(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// StockMovement is one consolidated flow observation for a product code
// within a reporting window. At most one exists per (Code, WindowTag).
type StockMovement struct {
	Code      string `json:"code" db:"code"`
	WindowTag string `json:"window_tag" db:"window_tag"`

	// Name is the display name the export carried for this code. Kept so
	// groups of synthesized products still have something to show.
	Name string `json:"name" db:"name"`

	OpeningStock float64 `json:"opening_stock" db:"opening_stock"`
	Inflow       float64 `json:"inflow" db:"inflow"`
	Outflow      float64 `json:"outflow" db:"outflow"`
	ClosingStock float64 `json:"closing_stock" db:"closing_stock"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Recommendation is one purchase-order suggestion for a SKU group.
type Recommendation struct {
	GroupKey    string   `json:"group_key"`
	ProductName string   `json:"product_name"`
	MemberCodes []string `json:"member_codes"`

	StockFinal  float64 `json:"stock_final"`
	SalesRecent float64 `json:"sales_recent"`
	SalesTotal  float64 `json:"sales_total"`
	ReorderQty  int64   `json:"reorder_qty"`

	CheapestMemberCode  string              `json:"cheapest_member_code"`
	CheapestMemberPrice decimal.NullDecimal `json:"cheapest_member_price"`
}

// ImportResult summarizes one import call so callers can audit heuristics.
type ImportResult struct {
	Source       string `json:"source"`
	WindowTag    string `json:"window_tag,omitempty"`
	RowsImported int    `json:"rows_imported"`
	RowsSkipped  int    `json:"rows_skipped"`

	// UsedPositionalFallback is set when the header could not be matched by
	// alias and the fixed column layout was assumed instead.
	UsedPositionalFallback bool `json:"used_positional_fallback"`

	// NewCodes lists movement codes that had no catalog entry and were
	// synthesized into minimal products.
	NewCodes []string `json:"new_codes,omitempty"`

	// ConflictCodes lists codes whose duplicate raw rows disagreed on the
	// closing stock snapshot; values were resolved by max but should be
	// reviewed manually.
	ConflictCodes []string `json:"conflict_codes,omitempty"`
}
