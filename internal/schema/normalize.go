package schema

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/servicepack/restock-backend/internal/domain"
)

// Defaulting policy per semantic type: a missing quantity must not distort a
// sum, so it becomes 0; a missing price must stay unknown, so it becomes a
// null decimal. Neither coercion ever returns an error to the caller.

// VATRate is the declared VAT rate used to derive with/without-VAT prices.
const VATRate = 0.21

// SiteMarkup is the declared markup factor for the secondary site price.
const SiteMarkup = 1.09

var vatFactor = decimal.NewFromFloat(1 + VATRate)
var siteFactor = decimal.NewFromFloat(SiteMarkup)

// ParseQuantity coerces a raw cell to a movement quantity. Unparseable or
// empty input yields 0.
func ParseQuantity(raw string) float64 {
	s := cleanNumeric(raw)
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// ParsePrice coerces a raw cell to an optional price. Unparseable or empty
// input yields an unknown (null) price.
func ParsePrice(raw string) decimal.NullDecimal {
	s := cleanNumeric(raw)
	if s == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

// cleanNumeric strips spacing and currency noise and rewrites locale decimal
// separators so the result parses as plain decimal text. When both "." and
// "," appear, the rightmost one is taken as the decimal separator.
func cleanNumeric(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',', r == '-', r == '+':
			b.WriteRune(r)
		}
	}
	s = b.String()

	dot := strings.LastIndexByte(s, '.')
	comma := strings.LastIndexByte(s, ',')
	switch {
	case dot >= 0 && comma >= 0:
		if comma > dot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case comma >= 0:
		if strings.Count(s, ",") > 1 {
			// Multiple commas can only be thousands separators.
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	}

	return s
}

// BackfillPrices derives missing price fields from their known counterparts:
// sale price with VAT from without (and vice versa) using VATRate, and the
// site price from the with-VAT price using SiteMarkup. A derived value only
// fills a gap; known values are never overwritten.
func BackfillPrices(p *domain.Product) {
	if p.PurchasePrice.Valid && !p.PurchasePriceVAT.Valid {
		p.PurchasePriceVAT = decimal.NullDecimal{
			Decimal: p.PurchasePrice.Decimal.Mul(vatFactor).Round(2),
			Valid:   true,
		}
	}
	if p.PurchasePriceVAT.Valid && !p.PurchasePrice.Valid {
		p.PurchasePrice = decimal.NullDecimal{
			Decimal: p.PurchasePriceVAT.Decimal.Div(vatFactor).Round(2),
			Valid:   true,
		}
	}
	if p.SalePrice.Valid && !p.SalePriceVAT.Valid {
		p.SalePriceVAT = decimal.NullDecimal{
			Decimal: p.SalePrice.Decimal.Mul(vatFactor).Round(2),
			Valid:   true,
		}
	}
	if p.SalePriceVAT.Valid && !p.SalePrice.Valid {
		p.SalePrice = decimal.NullDecimal{
			Decimal: p.SalePriceVAT.Decimal.Div(vatFactor).Round(2),
			Valid:   true,
		}
	}
	if p.SalePriceVAT.Valid && !p.SitePrice.Valid {
		p.SitePrice = decimal.NullDecimal{
			Decimal: p.SalePriceVAT.Decimal.Mul(siteFactor).Round(2),
			Valid:   true,
		}
	}
}
