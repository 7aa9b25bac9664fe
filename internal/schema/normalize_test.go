package schema

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/servicepack/restock-backend/internal/domain"
)

func TestParseQuantity(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"3", 3},
		{"  12.5 ", 12.5},
		{"12,5", 12.5},
		{"1.234,56", 1234.56},
		{"1,234.56", 1234.56},
		{"1,234,567", 1234567},
		{"-4", -4},
		{"", 0},
		{"n/a", 0},
		{"abc", 0},
	}
	for _, tc := range cases {
		if got := ParseQuantity(tc.in); got != tc.want {
			t.Fatalf("ParseQuantity(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParsePrice(t *testing.T) {
	cases := []struct {
		in    string
		want  string
		valid bool
	}{
		{"15.00", "15", true},
		{"RON 15.00", "15", true},
		{"1.234,50", "1234.5", true},
		{"", "", false},
		{"-", "", false},
		{"necunoscut", "", false},
	}
	for _, tc := range cases {
		got := ParsePrice(tc.in)
		if got.Valid != tc.valid {
			t.Fatalf("ParsePrice(%q).Valid = %v, want %v", tc.in, got.Valid, tc.valid)
		}
		if tc.valid && !got.Decimal.Equal(decimal.RequireFromString(tc.want)) {
			t.Fatalf("ParsePrice(%q) = %s, want %s", tc.in, got.Decimal.String(), tc.want)
		}
	}
}

func price(s string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: decimal.RequireFromString(s), Valid: true}
}

func assertPrice(t *testing.T, label string, got decimal.NullDecimal, want string) {
	t.Helper()
	if !got.Valid {
		t.Fatalf("%s is null, want %s", label, want)
	}
	if !got.Decimal.Equal(decimal.RequireFromString(want)) {
		t.Fatalf("%s = %s, want %s", label, got.Decimal.String(), want)
	}
}

func TestBackfillPrices_DerivesVATPairs(t *testing.T) {
	p := domain.Product{
		PurchasePrice: price("10.00"),
		SalePriceVAT:  price("24.20"),
	}
	BackfillPrices(&p)

	assertPrice(t, "PurchasePriceVAT", p.PurchasePriceVAT, "12.10")
	assertPrice(t, "SalePrice", p.SalePrice, "20")
	// Site price derives from the with-VAT sale price: 24.20 * 1.09.
	assertPrice(t, "SitePrice", p.SitePrice, "26.38")
}

func TestBackfillPrices_DerivesExclFromIncl(t *testing.T) {
	p := domain.Product{PurchasePriceVAT: price("12.10")}
	BackfillPrices(&p)
	assertPrice(t, "PurchasePrice", p.PurchasePrice, "10")
}

func TestBackfillPrices_NeverOverwrites(t *testing.T) {
	p := domain.Product{
		SalePrice:    price("10.00"),
		SalePriceVAT: price("99.00"),
		SitePrice:    price("7.00"),
	}
	BackfillPrices(&p)

	assertPrice(t, "SalePriceVAT", p.SalePriceVAT, "99")
	assertPrice(t, "SitePrice", p.SitePrice, "7")
}

func TestBackfillPrices_AllUnknownStaysUnknown(t *testing.T) {
	var p domain.Product
	BackfillPrices(&p)
	if p.PurchasePrice.Valid || p.PurchasePriceVAT.Valid || p.SalePrice.Valid || p.SalePriceVAT.Valid || p.SitePrice.Valid {
		t.Fatalf("nothing should be derived from an empty product: %+v", p)
	}
}
