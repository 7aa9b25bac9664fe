package ingest

import (
	"fmt"

	"github.com/servicepack/restock-backend/internal/schema"
)

// Logical field names shared by the import formats.
const (
	FieldName             = "name"
	FieldCode             = "code"
	FieldPurchasePrice    = "purchase_price_excl_vat"
	FieldPurchasePriceVAT = "purchase_price_incl_vat"
	FieldSalePrice        = "sale_price_excl_vat"
	FieldSalePriceVAT     = "sale_price_incl_vat"
	FieldSitePrice        = "site_price"
	FieldProfitAmount     = "profit_amount"
	FieldProfitPct        = "profit_pct"
	FieldGroupKey         = "group_key"

	FieldOpeningStock = "opening_stock"
	FieldInflow       = "inflow"
	FieldOutflow      = "outflow"
	FieldClosingStock = "closing_stock"
)

// CompetitorFields names the up-to-six competitor price columns of the
// catalog format.
var CompetitorFields = []string{
	"competitor_1", "competitor_2", "competitor_3",
	"competitor_4", "competitor_5", "competitor_6",
}

// CatalogSpec is the schema of the product catalog spreadsheet. The header
// is always the first row and labels vary per release, so everything is
// alias-bound with no positional fallback.
func CatalogSpec() schema.Spec {
	fields := []schema.Field{
		{Name: FieldCode, Aliases: []string{"cod", "cod produs", "product code", "sku", "id"}, Position: -1, Required: true},
		{Name: FieldName, Aliases: []string{"nume", "denumire", "produs", "name", "title"}, Position: -1},
		{Name: FieldPurchasePrice, Aliases: []string{"pret achizitie", "pret achizitie fara tva", "purchase price", "buy price", "cost"}, Position: -1},
		{Name: FieldPurchasePriceVAT, Aliases: []string{"pret achizitie cu tva", "purchase price vat", "purchase price incl vat"}, Position: -1},
		{Name: FieldSalePrice, Aliases: []string{"pret vanzare", "pret vanzare fara tva", "sale price", "selling price", "price"}, Position: -1},
		{Name: FieldSalePriceVAT, Aliases: []string{"pret vanzare cu tva", "sale price vat", "sale price incl vat"}, Position: -1},
		{Name: FieldSitePrice, Aliases: []string{"pret site", "site price"}, Position: -1},
		{Name: FieldProfitAmount, Aliases: []string{"profit", "profit lei"}, Position: -1},
		{Name: FieldProfitPct, Aliases: []string{"profit %", "profit pct", "marja"}, Position: -1},
		{Name: FieldGroupKey, Aliases: []string{"grup", "cod grup", "group", "group key"}, Position: -1},
	}
	for i, name := range CompetitorFields {
		n := i + 1
		fields = append(fields, schema.Field{
			Name: name,
			Aliases: []string{
				fieldf("concurenta %d", n),
				fieldf("pret concurenta %d", n),
				fieldf("competitor %d", n),
				fieldf("competitor price %d", n),
			},
			Position: -1,
		})
	}
	return schema.Spec{Fields: fields}
}

// MovementSpec is the schema of the SmartBill stock movement export. The
// exports are machine generated with stable column positions but
// inconsistent header labels across tool versions, so each field carries a
// fixed positional fallback. Trailing columns are ignored.
func MovementSpec() schema.Spec {
	return schema.Spec{
		MinPositionalCols: 7,
		Fields: []schema.Field{
			{Name: FieldName, Aliases: []string{"produs", "denumire", "nume produs", "product name"}, Position: 0},
			{Name: FieldCode, Aliases: []string{"cod", "cod produs", "product code", "sku"}, Position: 1, Required: true},
			{Name: FieldOpeningStock, Aliases: []string{"stoc initial", "stoc iniţial", "opening stock"}, Position: 3},
			{Name: FieldInflow, Aliases: []string{"intrari", "intrări", "in"}, Position: 4},
			{Name: FieldOutflow, Aliases: []string{"iesiri", "ieşiri", "out"}, Position: 5},
			{Name: FieldClosingStock, Aliases: []string{"stoc final", "closing stock"}, Position: 6},
		},
	}
}

func fieldf(format string, n int) string {
	if n == 1 {
		// The first competitor column frequently has no index suffix.
		switch format {
		case "concurenta %d":
			return "concurenta"
		case "pret concurenta %d":
			return "pret concurenta"
		case "competitor %d":
			return "competitor"
		case "competitor price %d":
			return "competitor price"
		}
	}
	return fmt.Sprintf(format, n)
}
