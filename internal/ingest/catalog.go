package ingest

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/servicepack/restock-backend/internal/domain"
	"github.com/servicepack/restock-backend/internal/schema"
)

// ImportCatalog maps a raw catalog table onto Product records. The first
// row is the header. Rows with an empty code are discarded; duplicate codes
// keep the last row seen (upsert-by-code semantics are the store's job, the
// importer just avoids emitting two rows for one code).
func ImportCatalog(rows [][]string) ([]domain.Product, domain.ImportResult, error) {
	result := domain.ImportResult{Source: "catalog"}

	if len(rows) < 2 {
		return nil, result, domain.ErrEmptyTable
	}

	table := &schema.Table{Header: rows[0], Rows: rows[1:]}
	res, err := schema.Resolve(table, CatalogSpec())
	if err != nil {
		return nil, result, fmt.Errorf("catalog import: %w", err)
	}
	result.UsedPositionalFallback = res.UsedPositional

	byCode := make(map[string]int)
	products := make([]domain.Product, 0, len(table.Rows))

	for _, row := range table.Rows {
		code := res.Get(row, FieldCode)
		if code == "" {
			result.RowsSkipped++
			continue
		}

		p := domain.Product{
			Code:             code,
			Name:             res.Get(row, FieldName),
			PurchasePrice:    schema.ParsePrice(res.Get(row, FieldPurchasePrice)),
			PurchasePriceVAT: schema.ParsePrice(res.Get(row, FieldPurchasePriceVAT)),
			SalePrice:        schema.ParsePrice(res.Get(row, FieldSalePrice)),
			SalePriceVAT:     schema.ParsePrice(res.Get(row, FieldSalePriceVAT)),
			SitePrice:        schema.ParsePrice(res.Get(row, FieldSitePrice)),
			ProfitAmount:     schema.ParsePrice(res.Get(row, FieldProfitAmount)),
			ProfitPct:        schema.ParsePrice(res.Get(row, FieldProfitPct)),
			GroupKey:         res.Get(row, FieldGroupKey),
		}

		for _, field := range CompetitorFields {
			idx, ok := res.Column(field)
			if !ok {
				continue
			}
			if price := schema.ParsePrice(res.Get(row, field)); price.Valid {
				if p.CompetitorPrices == nil {
					p.CompetitorPrices = make(map[string]decimal.Decimal, len(CompetitorFields))
				}
				p.CompetitorPrices[table.Header[idx]] = price.Decimal
			}
		}

		schema.BackfillPrices(&p)

		if prev, ok := byCode[code]; ok {
			products[prev] = p
			continue
		}
		byCode[code] = len(products)
		products = append(products, p)
		result.RowsImported++
	}

	if len(products) == 0 {
		return nil, result, domain.ErrEmptyTable
	}

	return products, result, nil
}
