package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/servicepack/restock-backend/internal/domain"
	"github.com/servicepack/restock-backend/internal/schema"
)

// SheetName is the sheet recommendations are written to.
const SheetName = "recomandari"

// Header is the column layout of the recommendation report. WriteXLSX and
// ReadXLSX share it so an exported report reads back losslessly.
var Header = []string{
	"group_key",
	"product_name",
	"member_codes",
	"stock_final",
	"sales_recent",
	"sales_total",
	"reorder_qty",
	"cheapest_member_code",
	"cheapest_member_price",
}

// WriteXLSX writes the recommendation table to w, already sorted by the
// engine (reorder quantity descending).
func WriteXLSX(w io.Writer, recs []domain.Recommendation) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet, err := f.NewSheet(SheetName)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(sheet)
	f.DeleteSheet("Sheet1")

	writeRow := func(rowNum int, cells []interface{}) error {
		addr, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return err
		}
		return f.SetSheetRow(SheetName, addr, &cells)
	}

	header := make([]interface{}, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := writeRow(1, header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, rec := range recs {
		price := ""
		if rec.CheapestMemberPrice.Valid {
			price = rec.CheapestMemberPrice.Decimal.String()
		}
		cells := []interface{}{
			rec.GroupKey,
			rec.ProductName,
			strings.Join(rec.MemberCodes, ","),
			rec.StockFinal,
			rec.SalesRecent,
			rec.SalesTotal,
			rec.ReorderQty,
			rec.CheapestMemberCode,
			price,
		}
		if err := writeRow(i+2, cells); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// ReadXLSX reads a recommendation report back into rows in file order.
// Round-tripping a written report reproduces the same rows and ordering.
func ReadXLSX(r io.Reader) ([]domain.Recommendation, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open report: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", SheetName, err)
	}
	if len(rows) == 0 {
		return nil, domain.ErrEmptyTable
	}

	col := make(map[string]int, len(rows[0]))
	for i, label := range rows[0] {
		col[label] = i
	}

	get := func(row []string, name string) string {
		idx, ok := col[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	recs := make([]domain.Recommendation, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if get(row, "group_key") == "" {
			continue
		}
		qty, _ := strconv.ParseInt(get(row, "reorder_qty"), 10, 64)
		rec := domain.Recommendation{
			GroupKey:            get(row, "group_key"),
			ProductName:         get(row, "product_name"),
			StockFinal:          schema.ParseQuantity(get(row, "stock_final")),
			SalesRecent:         schema.ParseQuantity(get(row, "sales_recent")),
			SalesTotal:          schema.ParseQuantity(get(row, "sales_total")),
			ReorderQty:          qty,
			CheapestMemberCode:  get(row, "cheapest_member_code"),
			CheapestMemberPrice: schema.ParsePrice(get(row, "cheapest_member_price")),
		}
		if codes := get(row, "member_codes"); codes != "" {
			rec.MemberCodes = strings.Split(codes, ",")
		}
		recs = append(recs, rec)
	}

	return recs, nil
}
