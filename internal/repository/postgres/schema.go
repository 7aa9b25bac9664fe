package postgres

import (
	"context"
	"fmt"
)

const schemaSQL = `
	CREATE TABLE IF NOT EXISTS products (
		code TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		purchase_price NUMERIC(14,2),
		purchase_price_vat NUMERIC(14,2),
		sale_price NUMERIC(14,2),
		sale_price_vat NUMERIC(14,2),
		site_price NUMERIC(14,2),
		profit_amount NUMERIC(14,2),
		profit_pct NUMERIC(14,2),
		competitor_prices JSONB,
		group_key TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP WITH TIME ZONE DEFAULT now(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT now()
	);
	CREATE INDEX IF NOT EXISTS idx_products_group_key ON products(group_key);

	CREATE TABLE IF NOT EXISTS stock_movements (
		code TEXT NOT NULL,
		window_tag TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		opening_stock DOUBLE PRECISION NOT NULL DEFAULT 0,
		inflow DOUBLE PRECISION NOT NULL DEFAULT 0,
		outflow DOUBLE PRECISION NOT NULL DEFAULT 0,
		closing_stock DOUBLE PRECISION NOT NULL DEFAULT 0,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT now(),
		PRIMARY KEY (code, window_tag)
	);
	CREATE INDEX IF NOT EXISTS idx_stock_movements_window ON stock_movements(window_tag);
`

// InitSchema creates the tables if they do not exist yet. Idempotent, safe
// to run on every startup.
func (db *DB) InitSchema(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}
