package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/servicepack/restock-backend/internal/domain"
	"github.com/servicepack/restock-backend/internal/repository"
)

// Store persists products and consolidated movements in Postgres. All
// statements are parameterized; the core never builds query text from
// input values.
type Store struct {
	db *DB
}

func NewStore(db *DB) *Store {
	return &Store{db: db}
}

var _ repository.Store = (*Store)(nil)

// productRow mirrors the products table; competitor prices live in a JSONB
// column.
type productRow struct {
	domain.Product
	CompetitorJSON []byte `db:"competitor_prices"`
}

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	query := `
		SELECT code, name, purchase_price, purchase_price_vat,
		       sale_price, sale_price_vat, site_price,
		       profit_amount, profit_pct, competitor_prices,
		       group_key, created_at, updated_at
		FROM products
		ORDER BY code
	`

	var rows []productRow
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("%w: listing products: %v", domain.ErrStoreUnavailable, err)
	}

	products := make([]domain.Product, 0, len(rows))
	for _, r := range rows {
		p := r.Product
		if len(r.CompetitorJSON) > 0 {
			if err := json.Unmarshal(r.CompetitorJSON, &p.CompetitorPrices); err != nil {
				return nil, fmt.Errorf("decoding competitor prices for %s: %w", p.Code, err)
			}
		}
		products = append(products, p)
	}
	return products, nil
}

func (s *Store) UpsertProducts(ctx context.Context, products []domain.Product) error {
	query := `
		INSERT INTO products (
			code, name, purchase_price, purchase_price_vat,
			sale_price, sale_price_vat, site_price,
			profit_amount, profit_pct, competitor_prices,
			group_key, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
		ON CONFLICT (code) DO UPDATE SET
			name = EXCLUDED.name,
			purchase_price = EXCLUDED.purchase_price,
			purchase_price_vat = EXCLUDED.purchase_price_vat,
			sale_price = EXCLUDED.sale_price,
			sale_price_vat = EXCLUDED.sale_price_vat,
			site_price = EXCLUDED.site_price,
			profit_amount = EXCLUDED.profit_amount,
			profit_pct = EXCLUDED.profit_pct,
			competitor_prices = EXCLUDED.competitor_prices,
			group_key = CASE
				WHEN EXCLUDED.group_key <> '' THEN EXCLUDED.group_key
				ELSE products.group_key
			END,
			updated_at = NOW()
	`

	err := s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		stmt, err := tx.PreparexContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare product upsert: %w", err)
		}
		defer stmt.Close()

		for _, p := range products {
			var competitorJSON []byte
			if len(p.CompetitorPrices) > 0 {
				competitorJSON, err = json.Marshal(p.CompetitorPrices)
				if err != nil {
					return fmt.Errorf("encoding competitor prices for %s: %w", p.Code, err)
				}
			}
			if _, err := stmt.ExecContext(ctx,
				p.Code, p.Name,
				p.PurchasePrice, p.PurchasePriceVAT,
				p.SalePrice, p.SalePriceVAT, p.SitePrice,
				p.ProfitAmount, p.ProfitPct, competitorJSON,
				p.GroupKey,
			); err != nil {
				return fmt.Errorf("failed to upsert product %s: %w", p.Code, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: upserting products: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *Store) ListMovements(ctx context.Context) ([]domain.StockMovement, error) {
	query := `
		SELECT code, window_tag, name, opening_stock, inflow, outflow,
		       closing_stock, created_at
		FROM stock_movements
		ORDER BY window_tag, code
	`

	var movements []domain.StockMovement
	if err := s.db.SelectContext(ctx, &movements, query); err != nil {
		return nil, fmt.Errorf("%w: listing movements: %v", domain.ErrStoreUnavailable, err)
	}
	return movements, nil
}

func (s *Store) ReplaceWindow(ctx context.Context, windowTag string, movements []domain.StockMovement) error {
	insert := `
		INSERT INTO stock_movements (
			code, window_tag, name, opening_stock, inflow, outflow,
			closing_stock, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (code, window_tag) DO UPDATE SET
			name = EXCLUDED.name,
			opening_stock = EXCLUDED.opening_stock,
			inflow = EXCLUDED.inflow,
			outflow = EXCLUDED.outflow,
			closing_stock = EXCLUDED.closing_stock,
			created_at = NOW()
	`

	err := s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		// Re-import supersedes the window wholesale.
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM stock_movements WHERE window_tag = $1`, windowTag); err != nil {
			return fmt.Errorf("failed to clear window %s: %w", windowTag, err)
		}

		stmt, err := tx.PreparexContext(ctx, insert)
		if err != nil {
			return fmt.Errorf("failed to prepare movement insert: %w", err)
		}
		defer stmt.Close()

		for _, m := range movements {
			if _, err := stmt.ExecContext(ctx,
				m.Code, windowTag, m.Name,
				m.OpeningStock, m.Inflow, m.Outflow, m.ClosingStock,
			); err != nil {
				return fmt.Errorf("failed to insert movement %s/%s: %w", m.Code, windowTag, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: replacing window %s: %v", domain.ErrStoreUnavailable, windowTag, err)
	}
	return nil
}
