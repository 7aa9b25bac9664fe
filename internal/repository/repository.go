package repository

import (
	"context"

	"github.com/servicepack/restock-backend/internal/domain"
)

// ProductStore is the persistence contract for catalog entries. Exactly one
// row exists per code; UpsertProducts is atomic per call as far as the
// implementation can make it.
type ProductStore interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	UpsertProducts(ctx context.Context, products []domain.Product) error
}

// MovementStore is the persistence contract for consolidated stock
// movements, keyed by (code, window tag). Re-importing a window supersedes
// it wholesale rather than merging.
type MovementStore interface {
	ListMovements(ctx context.Context) ([]domain.StockMovement, error)
	ReplaceWindow(ctx context.Context, windowTag string, movements []domain.StockMovement) error
}

// Store bundles both entity stores; the pipeline only ever needs read-all
// and upsert-by-key.
type Store interface {
	ProductStore
	MovementStore
}
