package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/servicepack/restock-backend/internal/domain"
	"github.com/servicepack/restock-backend/internal/grouping"
	"github.com/servicepack/restock-backend/internal/ingest"
	"github.com/servicepack/restock-backend/internal/recommend"
	"github.com/servicepack/restock-backend/internal/repository"
)

// RestockService orchestrates the batch pipeline: import, consolidate,
// resolve groups, recommend. It owns no session state — every run works on
// explicit arguments plus the store's current snapshot, and it performs no
// locking of its own. Concurrent runs against the same store must be
// serialized by the caller or by the store.
type RestockService struct {
	store        repository.Store
	recentWindow string
	totalWindow  string
	grouping     grouping.Options
}

// Option configures a RestockService.
type Option func(*RestockService)

// WithGroupingOptions overrides the default group resolution heuristics.
func WithGroupingOptions(opts grouping.Options) Option {
	return func(s *RestockService) { s.grouping = opts }
}

func NewRestockService(store repository.Store, recentWindow, totalWindow string, opts ...Option) *RestockService {
	s := &RestockService{
		store:        store,
		recentWindow: recentWindow,
		totalWindow:  totalWindow,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RecentWindow returns the window tag used for recent sales.
func (s *RestockService) RecentWindow() string { return s.recentWindow }

// TotalWindow returns the window tag used for full-period sales.
func (s *RestockService) TotalWindow() string { return s.totalWindow }

// ImportCatalog parses a raw catalog table and upserts its products by
// code. Explicit group keys from the table are kept; products without one
// are left for the group resolver.
func (s *RestockService) ImportCatalog(ctx context.Context, rows [][]string) (domain.ImportResult, error) {
	products, result, err := ingest.ImportCatalog(rows)
	if err != nil {
		return result, err
	}

	if err := s.store.UpsertProducts(ctx, products); err != nil {
		return result, err
	}

	log.Info().
		Int("imported", result.RowsImported).
		Int("skipped", result.RowsSkipped).
		Bool("positional_fallback", result.UsedPositionalFallback).
		Msg("catalog imported")

	return result, nil
}

// ImportMovements parses and consolidates a raw movement export, then
// replaces the given window in the store. Codes unknown to the catalog are
// reported on the result; they are synthesized at recommendation time.
func (s *RestockService) ImportMovements(ctx context.Context, rows [][]string, windowTag string) (domain.ImportResult, error) {
	movements, result, err := ingest.ImportMovements(rows, windowTag)
	if err != nil {
		return result, err
	}

	products, err := s.store.ListProducts(ctx)
	if err != nil {
		return result, err
	}
	known := make(map[string]bool, len(products))
	for _, p := range products {
		known[p.Code] = true
	}
	for _, m := range movements {
		if !known[m.Code] {
			result.NewCodes = append(result.NewCodes, m.Code)
		}
	}

	if err := s.store.ReplaceWindow(ctx, windowTag, movements); err != nil {
		return result, err
	}

	if result.UsedPositionalFallback {
		log.Warn().Str("window", windowTag).Msg("movement header resolved by fixed positions")
	}
	if len(result.ConflictCodes) > 0 {
		log.Warn().Strs("codes", result.ConflictCodes).
			Msg("duplicate movement rows disagreed on closing stock; max kept, review manually")
	}
	log.Info().
		Str("window", windowTag).
		Int("consolidated", result.RowsImported).
		Int("new_codes", len(result.NewCodes)).
		Msg("movements imported")

	return result, nil
}

// Recommend runs group resolution and the recommendation engine over the
// store's current snapshot. Group assignments (including synthesized
// products) are persisted so explicit keys survive, but the SKU grouping is
// recomputed on every run — recommendations always reflect the latest
// prices and movements.
func (s *RestockService) Recommend(ctx context.Context, coef recommend.Coefficients) ([]domain.Recommendation, error) {
	products, err := s.store.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	movements, err := s.store.ListMovements(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.requireWindow(movements, s.recentWindow); err != nil {
		return nil, err
	}
	if err := s.requireWindow(movements, s.totalWindow); err != nil {
		return nil, err
	}

	resolved := grouping.Resolve(products, movements, s.grouping)
	if len(resolved.Synthesized) > 0 {
		// Persist only the synthesized rows. Heuristically derived group
		// keys stay in this run's snapshot so the next run re-derives them
		// from fresh data instead of treating them as explicit.
		if err := s.store.UpsertProducts(ctx, resolved.Synthesized); err != nil {
			return nil, err
		}
		log.Info().Strs("codes", resolved.NewCodes).Msg("synthesized products for unknown movement codes")
	}

	engine := recommend.NewEngine(coef, s.recentWindow, s.totalWindow)
	recs := engine.Run(resolved.Products, movements)

	log.Info().
		Int("groups", len(recs)).
		Float64("coef_recent", coef.Recent).
		Float64("coef_total", coef.Total).
		Msg("recommendations computed")

	return recs, nil
}

func (s *RestockService) requireWindow(movements []domain.StockMovement, tag string) error {
	for _, m := range movements {
		if m.WindowTag == tag {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", domain.ErrWindowMissing, tag)
}
