package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/servicepack/restock-backend/internal/domain"
)

// MemoryStore is an in-process Store used by tests and the CLI's one-shot
// mode. Listing returns copies in deterministic key order.
type MemoryStore struct {
	mu        sync.RWMutex
	products  map[string]domain.Product
	movements map[string]map[string]domain.StockMovement // window -> code -> movement
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products:  make(map[string]domain.Product),
		movements: make(map[string]map[string]domain.StockMovement),
	}
}

func (s *MemoryStore) ListProducts(ctx context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (s *MemoryStore) UpsertProducts(ctx context.Context, products []domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for _, p := range products {
		if existing, ok := s.products[p.Code]; ok {
			p.CreatedAt = existing.CreatedAt
		} else {
			p.CreatedAt = now
		}
		p.UpdatedAt = now
		s.products[p.Code] = p
	}
	return nil
}

func (s *MemoryStore) ListMovements(ctx context.Context) ([]domain.StockMovement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.StockMovement
	windows := make([]string, 0, len(s.movements))
	for w := range s.movements {
		windows = append(windows, w)
	}
	sort.Strings(windows)

	for _, w := range windows {
		codes := make([]string, 0, len(s.movements[w]))
		for c := range s.movements[w] {
			codes = append(codes, c)
		}
		sort.Strings(codes)
		for _, c := range codes {
			out = append(out, s.movements[w][c])
		}
	}
	return out, nil
}

func (s *MemoryStore) ReplaceWindow(ctx context.Context, windowTag string, movements []domain.StockMovement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	window := make(map[string]domain.StockMovement, len(movements))
	now := time.Now()
	for _, m := range movements {
		m.WindowTag = windowTag
		m.CreatedAt = now
		window[m.Code] = m
	}
	s.movements[windowTag] = window
	return nil
}

var _ Store = (*MemoryStore)(nil)
