// Package store provides storage implementations for the product catalog.
package store

import (
	"context"
	"log/slog"
	"sync"

	"product_catalog/domain"
)

// InMemoryStore is a thread-safe in-memory domain.ProductStore. Products are
// kept in insertion order; each operation runs as one step under the lock.
type InMemoryStore struct {
	mu       sync.RWMutex
	products []domain.Product
	index    map[string]int
	logger   *slog.Logger
}

// NewInMemoryStore constructs a new InMemoryStore
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		index:  make(map[string]int),
		logger: slog.Default(),
	}
}

// compile-time assertion that InMemoryStore implements domain.ProductStore
var _ domain.ProductStore = (*InMemoryStore)(nil)

func (s *InMemoryStore) List(ctx context.Context) ([]domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Product, len(s.products))
	copy(out, s.products)
	return out, nil
}

func (s *InMemoryStore) Exists(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.index[id]
	return ok, nil
}

func (s *InMemoryStore) Get(ctx context.Context, id string) (domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return domain.Product{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[id]
	if !ok {
		return domain.Product{}, domain.NewProductNotFoundError(id)
	}
	return s.products[i], nil
}

func (s *InMemoryStore) Create(ctx context.Context, product domain.Product) (domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return domain.Product{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.index[product.ID]; exists {
		return domain.Product{}, domain.NewDuplicateProductError(product.ID)
	}
	s.index[product.ID] = len(s.products)
	s.products = append(s.products, product)
	s.logger.Debug("product stored", "product_id", product.ID, "count", len(s.products))
	return product, nil
}

func (s *InMemoryStore) Update(ctx context.Context, id string, patch domain.ProductPatch) (domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return domain.Product{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return domain.Product{}, domain.NewProductNotFoundError(id)
	}
	merged := patch.Apply(s.products[i])
	s.products[i] = merged
	return merged, nil
}

func (s *InMemoryStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return domain.NewProductNotFoundError(id)
	}
	s.products = append(s.products[:i], s.products[i+1:]...)
	delete(s.index, id)
	for j := i; j < len(s.products); j++ {
		s.index[s.products[j].ID] = j
	}
	return nil
}

// Seed appends products in order, skipping identifiers that are already
// stored. It returns how many products were added.
func (s *InMemoryStore) Seed(ctx context.Context, products []domain.Product) (int, error) {
	added := 0
	for _, p := range products {
		if _, err := s.Create(ctx, p); err != nil {
			if domain.IsDuplicateProductError(err) {
				s.logger.Warn("seed product skipped", "product_id", p.ID, "error", err)
				continue
			}
			return added, err
		}
		added++
	}
	return added, nil
}
