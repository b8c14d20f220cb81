package catalog

import (
	"context"
	"sort"
	"sync"
)

var _ Repository = (*MemoryRepository)(nil)

// MemoryRepository is an in-memory catalog, used by the demo binary and as
// a test double. Safe for concurrent readers.
type MemoryRepository struct {
	mu   sync.RWMutex
	byID map[string]Product
}

// NewMemoryRepository returns a repository seeded with the given products.
func NewMemoryRepository(products ...Product) *MemoryRepository {
	byID := make(map[string]Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return &MemoryRepository{byID: byID}
}

// Put inserts or replaces a product.
func (r *MemoryRepository) Put(p Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[p.ID] = p
}

// List returns all products ordered by ID.
func (r *MemoryRepository) List(_ context.Context) ([]Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	products := make([]Product, 0, len(r.byID))
	for _, p := range r.byID {
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products, nil
}

// GetByID returns a single product or ErrNotFound.
func (r *MemoryRepository) GetByID(_ context.Context, id string) (*Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

// GetByIDs returns the products that exist among the given IDs. Missing IDs
// are skipped, not an error; callers detect absence by comparing lengths.
func (r *MemoryRepository) GetByIDs(_ context.Context, ids []string) ([]Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	products := make([]Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.byID[id]; ok {
			products = append(products, p)
		}
	}
	return products, nil
}
