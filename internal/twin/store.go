package twin

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/travelexperts/catalog/internal/product"
)

// Store is a thread-safe, in-memory product table. Identifiers are assigned
// sequentially and never reused until Reset.
type Store struct {
	mu     sync.RWMutex
	items  map[int]product.Product
	order  []int // insertion order for deterministic listing
	nextID int
}

// NewStore creates an empty store whose first identifier is 1.
func NewStore() *Store {
	return &Store{
		items:  make(map[int]product.Product),
		nextID: 1,
	}
}

// Create assigns the next identifier to a product named name.
func (s *Store) Create(name string) product.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := product.Product{ID: s.nextID, Name: name}
	s.nextID++
	s.items[p.ID] = p
	s.order = append(s.order, p.ID)
	return p
}

// Get returns the product with the given id.
func (s *Store) Get(id int) (product.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.items[id]
	return p, ok
}

// Update renames an existing product. It reports whether the id existed.
func (s *Store) Update(id int, name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return false
	}
	s.items[id] = product.Product{ID: id, Name: name}
	return true
}

// Delete removes a product. It reports whether the id existed.
func (s *Store) Delete(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return false
	}
	delete(s.items, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// List returns all products in insertion order.
func (s *Store) List() []product.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]product.Product, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.items[id])
	}
	return out
}

// Count returns the number of stored products.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Reset clears all products and restarts identifiers at 1.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[int]product.Product)
	s.order = nil
	s.nextID = 1
}

// stateSnapshot is the JSON form used by /admin/state and seed files.
type stateSnapshot struct {
	Products []product.Product `json:"products"`
}

// Snapshot returns the full state as a JSON-serializable value.
func (s *Store) Snapshot() any {
	return stateSnapshot{Products: s.List()}
}

// LoadState replaces the full state from a JSON body. Products keep the
// order given; the next identifier follows the largest loaded one.
func (s *Store) LoadState(data []byte) error {
	var snap stateSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return err
	}

	items := make(map[int]product.Product, len(snap.Products))
	order := make([]int, 0, len(snap.Products))
	maxID := 0
	for _, p := range snap.Products {
		if p.ID <= 0 {
			return fmt.Errorf("product %q: ProductId must be positive", p.Name)
		}
		if _, dup := items[p.ID]; dup {
			return fmt.Errorf("duplicate ProductId %d", p.ID)
		}
		items[p.ID] = p
		order = append(order, p.ID)
		maxID = max(maxID, p.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = items
	s.order = order
	s.nextID = maxID + 1
	return nil
}
