package ui

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/travelexperts/catalog/internal/product"
	"github.com/travelexperts/catalog/internal/testutil"
)

// fakeGateway is an in-memory Gateway. When gate is non-nil every call waits
// for it to be closed (or for ctx) before answering.
type fakeGateway struct {
	mu       sync.Mutex
	products []product.Product
	nextID   int
	listErr  error
	mutErr   error
	gate     chan struct{}

	listCalls int
	creates   []string
	updates   []product.Product
	deletes   []int
}

func newFakeGateway(products ...product.Product) *fakeGateway {
	next := 1
	for _, p := range products {
		next = max(next, p.ID+1)
	}
	return &fakeGateway{products: products, nextID: next}
}

func (g *fakeGateway) wait(ctx context.Context) error {
	g.mu.Lock()
	gate := g.gate
	g.mu.Unlock()
	if gate == nil {
		return nil
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *fakeGateway) ListProducts(ctx context.Context) ([]product.Product, error) {
	if err := g.wait(ctx); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.listCalls++
	if g.listErr != nil {
		return nil, g.listErr
	}
	out := make([]product.Product, len(g.products))
	copy(out, g.products)
	return out, nil
}

func (g *fakeGateway) CreateProduct(ctx context.Context, name string) error {
	if err := g.wait(ctx); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.creates = append(g.creates, name)
	if g.mutErr != nil {
		return g.mutErr
	}
	g.products = append(g.products, product.Product{ID: g.nextID, Name: name})
	g.nextID++
	return nil
}

func (g *fakeGateway) UpdateProduct(ctx context.Context, id int, name string) error {
	if err := g.wait(ctx); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.updates = append(g.updates, product.Product{ID: id, Name: name})
	if g.mutErr != nil {
		return g.mutErr
	}
	for i := range g.products {
		if g.products[i].ID == id {
			g.products[i].Name = name
		}
	}
	return nil
}

func (g *fakeGateway) DeleteProduct(ctx context.Context, id int) error {
	if err := g.wait(ctx); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.deletes = append(g.deletes, id)
	if g.mutErr != nil {
		return g.mutErr
	}
	for i := range g.products {
		if g.products[i].ID == id {
			g.products = append(g.products[:i], g.products[i+1:]...)
			break
		}
	}
	return nil
}

func (g *fakeGateway) calls() (list int, creates []string, updates []product.Product, deletes []int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.listCalls, append([]string(nil), g.creates...), append([]product.Product(nil), g.updates...), append([]int(nil), g.deletes...)
}

// waitFor steps the loop until cond holds, failing the test after 2s.
func waitFor(t *testing.T, loop *Loop, cond func() bool) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for !cond() {
		if err := loop.Step(ctx); err != nil {
			t.Fatalf("condition not reached: %v", err)
		}
	}
}

// drain runs posted closures until none arrives within d.
func drain(loop *Loop, d time.Duration) {
	for {
		ctx, cancel := context.WithTimeout(context.Background(), d)
		err := loop.Step(ctx)
		cancel()
		if err != nil {
			return
		}
	}
}

var quietLogger = testutil.DiscardLogger()
