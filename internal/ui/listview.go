package ui

import (
	"context"
	"log/slog"

	"github.com/travelexperts/catalog/internal/events"
	"github.com/travelexperts/catalog/internal/product"
)

// Lister fetches the full product list.
type Lister interface {
	ListProducts(ctx context.Context) ([]product.Product, error)
}

// State is the list view's load state.
type State int

const (
	Loading State = iota
	Ready
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	default:
		return "unknown"
	}
}

// ListView shows the most recently fetched products. It re-fetches the whole
// list once per products-changed generation and never caches.
type ListView struct {
	loop   *Loop
	source Lister
	bus    *events.Bus
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	unsub  func()
	task   *Task

	state    State
	products []product.Product
	err      error
	gen      uint64
	fetches  int

	// OnChange is called on the loop after every state transition.
	OnChange func()
}

// NewListView creates an unmounted list view in the Loading state.
func NewListView(loop *Loop, source Lister, bus *events.Bus, logger *slog.Logger) *ListView {
	if logger == nil {
		logger = slog.Default()
	}
	return &ListView{
		loop:   loop,
		source: source,
		bus:    bus,
		logger: logger.With("component", "product_list"),
		state:  Loading,
	}
}

// Mount subscribes to the bus and starts the fetch for the current generation.
func (v *ListView) Mount(ctx context.Context) {
	v.ctx, v.cancel = context.WithCancel(ctx)
	v.unsub = v.bus.Subscribe(v.refresh)
	v.refresh(v.bus.Generation())
}

// Dispose unsubscribes and cancels any in-flight fetch.
func (v *ListView) Dispose() {
	if v.unsub != nil {
		v.unsub()
	}
	if v.cancel != nil {
		v.cancel()
	}
}

// refresh discards the current list and fetches generation gen.
func (v *ListView) refresh(gen uint64) {
	if v.ctx == nil || v.ctx.Err() != nil {
		return
	}
	if v.task != nil {
		v.task.Cancel()
	}

	v.state = Loading
	v.products = nil
	v.err = nil
	v.gen = gen
	v.fetches++
	v.changed()

	v.task = Go(v.loop, v.ctx, v.source.ListProducts, func(list []product.Product, err error) {
		v.task = nil
		v.state = Ready
		if err != nil {
			v.logger.Warn("failed to fetch products", "generation", gen, "err", err)
			v.products = []product.Product{}
			v.err = err
		} else {
			v.logger.Debug("products fetched", "generation", gen, "count", len(list))
			v.products = list
		}
		v.changed()
	})
}

func (v *ListView) changed() {
	if v.OnChange != nil {
		v.OnChange()
	}
}

// State returns the current load state.
func (v *ListView) State() State { return v.state }

// Products returns a copy of the displayed list; empty while loading.
func (v *ListView) Products() []product.Product {
	out := make([]product.Product, len(v.products))
	copy(out, v.products)
	return out
}

// Err returns the error of the last fetch, if it failed.
func (v *ListView) Err() error { return v.err }

// Generation returns the generation of the most recent fetch.
func (v *ListView) Generation() uint64 { return v.gen }

// Fetches returns how many fetches have been started.
func (v *ListView) Fetches() int { return v.fetches }
