package ui

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/travelexperts/catalog/internal/events"
	"github.com/travelexperts/catalog/internal/product"
)

func mountList(t *testing.T, gw *fakeGateway) (*Loop, *events.Bus, *ListView) {
	t.Helper()
	loop := NewLoop(16)
	bus := events.NewBus(events.ProductsChanged)
	v := NewListView(loop, gw, bus, quietLogger)
	v.Mount(context.Background())
	t.Cleanup(v.Dispose)
	return loop, bus, v
}

func TestListViewShowsDecodedListInOrder(t *testing.T) {
	gw := newFakeGateway(
		product.Product{ID: 1, Name: "Tour A"},
		product.Product{ID: 2, Name: "Tour B"},
	)
	loop, _, v := mountList(t, gw)

	if v.State() != Loading {
		t.Fatalf("expected loading after mount, got %s", v.State())
	}
	if v.Fetches() != 1 || v.Generation() != 0 {
		t.Errorf("expected initial fetch for generation 0, got fetches=%d gen=%d", v.Fetches(), v.Generation())
	}

	waitFor(t, loop, func() bool { return v.State() == Ready })

	got := v.Products()
	if len(got) != 2 || got[0].Name != "Tour A" || got[1].Name != "Tour B" {
		t.Errorf("expected [Tour A, Tour B], got %+v", got)
	}
	if v.Err() != nil {
		t.Errorf("unexpected error: %v", v.Err())
	}
}

func TestListViewFetchesOncePerGeneration(t *testing.T) {
	gw := newFakeGateway(product.Product{ID: 1, Name: "Tour A"})
	loop, bus, v := mountList(t, gw)
	waitFor(t, loop, func() bool { return v.State() == Ready })

	for i := 0; i < 3; i++ {
		bus.Publish()
		if v.State() != Loading {
			t.Fatalf("publish %d: expected loading, got %s", i, v.State())
		}
		if len(v.Products()) != 0 {
			t.Errorf("publish %d: prior list must be discarded", i)
		}
		waitFor(t, loop, func() bool { return v.State() == Ready })
	}

	if v.Fetches() != 4 {
		t.Errorf("expected 4 fetches (mount + 3 publishes), got %d", v.Fetches())
	}
	if v.Generation() != 3 {
		t.Errorf("expected generation 3, got %d", v.Generation())
	}
	if list, _, _, _ := gw.calls(); list != 4 {
		t.Errorf("expected 4 list calls, got %d", list)
	}
}

func TestListViewFailureEndsReadyAndEmpty(t *testing.T) {
	gw := newFakeGateway(product.Product{ID: 1, Name: "Tour A"})
	loop, bus, v := mountList(t, gw)
	waitFor(t, loop, func() bool { return v.State() == Ready })

	boom := errors.New("connection refused")
	gw.mu.Lock()
	gw.listErr = boom
	gw.mu.Unlock()

	bus.Publish()
	waitFor(t, loop, func() bool { return v.State() == Ready })

	if len(v.Products()) != 0 {
		t.Errorf("expected empty list after failure, got %+v", v.Products())
	}
	if !errors.Is(v.Err(), boom) {
		t.Errorf("expected fetch error recorded, got %v", v.Err())
	}
}

func TestListViewNewerGenerationWins(t *testing.T) {
	gw := newFakeGateway(product.Product{ID: 1, Name: "Tour A"})
	gw.gate = make(chan struct{})
	loop, bus, v := mountList(t, gw)

	// Replace the slow initial fetch before it answers.
	bus.Publish()
	gw.mu.Lock()
	gw.products = append(gw.products, product.Product{ID: 2, Name: "Tour B"})
	gw.mu.Unlock()
	close(gw.gate)

	waitFor(t, loop, func() bool { return v.State() == Ready })
	drain(loop, 20*time.Millisecond)

	if v.Generation() != 1 {
		t.Errorf("expected generation 1, got %d", v.Generation())
	}
	if got := v.Products(); len(got) != 2 {
		t.Errorf("expected newest list, got %+v", got)
	}
}

func TestListViewDisposeStopsUpdates(t *testing.T) {
	gw := newFakeGateway(product.Product{ID: 1, Name: "Tour A"})
	gw.gate = make(chan struct{})
	loop, bus, v := mountList(t, gw)

	v.Dispose()
	close(gw.gate)
	drain(loop, 20*time.Millisecond)

	if v.State() != Loading {
		t.Errorf("disposed view must not transition, got %s", v.State())
	}
	bus.Publish()
	if v.Fetches() != 1 {
		t.Errorf("disposed view must not refetch, got %d fetches", v.Fetches())
	}
	if bus.Subscribers() != 0 {
		t.Errorf("expected view to unsubscribe")
	}
}

func TestListViewOnChange(t *testing.T) {
	gw := newFakeGateway()
	loop := NewLoop(4)
	bus := events.NewBus(events.ProductsChanged)
	v := NewListView(loop, gw, bus, quietLogger)
	var states []State
	v.OnChange = func() { states = append(states, v.State()) }

	v.Mount(context.Background())
	defer v.Dispose()
	waitFor(t, loop, func() bool { return v.State() == Ready })

	if len(states) != 2 || states[0] != Loading || states[1] != Ready {
		t.Errorf("expected [loading ready], got %v", states)
	}
}
