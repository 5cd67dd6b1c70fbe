// Package events provides the "products changed" signal that connects the
// mutation forms to the list view.
package events

import "sync"

// Bus publishes a named change signal with a monotonically increasing
// generation. Generation 0 means nothing has changed yet.
type Bus struct {
	mu     sync.Mutex
	name   string
	gen    uint64
	nextID int
	subs   []subscription
}

type subscription struct {
	id int
	fn func(gen uint64)
}

// ProductsChanged is the signal name used by the catalog screen.
const ProductsChanged = "products.changed"

// NewBus creates a Bus for the named signal.
func NewBus(name string) *Bus {
	return &Bus{name: name}
}

// Name returns the signal name.
func (b *Bus) Name() string {
	return b.name
}

// Generation returns the current generation.
func (b *Bus) Generation() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.gen
}

// Publish advances the generation and calls every subscriber with it, in
// subscription order. Subscribers run on the caller's goroutine, outside the lock.
func (b *Bus) Publish() uint64 {
	b.mu.Lock()
	b.gen++
	gen := b.gen
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.Unlock()

	for _, s := range subs {
		s.fn(gen)
	}
	return gen
}

// Subscribe registers fn and returns a func that removes it. Calling the
// returned func more than once is a no-op.
func (b *Bus) Subscribe(fn func(gen uint64)) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			for i, s := range b.subs {
				if s.id == id {
					b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
					break
				}
			}
		})
	}
}

// Subscribers returns the number of registered subscribers.
func (b *Bus) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
