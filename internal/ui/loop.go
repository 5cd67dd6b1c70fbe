// Package ui holds the catalog's view models: a single-threaded event loop,
// the product list view, the three mutation forms, and the screen that
// composes them.
//
// Every exported method of ListView, the forms, and Screen must be called on
// the loop's goroutine. Gateway calls run on their own goroutines and deliver
// completions back through Loop.Post.
package ui

import (
	"context"
	"errors"
	"sync"
)

// ErrLoopStopped is returned by Run and Step once the loop has been stopped.
var ErrLoopStopped = errors.New("ui loop stopped")

// Loop serializes UI work onto one goroutine.
type Loop struct {
	queue    chan func()
	stopped  chan struct{}
	stopOnce sync.Once
}

// NewLoop creates a loop whose queue holds up to buffer pending closures.
// The queue always holds at least one.
func NewLoop(buffer int) *Loop {
	buffer = max(buffer, 1)
	return &Loop{
		queue:   make(chan func(), buffer),
		stopped: make(chan struct{}),
	}
}

// Post enqueues fn. It blocks while the queue is full and returns false if
// the loop stopped first. Post must not be called from the loop goroutine
// with a full queue.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.stopped:
		return false
	default:
	}
	select {
	case l.queue <- fn:
		return true
	case <-l.stopped:
		return false
	}
}

// Run executes posted closures in order until ctx is done or Stop is called.
func (l *Loop) Run(ctx context.Context) error {
	defer l.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.stopped:
			return nil
		case fn := <-l.queue:
			fn()
		}
	}
}

// Step executes exactly one posted closure, waiting for it if necessary.
func (l *Loop) Step(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.stopped:
		return ErrLoopStopped
	case fn := <-l.queue:
		fn()
		return nil
	}
}

// Stop ends Run and makes further Posts fail. Pending closures are dropped.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() { close(l.stopped) })
}

// Task is one in-flight piece of work whose completion is delivered on a Loop.
type Task struct {
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// Cancel aborts the work and guarantees its completion callback never runs.
// It must be called on the loop goroutine for that guarantee to hold.
func (t *Task) Cancel() {
	t.cancel()
}

// Cancelled reports whether the task's context has been cancelled.
func (t *Task) Cancelled() bool {
	return t.ctx.Err() != nil
}

// Done is closed once the work function has returned.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Go runs work on a new goroutine and posts complete(result, err) to l.
// Cancelling owner or the returned Task suppresses complete: the context is
// checked before posting and again on the loop just before the call.
func Go[T any](l *Loop, owner context.Context, work func(ctx context.Context) (T, error), complete func(T, error)) *Task {
	ctx, cancel := context.WithCancel(owner)
	t := &Task{ctx: ctx, cancel: cancel, done: make(chan struct{})}

	go func() {
		v, err := work(ctx)
		close(t.done)
		if ctx.Err() != nil {
			cancel()
			return
		}
		posted := l.Post(func() {
			defer cancel()
			if ctx.Err() != nil {
				return
			}
			complete(v, err)
		})
		if !posted {
			cancel()
		}
	}()
	return t
}
