package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/travelexperts/catalog/internal/product"
)

var (
	// ErrNotReady is returned by Submit when a required field is blank.
	ErrNotReady = errors.New("required field is blank")
	// ErrFormClosed is returned by Submit after Close.
	ErrFormClosed = errors.New("form is closed")
)

// BusyLabel replaces a form's submit label while a request is outstanding.
const BusyLabel = "…"

// Mutator issues the three catalog write operations.
type Mutator interface {
	CreateProduct(ctx context.Context, name string) error
	UpdateProduct(ctx context.Context, id int, name string) error
	DeleteProduct(ctx context.Context, id int) error
}

// form is the state every mutation form shares: its lifetime, the in-flight
// count, and the last completion error.
type form struct {
	loop      *Loop
	gw        Mutator
	logger    *slog.Logger
	label     string
	onSuccess func()

	ctx    context.Context
	cancel context.CancelFunc

	inFlight int
	lastErr  error

	// OnChange is called on the loop whenever the form's visible state changes.
	OnChange func()
}

func newForm(ctx context.Context, loop *Loop, gw Mutator, logger *slog.Logger, name, label string, onSuccess func()) form {
	if logger == nil {
		logger = slog.Default()
	}
	fctx, cancel := context.WithCancel(ctx)
	return form{
		loop:      loop,
		gw:        gw,
		logger:    logger.With("component", name),
		label:     label,
		onSuccess: onSuccess,
		ctx:       fctx,
		cancel:    cancel,
	}
}

// InFlight reports whether any submitted request is still outstanding.
func (f *form) InFlight() bool { return f.inFlight > 0 }

// LastErr returns the error of the most recent failed submission, or nil.
func (f *form) LastErr() error { return f.lastErr }

// Label returns the submit label, or BusyLabel while in flight.
func (f *form) Label() string {
	if f.InFlight() {
		return BusyLabel
	}
	return f.label
}

// Close cancels outstanding requests. No completion reaches the form afterwards.
func (f *form) Close() { f.cancel() }

func (f *form) closed() bool { return f.ctx.Err() != nil }

// reject records a local failure that never reached the network.
func (f *form) reject(err error) error {
	f.lastErr = err
	f.logger.Warn("submission rejected", "err", err)
	f.changed()
	return err
}

// dispatch runs call as a task tied to the form's lifetime.
func (f *form) dispatch(call func(ctx context.Context) error) {
	f.inFlight++
	f.lastErr = nil
	f.changed()

	Go(f.loop, f.ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, call(ctx)
	}, func(_ struct{}, err error) {
		f.inFlight--
		if err != nil {
			f.lastErr = err
			f.logger.Warn("request failed", "err", err)
		} else if f.onSuccess != nil {
			f.onSuccess()
		}
		f.changed()
	})
}

func (f *form) changed() {
	if f.OnChange != nil {
		f.OnChange()
	}
}

// AddForm creates a product from a name field.
type AddForm struct {
	form
	name string
}

// NewAddForm creates an AddForm whose requests live no longer than ctx.
func NewAddForm(ctx context.Context, loop *Loop, gw Mutator, logger *slog.Logger, onSuccess func()) *AddForm {
	return &AddForm{form: newForm(ctx, loop, gw, logger, "add_form", "Add Product", onSuccess)}
}

// SetName replaces the name field.
func (f *AddForm) SetName(s string) { f.name = s; f.changed() }

// Name returns the name field as typed.
func (f *AddForm) Name() string { return f.name }

// CanSubmit reports whether the name field is non-blank.
func (f *AddForm) CanSubmit() bool { return !product.IsBlank(f.name) }

// Submit sends a create request. The field is not cleared afterwards.
func (f *AddForm) Submit() error {
	if f.closed() {
		return ErrFormClosed
	}
	if !f.CanSubmit() {
		return ErrNotReady
	}
	name := f.name
	f.dispatch(func(ctx context.Context) error {
		return f.gw.CreateProduct(ctx, name)
	})
	return nil
}

// UpdateForm renames an existing product.
type UpdateForm struct {
	form
	id   string
	name string
}

// NewUpdateForm creates an UpdateForm whose requests live no longer than ctx.
func NewUpdateForm(ctx context.Context, loop *Loop, gw Mutator, logger *slog.Logger, onSuccess func()) *UpdateForm {
	return &UpdateForm{form: newForm(ctx, loop, gw, logger, "update_form", "Update Product", onSuccess)}
}

// SetID replaces the identifier field.
func (f *UpdateForm) SetID(s string) { f.id = s; f.changed() }

// SetName replaces the new-name field.
func (f *UpdateForm) SetName(s string) { f.name = s; f.changed() }

// ID returns the identifier field as typed.
func (f *UpdateForm) ID() string { return f.id }

// Name returns the new-name field as typed.
func (f *UpdateForm) Name() string { return f.name }

// CanSubmit reports whether both fields are non-blank.
func (f *UpdateForm) CanSubmit() bool {
	return !product.IsBlank(f.id) && !product.IsBlank(f.name)
}

// Submit parses the identifier and sends an update request.
func (f *UpdateForm) Submit() error {
	if f.closed() {
		return ErrFormClosed
	}
	if !f.CanSubmit() {
		return ErrNotReady
	}
	id, err := product.ParseID(f.id)
	if err != nil {
		return f.reject(fmt.Errorf("update product: %w", err))
	}
	name := f.name
	f.dispatch(func(ctx context.Context) error {
		return f.gw.UpdateProduct(ctx, id, name)
	})
	return nil
}

// DeleteForm deletes a product by identifier.
type DeleteForm struct {
	form
	id string
}

// NewDeleteForm creates a DeleteForm whose requests live no longer than ctx.
func NewDeleteForm(ctx context.Context, loop *Loop, gw Mutator, logger *slog.Logger, onSuccess func()) *DeleteForm {
	return &DeleteForm{form: newForm(ctx, loop, gw, logger, "delete_form", "Delete Product", onSuccess)}
}

// SetID replaces the identifier field.
func (f *DeleteForm) SetID(s string) { f.id = s; f.changed() }

// ID returns the identifier field as typed.
func (f *DeleteForm) ID() string { return f.id }

// CanSubmit reports whether the identifier field is non-blank.
func (f *DeleteForm) CanSubmit() bool { return !product.IsBlank(f.id) }

// Submit parses the identifier and sends a delete request.
func (f *DeleteForm) Submit() error {
	if f.closed() {
		return ErrFormClosed
	}
	if !f.CanSubmit() {
		return ErrNotReady
	}
	id, err := product.ParseID(f.id)
	if err != nil {
		return f.reject(fmt.Errorf("delete product: %w", err))
	}
	f.dispatch(func(ctx context.Context) error {
		return f.gw.DeleteProduct(ctx, id)
	})
	return nil
}
