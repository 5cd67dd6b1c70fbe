package ui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/travelexperts/catalog/internal/events"
)

// Gateway is everything the screen needs from the remote service.
type Gateway interface {
	Lister
	Mutator
}

// ErrUnknownCommand is returned by Dispatch for unrecognized input.
var ErrUnknownCommand = errors.New("unknown command")

// Screen composes the three forms and the product list. Every successful
// mutation publishes the products-changed signal, which the list observes.
type Screen struct {
	loop   *Loop
	bus    *events.Bus
	out    io.Writer
	logger *slog.Logger

	Add    *AddForm
	Update *UpdateForm
	Delete *DeleteForm
	List   *ListView

	ctx    context.Context
	cancel context.CancelFunc

	// onIdle, when set, runs once no request is outstanding.
	onIdle func()
}

// NewScreen wires the forms and list to gw. Nothing is fetched until Mount.
func NewScreen(ctx context.Context, loop *Loop, gw Gateway, logger *slog.Logger, out io.Writer) *Screen {
	if logger == nil {
		logger = slog.Default()
	}
	sctx, cancel := context.WithCancel(ctx)
	bus := events.NewBus(events.ProductsChanged)
	notify := func() { bus.Publish() }

	s := &Screen{
		loop:   loop,
		bus:    bus,
		out:    out,
		logger: logger,
		Add:    NewAddForm(sctx, loop, gw, logger, notify),
		Update: NewUpdateForm(sctx, loop, gw, logger, notify),
		Delete: NewDeleteForm(sctx, loop, gw, logger, notify),
		List:   NewListView(loop, gw, bus, logger),
		ctx:    sctx,
		cancel: cancel,
	}
	s.Add.OnChange = s.changed
	s.Update.OnChange = s.changed
	s.Delete.OnChange = s.changed
	s.List.OnChange = s.changed
	return s
}

// Bus returns the products-changed signal the screen publishes on.
func (s *Screen) Bus() *events.Bus { return s.bus }

// Mount starts the initial list fetch.
func (s *Screen) Mount() {
	s.List.Mount(s.ctx)
}

// Close tears down the list and every form, cancelling in-flight requests.
func (s *Screen) Close() {
	s.List.Dispose()
	s.Add.Close()
	s.Update.Close()
	s.Delete.Close()
	s.cancel()
}

// idle reports whether no submission is in flight and the list has loaded.
func (s *Screen) idle() bool {
	return !s.Add.InFlight() && !s.Update.InFlight() && !s.Delete.InFlight() &&
		s.List.State() == Ready
}

// whenIdle runs fn now if the screen is idle, otherwise after the state
// change that makes it so.
func (s *Screen) whenIdle(fn func()) {
	s.onIdle = fn
	s.checkIdle()
}

func (s *Screen) changed() {
	s.Render()
	s.checkIdle()
}

func (s *Screen) checkIdle() {
	if s.onIdle == nil || !s.idle() {
		return
	}
	fn := s.onIdle
	s.onIdle = nil
	fn()
}

// Render writes one plain-text frame of the whole screen.
func (s *Screen) Render() {
	if s.out == nil {
		return
	}
	var b strings.Builder

	b.WriteString("\n== Add product ==\n")
	fmt.Fprintf(&b, "  name: [%s]\n", s.Add.Name())
	writeSubmit(&b, s.Add.Label(), s.Add.CanSubmit(), s.Add.LastErr())

	b.WriteString("== Update product ==\n")
	fmt.Fprintf(&b, "  id: [%s]  name: [%s]\n", s.Update.ID(), s.Update.Name())
	writeSubmit(&b, s.Update.Label(), s.Update.CanSubmit(), s.Update.LastErr())

	b.WriteString("== Delete product ==\n")
	fmt.Fprintf(&b, "  id: [%s]\n", s.Delete.ID())
	writeSubmit(&b, s.Delete.Label(), s.Delete.CanSubmit(), s.Delete.LastErr())

	b.WriteString("== Products ==\n")
	switch {
	case s.List.State() == Loading:
		b.WriteString("  loading...\n")
	case len(s.List.Products()) == 0:
		b.WriteString("  (no products)\n")
	default:
		for _, p := range s.List.Products() {
			fmt.Fprintf(&b, "  %s\n", p.Name)
		}
	}

	io.WriteString(s.out, b.String())
}

func writeSubmit(b *strings.Builder, label string, enabled bool, lastErr error) {
	state := ""
	if !enabled {
		state = " (disabled)"
	}
	fmt.Fprintf(b, "  [%s]%s\n", label, state)
	if lastErr != nil {
		fmt.Fprintf(b, "  last request failed: %v\n", lastErr)
	}
}

// Dispatch applies one line of interactive input. It reports quit=true for
// "quit" and returns submission errors unchanged.
//
//	add [name]             set the add form's name (if given) and submit
//	update [id [name...]]  set the update form's fields (if given) and submit
//	delete [id]            set the delete form's id (if given) and submit
//	refresh                publish products-changed
//	help                   list commands
//	quit                   leave
func (s *Screen) Dispatch(line string) (quit bool, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	args := fields[1:]

	switch fields[0] {
	case "add":
		if len(args) > 0 {
			s.Add.SetName(strings.Join(args, " "))
		}
		return false, s.Add.Submit()
	case "update":
		if len(args) > 0 {
			s.Update.SetID(args[0])
		}
		if len(args) > 1 {
			s.Update.SetName(strings.Join(args[1:], " "))
		}
		return false, s.Update.Submit()
	case "delete":
		if len(args) > 0 {
			s.Delete.SetID(args[0])
		}
		return false, s.Delete.Submit()
	case "refresh":
		s.bus.Publish()
		return false, nil
	case "help":
		if s.out != nil {
			io.WriteString(s.out, "commands: add [name] | update [id [name]] | delete [id] | refresh | help | quit\n")
		}
		return false, nil
	case "quit", "exit":
		return true, nil
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownCommand, fields[0])
	}
}

// Run mounts the screen and drives it from in until "quit" or ctx is done.
// At EOF it keeps running until submitted requests and the refresh they
// trigger have completed. It owns the loop for its duration; input is read
// on a separate goroutine and posted to the loop line by line.
func (s *Screen) Run(ctx context.Context, in io.Reader) error {
	ctx, stop := context.WithCancel(ctx)
	defer stop()

	s.loop.Post(func() {
		s.Mount()
		s.Render()
	})

	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			line := scanner.Text()
			if !s.loop.Post(func() { s.handleLine(line, stop) }) {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			s.logger.Error("reading input", "err", err)
		}
		s.loop.Post(func() { s.whenIdle(stop) })
	}()

	err := s.loop.Run(ctx)
	s.Close()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (s *Screen) handleLine(line string, stop func()) {
	quit, err := s.Dispatch(line)
	if err != nil && s.out != nil {
		fmt.Fprintf(s.out, "error: %v\n", err)
	}
	if quit {
		stop()
	}
}
