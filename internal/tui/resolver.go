package tui

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/ponto/internal/reconcile"
)

// Resolver asks about each unknown photo in a full-screen view.
type Resolver struct {
	input  io.Reader
	output io.Writer
}

var _ reconcile.Resolver = (*Resolver)(nil)

// Option configures a Resolver.
type Option func(*Resolver)

// WithIO replaces the terminal with the given streams.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(r *Resolver) {
		r.input = in
		r.output = out
	}
}

// NewResolver creates a TUI resolver.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve runs one program per photo and returns the decision taken in it.
func (r *Resolver) Resolve(ctx context.Context, item *reconcile.Item, total int, candidates []string) (reconcile.Decision, error) {
	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if r.input != nil {
		opts = append(opts, tea.WithInput(r.input))
	}
	if r.output != nil {
		opts = append(opts, tea.WithOutput(r.output))
	} else {
		opts = append(opts, tea.WithAltScreen())
	}

	final, err := tea.NewProgram(NewModel(item, total, candidates), opts...).Run()
	if err != nil {
		if ctx.Err() != nil {
			return reconcile.Decision{}, ctx.Err()
		}
		return reconcile.Decision{}, fmt.Errorf("failed to run TUI: %w", err)
	}

	m, ok := final.(Model)
	if !ok {
		return reconcile.Decision{}, fmt.Errorf("unexpected TUI model %T", final)
	}
	return m.Decision(), nil
}
