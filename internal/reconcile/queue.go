// Package reconcile routes unidentified faces through human confirmation.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/ponto/internal/face"
	"github.com/Veraticus/ponto/internal/model"
)

// State is the lifecycle position of a queued record.
type State int

const (
	StatePending State = iota
	StateResolved
	StateIgnored
)

func (s State) String() string {
	switch s {
	case StateResolved:
		return "resolved"
	case StateIgnored:
		return "ignored"
	default:
		return "pending"
	}
}

// Queue errors.
var (
	ErrQueueDrained = errors.New("no pending items")
	ErrEmptyName    = errors.New("employee name cannot be empty")
	ErrReservedName = errors.New("name is reserved for unidentified photos")
)

// Enroller persists a confirmed photo as a new reference for an employee.
type Enroller interface {
	EnrollPhoto(ctx context.Context, employeeName, photoPath string) error
}

// Item is one record awaiting a decision.
type Item struct {
	Record   *model.IdentificationRecord
	Position int
	State    State
}

// Summary counts items by state.
type Summary struct {
	Total    int
	Resolved int
	Ignored  int
	Pending  int
}

// Queue holds the unknown records of a run in detection order.
// Items are decided strictly in order and never revisited.
type Queue struct {
	roster   *face.Roster
	enroller Enroller
	items    []*Item
	cursor   int
}

// NewQueue collects the Unknown records among records. Resolutions are enrolled into roster
// and, when enroller is non-nil, persisted through it.
func NewQueue(records []*model.IdentificationRecord, roster *face.Roster, enroller Enroller) *Queue {
	q := &Queue{roster: roster, enroller: enroller}
	for _, r := range records {
		if r.EmployeeName == model.NameUnknown {
			q.items = append(q.items, &Item{Record: r, Position: len(q.items)})
		}
	}
	return q
}

// Len returns the number of queued items.
func (q *Queue) Len() int { return len(q.items) }

// Remaining returns how many items are still pending.
func (q *Queue) Remaining() int { return len(q.items) - q.cursor }

// Current returns the next pending item.
func (q *Queue) Current() (*Item, bool) {
	if q.cursor >= len(q.items) {
		return nil, false
	}
	return q.items[q.cursor], true
}

// Items returns every item in detection order.
func (q *Queue) Items() []*Item { return q.items }

// Candidates returns the names the current item may be resolved to.
func (q *Queue) Candidates() []string {
	return q.roster.Names()
}

// Resolve attributes the current item to name and enrolls its photo under that name.
// Resolving to an ignore word ("Ignored", "Desconhecido") is the same as Ignore. The Unknown
// sentinel is rejected and the item stays pending.
func (q *Queue) Resolve(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	if model.IsIgnoreName(name) {
		return q.Ignore()
	}
	if model.IsReservedName(name) {
		return fmt.Errorf("%w: %q", ErrReservedName, name)
	}

	item, ok := q.Current()
	if !ok {
		return ErrQueueDrained
	}

	item.Record.EmployeeName = name
	item.State = StateResolved
	q.cursor++

	q.roster.Enroll(model.RosterEntry{
		EmployeeName: name,
		PhotoPath:    item.Record.SourcePhoto,
		Embedding:    item.Record.Embedding,
	})

	if q.enroller != nil {
		if err := q.enroller.EnrollPhoto(ctx, name, item.Record.SourcePhoto); err != nil {
			slog.Warn("Failed to persist enrolled photo",
				"employee", name,
				"photo", item.Record.SourcePhoto,
				"error", err)
		}
	}

	return nil
}

// Ignore marks the current item as not an employee. Nothing is enrolled.
func (q *Queue) Ignore() error {
	item, ok := q.Current()
	if !ok {
		return ErrQueueDrained
	}
	item.Record.EmployeeName = model.NameIgnored
	item.State = StateIgnored
	q.cursor++
	return nil
}

// Summary reports how many items ended up in each state.
func (q *Queue) Summary() Summary {
	s := Summary{Total: len(q.items)}
	for _, it := range q.items {
		switch it.State {
		case StateResolved:
			s.Resolved++
		case StateIgnored:
			s.Ignored++
		default:
			s.Pending++
		}
	}
	return s
}

// Action is a resolver's choice for one item.
type Action int

const (
	ActionAssign Action = iota
	ActionIgnore
	ActionStop
)

// Decision is what a resolver decided for an item.
type Decision struct {
	Name   string
	Action Action
}

// Resolver asks a human to decide one item at a time.
type Resolver interface {
	Resolve(ctx context.Context, item *Item, total int, candidates []string) (Decision, error)
}

// Stopper reports whether the operator asked to stop reviewing.
type Stopper interface {
	Stopped() bool
}

// Drain presents every pending item to resolver in order. A Stop decision, a stop request on
// stop (which may be nil) or a cancelled context leaves the rest pending.
func Drain(ctx context.Context, q *Queue, resolver Resolver, stop Stopper) error {
	for {
		item, ok := q.Current()
		if !ok {
			return nil
		}
		if stop != nil && stop.Stopped() {
			slog.Info("Resolution stopped", "pending", q.Remaining())
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		decision, err := resolver.Resolve(ctx, item, q.Len(), q.Candidates())
		if err != nil {
			return fmt.Errorf("resolving item %d: %w", item.Position+1, err)
		}

		switch decision.Action {
		case ActionStop:
			slog.Info("Resolution stopped", "pending", q.Remaining())
			return nil
		case ActionIgnore:
			err = q.Ignore()
		default:
			err = q.Resolve(ctx, decision.Name)
		}
		if err != nil {
			return err
		}
	}
}
