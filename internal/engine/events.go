package engine

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// EventKind identifies the type of a pipeline event.
type EventKind int

const (
	EventLog EventKind = iota
	EventProgress
	EventAmbiguousReady
	EventFinished
	EventFailed
)

func (k EventKind) String() string {
	switch k {
	case EventLog:
		return "log"
	case EventProgress:
		return "progress"
	case EventAmbiguousReady:
		return "ambiguous_ready"
	case EventFinished:
		return "finished"
	case EventFailed:
		return "failed"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event is a one-way message from the pipeline to the presentation layer.
type Event struct {
	Run     *Run
	Outcome *Outcome
	Text    string
	Status  string
	ETA     string
	Kind    EventKind
	Current int
	Total   int
}

// ChannelReporter buffers events on a channel for a presentation loop to poll.
type ChannelReporter struct {
	ch chan Event
}

// NewChannelReporter creates a reporter with the given buffer size.
func NewChannelReporter(buffer int) *ChannelReporter {
	return &ChannelReporter{ch: make(chan Event, buffer)}
}

// Report enqueues event, blocking while the buffer is full.
func (r *ChannelReporter) Report(event Event) {
	r.ch <- event
}

// Poll returns every event currently buffered without blocking.
func (r *ChannelReporter) Poll() []Event {
	var events []Event
	for {
		select {
		case ev := <-r.ch:
			events = append(events, ev)
		default:
			return events
		}
	}
}

// Events exposes the underlying channel for select loops.
func (r *ChannelReporter) Events() <-chan Event {
	return r.ch
}

// StopFlag is a cooperative stop request checked between photos and between review items.
// The zero value is ready to use.
type StopFlag struct {
	done    chan struct{}
	mu      sync.Mutex
	stopped atomic.Bool
}

// Stop requests the pipeline to stop after the current photo.
func (f *StopFlag) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stopped.Swap(true) {
		return
	}
	close(f.doneLocked())
}

// Stopped reports whether a stop was requested.
func (f *StopFlag) Stopped() bool { return f.stopped.Load() }

// Done returns a channel closed once a stop is requested.
func (f *StopFlag) Done() <-chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.doneLocked()
}

func (f *StopFlag) doneLocked() chan struct{} {
	if f.done == nil {
		f.done = make(chan struct{})
	}
	return f.done
}

// Reset clears a previous stop request.
func (f *StopFlag) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped.Store(false)
	f.done = nil
}

// formatETA renders an estimate of the remaining time in whole minutes.
func formatETA(elapsed time.Duration, done, total int) string {
	if done <= 0 || total <= done {
		return ""
	}
	remaining := elapsed / time.Duration(done) * time.Duration(total-done)
	return fmt.Sprintf("%dm remaining", int(remaining.Minutes()))
}
