package engine

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
)

// Worker runs pipeline phases off the caller's goroutine and reports their outcome as events.
// Errors and panics become EventFailed; they never propagate to the caller.
type Worker struct {
	engine   *Engine
	reporter Reporter
	wg       sync.WaitGroup
}

// NewWorker creates a worker reporting to the engine's reporter.
func NewWorker(engine *Engine) *Worker {
	return &Worker{engine: engine, reporter: engine.reporter}
}

// StartMatch runs Match in the background. It reports EventAmbiguousReady with the run on success.
func (w *Worker) StartMatch(ctx context.Context, req Request) {
	w.spawn("match", func() error {
		run, err := w.engine.Match(ctx, req)
		if err != nil {
			return err
		}
		w.reporter.Report(Event{
			Kind:  EventAmbiguousReady,
			Run:   run,
			Total: run.Queue.Len(),
			Text:  fmt.Sprintf("%d photos need review", run.Queue.Len()),
		})
		return nil
	})
}

// StartFinalize runs Finalize in the background. It reports EventFinished with the outcome.
func (w *Worker) StartFinalize(ctx context.Context, run *Run) {
	w.spawn("finalize", func() error {
		outcome, err := w.engine.Finalize(ctx, run)
		if err != nil {
			return err
		}
		w.reporter.Report(Event{Kind: EventFinished, Outcome: outcome, Text: outcome.Message})
		return nil
	})
}

// Wait blocks until every started phase has returned.
func (w *Worker) Wait() {
	w.wg.Wait()
}

func (w *Worker) spawn(phase string, fn func() error) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				slog.Error("Pipeline panicked", "phase", phase, "panic", r, "stack", string(debug.Stack()))
				w.reporter.Report(Event{Kind: EventFailed, Text: fmt.Sprintf("%s failed: %v", phase, r)})
			}
		}()

		if err := fn(); err != nil {
			slog.Error("Pipeline failed", "phase", phase, "error", err)
			w.reporter.Report(Event{Kind: EventFailed, Text: err.Error()})
		}
	}()
}
