package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// InterruptHandler turns the first interrupt into a cooperative stop and the second into a
// cancellation of the returned context.
type InterruptHandler struct {
	writer     io.Writer
	stop       func()
	cancelFunc context.CancelFunc
	signals    chan os.Signal
	count      int
	mu         sync.Mutex
}

// NewInterruptHandler creates a handler. stop is called on the first interrupt and may be nil.
func NewInterruptHandler(writer io.Writer, stop func()) *InterruptHandler {
	if writer == nil {
		writer = os.Stdout
	}
	return &InterruptHandler{
		writer: writer,
		stop:   stop,
	}
}

// HandleInterrupts starts listening for SIGINT and SIGTERM until ctx is done.
func (h *InterruptHandler) HandleInterrupts(ctx context.Context) context.Context {
	ctx, cancel := context.WithCancel(ctx)
	h.cancelFunc = cancel

	h.signals = make(chan os.Signal, 2)
	signal.Notify(h.signals, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(h.signals)
		for {
			select {
			case <-ctx.Done():
				return
			case <-h.signals:
				h.Interrupt()
			}
		}
	}()

	return ctx
}

// Interrupt handles one interrupt as if a signal had arrived.
func (h *InterruptHandler) Interrupt() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.count++
	if h.count == 1 && h.stop != nil {
		h.stop()
		h.write("\n" + FormatWarning("Stopping after the current photo or review step. Press Ctrl-C again to abort.") + "\n")
		return
	}

	h.write("\n" + FormatWarning("Aborted. Saving the records gathered so far.") + "\n")
	if h.cancelFunc != nil {
		h.cancelFunc()
	}
}

func (h *InterruptHandler) write(msg string) {
	if _, err := fmt.Fprint(h.writer, msg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write interrupt message: %v\n", err)
	}
}

// WasInterrupted returns true if at least one interrupt was received.
func (h *InterruptHandler) WasInterrupted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count > 0
}
