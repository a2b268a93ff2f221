package cli

import (
	"bytes"
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

// syncBuffer provides thread-safe access to a bytes.Buffer.
type syncBuffer struct {
	buf bytes.Buffer
	mu  sync.Mutex
}

func (s *syncBuffer) Write(p []byte) (n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func TestNewInterruptHandler(t *testing.T) {
	handler := NewInterruptHandler(nil, nil)
	assert.NotNil(t, handler.writer)
	assert.False(t, handler.WasInterrupted())
}

func TestInterruptHandler_StopThenCancel(t *testing.T) {
	output := &syncBuffer{}
	var stops atomic.Int32
	handler := NewInterruptHandler(output, func() { stops.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx = handler.HandleInterrupts(ctx)

	handler.Interrupt()
	assert.Equal(t, int32(1), stops.Load())
	assert.NoError(t, ctx.Err(), "first interrupt only requests a stop")
	assert.True(t, handler.WasInterrupted())
	assert.Contains(t, output.String(), "Stopping after the current photo")

	handler.Interrupt()
	assert.Equal(t, int32(1), stops.Load())
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
	assert.Contains(t, output.String(), "Aborted")
}

func TestInterruptHandler_WithoutStopCancelsImmediately(t *testing.T) {
	output := &syncBuffer{}
	handler := NewInterruptHandler(output, nil)

	ctx := handler.HandleInterrupts(context.Background())
	handler.Interrupt()

	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}
