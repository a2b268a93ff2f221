package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/ponto/internal/engine"
)

func TestMonitor_ReturnsTerminalEvent(t *testing.T) {
	reporter := engine.NewChannelReporter(16)
	reporter.Report(engine.Event{Kind: engine.EventLog, Text: "Unpacking archive"})
	reporter.Report(engine.Event{Kind: engine.EventProgress, Current: 10, Total: 20, Status: "Analyzing photo 10/20"})
	reporter.Report(engine.Event{Kind: engine.EventAmbiguousReady, Total: 3})

	out := &bytes.Buffer{}
	m := NewMonitor(reporter, out)
	m.interval = time.Millisecond

	ev, err := m.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, engine.EventAmbiguousReady, ev.Kind)
	assert.Equal(t, 3, ev.Total)
	assert.Contains(t, out.String(), "Unpacking archive")
	assert.Contains(t, out.String(), "10/20 Analyzing photo 10/20")
}

func TestMonitor_WaitsForLateEvents(t *testing.T) {
	reporter := engine.NewChannelReporter(4)
	m := NewMonitor(reporter, &bytes.Buffer{})
	m.interval = time.Millisecond

	go func() {
		time.Sleep(20 * time.Millisecond)
		reporter.Report(engine.Event{Kind: engine.EventFailed, Text: "boom"})
	}()

	ev, err := m.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, engine.EventFailed, ev.Kind)
	assert.Equal(t, "boom", ev.Text)
}

func TestMonitor_ContextCancelled(t *testing.T) {
	m := NewMonitor(engine.NewChannelReporter(1), &bytes.Buffer{})
	m.interval = time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := m.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestIsTerminal_NonFile(t *testing.T) {
	assert.False(t, IsTerminal(&bytes.Buffer{}))
}
