package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"github.com/Veraticus/ponto/internal/engine"
)

// PollInterval is how often the monitor drains pipeline events.
const PollInterval = 100 * time.Millisecond

// Poller returns buffered pipeline events without blocking.
type Poller interface {
	Poll() []engine.Event
}

// Monitor renders pipeline events until a phase ends.
type Monitor struct {
	writer      io.Writer
	poller      Poller
	bar         *progressbar.ProgressBar
	interval    time.Duration
	interactive bool
}

// NewMonitor creates a monitor writing to w. A progress bar is drawn only when w is a terminal.
func NewMonitor(poller Poller, w io.Writer) *Monitor {
	if w == nil {
		w = os.Stdout
	}
	return &Monitor{
		writer:      w,
		poller:      poller,
		interval:    PollInterval,
		interactive: IsTerminal(w),
	}
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w any) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Wait polls until a terminal event arrives and returns it. Log lines and progress are rendered
// along the way.
func (m *Monitor) Wait(ctx context.Context) (engine.Event, error) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		for _, ev := range m.poller.Poll() {
			switch ev.Kind {
			case engine.EventLog:
				m.println(SubtleStyle.Render(ev.Text))
			case engine.EventProgress:
				m.progress(ev)
			default:
				m.finishBar()
				return ev, nil
			}
		}

		select {
		case <-ctx.Done():
			m.finishBar()
			return engine.Event{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (m *Monitor) progress(ev engine.Event) {
	if !m.interactive {
		if ev.Current == ev.Total || ev.Current%10 == 0 {
			m.println(fmt.Sprintf("%d/%d %s %s", ev.Current, ev.Total, ev.Status, ev.ETA))
		}
		return
	}

	if m.bar == nil {
		m.bar = progressbar.NewOptions(ev.Total,
			progressbar.OptionSetWriter(m.writer),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerHead:    "[green]>[reset]",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
		)
	}
	m.bar.Describe(fmt.Sprintf("[cyan]%s[reset] %s", ev.Status, ev.ETA))
	if err := m.bar.Set(ev.Current); err != nil {
		slog.Warn("Failed to update progress bar", "error", err)
	}
}

func (m *Monitor) finishBar() {
	if m.bar == nil {
		return
	}
	if err := m.bar.Finish(); err != nil {
		slog.Warn("Failed to finish progress bar", "error", err)
	}
	m.println("")
	m.bar = nil
}

func (m *Monitor) println(s string) {
	if _, err := fmt.Fprintln(m.writer, s); err != nil {
		slog.Warn("Failed to write monitor output", "error", err)
	}
}
