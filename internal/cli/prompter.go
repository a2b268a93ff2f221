package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/evanoberholster/imagemeta"

	"github.com/Veraticus/ponto/internal/model"
	"github.com/Veraticus/ponto/internal/reconcile"
)

// Prompter resolves unknown photos one at a time on a line-oriented terminal.
// A number picks a known employee, i ignores the photo, s stops, anything else is a new name.
type Prompter struct {
	startTime time.Time
	writer    io.Writer
	reader    *LineReader
	captured  func(path string) (time.Time, bool)
}

// NewCLIPrompter creates a prompter with the given reader and writer.
func NewCLIPrompter(reader io.Reader, writer io.Writer) *Prompter {
	if reader == nil {
		reader = os.Stdin
	}
	if writer == nil {
		writer = os.Stdout
	}
	return &Prompter{
		reader:    NewLineReader(reader),
		writer:    writer,
		captured:  CaptureTime,
		startTime: time.Now(),
	}
}

// Resolve shows one unknown photo and reads the operator's decision.
func (p *Prompter) Resolve(ctx context.Context, item *reconcile.Item, total int, candidates []string) (reconcile.Decision, error) {
	if err := ctx.Err(); err != nil {
		return reconcile.Decision{}, err
	}

	if _, err := fmt.Fprintln(p.writer, RenderBox(
		fmt.Sprintf("%s Unknown photo %d of %d", CameraIcon, item.Position+1, total),
		p.formatItem(item),
	)); err != nil {
		return reconcile.Decision{}, fmt.Errorf("failed to write photo box: %w", err)
	}

	if err := p.writeOptions(candidates); err != nil {
		return reconcile.Decision{}, err
	}

	for {
		if _, err := fmt.Fprint(p.writer, FormatPrompt("Who is this")); err != nil {
			return reconcile.Decision{}, fmt.Errorf("failed to write prompt: %w", err)
		}

		input, err := p.reader.ReadLine(ctx)
		if err != nil {
			if err == io.EOF {
				return reconcile.Decision{Action: reconcile.ActionStop}, nil
			}
			return reconcile.Decision{}, err
		}

		decision, ok := ParseDecision(input, candidates)
		if !ok {
			if _, err := fmt.Fprintln(p.writer, FormatError("Invalid choice. Please try again.")); err != nil {
				slog.Warn("Failed to write error message", "error", err)
			}
			continue
		}
		return decision, nil
	}
}

// ParseDecision interprets one line of operator input.
func ParseDecision(input string, candidates []string) (reconcile.Decision, bool) {
	input = strings.TrimSpace(input)
	switch strings.ToLower(input) {
	case "":
		return reconcile.Decision{}, false
	case "i":
		return reconcile.Decision{Action: reconcile.ActionIgnore}, true
	case "s":
		return reconcile.Decision{Action: reconcile.ActionStop}, true
	}

	if n, err := strconv.Atoi(input); err == nil {
		if n < 1 || n > len(candidates) {
			return reconcile.Decision{}, false
		}
		return reconcile.Decision{Action: reconcile.ActionAssign, Name: candidates[n-1]}, true
	}

	if model.IsIgnoreName(input) {
		return reconcile.Decision{Action: reconcile.ActionIgnore}, true
	}
	if model.IsReservedName(input) {
		return reconcile.Decision{}, false
	}

	name := model.CanonicalName(input)
	for _, c := range candidates {
		if strings.EqualFold(c, name) {
			name = c
			break
		}
	}
	return reconcile.Decision{Action: reconcile.ActionAssign, Name: name}, true
}

func (p *Prompter) formatItem(item *reconcile.Item) string {
	rec := item.Record
	var sb strings.Builder
	fmt.Fprintf(&sb, "Photo:    %s\n", BoldStyle.Render(filepath.Base(rec.SourcePhoto)))
	fmt.Fprintf(&sb, "Sent:     %s at %s\n", model.FormatDate(rec.Date), rec.Time)
	if t, ok := p.captured(rec.SourcePhoto); ok {
		fmt.Fprintf(&sb, "Taken:    %s\n", t.Format("02/01/2006 15:04"))
	}
	if rec.Embedding == nil {
		sb.WriteString(WarningStyle.Render("No face was found in this photo."))
	} else {
		sb.WriteString(SubtleStyle.Render("A face was found but matches nobody on the roster."))
	}
	return sb.String()
}

func (p *Prompter) writeOptions(candidates []string) error {
	var sb strings.Builder
	sb.WriteString(FormatPrompt("Options:") + "\n")
	for i, name := range candidates {
		fmt.Fprintf(&sb, "  [%d] %s\n", i+1, name)
	}
	sb.WriteString("  Type a new name to add someone\n")
	sb.WriteString("  [I] Ignore this photo\n")
	sb.WriteString("  [S] Stop reviewing\n")
	if _, err := fmt.Fprintln(p.writer, sb.String()); err != nil {
		return fmt.Errorf("failed to write options: %w", err)
	}
	return nil
}

// ShowCompletion prints a summary of the review session.
func (p *Prompter) ShowCompletion(summary reconcile.Summary) {
	content := fmt.Sprintf("%s Statistics:\n", ChartIcon) +
		fmt.Sprintf("  • Photos reviewed: %d\n", summary.Resolved+summary.Ignored) +
		fmt.Sprintf("  • Identified: %d\n", summary.Resolved) +
		fmt.Sprintf("  • Ignored: %d\n", summary.Ignored) +
		fmt.Sprintf("  • Left unknown: %d\n", summary.Pending) +
		fmt.Sprintf("  • Time taken: %s", time.Since(p.startTime).Round(time.Second))

	if _, err := fmt.Fprintln(p.writer, RenderBox("Review Complete", content)); err != nil {
		slog.Warn("Failed to write completion box", "error", err)
	}
}

// CaptureTime reads the EXIF capture time of a photo. WhatsApp usually strips it, so a
// missing or unreadable value is not an error.
func CaptureTime(path string) (time.Time, bool) {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, false
	}
	defer func() { _ = f.Close() }()

	meta, err := imagemeta.Decode(f)
	if err != nil {
		return time.Time{}, false
	}
	if t := meta.DateTimeOriginal(); !t.IsZero() {
		return t, true
	}
	if t := meta.CreateDate(); !t.IsZero() {
		return t, true
	}
	return time.Time{}, false
}
