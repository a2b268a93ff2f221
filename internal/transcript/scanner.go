// Package transcript extracts media-reference events from exported chat transcripts.
package transcript

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/Veraticus/ponto/internal/common"
	"github.com/Veraticus/ponto/internal/model"
)

// DefaultMarkers are the substrings that flag a transcript line as referencing media.
var DefaultMarkers = []string{
	"<Mídia oculta>",
	"(arquivo anexado)",
	"(anexado)",
	".jpg",
	".opus",
	"<Media omitted>",
	"(file attached)",
}

// maxLineSize bounds a single transcript line; long pasted messages are common.
const maxLineSize = 1 << 20

var timestampPattern = regexp.MustCompile(`^(\d{2}/\d{2}/\d{4})\s(\d{2}:\d{2})`)

// Scanner turns transcript lines into TranscriptEvents.
type Scanner struct {
	markers []string
}

// NewScanner creates a scanner using the given markers, or DefaultMarkers when none are given.
func NewScanner(markers ...string) *Scanner {
	if len(markers) == 0 {
		markers = DefaultMarkers
	}
	return &Scanner{markers: markers}
}

// ScanFile reads the transcript at path.
func (s *Scanner) ScanFile(ctx context.Context, path string) ([]model.TranscriptEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrTranscriptUnavailable, err)
	}
	defer func() { _ = f.Close() }()

	return s.Scan(ctx, f)
}

// Scan reads a transcript stream in order and returns every qualifying event.
// Lines that mention media but do not start with a valid timestamp are skipped.
func (s *Scanner) Scan(ctx context.Context, r io.Reader) ([]model.TranscriptEvent, error) {
	decoded := transform.NewReader(r, unicode.UTF8BOM.NewDecoder())
	scanner := bufio.NewScanner(decoded)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var events []model.TranscriptEvent
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if lineNo%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		line := scanner.Text()
		if !s.referencesMedia(line) {
			continue
		}

		event, ok := parseEvent(line)
		if !ok {
			slog.Debug("Skipping media line without timestamp", "line", lineNo)
			continue
		}
		event.Line = lineNo
		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrTranscriptUnavailable, err)
	}

	return events, nil
}

func (s *Scanner) referencesMedia(line string) bool {
	for _, marker := range s.markers {
		if strings.Contains(line, marker) {
			return true
		}
	}
	return false
}

func parseEvent(line string) (model.TranscriptEvent, bool) {
	m := timestampPattern.FindStringSubmatch(line)
	if m == nil {
		return model.TranscriptEvent{}, false
	}
	date, err := model.ParseDate(m[1])
	if err != nil {
		return model.TranscriptEvent{}, false
	}
	clock, err := model.ParseClock(m[2])
	if err != nil {
		return model.TranscriptEvent{}, false
	}
	return model.TranscriptEvent{Date: date, Time: clock}, true
}
