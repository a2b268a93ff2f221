// Package engine runs the attendance pipeline: unpack, scan, align, match, and finalize.
//
// A run has two phases. Match produces identified records and a queue of unknown faces.
// The caller resolves the queue however it likes, then calls Finalize to export the records
// and release the workspace.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/ponto/internal/archive"
	"github.com/Veraticus/ponto/internal/common"
	"github.com/Veraticus/ponto/internal/face"
	"github.com/Veraticus/ponto/internal/model"
	"github.com/Veraticus/ponto/internal/reconcile"
	"github.com/Veraticus/ponto/internal/timeline"
	"github.com/Veraticus/ponto/internal/transcript"
)

// Config holds configuration options for the pipeline.
type Config struct {
	// TempRoot is where workspaces are created; empty means the OS temp dir.
	TempRoot  string
	Markers   []string
	Embedder  face.EmbedderConfig
	Tolerance float64
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Tolerance: face.DefaultTolerance,
		Embedder:  face.DefaultEmbedderConfig(),
	}
}

// Dependencies are the collaborators a pipeline needs.
type Dependencies struct {
	Detector    face.Detector
	Enrollments face.EnrollmentSource
	Enroller    reconcile.Enroller
	Reporter    Reporter
	Stop        *StopFlag
	Sinks       []RecordSink
}

// Request describes one archive to process.
type Request struct {
	ArchivePath string
	Range       model.DateRange
	// Tolerance overrides the configured tolerance when positive.
	Tolerance float64
}

// Run is the state carried from Match to Finalize.
type Run struct {
	StartedAt time.Time
	Workspace *archive.Workspace
	Roster    *face.Roster
	Queue     *reconcile.Queue
	ID        string
	Request   Request
	Records   []*model.IdentificationRecord
	Alignment timeline.Alignment
	Events    int
	Processed int
	Failed    int
	Cancelled bool
}

// Outcome is the result of Finalize.
type Outcome struct {
	Message  string
	Failed   []string
	Records  int
	Degraded bool
}

// Engine orchestrates a run.
type Engine struct {
	detector    face.Detector
	enrollments face.EnrollmentSource
	enroller    reconcile.Enroller
	reporter    Reporter
	stop        *StopFlag
	unpacker    *archive.Unpacker
	scanner     *transcript.Scanner
	sinks       []RecordSink
	config      Config
}

// New creates an engine with the default configuration.
func New(deps Dependencies) *Engine {
	return NewWithConfig(deps, DefaultConfig())
}

// NewWithConfig creates an engine with a custom configuration.
func NewWithConfig(deps Dependencies, config Config) *Engine {
	if deps.Reporter == nil {
		deps.Reporter = nopReporter{}
	}
	if deps.Stop == nil {
		deps.Stop = &StopFlag{}
	}
	return &Engine{
		detector:    deps.Detector,
		enrollments: deps.Enrollments,
		enroller:    deps.Enroller,
		reporter:    deps.Reporter,
		stop:        deps.Stop,
		sinks:       deps.Sinks,
		unpacker:    archive.NewUnpacker(config.TempRoot),
		scanner:     transcript.NewScanner(config.Markers...),
		config:      config,
	}
}

// Stop returns the flag that cooperatively stops photo matching.
func (e *Engine) Stop() *StopFlag {
	return e.stop
}

func (e *Engine) logf(format string, args ...any) {
	text := fmt.Sprintf(format, args...)
	slog.Debug(text)
	e.reporter.Report(Event{Kind: EventLog, Text: text})
}

// Match runs the first phase. A stop request ends matching early; the records gathered so far
// are returned with Cancelled set. The returned run owns a workspace that Finalize releases.
func (e *Engine) Match(ctx context.Context, req Request) (*Run, error) {
	if req.ArchivePath == "" {
		return nil, fmt.Errorf("%w: no archive given", common.ErrNothingToProcess)
	}
	if !req.Range.Valid() {
		return nil, fmt.Errorf("%w: date range start is after its end", common.ErrInvalidConfig)
	}
	if req.Tolerance <= 0 {
		req.Tolerance = e.config.Tolerance
	}

	run := &Run{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
		Request:   req,
	}

	e.logf("Unpacking %s", filepath.Base(req.ArchivePath))
	ws, err := e.unpacker.Unpack(ctx, req.ArchivePath)
	if err != nil {
		return nil, err
	}
	run.Workspace = ws

	events, err := e.scanner.ScanFile(ctx, ws.Transcript)
	if err != nil {
		return nil, fmt.Errorf("scanning transcript (workspace kept at %s): %w", ws.Dir, err)
	}
	run.Events = len(events)

	run.Alignment = timeline.Align(events, ws.Media, req.Range)
	e.logf("Found %d media events and %d media files; %d photos in range (%d non-photo slots skipped)",
		len(events), len(ws.Media), len(run.Alignment.Items), run.Alignment.Skipped)

	embedder := face.NewEmbedder(e.detector, e.config.Embedder)

	e.logf("Loading roster")
	run.Roster, err = face.LoadRoster(ctx, e.enrollments, embedder)
	if err != nil {
		return nil, fmt.Errorf("loading roster (workspace kept at %s): %w", ws.Dir, err)
	}

	matcher := face.NewMatcher(run.Roster, embedder, req.Tolerance)
	e.logf("Matching against %d reference photos at tolerance %.2f", run.Roster.Len(), matcher.Tolerance())
	e.matchAll(ctx, run, matcher)

	run.Queue = reconcile.NewQueue(run.Records, run.Roster, e.enroller)

	slog.Info("Matching complete",
		"run_id", run.ID,
		"processed", run.Processed,
		"failed", run.Failed,
		"records", len(run.Records),
		"unknown", run.Queue.Len(),
		"cancelled", run.Cancelled)

	return run, nil
}

func (e *Engine) matchAll(ctx context.Context, run *Run, matcher *face.Matcher) {
	items := run.Alignment.Items
	total := len(items)
	start := time.Now()

	for i, item := range items {
		if e.stop.Stopped() {
			run.Cancelled = true
			break
		}
		select {
		case <-ctx.Done():
			run.Cancelled = true
		default:
		}
		if run.Cancelled {
			break
		}

		e.reporter.Report(Event{
			Kind:    EventProgress,
			Current: i,
			Total:   total,
			Status:  fmt.Sprintf("Analyzing photo %d/%d", i+1, total),
			ETA:     formatETA(time.Since(start), i, total),
		})

		records, err := identify(matcher, item)
		run.Processed++
		if err != nil {
			run.Failed++
			e.logf("Error in %s: %v", filepath.Base(item.Path), err)
			continue
		}
		run.Records = append(run.Records, records...)
	}

	if run.Cancelled {
		e.logf("Stopped after %d of %d photos", run.Processed, total)
	}
	e.reporter.Report(Event{Kind: EventProgress, Current: run.Processed, Total: total, Status: "Matching finished"})
}

// identify runs the matcher on one photo, turning a decoder panic into an error.
func identify(matcher *face.Matcher, item model.AlignedItem) (records []*model.IdentificationRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			records = nil
			err = fmt.Errorf("panic while processing photo: %v", r)
		}
	}()

	records, strategy, err := matcher.Identify(item)
	if err != nil {
		return nil, err
	}
	slog.Debug("Photo identified", "photo", filepath.Base(item.Path), "faces", len(records), "strategy", strategy.String())
	return records, nil
}

// Summary describes the run for sinks and history.
func (r *Run) Summary(status model.RunStatus, message string) model.RunSummary {
	s := model.RunSummary{
		ID:          r.ID,
		ArchivePath: r.Request.ArchivePath,
		StartedAt:   r.StartedAt,
		FinishedAt:  time.Now(),
		Status:      status,
		Message:     message,
		Photos:      r.Processed,
		Skipped:     r.Alignment.Skipped,
		Records:     len(r.Records),
	}
	return s
}

// Finalize exports the run's records to every sink and removes the workspace.
// A failing sink degrades the outcome but does not fail it.
func (e *Engine) Finalize(ctx context.Context, run *Run) (*Outcome, error) {
	if run == nil {
		return nil, errors.New("finalize called without a run")
	}
	defer e.cleanup(run)

	if len(run.Records) == 0 {
		return &Outcome{Message: "Nothing to save"}, nil
	}

	status := model.RunCompleted
	if run.Cancelled {
		status = model.RunCancelled
	}

	outcome := &Outcome{Records: len(run.Records)}
	for _, sink := range e.sinks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		e.logf("Saving %d records to %s", len(run.Records), sink.Name())
		if err := sink.Export(ctx, run.Summary(status, ""), run.Records); err != nil {
			common.LogError(err, "Export failed", common.Fields{"sink": sink.Name(), "run_id": run.ID})
			outcome.Failed = append(outcome.Failed, sink.Name())
		}
	}

	if len(outcome.Failed) > 0 {
		outcome.Degraded = true
		outcome.Message = fmt.Sprintf("Finished with %d records, but export to %v failed; the local report is still available",
			outcome.Records, outcome.Failed)
	} else {
		outcome.Message = fmt.Sprintf("Finished: %d records saved", outcome.Records)
	}
	return outcome, nil
}

func (e *Engine) cleanup(run *Run) {
	if run.Workspace == nil {
		return
	}
	if err := run.Workspace.Cleanup(); err != nil {
		slog.Warn("Failed to remove workspace", "dir", run.Workspace.Dir, "error", err)
	}
}
