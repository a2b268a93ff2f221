package main

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/ponto/internal/cli"
	"github.com/Veraticus/ponto/internal/engine"
	"github.com/Veraticus/ponto/internal/face"
	"github.com/Veraticus/ponto/internal/model"
	"github.com/Veraticus/ponto/internal/reconcile"
)

type capturingSink struct {
	records []*model.IdentificationRecord
	run     model.RunSummary
	mu      sync.Mutex
}

func (s *capturingSink) Name() string { return "capture" }

func (s *capturingSink) Export(_ context.Context, run model.RunSummary, records []*model.IdentificationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.run = run
	s.records = records
	return nil
}

// interruptingResolver assigns the first item, then raises the stop flag on the second and
// waits for the review to be called off.
type interruptingResolver struct {
	stop  *engine.StopFlag
	calls int
}

func (r *interruptingResolver) Resolve(ctx context.Context, _ *reconcile.Item, _ int, _ []string) (reconcile.Decision, error) {
	r.calls++
	if r.calls == 1 {
		return reconcile.Decision{Action: reconcile.ActionAssign, Name: "Dani"}, nil
	}
	r.stop.Stop()
	<-ctx.Done()
	return reconcile.Decision{}, ctx.Err()
}

func TestReviewInterruptStillFinalizes(t *testing.T) {
	day := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	records := []*model.IdentificationRecord{
		{Date: day, Time: model.MustParseClock("08:00"), EmployeeName: model.NameUnknown, SourcePhoto: "a.jpg"},
		{Date: day, Time: model.MustParseClock("12:00"), EmployeeName: model.NameUnknown, SourcePhoto: "b.jpg"},
		{Date: day, Time: model.MustParseClock("17:00"), EmployeeName: model.NameUnknown, SourcePhoto: "c.jpg"},
	}
	run := &engine.Run{
		ID:      "run-1",
		Records: records,
		Queue:   reconcile.NewQueue(records, face.NewRoster(), nil),
	}

	stop := &engine.StopFlag{}
	sink := &capturingSink{}
	reporter := engine.NewChannelReporter(64)
	eng := engine.New(engine.Dependencies{Reporter: reporter, Stop: stop, Sinks: []engine.RecordSink{sink}})
	worker := engine.NewWorker(eng)
	monitor := cli.NewMonitor(reporter, &bytes.Buffer{})

	ctx, abort := context.WithCancel(context.Background())
	resolver := &interruptingResolver{stop: stop}
	reviewUnknowns(ctx, run, resolver, stop)

	assert.Equal(t, 2, resolver.calls)
	assert.True(t, run.Cancelled)
	assert.Equal(t, reconcile.Summary{Total: 3, Resolved: 1, Pending: 2}, run.Queue.Summary())

	abort()
	outcome, err := finalizeRun(ctx, worker, reporter, monitor, run)
	require.NoError(t, err)
	worker.Wait()

	assert.Equal(t, 3, outcome.Records)
	assert.False(t, outcome.Degraded)
	require.Len(t, sink.records, 3)
	assert.Equal(t, "Dani", sink.records[0].EmployeeName)
	assert.Equal(t, model.NameUnknown, sink.records[1].EmployeeName)
	assert.Equal(t, model.RunCancelled, sink.run.Status)
}

func TestReviewUnknowns_Completes(t *testing.T) {
	records := []*model.IdentificationRecord{
		{EmployeeName: model.NameUnknown, SourcePhoto: "a.jpg"},
	}
	run := &engine.Run{Records: records, Queue: reconcile.NewQueue(records, face.NewRoster(), nil)}
	stop := &engine.StopFlag{}

	reviewUnknowns(context.Background(), run, &interruptingResolver{stop: stop}, stop)

	assert.False(t, run.Cancelled)
	assert.False(t, stop.Stopped())
	assert.Equal(t, "Dani", records[0].EmployeeName)
}
