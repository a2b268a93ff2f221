package engine

import (
	"context"

	"github.com/Veraticus/ponto/internal/model"
)

// RecordSink receives the records of a finished run.
type RecordSink interface {
	Name() string
	Export(ctx context.Context, run model.RunSummary, records []*model.IdentificationRecord) error
}

// Reporter receives progress events from a running pipeline.
type Reporter interface {
	Report(event Event)
}

type nopReporter struct{}

func (nopReporter) Report(Event) {}
