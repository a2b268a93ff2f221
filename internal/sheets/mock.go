package sheets

import (
	"context"
	"sync"

	"github.com/Veraticus/ponto/internal/model"
)

// MockWriter records exported runs in memory.
type MockWriter struct {
	ExportFunc func(ctx context.Context, run model.RunSummary, records []*model.IdentificationRecord) error
	Calls      []ExportCall
	mu         sync.Mutex
}

// ExportCall represents a single call to Export.
type ExportCall struct {
	Error   error
	Records [][]any
	Run     model.RunSummary
}

// NewMockWriter creates a new mock writer.
func NewMockWriter() *MockWriter {
	return &MockWriter{}
}

// Name identifies the mock as a record sink.
func (m *MockWriter) Name() string {
	return "Google Sheets"
}

// Export records the call and returns the configured error, if any.
func (m *MockWriter) Export(ctx context.Context, run model.RunSummary, records []*model.IdentificationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var err error
	if m.ExportFunc != nil {
		err = m.ExportFunc(ctx, run, records)
	}
	m.Calls = append(m.Calls, ExportCall{Run: run, Records: RecordRows(records), Error: err})
	return err
}

// SetExportError makes every subsequent Export return err.
func (m *MockWriter) SetExportError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ExportFunc = func(context.Context, model.RunSummary, []*model.IdentificationRecord) error {
		return err
	}
}

// GetCalls returns a copy of all recorded calls.
func (m *MockWriter) GetCalls() []ExportCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]ExportCall, len(m.Calls))
	copy(calls, m.Calls)
	return calls
}
