// Package service defines the interfaces the command layer works against.
package service

import (
	"context"

	"github.com/Veraticus/ponto/internal/engine"
	"github.com/Veraticus/ponto/internal/face"
	"github.com/Veraticus/ponto/internal/model"
	"github.com/Veraticus/ponto/internal/reconcile"
	"github.com/Veraticus/ponto/internal/storage"
)

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Roster as the pipeline sees it
	face.EnrollmentSource
	reconcile.Enroller

	// Records of finished runs
	engine.RecordSink
	ListRecords(ctx context.Context, dateRange model.DateRange, filter model.EmployeeFilter) ([]*model.IdentificationRecord, error)
	ListRuns(ctx context.Context, limit int) ([]model.RunSummary, error)

	// Employee operations
	CreateEmployee(ctx context.Context, emp *model.Employee) error
	GetEmployee(ctx context.Context, name string) (*model.Employee, error)
	ListEmployees(ctx context.Context) ([]model.Employee, error)
	SetEmployeeStatus(ctx context.Context, name string, status model.EmployeeStatus) error
	AddEnrollment(ctx context.Context, name, photoPath string, source model.EnrollmentSource) (*model.Enrollment, error)
	ListEmployeeEnrollments(ctx context.Context, name string) ([]model.Enrollment, error)
	ImportLegacy(ctx context.Context, employees []storage.LegacyEmployee, photoDir string) (storage.ImportStats, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

var _ Storage = (*storage.SQLiteStorage)(nil)
