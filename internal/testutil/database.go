// Package testutil provides test helpers for seeding a database with employees and records.
package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/ponto/internal/model"
	"github.com/Veraticus/ponto/internal/service"
	"github.com/Veraticus/ponto/internal/storage"
)

// TestDB is a migrated database in a temporary directory.
type TestDB struct {
	Storage service.Storage
	t       *testing.T
	Path    string
	Dir     string
}

// SetupTestDB creates a migrated database under t.TempDir and closes it on cleanup.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "ponto.db")
	store, err := storage.NewSQLiteStorage(path, filepath.Join(dir, "photos"))
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return &TestDB{Storage: store, Path: path, Dir: dir, t: t}
}

// Record builds an attributed record for a day in March 2024.
func Record(name string, day int, clock string) *model.IdentificationRecord {
	return &model.IdentificationRecord{
		Date:         time.Date(2024, time.March, day, 0, 0, 0, 0, time.UTC),
		Time:         model.MustParseClock(clock),
		EmployeeName: name,
		SourcePhoto:  "IMG-WA.jpg",
	}
}

// SeedRecords saves records as one completed run.
func (db *TestDB) SeedRecords(records ...*model.IdentificationRecord) {
	db.t.Helper()

	run := model.RunSummary{
		ID:          uuid.NewString(),
		ArchivePath: "seed.zip",
		Status:      model.RunCompleted,
		StartedAt:   time.Now(),
		FinishedAt:  time.Now(),
		Records:     len(records),
	}
	if err := db.Storage.Export(context.Background(), run, records); err != nil {
		db.t.Fatalf("failed to seed records: %v", err)
	}
}

// SeedEmployee creates an active employee.
func (db *TestDB) SeedEmployee(name string) {
	db.t.Helper()
	if err := db.Storage.CreateEmployee(context.Background(), &model.Employee{Name: name}); err != nil {
		db.t.Fatalf("failed to seed employee %q: %v", name, err)
	}
}
