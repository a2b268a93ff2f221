package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/ponto/internal/model"
)

const dayLayout = "2006-01-02"

// Name identifies this store as a record sink.
func (s *SQLiteStorage) Name() string {
	return "local database"
}

// Export saves a run and its records in one transaction.
func (s *SQLiteStorage) Export(ctx context.Context, run model.RunSummary, records []*model.IdentificationRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(run.ID, "run.ID"); err != nil {
		return err
	}
	for i, r := range records {
		if err := validateRecord(r); err != nil {
			return fmt.Errorf("record at index %d: %w", i, err)
		}
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO runs (id, archive_path, status, message, photos, skipped, records, started_at, finished_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, run.ArchivePath, string(run.Status), run.Message,
			run.Photos, run.Skipped, len(records), run.StartedAt, run.FinishedAt)
		if err != nil {
			return fmt.Errorf("failed to save run: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO records (run_id, employee_name, day, minute, source_photo)
			VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare record insert: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for _, r := range records {
			if _, err := stmt.ExecContext(ctx, run.ID, r.EmployeeName, r.Date.Format(dayLayout), int(r.Time), r.SourcePhoto); err != nil {
				return fmt.Errorf("failed to save record: %w", err)
			}
		}
		return nil
	})
}

// ListRecords returns stored records within the range, optionally restricted to some employees,
// ordered by day and time.
func (s *SQLiteStorage) ListRecords(ctx context.Context, dateRange model.DateRange, filter model.EmployeeFilter) ([]*model.IdentificationRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if !dateRange.Valid() {
		return nil, ErrInvalidDateRange
	}

	query := `SELECT employee_name, day, minute, source_photo FROM records WHERE day BETWEEN ? AND ?`
	args := []any{dateRange.Start.Format(dayLayout), dateRange.End.Format(dayLayout)}
	if len(filter.Names) > 0 {
		query += ` AND employee_name IN (?` + strings.Repeat(",?", len(filter.Names)-1) + `)`
		for _, n := range filter.Names {
			args = append(args, n)
		}
	}
	query += ` ORDER BY day, minute, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*model.IdentificationRecord
	for rows.Next() {
		var r model.IdentificationRecord
		var day string
		var minute int
		if err := rows.Scan(&r.EmployeeName, &day, &minute, &r.SourcePhoto); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		d, err := time.Parse(dayLayout, day)
		if err != nil {
			return nil, fmt.Errorf("invalid stored day %q: %w", day, err)
		}
		r.Date = d
		r.Time = model.ClockTime(minute)
		out = append(out, &r)
	}
	return out, rows.Err()
}

// ListRuns returns the most recent runs first.
func (s *SQLiteStorage) ListRuns(ctx context.Context, limit int) ([]model.RunSummary, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, archive_path, status, message, photos, skipped, records, started_at, finished_at
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.RunSummary
	for rows.Next() {
		var r model.RunSummary
		var status string
		if err := rows.Scan(&r.ID, &r.ArchivePath, &status, &r.Message, &r.Photos, &r.Skipped, &r.Records, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.Status = model.RunStatus(status)
		out = append(out, r)
	}
	return out, rows.Err()
}
