package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/Veraticus/ponto/internal/common"
	"github.com/Veraticus/ponto/internal/model"
)

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

// CreateEmployee inserts a new employee. The name must be unique.
func (s *SQLiteStorage) CreateEmployee(ctx context.Context, emp *model.Employee) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateEmployeeName(emp.Name); err != nil {
		return err
	}
	if emp.Status == "" {
		emp.Status = model.EmployeeActive
	}
	if err := validateStatus(emp.Status); err != nil {
		return err
	}

	return s.createEmployee(ctx, s.db, emp)
}

func (s *SQLiteStorage) createEmployee(ctx context.Context, q queryable, emp *model.Employee) error {
	result, err := q.ExecContext(ctx,
		`INSERT INTO employees (name, email, phone, status) VALUES (?, ?, ?, ?)`,
		emp.Name, emp.Email, emp.Phone, string(emp.Status))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("employee %q: %w", emp.Name, common.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to create employee: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get employee id: %w", err)
	}
	emp.ID = id
	emp.CreatedAt = time.Now()
	return nil
}

// GetEmployee looks up an employee by name.
func (s *SQLiteStorage) GetEmployee(ctx context.Context, name string) (*model.Employee, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getEmployee(ctx, s.db, name)
}

func (s *SQLiteStorage) getEmployee(ctx context.Context, q queryable, name string) (*model.Employee, error) {
	var emp model.Employee
	var status string
	err := q.QueryRowContext(ctx,
		`SELECT id, name, email, phone, status, created_at FROM employees WHERE name = ?`, name).
		Scan(&emp.ID, &emp.Name, &emp.Email, &emp.Phone, &status, &emp.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("employee %q: %w", name, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}
	emp.Status = model.EmployeeStatus(status)
	return &emp, nil
}

// ListEmployees returns every employee ordered by name.
func (s *SQLiteStorage) ListEmployees(ctx context.Context) ([]model.Employee, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, email, phone, status, created_at FROM employees ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var employees []model.Employee
	for rows.Next() {
		var emp model.Employee
		var status string
		if err := rows.Scan(&emp.ID, &emp.Name, &emp.Email, &emp.Phone, &status, &emp.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		emp.Status = model.EmployeeStatus(status)
		employees = append(employees, emp)
	}
	return employees, rows.Err()
}

// SetEmployeeStatus activates or deactivates an employee.
func (s *SQLiteStorage) SetEmployeeStatus(ctx context.Context, name string, status model.EmployeeStatus) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateStatus(status); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `UPDATE employees SET status = ? WHERE name = ?`, string(status), name)
	if err != nil {
		return fmt.Errorf("failed to update employee status: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("employee %q: %w", name, common.ErrNotFound)
	}
	return nil
}

// AddEnrollment registers a reference photo for an existing employee.
func (s *SQLiteStorage) AddEnrollment(ctx context.Context, name, photoPath string, source model.EnrollmentSource) (*model.Enrollment, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(photoPath, "photoPath"); err != nil {
		return nil, err
	}

	var enrollment *model.Enrollment
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		emp, err := s.getEmployee(ctx, tx, name)
		if err != nil {
			return err
		}
		enrollment, err = insertEnrollment(ctx, tx, emp, photoPath, source)
		return err
	})
	return enrollment, err
}

func insertEnrollment(ctx context.Context, q queryable, emp *model.Employee, photoPath string, source model.EnrollmentSource) (*model.Enrollment, error) {
	result, err := q.ExecContext(ctx,
		`INSERT INTO enrollments (employee_id, photo_path, source) VALUES (?, ?, ?)`,
		emp.ID, photoPath, string(source))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("photo %s for %q: %w", photoPath, emp.Name, common.ErrDuplicateEntry)
		}
		return nil, fmt.Errorf("failed to add enrollment: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get enrollment id: %w", err)
	}
	return &model.Enrollment{
		ID:           id,
		EmployeeName: emp.Name,
		PhotoPath:    photoPath,
		Source:       source,
		CreatedAt:    time.Now(),
	}, nil
}

// ListEnrollments returns the photos of active employees in enrollment order.
func (s *SQLiteStorage) ListEnrollments(ctx context.Context) ([]model.Enrollment, error) {
	return s.queryEnrollments(ctx, `WHERE e.status = 'active'`)
}

// ListEmployeeEnrollments returns the photos of one employee, whatever their status.
func (s *SQLiteStorage) ListEmployeeEnrollments(ctx context.Context, name string) ([]model.Enrollment, error) {
	return s.queryEnrollments(ctx, `WHERE e.name = ?`, name)
}

func (s *SQLiteStorage) queryEnrollments(ctx context.Context, where string, args ...any) ([]model.Enrollment, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT en.id, e.name, en.photo_path, en.source, en.created_at
		FROM enrollments en
		JOIN employees e ON e.id = en.employee_id
		`+where+`
		ORDER BY en.id`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.Enrollment
	for rows.Next() {
		var en model.Enrollment
		var source string
		if err := rows.Scan(&en.ID, &en.EmployeeName, &en.PhotoPath, &source, &en.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan enrollment: %w", err)
		}
		en.Source = model.EnrollmentSource(source)
		out = append(out, en)
	}
	return out, rows.Err()
}

// EnrollPhoto copies a confirmed photo into the roster folder and registers it for name,
// creating the employee when they are new.
func (s *SQLiteStorage) EnrollPhoto(ctx context.Context, name, photoPath string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateEmployeeName(name); err != nil {
		return err
	}

	dest, err := s.copyToRoster(name, photoPath)
	if err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		emp, err := s.getEmployee(ctx, tx, name)
		if errors.Is(err, common.ErrNotFound) {
			emp = &model.Employee{Name: name, Status: model.EmployeeActive}
			err = s.createEmployee(ctx, tx, emp)
		}
		if err != nil {
			return err
		}
		_, err = insertEnrollment(ctx, tx, emp, dest, model.SourceLearned)
		return err
	})
}

// copyToRoster stores a learned photo as <Name>_auto_<unix>_<id>.<ext>.
func (s *SQLiteStorage) copyToRoster(name, photoPath string) (string, error) {
	if err := validateString(s.photoDir, "photoDir"); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.photoDir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create photo directory: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(photoPath))
	if ext == "" {
		ext = ".jpg"
	}
	fileName := fmt.Sprintf("%s_auto_%d_%s%s",
		strings.ReplaceAll(name, " ", "-"), time.Now().Unix(), uuid.NewString()[:8], ext)
	dest := filepath.Join(s.photoDir, fileName)

	src, err := os.Open(photoPath)
	if err != nil {
		return "", fmt.Errorf("failed to open photo: %w", err)
	}
	defer func() { _ = src.Close() }()

	dst, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o600)
	if err != nil {
		return "", fmt.Errorf("failed to create roster photo: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(dest)
		return "", fmt.Errorf("failed to copy photo: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("failed to close roster photo: %w", err)
	}
	return dest, nil
}
