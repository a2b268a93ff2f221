package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/ponto/internal/model"
)

// Validation errors.
var (
	ErrNilContext       = errors.New("context cannot be nil")
	ErrEmptyString      = errors.New("string parameter cannot be empty")
	ErrInvalidDateRange = errors.New("start date must not be after end date")
	ErrInvalidStatus    = errors.New("invalid employee status")
	ErrInvalidRecord    = errors.New("invalid identification record")
	ErrInvalidName      = errors.New("invalid employee name")
)

func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateEmployeeName rejects sentinel names and names that cannot be part of a photo file name.
func validateEmployeeName(name string) error {
	if err := validateString(name, "name"); err != nil {
		return err
	}
	if model.IsReservedName(name) {
		return fmt.Errorf("%w: %q is reserved", ErrInvalidName, name)
	}
	if strings.ContainsAny(name, `/\`+"\x00") || strings.Contains(name, "..") {
		return fmt.Errorf("%w: %q contains path characters", ErrInvalidName, name)
	}
	return nil
}

func validateStatus(status model.EmployeeStatus) error {
	switch status {
	case model.EmployeeActive, model.EmployeeInactive:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
}

func validateRecord(r *model.IdentificationRecord) error {
	if r == nil {
		return fmt.Errorf("%w: nil record", ErrInvalidRecord)
	}
	if r.EmployeeName == "" {
		return fmt.Errorf("%w: missing employee name", ErrInvalidRecord)
	}
	if r.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidRecord)
	}
	return nil
}
