package model

import (
	"strings"
	"time"
	"unicode"
)

// EmployeeStatus marks whether an employee's photos take part in matching.
type EmployeeStatus string

const (
	// EmployeeActive employees are loaded into the roster.
	EmployeeActive EmployeeStatus = "active"
	// EmployeeInactive employees are kept for history only.
	EmployeeInactive EmployeeStatus = "inactive"
)

// EnrollmentSource records how a reference photo entered the roster.
type EnrollmentSource string

const (
	// SourceManual photos were registered by an operator.
	SourceManual EnrollmentSource = "manual"
	// SourceLearned photos were added while resolving unknown faces.
	SourceLearned EnrollmentSource = "learned"
	// SourceLegacy photos were imported from a legacy roster folder.
	SourceLegacy EnrollmentSource = "legacy"
)

// Employee is a person who can be identified in attendance photos.
type Employee struct {
	CreatedAt time.Time
	Name      string
	Email     string
	Phone     string
	Status    EmployeeStatus
	ID        int64
}

// Enrollment is a reference photo registered for an employee.
type Enrollment struct {
	CreatedAt    time.Time
	EmployeeName string
	PhotoPath    string
	Source       EnrollmentSource
	ID           int64
}

// CanonicalName normalizes a user-typed name: trimmed, single-spaced, each word capitalized.
func CanonicalName(name string) string {
	words := strings.Fields(name)
	for i, w := range words {
		runes := []rune(strings.ToLower(w))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
