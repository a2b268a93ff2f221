// Package model defines the attendance domain types shared across the pipeline.
package model

import (
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// Sentinel employee names carried by records that are not attributed to anyone.
const (
	NameUnknown = "Unknown"
	NameIgnored = "Ignored"
)

// ignoreWords are operator inputs that mean the photo shows nobody on the roster.
var ignoreWords = []string{NameIgnored, "Desconhecido", "Ignorado"}

// IsIgnoreName reports whether an operator-typed name means "ignore this photo".
func IsIgnoreName(name string) bool {
	name = strings.TrimSpace(name)
	return slices.ContainsFunc(ignoreWords, func(w string) bool { return strings.EqualFold(w, name) })
}

// IsReservedName reports whether name is a sentinel that can never be an employee name.
func IsReservedName(name string) bool {
	return strings.EqualFold(strings.TrimSpace(name), NameUnknown) || IsIgnoreName(name)
}

// IsAttributed reports whether name refers to a real employee.
func IsAttributed(name string) bool {
	return name != "" && name != NameUnknown && name != NameIgnored
}

// TranscriptEvent is a transcript line that references a media attachment.
type TranscriptEvent struct {
	Date time.Time
	Line int
	Time ClockTime
}

// MediaCandidate is a media file found in an unpacked archive.
type MediaCandidate struct {
	Path string
}

// photoExtensions are the media types the face matcher accepts.
var photoExtensions = []string{".jpg", ".jpeg", ".png"}

// IsPhoto reports whether the candidate is an image the matcher can read.
func (m MediaCandidate) IsPhoto() bool {
	return slices.Contains(photoExtensions, strings.ToLower(filepath.Ext(m.Path)))
}

// AlignedItem pairs a photo with the timestamp of the transcript event in the same position.
type AlignedItem struct {
	Date  time.Time
	Path  string
	Index int
	Time  ClockTime
}

// Embedding is a fixed-length face descriptor.
type Embedding []float32

// RosterEntry associates an employee with one reference face embedding.
type RosterEntry struct {
	EmployeeName string
	PhotoPath    string
	Embedding    Embedding
}

// IdentificationRecord is one detected face at one point in time.
type IdentificationRecord struct {
	Date         time.Time
	EmployeeName string
	SourcePhoto  string
	Embedding    Embedding
	Time         ClockTime
}

// Attributed reports whether the record names a real employee.
func (r *IdentificationRecord) Attributed() bool {
	return IsAttributed(r.EmployeeName)
}

// DailySummary is the entry/exit pair for one employee on one day.
type DailySummary struct {
	Date         time.Time
	EmployeeName string
	Count        int
	Entry        ClockTime
	Exit         ClockTime
	HasExit      bool
}

// MissingExit is the placeholder rendered when a day has a single punch.
const MissingExit = "--:--"

// ExitString renders the exit time or the missing-exit placeholder.
func (s DailySummary) ExitString() string {
	if !s.HasExit {
		return MissingExit
	}
	return s.Exit.String()
}

// Incomplete reports whether the day lacks a distinct exit punch.
func (s DailySummary) Incomplete() bool {
	return !s.HasExit || s.Entry == s.Exit
}

// BalanceResult is an employee's accumulated balance over a date range.
type BalanceResult struct {
	EmployeeName string
	Days         []DailySummary
	Total        time.Duration
	Incomplete   int
}

// DateRange is an inclusive range of calendar days.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// SingleDay returns a range covering just d.
func SingleDay(d time.Time) DateRange {
	d = Day(d)
	return DateRange{Start: d, End: d}
}

// Contains reports whether d falls within the range, inclusive on both ends.
func (r DateRange) Contains(d time.Time) bool {
	d = Day(d)
	return !d.Before(Day(r.Start)) && !d.After(Day(r.End))
}

// Valid reports whether the range start is not after its end.
func (r DateRange) Valid() bool {
	return !Day(r.Start).After(Day(r.End))
}

// EmployeeFilter restricts reports to a set of employees; an empty filter selects all.
type EmployeeFilter struct {
	Names []string
}

// Allows reports whether name passes the filter.
func (f EmployeeFilter) Allows(name string) bool {
	return len(f.Names) == 0 || slices.Contains(f.Names, name)
}
