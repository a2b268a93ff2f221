package face

import (
	"context"
	"log/slog"
	"math"
	"slices"
	"sync"

	"github.com/Veraticus/ponto/internal/model"
)

// EnrollmentSource lists the reference photos of active employees, in enrollment order.
type EnrollmentSource interface {
	ListEnrollments(ctx context.Context) ([]model.Enrollment, error)
}

// Roster is the set of known face embeddings for one run.
// It only grows: Enroll is the single mutation.
type Roster struct {
	entries []model.RosterEntry
	mu      sync.RWMutex
}

// NewRoster creates a roster from entries in load order.
func NewRoster(entries ...model.RosterEntry) *Roster {
	return &Roster{entries: slices.Clone(entries)}
}

// Enroll appends an entry at the end of the roster.
func (r *Roster) Enroll(entry model.RosterEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
}

// Len returns the number of entries.
func (r *Roster) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Entries returns a copy of the entries in load order.
func (r *Roster) Entries() []model.RosterEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.entries)
}

// Names returns the distinct employee names on the roster, sorted.
func (r *Roster) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		if !slices.Contains(names, e.EmployeeName) {
			names = append(names, e.EmployeeName)
		}
	}
	slices.Sort(names)
	return names
}

// FirstMatch returns the name of the first entry, in load order, within tolerance of emb.
// It does not look for the nearest entry.
func (r *Roster) FirstMatch(emb model.Embedding, tolerance float64) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.entries {
		if len(e.Embedding) == 0 || len(e.Embedding) != len(emb) {
			continue
		}
		if Distance(e.Embedding, emb) <= tolerance {
			return e.EmployeeName, true
		}
	}
	return "", false
}

// Distance is the Euclidean distance between two embeddings of equal length.
func Distance(a, b model.Embedding) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// LoadRoster embeds every enrolled photo and keeps the first face of each.
// Photos that cannot be read or have no detectable face are left out.
func LoadRoster(ctx context.Context, source EnrollmentSource, embedder *Embedder) (*Roster, error) {
	enrollments, err := source.ListEnrollments(ctx)
	if err != nil {
		return nil, err
	}

	roster := NewRoster()
	for _, en := range enrollments {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		det, err := embedder.EmbedFile(en.PhotoPath)
		if err != nil {
			slog.Debug("Skipping unreadable roster photo", "employee", en.EmployeeName, "path", en.PhotoPath, "error", err)
			continue
		}
		if len(det.Embeddings) == 0 {
			slog.Debug("Skipping roster photo without face", "employee", en.EmployeeName, "path", en.PhotoPath)
			continue
		}

		roster.Enroll(model.RosterEntry{
			EmployeeName: en.EmployeeName,
			PhotoPath:    en.PhotoPath,
			Embedding:    det.Embeddings[0],
		})
	}

	slog.Info("Roster loaded", "photos", len(enrollments), "entries", roster.Len())
	return roster, nil
}
