package face

import (
	"github.com/Veraticus/ponto/internal/model"
)

// DefaultTolerance is the distance below which two faces are considered the same person.
const DefaultTolerance = 0.45

// Matcher identifies the faces in aligned photos.
type Matcher struct {
	roster    *Roster
	embedder  *Embedder
	tolerance float64
}

// NewMatcher creates a matcher against roster. The roster is shared, so later enrollments are visible.
func NewMatcher(roster *Roster, embedder *Embedder, tolerance float64) *Matcher {
	return &Matcher{roster: roster, embedder: embedder, tolerance: tolerance}
}

// Tolerance returns the match threshold in use.
func (m *Matcher) Tolerance() float64 {
	return m.tolerance
}

// Identify returns one record per face in the photo, or a single Unknown record when no face is found.
// A decode or detection error is returned as is; the caller decides whether to continue.
func (m *Matcher) Identify(item model.AlignedItem) ([]*model.IdentificationRecord, Strategy, error) {
	det, err := m.embedder.EmbedFile(item.Path)
	if err != nil {
		return nil, StrategyNone, err
	}

	if len(det.Embeddings) == 0 {
		return []*model.IdentificationRecord{{
			EmployeeName: model.NameUnknown,
			Date:         item.Date,
			Time:         item.Time,
			SourcePhoto:  item.Path,
		}}, det.Strategy, nil
	}

	records := make([]*model.IdentificationRecord, 0, len(det.Embeddings))
	for _, emb := range det.Embeddings {
		name, ok := m.roster.FirstMatch(emb, m.tolerance)
		if !ok {
			name = model.NameUnknown
		}
		records = append(records, &model.IdentificationRecord{
			EmployeeName: name,
			Date:         item.Date,
			Time:         item.Time,
			SourcePhoto:  item.Path,
			Embedding:    emb,
		})
	}
	return records, det.Strategy, nil
}
