// Package timeline pairs transcript events with extracted media by position.
package timeline

import (
	"github.com/Veraticus/ponto/internal/model"
)

// Alignment is the outcome of pairing events with media.
type Alignment struct {
	Items []model.AlignedItem
	// Limit is the number of positional slots considered.
	Limit int
	// Skipped counts slots whose media was not a photo.
	Skipped int
	// Filtered is the number of events inside the date range.
	Filtered int
}

// Align filters events to the date range and pairs the i-th remaining event with the i-th media file.
// Slots whose media is not a photo are counted and skipped; later pairs do not shift to fill them.
func Align(events []model.TranscriptEvent, media []model.MediaCandidate, dateRange model.DateRange) Alignment {
	filtered := make([]model.TranscriptEvent, 0, len(events))
	for _, ev := range events {
		if dateRange.Contains(ev.Date) {
			filtered = append(filtered, ev)
		}
	}

	limit := min(len(filtered), len(media))
	result := Alignment{
		Items:    make([]model.AlignedItem, 0, limit),
		Limit:    limit,
		Filtered: len(filtered),
	}

	for i := 0; i < limit; i++ {
		if !media[i].IsPhoto() {
			result.Skipped++
			continue
		}
		result.Items = append(result.Items, model.AlignedItem{
			Path:  media[i].Path,
			Date:  filtered[i].Date,
			Time:  filtered[i].Time,
			Index: i,
		})
	}

	return result
}
