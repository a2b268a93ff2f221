package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Veraticus/ponto/internal/model"
)

func day(d int) time.Time {
	return time.Date(2024, time.March, d, 0, 0, 0, 0, time.UTC)
}

func event(d int, clock string) model.TranscriptEvent {
	return model.TranscriptEvent{Date: day(d), Time: model.MustParseClock(clock)}
}

func media(paths ...string) []model.MediaCandidate {
	out := make([]model.MediaCandidate, len(paths))
	for i, p := range paths {
		out[i] = model.MediaCandidate{Path: p}
	}
	return out
}

func TestAlign_SkipsWithoutShifting(t *testing.T) {
	events := []model.TranscriptEvent{
		event(1, "08:00"), event(1, "09:00"), event(1, "10:00"), event(1, "11:00"), event(1, "12:00"),
	}
	files := media("a.jpg", "b.txt", "c.jpg", "d.opus", "e.png")

	got := Align(events, files, model.DateRange{Start: day(1), End: day(1)})

	assert.Equal(t, 5, got.Limit)
	assert.Equal(t, 2, got.Skipped)
	assert.Equal(t, []model.AlignedItem{
		{Path: "a.jpg", Date: day(1), Time: model.MustParseClock("08:00"), Index: 0},
		{Path: "c.jpg", Date: day(1), Time: model.MustParseClock("10:00"), Index: 2},
		{Path: "e.png", Date: day(1), Time: model.MustParseClock("12:00"), Index: 4},
	}, got.Items)
}

func TestAlign_Limits(t *testing.T) {
	tests := []struct {
		name      string
		events    []model.TranscriptEvent
		media     []model.MediaCandidate
		wantLimit int
		wantItems int
	}{
		{
			name:      "more events than media",
			events:    []model.TranscriptEvent{event(1, "08:00"), event(1, "09:00"), event(1, "10:00")},
			media:     media("a.jpg"),
			wantLimit: 1,
			wantItems: 1,
		},
		{
			name:      "more media than events",
			events:    []model.TranscriptEvent{event(1, "08:00")},
			media:     media("a.jpg", "b.jpg", "c.jpg"),
			wantLimit: 1,
			wantItems: 1,
		},
		{
			name:      "no events",
			media:     media("a.jpg"),
			wantLimit: 0,
		},
		{
			name:      "no media",
			events:    []model.TranscriptEvent{event(1, "08:00")},
			wantLimit: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Align(tt.events, tt.media, model.DateRange{Start: day(1), End: day(31)})
			assert.Equal(t, tt.wantLimit, got.Limit)
			assert.Len(t, got.Items, tt.wantItems)
			assert.LessOrEqual(t, len(got.Items), min(len(tt.events), len(tt.media)))
		})
	}
}

// Filtering happens before pairing, so an out-of-range event shifts every later pair.
func TestAlign_FiltersBeforePairing(t *testing.T) {
	events := []model.TranscriptEvent{event(1, "08:00"), event(2, "08:10"), event(2, "17:40")}
	files := media("a.jpg", "b.jpg", "c.jpg")

	got := Align(events, files, model.SingleDay(day(2)))

	assert.Equal(t, 2, got.Filtered)
	assert.Equal(t, []model.AlignedItem{
		{Path: "a.jpg", Date: day(2), Time: model.MustParseClock("08:10"), Index: 0},
		{Path: "b.jpg", Date: day(2), Time: model.MustParseClock("17:40"), Index: 1},
	}, got.Items)
}

func TestAlign_RangeExcludesEverything(t *testing.T) {
	got := Align([]model.TranscriptEvent{event(1, "08:00")}, media("a.jpg"), model.SingleDay(day(5)))
	assert.Empty(t, got.Items)
	assert.Zero(t, got.Limit)
}
