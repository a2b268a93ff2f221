package attendance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/ponto/internal/model"
)

func day(d int) time.Time {
	return time.Date(2024, time.March, d, 0, 0, 0, 0, time.UTC)
}

func rec(name string, d int, clock string) *model.IdentificationRecord {
	return &model.IdentificationRecord{EmployeeName: name, Date: day(d), Time: model.MustParseClock(clock)}
}

var march = model.DateRange{Start: day(1), End: day(31)}

func TestSummarize(t *testing.T) {
	records := []*model.IdentificationRecord{
		rec("Ana", 1, "17:30"),
		rec("Ana", 1, "08:00"),
		rec("Ana", 1, "12:10"),
		rec("Bruno", 1, "09:00"),
		rec(model.NameUnknown, 1, "10:00"),
		rec(model.NameIgnored, 1, "11:00"),
		rec("Ana", 2, "08:15"),
	}

	got := Summarize(records, march, model.EmployeeFilter{})

	require.Len(t, got, 3)
	assert.Equal(t, model.DailySummary{
		EmployeeName: "Ana", Date: day(1), Count: 3,
		Entry: model.MustParseClock("08:00"), Exit: model.MustParseClock("17:30"), HasExit: true,
	}, got[0])
	assert.Equal(t, "Bruno", got[1].EmployeeName)
	assert.Equal(t, model.MissingExit, got[1].ExitString())
	assert.Equal(t, day(2), got[2].Date)
}

func TestSummarize_Filters(t *testing.T) {
	records := []*model.IdentificationRecord{
		rec("Ana", 1, "08:00"),
		rec("Bruno", 1, "08:00"),
		rec("Ana", 5, "08:00"),
	}

	got := Summarize(records, model.SingleDay(day(1)), model.EmployeeFilter{Names: []string{"Ana"}})
	require.Len(t, got, 1)
	assert.Equal(t, "Ana", got[0].EmployeeName)
	assert.Equal(t, day(1), got[0].Date)

	assert.Empty(t, Summarize(nil, march, model.EmployeeFilter{}))
}

func TestSummarize_Idempotent(t *testing.T) {
	records := []*model.IdentificationRecord{
		rec("Ana", 1, "08:00"), rec("Ana", 1, "17:30"), rec("Bruno", 2, "07:00"), rec("Carla", 1, "09:00"),
	}
	first := Summarize(records, march, model.EmployeeFilter{})
	second := Summarize(records, march, model.EmployeeFilter{})
	assert.Equal(t, first, second)
	assert.Equal(t, Balances(first, DefaultPolicy()), Balances(second, DefaultPolicy()))
}

func TestBalances(t *testing.T) {
	tests := []struct {
		name           string
		records        []*model.IdentificationRecord
		wantTotal      string
		wantIncomplete int
	}{
		{
			name:      "full day with one extra hour",
			records:   []*model.IdentificationRecord{rec("Ana", 1, "08:00"), rec("Ana", 1, "17:30")},
			wantTotal: "+01:00",
		},
		{
			name:      "exact target",
			records:   []*model.IdentificationRecord{rec("Ana", 1, "08:00"), rec("Ana", 1, "16:30")},
			wantTotal: "+00:00",
		},
		{
			name:      "short day",
			records:   []*model.IdentificationRecord{rec("Ana", 1, "08:00"), rec("Ana", 1, "15:45")},
			wantTotal: "-00:45",
		},
		{
			name: "days accumulate",
			records: []*model.IdentificationRecord{
				rec("Ana", 1, "08:00"), rec("Ana", 1, "17:30"),
				rec("Ana", 2, "08:00"), rec("Ana", 2, "15:00"),
			},
			wantTotal: "-00:30",
		},
		{
			name:           "single punch is incomplete",
			records:        []*model.IdentificationRecord{rec("Ana", 1, "08:00")},
			wantTotal:      "+00:00",
			wantIncomplete: 1,
		},
		{
			name:           "identical punches are incomplete",
			records:        []*model.IdentificationRecord{rec("Ana", 1, "08:00"), rec("Ana", 1, "08:00")},
			wantTotal:      "+00:00",
			wantIncomplete: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Balances(Summarize(tt.records, march, model.EmployeeFilter{}), DefaultPolicy())
			require.Len(t, got, 1)
			assert.Equal(t, tt.wantTotal, FormatBalance(got[0].Total))
			assert.Equal(t, tt.wantIncomplete, got[0].Incomplete)
		})
	}
}

func TestBalances_OrderedByName(t *testing.T) {
	summaries := Summarize([]*model.IdentificationRecord{
		rec("Bruno", 1, "08:00"), rec("Ana", 2, "08:00"),
	}, march, model.EmployeeFilter{})

	got := Balances(summaries, DefaultPolicy())
	require.Len(t, got, 2)
	assert.Equal(t, "Ana", got[0].EmployeeName)
	assert.Equal(t, "Bruno", got[1].EmployeeName)
}

func TestFormatBalance(t *testing.T) {
	tests := map[time.Duration]string{
		0:                             "+00:00",
		time.Hour:                     "+01:00",
		-45 * time.Minute:             "-00:45",
		12*time.Hour + 5*time.Minute:  "+12:05",
		-(30*time.Hour + time.Minute): "-30:01",
	}
	for d, want := range tests {
		assert.Equal(t, want, FormatBalance(d), d.String())
	}
}
