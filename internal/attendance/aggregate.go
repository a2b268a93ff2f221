// Package attendance turns identification records into daily entry/exit pairs and hour balances.
package attendance

import (
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/Veraticus/ponto/internal/model"
)

// Policy is the working-day rule a balance is computed against.
type Policy struct {
	Break    time.Duration
	Expected time.Duration
}

// DefaultPolicy is a 7h30m working day with a one-hour break.
func DefaultPolicy() Policy {
	return Policy{Break: time.Hour, Expected: 7*time.Hour + 30*time.Minute}
}

type dayKey struct {
	date time.Time
	name string
}

// Summarize groups attributed records by employee and day. Entry is the earliest time of the day and
// exit the latest; a day with a single punch has no exit. Unknown and Ignored records are left out.
// Results are ordered by date, then employee name.
func Summarize(records []*model.IdentificationRecord, dateRange model.DateRange, filter model.EmployeeFilter) []model.DailySummary {
	times := make(map[dayKey][]model.ClockTime)
	for _, r := range records {
		if !r.Attributed() || !dateRange.Contains(r.Date) || !filter.Allows(r.EmployeeName) {
			continue
		}
		k := dayKey{date: model.Day(r.Date), name: r.EmployeeName}
		times[k] = append(times[k], r.Time)
	}

	out := make([]model.DailySummary, 0, len(times))
	for k, ts := range times {
		slices.Sort(ts)
		s := model.DailySummary{
			EmployeeName: k.name,
			Date:         k.date,
			Entry:        ts[0],
			Count:        len(ts),
		}
		if len(ts) > 1 {
			s.Exit = ts[len(ts)-1]
			s.HasExit = true
		} else {
			s.Exit = ts[0]
		}
		out = append(out, s)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].EmployeeName < out[j].EmployeeName
	})
	return out
}

// DayBalance returns the balance of a single complete day. ok is false for incomplete days.
func (p Policy) DayBalance(s model.DailySummary) (time.Duration, bool) {
	if s.Incomplete() {
		return 0, false
	}
	return s.Exit.Sub(s.Entry) - p.Break - p.Expected, true
}

// Balances totals each employee's complete days. Incomplete days are kept in Days but do not count.
// Results are ordered by employee name.
func Balances(summaries []model.DailySummary, policy Policy) []model.BalanceResult {
	byName := make(map[string]*model.BalanceResult)
	var names []string
	for _, s := range summaries {
		b, ok := byName[s.EmployeeName]
		if !ok {
			b = &model.BalanceResult{EmployeeName: s.EmployeeName}
			byName[s.EmployeeName] = b
			names = append(names, s.EmployeeName)
		}
		b.Days = append(b.Days, s)
		if d, complete := policy.DayBalance(s); complete {
			b.Total += d
		} else {
			b.Incomplete++
		}
	}

	sort.Strings(names)
	out := make([]model.BalanceResult, 0, len(names))
	for _, n := range names {
		out = append(out, *byName[n])
	}
	return out
}

// FormatBalance renders a duration as a signed HH:MM string, e.g. "+01:00" or "-00:45".
func FormatBalance(d time.Duration) string {
	sign := "+"
	if d < 0 {
		sign = "-"
		d = -d
	}
	minutes := int(d / time.Minute)
	return fmt.Sprintf("%s%02d:%02d", sign, minutes/60, minutes%60)
}
