package attendance

import (
	"github.com/Veraticus/ponto/internal/model"
)

// Report bundles the daily rows and balances for one date range.
type Report struct {
	Range     model.DateRange
	Filter    model.EmployeeFilter
	Summaries []model.DailySummary
	Balances  []model.BalanceResult
	Policy    Policy
}

// BuildReport summarizes records and computes balances under policy.
func BuildReport(records []*model.IdentificationRecord, dateRange model.DateRange, filter model.EmployeeFilter, policy Policy) Report {
	summaries := Summarize(records, dateRange, filter)
	return Report{
		Range:     dateRange,
		Filter:    filter,
		Summaries: summaries,
		Balances:  Balances(summaries, policy),
		Policy:    policy,
	}
}
