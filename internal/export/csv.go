// Package export renders attendance reports as CSV and Excel files.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/Veraticus/ponto/internal/model"
)

// DailyHeader is the column header of the daily entry/exit listing.
var DailyHeader = []string{"Nome", "Data", "Entrada", "Saída"}

// DailyRow renders one summary as [name, date, entry, exit].
func DailyRow(s model.DailySummary) []string {
	return []string{s.EmployeeName, model.FormatDate(s.Date), s.Entry.String(), s.ExitString()}
}

// WriteCSV writes the daily listing with a header row.
func WriteCSV(w io.Writer, summaries []model.DailySummary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(DailyHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, s := range summaries {
		if err := cw.Write(DailyRow(s)); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
