package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/ponto/internal/attendance"
	"github.com/Veraticus/ponto/internal/engine"
	"github.com/Veraticus/ponto/internal/model"
)

// RenderTable lays out rows under a header with columns padded to their widest cell.
func RenderTable(header []string, rows [][]string) string {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], lipgloss.Width(cell))
			}
		}
	}

	render := func(cells []string, style lipgloss.Style) string {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			parts[i] = TableCellStyle.Width(widths[i] + 2).Render(cell)
		}
		return style.Render(lipgloss.JoinHorizontal(lipgloss.Top, parts...))
	}

	lines := []string{render(header, TableHeaderStyle)}
	for _, row := range rows {
		lines = append(lines, render(row, lipgloss.NewStyle()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// RenderReport writes the daily listing followed by each employee's balance.
func RenderReport(w io.Writer, report attendance.Report) error {
	title := fmt.Sprintf("Attendance %s to %s", model.FormatDate(report.Range.Start), model.FormatDate(report.Range.End))
	if _, err := fmt.Fprintln(w, FormatTitle(title)); err != nil {
		return err
	}

	if len(report.Summaries) == 0 {
		_, err := fmt.Fprintln(w, FormatInfo("No attendance records in this period."))
		return err
	}

	rows := make([][]string, 0, len(report.Summaries))
	for _, s := range report.Summaries {
		exit := s.ExitString()
		if s.Incomplete() {
			exit = IncompleteStyle.Render(exit)
		}
		rows = append(rows, []string{s.EmployeeName, model.FormatDate(s.Date), s.Entry.String(), exit})
	}
	if _, err := fmt.Fprintln(w, RenderTable([]string{"Name", "Date", "Entry", "Exit"}, rows)); err != nil {
		return err
	}

	balances := make([][]string, 0, len(report.Balances))
	for _, b := range report.Balances {
		incomplete := ""
		if b.Incomplete > 0 {
			incomplete = IncompleteStyle.Render(fmt.Sprintf("%d incomplete", b.Incomplete))
		}
		balances = append(balances, []string{
			b.EmployeeName,
			fmt.Sprintf("%d", len(b.Days)),
			StyleBalance(attendance.FormatBalance(b.Total)),
			incomplete,
		})
	}
	_, err := fmt.Fprintln(w, "\n"+RenderTable([]string{"Name", "Days", "Balance", ""}, balances))
	return err
}

// RenderOutcome summarizes a finished run.
func RenderOutcome(w io.Writer, outcome *engine.Outcome) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Records saved: %d\n", outcome.Records)
	for _, name := range outcome.Failed {
		sb.WriteString(FormatWarning(name+" could not be updated") + "\n")
	}
	if outcome.Degraded {
		sb.WriteString(FormatWarning(outcome.Message))
	} else {
		sb.WriteString(FormatSuccess(outcome.Message))
	}
	_, err := fmt.Fprintln(w, RenderBox("Run Complete", sb.String()))
	return err
}
