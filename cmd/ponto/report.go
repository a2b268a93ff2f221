package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/ponto/internal/attendance"
	"github.com/Veraticus/ponto/internal/cli"
	"github.com/Veraticus/ponto/internal/common"
	"github.com/Veraticus/ponto/internal/export"
	"github.com/Veraticus/ponto/internal/model"
)

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show entry/exit times and hour balances",
		Long: `Show daily entry/exit times and hour balances from saved records.

Entry is the first photo of the day and exit the last. The balance of a day is
the time between them minus a one-hour break, compared to a 7h30 working day.
Days with a single photo are marked incomplete.`,
		RunE: runReport,
	}

	addRangeFlags(cmd)
	cmd.Flags().String("format", "table", "output format (table, csv, xlsx)")
	cmd.Flags().StringP("output", "o", "", "write to this file instead of the terminal")

	return cmd
}

func runReport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	dateRange, err := rangeFromFlags(cmd)
	if err != nil {
		return err
	}
	filter := filterFromFlags(cmd)
	format, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			slog.Error("Failed to close storage", "error", closeErr)
		}
	}()

	records, err := store.ListRecords(ctx, dateRange, filter)
	if err != nil {
		return fmt.Errorf("failed to load records: %w", err)
	}
	report := attendance.BuildReport(records, dateRange, filter, attendance.DefaultPolicy())

	if format == "xlsx" && output == "" {
		output = defaultReportName(dateRange, "xlsx")
	}

	var w io.Writer = cmd.OutOrStdout()
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", output, err)
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil {
				slog.Error("Failed to close report file", "path", output, "error", closeErr)
			}
		}()
		w = f
	}

	if err := writeReport(w, format, report); err != nil {
		return err
	}
	if output != "" {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Report written to "+output))
	}
	return nil
}

func writeReport(w io.Writer, format string, report attendance.Report) error {
	switch strings.ToLower(format) {
	case "table":
		return cli.RenderReport(w, report)
	case "csv":
		return export.WriteCSV(w, report.Summaries)
	case "xlsx":
		return export.WriteXLSX(w, report)
	default:
		return common.NewUserError(fmt.Sprintf("Unknown format %q; use table, csv or xlsx", format), common.ErrInvalidConfig)
	}
}

func defaultReportName(r model.DateRange, ext string) string {
	return fmt.Sprintf("ponto_%s_%s.%s", r.Start.Format("20060102"), r.End.Format("20060102"), ext)
}
