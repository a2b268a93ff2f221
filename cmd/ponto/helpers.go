package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/ponto/internal/common"
	"github.com/Veraticus/ponto/internal/config"
	"github.com/Veraticus/ponto/internal/engine"
	"github.com/Veraticus/ponto/internal/model"
	"github.com/Veraticus/ponto/internal/service"
	"github.com/Veraticus/ponto/internal/sheets"
	"github.com/Veraticus/ponto/internal/storage"
)

// initStorage opens the database and roster photo folder named in the config and migrates it.
func initStorage(ctx context.Context) (service.Storage, error) {
	dbPath := config.ExpandPath(viper.GetString("database.path"))
	photoDir := config.ExpandPath(viper.GetString("roster.photo_dir"))

	store, err := storage.NewSQLiteStorage(dbPath, photoDir)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// addRangeFlags registers --from and --to.
func addRangeFlags(cmd *cobra.Command) {
	cmd.Flags().String("from", "", "first day to include, DD/MM/YYYY (default: today)")
	cmd.Flags().String("to", "", "last day to include, DD/MM/YYYY (default: --from)")
	cmd.Flags().StringSlice("employee", nil, "only include these employees (repeatable)")
}

// rangeFromFlags reads --from and --to.
func rangeFromFlags(cmd *cobra.Command) (model.DateRange, error) {
	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")
	return parseRange(from, to, time.Now())
}

func filterFromFlags(cmd *cobra.Command) model.EmployeeFilter {
	names, _ := cmd.Flags().GetStringSlice("employee")
	for i, n := range names {
		names[i] = model.CanonicalName(n)
	}
	return model.EmployeeFilter{Names: names}
}

// parseRange builds an inclusive day range. An empty start means today and an empty end means the start.
func parseRange(from, to string, now time.Time) (model.DateRange, error) {
	start := model.Day(now)
	if from != "" {
		d, err := model.ParseDate(from)
		if err != nil {
			return model.DateRange{}, common.NewUserError(fmt.Sprintf("Invalid --from date %q, expected DD/MM/YYYY", from), err)
		}
		start = d
	}

	end := start
	if to != "" {
		d, err := model.ParseDate(to)
		if err != nil {
			return model.DateRange{}, common.NewUserError(fmt.Sprintf("Invalid --to date %q, expected DD/MM/YYYY", to), err)
		}
		end = d
	}

	r := model.DateRange{Start: start, End: end}
	if !r.Valid() {
		return model.DateRange{}, common.NewUserError("The start date must not be after the end date", common.ErrInvalidConfig)
	}
	return r, nil
}

// buildSinks returns the local database plus Google Sheets when it is configured.
// An unconfigured Sheets export is skipped with a warning rather than failing the run.
func buildSinks(ctx context.Context, store service.Storage, withSheets bool) []engine.RecordSink {
	sinks := []engine.RecordSink{store}
	if !withSheets {
		return sinks
	}

	cfg, err := config.LoadSheetsConfig()
	if err != nil {
		if errors.Is(err, sheets.ErrNoAuth) {
			slog.Warn("Google Sheets is not configured; records are only saved locally. Run 'ponto auth sheets' to set it up.")
		} else {
			slog.Warn("Google Sheets config is invalid; records are only saved locally", "error", err)
		}
		return sinks
	}

	writer, err := sheets.NewWriter(ctx, *cfg, slog.Default())
	if err != nil {
		slog.Warn("Failed to connect to Google Sheets; records are only saved locally", "error", err)
		return sinks
	}
	return append(sinks, writer)
}
