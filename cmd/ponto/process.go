package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/ncruces/zenity"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/ponto/internal/attendance"
	"github.com/Veraticus/ponto/internal/cli"
	"github.com/Veraticus/ponto/internal/common"
	"github.com/Veraticus/ponto/internal/config"
	"github.com/Veraticus/ponto/internal/engine"
	"github.com/Veraticus/ponto/internal/face/dlib"
	"github.com/Veraticus/ponto/internal/reconcile"
	"github.com/Veraticus/ponto/internal/tui"
)

func processCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process [ARCHIVE]",
		Short: "Process a WhatsApp chat export",
		Long: `Process a WhatsApp chat export (.zip with the chat transcript and photos).

This command will:
1. Unpack the archive into a temporary folder
2. Pair each photo with the time it was sent
3. Recognize the employee in each photo
4. Ask you about photos it could not recognize
5. Save the records locally and append them to Google Sheets
6. Print the entry/exit report for the period`,
		Args: cobra.MaximumNArgs(1),
		RunE: runProcess,
	}

	addRangeFlags(cmd)
	cmd.Flags().Bool("pick", false, "choose the archive in a file dialog")
	cmd.Flags().Float64("tolerance", 0, "face distance tolerance, 0.35 to 0.60 (default from config)")
	cmd.Flags().Bool("tui", false, "review unknown photos in a full-screen view")
	cmd.Flags().Bool("no-sheets", false, "skip the Google Sheets export")

	_ = viper.BindPFlag("engine.tolerance", cmd.Flags().Lookup("tolerance"))

	return cmd
}

func runProcess(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	pick, _ := cmd.Flags().GetBool("pick")
	archivePath, err := resolveArchive(args, pick)
	if err != nil {
		return err
	}

	dateRange, err := rangeFromFlags(cmd)
	if err != nil {
		return err
	}
	filter := filterFromFlags(cmd)

	settings, err := config.LoadSettings(viper.GetViper())
	if err != nil {
		return err
	}

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			slog.Error("Failed to close storage", "error", closeErr)
		}
	}()

	detector, err := dlib.New(settings.ModelsDir)
	if err != nil {
		return common.NewUserError(
			fmt.Sprintf("Face models not found in %s. Download the dlib models there or set engine.models_dir.", settings.ModelsDir), err)
	}
	defer detector.Close()

	noSheets, _ := cmd.Flags().GetBool("no-sheets")
	withSheets := !noSheets && viper.GetBool("sheets.enabled")

	reporter := engine.NewChannelReporter(256)
	stop := &engine.StopFlag{}
	eng := engine.NewWithConfig(engine.Dependencies{
		Detector:    detector,
		Enrollments: store,
		Enroller:    store,
		Reporter:    reporter,
		Stop:        stop,
		Sinks:       buildSinks(ctx, store, withSheets),
	}, settings.EngineConfig())

	handler := cli.NewInterruptHandler(cmd.ErrOrStderr(), stop.Stop)
	ctx = handler.HandleInterrupts(ctx)

	worker := engine.NewWorker(eng)
	monitor := cli.NewMonitor(reporter, out)

	_, _ = fmt.Fprintln(out, cli.FormatTitle("Processing "+archivePath))
	worker.StartMatch(ctx, engine.Request{ArchivePath: archivePath, Range: dateRange})
	ev, err := awaitPhase(ctx, worker, reporter, monitor)
	if err != nil {
		return err
	}
	run := ev.Run

	if resolver, prompter := resolverFor(cmd, run); resolver != nil {
		reviewUnknowns(ctx, run, resolver, stop)
		prompter.ShowCompletion(run.Queue.Summary())
	}

	outcome, err := finalizeRun(ctx, worker, reporter, monitor, run)
	if err != nil {
		return err
	}
	if err := cli.RenderOutcome(out, outcome); err != nil {
		return err
	}

	report := attendance.BuildReport(run.Records, dateRange, filter, attendance.DefaultPolicy())
	return cli.RenderReport(out, report)
}

// awaitPhase waits for the worker's terminal event. A failure event becomes an error.
func awaitPhase(ctx context.Context, worker *engine.Worker, reporter *engine.ChannelReporter, monitor *cli.Monitor) (engine.Event, error) {
	ev, err := monitor.Wait(ctx)
	if err != nil {
		drainUntilDone(worker, reporter)
		return engine.Event{}, err
	}
	if ev.Kind == engine.EventFailed {
		worker.Wait()
		return engine.Event{}, errors.New(ev.Text)
	}
	return ev, nil
}

// drainUntilDone discards events so a worker blocked on a full reporter can finish.
func drainUntilDone(worker *engine.Worker, reporter *engine.ChannelReporter) {
	done := make(chan struct{})
	go func() {
		worker.Wait()
		close(done)
	}()
	for {
		select {
		case <-done:
			return
		case <-reporter.Events():
		}
	}
}

// resolverFor picks how unknown photos are reviewed. A nil resolver means no review: the run
// was stopped, nothing is unknown, or nobody is at the terminal.
func resolverFor(cmd *cobra.Command, run *engine.Run) (reconcile.Resolver, *cli.Prompter) {
	q := run.Queue
	if q.Len() == 0 {
		return nil, nil
	}
	if run.Cancelled {
		slog.Warn("Run was stopped; unknown photos stay unknown", "unknown", q.Len())
		return nil, nil
	}
	if !cli.IsTerminal(os.Stdin) {
		slog.Warn("Input is not a terminal; unknown photos stay unknown", "unknown", q.Len())
		return nil, nil
	}

	prompter := cli.NewCLIPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
	if useTUI, _ := cmd.Flags().GetBool("tui"); useTUI {
		return tui.NewResolver(), prompter
	}
	return prompter, prompter
}

// reviewUnknowns walks the review queue. An interrupt ends the review and marks the run
// cancelled; the items not yet decided stay unknown.
func reviewUnknowns(ctx context.Context, run *engine.Run, resolver reconcile.Resolver, stop *engine.StopFlag) {
	reviewCtx, endReview := context.WithCancel(ctx)
	defer endReview()
	go func() {
		select {
		case <-stop.Done():
			endReview()
		case <-reviewCtx.Done():
		}
	}()

	err := reconcile.Drain(reviewCtx, run.Queue, resolver, stop)
	if reviewCtx.Err() != nil || stop.Stopped() {
		run.Cancelled = true
		slog.Warn("Review interrupted; remaining photos stay unknown", "pending", run.Queue.Remaining())
		return
	}
	if err != nil {
		slog.Warn("Review ended early", "error", err)
	}
}

// finalizeRun saves the run's records and releases its workspace. It is detached from ctx's
// cancellation so an abort during review still exports what was gathered.
func finalizeRun(ctx context.Context, worker *engine.Worker, reporter *engine.ChannelReporter, monitor *cli.Monitor, run *engine.Run) (*engine.Outcome, error) {
	ctx = context.WithoutCancel(ctx)
	worker.StartFinalize(ctx, run)
	ev, err := awaitPhase(ctx, worker, reporter, monitor)
	if err != nil {
		return nil, err
	}
	return ev.Outcome, nil
}

// resolveArchive returns the archive named on the command line or picked in a dialog.
func resolveArchive(args []string, pick bool) (string, error) {
	if len(args) == 1 {
		if _, err := os.Stat(args[0]); err != nil {
			return "", common.NewUserError(fmt.Sprintf("Cannot open %s", args[0]), err)
		}
		return args[0], nil
	}
	if !pick {
		return "", common.NewUserError("Give the exported .zip file or use --pick", common.ErrNothingToProcess)
	}

	path, err := zenity.SelectFile(
		zenity.Title("Select the WhatsApp export"),
		zenity.FileFilters{
			{Name: "WhatsApp export", Patterns: []string{"*.zip"}},
		},
	)
	if err != nil {
		if errors.Is(err, zenity.ErrCanceled) {
			return "", common.NewUserError("No file selected", common.ErrNothingToProcess)
		}
		return "", fmt.Errorf("file picker failed: %w", err)
	}
	return path, nil
}
