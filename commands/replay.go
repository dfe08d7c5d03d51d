package commands

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/penwyp/go-pointer-monitor/internal/application/monitor"
	"github.com/penwyp/go-pointer-monitor/internal/core/dispatch"
	"github.com/penwyp/go-pointer-monitor/internal/core/model"
	"github.com/penwyp/go-pointer-monitor/internal/presentation/formatter"
	"github.com/penwyp/go-pointer-monitor/internal/util"
)

var (
	replayQuiet  bool
	replayOutput string
)

var replayCmd = &cobra.Command{
	Use:   "replay <recording-id>",
	Short: "Replay a saved recording with its original timing",
	Long: `Loads a recording and re-emits its events as synthetic pointer events,
preserving the relative timing between them. The replayed events pass
through the monitoring pipeline and are printed as they arrive.

Press Ctrl-C to stop playback.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)

	replayCmd.Flags().BoolVarP(&replayQuiet, "quiet", "q", false,
		"Do not print events as they are replayed")
	replayCmd.Flags().StringVarP(&replayOutput, "output", "o", formatter.FormatTable,
		"Output format for the final statistics (table, json, csv, summary)")
}

func runReplay(cmd *cobra.Command, args []string) error {
	if err := initRuntime(); err != nil {
		return err
	}
	f, err := formatter.New(replayOutput)
	if err != nil {
		return err
	}

	storage, err := openStorage()
	if err != nil {
		return err
	}
	defer storage.Close()

	rec, ok := storage.GetRecording(args[0])
	if !ok {
		return fmt.Errorf("recording %q not found", args[0])
	}

	bus := dispatch.NewBus()
	mon, err := monitor.New(monitor.Config{Capacity: len(rec.Events)}, monitor.Deps{Bus: bus})
	if err != nil {
		return err
	}
	defer mon.Close()

	out := cmd.OutOrStdout()
	if !replayQuiet {
		mon.OnEvent(func(event model.NormalizedEvent) {
			fmt.Fprintln(out, formatter.FitLine(formatEventLine(event)))
		})
	}

	recorder := mon.Recorder()
	if !recorder.LoadRecording(rec) {
		return fmt.Errorf("recording %q could not be loaded", rec.ID)
	}

	ctx, cancel := signal.NotifyContext(commandContext(cmd), os.Interrupt)
	defer cancel()

	fmt.Fprintf(out, "Replaying %s: %d events over %s\n",
		rec.ID, rec.Statistics.TotalEvents, util.FormatDurationMs(rec.Statistics.Duration))
	recorder.StartPlayback()
	done := recorder.Done()

	select {
	case <-done:
	case <-ctx.Done():
		recorder.StopPlayback()
		fmt.Fprintln(out, "Playback stopped.")
	}

	return f.Format(out, formatter.StatisticsReport(mon.Store().Statistics()))
}
