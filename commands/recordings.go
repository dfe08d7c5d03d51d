package commands

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/penwyp/go-pointer-monitor/internal/data/persistence"
	"github.com/penwyp/go-pointer-monitor/internal/presentation/formatter"
	"github.com/penwyp/go-pointer-monitor/internal/presentation/interaction"
)

var (
	recordingsOutput string
	recordingsSort   string
	recordingsDesc   bool
)

var recordingsCmd = &cobra.Command{
	Use:     "recordings",
	Aliases: []string{"rec"},
	Short:   "Manage saved recordings",
}

var recordingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved recordings",
	Args:  cobra.NoArgs,
	RunE:  runRecordingsList,
}

var recordingsShowCmd = &cobra.Command{
	Use:   "show <recording-id>",
	Short: "Print the events of a recording",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecordingsShow,
}

var recordingsDeleteCmd = &cobra.Command{
	Use:   "delete <recording-id>",
	Short: "Delete a recording",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecordingsDelete,
}

var recordingsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every recording",
	Args:  cobra.NoArgs,
	RunE:  runRecordingsClear,
}

var recordingsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every recording along with saved settings and ROI",
	Args:  cobra.NoArgs,
	RunE:  runRecordingsReset,
}

var recordingsInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show storage usage",
	Args:  cobra.NoArgs,
	RunE:  runRecordingsInfo,
}

var recordingsWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print changes to the data directory as they happen (file backend)",
	Args:  cobra.NoArgs,
	RunE:  runRecordingsWatch,
}

func init() {
	rootCmd.AddCommand(recordingsCmd)
	recordingsCmd.AddCommand(recordingsListCmd, recordingsShowCmd, recordingsDeleteCmd,
		recordingsClearCmd, recordingsResetCmd, recordingsInfoCmd, recordingsWatchCmd)

	recordingsCmd.PersistentFlags().StringVarP(&recordingsOutput, "output", "o", formatter.FormatTable,
		"Output format (table, json, csv, summary)")

	recordingsListCmd.Flags().StringVar(&recordingsSort, "sort", "time",
		"Sort field (time, events, duration)")
	recordingsListCmd.Flags().BoolVar(&recordingsDesc, "desc", false,
		"Sort in descending order")
}

// withStorage runs fn against an opened storage.
func withStorage(fn func(*persistence.Storage) error) error {
	if err := initRuntime(); err != nil {
		return err
	}
	storage, err := openStorage()
	if err != nil {
		return err
	}
	defer storage.Close()
	return fn(storage)
}

func runRecordingsList(cmd *cobra.Command, args []string) error {
	f, err := formatter.New(recordingsOutput)
	if err != nil {
		return err
	}
	field, err := interaction.ParseSortField(recordingsSort)
	if err != nil {
		return err
	}
	order := interaction.SortAscending
	if recordingsDesc {
		order = interaction.SortDescending
	}
	sorter := interaction.NewRecordingSorter(field, order)

	return withStorage(func(storage *persistence.Storage) error {
		recordings := sorter.SortMap(storage.GetRecordings())
		return f.Format(cmd.OutOrStdout(), formatter.RecordingsReport(recordings))
	})
}

func runRecordingsShow(cmd *cobra.Command, args []string) error {
	f, err := formatter.New(recordingsOutput)
	if err != nil {
		return err
	}
	return withStorage(func(storage *persistence.Storage) error {
		rec, ok := storage.GetRecording(args[0])
		if !ok {
			return fmt.Errorf("recording %q not found", args[0])
		}
		out := cmd.OutOrStdout()
		if err := f.Format(out, formatter.EventsReport(rec.ID, rec.Events)); err != nil {
			return err
		}
		if recordingsOutput == formatter.FormatTable {
			return f.Format(out, formatter.RecordingStatisticsReport(rec.Statistics))
		}
		return nil
	})
}

func runRecordingsDelete(cmd *cobra.Command, args []string) error {
	return withStorage(func(storage *persistence.Storage) error {
		if _, ok := storage.GetRecording(args[0]); !ok {
			return fmt.Errorf("recording %q not found", args[0])
		}
		if !storage.DeleteRecording(args[0]) {
			return fmt.Errorf("failed to delete recording %q", args[0])
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
		return nil
	})
}

func runRecordingsClear(cmd *cobra.Command, args []string) error {
	return withStorage(func(storage *persistence.Storage) error {
		if !storage.ClearRecordings() {
			return fmt.Errorf("failed to clear recordings")
		}
		fmt.Fprintln(cmd.OutOrStdout(), "All recordings cleared.")
		return nil
	})
}

func runRecordingsReset(cmd *cobra.Command, args []string) error {
	return withStorage(func(storage *persistence.Storage) error {
		if !storage.ClearAll() {
			return fmt.Errorf("failed to reset stored data")
		}
		fmt.Fprintln(cmd.OutOrStdout(), "All stored data cleared.")
		return nil
	})
}

func runRecordingsInfo(cmd *cobra.Command, args []string) error {
	f, err := formatter.New(recordingsOutput)
	if err != nil {
		return err
	}
	return withStorage(func(storage *persistence.Storage) error {
		return f.Format(cmd.OutOrStdout(), formatter.StorageReport(storage.StorageInfo()))
	})
}

func runRecordingsWatch(cmd *cobra.Command, args []string) error {
	return withStorage(func(storage *persistence.Storage) error {
		fb, ok := storage.Backend().(*persistence.FileBackend)
		if !ok {
			return fmt.Errorf("watch requires the file backend, got %q", backend)
		}
		watcher, err := persistence.NewWatcher(fb)
		if err != nil {
			return err
		}
		defer watcher.Close()

		ctx, cancel := signal.NotifyContext(commandContext(cmd), os.Interrupt)
		defer cancel()

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Watching %s (Ctrl-C to stop)\n", fb.Dir())
		for {
			select {
			case <-ctx.Done():
				return nil
			case change, ok := <-watcher.Events():
				if !ok {
					return nil
				}
				fmt.Fprintf(out, "%s %s\n", change.Op, change.Key)
				if change.Key == persistence.KeyRecordings {
					fmt.Fprintf(out, "  %d recordings\n", len(storage.GetRecordings()))
				}
			}
		}
	})
}
