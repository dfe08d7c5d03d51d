package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/penwyp/go-pointer-monitor/internal/application/monitor"
	"github.com/penwyp/go-pointer-monitor/internal/core/dispatch"
	"github.com/penwyp/go-pointer-monitor/internal/core/model"
	"github.com/penwyp/go-pointer-monitor/internal/data/parser"
	"github.com/penwyp/go-pointer-monitor/internal/metrics"
	"github.com/penwyp/go-pointer-monitor/internal/presentation/formatter"
	"github.com/penwyp/go-pointer-monitor/internal/util"
)

var (
	// Input flags
	monitorInput    string
	monitorRealtime bool

	// Pipeline flags
	monitorCapacity int
	monitorRegion   string
	monitorROI      string
	monitorTypes    string
	monitorRestore  bool

	// Recording flags
	monitorRecord bool

	// Event listing flags
	monitorRecent      int
	monitorWindow      time.Duration
	monitorFilterTypes string

	// Output flags
	monitorLogEvents    bool
	monitorOutput       string
	monitorMetricsAddr  string
	monitorSaveSettings bool
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Stream pointer events through the monitoring pipeline",
	Long: `Reads raw pointer events as JSON lines from a file or stdin and feeds them
through the pipeline: normalization, the bounded event store, the ROI and
type filters, and optionally the recorder.

Each line is a raw event, for example:
  {"type":"pointerdown","pointerId":1,"clientX":120,"clientY":240}
  {"type":"pointermove","clientX":121,"clientY":242,"delayMs":16}

Statistics are printed when the input ends or on Ctrl-C. With --recent,
--window or --filter-types the matching stored events are listed too.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)

	monitorCmd.Flags().StringVarP(&monitorInput, "input", "i", "",
		"JSON lines file to read (default stdin)")
	monitorCmd.Flags().BoolVar(&monitorRealtime, "realtime", false,
		"Honour delayMs pauses between lines")

	monitorCmd.Flags().IntVar(&monitorCapacity, "capacity", model.DefaultCapacity,
		"Maximum number of events kept in the store")
	monitorCmd.Flags().StringVar(&monitorRegion, "region", "",
		"Store only events inside x1,y1,x2,y2")
	monitorCmd.Flags().StringVar(&monitorROI, "roi", "",
		"Region of interest as x,y,width,height")
	monitorCmd.Flags().StringVar(&monitorTypes, "types", "",
		"Comma-separated event types to accept (default all)")
	monitorCmd.Flags().BoolVar(&monitorRestore, "restore", false,
		"Restore persisted settings and ROI before streaming")

	monitorCmd.Flags().BoolVar(&monitorRecord, "record", false,
		"Record accepted events and save the recording at the end")

	monitorCmd.Flags().IntVar(&monitorRecent, "recent", 0,
		"List the newest N stored events")
	monitorCmd.Flags().DurationVar(&monitorWindow, "window", 0,
		"List stored events from the last part of the session (e.g., 500ms)")
	monitorCmd.Flags().StringVar(&monitorFilterTypes, "filter-types", "",
		"List stored events of these comma-separated types")

	monitorCmd.Flags().BoolVar(&monitorLogEvents, "log-events", false,
		"Log and print every accepted event")
	monitorCmd.Flags().StringVarP(&monitorOutput, "output", "o", formatter.FormatTable,
		"Output format (table, json, csv, summary)")
	monitorCmd.Flags().StringVar(&monitorMetricsAddr, "metrics-addr", "",
		"Serve Prometheus metrics on this address (e.g., :9090)")
	monitorCmd.Flags().BoolVar(&monitorSaveSettings, "save-settings", false,
		"Persist the type filter and logging preferences")
}

func monitorConfig() (monitor.Config, error) {
	cfg := monitor.Config{
		Capacity:       monitorCapacity,
		ConsoleLogging: monitorLogEvents,
	}
	if monitorRegion != "" {
		corners, err := parseCorners(monitorRegion)
		if err != nil {
			return cfg, err
		}
		cfg.Region = &corners
	}
	if monitorTypes != "" {
		enabled, err := parseTypes(monitorTypes)
		if err != nil {
			return cfg, err
		}
		cfg.EnabledTypes = enabled
	}
	return cfg, nil
}

// eventQuery builds the stored event listing requested by flags. ok is false
// when no listing was asked for.
func eventQuery() (q monitor.EventQuery, ok bool, err error) {
	if monitorRecent < 0 {
		return q, false, fmt.Errorf("invalid recent count %d: must not be negative", monitorRecent)
	}
	if monitorWindow < 0 {
		return q, false, fmt.Errorf("invalid window %s: must not be negative", monitorWindow)
	}
	kinds, err := parseKinds(monitorFilterTypes)
	if err != nil {
		return q, false, err
	}
	q = monitor.EventQuery{Types: kinds, Window: monitorWindow, Recent: monitorRecent}
	return q, monitorRecent > 0 || monitorWindow > 0 || len(kinds) > 0, nil
}

func eventsTitle(q monitor.EventQuery, count int) string {
	title := fmt.Sprintf("Stored events: %d", count)
	if len(q.Types) > 0 {
		title += fmt.Sprintf(" | types %v", q.Types)
	}
	if q.Window > 0 {
		title += " | last " + util.FormatDurationMs(q.Window.Milliseconds())
	}
	return title
}

// overrideSettings replaces the restored preferences that were set explicitly
// on the command line.
func overrideSettings(cmd *cobra.Command, stored model.Settings, cfg monitor.Config) model.Settings {
	if cmd.Flags().Changed("types") {
		stored.EnabledTypes = cfg.EnabledTypes
	}
	if cmd.Flags().Changed("log-events") {
		stored.ConsoleLogging = cfg.ConsoleLogging
	}
	return stored
}

func runMonitor(cmd *cobra.Command, args []string) error {
	if err := initRuntime(); err != nil {
		return err
	}

	cfg, err := monitorConfig()
	if err != nil {
		return err
	}
	f, err := formatter.New(monitorOutput)
	if err != nil {
		return err
	}
	query, listEvents, err := eventQuery()
	if err != nil {
		return err
	}

	storage, err := openStorage()
	if err != nil {
		return err
	}
	defer storage.Close()

	m := metrics.New()
	bus := dispatch.NewBus()
	mon, err := monitor.New(cfg, monitor.Deps{Bus: bus, Storage: storage, Metrics: m})
	if err != nil {
		return err
	}
	defer mon.Close()

	if monitorRestore {
		if settings, ok := storage.GetSettings(); ok {
			mon.ApplySettings(overrideSettings(cmd, settings, cfg))
		}
		mon.RestoreROI()
	}
	if monitorROI != "" {
		r, err := parseRect(monitorROI)
		if err != nil {
			return err
		}
		mon.Selector().UpdateROIFromSliders(r)
	}

	if monitorMetricsAddr != "" {
		stop := serveMetrics(monitorMetricsAddr, m)
		defer stop()
	}

	out := cmd.OutOrStdout()
	if monitorLogEvents {
		mon.OnEvent(func(event model.NormalizedEvent) {
			fmt.Fprintln(out, formatter.FitLine(formatEventLine(event)))
		})
	}

	input, closeInput, err := openInput(cmd)
	if err != nil {
		return err
	}
	defer closeInput()

	if monitorRecord {
		mon.Recorder().StartRecording()
	}

	ctx, cancel := signal.NotifyContext(commandContext(cmd), os.Interrupt)
	defer cancel()

	p := parser.NewParser(parser.Options{Realtime: monitorRealtime})
	stats, err := p.Stream(ctx, input, bus.Dispatch)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	util.LogInfo("Input finished",
		util.F("lines", stats.Lines),
		util.F("emitted", stats.Emitted),
		util.F("skipped", stats.Skipped))

	if err := f.Format(out, formatter.StatisticsReport(mon.Store().Statistics())); err != nil {
		return err
	}
	if listEvents {
		events := mon.QueryEvents(query)
		if err := f.Format(out, formatter.EventsReport(eventsTitle(query, len(events)), events)); err != nil {
			return err
		}
	}

	if monitorRecord {
		if err := finishRecording(out, f, mon); err != nil {
			return err
		}
	}

	if monitorSaveSettings && !mon.SaveSettings() {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning: settings could not be saved")
	}
	return nil
}

func finishRecording(out io.Writer, f formatter.Formatter, mon *monitor.Monitor) error {
	rec, ok := mon.Recorder().StopRecording()
	if !ok {
		fmt.Fprintln(out, "No events recorded.")
		return nil
	}
	if err := f.Format(out, formatter.RecordingStatisticsReport(rec.Statistics)); err != nil {
		return err
	}
	fmt.Fprintf(out, "Recording %s\n", rec.ID)
	return nil
}

func openInput(cmd *cobra.Command) (io.Reader, func(), error) {
	if monitorInput == "" || monitorInput == "-" {
		return cmd.InOrStdin(), func() {}, nil
	}
	file, err := os.Open(expandPath(monitorInput))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open input: %w", err)
	}
	return file, func() { file.Close() }, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// serveMetrics exposes m on addr and returns a function that shuts the server down.
func serveMetrics(addr string, m *metrics.Metrics) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		util.LogInfo("Serving metrics", util.F("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			util.LogError(fmt.Sprintf("Metrics server failed: %v", err))
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}
}

// formatEventLine renders one event for the console.
func formatEventLine(event model.NormalizedEvent) string {
	return fmt.Sprintf("%s %-12s #%d (%s, %s)",
		util.FormatTimestamp(event.Timestamp),
		event.Type,
		event.PointerID,
		util.FormatCoordinate(event.X),
		util.FormatCoordinate(event.Y))
}
