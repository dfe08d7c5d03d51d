package formatter

import (
	"fmt"
	"sort"

	"github.com/penwyp/go-pointer-monitor/internal/core/model"
	"github.com/penwyp/go-pointer-monitor/internal/util"
)

// sortedKinds returns the kinds of counts in canonical order.
func sortedKinds(counts map[model.EventKind]int) []model.EventKind {
	kinds := make([]model.EventKind, 0, len(counts))
	order := make(map[model.EventKind]int)
	for i, kind := range model.AllEventKinds() {
		order[kind] = i
	}
	for kind := range counts {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool {
		oi, iKnown := order[kinds[i]]
		oj, jKnown := order[kinds[j]]
		if iKnown != jKnown {
			return iKnown
		}
		if oi != oj {
			return oi < oj
		}
		return kinds[i] < kinds[j]
	})
	return kinds
}

func countRows(counts map[model.EventKind]int, total int) [][]string {
	rows := make([][]string, 0, len(counts))
	for _, kind := range sortedKinds(counts) {
		share := 0.0
		if total > 0 {
			share = float64(counts[kind]) / float64(total) * 100
		}
		rows = append(rows, []string{string(kind), util.FormatCount(counts[kind]), fmt.Sprintf("%.1f%%", share)})
	}
	return rows
}

// StatisticsReport describes the live event store.
func StatisticsReport(stats model.EventStatistics) Report {
	return Report{
		Table: Table{
			Title: fmt.Sprintf("Events: %s | avg interval %.1fms | session %s",
				util.FormatNumber(stats.TotalCount), stats.AverageInterval, util.FormatDurationMs(stats.SessionDuration)),
			Headers:    []string{"Type", "Count", "Share"},
			Rows:       countRows(stats.CountsByType, stats.TotalCount),
			RightAlign: []bool{false, true, true},
			Footer:     []string{"Total", util.FormatCount(stats.TotalCount), ""},
		},
		Data: stats,
	}
}

// RecordingStatisticsReport describes a recording buffer.
func RecordingStatisticsReport(stats model.Statistics) Report {
	return Report{
		Table: Table{
			Title: fmt.Sprintf("Recorded: %s events over %s (%s)",
				util.FormatCount(stats.TotalEvents), util.FormatDurationMs(stats.Duration), util.FormatFrequency(stats.AverageFrequency)),
			Headers:    []string{"Type", "Count", "Share"},
			Rows:       countRows(stats.EventTypes, stats.TotalEvents),
			RightAlign: []bool{false, true, true},
			Footer:     []string{"Total", util.FormatCount(stats.TotalEvents), ""},
		},
		Data: stats,
	}
}

type recordingSummary struct {
	ID         string           `json:"id"`
	StartTime  int64            `json:"startTime"`
	EndTime    int64            `json:"endTime"`
	Statistics model.Statistics `json:"statistics"`
}

// RecordingsReport lists recordings without their events.
func RecordingsReport(recordings []model.Recording) Report {
	rows := make([][]string, 0, len(recordings))
	summaries := make([]recordingSummary, 0, len(recordings))
	total := 0
	for _, rec := range recordings {
		rows = append(rows, []string{
			rec.ID,
			util.FormatTimestamp(rec.StartTime),
			util.FormatCount(rec.Statistics.TotalEvents),
			util.FormatDurationMs(rec.Statistics.Duration),
			util.FormatFrequency(rec.Statistics.AverageFrequency),
		})
		summaries = append(summaries, recordingSummary{
			ID:         rec.ID,
			StartTime:  rec.StartTime,
			EndTime:    rec.EndTime,
			Statistics: rec.Statistics,
		})
		total += rec.Statistics.TotalEvents
	}

	return Report{
		Table: Table{
			Title:      fmt.Sprintf("Recordings: %d", len(recordings)),
			Headers:    []string{"ID", "Started", "Events", "Duration", "Frequency"},
			Rows:       rows,
			RightAlign: []bool{false, false, true, true, true},
			Footer:     []string{"Total", "", util.FormatCount(total), "", ""},
		},
		Data: summaries,
	}
}

// EventsReport lists normalized events with their offset from the first one.
func EventsReport(title string, events []model.NormalizedEvent) Report {
	rows := make([][]string, 0, len(events))
	var first int64
	if len(events) > 0 {
		first = events[0].Timestamp
	}
	for i, event := range events {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			util.FormatTimestamp(event.Timestamp),
			fmt.Sprintf("+%d", event.Timestamp-first),
			string(event.Type),
			fmt.Sprintf("%d", event.PointerID),
			util.FormatCoordinate(event.X),
			util.FormatCoordinate(event.Y),
		})
	}
	data := events
	if data == nil {
		data = []model.NormalizedEvent{}
	}

	return Report{
		Table: Table{
			Title:      title,
			Headers:    []string{"#", "Time", "Offset (ms)", "Type", "Pointer", "X", "Y"},
			Rows:       rows,
			RightAlign: []bool{true, false, true, false, true, true, true},
		},
		Data: data,
	}
}

// StorageReport describes quota usage per persisted key.
func StorageReport(info model.StorageInfo) Report {
	keys := make([]string, 0, len(info.Items))
	for key := range info.Items {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		item := info.Items[key]
		rows = append(rows, []string{key, util.FormatBytes(int64(item.Size)), util.FormatCount(item.ItemCount)})
	}

	used := 0.0
	if info.MaxSize > 0 {
		used = float64(info.TotalSize) / float64(info.MaxSize) * 100
	}
	return Report{
		Table: Table{
			Title: fmt.Sprintf("Storage: %s of %s (%.1f%%)",
				util.FormatBytes(int64(info.TotalSize)), util.FormatBytes(int64(info.MaxSize)), used),
			Headers:    []string{"Key", "Size", "Items"},
			Rows:       rows,
			RightAlign: []bool{false, true, true},
			Footer:     []string{"Total", util.FormatBytes(int64(info.TotalSize)), ""},
		},
		Data: info,
	}
}
