// Package interaction holds user-selectable orderings of listed items.
package interaction

import (
	"fmt"
	"sort"
	"strings"

	"github.com/penwyp/go-pointer-monitor/internal/core/model"
)

// SortField represents the field to sort recordings by
type SortField int

const (
	SortByTime SortField = iota
	SortByEvents
	SortByDuration
)

// ParseSortField maps a flag value to a SortField.
func ParseSortField(name string) (SortField, error) {
	switch strings.ToLower(name) {
	case "", "time":
		return SortByTime, nil
	case "events":
		return SortByEvents, nil
	case "duration":
		return SortByDuration, nil
	default:
		return SortByTime, fmt.Errorf("unknown sort field %q (want time, events or duration)", name)
	}
}

// SortOrder represents the sort order
type SortOrder int

const (
	SortAscending SortOrder = iota
	SortDescending
)

// RecordingSorter orders recordings. Ties fall back to the recording ID.
type RecordingSorter struct {
	field SortField
	order SortOrder
}

// NewRecordingSorter creates a sorter, oldest first by default.
func NewRecordingSorter(field SortField, order SortOrder) *RecordingSorter {
	return &RecordingSorter{field: field, order: order}
}

// Sort sorts recordings in place.
func (s *RecordingSorter) Sort(recordings []model.Recording) {
	sort.SliceStable(recordings, func(i, j int) bool {
		a, b := recordings[i], recordings[j]
		var ka, kb int64
		switch s.field {
		case SortByEvents:
			ka, kb = int64(a.Statistics.TotalEvents), int64(b.Statistics.TotalEvents)
		case SortByDuration:
			ka, kb = a.Statistics.Duration, b.Statistics.Duration
		default:
			ka, kb = a.StartTime, b.StartTime
		}

		if ka == kb {
			return a.ID < b.ID
		}
		if s.order == SortDescending {
			return ka > kb
		}
		return ka < kb
	})
}

// SortMap returns the recordings of byID in sorted order.
func (s *RecordingSorter) SortMap(byID map[string]model.Recording) []model.Recording {
	recordings := make([]model.Recording, 0, len(byID))
	for _, rec := range byID {
		recordings = append(recordings, rec)
	}
	s.Sort(recordings)
	return recordings
}
