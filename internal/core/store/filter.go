package store

import (
	"github.com/penwyp/go-pointer-monitor/internal/core/model"
	"github.com/penwyp/go-pointer-monitor/internal/core/region"
)

// FilterCriteria selects events from a store. Zero-valued fields do not filter.
type FilterCriteria struct {
	Types     []model.EventKind `json:"types,omitempty"`
	StartTime *int64            `json:"startTime,omitempty"`
	EndTime   *int64            `json:"endTime,omitempty"`
	Region    *region.Corners   `json:"region,omitempty"`
}

// Time returns a pointer to ms, for building criteria inline.
func Time(ms int64) *int64 {
	return &ms
}

func (c FilterCriteria) matches(event model.NormalizedEvent) bool {
	if len(c.Types) > 0 && !containsKind(c.Types, event.Type) {
		return false
	}
	// A zero bound counts as unset.
	if c.StartTime != nil && *c.StartTime != 0 && event.Timestamp < *c.StartTime {
		return false
	}
	if c.EndTime != nil && *c.EndTime != 0 && event.Timestamp > *c.EndTime {
		return false
	}
	if c.Region != nil && !inRegion(event, *c.Region) {
		return false
	}
	return true
}

func containsKind(kinds []model.EventKind, kind model.EventKind) bool {
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// inRegion reports whether the event has a position inside bounds.
func inRegion(event model.NormalizedEvent, bounds region.Corners) bool {
	x, y, ok := event.Position()
	return ok && bounds.Contains(x, y)
}
