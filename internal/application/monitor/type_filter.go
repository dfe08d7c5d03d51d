package monitor

import (
	"sync"

	"github.com/penwyp/go-pointer-monitor/internal/core/model"
)

// TypeFilter enables or disables event kinds (thread-safe)
type TypeFilter struct {
	mu      sync.RWMutex
	enabled map[model.EventKind]bool
}

// NewTypeFilter creates a filter. Kinds missing from enabled are disabled.
func NewTypeFilter(enabled map[model.EventKind]bool) *TypeFilter {
	f := &TypeFilter{enabled: make(map[model.EventKind]bool, len(enabled))}
	for kind, on := range enabled {
		f.enabled[kind] = on
	}
	return f
}

// SetEnabled turns kind on or off.
func (f *TypeFilter) SetEnabled(kind model.EventKind, enabled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enabled[kind] = enabled
}

// Enabled reports whether kind passes the filter.
func (f *TypeFilter) Enabled(kind model.EventKind) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.enabled[kind]
}

// EnabledTypes returns a copy of the filter state for every known kind.
func (f *TypeFilter) EnabledTypes() map[model.EventKind]bool {
	f.mu.RLock()
	defer f.mu.RUnlock()

	types := make(map[model.EventKind]bool, len(f.enabled))
	for _, kind := range model.AllEventKinds() {
		types[kind] = f.enabled[kind]
	}
	return types
}

// Filter keeps the events whose kind is enabled.
func (f *TypeFilter) Filter(events []model.NormalizedEvent) []model.NormalizedEvent {
	f.mu.RLock()
	defer f.mu.RUnlock()

	result := make([]model.NormalizedEvent, 0, len(events))
	for _, event := range events {
		if f.enabled[event.Type] {
			result = append(result, event)
		}
	}
	return result
}
