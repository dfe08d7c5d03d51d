// Package store holds the bounded, ordered buffer of normalized pointer events.
//
// The buffer keeps at most Capacity events; each append past capacity evicts
// exactly the single oldest event. FilterEvents results are memoized in a
// single-entry cache that every mutation invalidates.
package store

import (
	"fmt"
	"sync"

	"github.com/penwyp/go-pointer-monitor/internal/core/model"
	"github.com/penwyp/go-pointer-monitor/internal/core/normalizer"
	"github.com/penwyp/go-pointer-monitor/internal/core/region"
	"github.com/penwyp/go-pointer-monitor/internal/util"
)

// Options configures an EventStore.
type Options struct {
	Capacity   int
	Normalizer *normalizer.Normalizer
	// OnEvict is called with each evicted event while the store lock is held.
	// It must not call back into the store.
	OnEvict func(model.NormalizedEvent)
}

type filterCache struct {
	key    string
	result []model.NormalizedEvent
	valid  bool
}

// EventStore is a capacity-bounded FIFO of normalized events.
type EventStore struct {
	mu         sync.RWMutex
	capacity   int
	events     []model.NormalizedEvent
	normalizer *normalizer.Normalizer
	onEvict    func(model.NormalizedEvent)
	cache      filterCache
}

// New creates an EventStore. Capacity defaults to model.DefaultCapacity.
func New(opts Options) *EventStore {
	capacity := opts.Capacity
	if capacity <= 0 {
		capacity = model.DefaultCapacity
	}
	n := opts.Normalizer
	if n == nil {
		n = normalizer.New(normalizer.Options{})
	}
	return &EventStore{
		capacity:   capacity,
		events:     make([]model.NormalizedEvent, 0, capacity),
		normalizer: n,
		onEvict:    opts.OnEvict,
	}
}

// Capacity returns the maximum number of retained events.
func (s *EventStore) Capacity() int {
	return s.capacity
}

// Len returns the number of retained events.
func (s *EventStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

// AddEvent normalizes raw and appends it. When bounds is non-nil and the event
// position falls outside it, the event is discarded and ok is false.
func (s *EventStore) AddEvent(raw model.RawEvent, bounds *region.Corners) (model.NormalizedEvent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	event, err := s.normalizer.Normalize(raw)
	if err != nil {
		util.LogDebug(fmt.Sprintf("EventStore: dropping event: %v", err))
		return model.NormalizedEvent{}, false
	}

	if bounds != nil && !inRegion(event, *bounds) {
		return model.NormalizedEvent{}, false
	}

	s.append(event)
	return event, true
}

// Append stores an already normalized event, such as one restored from a recording.
func (s *EventStore) Append(event model.NormalizedEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.append(event)
}

func (s *EventStore) append(event model.NormalizedEvent) {
	if len(s.events) >= s.capacity {
		evicted := s.events[0]
		copy(s.events, s.events[1:])
		s.events[len(s.events)-1] = event
		if s.onEvict != nil {
			s.onEvict(evicted)
		}
	} else {
		s.events = append(s.events, event)
	}
	s.invalidate()
}

func (s *EventStore) invalidate() {
	s.cache = filterCache{}
}

// Events returns the live buffer. Later appends shift it in place, so callers
// must neither modify it nor rely on it staying stable; use EventsCopy for that.
func (s *EventStore) Events() []model.NormalizedEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.events
}

// EventsCopy returns a snapshot of the buffer.
func (s *EventStore) EventsCopy() []model.NormalizedEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot()
}

func (s *EventStore) snapshot() []model.NormalizedEvent {
	events := make([]model.NormalizedEvent, len(s.events))
	copy(events, s.events)
	return events
}

// EventsByType returns the retained events of one kind, oldest first.
func (s *EventStore) EventsByType(kind model.EventKind) []model.NormalizedEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]model.NormalizedEvent, 0)
	for _, event := range s.events {
		if event.Type == kind {
			result = append(result, event)
		}
	}
	return result
}

// RecentEvents returns the newest count events, or fewer when the store is short.
func (s *EventStore) RecentEvents(count int) []model.NormalizedEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if count <= 0 {
		return []model.NormalizedEvent{}
	}
	start := len(s.events) - count
	if start < 0 {
		start = 0
	}
	result := make([]model.NormalizedEvent, len(s.events)-start)
	copy(result, s.events[start:])
	return result
}

// EventsInTimeRange returns events with start <= timestamp <= end.
func (s *EventStore) EventsInTimeRange(start, end int64) []model.NormalizedEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]model.NormalizedEvent, 0)
	for _, event := range s.events {
		if event.Timestamp >= start && event.Timestamp <= end {
			result = append(result, event)
		}
	}
	return result
}

// FilterEvents applies criteria. Repeating identical criteria without an
// intervening mutation returns the same slice without recomputing it.
func (s *EventStore) FilterEvents(criteria FilterCriteria) []model.NormalizedEvent {
	key, err := util.Fingerprint(criteria)
	if err != nil {
		util.LogWarn("EventStore: criteria not fingerprintable, bypassing cache", util.F("error", err))
		s.mu.RLock()
		defer s.mu.RUnlock()
		return s.filter(criteria)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cache.valid && s.cache.key == key {
		return s.cache.result
	}

	result := s.filter(criteria)
	s.cache = filterCache{key: key, result: result, valid: true}
	util.LogDebug(fmt.Sprintf("EventStore: filter cache refreshed key=%s matched=%d",
		util.ShortFingerprint(key), len(result)))
	return result
}

func (s *EventStore) filter(criteria FilterCriteria) []model.NormalizedEvent {
	result := make([]model.NormalizedEvent, 0, len(s.events))
	for _, event := range s.events {
		if criteria.matches(event) {
			result = append(result, event)
		}
	}
	return result
}

// Statistics summarises the buffer in a single pass.
func (s *EventStore) Statistics() model.EventStatistics {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := model.EventStatistics{CountsByType: make(map[model.EventKind]int)}
	if len(s.events) == 0 {
		return stats
	}

	var totalInterval int64
	for i, event := range s.events {
		stats.CountsByType[event.Type]++
		if i > 0 {
			totalInterval += event.Timestamp - s.events[i-1].Timestamp
		}
	}

	stats.TotalCount = len(s.events)
	stats.SessionDuration = s.events[len(s.events)-1].Timestamp - s.events[0].Timestamp
	if len(s.events) > 1 {
		stats.AverageInterval = float64(totalInterval) / float64(len(s.events)-1)
	}
	return stats
}

// ClearEvents empties the store and invalidates the filter cache.
func (s *EventStore) ClearEvents() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = make([]model.NormalizedEvent, 0, s.capacity)
	s.invalidate()
}
