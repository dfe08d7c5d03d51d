// Package monitor wires the pointer event pipeline: input bus, event store,
// ROI and type gates, recorder, and the listeners that consume accepted events.
package monitor

import (
	"fmt"
	"sync"
	"time"

	"github.com/penwyp/go-pointer-monitor/internal/core/dispatch"
	"github.com/penwyp/go-pointer-monitor/internal/core/model"
	"github.com/penwyp/go-pointer-monitor/internal/core/normalizer"
	"github.com/penwyp/go-pointer-monitor/internal/core/recording"
	"github.com/penwyp/go-pointer-monitor/internal/core/region"
	"github.com/penwyp/go-pointer-monitor/internal/core/roi"
	"github.com/penwyp/go-pointer-monitor/internal/core/scheduler"
	"github.com/penwyp/go-pointer-monitor/internal/core/store"
	"github.com/penwyp/go-pointer-monitor/internal/data/persistence"
	"github.com/penwyp/go-pointer-monitor/internal/metrics"
	"github.com/penwyp/go-pointer-monitor/internal/util"
)

// Deps are the collaborators a Monitor uses. Only Bus is required.
type Deps struct {
	Bus       *dispatch.Bus
	Storage   *persistence.Storage
	Scheduler scheduler.Scheduler
	Metrics   *metrics.Metrics
}

// EventListener receives every event accepted by the pipeline.
type EventListener func(model.NormalizedEvent)

// Monitor owns one event store and processes the events of one bus.
type Monitor struct {
	config  Config
	bus     *dispatch.Bus
	storage *persistence.Storage
	metrics *metrics.Metrics

	store      *store.EventStore
	selector   *roi.Selector
	recorder   *recording.Recorder
	typeFilter *TypeFilter

	mu             sync.RWMutex
	paused         bool
	consoleLogging bool
	listeners      []EventListener
	unsubscribe    func()
}

// New builds a Monitor and subscribes it to deps.Bus.
func New(cfg Config, deps Deps) (*Monitor, error) {
	if deps.Bus == nil {
		return nil, fmt.Errorf("monitor requires an event bus")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid monitor config: %w", err)
	}

	m := &Monitor{
		config:         cfg,
		bus:            deps.Bus,
		storage:        deps.Storage,
		metrics:        deps.Metrics,
		selector:       roi.NewSelector(),
		typeFilter:     NewTypeFilter(cfg.EnabledTypes),
		paused:         cfg.Paused,
		consoleLogging: cfg.ConsoleLogging,
	}

	m.store = store.New(store.Options{
		Capacity: cfg.Capacity,
		Normalizer: normalizer.New(normalizer.Options{
			Clock:            cfg.Clock,
			DefaultPointerID: cfg.DefaultPointerID,
		}),
		OnEvict: func(model.NormalizedEvent) { m.metrics.EventEvicted() },
	})

	var recordings recording.RecordingStore
	if deps.Storage != nil {
		recordings = deps.Storage
	}
	m.recorder = recording.NewRecorder(recording.Options{
		Storage:    recordings,
		Dispatcher: deps.Bus,
		Scheduler:  deps.Scheduler,
		Clock:      cfg.Clock,
		OnEmit:     func(e model.NormalizedEvent) { m.metrics.PlaybackEmitted(e.Type) },
		OnSave:     func(_ model.Recording, saved bool) { m.metrics.RecordingSaved(saved) },
	})

	if deps.Storage != nil {
		m.selector.OnChange(m.persistROI)
	}

	m.unsubscribe = deps.Bus.Subscribe(nil, m.handle)
	return m, nil
}

func (m *Monitor) persistROI(r region.Rect, ok bool) {
	if ok {
		m.storage.SaveROI(r)
	} else {
		m.storage.ClearROI()
	}
}

func (m *Monitor) handle(raw model.RawEvent) {
	m.mu.RLock()
	paused := m.paused
	logging := m.consoleLogging
	m.mu.RUnlock()

	if paused {
		m.metrics.EventDropped(metrics.ReasonPaused)
		return
	}

	event, ok := m.store.AddEvent(raw, m.config.Region)
	if !ok {
		if model.EventKind(raw.Type).Valid() {
			m.metrics.EventDropped(metrics.ReasonRegion)
		} else {
			m.metrics.EventDropped(metrics.ReasonInvalid)
		}
		return
	}

	if !m.selector.Accepts(event) {
		m.metrics.EventDropped(metrics.ReasonROI)
		return
	}
	if !m.typeFilter.Enabled(event.Type) {
		m.metrics.EventDropped(metrics.ReasonType)
		return
	}

	if logging {
		logEvent(event)
	}

	m.recorder.AddEvent(event)

	m.mu.RLock()
	listeners := make([]EventListener, len(m.listeners))
	copy(listeners, m.listeners)
	m.mu.RUnlock()
	for _, fn := range listeners {
		fn(event)
	}

	m.metrics.EventProcessed(event.Type)
}

func logEvent(event model.NormalizedEvent) {
	fields := []util.Field{
		util.F("type", event.Type),
		util.F("pointerId", event.PointerID),
		util.F("timestamp", event.Timestamp),
	}
	if x, y, ok := event.Position(); ok {
		fields = append(fields, util.F("x", x), util.F("y", y))
	}
	util.LogInfo(fmt.Sprintf("Pointer Event: %s", event.Type), fields...)
}

// OnEvent registers fn for every accepted event.
func (m *Monitor) OnEvent(fn EventListener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// SetPaused stops or resumes processing.
func (m *Monitor) SetPaused(paused bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paused = paused
}

// IsPaused reports whether processing is paused.
func (m *Monitor) IsPaused() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.paused
}

// SetConsoleLogging turns per-event logging on or off.
func (m *Monitor) SetConsoleLogging(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.consoleLogging = enabled
}

// Store returns the event store.
func (m *Monitor) Store() *store.EventStore { return m.store }

// Selector returns the ROI selector.
func (m *Monitor) Selector() *roi.Selector { return m.selector }

// Recorder returns the recorder.
func (m *Monitor) Recorder() *recording.Recorder { return m.recorder }

// TypeFilter returns the event type filter.
func (m *Monitor) TypeFilter() *TypeFilter { return m.typeFilter }

// VisibleEvents returns the stored events that pass the type filter and the ROI.
func (m *Monitor) VisibleEvents() []model.NormalizedEvent {
	return m.selector.FilterEventsByROI(m.typeFilter.Filter(m.store.EventsCopy()))
}

// EventQuery selects stored events for display. Zero fields do not filter.
type EventQuery struct {
	// Types keeps only these kinds.
	Types []model.EventKind
	// Window keeps events no older than Window before the newest stored event.
	Window time.Duration
	// Recent keeps at most the newest Recent matches.
	Recent int
}

// QueryEvents returns the stored events matching q, oldest first. Unlike
// VisibleEvents it ignores the type filter and the ROI.
func (m *Monitor) QueryEvents(q EventQuery) []model.NormalizedEvent {
	var events []model.NormalizedEvent
	switch {
	case len(q.Types) > 1 || (len(q.Types) == 1 && q.Window > 0):
		criteria := store.FilterCriteria{Types: q.Types}
		if q.Window > 0 {
			start, end, ok := m.window(q.Window)
			if !ok {
				return []model.NormalizedEvent{}
			}
			criteria.StartTime, criteria.EndTime = store.Time(start), store.Time(end)
		}
		events = m.store.FilterEvents(criteria)
	case len(q.Types) == 1:
		events = m.store.EventsByType(q.Types[0])
	case q.Window > 0:
		start, end, ok := m.window(q.Window)
		if !ok {
			return []model.NormalizedEvent{}
		}
		events = m.store.EventsInTimeRange(start, end)
	case q.Recent > 0:
		return m.store.RecentEvents(q.Recent)
	default:
		return m.store.EventsCopy()
	}

	if q.Recent > 0 && len(events) > q.Recent {
		events = events[len(events)-q.Recent:]
	}
	return events
}

// window returns the bounds of the last d of the stored session.
func (m *Monitor) window(d time.Duration) (start, end int64, ok bool) {
	newest := m.store.RecentEvents(1)
	if len(newest) == 0 {
		return 0, 0, false
	}
	end = newest[0].Timestamp
	return end - d.Milliseconds(), end, true
}

// ClearEvents empties the event store.
func (m *Monitor) ClearEvents() {
	m.store.ClearEvents()
}

// Settings returns the current user preferences.
func (m *Monitor) Settings() model.Settings {
	m.mu.RLock()
	logging := m.consoleLogging
	m.mu.RUnlock()

	return model.Settings{
		EnabledTypes:   m.typeFilter.EnabledTypes(),
		ConsoleLogging: logging,
		Capacity:       m.store.Capacity(),
	}
}

// ApplySettings restores type filter and logging preferences. Capacity is
// fixed once the store exists and is ignored.
func (m *Monitor) ApplySettings(s model.Settings) {
	for kind, enabled := range s.EnabledTypes {
		if kind.Valid() {
			m.typeFilter.SetEnabled(kind, enabled)
		}
	}
	m.SetConsoleLogging(s.ConsoleLogging)
}

// SaveSettings persists the current preferences.
func (m *Monitor) SaveSettings() bool {
	if m.storage == nil {
		return false
	}
	return m.storage.SaveSettings(m.Settings())
}

// RestoreROI commits the persisted ROI, if any.
func (m *Monitor) RestoreROI() bool {
	if m.storage == nil {
		return false
	}
	r, ok := m.storage.GetROI()
	if !ok {
		return false
	}
	m.selector.UpdateROIFromSliders(r)
	return true
}

// Close detaches from the bus and stops playback.
func (m *Monitor) Close() {
	m.mu.Lock()
	unsubscribe := m.unsubscribe
	m.unsubscribe = nil
	m.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	m.recorder.Close()
}
