// Package recording captures pointer event sessions and replays them with
// their original relative timing.
package recording

import (
	"fmt"
	"sync"
	"time"

	"github.com/penwyp/go-pointer-monitor/internal/core/dispatch"
	"github.com/penwyp/go-pointer-monitor/internal/core/model"
	"github.com/penwyp/go-pointer-monitor/internal/core/scheduler"
	"github.com/penwyp/go-pointer-monitor/internal/util"
)

// RecordingStore persists finished recordings. Implementations fail soft.
type RecordingStore interface {
	SaveRecording(rec model.Recording) bool
	ClearRecordings() bool
}

// Dispatcher receives synthetic events during playback.
type Dispatcher interface {
	Dispatch(raw model.RawEvent) error
}

// Options configures a Recorder.
type Options struct {
	Storage    RecordingStore
	Dispatcher Dispatcher
	Scheduler  scheduler.Scheduler
	Clock      func() time.Time

	// OnEmit is called after each synthetic event is dispatched.
	OnEmit func(model.NormalizedEvent)
	// OnSave is called with each recording handed to Storage.
	OnSave func(rec model.Recording, saved bool)
}

// Recorder buffers events while recording and replays the buffer on demand.
// Recording and playback are mutually exclusive.
//
// StopPlayback waits for an in-flight emission, so it must not be called
// synchronously from a handler that receives playback events.
type Recorder struct {
	storage    RecordingStore
	dispatcher Dispatcher
	scheduler  scheduler.Scheduler
	clock      func() time.Time
	onEmit     func(model.NormalizedEvent)
	onSave     func(model.Recording, bool)

	ownedScheduler *scheduler.TimerScheduler

	// emitMu serialises emissions against StopPlayback.
	emitMu sync.Mutex

	mu           sync.Mutex
	closed       bool
	recording    bool
	playing      bool
	events       []model.NormalizedEvent
	stats        model.Statistics
	sessionStart int64
	handles      []scheduler.Handle
	generation   uint64
	done         chan struct{}
}

// NewRecorder creates an idle Recorder. When opts.Scheduler is nil the
// Recorder starts its own TimerScheduler, which Close stops.
func NewRecorder(opts Options) *Recorder {
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	r := &Recorder{
		storage:    opts.Storage,
		dispatcher: opts.Dispatcher,
		scheduler:  opts.Scheduler,
		clock:      clock,
		onEmit:     opts.OnEmit,
		onSave:     opts.OnSave,
		stats:      model.EmptyStatistics(),
	}
	if r.scheduler == nil {
		r.ownedScheduler = scheduler.NewTimerScheduler()
		r.scheduler = r.ownedScheduler
	}
	return r
}

// Close stops playback and releases the scheduler the Recorder started, if
// any. A scheduler passed in Options is left running.
func (r *Recorder) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	r.StopPlayback()
	if r.ownedScheduler != nil {
		r.ownedScheduler.Close()
	}
}

// StartRecording clears the buffer and begins capturing. Ignored during playback.
func (r *Recorder) StartRecording() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.playing {
		util.LogDebug("Recorder: start recording ignored during playback")
		return
	}
	r.events = nil
	r.stats = model.EmptyStatistics()
	r.sessionStart = r.clock().UnixMilli()
	r.recording = true
	util.LogInfo("Recording started", util.F("start", r.sessionStart))
}

// AddEvent appends event while recording; otherwise it is ignored.
func (r *Recorder) AddEvent(event model.NormalizedEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.recording {
		return
	}
	r.events = append(r.events, event)
	r.stats = model.CalculateStatistics(r.events)
}

// StopRecording ends capture. A non-empty buffer becomes a Recording that is
// handed to storage; ok is false when nothing was captured.
func (r *Recorder) StopRecording() (model.Recording, bool) {
	r.mu.Lock()
	if !r.recording {
		r.mu.Unlock()
		return model.Recording{}, false
	}
	r.recording = false
	if len(r.events) == 0 {
		r.mu.Unlock()
		util.LogInfo("Recording stopped with no events")
		return model.Recording{}, false
	}
	rec, err := model.NewRecording(r.clock().UnixMilli(), r.events)
	r.mu.Unlock()

	if err != nil {
		util.LogError(fmt.Sprintf("Recorder: %v", err))
		return model.Recording{}, false
	}

	saved := false
	if r.storage != nil {
		saved = r.storage.SaveRecording(rec)
		if !saved {
			util.LogWarn("Recording could not be persisted", util.F("id", rec.ID))
		}
	}
	if r.onSave != nil {
		r.onSave(rec, saved)
	}
	util.LogInfo("Recording stopped",
		util.F("id", rec.ID),
		util.F("events", rec.Statistics.TotalEvents),
		util.F("duration_ms", rec.Statistics.Duration))
	return rec, true
}

// LoadRecording replaces the buffer with rec's events so it can be replayed.
// Ignored while recording or playing.
func (r *Recorder) LoadRecording(rec model.Recording) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.recording || r.playing {
		return false
	}
	r.events = make([]model.NormalizedEvent, len(rec.Events))
	copy(r.events, rec.Events)
	r.stats = model.CalculateStatistics(r.events)
	return true
}

// StartPlayback schedules every buffered event at its offset from the first
// one. Ignored when the buffer is empty, while recording, or after Close.
// Starting again during playback restarts it.
func (r *Recorder) StartPlayback() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.events) == 0 || r.recording || r.closed {
		return
	}
	if r.playing {
		r.stopPlaybackLocked()
	}

	r.playing = true
	r.generation++
	r.done = make(chan struct{})
	gen := r.generation

	events := make([]model.NormalizedEvent, len(r.events))
	copy(events, r.events)
	first := events[0].Timestamp
	last := len(events) - 1

	r.handles = make([]scheduler.Handle, 0, len(events))
	for i, event := range events {
		event := event
		isLast := i == last
		delay := time.Duration(event.Timestamp-first) * time.Millisecond
		r.handles = append(r.handles, r.scheduler.Schedule(delay, func() {
			r.emit(gen, event, isLast)
		}))
	}
	util.LogInfo("Playback started", util.F("events", len(events)))
}

func (r *Recorder) emit(gen uint64, event model.NormalizedEvent, last bool) {
	r.emitMu.Lock()
	defer r.emitMu.Unlock()

	r.mu.Lock()
	current := r.playing && r.generation == gen
	r.mu.Unlock()
	if !current {
		return
	}

	if raw, err := dispatch.Synthesize(event); err != nil {
		util.LogWarn("Playback: cannot synthesize event", util.F("type", event.Type), util.F("error", err))
	} else if r.dispatcher != nil {
		if err := r.dispatcher.Dispatch(raw); err != nil {
			util.LogWarn("Playback: dispatch failed", util.F("type", event.Type), util.F("error", err))
		} else if r.onEmit != nil {
			r.onEmit(event)
		}
	}

	if last {
		r.mu.Lock()
		if r.generation == gen {
			r.handles = nil
			r.playing = false
			r.closeDone()
			util.LogInfo("Playback finished")
		}
		r.mu.Unlock()
	}
}

// StopPlayback cancels pending playback. No event is emitted after it returns.
func (r *Recorder) StopPlayback() {
	r.mu.Lock()
	r.stopPlaybackLocked()
	r.mu.Unlock()

	// Wait out an emission that passed its generation check.
	r.emitMu.Lock()
	r.emitMu.Unlock()
}

func (r *Recorder) stopPlaybackLocked() {
	cancelled := 0
	for _, h := range r.handles {
		if h.Cancel() {
			cancelled++
		}
	}
	if r.playing {
		util.LogDebug(fmt.Sprintf("Playback stopped, %d pending events cancelled", cancelled))
	}
	r.handles = nil
	r.playing = false
	r.generation++
	r.closeDone()
}

func (r *Recorder) closeDone() {
	if r.done != nil {
		close(r.done)
		r.done = nil
	}
}

// ClearRecording stops everything, empties the buffer and purges every
// persisted recording.
func (r *Recorder) ClearRecording() {
	r.StopPlayback()

	r.mu.Lock()
	r.recording = false
	r.events = nil
	r.stats = model.EmptyStatistics()
	r.mu.Unlock()

	if r.storage != nil && !r.storage.ClearRecordings() {
		util.LogWarn("Persisted recordings could not be cleared")
	}
}

// IsRecording reports whether events are being captured.
func (r *Recorder) IsRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// IsPlaying reports whether playback is in progress.
func (r *Recorder) IsPlaying() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.playing
}

// Events returns a copy of the buffer.
func (r *Recorder) Events() []model.NormalizedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	events := make([]model.NormalizedEvent, len(r.events))
	copy(events, r.events)
	return events
}

// Statistics returns the statistics of the buffer.
func (r *Recorder) Statistics() model.Statistics {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats := r.stats
	stats.EventTypes = make(map[model.EventKind]int, len(r.stats.EventTypes))
	for k, v := range r.stats.EventTypes {
		stats.EventTypes[k] = v
	}
	return stats
}

// SessionStart returns the instant, in ms, the current or last recording began.
func (r *Recorder) SessionStart() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessionStart
}

// Done returns a channel closed when the current playback ends or is stopped.
// With no playback in progress the channel is already closed.
func (r *Recorder) Done() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return r.done
}
