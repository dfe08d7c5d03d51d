package recording

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penwyp/go-pointer-monitor/internal/core/dispatch"
	"github.com/penwyp/go-pointer-monitor/internal/core/model"
	"github.com/penwyp/go-pointer-monitor/internal/core/scheduler"
)

type fakeStore struct {
	mu      sync.Mutex
	saved   []model.Recording
	cleared int
	fail    bool
}

func (f *fakeStore) SaveRecording(rec model.Recording) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return false
	}
	f.saved = append(f.saved, rec)
	return true
}

func (f *fakeStore) ClearRecordings() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared++
	f.saved = nil
	return !f.fail
}

type captureDispatcher struct {
	mu     sync.Mutex
	events []model.RawEvent
}

func (c *captureDispatcher) Dispatch(raw model.RawEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, raw)
	return nil
}

func (c *captureDispatcher) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

func event(kind model.EventKind, ts int64, x, y float64) model.NormalizedEvent {
	return model.NormalizedEvent{Type: kind, PointerID: 1, X: model.Float(x), Y: model.Float(y), Timestamp: ts}
}

func newTestRecorder(t *testing.T) (*Recorder, *fakeStore, *captureDispatcher, *scheduler.ManualScheduler) {
	t.Helper()
	store := &fakeStore{}
	out := &captureDispatcher{}
	sched := scheduler.NewManualScheduler()
	r := NewRecorder(Options{
		Storage:    store,
		Dispatcher: out,
		Scheduler:  sched,
		Clock:      func() time.Time { return time.UnixMilli(5_000) },
	})
	return r, store, out, sched
}

func record(r *Recorder, events ...model.NormalizedEvent) {
	r.StartRecording()
	for _, e := range events {
		r.AddEvent(e)
	}
}

func TestStatisticsOfThreeEventsOver25ms(t *testing.T) {
	r, _, _, _ := newTestRecorder(t)
	record(r,
		event(model.PointerDown, 1000, 1, 1),
		event(model.PointerMove, 1010, 2, 2),
		event(model.PointerUp, 1025, 3, 3),
	)

	stats := r.Statistics()
	assert.Equal(t, 3, stats.TotalEvents)
	assert.Equal(t, int64(25), stats.Duration)
	assert.InDelta(t, 120.0, stats.AverageFrequency, 1e-9)
	assert.Equal(t, 1, stats.EventTypes[model.PointerMove])
}

func TestAddEventIgnoredWhenNotRecording(t *testing.T) {
	r, _, _, _ := newTestRecorder(t)
	r.AddEvent(event(model.Click, 1, 1, 1))
	assert.Empty(t, r.Events())
	assert.Equal(t, 0, r.Statistics().TotalEvents)
}

func TestStopRecordingPersists(t *testing.T) {
	r, store, _, _ := newTestRecorder(t)
	record(r,
		event(model.PointerDown, 1000, 1, 1),
		event(model.PointerUp, 1040, 3, 3),
	)

	rec, ok := r.StopRecording()
	require.True(t, ok)
	assert.False(t, r.IsRecording())
	assert.Equal(t, "recording-5000", rec.ID)
	assert.Equal(t, int64(1000), rec.StartTime)
	assert.Equal(t, int64(1040), rec.EndTime)
	assert.Len(t, rec.Events, 2)

	require.Len(t, store.saved, 1)
	assert.Equal(t, rec.ID, store.saved[0].ID)
}

func TestStopRecordingEmptyBuffer(t *testing.T) {
	r, store, _, _ := newTestRecorder(t)
	r.StartRecording()

	_, ok := r.StopRecording()
	assert.False(t, ok)
	assert.Empty(t, store.saved)

	_, ok = r.StopRecording()
	assert.False(t, ok, "stopping while idle is a no-op")
}

func TestStopRecordingSaveFailureIsSoft(t *testing.T) {
	r, store, _, _ := newTestRecorder(t)
	store.fail = true

	var saved []bool
	r.onSave = func(_ model.Recording, ok bool) { saved = append(saved, ok) }

	record(r, event(model.Click, 1, 1, 1))
	_, ok := r.StopRecording()
	assert.True(t, ok)
	assert.Equal(t, []bool{false}, saved)
}

func TestPlaybackReplaysWithRelativeTiming(t *testing.T) {
	r, _, out, sched := newTestRecorder(t)
	record(r,
		event(model.PointerDown, 1000, 10, 20),
		event(model.PointerMove, 1010, 11, 21),
		event(model.PointerUp, 1025, 12, 22),
	)
	_, ok := r.StopRecording()
	require.True(t, ok)

	r.StartPlayback()
	require.True(t, r.IsPlaying())
	assert.Equal(t, 3, sched.Pending())

	sched.Advance(0)
	assert.Equal(t, 1, out.count())
	sched.Advance(10 * time.Millisecond)
	assert.Equal(t, 2, out.count())
	sched.Advance(14 * time.Millisecond)
	assert.Equal(t, 2, out.count())
	sched.Advance(1 * time.Millisecond)
	assert.Equal(t, 3, out.count())

	assert.False(t, r.IsPlaying())
	select {
	case <-r.Done():
	default:
		t.Fatal("Done not closed after playback finished")
	}

	types := []string{out.events[0].Type, out.events[1].Type, out.events[2].Type}
	assert.Equal(t, []string{"pointerdown", "pointermove", "pointerup"}, types)
	assert.Equal(t, 11.0, *out.events[1].ClientX)
	assert.Equal(t, 21.0, *out.events[1].ClientY)
	assert.True(t, out.events[2].Bubbles)
}

func TestStopPlaybackCancelsPendingEmissions(t *testing.T) {
	r, _, out, sched := newTestRecorder(t)
	record(r,
		event(model.PointerDown, 0, 1, 1),
		event(model.PointerMove, 100, 1, 1),
		event(model.PointerUp, 200, 1, 1),
	)
	r.StopRecording()

	r.StartPlayback()
	done := r.Done()
	r.StopPlayback()

	assert.False(t, r.IsPlaying())
	assert.Equal(t, 0, sched.Pending())
	sched.Advance(time.Second)
	assert.Equal(t, 0, out.count())

	select {
	case <-done:
	default:
		t.Fatal("Done not closed after StopPlayback")
	}
}

func TestStopPlaybackMidway(t *testing.T) {
	r, _, out, sched := newTestRecorder(t)
	record(r,
		event(model.PointerDown, 0, 1, 1),
		event(model.PointerMove, 100, 1, 1),
		event(model.PointerUp, 200, 1, 1),
	)
	r.StopRecording()

	r.StartPlayback()
	sched.Advance(150 * time.Millisecond)
	require.Equal(t, 2, out.count())

	r.StopPlayback()
	sched.Advance(time.Second)
	assert.Equal(t, 2, out.count())
}

func TestRecordingAndPlaybackAreMutuallyExclusive(t *testing.T) {
	r, _, out, sched := newTestRecorder(t)
	record(r, event(model.Click, 0, 1, 1))

	r.StartPlayback()
	assert.False(t, r.IsPlaying(), "playback is ignored while recording")
	assert.Equal(t, 0, sched.Pending())

	r.StopRecording()
	r.StartPlayback()
	require.True(t, r.IsPlaying())

	r.StartRecording()
	assert.False(t, r.IsRecording(), "recording is ignored during playback")
	assert.Len(t, r.Events(), 1)

	sched.Advance(0)
	assert.Equal(t, 1, out.count())
	assert.False(t, r.IsPlaying())
}

func TestStartPlaybackWithEmptyBuffer(t *testing.T) {
	r, _, _, sched := newTestRecorder(t)
	r.StartPlayback()
	assert.False(t, r.IsPlaying())
	assert.Equal(t, 0, sched.Pending())
}

func TestRestartPlaybackDropsPreviousSchedule(t *testing.T) {
	r, _, out, sched := newTestRecorder(t)
	record(r, event(model.PointerDown, 0, 1, 1), event(model.PointerUp, 50, 1, 1))
	r.StopRecording()

	r.StartPlayback()
	r.StartPlayback()
	assert.Equal(t, 2, sched.Pending())

	sched.Advance(time.Second)
	assert.Equal(t, 2, out.count())
}

func TestClearRecording(t *testing.T) {
	r, store, out, sched := newTestRecorder(t)
	record(r, event(model.PointerDown, 0, 1, 1), event(model.PointerUp, 50, 1, 1))
	r.StopRecording()
	r.StartPlayback()

	r.ClearRecording()

	assert.False(t, r.IsPlaying())
	assert.False(t, r.IsRecording())
	assert.Empty(t, r.Events())
	assert.Equal(t, 0, r.Statistics().TotalEvents)
	assert.Equal(t, 1, store.cleared)
	assert.Empty(t, store.saved)

	sched.Advance(time.Second)
	assert.Equal(t, 0, out.count())
}

func TestLoadRecording(t *testing.T) {
	r, _, out, sched := newTestRecorder(t)
	rec, err := model.NewRecording(1, []model.NormalizedEvent{
		event(model.DragStart, 100, 1, 1),
		event(model.Drag, 120, 2, 2),
		event(model.DragEnd, 140, 3, 3),
	})
	require.NoError(t, err)

	require.True(t, r.LoadRecording(rec))
	assert.Equal(t, 3, r.Statistics().TotalEvents)

	r.StartPlayback()
	assert.False(t, r.LoadRecording(rec), "loading is refused during playback")
	sched.Advance(40 * time.Millisecond)
	assert.Equal(t, 3, out.count())
}

func TestPlaybackSkipsUnsynthesizableEvents(t *testing.T) {
	r, _, out, sched := newTestRecorder(t)
	rec := model.Recording{Events: []model.NormalizedEvent{
		{Type: "bogus", Timestamp: 0},
		event(model.Click, 10, 1, 1),
	}}
	require.True(t, r.LoadRecording(rec))

	var emitted []model.EventKind
	r.onEmit = func(e model.NormalizedEvent) { emitted = append(emitted, e.Type) }

	r.StartPlayback()
	sched.Advance(time.Second)
	assert.Equal(t, 1, out.count())
	assert.Equal(t, []model.EventKind{model.Click}, emitted)
	assert.False(t, r.IsPlaying())
}

func TestPlaybackIntoBusWithTimerScheduler(t *testing.T) {
	bus := dispatch.NewBus()
	sched := scheduler.NewTimerScheduler()
	defer sched.Close()

	var mu sync.Mutex
	var received []string
	bus.Subscribe(nil, func(raw model.RawEvent) {
		mu.Lock()
		received = append(received, raw.Type)
		mu.Unlock()
	})

	r := NewRecorder(Options{Dispatcher: bus, Scheduler: sched})
	require.True(t, r.LoadRecording(model.Recording{Events: []model.NormalizedEvent{
		event(model.PointerDown, 0, 1, 1),
		event(model.PointerMove, 5, 2, 2),
		event(model.PointerMove, 5, 3, 3),
		event(model.PointerUp, 20, 4, 4),
	}}))

	r.StartPlayback()
	select {
	case <-r.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("playback did not finish")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"pointerdown", "pointermove", "pointermove", "pointerup"}, received)
}

func TestCloseStopsOwnedScheduler(t *testing.T) {
	out := &captureDispatcher{}
	r := NewRecorder(Options{Dispatcher: out})
	require.NotNil(t, r.ownedScheduler)

	require.True(t, r.LoadRecording(model.Recording{Events: []model.NormalizedEvent{
		event(model.PointerDown, 0, 1, 1),
		event(model.PointerUp, int64(time.Hour/time.Millisecond), 2, 2),
	}}))
	r.StartPlayback()
	require.True(t, r.IsPlaying())

	r.Close()
	r.Close()

	assert.False(t, r.IsPlaying())
	assert.Equal(t, 0, r.ownedScheduler.Pending())
	select {
	case <-r.Done():
	default:
		t.Fatal("Done not closed after Close")
	}

	r.StartPlayback()
	assert.False(t, r.IsPlaying(), "playback is refused after Close")
	assert.LessOrEqual(t, out.count(), 1)
}

func TestCloseLeavesInjectedSchedulerRunning(t *testing.T) {
	sched := scheduler.NewTimerScheduler()
	defer sched.Close()

	r := NewRecorder(Options{Dispatcher: &captureDispatcher{}, Scheduler: sched})
	assert.Nil(t, r.ownedScheduler)
	r.Close()

	ran := make(chan struct{})
	sched.Schedule(0, func() { close(ran) })
	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("injected scheduler was stopped")
	}
}
