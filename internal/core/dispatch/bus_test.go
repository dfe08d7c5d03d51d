package dispatch

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penwyp/go-pointer-monitor/internal/core/model"
)

func TestDispatchDeliversToMatchingKinds(t *testing.T) {
	bus := NewBus()
	var clicks, all []string

	bus.Subscribe([]model.EventKind{model.Click}, func(raw model.RawEvent) {
		clicks = append(clicks, raw.Type)
	})
	bus.Subscribe(nil, func(raw model.RawEvent) {
		all = append(all, raw.Type)
	})

	require.NoError(t, bus.Dispatch(NewPointerEvent(model.Click, 1, 2, 1)))
	require.NoError(t, bus.Dispatch(NewPointerEvent(model.PointerMove, 1, 2, 1)))

	assert.Equal(t, []string{"click"}, clicks)
	assert.Equal(t, []string{"click", "pointermove"}, all)
	assert.Equal(t, 2, bus.Subscribers(model.Click))
}

func TestDispatchRejectsUnknownKind(t *testing.T) {
	bus := NewBus()
	called := false
	bus.Subscribe(nil, func(model.RawEvent) { called = true })

	err := bus.Dispatch(model.RawEvent{Type: "keydown"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedEvent))
	assert.False(t, called)
}

func TestUnsubscribe(t *testing.T) {
	bus := NewBus()
	count := 0
	unsubscribe := bus.Subscribe([]model.EventKind{model.Drag, model.DragEnd}, func(model.RawEvent) { count++ })
	other := bus.Subscribe([]model.EventKind{model.Drag}, func(model.RawEvent) {})

	require.NoError(t, bus.Dispatch(model.RawEvent{Type: "drag"}))
	unsubscribe()
	unsubscribe()
	require.NoError(t, bus.Dispatch(model.RawEvent{Type: "drag"}))
	require.NoError(t, bus.Dispatch(model.RawEvent{Type: "dragend"}))

	assert.Equal(t, 1, count)
	assert.Equal(t, 1, bus.Subscribers(model.Drag))
	assert.Equal(t, 0, bus.Subscribers(model.DragEnd))
	other()
	assert.Equal(t, 0, bus.Subscribers(model.Drag))
}

func TestSynthesize(t *testing.T) {
	raw, err := Synthesize(model.NormalizedEvent{
		Type:      model.PointerDown,
		PointerID: 4,
		X:         model.Float(10),
		Y:         model.Float(20),
		Timestamp: 99,
	})
	require.NoError(t, err)

	assert.Equal(t, "pointerdown", raw.Type)
	require.NotNil(t, raw.PointerID)
	assert.Equal(t, 4, *raw.PointerID)
	assert.Equal(t, 10.0, *raw.ClientX)
	assert.Equal(t, 20.0, *raw.ClientY)
	assert.True(t, raw.Bubbles)
}

func TestSynthesizeWithoutPosition(t *testing.T) {
	raw, err := Synthesize(model.NormalizedEvent{Type: model.Click, PointerID: 1})
	require.NoError(t, err)
	assert.Nil(t, raw.ClientX)
	assert.Nil(t, raw.ClientY)
}

func TestSynthesizeErrors(t *testing.T) {
	_, err := Synthesize(model.NormalizedEvent{Type: "wheel"})
	assert.True(t, errors.Is(err, ErrUnsupportedEvent))

	_, err = Synthesize(model.NormalizedEvent{Type: model.Click, X: model.Float(math.NaN()), Y: model.Float(1)})
	assert.Error(t, err)
}
