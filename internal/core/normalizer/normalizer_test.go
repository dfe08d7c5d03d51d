package normalizer

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penwyp/go-pointer-monitor/internal/core/model"
)

func fixedClock(ms ...int64) func() time.Time {
	i := 0
	return func() time.Time {
		v := ms[i]
		if i < len(ms)-1 {
			i++
		}
		return time.UnixMilli(v)
	}
}

func TestNormalizeClientCoordinates(t *testing.T) {
	n := New(Options{Clock: fixedClock(1_700_000_000_000)})

	raw := model.RawEvent{
		Type:      "pointerdown",
		PointerID: model.Int(7),
		ClientX:   model.Float(12.5),
		ClientY:   model.Float(40),
	}
	event, err := n.Normalize(raw)
	require.NoError(t, err)

	assert.Equal(t, model.PointerDown, event.Type)
	assert.Equal(t, 7, event.PointerID)
	x, y, ok := event.Position()
	assert.True(t, ok)
	assert.Equal(t, 12.5, x)
	assert.Equal(t, 40.0, y)
	assert.Equal(t, int64(1_700_000_000_000), event.Timestamp)
	require.NotNil(t, event.Raw)
	assert.Equal(t, raw.Type, event.Raw.Type)
}

func TestNormalizePrefersTouches(t *testing.T) {
	n := New(Options{Clock: fixedClock(1)})

	event, err := n.Normalize(model.RawEvent{
		Type:    "pointermove",
		ClientX: model.Float(1),
		ClientY: model.Float(2),
		Touches: []model.TouchPoint{{Identifier: 3, ClientX: 30, ClientY: 40}, {ClientX: 99, ClientY: 99}},
	})
	require.NoError(t, err)

	x, y, _ := event.Position()
	assert.Equal(t, 30.0, x)
	assert.Equal(t, 40.0, y)
}

func TestNormalizeMissingCoordinatesFallsBackToOrigin(t *testing.T) {
	n := New(Options{Clock: fixedClock(1)})

	event, err := n.Normalize(model.RawEvent{Type: "click", ClientX: model.Float(5)})
	require.NoError(t, err)

	x, y, ok := event.Position()
	assert.True(t, ok)
	assert.Equal(t, 0.0, x)
	assert.Equal(t, 0.0, y)
}

func TestNormalizeNonFiniteCoordinatesAreAbsent(t *testing.T) {
	n := New(Options{Clock: fixedClock(1)})

	event, err := n.Normalize(model.RawEvent{
		Type:    "pointermove",
		ClientX: model.Float(math.NaN()),
		ClientY: model.Float(3),
	})
	require.NoError(t, err)
	assert.Nil(t, event.X)
	require.NotNil(t, event.Y)
	assert.Equal(t, 3.0, *event.Y)
	_, _, ok := event.Position()
	assert.False(t, ok)

	event, err = n.Normalize(model.RawEvent{
		Type:    "pointerdown",
		Touches: []model.TouchPoint{{ClientX: 4, ClientY: math.Inf(1)}},
	})
	require.NoError(t, err)
	assert.Equal(t, 4.0, *event.X)
	assert.Nil(t, event.Y)
}

func TestNormalizeDefaultsPointerID(t *testing.T) {
	n := New(Options{Clock: fixedClock(1)})
	event, err := n.Normalize(model.RawEvent{Type: "click"})
	require.NoError(t, err)
	assert.Equal(t, DefaultPointerID, event.PointerID)

	custom := New(Options{Clock: fixedClock(1), DefaultPointerID: 42})
	event, err = custom.Normalize(model.RawEvent{Type: "click"})
	require.NoError(t, err)
	assert.Equal(t, 42, event.PointerID)
}

func TestNormalizeRejectsUnknownKind(t *testing.T) {
	n := New(Options{})
	_, err := n.Normalize(model.RawEvent{Type: "keydown"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrUnknownEventKind))
}

func TestNormalizeTimestampsNeverDecrease(t *testing.T) {
	n := New(Options{Clock: fixedClock(1000, 900, 1200)})

	var stamps []int64
	for i := 0; i < 3; i++ {
		event, err := n.Normalize(model.RawEvent{Type: "pointermove"})
		require.NoError(t, err)
		stamps = append(stamps, event.Timestamp)
	}

	assert.Equal(t, []int64{1000, 1000, 1200}, stamps)
}
