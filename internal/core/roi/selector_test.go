package roi

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penwyp/go-pointer-monitor/internal/core/model"
	"github.com/penwyp/go-pointer-monitor/internal/core/region"
)

func eventAt(x, y float64) model.NormalizedEvent {
	return model.NormalizedEvent{Type: model.PointerMove, PointerID: 1, X: model.Float(x), Y: model.Float(y)}
}

func TestSelectionNormalizesDragDirection(t *testing.T) {
	s := NewSelector()
	s.StartSelection(150, 250)
	s.UpdateSelection(100, 200)
	s.FinishSelection()

	roi, ok := s.ROI()
	require.True(t, ok)
	assert.Equal(t, region.Rect{X: 100, Y: 200, Width: 50, Height: 50}, roi)
	assert.Equal(t, roi, s.Sliders())
	assert.Equal(t, Idle, s.State())

	start, end := s.Selection()
	assert.Nil(t, start)
	assert.Nil(t, end)
}

func TestROIContainmentIsInclusive(t *testing.T) {
	s := NewSelector()
	s.UpdateROIFromSliders(region.Rect{X: 100, Y: 100, Width: 50, Height: 50})

	tests := []struct {
		name string
		x, y float64
		want bool
	}{
		{"inside", 120, 130, true},
		{"top-left corner", 100, 100, true},
		{"bottom-right corner", 150, 150, true},
		{"left of", 99, 120, false},
		{"right of", 151, 120, false},
		{"below", 120, 151, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.IsPointInROI(tt.x, tt.y))
		})
	}
}

func TestTransitionsOutsideTheirStateAreIgnored(t *testing.T) {
	s := NewSelector()

	s.UpdateSelection(10, 10)
	s.FinishSelection()
	_, ok := s.ROI()
	assert.False(t, ok)

	s.StartSelection(0, 0)
	s.StartSelection(500, 500)
	s.UpdateSelection(20, 30)
	s.FinishSelection()

	roi, ok := s.ROI()
	require.True(t, ok)
	assert.Equal(t, region.Rect{X: 0, Y: 0, Width: 20, Height: 30}, roi)
}

func TestCancelSelectionKeepsCommittedROI(t *testing.T) {
	s := NewSelector()
	s.UpdateROIFromSliders(region.Rect{X: 1, Y: 1, Width: 10, Height: 10})

	s.StartSelection(50, 50)
	assert.True(t, s.IsSelecting())
	s.UpdateSelection(80, 80)
	s.CancelSelection()

	assert.False(t, s.IsSelecting())
	roi, ok := s.ROI()
	require.True(t, ok)
	assert.Equal(t, region.Rect{X: 1, Y: 1, Width: 10, Height: 10}, roi)
}

func TestClearROI(t *testing.T) {
	s := NewSelector()
	s.UpdateROIFromSliders(region.Rect{X: 1, Y: 1, Width: 10, Height: 10})
	s.StartSelection(5, 5)

	s.ClearROI()

	_, ok := s.ROI()
	assert.False(t, ok)
	assert.True(t, s.Sliders().IsZero())
	assert.Equal(t, Idle, s.State())
}

func TestSlidersWithoutAreaClearROI(t *testing.T) {
	s := NewSelector()
	s.UpdateROIFromSliders(region.Rect{X: 1, Y: 1, Width: 10, Height: 10})

	s.UpdateROIFromSliders(region.Rect{X: 5, Y: 5, Width: 0, Height: 10})

	_, ok := s.ROI()
	assert.False(t, ok)
	assert.Equal(t, region.Rect{X: 5, Y: 5, Width: 0, Height: 10}, s.Sliders())
}

func TestDegenerateDragDoesNotFilter(t *testing.T) {
	s := NewSelector()
	s.StartSelection(40, 40)
	s.FinishSelection()

	roi, ok := s.ROI()
	require.True(t, ok)
	assert.True(t, roi.IsDegenerate())
	assert.False(t, s.IsActive())
	assert.False(t, s.IsPointInROI(40, 40))

	events := []model.NormalizedEvent{eventAt(1, 1), eventAt(40, 40)}
	assert.Equal(t, events, s.FilterEventsByROI(events))
}

func TestFilterEventsByROI(t *testing.T) {
	s := NewSelector()
	events := []model.NormalizedEvent{
		eventAt(10, 10),
		eventAt(150, 150),
		{Type: model.Click, PointerID: 1},
		eventAt(math.NaN(), 150),
	}

	assert.Len(t, s.FilterEventsByROI(events), 4, "no ROI passes everything")

	s.UpdateROIFromSliders(region.Rect{X: 100, Y: 100, Width: 100, Height: 100})
	filtered := s.FilterEventsByROI(events)
	require.Len(t, filtered, 1)
	x, _, _ := filtered[0].Position()
	assert.Equal(t, 150.0, x)

	assert.False(t, s.Accepts(events[2]), "position-less events are dropped while an ROI is active")
	assert.True(t, s.Accepts(events[1]))
}

func TestOnChangeNotifiesCommitsAndClears(t *testing.T) {
	s := NewSelector()

	type change struct {
		roi region.Rect
		ok  bool
	}
	var changes []change
	s.OnChange(func(r region.Rect, ok bool) {
		changes = append(changes, change{r, ok})
	})

	s.StartSelection(0, 0)
	s.UpdateSelection(10, 20)
	assert.Empty(t, changes, "drag updates are not commits")

	s.FinishSelection()
	s.ClearROI()

	require.Len(t, changes, 2)
	assert.Equal(t, change{region.Rect{Width: 10, Height: 20}, true}, changes[0])
	assert.False(t, changes[1].ok)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "selecting", Selecting.String())
}
