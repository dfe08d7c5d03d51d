package dispatch

import (
	"fmt"
	"math"

	"github.com/penwyp/go-pointer-monitor/internal/core/model"
)

// Synthesize builds the platform event that replays ev. Missing coordinates
// stay absent on the synthetic event.
func Synthesize(ev model.NormalizedEvent) (model.RawEvent, error) {
	if !ev.Type.Valid() {
		return model.RawEvent{}, fmt.Errorf("%w: %q", ErrUnsupportedEvent, ev.Type)
	}
	if (ev.X != nil && math.IsNaN(*ev.X)) || (ev.Y != nil && math.IsNaN(*ev.Y)) {
		return model.RawEvent{}, fmt.Errorf("synthesize %s: coordinates are not numbers", ev.Type)
	}

	raw := model.RawEvent{
		Type:      string(ev.Type),
		PointerID: model.Int(ev.PointerID),
		Bubbles:   true,
	}
	if ev.X != nil {
		raw.ClientX = model.Float(*ev.X)
	}
	if ev.Y != nil {
		raw.ClientY = model.Float(*ev.Y)
	}
	return raw, nil
}

// NewPointerEvent builds a primary-pointer raw event at (x, y).
func NewPointerEvent(kind model.EventKind, x, y float64, pointerID int) model.RawEvent {
	return model.RawEvent{
		Type:      string(kind),
		PointerID: model.Int(pointerID),
		ClientX:   model.Float(x),
		ClientY:   model.Float(y),
		IsPrimary: true,
	}
}
