// Package normalizer converts raw platform pointer events into model.NormalizedEvent.
package normalizer

import (
	"fmt"
	"sync"
	"time"

	"github.com/penwyp/go-pointer-monitor/internal/core/model"
	"github.com/penwyp/go-pointer-monitor/internal/util"
)

// DefaultPointerID is assigned to events that carry no pointer id, such as plain mouse clicks.
const DefaultPointerID = 1

// Options configures a Normalizer.
type Options struct {
	Clock            func() time.Time
	DefaultPointerID int
}

// Normalizer stamps and canonicalises raw events. Timestamps it issues never
// go backwards, even when the wall clock does.
type Normalizer struct {
	clock            func() time.Time
	defaultPointerID int

	mu            sync.Mutex
	lastTimestamp int64
}

// New creates a Normalizer.
func New(opts Options) *Normalizer {
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	pointerID := opts.DefaultPointerID
	if pointerID == 0 {
		pointerID = DefaultPointerID
	}
	return &Normalizer{
		clock:            clock,
		defaultPointerID: pointerID,
	}
}

// Normalize builds a NormalizedEvent from raw. Coordinates come from the first
// touch point when present, then from clientX/clientY, and fall back to (0,0).
// A NaN or infinite coordinate is left absent.
func (n *Normalizer) Normalize(raw model.RawEvent) (model.NormalizedEvent, error) {
	kind, err := model.ParseEventKind(raw.Type)
	if err != nil {
		return model.NormalizedEvent{}, err
	}

	x, y, ok := primaryCoordinates(raw)
	if !ok {
		util.LogWarn("Pointer event without coordinates, defaulting to origin",
			util.F("type", raw.Type))
	}

	pointerID := n.defaultPointerID
	if raw.PointerID != nil {
		pointerID = *raw.PointerID
	}

	retained := raw
	return model.NormalizedEvent{
		Type:      kind,
		PointerID: pointerID,
		X:         x,
		Y:         y,
		Timestamp: n.nextTimestamp(),
		Raw:       &retained,
	}, nil
}

func primaryCoordinates(raw model.RawEvent) (x, y *float64, ok bool) {
	if len(raw.Touches) > 0 {
		touch := raw.Touches[0]
		return model.FiniteFloat(touch.ClientX), model.FiniteFloat(touch.ClientY), true
	}
	if raw.ClientX != nil && raw.ClientY != nil {
		return model.FiniteFloat(*raw.ClientX), model.FiniteFloat(*raw.ClientY), true
	}
	return model.Float(0), model.Float(0), false
}

func (n *Normalizer) nextTimestamp() int64 {
	now := n.clock().UnixMilli()

	n.mu.Lock()
	defer n.mu.Unlock()
	if now < n.lastTimestamp {
		util.LogDebug(fmt.Sprintf("Clock moved backwards by %dms, clamping timestamp", n.lastTimestamp-now))
		now = n.lastTimestamp
	}
	n.lastTimestamp = now
	return now
}
