package model

import (
	"errors"
	"fmt"
	"math"

	"github.com/bytedance/sonic"
)

// EventKind is the closed set of pointer interactions the monitor understands.
type EventKind string

const (
	PointerDown  EventKind = "pointerdown"
	PointerUp    EventKind = "pointerup"
	PointerMove  EventKind = "pointermove"
	PointerEnter EventKind = "pointerenter"
	PointerLeave EventKind = "pointerleave"
	Click        EventKind = "click"
	DragStart    EventKind = "dragstart"
	Drag         EventKind = "drag"
	DragEnd      EventKind = "dragend"
)

var allEventKinds = []EventKind{
	PointerDown, PointerUp, PointerMove, PointerEnter, PointerLeave,
	Click, DragStart, Drag, DragEnd,
}

// ErrUnknownEventKind is returned when a raw event type is outside the EventKind set.
var ErrUnknownEventKind = errors.New("unknown pointer event kind")

// AllEventKinds returns every EventKind in declaration order.
func AllEventKinds() []EventKind {
	kinds := make([]EventKind, len(allEventKinds))
	copy(kinds, allEventKinds)
	return kinds
}

// Valid reports whether k is one of the known kinds.
func (k EventKind) Valid() bool {
	for _, known := range allEventKinds {
		if k == known {
			return true
		}
	}
	return false
}

// ParseEventKind converts a platform type string into an EventKind.
func ParseEventKind(s string) (EventKind, error) {
	kind := EventKind(s)
	if !kind.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownEventKind, s)
	}
	return kind, nil
}

// TouchPoint is one entry of a touch list carried by a raw event.
type TouchPoint struct {
	Identifier int     `json:"identifier"`
	ClientX    float64 `json:"clientX"`
	ClientY    float64 `json:"clientY"`
}

// RawEvent is a platform pointer/mouse/touch event as delivered by the input source.
// Optional fields are pointers so that "absent" can be told apart from zero.
type RawEvent struct {
	Type      string       `json:"type"`
	PointerID *int         `json:"pointerId,omitempty"`
	ClientX   *float64     `json:"clientX,omitempty"`
	ClientY   *float64     `json:"clientY,omitempty"`
	Touches   []TouchPoint `json:"touches,omitempty"`
	Bubbles   bool         `json:"bubbles,omitempty"`
	IsPrimary bool         `json:"isPrimary,omitempty"`
}

// NormalizedEvent is the canonical record stored, filtered and recorded by the pipeline.
type NormalizedEvent struct {
	Type      EventKind `json:"type"`
	PointerID int       `json:"pointerId"`
	X         *float64  `json:"x,omitempty"`
	Y         *float64  `json:"y,omitempty"`
	Timestamp int64     `json:"timestamp"` // Unix milliseconds

	// Raw keeps the originating platform event for in-process consumers. Not persisted.
	Raw *RawEvent `json:"-"`
}

// MarshalJSON writes non-finite coordinates as absent.
func (e NormalizedEvent) MarshalJSON() ([]byte, error) {
	type plain NormalizedEvent
	out := plain(e)
	if out.X != nil {
		out.X = FiniteFloat(*out.X)
	}
	if out.Y != nil {
		out.Y = FiniteFloat(*out.Y)
	}
	return sonic.Marshal(out)
}

// Position returns the event coordinates. ok is false when either coordinate is
// missing or NaN, in which case the event cannot be filtered spatially.
func (e NormalizedEvent) Position() (x, y float64, ok bool) {
	if e.X == nil || e.Y == nil {
		return 0, 0, false
	}
	if math.IsNaN(*e.X) || math.IsNaN(*e.Y) {
		return 0, 0, false
	}
	return *e.X, *e.Y, true
}

// Float returns a pointer to v, for building events with coordinates.
func Float(v float64) *float64 {
	return &v
}

// FiniteFloat returns a pointer to v, or nil when v is NaN or infinite.
func FiniteFloat(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Int returns a pointer to v.
func Int(v int) *int {
	return &v
}
