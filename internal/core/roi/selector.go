// Package roi implements the interactive region-of-interest selector.
//
// A selection is dragged out between two points and, once finished, becomes the
// committed ROI. The committed ROI can also be set numerically through the
// slider mirror. A zero-area ROI is kept for display but does not filter.
package roi

import (
	"sync"

	"github.com/penwyp/go-pointer-monitor/internal/core/model"
	"github.com/penwyp/go-pointer-monitor/internal/core/region"
)

// State is the selector's interaction state.
type State int

const (
	Idle State = iota
	Selecting
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Selecting:
		return "selecting"
	default:
		return "unknown"
	}
}

// ChangeFunc receives the committed ROI after every commit or clear.
// ok is false when no ROI is committed.
type ChangeFunc func(roi region.Rect, ok bool)

// Selector holds ROI selection state (thread-safe)
type Selector struct {
	mu sync.RWMutex

	state          State
	selectionStart *region.Point
	selectionEnd   *region.Point
	committed      *region.Rect
	sliders        region.Rect

	listeners []ChangeFunc
}

// NewSelector creates an idle selector with no ROI.
func NewSelector() *Selector {
	return &Selector{state: Idle}
}

// OnChange registers fn to be called after the committed ROI changes.
func (s *Selector) OnChange(fn ChangeFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// StartSelection begins a drag at (x, y). Ignored unless idle.
func (s *Selector) StartSelection(x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Idle {
		return
	}
	s.state = Selecting
	s.selectionStart = &region.Point{X: x, Y: y}
	s.selectionEnd = &region.Point{X: x, Y: y}
}

// UpdateSelection moves the drag end. Ignored unless selecting.
func (s *Selector) UpdateSelection(x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Selecting {
		return
	}
	s.selectionEnd = &region.Point{X: x, Y: y}
}

// FinishSelection commits the dragged rectangle and returns to idle.
func (s *Selector) FinishSelection() {
	s.mu.Lock()
	if s.state != Selecting || s.selectionStart == nil || s.selectionEnd == nil {
		s.mu.Unlock()
		return
	}

	rect := region.FromPoints(*s.selectionStart, *s.selectionEnd)
	s.committed = &rect
	s.sliders = rect
	s.resetSelection()
	s.mu.Unlock()

	s.notify()
}

// CancelSelection discards the drag without committing.
func (s *Selector) CancelSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetSelection()
}

// ClearROI removes the committed ROI and any drag in progress.
func (s *Selector) ClearROI() {
	s.mu.Lock()
	s.committed = nil
	s.sliders = region.Rect{}
	s.resetSelection()
	s.mu.Unlock()

	s.notify()
}

// UpdateROIFromSliders sets the ROI numerically. A rectangle without positive
// width and height clears the committed ROI but stays on the sliders.
func (s *Selector) UpdateROIFromSliders(r region.Rect) {
	s.mu.Lock()
	s.sliders = r
	if r.Width > 0 && r.Height > 0 {
		committed := r
		s.committed = &committed
	} else {
		s.committed = nil
	}
	s.mu.Unlock()

	s.notify()
}

func (s *Selector) resetSelection() {
	s.state = Idle
	s.selectionStart = nil
	s.selectionEnd = nil
}

func (s *Selector) notify() {
	s.mu.RLock()
	listeners := make([]ChangeFunc, len(s.listeners))
	copy(listeners, s.listeners)
	var current region.Rect
	ok := s.committed != nil
	if ok {
		current = *s.committed
	}
	s.mu.RUnlock()

	for _, fn := range listeners {
		fn(current, ok)
	}
}

// State returns the current interaction state.
func (s *Selector) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// IsSelecting reports whether a drag is in progress.
func (s *Selector) IsSelecting() bool {
	return s.State() == Selecting
}

// ROI returns the committed ROI, if any.
func (s *Selector) ROI() (region.Rect, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.committed == nil {
		return region.Rect{}, false
	}
	return *s.committed, true
}

// Sliders returns the slider mirror.
func (s *Selector) Sliders() region.Rect {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sliders
}

// Selection returns the transient drag points; both are nil when idle.
func (s *Selector) Selection() (start, end *region.Point) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selectionStart != nil {
		p := *s.selectionStart
		start = &p
	}
	if s.selectionEnd != nil {
		p := *s.selectionEnd
		end = &p
	}
	return start, end
}

// active returns the ROI that filters, i.e. a committed ROI with positive area.
func (s *Selector) active() (region.Rect, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.committed == nil || s.committed.IsDegenerate() {
		return region.Rect{}, false
	}
	return *s.committed, true
}

// IsActive reports whether the committed ROI currently filters events.
func (s *Selector) IsActive() bool {
	_, ok := s.active()
	return ok
}

// IsPointInROI reports whether (x, y) lies inside the committed ROI, edges
// included. It is false when no ROI filters.
func (s *Selector) IsPointInROI(x, y float64) bool {
	r, ok := s.active()
	return ok && r.Contains(x, y)
}

// Accepts reports whether event passes the ROI gate. Every event passes when
// no ROI filters; otherwise events without a position are rejected.
func (s *Selector) Accepts(event model.NormalizedEvent) bool {
	r, ok := s.active()
	if !ok {
		return true
	}
	x, y, hasPos := event.Position()
	return hasPos && r.Contains(x, y)
}

// FilterEventsByROI keeps the events inside the committed ROI. With no
// filtering ROI the input is returned unchanged.
func (s *Selector) FilterEventsByROI(events []model.NormalizedEvent) []model.NormalizedEvent {
	r, ok := s.active()
	if !ok {
		return events
	}

	result := make([]model.NormalizedEvent, 0, len(events))
	for _, event := range events {
		x, y, hasPos := event.Position()
		if hasPos && r.Contains(x, y) {
			result = append(result, event)
		}
	}
	return result
}
