// Package fixtures builds pointer event captures in the JSON lines format read
// by the monitor command.
package fixtures

import (
	"bytes"
	"io"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"

	"github.com/penwyp/go-pointer-monitor/internal/core/model"
)

// Entry is one captured line.
type Entry struct {
	model.RawEvent
	DelayMs int64 `json:"delayMs,omitempty"`
}

// Generator accumulates gestures for one pointer.
type Generator struct {
	pointerID int
	stepMs    int64
	entries   []Entry
}

// NewGenerator creates a generator for pointerID whose consecutive events are
// stepMs apart.
func NewGenerator(pointerID int, stepMs int64) *Generator {
	return &Generator{pointerID: pointerID, stepMs: stepMs}
}

func (g *Generator) add(kind model.EventKind, x, y float64) {
	g.entries = append(g.entries, Entry{
		RawEvent: model.RawEvent{
			Type:      string(kind),
			PointerID: model.Int(g.pointerID),
			ClientX:   model.Float(x),
			ClientY:   model.Float(y),
			IsPrimary: true,
		},
		DelayMs: g.delay(),
	})
}

func (g *Generator) delay() int64 {
	if len(g.entries) == 0 {
		return 0
	}
	return g.stepMs
}

// Tap adds pointerdown, pointerup and click at (x, y).
func (g *Generator) Tap(x, y float64) *Generator {
	g.add(model.PointerDown, x, y)
	g.add(model.PointerUp, x, y)
	g.add(model.Click, x, y)
	return g
}

// Hover adds pointerenter, steps pointermoves along the segment and pointerleave.
func (g *Generator) Hover(from, to [2]float64, steps int) *Generator {
	g.add(model.PointerEnter, from[0], from[1])
	for _, p := range interpolate(from, to, steps) {
		g.add(model.PointerMove, p[0], p[1])
	}
	g.add(model.PointerLeave, to[0], to[1])
	return g
}

// Drag adds a press, a drag gesture of steps moves and the release.
func (g *Generator) Drag(from, to [2]float64, steps int) *Generator {
	g.add(model.PointerDown, from[0], from[1])
	g.add(model.DragStart, from[0], from[1])
	for _, p := range interpolate(from, to, steps) {
		g.add(model.Drag, p[0], p[1])
	}
	g.add(model.DragEnd, to[0], to[1])
	g.add(model.PointerUp, to[0], to[1])
	return g
}

// Touch adds a pointermove carrying only a touch list.
func (g *Generator) Touch(x, y float64) *Generator {
	g.entries = append(g.entries, Entry{
		RawEvent: model.RawEvent{
			Type:    string(model.PointerMove),
			Touches: []model.TouchPoint{{Identifier: g.pointerID, ClientX: x, ClientY: y}},
		},
		DelayMs: g.delay(),
	})
	return g
}

// Raw adds an arbitrary line, such as an unsupported event type.
func (g *Generator) Raw(raw model.RawEvent) *Generator {
	g.entries = append(g.entries, Entry{RawEvent: raw, DelayMs: g.delay()})
	return g
}

// Entries returns the accumulated lines.
func (g *Generator) Entries() []Entry {
	return g.entries
}

// Count returns how many entries have the given kind.
func (g *Generator) Count(kind model.EventKind) int {
	n := 0
	for _, e := range g.entries {
		if e.Type == string(kind) {
			n++
		}
	}
	return n
}

// Encode writes the entries as JSON lines.
func (g *Generator) Encode(w io.Writer) error {
	for _, entry := range g.entries {
		data, err := sonic.Marshal(entry)
		if err != nil {
			return err
		}
		data = append(data, '\n')
		if _, err := w.Write(data); err != nil {
			return err
		}
	}
	return nil
}

// Bytes returns the encoded capture.
func (g *Generator) Bytes() []byte {
	var buf bytes.Buffer
	_ = g.Encode(&buf)
	return buf.Bytes()
}

// WriteFile writes the capture to dir/name and returns its path.
func (g *Generator) WriteFile(dir, name string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)
	return path, os.WriteFile(path, g.Bytes(), 0644)
}

// interpolate returns steps points evenly spaced after from, ending at to.
func interpolate(from, to [2]float64, steps int) [][2]float64 {
	if steps <= 0 {
		return nil
	}
	points := make([][2]float64, steps)
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps)
		points[i-1] = [2]float64{
			from[0] + (to[0]-from[0])*t,
			from[1] + (to[1]-from[1])*t,
		}
	}
	return points
}
