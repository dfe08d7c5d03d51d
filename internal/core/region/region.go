// Package region models rectangular areas of the pointer surface.
//
// Two shapes are used by different parts of the pipeline: Corners (x1,y1,x2,y2)
// for store-level bounds and Rect (x,y,width,height) for the committed region of
// interest. Both are views of the same rectangle and convert losslessly.
// Containment is inclusive on every edge, and zero-size rectangles still
// contain the points on them.
package region

import "math"

// Point is a position on the pointer surface.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Corners is the corner-pair form. Invariant: X1 <= X2 and Y1 <= Y2.
type Corners struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Rect is the origin+size form. Invariant: Width >= 0 and Height >= 0.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// NewCorners normalizes two arbitrary corners into a Corners value.
func NewCorners(x1, y1, x2, y2 float64) Corners {
	return Corners{
		X1: math.Min(x1, x2),
		Y1: math.Min(y1, y2),
		X2: math.Max(x1, x2),
		Y2: math.Max(y1, y2),
	}
}

// FromPoints builds the Rect spanned by two points, whatever the drag direction.
func FromPoints(a, b Point) Rect {
	return Rect{
		X:      math.Min(a.X, b.X),
		Y:      math.Min(a.Y, b.Y),
		Width:  math.Abs(b.X - a.X),
		Height: math.Abs(b.Y - a.Y),
	}
}

// NewRect builds a Rect, folding negative sizes back onto the origin.
func NewRect(x, y, width, height float64) Rect {
	return FromPoints(Point{X: x, Y: y}, Point{X: x + width, Y: y + height})
}

// Contains reports whether (x, y) lies inside or on the boundary.
func (c Corners) Contains(x, y float64) bool {
	return x >= c.X1 && x <= c.X2 && y >= c.Y1 && y <= c.Y2
}

// Rect converts to the origin+size form.
func (c Corners) Rect() Rect {
	return Rect{X: c.X1, Y: c.Y1, Width: c.X2 - c.X1, Height: c.Y2 - c.Y1}
}

// Corners converts to the corner-pair form.
func (r Rect) Corners() Corners {
	return NewCorners(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Contains reports whether (x, y) lies inside or on the boundary.
func (r Rect) Contains(x, y float64) bool {
	return r.Corners().Contains(x, y)
}

// IsDegenerate reports whether the rectangle has zero area.
func (r Rect) IsDegenerate() bool {
	return r.Width == 0 || r.Height == 0
}

// IsZero reports whether every field is zero.
func (r Rect) IsZero() bool {
	return r == Rect{}
}
