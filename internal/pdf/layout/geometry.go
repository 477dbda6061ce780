package layout

import (
	"fmt"
	"math"
)

// Point is a coordinate in page space (origin top-left, y grows downward)
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Rect is an axis-aligned rectangle in page space.
// X0/Y0 is the top-left corner, X1/Y1 the bottom-right corner.
type Rect struct {
	X0 float64 `json:"x0" yaml:"x0"`
	Y0 float64 `json:"y0" yaml:"y0"`
	X1 float64 `json:"x1" yaml:"x1"`
	Y1 float64 `json:"y1" yaml:"y1"`
}

// Width returns the horizontal extent of the rectangle
func (r Rect) Width() float64 {
	return r.X1 - r.X0
}

// Height returns the vertical extent of the rectangle
func (r Rect) Height() float64 {
	return r.Y1 - r.Y0
}

// IsEmpty reports whether the rectangle has no area
func (r Rect) IsEmpty() bool {
	return r.X1 <= r.X0 || r.Y1 <= r.Y0
}

// Intersects reports whether r and o overlap with a positive area.
// Touching edges do not count as an intersection.
func (r Rect) Intersects(o Rect) bool {
	if r.IsEmpty() || o.IsEmpty() {
		return false
	}
	return r.X0 < o.X1 && o.X0 < r.X1 && r.Y0 < o.Y1 && o.Y0 < r.Y1
}

// Contains reports whether p lies inside r, edges included
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X0 && p.X <= r.X1 && p.Y >= r.Y0 && p.Y <= r.Y1
}

// Center returns the midpoint of the rectangle
func (r Rect) Center() Point {
	return Point{X: (r.X0 + r.X1) / 2, Y: (r.Y0 + r.Y1) / 2}
}

// Union returns the smallest rectangle covering both r and o.
// A zero Rect is treated as the identity.
func (r Rect) Union(o Rect) Rect {
	if r == (Rect{}) {
		return o
	}
	if o == (Rect{}) {
		return r
	}
	return Rect{
		X0: math.Min(r.X0, o.X0),
		Y0: math.Min(r.Y0, o.Y0),
		X1: math.Max(r.X1, o.X1),
		Y1: math.Max(r.Y1, o.Y1),
	}
}

// ExpandRight returns a copy of r with its right edge moved by d
func (r Rect) ExpandRight(d float64) Rect {
	r.X1 += d
	return r
}

func (r Rect) String() string {
	return fmt.Sprintf("Rect(%.2f, %.2f, %.2f, %.2f)", r.X0, r.Y0, r.X1, r.Y1)
}

// Quad is a quadrilateral given by four vertices, as stored in highlight
// annotations (upper-left, upper-right, lower-left, lower-right).
type Quad [4]Point

// Rect returns the bounding rectangle of the quad's vertices
func (q Quad) Rect() Rect {
	r := Rect{X0: q[0].X, Y0: q[0].Y, X1: q[0].X, Y1: q[0].Y}
	for _, p := range q[1:] {
		r.X0 = math.Min(r.X0, p.X)
		r.Y0 = math.Min(r.Y0, p.Y)
		r.X1 = math.Max(r.X1, p.X)
		r.Y1 = math.Max(r.Y1, p.Y)
	}
	return r
}

// QuadsFromVertices groups a flat vertex list into quads of four points.
// Trailing vertices that do not complete a quad are ignored.
func QuadsFromVertices(points []Point) []Quad {
	quads := make([]Quad, 0, len(points)/4)
	for i := 0; i+4 <= len(points); i += 4 {
		quads = append(quads, Quad{points[i], points[i+1], points[i+2], points[i+3]})
	}
	return quads
}
