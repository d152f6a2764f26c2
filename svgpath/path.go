// Implements an abstract representation of
// svg paths, made of absolute segments only,
// which can then be consumed by painting drivers.
package svgpath

import (
	"strings"
)

// Point is a 2D point, in user space units.
type Point struct{ X, Y float64 }

// Operation groups the different path segments.
// Only absolute commands are used: relative and shorthand SVG commands
// are resolved when parsing.
type Operation interface {
	isOperation()
}

type MoveTo Point

type LineTo Point

// CubicTo is a cubic bezier curve with two control points
// and an end point.
type CubicTo [3]Point

type Close struct{}

func (MoveTo) isOperation()  {}
func (LineTo) isOperation()  {}
func (CubicTo) isOperation() {}
func (Close) isOperation()   {}

// Path describes a sequence of basic SVG operations.
// Higher-level shapes are reduced to a path.
type Path []Operation

// ToSVGPath returns the canonical string representation of the path,
// using M, L, C and Z commands and single space separated numbers.
func (p Path) ToSVGPath() string {
	chunks := make([]string, len(p))
	for i, op := range p {
		switch op := op.(type) {
		case MoveTo:
			chunks[i] = "M " + FormatNumbers(op.X, op.Y)
		case LineTo:
			chunks[i] = "L " + FormatNumbers(op.X, op.Y)
		case CubicTo:
			chunks[i] = "C " + FormatNumbers(op[0].X, op[0].Y, op[1].X, op[1].Y, op[2].X, op[2].Y)
		case Close:
			chunks[i] = "Z"
		}
	}
	return strings.Join(chunks, " ")
}

// String returns a readable representation of a Path.
func (p Path) String() string {
	return p.ToSVGPath()
}

// Clear zeros the path slice
func (p *Path) Clear() {
	*p = (*p)[:0]
}

// Start starts a new curve at the given point.
func (p *Path) Start(a Point) {
	*p = append(*p, MoveTo(a))
}

// Line adds a linear segment to the current curve.
func (p *Path) Line(b Point) {
	*p = append(*p, LineTo(b))
}

// CubeBezier adds a cubic segment to the current curve.
func (p *Path) CubeBezier(b, c, d Point) {
	*p = append(*p, CubicTo{b, c, d})
}

// QuadBezier adds a quadratic segment to the current curve,
// starting at `a`, elevated to a cubic one.
func (p *Path) QuadBezier(a, b, c Point) {
	c1 := Point{a.X + 2./3*(b.X-a.X), a.Y + 2./3*(b.Y-a.Y)}
	c2 := Point{c.X + 2./3*(b.X-c.X), c.Y + 2./3*(b.Y-c.Y)}
	p.CubeBezier(c1, c2, c)
}

// Stop joins the ends of the path
func (p *Path) Stop(closeLoop bool) {
	if closeLoop {
		*p = append(*p, Close{})
	}
}

// Simplify returns a normalized copy of the path:
//   - runs of consecutive Close collapse to one
//   - drawing after a Close starts with an explicit MoveTo to the subpath start
//   - a MoveTo directly followed by another MoveTo is dropped, as is a trailing one
//   - a path without any drawing segment is empty
//
// Simplify is idempotent.
func (p Path) Simplify() Path {
	var (
		out       Path
		start     Point // start of the current subpath
		inSubpath bool  // the last appended op is not a Close
		drawing   bool
	)
	for _, op := range p {
		switch op := op.(type) {
		case MoveTo:
			if n := len(out); n > 0 {
				if _, isMove := out[n-1].(MoveTo); isMove {
					out = out[:n-1]
				}
			}
			out = append(out, op)
			start, inSubpath = Point(op), true
		case Close:
			if !inSubpath {
				continue // collapse
			}
			if _, isMove := out[len(out)-1].(MoveTo); isMove {
				// closing an empty subpath draws nothing
				out = out[:len(out)-1]
				inSubpath = false
				continue
			}
			out = append(out, op)
			inSubpath = false
		default:
			if len(out) == 0 {
				continue // drawing without a current point
			}
			if !inSubpath {
				out = append(out, MoveTo(start))
				inSubpath = true
			}
			out = append(out, op)
			drawing = true
		}
	}
	if n := len(out); n > 0 {
		if _, isMove := out[n-1].(MoveTo); isMove {
			out = out[:n-1]
		}
	}
	if !drawing {
		return nil
	}
	return out
}

// Points returns the end points of each segment
// (Close yields the start of its subpath).
func (p Path) Points() []Point {
	var (
		out   []Point
		start Point
	)
	for _, op := range p {
		switch op := op.(type) {
		case MoveTo:
			start = Point(op)
			out = append(out, start)
		case LineTo:
			out = append(out, Point(op))
		case CubicTo:
			out = append(out, op[2])
		case Close:
			out = append(out, start)
		}
	}
	return out
}
