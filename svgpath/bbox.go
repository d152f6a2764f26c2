package svgpath

import (
	"math"
)

// compute the bounding box of a path, needed when using
// paint servers with objectBoundingBox units

// Rect is an axis aligned rectangle, used for bounding boxes.
type Rect struct {
	X, Y, W, H float64
}

// IsEmpty returns true if the rectangle has a zero width or height.
func (r Rect) IsEmpty() bool { return r.W <= 0 || r.H <= 0 }

// Union returns the smallest rectangle containing both `r` and `other`.
func (r Rect) Union(other Rect) Rect {
	minX, minY := math.Min(r.X, other.X), math.Min(r.Y, other.Y)
	maxX := math.Max(r.X+r.W, other.X+other.W)
	maxY := math.Max(r.Y+r.H, other.Y+other.H)
	return Rect{minX, minY, maxX - minX, maxY - minY}
}

// Expand grows the rectangle by `d` in every direction.
func (r Rect) Expand(d float64) Rect {
	return Rect{r.X - d, r.Y - d, r.W + 2*d, r.H + 2*d}
}

// Transform returns the bounding box of the
// image of the four corners of `r` by `m`.
func (r Rect) Transform(m Matrix2D) Rect {
	var ext extent
	ext.init()
	for _, pt := range [4]Point{{r.X, r.Y}, {r.X + r.W, r.Y}, {r.X, r.Y + r.H}, {r.X + r.W, r.Y + r.H}} {
		ext.add(m.Transform(pt.X, pt.Y))
	}
	return ext.rect()
}

type extent struct {
	minX, minY, maxX, maxY float64
}

func (e *extent) init() {
	e.minX, e.minY = math.Inf(1), math.Inf(1)
	e.maxX, e.maxY = math.Inf(-1), math.Inf(-1)
}

func (e *extent) add(x, y float64) {
	e.minX = math.Min(x, e.minX)
	e.minY = math.Min(y, e.minY)
	e.maxX = math.Max(x, e.maxX)
	e.maxY = math.Max(y, e.maxY)
}

func (e extent) isSet() bool { return e.minX <= e.maxX }

func (e extent) rect() Rect {
	return Rect{e.minX, e.minY, e.maxX - e.minX, e.maxY - e.minY}
}

// BBox returns the exact bounding box of the path, after applying
// the transform `m`. Curves are bounded using the roots of their
// derivative, not their control points.
// `ok` is false for an empty path.
// Note that a straight line yields a rectangle with zero width or height.
func (p Path) BBox(m Matrix2D) (bbox Rect, ok bool) {
	var (
		ext          extent
		current, beg Point
	)
	ext.init()
	tr := func(pt Point) Point {
		x, y := m.Transform(pt.X, pt.Y)
		return Point{x, y}
	}
	for _, op := range p {
		switch op := op.(type) {
		case MoveTo:
			current = tr(Point(op))
			beg = current
			ext.add(current.X, current.Y)
		case LineTo:
			current = tr(Point(op))
			ext.add(current.X, current.Y)
		case CubicTo:
			// affine maps preserve bezier curves
			cu := cubicBezier{current, tr(op[0]), tr(op[1]), tr(op[2])}
			cu.addExtrema(&ext)
			current = cu[3]
		case Close:
			current = beg
		}
	}
	if !ext.isSet() {
		return Rect{}, false
	}
	return ext.rect(), true
}

type cubicBezier [4]Point

func (cu cubicBezier) criticalPoints() (tX, tY []float64) {
	aX, bX, cX := cubicDerivative(cu[0].X, cu[1].X, cu[2].X, cu[3].X)
	aY, bY, cY := cubicDerivative(cu[0].Y, cu[1].Y, cu[2].Y, cu[3].Y)
	return quadraticRoots(aX, bX, cX), quadraticRoots(aY, bY, cY)
}

func (cu cubicBezier) evaluateCurve(t float64) (x, y float64) {
	return bezierSpline(cu[0].X, cu[1].X, cu[2].X, cu[3].X, t), bezierSpline(cu[0].Y, cu[1].Y, cu[2].Y, cu[3].Y, t)
}

func (cu cubicBezier) addExtrema(ext *extent) {
	resX, resY := cu.criticalPoints()
	// add begin and end point
	for _, t := range append(append(resX, 0, 1), resY...) {
		// filter invalid value
		if !(0 <= t && t <= 1) {
			continue
		}
		ext.add(cu.evaluateCurve(t))
	}
}

// cubic polinomial
// x = At^3 + Bt^2 + Ct + D
// where A,B,C,D:
// A = p3 -3 * p2 + 3 * p1 - p0
// B = 3 * p2 - 6 * p1 +3 * p0
// C = 3 * p1 - 3 * p0
// D = p0
func bezierSpline(p0, p1, p2, p3, t float64) float64 {
	return (p3-3*p2+3*p1-p0)*t*t*t +
		(3*p2-6*p1+3*p0)*t*t +
		(3*p1-3*p0)*t +
		(p0)
}

// X' = (3*p3-9*p2+9*p1-3*p0)t^2 + (6*p2-12*p1+6*p0)t + (3*p1-3*p0)
// taken as aX^2 + bX + c
func cubicDerivative(p0, p1, p2, p3 float64) (a, b, c float64) {
	return 3*p3 - 9*p2 + 9*p1 - 3*p0, 6*p2 - 12*p1 + 6*p0, 3*p1 - 3*p0
}

func quadraticRoots(a, b, c float64) []float64 {
	if a == 0 {
		// bX + c: a simple line
		if b == 0 {
			return nil
		}
		return []float64{-c / b}
	}
	d := b*b - 4*a*c
	if d < 0 {
		return nil
	}
	if d == 0 {
		return []float64{-b / (2 * a)}
	}
	sq := math.Sqrt(d)
	return []float64{(-b + sq) / (2 * a), (-b - sq) / (2 * a)}
}
