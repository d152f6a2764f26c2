package svgpath

import (
	"errors"
	"math"
	"strings"
)

var errParamMismatch = errors.New("svgpath: param mismatch")

// Matrix2D represents an affine transformation, with
// the same layout as the one used by rasterx:
//
//	| A C E |
//	| B D F |
//	| 0 0 1 |
type Matrix2D struct {
	A, B, C, D, E, F float64
}

// Identity is the identity transformation.
var Identity = Matrix2D{1, 0, 0, 1, 0, 0}

// Mult returns a * b : b is applied first.
func (a Matrix2D) Mult(b Matrix2D) Matrix2D {
	return Matrix2D{
		A: a.A*b.A + a.C*b.B,
		B: a.B*b.A + a.D*b.B,
		C: a.A*b.C + a.C*b.D,
		D: a.B*b.C + a.D*b.D,
		E: a.A*b.E + a.C*b.F + a.E,
		F: a.B*b.E + a.D*b.F + a.F,
	}
}

// Transform applies the matrix to the point (x1, y1).
func (a Matrix2D) Transform(x1, y1 float64) (x2, y2 float64) {
	return x1*a.A + y1*a.C + a.E, x1*a.B + y1*a.D + a.F
}

// Translate returns a * translation(x, y).
func (a Matrix2D) Translate(x, y float64) Matrix2D {
	return a.Mult(Matrix2D{1, 0, 0, 1, x, y})
}

// Scale returns a * scale(x, y).
func (a Matrix2D) Scale(x, y float64) Matrix2D {
	return a.Mult(Matrix2D{x, 0, 0, y, 0, 0})
}

// Rotate returns a * rotation(theta), with theta in radians.
func (a Matrix2D) Rotate(theta float64) Matrix2D {
	s, c := math.Sincos(theta)
	return a.Mult(Matrix2D{c, s, -s, c, 0, 0})
}

// SkewX returns a * skewX(theta), with theta in radians.
func (a Matrix2D) SkewX(theta float64) Matrix2D {
	return a.Mult(Matrix2D{1, 0, math.Tan(theta), 1, 0, 0})
}

// SkewY returns a * skewY(theta), with theta in radians.
func (a Matrix2D) SkewY(theta float64) Matrix2D {
	return a.Mult(Matrix2D{1, math.Tan(theta), 0, 1, 0, 0})
}

func (a Matrix2D) det() float64 { return a.A*a.D - a.B*a.C }

// IsInvertible returns false for degenerated matrices,
// such as the ones produced by scale(0).
func (a Matrix2D) IsInvertible() bool {
	d := a.det()
	return d != 0 && !math.IsNaN(d) && !math.IsInf(d, 0)
}

// Invert returns the inverse matrix.
// The result is undefined if `a` is not invertible.
func (a Matrix2D) Invert() Matrix2D {
	d := a.det()
	return Matrix2D{
		A: a.D / d,
		B: -a.B / d,
		C: -a.C / d,
		D: a.A / d,
		E: (a.C*a.F - a.D*a.E) / d,
		F: (a.B*a.E - a.A*a.F) / d,
	}
}

// IsIdentity compares `a` to Identity, with a small tolerance.
func (a Matrix2D) IsIdentity() bool {
	const eps = 1e-12
	return math.Abs(a.A-1) < eps && math.Abs(a.B) < eps && math.Abs(a.C) < eps &&
		math.Abs(a.D-1) < eps && math.Abs(a.E) < eps && math.Abs(a.F) < eps
}

// MeanScale returns the geometric mean of the scaling factors,
// used to approximate lengths (such as stroke widths) after transformation.
func (a Matrix2D) MeanScale() float64 {
	return math.Sqrt(math.Abs(a.det()))
}

// MaxScale returns the largest scaling factor of the matrix
// (a conservative bound for lengths after transformation).
func (a Matrix2D) MaxScale() float64 {
	sx := math.Hypot(a.A, a.B)
	sy := math.Hypot(a.C, a.D)
	return math.Max(sx, sy)
}

// String returns the canonical SVG form `matrix(a b c d e f)`.
func (a Matrix2D) String() string {
	return "matrix(" + FormatNumbers(a.A, a.B, a.C, a.D, a.E, a.F) + ")"
}

func readTransformAttr(m1 Matrix2D, k string, points []float64) (Matrix2D, error) {
	ln := len(points)
	switch k {
	case "rotate":
		if ln == 1 {
			m1 = m1.Rotate(points[0] * math.Pi / 180)
		} else if ln == 3 {
			m1 = m1.Translate(points[1], points[2]).
				Rotate(points[0]*math.Pi/180).
				Translate(-points[1], -points[2])
		} else {
			return m1, errParamMismatch
		}
	case "translate":
		if ln == 1 {
			m1 = m1.Translate(points[0], 0)
		} else if ln == 2 {
			m1 = m1.Translate(points[0], points[1])
		} else {
			return m1, errParamMismatch
		}
	case "skewx":
		if ln == 1 {
			m1 = m1.SkewX(points[0] * math.Pi / 180)
		} else {
			return m1, errParamMismatch
		}
	case "skewy":
		if ln == 1 {
			m1 = m1.SkewY(points[0] * math.Pi / 180)
		} else {
			return m1, errParamMismatch
		}
	case "scale":
		if ln == 1 {
			m1 = m1.Scale(points[0], points[0])
		} else if ln == 2 {
			m1 = m1.Scale(points[0], points[1])
		} else {
			return m1, errParamMismatch
		}
	case "matrix":
		if ln == 6 {
			m1 = m1.Mult(Matrix2D{
				A: points[0],
				B: points[1],
				C: points[2],
				D: points[3],
				E: points[4],
				F: points[5]})
		} else {
			return m1, errParamMismatch
		}
	default:
		return m1, errParamMismatch
	}
	return m1, nil
}

// ParseTransform parses a SVG transform list, such as
// `translate(10 20) rotate(45)`.
// An invalid list yields Identity and a non nil error.
func ParseTransform(v string) (Matrix2D, error) {
	ts := strings.Split(v, ")")
	m1 := Identity
	for _, t := range ts {
		t = strings.TrimSpace(t)
		t = strings.TrimLeft(t, ", \t\n\r")
		if len(t) == 0 {
			continue
		}
		d := strings.Split(t, "(")
		if len(d) != 2 || len(d[1]) < 1 {
			return Identity, errParamMismatch // badly formed transformation
		}
		points, err := ParseNumbers(d[1])
		if err != nil {
			return Identity, err
		}
		m1, err = readTransformAttr(m1, strings.ToLower(strings.TrimSpace(d[0])), points)
		if err != nil {
			return Identity, err
		}
	}
	return m1, nil
}
