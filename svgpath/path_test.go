package svgpath

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimplifyCloseRuns(t *testing.T) {
	p := Path{MoveTo{10, 20}, LineTo{10, 30}, Close{}, Close{}, Close{}}
	got := p.Simplify()
	assert.Equal(t, Path{MoveTo{10, 20}, LineTo{10, 30}, Close{}}, got)
	assert.Equal(t, "M 10 20 L 10 30 Z", got.ToSVGPath())
}

func TestSimplify(t *testing.T) {
	for _, test := range []struct {
		in, out string
	}{
		{"M 10 20 L 10 30 Z Z Z", "M 10 20 L 10 30 Z"},
		{"M 0 0 M 10 10 L 20 20", "M 10 10 L 20 20"},
		{"M 0 0 L 10 10 M 50 50", "M 0 0 L 10 10"},
		{"M 0 0 L 10 0 L 10 10 Z L 5 5", "M 0 0 L 10 0 L 10 10 Z M 0 0 L 5 5"},
		{"M 5 5 Z", ""},
		{"M 5 5", ""},
		{"M 1 1 L 2 2 Z M 3 3 Z", "M 1 1 L 2 2 Z"},
	} {
		p, err := ParsePath(test.in)
		require.NoError(t, err)
		got := p.Simplify()
		assert.Equal(t, test.out, got.ToSVGPath(), test.in)

		// idempotence
		assert.Equal(t, got, got.Simplify())
	}
}

func TestPoints(t *testing.T) {
	var p Path
	p.AddRect(0, 0, 4, 2)
	assert.Equal(t, []Point{{0, 0}, {4, 0}, {4, 2}, {0, 2}, {0, 0}}, p.Points())
}

func TestAddRect(t *testing.T) {
	var p Path
	p.AddRect(0, 0, 30, 20)
	assert.Equal(t, "M 0 0 L 30 0 L 30 20 L 0 20 Z", p.ToSVGPath())
}

func TestAddEllipse(t *testing.T) {
	var p Path
	p.AddEllipse(50, 50, 20, 10)
	require.Len(t, p, 6)
	assert.Equal(t, MoveTo{70, 50}, p[0])
	assert.Equal(t, Close{}, p[5])

	bbox, ok := p.BBox(Identity)
	require.True(t, ok)
	assert.InDelta(t, 30, bbox.X, 1e-9)
	assert.InDelta(t, 40, bbox.Y, 1e-9)
	assert.InDelta(t, 40, bbox.W, 1e-9)
	assert.InDelta(t, 20, bbox.H, 1e-9)
}

func TestAddRoundRect(t *testing.T) {
	var p Path
	p.AddRoundRect(0, 0, 100, 50, 10, 5)
	assert.Equal(t, MoveTo{10, 0}, p[0])
	bbox, ok := p.BBox(Identity)
	require.True(t, ok)
	assert.InDelta(t, 100, bbox.W, 1e-9)
	assert.InDelta(t, 50, bbox.H, 1e-9)

	var q Path
	q.AddRoundRect(0, 0, 10, 10, 0, 5)
	assert.Equal(t, "M 0 0 L 10 0 L 10 10 L 0 10 Z", q.ToSVGPath())
}

func TestQuadBezier(t *testing.T) {
	var p Path
	p.Start(Point{0, 0})
	p.QuadBezier(Point{0, 0}, Point{3, 3}, Point{6, 0})
	assert.Equal(t, CubicTo{{2, 2}, {4, 2}, {6, 0}}, p[1])
}

func TestBBoxCurve(t *testing.T) {
	p, err := ParsePath("M 0 0 C 0 10 10 10 10 0")
	require.NoError(t, err)
	bbox, ok := p.BBox(Identity)
	require.True(t, ok)
	// the curve apex is at 3/4 of the control points height
	assert.InDelta(t, 7.5, bbox.H, 1e-9)
	assert.InDelta(t, 10, bbox.W, 1e-9)

	bbox, ok = p.BBox(Identity.Translate(5, 5).Scale(2, 2))
	require.True(t, ok)
	assert.InDelta(t, 5, bbox.X, 1e-9)
	assert.InDelta(t, 15, bbox.H, 1e-9)

	_, ok = Path(nil).BBox(Identity)
	assert.False(t, ok)
}

func TestRect(t *testing.T) {
	r := Rect{0, 0, 10, 10}.Union(Rect{5, -5, 10, 10})
	assert.Equal(t, Rect{0, -5, 15, 15}, r)
	assert.Equal(t, Rect{-1, -6, 17, 17}, r.Expand(1))
	assert.True(t, Rect{0, 0, 0, 10}.IsEmpty())

	rot := Rect{0, 0, 10, 10}.Transform(Identity.Rotate(math.Pi / 2))
	assert.InDelta(t, -10, rot.X, 1e-9)
	assert.InDelta(t, 10, rot.W, 1e-9)
}

func TestFormatNumber(t *testing.T) {
	for _, test := range []struct {
		in  float64
		out string
	}{
		{0, "0"},
		{math.Copysign(0, -1), "0"},
		{10, "10"},
		{-2.5, "-2.5"},
		{1e-10, "0"},
		{0.1 + 0.2, "0.3"},
		{123456789, "123456789"},
	} {
		assert.Equal(t, test.out, FormatNumber(test.in))
	}
}

func TestParseNumbers(t *testing.T) {
	fs, err := ParseNumbers(" 10,20 -5.5.5 1e2")
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 20, -5.5, .5, 100}, fs)

	fs, err = ParseNumbers("1 2 x")
	assert.Error(t, err)
	assert.Equal(t, []float64{1, 2}, fs)
}
