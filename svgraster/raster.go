// Implements a raster backend to render SVG trees,
// by wrapping rasterx.
//
// Patterns and filters are not supported: pattern paints are ignored
// and filtered content is drawn unfiltered.
package svgraster

import (
	"errors"
	"fmt"
	"image"
	"io"
	"math"

	"github.com/benoitkugler/svgtree/svgnorm"
	"github.com/benoitkugler/svgtree/svgpath"
	"github.com/benoitkugler/svgtree/svgtree"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/fixed"
)

// ErrEmptyImage is returned when the output image would have no pixels.
var ErrEmptyImage = errors.New("svgraster: empty image")

// Renderer fills and strokes paths on one target image.
type Renderer struct {
	dasher *rasterx.Dasher // to avoid shared state
	filler *rasterx.Filler // we use separated instance
}

// NewRenderer returns a renderer with default values.
// In addition to rasterizing lines like a Scanner,
// it can also rasterize quadratic and cubic bezier curves.
func NewRenderer(width, height int, scanner rasterx.Scanner) *Renderer {
	return &Renderer{dasher: rasterx.NewDasher(width, height, scanner), filler: rasterx.NewFiller(width, height, scanner)}
}

// Render rasterizes the tree on a new image, whose size is
// the tree size scaled by `zoom`.
func Render(tree *svgtree.Tree, zoom float64) (*image.RGBA, error) {
	w, h := int(math.Ceil(tree.Size.W*zoom)), int(math.Ceil(tree.Size.H*zoom))
	if !(zoom > 0) || w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: size %gx%g, zoom %g", ErrEmptyImage, tree.Size.W, tree.Size.H, zoom)
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	m := svgpath.Identity.Scale(zoom, zoom).Mult(tree.ViewBox.Transform(tree.Size.W, tree.Size.H))
	Draw(img, tree, m)
	return img, nil
}

// RasterSVGToImage converts the document and renders
// it at its natural size.
func RasterSVGToImage(r io.Reader, opts svgnorm.Options) (*image.RGBA, error) {
	tree, err := svgnorm.Parse(r, opts)
	if err != nil {
		return nil, err
	}
	return Render(tree, 1)
}

// Draw renders the tree on `dst`, where `m` maps the
// user space of the tree root to the pixels of `dst`.
func Draw(dst draw.Image, tree *svgtree.Tree, m svgpath.Matrix2D) {
	d := drawer{tree: tree, renderers: make(map[draw.Image]*Renderer)}
	d.drawNode(dst, tree.Root(), m)
}

// adder is implemented by rasterx fillers and dashers
type adder interface {
	Start(a fixed.Point26_6)
	Line(b fixed.Point26_6)
	CubeBezier(b, c, d fixed.Point26_6)
	Stop(closeLoop bool)
}

func toFixed(m svgpath.Matrix2D, p svgpath.Point) fixed.Point26_6 {
	x, y := m.Transform(p.X, p.Y)
	return fixed.Point26_6{X: fToFixed(x), Y: fToFixed(y)}
}

func fToFixed(f float64) fixed.Int26_6 { return fixed.Int26_6(f * 64) }

func addPath(a adder, path svgpath.Path, m svgpath.Matrix2D) {
	for _, op := range path {
		switch op := op.(type) {
		case svgpath.MoveTo:
			a.Stop(false) // implicit close if currently in path.
			a.Start(toFixed(m, svgpath.Point(op)))
		case svgpath.LineTo:
			a.Line(toFixed(m, svgpath.Point(op)))
		case svgpath.CubicTo:
			a.CubeBezier(toFixed(m, op[0]), toFixed(m, op[1]), toFixed(m, op[2]))
		case svgpath.Close:
			a.Stop(true)
		}
	}
	a.Stop(false)
}

// Fill fills `path`, transformed by `m`, with `clr`, which
// is either a color.Color or a rasterx.ColorFunc.
func (rd *Renderer) Fill(path svgpath.Path, m svgpath.Matrix2D, rule svgtree.FillRule, clr interface{}) {
	rd.filler.Clear()
	rd.filler.SetWinding(rule == svgtree.NonZero)
	addPath(rd.filler, path, m)
	rd.filler.Scanner.SetColor(clr)
	rd.filler.Draw()
}

var (
	joinToJoin = [...]rasterx.JoinMode{
		svgtree.MiterJoin: rasterx.Miter,
		svgtree.RoundJoin: rasterx.Round,
		svgtree.BevelJoin: rasterx.Bevel,
	}

	capToFunc = [...]rasterx.CapFunc{
		svgtree.ButtCap:   rasterx.ButtCap,
		svgtree.RoundCap:  rasterx.RoundCap,
		svgtree.SquareCap: rasterx.SquareCap,
	}
)

// Stroke strokes `path`, transformed by `m`. Widths and dashes
// are scaled by the mean scaling factor of `m`.
func (rd *Renderer) Stroke(path svgpath.Path, m svgpath.Matrix2D, stroke *svgtree.Stroke, clr interface{}) {
	scale := m.MeanScale()
	var dashes []float64
	for _, d := range stroke.Dasharray {
		dashes = append(dashes, d*scale)
	}
	rd.dasher.Clear()
	rd.dasher.SetStroke(
		fToFixed(stroke.Width*scale), fToFixed(stroke.MiterLimit),
		capToFunc[stroke.LineCap], capToFunc[stroke.LineCap], rasterx.RoundGap,
		joinToJoin[stroke.LineJoin], dashes, stroke.Dashoffset*scale,
	)
	addPath(rd.dasher, path, m)
	rd.dasher.Scanner.SetColor(clr)
	rd.dasher.Draw()
}

func newGradient(g svgtree.BaseGradient, m svgpath.Matrix2D, bbox svgpath.Rect) rasterx.Gradient {
	if g.Units == svgtree.ObjectBoundingBox {
		m = m.Translate(bbox.X, bbox.Y).Scale(bbox.W, bbox.H)
	}
	m = m.Mult(g.Transform)
	stops := make([]rasterx.GradStop, len(g.Stops))
	for i, stop := range g.Stops {
		stops[i] = rasterx.GradStop{StopColor: stop.Color, Offset: stop.Offset, Opacity: stop.Opacity}
	}
	return rasterx.Gradient{
		Stops:  stops,
		Matrix: rasterx.Matrix2D(m),
		Spread: rasterx.SpreadMethod(g.Spread),
		Units:  rasterx.UserSpaceOnUse,
	}
}

// paint resolves the color of a paint, for a shape whose
// local bounding box is `bbox`, drawn with `m`.
// It returns false for unsupported paints.
func (d *drawer) paint(p svgtree.Paint, opacity float64, bbox svgpath.Rect, m svgpath.Matrix2D) (interface{}, bool) {
	switch p := p.(type) {
	case svgtree.Color:
		return rasterx.ApplyOpacity(p, opacity), true
	case svgtree.LinearGradientRef:
		g, ok := d.tree.Def(string(p)).(*svgtree.LinearGradient)
		if !ok || (g.Units == svgtree.ObjectBoundingBox && bbox.IsEmpty()) {
			return nil, false
		}
		grad := newGradient(g.BaseGradient, m, bbox)
		grad.Points = [5]float64{g.X1, g.Y1, g.X2, g.Y2}
		return grad.GetColorFunction(opacity), true
	case svgtree.RadialGradientRef:
		g, ok := d.tree.Def(string(p)).(*svgtree.RadialGradient)
		if !ok || (g.Units == svgtree.ObjectBoundingBox && bbox.IsEmpty()) {
			return nil, false
		}
		grad := newGradient(g.BaseGradient, m, bbox)
		grad.Points = [5]float64{g.Cx, g.Cy, g.Fx, g.Fy, g.R}
		grad.IsRadial = true
		return grad.GetColorFunction(opacity), true
	}
	return nil, false
}
