package svgraster

import (
	"bytes"
	"image"
	_ "image/gif"  // image decoders
	_ "image/jpeg" // image decoders
	_ "image/png"  // image decoders
	"os"

	"github.com/benoitkugler/svgtree/svgnorm"
	"github.com/benoitkugler/svgtree/svgpath"
	"github.com/benoitkugler/svgtree/svgtree"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"
)

// maxNesting limits the depth of SVG images embedded in SVG images
const maxNesting = 8

func toAff3(m svgpath.Matrix2D) f64.Aff3 {
	return f64.Aff3{m.A, m.C, m.E, m.B, m.D, m.F}
}

// drawImage draws a raster or SVG image. External files
// are loaded here, since the tree only stores their path.
func (d *drawer) drawImage(dst draw.Image, n *svgtree.Node, img *svgtree.Image, base svgpath.Matrix2D) {
	if img.Visibility != svgtree.Visible {
		return
	}
	data := img.Data.Raw
	if data == nil {
		var err error
		if data, err = os.ReadFile(img.Data.Path); err != nil {
			return
		}
	}
	m := base.Mult(n.Transform).Translate(img.View.X, img.View.Y)

	if img.Data.Kind == svgtree.SVG {
		d.drawSVGImage(dst, data, img, m)
		return
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return
	}
	sb := src.Bounds()
	vb := svgtree.ViewBox{
		Rect:        svgpath.Rect{X: float64(sb.Min.X), Y: float64(sb.Min.Y), W: float64(sb.Dx()), H: float64(sb.Dy())},
		AspectRatio: img.AspectRatio,
	}
	m = m.Mult(vb.Transform(img.View.W, img.View.H))
	draw.BiLinear.Transform(dst, toAff3(m), src, sb, draw.Over, nil)
}

func (d *drawer) drawSVGImage(dst draw.Image, data []byte, img *svgtree.Image, m svgpath.Matrix2D) {
	if d.depth >= maxNesting {
		return
	}
	tree, err := svgnorm.Parse(bytes.NewReader(data), svgnorm.DefaultOptions())
	if err != nil {
		return
	}
	vb := svgtree.ViewBox{Rect: svgpath.Rect{W: tree.Size.W, H: tree.Size.H}, AspectRatio: img.AspectRatio}
	m = m.Mult(vb.Transform(img.View.W, img.View.H)).Mult(tree.ViewBox.Transform(tree.Size.W, tree.Size.H))
	sub := drawer{tree: tree, renderers: d.renderers, depth: d.depth + 1}
	sub.drawNode(dst, tree.Root(), m)
}

// glyphFace is used for every span, scaled to the font size.
var glyphFace = basicfont.Face7x13

// drawText lays out the chunks on a single line each, using a fixed
// bitmap face. Only plain color fills are supported.
func (d *drawer) drawText(dst draw.Image, n *svgtree.Node, text *svgtree.Text, base svgpath.Matrix2D) {
	m := base.Mult(n.Transform)
	var x, y float64
	for _, chunk := range text.Chunks {
		if chunk.X != nil {
			x = *chunk.X
		}
		if chunk.Y != nil {
			y = *chunk.Y
		}
		var width float64
		for _, span := range chunk.Spans {
			width += spanWidth(span)
		}
		switch chunk.Anchor {
		case svgtree.AnchorMiddle:
			x -= width / 2
		case svgtree.AnchorEnd:
			x -= width
		}
		for _, span := range chunk.Spans {
			d.drawSpan(dst, span, m, x, y)
			x += spanWidth(span)
		}
	}
}

func spanScale(span svgtree.TextSpan) float64 { return span.Font.Size / float64(glyphFace.Height) }

func spanWidth(span svgtree.TextSpan) float64 {
	return float64(font.MeasureString(glyphFace, span.Text)) / 64 * spanScale(span)
}

// drawSpan renders the glyphs at their natural size,
// then maps them onto the baseline at (x, y).
func (d *drawer) drawSpan(dst draw.Image, span svgtree.TextSpan, m svgpath.Matrix2D, x, y float64) {
	if span.Visibility != svgtree.Visible || span.Fill == nil {
		return
	}
	clr, ok := span.Fill.Paint.(svgtree.Color)
	if !ok {
		return
	}
	adv := font.MeasureString(glyphFace, span.Text).Ceil()
	if adv <= 0 {
		return
	}
	glyphs := image.NewRGBA(image.Rect(0, 0, adv, glyphFace.Height))
	dr := font.Drawer{
		Dst:  glyphs,
		Src:  image.NewUniform(rasterx.ApplyOpacity(clr, span.Fill.Opacity)),
		Face: glyphFace,
		Dot:  fixed.P(0, glyphFace.Ascent),
	}
	dr.DrawString(span.Text)

	scale := spanScale(span)
	m = m.Translate(x, y-float64(glyphFace.Ascent)*scale).Scale(scale, scale)
	draw.BiLinear.Transform(dst, toAff3(m), glyphs, glyphs.Bounds(), draw.Over, nil)
}
