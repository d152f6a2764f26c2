package svgraster

import (
	"image"
	"image/color"
	"math"

	"github.com/benoitkugler/svgtree/svgpath"
	"github.com/benoitkugler/svgtree/svgtree"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/draw"
)

// drawer walks a tree, keeping one renderer per target image.
type drawer struct {
	tree      *svgtree.Tree
	renderers map[draw.Image]*Renderer
	depth     int // nesting level of SVG images
}

func (d *drawer) renderer(dst draw.Image) *Renderer {
	if rd, ok := d.renderers[dst]; ok {
		return rd
	}
	b := dst.Bounds()
	rd := NewRenderer(b.Dx(), b.Dy(), rasterx.NewScannerGV(b.Dx(), b.Dy(), dst, b))
	d.renderers[dst] = rd
	return rd
}

// drawNode renders `n`, where `base` maps the user space
// of the root (or of the definition) to pixels.
func (d *drawer) drawNode(dst draw.Image, n *svgtree.Node, base svgpath.Matrix2D) {
	switch kind := n.Kind.(type) {
	case *svgtree.Group:
		if kind.IsCompositing() {
			d.drawLayer(dst, n, kind, base)
			return
		}
		for _, child := range n.Children {
			d.drawNode(dst, child, base)
		}
	case *svgtree.Path:
		d.drawPath(dst, n, kind, base)
	case *svgtree.Image:
		d.drawImage(dst, n, kind, base)
	case *svgtree.Text:
		d.drawText(dst, n, kind, base)
	}
}

func (d *drawer) drawPath(dst draw.Image, n *svgtree.Node, p *svgtree.Path, base svgpath.Matrix2D) {
	if p.Visibility != svgtree.Visible {
		return
	}
	m := base.Mult(n.Transform)
	bbox, _ := p.Segments.BBox(svgpath.Identity)
	rd := d.renderer(dst)
	if p.Fill != nil {
		if clr, ok := d.paint(p.Fill.Paint, p.Fill.Opacity, bbox, m); ok {
			rd.Fill(p.Segments, m, p.Fill.Rule, clr)
		}
	}
	if p.Stroke != nil {
		if clr, ok := d.paint(p.Stroke.Paint, p.Stroke.Opacity, bbox, m); ok {
			rd.Stroke(p.Segments, m, p.Stroke, clr)
		}
	}
}

// drawLayer renders the content of a compositing group on
// a separate layer, then blends it using the group opacity,
// clip path and mask.
func (d *drawer) drawLayer(dst draw.Image, n *svgtree.Node, g *svgtree.Group, base svgpath.Matrix2D) {
	bounds := dst.Bounds()
	layer := image.NewRGBA(bounds)
	for _, child := range n.Children {
		d.drawNode(layer, child, base)
	}
	delete(d.renderers, layer)

	alpha := image.NewAlpha(bounds)
	opacity := color.Alpha{A: uint8(math.Round(g.Opacity * 0xff))}
	draw.Draw(alpha, bounds, image.NewUniform(opacity), image.Point{}, draw.Src)
	if clip, ok := d.tree.Def(g.ClipPath).(*svgtree.ClipPath); ok {
		multiply(alpha, d.clipMask(bounds, clip, n, base))
	}
	if mask, ok := d.tree.Def(g.Mask).(*svgtree.Mask); ok {
		multiply(alpha, d.luminanceMask(bounds, mask, n, base))
	}
	draw.DrawMask(dst, bounds, layer, bounds.Min, alpha, bounds.Min, draw.Over)
}

// multiply combines two masks with the same bounds
func multiply(dst, src *image.Alpha) {
	for i, a := range src.Pix {
		dst.Pix[i] = uint8(uint16(dst.Pix[i]) * uint16(a) / 0xff)
	}
}

// objectSpace returns the matrix mapping the unit square
// to the bounding box of `n`, or false if `n` has no extent.
func objectSpace(n *svgtree.Node) (svgpath.Matrix2D, bool) {
	bbox, ok := bboxIn(n, n.Transform.Invert())
	if !ok || bbox.IsEmpty() {
		return svgpath.Matrix2D{}, false
	}
	return svgpath.Identity.Translate(bbox.X, bbox.Y).Scale(bbox.W, bbox.H), true
}

// bboxIn returns the bounding box of `n` in the coordinates
// given by `frame`, which maps the user space of the root.
func bboxIn(n *svgtree.Node, frame svgpath.Matrix2D) (bbox svgpath.Rect, ok bool) {
	switch kind := n.Kind.(type) {
	case *svgtree.Path:
		return kind.Segments.BBox(frame.Mult(n.Transform))
	case *svgtree.Group:
		for _, child := range n.Children {
			childBox, childOk := bboxIn(child, frame)
			if !childOk {
				continue
			}
			if ok {
				bbox = bbox.Union(childBox)
			} else {
				bbox, ok = childBox, true
			}
		}
		return bbox, ok
	default:
		bbox, ok = svgtree.GeometryBBox(n)
		return bbox.Transform(frame), ok
	}
}

// clipMask renders the clip path applied to `n`: the union of its
// children, intersected with the nested clip path if any.
func (d *drawer) clipMask(bounds image.Rectangle, clip *svgtree.ClipPath, n *svgtree.Node, base svgpath.Matrix2D) *image.Alpha {
	out := image.NewAlpha(bounds)
	m := base.Mult(n.Transform)
	if clip.Units == svgtree.ObjectBoundingBox {
		obb, ok := objectSpace(n)
		if !ok {
			return out
		}
		m = m.Mult(obb)
	}
	m = m.Mult(clip.Transform)
	// any opaque paint sets the coverage
	for _, child := range clip.Children {
		d.drawNode(out, child, m)
	}
	delete(d.renderers, out)
	if nested, ok := d.tree.Def(clip.ClipPath).(*svgtree.ClipPath); ok {
		multiply(out, d.clipMask(bounds, nested, n, base))
	}
	return out
}

// luminanceMask renders the mask applied to `n`, restricted to the mask region.
func (d *drawer) luminanceMask(bounds image.Rectangle, mask *svgtree.Mask, n *svgtree.Node, base svgpath.Matrix2D) *image.Alpha {
	out := image.NewAlpha(bounds)
	m := base.Mult(n.Transform)
	obb, hasOBB := objectSpace(n)

	region, content := m, m
	if mask.Units == svgtree.ObjectBoundingBox {
		if !hasOBB {
			return out
		}
		region = m.Mult(obb)
	}
	if mask.ContentUnits == svgtree.ObjectBoundingBox {
		if !hasOBB {
			return out
		}
		content = m.Mult(obb)
	}

	var rect svgpath.Path
	rect.AddRect(mask.Rect.X, mask.Rect.Y, mask.Rect.W, mask.Rect.H)
	regionMask := image.NewAlpha(bounds)
	d.renderer(regionMask).Fill(rect, region, svgtree.NonZero, color.White)
	delete(d.renderers, regionMask)

	layer := image.NewRGBA(bounds)
	for _, child := range mask.Children {
		d.drawNode(layer, child, content)
	}
	delete(d.renderers, layer)

	for i := range out.Pix {
		px := layer.Pix[4*i : 4*i+4] // alpha premultiplied
		lum := 0.2125*float64(px[0]) + 0.7154*float64(px[1]) + 0.0721*float64(px[2])
		out.Pix[i] = uint8(math.Min(math.Round(lum), 0xff))
	}
	multiply(out, regionMask)
	if nested, ok := d.tree.Def(mask.Mask).(*svgtree.Mask); ok {
		multiply(out, d.luminanceMask(bounds, nested, n, base))
	}
	return out
}
