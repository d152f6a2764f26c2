package svgtree

import (
	"encoding/base64"
	"io"
	"strings"

	"github.com/benoitkugler/svgtree/svgpath"
)

// The serialized trees are stamped with these namespace and version,
// on their root element.
const (
	StampNamespace = "https://github.com/benoitkugler/svgtree"
	Version        = "0.1.0"
)

const indentUnit = "    "

var attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", "'", "&apos;", "\n", "&#10;")

var textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// writer produces the canonical form of a tree:
// one attribute per line, single quoted, and children
// indented by four spaces.
type writer struct {
	sb strings.Builder
}

func (w *writer) indent(depth int) {
	for range depth {
		w.sb.WriteString(indentUnit)
	}
}

// startTag writes the opening tag, without its closing bracket
func (w *writer) startTag(tag string, attrs []Attr, attrDepth int) {
	w.sb.WriteByte('<')
	w.sb.WriteString(tag)
	for _, attr := range attrs {
		w.sb.WriteByte('\n')
		w.indent(attrDepth)
		w.sb.WriteString(attr.Name)
		w.sb.WriteString("='")
		w.sb.WriteString(attrEscaper.Replace(attr.Value))
		w.sb.WriteByte('\'')
	}
}

// element writes a block element, whose children are written by `content`.
// A nil `content` produces an empty element.
func (w *writer) element(depth int, tag string, attrs []Attr, content func()) {
	w.indent(depth)
	w.startTag(tag, attrs, depth+1)
	if content == nil {
		w.sb.WriteString("/>\n")
		return
	}
	w.sb.WriteString(">\n")
	content()
	w.indent(depth)
	w.sb.WriteString("</")
	w.sb.WriteString(tag)
	w.sb.WriteString(">\n")
}

type attrList []Attr

func (l *attrList) add(name, value string) { *l = append(*l, Attr{name, value}) }

func (l *attrList) addNumber(name string, v float64) { l.add(name, svgpath.FormatNumber(v)) }

func (l *attrList) addID(id string) {
	if id != "" {
		l.add("id", id)
	}
}

func (l *attrList) addTransform(name string, m svgpath.Matrix2D) {
	if !m.IsIdentity() {
		l.add(name, m.String())
	}
}

func (l *attrList) addRect(r svgpath.Rect) {
	l.addNumber("x", r.X)
	l.addNumber("y", r.Y)
	l.addNumber("width", r.W)
	l.addNumber("height", r.H)
}

func (l *attrList) addLink(name, id string) {
	if id != "" {
		l.add(name, "url(#"+id+")")
	}
}

func (l *attrList) addVisibility(v Visibility) {
	if v != Visible {
		l.add("visibility", v.String())
	}
}

func paintString(p Paint) string {
	if c, ok := p.(Color); ok {
		return c.String()
	}
	return "url(#" + paintID(p) + ")"
}

func (l *attrList) addFill(f *Fill) {
	if f == nil {
		l.add("fill", "none")
		return
	}
	if f.Paint != Paint(Black) {
		l.add("fill", paintString(f.Paint))
	}
	if f.Opacity != 1 {
		l.addNumber("fill-opacity", f.Opacity)
	}
	if f.Rule != NonZero {
		l.add("fill-rule", f.Rule.String())
	}
}

func (l *attrList) addStroke(s *Stroke) {
	if s == nil {
		return
	}
	l.add("stroke", paintString(s.Paint))
	if s.Width != 1 {
		l.addNumber("stroke-width", s.Width)
	}
	if s.LineCap != ButtCap {
		l.add("stroke-linecap", s.LineCap.String())
	}
	if s.LineJoin != MiterJoin {
		l.add("stroke-linejoin", s.LineJoin.String())
	}
	if s.MiterLimit != 4 {
		l.addNumber("stroke-miterlimit", s.MiterLimit)
	}
	if s.Dasharray != nil {
		l.add("stroke-dasharray", svgpath.FormatNumbers(s.Dasharray...))
	}
	if s.Dashoffset != 0 {
		l.addNumber("stroke-dashoffset", s.Dashoffset)
	}
	if s.Opacity != 1 {
		l.addNumber("stroke-opacity", s.Opacity)
	}
}

// relative returns the transform of a node relative to its parent.
func relative(parent, child svgpath.Matrix2D) svgpath.Matrix2D {
	if !parent.IsInvertible() {
		return child
	}
	return parent.Invert().Mult(child)
}

func (w *writer) node(n *Node, parent svgpath.Matrix2D, depth int) {
	var attrs attrList
	attrs.addID(n.ID)
	tr := relative(parent, n.Transform)
	switch kind := n.Kind.(type) {
	case *Group:
		if kind.Opacity != 1 {
			attrs.addNumber("opacity", kind.Opacity)
		}
		attrs.addLink("clip-path", kind.ClipPath)
		attrs.addLink("mask", kind.Mask)
		attrs.addLink("filter", kind.Filter)
		attrs.addTransform("transform", tr)
		var content func()
		if len(n.Children) != 0 {
			content = func() { w.nodes(n.Children, n.Transform, depth+1) }
		}
		w.element(depth, "g", attrs, content)
	case *Path:
		attrs.addFill(kind.Fill)
		attrs.addStroke(kind.Stroke)
		attrs.addVisibility(kind.Visibility)
		attrs.addTransform("transform", tr)
		attrs.add("d", kind.Segments.ToSVGPath())
		w.element(depth, "path", attrs, nil)
	case *Image:
		attrs.addRect(kind.View)
		if !kind.AspectRatio.isDefault() {
			attrs.add("preserveAspectRatio", kind.AspectRatio.String())
		}
		attrs.addVisibility(kind.Visibility)
		attrs.addTransform("transform", tr)
		attrs.add("xlink:href", kind.Data.href())
		w.element(depth, "image", attrs, nil)
	case *Text:
		attrs.addTransform("transform", tr)
		w.text(kind, attrs, depth)
	}
}

func (w *writer) nodes(ns []*Node, parent svgpath.Matrix2D, depth int) {
	for _, n := range ns {
		w.node(n, parent, depth)
	}
}

func (d ImageData) href() string {
	if d.Raw == nil {
		return d.Path
	}
	return "data:" + string(d.Kind) + ";base64," + base64.StdEncoding.EncodeToString(d.Raw)
}

// text elements are written inline, since whitespaces are significant
func (w *writer) text(text *Text, attrs attrList, depth int) {
	w.indent(depth)
	w.startTag("text", attrs, depth+1)
	w.sb.WriteByte('>')
	for _, chunk := range text.Chunks {
		var chunkAttrs attrList
		if chunk.X != nil {
			chunkAttrs.addNumber("x", *chunk.X)
		}
		if chunk.Y != nil {
			chunkAttrs.addNumber("y", *chunk.Y)
		}
		if chunk.Anchor != AnchorStart {
			chunkAttrs.add("text-anchor", chunk.Anchor.String())
		}
		w.startTag("tspan", chunkAttrs, depth+1)
		w.sb.WriteByte('>')
		for _, span := range chunk.Spans {
			var spanAttrs attrList
			spanAttrs.addFill(span.Fill)
			spanAttrs.addStroke(span.Stroke)
			spanAttrs.addVisibility(span.Visibility)
			spanAttrs.add("font-family", span.Font.Family)
			spanAttrs.addNumber("font-size", span.Font.Size)
			if span.Font.Style != StyleNormal {
				spanAttrs.add("font-style", span.Font.Style.String())
			}
			if span.Font.Weight != 400 {
				spanAttrs.add("font-weight", svgpath.FormatNumber(float64(span.Font.Weight)))
			}
			w.startTag("tspan", spanAttrs, depth+1)
			w.sb.WriteByte('>')
			w.sb.WriteString(textEscaper.Replace(span.Text))
			w.sb.WriteString("</tspan>")
		}
		w.sb.WriteString("</tspan>")
	}
	w.sb.WriteString("</text>\n")
}

func (w *writer) stops(stops []Stop, depth int) {
	for _, stop := range stops {
		var attrs attrList
		attrs.add("stop-color", stop.Color.String())
		if stop.Opacity != 1 {
			attrs.addNumber("stop-opacity", stop.Opacity)
		}
		attrs.addNumber("offset", stop.Offset)
		w.element(depth, "stop", attrs, nil)
	}
}

func (l *attrList) addGradient(g BaseGradient) {
	if g.Units != ObjectBoundingBox {
		l.add("gradientUnits", g.Units.String())
	}
	if g.Spread != SpreadPad {
		l.add("spreadMethod", g.Spread.String())
	}
	l.addTransform("gradientTransform", g.Transform)
}

func (w *writer) primitives(prims []FilterPrimitive, depth int) {
	for _, prim := range prims {
		var content func()
		if len(prim.Children) != 0 {
			content = func() { w.primitives(prim.Children, depth+1) }
		}
		w.element(depth, prim.Tag, prim.Attrs, content)
	}
}

func (w *writer) def(def Def, depth int) {
	var attrs attrList
	attrs.addID(def.DefID())
	// content is expressed in the coordinates of the definition
	var content func()
	if children := def.content(); len(children) != 0 {
		content = func() { w.nodes(children, svgpath.Identity, depth+1) }
	}
	switch def := def.(type) {
	case *LinearGradient:
		attrs.addNumber("x1", def.X1)
		attrs.addNumber("y1", def.Y1)
		attrs.addNumber("x2", def.X2)
		attrs.addNumber("y2", def.Y2)
		attrs.addGradient(def.BaseGradient)
		w.element(depth, "linearGradient", attrs, func() { w.stops(def.Stops, depth+1) })
	case *RadialGradient:
		attrs.addNumber("cx", def.Cx)
		attrs.addNumber("cy", def.Cy)
		attrs.addNumber("r", def.R)
		attrs.addNumber("fx", def.Fx)
		attrs.addNumber("fy", def.Fy)
		attrs.addGradient(def.BaseGradient)
		w.element(depth, "radialGradient", attrs, func() { w.stops(def.Stops, depth+1) })
	case *ClipPath:
		if def.Units != UserSpaceOnUse {
			attrs.add("clipPathUnits", def.Units.String())
		}
		attrs.addTransform("transform", def.Transform)
		attrs.addLink("clip-path", def.ClipPath)
		w.element(depth, "clipPath", attrs, content)
	case *Mask:
		attrs.addRect(def.Rect)
		if def.Units != ObjectBoundingBox {
			attrs.add("maskUnits", def.Units.String())
		}
		if def.ContentUnits != UserSpaceOnUse {
			attrs.add("maskContentUnits", def.ContentUnits.String())
		}
		attrs.addLink("mask", def.Mask)
		w.element(depth, "mask", attrs, content)
	case *Pattern:
		attrs.addRect(def.Rect)
		if def.Units != ObjectBoundingBox {
			attrs.add("patternUnits", def.Units.String())
		}
		if def.ContentUnits != UserSpaceOnUse {
			attrs.add("patternContentUnits", def.ContentUnits.String())
		}
		if vb := def.ViewBox; vb != nil {
			attrs.add("viewBox", svgpath.FormatNumbers(vb.Rect.X, vb.Rect.Y, vb.Rect.W, vb.Rect.H))
			if !vb.AspectRatio.isDefault() {
				attrs.add("preserveAspectRatio", vb.AspectRatio.String())
			}
		}
		attrs.addTransform("patternTransform", def.Transform)
		w.element(depth, "pattern", attrs, content)
	case *Filter:
		attrs.addRect(def.Rect)
		if def.Units != ObjectBoundingBox {
			attrs.add("filterUnits", def.Units.String())
		}
		if def.PrimitiveUnits != UserSpaceOnUse {
			attrs.add("primitiveUnits", def.PrimitiveUnits.String())
		}
		w.element(depth, "filter", attrs, func() { w.primitives(def.Primitives, depth+1) })
	}
}

func (t *Tree) hasImages() bool {
	for n := range t.Descendants() {
		if _, ok := n.Kind.(*Image); ok {
			return true
		}
	}
	return false
}

// String returns the canonical serialization of the tree,
// which is a valid SVG document.
// Serializing is deterministic, and parsing then normalizing the output
// produces the same tree.
func (t *Tree) String() string {
	var w writer
	var attrs attrList
	attrs.add("xmlns", "http://www.w3.org/2000/svg")
	if t.hasImages() {
		attrs.add("xmlns:xlink", "http://www.w3.org/1999/xlink")
	}
	attrs.addNumber("width", t.Size.W)
	attrs.addNumber("height", t.Size.H)
	vb := t.ViewBox.Rect
	attrs.add("viewBox", svgpath.FormatNumbers(vb.X, vb.Y, vb.W, vb.H))
	if !t.ViewBox.AspectRatio.isDefault() {
		attrs.add("preserveAspectRatio", t.ViewBox.AspectRatio.String())
	}
	attrs.add("xmlns:svgtree", StampNamespace)
	attrs.add("svgtree:version", Version)

	w.element(0, "svg", attrs, func() {
		// defs always comes first, even if empty
		var defsContent func()
		if len(t.defs) != 0 {
			defsContent = func() {
				for _, def := range t.defs {
					w.def(def, 2)
				}
			}
		}
		w.element(1, "defs", nil, defsContent)
		w.nodes(t.root.Children, t.root.Transform, 1)
	})
	return w.sb.String()
}

// WriteTo writes the canonical serialization of the tree into `out`.
func (t *Tree) WriteTo(out io.Writer) (int64, error) {
	n, err := io.WriteString(out, t.String())
	return int64(n), err
}
