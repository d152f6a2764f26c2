// Package svgnorm converts SVG documents into render trees.
//
// The conversion resolves the styles (presentation attributes, `style`
// attributes and inheritance), the references between elements
// (paint servers, clip paths, masks, filters, markers and `use`),
// converts every shape into absolute path segments, and finally
// removes the redundant groups.
//
// Invalid content is never fatal: it is skipped with an element
// specific fallback, as browsers do. Only malformed documents, missing
// root and invalid options are reported as errors.
package svgnorm

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"path/filepath"
	"strings"

	"github.com/benoitkugler/svgtree/svgdom"
	"github.com/benoitkugler/svgtree/svgpath"
	"github.com/benoitkugler/svgtree/svgtree"
)

// converter holds the state of one conversion
type converter struct {
	doc  *svgdom.Document
	opts Options
	log  *slog.Logger

	viewports []svgpath.Rect // enclosing viewports, the last one resolves percentages

	styles map[*svgdom.Node]*style
	order  map[*svgdom.Node]int // document order

	defs       map[string]defEntry // resolved definitions, by id
	inProgress map[string]bool     // definitions being resolved
	useStack   map[*svgdom.Node]bool
	instancing int // > 0 when converting the content of a `use` or a marker

	// groups with an explicit opacity of 1 and no other effect,
	// always unwrapped
	neutralGroups map[*svgtree.Node]bool
}

func newConverter(doc *svgdom.Document, opts Options) *converter {
	c := &converter{
		doc:        doc,
		opts:       opts,
		log:        opts.Logger,
		styles:     make(map[*svgdom.Node]*style),
		order:      make(map[*svgdom.Node]int),
		defs:       make(map[string]defEntry),
		inProgress: make(map[string]bool),
		useStack:   make(map[*svgdom.Node]bool),

		neutralGroups: make(map[*svgtree.Node]bool),
	}
	if c.log == nil {
		c.log = Logger()
	}
	var index func(n *svgdom.Node)
	index = func(n *svgdom.Node) {
		c.order[n] = len(c.order)
		for _, child := range n.Children {
			index(child)
		}
	}
	index(doc.Root)
	return c
}

func (c *converter) warn(msg string, args ...any) {
	if c.opts.ErrorMode == WarnErrorMode {
		c.log.Warn(msg, args...)
	}
}

// Convert builds the render tree of `doc`.
// The returned errors wrap ErrMissingRoot, ErrInvalidSize or ErrInvalidOptions.
func Convert(doc *svgdom.Document, opts Options) (*svgtree.Tree, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if doc.Root == nil || doc.Root.Tag != "svg" {
		tag := ""
		if doc.Root != nil {
			tag = doc.Root.Tag
		}
		return nil, fmt.Errorf("%w: got <%s>", ErrMissingRoot, tag)
	}
	c := newConverter(doc, opts)
	size, vb, err := c.readSize(doc.Root)
	if err != nil {
		return nil, err
	}
	c.viewports = []svgpath.Rect{vb.Rect}

	root := newGroupNode("", svgpath.Identity, nil)
	c.convertChildren(doc.Root, c.styleOf(doc.Root), svgpath.Identity, root)
	c.simplify(root)
	return svgtree.NewTree(size, vb, root, c.usedDefs(root)), nil
}

// Parse reads and converts a SVG document.
func Parse(r io.Reader, opts Options) (*svgtree.Tree, error) {
	doc, err := svgdom.Parse(r)
	if err != nil {
		return nil, err
	}
	return Convert(doc, opts)
}

// ParseFile reads and converts the given SVG file.
// If opts.BasePath is empty, the directory of the file is used.
func ParseFile(filename string, opts Options) (*svgtree.Tree, error) {
	doc, err := svgdom.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	if opts.BasePath == "" {
		opts.BasePath = filepath.Dir(filename)
	}
	return Convert(doc, opts)
}

// rootDimension resolves the width or height of the root element,
// where percentages refer to the view box, if any.
func (c *converter) rootDimension(root *svgdom.Node, name string, ref float64, hasRef bool) (float64, bool) {
	v, ok := root.Attr(name)
	if !ok {
		return ref, hasRef
	}
	l, err := parseLength(v)
	if err != nil {
		c.warn("invalid root size", "attribute", name, "value", v)
		return ref, hasRef
	}
	if l.unit == "%" {
		return l.value / 100 * ref, hasRef
	}
	f, err := c.toUser(l, c.opts.FontSize, ref)
	if err != nil {
		return ref, hasRef
	}
	return f, true
}

func (c *converter) readSize(root *svgdom.Node) (svgtree.Size, svgtree.ViewBox, error) {
	vb := c.viewBoxOf(root)
	var refW, refH float64
	if vb != nil {
		refW, refH = vb.Rect.W, vb.Rect.H
	}
	w, okW := c.rootDimension(root, "width", refW, vb != nil)
	h, okH := c.rootDimension(root, "height", refH, vb != nil)
	if !okW || !okH || !isPositive(w) || !isPositive(h) {
		return svgtree.Size{}, svgtree.ViewBox{}, fmt.Errorf("%w: width %g, height %g", ErrInvalidSize, w, h)
	}
	if vb == nil {
		vb = &svgtree.ViewBox{Rect: svgpath.Rect{W: w, H: h}}
	}
	return svgtree.Size{W: w, H: h}, *vb, nil
}

func newGroupNode(id string, tr svgpath.Matrix2D, g *svgtree.Group) *svgtree.Node {
	if g == nil {
		g = &svgtree.Group{Opacity: 1}
	}
	return &svgtree.Node{ID: id, Transform: tr, Kind: g}
}

func appendChild(parent, child *svgtree.Node) {
	parent.Children = append(parent.Children, child)
}

// nodeID returns the id to retain on the output node, which
// is empty for instantiated content, so that ids stay unique.
func (c *converter) nodeID(n *svgdom.Node) string {
	if c.instancing > 0 {
		return ""
	}
	return n.ID()
}

// elements which are only rendered when referenced
var nonRendering = map[string]bool{
	"defs": true, "linearGradient": true, "radialGradient": true, "stop": true,
	"pattern": true, "clipPath": true, "mask": true, "marker": true, "filter": true,
	"symbol": true, "style": true, "title": true, "desc": true, "metadata": true,
	"script": true,
}

var shapeTags = map[string]bool{
	"rect": true, "circle": true, "ellipse": true, "line": true,
	"polyline": true, "polygon": true, "path": true,
}

func (c *converter) convertChildren(n *svgdom.Node, s *style, tr svgpath.Matrix2D, out *svgtree.Node) {
	for _, child := range n.Elements() {
		c.convertElement(child, s, tr, out)
	}
}

// prepare computes the style and the absolute transform of an element,
// returning false if it must not be rendered.
func (c *converter) prepare(n *svgdom.Node, parentStyle *style, parentTr svgpath.Matrix2D) (*style, svgpath.Matrix2D, bool) {
	s := c.child(parentStyle, n)
	if v, _ := s.get("display"); v == "none" {
		return nil, svgpath.Matrix2D{}, false
	}
	tr := parentTr.Mult(c.transform(n, "transform"))
	if !tr.IsInvertible() {
		c.warn("non invertible transform", "tag", n.Tag, "id", n.ID())
		return nil, svgpath.Matrix2D{}, false
	}
	return s, tr, true
}

// convertElement converts `n` and its content, appending the result to `out`.
func (c *converter) convertElement(n *svgdom.Node, parentStyle *style, parentTr svgpath.Matrix2D, out *svgtree.Node) {
	switch {
	case shapeTags[n.Tag]:
	case n.Tag == "g", n.Tag == "a", n.Tag == "svg", n.Tag == "switch", n.Tag == "use",
		n.Tag == "text", n.Tag == "image":
	default:
		if !nonRendering[n.Tag] {
			c.warn("unsupported element", "tag", n.Tag)
		}
		return
	}

	s, tr, ok := c.prepare(n, parentStyle, parentTr)
	if !ok {
		return
	}
	effects, omit := c.effects(n, s)
	if omit {
		return
	}

	switch n.Tag {
	case "g", "a":
		group := newGroupNode(c.nodeID(n), tr, effects)
		if _, hasOpacity := s.get("opacity"); hasOpacity && effects == nil {
			c.neutralGroups[group] = true
		}
		c.convertChildren(n, s, tr, group)
		appendChild(out, group)
		return
	case "svg":
		c.convertNestedSVG(n, s, tr, effects, out)
		return
	case "switch":
		group := newGroupNode(c.nodeID(n), tr, effects)
		if child := c.switchChild(n); child != nil {
			c.convertElement(child, s, tr, group)
		}
		appendChild(out, group)
		return
	case "use":
		c.convertUse(n, s, tr, effects, out)
		return
	}

	var nodes []*svgtree.Node
	switch n.Tag {
	case "text":
		if text := c.convertText(n, s, tr); text != nil {
			nodes = append(nodes, text)
		}
	case "image":
		if image := c.convertImage(n, s, tr); image != nil {
			nodes = append(nodes, image)
		}
	default:
		nodes = c.convertShape(n, s, tr)
	}
	if len(nodes) == 0 {
		return
	}
	if effects == nil {
		out.Children = append(out.Children, nodes...)
		return
	}
	// effects apply to a wrapping group, the id stays on the element
	wrapper := newGroupNode("", tr, effects)
	wrapper.Children = nodes
	appendChild(out, wrapper)
}

// effects returns the compositing group required by the element, or nil.
// `omit` is true when the element references an invalid clip path,
// mask or filter, and must not be rendered at all.
func (c *converter) effects(n *svgdom.Node, s *style) (g *svgtree.Group, omit bool) {
	g = &svgtree.Group{Opacity: c.opacity(s, "opacity")}
	for _, link := range [...]struct {
		prop string
		tags []string
		dst  *string
	}{
		{"clip-path", []string{"clipPath"}, &g.ClipPath},
		{"mask", []string{"mask"}, &g.Mask},
		{"filter", []string{"filter"}, &g.Filter},
	} {
		v, ok := s.get(link.prop)
		if !ok || v == "none" {
			continue
		}
		id, _, isURL := parseURL(v)
		if !isURL {
			c.warn("invalid link", "property", link.prop, "value", v)
			continue
		}
		_, status := c.resolve(id, link.tags...)
		switch status {
		case defOK:
			*link.dst = id
		case defInvalid:
			return nil, true
		case defMissing:
			c.warn("missing definition", "property", link.prop, "id", id)
		}
	}
	if !g.IsCompositing() {
		return nil, false
	}
	return g, false
}

func (c *converter) convertNestedSVG(n *svgdom.Node, s *style, tr svgpath.Matrix2D, effects *svgtree.Group, out *svgtree.Node) {
	x := c.length(n, s, "x", horizontal, 0)
	y := c.length(n, s, "y", vertical, 0)
	w := c.length(n, s, "width", horizontal, c.percentRef(horizontal))
	h := c.length(n, s, "height", vertical, c.percentRef(vertical))
	if w <= 0 || h <= 0 {
		return
	}
	inner := tr.Translate(x, y)
	vb := c.viewBoxOf(n)
	if vb != nil {
		inner = inner.Mult(vb.Transform(w, h))
	}
	group := newGroupNode(c.nodeID(n), inner, effects)
	c.pushViewport(vb, w, h)
	c.convertChildren(n, s, inner, group)
	c.popViewport()
	appendChild(out, group)
}

// switchChild returns the first child whose conditional attributes
// are satisfied.
func (c *converter) switchChild(n *svgdom.Node) *svgdom.Node {
	for _, child := range n.Elements() {
		if _, has := child.Attr("requiredExtensions"); has {
			continue
		}
		if features, has := child.Attr("requiredFeatures"); has && strings.TrimSpace(features) == "" {
			continue
		}
		if langs, has := child.Attr("systemLanguage"); has {
			ok := false
			for _, lang := range strings.Split(langs, ",") {
				if lang = strings.TrimSpace(lang); lang == "en" || strings.HasPrefix(lang, "en-") {
					ok = true
				}
			}
			if !ok {
				continue
			}
		}
		return child
	}
	return nil
}

func isAncestor(doc *svgdom.Document, candidate, n *svgdom.Node) bool {
	for _, a := range doc.Ancestors(n) {
		if a == candidate {
			return true
		}
	}
	return false
}

func (c *converter) convertUse(n *svgdom.Node, s *style, tr svgpath.Matrix2D, effects *svgtree.Group, out *svgtree.Node) {
	id, ok := parseHref(n)
	if !ok {
		c.warn("invalid use reference", "id", n.ID())
		return
	}
	target := c.doc.ElementByID(id)
	if target == nil {
		c.warn("missing use target", "href", id)
		return
	}
	if target == n || c.useStack[target] || isAncestor(c.doc, target, n) {
		c.warn("recursive use", "href", id)
		return
	}

	x := c.length(n, s, "x", horizontal, 0)
	y := c.length(n, s, "y", vertical, 0)
	inner := tr.Translate(x, y)
	group := newGroupNode(c.nodeID(n), inner, effects)

	c.useStack[target] = true
	c.instancing++
	defer func() {
		delete(c.useStack, target)
		c.instancing--
	}()

	if target.Tag == "symbol" {
		symbolStyle, symbolTr, ok := c.prepare(target, s, inner)
		if !ok {
			return
		}
		w := c.length(n, s, "width", horizontal, c.percentRef(horizontal))
		h := c.length(n, s, "height", vertical, c.percentRef(vertical))
		vb := c.viewBoxOf(target)
		if vb != nil {
			if w <= 0 || h <= 0 {
				return
			}
			symbolTr = symbolTr.Mult(vb.Transform(w, h))
		}
		c.pushViewport(vb, w, h)
		c.convertChildren(target, symbolStyle, symbolTr, group)
		c.popViewport()
	} else {
		c.convertElement(target, s, inner, group)
	}
	appendChild(out, group)
}

// visibility returns the visibility property
func visibility(s *style) svgtree.Visibility {
	v, _ := s.get("visibility")
	switch v {
	case "hidden":
		return svgtree.Hidden
	case "collapse":
		return svgtree.Collapse
	}
	return svgtree.Visible
}

// isFinite returns true if all the values are finite
func isFinite(fs ...float64) bool {
	for _, f := range fs {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}
