package svgnorm

import (
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/benoitkugler/svgtree/svgdom"
	"github.com/benoitkugler/svgtree/svgpath"
	"github.com/benoitkugler/svgtree/svgtree"
)

type defStatus uint8

const (
	defOK defStatus = iota
	// the reference does not point to an element of the expected kind,
	// or is recursive: it has no effect
	defMissing
	// the referenced element is invalid: the referencing
	// element is affected, depending on the kind of definition
	defInvalid
)

type defEntry struct {
	def    svgtree.Def // nil for invalid definitions
	source *svgdom.Node
}

// resolve converts (once) the definition with the given id,
// which must have one of the given tags.
func (c *converter) resolve(id string, tags ...string) (svgtree.Def, defStatus) {
	el := c.doc.ElementByID(id)
	if el == nil || !slices.Contains(tags, el.Tag) {
		return nil, defMissing
	}
	if entry, ok := c.defs[id]; ok {
		if entry.def == nil {
			return nil, defInvalid
		}
		return entry.def, defOK
	}
	if c.inProgress[id] {
		c.warn("recursive reference", "id", id)
		return nil, defMissing
	}

	c.inProgress[id] = true
	// definitions are memoized: their content must not depend on the
	// context of the first reference
	instancing, viewports := c.instancing, c.viewports
	c.instancing, c.viewports = 0, []svgpath.Rect{viewports[0]}
	var def svgtree.Def
	switch el.Tag {
	case "linearGradient", "radialGradient":
		def = c.convertGradient(el)
	case "pattern":
		def = c.convertPattern(el)
	case "clipPath":
		def = c.convertClipPath(el)
	case "mask":
		def = c.convertMask(el)
	case "filter":
		def = c.convertFilter(el)
	}
	c.instancing, c.viewports = instancing, viewports
	delete(c.inProgress, id)

	c.defs[id] = defEntry{def: def, source: el}
	if def == nil {
		c.warn("invalid definition", "tag", el.Tag, "id", id)
		return nil, defInvalid
	}
	return def, defOK
}

// hrefChain returns `el` followed by the elements it inherits
// from through xlink:href, restricted to the given tags.
func (c *converter) hrefChain(el *svgdom.Node, tags ...string) chainAttrs {
	chain := chainAttrs{el}
	for {
		id, ok := parseHref(chain[len(chain)-1])
		if !ok {
			return chain
		}
		next := c.doc.ElementByID(id)
		if next == nil || !slices.Contains(tags, next.Tag) || slices.Contains(chain, next) {
			return chain
		}
		chain = append(chain, next)
	}
}

// chainAttrs looks up attributes along a chain of templates.
type chainAttrs []*svgdom.Node

func (ch chainAttrs) Attr(name string) (string, bool) {
	for _, n := range ch {
		if v, ok := n.Attr(name); ok {
			return v, true
		}
	}
	return "", false
}

// content returns the first element of the chain having element children
func (ch chainAttrs) content(tag string) *svgdom.Node {
	for _, n := range ch {
		for _, child := range n.Elements() {
			if tag == "" || child.Tag == tag {
				return n
			}
		}
	}
	return nil
}

func (c *converter) convertGradient(el *svgdom.Node) svgtree.Def {
	chain := c.hrefChain(el, "linearGradient", "radialGradient")
	s := c.styleOf(el)
	base := svgtree.BaseGradient{
		ID:        el.ID(),
		Units:     c.units(chain, "gradientUnits", svgtree.ObjectBoundingBox),
		Transform: c.transform(chain, "gradientTransform"),
	}
	if !base.Transform.IsInvertible() {
		c.warn("non invertible gradient transform", "id", el.ID())
		base.Transform = svgpath.Identity
	}
	switch v, _ := chain.Attr("spreadMethod"); v {
	case "reflect":
		base.Spread = svgtree.SpreadReflect
	case "repeat":
		base.Spread = svgtree.SpreadRepeat
	}
	if stopsEl := chain.content("stop"); stopsEl != nil {
		base.Stops = c.stops(stopsEl)
	}

	// default values for percentages
	full := func(dir direction) float64 {
		if base.Units == svgtree.ObjectBoundingBox {
			return 1
		}
		return c.percentRef(dir)
	}
	if el.Tag == "linearGradient" {
		return &svgtree.LinearGradient{
			X1:           c.unitLength(chain, s, "x1", horizontal, base.Units, 0),
			Y1:           c.unitLength(chain, s, "y1", vertical, base.Units, 0),
			X2:           c.unitLength(chain, s, "x2", horizontal, base.Units, full(horizontal)),
			Y2:           c.unitLength(chain, s, "y2", vertical, base.Units, 0),
			BaseGradient: base,
		}
	}
	cx := c.unitLength(chain, s, "cx", horizontal, base.Units, full(horizontal)/2)
	cy := c.unitLength(chain, s, "cy", vertical, base.Units, full(vertical)/2)
	return &svgtree.RadialGradient{
		Cx:           cx,
		Cy:           cy,
		R:            c.unitLength(chain, s, "r", diagonal, base.Units, full(diagonal)/2),
		Fx:           c.unitLength(chain, s, "fx", horizontal, base.Units, cx),
		Fy:           c.unitLength(chain, s, "fy", vertical, base.Units, cy),
		BaseGradient: base,
	}
}

// stops returns the stops of a gradient, with clamped and
// increasing offsets.
func (c *converter) stops(el *svgdom.Node) []svgtree.Stop {
	var (
		out  []svgtree.Stop
		prev float64
	)
	for _, child := range el.Elements() {
		if child.Tag != "stop" {
			continue
		}
		s := c.styleOf(child)
		stop := svgtree.Stop{Color: svgtree.Black, Opacity: c.opacity(s, "stop-opacity")}
		if v, ok := child.Attr("offset"); ok {
			stop.Offset = parseOffset(v)
		}
		stop.Offset = math.Max(prev, math.Max(0, math.Min(1, stop.Offset)))
		prev = stop.Offset
		if v, ok := s.get("stop-color"); ok {
			col, err := parseColor(v, s)
			if err != nil {
				c.warn("invalid stop-color", "value", v)
			} else {
				stop.Color = col
			}
		}
		out = append(out, stop)
	}
	return out
}

// parseOffset accepts numbers and percentages, returning 0 on error
func parseOffset(v string) float64 {
	v = strings.TrimSpace(v)
	if p, isPercent := strings.CutSuffix(v, "%"); isPercent {
		f, _ := strconv.ParseFloat(p, 64)
		return f / 100
	}
	f, _ := strconv.ParseFloat(v, 64)
	return f
}

// content converts the children of a definition into a
// detached list of nodes, in the definition user space.
func (c *converter) content(el *svgdom.Node, s *style) []*svgtree.Node {
	root := newGroupNode("", svgpath.Identity, nil)
	c.convertChildren(el, s, svgpath.Identity, root)
	c.simplify(root)
	return root.Children
}

func (c *converter) convertPattern(el *svgdom.Node) svgtree.Def {
	chain := c.hrefChain(el, "pattern")
	s := c.styleOf(el)
	pattern := &svgtree.Pattern{
		ID:           el.ID(),
		Units:        c.units(chain, "patternUnits", svgtree.ObjectBoundingBox),
		ContentUnits: c.units(chain, "patternContentUnits", svgtree.UserSpaceOnUse),
		Transform:    c.transform(chain, "patternTransform"),
	}
	if !pattern.Transform.IsInvertible() {
		return nil
	}
	pattern.Rect = svgpath.Rect{
		X: c.unitLength(chain, s, "x", horizontal, pattern.Units, 0),
		Y: c.unitLength(chain, s, "y", vertical, pattern.Units, 0),
		W: c.unitLength(chain, s, "width", horizontal, pattern.Units, 0),
		H: c.unitLength(chain, s, "height", vertical, pattern.Units, 0),
	}
	if pattern.Rect.IsEmpty() {
		return nil
	}
	for _, n := range chain {
		if _, ok := n.Attr("viewBox"); ok {
			pattern.ViewBox = c.viewBoxOf(n)
			break
		}
	}
	contentEl := chain.content("")
	if contentEl == nil {
		return nil
	}
	pattern.Children = c.content(contentEl, c.styleOf(contentEl))
	if len(pattern.Children) == 0 {
		return nil
	}
	return pattern
}

// nestedLink resolves the `clip-path` or `mask` property of
// a clip path or mask definition. It returns false if the
// nested definition is invalid.
func (c *converter) nestedLink(s *style, prop, tag string) (string, bool) {
	v, ok := s.get(prop)
	if !ok || v == "none" {
		return "", true
	}
	id, _, isURL := parseURL(v)
	if !isURL {
		return "", true
	}
	switch _, status := c.resolve(id, tag); status {
	case defOK:
		return id, true
	case defInvalid:
		return "", false
	}
	return "", true
}

func (c *converter) convertClipPath(el *svgdom.Node) svgtree.Def {
	clip := &svgtree.ClipPath{
		ID:        el.ID(),
		Units:     c.units(el, "clipPathUnits", svgtree.UserSpaceOnUse),
		Transform: c.transform(el, "transform"),
	}
	if !clip.Transform.IsInvertible() {
		return nil
	}
	s := c.styleOf(el)
	var ok bool
	if clip.ClipPath, ok = c.nestedLink(s, "clip-path", "clipPath"); !ok {
		return nil
	}
	root := newGroupNode("", svgpath.Identity, nil)
	for _, child := range el.Elements() {
		c.convertClipChild(child, s, svgpath.Identity, root)
	}
	if len(root.Children) == 0 {
		return nil
	}
	clip.Children = root.Children
	return clip
}

// convertClipChild converts a child of a clip path: only
// shapes, texts and references to them are allowed.
func (c *converter) convertClipChild(n *svgdom.Node, parentStyle *style, parentTr svgpath.Matrix2D, out *svgtree.Node) {
	if !shapeTags[n.Tag] && n.Tag != "text" && n.Tag != "use" {
		if !nonRendering[n.Tag] {
			c.warn("invalid clip path child", "tag", n.Tag)
		}
		return
	}
	s, tr, ok := c.prepare(n, parentStyle, parentTr)
	if !ok {
		return
	}
	switch n.Tag {
	case "use":
		id, _ := parseHref(n)
		target := c.doc.ElementByID(id)
		if target == nil || (!shapeTags[target.Tag] && target.Tag != "text") {
			c.warn("invalid clip path reference", "href", id)
			return
		}
		x := c.length(n, s, "x", horizontal, 0)
		y := c.length(n, s, "y", vertical, 0)
		c.instancing++
		c.convertClipChild(target, s, tr.Translate(x, y), out)
		c.instancing--
	case "text":
		text := c.convertText(n, s, tr)
		if text == nil {
			return
		}
		rule := fillRule(s, "clip-rule")
		for i := range text.Kind.(*svgtree.Text).Chunks {
			chunk := &text.Kind.(*svgtree.Text).Chunks[i]
			for j := range chunk.Spans {
				fill := svgtree.DefaultFill()
				fill.Rule = rule
				chunk.Spans[j].Fill, chunk.Spans[j].Stroke = fill, nil
			}
		}
		appendChild(out, text)
	default:
		if path := c.clipShape(n, s, tr); path != nil {
			appendChild(out, path)
		}
	}
}

// effectRect resolves the region of a mask or filter,
// which defaults to -10%, -10%, 120%, 120%.
func (c *converter) effectRect(el *svgdom.Node, s *style, units svgtree.Units) svgpath.Rect {
	w, h := 1., 1.
	if units == svgtree.UserSpaceOnUse {
		w, h = c.percentRef(horizontal), c.percentRef(vertical)
	}
	return svgpath.Rect{
		X: c.unitLength(el, s, "x", horizontal, units, -0.1*w),
		Y: c.unitLength(el, s, "y", vertical, units, -0.1*h),
		W: c.unitLength(el, s, "width", horizontal, units, 1.2*w),
		H: c.unitLength(el, s, "height", vertical, units, 1.2*h),
	}
}

func (c *converter) convertMask(el *svgdom.Node) svgtree.Def {
	s := c.styleOf(el)
	mask := &svgtree.Mask{
		ID:           el.ID(),
		Units:        c.units(el, "maskUnits", svgtree.ObjectBoundingBox),
		ContentUnits: c.units(el, "maskContentUnits", svgtree.UserSpaceOnUse),
	}
	mask.Rect = c.effectRect(el, s, mask.Units)
	if mask.Rect.IsEmpty() {
		return nil
	}
	var ok bool
	if mask.Mask, ok = c.nestedLink(s, "mask", "mask"); !ok {
		return nil
	}
	mask.Children = c.content(el, s)
	if len(mask.Children) == 0 {
		return nil
	}
	return mask
}

func (c *converter) convertFilter(el *svgdom.Node) svgtree.Def {
	s := c.styleOf(el)
	filter := &svgtree.Filter{
		ID:             el.ID(),
		Units:          c.units(el, "filterUnits", svgtree.ObjectBoundingBox),
		PrimitiveUnits: c.units(el, "primitiveUnits", svgtree.UserSpaceOnUse),
	}
	filter.Rect = c.effectRect(el, s, filter.Units)
	if filter.Rect.IsEmpty() {
		return nil
	}
	for _, child := range el.Elements() {
		if strings.HasPrefix(child.Tag, "fe") {
			filter.Primitives = append(filter.Primitives, filterPrimitive(child))
		}
	}
	if len(filter.Primitives) == 0 {
		return nil
	}
	return filter
}

func filterPrimitive(n *svgdom.Node) svgtree.FilterPrimitive {
	out := svgtree.FilterPrimitive{Tag: n.Tag}
	for _, attr := range n.Attrs {
		out.Attrs = append(out.Attrs, svgtree.Attr{Name: attr.Name, Value: attr.Value})
	}
	for _, child := range n.Elements() {
		out.Children = append(out.Children, filterPrimitive(child))
	}
	return out
}

// usedDefs returns the definitions referenced (transitively) from
// the tree rooted at `root`, in document order.
func (c *converter) usedDefs(root *svgtree.Node) []svgtree.Def {
	used := make(map[string]bool)
	var (
		visitDef  func(id string)
		visitNode func(n *svgtree.Node)
	)
	visitDef = func(id string) {
		entry, ok := c.defs[id]
		if used[id] || !ok || entry.def == nil {
			return
		}
		used[id] = true
		for _, ref := range svgtree.References(entry.def) {
			visitDef(ref)
		}
		var content []*svgtree.Node
		switch def := entry.def.(type) {
		case *svgtree.ClipPath:
			content = def.Children
		case *svgtree.Mask:
			content = def.Children
		case *svgtree.Pattern:
			content = def.Children
		}
		for _, n := range content {
			visitNode(n)
		}
	}
	visitNode = func(n *svgtree.Node) {
		for _, ref := range svgtree.NodeReferences(n) {
			visitDef(ref)
		}
		for _, child := range n.Children {
			visitNode(child)
		}
	}
	visitNode(root)

	var entries []defEntry
	for id := range used {
		entries = append(entries, c.defs[id])
	}
	slices.SortFunc(entries, func(a, b defEntry) int { return c.order[a.source] - c.order[b.source] })
	out := make([]svgtree.Def, len(entries))
	for i, entry := range entries {
		out[i] = entry.def
	}
	return out
}
