package svgtree

import (
	"iter"

	"github.com/benoitkugler/svgtree/svgpath"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// Size is the size of the rendering viewport.
type Size struct{ W, H float64 }

// Tree is the output of the normalization.
// It is immutable, except through the Append method,
// and may be traversed concurrently.
type Tree struct {
	Size    Size
	ViewBox ViewBox

	root *Node
	defs []Def
	ids  map[string]Def
}

// NewTree builds a tree from its root group and its definitions,
// given in document order.
// Definitions must have unique ids.
func NewTree(size Size, viewBox ViewBox, root *Node, defs []Def) *Tree {
	tree := &Tree{Size: size, ViewBox: viewBox, root: root, defs: defs, ids: make(map[string]Def, len(defs))}
	for _, def := range defs {
		tree.ids[def.DefID()] = def
		for _, n := range def.content() {
			markInDefs(n)
		}
	}
	return tree
}

func markInDefs(n *Node) {
	n.inDefs = true
	for _, c := range n.Children {
		markInDefs(c)
	}
}

// Root returns the root group.
func (t *Tree) Root() *Node { return t.root }

// Defs returns the definitions, in document order.
func (t *Tree) Defs() []Def { return t.defs }

// Def returns the definition with the given id, or nil.
func (t *Tree) Def(id string) Def { return t.ids[id] }

// IsInDefs returns true if `n` belongs to the content
// of a definition (clip path, mask or pattern),
// and false if it belongs to the renderable tree.
func (t *Tree) IsInDefs(n *Node) bool { return n.inDefs }

// Descendants returns an iterator over all the nodes of the tree,
// in depth-first pre-order: definitions content comes first (in document order),
// then the root and its descendants.
// The iterator may be used several times.
func (t *Tree) Descendants() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		for _, def := range t.defs {
			for _, n := range def.content() {
				if !walk(n, yield) {
					return
				}
			}
		}
		walk(t.root, yield)
	}
}

// Walk returns an iterator over `n` and its descendants, in pre-order.
func Walk(n *Node) iter.Seq[*Node] {
	return func(yield func(*Node) bool) { walk(n, yield) }
}

func walk(n *Node, yield func(*Node) bool) bool {
	if !yield(n) {
		return false
	}
	for _, c := range n.Children {
		if !walk(c, yield) {
			return false
		}
	}
	return true
}

// Append adds `n` as the last child of the root.
// It is the only way to modify a tree after its construction,
// and must not be called concurrently with any other method.
func (t *Tree) Append(n *Node) {
	t.root.Children = append(t.root.Children, n)
	t.root.bbox = bboxCache{} // invalidate
}

// BBox returns the geometry bounding box of `n`, in the coordinates
// of the root (or the enclosing definition), excluding strokes.
// `ok` is false for nodes without geometry.
// The result is computed once, then cached.
func (t *Tree) BBox(n *Node) (svgpath.Rect, bool) {
	n.bbox.once.Do(func() {
		n.bbox.geometry, n.bbox.ok = n.computeBBox(false)
		n.bbox.full, _ = n.computeBBox(true)
	})
	return n.bbox.geometry, n.bbox.ok
}

// VisualBBox is the same as BBox, but includes the strokes.
func (t *Tree) VisualBBox(n *Node) (svgpath.Rect, bool) {
	_, ok := t.BBox(n)
	return n.bbox.full, ok
}

// GeometryBBox computes the bounding box of `n`, without caching.
// It is used during the construction of the tree, when the node
// content is not yet final.
func GeometryBBox(n *Node) (svgpath.Rect, bool) { return n.computeBBox(false) }

func (n *Node) computeBBox(withStroke bool) (bbox svgpath.Rect, ok bool) {
	switch kind := n.Kind.(type) {
	case *Group:
		for _, c := range n.Children {
			cb, cok := c.computeBBox(withStroke)
			if !cok {
				continue
			}
			if ok {
				bbox = bbox.Union(cb)
			} else {
				bbox, ok = cb, true
			}
		}
	case *Path:
		bbox, ok = kind.Segments.BBox(n.Transform)
		if ok && withStroke && kind.Stroke != nil {
			// conservative approximation of the stroke extent
			bbox = bbox.Expand(kind.Stroke.Width / 2 * n.Transform.MaxScale())
		}
	case *Image:
		if !kind.View.IsEmpty() {
			bbox, ok = kind.View.Transform(n.Transform), true
		}
	case *Text:
		bbox, ok = kind.bbox()
		if ok {
			bbox = bbox.Transform(n.Transform)
		}
	}
	return bbox, ok
}

// text metrics are approximated with a fixed width font,
// scaled to the font size
var metricsFace = basicfont.Face7x13

func spanExtent(span TextSpan) (width, ascent, height float64) {
	scale := span.Font.Size / float64(metricsFace.Height)
	adv := font.MeasureString(metricsFace, span.Text)
	width = float64(adv) / 64 * scale
	return width, float64(metricsFace.Ascent) * scale, float64(metricsFace.Height) * scale
}

// bbox returns an approximation of the text extents, in the text coordinates.
func (t *Text) bbox() (bbox svgpath.Rect, ok bool) {
	var x, y float64
	for _, chunk := range t.Chunks {
		if chunk.X != nil {
			x = *chunk.X
		}
		if chunk.Y != nil {
			y = *chunk.Y
		}
		var chunkWidth float64
		for _, span := range chunk.Spans {
			w, _, _ := spanExtent(span)
			chunkWidth += w
		}
		switch chunk.Anchor {
		case AnchorMiddle:
			x -= chunkWidth / 2
		case AnchorEnd:
			x -= chunkWidth
		}
		for _, span := range chunk.Spans {
			w, ascent, h := spanExtent(span)
			if w == 0 {
				continue
			}
			spanBox := svgpath.Rect{X: x, Y: y - ascent, W: w, H: h}
			if ok {
				bbox = bbox.Union(spanBox)
			} else {
				bbox, ok = spanBox, true
			}
			x += w
		}
	}
	return bbox, ok
}
