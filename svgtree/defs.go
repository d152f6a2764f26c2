package svgtree

import "github.com/benoitkugler/svgtree/svgpath"

// Def is an element of the definitions registry:
// one of *LinearGradient, *RadialGradient, *ClipPath,
// *Mask, *Pattern or *Filter.
type Def interface {
	DefID() string
	// content returns the nodes owned by the definition
	content() []*Node
}

// Stop is a resolved gradient stop.
// Offsets are clamped to [0, 1] and never decreasing.
type Stop struct {
	Offset  float64
	Color   Color
	Opacity float64
}

type SpreadMethod uint8

const (
	SpreadPad SpreadMethod = iota
	SpreadReflect
	SpreadRepeat
)

func (s SpreadMethod) String() string {
	switch s {
	case SpreadReflect:
		return "reflect"
	case SpreadRepeat:
		return "repeat"
	default:
		return "pad"
	}
}

// BaseGradient stores the attributes shared by linear and radial gradients.
type BaseGradient struct {
	ID        string
	Units     Units
	Transform svgpath.Matrix2D
	Spread    SpreadMethod
	Stops     []Stop // at least two stops
}

type LinearGradient struct {
	X1, Y1, X2, Y2 float64
	BaseGradient
}

type RadialGradient struct {
	Cx, Cy, R, Fx, Fy float64
	BaseGradient
}

// ClipPath is a clipping region, made of the union of its children.
type ClipPath struct {
	ID        string
	Units     Units
	Transform svgpath.Matrix2D
	ClipPath  string // optional nested clip path
	Children  []*Node
}

// Mask uses the luminance of its content as alpha channel.
type Mask struct {
	ID           string
	Units        Units
	ContentUnits Units
	Rect         svgpath.Rect
	Mask         string // optional nested mask
	Children     []*Node
}

// Pattern is a tiled paint server.
type Pattern struct {
	ID           string
	Units        Units
	ContentUnits Units
	Transform    svgpath.Matrix2D
	Rect         svgpath.Rect
	ViewBox      *ViewBox // optional
	Children     []*Node
}

// Attr is a raw attribute, used for filter primitives.
type Attr struct {
	Name, Value string
}

// FilterPrimitive is a filter primitive element, such as feGaussianBlur.
// The primitives are not interpreted: their attributes are kept
// as written in the source document.
type FilterPrimitive struct {
	Tag      string
	Attrs    []Attr
	Children []FilterPrimitive
}

// Filter is a chain of filter primitives.
type Filter struct {
	ID             string
	Units          Units
	PrimitiveUnits Units
	Rect           svgpath.Rect
	Primitives     []FilterPrimitive
}

func (d *LinearGradient) DefID() string { return d.ID }
func (d *RadialGradient) DefID() string { return d.ID }
func (d *ClipPath) DefID() string       { return d.ID }
func (d *Mask) DefID() string           { return d.ID }
func (d *Pattern) DefID() string        { return d.ID }
func (d *Filter) DefID() string         { return d.ID }

func (d *LinearGradient) content() []*Node { return nil }
func (d *RadialGradient) content() []*Node { return nil }
func (d *ClipPath) content() []*Node       { return d.Children }
func (d *Mask) content() []*Node           { return d.Children }
func (d *Pattern) content() []*Node        { return d.Children }
func (d *Filter) content() []*Node         { return nil }

// References returns the ids of the definitions used by `def`
// itself (nested clip paths and masks), not by its content.
func References(def Def) []string {
	switch def := def.(type) {
	case *ClipPath:
		if def.ClipPath != "" {
			return []string{def.ClipPath}
		}
	case *Mask:
		if def.Mask != "" {
			return []string{def.Mask}
		}
	}
	return nil
}

// NodeReferences returns the ids of the definitions used by
// the node itself (not its children).
func NodeReferences(n *Node) []string {
	var out []string
	add := func(id string) {
		if id != "" {
			out = append(out, id)
		}
	}
	addFill := func(f *Fill) {
		if f != nil {
			add(paintID(f.Paint))
		}
	}
	addStroke := func(s *Stroke) {
		if s != nil {
			add(paintID(s.Paint))
		}
	}
	switch kind := n.Kind.(type) {
	case *Group:
		add(kind.ClipPath)
		add(kind.Mask)
		add(kind.Filter)
	case *Path:
		addFill(kind.Fill)
		addStroke(kind.Stroke)
	case *Text:
		for _, chunk := range kind.Chunks {
			for _, span := range chunk.Spans {
				addFill(span.Fill)
				addStroke(span.Stroke)
			}
		}
	}
	return out
}
