// Package svgtree defines the render tree: a flat, fully resolved
// representation of a SVG document, where every style is explicit,
// every geometry is made of absolute path segments and
// paint servers, clip paths, masks, patterns and filters are
// stored in a registry and referenced by id.
//
// A Tree is built by the svgnorm package and is read-only
// for its consumers, such as the svgraster backend.
package svgtree

import (
	"fmt"
	"sync"

	"github.com/benoitkugler/svgtree/svgpath"
)

// Node is an element of the render tree.
// Its transform is absolute : it maps the node
// coordinates to the user space of the root (or of the enclosing
// definition for nodes stored in the defs registry).
type Node struct {
	ID        string
	Transform svgpath.Matrix2D
	Kind      NodeKind
	Children  []*Node // only used for groups

	inDefs bool
	bbox   bboxCache
}

type bboxCache struct {
	once           sync.Once
	geometry, full svgpath.Rect
	ok             bool
}

// NodeKind is one of *Group, *Path, *Text or *Image.
type NodeKind interface {
	isNodeKind()
}

func (*Group) isNodeKind() {}
func (*Path) isNodeKind()  {}
func (*Text) isNodeKind()  {}
func (*Image) isNodeKind() {}

// Group is a container. Groups surviving normalization are either
// compositing boundaries (opacity, clip path, mask or filter)
// or named groups, kept on demand.
type Group struct {
	Opacity  float64 // 1 means opaque
	ClipPath string  // id of a ClipPath definition, or empty
	Mask     string  // id of a Mask definition, or empty
	Filter   string  // id of a Filter definition, or empty
}

// IsCompositing returns true if the group content must be
// rendered as a whole, on a separate layer.
func (g *Group) IsCompositing() bool {
	return g.Opacity != 1 || g.ClipPath != "" || g.Mask != "" || g.Filter != ""
}

// Path is a filled and/or stroked shape.
type Path struct {
	Fill       *Fill   // nil means no fill
	Stroke     *Stroke // nil means no stroke
	Visibility Visibility
	Segments   svgpath.Path
}

// Image is a raster or SVG image, whose data
// is either embedded or referenced by a file path.
type Image struct {
	Visibility  Visibility
	View        svgpath.Rect
	AspectRatio AspectRatio
	Data        ImageData
}

// ImageKind is the detected format of an image.
type ImageKind string

const (
	PNG  ImageKind = "image/png"
	JPEG ImageKind = "image/jpeg"
	GIF  ImageKind = "image/gif"
	SVG  ImageKind = "image/svg+xml"
)

// ImageData is either embedded (Raw is not nil),
// or an external file, whose content is not loaded.
type ImageData struct {
	Kind ImageKind
	Raw  []byte
	Path string
}

// Text is a block of text, made of chunks.
// Text layout is left to the backends.
type Text struct {
	Chunks []TextChunk
}

// TextChunk is a run of spans starting at an explicit position.
// A nil X (or Y) means the chunk starts after the previous one.
type TextChunk struct {
	X, Y   *float64
	Anchor TextAnchor
	Spans  []TextSpan
}

// TextSpan is a run of text sharing the same style.
type TextSpan struct {
	Fill       *Fill
	Stroke     *Stroke
	Font       Font
	Visibility Visibility
	Text       string
}

// Font describes the requested font of a span.
type Font struct {
	Family string
	Size   float64
	Style  FontStyle
	Weight int // 100 to 900
}

// Color is an opaque RGB color.
type Color struct{ R, G, B uint8 }

// Black is the default fill color.
var Black = Color{0, 0, 0}

// String returns the #rrggbb form of the color.
func (c Color) String() string { return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B) }

// RGBA implements color.Color
func (c Color) RGBA() (r, g, b, a uint32) {
	r, g, b = uint32(c.R), uint32(c.G), uint32(c.B)
	return r | r<<8, g | g<<8, b | b<<8, 0xffff
}

// Paint is one of Color, LinearGradientRef, RadialGradientRef or PatternRef.
// The absence of paint is represented by a nil Fill or Stroke.
type Paint interface {
	isPaint()
}

// LinearGradientRef is the id of a LinearGradient definition.
type LinearGradientRef string

// RadialGradientRef is the id of a RadialGradient definition.
type RadialGradientRef string

// PatternRef is the id of a Pattern definition.
type PatternRef string

func (Color) isPaint()             {}
func (LinearGradientRef) isPaint() {}
func (RadialGradientRef) isPaint() {}
func (PatternRef) isPaint()        {}

// paintID returns the definition referenced by the paint, if any
func paintID(p Paint) string {
	switch p := p.(type) {
	case LinearGradientRef:
		return string(p)
	case RadialGradientRef:
		return string(p)
	case PatternRef:
		return string(p)
	}
	return ""
}

// Fill is the resolved fill of a shape.
type Fill struct {
	Paint   Paint
	Opacity float64
	Rule    FillRule
}

// DefaultFill returns the initial value of the fill properties.
func DefaultFill() *Fill { return &Fill{Paint: Black, Opacity: 1, Rule: NonZero} }

// Stroke is the resolved stroke of a shape.
type Stroke struct {
	Paint      Paint
	Opacity    float64
	Width      float64
	LineCap    LineCap
	LineJoin   LineJoin
	MiterLimit float64
	Dasharray  []float64 // nil for solid lines
	Dashoffset float64
}

// DefaultStroke returns the initial value of the stroke properties, for the given paint.
func DefaultStroke(paint Paint) *Stroke {
	return &Stroke{Paint: paint, Opacity: 1, Width: 1, LineCap: ButtCap, LineJoin: MiterJoin, MiterLimit: 4}
}

type Visibility uint8

const (
	Visible Visibility = iota
	Hidden
	Collapse
)

func (v Visibility) String() string {
	switch v {
	case Hidden:
		return "hidden"
	case Collapse:
		return "collapse"
	default:
		return "visible"
	}
}

type FillRule uint8

const (
	NonZero FillRule = iota
	EvenOdd
)

func (f FillRule) String() string {
	if f == EvenOdd {
		return "evenodd"
	}
	return "nonzero"
}

type LineCap uint8

const (
	ButtCap LineCap = iota
	RoundCap
	SquareCap
)

func (l LineCap) String() string {
	switch l {
	case RoundCap:
		return "round"
	case SquareCap:
		return "square"
	default:
		return "butt"
	}
}

type LineJoin uint8

const (
	MiterJoin LineJoin = iota
	RoundJoin
	BevelJoin
)

func (l LineJoin) String() string {
	switch l {
	case RoundJoin:
		return "round"
	case BevelJoin:
		return "bevel"
	default:
		return "miter"
	}
}

type TextAnchor uint8

const (
	AnchorStart TextAnchor = iota
	AnchorMiddle
	AnchorEnd
)

func (t TextAnchor) String() string {
	switch t {
	case AnchorMiddle:
		return "middle"
	case AnchorEnd:
		return "end"
	default:
		return "start"
	}
}

type FontStyle uint8

const (
	StyleNormal FontStyle = iota
	StyleItalic
	StyleOblique
)

func (f FontStyle) String() string {
	switch f {
	case StyleItalic:
		return "italic"
	case StyleOblique:
		return "oblique"
	default:
		return "normal"
	}
}

// Units is the coordinate system used by a definition.
type Units uint8

const (
	UserSpaceOnUse Units = iota
	ObjectBoundingBox
)

func (u Units) String() string {
	if u == ObjectBoundingBox {
		return "objectBoundingBox"
	}
	return "userSpaceOnUse"
}

// Align is the alignment part of `preserveAspectRatio`.
type Align uint8

const (
	XMidYMid Align = iota // default value
	AlignNone
	XMinYMin
	XMidYMin
	XMaxYMin
	XMinYMid
	XMaxYMid
	XMinYMax
	XMidYMax
	XMaxYMax
)

var alignNames = [...]string{
	XMidYMid: "xMidYMid", AlignNone: "none",
	XMinYMin: "xMinYMin", XMidYMin: "xMidYMin", XMaxYMin: "xMaxYMin",
	XMinYMid: "xMinYMid", XMaxYMid: "xMaxYMid",
	XMinYMax: "xMinYMax", XMidYMax: "xMidYMax", XMaxYMax: "xMaxYMax",
}

func (a Align) String() string { return alignNames[a] }

// ParseAlign returns the alignment for the given keyword.
func ParseAlign(s string) (Align, bool) {
	for a, name := range alignNames {
		if name == s {
			return Align(a), true
		}
	}
	return 0, false
}

// AspectRatio is a parsed `preserveAspectRatio` attribute.
type AspectRatio struct {
	Align Align
	Slice bool
}

func (a AspectRatio) isDefault() bool { return a == AspectRatio{} }

func (a AspectRatio) String() string {
	if a.Slice {
		return a.Align.String() + " slice"
	}
	return a.Align.String()
}

// ViewBox is a rectangle in user space, mapped to a viewport.
type ViewBox struct {
	Rect        svgpath.Rect
	AspectRatio AspectRatio
}

// Transform returns the matrix mapping the view box
// to a viewport of size (w, h), starting at the origin.
func (vb ViewBox) Transform(w, h float64) svgpath.Matrix2D {
	sx, sy := w/vb.Rect.W, h/vb.Rect.H
	if vb.AspectRatio.Align == AlignNone {
		return svgpath.Identity.Scale(sx, sy).Translate(-vb.Rect.X, -vb.Rect.Y)
	}
	s := sx
	if vb.AspectRatio.Slice {
		if sy > s {
			s = sy
		}
	} else if sy < s {
		s = sy
	}
	dx, dy := w-vb.Rect.W*s, h-vb.Rect.H*s
	var tx, ty float64
	switch vb.AspectRatio.Align {
	case XMidYMin, XMidYMid, XMidYMax:
		tx = dx / 2
	case XMaxYMin, XMaxYMid, XMaxYMax:
		tx = dx
	}
	switch vb.AspectRatio.Align {
	case XMinYMid, XMidYMid, XMaxYMid:
		ty = dy / 2
	case XMinYMax, XMidYMax, XMaxYMax:
		ty = dy
	}
	return svgpath.Identity.Translate(tx, ty).Scale(s, s).Translate(-vb.Rect.X, -vb.Rect.Y)
}
