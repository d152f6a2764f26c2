package svgnorm

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/benoitkugler/svgtree/svgdom"
	"github.com/benoitkugler/svgtree/svgpath"
	"github.com/benoitkugler/svgtree/svgtree"
	"github.com/tdewolff/parse/v2"
	"golang.org/x/image/colornames"
)

var errInvalidLength = errors.New("invalid length")

// direction selects the reference used by percentages
type direction uint8

const (
	horizontal direction = iota
	vertical
	diagonal
)

type length struct {
	value float64
	unit  string // lower case, may be empty
}

func parseLength(v string) (length, error) {
	v = strings.TrimSpace(v)
	b := []byte(v)
	num, unit := parse.Dimension(b)
	if num == 0 || num+unit != len(b) {
		return length{}, fmt.Errorf("%w: %q", errInvalidLength, v)
	}
	f, err := strconv.ParseFloat(v[:num], 64)
	if err != nil {
		return length{}, err
	}
	return length{value: f, unit: strings.ToLower(v[num:])}, nil
}

// toUser converts an absolute or font relative length to user units.
// Percentages are resolved with `ref`.
func (c *converter) toUser(l length, fontSize, ref float64) (float64, error) {
	switch l.unit {
	case "", "px":
		return l.value, nil
	case "%":
		return l.value / 100 * ref, nil
	case "in":
		return l.value * c.opts.DPI, nil
	case "cm":
		return l.value * c.opts.DPI / 2.54, nil
	case "mm":
		return l.value * c.opts.DPI / 25.4, nil
	case "pt":
		return l.value * c.opts.DPI / 72, nil
	case "pc":
		return l.value * c.opts.DPI / 6, nil
	case "em":
		return l.value * fontSize, nil
	case "ex":
		return l.value * fontSize / 2, nil
	}
	return 0, fmt.Errorf("%w: unknown unit %q", errInvalidLength, l.unit)
}

// pushViewport starts a new viewport, of size (w, h) in user space
// when `vb` is nil. It must be paired with popViewport.
func (c *converter) pushViewport(vb *svgtree.ViewBox, w, h float64) {
	rect := svgpath.Rect{W: w, H: h}
	if vb != nil {
		rect = vb.Rect
	}
	c.viewports = append(c.viewports, rect)
}

func (c *converter) popViewport() { c.viewports = c.viewports[:len(c.viewports)-1] }

// percentRef returns the length used to resolve percentages, based
// on the viewport.
func (c *converter) percentRef(dir direction) float64 {
	vb := c.viewports[len(c.viewports)-1]
	switch dir {
	case horizontal:
		return vb.W
	case vertical:
		return vb.H
	default:
		return math.Sqrt((vb.W*vb.W + vb.H*vb.H) / 2)
	}
}

// length resolves a length attribute in user space, falling back to `def`
// when absent or invalid.
func (c *converter) length(n nodeAttrs, s *style, name string, dir direction, def float64) float64 {
	v, ok := n.Attr(name)
	if !ok {
		return def
	}
	l, err := parseLength(v)
	if err == nil {
		var f float64
		if f, err = c.toUser(l, s.fontSize, c.percentRef(dir)); err == nil {
			return f
		}
	}
	c.warn("invalid length", "attribute", name, "value", v)
	return def
}

// styleLength is the same as length for style properties
func (c *converter) styleLength(s *style, name string, dir direction, def float64) float64 {
	v, ok := s.get(name)
	if !ok {
		return def
	}
	l, err := parseLength(v)
	if err == nil {
		var f float64
		if f, err = c.toUser(l, s.fontSize, c.percentRef(dir)); err == nil {
			return f
		}
	}
	c.warn("invalid length", "property", name, "value", v)
	return def
}

// unitLength resolves a length in a coordinate system defined
// by `units`: with objectBoundingBox, numbers and percentages are fractions.
func (c *converter) unitLength(n nodeAttrs, s *style, name string, dir direction, units svgtree.Units, def float64) float64 {
	if units == svgtree.UserSpaceOnUse {
		return c.length(n, s, name, dir, def)
	}
	v, ok := n.Attr(name)
	if !ok {
		return def
	}
	l, err := parseLength(v)
	if err != nil {
		c.warn("invalid length", "attribute", name, "value", v)
		return def
	}
	if l.unit == "%" {
		return l.value / 100
	}
	f, err := c.toUser(l, s.fontSize, 1)
	if err != nil {
		return def
	}
	return f
}

var fontSizeKeywords = map[string]float64{
	"xx-small": 9, "x-small": 10, "small": 13,
	"medium": 16, "large": 18, "x-large": 24, "xx-large": 32,
}

func (c *converter) fontSize(v string, parent float64) (float64, bool) {
	if f, ok := fontSizeKeywords[v]; ok {
		return f, true
	}
	switch v {
	case "larger":
		return parent * 1.2, true
	case "smaller":
		return parent / 1.2, true
	}
	l, err := parseLength(v)
	if err != nil {
		return 0, false
	}
	f, err := c.toUser(l, parent, parent)
	if err != nil || f < 0 {
		return 0, false
	}
	return f, true
}

// nodeAttrs is implemented by *svgdom.Node
type nodeAttrs interface {
	Attr(name string) (string, bool)
}

// number parses an attribute as a plain number, falling back to `def`.
func (c *converter) number(n nodeAttrs, name string, def float64) float64 {
	v, ok := n.Attr(name)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		c.warn("invalid number", "attribute", name, "value", v)
		return def
	}
	return f
}

// opacity parses an opacity value, clamped to [0, 1].
func (c *converter) opacity(s *style, name string) float64 {
	v, ok := s.get(name)
	if !ok {
		return 1
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		c.warn("invalid opacity", "property", name, "value", v)
		return 1
	}
	return math.Max(0, math.Min(1, f))
}

func (c *converter) transform(n nodeAttrs, name string) svgpath.Matrix2D {
	v, ok := n.Attr(name)
	if !ok {
		return svgpath.Identity
	}
	m, err := svgpath.ParseTransform(v)
	if err != nil {
		c.warn("invalid transform", "attribute", name, "value", v)
	}
	return m
}

func (c *converter) units(n nodeAttrs, name string, def svgtree.Units) svgtree.Units {
	v, _ := n.Attr(name)
	switch strings.TrimSpace(v) {
	case "userSpaceOnUse":
		return svgtree.UserSpaceOnUse
	case "objectBoundingBox":
		return svgtree.ObjectBoundingBox
	}
	return def
}

func parseViewBox(v string) (svgpath.Rect, bool) {
	fs, err := svgpath.ParseNumbers(v)
	if err != nil || len(fs) != 4 || fs[2] <= 0 || fs[3] <= 0 {
		return svgpath.Rect{}, false
	}
	return svgpath.Rect{X: fs[0], Y: fs[1], W: fs[2], H: fs[3]}, true
}

func parseAspectRatio(v string) svgtree.AspectRatio {
	fields := strings.Fields(v)
	if len(fields) > 0 && fields[0] == "defer" {
		fields = fields[1:]
	}
	var out svgtree.AspectRatio
	if len(fields) > 0 {
		out.Align, _ = svgtree.ParseAlign(fields[0])
	}
	if len(fields) > 1 {
		out.Slice = fields[1] == "slice"
	}
	return out
}

func (c *converter) viewBoxOf(n *svgdom.Node) *svgtree.ViewBox {
	v, ok := n.Attr("viewBox")
	if !ok {
		return nil
	}
	rect, ok := parseViewBox(v)
	if !ok {
		c.warn("invalid viewBox", "tag", n.Tag, "value", v)
		return nil
	}
	ar, _ := n.Attr("preserveAspectRatio")
	return &svgtree.ViewBox{Rect: rect, AspectRatio: parseAspectRatio(ar)}
}

// parseURL parses `url(#id)`, returning the id and the
// remaining content, used as fallback for paints.
func parseURL(v string) (id, rest string, ok bool) {
	v = strings.TrimSpace(v)
	if !strings.HasPrefix(v, "url(") {
		return "", "", false
	}
	end := strings.IndexByte(v, ')')
	if end == -1 {
		return "", "", false
	}
	inner := strings.Trim(strings.TrimSpace(v[4:end]), `'"`)
	if !strings.HasPrefix(inner, "#") {
		return "", "", false
	}
	return inner[1:], strings.TrimSpace(v[end+1:]), true
}

// parseHref returns the id referenced by a local IRI (`#id`).
func parseHref(n *svgdom.Node) (string, bool) {
	v, ok := n.Attr("xlink:href")
	if !ok {
		v, ok = n.Attr("href") // SVG 2
	}
	v = strings.TrimSpace(v)
	if !ok || !strings.HasPrefix(v, "#") {
		return "", false
	}
	return v[1:], true
}

var errInvalidColor = errors.New("invalid color")

func parseHexColor(v string) (svgtree.Color, error) {
	hex := v[1:]
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return svgtree.Color{}, fmt.Errorf("%w: %q", errInvalidColor, v)
	}
	rgb, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return svgtree.Color{}, fmt.Errorf("%w: %q", errInvalidColor, v)
	}
	return svgtree.Color{R: uint8(rgb >> 16), G: uint8(rgb >> 8), B: uint8(rgb)}, nil
}

func parseColorComponent(v string) (uint8, error) {
	v = strings.TrimSpace(v)
	var f float64
	if strings.HasSuffix(v, "%") {
		p, err := strconv.ParseFloat(strings.TrimSuffix(v, "%"), 64)
		if err != nil {
			return 0, err
		}
		f = p / 100 * 255
	} else {
		var err error
		if f, err = strconv.ParseFloat(v, 64); err != nil {
			return 0, err
		}
	}
	return uint8(math.Round(math.Max(0, math.Min(255, f)))), nil
}

// parseColor parses a SVG color. `currentColor` is resolved
// with the `color` property of `s`.
func parseColor(v string, s *style) (svgtree.Color, error) {
	v = strings.TrimSpace(v)
	lower := strings.ToLower(v)
	switch {
	case v == "":
		return svgtree.Color{}, errInvalidColor
	case lower == "currentcolor":
		if s == nil {
			return svgtree.Black, nil
		}
		cv, ok := s.get("color")
		if !ok || strings.EqualFold(cv, "currentColor") {
			return svgtree.Black, nil
		}
		return parseColor(cv, nil)
	case v[0] == '#':
		return parseHexColor(v)
	case strings.HasPrefix(lower, "rgb(") && strings.HasSuffix(lower, ")"):
		comps := strings.Split(v[4:len(v)-1], ",")
		if len(comps) != 3 {
			return svgtree.Color{}, fmt.Errorf("%w: %q", errInvalidColor, v)
		}
		var rgb [3]uint8
		for i, comp := range comps {
			c, err := parseColorComponent(comp)
			if err != nil {
				return svgtree.Color{}, fmt.Errorf("%w: %q", errInvalidColor, v)
			}
			rgb[i] = c
		}
		return svgtree.Color{R: rgb[0], G: rgb[1], B: rgb[2]}, nil
	}
	if named, ok := colornames.Map[lower]; ok {
		return svgtree.Color{R: named.R, G: named.G, B: named.B}, nil
	}
	return svgtree.Color{}, fmt.Errorf("%w: %q", errInvalidColor, v)
}
