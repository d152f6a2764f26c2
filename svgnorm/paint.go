package svgnorm

import (
	"strconv"
	"strings"

	"github.com/benoitkugler/svgtree/svgpath"
	"github.com/benoitkugler/svgtree/svgtree"
)

func fillRule(s *style, name string) svgtree.FillRule {
	if v, _ := s.get(name); v == "evenodd" {
		return svgtree.EvenOdd
	}
	return svgtree.NonZero
}

// paint resolves a paint value, for an element with the given bounding box.
// A nil paint means none. `opacity` must be applied to the
// fill or stroke opacity, and `hide` is true when the element
// references an invalid pattern.
func (c *converter) paint(v string, s *style, bbox svgpath.Rect) (p svgtree.Paint, opacity float64, hide bool, err error) {
	if v == "none" {
		return nil, 1, false, nil
	}
	id, fallback, isURL := parseURL(v)
	if !isURL {
		col, err := parseColor(v, s)
		if err != nil {
			return nil, 1, false, err
		}
		return col, 1, false, nil
	}

	def, status := c.resolve(id, "linearGradient", "radialGradient", "pattern")
	switch status {
	case defInvalid:
		return nil, 1, true, nil
	case defMissing:
		c.warn("missing paint server", "id", id)
		if fallback == "" || fallback == "none" {
			return nil, 1, false, nil
		}
		col, err := parseColor(fallback, s)
		if err != nil {
			return nil, 1, false, err
		}
		return col, 1, false, nil
	}

	objectUnits := false
	switch def := def.(type) {
	case *svgtree.LinearGradient:
		stops := def.Stops
		if len(stops) <= 1 {
			return singleStop(stops)
		}
		if def.X1 == def.X2 && def.Y1 == def.Y2 {
			last := stops[len(stops)-1]
			return last.Color, last.Opacity, false, nil
		}
		objectUnits = def.Units == svgtree.ObjectBoundingBox
		p = svgtree.LinearGradientRef(id)
	case *svgtree.RadialGradient:
		stops := def.Stops
		if len(stops) <= 1 {
			return singleStop(stops)
		}
		if def.R <= 0 {
			last := stops[len(stops)-1]
			return last.Color, last.Opacity, false, nil
		}
		objectUnits = def.Units == svgtree.ObjectBoundingBox
		p = svgtree.RadialGradientRef(id)
	case *svgtree.Pattern:
		objectUnits = def.Units == svgtree.ObjectBoundingBox
		p = svgtree.PatternRef(id)
	}
	if objectUnits && bbox.IsEmpty() {
		// the object bounding box is undefined
		return nil, 1, false, nil
	}
	return p, 1, false, nil
}

func singleStop(stops []svgtree.Stop) (svgtree.Paint, float64, bool, error) {
	if len(stops) == 0 {
		return nil, 1, false, nil
	}
	return stops[0].Color, stops[0].Opacity, false, nil
}

// fill returns the resolved fill of an element, and true
// if the element must be hidden.
func (c *converter) fill(s *style, bbox svgpath.Rect) (*svgtree.Fill, bool) {
	v, ok := s.get("fill")
	if !ok {
		v = "black"
	}
	p, opacity, hide, err := c.paint(v, s, bbox)
	if err != nil {
		c.warn("invalid fill", "value", v, "err", err)
		p, opacity = svgtree.Black, 1
	}
	if p == nil {
		return nil, hide
	}
	return &svgtree.Fill{
		Paint:   p,
		Opacity: c.opacity(s, "fill-opacity") * opacity,
		Rule:    fillRule(s, "fill-rule"),
	}, false
}

func (c *converter) stroke(s *style, bbox svgpath.Rect) *svgtree.Stroke {
	v, ok := s.get("stroke")
	if !ok {
		return nil
	}
	p, opacity, _, err := c.paint(v, s, bbox)
	if err != nil {
		c.warn("invalid stroke", "value", v, "err", err)
		return nil
	}
	if p == nil {
		return nil
	}
	out := svgtree.DefaultStroke(p)
	out.Opacity = c.opacity(s, "stroke-opacity") * opacity
	out.Width = c.styleLength(s, "stroke-width", diagonal, 1)
	if out.Width <= 0 {
		return nil
	}
	switch v, _ := s.get("stroke-linecap"); v {
	case "round":
		out.LineCap = svgtree.RoundCap
	case "square":
		out.LineCap = svgtree.SquareCap
	}
	switch v, _ := s.get("stroke-linejoin"); v {
	case "round":
		out.LineJoin = svgtree.RoundJoin
	case "bevel":
		out.LineJoin = svgtree.BevelJoin
	}
	if v, ok := s.get("stroke-miterlimit"); ok {
		if ml, err := strconv.ParseFloat(v, 64); err == nil && ml >= 1 {
			out.MiterLimit = ml
		} else {
			c.warn("invalid stroke-miterlimit", "value", v)
		}
	}
	out.Dasharray = c.dasharray(s)
	if out.Dasharray != nil {
		out.Dashoffset = c.styleLength(s, "stroke-dashoffset", diagonal, 0)
	}
	return out
}

// dasharray returns nil for solid lines, including invalid
// and zero length patterns.
func (c *converter) dasharray(s *style) []float64 {
	v, ok := s.get("stroke-dasharray")
	if !ok || v == "none" {
		return nil
	}
	fields := strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' || r == '\n' })
	var (
		out []float64
		sum float64
	)
	for _, field := range fields {
		l, err := parseLength(field)
		if err != nil {
			c.warn("invalid stroke-dasharray", "value", v)
			return nil
		}
		f, err := c.toUser(l, s.fontSize, c.percentRef(diagonal))
		if err != nil || f < 0 {
			c.warn("invalid stroke-dasharray", "value", v)
			return nil
		}
		out = append(out, f)
		sum += f
	}
	if sum == 0 {
		return nil
	}
	if len(out)%2 == 1 {
		out = append(out, out...)
	}
	return out
}
