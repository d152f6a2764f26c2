package svgnorm

import (
	"math"
	"strconv"
	"strings"

	"github.com/benoitkugler/svgtree/svgdom"
	"github.com/benoitkugler/svgtree/svgpath"
	"github.com/benoitkugler/svgtree/svgtree"
)

// vertex is a point of a path where markers may be drawn.
// Angles are in radians.
type vertex struct {
	pt      svgpath.Point
	in, out float64 // direction of the incoming and outgoing segments
	hasIn   bool
	hasOut  bool
}

func heading(from, to svgpath.Point) (float64, bool) {
	dx, dy := to.X-from.X, to.Y-from.Y
	if dx == 0 && dy == 0 {
		return 0, false
	}
	return math.Atan2(dy, dx), true
}

// tangent returns the first non degenerate direction along the given points
func tangent(points ...svgpath.Point) (float64, bool) {
	for i := 1; i < len(points); i++ {
		if a, ok := heading(points[0], points[i]); ok {
			return a, true
		}
	}
	return 0, false
}

// vertices returns the vertices of a path, in drawing order.
func vertices(path svgpath.Path) []vertex {
	var (
		out            []vertex
		current, start svgpath.Point
		startIndex     int
	)
	addSegment := func(end svgpath.Point, outAngle, inAngle float64, ok bool) {
		if len(out) == 0 {
			out = append(out, vertex{pt: current})
		}
		if last := &out[len(out)-1]; ok {
			last.out, last.hasOut = outAngle, true
		}
		v := vertex{pt: end}
		if ok {
			v.in, v.hasIn = inAngle, true
		}
		out = append(out, v)
		current = end
	}
	for _, op := range path {
		switch op := op.(type) {
		case svgpath.MoveTo:
			current, start = svgpath.Point(op), svgpath.Point(op)
			startIndex = len(out)
			out = append(out, vertex{pt: current})
		case svgpath.LineTo:
			a, ok := heading(current, svgpath.Point(op))
			addSegment(svgpath.Point(op), a, a, ok)
		case svgpath.CubicTo:
			outAngle, ok1 := tangent(current, op[0], op[1], op[2])
			inAngle, ok2 := tangent(op[2], op[1], op[0], current)
			addSegment(op[2], outAngle, inAngle+math.Pi, ok1 && ok2)
		case svgpath.Close:
			a, ok := heading(current, start)
			addSegment(start, a, a, ok)
			// the closing vertex joins the first segment of the subpath
			first := out[startIndex]
			if last := &out[len(out)-1]; first.hasOut {
				last.out, last.hasOut = first.out, true
			}
		}
	}
	return out
}

// bisector returns the marker orientation at a vertex
func (v vertex) bisector() float64 {
	switch {
	case v.hasIn && v.hasOut:
		d := v.out - v.in
		// shortest rotation
		if d > math.Pi {
			d -= 2 * math.Pi
		} else if d < -math.Pi {
			d += 2 * math.Pi
		}
		return v.in + d/2
	case v.hasIn:
		return v.in
	default:
		return v.out
	}
}

var markerProps = [...]string{"marker-start", "marker-mid", "marker-end"}

// markers instantiates the markers of a path, returning
// one group per vertex and marker.
func (c *converter) markers(s *style, tr svgpath.Matrix2D, path svgpath.Path) []*svgtree.Node {
	var (
		out   []*svgtree.Node
		verts []vertex
	)
	for i, prop := range markerProps {
		v, ok := s.get(prop)
		if !ok || v == "none" {
			continue
		}
		id, _, isURL := parseURL(v)
		if !isURL {
			continue
		}
		el := c.doc.ElementByID(id)
		if el == nil || el.Tag != "marker" {
			c.warn("missing marker", "id", id)
			continue
		}
		key := "marker:" + id
		if c.inProgress[key] {
			c.warn("recursive marker", "id", id)
			continue
		}
		if verts == nil {
			verts = vertices(path)
		}
		var selected []vertex
		switch i {
		case 0:
			selected = verts[:1]
		case 1:
			if len(verts) > 2 {
				selected = verts[1 : len(verts)-1]
			}
		case 2:
			selected = verts[len(verts)-1:]
		}
		c.inProgress[key] = true
		for _, vert := range selected {
			if node := c.instantiateMarker(el, s, tr, vert, i == 0); node != nil {
				out = append(out, node)
			}
		}
		delete(c.inProgress, key)
	}
	return out
}

func (c *converter) instantiateMarker(el *svgdom.Node, hostStyle *style, tr svgpath.Matrix2D, vert vertex, isStart bool) *svgtree.Node {
	s := c.styleOf(el)
	w := c.length(el, s, "markerWidth", horizontal, 3)
	h := c.length(el, s, "markerHeight", vertical, 3)
	if w <= 0 || h <= 0 {
		return nil
	}

	var angle float64
	switch orient, _ := el.Attr("orient"); strings.TrimSpace(orient) {
	case "auto":
		angle = vert.bisector()
	case "auto-start-reverse":
		angle = vert.bisector()
		if isStart {
			angle += math.Pi
		}
	case "":
	default:
		deg, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(orient), "deg"), 64)
		if err != nil {
			c.warn("invalid marker orient", "value", orient)
		}
		angle = deg * math.Pi / 180
	}

	m := tr.Translate(vert.pt.X, vert.pt.Y).Rotate(angle)
	if units, _ := el.Attr("markerUnits"); units != "userSpaceOnUse" {
		sw := c.styleLength(hostStyle, "stroke-width", diagonal, 1)
		m = m.Scale(sw, sw)
	}
	vb := c.viewBoxOf(el)
	if vb != nil {
		m = m.Mult(vb.Transform(w, h))
	}
	m = m.Translate(-c.number(el, "refX", 0), -c.number(el, "refY", 0))
	if !m.IsInvertible() {
		return nil
	}

	group := newGroupNode("", m, nil)
	c.instancing++
	c.pushViewport(vb, w, h)
	c.convertChildren(el, s, m, group)
	c.popViewport()
	c.instancing--
	if len(group.Children) == 0 {
		return nil
	}
	return group
}
