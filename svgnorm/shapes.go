package svgnorm

import (
	"math"

	"github.com/benoitkugler/svgtree/svgdom"
	"github.com/benoitkugler/svgtree/svgpath"
	"github.com/benoitkugler/svgtree/svgtree"
)

// segments returns the geometry of a basic shape or path, in its
// own coordinates. It returns nil for invalid geometries, which
// are not rendered.
func (c *converter) segments(n *svgdom.Node, s *style) svgpath.Path {
	var path svgpath.Path
	switch n.Tag {
	case "rect":
		x := c.length(n, s, "x", horizontal, 0)
		y := c.length(n, s, "y", vertical, 0)
		w := c.length(n, s, "width", horizontal, 0)
		h := c.length(n, s, "height", vertical, 0)
		if w <= 0 || h <= 0 {
			c.warn("rect with invalid size", "id", n.ID())
			return nil
		}
		rx, ry := c.radii(n, s)
		rx, ry = math.Min(rx, w/2), math.Min(ry, h/2)
		if rx > 0 && ry > 0 {
			path.AddRoundRect(x, y, w, h, rx, ry)
		} else {
			path.AddRect(x, y, w, h)
		}
	case "circle":
		cx := c.length(n, s, "cx", horizontal, 0)
		cy := c.length(n, s, "cy", vertical, 0)
		r := c.length(n, s, "r", diagonal, 0)
		if r <= 0 {
			c.warn("circle with invalid radius", "id", n.ID())
			return nil
		}
		path.AddEllipse(cx, cy, r, r)
	case "ellipse":
		cx := c.length(n, s, "cx", horizontal, 0)
		cy := c.length(n, s, "cy", vertical, 0)
		rx := c.length(n, s, "rx", horizontal, 0)
		ry := c.length(n, s, "ry", vertical, 0)
		if rx <= 0 || ry <= 0 {
			c.warn("ellipse with invalid radius", "id", n.ID())
			return nil
		}
		path.AddEllipse(cx, cy, rx, ry)
	case "line":
		x1 := c.length(n, s, "x1", horizontal, 0)
		y1 := c.length(n, s, "y1", vertical, 0)
		x2 := c.length(n, s, "x2", horizontal, 0)
		y2 := c.length(n, s, "y2", vertical, 0)
		path.Start(svgpath.Point{X: x1, Y: y1})
		path.Line(svgpath.Point{X: x2, Y: y2})
	case "polyline", "polygon":
		v, _ := n.Attr("points")
		coords, err := svgpath.ParseNumbers(v)
		if err != nil {
			c.warn("invalid points", "id", n.ID(), "err", err)
		}
		if len(coords)%2 == 1 {
			coords = coords[:len(coords)-1]
		}
		if len(coords) < 4 {
			c.warn("polyline with less than two points", "id", n.ID())
			return nil
		}
		points := make([]svgpath.Point, len(coords)/2)
		for i := range points {
			points[i] = svgpath.Point{X: coords[2*i], Y: coords[2*i+1]}
		}
		path.AddPolyline(points, n.Tag == "polygon")
	case "path":
		d, _ := n.Attr("d")
		var err error
		path, err = svgpath.ParsePath(d)
		if err != nil {
			// the valid prefix is kept
			c.warn("invalid path data", "id", n.ID(), "err", err)
		}
	}

	path = path.Simplify()
	if bbox, ok := path.BBox(svgpath.Identity); !ok || (bbox.W == 0 && bbox.H == 0) || !isFinite(bbox.X, bbox.Y, bbox.W, bbox.H) {
		return nil
	}
	return path
}

// radii resolves the rx and ry attributes of a rect,
// where a missing radius defaults to the other one.
func (c *converter) radii(n *svgdom.Node, s *style) (rx, ry float64) {
	_, hasX := n.Attr("rx")
	_, hasY := n.Attr("ry")
	rx = c.length(n, s, "rx", horizontal, 0)
	ry = c.length(n, s, "ry", vertical, 0)
	switch {
	case hasX && !hasY:
		ry = rx
	case hasY && !hasX:
		rx = ry
	}
	return math.Max(rx, 0), math.Max(ry, 0)
}

// convertShape returns the path of a shape, followed by its markers.
func (c *converter) convertShape(n *svgdom.Node, s *style, tr svgpath.Matrix2D) []*svgtree.Node {
	segments := c.segments(n, s)
	if segments == nil {
		return nil
	}
	bbox, _ := segments.BBox(svgpath.Identity)
	path := &svgtree.Path{Segments: segments, Visibility: visibility(s)}
	var hide bool
	path.Fill, hide = c.fill(s, bbox)
	path.Stroke = c.stroke(s, bbox)
	if hide {
		path.Visibility = svgtree.Hidden
	}
	nodes := []*svgtree.Node{{ID: c.nodeID(n), Transform: tr, Kind: path}}
	if n.Tag != "rect" && n.Tag != "circle" && n.Tag != "ellipse" {
		nodes = append(nodes, c.markers(s, tr, segments)...)
	}
	return nodes
}

// clipShape returns the path of a clip path child: only the
// geometry and the clip rule are relevant.
func (c *converter) clipShape(n *svgdom.Node, s *style, tr svgpath.Matrix2D) *svgtree.Node {
	segments := c.segments(n, s)
	if segments == nil {
		return nil
	}
	fill := svgtree.DefaultFill()
	fill.Rule = fillRule(s, "clip-rule")
	path := &svgtree.Path{Fill: fill, Visibility: visibility(s), Segments: segments}
	return &svgtree.Node{ID: c.nodeID(n), Transform: tr, Kind: path}
}
