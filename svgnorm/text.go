package svgnorm

import (
	"strings"

	"github.com/benoitkugler/svgtree/svgdom"
	"github.com/benoitkugler/svgtree/svgpath"
	"github.com/benoitkugler/svgtree/svgtree"
	"golang.org/x/text/unicode/norm"
)

// textBuilder accumulates the chunks of a text element.
type textBuilder struct {
	c      *converter
	chunks []svgtree.TextChunk
	styles [][]*style // style of each span, used to resolve paints

	lastSpace bool // the last collapsible character was a space
}

func (c *converter) convertText(n *svgdom.Node, s *style, tr svgpath.Matrix2D) *svgtree.Node {
	b := textBuilder{c: c}
	b.newChunk(n, s)
	b.collect(n, s, isPreserve(n, false))
	b.trimEnd()

	text := &svgtree.Text{}
	var styles [][]*style
	for i, chunk := range b.chunks {
		var (
			spans      []svgtree.TextSpan
			spanStyles []*style
		)
		for j, span := range chunk.Spans {
			if span.Text != "" {
				spans = append(spans, span)
				spanStyles = append(spanStyles, b.styles[i][j])
			}
		}
		if len(spans) == 0 {
			continue
		}
		chunk.Spans = spans
		text.Chunks = append(text.Chunks, chunk)
		styles = append(styles, spanStyles)
	}
	if len(text.Chunks) == 0 {
		return nil
	}

	// paint servers are resolved using the bounding box
	// of the whole text element
	bbox, _ := svgtree.GeometryBBox(&svgtree.Node{Transform: svgpath.Identity, Kind: text})
	for i := range text.Chunks {
		for j := range text.Chunks[i].Spans {
			span, st := &text.Chunks[i].Spans[j], styles[i][j]
			var hide bool
			span.Fill, hide = c.fill(st, bbox)
			span.Stroke = c.stroke(st, bbox)
			if hide {
				span.Visibility = svgtree.Hidden
			}
		}
	}
	return &svgtree.Node{ID: c.nodeID(n), Transform: tr, Kind: text}
}

// isPreserve returns the xml:space mode of the element
func isPreserve(n *svgdom.Node, parent bool) bool {
	switch v, _ := n.Attr("xml:space"); v {
	case "preserve":
		return true
	case "default":
		return false
	}
	return parent
}

func (b *textBuilder) collect(n *svgdom.Node, s *style, preserve bool) {
	for _, child := range n.Children {
		if child.IsText() {
			b.addText(child.Text, s, preserve)
			continue
		}
		switch child.Tag {
		case "tspan", "a":
		default:
			continue
		}
		cs := b.c.child(s, child)
		if v, _ := cs.get("display"); v == "none" {
			continue
		}
		if child.Tag == "tspan" {
			_, hasX := child.Attr("x")
			_, hasY := child.Attr("y")
			if hasX || hasY {
				b.trimEnd()
				b.newChunk(child, cs)
			}
		}
		b.collect(child, cs, isPreserve(child, preserve))
	}
}

// firstLength resolves the first value of a list of lengths,
// as used by the x and y attributes of text elements.
func (c *converter) firstLength(n *svgdom.Node, s *style, name string, dir direction) *float64 {
	v, ok := n.Attr(name)
	if !ok {
		return nil
	}
	fields := strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' || r == '\n' })
	if len(fields) == 0 {
		return nil
	}
	l, err := parseLength(fields[0])
	if err != nil {
		c.warn("invalid text position", "attribute", name, "value", v)
		return nil
	}
	f, err := c.toUser(l, s.fontSize, c.percentRef(dir))
	if err != nil {
		return nil
	}
	return &f
}

func (b *textBuilder) newChunk(n *svgdom.Node, s *style) {
	chunk := svgtree.TextChunk{
		X: b.c.firstLength(n, s, "x", horizontal),
		Y: b.c.firstLength(n, s, "y", vertical),
	}
	switch v, _ := s.get("text-anchor"); v {
	case "middle":
		chunk.Anchor = svgtree.AnchorMiddle
	case "end":
		chunk.Anchor = svgtree.AnchorEnd
	}
	b.chunks = append(b.chunks, chunk)
	b.styles = append(b.styles, nil)
	b.lastSpace = true // leading spaces are removed
}

// addText appends the character data `text`, applying
// the white space handling rules.
func (b *textBuilder) addText(text string, s *style, preserve bool) {
	var sb strings.Builder
	for _, r := range norm.NFC.String(text) {
		switch r {
		case '\r':
			continue
		case '\n':
			if !preserve {
				continue
			}
			r = ' '
		case '\t':
			r = ' '
		}
		if preserve {
			b.lastSpace = false
		} else if r == ' ' {
			if b.lastSpace {
				continue
			}
			b.lastSpace = true
		} else {
			b.lastSpace = false
		}
		sb.WriteRune(r)
	}
	if sb.Len() == 0 {
		return
	}

	index := len(b.chunks) - 1
	chunk := &b.chunks[index]
	if l := len(chunk.Spans); l > 0 && b.styles[index][l-1] == s {
		chunk.Spans[l-1].Text += sb.String()
		return
	}
	chunk.Spans = append(chunk.Spans, svgtree.TextSpan{
		Font:       b.c.font(s),
		Visibility: visibility(s),
		Text:       sb.String(),
	})
	b.styles[index] = append(b.styles[index], s)
}

// trimEnd removes the trailing collapsible space of the current chunk.
func (b *textBuilder) trimEnd() {
	if !b.lastSpace || len(b.chunks) == 0 {
		return
	}
	spans := b.chunks[len(b.chunks)-1].Spans
	for i := len(spans) - 1; i >= 0; i-- {
		if spans[i].Text != "" {
			spans[i].Text = strings.TrimSuffix(spans[i].Text, " ")
			return
		}
	}
}

func (c *converter) font(s *style) svgtree.Font {
	out := svgtree.Font{Family: c.opts.FontFamily, Size: s.fontSize, Weight: 400}
	if v, ok := s.get("font-family"); ok {
		var names []string
		for _, name := range strings.Split(v, ",") {
			if name = strings.Trim(strings.TrimSpace(name), `'"`); name != "" {
				names = append(names, name)
			}
		}
		if len(names) > 0 {
			out.Family = strings.Join(names, ", ")
		}
	}
	switch v, _ := s.get("font-style"); v {
	case "italic":
		out.Style = svgtree.StyleItalic
	case "oblique":
		out.Style = svgtree.StyleOblique
	}
	switch v, _ := s.get("font-weight"); v {
	case "", "normal":
	case "bold", "bolder":
		out.Weight = 700
	case "lighter":
		out.Weight = 100
	default:
		if w := parseWeight(v); w != 0 {
			out.Weight = w
		} else {
			c.warn("invalid font-weight", "value", v)
		}
	}
	return out
}

// parseWeight accepts 100, 200, ..., 900
func parseWeight(v string) int {
	if len(v) == 3 && v[0] >= '1' && v[0] <= '9' && v[1:] == "00" {
		return int(v[0]-'0') * 100
	}
	return 0
}
