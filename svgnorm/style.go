package svgnorm

import (
	"strings"

	"github.com/benoitkugler/svgtree/svgdom"
	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// inherited lists the supported properties propagating to descendants
var inherited = map[string]bool{
	"fill":              true,
	"fill-opacity":      true,
	"fill-rule":         true,
	"stroke":            true,
	"stroke-width":      true,
	"stroke-opacity":    true,
	"stroke-linecap":    true,
	"stroke-linejoin":   true,
	"stroke-miterlimit": true,
	"stroke-dasharray":  true,
	"stroke-dashoffset": true,
	"clip-rule":         true,
	"visibility":        true,
	"color":             true,
	"font-family":       true,
	"font-size":         true,
	"font-style":        true,
	"font-weight":       true,
	"text-anchor":       true,
	"marker-start":      true,
	"marker-mid":        true,
	"marker-end":        true,
}

// nonInherited lists the supported properties applying only
// to the element they are specified on
var nonInherited = map[string]bool{
	"opacity":      true,
	"clip-path":    true,
	"mask":         true,
	"filter":       true,
	"display":      true,
	"stop-color":   true,
	"stop-opacity": true,
	"overflow":     true,
}

// parseStyleAttr splits the `style` attribute into declarations
func parseStyleAttr(s string) []svgdom.Attr {
	var out []svgdom.Attr
	parser := css.NewParser(parse.NewInputString(s), true)
	for {
		gt, tt, data := parser.Next()
		if gt == css.ErrorGrammar {
			if tt == css.ErrorToken {
				break
			}
			continue // invalid declaration
		}
		if gt != css.DeclarationGrammar {
			continue
		}
		// white space is not reported by the parser
		var value strings.Builder
		for i, val := range parser.Values() {
			if i > 0 && val.TokenType != css.CommaToken && val.TokenType != css.RightParenthesisToken &&
				!strings.HasSuffix(value.String(), "(") {
				value.WriteByte(' ')
			}
			value.Write(val.Data)
		}
		out = append(out, svgdom.Attr{Name: string(data), Value: strings.TrimSpace(value.String())})
	}
	return out
}

// specified returns the properties set on the element, by presentation
// attributes or by its `style` attribute, which takes precedence.
func specified(n *svgdom.Node) map[string]string {
	out := make(map[string]string)
	var styleAttr string
	for _, attr := range n.Attrs {
		if attr.Name == "style" {
			styleAttr = attr.Value
		} else if inherited[attr.Name] || nonInherited[attr.Name] {
			out[attr.Name] = strings.TrimSpace(attr.Value)
		}
	}
	for _, decl := range parseStyleAttr(styleAttr) {
		if inherited[decl.Name] || nonInherited[decl.Name] {
			out[decl.Name] = decl.Value
		}
	}
	return out
}

// style is the computed style of an element.
// It is never mutated once built : child styles are derived
// from their parent with the child method.
type style struct {
	inherited map[string]string
	local     map[string]string // non inherited properties
	fontSize  float64           // resolved, in user units
}

func (c *converter) initialStyle() *style {
	return &style{
		inherited: map[string]string{},
		local:     map[string]string{},
		fontSize:  c.opts.FontSize,
	}
}

// child returns the style of `n`, given its parent style.
func (c *converter) child(parent *style, n *svgdom.Node) *style {
	props := specified(n)
	out := &style{
		inherited: make(map[string]string, len(parent.inherited)),
		local:     make(map[string]string),
		fontSize:  parent.fontSize,
	}
	for k, v := range parent.inherited {
		out.inherited[k] = v
	}
	for k, v := range props {
		if inherited[k] {
			if v == "inherit" {
				continue // already copied
			}
			out.inherited[k] = v
		} else {
			if v == "inherit" {
				if pv, ok := parent.local[k]; ok {
					out.local[k] = pv
				}
				continue
			}
			out.local[k] = v
		}
	}
	if v, ok := props["font-size"]; ok && v != "inherit" {
		if fs, ok := c.fontSize(v, parent.fontSize); ok {
			out.fontSize = fs
		} else {
			c.warn("invalid font-size", "tag", n.Tag, "value", v)
		}
	}
	return out
}

// get returns the computed value of the property, if specified.
func (s *style) get(name string) (string, bool) {
	if inherited[name] {
		v, ok := s.inherited[name]
		return v, ok
	}
	v, ok := s.local[name]
	return v, ok
}

// styleOf returns the style of an element, computed from its ancestors.
// It is used for elements instantiated outside of their
// document position (definitions content).
func (c *converter) styleOf(n *svgdom.Node) *style {
	if s, ok := c.styles[n]; ok {
		return s
	}
	var s *style
	if parent := c.doc.Parent(n); parent != nil {
		s = c.child(c.styleOf(parent), n)
	} else {
		s = c.child(c.initialStyle(), n)
	}
	c.styles[n] = s
	return s
}
