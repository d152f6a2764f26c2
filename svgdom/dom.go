// Package svgdom provides a minimal attributed document model
// for SVG files: a tree of elements with ordered attributes
// and ordered children, indexed by id.
//
// No SVG semantic is applied at this stage: see the svgnorm
// package for the conversion into a render tree.
package svgdom

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/net/html/charset"
)

// ErrMalformed is returned when the input is not a well formed XML document.
var ErrMalformed = errors.New("svgdom: malformed document")

const (
	svgNamespace   = "http://www.w3.org/2000/svg"
	xlinkNamespace = "http://www.w3.org/1999/xlink"
	xmlNamespace   = "http://www.w3.org/XML/1998/namespace"
)

// Attr is an element attribute.
// Names are local names, except for `xlink:href` and `xml:space`.
type Attr struct {
	Name, Value string
}

// Node is either an element, or character data when Tag is empty.
type Node struct {
	Tag      string
	Attrs    []Attr
	Children []*Node
	Text     string // character data, only for text nodes
}

// IsText returns true for character data nodes.
func (n *Node) IsText() bool { return n.Tag == "" }

// Attr returns the value of the attribute `name`, or
// an empty string and false if it is not present.
func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// ID returns the (trimmed) id attribute of the node.
func (n *Node) ID() string {
	id, _ := n.Attr("id")
	return strings.TrimSpace(id)
}

// Elements returns the element children, skipping character data.
func (n *Node) Elements() []*Node {
	out := make([]*Node, 0, len(n.Children))
	for _, c := range n.Children {
		if !c.IsText() {
			out = append(out, c)
		}
	}
	return out
}

// Document is a parsed SVG file.
type Document struct {
	Root *Node

	ids     map[string]*Node
	parents map[*Node]*Node
}

// NewDocument builds the id and parent indexes of the tree rooted at `root`.
func NewDocument(root *Node) *Document {
	doc := &Document{Root: root, ids: make(map[string]*Node), parents: make(map[*Node]*Node)}
	doc.index(root)
	return doc
}

func (doc *Document) index(n *Node) {
	if id := n.ID(); id != "" {
		if _, has := doc.ids[id]; !has { // first occurrence wins
			doc.ids[id] = n
		}
	}
	for _, c := range n.Children {
		doc.parents[c] = n
		doc.index(c)
	}
}

// ElementByID returns the first element with the given id, or nil.
func (doc *Document) ElementByID(id string) *Node { return doc.ids[id] }

// Parent returns the parent of `n`, or nil for the root.
func (doc *Document) Parent(n *Node) *Node { return doc.parents[n] }

// Ancestors returns the ancestors of `n`, starting with its parent.
func (doc *Document) Ancestors(n *Node) []*Node {
	var out []*Node
	for p := doc.parents[n]; p != nil; p = doc.parents[p] {
		out = append(out, p)
	}
	return out
}

func attrName(name xml.Name) (string, bool) {
	switch name.Space {
	case "", svgNamespace:
		return name.Local, true
	case xlinkNamespace, "xlink":
		return "xlink:" + name.Local, true
	case xmlNamespace, "xml":
		return "xml:" + name.Local, true
	case "xmlns":
		return "", false
	}
	return "", false
}

// Parse reads a SVG document from `stream`.
// Character encodings are handled through the XML prolog.
func Parse(stream io.Reader) (*Document, error) {
	decoder := xml.NewDecoder(stream)
	decoder.CharsetReader = charset.NewReaderLabel

	var (
		root  *Node
		stack []*Node
	)
	for {
		t, err := decoder.Token()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("%w: %s", ErrMalformed, err)
		}
		// Inspect the type of the XML token
		switch se := t.(type) {
		case xml.StartElement:
			node := &Node{Tag: se.Name.Local}
			if ns := se.Name.Space; ns != "" && ns != svgNamespace {
				// foreign element, which will never match a SVG tag
				node.Tag = ns + ":" + se.Name.Local
			}
			for _, attr := range se.Attr {
				if name, ok := attrName(attr.Name); ok && name != "xmlns" {
					node.Attrs = append(node.Attrs, Attr{Name: name, Value: attr.Value})
				}
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("%w: multiple root elements", ErrMalformed)
				}
				root = node
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, node)
			}
			stack = append(stack, node)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) == 0 {
				continue
			}
			parent := stack[len(stack)-1]
			if n := len(parent.Children); n > 0 && parent.Children[n-1].IsText() {
				parent.Children[n-1].Text += string(se)
			} else {
				parent.Children = append(parent.Children, &Node{Text: string(se)})
			}
		}
	}
	if root == nil {
		return nil, fmt.Errorf("%w: no root element", ErrMalformed)
	}
	return NewDocument(root), nil
}

// ParseString is a convenience wrapper around Parse.
func ParseString(s string) (*Document, error) { return Parse(strings.NewReader(s)) }

// ReadFile reads the SVG document from the named file.
func ReadFile(filename string) (*Document, error) {
	fin, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer fin.Close()
	return Parse(fin)
}
