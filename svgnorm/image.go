package svgnorm

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/benoitkugler/svgtree/svgdom"
	"github.com/benoitkugler/svgtree/svgpath"
	"github.com/benoitkugler/svgtree/svgtree"
	"github.com/h2non/filetype"
	"github.com/tdewolff/parse/v2"
)

func (c *converter) convertImage(n *svgdom.Node, s *style, tr svgpath.Matrix2D) *svgtree.Node {
	view := svgpath.Rect{
		X: c.length(n, s, "x", horizontal, 0),
		Y: c.length(n, s, "y", vertical, 0),
		W: c.length(n, s, "width", horizontal, 0),
		H: c.length(n, s, "height", vertical, 0),
	}
	if view.IsEmpty() {
		c.warn("image with invalid size", "id", n.ID())
		return nil
	}
	href, ok := n.Attr("xlink:href")
	if !ok {
		href, _ = n.Attr("href")
	}
	data, ok := c.imageData(href)
	if !ok {
		c.warn("unsupported image", "id", n.ID())
		return nil
	}
	ar, _ := n.Attr("preserveAspectRatio")
	image := &svgtree.Image{
		Visibility:  visibility(s),
		View:        view,
		AspectRatio: parseAspectRatio(ar),
		Data:        data,
	}
	return &svgtree.Node{ID: c.nodeID(n), Transform: tr, Kind: image}
}

func imageKind(mime string) (svgtree.ImageKind, bool) {
	switch kind := svgtree.ImageKind(mime); kind {
	case svgtree.PNG, svgtree.JPEG, svgtree.GIF, svgtree.SVG:
		return kind, true
	}
	return "", false
}

// sniffKind detects the format of embedded data.
// SVG content is not recognized by signature.
func sniffKind(data []byte, mediatype string) (svgtree.ImageKind, bool) {
	if t, err := filetype.Match(data); err == nil {
		if kind, ok := imageKind(t.MIME.Value); ok {
			return kind, true
		}
	}
	if strings.HasPrefix(mediatype, string(svgtree.SVG)) || bytes.Contains(data, []byte("<svg")) {
		return svgtree.SVG, true
	}
	return "", false
}

// imageData resolves an image reference, which is either
// a data URL or a file path. Files are not read.
func (c *converter) imageData(href string) (svgtree.ImageData, bool) {
	href = strings.TrimSpace(href)
	if href == "" {
		return svgtree.ImageData{}, false
	}
	if strings.HasPrefix(href, "data:") {
		// base64 content is often wrapped
		href = strings.Map(func(r rune) rune {
			if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
				return -1
			}
			return r
		}, href)
		mediatype, data, err := parse.DataURI([]byte(href))
		if err != nil {
			c.warn("invalid data URL", "err", err)
			return svgtree.ImageData{}, false
		}
		kind, ok := sniffKind(data, string(mediatype))
		if !ok {
			return svgtree.ImageData{}, false
		}
		return svgtree.ImageData{Kind: kind, Raw: data}, true
	}

	href = strings.TrimPrefix(href, "file://")
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(href)), ".")
	var kind svgtree.ImageKind
	switch ext {
	case "svg", "svgz":
		kind = svgtree.SVG
	case "jpeg":
		kind = svgtree.JPEG
	default:
		var ok bool
		if kind, ok = imageKind(filetype.GetType(ext).MIME.Value); !ok {
			return svgtree.ImageData{}, false
		}
	}
	path := filepath.FromSlash(href)
	if !filepath.IsAbs(path) && c.opts.BasePath != "" {
		path = filepath.Join(c.opts.BasePath, path)
	}
	return svgtree.ImageData{Kind: kind, Path: path}, true
}
