// Command drawbboxes renders a SVG file, overlaying the
// bounding box of every node.
package main

import (
	"fmt"
	"image/png"
	"log/slog"
	"os"

	"github.com/benoitkugler/svgtree/svgnorm"
	"github.com/benoitkugler/svgtree/svgpath"
	"github.com/benoitkugler/svgtree/svgraster"
	"github.com/benoitkugler/svgtree/svgtree"
	"github.com/tdewolff/argp"
)

type DrawBBoxes struct {
	Zoom    float64 `short:"z" default:"1" desc:"Zoom factor"`
	Config  string  `short:"c" desc:"TOML configuration file"`
	Verbose bool    `short:"v" desc:"Log the anomalies found in the document"`
	Input   string  `index:"0" desc:"Input SVG file"`
	Output  string  `index:"1" desc:"Output PNG file"`
}

func main() {
	root := argp.NewCmd(&DrawBBoxes{}, "Render a SVG file with the bounding boxes of its nodes")
	root.Parse()
	root.PrintHelp()
}

func (cmd *DrawBBoxes) options() (svgnorm.Options, error) {
	opts := svgnorm.DefaultOptions()
	if cmd.Config != "" {
		f, err := os.Open(cmd.Config)
		if err != nil {
			return opts, err
		}
		defer f.Close()
		if opts, err = svgnorm.LoadOptions(f); err != nil {
			return opts, err
		}
	}
	opts.KeepNamedGroups = true
	if cmd.Verbose {
		opts.ErrorMode = svgnorm.WarnErrorMode
		opts.Logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	return opts, nil
}

func (cmd *DrawBBoxes) Run() error {
	if cmd.Input == "" || cmd.Output == "" {
		return argp.ShowUsage
	}
	opts, err := cmd.options()
	if err != nil {
		return err
	}
	tree, err := svgnorm.ParseFile(cmd.Input, opts)
	if err != nil {
		return err
	}

	overlayBBoxes(tree)

	img, err := svgraster.Render(tree, cmd.Zoom)
	if err != nil {
		return err
	}
	out, err := os.Create(cmd.Output)
	if err != nil {
		return err
	}
	if err = png.Encode(out, img); err != nil {
		out.Close()
		return fmt.Errorf("encoding %s: %w", cmd.Output, err)
	}
	return out.Close()
}

// overlayBBoxes appends a red rectangle for the bounding box
// of each rendered node.
func overlayBBoxes(tree *svgtree.Tree) {
	var bboxes []svgpath.Rect
	for n := range tree.Descendants() {
		if tree.IsInDefs(n) {
			continue
		}
		if bbox, ok := tree.BBox(n); ok {
			bboxes = append(bboxes, bbox)
		}
	}

	stroke := svgtree.DefaultStroke(svgtree.Color{R: 255})
	stroke.Opacity = 0.5
	for _, bbox := range bboxes {
		var segments svgpath.Path
		segments.AddRect(bbox.X, bbox.Y, bbox.W, bbox.H)
		tree.Append(&svgtree.Node{
			Transform: svgpath.Identity,
			Kind:      &svgtree.Path{Stroke: stroke, Segments: segments},
		})
	}
}
