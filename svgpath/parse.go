package svgpath

import (
	"fmt"
)

// pathParser accumulates the absolute segments of a path data string.
type pathParser struct {
	numberScanner
	path Path

	current, start Point // current point and subpath start
	ctrl           Point // last control point, for S and T
	prevCmd        byte
}

func isCommand(c byte) bool {
	switch c {
	case 'M', 'm', 'Z', 'z', 'L', 'l', 'H', 'h', 'V', 'v',
		'C', 'c', 'S', 's', 'Q', 'q', 'T', 't', 'A', 'a':
		return true
	}
	return false
}

// ParsePath parses the content of a `d` attribute.
// Relative commands are made absolute, H and V become lines,
// quadratic curves and arcs are converted to cubic curves.
// As required by SVG error handling, the segments parsed
// before an error are returned along with it.
func ParsePath(d string) (Path, error) {
	pp := pathParser{numberScanner: numberScanner{src: []byte(d)}}
	pp.skipSpaces()
	for !pp.done() {
		if err := pp.command(); err != nil {
			return pp.path, err
		}
	}
	return pp.path, nil
}

// pt reads a coordinate pair, made absolute if `rel` is true.
func (pp *pathParser) pt(rel bool) (Point, error) {
	x, err := pp.number()
	if err != nil {
		return Point{}, err
	}
	y, err := pp.number()
	if err != nil {
		return Point{}, err
	}
	if rel {
		x += pp.current.X
		y += pp.current.Y
	}
	return Point{x, y}, nil
}

func (pp *pathParser) command() error {
	cmd := pp.prevCmd
	if c := pp.src[pp.pos]; isCommand(c) {
		cmd = c
		pp.pos++
		pp.skipSpaces()
	} else if cmd == 0 || cmd == 'Z' || cmd == 'z' {
		return fmt.Errorf("svgpath: unexpected %q at offset %d", c, pp.pos)
	}
	if len(pp.path) == 0 && cmd != 'M' && cmd != 'm' {
		return fmt.Errorf("svgpath: path data must start with a move to, got %q", cmd)
	}

	rel := 'a' <= cmd && cmd <= 'z'
	switch cmd {
	case 'M', 'm':
		p, err := pp.pt(rel)
		if err != nil {
			return err
		}
		pp.path.Start(p)
		pp.current, pp.start = p, p
		// subsequent pairs are implicit line to
		pp.prevCmd = cmd - ('M' - 'L')
		pp.ctrl = p
		return nil
	case 'Z', 'z':
		pp.path.Stop(true)
		pp.current = pp.start
	case 'L', 'l':
		p, err := pp.pt(rel)
		if err != nil {
			return err
		}
		pp.path.Line(p)
		pp.current = p
	case 'H', 'h':
		x, err := pp.number()
		if err != nil {
			return err
		}
		if rel {
			x += pp.current.X
		}
		pp.current.X = x
		pp.path.Line(pp.current)
	case 'V', 'v':
		y, err := pp.number()
		if err != nil {
			return err
		}
		if rel {
			y += pp.current.Y
		}
		pp.current.Y = y
		pp.path.Line(pp.current)
	case 'C', 'c', 'S', 's':
		var c1 Point
		if cmd == 'C' || cmd == 'c' {
			var err error
			if c1, err = pp.pt(rel); err != nil {
				return err
			}
		} else {
			c1 = pp.current
			if p := pp.prevCmd; p == 'C' || p == 'c' || p == 'S' || p == 's' {
				c1 = Point{2*pp.current.X - pp.ctrl.X, 2*pp.current.Y - pp.ctrl.Y}
			}
		}
		c2, err := pp.pt(rel)
		if err != nil {
			return err
		}
		end, err := pp.pt(rel)
		if err != nil {
			return err
		}
		pp.path.CubeBezier(c1, c2, end)
		pp.ctrl, pp.current = c2, end
	case 'Q', 'q', 'T', 't':
		var c1 Point
		if cmd == 'Q' || cmd == 'q' {
			var err error
			if c1, err = pp.pt(rel); err != nil {
				return err
			}
		} else {
			c1 = pp.current
			if p := pp.prevCmd; p == 'Q' || p == 'q' || p == 'T' || p == 't' {
				c1 = Point{2*pp.current.X - pp.ctrl.X, 2*pp.current.Y - pp.ctrl.Y}
			}
		}
		end, err := pp.pt(rel)
		if err != nil {
			return err
		}
		pp.path.QuadBezier(pp.current, c1, end)
		pp.ctrl, pp.current = c1, end
	case 'A', 'a':
		var radii [3]float64
		for i := range radii {
			f, err := pp.number()
			if err != nil {
				return err
			}
			radii[i] = f
		}
		large, err := pp.flag()
		if err != nil {
			return err
		}
		sweep, err := pp.flag()
		if err != nil {
			return err
		}
		end, err := pp.pt(rel)
		if err != nil {
			return err
		}
		pp.path.addArc(pp.current.X, pp.current.Y, radii[0], radii[1], radii[2], large, sweep, end.X, end.Y)
		pp.current = end
	}
	pp.prevCmd = cmd
	return nil
}
