package svgpath

import (
	"math"
)

// This file implements the transformation from
// high level shapes to their path equivalent

// maxDx is the maximum radians a cubic splice is allowed to span
// in ellipse parametric when approximating an off-axis ellipse.
const maxDx float64 = math.Pi / 8

// kappa is the control point distance used to
// approximate a quarter of circle with one cubic bezier.
const kappa = 0.5522847498307936

// AddRect adds a closed rectangle, starting at its top-left corner,
// clockwise (in the y-down SVG coordinate system).
func (p *Path) AddRect(x, y, w, h float64) {
	p.Start(Point{x, y})
	p.Line(Point{x + w, y})
	p.Line(Point{x + w, y + h})
	p.Line(Point{x, y + h})
	p.Stop(true)
}

// AddRoundRect adds a rectangle with rounded corners of radius
// rx in the x axis and ry in the y axis. Radii are expected to be already
// clamped to half the width and height.
func (p *Path) AddRoundRect(x, y, w, h, rx, ry float64) {
	if rx <= 0 || ry <= 0 {
		p.AddRect(x, y, w, h)
		return
	}
	kx, ky := rx*kappa, ry*kappa
	p.Start(Point{x + rx, y})
	p.Line(Point{x + w - rx, y})
	p.CubeBezier(Point{x + w - rx + kx, y}, Point{x + w, y + ry - ky}, Point{x + w, y + ry})
	p.Line(Point{x + w, y + h - ry})
	p.CubeBezier(Point{x + w, y + h - ry + ky}, Point{x + w - rx + kx, y + h}, Point{x + w - rx, y + h})
	p.Line(Point{x + rx, y + h})
	p.CubeBezier(Point{x + rx - kx, y + h}, Point{x, y + h - ry + ky}, Point{x, y + h - ry})
	p.Line(Point{x, y + ry})
	p.CubeBezier(Point{x, y + ry - ky}, Point{x + rx - kx, y}, Point{x + rx, y})
	p.Stop(true)
}

// AddEllipse adds a closed ellipse made of four cubic curves,
// starting at its rightmost point.
func (p *Path) AddEllipse(cx, cy, rx, ry float64) {
	kx, ky := rx*kappa, ry*kappa
	p.Start(Point{cx + rx, cy})
	p.CubeBezier(Point{cx + rx, cy + ky}, Point{cx + kx, cy + ry}, Point{cx, cy + ry})
	p.CubeBezier(Point{cx - kx, cy + ry}, Point{cx - rx, cy + ky}, Point{cx - rx, cy})
	p.CubeBezier(Point{cx - rx, cy - ky}, Point{cx - kx, cy - ry}, Point{cx, cy - ry})
	p.CubeBezier(Point{cx + kx, cy - ry}, Point{cx + rx, cy - ky}, Point{cx + rx, cy})
	p.Stop(true)
}

// AddPolyline adds a chain of lines through the given points,
// closed if `closeLoop` is true. `points` must contain at least two points.
func (p *Path) AddPolyline(points []Point, closeLoop bool) {
	p.Start(points[0])
	for _, pt := range points[1:] {
		p.Line(pt)
	}
	p.Stop(closeLoop)
}

// addArc adds an elliptical arc from the current point (px, py)
// to (x, y), as described by the SVG `A` command.
// Degenerated radii yield a line.
func (p *Path) addArc(px, py, rx, ry, rotDeg float64, largeArc, sweep bool, x, y float64) {
	if px == x && py == y {
		return
	}
	rx, ry = math.Abs(rx), math.Abs(ry)
	if rx == 0 || ry == 0 {
		p.Line(Point{x, y})
		return
	}
	rotX := rotDeg * math.Pi / 180 // Convert degress to radians
	cx, cy := findEllipseCenter(&rx, &ry, rotX, px, py, x, y, sweep, !largeArc)

	sinTheta, cosTheta := math.Sin(rotX), math.Cos(rotX)
	etaStart := ellipseParam(rx, ry, sinTheta, cosTheta, px, py, cx, cy)
	etaEnd := ellipseParam(rx, ry, sinTheta, cosTheta, x, y, cx, cy)
	deltaEta := etaEnd - etaStart
	if sweep && deltaEta < 0 {
		deltaEta += 2 * math.Pi
	} else if !sweep && deltaEta > 0 {
		deltaEta -= 2 * math.Pi
	}

	// Round up to determine number of cubic splines to approximate bezier curve
	segs := int(math.Abs(deltaEta)/maxDx) + 1
	dEta := deltaEta / float64(segs) // span of each segment
	// Approximate the ellipse using a set of cubic bezier curves by the method of
	// L. Maisonobe, "Drawing an elliptical arc using polylines, quadratic
	// or cubic Bezier curves", 2003
	// https://www.spaceroots.org/documents/elllipse/elliptical-arc.pdf
	tde := math.Tan(dEta / 2)
	alpha := math.Sin(dEta) * (math.Sqrt(4+3*tde*tde) - 1) / 3 // Math is fun!
	lx, ly := px, py
	ldx, ldy := ellipsePrime(rx, ry, sinTheta, cosTheta, etaStart)
	for i := 1; i <= segs; i++ {
		eta := etaStart + dEta*float64(i)
		var ex, ey float64
		if i == segs {
			ex, ey = x, y // Just makes the end point exact; no roundoff error
		} else {
			ex, ey = ellipsePointAt(rx, ry, sinTheta, cosTheta, eta, cx, cy)
		}
		dx, dy := ellipsePrime(rx, ry, sinTheta, cosTheta, eta)
		p.CubeBezier(Point{lx + alpha*ldx, ly + alpha*ldy},
			Point{ex - alpha*dx, ey - alpha*dy}, Point{ex, ey})
		lx, ly, ldx, ldy = ex, ey, dx, dy
	}
}

// ellipseParam returns the eta parameter of the point (x, y) on the ellipse.
func ellipseParam(a, b, sinTheta, cosTheta, x, y, cx, cy float64) float64 {
	dx, dy := x-cx, y-cy
	// rotate back to the ellipse axis
	ux := dx*cosTheta + dy*sinTheta
	uy := -dx*sinTheta + dy*cosTheta
	return math.Atan2(uy/b, ux/a)
}

// ellipsePrime gives tangent vectors for parameterized elipse; a, b, radii, eta parameter
func ellipsePrime(a, b, sinTheta, cosTheta, eta float64) (px, py float64) {
	bCosEta := b * math.Cos(eta)
	aSinEta := a * math.Sin(eta)
	px = -aSinEta*cosTheta - bCosEta*sinTheta
	py = -aSinEta*sinTheta + bCosEta*cosTheta
	return
}

// ellipsePointAt gives points for parameterized elipse; a, b, radii, eta parameter, center cx, cy
func ellipsePointAt(a, b, sinTheta, cosTheta, eta, cx, cy float64) (px, py float64) {
	aCosEta := a * math.Cos(eta)
	bSinEta := b * math.Sin(eta)
	px = cx + aCosEta*cosTheta - bSinEta*sinTheta
	py = cy + aCosEta*sinTheta + bSinEta*cosTheta
	return
}

// findEllipseCenter locates the center of the Ellipse if it exists. If it does not exist,
// the radius values will be increased minimally for a solution to be possible
// while preserving the ra to rb ratio.  ra and rb arguments are pointers that can be
// checked after the call to see if the values changed. This method uses coordinate transformations
// to reduce the problem to finding the center of a circle that includes the origin
// and an arbitrary point. The center of the circle is then transformed
// back to the original coordinates and returned.
func findEllipseCenter(ra, rb *float64, rotX, startX, startY, endX, endY float64, sweep, smallArc bool) (cx, cy float64) {
	cos, sin := math.Cos(rotX), math.Sin(rotX)

	// Move origin to start point
	nx, ny := endX-startX, endY-startY

	// Rotate ellipse x-axis to coordinate x-axis
	nx, ny = nx*cos+ny*sin, -nx*sin+ny*cos
	// Scale X dimension so that ra = rb
	nx *= *rb / *ra // Now the ellipse is a circle radius rb; therefore foci and center coincide

	midX, midY := nx/2, ny/2
	midlenSq := midX*midX + midY*midY

	var hr float64
	if *rb**rb < midlenSq {
		// Requested ellipse does not exist; scale ra, rb to fit. Length of
		// span is greater than max width of ellipse, must scale *ra, *rb
		nrb := math.Sqrt(midlenSq)
		if *ra == *rb {
			*ra = nrb // prevents roundoff
		} else {
			*ra = *ra * nrb / *rb
		}
		*rb = nrb
	} else {
		hr = math.Sqrt(*rb**rb-midlenSq) / math.Sqrt(midlenSq)
	}
	// Notice that if hr is zero, both answers are the same.
	if (sweep && smallArc) || (!sweep && !smallArc) {
		cx = midX + midY*hr
		cy = midY - midX*hr
	} else {
		cx = midX - midY*hr
		cy = midY + midX*hr
	}

	// reverse scale
	cx *= *ra / *rb
	//Reverse rotate and translate back to original coordinates
	return cx*cos - cy*sin + startX, cx*sin + cy*cos + startY
}
