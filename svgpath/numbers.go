package svgpath

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tdewolff/parse/v2"
)

// numberScanner reads the numbers of a SVG list (points, path data,
// viewBox...), where numbers are separated by whitespace and/or
// one comma, and where separators may be omitted (`10-20`, `.5.5`).
type numberScanner struct {
	src []byte
	pos int
}

func isSpace(c byte) bool { return c == ' ' || c == '\t' || c == '\n' || c == '\r' }

func (sc *numberScanner) skipSpaces() {
	for sc.pos < len(sc.src) && isSpace(sc.src[sc.pos]) {
		sc.pos++
	}
}

// skipSeparator skips whitespaces and at most one comma.
func (sc *numberScanner) skipSeparator() {
	sc.skipSpaces()
	if sc.pos < len(sc.src) && sc.src[sc.pos] == ',' {
		sc.pos++
		sc.skipSpaces()
	}
}

func (sc *numberScanner) done() bool { return sc.pos >= len(sc.src) }

// number reads one number, followed by an optional separator.
func (sc *numberScanner) number() (float64, error) {
	sc.skipSpaces()
	n := parse.Number(sc.src[sc.pos:])
	if n == 0 {
		return 0, fmt.Errorf("svgpath: expected number at offset %d", sc.pos)
	}
	f, err := strconv.ParseFloat(string(sc.src[sc.pos:sc.pos+n]), 64)
	if err != nil {
		return 0, err
	}
	sc.pos += n
	sc.skipSeparator()
	return f, nil
}

// flag reads an arc flag, which may be glued to the next number.
func (sc *numberScanner) flag() (bool, error) {
	sc.skipSpaces()
	if sc.pos >= len(sc.src) {
		return false, fmt.Errorf("svgpath: expected flag at offset %d", sc.pos)
	}
	c := sc.src[sc.pos]
	if c != '0' && c != '1' {
		return false, fmt.Errorf("svgpath: invalid flag %q", c)
	}
	sc.pos++
	sc.skipSeparator()
	return c == '1', nil
}

// ParseNumbers parses a list of numbers, such as the
// content of a `points` or `viewBox` attribute.
// The numbers read before an error are returned along with it.
func ParseNumbers(s string) ([]float64, error) {
	sc := numberScanner{src: []byte(s)}
	sc.skipSeparator()
	var out []float64
	for !sc.done() {
		f, err := sc.number()
		if err != nil {
			return out, err
		}
		out = append(out, f)
	}
	return out, nil
}

const roundPrecision = 1e8

// FormatNumber returns the canonical string form of `f`:
// rounded to 8 decimals, without exponent nor trailing zeros.
func FormatNumber(f float64) string {
	f = math.Round(f*roundPrecision) / roundPrecision
	if f == 0 { // also handles -0
		return "0"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// FormatNumbers joins the canonical forms of `fs` with single spaces.
func FormatNumbers(fs ...float64) string {
	chunks := make([]string, len(fs))
	for i, f := range fs {
		chunks[i] = FormatNumber(f)
	}
	return strings.Join(chunks, " ")
}
