package svgnorm

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/benoitkugler/svgtree/svgpath"
	"github.com/benoitkugler/svgtree/svgtree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const header = `<svg
    xmlns='http://www.w3.org/2000/svg'
    width='1'
    height='1'
    viewBox='0 0 1 1'
    xmlns:svgtree='https://github.com/benoitkugler/svgtree'
    svgtree:version='0.1.0'>
`

func convert(t *testing.T, input string, keepNamedGroups bool) *svgtree.Tree {
	t.Helper()
	opts := DefaultOptions()
	opts.KeepNamedGroups = keepNamedGroups
	tree, err := Parse(strings.NewReader(input), opts)
	require.NoError(t, err)
	return tree
}

func TestGolden(t *testing.T) {
	for _, test := range []struct {
		name            string
		keepNamedGroups bool
		input, output   string
	}{
		{
			"minimal", false,
			`<svg xmlns='http://www.w3.org/2000/svg' viewBox='0 0 1 1'>
    <rect width='10' height='10'/>
</svg>`,
			header + `    <defs/>
    <path
        d='M 0 0 L 10 0 L 10 10 L 0 10 Z'/>
</svg>
`,
		},
		{
			"groups", false,
			`<svg xmlns='http://www.w3.org/2000/svg' viewBox='0 0 1 1'>
    <g>
        <g>
            <rect width='10' height='10'/>
        </g>
    </g>
</svg>`,
			header + `    <defs/>
    <path
        d='M 0 0 L 10 0 L 10 10 L 0 10 Z'/>
</svg>
`,
		},
		{
			"clippath_with_invalid_child", false,
			`<svg xmlns='http://www.w3.org/2000/svg' viewBox='0 0 1 1'>
    <clipPath id='clip1'>
        <rect/>
    </clipPath>
    <rect clip-path='url(#clip1)' width='10' height='10'/>
</svg>`,
			header + `    <defs/>
</svg>
`,
		},
		{
			"clippath_with_invalid_children", false,
			`<svg xmlns='http://www.w3.org/2000/svg' viewBox='0 0 1 1'>
    <clipPath id='clip1'>
        <rect/>
        <line/>
        <polyline/>
        <polygon/>
        <circle/>
        <ellipse/>
        <path/>
    </clipPath>
    <rect clip-path='url(#clip1)' width='10' height='10'/>
</svg>`,
			header + `    <defs/>
</svg>
`,
		},
		{
			"group_clippath", false,
			`<svg xmlns='http://www.w3.org/2000/svg' viewBox='0 0 1 1'>
    <clipPath id='clip1'>
        <rect width='10' height='10'/>
    </clipPath>
    <rect clip-path='url(#clip1)' width='10' height='10'/>
</svg>`,
			header + `    <defs>
        <clipPath
            id='clip1'>
            <path
                d='M 0 0 L 10 0 L 10 10 L 0 10 Z'/>
        </clipPath>
    </defs>
    <g
        clip-path='url(#clip1)'>
        <path
            d='M 0 0 L 10 0 L 10 10 L 0 10 Z'/>
    </g>
</svg>
`,
		},
		{
			"ignore_groups_with_id", false,
			`<svg xmlns='http://www.w3.org/2000/svg' viewBox='0 0 1 1'>
    <g id='some_group'>
        <rect width='10' height='10'/>
    </g>
</svg>`,
			header + `    <defs/>
    <path
        id='some_group'
        d='M 0 0 L 10 0 L 10 10 L 0 10 Z'/>
</svg>
`,
		},
		{
			"pattern_with_invalid_child", false,
			`<svg xmlns='http://www.w3.org/2000/svg' viewBox='0 0 1 1'>
    <pattern id='patt1'>
        <rect/>
    </pattern>
    <rect fill='url(#patt1)' width='10' height='10'/>
</svg>`,
			header + `    <defs/>
    <path
        fill='none'
        visibility='hidden'
        d='M 0 0 L 10 0 L 10 10 L 0 10 Z'/>
</svg>
`,
		},
		{
			"pattern_without_children", false,
			`<svg xmlns='http://www.w3.org/2000/svg' viewBox='0 0 1 1'>
    <pattern id='patt1' patternUnits='userSpaceOnUse' width='20' height='40'/>
    <rect fill='url(#patt1)' width='10' height='10'/>
</svg>`,
			header + `    <defs/>
    <path
        fill='none'
        visibility='hidden'
        d='M 0 0 L 10 0 L 10 10 L 0 10 Z'/>
</svg>
`,
		},
		{
			"ignore_empty_groups_with_id", true,
			`<svg xmlns='http://www.w3.org/2000/svg' viewBox='0 0 1 1'>
    <g id='some_group'/>
</svg>`,
			header + `    <defs/>
</svg>
`,
		},
		{
			"keep_groups_with_id", true,
			`<svg xmlns='http://www.w3.org/2000/svg' viewBox='0 0 1 1'>
    <g id='some_group'>
        <rect width='10' height='10'/>
    </g>
</svg>`,
			header + `    <defs/>
    <g
        id='some_group'>
        <path
            d='M 0 0 L 10 0 L 10 10 L 0 10 Z'/>
    </g>
</svg>
`,
		},
		{
			"simplify_paths_1", false,
			`<svg xmlns='http://www.w3.org/2000/svg' viewBox='0 0 1 1'>
    <path d='M 10 20 L 10 30 Z Z Z'/>
</svg>`,
			header + `    <defs/>
    <path
        d='M 10 20 L 10 30 Z'/>
</svg>
`,
		},
		{
			"group_with_default_opacity", false,
			`<svg xmlns='http://www.w3.org/2000/svg' viewBox='0 0 1 1'>
    <g opacity='1'>
        <path d='M 10 20 L 10 30'/>
        <path d='M 10 20 L 10 30'/>
    </g>
</svg>`,
			header + `    <defs/>
    <path
        d='M 10 20 L 10 30'/>
    <path
        d='M 10 20 L 10 30'/>
</svg>
`,
		},
		{
			"named_group_with_default_opacity", true,
			`<svg xmlns='http://www.w3.org/2000/svg' viewBox='0 0 1 1'>
    <g id='x' opacity='1'>
        <path d='M 10 20 L 10 30'/>
        <path d='M 10 20 L 10 30'/>
    </g>
</svg>`,
			header + `    <defs/>
    <path
        d='M 10 20 L 10 30'/>
    <path
        d='M 10 20 L 10 30'/>
</svg>
`,
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			tree := convert(t, test.input, test.keepNamedGroups)
			assert.Equal(t, test.output, tree.String())
		})
	}
}

const pngData = "iVBORw0KGgoAAAANSUhEUgAAABAAAAAQAQMAAAAlPW0iAAAAB3RJTUUH4gMLDwAjrsLbtwAAAAlw" +
	"SFlzAAAuIwAALiMBeKU/dgAAABl0RVh0Q29tbWVudABDcmVhdGVkIHdpdGggR0lNUFeBDhcAAAAG" +
	"UExURQAA/xjQP14JpdQAAAABYktHRACIBR1IAAAAFklEQVR42mMAgvp/IJTAhgdB1ADVAgDvdAnx" +
	"N1Ib1gAAAABJRU5ErkJggg=="

const preserveIDInput = `<svg id='svg1' xmlns='http://www.w3.org/2000/svg' viewBox='0 0 1 1'>
    <defs id='defs1'>
        <linearGradient id='lg1'>
            <stop id='stop1' offset='0' stop-color='white'/>
            <stop offset='1' stop-color='black'/>
        </linearGradient>
        <radialGradient id='rg1'>
            <stop offset='0' stop-color='white'/>
            <stop offset='1' stop-color='black'/>
        </radialGradient>
        <clipPath id='clip1'>
            <rect id='rect2' width='10' height='10'/>
        </clipPath>
        <pattern id='patt1' width='1' height='1'>
            <rect width='10' height='10'/>
        </pattern>
    </defs>
    <rect id='rect1' fill='url(#lg1)' stroke='url(#rg1)' clip-path='url(#clip1)' width='10' height='10'/>
    <path id='path1' fill='url(#patt1)' d='M 10 20 30 40'/>
    <text id='text1'>Some text</text>
    <text id='text2'><tspan id='tspan2'>Some text</tspan></text>
    <image id='image1' width='1' height='1' xlink:href='data:image/png;base64,
        iVBORw0KGgoAAAANSUhEUgAAABAAAAAQAQMAAAAlPW0iAAAAB3RJTUUH4gMLDwAjrsLbtwAAAAlw
        SFlzAAAuIwAALiMBeKU/dgAAABl0RVh0Q29tbWVudABDcmVhdGVkIHdpdGggR0lNUFeBDhcAAAAG
        UExURQAA/xjQP14JpdQAAAABYktHRACIBR1IAAAAFklEQVR42mMAgvp/IJTAhgdB1ADVAgDvdAnx
        N1Ib1gAAAABJRU5ErkJggg=='/>
</svg>`

const preserveIDOutput = `<svg
    xmlns='http://www.w3.org/2000/svg'
    xmlns:xlink='http://www.w3.org/1999/xlink'
    width='1'
    height='1'
    viewBox='0 0 1 1'
    xmlns:svgtree='https://github.com/benoitkugler/svgtree'
    svgtree:version='0.1.0'>
    <defs>
        <linearGradient
            id='lg1'
            x1='0'
            y1='0'
            x2='1'
            y2='0'>
            <stop
                stop-color='#ffffff'
                offset='0'/>
            <stop
                stop-color='#000000'
                offset='1'/>
        </linearGradient>
        <radialGradient
            id='rg1'
            cx='0.5'
            cy='0.5'
            r='0.5'
            fx='0.5'
            fy='0.5'>
            <stop
                stop-color='#ffffff'
                offset='0'/>
            <stop
                stop-color='#000000'
                offset='1'/>
        </radialGradient>
        <clipPath
            id='clip1'>
            <path
                id='rect2'
                d='M 0 0 L 10 0 L 10 10 L 0 10 Z'/>
        </clipPath>
        <pattern
            id='patt1'
            x='0'
            y='0'
            width='1'
            height='1'>
            <path
                d='M 0 0 L 10 0 L 10 10 L 0 10 Z'/>
        </pattern>
    </defs>
    <g
        clip-path='url(#clip1)'>
        <path
            id='rect1'
            fill='url(#lg1)'
            stroke='url(#rg1)'
            d='M 0 0 L 10 0 L 10 10 L 0 10 Z'/>
    </g>
    <path
        id='path1'
        fill='url(#patt1)'
        d='M 10 20 L 30 40'/>
    <text
        id='text1'><tspan><tspan
        font-family='Times New Roman'
        font-size='12'>Some text</tspan></tspan></text>
    <text
        id='text2'><tspan><tspan
        font-family='Times New Roman'
        font-size='12'>Some text</tspan></tspan></text>
    <image
        id='image1'
        x='0'
        y='0'
        width='1'
        height='1'
        xlink:href='data:image/png;base64,` + pngData + `'/>
</svg>
`

func TestPreserveID(t *testing.T) {
	tree := convert(t, preserveIDInput, false)
	assert.Equal(t, preserveIDOutput, tree.String())

	image := tree.Root().Children[len(tree.Root().Children)-1].Kind.(*svgtree.Image)
	assert.Equal(t, svgtree.PNG, image.Data.Kind)
}

func TestIdempotence(t *testing.T) {
	for _, input := range []string{
		preserveIDInput,
		`<svg xmlns='http://www.w3.org/2000/svg' width='50' height='50'>
			<g opacity='0.5' transform='translate(10 5)'>
				<circle cx='5' cy='5' r='5' fill='red' stroke='blue' stroke-width='2' stroke-dasharray='1 2'/>
				<g transform='scale(2)'>
					<ellipse rx='3' ry='2' fill-rule='evenodd' fill-opacity='0.3'/>
				</g>
			</g>
			<polygon points='0 0 10 0 10 10' stroke='green' stroke-linejoin='round'/>
		</svg>`,
	} {
		first := convert(t, input, false).String()
		second := convert(t, first, false).String()
		assert.Equal(t, first, second)
	}
}

func TestErrors(t *testing.T) {
	_, err := Parse(strings.NewReader(`<html/>`), DefaultOptions())
	assert.True(t, errors.Is(err, ErrMissingRoot))

	_, err = Parse(strings.NewReader(`<svg xmlns='http://www.w3.org/2000/svg'/>`), DefaultOptions())
	assert.True(t, errors.Is(err, ErrInvalidSize))

	_, err = Parse(strings.NewReader(`<svg xmlns='http://www.w3.org/2000/svg' width='-1' height='10'/>`), DefaultOptions())
	assert.True(t, errors.Is(err, ErrInvalidSize))

	_, err = Parse(strings.NewReader(`<svg xmlns='http://www.w3.org/2000/svg' width='50%' height='10'/>`), DefaultOptions())
	assert.True(t, errors.Is(err, ErrInvalidSize))

	opts := DefaultOptions()
	opts.DPI = 0
	_, err = Parse(strings.NewReader(`<svg xmlns='http://www.w3.org/2000/svg' width='1' height='1'/>`), opts)
	assert.True(t, errors.Is(err, ErrInvalidOptions))

	_, err = Parse(strings.NewReader(`<svg><g></svg>`), DefaultOptions())
	assert.Error(t, err)
}

func TestSize(t *testing.T) {
	tree := convert(t, `<svg xmlns='http://www.w3.org/2000/svg' width='1in' height='2in'/>`, false)
	assert.Equal(t, svgtree.Size{W: 96, H: 192}, tree.Size)
	assert.Equal(t, svgpath.Rect{W: 96, H: 192}, tree.ViewBox.Rect)

	tree = convert(t, `<svg xmlns='http://www.w3.org/2000/svg' width='50%' viewBox='0 0 200 100'/>`, false)
	assert.Equal(t, svgtree.Size{W: 100, H: 100}, tree.Size)
	assert.Equal(t, svgpath.Rect{W: 200, H: 100}, tree.ViewBox.Rect)
}

// paths returns the paths of the render tree, in order
func paths(tree *svgtree.Tree) (out []*svgtree.Node) {
	for n := range svgtree.Walk(tree.Root()) {
		if _, ok := n.Kind.(*svgtree.Path); ok {
			out = append(out, n)
		}
	}
	return out
}

func TestUse(t *testing.T) {
	tree := convert(t, `<svg xmlns='http://www.w3.org/2000/svg' xmlns:xlink='http://www.w3.org/1999/xlink' viewBox='0 0 10 10'>
		<rect id='r' width='10' height='10' fill='inherit'/>
		<use xlink:href='#r' x='5' fill='red'/>
		<use href='#missing'/>
	</svg>`, false)
	ps := paths(tree)
	require.Len(t, ps, 2)
	assert.Equal(t, "r", ps[0].ID)
	assert.Equal(t, "", ps[1].ID)
	assert.Equal(t, svgpath.Identity.Translate(5, 0), ps[1].Transform)
	assert.Equal(t, svgtree.Color{R: 255}, ps[1].Kind.(*svgtree.Path).Fill.Paint)
}

func TestUseRecursive(t *testing.T) {
	tree := convert(t, `<svg xmlns='http://www.w3.org/2000/svg' viewBox='0 0 10 10'>
		<g id='g1'>
			<rect width='10' height='10'/>
			<use href='#g1'/>
		</g>
		<use id='self' href='#self'/>
		<use id='u1' href='#u2'/>
		<use id='u2' href='#u1'/>
	</svg>`, false)
	assert.Len(t, paths(tree), 1)
}

func TestUseSymbol(t *testing.T) {
	tree := convert(t, `<svg xmlns='http://www.w3.org/2000/svg' viewBox='0 0 100 100'>
		<symbol id='s' viewBox='0 0 10 10'>
			<rect width='10' height='10'/>
		</symbol>
		<use href='#s' x='10' y='20' width='20' height='20'/>
	</svg>`, false)
	ps := paths(tree)
	require.Len(t, ps, 1)
	assert.Equal(t, svgpath.Identity.Translate(10, 20).Scale(2, 2), ps[0].Transform)
}

func TestUseSymbolPercentages(t *testing.T) {
	tree := convert(t, `<svg xmlns='http://www.w3.org/2000/svg' viewBox='0 0 100 100'>
		<symbol id='s' viewBox='0 0 10 10'>
			<rect width='50%' height='100%'/>
		</symbol>
		<symbol id='noViewBox'>
			<rect width='50%' height='100%'/>
		</symbol>
		<use href='#s' width='20' height='20'/>
		<use href='#noViewBox' width='30' height='40'/>
	</svg>`, false)
	ps := paths(tree)
	require.Len(t, ps, 2)
	assert.Equal(t, "M 0 0 L 5 0 L 5 10 L 0 10 Z", ps[0].Kind.(*svgtree.Path).Segments.ToSVGPath())
	assert.Equal(t, "M 0 0 L 15 0 L 15 40 L 0 40 Z", ps[1].Kind.(*svgtree.Path).Segments.ToSVGPath())
}

// definitions do not depend on the context of their first reference
func TestUseDefinitionOrder(t *testing.T) {
	tree := convert(t, `<svg xmlns='http://www.w3.org/2000/svg' viewBox='0 0 10 10'>
		<defs>
			<rect id='r' clip-path='url(#clip1)' width='10' height='10'/>
		</defs>
		<use href='#r'/>
		<clipPath id='clip1'>
			<rect id='rect2' width='5' height='5'/>
		</clipPath>
		<rect clip-path='url(#clip1)' width='10' height='10'/>
	</svg>`, false)
	clip := tree.Def("clip1").(*svgtree.ClipPath)
	require.Len(t, clip.Children, 1)
	assert.Equal(t, "rect2", clip.Children[0].ID)

	ps := paths(tree)
	require.Len(t, ps, 2)
	assert.Equal(t, "", ps[0].ID) // instantiated
}

func TestSwitch(t *testing.T) {
	tree := convert(t, `<svg xmlns='http://www.w3.org/2000/svg' viewBox='0 0 10 10'>
		<switch>
			<rect id='fr' systemLanguage='fr' width='10' height='10'/>
			<rect id='en' systemLanguage='en-US, fr' width='10' height='10'/>
			<rect id='other' width='10' height='10'/>
		</switch>
	</svg>`, false)
	ps := paths(tree)
	require.Len(t, ps, 1)
	assert.Equal(t, "en", ps[0].ID)
}

func TestNestedSVG(t *testing.T) {
	tree := convert(t, `<svg xmlns='http://www.w3.org/2000/svg' viewBox='0 0 100 100'>
		<svg x='10' y='10' width='20' height='20' viewBox='0 0 10 10'>
			<rect width='10' height='10'/>
		</svg>
	</svg>`, false)
	ps := paths(tree)
	require.Len(t, ps, 1)
	assert.Equal(t, svgpath.Identity.Translate(10, 10).Scale(2, 2), ps[0].Transform)

	bbox, ok := tree.BBox(ps[0])
	assert.True(t, ok)
	assert.Equal(t, svgpath.Rect{X: 10, Y: 10, W: 20, H: 20}, bbox)
}

func TestNestedSVGPercentages(t *testing.T) {
	tree := convert(t, `<svg xmlns='http://www.w3.org/2000/svg' viewBox='0 0 100 100'>
		<svg width='50' height='50' viewBox='0 0 10 10'>
			<rect width='100%' height='100%'/>
		</svg>
		<svg width='50' height='20'>
			<rect width='100%' height='100%'/>
		</svg>
		<rect width='100%' height='50%'/>
	</svg>`, false)
	ps := paths(tree)
	require.Len(t, ps, 3)
	assert.Equal(t, svgpath.Identity.Scale(5, 5), ps[0].Transform)
	assert.Equal(t, "M 0 0 L 10 0 L 10 10 L 0 10 Z", ps[0].Kind.(*svgtree.Path).Segments.ToSVGPath())
	assert.Equal(t, "M 0 0 L 50 0 L 50 20 L 0 20 Z", ps[1].Kind.(*svgtree.Path).Segments.ToSVGPath())
	assert.Equal(t, "M 0 0 L 100 0 L 100 50 L 0 50 Z", ps[2].Kind.(*svgtree.Path).Segments.ToSVGPath())
}

func TestSkippedElements(t *testing.T) {
	tree := convert(t, `<svg xmlns='http://www.w3.org/2000/svg' viewBox='0 0 10 10'>
		<rect width='10' height='10' display='none'/>
		<g style='display:none'><rect width='10' height='10'/></g>
		<rect width='10' height='10' transform='scale(0)'/>
		<rect width='0' height='10'/>
		<circle r='-1'/>
		<unknown/>
		<title>Title</title>
		<rect id='kept' width='10' height='10'/>
	</svg>`, false)
	ps := paths(tree)
	require.Len(t, ps, 1)
	assert.Equal(t, "kept", ps[0].ID)
}

func TestAbsoluteTransforms(t *testing.T) {
	tree := convert(t, `<svg xmlns='http://www.w3.org/2000/svg' viewBox='0 0 10 10'>
		<g transform='translate(1 2)'>
			<g transform='scale(2)' opacity='0.5'>
				<rect transform='translate(3 0)' width='1' height='1'/>
			</g>
		</g>
	</svg>`, false)
	root := tree.Root()
	require.Len(t, root.Children, 1)
	group := root.Children[0]
	assert.Equal(t, 0.5, group.Kind.(*svgtree.Group).Opacity)
	assert.Equal(t, svgpath.Identity.Translate(1, 2).Scale(2, 2), group.Transform)
	require.Len(t, group.Children, 1)
	assert.Equal(t, svgpath.Identity.Translate(1, 2).Scale(2, 2).Translate(3, 0), group.Children[0].Transform)

	// the serialization uses relative transforms
	assert.Contains(t, tree.String(), "transform='matrix(1 0 0 1 3 0)'")
}

func TestEffectsWrapper(t *testing.T) {
	tree := convert(t, `<svg xmlns='http://www.w3.org/2000/svg' viewBox='0 0 10 10'>
		<rect id='r' opacity='0.5' transform='translate(1 1)' width='1' height='1'/>
	</svg>`, false)
	root := tree.Root()
	require.Len(t, root.Children, 1)
	wrapper := root.Children[0]
	assert.Equal(t, "", wrapper.ID)
	assert.Equal(t, &svgtree.Group{Opacity: 0.5}, wrapper.Kind)
	require.Len(t, wrapper.Children, 1)
	assert.Equal(t, "r", wrapper.Children[0].ID)
	assert.Equal(t, wrapper.Transform, wrapper.Children[0].Transform)
}

func TestPaint(t *testing.T) {
	tree := convert(t, `<svg xmlns='http://www.w3.org/2000/svg' viewBox='0 0 10 10' color='lime'>
		<rect id='fallback' fill='url(#missing) red' width='1' height='1'/>
		<rect id='noFallback' fill='url(#missing)' width='1' height='1'/>
		<rect id='current' fill='currentColor' width='1' height='1'/>
		<rect id='invalid' fill='notAColor' width='1' height='1'/>
		<rect id='rgb' fill='rgb(10%, 20, 300)' fill-opacity='2' width='1' height='1'/>
		<g fill='#00f'>
			<rect id='inherited' width='1' height='1'/>
		</g>
		<rect id='styled' fill='green' style='fill:#123; stroke: blue' width='1' height='1'/>
	</svg>`, false)
	fills := map[string]*svgtree.Fill{}
	var styled *svgtree.Path
	for _, n := range paths(tree) {
		fills[n.ID] = n.Kind.(*svgtree.Path).Fill
		if n.ID == "styled" {
			styled = n.Kind.(*svgtree.Path)
		}
	}
	assert.Equal(t, svgtree.Color{R: 255}, fills["fallback"].Paint)
	assert.Nil(t, fills["noFallback"])
	assert.Equal(t, svgtree.Color{G: 255}, fills["current"].Paint)
	assert.Equal(t, svgtree.Black, fills["invalid"].Paint)
	assert.Equal(t, svgtree.Color{R: 26, G: 20, B: 255}, fills["rgb"].Paint)
	assert.Equal(t, 1., fills["rgb"].Opacity)
	assert.Equal(t, svgtree.Color{B: 255}, fills["inherited"].Paint)
	assert.Equal(t, svgtree.Color{R: 0x11, G: 0x22, B: 0x33}, styled.Fill.Paint)
	require.NotNil(t, styled.Stroke)
	assert.Equal(t, svgtree.Color{B: 255}, styled.Stroke.Paint)
}

func TestGradients(t *testing.T) {
	tree := convert(t, `<svg xmlns='http://www.w3.org/2000/svg' xmlns:xlink='http://www.w3.org/1999/xlink' viewBox='0 0 10 10'>
		<linearGradient id='base' spreadMethod='reflect'>
			<stop offset='50%' stop-color='red'/>
			<stop offset='0.2' stop-color='blue' stop-opacity='0.5'/>
			<stop offset='2' style='stop-color:lime'/>
		</linearGradient>
		<linearGradient id='derived' xlink:href='#base' x2='0.5'/>
		<linearGradient id='single'>
			<stop offset='0' stop-color='red' stop-opacity='0.5'/>
		</linearGradient>
		<linearGradient id='empty'/>
		<linearGradient id='degenerate' x2='0'>
			<stop offset='0' stop-color='red'/>
			<stop offset='1' stop-color='blue'/>
		</linearGradient>
		<linearGradient id='unused'>
			<stop offset='0' stop-color='red'/>
			<stop offset='1' stop-color='blue'/>
		</linearGradient>
		<rect id='derived' fill='url(#derived)' width='1' height='1'/>
		<rect id='single' fill='url(#single)' fill-opacity='0.5' width='1' height='1'/>
		<rect id='empty' fill='url(#empty)' width='1' height='1'/>
		<rect id='degenerate' fill='url(#degenerate)' width='1' height='1'/>
		<path id='horizontal' stroke='url(#base)' d='M 0 0 L 10 0'/>
	</svg>`, false)
	fills := map[string]*svgtree.Fill{}
	strokes := map[string]*svgtree.Stroke{}
	for _, n := range paths(tree) {
		fills[n.ID] = n.Kind.(*svgtree.Path).Fill
		strokes[n.ID] = n.Kind.(*svgtree.Path).Stroke
	}
	assert.Equal(t, svgtree.LinearGradientRef("derived"), fills["derived"].Paint)
	assert.Equal(t, svgtree.Color{R: 255}, fills["single"].Paint)
	assert.Equal(t, 0.25, fills["single"].Opacity)
	assert.Nil(t, fills["empty"])
	assert.Equal(t, svgtree.Color{B: 255}, fills["degenerate"].Paint)
	// the object bounding box of a horizontal line is empty
	assert.Nil(t, strokes["horizontal"])

	require.Len(t, tree.Defs(), 1)
	derived := tree.Def("derived").(*svgtree.LinearGradient)
	assert.Equal(t, 0.5, derived.X2)
	assert.Equal(t, svgtree.ObjectBoundingBox, derived.Units)
	assert.Equal(t, svgtree.SpreadReflect, derived.Spread)
	assert.Equal(t, []svgtree.Stop{
		{Offset: 0.5, Color: svgtree.Color{R: 255}, Opacity: 1},
		{Offset: 0.5, Color: svgtree.Color{B: 255}, Opacity: 0.5},
		{Offset: 1, Color: svgtree.Color{G: 255}, Opacity: 1},
	}, derived.Stops)
	assert.Nil(t, tree.Def("unused"))
}

func TestRadialGradientDefaults(t *testing.T) {
	tree := convert(t, `<svg xmlns='http://www.w3.org/2000/svg' viewBox='0 0 200 100'>
		<radialGradient id='rg' gradientUnits='userSpaceOnUse' fx='10'>
			<stop offset='0' stop-color='red'/>
			<stop offset='1' stop-color='blue'/>
		</radialGradient>
		<rect fill='url(#rg)' width='1' height='1'/>
	</svg>`, false)
	rg := tree.Def("rg").(*svgtree.RadialGradient)
	assert.Equal(t, 100., rg.Cx)
	assert.Equal(t, 50., rg.Cy)
	assert.InDelta(t, math.Sqrt((200*200+100*100)/2)/2, rg.R, 1e-9)
	assert.Equal(t, 10., rg.Fx)
	assert.Equal(t, 50., rg.Fy)
}

func TestPatternCycle(t *testing.T) {
	tree := convert(t, `<svg xmlns='http://www.w3.org/2000/svg' viewBox='0 0 10 10'>
		<pattern id='p' width='1' height='1'>
			<rect width='1' height='1' fill='url(#p)'/>
		</pattern>
		<rect id='r' fill='url(#p)' width='10' height='10'/>
	</svg>`, false)
	ps := paths(tree)
	require.Len(t, ps, 1)
	assert.Equal(t, svgtree.PatternRef("p"), ps[0].Kind.(*svgtree.Path).Fill.Paint)

	pattern := tree.Def("p").(*svgtree.Pattern)
	require.Len(t, pattern.Children, 1)
	assert.Nil(t, pattern.Children[0].Kind.(*svgtree.Path).Fill)
	assert.True(t, tree.IsInDefs(pattern.Children[0]))
	assert.False(t, tree.IsInDefs(ps[0]))
}

func TestClipPath(t *testing.T) {
	tree := convert(t, `<svg xmlns='http://www.w3.org/2000/svg' viewBox='0 0 10 10'>
		<clipPath id='clip1' clip-path='url(#clip1)' clipPathUnits='objectBoundingBox'>
			<rect width='1' height='1' clip-rule='evenodd' fill='red' stroke='blue'/>
			<g><rect width='1' height='1'/></g>
			<use href='#shape'/>
		</clipPath>
		<clipPath id='clip2' clip-path='url(#clip1)'>
			<text>A</text>
		</clipPath>
		<circle id='shape' r='1'/>
		<rect clip-path='url(#clip2)' width='10' height='10'/>
	</svg>`, false)
	clip1 := tree.Def("clip1").(*svgtree.ClipPath)
	assert.Equal(t, svgtree.ObjectBoundingBox, clip1.Units)
	assert.Equal(t, "", clip1.ClipPath) // self reference
	require.Len(t, clip1.Children, 2)
	path := clip1.Children[0].Kind.(*svgtree.Path)
	assert.Equal(t, &svgtree.Fill{Paint: svgtree.Black, Opacity: 1, Rule: svgtree.EvenOdd}, path.Fill)
	assert.Nil(t, path.Stroke)
	assert.Equal(t, "", clip1.Children[1].ID)

	clip2 := tree.Def("clip2").(*svgtree.ClipPath)
	assert.Equal(t, "clip1", clip2.ClipPath)
	require.Len(t, clip2.Children, 1)
	text := clip2.Children[0].Kind.(*svgtree.Text)
	assert.Equal(t, svgtree.DefaultFill(), text.Chunks[0].Spans[0].Fill)

	// clip2 references clip1, which is kept
	assert.Len(t, tree.Defs(), 2)
}

func TestMaskAndFilter(t *testing.T) {
	tree := convert(t, `<svg xmlns='http://www.w3.org/2000/svg' viewBox='0 0 10 10'>
		<mask id='m1'>
			<rect width='10' height='10' fill='white'/>
		</mask>
		<mask id='empty'/>
		<filter id='f1' filterUnits='userSpaceOnUse' x='0' y='0' width='10' height='10'>
			<feGaussianBlur in='SourceGraphic' stdDeviation='2'/>
			<feMerge><feMergeNode in='SourceGraphic'/></feMerge>
			<desc>ignored</desc>
		</filter>
		<filter id='noPrimitive'/>
		<rect id='masked' mask='url(#m1)' filter='url(#f1)' width='1' height='1'/>
		<rect id='omitted1' mask='url(#empty)' width='1' height='1'/>
		<rect id='omitted2' filter='url(#noPrimitive)' width='1' height='1'/>
		<rect id='kept' filter='url(#missing)' width='1' height='1'/>
	</svg>`, false)
	ps := paths(tree)
	require.Len(t, ps, 2)
	assert.Equal(t, "masked", ps[0].ID)
	assert.Equal(t, "kept", ps[1].ID)

	group := tree.Root().Children[0].Kind.(*svgtree.Group)
	assert.Equal(t, &svgtree.Group{Opacity: 1, Mask: "m1", Filter: "f1"}, group)

	mask := tree.Def("m1").(*svgtree.Mask)
	assert.Equal(t, svgtree.ObjectBoundingBox, mask.Units)
	assert.Equal(t, svgtree.UserSpaceOnUse, mask.ContentUnits)
	assert.Equal(t, svgpath.Rect{X: -0.1, Y: -0.1, W: 1.2, H: 1.2}, mask.Rect)

	filter := tree.Def("f1").(*svgtree.Filter)
	assert.Equal(t, svgpath.Rect{W: 10, H: 10}, filter.Rect)
	require.Len(t, filter.Primitives, 2)
	assert.Equal(t, svgtree.FilterPrimitive{Tag: "feGaussianBlur", Attrs: []svgtree.Attr{
		{Name: "in", Value: "SourceGraphic"},
		{Name: "stdDeviation", Value: "2"},
	}}, filter.Primitives[0])
	assert.Equal(t, "feMergeNode", filter.Primitives[1].Children[0].Tag)

	out := tree.String()
	assert.Contains(t, out, "mask='url(#m1)'")
	assert.Contains(t, out, "filter='url(#f1)'")
	assert.Contains(t, out, "<feGaussianBlur")
}

func TestMarkers(t *testing.T) {
	tree := convert(t, `<svg xmlns='http://www.w3.org/2000/svg' viewBox='0 0 100 100'>
		<marker id='m' markerUnits='userSpaceOnUse' orient='auto'>
			<rect width='2' height='2'/>
		</marker>
		<path d='M 0 0 L 10 0 L 10 10' fill='none' marker-start='url(#m)' marker-mid='url(#m)' marker-end='url(#m)'/>
	</svg>`, false)
	ps := paths(tree)
	require.Len(t, ps, 4)
	for i, exp := range []struct{ x, y, angle float64 }{
		{0, 0, 0},
		{10, 0, math.Pi / 4},
		{10, 10, math.Pi / 2},
	} {
		tr := ps[i+1].Transform
		assert.InDelta(t, exp.x, tr.E, 1e-9)
		assert.InDelta(t, exp.y, tr.F, 1e-9)
		assert.InDelta(t, exp.angle, math.Atan2(tr.B, tr.A), 1e-9)
	}
}

func TestMarkerStrokeWidth(t *testing.T) {
	tree := convert(t, `<svg xmlns='http://www.w3.org/2000/svg' viewBox='0 0 100 100'>
		<marker id='m' refX='1' refY='1'>
			<rect width='2' height='2'/>
		</marker>
		<line x1='5' y1='5' x2='50' y2='5' stroke='black' stroke-width='3' marker-start='url(#m)'/>
	</svg>`, false)
	ps := paths(tree)
	require.Len(t, ps, 2)
	assert.Equal(t, svgpath.Identity.Translate(5, 5).Scale(3, 3).Translate(-1, -1), ps[1].Transform)
}

func TestText(t *testing.T) {
	tree := convert(t, `<svg xmlns='http://www.w3.org/2000/svg' viewBox='0 0 100 100'>
		<text x='10 20' y='20' font-family="'Noto Sans', serif" font-style='italic'>
			Hello   <tspan font-weight='bold'>big</tspan> world
			<tspan x='50' text-anchor='middle' font-size='2em'>Next</tspan>
			<tspan display='none'>hidden</tspan>
		</text>
		<text xml:space='preserve'>  a  b </text>
		<text>   </text>
	</svg>`, false)
	root := tree.Root()
	require.Len(t, root.Children, 2)

	text := root.Children[0].Kind.(*svgtree.Text)
	require.Len(t, text.Chunks, 2)
	first := text.Chunks[0]
	require.NotNil(t, first.X)
	assert.Equal(t, 10., *first.X)
	assert.Equal(t, 20., *first.Y)
	require.Len(t, first.Spans, 3)
	assert.Equal(t, "Hello ", first.Spans[0].Text)
	assert.Equal(t, "big", first.Spans[1].Text)
	assert.Equal(t, " world", first.Spans[2].Text)
	assert.Equal(t, svgtree.Font{Family: "Noto Sans, serif", Size: 12, Style: svgtree.StyleItalic, Weight: 400}, first.Spans[0].Font)
	assert.Equal(t, 700, first.Spans[1].Font.Weight)
	assert.Equal(t, svgtree.DefaultFill(), first.Spans[0].Fill)

	second := text.Chunks[1]
	assert.Equal(t, 50., *second.X)
	assert.Nil(t, second.Y)
	assert.Equal(t, svgtree.AnchorMiddle, second.Anchor)
	require.Len(t, second.Spans, 1)
	assert.Equal(t, "Next", second.Spans[0].Text)
	assert.Equal(t, 24., second.Spans[0].Font.Size)

	preserved := root.Children[1].Kind.(*svgtree.Text)
	assert.Equal(t, "  a  b ", preserved.Chunks[0].Spans[0].Text)
}

func TestImages(t *testing.T) {
	opts := DefaultOptions()
	opts.BasePath = "/base"
	tree, err := Parse(strings.NewReader(`<svg xmlns='http://www.w3.org/2000/svg' viewBox='0 0 100 100'>
		<image id='ext' href='img/photo.jpg' width='10' height='10' preserveAspectRatio='xMinYMin slice'/>
		<image id='svg' href='drawing.svg' width='10' height='10'/>
		<image id='unknown' href='archive.zip' width='10' height='10'/>
		<image id='empty' href='img.png' width='0' height='10'/>
		<image id='inline' href='data:image/svg+xml;utf8,%3Csvg%3E%3C/svg%3E' width='10' height='10'/>
	</svg>`), opts)
	require.NoError(t, err)
	images := map[string]*svgtree.Image{}
	for _, n := range tree.Root().Children {
		images[n.ID] = n.Kind.(*svgtree.Image)
	}
	require.Len(t, images, 3)
	assert.Equal(t, svgtree.ImageData{Kind: svgtree.JPEG, Path: filepath.Join("/base", "img", "photo.jpg")}, images["ext"].Data)
	assert.Equal(t, svgtree.AspectRatio{Align: svgtree.XMinYMin, Slice: true}, images["ext"].AspectRatio)
	assert.Equal(t, svgtree.SVG, images["svg"].Data.Kind)
	assert.Equal(t, svgtree.SVG, images["inline"].Data.Kind)
	assert.Equal(t, "<svg></svg>", string(images["inline"].Data.Raw))
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	filename := filepath.Join(dir, "test.svg")
	err := os.WriteFile(filename, []byte(`<svg xmlns='http://www.w3.org/2000/svg' viewBox='0 0 10 10'>
		<image href='img.png' width='10' height='10'/>
	</svg>`), 0o644)
	require.NoError(t, err)

	tree, err := ParseFile(filename, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, tree.Root().Children, 1)
	image := tree.Root().Children[0].Kind.(*svgtree.Image)
	assert.Equal(t, filepath.Join(dir, "img.png"), image.Data.Path)

	_, err = ParseFile(filepath.Join(dir, "missing.svg"), DefaultOptions())
	assert.Error(t, err)
}

func TestNoGroupWithoutEffect(t *testing.T) {
	tree := convert(t, `<svg xmlns='http://www.w3.org/2000/svg' viewBox='0 0 10 10'>
		<g id='a'><g id='b'><g opacity='0.5'><g><rect width='1' height='1'/><rect width='1' height='1'/></g></g></g></g>
		<a><rect id='link' width='1' height='1'/></a>
	</svg>`, false)
	for n := range tree.Descendants() {
		if g, ok := n.Kind.(*svgtree.Group); ok && n != tree.Root() {
			assert.True(t, g.IsCompositing())
		}
	}
	ps := paths(tree)
	require.Len(t, ps, 3)
	assert.Equal(t, "link", ps[2].ID)
}
