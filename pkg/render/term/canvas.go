// Package term draws animation frames on a character grid.
//
// Layout coordinates are scaled to fill cols x rows cells, with x stretched
// by two because terminal cells are about twice as tall as they are wide. Nodes become a
// filled dot in their author's colour, links are traced by sampling their
// path, and ref labels are written to the right of their node.
package term

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/gitmorph/pkg/animation"
	"github.com/matzehuels/gitmorph/pkg/graph"
	"github.com/matzehuels/gitmorph/pkg/layout"
	"github.com/matzehuels/gitmorph/pkg/render"
)

const (
	glyphNode     = '●'
	glyphStash    = '◌'
	glyphFading   = '○'
	glyphLink     = '·'
	linkSamples   = 48
	cellAspect    = 2.0
	fadeThreshold = 0.5
)

type cell struct {
	r     rune
	color string
	bold  bool
}

// Canvas is a reusable character grid.
type Canvas struct {
	Cols, Rows int
	Palette    *render.Palette
	Highlight  string

	cells []cell
}

// New returns a cols x rows canvas.
func New(cols, rows int, palette *render.Palette) *Canvas {
	if palette == nil {
		palette = render.NewPalette()
	}
	return &Canvas{Cols: max(cols, 1), Rows: max(rows, 1), Palette: palette}
}

// Resize changes the grid size.
func (c *Canvas) Resize(cols, rows int) {
	c.Cols, c.Rows = max(cols, 1), max(rows, 1)
}

// Transform returns the layout-to-cell mapping that centers lo..hi on the
// grid. X is in half-cell units; use Cell to convert.
func (c *Canvas) Transform(lo, hi graph.Point) layout.Transform {
	w, h := float64(c.Cols-1)/cellAspect, float64(c.Rows-1)
	bw, bh := hi.X-lo.X, hi.Y-lo.Y
	scale := math.Inf(1)
	if bw > 0 {
		scale = w / bw
	}
	if bh > 0 {
		scale = min(scale, h/bh)
	}
	if math.IsInf(scale, 1) {
		scale = 1
	}
	return layout.Transform{
		Scale:      scale,
		TranslateX: w/2 - (lo.X+bw/2)*scale,
		TranslateY: h/2 - (lo.Y+bh/2)*scale,
	}
}

// Cell maps a layout point to a grid position through t.
func (c *Canvas) Cell(t layout.Transform, p graph.Point) (col, row int) {
	q := t.Apply(p)
	return int(math.Round(q.X * cellAspect)), int(math.Round(q.Y))
}

// Draw renders f and returns the grid as lines joined by newlines.
// Transparent elements are skipped; elements below half opacity are drawn
// hollow. Bounds fit the frame's own nodes unless fixed is non-nil.
func (c *Canvas) Draw(f animation.Frame, fixed *[2]graph.Point) string {
	c.cells = make([]cell, c.Cols*c.Rows)
	f = f.Visible()

	var lo, hi graph.Point
	switch {
	case fixed != nil:
		lo, hi = fixed[0], fixed[1]
	case len(f.Nodes) > 0:
		lo, hi = f.Nodes[0].Pos, f.Nodes[0].Pos
		for _, n := range f.Nodes[1:] {
			lo.X, lo.Y = min(lo.X, n.Pos.X), min(lo.Y, n.Pos.Y)
			hi.X, hi.Y = max(hi.X, n.Pos.X), max(hi.Y, n.Pos.Y)
		}
	default:
		return c.String()
	}
	t := c.Transform(lo, hi)

	for _, l := range f.Links {
		color := render.ColorLink
		if c.Highlight != "" && (l.SourceHash == c.Highlight || l.TargetHash == c.Highlight) {
			color = render.ColorHighlight
		}
		for i := 0; i <= linkSamples; i++ {
			col, row := c.Cell(t, l.Path.At(float64(i)/linkSamples))
			c.set(col, row, cell{r: glyphLink, color: color}, false)
		}
	}

	for _, n := range f.Nodes {
		g, color := glyphNode, render.Category10[0]
		if n.Node != nil {
			color = c.Palette.Color(n.Node.Author)
			if n.Node.IsStash {
				g = glyphStash
			}
		}
		if n.Opacity < fadeThreshold {
			g = glyphFading
		}
		bold := n.Hash == c.Highlight
		if bold {
			color = render.ColorHighlight
		}
		col, row := c.Cell(t, n.Pos)
		c.set(col, row, cell{r: g, color: color, bold: bold}, true)
	}

	// Badges start two cells right of their node, one row per ref.
	anchors := make(map[string][2]int, len(f.Nodes))
	for _, n := range f.Nodes {
		col, row := c.Cell(t, n.Pos)
		anchors[n.Hash] = [2]int{col, row}
	}
	stacked := make(map[string]int)
	for _, l := range f.Labels {
		a, ok := anchors[l.Hash]
		if !ok || l.Opacity < fadeThreshold {
			continue
		}
		c.write(a[0]+2, a[1]+stacked[l.Hash], " "+l.Ref+" ", render.RefColor(l.Ref))
		stacked[l.Hash]++
	}
	return c.String()
}

func (c *Canvas) set(col, row int, v cell, overwrite bool) {
	if col < 0 || row < 0 || col >= c.Cols || row >= c.Rows {
		return
	}
	i := row*c.Cols + col
	if !overwrite && c.cells[i].r != 0 {
		return
	}
	c.cells[i] = v
}

func (c *Canvas) write(col, row int, s, bg string) {
	for _, r := range s {
		if col >= 0 && col < c.Cols && row >= 0 && row < c.Rows {
			c.cells[row*c.Cols+col] = cell{r: r, color: bg, bold: true}
		}
		col++
	}
}

// String renders the last drawn grid.
func (c *Canvas) String() string {
	if len(c.cells) != c.Cols*c.Rows {
		c.cells = make([]cell, c.Cols*c.Rows)
	}
	var b strings.Builder
	for row := 0; row < c.Rows; row++ {
		if row > 0 {
			b.WriteByte('\n')
		}
		line := c.cells[row*c.Cols : (row+1)*c.Cols]
		for _, v := range line {
			if v.r == 0 {
				b.WriteByte(' ')
				continue
			}
			style := lipgloss.NewStyle().Foreground(lipgloss.Color(v.color)).Bold(v.bold)
			b.WriteString(style.Render(string(v.r)))
		}
	}
	return b.String()
}

// Plain returns the last drawn grid without colour codes or trailing
// blanks.
func (c *Canvas) Plain() string {
	if len(c.cells) != c.Cols*c.Rows {
		return ""
	}
	lines := make([]string, c.Rows)
	for row := range lines {
		var b strings.Builder
		for _, v := range c.cells[row*c.Cols : (row+1)*c.Cols] {
			if v.r == 0 {
				b.WriteByte(' ')
			} else {
				b.WriteRune(v.r)
			}
		}
		lines[row] = strings.TrimRight(b.String(), " ")
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}
