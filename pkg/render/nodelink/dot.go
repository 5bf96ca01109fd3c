package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/gitmorph/pkg/graph"
	"github.com/matzehuels/gitmorph/pkg/render"
)

// Options configures DOT generation.
type Options struct {
	// Height is the layout viewport height used to flip the y axis, since
	// Graphviz grows y upwards. Zero means the snapshot's own extent.
	Height float64

	// Detailed adds the author and message to each node's tooltip label.
	Detailed bool

	// Highlight draws the commit with this hash and its links in the
	// highlight colour.
	Highlight string

	// Palette shares author colours with other renders.
	Palette *render.Palette
}

// ToDOT converts a positioned snapshot to Graphviz DOT. Every node is
// pinned at its layout position, so the neato engine draws the layout the
// core computed rather than one of its own.
func ToDOT(s *graph.Snapshot, opts Options) string {
	palette := opts.Palette
	if palette == nil {
		palette = render.NewPalette()
	}
	height := opts.Height
	if height == 0 {
		if _, hi, ok := s.Bounds(); ok {
			height = hi.Y + render.NodeRadius
		}
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  inputscale=72;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  splines=true;\n")
	fmt.Fprintf(&buf, "  node [shape=circle, fixedsize=true, width=%s, style=filled, color=%q, penwidth=%s, fontsize=6, fontname=\"monospace\"];\n",
		fmtFloat(2*render.NodeRadius/72), render.ColorNodeStroke, fmtFloat(render.NodeStrokeWidth))
	fmt.Fprintf(&buf, "  edge [arrowhead=none, color=%q, penwidth=%s];\n",
		render.ColorLink, fmtFloat(render.LinkWidth))
	buf.WriteString("\n")

	for _, n := range s.Nodes() {
		attrs := nodeAttrs(n, height, palette, opts)
		fmt.Fprintf(&buf, "  %q [%s];\n", n.Hash, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, l := range s.Links() {
		attrs := ""
		if opts.Highlight != "" && (l.SourceHash == opts.Highlight || l.TargetHash == opts.Highlight) {
			attrs = fmt.Sprintf(" [color=%q, penwidth=%s]", render.ColorHighlight, fmtFloat(render.HighlightWidth))
		}
		fmt.Fprintf(&buf, "  %q -> %q%s;\n", l.SourceHash, l.TargetHash, attrs)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(n *graph.Node, height float64, palette *render.Palette, opts Options) []string {
	attrs := []string{
		fmt.Sprintf("label=%q", render.ShortHash(n.Hash)),
		fmt.Sprintf("pos=\"%s,%s!\"", fmtFloat(n.X), fmtFloat(height-n.Y)),
		fmt.Sprintf("fillcolor=%q", palette.Color(n.Author)),
	}
	if opts.Detailed {
		attrs = append(attrs, fmt.Sprintf("tooltip=%q", n.Author+": "+n.Message))
	}
	if len(n.Refs) > 0 {
		attrs = append(attrs, fmt.Sprintf("xlabel=%q", strings.Join(n.Refs, "\n")))
	}
	if n.IsStash {
		attrs = append(attrs, `style="filled,dashed"`)
	}
	if n.Hash == opts.Highlight {
		attrs = append(attrs, fmt.Sprintf("color=%q", render.ColorHighlight), "penwidth="+fmtFloat(render.HighlightWidth))
	}
	return attrs
}

func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// RenderSVG renders DOT to SVG with the neato engine.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	out, err := renderFormat(ctx, dot, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(out), nil
}

// RenderPNG renders DOT to PNG with the neato engine.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return renderFormat(ctx, dot, graphviz.PNG)
}

func renderFormat(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites Graphviz's svg element with an origin-based
// viewBox and a matching width and height.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
