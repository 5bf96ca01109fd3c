package render

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"math"
	"strconv"

	"github.com/matzehuels/gitmorph/pkg/animation"
	"github.com/matzehuels/gitmorph/pkg/graph"
	"github.com/matzehuels/gitmorph/pkg/layout"
)

const svgInteractionCSS = `
    .node circle { transition: stroke-width 0.2s ease; }
    .node:hover circle { stroke-width: 3; }
    .link { fill: none; }
    .node text { font-family: monospace; font-size: 6px; pointer-events: none; }
    .branch-label text { font-family: sans-serif; }`

// SVGOption configures RenderSVG.
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	width, height float64
	palette       *Palette
	highlight     string
	fit           bool
	labels        bool
	interactive   bool
}

// WithViewport sets the SVG size. The default is the layout viewport.
func WithViewport(w, h float64) SVGOption {
	return func(r *svgRenderer) { r.width, r.height = w, h }
}

// WithPalette shares author colours across renders.
func WithPalette(p *Palette) SVGOption { return func(r *svgRenderer) { r.palette = p } }

// WithHighlight draws the commit with the given hash and its links in the
// highlight colour.
func WithHighlight(hash string) SVGOption { return func(r *svgRenderer) { r.highlight = hash } }

// WithFit centers and scales the drawing to the viewport.
func WithFit() SVGOption { return func(r *svgRenderer) { r.fit = true } }

// WithoutLabels omits ref badges.
func WithoutLabels() SVGOption { return func(r *svgRenderer) { r.labels = false } }

// WithInteraction embeds hover styling.
func WithInteraction() SVGOption { return func(r *svgRenderer) { r.interactive = true } }

// RenderSVG draws one frame. Elements with zero opacity are skipped.
func RenderSVG(f animation.Frame, opts ...SVGOption) []byte {
	r := svgRenderer{
		width:  layout.DefaultWidth,
		height: layout.DefaultHeight,
		labels: true,
	}
	for _, opt := range opts {
		opt(&r)
	}
	if r.palette == nil {
		r.palette = NewPalette()
	}
	f = f.Visible()

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %s %s" width="%.0f" height="%.0f">`+"\n",
		num(r.width), num(r.height), r.width, r.height)
	if r.interactive {
		fmt.Fprintf(&buf, "  <style>%s\n  </style>\n", svgInteractionCSS)
	}

	t := layout.Identity
	if r.fit {
		if lo, hi, ok := frameBounds(f); ok {
			t = layout.FitBox(lo, hi, r.width, r.height)
		}
	}
	fmt.Fprintf(&buf, `  <g class="zoom" transform="translate(%s,%s) scale(%s)">`+"\n",
		num(t.TranslateX), num(t.TranslateY), num(t.Scale))

	r.renderLinks(&buf, f.Links)
	r.renderNodes(&buf, f.Nodes)
	if r.labels {
		r.renderLabels(&buf, f.Labels)
	}

	buf.WriteString("  </g>\n</svg>\n")
	return buf.Bytes()
}

// RenderSnapshotSVG draws s at rest.
func RenderSnapshotSVG(s *graph.Snapshot, opts ...SVGOption) []byte {
	return RenderSVG(animation.Still(s), opts...)
}

func (r *svgRenderer) renderLinks(buf *bytes.Buffer, links []animation.LinkFrame) {
	buf.WriteString(`    <g class="links">` + "\n")
	for _, l := range links {
		stroke, width := ColorLink, LinkWidth
		if r.highlight != "" && (l.SourceHash == r.highlight || l.TargetHash == r.highlight) {
			stroke, width = ColorHighlight, HighlightWidth
		}
		fmt.Fprintf(buf, `      <path class="link" data-source="%s" data-target="%s" d="%s" stroke="%s" stroke-width="%s" fill="none"%s/>`+"\n",
			escapeXML(l.SourceHash), escapeXML(l.TargetHash), l.Path.D(), stroke, num(width), opacityAttr(l.Opacity))
	}
	buf.WriteString("    </g>\n")
}

func (r *svgRenderer) renderNodes(buf *bytes.Buffer, nodes []animation.NodeFrame) {
	buf.WriteString(`    <g class="nodes">` + "\n")
	for _, n := range nodes {
		stroke, width := ColorNodeStroke, NodeStrokeWidth
		if n.Hash == r.highlight {
			stroke, width = ColorHighlight, HighlightWidth
		}
		fill, dash := Category10[0], ""
		if n.Node != nil {
			fill = r.palette.Color(n.Node.Author)
			if n.Node.IsStash {
				dash = ` stroke-dasharray="3,2"`
			}
		}
		fmt.Fprintf(buf, `      <g class="node" id="node-%s" transform="translate(%s,%s)"%s>`+"\n",
			escapeXML(n.Hash), num(n.Pos.X), num(n.Pos.Y), opacityAttr(n.Opacity))
		fmt.Fprintf(buf, `        <circle r="%s" fill="%s" stroke="%s" stroke-width="%s"%s/>`+"\n",
			num(NodeRadius), fill, stroke, num(width), dash)
		fmt.Fprintf(buf, `        <text dy="1.5" text-anchor="middle" fill="%s">%s</text>`+"\n",
			ColorNodeStroke, escapeXML(ShortHash(n.Hash)))
		if n.Node != nil {
			fmt.Fprintf(buf, "        <title>%s</title>\n", escapeXML(tooltip(n.Node)))
		}
		buf.WriteString("      </g>\n")
	}
	buf.WriteString("    </g>\n")
}

func (r *svgRenderer) renderLabels(buf *bytes.Buffer, labels []animation.LabelFrame) {
	buf.WriteString(`    <g class="labels">` + "\n")
	for _, l := range labels {
		fmt.Fprintf(buf, `      <g class="branch-label" transform="translate(%s,%s)"%s>`+"\n",
			num(l.Pos.X), num(l.Pos.Y), opacityAttr(l.Opacity))
		fmt.Fprintf(buf, `        <rect x="%s" y="%s" rx="5" ry="5" width="%s" height="%s" fill="%s"/>`+"\n",
			num(-LabelPadding), num(-LabelPadding), num(labelWidth(l.Ref)), num(2*LabelPadding), RefColor(l.Ref))
		fmt.Fprintf(buf, `        <text fill="%s" dy="0.35em" font-size="%spx">%s</text>`+"\n",
			ColorLabelText, num(LabelFontSize), escapeXML(l.Ref))
		buf.WriteString("      </g>\n")
	}
	buf.WriteString("    </g>\n")
}

func tooltip(n *graph.Node) string {
	return fmt.Sprintf("%s %s\n%s, %s", ShortHash(n.Hash), n.Message, n.Author, n.Date)
}

func frameBounds(f animation.Frame) (lo, hi graph.Point, ok bool) {
	for i, n := range f.Nodes {
		if i == 0 {
			lo, hi = n.Pos, n.Pos
			continue
		}
		lo.X, lo.Y = min(lo.X, n.Pos.X), min(lo.Y, n.Pos.Y)
		hi.X, hi.Y = max(hi.X, n.Pos.X), max(hi.Y, n.Pos.Y)
	}
	return lo, hi, len(f.Nodes) > 0
}

func opacityAttr(o float64) string {
	if o >= 1 {
		return ""
	}
	return fmt.Sprintf(` opacity="%s"`, num(o))
}

// num formats a coordinate rounded to three decimals, without trailing
// zeros.
func num(v float64) string {
	r := math.Round(v*1000) / 1000
	if r == 0 {
		r = 0 // drop negative zero
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
