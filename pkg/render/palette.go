package render

import (
	"strings"
	"sync"

	"github.com/matzehuels/gitmorph/pkg/graph"
)

// Drawing colours.
const (
	ColorNodeStroke = "#333"
	ColorLink       = "#999"
	ColorHighlight  = "#e11d48"
	ColorLabelText  = "#fff"

	ColorTag    = "#f59e0b"
	ColorHEAD   = "#3b82f6"
	ColorBranch = "#10b981"
)

// Geometry.
const (
	NodeRadius        = 10.0
	NodeStrokeWidth   = 1.5
	LinkWidth         = 2.0
	HighlightWidth    = 3.0
	LabelFontSize     = 5.0
	LabelPadding      = 5.0
	approxCharWidthEm = 0.6
	hashDisplayLength = 7
)

// Category10 is the ten-colour categorical scheme used for authors.
var Category10 = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
}

// RefColor returns the badge colour of a ref label: tags first, then the
// bare HEAD ref, everything else is a branch.
func RefColor(ref string) string {
	switch {
	case strings.Contains(ref, "tag"):
		return ColorTag
	case ref == "HEAD":
		return ColorHEAD
	default:
		return ColorBranch
	}
}

// ShortHash truncates a hash for display.
func ShortHash(hash string) string {
	if len(hash) > hashDisplayLength {
		return hash[:hashDisplayLength]
	}
	return hash
}

// Palette assigns colours to authors in order of first appearance, cycling
// through Category10. Assignments are stable for the palette's lifetime, so
// one palette shared across frames keeps every author's colour fixed while
// the graph changes. It is safe for concurrent use.
type Palette struct {
	mu      sync.Mutex
	colors  []string
	assigns map[string]string
}

// NewPalette returns an empty palette over Category10.
func NewPalette() *Palette {
	return &Palette{colors: Category10, assigns: make(map[string]string)}
}

// Color returns author's colour, assigning the next one on first use.
func (p *Palette) Color(author string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.assigns[author]; ok {
		return c
	}
	c := p.colors[len(p.assigns)%len(p.colors)]
	p.assigns[author] = c
	return c
}

// Observe assigns colours to every author of s in node order.
func (p *Palette) Observe(s *graph.Snapshot) {
	for _, n := range s.Nodes() {
		p.Color(n.Author)
	}
}

// Len returns the number of authors seen.
func (p *Palette) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.assigns)
}

// labelWidth approximates the rendered width of a ref badge.
func labelWidth(ref string) float64 {
	return float64(len([]rune(ref)))*LabelFontSize*approxCharWidthEm + 2*LabelPadding
}
