package render

import (
	"strings"
	"testing"

	"github.com/matzehuels/gitmorph/pkg/animation"
	"github.com/matzehuels/gitmorph/pkg/commitlog"
	"github.com/matzehuels/gitmorph/pkg/graph"
	"github.com/matzehuels/gitmorph/pkg/layout"
	"github.com/matzehuels/gitmorph/pkg/transition"
)

func sampleSnapshot(t *testing.T, text string) *graph.Snapshot {
	t.Helper()
	commits, err := commitlog.Parse(text)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	s, _ := graph.Build(commits)
	layout.Apply(s, layout.DefaultOptions())
	return s
}

func TestRefColor(t *testing.T) {
	tests := []struct {
		ref  string
		want string
	}{
		{"tag: v1.0", ColorTag},
		{"HEAD", ColorHEAD},
		{"HEAD -> main", ColorBranch},
		{"origin/main", ColorBranch},
		{"feature/tagging", ColorTag},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			if got := RefColor(tt.ref); got != tt.want {
				t.Errorf("RefColor(%q) = %s, want %s", tt.ref, got, tt.want)
			}
		})
	}
}

func TestPaletteFirstAppearance(t *testing.T) {
	p := NewPalette()
	if got := p.Color("Bob"); got != Category10[0] {
		t.Errorf("first author = %s", got)
	}
	if got := p.Color("Alice"); got != Category10[1] {
		t.Errorf("second author = %s", got)
	}
	if got := p.Color("Bob"); got != Category10[0] {
		t.Errorf("Bob changed colour to %s", got)
	}
	for i := 0; i < 10; i++ {
		p.Color(string(rune('a' + i)))
	}
	if p.Len() != 12 {
		t.Errorf("Len() = %d, want 12", p.Len())
	}
	if got := p.Color("j"); got != Category10[11%len(Category10)] {
		t.Errorf("palette should cycle, got %s", got)
	}
}

func TestPaletteObserve(t *testing.T) {
	p := NewPalette()
	p.Observe(sampleSnapshot(t, commitlog.SampleLog))
	if p.Len() == 0 {
		t.Fatal("Observe() assigned no colours")
	}
}

func TestShortHash(t *testing.T) {
	if got := ShortHash("0123456789abcdef"); got != "0123456" {
		t.Errorf("ShortHash() = %q", got)
	}
	if got := ShortHash("abc"); got != "abc" {
		t.Errorf("ShortHash() = %q", got)
	}
}

func TestRenderSnapshotSVG(t *testing.T) {
	s := sampleSnapshot(t, "b2 (Bob) (now) (second <b>)  (HEAD -> main, tag: v1) [a1]\na1 (Eve) (1 day ago) (init)  []")
	svg := string(RenderSnapshotSVG(s))

	for _, want := range []string{
		`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 800 600" width="800" height="600">`,
		`id="node-b2" transform="translate(400,530)"`,
		`id="node-a1" transform="translate(400,580)"`,
		`d="M400,530 L400,580"`,
		`stroke="#999" stroke-width="2"`,
		`fill="` + Category10[0] + `"`,
		`fill="` + ColorTag + `"`,
		`>tag: v1</text>`,
		`second &lt;b&gt;`,
	} {
		if !strings.Contains(svg, want) {
			t.Errorf("SVG missing %q", want)
		}
	}
	if strings.Contains(svg, "<style>") {
		t.Error("SVG should not embed styles without WithInteraction")
	}
}

func TestRenderSVGHighlight(t *testing.T) {
	s := sampleSnapshot(t, "b2 (Bob) (now) (second)  [a1]\na1 (Bob) (now) (init)  []")
	svg := string(RenderSnapshotSVG(s, WithHighlight("a1"), WithInteraction()))

	if !strings.Contains(svg, `stroke="#e11d48" stroke-width="3"/>`) {
		t.Error("highlighted node circle missing")
	}
	if !strings.Contains(svg, `stroke="#e11d48" stroke-width="3" fill="none"`) {
		t.Error("highlighted link missing")
	}
	if !strings.Contains(svg, "<style>") {
		t.Error("WithInteraction() should embed styles")
	}
}

func TestRenderSVGFrameSkipsInvisible(t *testing.T) {
	prev := sampleSnapshot(t, "a1 (Bob) (now) (init)  []")
	cur := sampleSnapshot(t, "b2 (Bob) (now) (second)  [a1]\na1 (Bob) (now) (init)  []")
	plan := transition.NewPlan(prev, cur)

	start := string(RenderSVG(animation.Interpolate(plan, 0, nil)))
	if strings.Contains(start, "node-b2") {
		t.Error("entering node drawn at t=0")
	}
	mid := string(RenderSVG(animation.Interpolate(plan, 0.5, animation.Linear)))
	if !strings.Contains(mid, `id="node-b2" transform="translate(400,555)" opacity="0.5"`) {
		t.Errorf("mid-transition node missing or misplaced:\n%s", mid)
	}
}

func TestRenderSVGFit(t *testing.T) {
	s := sampleSnapshot(t, "a1 (Bob) (now) (init)  []")
	svg := string(RenderSnapshotSVG(s, WithFit(), WithViewport(400, 300)))
	tr := layout.Fit(s, 400, 300)
	want := `transform="translate(` + num(tr.TranslateX) + "," + num(tr.TranslateY) + ") scale(" + num(tr.Scale) + `)"`
	if !strings.Contains(svg, want) {
		t.Errorf("SVG missing fit transform %s", want)
	}
}

func TestNum(t *testing.T) {
	tests := map[float64]string{
		400:      "400",
		362.5:    "362.5",
		1.0 / 3:  "0.333",
		-0.0001:  "0",
		-12.3456: "-12.346",
	}
	for in, want := range tests {
		if got := num(in); got != want {
			t.Errorf("num(%v) = %q, want %q", in, got, want)
		}
	}
}
