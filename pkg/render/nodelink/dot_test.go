package nodelink

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/gitmorph/pkg/commitlog"
	"github.com/matzehuels/gitmorph/pkg/graph"
	"github.com/matzehuels/gitmorph/pkg/layout"
	"github.com/matzehuels/gitmorph/pkg/render"
)

func laidOut(t *testing.T, text string) *graph.Snapshot {
	t.Helper()
	commits, err := commitlog.Parse(text)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	s, _ := graph.Build(commits)
	layout.Apply(s, layout.DefaultOptions())
	return s
}

func TestToDOT(t *testing.T) {
	s := laidOut(t, "b2 (Bob) (now) (second)  (HEAD -> main, tag: v1) [a1]\na1 (Eve) (now) (init)  []")
	dot := ToDOT(s, Options{Height: 600})

	for _, want := range []string{
		"digraph G {",
		"layout=neato;",
		"inputscale=72;",
		`"b2" [label="b2", pos="400,70!"`,
		`"a1" [label="a1", pos="400,20!"`,
		`xlabel="HEAD -> main\ntag: v1"`,
		`"b2" -> "a1";`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q\n%s", want, dot)
		}
	}
	if strings.Contains(dot, "tooltip") {
		t.Error("tooltip emitted without Detailed")
	}
}

func TestToDOTOptions(t *testing.T) {
	s := laidOut(t, "b2 (Bob) (now) (stash: x)  [a1]\na1 (Eve) (now) (init)  []")
	palette := render.NewPalette()
	palette.Color("Eve")
	dot := ToDOT(s, Options{Detailed: true, Highlight: "a1", Palette: palette})

	for _, want := range []string{
		`tooltip="Bob: stash: x"`,
		`style="filled,dashed"`,
		`"b2" -> "a1" [color="#e11d48", penwidth=3];`,
		`fillcolor="` + render.Category10[0] + `"`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q\n%s", want, dot)
		}
	}
	if !strings.Contains(dot, `"a1" [label="a1", pos="400,10!", fillcolor="`+render.Category10[0]+`"`) {
		t.Errorf("Eve should keep the shared palette colour and flip against the snapshot extent\n%s", dot)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<?xml version="1.0"?>` + "\n" +
		`<svg width="120pt" height="80pt" viewBox="0.00 0.00 120.50 80.25" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	got := string(normalizeViewBox(in))
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 120.50 80.25" width="120" height="80">`
	if !strings.Contains(got, want) {
		t.Errorf("normalizeViewBox() =\n%s\nwant tag %s", got, want)
	}

	noBox := []byte(`<svg><g/></svg>`)
	if got := normalizeViewBox(noBox); string(got) != string(noBox) {
		t.Errorf("normalizeViewBox() changed svg without viewBox: %s", got)
	}
}

func TestRenderGraphviz(t *testing.T) {
	if testing.Short() {
		t.Skip("graphviz rendering is slow")
	}
	dot := ToDOT(laidOut(t, "b2 (Bob) (now) (second)  [a1]\na1 (Eve) (now) (init)  []"), Options{})
	ctx := context.Background()

	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		t.Fatalf("RenderSVG() error: %v", err)
	}
	if !bytes.Contains(svg, []byte(`viewBox="0 0 `)) {
		t.Errorf("RenderSVG() did not normalise the viewBox:\n%s", svg)
	}

	png, err := RenderPNG(ctx, dot)
	if err != nil {
		t.Fatalf("RenderPNG() error: %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Errorf("RenderPNG() output is not a PNG (%d bytes)", len(png))
	}
}
