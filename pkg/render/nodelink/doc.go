// Package nodelink renders positioned commit graphs through Graphviz.
//
// # Usage
//
//	dot := nodelink.ToDOT(snap, nodelink.Options{Height: 600})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// [ToDOT] pins every node with pos="x,y!" and selects the neato engine, so
// Graphviz reproduces the core layout instead of computing its own. The DOT
// source is also useful on its own for external Graphviz tooling.
//
// Rendering is in-process via [github.com/goccy/go-graphviz]; no Graphviz
// installation is required.
package nodelink
