// Package render draws commit graphs.
//
// # Overview
//
// Everything here consumes positioned data from the core packages and never
// changes it. The root package renders [animation.Frame] values as SVG, so a
// single code path draws both still snapshots ([animation.Still]) and
// in-between frames of a transition:
//
//	svg := render.RenderSVG(animation.Still(snap), render.WithFit())
//
// Colours are shared by every renderer: [Palette] assigns each author a
// category10 colour in order of first appearance, and [RefColor] picks the
// badge colour of a branch, tag or HEAD label.
//
// # Subpackages
//
//   - [nodelink]: Graphviz DOT output with pinned positions, rendered
//     in-process through go-graphviz
//   - [term]: a character-cell canvas for the terminal animation
//
// [nodelink]: github.com/matzehuels/gitmorph/pkg/render/nodelink
// [term]: github.com/matzehuels/gitmorph/pkg/render/term
package render
