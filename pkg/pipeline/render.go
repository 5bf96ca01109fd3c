package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/gitmorph/pkg/graph"
	"github.com/matzehuels/gitmorph/pkg/render"
	"github.com/matzehuels/gitmorph/pkg/render/nodelink"
)

// Render generates every format in opts.Formats from a positioned snapshot.
// All formats share one author palette, so colours agree between outputs.
func Render(ctx context.Context, s *graph.Snapshot, opts Options) (map[string][]byte, error) {
	palette := render.NewPalette()
	palette.Observe(s)

	artifacts := make(map[string][]byte, len(opts.Formats))
	var dot string
	for _, format := range opts.Formats {
		var (
			data []byte
			err  error
		)
		switch format {
		case FormatSVG:
			data = render.RenderSnapshotSVG(s, svgOptions(opts, palette)...)
		case FormatJSON:
			data, err = graph.MarshalSnapshot(s)
		case FormatDOT, FormatPNG:
			if dot == "" {
				dot = nodelink.ToDOT(s, nodelink.Options{
					Height:    opts.LayoutOptions().Height,
					Detailed:  opts.Detailed,
					Highlight: opts.Highlight,
					Palette:   palette,
				})
			}
			if format == FormatDOT {
				data = []byte(dot)
			} else {
				data, err = nodelink.RenderPNG(ctx, dot)
			}
		default:
			err = ValidateFormat(format)
		}
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

func svgOptions(opts Options, palette *render.Palette) []render.SVGOption {
	lo := opts.LayoutOptions()
	out := []render.SVGOption{
		render.WithViewport(lo.Width, lo.Height),
		render.WithPalette(palette),
	}
	if opts.Highlight != "" {
		out = append(out, render.WithHighlight(opts.Highlight))
	}
	if opts.Fit {
		out = append(out, render.WithFit())
	}
	if opts.Detailed {
		out = append(out, render.WithInteraction())
	}
	return out
}
