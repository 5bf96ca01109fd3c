package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gitmorph/pkg/errors"
	"github.com/matzehuels/gitmorph/pkg/pipeline"
)

// renderCommand writes SVG, DOT, PNG or JSON renderings of a commit log.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		in       inputFlags
		viewport viewportFlags
		formats  string
		output   string
		noCache  bool
		refresh  bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "render [log.txt|-]",
		Short: "Render a commit log to SVG, DOT, PNG or JSON",
		Long: `Render the commit graph of a log.

  svg   the native renderer: ref badges, author colours, parent links
  dot   Graphviz source with every node pinned at its layout position
  png   the Graphviz source rasterised
  json  the positioned snapshot, as written by 'layout'

With one format, -o names the output file. With several, -o is a base path
and each format gets its own extension. Without -o the name is taken from
the input file, or "gitmorph" when reading from stdin or a repository.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			vo := c.viewportOptions(viewport)
			opts.Width, opts.Height, opts.Logger = vo.Width, vo.Height, vo.Logger
			opts.Formats = splitFormats(formats)
			opts.Refresh = refresh
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			if opts.Highlight != "" {
				if err := errors.ValidateHash(opts.Highlight); err != nil {
					return err
				}
			}

			text, err := c.readLog(ctx, cmd, in, args)
			if err != nil {
				return err
			}
			runner, err := c.newRunner(noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			status := cmd.ErrOrStderr()
			spin := newSpinner(ctx, status, "Rendering...")
			spin.Start()
			result, err := runner.Execute(ctx, text, opts)
			spin.Stop()
			if err != nil {
				return err
			}
			printWarnings(status, result.Warnings)

			input := ""
			if len(args) == 1 && args[0] != "-" {
				input = args[0]
			}
			base := basePath(output, input)
			single := len(opts.Formats) == 1 && output != ""

			printSuccess(status, "Rendered %d commits", result.Stats.CommitCount)
			for _, f := range sortedFormats(result.Artifacts) {
				path := base + "." + f
				if single {
					path = output
				}
				if err := os.WriteFile(path, result.Artifacts[f], 0o644); err != nil {
					return fmt.Errorf("write %s: %w", path, err)
				}
				printFile(status, path)
			}
			printStats(status, result.Stats.CommitCount, result.Stats.LinkCount, result.CacheInfo.LayoutHit)
			return nil
		},
	}

	in.register(cmd)
	viewport.register(cmd)
	cmd.Flags().StringVarP(&formats, "format", "f", pipeline.FormatSVG, "output format(s): svg, dot, png, json (comma-separated)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (one format) or base path (several)")
	cmd.Flags().StringVar(&opts.Highlight, "highlight", "", "emphasise this commit and its neighbours")
	cmd.Flags().BoolVar(&opts.Detailed, "detailed", false, "label DOT nodes with author and date")
	cmd.Flags().BoolVar(&opts.Fit, "fit", false, "crop the SVG viewBox to the drawn commits")
	cmd.Flags().BoolVar(&opts.Lenient, "lenient", false, "skip malformed lines instead of failing")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute even when cached")
	return cmd
}

// basePath derives the output path without extension. A known format
// extension on output is stripped; with no output the input name is used.
func basePath(output, input string) string {
	if output == "" {
		if input == "" {
			return appName
		}
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

func sortedFormats(artifacts map[string][]byte) []string {
	out := make([]string, 0, len(artifacts))
	for f := range artifacts {
		out = append(out, f)
	}
	slices.Sort(out)
	return out
}
