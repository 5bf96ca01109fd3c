package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/gitmorph/pkg/pipeline"
)

// viewportFlags override the configured layout viewport.
type viewportFlags struct {
	width, height float64
}

func (f *viewportFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.width, "width", 0, "viewport width (default from config)")
	cmd.Flags().Float64Var(&f.height, "height", 0, "viewport height (default from config)")
}

// viewportOptions returns pipeline options for the configured viewport with any
// explicit flags applied.
func (c *CLI) viewportOptions(f viewportFlags) pipeline.Options {
	opts := c.pipelineOptions()
	if f.width > 0 {
		opts.Width = f.width
	}
	if f.height > 0 {
		opts.Height = f.height
	}
	return opts
}
