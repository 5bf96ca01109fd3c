package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/gitmorph/pkg/graph"
)

// layoutCommand computes node positions and writes the snapshot as JSON.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		in       inputFlags
		viewport viewportFlags
		output   string
		lenient  bool
		noCache  bool
	)

	cmd := &cobra.Command{
		Use:   "layout [log.txt|-]",
		Short: "Compute commit positions and write the snapshot as JSON",
		Long: `Compute the layered layout of a commit log.

The snapshot lists every commit with its level and x/y position plus the
parent links between them. It is the same document 'render -f json' writes
and the server returns from /api/snapshot.

Layouts are cached by log content and viewport, so running the command
again on an unchanged log is instant.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			text, err := c.readLog(ctx, cmd, in, args)
			if err != nil {
				return err
			}
			runner, err := c.newRunner(noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			opts := c.viewportOptions(viewport)
			opts.Lenient = lenient

			p := newProgress(c.Logger)
			snap, warnings, hit, err := runner.LayoutWithCacheInfo(ctx, text, opts)
			if err != nil {
				return err
			}
			p.done("laid out commits", "commits", snap.Len())

			status := cmd.ErrOrStderr()
			printWarnings(status, warnings)
			if output == "" || output == "-" {
				return graph.WriteSnapshot(snap, cmd.OutOrStdout())
			}
			if err := graph.WriteSnapshotFile(snap, output); err != nil {
				return err
			}
			printSuccess(status, "Layout written")
			printFile(status, output)
			printStats(status, snap.Len(), snap.LinkCount(), hit)
			return nil
		},
	}

	in.register(cmd)
	viewport.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVar(&lenient, "lenient", false, "skip malformed lines instead of failing")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	return cmd
}
