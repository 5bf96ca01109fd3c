package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gitmorph/pkg/commitlog"
	"github.com/matzehuels/gitmorph/pkg/pipeline"
)

// parseCommand validates a commit log and prints what was read.
func (c *CLI) parseCommand() *cobra.Command {
	var (
		in      inputFlags
		lenient bool
		asJSON  bool
		asLog   bool
	)

	cmd := &cobra.Command{
		Use:   "parse [log.txt|-]",
		Short: "Validate a commit log and print its commits",
		Long: `Parse a commit log in the gitmorph line format:

  <hash> (<author>) (<date>) (<message>) <refs> [<parents>]

which is what git produces with

  git log --pretty=format:'` + commitlog.PrettyFormat + `'

Malformed lines fail the whole log with their line number, unless --lenient
is given, in which case they are reported and skipped.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			text, err := c.readLog(ctx, cmd, in, args)
			if err != nil {
				return err
			}
			commits, err := pipeline.Parse(ctx, text, pipeline.Options{Lenient: lenient, Logger: c.Logger})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			switch {
			case asJSON:
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(commits)
			case asLog:
				fmt.Fprintln(w, commitlog.FormatAll(commits))
			default:
				fmt.Fprintln(w, commitTable(commits))
				printSuccess(w, "Parsed %d commits", len(commits))
			}
			return nil
		},
	}

	in.register(cmd)
	cmd.Flags().BoolVar(&lenient, "lenient", false, "skip malformed lines instead of failing")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print commits as JSON")
	cmd.Flags().BoolVar(&asLog, "log", false, "print commits back in the log line format")
	cmd.MarkFlagsMutuallyExclusive("json", "log")
	return cmd
}
