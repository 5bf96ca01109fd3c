package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gitmorph/pkg/errors"
	"github.com/matzehuels/gitmorph/pkg/transition"
)

// planCommand computes the transition between two commit logs.
func (c *CLI) planCommand() *cobra.Command {
	var (
		viewport viewportFlags
		output   string
		lenient  bool
		noCache  bool
		quiet    bool
	)

	cmd := &cobra.Command{
		Use:   "plan <before.txt> <after.txt>",
		Short: "Compute the transition between two commit logs",
		Long: `Lay out both logs and classify every commit, link and label as entering,
persisting or exiting. Entering elements carry the position they start
from and exiting ones the position they collapse to, so the plan is all a
renderer needs to animate the change.

Either file may be "-" to read from stdin, but not both.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if args[0] == "-" && args[1] == "-" {
				return errors.New(errors.ErrCodeInvalidInput, "only one log can be read from stdin")
			}
			ctx := cmd.Context()
			runner, err := c.newRunner(noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			opts := c.viewportOptions(viewport)
			opts.Lenient = lenient

			logs := make([]string, 2)
			for i, name := range args {
				if logs[i], err = readFile(cmd.InOrStdin(), name); err != nil {
					return err
				}
			}
			before, _, err := runner.Layout(ctx, logs[0], opts)
			if err != nil {
				return fmt.Errorf("before log: %w", err)
			}
			after, warnings, err := runner.Layout(ctx, logs[1], opts)
			if err != nil {
				return fmt.Errorf("after log: %w", err)
			}
			plan := runner.PlanTransition(ctx, before, after)

			status := cmd.ErrOrStderr()
			printWarnings(status, warnings)
			if !quiet {
				printPlanStats(status, plan.Stats())
			}

			w := cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := createFile(output)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			return writePlan(w, plan)
		},
	}

	viewport.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVar(&lenient, "lenient", false, "skip malformed lines instead of failing")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not print the summary")
	return cmd
}

type planDocument struct {
	*transition.Plan
	Stats transition.Stats `json:"stats"`
}

func writePlan(w io.Writer, plan *transition.Plan) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(planDocument{Plan: plan, Stats: plan.Stats()})
}

func createFile(path string) (*os.File, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, nil
}
