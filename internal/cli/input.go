package cli

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gitmorph/pkg/commitlog"
	"github.com/matzehuels/gitmorph/pkg/errors"
	"github.com/matzehuels/gitmorph/pkg/source/gitrepo"
)

// inputFlags selects where a command reads its commit log from.
type inputFlags struct {
	repo   string
	sample bool
}

func (f *inputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.repo, "repo", "", "read the log from the git repository at this path")
	cmd.Flags().BoolVar(&f.sample, "sample", false, "use the built-in sample log")
}

// readLog returns log text from, in order: --sample, --repo, a file
// argument, or stdin when the argument is "-".
func (c *CLI) readLog(ctx context.Context, cmd *cobra.Command, f inputFlags, args []string) (string, error) {
	switch {
	case f.sample:
		return commitlog.SampleLog, nil
	case f.repo != "":
		return c.repoLog(ctx, f.repo)
	case len(args) == 0:
		return "", errors.New(errors.ErrCodeInvalidInput, "no log given: pass a file, \"-\" for stdin, --repo or --sample")
	}
	return readFile(cmd.InOrStdin(), args[0])
}

// repoLog renders the newest commits of the repository at path in the log
// line format.
func (c *CLI) repoLog(ctx context.Context, path string) (string, error) {
	r, err := gitrepo.Open(path, gitrepo.Options{
		MaxEntries: c.Config.MaxLogEntries,
		Logger:     c.Logger,
	})
	if err != nil {
		return "", err
	}
	c.Logger.Debug("reading repository", "root", r.Root())
	return r.Log(ctx)
}

func readFile(stdin io.Reader, name string) (string, error) {
	var (
		data []byte
		err  error
	)
	if name == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(name)
	}
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidInput, err, "read %s", name)
	}
	return string(data), nil
}

// splitFormats parses a comma-separated format list.
func splitFormats(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(strings.ToLower(f)); f != "" {
			out = append(out, f)
		}
	}
	return out
}
