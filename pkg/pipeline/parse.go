package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/gitmorph/pkg/commitlog"
	"github.com/matzehuels/gitmorph/pkg/observability"
)

// Parse reads commit log text. With opts.Lenient, malformed lines are
// logged and skipped; the log still fails if no line parses.
func Parse(ctx context.Context, text string, opts Options) ([]commitlog.Commit, error) {
	hooks := observability.Pipeline()
	hooks.OnParseStart(ctx, len(text))
	start := time.Now()

	var (
		commits []commitlog.Commit
		err     error
	)
	if opts.Lenient {
		var skipped []*commitlog.ParseError
		commits, skipped, err = commitlog.ParseLenient(text)
		for _, pe := range skipped {
			if opts.Logger != nil {
				opts.Logger.Warn("skipped malformed line", "line", pe.LineNumber, "text", pe.Line)
			}
		}
	} else {
		commits, err = commitlog.Parse(text)
	}

	hooks.OnParseComplete(ctx, len(commits), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return commits, nil
}
