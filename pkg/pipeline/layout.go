package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/gitmorph/pkg/commitlog"
	"github.com/matzehuels/gitmorph/pkg/graph"
	"github.com/matzehuels/gitmorph/pkg/layout"
	"github.com/matzehuels/gitmorph/pkg/observability"
	"github.com/matzehuels/gitmorph/pkg/transition"
)

// Layout builds a snapshot from commits and positions it. Build and layout
// warnings are returned together, build warnings first.
func Layout(ctx context.Context, commits []commitlog.Commit, opts Options) (*graph.Snapshot, []graph.Warning, error) {
	lo := opts.LayoutOptions()
	if err := lo.Validate(); err != nil {
		return nil, nil, err
	}

	hooks := observability.Pipeline()
	s, warnings := graph.Build(commits)
	hooks.OnLayoutStart(ctx, s.Len())
	start := time.Now()

	res := layout.Apply(s, lo)
	warnings = append(warnings, res.Warnings...)

	hooks.OnLayoutComplete(ctx, s.Len(), len(warnings), time.Since(start))
	return s, warnings, nil
}

// Plan computes the transition from before to after. A nil before plans
// from the empty snapshot, so every commit enters.
func Plan(ctx context.Context, before, after *graph.Snapshot) *transition.Plan {
	if before == nil {
		before = graph.New()
	}
	start := time.Now()
	p := transition.NewPlan(before, after)
	st := p.Stats()
	observability.Pipeline().OnPlanComplete(ctx, st.NodesEntering, st.NodesPersisting, st.NodesExiting, time.Since(start))
	return p
}
