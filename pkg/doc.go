// Package pkg provides the libraries behind gitmorph, an animated git history
// visualizer.
//
// # Overview
//
// gitmorph reads commit logs, lays the commits out as a layered graph with
// the newest commit on top, and animates the change from one history to the
// next: persisting commits slide to their new positions, new commits grow
// out of their parents and removed ones collapse into theirs.
//
// # Architecture
//
// The data flow through gitmorph:
//
//	git log text / repository
//	         ↓
//	    [commitlog] (parse log lines into commits)
//	         ↓
//	    [graph] (snapshot: nodes, links, warnings)
//	         ↓
//	    [layout] (levels and x/y positions)
//	         ↓
//	    [transition] (entering / persisting / exiting plan)
//	         ↓
//	    [animation] (frames over time)
//	         ↓
//	    [render] SVG, [render/nodelink] DOT/PNG, [render/term] terminal
//
// [session] owns the current state of one visualization and arbitrates
// overlapping requests. [pipeline] is the single entry point that turns log
// text into snapshots and artifacts, with [cache] in front of it.
//
// # Quick Start
//
//	runner := pipeline.NewRunner(cache.NewMemoryCache(0), nil, nil)
//	before, _, err := runner.Layout(ctx, oldLog, pipeline.Options{})
//	after, _, err := runner.Layout(ctx, newLog, pipeline.Options{})
//	plan := runner.PlanTransition(ctx, before, after)
//
//	player := animation.NewPlayer(animation.ClockScheduler{}, func(f animation.Frame) {
//	    svg := render.RenderSVG(f)
//	    // ...
//	})
//	player.Play(plan, nil)
//
// # Main Packages
//
// [commitlog] parses and formats the one-line-per-commit log format.
//
// [graph] holds positioned snapshots and their JSON form.
//
// [layout] assigns levels by longest path and spreads each level across the
// viewport.
//
// [transition] diffs two snapshots into a plan.
//
// [animation] interpolates plans into frames on a pluggable scheduler.
//
// [session] sequences transitions under a replace, reject or queue policy.
//
// [source/gitrepo] reads logs straight from a repository with go-git.
//
// [observability] exposes hooks that the server wires to Prometheus.
//
// [errors] carries machine-readable error codes.
//
// [commitlog]: https://pkg.go.dev/github.com/matzehuels/gitmorph/pkg/commitlog
// [graph]: https://pkg.go.dev/github.com/matzehuels/gitmorph/pkg/graph
// [layout]: https://pkg.go.dev/github.com/matzehuels/gitmorph/pkg/layout
// [transition]: https://pkg.go.dev/github.com/matzehuels/gitmorph/pkg/transition
// [animation]: https://pkg.go.dev/github.com/matzehuels/gitmorph/pkg/animation
// [render]: https://pkg.go.dev/github.com/matzehuels/gitmorph/pkg/render
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/gitmorph/pkg/render/nodelink
// [render/term]: https://pkg.go.dev/github.com/matzehuels/gitmorph/pkg/render/term
// [session]: https://pkg.go.dev/github.com/matzehuels/gitmorph/pkg/session
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/gitmorph/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/gitmorph/pkg/cache
// [source/gitrepo]: https://pkg.go.dev/github.com/matzehuels/gitmorph/pkg/source/gitrepo
// [observability]: https://pkg.go.dev/github.com/matzehuels/gitmorph/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/gitmorph/pkg/errors
package pkg
