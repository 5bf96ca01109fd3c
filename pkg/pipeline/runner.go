package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gitmorph/pkg/cache"
	"github.com/matzehuels/gitmorph/pkg/graph"
	"github.com/matzehuels/gitmorph/pkg/observability"
	"github.com/matzehuels/gitmorph/pkg/session"
	"github.com/matzehuels/gitmorph/pkg/transition"
)

// Runner executes the pipeline with caching. It holds no per-run state, so
// one Runner can serve concurrent requests with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner. A nil keyer means DefaultKeyer, a nil cache
// means NullCache (caching disabled) and a nil logger means log.Default.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Execute runs layout and render for text.
func (r *Runner) Execute(ctx context.Context, text string, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	result := &Result{LogHash: cache.Hash([]byte(text))}

	layoutStart := time.Now()
	s, warnings, hit, err := r.LayoutWithCacheInfo(ctx, text, opts)
	if err != nil {
		return nil, err
	}
	result.Snapshot = s
	result.Commits = s.Commits()
	result.Warnings = warnings
	result.Stats.CommitCount = s.Len()
	result.Stats.LinkCount = s.LinkCount()
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.CacheInfo.LayoutHit = hit

	r.Logger.Info("laid out commits",
		"commits", s.Len(),
		"links", s.LinkCount(),
		"warnings", len(warnings),
		"cached", hit,
		"duration", result.Stats.LayoutTime)

	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, s, opts)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// layoutEntry is the cached form of a layout result.
type layoutEntry struct {
	Snapshot *graph.Snapshot `json:"snapshot"`
	Warnings []graph.Warning `json:"warnings,omitempty"`
}

// LayoutWithCacheInfo parses, builds and lays out text, reporting whether
// the result came from the cache. Parse errors are returned unwrapped so
// callers can classify them with errors.IsFormatError.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, text string, opts Options) (*graph.Snapshot, []graph.Warning, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, false, err
	}
	r.applyLogger(&opts)

	key := r.Keyer.LayoutKey(cache.Hash([]byte(text)), opts.LayoutKeyOpts())
	hooks := observability.Cache()

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var e layoutEntry
			if err := json.Unmarshal(data, &e); err == nil && e.Snapshot != nil {
				hooks.OnCacheHit(ctx, cache.KeyTypeLayout)
				return e.Snapshot, e.Warnings, true, nil
			}
			r.Logger.Debug("discarding unreadable cache entry", "key", key)
		}
		hooks.OnCacheMiss(ctx, cache.KeyTypeLayout)
	}

	commits, err := Parse(ctx, text, opts)
	if err != nil {
		return nil, nil, false, err
	}
	s, warnings, err := Layout(ctx, commits, opts)
	if err != nil {
		return nil, nil, false, err
	}

	if data, err := json.Marshal(layoutEntry{Snapshot: s, Warnings: warnings}); err == nil {
		if err := r.Cache.Set(ctx, key, data, cache.TTLLayout); err != nil {
			r.Logger.Debug("cache write failed", "key", key, "error", err)
		} else {
			hooks.OnCacheSet(ctx, cache.KeyTypeLayout, len(data))
		}
	}
	return s, warnings, false, nil
}

// Layout discards the cache hit info of LayoutWithCacheInfo.
func (r *Runner) Layout(ctx context.Context, text string, opts Options) (*graph.Snapshot, []graph.Warning, error) {
	s, warnings, _, err := r.LayoutWithCacheInfo(ctx, text, opts)
	return s, warnings, err
}

// RenderWithCacheInfo renders s in every requested format, reporting
// whether all of them came from the cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, s *graph.Snapshot, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	opts.SetDefaults()
	if err := ValidateFormats(opts.Formats); err != nil {
		return nil, false, err
	}

	data, err := graph.MarshalSnapshot(s)
	if err != nil {
		return nil, false, fmt.Errorf("serialize snapshot for cache key: %w", err)
	}
	snapHash := cache.Hash(data)
	hooks := observability.Cache()

	if !opts.Refresh {
		artifacts := make(map[string][]byte, len(opts.Formats))
		for _, format := range opts.Formats {
			cached, hit, err := r.Cache.Get(ctx, r.Keyer.ArtifactKey(snapHash, opts.ArtifactKeyOpts(format)))
			if err != nil || !hit {
				break
			}
			artifacts[format] = cached
		}
		if len(artifacts) == len(opts.Formats) {
			hooks.OnCacheHit(ctx, cache.KeyTypeArtifact)
			return artifacts, true, nil
		}
		hooks.OnCacheMiss(ctx, cache.KeyTypeArtifact)
	}

	rendered, err := Render(ctx, s, opts)
	if err != nil {
		return nil, false, err
	}
	for format, out := range rendered {
		if err := r.Cache.Set(ctx, r.Keyer.ArtifactKey(snapHash, opts.ArtifactKeyOpts(format)), out, cache.TTLArtifact); err == nil {
			hooks.OnCacheSet(ctx, cache.KeyTypeArtifact, len(out))
		}
	}
	return rendered, false, nil
}

// Render discards the cache hit info of RenderWithCacheInfo.
func (r *Runner) Render(ctx context.Context, s *graph.Snapshot, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, s, opts)
	return artifacts, err
}

// PlanTransition computes the transition between two positioned snapshots.
func (r *Runner) PlanTransition(ctx context.Context, before, after *graph.Snapshot) *transition.Plan {
	p := Plan(ctx, before, after)
	st := p.Stats()
	r.Logger.Debug("planned transition",
		"entering", st.NodesEntering,
		"persisting", st.NodesPersisting,
		"exiting", st.NodesExiting)
	return p
}

// Layouter adapts the runner to session.Layouter with fixed options.
func (r *Runner) Layouter(opts Options) session.Layouter {
	return runnerLayouter{r: r, opts: opts}
}

type runnerLayouter struct {
	r    *Runner
	opts Options
}

func (l runnerLayouter) Layout(ctx context.Context, text string) (*graph.Snapshot, []graph.Warning, error) {
	return l.r.Layout(ctx, text, l.opts)
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
