// Package session owns the state of one visualization.
//
// A [Session] holds the baseline snapshot that is fully on screen, at most
// one in-flight transition, and the rules for what happens when a new
// request arrives mid-flight. It is the only place visualization state
// changes:
//
//	Idle → LayingOut → Transitioning → Idle
//
// Parsing and layout are synchronous. The transition is handed to a
// [Renderer] with a completion callback; the session itself never touches
// timers. A generation counter turns completion callbacks from replaced or
// cancelled transitions into no-ops, so a late callback can never overwrite
// newer state. Renderers that also implement [Announcer] learn about each
// plan under the session lock, in the order transitions start.
//
// # Overlapping requests
//
// The session [Policy] decides what a Visualize call does while a transition
// is in flight:
//   - [PolicyReplace] (default): cancel the in-flight renderer steps, commit
//     its target as the baseline, and plan the new transition from there.
//   - [PolicyReject]: fail with [ErrTransitionInFlight].
//   - [PolicyQueue]: remember the request (only the latest is kept) and start
//     it when the current transition finishes.
//
// All methods are safe for concurrent use.
package session

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/gitmorph/pkg/commitlog"
	"github.com/matzehuels/gitmorph/pkg/errors"
	"github.com/matzehuels/gitmorph/pkg/graph"
	"github.com/matzehuels/gitmorph/pkg/layout"
	"github.com/matzehuels/gitmorph/pkg/observability"
	"github.com/matzehuels/gitmorph/pkg/transition"
)

// ErrTransitionInFlight is returned under PolicyReject when a request
// arrives while a transition is playing.
var ErrTransitionInFlight = errors.New(errors.ErrCodeTransitionInFlight, "a transition is already in flight")

// State is the session lifecycle state.
type State string

const (
	StateIdle          State = "idle"
	StateLayingOut     State = "laying_out"
	StateTransitioning State = "transitioning"
)

// Policy selects how overlapping requests are handled.
type Policy string

const (
	PolicyReplace Policy = "replace"
	PolicyReject  Policy = "reject"
	PolicyQueue   Policy = "queue"
)

// ParsePolicy resolves a policy name. The empty string means PolicyReplace.
func ParsePolicy(name string) (Policy, error) {
	switch p := Policy(name); p {
	case "":
		return PolicyReplace, nil
	case PolicyReplace, PolicyReject, PolicyQueue:
		return p, nil
	}
	return "", errors.New(errors.ErrCodeInvalidConfig, "unknown session policy %q (want replace, reject or queue)", name)
}

// Renderer plays a transition plan. Play must return without blocking and
// call finish exactly once when the plan has been fully drawn, unless the
// returned cancel function is called first. cancel must be idempotent and
// must not call finish.
type Renderer interface {
	Play(plan *transition.Plan, finish func()) (cancel func())
}

// Announcer is implemented by renderers that publish a plan as soon as it
// becomes the in-flight transition. Announce runs under the session lock,
// in the order transitions start, so a replaced plan is never announced
// after its successor. It must not block or call back into the session.
type Announcer interface {
	Announce(plan *transition.Plan)
}

// Layouter turns commit log text into a positioned snapshot.
type Layouter interface {
	Layout(ctx context.Context, text string) (*graph.Snapshot, []graph.Warning, error)
}

// CoreLayouter parses, builds and lays out without caching.
type CoreLayouter struct {
	Options layout.Options
}

// Layout implements Layouter.
func (l CoreLayouter) Layout(_ context.Context, text string) (*graph.Snapshot, []graph.Warning, error) {
	commits, err := commitlog.Parse(text)
	if err != nil {
		return nil, nil, err
	}
	s, warnings := graph.Build(commits)
	opts := l.Options
	opts.SetDefaults()
	res := layout.Apply(s, opts)
	return s, append(warnings, res.Warnings...), nil
}

// Options configures a session.
type Options struct {
	Policy   Policy
	Layouter Layouter
	Logger   *log.Logger
}

// Result describes the outcome of one request.
type Result struct {
	Plan     *transition.Plan
	Snapshot *graph.Snapshot
	Warnings []graph.Warning

	// Queued is set under PolicyQueue when the request was deferred until
	// the in-flight transition finishes. Plan is nil in that case.
	Queued bool
}

// Session is one visualization instance.
type Session struct {
	ID string

	renderer Renderer
	layouter Layouter
	policy   Policy
	logger   *log.Logger

	mu        sync.Mutex
	state     State
	current   *graph.Snapshot
	target    *graph.Snapshot
	plan      *transition.Plan
	cancel    func()
	gen       uint64
	layouts   int
	queued    *graph.Snapshot
	startedAt time.Time
	idle      []func()
}

// New creates an idle session with an empty baseline.
func New(r Renderer, opts Options) *Session {
	if opts.Policy == "" {
		opts.Policy = PolicyReplace
	}
	if opts.Layouter == nil {
		opts.Layouter = CoreLayouter{Options: layout.DefaultOptions()}
	}
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	id := uuid.NewString()
	return &Session{
		ID:       id,
		renderer: r,
		layouter: opts.Layouter,
		policy:   opts.Policy,
		logger:   opts.Logger.With("session", id[:8]),
		state:    StateIdle,
		current:  graph.New(),
	}
}

// State returns the lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Policy returns the overlap policy.
func (s *Session) Policy() Policy { return s.policy }

// Current returns the committed baseline: the snapshot that was fully on
// screen before the in-flight transition started, or the latest one when
// idle. Callers must not modify it.
func (s *Session) Current() *graph.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Latest returns the in-flight target when transitioning, otherwise the
// baseline.
func (s *Session) Latest() *graph.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.target != nil {
		return s.target
	}
	return s.current
}

// InFlight returns the plan being played, or nil.
func (s *Session) InFlight() *transition.Plan {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plan
}

// Visualize parses and lays out text and transitions to it. Format errors
// are returned as-is and leave the session untouched. Visualize returns as
// soon as the transition has been handed to the renderer.
func (s *Session) Visualize(ctx context.Context, text string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.state != StateIdle && s.policy == PolicyReject {
		s.mu.Unlock()
		observability.Session().OnTransitionReject(s.ID)
		return nil, ErrTransitionInFlight
	}
	if s.state == StateIdle {
		s.state = StateLayingOut
	}
	s.layouts++
	s.mu.Unlock()

	snap, warnings, err := s.layouter.Layout(ctx, text)
	s.mu.Lock()
	s.layouts--
	if err != nil && s.layouts == 0 && s.state == StateLayingOut {
		s.state = StateIdle
	}
	s.mu.Unlock()
	if err != nil {
		s.logger.Debug("visualize failed", "error", err)
		return nil, err
	}
	for _, w := range warnings {
		s.logger.Warn(w.Message, "kind", w.Kind, "hash", w.Hash)
	}

	res, err := s.Show(snap)
	if err != nil {
		return nil, err
	}
	res.Warnings = warnings
	return res, nil
}

// Show transitions to an already positioned snapshot. The session takes
// ownership of snap.
func (s *Session) Show(snap *graph.Snapshot) (*Result, error) {
	if snap == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "nil snapshot")
	}

	s.mu.Lock()
	if s.state == StateTransitioning {
		switch s.policy {
		case PolicyReject:
			s.mu.Unlock()
			observability.Session().OnTransitionReject(s.ID)
			return nil, ErrTransitionInFlight
		case PolicyQueue:
			s.queued = snap
			s.mu.Unlock()
			s.logger.Debug("queued request", "nodes", snap.Len())
			return &Result{Snapshot: snap, Queued: true}, nil
		default:
			s.commitLocked()
		}
	}
	plan, gen := s.startLocked(snap)
	s.mu.Unlock()

	s.play(plan, gen)
	return &Result{Plan: plan, Snapshot: snap}, nil
}

// Reset replaces the baseline without animating, dropping any in-flight or
// queued transition. A nil snapshot clears the view.
func (s *Session) Reset(snap *graph.Snapshot) {
	if snap == nil {
		snap = graph.New()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	s.gen++
	s.current = snap
	s.target, s.plan, s.cancel, s.queued = nil, nil, nil, nil
	s.idle = nil
	s.state = StateIdle
}

// Cancel stops the in-flight transition and commits its target, leaving the
// session idle in the fully-current state. A queued request is discarded.
// Cancel is a no-op when nothing is in flight.
func (s *Session) Cancel() {
	s.mu.Lock()
	s.queued = nil
	if s.state != StateTransitioning {
		s.mu.Unlock()
		return
	}
	s.commitLocked()
	waiters := s.idle
	s.idle = nil
	s.mu.Unlock()

	for _, f := range waiters {
		f()
	}
}

// onIdle runs f once the session next settles: when a transition finishes
// with nothing queued, or on Cancel. f runs immediately when already idle.
// Reset drops pending callbacks.
func (s *Session) onIdle(f func()) {
	s.mu.Lock()
	if s.state == StateIdle {
		s.mu.Unlock()
		f()
		return
	}
	s.idle = append(s.idle, f)
	s.mu.Unlock()
}

// Highlight returns the neighbourhood of hash in the latest snapshot.
func (s *Session) Highlight(hash string) (graph.Neighborhood, error) {
	return s.Latest().Neighborhood(hash)
}

// startLocked plans against the baseline and enters Transitioning.
func (s *Session) startLocked(snap *graph.Snapshot) (*transition.Plan, uint64) {
	plan := transition.NewPlan(s.current, snap)
	s.gen++
	s.target, s.plan, s.cancel = snap, plan, nil
	s.state = StateTransitioning
	s.startedAt = time.Now()
	if a, ok := s.renderer.(Announcer); ok {
		a.Announce(plan)
	}
	s.logger.Debug("transition started",
		"entering", len(plan.Nodes.Entering),
		"persisting", len(plan.Nodes.Persisting),
		"exiting", len(plan.Nodes.Exiting))
	return plan, s.gen
}

// play hands plan to the renderer outside the lock, so a renderer that
// finishes synchronously cannot deadlock.
func (s *Session) play(plan *transition.Plan, gen uint64) {
	observability.Session().OnTransitionStart(s.ID, plan.Current.Len())
	if s.renderer == nil {
		s.finish(gen)
		return
	}
	cancel := s.renderer.Play(plan, func() { s.finish(gen) })

	s.mu.Lock()
	live := s.gen == gen && s.state == StateTransitioning
	if live {
		s.cancel = cancel
	}
	s.mu.Unlock()
	if !live && cancel != nil {
		cancel()
	}
}

// commitLocked cancels the in-flight renderer steps and adopts the target
// as the baseline.
func (s *Session) commitLocked() {
	if s.cancel != nil {
		s.cancel()
	}
	s.gen++
	s.current = s.target
	s.target, s.plan, s.cancel = nil, nil, nil
	s.state = StateIdle
	observability.Session().OnTransitionCancel(s.ID)
	s.logger.Debug("transition cancelled, target committed")
}

func (s *Session) finish(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || s.state != StateTransitioning {
		s.mu.Unlock()
		return
	}
	s.current = s.target
	s.target, s.plan, s.cancel = nil, nil, nil
	s.state = StateIdle
	next := s.queued
	s.queued = nil
	var waiters []func()
	if next == nil {
		waiters, s.idle = s.idle, nil
	}
	took := time.Since(s.startedAt)
	s.mu.Unlock()

	observability.Session().OnTransitionFinish(s.ID, took)
	s.logger.Debug("transition finished", "duration", took)

	if next != nil {
		if _, err := s.Show(next); err != nil {
			s.logger.Error("start queued transition", "error", err)
		}
		return
	}
	for _, f := range waiters {
		f()
	}
}

// String implements fmt.Stringer for logging.
func (s *Session) String() string {
	return fmt.Sprintf("session %s (%s)", s.ID, s.State())
}
