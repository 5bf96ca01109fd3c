package session

import (
	"sync"
	"time"

	"github.com/matzehuels/gitmorph/pkg/animation"
	"github.com/matzehuels/gitmorph/pkg/graph"
)

// Default hold times of a before/after loop.
const (
	DefaultBeforeHold = 2 * time.Second
	DefaultAfterHold  = 3 * time.Second
)

// LoopPhase is the step a Loop is in.
type LoopPhase string

const (
	PhaseStopped  LoopPhase = "stopped"
	PhaseBefore   LoopPhase = "before"   // start state shown, holding
	PhaseMorphing LoopPhase = "morphing" // transition to the end state playing
	PhaseAfter    LoopPhase = "after"    // end state shown, holding
	PhasePaused   LoopPhase = "paused"
)

// Loop repeatedly morphs a session from a before snapshot to an after
// snapshot: show before, hold, transition to after, hold, start over.
type Loop struct {
	BeforeHold time.Duration
	AfterHold  time.Duration

	session *Session
	before  *graph.Snapshot
	after   *graph.Snapshot
	sched   animation.Scheduler

	mu     sync.Mutex
	phase  LoopPhase
	resume LoopPhase // phase to continue from after Pause
	timer  animation.Timer
	run    uint64
	rounds int
}

// NewLoop creates a stopped loop over s. A nil scheduler means the wall
// clock.
func NewLoop(s *Session, before, after *graph.Snapshot, sched animation.Scheduler) *Loop {
	if sched == nil {
		sched = animation.ClockScheduler{}
	}
	return &Loop{
		BeforeHold: DefaultBeforeHold,
		AfterHold:  DefaultAfterHold,
		session:    s,
		before:     before,
		after:      after,
		sched:      sched,
		phase:      PhaseStopped,
	}
}

// Phase returns the current step.
func (l *Loop) Phase() LoopPhase {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.phase
}

// Rounds returns how many times the end state has been reached.
func (l *Loop) Rounds() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rounds
}

// Start shows the before snapshot and begins looping. Starting a running
// loop restarts it.
func (l *Loop) Start() {
	l.mu.Lock()
	l.clearLocked()
	l.run++
	run := l.run
	l.mu.Unlock()

	l.showBefore(run)
}

// Pause clears the pending step. A transition already playing runs to its
// end but the loop does not advance past it.
func (l *Loop) Pause() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.phase == PhaseStopped || l.phase == PhasePaused {
		return
	}
	l.resume = l.phase
	l.clearLocked()
	l.run++
	l.phase = PhasePaused
}

// Resume continues a paused loop from the step it was paused in, starting
// that step's hold again.
func (l *Loop) Resume() {
	l.mu.Lock()
	if l.phase != PhasePaused {
		l.mu.Unlock()
		return
	}
	l.run++
	run := l.run
	from := l.resume
	l.mu.Unlock()

	switch from {
	case PhaseBefore:
		l.hold(run, PhaseBefore, l.BeforeHold, l.morph)
	default:
		// Paused mid-morph or while holding the end state.
		l.session.Cancel()
		l.hold(run, PhaseAfter, l.AfterHold, l.showBefore)
	}
}

// Stop clears the pending step and leaves the session where it is.
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.clearLocked()
	l.run++
	l.phase = PhaseStopped
}

func (l *Loop) clearLocked() {
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
}

func (l *Loop) live(run uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.run == run
}

func (l *Loop) showBefore(run uint64) {
	if !l.live(run) {
		return
	}
	l.session.Reset(l.before)
	l.hold(run, PhaseBefore, l.BeforeHold, l.morph)
}

func (l *Loop) morph(run uint64) {
	l.mu.Lock()
	if l.run != run {
		l.mu.Unlock()
		return
	}
	l.phase = PhaseMorphing
	l.mu.Unlock()

	if _, err := l.session.Show(l.after); err != nil {
		l.session.logger.Error("loop transition", "error", err)
		l.Stop()
		return
	}
	l.session.onIdle(func() {
		l.mu.Lock()
		if l.run == run {
			l.rounds++
		}
		l.mu.Unlock()
		l.hold(run, PhaseAfter, l.AfterHold, l.showBefore)
	})
}

func (l *Loop) hold(run uint64, phase LoopPhase, d time.Duration, next func(uint64)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.run != run {
		return
	}
	l.phase = phase
	l.timer = l.sched.AfterFunc(d, func() { next(run) })
}
