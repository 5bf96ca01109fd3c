package session

import (
	"context"
	"testing"
	"time"

	"github.com/matzehuels/gitmorph/pkg/animation"
	"github.com/matzehuels/gitmorph/pkg/graph"
)

func mustLayout(t *testing.T, text string) *graph.Snapshot {
	t.Helper()
	s, _, err := CoreLayouter{}.Layout(context.Background(), text)
	if err != nil {
		t.Fatalf("Layout() error: %v", err)
	}
	return s
}

func newTestLoop(t *testing.T) (*Loop, *Session, *animation.ManualScheduler) {
	t.Helper()
	sched := animation.NewManualScheduler()
	s := New(animation.NewPlayer(sched, nil), Options{})
	l := NewLoop(s, mustLayout(t, logA), mustLayout(t, logC), sched)
	return l, s, sched
}

func TestLoopCycle(t *testing.T) {
	l, s, sched := newTestLoop(t)
	if l.Phase() != PhaseStopped {
		t.Fatalf("new loop phase = %s", l.Phase())
	}

	l.Start()
	if l.Phase() != PhaseBefore || s.Current().Len() != 1 {
		t.Fatalf("after Start: phase %s, %d nodes", l.Phase(), s.Current().Len())
	}

	sched.Advance(DefaultBeforeHold - time.Millisecond)
	if l.Phase() != PhaseBefore {
		t.Fatalf("left before phase early: %s", l.Phase())
	}
	sched.Advance(time.Millisecond)
	if l.Phase() != PhaseMorphing || s.State() != StateTransitioning {
		t.Fatalf("phase %s, state %s; want morphing/transitioning", l.Phase(), s.State())
	}

	sched.Advance(animation.DefaultDuration)
	if l.Phase() != PhaseAfter || s.Current().Len() != 3 || l.Rounds() != 1 {
		t.Fatalf("phase %s, %d nodes, %d rounds", l.Phase(), s.Current().Len(), l.Rounds())
	}

	sched.Advance(DefaultAfterHold)
	if l.Phase() != PhaseBefore || s.Current().Len() != 1 {
		t.Fatalf("loop did not restart: phase %s, %d nodes", l.Phase(), s.Current().Len())
	}

	sched.Advance(DefaultBeforeHold + animation.DefaultDuration)
	if l.Rounds() != 2 {
		t.Errorf("Rounds() = %d, want 2", l.Rounds())
	}
}

func TestLoopPauseResume(t *testing.T) {
	l, s, sched := newTestLoop(t)
	l.Start()
	sched.Advance(time.Second)

	l.Pause()
	if l.Phase() != PhasePaused {
		t.Fatalf("phase = %s, want paused", l.Phase())
	}
	if sched.Pending() != 0 {
		t.Errorf("Pending() = %d after Pause", sched.Pending())
	}
	sched.Advance(time.Minute)
	if s.State() != StateIdle || s.Current().Len() != 1 {
		t.Errorf("paused loop advanced: state %s, %d nodes", s.State(), s.Current().Len())
	}

	l.Resume()
	if l.Phase() != PhaseBefore {
		t.Fatalf("phase after Resume = %s", l.Phase())
	}
	sched.Advance(DefaultBeforeHold)
	if l.Phase() != PhaseMorphing {
		t.Errorf("phase = %s, want morphing", l.Phase())
	}
}

func TestLoopPauseMidMorph(t *testing.T) {
	l, s, sched := newTestLoop(t)
	l.Start()
	sched.Advance(DefaultBeforeHold + animation.DefaultDuration/2)
	l.Pause()

	// The running transition completes but the loop holds still.
	sched.Advance(time.Minute)
	if l.Phase() != PhasePaused || s.Current().Len() != 3 {
		t.Fatalf("phase %s, %d nodes", l.Phase(), s.Current().Len())
	}

	l.Resume()
	if l.Phase() != PhaseAfter {
		t.Errorf("phase after Resume = %s, want after", l.Phase())
	}
	sched.Advance(DefaultAfterHold)
	if l.Phase() != PhaseBefore {
		t.Errorf("phase = %s, want before", l.Phase())
	}
}

func TestLoopStop(t *testing.T) {
	l, s, sched := newTestLoop(t)
	l.Start()
	sched.Advance(DefaultBeforeHold)
	l.Stop()
	sched.Advance(time.Minute)

	if l.Phase() != PhaseStopped {
		t.Errorf("phase = %s, want stopped", l.Phase())
	}
	if l.Rounds() != 0 {
		t.Errorf("Rounds() = %d after Stop", l.Rounds())
	}
	if s.State() != StateIdle {
		t.Errorf("session state = %s", s.State())
	}
	l.Resume()
	if l.Phase() != PhaseStopped {
		t.Error("Resume should not restart a stopped loop")
	}
}
