package animation

import (
	"sync"
	"time"

	"github.com/matzehuels/gitmorph/pkg/transition"
)

const (
	// DefaultDuration is how long one transition takes.
	DefaultDuration = 800 * time.Millisecond

	// DefaultFrameInterval is the gap between emitted frames (50 fps).
	DefaultFrameInterval = 20 * time.Millisecond
)

// Player plays transition plans frame by frame through a Scheduler.
//
// The zero value is usable: it schedules on the wall clock with the default
// duration, frame interval and easing, and emits no frames (it only waits
// the duration before reporting completion).
type Player struct {
	Scheduler     Scheduler
	Duration      time.Duration
	FrameInterval time.Duration
	Easing        Easing

	// OnFrame receives each frame, starting with t=0 and ending with t=1.
	// It is called from the scheduler's goroutine and must not block.
	OnFrame func(Frame)
}

// NewPlayer returns a player with default timing that sends frames to
// onFrame.
func NewPlayer(s Scheduler, onFrame func(Frame)) *Player {
	return &Player{
		Scheduler:     s,
		Duration:      DefaultDuration,
		FrameInterval: DefaultFrameInterval,
		Easing:        CubicInOut,
		OnFrame:       onFrame,
	}
}

// Steps returns how many intervals one playback is divided into.
func (p *Player) Steps() int {
	if p.OnFrame == nil {
		return 1
	}
	d, iv := p.duration(), p.interval()
	return max(1, int((d+iv-1)/iv))
}

// Play starts animating plan and returns immediately. finish is called once,
// after the t=1 frame, unless the returned cancel function is called first.
// cancel is idempotent and never calls finish.
func (p *Player) Play(plan *transition.Plan, finish func()) (cancel func()) {
	pb := &playback{player: p, plan: plan, finish: finish, steps: p.Steps()}
	if p.OnFrame == nil {
		pb.arm(p.duration(), pb.complete)
	} else {
		pb.arm(0, func() { pb.step(0) })
	}
	return pb.cancel
}

func (p *Player) scheduler() Scheduler {
	if p.Scheduler == nil {
		return ClockScheduler{}
	}
	return p.Scheduler
}

func (p *Player) duration() time.Duration {
	if p.Duration <= 0 {
		return DefaultDuration
	}
	return p.Duration
}

func (p *Player) interval() time.Duration {
	if p.FrameInterval <= 0 {
		return DefaultFrameInterval
	}
	return p.FrameInterval
}

// playback is one in-progress Play call.
type playback struct {
	player *Player
	plan   *transition.Plan
	finish func()
	steps  int

	mu        sync.Mutex
	timer     Timer
	cancelled bool
}

func (pb *playback) arm(d time.Duration, f func()) {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	if pb.cancelled {
		return
	}
	pb.timer = pb.player.scheduler().AfterFunc(d, f)
}

func (pb *playback) live() bool {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	return !pb.cancelled
}

func (pb *playback) step(i int) {
	if !pb.live() {
		return
	}
	t := float64(i) / float64(pb.steps)
	pb.player.OnFrame(Interpolate(pb.plan, t, pb.player.Easing))
	if i >= pb.steps {
		pb.complete()
		return
	}
	pb.arm(pb.player.interval(), func() { pb.step(i + 1) })
}

func (pb *playback) complete() {
	pb.mu.Lock()
	if pb.cancelled {
		pb.mu.Unlock()
		return
	}
	pb.cancelled = true
	pb.mu.Unlock()
	if pb.finish != nil {
		pb.finish()
	}
}

func (pb *playback) cancel() {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	if pb.cancelled {
		return
	}
	pb.cancelled = true
	if pb.timer != nil {
		pb.timer.Stop()
	}
}
