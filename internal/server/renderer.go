package server

import (
	"github.com/matzehuels/gitmorph/pkg/animation"
	"github.com/matzehuels/gitmorph/pkg/session"
	"github.com/matzehuels/gitmorph/pkg/transition"
)

// broadcastRenderer hands plans to browser clients, which animate them
// locally. The player only keeps time, so the session leaves Transitioning
// when the clients' animation ends.
type broadcastRenderer struct {
	hub    *Hub
	player *animation.Player
}

// Announce broadcasts plan while the session still holds it in flight.
func (r *broadcastRenderer) Announce(plan *transition.Plan) {
	st := plan.Stats()
	r.hub.Broadcast(Message{
		Type:       MessagePlan,
		Snapshot:   plan.Current,
		Plan:       plan,
		Stats:      &st,
		DurationMS: r.player.Duration.Milliseconds(),
	})
}

func (r *broadcastRenderer) Play(plan *transition.Plan, finish func()) func() {
	return r.player.Play(plan, finish)
}

var (
	_ session.Renderer  = (*broadcastRenderer)(nil)
	_ session.Announcer = (*broadcastRenderer)(nil)
)
