package animation

import (
	"github.com/matzehuels/gitmorph/pkg/graph"
	"github.com/matzehuels/gitmorph/pkg/transition"
)

// NodeFrame is one node's drawn state at some point of a transition.
type NodeFrame struct {
	Hash    string          `json:"hash"`
	Kind    transition.Kind `json:"kind"`
	Node    *graph.Node     `json:"-"`
	Pos     graph.Point     `json:"pos"`
	Opacity float64         `json:"opacity"`
}

// LinkFrame is one link's drawn state.
type LinkFrame struct {
	SourceHash string          `json:"source"`
	TargetHash string          `json:"target"`
	Kind       transition.Kind `json:"kind"`
	Path       Path            `json:"path"`
	Opacity    float64         `json:"opacity"`
}

// LabelFrame is one ref label's drawn state.
type LabelFrame struct {
	Hash    string          `json:"hash"`
	Ref     string          `json:"ref"`
	Kind    transition.Kind `json:"kind"`
	Pos     graph.Point     `json:"pos"`
	Opacity float64         `json:"opacity"`
}

// Frame is everything visible at one instant. Elements appear in plan
// order: entering, persisting, exiting.
type Frame struct {
	T      float64      `json:"t"`
	Nodes  []NodeFrame  `json:"nodes"`
	Links  []LinkFrame  `json:"links"`
	Labels []LabelFrame `json:"labels"`
}

// Visible drops elements that are fully transparent.
func (f Frame) Visible() Frame {
	out := Frame{T: f.T}
	for _, n := range f.Nodes {
		if n.Opacity > 0 {
			out.Nodes = append(out.Nodes, n)
		}
	}
	for _, l := range f.Links {
		if l.Opacity > 0 {
			out.Links = append(out.Links, l)
		}
	}
	for _, l := range f.Labels {
		if l.Opacity > 0 {
			out.Labels = append(out.Labels, l)
		}
	}
	return out
}

// Interpolate returns the frame at linear progress t (clamped to [0, 1]).
// A nil ease means [CubicInOut]. Interpolate(plan, 0, e) draws the previous
// state and Interpolate(plan, 1, e) the current one; the plan is not modified.
func Interpolate(plan *transition.Plan, t float64, ease Easing) Frame {
	if ease == nil {
		ease = CubicInOut
	}
	t = clamp01(t)
	e := ease(t)

	f := Frame{
		T:      t,
		Nodes:  make([]NodeFrame, 0, plan.Nodes.Len()),
		Links:  make([]LinkFrame, 0, plan.Links.Len()),
		Labels: make([]LabelFrame, 0, plan.Labels.Len()),
	}
	for _, n := range plan.Nodes.All() {
		f.Nodes = append(f.Nodes, NodeFrame{
			Hash:    n.Hash,
			Kind:    n.Kind,
			Node:    n.Node,
			Pos:     lerpPoint(n.From, n.To, e),
			Opacity: lerp(n.FromOpacity, n.ToOpacity, e),
		})
	}
	for _, l := range plan.Links.All() {
		f.Links = append(f.Links, LinkFrame{
			SourceHash: l.SourceHash,
			TargetHash: l.TargetHash,
			Kind:       l.Kind,
			Path: PathBetween(
				lerpPoint(l.From.Source, l.To.Source, e),
				lerpPoint(l.From.Target, l.To.Target, e),
			),
			Opacity: lerp(l.FromOpacity, l.ToOpacity, e),
		})
	}
	for _, l := range plan.Labels.All() {
		f.Labels = append(f.Labels, LabelFrame{
			Hash:    l.Hash,
			Ref:     l.Ref,
			Kind:    l.Kind,
			Pos:     lerpPoint(l.From, l.To, e),
			Opacity: lerp(l.FromOpacity, l.ToOpacity, e),
		})
	}
	return f
}

// Still returns the frame showing s at rest.
func Still(s *graph.Snapshot) Frame {
	return Interpolate(transition.NewPlan(s, s), 1, Linear)
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func lerpPoint(a, b graph.Point, t float64) graph.Point {
	return graph.Point{X: lerp(a.X, b.X, t), Y: lerp(a.Y, b.Y, t)}
}
