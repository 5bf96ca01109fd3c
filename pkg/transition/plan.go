package transition

import (
	"github.com/matzehuels/gitmorph/pkg/graph"
)

// Kind classifies an element of a transition.
type Kind string

const (
	Entering   Kind = "entering"
	Persisting Kind = "persisting"
	Exiting    Kind = "exiting"
)

// Label placement relative to the owning node.
const (
	LabelOffsetX = 20.0
	LabelOffsetY = 18.0 // per ref index
)

// Partition groups transitions of one element type by kind.
type Partition[T any] struct {
	Entering   []T `json:"entering"`
	Persisting []T `json:"persisting"`
	Exiting    []T `json:"exiting"`
}

// All returns every element: entering, then persisting, then exiting.
func (p Partition[T]) All() []T {
	out := make([]T, 0, p.Len())
	out = append(out, p.Entering...)
	out = append(out, p.Persisting...)
	return append(out, p.Exiting...)
}

// Len returns the total number of elements.
func (p Partition[T]) Len() int {
	return len(p.Entering) + len(p.Persisting) + len(p.Exiting)
}

func (p *Partition[T]) add(k Kind, v T) {
	switch k {
	case Entering:
		p.Entering = append(p.Entering, v)
	case Persisting:
		p.Persisting = append(p.Persisting, v)
	default:
		p.Exiting = append(p.Exiting, v)
	}
}

// NodeTransition animates one commit node.
type NodeTransition struct {
	Hash        string      `json:"hash"`
	Kind        Kind        `json:"kind"`
	Node        *graph.Node `json:"node"` // new node; old node when exiting
	From        graph.Point `json:"from"`
	To          graph.Point `json:"to"`
	FromOpacity float64     `json:"from_opacity"`
	ToOpacity   float64     `json:"to_opacity"`
}

// Segment is a link's endpoint pair.
type Segment struct {
	Source graph.Point `json:"source"`
	Target graph.Point `json:"target"`
}

// LinkTransition animates one child→parent link.
type LinkTransition struct {
	Key         graph.LinkKey `json:"-"`
	SourceHash  string        `json:"source"`
	TargetHash  string        `json:"target"`
	Kind        Kind          `json:"kind"`
	From        Segment       `json:"from"`
	To          Segment       `json:"to"`
	FromOpacity float64       `json:"from_opacity"`
	ToOpacity   float64       `json:"to_opacity"`
}

// LabelTransition animates one ref label (branch, tag, HEAD).
type LabelTransition struct {
	Hash        string      `json:"hash"`
	Ref         string      `json:"ref"`
	Index       int         `json:"index"`
	Kind        Kind        `json:"kind"`
	From        graph.Point `json:"from"`
	To          graph.Point `json:"to"`
	FromOpacity float64     `json:"from_opacity"`
	ToOpacity   float64     `json:"to_opacity"`
}

// Plan is the full description of one transition.
type Plan struct {
	Previous *graph.Snapshot `json:"-"`
	Current  *graph.Snapshot `json:"-"`

	Nodes  Partition[NodeTransition]  `json:"nodes"`
	Links  Partition[LinkTransition]  `json:"links"`
	Labels Partition[LabelTransition] `json:"labels"`
}

// Stats counts plan elements per kind.
type Stats struct {
	NodesEntering   int `json:"nodes_entering"`
	NodesPersisting int `json:"nodes_persisting"`
	NodesExiting    int `json:"nodes_exiting"`
	LinksEntering   int `json:"links_entering"`
	LinksPersisting int `json:"links_persisting"`
	LinksExiting    int `json:"links_exiting"`
}

// Stats returns element counts.
func (p *Plan) Stats() Stats {
	return Stats{
		NodesEntering:   len(p.Nodes.Entering),
		NodesPersisting: len(p.Nodes.Persisting),
		NodesExiting:    len(p.Nodes.Exiting),
		LinksEntering:   len(p.Links.Entering),
		LinksPersisting: len(p.Links.Persisting),
		LinksExiting:    len(p.Links.Exiting),
	}
}

// Empty reports whether nothing moves, appears or disappears.
func (p *Plan) Empty() bool {
	if len(p.Nodes.Entering)+len(p.Nodes.Exiting)+len(p.Links.Entering)+len(p.Links.Exiting) > 0 {
		return false
	}
	if len(p.Labels.Entering)+len(p.Labels.Exiting) > 0 {
		return false
	}
	for _, n := range p.Nodes.Persisting {
		if n.From != n.To {
			return false
		}
	}
	for _, l := range p.Labels.Persisting {
		if l.From != l.To {
			return false
		}
	}
	return true
}
