package transition

import (
	"github.com/matzehuels/gitmorph/pkg/graph"
)

// NewPlan compares previous (which may be nil, meaning nothing is on screen)
// with current and returns the transition between them. Entering and
// persisting elements follow current's input order; exiting elements follow
// previous's input order.
func NewPlan(previous, current *graph.Snapshot) *Plan {
	if previous == nil {
		previous = graph.New()
	}
	if current == nil {
		current = graph.New()
	}
	p := &Plan{Previous: previous, Current: current}

	from := planNodes(p)
	planLinks(p, from)
	planLabels(p)
	return p
}

// planNodes fills p.Nodes and returns each node's start point keyed by hash,
// for links to follow.
func planNodes(p *Plan) map[string]graph.Point {
	from := make(map[string]graph.Point, p.Current.Len()+p.Previous.Len())

	for _, n := range p.Current.Nodes() {
		nt := NodeTransition{Hash: n.Hash, Node: n, To: n.Point(), ToOpacity: 1}
		if old, ok := p.Previous.Node(n.Hash); ok {
			nt.Kind = Persisting
			nt.From = old.Point()
			nt.FromOpacity = 1
		} else {
			nt.Kind = Entering
			nt.From = enterPoint(p, n)
		}
		from[n.Hash] = nt.From
		p.Nodes.add(nt.Kind, nt)
	}

	for _, old := range p.Previous.Nodes() {
		if _, ok := p.Current.Node(old.Hash); ok {
			continue
		}
		nt := NodeTransition{
			Hash:        old.Hash,
			Kind:        Exiting,
			Node:        old,
			From:        old.Point(),
			To:          exitPoint(p, old),
			FromOpacity: 1,
		}
		from[old.Hash] = nt.From
		p.Nodes.add(Exiting, nt)
	}
	return from
}

// enterPoint is the previous position of n's first resolved parent, or n's
// own final position when that parent was not on screen.
func enterPoint(p *Plan, n *graph.Node) graph.Point {
	if parent, ok := p.Current.FirstResolvedParent(n.Hash); ok {
		if old, ok := p.Previous.Node(parent.Hash); ok {
			return old.Point()
		}
	}
	return n.Point()
}

// exitPoint is where an exiting node collapses to: its first parent's new
// position, else that parent's old position, else the node's own position.
func exitPoint(p *Plan, old *graph.Node) graph.Point {
	if len(old.Parents) > 0 {
		first := old.Parents[0]
		if n, ok := p.Current.Node(first); ok {
			return n.Point()
		}
		if n, ok := p.Previous.Node(first); ok {
			return n.Point()
		}
	}
	return old.Point()
}

func planLinks(p *Plan, from map[string]graph.Point) {
	prevLinks := make(map[graph.LinkKey]*graph.Link, p.Previous.LinkCount())
	for _, l := range p.Previous.Links() {
		prevLinks[l.Key()] = l
	}
	seen := make(map[graph.LinkKey]bool, p.Current.LinkCount())

	for _, l := range p.Current.Links() {
		key := l.Key()
		if seen[key] {
			continue
		}
		seen[key] = true

		lt := LinkTransition{
			Key:        key,
			SourceHash: l.SourceHash,
			TargetHash: l.TargetHash,
			From:       Segment{Source: from[l.SourceHash], Target: from[l.TargetHash]},
			To:         Segment{Source: l.Source.Point(), Target: l.Target.Point()},
			ToOpacity:  1,
		}
		if _, ok := prevLinks[key]; ok {
			lt.Kind = Persisting
			lt.FromOpacity = 1
		} else {
			lt.Kind = Entering
		}
		p.Links.add(lt.Kind, lt)
	}

	for _, l := range p.Previous.Links() {
		key := l.Key()
		if seen[key] {
			continue
		}
		seen[key] = true

		end := l.Target.Point()
		p.Links.add(Exiting, LinkTransition{
			Key:         key,
			SourceHash:  l.SourceHash,
			TargetHash:  l.TargetHash,
			Kind:        Exiting,
			From:        Segment{Source: l.Source.Point(), Target: l.Target.Point()},
			To:          Segment{Source: end, Target: end},
			FromOpacity: 1,
		})
	}
}

type labelKey struct {
	hash string
	ref  string
}

func labelPoint(n *graph.Node, index int) graph.Point {
	return graph.Point{X: n.X + LabelOffsetX, Y: n.Y + float64(index)*LabelOffsetY}
}

func planLabels(p *Plan) {
	type prevLabel struct {
		node  *graph.Node
		index int
	}
	prev := make(map[labelKey]prevLabel)
	for _, n := range p.Previous.Nodes() {
		for i, ref := range n.Refs {
			prev[labelKey{n.Hash, ref}] = prevLabel{n, i}
		}
	}
	seen := make(map[labelKey]bool)

	for _, n := range p.Current.Nodes() {
		for i, ref := range n.Refs {
			key := labelKey{n.Hash, ref}
			if seen[key] {
				continue
			}
			seen[key] = true

			lt := LabelTransition{Hash: n.Hash, Ref: ref, Index: i, To: labelPoint(n, i), ToOpacity: 1}
			if old, ok := prev[key]; ok {
				lt.Kind = Persisting
				lt.From = labelPoint(old.node, old.index)
				lt.FromOpacity = 1
			} else {
				lt.Kind = Entering
				if oldNode, ok := p.Previous.Node(n.Hash); ok {
					lt.From = labelPoint(oldNode, i)
				} else {
					lt.From = lt.To
				}
			}
			p.Labels.add(lt.Kind, lt)
		}
	}

	for _, n := range p.Previous.Nodes() {
		for i, ref := range n.Refs {
			key := labelKey{n.Hash, ref}
			if seen[key] {
				continue
			}
			seen[key] = true
			at := labelPoint(n, i)
			p.Labels.add(Exiting, LabelTransition{
				Hash: n.Hash, Ref: ref, Index: i, Kind: Exiting,
				From: at, To: at, FromOpacity: 1,
			})
		}
	}
}
