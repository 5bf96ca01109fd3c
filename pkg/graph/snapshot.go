package graph

import (
	"fmt"
	"slices"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/matzehuels/gitmorph/pkg/commitlog"
)

// =============================================================================
// Types
// =============================================================================

// Node is a commit plus its computed layout position. Level is the
// topological depth from the nearest root (roots are 0).
type Node struct {
	commitlog.Commit
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Level int     `json:"level"`
}

// Point returns the node's position.
func (n *Node) Point() Point { return Point{X: n.X, Y: n.Y} }

// Point is a 2D layout coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Link is a directed child→parent edge between two nodes of one snapshot.
type Link struct {
	SourceHash string `json:"source"`
	TargetHash string `json:"target"`
	Source     *Node  `json:"-"`
	Target     *Node  `json:"-"`
}

// Key returns the (source, target) identity used to match links across
// snapshots.
func (l *Link) Key() LinkKey { return LinkKey{Source: l.SourceHash, Target: l.TargetHash} }

// LinkKey identifies a link by its endpoint hashes.
type LinkKey struct {
	Source string
	Target string
}

// String formats the key as "source→target".
func (k LinkKey) String() string { return k.Source + "→" + k.Target }

// Snapshot is one complete graph state.
type Snapshot struct {
	nodes *orderedmap.OrderedMap[string, *Node]
	links []*Link
}

// =============================================================================
// Construction
// =============================================================================

// New returns an empty snapshot.
func New() *Snapshot {
	return &Snapshot{nodes: orderedmap.New[string, *Node]()}
}

// Build creates a snapshot from commits.
//
// One node is created per commit, in input order. Then for every node and
// every parent hash that resolves to a node, one link is appended (child →
// parent, in parent order). Unresolvable parents are skipped and reported as
// warnings. A repeated hash keeps its first occurrence and is reported as a
// [WarnDuplicateHash] warning.
func Build(commits []commitlog.Commit) (*Snapshot, []Warning) {
	s := New()
	var warnings []Warning

	for _, c := range commits {
		if _, dup := s.nodes.Get(c.Hash); dup {
			warnings = append(warnings, Warning{
				Kind:    WarnDuplicateHash,
				Hash:    c.Hash,
				Message: fmt.Sprintf("duplicate commit %s ignored", c.Hash),
			})
			continue
		}
		s.nodes.Set(c.Hash, &Node{Commit: c.Clone()})
	}

	for pair := s.nodes.Oldest(); pair != nil; pair = pair.Next() {
		child := pair.Value
		linked := make(map[string]bool, len(child.Parents))
		for _, ph := range child.Parents {
			if linked[ph] {
				continue
			}
			linked[ph] = true
			parent, ok := s.nodes.Get(ph)
			if !ok {
				warnings = append(warnings, Warning{
					Kind:    WarnDanglingParent,
					Hash:    child.Hash,
					Parent:  ph,
					Message: fmt.Sprintf("commit %s references unknown parent %s", child.Hash, ph),
				})
				continue
			}
			s.links = append(s.links, &Link{
				SourceHash: child.Hash,
				TargetHash: ph,
				Source:     child,
				Target:     parent,
			})
		}
	}
	return s, warnings
}

// =============================================================================
// Queries
// =============================================================================

// Len returns the number of nodes.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return s.nodes.Len()
}

// Nodes returns the nodes in input order.
func (s *Snapshot) Nodes() []*Node {
	if s == nil {
		return nil
	}
	out := make([]*Node, 0, s.nodes.Len())
	for pair := s.nodes.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}

// Node looks up a node by hash.
func (s *Snapshot) Node(hash string) (*Node, bool) {
	if s == nil {
		return nil, false
	}
	return s.nodes.Get(hash)
}

// Links returns the links in creation order. The slice must not be modified.
func (s *Snapshot) Links() []*Link {
	if s == nil {
		return nil
	}
	return s.links
}

// LinkCount returns the number of links.
func (s *Snapshot) LinkCount() int { return len(s.Links()) }

// ResolvedParents returns the parents of hash that exist in s, in the
// commit's parent order.
func (s *Snapshot) ResolvedParents(hash string) []*Node {
	n, ok := s.Node(hash)
	if !ok {
		return nil
	}
	var out []*Node
	for i, ph := range n.Parents {
		if slices.Contains(n.Parents[:i], ph) {
			continue
		}
		if p, ok := s.nodes.Get(ph); ok {
			out = append(out, p)
		}
	}
	return out
}

// FirstResolvedParent returns the first of hash's parents present in s.
func (s *Snapshot) FirstResolvedParent(hash string) (*Node, bool) {
	ps := s.ResolvedParents(hash)
	if len(ps) == 0 {
		return nil, false
	}
	return ps[0], true
}

// Adjacency holds per-hash parent and child lists derived from links.
type Adjacency struct {
	Parents  map[string][]string
	Children map[string][]string
}

// Adjacency derives parent and child lists from the snapshot's links. Lists
// follow link order, so they are deterministic for a given input.
func (s *Snapshot) Adjacency() Adjacency {
	adj := Adjacency{
		Parents:  make(map[string][]string, s.Len()),
		Children: make(map[string][]string, s.Len()),
	}
	for _, l := range s.Links() {
		adj.Parents[l.SourceHash] = append(adj.Parents[l.SourceHash], l.TargetHash)
		adj.Children[l.TargetHash] = append(adj.Children[l.TargetHash], l.SourceHash)
	}
	return adj
}

// Commits returns the commit records of s in input order.
func (s *Snapshot) Commits() []commitlog.Commit {
	nodes := s.Nodes()
	out := make([]commitlog.Commit, len(nodes))
	for i, n := range nodes {
		out[i] = n.Commit.Clone()
	}
	return out
}

// Clone returns a deep copy of s with links bound to the copied nodes.
func (s *Snapshot) Clone() *Snapshot {
	c := New()
	if s == nil {
		return c
	}
	for pair := s.nodes.Oldest(); pair != nil; pair = pair.Next() {
		n := *pair.Value
		n.Commit = n.Commit.Clone()
		c.nodes.Set(pair.Key, &n)
	}
	c.links = make([]*Link, 0, len(s.links))
	for _, l := range s.links {
		src, _ := c.nodes.Get(l.SourceHash)
		dst, _ := c.nodes.Get(l.TargetHash)
		c.links = append(c.links, &Link{SourceHash: l.SourceHash, TargetHash: l.TargetHash, Source: src, Target: dst})
	}
	return c
}

// Bounds returns the bounding box of all node positions. ok is false for an
// empty snapshot.
func (s *Snapshot) Bounds() (lo, hi Point, ok bool) {
	nodes := s.Nodes()
	if len(nodes) == 0 {
		return Point{}, Point{}, false
	}
	lo, hi = nodes[0].Point(), nodes[0].Point()
	for _, n := range nodes[1:] {
		lo.X, hi.X = min(lo.X, n.X), max(hi.X, n.X)
		lo.Y, hi.Y = min(lo.Y, n.Y), max(hi.Y, n.Y)
	}
	return lo, hi, true
}
