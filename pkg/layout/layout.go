package layout

import (
	"fmt"
	"slices"

	"github.com/matzehuels/gitmorph/pkg/graph"
)

// Result summarizes a layout pass.
type Result struct {
	// Levels is the number of levels used (highest level + 1).
	Levels int

	// Roots lists the hashes placed on level 0, in input order.
	Roots []string

	// Warnings holds recoverable structural problems (no root, cycles).
	Warnings []graph.Warning
}

// Apply lays out s in place, writing X, Y and Level of every node. Zero
// option fields take their defaults. An empty snapshot is left untouched.
func Apply(s *graph.Snapshot, opts Options) Result {
	opts.SetDefaults()
	nodes := s.Nodes()
	if len(nodes) == 0 {
		return Result{}
	}

	adj := s.Adjacency()
	lv := assignLevels(nodes, adj)

	placeHorizontally(s, lv, adj, opts)

	for _, n := range nodes {
		n.Level = lv.level[n.Hash]
		n.Y = opts.Height - opts.BottomPadding - float64(n.Level)*opts.LevelSpacing
	}

	roots := make([]string, len(lv.roots))
	for i, r := range lv.roots {
		roots[i] = r.Hash
	}
	return Result{Levels: lv.count, Roots: roots, Warnings: lv.warnings}
}

// =============================================================================
// Levels
// =============================================================================

type levels struct {
	level    map[string]int
	byLevel  [][]*graph.Node // input order within each level
	roots    []*graph.Node
	count    int
	warnings []graph.Warning
}

// assignLevels runs Kahn's algorithm wave by wave from the roots toward
// their descendants.
func assignLevels(nodes []*graph.Node, adj graph.Adjacency) levels {
	lv := levels{level: make(map[string]int, len(nodes))}

	inDegree := make(map[string]int, len(nodes))
	for _, n := range nodes {
		d := len(adj.Parents[n.Hash])
		inDegree[n.Hash] = d
		if d == 0 {
			lv.roots = append(lv.roots, n)
		}
	}
	if len(lv.roots) == 0 {
		first := nodes[0]
		lv.roots = []*graph.Node{first}
		inDegree[first.Hash] = 0
		lv.warnings = append(lv.warnings, graph.Warning{
			Kind:    graph.WarnNoRoot,
			Hash:    first.Hash,
			Message: fmt.Sprintf("no root commit found, using %s", first.Hash),
		})
	}

	queue := make([]string, len(lv.roots))
	for i, r := range lv.roots {
		queue[i] = r.Hash
	}

	wave := 0
	for len(queue) > 0 {
		var next []string
		for _, h := range queue {
			lv.level[h] = wave
			for _, child := range adj.Children[h] {
				inDegree[child]--
				if inDegree[child] == 0 {
					next = append(next, child)
				}
			}
		}
		queue = next
		wave++
	}

	// Cycle remnants: hash order keeps the fallback independent of input order.
	var remnants []string
	for _, n := range nodes {
		if _, ok := lv.level[n.Hash]; !ok {
			remnants = append(remnants, n.Hash)
		}
	}
	slices.Sort(remnants)
	for _, h := range remnants {
		lv.level[h] = wave
		lv.warnings = append(lv.warnings, graph.Warning{
			Kind:    graph.WarnCycle,
			Hash:    h,
			Message: fmt.Sprintf("cyclic dependency: commit %s assigned to level %d", h, wave),
		})
		wave++
	}

	lv.count = wave
	lv.byLevel = make([][]*graph.Node, wave)
	for _, n := range nodes {
		l := lv.level[n.Hash]
		lv.byLevel[l] = append(lv.byLevel[l], n)
	}
	return lv
}

// =============================================================================
// Horizontal Placement
// =============================================================================

func placeHorizontally(s *graph.Snapshot, lv levels, adj graph.Adjacency, opts Options) {
	center := opts.Width / 2
	dx := opts.HorizontalSpacing
	placed := make(map[string]bool, s.Len())

	spread := func(i, k int) float64 {
		return (float64(i) - float64(k-1)/2) * dx
	}

	for i, r := range lv.roots {
		r.X = center + spread(i, len(lv.roots))
		placed[r.Hash] = true
	}

	for l := 1; l < lv.count; l++ {
		var order []string
		groups := make(map[string][]*graph.Node)

		for _, n := range lv.byLevel[l] {
			parents := adj.Parents[n.Hash]
			if len(parents) == 0 || !placed[parents[0]] {
				n.X = center
				placed[n.Hash] = true
				continue
			}
			main := parents[0]
			if _, ok := groups[main]; !ok {
				order = append(order, main)
			}
			groups[main] = append(groups[main], n)
		}

		for _, ph := range order {
			parent, _ := s.Node(ph)
			members := groups[ph]
			for i, n := range members {
				if len(members) == 1 {
					n.X = parent.X
				} else {
					n.X = parent.X + spread(i, len(members))
				}
				placed[n.Hash] = true
			}
		}

		for _, n := range lv.byLevel[l] {
			parents := adj.Parents[n.Hash]
			if len(parents) > 1 && placed[parents[0]] {
				main, _ := s.Node(parents[0])
				n.X = main.X
			}
		}
	}
}
