package graph_test

import (
	"fmt"

	"github.com/matzehuels/gitmorph/pkg/commitlog"
	"github.com/matzehuels/gitmorph/pkg/graph"
)

func ExampleBuild() {
	commits, _ := commitlog.Parse("b2 (Bob) (now) (second)  [a1 gone]\na1 (Bob) (1 day ago) (init)  []")
	s, warnings := graph.Build(commits)

	fmt.Println("nodes:", s.Len())
	for _, l := range s.Links() {
		fmt.Println("link:", l.Key())
	}
	for _, w := range warnings {
		fmt.Println("warning:", w.Kind)
	}
	// Output:
	// nodes: 2
	// link: b2→a1
	// warning: dangling_parent
}
