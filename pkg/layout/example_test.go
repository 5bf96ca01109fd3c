package layout_test

import (
	"fmt"

	"github.com/matzehuels/gitmorph/pkg/commitlog"
	"github.com/matzehuels/gitmorph/pkg/graph"
	"github.com/matzehuels/gitmorph/pkg/layout"
)

func ExampleApply() {
	commits, _ := commitlog.Parse(commitlog.SampleLog)
	s, _ := graph.Build(commits)
	layout.Apply(s, layout.Options{Width: 800, Height: 600})

	for _, n := range s.Nodes() {
		fmt.Printf("%s level=%d x=%.1f y=%.0f\n", n.Hash, n.Level, n.X, n.Y)
	}
	// Output:
	// f3a2b1c level=3 x=362.5 y=430
	// a1b2c3d level=2 x=362.5 y=480
	// 9e8f7a2 level=2 x=437.5 y=480
	// 7c9d4e5 level=1 x=362.5 y=530
	// 6f5a3b1 level=1 x=437.5 y=530
	// 2d8e9f0 level=0 x=400.0 y=580
}
