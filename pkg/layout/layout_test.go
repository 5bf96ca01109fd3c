package layout

import (
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/gitmorph/pkg/commitlog"
	"github.com/matzehuels/gitmorph/pkg/errors"
	"github.com/matzehuels/gitmorph/pkg/graph"
)

func build(t *testing.T, lines ...string) *graph.Snapshot {
	t.Helper()
	commits, err := commitlog.Parse(strings.Join(lines, "\n"))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	s, _ := graph.Build(commits)
	return s
}

func node(t *testing.T, s *graph.Snapshot, hash string) *graph.Node {
	t.Helper()
	n, ok := s.Node(hash)
	if !ok {
		t.Fatalf("node %s missing", hash)
	}
	return n
}

func TestApplySingleRoot(t *testing.T) {
	s := build(t, "a1 (Bob) (1 day ago) (init)  []")
	res := Apply(s, Options{Width: 800, Height: 600})

	a1 := node(t, s, "a1")
	if a1.X != 400 || a1.Y != 580 || a1.Level != 0 {
		t.Errorf("a1 = (%v, %v) level %d, want (400, 580) level 0", a1.X, a1.Y, a1.Level)
	}
	if res.Levels != 1 || len(res.Warnings) != 0 {
		t.Errorf("Result = %+v", res)
	}
	if diff := cmp.Diff([]string{"a1"}, res.Roots); diff != "" {
		t.Errorf("roots mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyEndToEnd(t *testing.T) {
	s := build(t,
		"b2 (Bob) (now) (second)  [a1]",
		"a1 (Bob) (1 day ago) (init)  []",
	)
	Apply(s, DefaultOptions())

	a1, b2 := node(t, s, "a1"), node(t, s, "b2")
	if b2.X != a1.X {
		t.Errorf("b2.X = %v, want %v", b2.X, a1.X)
	}
	if a1.Y-b2.Y != DefaultLevelSpacing {
		t.Errorf("level step = %v, want %v", a1.Y-b2.Y, DefaultLevelSpacing)
	}
	if s.LinkCount() != 1 || s.Links()[0].Key().String() != "b2→a1" {
		t.Errorf("links = %v", s.Links())
	}
}

func TestApplyLinearChain(t *testing.T) {
	s := build(t,
		"d4 (Bob) (now) (4)  [c3]",
		"c3 (Bob) (now) (3)  [b2]",
		"b2 (Bob) (now) (2)  [a1]",
		"a1 (Bob) (now) (1)  []",
	)
	Apply(s, DefaultOptions())

	wantY := map[string]float64{"a1": 580, "b2": 530, "c3": 480, "d4": 430}
	for _, n := range s.Nodes() {
		if n.X != 400 {
			t.Errorf("%s.X = %v, want 400", n.Hash, n.X)
		}
		if n.Y != wantY[n.Hash] {
			t.Errorf("%s.Y = %v, want %v", n.Hash, n.Y, wantY[n.Hash])
		}
	}
}

func TestApplySampleLog(t *testing.T) {
	s := build(t, commitlog.SampleLog)
	res := Apply(s, DefaultOptions())

	want := map[string][3]float64{ // x, y, level
		"2d8e9f0": {400, 580, 0},
		"7c9d4e5": {362.5, 530, 1},
		"6f5a3b1": {437.5, 530, 1},
		"a1b2c3d": {362.5, 480, 2},
		"9e8f7a2": {437.5, 480, 2},
		"f3a2b1c": {362.5, 430, 3},
	}
	for hash, w := range want {
		n := node(t, s, hash)
		if got := [3]float64{n.X, n.Y, float64(n.Level)}; got != w {
			t.Errorf("%s = %v, want %v", hash, got, w)
		}
	}
	if res.Levels != 4 {
		t.Errorf("Levels = %d, want 4", res.Levels)
	}
}

func TestApplyRootsSpread(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  []float64
	}{
		{
			name:  "two roots",
			lines: []string{"e1 (A) (now) (x)  []", "e2 (A) (now) (y)  []"},
			want:  []float64{362.5, 437.5},
		},
		{
			name:  "three roots",
			lines: []string{"e1 (A) (now) (x)  []", "e2 (A) (now) (y)  []", "e3 (A) (now) (z)  []"},
			want:  []float64{325, 400, 475},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := build(t, tt.lines...)
			Apply(s, DefaultOptions())
			var got []float64
			for _, n := range s.Nodes() {
				got = append(got, n.X)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("root x mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestApplyMergeAlignsToFirstParent(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		merge string
		first string
	}{
		{
			name: "first parent on the right",
			lines: []string{
				"d0 (A) (now) (merge)  [a b]",
				"b (A) (now) (b)  [f0]",
				"a (A) (now) (a)  [f0]",
				"f0 (A) (now) (root)  []",
			},
			merge: "d0",
			first: "a",
		},
		{
			name: "merge shares a group with a sibling",
			lines: []string{
				"c1 (A) (now) (c1)  [e1]",
				"c2 (A) (now) (merge)  [e1 e2]",
				"e1 (A) (now) (x)  [f0]",
				"e2 (A) (now) (y)  [f0]",
				"f0 (A) (now) (root)  []",
			},
			merge: "c2",
			first: "e1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := build(t, tt.lines...)
			Apply(s, DefaultOptions())
			m, p := node(t, s, tt.merge), node(t, s, tt.first)
			if m.X != p.X {
				t.Errorf("%s.X = %v, want first parent %s.X = %v", tt.merge, m.X, tt.first, p.X)
			}
		})
	}
}

func TestApplySiblingsCenteredOnParent(t *testing.T) {
	s := build(t,
		"c (A) (now) (c)  [f0]",
		"b (A) (now) (b)  [f0]",
		"a (A) (now) (a)  [f0]",
		"f0 (A) (now) (root)  []",
	)
	Apply(s, Options{Width: 1000, Height: 600})

	r := node(t, s, "f0")
	got := []float64{node(t, s, "c").X, node(t, s, "b").X, node(t, s, "a").X}
	want := []float64{r.X - 75, r.X, r.X + 75}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("sibling x mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyDanglingParentIsRoot(t *testing.T) {
	s := build(t,
		"b2 (Bob) (now) (second)  [a1]",
		"a1 (Bob) (1 day ago) (init)  [outside]",
	)
	res := Apply(s, DefaultOptions())
	if node(t, s, "a1").Level != 0 || node(t, s, "b2").Level != 1 {
		t.Errorf("levels = %d, %d; want 0, 1", node(t, s, "a1").Level, node(t, s, "b2").Level)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", res.Warnings)
	}
}

func TestApplyNoRootFallback(t *testing.T) {
	s := build(t,
		"a (A) (now) (a)  [b]",
		"b (A) (now) (b)  [a]",
	)
	res := Apply(s, DefaultOptions())

	counts := graph.CountByKind(res.Warnings)
	if counts[graph.WarnNoRoot] != 1 {
		t.Errorf("warnings = %v, want one no_root", res.Warnings)
	}
	if diff := cmp.Diff([]string{"a"}, res.Roots); diff != "" {
		t.Errorf("roots mismatch (-want +got):\n%s", diff)
	}
	assertValidLevels(t, s, res)
}

func TestApplyCycleRemnants(t *testing.T) {
	s := build(t,
		"b (A) (now) (b)  [a]",
		"a (A) (now) (a)  [f0 b]",
		"f0 (A) (now) (root)  []",
	)
	res := Apply(s, DefaultOptions())

	if graph.CountByKind(res.Warnings)[graph.WarnCycle] != 2 {
		t.Errorf("warnings = %v, want two cycle warnings", res.Warnings)
	}
	assertValidLevels(t, s, res)
}

func assertValidLevels(t *testing.T, s *graph.Snapshot, res Result) {
	t.Helper()
	for _, n := range s.Nodes() {
		if n.Level < 0 || n.Level >= res.Levels {
			t.Errorf("%s.Level = %d outside [0, %d)", n.Hash, n.Level, res.Levels)
		}
		if math.IsNaN(n.X) || math.IsNaN(n.Y) {
			t.Errorf("%s has NaN coordinates", n.Hash)
		}
	}
}

func TestApplyDeterministic(t *testing.T) {
	lines := []string{
		"d2 (A) (now) (m2)  [f2 d1]",
		"f2 (B) (now) (f2)  [f1]",
		"d1 (A) (now) (m1)  [f0 c1]",
		"c1 (C) (now) (g1)  [f0]",
		"f1 (B) (now) (f1)  [f0]",
		"f0 (A) (now) (root)  []",
		"ee (D) (now) (orphan)  []",
	}
	coords := func() map[string][3]float64 {
		s := build(t, lines...)
		Apply(s, Options{Width: 640, Height: 480})
		out := make(map[string][3]float64)
		for _, n := range s.Nodes() {
			out[n.Hash] = [3]float64{n.X, n.Y, float64(n.Level)}
		}
		return out
	}

	first := coords()
	for i := 0; i < 5; i++ {
		if diff := cmp.Diff(first, coords()); diff != "" {
			t.Fatalf("run %d differs (-first +run):\n%s", i, diff)
		}
	}
}

func TestApplyEmpty(t *testing.T) {
	res := Apply(graph.New(), DefaultOptions())
	if res.Levels != 0 || res.Roots != nil {
		t.Errorf("Apply(empty) = %+v", res)
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"defaults", DefaultOptions(), false},
		{"zero width", Options{Width: 0, Height: 10}, true},
		{"negative spacing", Options{Width: 10, Height: 10, LevelSpacing: -1}, true},
		{"negative height", Options{Width: 10, Height: -10}, true},
		{"zero spacing", Options{Width: 10, Height: 10}, false},
		{"negative padding", Options{Width: 10, Height: 10, BottomPadding: -0.5}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("code = %s, want %s", errors.GetCode(err), errors.ErrCodeInvalidInput)
			}
		})
	}
}
