// Package graph turns parsed commits into a graph snapshot and provides the
// snapshot's JSON wire format.
//
// # Snapshot
//
// A [Snapshot] is one complete graph state: commit nodes keyed by hash (in
// input order, O(1) lookup) plus the child→parent links between them. Build
// one with [Build]:
//
//	commits, _ := commitlog.Parse(text)
//	s, warnings := graph.Build(commits)
//
// Parents that do not resolve to a commit in the same input (for example,
// because the log window was truncated) produce no link. They are reported as
// [WarnDanglingParent] warnings and never fail the build.
//
// Node coordinates (X, Y, Level) are zero after Build; the layout package is
// the only writer of them.
//
// # Serialization
//
// Snapshots serialize as:
//
//	{
//	  "nodes": [{"hash": "b2", "parents": ["a1"], "x": 400, "y": 530, "level": 1, ...}],
//	  "links": [{"source": "b2", "target": "a1"}]
//	}
//
// Use [MarshalSnapshot], [WriteSnapshot], [WriteSnapshotFile] and their Read
// counterparts. Reading rebuilds the node pointers held by each [Link].
package graph
