// Package layout assigns deterministic 2D coordinates to the nodes of a
// commit graph snapshot.
//
// # Algorithm
//
// [Apply] works in three passes:
//
//  1. Levels. Roots (nodes without resolved parents) are level 0. Remaining
//     nodes are levelled in Kahn waves: a node's level is the wave in which
//     its last resolved parent was processed. If no root exists, the first
//     node in input order is used as the sole root. Nodes never reached
//     (cycle remnants) are sorted by hash and given successive levels after
//     the highest wave.
//  2. Horizontal placement. Roots are spread [Options.HorizontalSpacing]
//     apart, centered on Width/2. On every later level, nodes are grouped by
//     their first resolved parent and each group is centered on that
//     parent's x; a lone child inherits its parent's x exactly. Merge
//     commits are then re-aligned to their first parent's x.
//  3. Vertical placement. y = Height - BottomPadding - level*LevelSpacing,
//     so roots sit at the bottom and descendants rise.
//
// Structural problems (no root, cycles) are reported as graph.Warning values
// in the [Result]; they never stop the layout.
//
// # Determinism
//
// Iteration always follows input order, link order or sorted hashes; no map
// is ranged for ordering. Laying out two structurally identical snapshots
// with the same [Options] yields bit-identical coordinates.
//
// # Viewport Fitting
//
// [Fit] computes the scale and translation that center a laid-out snapshot
// inside a viewport, the transform a renderer applies after a transition
// ends.
package layout
