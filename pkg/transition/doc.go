// Package transition plans the animated morph between two laid-out commit
// graph snapshots.
//
// [NewPlan] matches nodes by commit hash and links by their (source, target)
// hash pair, then classifies every element as entering (only in the new
// snapshot), persisting (in both) or exiting (only in the old one). Each
// element carries the geometry a renderer needs to interpolate it:
//
//   - Entering nodes start at their first resolved parent's previous position
//     when that parent was on screen, otherwise at their own final position,
//     and fade in.
//   - Persisting nodes move from their previous to their new position.
//   - Exiting nodes move into their first parent (its new position if it
//     survived, else its old one) and fade out.
//   - Links follow their endpoints; exiting links collapse onto the point
//     their target node is moving to.
//   - Ref labels ride along at a fixed offset from their node.
//
// A plan holds no timing information. Every element shares one progress
// parameter in [0, 1], which keeps the whole transition synchronized; see
// the animation package for interpolation and playback.
//
// Neither input snapshot is modified.
package transition
