// Package animation turns a transition plan into timed frames.
//
// [Interpolate] is the pure part: given a plan and a progress value t in
// [0, 1] it returns the [Frame] to draw, with every node, link and label
// interpolated using the same eased t. [PathBetween] computes the link
// geometry the renderers draw: a straight line when both endpoints share an
// x coordinate, otherwise a vertical S-shaped cubic curve.
//
// [Player] is the timed part. It walks a plan from t=0 to t=1 over
// [DefaultDuration], emitting frames through a callback, and satisfies the
// session package's Renderer contract. It never calls time functions
// directly; all waiting goes through a [Scheduler], so tests drive it with a
// [ManualScheduler] and production code uses [ClockScheduler].
package animation
