package animation

// Easing maps linear progress in [0, 1] to eased progress in [0, 1].
type Easing func(t float64) float64

// Linear is the identity easing.
func Linear(t float64) float64 { return clamp01(t) }

// CubicInOut accelerates through the first half and decelerates through the
// second.
func CubicInOut(t float64) float64 {
	t = clamp01(t)
	if t < 0.5 {
		return 4 * t * t * t
	}
	u := 2*t - 2
	return u*u*u/2 + 1
}

// EasingByName resolves "linear" and "cubic" (the default for any other
// value).
func EasingByName(name string) Easing {
	if name == "linear" {
		return Linear
	}
	return CubicInOut
}

func clamp01(t float64) float64 {
	return max(0, min(1, t))
}
