package crossfade

// LayerRole distinguishes the outgoing slide's retained visuals from the
// incoming slide's.
type LayerRole int

const (
	RolePrevious LayerRole = iota
	RoleCurrent
)

// LayerKind distinguishes the blurred backdrop from the sharp foreground.
type LayerKind int

const (
	// KindBackdrop is the low-resolution placeholder, rendered blurred and
	// slightly scaled up. It paints immediately, so the frame is never blank.
	KindBackdrop LayerKind = iota
	// KindForeground is the sharp full-resolution layer; its fade-in is
	// gated on the preload tracker's confirmed-load signal.
	KindForeground
)

// Layer is one visual plane of the transition stack at a given instant.
type Layer struct {
	Role    LayerRole
	Kind    LayerKind
	URL     string
	Blurred bool
	Opacity float64 // 0..1
	Scale   float64 // 1.0 = exact fit
}

// FallbackCard is the terminal degraded UI: a gradient panel with the
// slide's text and no image layers at all.
type FallbackCard struct {
	Title    string
	Subtitle string
}

// lerp performs linear interpolation between a and b.
func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// easeInOutCubic applies smooth easing function.
func easeInOutCubic(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	if t < 0.5 {
		return 4 * t * t * t
	}
	u := -2*t + 2
	return 1 - u*u*u/2
}
