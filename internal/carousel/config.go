package carousel

import (
	"math"
	"time"
)

// Config parameterizes the single carousel implementation; the production
// site used to carry several near-duplicate sliders that differed only in
// these numbers.
type Config struct {
	// AutoplayInterval is the dwell time between automatic advances.
	AutoplayInterval time.Duration
	// InteractionCooldown keeps autoplay disarmed after any user gesture,
	// even if hover/focus end sooner, so autoplay never fights the user.
	InteractionCooldown time.Duration
	// SwipeThreshold maps viewport width to the horizontal distance (px)
	// a drag must cover to count as a swipe.
	SwipeThreshold func(viewportWidth int) float64
	// ViewportWidth feeds SwipeThreshold and is updated via SetViewportWidth.
	ViewportWidth int
	// ReducedMotion disables autoplay entirely and turns crossfades into
	// hard cuts.
	ReducedMotion bool
}

// DefaultConfig mirrors the production timings.
func DefaultConfig() Config {
	return Config{
		AutoplayInterval:    6 * time.Second,
		InteractionCooldown: 5 * time.Second,
		SwipeThreshold:      DefaultSwipeThreshold,
		ViewportWidth:       1280,
	}
}

// DefaultSwipeThreshold scales with viewport width: 8% of the width, never
// below 24px (so tiny viewports stay swipeable) and never above 96px (so wide
// desktops don't demand arm-length drags). A 40px drag therefore navigates on
// a 375px phone but not on a 1440px desktop.
func DefaultSwipeThreshold(viewportWidth int) float64 {
	t := 0.08 * float64(viewportWidth)
	return math.Min(math.Max(t, 24), 96)
}

// axisLockDistance is how far a gesture may travel before the controller
// commits it to either the horizontal (swipe) or vertical (page scroll) axis.
const axisLockDistance = 8.0
