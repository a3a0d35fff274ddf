package carousel

// Pointer/touch handling. A gesture commits to one axis early: once vertical
// intent is detected the carousel bails out entirely so it never hijacks page
// scrolling. Horizontal gestures navigate when the travelled distance passes
// the width-scaled swipe threshold.

// PointerDown begins a gesture at (x, y).
func (c *Controller) PointerDown(x, y float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.gesture = gesture{active: true, startX: x, startY: y, lastX: x}
	// Touching the carousel pauses autoplay for the duration of the gesture.
	c.stopAutoplayLocked()
}

// PointerMove updates an active gesture.
func (c *Controller) PointerMove(x, y float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	g := &c.gesture
	if c.closed || !g.active {
		return
	}
	g.lastX = x

	if !g.locked {
		dx := abs(x - g.startX)
		dy := abs(y - g.startY)
		if dx < axisLockDistance && dy < axisLockDistance {
			return
		}
		g.locked = true
		g.vertical = dy > dx
		if g.vertical {
			// Vertical intent: hand the gesture back to the page.
			g.active = false
			c.markInteractionLocked()
			c.rearmAutoplayLocked()
		}
	}
}

// PointerUp finishes the gesture and navigates if it qualified as a swipe.
// Any completed gesture, swipe or not, counts as an interaction and sets the
// autoplay cooldown.
func (c *Controller) PointerUp(x, y float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	g := c.gesture
	c.gesture = gesture{}
	if c.closed || !g.active {
		return
	}

	c.markInteractionLocked()

	dx := x - g.startX
	threshold := c.cfg.SwipeThreshold(c.cfg.ViewportWidth)
	if !g.vertical && abs(dx) >= threshold {
		if dx < 0 {
			c.activateLocked(c.wrap(c.active + 1)) // swipe left → next
		} else {
			c.activateLocked(c.wrap(c.active - 1)) // swipe right → previous
		}
	}
	c.rearmAutoplayLocked()
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
