// Package carousel owns the active slide index and everything that changes
// it: the autoplay timer, pause/resume sources (hover, focus, visibility),
// the interaction cooldown and keyboard/pointer/touch navigation. It drives
// the registry → selector → preload → crossfade pipeline on every change.
package carousel

import (
	"context"
	"sync"
	"time"

	"github.com/ivlev/heroslide/internal/crossfade"
	"github.com/ivlev/heroslide/internal/preload"
	"github.com/ivlev/heroslide/internal/registry"
	"github.com/ivlev/heroslide/internal/selector"
	"github.com/ivlev/heroslide/internal/slide"
)

// State is the externally visible carousel state, consumed by the dots
// indicator. Mutated only by the controller.
type State struct {
	ActiveIndex             int
	Paused                  bool
	LastInteractionDeadline time.Time
}

// Controller is the carousel state machine.
type Controller struct {
	mu  sync.Mutex
	cfg Config

	deck     []slide.Descriptor
	reg      registry.Registry
	tracker  *preload.Tracker
	renderer *crossfade.Renderer

	now      func() time.Time
	newTimer crossfade.TimerFactory

	ctx       context.Context
	cancelCtx context.CancelFunc

	active        int
	epoch         int64 // transition liveness: stale async work is dropped
	loadState     slide.LoadState
	probe         *preload.Handle
	autoplay      crossfade.Stopper
	cooldownUntil time.Time

	hovered bool
	focused bool
	visible bool
	closed  bool

	gesture gesture
}

type gesture struct {
	active   bool
	startX   float64
	startY   float64
	lastX    float64
	locked   bool
	vertical bool
}

// New builds a controller over the fixed deck and immediately activates
// slide 0. The deck must be non-empty; a caller wanting different slides
// remounts with a new controller.
func New(deck []slide.Descriptor, reg registry.Registry, tracker *preload.Tracker, renderer *crossfade.Renderer, cfg Config) *Controller {
	return newController(deck, reg, tracker, renderer, cfg, time.Now, func(d time.Duration, f func()) crossfade.Stopper {
		return time.AfterFunc(d, f)
	})
}

func newController(deck []slide.Descriptor, reg registry.Registry, tracker *preload.Tracker, renderer *crossfade.Renderer, cfg Config, now func() time.Time, newTimer crossfade.TimerFactory) *Controller {
	if cfg.AutoplayInterval <= 0 {
		cfg.AutoplayInterval = DefaultConfig().AutoplayInterval
	}
	if cfg.InteractionCooldown <= 0 {
		cfg.InteractionCooldown = DefaultConfig().InteractionCooldown
	}
	if cfg.SwipeThreshold == nil {
		cfg.SwipeThreshold = DefaultSwipeThreshold
	}
	if cfg.ViewportWidth <= 0 {
		cfg.ViewportWidth = DefaultConfig().ViewportWidth
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		cfg:       cfg,
		deck:      deck,
		reg:       reg,
		tracker:   tracker,
		renderer:  renderer,
		now:       now,
		newTimer:  newTimer,
		ctx:       ctx,
		cancelCtx: cancel,
		visible:   true,
	}

	c.mu.Lock()
	c.activateLocked(0)
	c.rearmAutoplayLocked()
	c.mu.Unlock()
	return c
}

// State returns a copy of the externally visible carousel state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		ActiveIndex:             c.active,
		Paused:                  c.pausedLocked(),
		LastInteractionDeadline: c.cooldownUntil,
	}
}

// ActiveSlide returns the descriptor of the active slide.
func (c *Controller) ActiveSlide() slide.Descriptor {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deck[c.active]
}

// LoadState returns the active slide's load lifecycle state.
func (c *Controller) LoadState() slide.LoadState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadState
}

// Len returns the slide count, for the dots indicator.
func (c *Controller) Len() int {
	return len(c.deck)
}

// Next advances one slide as a user interaction.
func (c *Controller) Next() { c.userNavigate(1) }

// Prev goes back one slide as a user interaction.
func (c *Controller) Prev() { c.userNavigate(-1) }

// Select jumps to slide i (dot selection) as a user interaction.
func (c *Controller) Select(i int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || len(c.deck) == 0 {
		return
	}
	idx := ((i % len(c.deck)) + len(c.deck)) % len(c.deck)
	c.markInteractionLocked()
	if idx != c.active {
		c.activateLocked(idx)
	}
	c.rearmAutoplayLocked()
}

// Key identifies the navigation keys the carousel reacts to.
type Key int

const (
	KeyLeft Key = iota
	KeyRight
)

// HandleKey processes arrow-key navigation.
func (c *Controller) HandleKey(key Key) {
	switch key {
	case KeyLeft:
		c.Prev()
	case KeyRight:
		c.Next()
	}
}

// SetHovered records pointer hover over the slide container.
func (c *Controller) SetHovered(v bool) { c.setPauseSource(&c.hovered, v) }

// SetFocused records keyboard focus within the slide container.
func (c *Controller) SetFocused(v bool) { c.setPauseSource(&c.focused, v) }

// SetVisible records whether the container intersects the viewport; autoplay
// never runs off-screen.
func (c *Controller) SetVisible(v bool) { c.setPauseSource(&c.visible, !v) }

// SetViewportWidth updates the width the swipe threshold scales against.
func (c *Controller) SetViewportWidth(w int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if w > 0 {
		c.cfg.ViewportWidth = w
	}
}

// Close unmounts the controller: all pending timers are cleared and the
// outstanding probe is unsubscribed, so its eventual resolution is a no-op.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.stopAutoplayLocked()
	if c.probe != nil {
		c.probe.Cancel()
		c.probe = nil
	}
	c.cancelCtx()
}

// --- navigation & transitions ---

func (c *Controller) userNavigate(delta int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || len(c.deck) == 0 {
		return
	}
	c.markInteractionLocked()
	c.activateLocked(c.wrap(c.active + delta))
	c.rearmAutoplayLocked()
}

func (c *Controller) wrap(i int) int {
	n := len(c.deck)
	return ((i % n) + n) % n
}

// activateLocked supersedes any in-flight transition (latest wins) and kicks
// off resolution for the new active slide.
func (c *Controller) activateLocked(idx int) {
	c.epoch++
	epoch := c.epoch
	c.active = idx
	c.loadState = slide.Unresolved

	if c.probe != nil {
		c.probe.Cancel()
		c.probe = nil
	}

	desc := c.deck[idx]

	if res, ok := c.reg.ResolveEager(desc.BaseName); ok {
		c.beginTransitionLocked(epoch, desc, res)
		return
	}

	// Lazy path: the lookup may take multiple event-loop turns. Resolution
	// errors were already logged by the registry and collapse into an empty
	// result, i.e. the gradient fallback; nothing propagates further up.
	c.loadState = slide.Resolving
	go func() {
		res, _ := c.reg.ResolveLazy(c.ctx, desc.BaseName)
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.closed || epoch != c.epoch {
			return
		}
		c.beginTransitionLocked(epoch, desc, res)
	}()
}

func (c *Controller) beginTransitionLocked(epoch int64, desc slide.Descriptor, res registry.Result) {
	sel := selector.Select(res, desc.ExplicitImage)
	gen := c.renderer.Activate(desc, sel)

	if sel.Empty() {
		c.loadState = slide.ErrorState
		return
	}
	c.loadState = slide.PlaceholderReady

	handle := c.tracker.Track(sel.Placeholder)
	c.probe = handle
	go c.runPreload(epoch, gen, sel, handle)
}

// runPreload confirms the placeholder first, then the foreground source that
// gates the sharp layer's fade-in. Every step re-checks the epoch so a probe
// settling after another slide change mutates nothing.
func (c *Controller) runPreload(epoch, gen int64, sel selector.Selection, handle *preload.Handle) {
	status, ok := handle.Wait()
	if !ok {
		return
	}
	if status != preload.StatusLoaded {
		c.finishPreload(epoch, gen, false)
		return
	}

	fg := selector.ForegroundSource(sel)
	if fg == "" || fg == sel.Placeholder {
		c.finishPreload(epoch, gen, true)
		return
	}

	c.mu.Lock()
	if c.closed || epoch != c.epoch {
		c.mu.Unlock()
		return
	}
	fgHandle := c.tracker.Track(fg)
	c.probe = fgHandle
	c.mu.Unlock()

	status, ok = fgHandle.Wait()
	if !ok {
		return
	}
	c.finishPreload(epoch, gen, status == preload.StatusLoaded)
}

func (c *Controller) finishPreload(epoch, gen int64, loaded bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || epoch != c.epoch {
		return // stale callback: the slide changed while the probe ran
	}
	c.probe = nil
	if loaded {
		c.loadState = slide.ConfirmedLoaded
		c.renderer.ConfirmLoaded(gen)
	} else {
		c.loadState = slide.ErrorState
		c.renderer.FailLoad(gen)
	}
}

// --- autoplay ---

func (c *Controller) pausedLocked() bool {
	return c.hovered || c.focused || !c.visible || c.now().Before(c.cooldownUntil)
}

func (c *Controller) markInteractionLocked() {
	c.cooldownUntil = c.now().Add(c.cfg.InteractionCooldown)
}

func (c *Controller) setPauseSource(field *bool, v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || *field == v {
		return
	}
	*field = v
	if v {
		c.stopAutoplayLocked()
	} else {
		// Resume point: a full interval from now, not from the original
		// schedule.
		c.rearmAutoplayLocked()
	}
}

func (c *Controller) stopAutoplayLocked() {
	if c.autoplay != nil {
		c.autoplay.Stop()
		c.autoplay = nil
	}
}

func (c *Controller) rearmAutoplayLocked() {
	c.stopAutoplayLocked()
	if c.closed || c.cfg.ReducedMotion || len(c.deck) < 2 {
		return
	}
	if c.hovered || c.focused || !c.visible {
		return
	}

	delay := c.cfg.AutoplayInterval
	// The cooldown blocks re-arming; the next automatic advance waits out
	// its remainder plus a full interval.
	if remaining := c.cooldownUntil.Sub(c.now()); remaining > 0 {
		delay += remaining
	}

	c.autoplay = c.newTimer(delay, func() { c.autoplayFire() })
}

func (c *Controller) autoplayFire() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.autoplay = nil
	if c.hovered || c.focused || !c.visible {
		// A pause source appeared between scheduling and firing; the next
		// resume event re-arms.
		return
	}
	if c.now().Before(c.cooldownUntil) {
		// Fired inside a cooldown window (clock adjustment, early timer).
		// No resume event is coming for a cooldown, so reschedule past the
		// remainder ourselves instead of going dead.
		c.rearmAutoplayLocked()
		return
	}
	c.activateLocked(c.wrap(c.active + 1))
	c.rearmAutoplayLocked()
}
