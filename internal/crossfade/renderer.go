// Package crossfade owns the layered transition between the outgoing and the
// incoming hero slide. The core invariant: the previous slide's layers are
// never torn down before the current foreground has confirmed its load, so no
// frame is ever blank.
package crossfade

import (
	"log"
	"sync"
	"time"

	"github.com/ivlev/heroslide/internal/registry"
	"github.com/ivlev/heroslide/internal/selector"
	"github.com/ivlev/heroslide/internal/slide"
)

// Config carries the transition timings.
type Config struct {
	// FadeDuration is the opacity/scale animation length.
	FadeDuration time.Duration
	// Grace is the delay between the confirmed-load signal and the snapshot
	// teardown; it must outlast FadeDuration so the fade finishes on screen.
	Grace time.Duration
	// BackdropScale is the starting scale of the blurred reveal.
	BackdropScale float64
	// ReducedMotion collapses every transition to a hard cut.
	ReducedMotion bool
}

// DefaultConfig mirrors the production site's transition feel.
func DefaultConfig() Config {
	return Config{
		FadeDuration:  450 * time.Millisecond,
		Grace:         550 * time.Millisecond,
		BackdropScale: 1.08,
	}
}

// Stopper is the stoppable half of a timer.
type Stopper interface {
	Stop() bool
}

// TimerFactory schedules f after d. Injectable so tests drive teardown
// deterministically.
type TimerFactory func(d time.Duration, f func()) Stopper

func realTimer(d time.Duration, f func()) Stopper {
	return time.AfterFunc(d, f)
}

// active is the incoming slide's mutable transition state. Owned exclusively
// by the one live transition; a new Activate supersedes it wholesale.
type active struct {
	desc        slide.Descriptor
	sel         selector.Selection
	state       slide.LoadState
	activatedAt time.Time
	settledAt   time.Time // confirmed-load or failure instant
	fallback    *FallbackCard
}

// snapshot retains the outgoing slide's visuals for the duration of one
// transition: a copy of its variant maps, its placeholder, and the layer
// opacities frozen at the moment of the switch.
type snapshot struct {
	placeholder string
	foreground  string
	variants    map[registry.Encoding]slide.VariantMap
	fallback    *FallbackCard
	baseBack    float64 // backdrop opacity at switch time
	baseFore    float64 // foreground opacity at switch time
}

// Renderer is the dual-layer crossfade state machine.
type Renderer struct {
	mu       sync.Mutex
	cfg      Config
	now      func() time.Time
	newTimer TimerFactory

	gen      int64
	cur      *active
	snap     *snapshot
	teardown Stopper
	closed   bool
}

// NewRenderer builds a renderer with real timers and the wall clock.
func NewRenderer(cfg Config) *Renderer {
	return newRenderer(cfg, time.Now, realTimer)
}

func newRenderer(cfg Config, now func() time.Time, newTimer TimerFactory) *Renderer {
	if cfg.FadeDuration <= 0 {
		cfg.FadeDuration = DefaultConfig().FadeDuration
	}
	if cfg.Grace <= 0 {
		cfg.Grace = DefaultConfig().Grace
	}
	if cfg.BackdropScale < 1 {
		cfg.BackdropScale = DefaultConfig().BackdropScale
	}
	return &Renderer{cfg: cfg, now: now, newTimer: newTimer}
}

// Activate makes desc the current slide. The previous slide's visuals are
// snapshotted and any in-flight teardown timer is discarded first, so rapid
// changes collapse to latest-wins instead of compounding. The returned
// generation tags later ConfirmLoaded/FailLoad calls; stale generations are
// ignored.
//
// An empty selection means total resolution failure: the renderer goes
// straight to the gradient fallback card and logs exactly one warning.
func (r *Renderer) Activate(desc slide.Descriptor, sel selector.Selection) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return r.gen
	}

	now := r.now()
	r.gen++

	// Latest wins: the in-flight snapshot's cleanup timer dies with it.
	r.stopTeardownLocked()
	if r.cur != nil {
		r.snap = r.snapshotLocked(now)
	}

	r.cur = &active{
		desc:        desc,
		sel:         sel,
		state:       slide.PlaceholderReady,
		activatedAt: now,
	}

	if sel.Empty() {
		log.Printf("[!] Слайд %q: ни одного варианта и нет явного изображения, показываем текстовую карточку", desc.BaseName)
		r.cur.state = slide.ErrorState
		r.cur.settledAt = now
		r.cur.fallback = &FallbackCard{Title: desc.Title, Subtitle: desc.Subtitle}
		r.armTeardownLocked(r.gen)
	}

	return r.gen
}

// ConfirmLoaded reports that the foreground source for generation gen has
// decoded. The previous layers start fading and the teardown timer STARTS
// here, never on wall clock alone.
func (r *Renderer) ConfirmLoaded(gen int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || gen != r.gen || r.cur == nil {
		return // stale callback, silently dropped
	}
	if r.cur.state != slide.PlaceholderReady {
		return
	}
	r.cur.state = slide.ConfirmedLoaded
	r.cur.settledAt = r.now()
	r.armTeardownLocked(gen)
}

// FailLoad reports that the chosen candidate failed to decode. Terminal for
// this attempt: the gradient card replaces the image layers, no retry with a
// different width or format.
func (r *Renderer) FailLoad(gen int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || gen != r.gen || r.cur == nil {
		return
	}
	if r.cur.state == slide.ConfirmedLoaded || r.cur.state == slide.ErrorState {
		return
	}
	log.Printf("[!] Слайд %q: выбранный кандидат не загрузился, показываем текстовую карточку", r.cur.desc.BaseName)
	r.cur.state = slide.ErrorState
	r.cur.settledAt = r.now()
	r.cur.fallback = &FallbackCard{Title: r.cur.desc.Title, Subtitle: r.cur.desc.Subtitle}
	r.armTeardownLocked(gen)
}

// State returns the current slide's load state.
func (r *Renderer) State() slide.LoadState {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cur == nil {
		return slide.Unresolved
	}
	return r.cur.state
}

// Fallback returns the active fallback card, if the renderer is in the
// terminal degraded state.
func (r *Renderer) Fallback() *FallbackCard {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cur == nil {
		return nil
	}
	return r.cur.fallback
}

// SnapshotAlive reports whether the previous slide's layers are still
// retained.
func (r *Renderer) SnapshotAlive() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snap != nil
}

// Close stops pending timers; every later callback becomes a no-op.
func (r *Renderer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.stopTeardownLocked()
}

// Layers evaluates the visible layer stack at instant t: up to four planes,
// previous backdrop/foreground fading out and current backdrop/foreground
// fading in. Layers with zero opacity are omitted.
func (r *Renderer) Layers(t time.Time) []Layer {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.layersLocked(t)
}

// Visible reports whether the frame at t carries any content: at least one
// image layer with opacity > 0, or the fallback card. This is the no-blank-
// frame invariant in checkable form.
func (r *Renderer) Visible(t time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cur != nil && r.cur.fallback != nil {
		return true
	}
	return len(r.layersLocked(t)) > 0
}

func (r *Renderer) layersLocked(t time.Time) []Layer {
	var out []Layer

	if r.snap != nil {
		fade := 1.0
		if r.cur != nil && !r.cur.settledAt.IsZero() {
			// Previous layers hold full opacity until the current slide has
			// settled; only then do they animate to zero.
			p := progress(t, r.cur.settledAt, r.cfg.FadeDuration)
			fade = 1 - easeInOutCubic(p)
		}
		if r.cfg.ReducedMotion {
			fade = 0
		}
		if r.snap.fallback == nil {
			if op := r.snap.baseBack * fade; op > 0 && r.snap.placeholder != "" {
				out = append(out, Layer{Role: RolePrevious, Kind: KindBackdrop, URL: r.snap.placeholder, Blurred: true, Opacity: op, Scale: 1.0})
			}
			if op := r.snap.baseFore * fade; op > 0 && r.snap.foreground != "" {
				out = append(out, Layer{Role: RolePrevious, Kind: KindForeground, URL: r.snap.foreground, Opacity: op, Scale: 1.0})
			}
		}
	}

	if r.cur != nil && r.cur.fallback == nil {
		out = append(out, r.currentLayersLocked(t)...)
	}

	return out
}

func (r *Renderer) currentLayersLocked(t time.Time) []Layer {
	var out []Layer
	cur := r.cur

	// The blurred backdrop paints the placeholder at full opacity from the
	// first frame; this is what guarantees non-blank paint while the
	// full-resolution source is still loading.
	if cur.sel.Placeholder != "" {
		reveal := easeInOutCubic(progress(t, cur.activatedAt, r.cfg.FadeDuration))
		scale := lerp(r.cfg.BackdropScale, 1.0, reveal)
		if r.cfg.ReducedMotion {
			scale = 1.0
		}
		out = append(out, Layer{Role: RoleCurrent, Kind: KindBackdrop, URL: cur.sel.Placeholder, Blurred: true, Opacity: 1, Scale: scale})
	}

	// The sharp foreground is gated on the confirmed load of the foreground
	// source, not the placeholder.
	if cur.state == slide.ConfirmedLoaded {
		op := easeInOutCubic(progress(t, cur.settledAt, r.cfg.FadeDuration))
		if r.cfg.ReducedMotion {
			op = 1
		}
		if op > 0 {
			out = append(out, Layer{Role: RoleCurrent, Kind: KindForeground, URL: selector.ForegroundSource(cur.sel), Opacity: op, Scale: 1.0})
		}
	}

	return out
}

// snapshotLocked freezes the current slide's visuals as the new "previous".
func (r *Renderer) snapshotLocked(now time.Time) *snapshot {
	cur := r.cur
	s := &snapshot{
		placeholder: cur.sel.Placeholder,
		foreground:  selector.ForegroundSource(cur.sel),
		fallback:    cur.fallback,
		baseBack:    1.0,
		baseFore:    0.0,
	}
	// Copy the variant maps wholesale; snapshots never share mutable state
	// with the incoming slide.
	if len(cur.sel.SourceSet) > 0 {
		s.variants = map[registry.Encoding]slide.VariantMap{}
		for enc, m := range cur.sel.SourceSet {
			cp := slide.VariantMap{}
			for w, u := range m {
				cp[w] = u
			}
			s.variants[enc] = cp
		}
	}
	if cur.state == slide.ConfirmedLoaded {
		s.baseFore = easeInOutCubic(progress(now, cur.settledAt, r.cfg.FadeDuration))
	}
	return s
}

func (r *Renderer) armTeardownLocked(gen int64) {
	grace := r.cfg.Grace
	if r.cfg.ReducedMotion {
		grace = 0
	}
	r.teardown = r.newTimer(grace, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.closed || gen != r.gen {
			return // a newer transition already superseded this teardown
		}
		r.snap = nil
		r.teardown = nil
	})
}

func (r *Renderer) stopTeardownLocked() {
	if r.teardown != nil {
		r.teardown.Stop()
		r.teardown = nil
	}
}

// progress maps elapsed time since start onto 0..1 over d.
func progress(t, start time.Time, d time.Duration) float64 {
	if start.IsZero() || d <= 0 {
		return 1
	}
	e := t.Sub(start)
	if e <= 0 {
		return 0
	}
	if e >= d {
		return 1
	}
	return float64(e) / float64(d)
}
