// Package preload issues background probe loads for image URLs and reports
// loaded/error before anything visible is mounted: the engine's equivalent
// of an out-of-DOM image element with onload/onerror callbacks.
package preload

import (
	"context"
	"sync"
)

// Status is the outcome of one probe.
type Status int

const (
	// StatusLoaded means the asset decoded successfully.
	StatusLoaded Status = iota
	// StatusFailed means the asset is missing, truncated or undecodable.
	StatusFailed
)

func (s Status) String() string {
	if s == StatusLoaded {
		return "loaded"
	}
	return "error"
}

// Probe performs the actual load attempt. Implementations must honour ctx
// cancellation; no timeout is imposed here by design; a stalled load leaves
// the slide at placeholder-ready indefinitely.
type Probe interface {
	Probe(ctx context.Context, url string) error
}

// Tracker issues probes and hands back cancellable handles.
type Tracker struct {
	probe Probe
}

// NewTracker creates a tracker over the given probe implementation.
func NewTracker(probe Probe) *Tracker {
	return &Tracker{probe: probe}
}

// Track starts a background probe for url. The returned handle settles at
// most once; a handle cancelled before the probe finishes never settles at
// all; late callbacks are dropped, not delivered.
func (t *Tracker) Track(url string) *Handle {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Handle{
		done:   make(chan Status, 1),
		dead:   make(chan struct{}),
		cancel: cancel,
	}

	go func() {
		err := t.probe.Probe(ctx, url)
		status := StatusLoaded
		if err != nil {
			status = StatusFailed
		}
		h.settle(status)
	}()

	return h
}

// Handle represents one in-flight probe.
type Handle struct {
	mu        sync.Mutex
	done      chan Status
	dead      chan struct{}
	cancel    context.CancelFunc
	settled   bool
	cancelled bool
}

// Done yields the probe outcome. It never yields after Cancel.
func (h *Handle) Done() <-chan Status {
	return h.done
}

// Wait blocks until the probe settles or the handle is cancelled. ok=false
// means cancelled: the caller must treat the probe as if it never happened.
func (h *Handle) Wait() (Status, bool) {
	select {
	case status := <-h.done:
		return status, true
	case <-h.dead:
		return StatusFailed, false
	}
}

// Cancel marks the handle dead. Any probe result arriving afterwards is
// silently discarded; the liveness guard against stale callbacks mutating
// state for a slide that is no longer active.
func (h *Handle) Cancel() {
	h.mu.Lock()
	if !h.cancelled {
		h.cancelled = true
		close(h.dead)
	}
	h.mu.Unlock()
	h.cancel()
}

func (h *Handle) settle(status Status) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.settled || h.cancelled {
		return
	}
	h.settled = true
	h.done <- status
}
