package preload

import (
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// fakeProbe settles when released, simulating a slow network load.
type fakeProbe struct {
	release chan error
}

func (p *fakeProbe) Probe(ctx context.Context, url string) error {
	select {
	case err := <-p.release:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestTrackLoaded(t *testing.T) {
	probe := &fakeProbe{release: make(chan error, 1)}
	tracker := NewTracker(probe)

	h := tracker.Track("cover-480.webp")
	probe.release <- nil

	select {
	case status := <-h.Done():
		if status != StatusLoaded {
			t.Errorf("Expected loaded, got %s", status)
		}
	case <-time.After(time.Second):
		t.Fatal("Probe never settled")
	}
}

func TestTrackFailed(t *testing.T) {
	probe := &fakeProbe{release: make(chan error, 1)}
	tracker := NewTracker(probe)

	h := tracker.Track("broken.webp")
	probe.release <- errors.New("404")

	select {
	case status := <-h.Done():
		if status != StatusFailed {
			t.Errorf("Expected error status, got %s", status)
		}
	case <-time.After(time.Second):
		t.Fatal("Probe never settled")
	}
}

func TestCancelDropsLateCallback(t *testing.T) {
	probe := &fakeProbe{release: make(chan error, 1)}
	tracker := NewTracker(probe)

	h := tracker.Track("cover-480.webp")
	h.Cancel()

	// The probe settles only after cancellation, the classic stale
	// callback. It must be dropped, not delivered.
	probe.release <- nil

	select {
	case status := <-h.Done():
		t.Errorf("Cancelled handle settled with %s", status)
	case <-time.After(100 * time.Millisecond):
		// ok: nothing delivered
	}

	if _, ok := h.Wait(); ok {
		t.Error("Wait on a cancelled handle must report not-ok")
	}
}

func TestFileProbe(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.png")

	f, err := os.Create(good)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatal(err)
	}
	f.Close()

	bad := filepath.Join(dir, "bad.png")
	if err := os.WriteFile(bad, []byte("not an image"), 0644); err != nil {
		t.Fatal(err)
	}

	probe := FileProbe{}
	if err := probe.Probe(context.Background(), good); err != nil {
		t.Errorf("Expected good image to probe clean: %v", err)
	}
	if err := probe.Probe(context.Background(), bad); err == nil {
		t.Error("Expected corrupt image to fail the probe")
	}
	if err := probe.Probe(context.Background(), filepath.Join(dir, "missing.png")); err == nil {
		t.Error("Expected missing file to fail the probe")
	}
}
