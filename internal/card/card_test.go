package card

import (
	"image/color"
	"testing"

	"github.com/ivlev/heroslide/internal/analyzer"
)

func TestGradientEndpoints(t *testing.T) {
	p := analyzer.Palette{
		Top:    color.RGBA{R: 200, A: 255},
		Bottom: color.RGBA{B: 200, A: 255},
	}

	img := Gradient(64, 64, p)

	top := img.RGBAAt(32, 0)
	if top.R != 200 || top.B != 0 {
		t.Errorf("Expected pure top stop at y=0, got %+v", top)
	}
	bottom := img.RGBAAt(32, 63)
	if bottom.B != 200 || bottom.R != 0 {
		t.Errorf("Expected pure bottom stop at y=h-1, got %+v", bottom)
	}
	mid := img.RGBAAt(32, 32)
	if mid.R == 0 || mid.B == 0 {
		t.Errorf("Expected blended middle, got %+v", mid)
	}
}

func TestSubscribeEmbedsQR(t *testing.T) {
	img, err := Subscribe(640, 360, "https://example.org/subscribe", analyzer.DefaultPalette())
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	// QR codes are black-and-white; the gradient palette is neither. Find at
	// least one near-white and one near-black pixel in the center region.
	var white, black bool
	for y := 140; y < 220; y++ {
		for x := 280; x < 360; x++ {
			c := img.RGBAAt(x, y)
			if c.R > 240 && c.G > 240 && c.B > 240 {
				white = true
			}
			if c.R < 15 && c.G < 15 && c.B < 15 {
				black = true
			}
		}
	}
	if !white || !black {
		t.Errorf("Expected QR modules in panel center (white=%v black=%v)", white, black)
	}
}
