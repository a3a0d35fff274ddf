// Package card renders the non-photographic panels of the rotation: the
// gradient fallback card shown when a slide has no usable image, and the
// subscribe card with the magazine's QR code. Card text is overlaid by the
// exporter (drawtext), the card itself is pure background.
package card

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/ivlev/heroslide/internal/analyzer"
)

// Gradient fills a w×h panel with a vertical two-stop gradient.
func Gradient(w, h int, p analyzer.Palette) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))

	for y := 0; y < h; y++ {
		t := 0.0
		if h > 1 {
			t = float64(y) / float64(h-1)
		}
		c := color.RGBA{
			R: blend(p.Top.R, p.Bottom.R, t),
			G: blend(p.Top.G, p.Bottom.G, t),
			B: blend(p.Top.B, p.Bottom.B, t),
			A: 0xff,
		}
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}

	return img
}

// Subscribe renders a gradient panel with a centered QR code pointing at the
// subscription URL.
func Subscribe(w, h int, url string, p analyzer.Palette) (*image.RGBA, error) {
	panel := Gradient(w, h, p)

	q, err := qrcode.New(url, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("qr для %q: %w", url, err)
	}

	size := h / 3
	if size < 64 {
		size = 64
	}
	qrImg := q.Image(size)

	b := qrImg.Bounds()
	offset := image.Pt((w-b.Dx())/2, (h-b.Dy())/2)
	draw.Draw(panel, b.Add(offset).Sub(b.Min), qrImg, b.Min, draw.Over)

	return panel, nil
}

func blend(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*t)
}
