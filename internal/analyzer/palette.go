// Package analyzer extracts a coarse colour palette from a slide's artwork so
// the textual fallback card can match the issue's cover instead of showing a
// generic gray panel.
package analyzer

import (
	"image"
	"image/color"
)

// Palette is the two-stop vertical gradient derived from an image.
type Palette struct {
	Top    color.RGBA
	Bottom color.RGBA
}

// DefaultPalette is used when no artwork is available at all.
func DefaultPalette() Palette {
	return Palette{
		Top:    color.RGBA{R: 0x2b, G: 0x2d, B: 0x42, A: 0xff},
		Bottom: color.RGBA{R: 0x8d, G: 0x99, B: 0xae, A: 0xff},
	}
}

// Extract averages the top and bottom bands of the image on a sparse grid.
// Шаг сетки грубый намеренно: карточка всего лишь фон под текстом, точность тут не
// нужна, а полный проход по 2400px обложке заметно дороже.
func Extract(img image.Image) Palette {
	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return DefaultPalette()
	}

	band := bounds.Dy() / 3
	if band == 0 {
		band = 1
	}

	top := averageBand(img, bounds.Min.Y, bounds.Min.Y+band)
	bottom := averageBand(img, bounds.Max.Y-band, bounds.Max.Y)
	return Palette{Top: darken(top, 0.85), Bottom: darken(bottom, 0.7)}
}

func averageBand(img image.Image, y0, y1 int) color.RGBA {
	bounds := img.Bounds()
	step := bounds.Dx() / 32
	if step == 0 {
		step = 1
	}
	stepY := (y1 - y0) / 16
	if stepY <= 0 {
		stepY = 1
	}

	var r, g, b, n uint64
	for y := y0; y < y1; y += stepY {
		for x := bounds.Min.X; x < bounds.Max.X; x += step {
			pr, pg, pb, _ := img.At(x, y).RGBA()
			r += uint64(pr >> 8)
			g += uint64(pg >> 8)
			b += uint64(pb >> 8)
			n++
		}
	}
	if n == 0 {
		return DefaultPalette().Top
	}
	return color.RGBA{R: uint8(r / n), G: uint8(g / n), B: uint8(b / n), A: 0xff}
}

// darken scales a colour towards black so white card text stays readable on
// bright covers.
func darken(c color.RGBA, k float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(c.R) * k),
		G: uint8(float64(c.G) * k),
		B: uint8(float64(c.B) * k),
		A: 0xff,
	}
}
