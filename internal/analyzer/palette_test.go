package analyzer

import (
	"image"
	"image/color"
	"image/draw"
	"testing"
)

func TestExtractSplitBands(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 120, 90))
	// Top third red, bottom third blue.
	draw.Draw(img, image.Rect(0, 0, 120, 30), &image.Uniform{color.RGBA{R: 200, A: 255}}, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(0, 30, 120, 60), &image.Uniform{color.RGBA{R: 100, G: 100, B: 100, A: 255}}, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(0, 60, 120, 90), &image.Uniform{color.RGBA{B: 200, A: 255}}, image.Point{}, draw.Src)

	p := Extract(img)

	if p.Top.R <= p.Top.B {
		t.Errorf("Expected reddish top stop, got %+v", p.Top)
	}
	if p.Bottom.B <= p.Bottom.R {
		t.Errorf("Expected bluish bottom stop, got %+v", p.Bottom)
	}
	if p.Top.A != 255 || p.Bottom.A != 255 {
		t.Error("Palette stops must be opaque")
	}
}

func TestExtractTinyImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.RGBA{R: 255, G: 255, B: 255, A: 255})

	p := Extract(img)
	if p.Top.R == 0 && p.Top.G == 0 && p.Top.B == 0 {
		t.Errorf("Expected non-black palette from white pixel, got %+v", p.Top)
	}
}
