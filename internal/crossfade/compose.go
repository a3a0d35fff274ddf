package crossfade

import (
	"image"
	"image/color"
	"time"

	draw "golang.org/x/image/draw"

	"github.com/ivlev/heroslide/internal/analyzer"
	"github.com/ivlev/heroslide/internal/card"
	"github.com/ivlev/heroslide/internal/system"
)

// Fetch resolves a layer URL to a decoded image. The exporter supplies a
// caching file loader; tests supply solid colours.
type Fetch func(url string) (image.Image, error)

// Compose renders the layer stack at instant t into a w×h frame. In the
// terminal fallback state the frame is the gradient card; otherwise layers
// are cover-fitted, blurred where required, and alpha-blended bottom-up.
// A fetch failure skips that one layer; composition itself never fails.
func (r *Renderer) Compose(t time.Time, w, h int, fetch Fetch, pal analyzer.Palette) *image.RGBA {
	r.mu.Lock()
	fallback := r.cur != nil && r.cur.fallback != nil
	layers := r.layersLocked(t)
	r.mu.Unlock()

	if fallback {
		return card.Gradient(w, h, pal)
	}

	frame := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(frame, frame.Bounds(), &image.Uniform{color.RGBA{A: 0xff}}, image.Point{}, draw.Src)

	for _, layer := range layers {
		if layer.Opacity <= 0 {
			continue
		}
		src, err := fetch(layer.URL)
		if err != nil || src == nil {
			continue
		}
		if layer.Blurred {
			src = downsample(src)
		}
		drawLayer(frame, layer, src)
	}

	return frame
}

// drawLayer cover-fits src into the frame at the layer's scale and blends it
// at the layer's opacity.
func drawLayer(frame *image.RGBA, layer Layer, src image.Image) {
	fb := frame.Bounds()
	sb := src.Bounds()
	if sb.Dx() == 0 || sb.Dy() == 0 {
		return
	}

	// Cover fit: the image always fills the viewport, overflow is cropped.
	s := float64(fb.Dx()) / float64(sb.Dx())
	if alt := float64(fb.Dy()) / float64(sb.Dy()); alt > s {
		s = alt
	}
	scale := layer.Scale
	if scale < 1 {
		scale = 1
	}
	s *= scale

	dw := int(float64(sb.Dx()) * s)
	dh := int(float64(sb.Dy()) * s)
	dr := image.Rect(0, 0, dw, dh).Add(image.Pt((fb.Dx()-dw)/2, (fb.Dy()-dh)/2))

	tmp := system.GetImage(fb)
	defer system.PutImage(tmp)

	scaler := draw.Scaler(draw.CatmullRom)
	if layer.Blurred {
		// Дешевое размытие: уменьшенный источник растягивается билинейно.
		scaler = draw.ApproxBiLinear
	}
	scaler.Scale(tmp, dr, src, sb, draw.Src, nil)

	vis := dr.Intersect(fb)
	if vis.Empty() {
		return
	}
	alpha := uint8(clamp01(layer.Opacity) * 255)
	draw.DrawMask(frame, vis, tmp, vis.Min, &image.Uniform{color.Alpha{A: alpha}}, image.Point{}, draw.Over)
}

// downsample shrinks the source to an eighth; scaled back up it reads as a
// blur without a convolution pass.
func downsample(src image.Image) image.Image {
	b := src.Bounds()
	w, h := b.Dx()/8, b.Dy()/8
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	small := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(small, small.Bounds(), src, b, draw.Src, nil)
	return small
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
