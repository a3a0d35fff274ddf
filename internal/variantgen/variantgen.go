// Package variantgen renders the width-suffixed asset variants the registry
// indexes at runtime: every cover master becomes `<base>-<width>.webp` plus a
// `<base>-<width>.jpeg` fallback for clients without modern image support.
package variantgen

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"log"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/heroslide/internal/slide"
	"github.com/ivlev/heroslide/internal/source"
	"github.com/ivlev/heroslide/internal/system"
)

// DefaultWidths covers the production breakpoints: phone, tablet, laptop and
// retina desktop.
var DefaultWidths = []int{480, 960, 1600, 2400}

// Каждый воркер держит в памяти RGBA-мастер обложки (2400px ≈ 100МБ с запасом).
const perWorkerBytes = 256 << 20

// WebPEncoder writes img as a webp file at path. Injectable so tests don't
// need an ffmpeg binary.
type WebPEncoder func(ctx context.Context, img *image.RGBA, path string) error

type Options struct {
	OutDir      string
	Widths      []int
	JPEGQuality int
	DPI         int
	Workers     int
}

type Generator struct {
	opts Options
	webp WebPEncoder
}

func New(opts Options) *Generator {
	if len(opts.Widths) == 0 {
		opts.Widths = DefaultWidths
	}
	if opts.JPEGQuality <= 0 {
		opts.JPEGQuality = 85
	}
	if opts.DPI <= 0 {
		opts.DPI = 300
	}
	if opts.Workers <= 0 {
		opts.Workers = system.RecommendedWorkers(perWorkerBytes)
	}
	return &Generator{opts: opts, webp: EncodeWebP}
}

// Run renders every deck slide's variant set from the matching cover master.
// Cover i feeds deck[i]; extra covers beyond the deck are skipped.
func (g *Generator) Run(ctx context.Context, src source.Source, deck []slide.Descriptor) error {
	if err := os.MkdirAll(g.opts.OutDir, 0755); err != nil {
		return err
	}

	n := src.CoverCount()
	if n > len(deck) {
		n = len(deck)
	}
	if n == 0 {
		return fmt.Errorf("нет обложек для генерации: источник пуст или колода пуста")
	}

	grp, ctx := errgroup.WithContext(ctx)
	grp.SetLimit(g.opts.Workers)

	for i := 0; i < n; i++ {
		grp.Go(func() error {
			master, err := src.RenderCover(i, g.opts.DPI)
			if err != nil {
				return fmt.Errorf("рендер обложки %d: %w", i, err)
			}
			if err := g.renderVariants(ctx, master, deck[i].BaseName); err != nil {
				return err
			}
			fmt.Printf("[>] Готово: %d/%d (%s)\n", i+1, n, deck[i].BaseName)
			return nil
		})
	}

	return grp.Wait()
}

// renderVariants downscales one master to every target width and writes both
// encodings. Masters narrower than a target width are skipped for that width
// rather than upscaled.
func (g *Generator) renderVariants(ctx context.Context, master image.Image, base string) error {
	for _, w := range g.opts.Widths {
		if master.Bounds().Dx() < w {
			log.Printf("[!] Мастер %s уже целевой ширины %d, пропускаем", base, w)
			continue
		}
		resized := Resize(master, w)

		jpegPath := filepath.Join(g.opts.OutDir, fmt.Sprintf("%s-%d.jpeg", base, w))
		if err := writeJPEG(jpegPath, resized, g.opts.JPEGQuality); err != nil {
			return fmt.Errorf("jpeg %s: %w", jpegPath, err)
		}

		webpPath := filepath.Join(g.opts.OutDir, fmt.Sprintf("%s-%d.webp", base, w))
		if err := g.webp(ctx, resized, webpPath); err != nil {
			return fmt.Errorf("webp %s: %w", webpPath, err)
		}
	}
	return nil
}

// Resize downscales img to the target width, preserving aspect ratio.
func Resize(img image.Image, width int) *image.RGBA {
	b := img.Bounds()
	height := int(float64(width) * float64(b.Dy()) / float64(b.Dx()))
	if height < 1 {
		height = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

func writeJPEG(path string, img image.Image, quality int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: quality}); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
