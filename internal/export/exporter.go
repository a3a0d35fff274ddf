// Package export renders the hero rotation to a video file: every deck slide
// becomes a clip with the same backdrop reveal the live carousel shows, and
// the clips are stitched with the same crossfade.
package export

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "golang.org/x/image/webp"

	"github.com/ivlev/heroslide/internal/analyzer"
	"github.com/ivlev/heroslide/internal/card"
	"github.com/ivlev/heroslide/internal/config"
	"github.com/ivlev/heroslide/internal/crossfade"
	"github.com/ivlev/heroslide/internal/registry"
	"github.com/ivlev/heroslide/internal/selector"
	"github.com/ivlev/heroslide/internal/slide"
)

type Exporter struct {
	Cfg *config.Config
	Enc Encoder

	tempDir string
	loader  *imageLoader
}

func NewExporter(cfg *config.Config, enc Encoder) *Exporter {
	return &Exporter{Cfg: cfg, Enc: enc, loader: newImageLoader()}
}

type composedFrame struct {
	Index int
	Image *image.RGBA
}

// Run composites a settled hero frame per slide, encodes the clips in
// parallel and concatenates them with crossfades.
func (e *Exporter) Run(ctx context.Context, deck []slide.Descriptor, reg registry.Registry) error {
	startTime := time.Now()
	var renderStart, renderEnd, encodeEnd, concatStart time.Time

	n := len(deck)
	if n == 0 {
		return fmt.Errorf("колода пуста: нечего экспортировать")
	}

	var err error
	e.tempDir, err = os.MkdirTemp("", "heroslide_")
	if err != nil {
		return err
	}
	defer os.RemoveAll(e.tempDir)

	durations := clipDurations(n, e.Cfg.DwellSeconds, e.Cfg.FadeSeconds)

	fmt.Println("--- [HEROSLIDE EXPORT] ---")
	fmt.Printf("[*] Колода: %s | Слайдов: %d\n", e.Cfg.DeckPath, n)
	fmt.Printf("[*] Разрешение: %dx%d @ %d FPS\n", e.Cfg.Width, e.Cfg.Height, e.Cfg.FPS)
	fmt.Println("--------------------------")

	// jobs -> composePool -> frames -> encodePool -> results
	jobs := make(chan int, n)
	frames := make(chan *composedFrame, n)
	results := make([]string, n)

	var wgCompose sync.WaitGroup
	var wgEncode sync.WaitGroup

	// 1. Compose pool (CPU bound)
	numCompose := e.Cfg.Workers
	if numCompose > n {
		numCompose = n
	}
	if numCompose < 1 {
		numCompose = 1
	}

	for w := 0; w < numCompose; w++ {
		wgCompose.Add(1)
		go func() {
			defer wgCompose.Done()
			for i := range jobs {
				frame, err := e.composeFrame(reg, deck[i])
				if err != nil {
					log.Printf("[!] Ошибка компоновки слайда %d: %v", i, err)
					continue
				}
				frames <- &composedFrame{Index: i, Image: frame}
			}
		}()
	}

	// 2. Encode pool (GPU/encoder bound). Ограничиваем, чтобы не перегрузить
	// аппаратный энкодер.
	numEncode := 4
	if numEncode > n {
		numEncode = n
	}

	for w := 0; w < numEncode; w++ {
		wgEncode.Add(1)
		go func() {
			defer wgEncode.Done()
			for f := range frames {
				i := f.Index
				clipPath := filepath.Join(e.tempDir, fmt.Sprintf("s%d.mp4", i))

				params := config.ClipParams{
					Width:       e.Cfg.Width,
					Height:      e.Cfg.Height,
					FPS:         e.Cfg.FPS,
					Duration:    durations[i],
					FadeSeconds: e.Cfg.FadeSeconds,
					SlideIndex:  i,
					Title:       deck[i].Title,
					Subtitle:    deck[i].Subtitle,
				}

				if err := e.Enc.EncodeClip(ctx, f.Image, clipPath, params, e.Cfg.VideoEncoder, e.Cfg.Quality); err != nil {
					log.Printf("[!] Ошибка кодирования клипа %d: %v", i, err)
					continue
				}

				results[i] = clipPath
				fmt.Printf("[>] Ready: %d/%d\n", i+1, n)
			}
		}()
	}

	renderStart = time.Now()
	for i := 0; i < n; i++ {
		jobs <- i
	}
	close(jobs)

	wgCompose.Wait()
	renderEnd = time.Now()
	close(frames)

	wgEncode.Wait()
	encodeEnd = time.Now()

	for i, r := range results {
		if r == "" {
			return fmt.Errorf("клип %d не был создан, смотрите лог FFmpeg", i)
		}
	}

	fmt.Println("[*] Сборка финального ролика (с кроссфейдами)...")
	concatStart = time.Now()
	if err := e.Enc.Concatenate(ctx, results, e.Cfg.OutputVideo, e.tempDir, durations, *e.Cfg); err != nil {
		return fmt.Errorf("ошибка сборки финального ролика: %v", err)
	}

	if e.Cfg.ShowStats {
		e.printStats(startTime, renderStart, renderEnd, encodeEnd, concatStart, n)
	}

	return nil
}

// composeFrame builds one slide's settled hero frame: blurred backdrop plus
// sharp foreground, or the gradient subscribe card when nothing resolves.
func (e *Exporter) composeFrame(reg registry.Registry, desc slide.Descriptor) (*image.RGBA, error) {
	w, h := e.Cfg.Width, e.Cfg.Height

	res, ok := reg.ResolveEager(desc.BaseName)
	if !ok {
		lazy, err := reg.ResolveLazy(context.Background(), desc.BaseName)
		if err == nil {
			res = lazy
		}
	}

	sel := selector.Select(res, desc.ExplicitImage)
	if sel.Empty() {
		log.Printf("[!] Слайд %q без ассетов, экспортируем карточку подписки", desc.BaseName)
		frame, err := card.Subscribe(w, h, e.Cfg.SubscribeURL, analyzer.DefaultPalette())
		if err != nil {
			return nil, fmt.Errorf("QR-код для %q: %v", e.Cfg.SubscribeURL, err)
		}
		return frame, nil
	}

	pal := analyzer.DefaultPalette()
	if img, err := e.loader.load(selector.ForegroundSource(sel)); err == nil {
		pal = analyzer.Extract(img)
	}

	// Прогоняем настоящий конвейер переходов до установившегося состояния и
	// снимаем кадр с него.
	r := crossfade.NewRenderer(crossfade.DefaultConfig())
	defer r.Close()
	gen := r.Activate(desc, sel)
	r.ConfirmLoaded(gen)

	settled := time.Now().Add(2 * time.Second)
	return r.Compose(settled, w, h, e.loader.load, pal), nil
}

// clipDurations: каждый переход съедает FadeSeconds, поэтому каждый клип
// длится dwell+fade, чтобы видимое время показа оставалось dwell.
func clipDurations(n int, dwell, fade float64) []float64 {
	durations := make([]float64, n)
	for i := range durations {
		durations[i] = dwell + fade
	}
	if n > 0 {
		// Последний клип без исходящего перехода
		durations[n-1] = dwell
	}
	return durations
}

func (e *Exporter) printStats(startTime, renderStart, renderEnd, encodeEnd, concatStart time.Time, n int) {
	totalTime := time.Since(startTime)
	renderTime := renderEnd.Sub(renderStart)
	encodeTime := encodeEnd.Sub(renderStart)
	concatTime := time.Since(concatStart)
	fps := float64(n) / totalTime.Seconds()

	fmt.Printf(
		"--- [PERFORMANCE REPORT] ---\n"+
			"Build: %s\n"+
			"Total Time: %.2fs\n"+
			"Compositing (CPU): %.2fs\n"+
			"Encoding (GPU/CPU): %.2fs\n"+
			"Concatenation: %.2fs\n"+
			"Effective FPS: %.2f\n"+
			"----------------------------\n",
		e.Cfg.BuildVersion, totalTime.Seconds(), renderTime.Seconds(), encodeTime.Seconds(), concatTime.Seconds(), fps,
	)

	logEntry := fmt.Sprintf("[%s] Build: %s | Deck: %s | Slides: %d | Total: %.2fs | Compose: %.2fs | Encode: %.2fs | FPS: %.2f\n",
		time.Now().Format("2006-01-02 15:04:05"),
		e.Cfg.BuildVersion,
		filepath.Base(e.Cfg.DeckPath),
		n,
		totalTime.Seconds(),
		renderTime.Seconds(),
		encodeTime.Seconds(),
		fps,
	)

	f, err := os.OpenFile("benchmark.log", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err == nil {
		f.WriteString(logEntry)
		f.Close()
	} else {
		fmt.Printf("[!] Не удалось записать benchmark.log: %v\n", err)
	}
}

// imageLoader decodes variant files with a small cache; соседние ширины
// одного base часто просят один и тот же файл.
type imageLoader struct {
	mu    sync.Mutex
	cache map[string]image.Image
}

func newImageLoader() *imageLoader {
	return &imageLoader{cache: map[string]image.Image{}}
}

func (l *imageLoader) load(path string) (image.Image, error) {
	l.mu.Lock()
	if img, ok := l.cache[path]; ok {
		l.mu.Unlock()
		return img, nil
	}
	l.mu.Unlock()

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.cache[path] = img
	l.mu.Unlock()
	return img, nil
}
