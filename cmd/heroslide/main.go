package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ivlev/heroslide/internal/carousel"
	"github.com/ivlev/heroslide/internal/config"
	"github.com/ivlev/heroslide/internal/crossfade"
	"github.com/ivlev/heroslide/internal/export"
	"github.com/ivlev/heroslide/internal/preload"
	"github.com/ivlev/heroslide/internal/registry"
	"github.com/ivlev/heroslide/internal/slide"
	"github.com/ivlev/heroslide/internal/source"
	"github.com/ivlev/heroslide/internal/system"
	"github.com/ivlev/heroslide/internal/variantgen"
)

func main() {
	// Увеличиваем лимиты системы (для macOS/Linux)
	system.InitResourceLimits()

	// Создаем нужные директории, если их нет
	dirs := []string{"input/masters", "assets", "output"}
	for _, d := range dirs {
		os.MkdirAll(d, 0755)
	}

	deckPtr := flag.String("deck", "input/deck.yaml", "Путь к YAML-колоде слайдов")
	assetsPtr := flag.String("assets", "assets", "Каталог с вариантами изображений")
	outputPtr := flag.String("output", "", "Путь к видео (если пусто, генерируется автоматически в output/)")
	widthPtr := flag.Int("width", 1280, "Ширина")
	heightPtr := flag.Int("height", 720, "Высота")
	fpsPtr := flag.Int("fps", 30, "FPS")
	workersPtr := flag.Int("workers", 0, "Потоки (0 - авто по ядрам и памяти)")
	dwellPtr := flag.Float64("dwell", 6.0, "Длительность показа слайда (сек)")
	fadePtr := flag.Float64("fade", 0.45, "Длительность кроссфейда (сек)")
	presetPtr := flag.String("preset", "", "Пресет формата: 16:9, 9:16 (Shorts/TikTok), 4:5 (Instagram)")
	qualityPtr := flag.Int("quality", 0, "Качество видео (0 - авто, x264: CRF 1-51, VideoToolbox: битрейт = Q*100кбит/с)")
	subscribePtr := flag.String("subscribe-url", "https://example.com/subscribe", "URL для QR-кода на карточке подписки")
	statsPtr := flag.Bool("stats", false, "Показать отчет о производительности")

	genPtr := flag.Bool("gen-variants", false, "Сгенерировать варианты изображений из мастеров и выйти")
	genDeckPtr := flag.Bool("gen-deck", false, "Создать заготовку колоды из мастеров и выйти")
	inputPtr := flag.String("input", "", "Источник мастеров для -gen-variants: PDF или папка (по умолчанию: самый свежий PDF в input/masters/)")
	widthsPtr := flag.String("widths", "", "Ширины вариантов через запятую (по умолчанию: 480,960,1600,2400)")
	dpiPtr := flag.Int("dpi", 300, "DPI рендеринга PDF-мастеров")

	simulatePtr := flag.Float64("simulate", 0, "Прогнать живую карусель N секунд и выйти")

	flag.Parse()

	width, height := config.ApplyPreset(*presetPtr, *widthPtr, *heightPtr)

	// Заготовка колоды делается до чтения: колоды ещё нет
	if *genDeckPtr {
		if err := runGenDeck(*deckPtr, *inputPtr); err != nil {
			log.Fatalf("[-] Ошибка создания колоды: %v", err)
		}
		fmt.Printf("[+++] Успех! Заготовка колоды: %s\n", *deckPtr)
		return
	}

	deck, err := slide.ReadDeck(*deckPtr)
	if err != nil {
		log.Fatalf("[-] Ошибка чтения колоды: %v", err)
	}
	fmt.Printf("[*] Колода: %s | Слайдов: %d\n", *deckPtr, len(deck.Slides))

	if *genPtr {
		if err := runGenVariants(deck, *inputPtr, *assetsPtr, *widthsPtr, *dpiPtr, *workersPtr); err != nil {
			log.Fatalf("[-] Ошибка генерации вариантов: %v", err)
		}
		fmt.Printf("[+++] Успех! Варианты в %s\n", *assetsPtr)
		return
	}

	reg := registry.NewDirRegistry(*assetsPtr)

	if *simulatePtr > 0 {
		runSimulation(deck, reg, width, *simulatePtr)
		return
	}

	if err := system.FindFFmpeg(); err != nil {
		log.Fatalf("[-] %v", err)
	}

	finalOutput := *outputPtr
	if finalOutput == "" {
		baseName := filepath.Base(*deckPtr)
		nameOnly := strings.TrimSuffix(baseName, filepath.Ext(baseName))
		cleanName := strings.ReplaceAll(nameOnly, " ", "_")
		timestamp := time.Now().Format("2006-01-02_15-04-05")
		finalOutput = filepath.Join("output", fmt.Sprintf("%s_%s.mp4", cleanName, timestamp))
	}

	encoderName, _ := system.GetBestH264Encoder()
	if encoderName != "libx264" {
		fmt.Printf("[*] Обнаружено аппаратное ускорение: %s\n", encoderName)
	}

	quality := *qualityPtr
	if quality == 0 {
		switch encoderName {
		case "h264_videotoolbox":
			quality = 75
		case "h264_nvenc":
			quality = 28
		default:
			quality = 23
		}
	}

	workers := *workersPtr
	if workers <= 0 {
		workers = system.RecommendedWorkers(256 << 20)
	}

	cfg := &config.Config{
		DeckPath:     *deckPtr,
		AssetsDir:    *assetsPtr,
		OutputVideo:  finalOutput,
		Width:        width,
		Height:       height,
		FPS:          *fpsPtr,
		Workers:      workers,
		DwellSeconds: *dwellPtr,
		FadeSeconds:  *fadePtr,
		SubscribeURL: *subscribePtr,
		VideoEncoder: encoderName,
		Quality:      quality,
		Preset:       *presetPtr,
		ShowStats:    *statsPtr,
	}

	exp := export.NewExporter(cfg, &export.FFmpegEncoder{})
	if err := exp.Run(context.Background(), deck.Slides, reg); err != nil {
		log.Fatalf("[-] Ошибка экспорта: %v", err)
	}

	fmt.Printf("[+++] Успех! Результат: %s\n", cfg.OutputVideo)
}

// runGenVariants рендерит мастера (PDF или папка изображений) в варианты
// всех целевых ширин.
func runGenVariants(deck *slide.Deck, input, outDir, widthsCSV string, dpi, workers int) error {
	src, err := openMasters(input)
	if err != nil {
		return err
	}
	defer src.Close()

	if err := system.FindFFmpeg(); err != nil {
		return err
	}

	widths, err := parseWidths(widthsCSV)
	if err != nil {
		return err
	}

	g := variantgen.New(variantgen.Options{
		OutDir:  outDir,
		Widths:  widths,
		DPI:     dpi,
		Workers: workers,
	})
	return g.Run(context.Background(), src, deck.Slides)
}

// findMasters выбирает источник мастеров: явный -input как есть, иначе самый
// свежий PDF в input/masters/, иначе сама папка, если в ней есть изображения.
func findMasters(input string) (string, error) {
	if input != "" {
		return input, nil
	}
	const mastersDir = "input/masters"
	if latest, err := system.FindLatestPDF(mastersDir); err == nil {
		fmt.Printf("[*] Выбран источник: %s\n", latest)
		return latest, nil
	}
	latest, err := system.FindLatestImage(mastersDir)
	if err != nil {
		return "", fmt.Errorf("в %s нет ни PDF, ни изображений (положите мастера туда или укажите -input)", mastersDir)
	}
	fmt.Printf("[*] PDF не найден, берём изображения из %s (самое свежее: %s)\n",
		mastersDir, filepath.Base(latest))
	return mastersDir, nil
}

func openMasters(input string) (source.Source, error) {
	input, err := findMasters(input)
	if err != nil {
		return nil, err
	}

	var src source.Source
	if strings.HasSuffix(strings.ToLower(input), ".pdf") {
		src, err = source.NewPDFSource(input)
	} else {
		src, err = source.NewImageSource(input)
	}
	if err != nil {
		return nil, fmt.Errorf("инициализация источника: %v", err)
	}
	return src, nil
}

// runGenDeck создаёт заготовку колоды по мастерам, по одному слайду на
// обложку. Заголовки и подписи правятся руками после.
func runGenDeck(deckPath, input string) error {
	if _, err := os.Stat(deckPath); err == nil {
		return fmt.Errorf("колода %s уже существует, удалите её или укажите другой -deck", deckPath)
	}

	src, err := openMasters(input)
	if err != nil {
		return err
	}
	defer src.Close()

	deck := &slide.Deck{Version: "1"}
	for i := 0; i < src.CoverCount(); i++ {
		deck.Slides = append(deck.Slides, slide.Descriptor{
			ID:       i + 1,
			Title:    fmt.Sprintf("Слайд %d", i+1),
			BaseName: fmt.Sprintf("slide-%d", i+1),
		})
	}
	if len(deck.Slides) == 0 {
		return fmt.Errorf("в источнике нет обложек")
	}

	fmt.Printf("[*] Заготовка: %d слайдов, отредактируйте заголовки в %s\n", len(deck.Slides), deckPath)
	return slide.WriteDeck(deck, deckPath)
}

func parseWidths(csv string) ([]int, error) {
	if csv == "" {
		return nil, nil // variantgen подставит DefaultWidths
	}
	var widths []int
	for _, part := range strings.Split(csv, ",") {
		w, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || w <= 0 {
			return nil, fmt.Errorf("некорректная ширина %q", part)
		}
		widths = append(widths, w)
	}
	return widths, nil
}

// runSimulation гоняет живую карусель на реальных таймерах и печатает
// переходы. Полезно для проверки колоды и ассетов без кодирования видео.
func runSimulation(deck *slide.Deck, reg registry.Registry, viewportWidth int, seconds float64) {
	cfg := carousel.DefaultConfig()
	cfg.ViewportWidth = viewportWidth
	// Ускоренный прогон, чтобы за короткую симуляцию увидеть переходы
	cfg.AutoplayInterval = 1500 * time.Millisecond

	renderer := crossfade.NewRenderer(crossfade.DefaultConfig())
	tracker := preload.NewTracker(preload.FileProbe{})
	ctrl := carousel.New(deck.Slides, reg, tracker, renderer, cfg)
	defer ctrl.Close()

	fmt.Printf("[*] Симуляция карусели: %.1fs, автопрокрутка каждые %v\n", seconds, cfg.AutoplayInterval)

	deadline := time.Now().Add(time.Duration(seconds * float64(time.Second)))
	lastIndex := -1
	for time.Now().Before(deadline) {
		st := ctrl.State()
		if st.ActiveIndex != lastIndex {
			lastIndex = st.ActiveIndex
			desc := ctrl.ActiveSlide()
			fmt.Printf("[>] Слайд %d/%d: %q (%s)\n",
				st.ActiveIndex+1, ctrl.Len(), desc.Title, ctrl.LoadState())
		}
		time.Sleep(50 * time.Millisecond)
	}

	fmt.Println("[+++] Симуляция завершена")
}
