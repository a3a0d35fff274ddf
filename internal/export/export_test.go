package export

import (
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/ivlev/heroslide/internal/config"
	"github.com/ivlev/heroslide/internal/registry"
	"github.com/ivlev/heroslide/internal/slide"
)

func TestClipDurations(t *testing.T) {
	durations := clipDurations(3, 6.0, 0.45)

	if len(durations) != 3 {
		t.Fatalf("Expected 3 durations, got %d", len(durations))
	}
	if durations[0] != 6.45 || durations[1] != 6.45 {
		t.Errorf("Inner clips must carry dwell+fade, got %v", durations)
	}
	if durations[2] != 6.0 {
		t.Errorf("Last clip has no outgoing transition, expected 6.0, got %v", durations[2])
	}
}

func TestClipFilterReveal(t *testing.T) {
	p := config.ClipParams{
		Width: 1280, Height: 720, FPS: 30,
		Duration: 6.45, FadeSeconds: 0.45,
	}
	filter := clipFilter(p, false)

	if !strings.Contains(filter, "zoompan=z='if(lte(on,13.5") {
		t.Errorf("Expected reveal over 13.5 frames (0.45s @ 30fps), got: %s", filter)
	}
	if !strings.Contains(filter, "1.08") {
		t.Errorf("Expected default reveal scale 1.08 in: %s", filter)
	}
	if !strings.Contains(filter, "scale=2560:1440") {
		t.Errorf("Expected 2x supersampling in: %s", filter)
	}
	if !strings.HasSuffix(filter, "scale=1280:720") {
		t.Errorf("Filter chain must end at the target size: %s", filter)
	}
	if strings.Contains(filter, "drawtext") {
		t.Errorf("No drawtext without support: %s", filter)
	}
}

func TestClipFilterTitleOverlay(t *testing.T) {
	p := config.ClipParams{
		Width: 1280, Height: 720, FPS: 30,
		Duration: 6.45, FadeSeconds: 0.45,
		Title: "Summer Issue", Subtitle: "No. 42",
	}

	filter := clipFilter(p, true)
	if !strings.Contains(filter, "drawtext=text='Summer Issue'") {
		t.Errorf("Expected title overlay in: %s", filter)
	}
	if !strings.Contains(filter, "drawtext=text='No. 42'") {
		t.Errorf("Expected subtitle overlay in: %s", filter)
	}

	// Same clip without drawtext support: text is dropped, chain still valid.
	filter = clipFilter(p, false)
	if strings.Contains(filter, "drawtext") {
		t.Errorf("Overlay must be dropped without filter support: %s", filter)
	}
}

func TestEscapeDrawtext(t *testing.T) {
	got := escapeDrawtext(`Лето: жара 100%`)
	if !strings.Contains(got, `\:`) || !strings.Contains(got, `\%`) {
		t.Errorf("Special characters not escaped: %s", got)
	}
}

func TestBuildClipArgs(t *testing.T) {
	p := config.ClipParams{Width: 1280, Height: 720, FPS: 30, Duration: 6.45}
	args := buildClipArgs(2560, 1440, "null", "/tmp/s0.mp4", p, "libx264", 23)

	joined := strings.Join(args, " ")
	for _, want := range []string{
		"-f rawvideo",
		"-video_size 2560x1440",
		"-r 30",
		"-c:v libx264",
		"-crf 23",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("Expected %q in args: %s", want, joined)
		}
	}
	if args[len(args)-1] != "/tmp/s0.mp4" {
		t.Errorf("Output path must be last, got %s", args[len(args)-1])
	}
}

func TestBuildConcatArgsOffsets(t *testing.T) {
	cfg := config.Config{DwellSeconds: 6.0, FadeSeconds: 0.45, VideoEncoder: "libx264", Quality: 23}
	durations := clipDurations(3, 6.0, 0.45)
	args := buildConcatArgs([]string{"s0.mp4", "s1.mp4", "s2.mp4"}, "out.mp4", durations, cfg)

	joined := strings.Join(args, " ")
	// Первый xfade стартует на duration-fade = 6.0с
	if !strings.Contains(joined, "xfade=transition=fade:duration=0.450000:offset=6.000000") {
		t.Errorf("Expected first xfade at 6.0s: %s", joined)
	}
	if !strings.Contains(joined, "offset=12.000000") {
		t.Errorf("Expected second xfade at 12.0s: %s", joined)
	}
	if !strings.Contains(joined, "-map [v2]") {
		t.Errorf("Expected final chain output mapped: %s", joined)
	}
}

func TestQualityArgsPerEncoder(t *testing.T) {
	if got := strings.Join(qualityArgs("h264_videotoolbox", 75), " "); got != "-b:v 7500k" {
		t.Errorf("videotoolbox: %s", got)
	}
	if got := strings.Join(qualityArgs("h264_nvenc", 28), " "); got != "-cq 28" {
		t.Errorf("nvenc: %s", got)
	}
	if got := strings.Join(qualityArgs("libx264", 23), " "); got != "-crf 23 -preset medium" {
		t.Errorf("libx264: %s", got)
	}
}

// fakeEncoder records calls and writes stub clip files so Run's completeness
// check passes.
type fakeEncoder struct {
	mu      sync.Mutex
	clips   []config.ClipParams
	concats int
}

func (f *fakeEncoder) EncodeClip(ctx context.Context, img image.Image, clipPath string, params config.ClipParams, encoderName string, quality int) error {
	f.mu.Lock()
	f.clips = append(f.clips, params)
	f.mu.Unlock()
	return os.WriteFile(clipPath, []byte("clip"), 0644)
}

func (f *fakeEncoder) Concatenate(ctx context.Context, clipPaths []string, finalPath string, tmpDir string, durations []float64, cfg config.Config) error {
	f.mu.Lock()
	f.concats++
	f.mu.Unlock()
	return nil
}

type stubRegistry struct {
	results map[string]registry.Result
}

func (r *stubRegistry) ResolveEager(base string) (registry.Result, bool) {
	res, ok := r.results[base]
	return res, ok
}

func (r *stubRegistry) ResolveLazy(ctx context.Context, base string) (registry.Result, error) {
	return r.results[base], nil
}

func writeTestJPEG(t *testing.T, path string, c color.RGBA) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 40))
	for y := 0; y < 40; y++ {
		for x := 0; x < 64; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := jpeg.Encode(f, img, nil); err != nil {
		t.Fatal(err)
	}
}

func TestExporterRun(t *testing.T) {
	assets := t.TempDir()
	writeTestJPEG(t, filepath.Join(assets, "summer-480.jpeg"), color.RGBA{R: 220, A: 255})
	writeTestJPEG(t, filepath.Join(assets, "autumn-480.jpeg"), color.RGBA{B: 220, A: 255})

	reg := &stubRegistry{results: map[string]registry.Result{
		"summer": {Variants: map[registry.Encoding]slide.VariantMap{
			registry.EncodingJPEG: {480: filepath.Join(assets, "summer-480.jpeg")},
		}},
		"autumn": {Variants: map[registry.Encoding]slide.VariantMap{
			registry.EncodingJPEG: {480: filepath.Join(assets, "autumn-480.jpeg")},
		}},
	}}

	deck := []slide.Descriptor{
		{ID: 1, Title: "Summer", BaseName: "summer"},
		{ID: 2, Title: "Autumn", BaseName: "autumn"},
		{ID: 3, Title: "Ghost", BaseName: "ghost"}, // без ассетов: карточка
	}

	enc := &fakeEncoder{}
	cfg := &config.Config{
		Width: 320, Height: 180, FPS: 30, Workers: 2,
		DwellSeconds: 2.0, FadeSeconds: 0.45,
		OutputVideo:  filepath.Join(t.TempDir(), "reel.mp4"),
		SubscribeURL: "https://example.com/subscribe",
		VideoEncoder: "libx264", Quality: 23,
	}

	exp := NewExporter(cfg, enc)
	if err := exp.Run(context.Background(), deck, reg); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(enc.clips) != 3 {
		t.Errorf("Expected 3 encoded clips, got %d", len(enc.clips))
	}
	if enc.concats != 1 {
		t.Errorf("Expected exactly one concatenation, got %d", enc.concats)
	}

	titles := map[string]bool{}
	for _, p := range enc.clips {
		titles[p.Title] = true
	}
	for _, want := range []string{"Summer", "Autumn", "Ghost"} {
		if !titles[want] {
			t.Errorf("Missing clip for slide %q", want)
		}
	}
}

func TestExporterRunFailsWhenSubscribeCardFails(t *testing.T) {
	reg := &stubRegistry{results: map[string]registry.Result{}}
	deck := []slide.Descriptor{
		{ID: 1, Title: "Ghost", BaseName: "ghost"}, // без ассетов: карточка
	}

	enc := &fakeEncoder{}
	cfg := &config.Config{
		Width: 320, Height: 180, FPS: 30, Workers: 1,
		DwellSeconds: 2.0, FadeSeconds: 0.45,
		OutputVideo: filepath.Join(t.TempDir(), "reel.mp4"),
		// Длиннее вместимости QR-кода: генерация обязана провалиться
		SubscribeURL: "https://example.com/" + strings.Repeat("a", 5000),
		VideoEncoder: "libx264", Quality: 23,
	}

	exp := NewExporter(cfg, enc)
	if err := exp.Run(context.Background(), deck, reg); err == nil {
		t.Fatal("Expected Run to fail when the subscribe card cannot be built")
	}
	if len(enc.clips) != 0 {
		t.Errorf("No clips must be encoded for a failed composition, got %d", len(enc.clips))
	}
}
