package registry

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFiles(t *testing.T, dir string, names []string) {
	t.Helper()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

func TestParseName(t *testing.T) {
	tests := []struct {
		name  string
		base  string
		width int
		enc   Encoding
		ok    bool
	}{
		{"cover-480.webp", "cover", 480, EncodingWebP, true},
		{"cover-1200.jpg", "cover", 1200, EncodingJPEG, true},
		{"cover.jpeg", "cover", 0, EncodingJPEG, true},
		{"summer-issue-2400.webp", "summer-issue", 2400, EncodingWebP, true},
		{"summer-issue.webp", "summer-issue", 0, EncodingWebP, true},
		{"cover-0.webp", "", 0, "", false},
		{"cover.png", "", 0, "", false},
		{"notes.txt", "", 0, "", false},
	}

	for _, tt := range tests {
		parsed, ok := parseName(tt.name)
		if ok != tt.ok {
			t.Errorf("parseName(%q): ok=%v, want %v", tt.name, ok, tt.ok)
			continue
		}
		if !ok {
			continue
		}
		if parsed.base != tt.base || parsed.width != tt.width || parsed.encoding != tt.enc {
			t.Errorf("parseName(%q) = {%s %d %s}, want {%s %d %s}",
				tt.name, parsed.base, parsed.width, parsed.encoding, tt.base, tt.width, tt.enc)
		}
	}
}

func TestDirRegistryEager(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, []string{
		"cover-480.webp",
		"cover-1200.webp",
		"cover-480.jpg",
		"cover.jpg",
		"hero.webp",
		"readme.txt",
	})

	r := NewDirRegistry(dir)

	res, ok := r.ResolveEager("cover")
	if !ok {
		t.Fatal("Expected eager hit for 'cover'")
	}
	if len(res.Variants[EncodingWebP]) != 2 {
		t.Errorf("Expected 2 webp variants, got %d", len(res.Variants[EncodingWebP]))
	}
	if len(res.Variants[EncodingJPEG]) != 1 {
		t.Errorf("Expected 1 jpeg variant, got %d", len(res.Variants[EncodingJPEG]))
	}
	if res.SingleFallback != filepath.Join(dir, "cover.jpg") {
		t.Errorf("Unexpected single fallback: %s", res.SingleFallback)
	}

	res, ok = r.ResolveEager("hero")
	if !ok || res.SingleFallback == "" {
		t.Error("Expected 'hero' to resolve to its single-fallback asset")
	}

	if _, ok := r.ResolveEager("missing"); ok {
		t.Error("Expected eager miss for unknown base")
	}
}

func TestDirRegistryNoVariantsIsNotAnError(t *testing.T) {
	r := NewDirRegistry(t.TempDir())

	res, err := r.ResolveLazy(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("Expected empty result without error, got %v", err)
	}
	if !res.Empty() {
		t.Error("Expected empty result for unknown base")
	}
}

func TestDirRegistryMissingDirDegrades(t *testing.T) {
	r := NewDirRegistry(filepath.Join(t.TempDir(), "does-not-exist"))

	if _, ok := r.ResolveEager("cover"); ok {
		t.Error("Expected no eager hits for a missing directory")
	}
	res, err := r.ResolveLazy(context.Background(), "cover")
	if err == nil && !res.Empty() {
		t.Error("Expected lazy lookup against missing dir to yield nothing")
	}
}

func TestDirRegistryLazyFindsLateAssets(t *testing.T) {
	dir := t.TempDir()
	r := NewDirRegistry(dir)

	// Asset appears after the eager index was built.
	writeFiles(t, dir, []string{"late-800.webp"})

	res, err := r.ResolveLazy(context.Background(), "late")
	if err != nil {
		t.Fatalf("Lazy lookup failed: %v", err)
	}
	if res.Variants[EncodingWebP][800] == "" {
		t.Error("Expected lazy lookup to pick up the late asset")
	}
}

func TestFetchRegistryErrorCollapsesToEmpty(t *testing.T) {
	boom := errors.New("network down")
	r := NewFetchRegistry(map[string]FetchFunc{
		"cover": func(ctx context.Context) (Result, error) { return Result{}, boom },
	})

	res, err := r.ResolveLazy(context.Background(), "cover")
	if !errors.Is(err, boom) {
		t.Errorf("Expected wrapped fetch error for logging, got %v", err)
	}
	if !res.Empty() {
		t.Error("Expected empty result on fetch failure")
	}

	// Unknown base: empty, no error.
	res, err = r.ResolveLazy(context.Background(), "unknown")
	if err != nil || !res.Empty() {
		t.Errorf("Expected silent empty result for unknown base, got %v / %+v", err, res)
	}
}
