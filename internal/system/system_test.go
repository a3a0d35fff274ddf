package system

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeAt(t *testing.T, dir, name string, mtime time.Time) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFindLatestPDF(t *testing.T) {
	dir := t.TempDir()
	base := time.Now().Add(-time.Hour)
	writeAt(t, dir, "old.pdf", base)
	want := writeAt(t, dir, "new.PDF", base.Add(time.Minute))
	writeAt(t, dir, "newest.jpg", base.Add(2*time.Minute)) // не PDF, игнорируется

	got, err := FindLatestPDF(dir)
	if err != nil {
		t.Fatalf("FindLatestPDF failed: %v", err)
	}
	if got != want {
		t.Errorf("Expected newest PDF %s, got %s", want, got)
	}
}

func TestFindLatestImage(t *testing.T) {
	dir := t.TempDir()
	base := time.Now().Add(-time.Hour)
	writeAt(t, dir, "a.jpg", base)
	writeAt(t, dir, "b.png", base.Add(time.Minute))
	want := writeAt(t, dir, "c.webp", base.Add(2*time.Minute))
	writeAt(t, dir, "issue.pdf", base.Add(3*time.Minute)) // не изображение

	got, err := FindLatestImage(dir)
	if err != nil {
		t.Fatalf("FindLatestImage failed: %v", err)
	}
	if got != want {
		t.Errorf("Expected newest image %s, got %s", want, got)
	}
}

func TestFindLatestNoMatches(t *testing.T) {
	dir := t.TempDir()
	writeAt(t, dir, "notes.txt", time.Now())

	if _, err := FindLatestPDF(dir); err == nil {
		t.Error("Expected error when no PDFs present")
	}
	if _, err := FindLatestImage(filepath.Join(dir, "missing")); err == nil {
		t.Error("Expected error for a missing directory")
	}
}
