package source

import (
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func writePNG(t *testing.T, path string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatal(err)
	}
}

func TestDirSourceSortedAndFiltered(t *testing.T) {
	dir := t.TempDir()
	// Deliberately created out of order; discovery must sort by path.
	for _, name := range []string{"img_0003.png", "img_0001.png", "img_0002.png"} {
		writePNG(t, filepath.Join(dir, name))
	}
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644)
	os.WriteFile(filepath.Join(dir, "img_0004.jpg"), []byte("x"), 0644)

	src, err := NewDirSource(dir, "png")
	if err != nil {
		t.Fatalf("NewDirSource failed: %v", err)
	}
	defer src.Close()

	if src.FrameCount() != 3 {
		t.Fatalf("FrameCount = %d, want 3", src.FrameCount())
	}
	for i, want := range []string{"img_0001.png", "img_0002.png", "img_0003.png"} {
		if got := filepath.Base(src.FramePath(i)); got != want {
			t.Errorf("frame %d = %s, want %s", i, got, want)
		}
	}

	w, h, err := src.Dimensions(0)
	if err != nil || w != 2 || h != 2 {
		t.Errorf("Dimensions = %d,%d (%v), want 2,2", w, h, err)
	}
}

func TestDirSourceEmpty(t *testing.T) {
	if _, err := NewDirSource(t.TempDir(), "jpg"); err == nil {
		t.Error("expected error for directory without frames")
	}
}

func TestFrameErrorContext(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.png")
	os.WriteFile(path, []byte("not a png"), 0644)

	src, err := NewDirSource(dir, "png")
	if err != nil {
		t.Fatalf("NewDirSource failed: %v", err)
	}

	_, err = src.Frame(0)
	var fe *FrameError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FrameError, got %v", err)
	}
	if fe.Index != 0 || fe.Path != path {
		t.Errorf("FrameError = index %d path %s, want 0 %s", fe.Index, fe.Path, path)
	}
}
