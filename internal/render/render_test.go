package render

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"math"
	"testing"
)

func gradientImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8((x * 255) / w),
				G: uint8((y * 255) / h),
				B: 100,
				A: 255,
			})
		}
	}
	return img
}

func TestAutoCrop(t *testing.T) {
	tests := []struct {
		w, h             int
		targetW, targetH int
		want             []float64
	}{
		{4000, 3000, 16, 9, []float64{0, 375, 4000, 2625}},
		{1920, 1080, 16, 9, []float64{0, 0, 1920, 1080}},
		{100, 100, 2, 1, []float64{0, 25, 100, 75}},
	}

	for _, tt := range tests {
		got := AutoCrop(tt.w, tt.h, tt.targetW, tt.targetH)
		if len(got) != 4 {
			t.Fatalf("AutoCrop(%d,%d,%d,%d) returned %d components", tt.w, tt.h, tt.targetW, tt.targetH, len(got))
		}
		for c := range got {
			if got[c] != tt.want[c] {
				t.Errorf("AutoCrop(%d,%d,%d,%d)[%d] = %v, want %v",
					tt.w, tt.h, tt.targetW, tt.targetH, c, got[c], tt.want[c])
			}
		}
	}
}

func TestFrameDimensions(t *testing.T) {
	src := gradientImage(40, 30)
	out, err := Frame(src, Box{0, 0, 20, 20}, math.NaN(), 5, 5)
	if err != nil {
		t.Fatalf("Frame failed: %v", err)
	}
	if out.Bounds().Dx() != 5 || out.Bounds().Dy() != 5 {
		t.Errorf("output size = %v, want 5x5", out.Bounds().Size())
	}
}

func TestFrameBrightnessOneIsIdentity(t *testing.T) {
	src := gradientImage(32, 32)
	box := Box{4, 4, 28, 28}

	skipped, err := Frame(src, box, math.NaN(), 16, 16)
	if err != nil {
		t.Fatalf("Frame (skip) failed: %v", err)
	}
	unity, err := Frame(src, box, 1.0, 16, 16)
	if err != nil {
		t.Fatalf("Frame (factor 1.0) failed: %v", err)
	}

	if !bytes.Equal(skipped.Pix, unity.Pix) {
		t.Error("brightness_factor=1.0 must be pixel-identical to skipping the brightness step")
	}
}

func TestFrameBrightnessScales(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			src.Set(x, y, color.RGBA{R: 100, G: 100, B: 100, A: 255})
		}
	}

	out, err := Frame(src, Box{0, 0, 4, 4}, 2.0, 4, 4)
	if err != nil {
		t.Fatalf("Frame failed: %v", err)
	}

	r, g, b, a := out.At(1, 1).RGBA()
	if r>>8 != 200 || g>>8 != 200 || b>>8 != 200 {
		t.Errorf("pixel = %d,%d,%d, want 200,200,200", r>>8, g>>8, b>>8)
	}
	if a>>8 != 255 {
		t.Errorf("alpha changed: %d", a>>8)
	}
}

func TestFrameBrightnessClamps(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			src.Set(x, y, color.RGBA{R: 200, G: 200, B: 200, A: 255})
		}
	}

	out, err := Frame(src, Box{0, 0, 2, 2}, 3.0, 2, 2)
	if err != nil {
		t.Fatalf("Frame failed: %v", err)
	}
	r, _, _, _ := out.At(0, 0).RGBA()
	if r>>8 != 255 {
		t.Errorf("pixel = %d, want 255 (clamped)", r>>8)
	}
}

func TestFrameEmptyCrop(t *testing.T) {
	src := gradientImage(10, 10)
	_, err := Frame(src, Box{5, 5, 5, 5}, math.NaN(), 4, 4)
	if !errors.Is(err, ErrEmptyCrop) {
		t.Errorf("expected ErrEmptyCrop, got %v", err)
	}
}

func TestBoxRounding(t *testing.T) {
	rect := Box{0.4, 0.6, 9.5, 10.2}.Rect()
	want := image.Rect(0, 1, 10, 10)
	if rect != want {
		t.Errorf("Rect() = %v, want %v", rect, want)
	}
}

func TestFrameName(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{1, "00001.png"},
		{3, "00003.png"},
		{99999, "99999.png"},
	}
	for _, tt := range tests {
		if got := FrameName(tt.n); got != tt.want {
			t.Errorf("FrameName(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
