// Package render applies per-frame crop, brightness and resize
// transforms to source images.
package render

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"math"
	"os"

	xdraw "golang.org/x/image/draw"

	"github.com/ivlev/frames2video/internal/system"
)

// ErrEmptyCrop reports a crop box that leaves no pixels after rounding
// and clipping to the source bounds.
var ErrEmptyCrop = errors.New("crop box is empty")

// Box is a crop rectangle [left, top, right, bottom] in source pixel
// coordinates. Kept in float space so interpolated tracks round only
// once, at render time.
type Box struct {
	Left, Top, Right, Bottom float64
}

// BoxFromVector converts an arity-4 track entry into a Box.
func BoxFromVector(v []float64) Box {
	return Box{Left: v[0], Top: v[1], Right: v[2], Bottom: v[3]}
}

// Rect rounds the box to integer pixel edges.
func (b Box) Rect() image.Rectangle {
	return image.Rect(
		int(math.Round(b.Left)), int(math.Round(b.Top)),
		int(math.Round(b.Right)), int(math.Round(b.Bottom)),
	)
}

// AutoCrop computes the centered horizontal letterbox used when no crop
// keyframes are configured: full width, vertical margins sized so the
// box matches the target aspect targetW:targetH. Returned as an
// arity-4 vector ready to become a constant one-keyframe track.
func AutoCrop(w, h, targetW, targetH int) []float64 {
	h2 := float64(w) * float64(targetH) / float64(targetW)
	yy := (float64(h) - h2) / 2
	return []float64{0, yy, float64(w), float64(h) - yy}
}

// Frame renders one output frame. The order is fixed: crop first,
// then brightness, then resize to width x height. The brightness step
// is skipped entirely when the factor is NaN or exactly 1.0; a no-op
// multiply would still cost a full pass over the pixels.
func Frame(src image.Image, crop Box, brightness float64, width, height int) (*image.RGBA, error) {
	rect := crop.Rect().Intersect(src.Bounds())
	if rect.Empty() {
		return nil, fmt.Errorf("box [%g %g %g %g] on %v source: %w",
			crop.Left, crop.Top, crop.Right, crop.Bottom, src.Bounds().Size(), ErrEmptyCrop)
	}

	// Crop and normalize to RGBA in one draw. The copy also means the
	// brightness pass below never touches the caller's pixels.
	cropped := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(cropped, cropped.Bounds(), src, rect.Min, draw.Src)

	if !math.IsNaN(brightness) && brightness != 1.0 {
		scalePixels(cropped, brightness)
	}

	dst := system.GetImage(width, height)
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), cropped, cropped.Bounds(), xdraw.Src, nil)
	return dst, nil
}

// Recycle hands a rendered frame's buffer back for reuse once it has
// been written out.
func Recycle(img *image.RGBA) {
	system.PutImage(img)
}

// scalePixels multiplies R, G and B by factor with clamping at 255.
// Alpha is untouched.
func scalePixels(img *image.RGBA, factor float64) {
	var lut [256]uint8
	for i := range lut {
		v := math.Round(float64(i) * factor)
		if v > 255 {
			v = 255
		}
		if v < 0 {
			v = 0
		}
		lut[i] = uint8(v)
	}

	pix := img.Pix
	for i := 0; i < len(pix); i += 4 {
		pix[i] = lut[pix[i]]
		pix[i+1] = lut[pix[i+1]]
		pix[i+2] = lut[pix[i+2]]
	}
}

// FrameName returns the on-disk name of output frame n. Numbering is
// 1-based and fixed-width so re-encoding an existing frame directory is
// deterministic.
func FrameName(n int) string {
	return fmt.Sprintf("%05d.png", n)
}

// WritePNG stores an output frame.
func WritePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
