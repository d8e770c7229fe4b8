// Package deflicker estimates and corrects brightness drift across a
// frame sequence. A centered rolling mean over per-frame luminance
// samples gives a smoothed target curve; each frame is then rescaled
// toward its target by a multiplicative ratio.
package deflicker

import (
	"image"
	"image/color"
	"math"

	"github.com/sirupsen/logrus"
)

// NoEstimate marks track positions where the rolling mean has no full
// window. Ratios default to 1.0 there.
var NoEstimate = math.NaN()

// RollingMean computes the centered moving average of samples over
// window consecutive frames. Positions too close to either boundary
// for a full window hold NoEstimate; a partial average near the edges
// would bias the curve.
//
// The valid span has length len(samples)-window+1 and starts at offset
// (len(samples)-span)/2 with integer division. For even windows this
// leans one frame toward the start; "centered" is ambiguous there and
// the convention must stay fixed or the whole curve shifts by a frame.
func RollingMean(samples []float64, window int) []float64 {
	n := len(samples)
	targets := make([]float64, n)
	for i := range targets {
		targets[i] = NoEstimate
	}

	if window < 1 || window >= n {
		logrus.WithFields(logrus.Fields{
			"window":  window,
			"samples": n,
		}).Warn("deflicker window covers the whole clip, brightness left unchanged")
		return targets
	}

	span := n - window + 1
	offset := (n - span) / 2

	sum := 0.0
	for _, s := range samples[:window] {
		sum += s
	}
	targets[offset] = sum / float64(window)
	for i := 1; i < span; i++ {
		sum += samples[i+window-1] - samples[i-1]
		targets[offset+i] = sum / float64(window)
	}

	return targets
}

// CorrectionRatio derives the per-frame multiplier target/observed.
// Wherever either side is undefined, or the observed value is zero,
// the ratio is exactly 1.0 so the frame passes through unchanged.
func CorrectionRatio(observed, targets []float64) []float64 {
	n := len(observed)
	if len(targets) < n {
		n = len(targets)
	}
	ratios := make([]float64, n)
	for i := 0; i < n; i++ {
		ratios[i] = 1.0
		if math.IsNaN(targets[i]) || math.IsNaN(observed[i]) || observed[i] <= 0 {
			continue
		}
		ratios[i] = targets[i] / observed[i]
	}
	return ratios
}

// Brightness samples one frame: greyscale conversion, a 256-bin
// intensity histogram, and the normalized mean intensity in [0,1].
func Brightness(img image.Image) float64 {
	var hist [256]int64
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			g := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
			hist[g.Y]++
		}
	}

	var total, weighted int64
	for v, c := range hist {
		total += c
		weighted += int64(v) * c
	}
	if total == 0 {
		return 0
	}
	return float64(weighted) / (float64(total) * 255.0)
}
