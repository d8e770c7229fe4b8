package deflicker

import (
	"image"
	"image/color"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRollingMeanOddWindow(t *testing.T) {
	samples := []float64{1, 2, 3, 4, 5}
	targets := RollingMean(samples, 3)
	require.Len(t, targets, 5)

	// Valid span of length 3 centered at offset 1.
	assert.True(t, math.IsNaN(targets[0]))
	assert.InDelta(t, 2.0, targets[1], 1e-12)
	assert.InDelta(t, 3.0, targets[2], 1e-12)
	assert.InDelta(t, 4.0, targets[3], 1e-12)
	assert.True(t, math.IsNaN(targets[4]))
}

func TestRollingMeanEvenWindowPlacement(t *testing.T) {
	// Even windows have no exact center: the valid span of length
	// n-window+1 sits at offset (n-span)/2, leaning toward the start.
	samples := []float64{1, 2, 3, 4, 5, 6}
	targets := RollingMean(samples, 4)
	require.Len(t, targets, 6)

	assert.True(t, math.IsNaN(targets[0]))
	assert.InDelta(t, 2.5, targets[1], 1e-12) // mean(1,2,3,4)
	assert.InDelta(t, 3.5, targets[2], 1e-12)
	assert.InDelta(t, 4.5, targets[3], 1e-12)
	assert.True(t, math.IsNaN(targets[4]))
	assert.True(t, math.IsNaN(targets[5]))
}

func TestRollingMeanDegenerateWindow(t *testing.T) {
	for _, window := range []int{5, 6, 100, 0} {
		targets := RollingMean([]float64{1, 2, 3, 4, 5}, window)
		require.Len(t, targets, 5, "window %d", window)
		for i, v := range targets {
			assert.True(t, math.IsNaN(v), "window %d position %d", window, i)
		}
	}
}

func TestCorrectionRatioBoundaries(t *testing.T) {
	observed := []float64{0.5, 0.4, 0, 0.8}
	targets := []float64{math.NaN(), 0.5, 0.5, 0.4}

	ratios := CorrectionRatio(observed, targets)
	require.Len(t, ratios, 4)

	assert.Equal(t, 1.0, ratios[0], "undefined target")
	assert.InDelta(t, 1.25, ratios[1], 1e-12)
	assert.Equal(t, 1.0, ratios[2], "zero observed")
	assert.InDelta(t, 0.5, ratios[3], 1e-12)
}

func TestCorrectionRatioFlatSequence(t *testing.T) {
	samples := make([]float64, 20)
	for i := range samples {
		samples[i] = 0.42
	}

	ratios := CorrectionRatio(samples, RollingMean(samples, 5))
	for i, r := range ratios {
		assert.Equal(t, 1.0, r, "position %d", i)
	}
}

func TestCorrectionRatioNeverNaNOrInf(t *testing.T) {
	observed := []float64{0, math.NaN(), 0.5, 1e-300}
	targets := []float64{0.5, 0.5, math.NaN(), math.NaN()}
	for i, r := range CorrectionRatio(observed, targets) {
		assert.False(t, math.IsNaN(r), "position %d", i)
		assert.False(t, math.IsInf(r, 0), "position %d", i)
	}
}

func TestBrightnessUniformImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.Gray{Y: 128})
		}
	}
	assert.InDelta(t, 128.0/255.0, Brightness(img), 1e-9)
}

func TestBrightnessBounds(t *testing.T) {
	black := image.NewRGBA(image.Rect(0, 0, 4, 4))
	assert.Equal(t, 0.0, Brightness(black))

	white := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			white.Set(x, y, color.White)
		}
	}
	assert.Equal(t, 1.0, Brightness(white))
}

func TestCacheRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "project.brightness")
	samples := []float64{0.1, 0.25, 0.999999, 0}

	require.NoError(t, SaveCache(path, samples))

	loaded, ok := LoadCache(path, len(samples))
	require.True(t, ok)
	assert.Equal(t, samples, loaded)
}

func TestCacheMismatchedLength(t *testing.T) {
	path := filepath.Join(t.TempDir(), "project.brightness")
	require.NoError(t, SaveCache(path, []float64{0.1, 0.2}))

	_, ok := LoadCache(path, 3)
	assert.False(t, ok, "stale cache must not be used")
}

func TestCacheMissing(t *testing.T) {
	_, ok := LoadCache(filepath.Join(t.TempDir(), "absent"), 3)
	assert.False(t, ok)
}
