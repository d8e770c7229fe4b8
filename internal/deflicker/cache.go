package deflicker

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
)

// LoadCache reads a brightness sample cache: flat decimal text, one
// sample per line, no header. The cache is only usable when its row
// count matches the current frame count, so a mismatch (or any parse
// problem) reports ok=false and the caller resamples.
func LoadCache(path string, numFrames int) ([]float64, bool) {
	f, err := os.Open(path)
	if err != nil {
		return nil, false
	}
	defer f.Close()

	samples := make([]float64, 0, numFrames)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		v, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return nil, false
		}
		samples = append(samples, v)
	}
	if sc.Err() != nil || len(samples) != numFrames {
		return nil, false
	}
	return samples, true
}

// SaveCache persists samples in the same flat text format.
func SaveCache(path string, samples []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("brightness cache %q: %w", path, err)
	}
	w := bufio.NewWriter(f)
	for _, s := range samples {
		fmt.Fprintf(w, "%s\n", strconv.FormatFloat(s, 'g', -1, 64))
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("brightness cache %q: %w", path, err)
	}
	return f.Close()
}
