// Package source supplies the ordered input frame sequence, either
// from a directory of still images or from the pages of a PDF.
package source

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Source is an ordered, immutable sequence of input frames.
type Source interface {
	FrameCount() int
	FramePath(index int) string
	Dimensions(index int) (width, height int, err error)
	Frame(index int) (image.Image, error)
	Close() error
}

// FrameError localizes a frame that could not be decoded. Frames are
// never silently skipped: a skip would desynchronize frame indices
// from their parameter track entries.
type FrameError struct {
	Index int
	Path  string
	Err   error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("frame %d (%s): %v", e.Index, e.Path, e.Err)
}

func (e *FrameError) Unwrap() error { return e.Err }

// DirSource reads frames from a directory, lexicographically sorted.
type DirSource struct {
	paths []string
}

// NewDirSource lists dir and keeps files matching the filetype
// extension (without dot, case-insensitive). An empty filetype accepts
// the common image formats.
func NewDirSource(dir, filetype string) (*DirSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	want := strings.ToLower(strings.TrimPrefix(filetype, "."))
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(entry.Name()), "."))
		ok := ext == want
		if want == "" {
			ok = ext == "jpg" || ext == "jpeg" || ext == "png"
		}
		if ok {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)

	if len(paths) == 0 {
		return nil, fmt.Errorf("no input frames in %s (filetype %q)", dir, filetype)
	}
	return &DirSource{paths: paths}, nil
}

func (s *DirSource) FrameCount() int { return len(s.paths) }

func (s *DirSource) FramePath(index int) string { return s.paths[index] }

func (s *DirSource) Dimensions(index int) (int, int, error) {
	f, err := os.Open(s.paths[index])
	if err != nil {
		return 0, 0, &FrameError{Index: index, Path: s.paths[index], Err: err}
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, &FrameError{Index: index, Path: s.paths[index], Err: err}
	}
	return cfg.Width, cfg.Height, nil
}

func (s *DirSource) Frame(index int) (image.Image, error) {
	f, err := os.Open(s.paths[index])
	if err != nil {
		return nil, &FrameError{Index: index, Path: s.paths[index], Err: err}
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, &FrameError{Index: index, Path: s.paths[index], Err: err}
	}
	return img, nil
}

func (s *DirSource) Close() error { return nil }
