package source

import (
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"
)

// PDFSource treats the pages of a PDF as the input frame sequence.
type PDFSource struct {
	doc  *fitz.Document
	path string
	dpi  int
}

// NewPDFSource opens path and rasterizes pages at dpi.
func NewPDFSource(path string, dpi int) (*PDFSource, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, err
	}
	return &PDFSource{doc: doc, path: path, dpi: dpi}, nil
}

func (s *PDFSource) FrameCount() int { return s.doc.NumPage() }

func (s *PDFSource) FramePath(index int) string {
	return fmt.Sprintf("%s#page=%d", s.path, index+1)
}

func (s *PDFSource) Dimensions(index int) (int, int, error) {
	rect, err := s.doc.Bound(index)
	if err != nil {
		return 0, 0, &FrameError{Index: index, Path: s.FramePath(index), Err: err}
	}
	scale := float64(s.dpi) / 72.0
	return int(float64(rect.Dx()) * scale), int(float64(rect.Dy()) * scale), nil
}

// Frame rasterizes one page. A fresh document handle is opened per
// call: fitz handles are not safe for concurrent use and the render
// pool calls this from several workers.
func (s *PDFSource) Frame(index int) (image.Image, error) {
	doc, err := fitz.New(s.path)
	if err != nil {
		return nil, &FrameError{Index: index, Path: s.FramePath(index), Err: err}
	}
	defer doc.Close()

	img, err := doc.ImageDPI(index, float64(s.dpi))
	if err != nil {
		return nil, &FrameError{Index: index, Path: s.FramePath(index), Err: err}
	}
	return img, nil
}

func (s *PDFSource) Close() error { return s.doc.Close() }
