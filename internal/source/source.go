// Package source abstracts where hero cover masters come from: a magazine
// issue PDF (one cover per page) or a directory of master images.
package source

import (
	"image"

	"github.com/gen2brain/go-fitz"
)

type Source interface {
	CoverCount() int
	CoverDimensions(index int) (width, height float64, err error)
	RenderCover(index int, dpi int) (image.Image, error)
	Close() error
}

// PDFSource renders issue pages as cover masters via MuPDF.
type PDFSource struct {
	doc  *fitz.Document
	path string
}

func NewPDFSource(path string) (*PDFSource, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, err
	}
	return &PDFSource{doc: doc, path: path}, nil
}

func (s *PDFSource) CoverCount() int {
	return s.doc.NumPage()
}

func (s *PDFSource) CoverDimensions(index int) (float64, float64, error) {
	rect, err := s.doc.Bound(index)
	if err != nil {
		return 0, 0, err
	}
	return float64(rect.Dx()), float64(rect.Dy()), nil
}

func (s *PDFSource) RenderCover(index int, dpi int) (image.Image, error) {
	// fitz.Document не потокобезопасен: каждый воркер открывает свою копию.
	workerDoc, err := fitz.New(s.path)
	if err != nil {
		return nil, err
	}
	defer workerDoc.Close()
	return workerDoc.ImageDPI(index, float64(dpi))
}

func (s *PDFSource) Close() error {
	return s.doc.Close()
}
