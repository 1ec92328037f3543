package services

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	"github.com/ledongthuc/pdf"
)

// PDFBackend opens PDF bytes. It is the only component that touches the PDF library.
type PDFBackend interface {
	Open(data []byte) (PDFDocument, error)
}

// PDFDocument exposes a page count and per-page extraction. Pages are 1-based.
type PDFDocument interface {
	NumPages() int
	PageText(page int) (string, error)
	RenderPage(page int) (image.Image, error)
}

var (
	errBackendInit = errors.New("pdf backend initialization failed")
	errInvalidPDF  = errors.New("invalid pdf")
	errNullPage    = errors.New("page object missing")
)

type pdfBackend struct {
	renderer *PageRenderer
}

func NewPDFBackend(renderer *PageRenderer) PDFBackend {
	return &pdfBackend{renderer: renderer}
}

func (b *pdfBackend) Open(data []byte) (doc PDFDocument, err error) {
	if err := b.renderer.Init(); err != nil {
		return nil, fmt.Errorf("%w: %w", errBackendInit, err)
	}

	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = fmt.Errorf("pdf reader panicked: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidPDF, err)
	}

	return &pdfDocument{reader: reader, renderer: b.renderer}, nil
}

type pdfDocument struct {
	reader   *pdf.Reader
	renderer *PageRenderer
}

func (d *pdfDocument) NumPages() (n int) {
	defer func() {
		if recover() != nil {
			n = 0
		}
	}()
	return d.reader.NumPage()
}

func (d *pdfDocument) PageText(pageIndex int) (text string, err error) {
	defer recoverPage(&err)

	page := d.reader.Page(pageIndex)
	if page.V.IsNull() {
		return "", errNullPage
	}

	return page.GetPlainText(nil)
}

func (d *pdfDocument) RenderPage(pageIndex int) (img image.Image, err error) {
	defer recoverPage(&err)

	page := d.reader.Page(pageIndex)
	if page.V.IsNull() {
		return nil, errNullPage
	}

	layout := PageLayout{}
	layout.Width, layout.Height = mediaBox(page)

	content := page.Content()
	for _, t := range content.Text {
		layout.Runs = append(layout.Runs, TextRun{X: t.X, Y: t.Y, FontSize: t.FontSize, Text: t.S})
	}
	for _, r := range content.Rect {
		layout.Boxes = append(layout.Boxes, Box{MinX: r.Min.X, MinY: r.Min.Y, MaxX: r.Max.X, MaxY: r.Max.Y})
	}

	rgba, err := d.renderer.Render(layout)
	if err != nil {
		return nil, err
	}
	return rgba, nil
}

// mediaBox returns the page size in points, falling back to US Letter when the box is
// missing or inherited from the page tree.
func mediaBox(page pdf.Page) (float64, float64) {
	box := page.V.Key("MediaBox")
	if box.Len() != 4 {
		return defaultPageWidth, defaultPageHeight
	}
	w := box.Index(2).Float64() - box.Index(0).Float64()
	h := box.Index(3).Float64() - box.Index(1).Float64()
	if w <= 0 || h <= 0 {
		return defaultPageWidth, defaultPageHeight
	}
	return w, h
}

func recoverPage(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("pdf page panicked: %v", r)
	}
}
