package services

import (
	"bytes"
	"context"
	"errors"
	"image"
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/career-copilot/internal/models"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestIngestor() *Ingestor {
	return NewIngestor(NewPDFBackend(NewPageRenderer(1)), DefaultMaxFileSize, testLogger())
}

func textFile(name, content string) FileInput {
	return FileInput{
		Filename:    name,
		ContentType: "text/plain",
		Size:        int64(len(content)),
		Content:     strings.NewReader(content),
	}
}

func requireKind(t *testing.T, err error, kind IngestionErrorKind) {
	t.Helper()
	var ingErr *IngestionError
	require.True(t, errors.As(err, &ingErr), "expected *IngestionError, got %T: %v", err, err)
	assert.Equal(t, kind, ingErr.Kind)
}

func TestIngestText(t *testing.T) {
	ing := newTestIngestor()

	doc, err := ing.IngestText("  Jane Doe, Engineer  ")
	require.NoError(t, err)
	assert.Equal(t, models.SourcePastedText, doc.SourceKind)
	assert.Equal(t, "  Jane Doe, Engineer  ", doc.RawText)
	assert.Empty(t, doc.PageImages)
	assert.True(t, doc.Ready())

	_, err = ing.IngestText(" \n\t ")
	requireKind(t, err, ErrKindEmptyContent)
}

func TestIngestTextFile(t *testing.T) {
	tests := []struct {
		name     string
		file     FileInput
		wantText string
		wantKind IngestionErrorKind
	}{
		{
			name:     "plain text by extension",
			file:     textFile("resume.txt", "Jane Doe\nBackend Engineer\n"),
			wantText: "Jane Doe\nBackend Engineer\n",
		},
		{
			name: "plain text by mime only",
			file: FileInput{
				Filename:    "resume",
				ContentType: "text/plain; charset=utf-8",
				Size:        8,
				Content:     strings.NewReader("Jane Doe"),
			},
			wantText: "Jane Doe",
		},
		{
			name:     "utf-8 bom is dropped",
			file:     textFile("resume.txt", "\xef\xbb\xbfJane"),
			wantText: "Jane",
		},
		{
			name:     "whitespace only",
			file:     textFile("resume.txt", "   \n\n  "),
			wantKind: ErrKindEmptyContent,
		},
		{
			name: "unsupported extension and mime",
			file: FileInput{
				Filename:    "resume.docx",
				ContentType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
				Size:        4,
				Content:     strings.NewReader("data"),
			},
			wantKind: ErrKindUnsupportedFormat,
		},
		{
			name: "missing content",
			file: FileInput{
				Filename: "resume.txt",
				Size:     4,
			},
			wantKind: ErrKindReadFailure,
		},
	}

	ing := newTestIngestor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ing.IngestFile(context.Background(), tt.file)
			if tt.wantKind != "" {
				requireKind(t, err, tt.wantKind)
				assert.Nil(t, doc)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, models.SourceTextFile, doc.SourceKind)
			assert.Equal(t, tt.wantText, doc.RawText)
			assert.Equal(t, tt.file.Filename, doc.OriginalFilename)
		})
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("disk on fire")
}

func TestIngestFileReadFailure(t *testing.T) {
	ing := newTestIngestor()
	_, err := ing.IngestFile(context.Background(), FileInput{
		Filename: "resume.txt",
		Size:     10,
		Content:  failingReader{},
	})
	requireKind(t, err, ErrKindReadFailure)
	assert.NotContains(t, err.Error(), "disk on fire")
}

type countingReader struct {
	reads int
}

func (c *countingReader) Read(p []byte) (int, error) {
	c.reads++
	return 0, io.EOF
}

func TestIngestFileTooLargeBeforeReading(t *testing.T) {
	ing := newTestIngestor()

	for _, name := range []string{"resume.txt", "resume.pdf", "resume.exe"} {
		r := &countingReader{}
		_, err := ing.IngestFile(context.Background(), FileInput{
			Filename: name,
			Size:     DefaultMaxFileSize + 1,
			Content:  r,
		})
		requireKind(t, err, ErrKindFileTooLarge)
		assert.Zero(t, r.reads, "content must not be read for %s", name)
	}
}

func TestIngestFileTooLargeWhenSizeUnderstated(t *testing.T) {
	ing := NewIngestor(NewPDFBackend(NewPageRenderer(1)), 16, testLogger())
	content := strings.Repeat("a", 17)

	_, err := ing.IngestFile(context.Background(), FileInput{
		Filename: "resume.txt",
		Size:     1,
		Content:  strings.NewReader(content),
	})
	requireKind(t, err, ErrKindFileTooLarge)

	doc, err := ing.IngestFile(context.Background(), textFile("resume.txt", content[:16]))
	require.NoError(t, err)
	assert.Equal(t, int64(16), doc.SizeBytes)
}

func TestIngestPDF(t *testing.T) {
	ing := newTestIngestor()
	data := buildPDF("Jane Doe Backend Engineer", "Go Kubernetes PostgreSQL", "References on request")

	doc, err := ing.IngestFile(context.Background(), FileInput{
		Filename:    "resume.pdf",
		ContentType: "application/pdf",
		Size:        int64(len(data)),
		Content:     bytes.NewReader(data),
	})
	require.NoError(t, err)

	assert.Equal(t, models.SourcePDFFile, doc.SourceKind)
	require.Len(t, doc.PageImages, 3)
	for i, img := range doc.PageImages {
		assert.Equal(t, i+1, img.Page)
		assert.Equal(t, 612, img.Width)
		assert.Equal(t, 792, img.Height)
		assert.True(t, bytes.HasPrefix(img.PNG, []byte("\x89PNG")))
	}

	first := strings.Index(doc.RawText, "Jane Doe")
	second := strings.Index(doc.RawText, "Kubernetes")
	third := strings.Index(doc.RawText, "References")
	require.True(t, first >= 0 && second > first && third > second, "pages out of order: %q", doc.RawText)
	assert.Contains(t, doc.RawText[first:second], "\n\n")
	assert.Contains(t, doc.RawText[second:third], "\n\n")
	assert.Equal(t, int64(len(data)), doc.SizeBytes)
}

func TestIngestPDFIsIdempotent(t *testing.T) {
	ing := newTestIngestor()
	data := buildPDF("Page one", "Page two")

	ingest := func() *models.UploadedDocument {
		doc, err := ing.IngestFile(context.Background(), FileInput{
			Filename: "resume.pdf",
			Size:     int64(len(data)),
			Content:  bytes.NewReader(data),
		})
		require.NoError(t, err)
		return doc
	}

	a, b := ingest(), ingest()
	assert.Equal(t, a.RawText, b.RawText)
	require.Len(t, b.PageImages, len(a.PageImages))
	for i := range a.PageImages {
		assert.Equal(t, a.PageImages[i].PNG, b.PageImages[i].PNG)
	}
}

func TestIngestCorruptPDF(t *testing.T) {
	ing := newTestIngestor()

	for _, data := range [][]byte{
		[]byte("this is not a pdf at all"),
		[]byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog"),
	} {
		_, err := ing.IngestFile(context.Background(), FileInput{
			Filename: "resume.pdf",
			Size:     int64(len(data)),
			Content:  bytes.NewReader(data),
		})
		require.Error(t, err)

		var ingErr *IngestionError
		require.True(t, errors.As(err, &ingErr))
		assert.Contains(t, []IngestionErrorKind{ErrKindInvalidDocument, ErrKindUnknownParseFailure}, ingErr.Kind)
	}
}

type fakeBackend struct {
	openErr error
	doc     *fakeDocument
}

func (f *fakeBackend) Open([]byte) (PDFDocument, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	return f.doc, nil
}

type fakeDocument struct {
	texts     []string
	textErr   error
	renderErr error
}

func (d *fakeDocument) NumPages() int { return len(d.texts) }

func (d *fakeDocument) PageText(page int) (string, error) {
	if d.textErr != nil {
		return "", d.textErr
	}
	return d.texts[page-1], nil
}

func (d *fakeDocument) RenderPage(int) (image.Image, error) {
	if d.renderErr != nil {
		return nil, d.renderErr
	}
	return image.NewRGBA(image.Rect(0, 0, 2, 2)), nil
}

func TestIngestPDFClassification(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name      string
		backend   *fakeBackend
		want      IngestionErrorKind
		wantCause bool
	}{
		{"backend init", &fakeBackend{openErr: errors.Join(errBackendInit, boom)}, ErrKindWorkerInitFailure, true},
		{"invalid structure", &fakeBackend{openErr: errors.Join(errInvalidPDF, boom)}, ErrKindInvalidDocument, true},
		{"unexpected open failure", &fakeBackend{openErr: boom}, ErrKindUnknownParseFailure, true},
		{"zero pages", &fakeBackend{doc: &fakeDocument{}}, ErrKindInvalidDocument, false},
		{"every page fails", &fakeBackend{doc: &fakeDocument{texts: []string{"a", "b"}, textErr: boom, renderErr: boom}}, ErrKindUnknownParseFailure, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ing := NewIngestor(tt.backend, DefaultMaxFileSize, testLogger())
			_, err := ing.IngestFile(context.Background(), FileInput{
				Filename: "resume.pdf",
				Size:     4,
				Content:  strings.NewReader("%PDF"),
			})
			requireKind(t, err, tt.want)
			assert.NotContains(t, err.Error(), "boom")
			if tt.wantCause {
				assert.ErrorIs(t, err, boom)
			}
		})
	}
}

func TestIngestPDFImagesWithoutText(t *testing.T) {
	ing := NewIngestor(&fakeBackend{doc: &fakeDocument{texts: []string{" ", ""}}}, DefaultMaxFileSize, testLogger())

	doc, err := ing.IngestFile(context.Background(), FileInput{
		Filename: "scan.pdf",
		Size:     4,
		Content:  strings.NewReader("%PDF"),
	})
	require.NoError(t, err)
	assert.Len(t, doc.PageImages, 2)
	assert.False(t, doc.Ready())
}

func TestIngestPDFCancelled(t *testing.T) {
	ing := NewIngestor(&fakeBackend{doc: &fakeDocument{texts: []string{"a"}}}, DefaultMaxFileSize, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ing.IngestFile(ctx, FileInput{Filename: "a.pdf", Size: 4, Content: strings.NewReader("%PDF")})
	requireKind(t, err, ErrKindReadFailure)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIngestDispatch(t *testing.T) {
	ing := newTestIngestor()

	doc, err := ing.Ingest(context.Background(), Input{Text: "pasted"})
	require.NoError(t, err)
	assert.Equal(t, models.SourcePastedText, doc.SourceKind)

	file := textFile("cv.txt", "from file")
	doc, err = ing.Ingest(context.Background(), Input{Text: "ignored", File: &file})
	require.NoError(t, err)
	assert.Equal(t, models.SourceTextFile, doc.SourceKind)
	assert.Equal(t, "from file", doc.RawText)
}
