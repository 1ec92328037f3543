package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/sirupsen/logrus"

	"alfredoptarigan/career-copilot/internal/models"
)

const DefaultMaxFileSize int64 = 5 * 1024 * 1024

type docFormat int

const (
	formatUnknown docFormat = iota
	formatText
	formatPDF
)

// FileInput describes an uploaded file. Size is the size claimed by the client; Content is
// still read through a limit so a wrong claim cannot bypass the cap.
type FileInput struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// Input is either pasted text or a file. File wins when both are set.
type Input struct {
	Text string
	File *FileInput
}

type Ingestor struct {
	backend     PDFBackend
	maxFileSize int64
	logger      *logrus.Logger
}

func NewIngestor(backend PDFBackend, maxFileSize int64, logger *logrus.Logger) *Ingestor {
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}
	return &Ingestor{
		backend:     backend,
		maxFileSize: maxFileSize,
		logger:      logger,
	}
}

func (i *Ingestor) MaxFileSize() int64 {
	return i.maxFileSize
}

func (i *Ingestor) Ingest(ctx context.Context, in Input) (*models.UploadedDocument, error) {
	if in.File != nil {
		return i.IngestFile(ctx, *in.File)
	}
	return i.IngestText(in.Text)
}

func (i *Ingestor) IngestText(text string) (*models.UploadedDocument, error) {
	if strings.TrimSpace(text) == "" {
		return nil, newIngestionError(ErrKindEmptyContent, "pasted text is empty", nil)
	}

	return &models.UploadedDocument{
		SourceKind: models.SourcePastedText,
		RawText:    text,
		SizeBytes:  int64(len(text)),
	}, nil
}

func (i *Ingestor) IngestFile(ctx context.Context, file FileInput) (*models.UploadedDocument, error) {
	log := i.logger.WithFields(logrus.Fields{
		"filename":     file.Filename,
		"content_type": file.ContentType,
		"size":         file.Size,
	})

	if file.Size > i.maxFileSize {
		return nil, newIngestionError(ErrKindFileTooLarge,
			fmt.Sprintf("file is too large: max size is %d bytes", i.maxFileSize), nil)
	}

	format := detectFormat(file.Filename, file.ContentType)
	if format == formatUnknown {
		return nil, newIngestionError(ErrKindUnsupportedFormat,
			"unsupported format: only .txt and .pdf files are accepted", nil)
	}

	data, err := i.readAll(file.Content)
	if err != nil {
		return nil, err
	}

	var doc *models.UploadedDocument
	switch format {
	case formatText:
		doc, err = i.ingestTextFile(data)
	case formatPDF:
		doc, err = i.ingestPDF(ctx, data, log)
	}
	if err != nil {
		log.WithError(err).Warn("⚠️ Resume ingestion failed")
		return nil, err
	}

	doc.OriginalFilename = file.Filename
	doc.SizeBytes = int64(len(data))

	log.WithFields(logrus.Fields{
		"source_kind": doc.SourceKind,
		"chars":       utf8.RuneCountInString(doc.RawText),
		"pages":       len(doc.PageImages),
	}).Info("📄 Resume ingested")

	return doc, nil
}

func (i *Ingestor) readAll(r io.Reader) ([]byte, error) {
	if r == nil {
		return nil, newIngestionError(ErrKindReadFailure, "file content is missing", nil)
	}

	data, err := io.ReadAll(io.LimitReader(r, i.maxFileSize+1))
	if err != nil {
		return nil, newIngestionError(ErrKindReadFailure, "failed to read uploaded file", err)
	}
	if int64(len(data)) > i.maxFileSize {
		return nil, newIngestionError(ErrKindFileTooLarge,
			fmt.Sprintf("file is too large: max size is %d bytes", i.maxFileSize), nil)
	}

	return data, nil
}

func (i *Ingestor) ingestTextFile(data []byte) (*models.UploadedDocument, error) {
	text := decodeText(data)
	if strings.TrimSpace(text) == "" {
		return nil, newIngestionError(ErrKindEmptyContent, "the file is empty", nil)
	}

	return &models.UploadedDocument{
		SourceKind: models.SourceTextFile,
		RawText:    text,
	}, nil
}

// ingestPDF walks pages strictly in order. Each page is extracted and rendered before the
// next one starts.
func (i *Ingestor) ingestPDF(ctx context.Context, data []byte, log *logrus.Entry) (*models.UploadedDocument, error) {
	doc, err := i.backend.Open(data)
	if err != nil {
		return nil, classifyOpenError(err)
	}

	pageCount := doc.NumPages()
	if pageCount <= 0 {
		return nil, newIngestionError(ErrKindInvalidDocument, "the PDF has no pages", nil)
	}

	var (
		texts    []string
		images   []models.PageImage
		failures int
	)

	for page := 1; page <= pageCount; page++ {
		if err := ctx.Err(); err != nil {
			return nil, newIngestionError(ErrKindReadFailure, "ingestion was cancelled", err)
		}

		text, err := doc.PageText(page)
		if err != nil {
			failures++
			log.WithError(err).WithField("page", page).Warn("⚠️ Failed to extract page text")
		} else if t := strings.TrimSpace(text); t != "" {
			texts = append(texts, t)
		}

		img, err := doc.RenderPage(page)
		if err != nil {
			failures++
			log.WithError(err).WithField("page", page).Warn("⚠️ Failed to render page")
			continue
		}

		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			failures++
			log.WithError(err).WithField("page", page).Warn("⚠️ Failed to encode page image")
			continue
		}

		bounds := img.Bounds()
		images = append(images, models.PageImage{
			Page:   page,
			Width:  bounds.Dx(),
			Height: bounds.Dy(),
			PNG:    buf.Bytes(),
		})
	}

	rawText := strings.Join(texts, "\n\n")
	if rawText == "" && len(images) == 0 {
		if failures > 0 {
			return nil, newIngestionError(ErrKindUnknownParseFailure, "could not read any page of the PDF", nil)
		}
		return nil, newIngestionError(ErrKindEmptyContent, "no extractable content in the PDF", nil)
	}

	return &models.UploadedDocument{
		SourceKind: models.SourcePDFFile,
		RawText:    rawText,
		PageImages: images,
	}, nil
}

func classifyOpenError(err error) *IngestionError {
	switch {
	case errors.Is(err, errBackendInit):
		return newIngestionError(ErrKindWorkerInitFailure, "the PDF engine could not be started", err)
	case errors.Is(err, pdf.ErrInvalidPassword):
		return newIngestionError(ErrKindInvalidDocument, "the PDF is encrypted", err)
	case errors.Is(err, errInvalidPDF):
		return newIngestionError(ErrKindInvalidDocument, "the file is not a valid PDF", err)
	default:
		return newIngestionError(ErrKindUnknownParseFailure, "the PDF could not be parsed", err)
	}
}

func detectFormat(filename, contentType string) docFormat {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt":
		return formatText
	case ".pdf":
		return formatPDF
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return formatUnknown
	}
	switch mediaType {
	case "text/plain":
		return formatText
	case "application/pdf":
		return formatPDF
	}
	return formatUnknown
}

// decodeText decodes UTF-8, dropping a leading BOM and replacing invalid sequences.
func decodeText(data []byte) string {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if utf8.Valid(data) {
		return string(data)
	}
	return strings.ToValidUTF8(string(data), "�")
}
