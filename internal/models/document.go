package models

import "strings"

type SourceKind string

const (
	SourcePastedText SourceKind = "pasted_text"
	SourceTextFile   SourceKind = "text_file"
	SourcePDFFile    SourceKind = "pdf_file"
)

// UploadedDocument is the canonical form of a resume after ingestion. It lives only in the
// session store and is never persisted to the database.
type UploadedDocument struct {
	SourceKind       SourceKind  `json:"source_kind"`
	RawText          string      `json:"raw_text"`
	PageImages       []PageImage `json:"page_images,omitempty"`
	OriginalFilename string      `json:"original_filename,omitempty"`
	SizeBytes        int64       `json:"size_bytes"`
}

// PageImage is a PNG preview of a single PDF page. Page is 1-based.
type PageImage struct {
	Page   int    `json:"page"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	PNG    []byte `json:"png"`
}

// Ready reports whether the document carries usable text for the generation step.
func (d *UploadedDocument) Ready() bool {
	return d != nil && strings.TrimSpace(d.RawText) != ""
}

// PageImage returns the preview for a 1-based page number.
func (d *UploadedDocument) PageImage(page int) (*PageImage, bool) {
	for i := range d.PageImages {
		if d.PageImages[i].Page == page {
			return &d.PageImages[i], true
		}
	}
	return nil, false
}
