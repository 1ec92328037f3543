package models

import (
	"time"

	"github.com/google/uuid"
)

// Session is one pass through the wizard. It holds the uploaded resume and the job description
// until it expires or is deleted.
type Session struct {
	ID             uuid.UUID         `json:"id"`
	Resume         *UploadedDocument `json:"resume,omitempty"`
	JobDescription string            `json:"job_description,omitempty"`
	// Pending holds the inputs captured when an application was queued, keyed by application ID.
	// An entry is removed once that application has been generated.
	Pending   map[uuid.UUID]GenerationInputs `json:"pending,omitempty"`
	CreatedAt time.Time                      `json:"created_at"`
	ExpiresAt time.Time                      `json:"expires_at"`
}

// GenerationInputs is what one application is generated from.
type GenerationInputs struct {
	ResumeText     string `json:"resume_text"`
	JobDescription string `json:"job_description"`
}
