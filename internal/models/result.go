package models

import "time"

type SessionResponse struct {
	ID                string          `json:"id"`
	ExpiresAt         time.Time       `json:"expires_at"`
	Resume            *ResumeResponse `json:"resume,omitempty"`
	HasJobDescription bool            `json:"has_job_description"`
}

type ResumeResponse struct {
	SourceKind       string `json:"source_kind"`
	OriginalFilename string `json:"original_filename,omitempty"`
	SizeBytes        int64  `json:"size_bytes"`
	CharCount        int    `json:"char_count"`
	PageCount        int    `json:"page_count"`
	Ready            bool   `json:"ready"`
	Preview          string `json:"preview"`
}

type PasteResumeRequest struct {
	Text string `json:"text" form:"text" validate:"required"`
}

type JobDescriptionRequest struct {
	JobDescription string `json:"job_description" validate:"required,max=100000"`
}

type ApplicationResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type ResultResponse struct {
	ID           string          `json:"id"`
	Status       string          `json:"status"`
	Result       *GenerationData `json:"result,omitempty"`
	ErrorMessage *string         `json:"error_message,omitempty"`
}

type GenerationData struct {
	TailoredResume        string        `json:"tailored_resume"`
	CoverLetter           string        `json:"cover_letter"`
	InterviewQuestions    []InterviewQA `json:"interview_questions"`
	InterviewFallbackUsed bool          `json:"interview_fallback_used"`
}
