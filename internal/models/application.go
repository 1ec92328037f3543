package models

import (
	"time"

	"github.com/google/uuid"
)

type ApplicationStatus string

const (
	StatusQueued     ApplicationStatus = "queued"
	StatusProcessing ApplicationStatus = "processing"
	StatusCompleted  ApplicationStatus = "completed"
	StatusFailed     ApplicationStatus = "failed"
)

// Application holds the generated material for one session. Inputs are read from the session
// at generation time and are not stored here.
type Application struct {
	ID                    uuid.UUID         `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	SessionID             uuid.UUID         `gorm:"type:uuid;not null;index" json:"session_id"`
	Status                ApplicationStatus `gorm:"not null;default:'queued'" json:"status"`
	TailoredResume        *string           `gorm:"type:text" json:"tailored_resume,omitempty"`
	CoverLetter           *string           `gorm:"type:text" json:"cover_letter,omitempty"`
	InterviewQuestions    []InterviewQA     `gorm:"type:jsonb;serializer:json" json:"interview_questions,omitempty"`
	InterviewFallbackUsed bool              `gorm:"not null;default:false" json:"interview_fallback_used"`
	ErrorMessage          *string           `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt             time.Time         `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt             time.Time         `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Application) TableName() string {
	return "applications"
}
