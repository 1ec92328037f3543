package repositories

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"alfredoptarigan/career-copilot/internal/models"
)

var ErrApplicationNotFound = errors.New("application not found")

type ApplicationRepository interface {
	Create(app *models.Application) error
	FindByID(id uuid.UUID) (*models.Application, error)
	UpdateStatus(id uuid.UUID, status models.ApplicationStatus) error
	UpdateResult(id uuid.UUID, result *ApplicationUpdateData) error
	UpdateError(id uuid.UUID, errorMsg string) error
	FindPendingJobs(limit int) ([]models.Application, error)
}

// ApplicationUpdateData is the outcome of one generation run. Outputs are stored even when
// ErrorMessage is set; the status becomes failed in that case.
type ApplicationUpdateData struct {
	TailoredResume        *string
	CoverLetter           *string
	InterviewQuestions    []models.InterviewQA
	InterviewFallbackUsed bool
	ErrorMessage          *string
}

type applicationRepository struct {
	db *gorm.DB
}

func NewApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &applicationRepository{db: db}
}

func (r *applicationRepository) Create(app *models.Application) error {
	if err := r.db.Create(app).Error; err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	return nil
}

func (r *applicationRepository) FindByID(id uuid.UUID) (*models.Application, error) {
	var app models.Application
	if err := r.db.Where("id = ?", id).First(&app).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApplicationNotFound
		}
		return nil, fmt.Errorf("failed to find application: %w", err)
	}
	return &app, nil
}

func (r *applicationRepository) UpdateStatus(id uuid.UUID, status models.ApplicationStatus) error {
	result := r.db.Model(&models.Application{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update status: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrApplicationNotFound
	}

	return nil
}

func (r *applicationRepository) UpdateResult(id uuid.UUID, data *ApplicationUpdateData) error {
	status := models.StatusCompleted
	if data.ErrorMessage != nil {
		status = models.StatusFailed
	}

	// Struct updates go through the json serializer on InterviewQuestions; Select forces
	// zero values such as a false fallback flag to be written too.
	result := r.db.Model(&models.Application{}).
		Where("id = ?", id).
		Select("status", "tailored_resume", "cover_letter", "interview_questions",
			"interview_fallback_used", "error_message", "updated_at").
		Updates(&models.Application{
			Status:                status,
			TailoredResume:        data.TailoredResume,
			CoverLetter:           data.CoverLetter,
			InterviewQuestions:    data.InterviewQuestions,
			InterviewFallbackUsed: data.InterviewFallbackUsed,
			ErrorMessage:          data.ErrorMessage,
			UpdatedAt:             time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update result: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrApplicationNotFound
	}

	return nil
}

func (r *applicationRepository) UpdateError(id uuid.UUID, errorMsg string) error {
	result := r.db.Model(&models.Application{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        models.StatusFailed,
			"error_message": errorMsg,
			"updated_at":    time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update error: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrApplicationNotFound
	}

	return nil
}

func (r *applicationRepository) FindPendingJobs(limit int) ([]models.Application, error) {
	var apps []models.Application
	err := r.db.
		Where("status = ?", models.StatusQueued).
		Order("created_at ASC").
		Limit(limit).
		Find(&apps).Error

	if err != nil {
		return nil, fmt.Errorf("failed to find pending jobs: %w", err)
	}

	return apps, nil
}
