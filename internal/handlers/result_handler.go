package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/career-copilot/internal/models"
	"alfredoptarigan/career-copilot/internal/repositories"
)

type ResultHandler struct {
	appRepo repositories.ApplicationRepository
}

func NewResultHandler(appRepo repositories.ApplicationRepository) *ResultHandler {
	return &ResultHandler{
		appRepo: appRepo,
	}
}

// HandleGetResult handles GET /applications/:id. Failed applications still return whatever
// was generated before the failure.
func (h *ResultHandler) HandleGetResult(c *fiber.Ctx) error {
	appID, err := parseID(c, "application")
	if err != nil {
		return err
	}

	app, err := h.appRepo.FindByID(appID)
	if errors.Is(err, repositories.ErrApplicationNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "Application not found")
	}
	if err != nil {
		return err
	}

	response := models.ResultResponse{
		ID:     app.ID.String(),
		Status: string(app.Status),
	}

	if app.Status == models.StatusCompleted || app.Status == models.StatusFailed {
		data := &models.GenerationData{
			InterviewQuestions:    app.InterviewQuestions,
			InterviewFallbackUsed: app.InterviewFallbackUsed,
		}
		if app.TailoredResume != nil {
			data.TailoredResume = *app.TailoredResume
		}
		if app.CoverLetter != nil {
			data.CoverLetter = *app.CoverLetter
		}
		if app.TailoredResume != nil || app.CoverLetter != nil || len(app.InterviewQuestions) > 0 {
			response.Result = data
		}
	}

	if app.Status == models.StatusFailed {
		response.ErrorMessage = app.ErrorMessage
	}

	return c.JSON(response)
}
