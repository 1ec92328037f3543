package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"alfredoptarigan/career-copilot/internal/models"
	"alfredoptarigan/career-copilot/internal/services"
)

type JobDescriptionHandler struct {
	sessions services.SessionStore
	logger   *logrus.Logger
}

func NewJobDescriptionHandler(sessions services.SessionStore, logger *logrus.Logger) *JobDescriptionHandler {
	return &JobDescriptionHandler{
		sessions: sessions,
		logger:   logger,
	}
}

// HandlePut handles PUT /sessions/:id/job-description
func (h *JobDescriptionHandler) HandlePut(c *fiber.Ctx) error {
	session, err := loadSession(c, h.sessions)
	if err != nil {
		return err
	}

	var req models.JobDescriptionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request payload")
	}
	if err := validate.Struct(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "job_description is required")
	}

	text, err := services.NormalizeJobDescription(req.JobDescription)
	if errors.Is(err, services.ErrEmptyJobDescription) {
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	}
	if err != nil {
		return fiber.NewError(fiber.StatusUnprocessableEntity, "could not read job description")
	}

	_, err = updateSession(c, h.sessions, session.ID, func(s *models.Session) error {
		s.JobDescription = text
		return nil
	})
	if err != nil {
		return err
	}

	h.logger.WithFields(logrus.Fields{
		"session_id": session.ID,
		"chars":      len([]rune(text)),
	}).Info("📝 Job description saved")

	return c.JSON(fiber.Map{
		"job_description": text,
		"char_count":      len([]rune(text)),
	})
}
