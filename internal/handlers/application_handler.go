package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"alfredoptarigan/career-copilot/internal/models"
	"alfredoptarigan/career-copilot/internal/repositories"
	"alfredoptarigan/career-copilot/internal/services"
)

type ApplicationHandler struct {
	appRepo  repositories.ApplicationRepository
	sessions services.SessionStore
	worker   services.Worker
	logger   *logrus.Logger
}

func NewApplicationHandler(
	appRepo repositories.ApplicationRepository,
	sessions services.SessionStore,
	worker services.Worker,
	logger *logrus.Logger,
) *ApplicationHandler {
	return &ApplicationHandler{
		appRepo:  appRepo,
		sessions: sessions,
		worker:   worker,
		logger:   logger,
	}
}

var (
	errResumeNotReady      = fiber.NewError(fiber.StatusUnprocessableEntity, "upload a resume with readable text first")
	errJobDescriptionEmpty = fiber.NewError(fiber.StatusUnprocessableEntity, "add a job description first")
)

// HandleCreate handles POST /sessions/:id/applications. The resume text and job description are
// captured on the session at this point, so later edits do not change a queued application.
func (h *ApplicationHandler) HandleCreate(c *fiber.Ctx) error {
	sessionID, err := parseID(c, "session")
	if err != nil {
		return err
	}

	appID := uuid.New()
	_, err = updateSession(c, h.sessions, sessionID, func(s *models.Session) error {
		if !s.Resume.Ready() {
			return errResumeNotReady
		}
		if strings.TrimSpace(s.JobDescription) == "" {
			return errJobDescriptionEmpty
		}
		if s.Pending == nil {
			s.Pending = make(map[uuid.UUID]models.GenerationInputs)
		}
		s.Pending[appID] = models.GenerationInputs{
			ResumeText:     s.Resume.RawText,
			JobDescription: s.JobDescription,
		}
		return nil
	})
	if err != nil {
		return err
	}

	app := models.Application{
		ID:        appID,
		SessionID: sessionID,
		Status:    models.StatusQueued,
	}
	if err := h.appRepo.Create(&app); err != nil {
		h.logger.WithError(err).Error("❌ Failed to create application")
		_, _ = h.sessions.Update(c.UserContext(), sessionID, func(s *models.Session) error {
			delete(s.Pending, appID)
			return nil
		})
		return fiber.NewError(fiber.StatusInternalServerError, "failed to create application")
	}

	h.worker.EnqueueJob(app.ID)

	return c.Status(fiber.StatusAccepted).JSON(models.ApplicationResponse{
		ID:     app.ID.String(),
		Status: string(app.Status),
	})
}
