package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"alfredoptarigan/career-copilot/internal/models"
	"alfredoptarigan/career-copilot/internal/services"
)

type ResumeHandler struct {
	sessions services.SessionStore
	ingestor *services.Ingestor
	logger   *logrus.Logger
}

func NewResumeHandler(sessions services.SessionStore, ingestor *services.Ingestor, logger *logrus.Logger) *ResumeHandler {
	return &ResumeHandler{
		sessions: sessions,
		ingestor: ingestor,
		logger:   logger,
	}
}

// HandleUpload handles POST /sessions/:id/resume. It takes a multipart "resume" file or a
// pasted "text" field (form or JSON); the file wins when both are sent.
func (h *ResumeHandler) HandleUpload(c *fiber.Ctx) error {
	session, err := loadSession(c, h.sessions)
	if err != nil {
		return err
	}

	var input services.Input
	if fh, err := c.FormFile("resume"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "failed to read uploaded file")
		}
		defer f.Close()

		input.File = &services.FileInput{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Content:     f,
		}
	} else {
		var req models.PasteResumeRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request payload")
		}
		if err := validate.Struct(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "either a resume file or text is required")
		}
		input.Text = req.Text
	}

	log := h.logger.WithField("session_id", session.ID)

	doc, err := h.ingestor.Ingest(c.UserContext(), input)
	if err != nil {
		var ingErr *services.IngestionError
		if errors.As(err, &ingErr) {
			log.WithError(err).WithField("kind", ingErr.Kind).Warn("⚠️ Resume rejected")
			// A rejected replacement must not leave the previous resume in play.
			if _, err := updateSession(c, h.sessions, session.ID, clearResume); err != nil {
				return err
			}
			return c.Status(ingestionStatus(ingErr.Kind)).JSON(fiber.Map{
				"error": ingErr.Message,
				"kind":  ingErr.Kind,
				"code":  ingestionStatus(ingErr.Kind),
			})
		}
		return err
	}

	_, err = updateSession(c, h.sessions, session.ID, func(s *models.Session) error {
		s.Resume = doc
		return nil
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(toResumeResponse(doc))
}

// HandleReset handles DELETE /sessions/:id/resume so the user can start over with another file.
func (h *ResumeHandler) HandleReset(c *fiber.Ctx) error {
	session, err := loadSession(c, h.sessions)
	if err != nil {
		return err
	}

	if _, err := updateSession(c, h.sessions, session.ID, clearResume); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func clearResume(s *models.Session) error {
	s.Resume = nil
	return nil
}

// HandlePage handles GET /sessions/:id/resume/pages/:page
func (h *ResumeHandler) HandlePage(c *fiber.Ctx) error {
	session, err := loadSession(c, h.sessions)
	if err != nil {
		return err
	}

	page, err := strconv.Atoi(c.Params("page"))
	if err != nil || page < 1 {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid page number")
	}

	if session.Resume == nil {
		return fiber.NewError(fiber.StatusNotFound, "No resume uploaded")
	}
	img, ok := session.Resume.PageImage(page)
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "Page not found")
	}

	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(img.PNG)
}
