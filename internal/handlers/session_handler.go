package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"alfredoptarigan/career-copilot/internal/models"
	"alfredoptarigan/career-copilot/internal/services"
)

const previewRunes = 280

type SessionHandler struct {
	sessions services.SessionStore
	logger   *logrus.Logger
}

func NewSessionHandler(sessions services.SessionStore, logger *logrus.Logger) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		logger:   logger,
	}
}

// HandleCreate handles POST /sessions
func (h *SessionHandler) HandleCreate(c *fiber.Ctx) error {
	session, err := h.sessions.Create(c.UserContext())
	if err != nil {
		h.logger.WithError(err).Error("❌ Failed to create session")
		return fiber.NewError(fiber.StatusInternalServerError, "failed to create session")
	}

	h.logger.WithField("session_id", session.ID).Info("🆕 Session created")
	return c.Status(fiber.StatusCreated).JSON(toSessionResponse(session))
}

// HandleGet handles GET /sessions/:id
func (h *SessionHandler) HandleGet(c *fiber.Ctx) error {
	session, err := loadSession(c, h.sessions)
	if err != nil {
		return err
	}
	return c.JSON(toSessionResponse(session))
}

// HandleDelete handles DELETE /sessions/:id. Uploaded documents go with the session.
func (h *SessionHandler) HandleDelete(c *fiber.Ctx) error {
	id, err := parseID(c, "session")
	if err != nil {
		return err
	}
	if err := h.sessions.Delete(c.UserContext(), id); err != nil {
		return err
	}

	h.logger.WithField("session_id", id).Info("🗑️ Session deleted")
	return c.SendStatus(fiber.StatusNoContent)
}

func toSessionResponse(session *models.Session) models.SessionResponse {
	resp := models.SessionResponse{
		ID:                session.ID.String(),
		ExpiresAt:         session.ExpiresAt,
		HasJobDescription: strings.TrimSpace(session.JobDescription) != "",
	}
	if session.Resume != nil {
		resume := toResumeResponse(session.Resume)
		resp.Resume = &resume
	}
	return resp
}

func toResumeResponse(doc *models.UploadedDocument) models.ResumeResponse {
	runes := []rune(doc.RawText)
	preview := doc.RawText
	if len(runes) > previewRunes {
		preview = string(runes[:previewRunes])
	}

	return models.ResumeResponse{
		SourceKind:       string(doc.SourceKind),
		OriginalFilename: doc.OriginalFilename,
		SizeBytes:        doc.SizeBytes,
		CharCount:        len(runes),
		PageCount:        len(doc.PageImages),
		Ready:            doc.Ready(),
		Preview:          preview,
	}
}
