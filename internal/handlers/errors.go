package handlers

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"alfredoptarigan/career-copilot/internal/models"
	"alfredoptarigan/career-copilot/internal/services"
)

var validate = validator.New()

// ErrorHandler renders every error returned by a handler as {error, code}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}

// ingestionStatus maps an ingestion failure to the HTTP status shown to the client.
func ingestionStatus(kind services.IngestionErrorKind) int {
	switch kind {
	case services.ErrKindFileTooLarge:
		return fiber.StatusRequestEntityTooLarge
	case services.ErrKindUnsupportedFormat:
		return fiber.StatusUnsupportedMediaType
	case services.ErrKindEmptyContent, services.ErrKindInvalidDocument, services.ErrKindUnknownParseFailure:
		return fiber.StatusUnprocessableEntity
	case services.ErrKindReadFailure:
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

func parseID(c *fiber.Ctx, what string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "Invalid "+what+" ID format")
	}
	return id, nil
}

func loadSession(c *fiber.Ctx, sessions services.SessionStore) (*models.Session, error) {
	id, err := parseID(c, "session")
	if err != nil {
		return nil, err
	}

	session, err := sessions.Get(c.UserContext(), id)
	if errors.Is(err, services.ErrSessionNotFound) {
		return nil, fiber.NewError(fiber.StatusNotFound, "Session not found or expired")
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

// updateSession changes one session atomically in the store.
func updateSession(c *fiber.Ctx, sessions services.SessionStore, id uuid.UUID, fn func(*models.Session) error) (*models.Session, error) {
	session, err := sessions.Update(c.UserContext(), id, fn)
	if errors.Is(err, services.ErrSessionNotFound) {
		return nil, fiber.NewError(fiber.StatusNotFound, "Session not found or expired")
	}
	if errors.Is(err, services.ErrSessionConflict) {
		return nil, fiber.NewError(fiber.StatusConflict, "Session is being updated, retry")
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}
