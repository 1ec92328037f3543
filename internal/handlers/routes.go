package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Sessions        *SessionHandler
	Resumes         *ResumeHandler
	JobDescriptions *JobDescriptionHandler
	Applications    *ApplicationHandler
	Results         *ResultHandler
}

// Register mounts the wizard API on router, normally the /api/v1 group.
func (h Handlers) Register(router fiber.Router) {
	router.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now(),
		})
	})

	sessions := router.Group("/sessions")
	sessions.Post("/", h.Sessions.HandleCreate)
	sessions.Get("/:id", h.Sessions.HandleGet)
	sessions.Delete("/:id", h.Sessions.HandleDelete)

	sessions.Post("/:id/resume", h.Resumes.HandleUpload)
	sessions.Delete("/:id/resume", h.Resumes.HandleReset)
	sessions.Get("/:id/resume/pages/:page", h.Resumes.HandlePage)

	sessions.Put("/:id/job-description", h.JobDescriptions.HandlePut)

	sessions.Post("/:id/applications", h.Applications.HandleCreate)
	router.Get("/applications/:id", h.Results.HandleGetResult)
}

func Endpoints() []string {
	return []string{
		"POST /api/v1/sessions",
		"GET /api/v1/sessions/:id",
		"DELETE /api/v1/sessions/:id",
		"POST /api/v1/sessions/:id/resume",
		"DELETE /api/v1/sessions/:id/resume",
		"GET /api/v1/sessions/:id/resume/pages/:page",
		"PUT /api/v1/sessions/:id/job-description",
		"POST /api/v1/sessions/:id/applications",
		"GET /api/v1/applications/:id",
	}
}
