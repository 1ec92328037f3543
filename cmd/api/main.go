package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"alfredoptarigan/career-copilot/internal/config"
	"alfredoptarigan/career-copilot/internal/handlers"
	"alfredoptarigan/career-copilot/internal/repositories"
	"alfredoptarigan/career-copilot/internal/services"
)

// multipart framing on top of the file itself
const uploadOverhead = 1 << 20

func main() {
	cfg := config.Load()
	log := config.NewLogger(cfg.Log)
	log.Info("✅ Config loaded successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := config.InitDatabase(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("❌ Failed to initialize database")
	}

	appRepo := repositories.NewApplicationRepository(db)
	log.Info("✅ Repositories initialized successfully")

	sessions, err := services.NewSessionStore(ctx, cfg.Session, log)
	if err != nil {
		log.WithError(err).Fatal("❌ Failed to initialize session store")
	}

	renderer := services.NewPageRenderer(cfg.Ingestion.RenderScale)
	ingestor := services.NewIngestor(services.NewPDFBackend(renderer), cfg.Ingestion.MaxFileSize, log)

	provider, err := services.NewCompletionProvider(ctx, cfg.LLM)
	if err != nil {
		log.WithError(err).Fatal("❌ Failed to initialize completion provider")
	}
	completion := services.NewCompletionClient(provider, cfg.LLM, log)
	log.WithField("provider", provider.Name()).Info("✅ Completion client initialized")

	generator := services.NewGeneratorService(
		appRepo,
		sessions,
		completion,
		services.NewPromptBuilder(cfg.Prompt),
		log,
	)

	worker := services.NewWorker(appRepo, generator, cfg.Worker, log)
	worker.Start(ctx)

	routes := handlers.Handlers{
		Sessions:        handlers.NewSessionHandler(sessions, log),
		Resumes:         handlers.NewResumeHandler(sessions, ingestor, log),
		JobDescriptions: handlers.NewJobDescriptionHandler(sessions, log),
		Applications:    handlers.NewApplicationHandler(appRepo, sessions, worker, log),
		Results:         handlers.NewResultHandler(appRepo),
	}
	log.Info("✅ Handlers initialized")

	app := fiber.New(fiber.Config{
		AppName:      "Career Copilot API",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		BodyLimit:    int(ingestor.MaxFileSize()) + uploadOverhead,
		ErrorHandler: handlers.ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
		Output:     log.Writer(),
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	routes.Register(app.Group("/api/v1"))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message":   "Career Copilot API",
			"version":   "1.0.0",
			"endpoints": handlers.Endpoints(),
		})
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Info("🛑 Shutting down server...")
		worker.Stop()
		cancel()
		if err := app.Shutdown(); err != nil {
			log.WithError(err).Error("❌ Server forced to shutdown")
		}
	}()

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Infof("🚀 Server starting on %s", addr)

	if err := app.Listen(addr); err != nil {
		log.WithError(err).Fatal("❌ Failed to start server")
	}
}
