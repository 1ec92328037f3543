package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"alfredoptarigan/career-copilot/internal/models"
	"alfredoptarigan/career-copilot/internal/repositories"
)

var (
	ErrSessionExpired = errors.New("session expired before generation started")
	ErrInputsMissing  = errors.New("no inputs were captured for this application")
	ErrResumeMissing  = errors.New("session has no resume text")
	ErrJobDescMissing = errors.New("session has no job description")
)

type GeneratorService interface {
	GenerateApplication(ctx context.Context, appID uuid.UUID) error
}

type generatorService struct {
	appRepo       repositories.ApplicationRepository
	sessions      SessionStore
	completer     Completer
	promptBuilder *PromptBuilder
	logger        *logrus.Logger
}

func NewGeneratorService(
	appRepo repositories.ApplicationRepository,
	sessions SessionStore,
	completer Completer,
	promptBuilder *PromptBuilder,
	logger *logrus.Logger,
) GeneratorService {
	return &generatorService{
		appRepo:       appRepo,
		sessions:      sessions,
		completer:     completer,
		promptBuilder: promptBuilder,
		logger:        logger,
	}
}

// GenerateApplication runs the three completions concurrently from the inputs captured when the
// application was queued. Each one is independent: a failure in one does not discard the others,
// but it does mark the application failed. The inputs live on the session, so a job whose
// session has expired fails with ErrSessionExpired.
func (g *generatorService) GenerateApplication(ctx context.Context, appID uuid.UUID) error {
	log := g.logger.WithField("application_id", appID)

	if err := g.appRepo.UpdateStatus(appID, models.StatusProcessing); err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}

	log.Info("🔄 Starting generation")

	app, err := g.appRepo.FindByID(appID)
	if err != nil {
		g.appRepo.UpdateError(appID, err.Error())
		return fmt.Errorf("failed to get application: %w", err)
	}

	resume, jobDescription, err := g.loadInputs(ctx, app.SessionID, appID)
	if err != nil {
		g.appRepo.UpdateError(appID, err.Error())
		return err
	}
	defer g.releaseInputs(ctx, app.SessionID, appID)

	var (
		tailored, cover, interviewRaw       string
		tailoredErr, coverErr, interviewErr error
	)

	var eg errgroup.Group
	eg.Go(func() error {
		log.Info("🤖 Tailoring resume...")
		tailored, tailoredErr = g.completer.Complete(ctx, g.promptBuilder.BuildResumePrompt(resume, jobDescription), CallSettings{})
		return tailoredErr
	})
	eg.Go(func() error {
		log.Info("🤖 Writing cover letter...")
		cover, coverErr = g.completer.Complete(ctx, g.promptBuilder.BuildCoverLetterPrompt(resume, jobDescription), CallSettings{})
		return coverErr
	})
	eg.Go(func() error {
		log.Info("🤖 Preparing interview questions...")
		interviewRaw, interviewErr = g.completer.Complete(ctx, g.promptBuilder.BuildInterviewQuestionsPrompt(resume, jobDescription), CallSettings{})
		return interviewErr
	})
	// Each goroutine records its own error, so Wait only reports whether any of them failed.
	if err := eg.Wait(); err != nil {
		log.WithError(err).Warn("⚠️ At least one completion failed")
	}

	update := &repositories.ApplicationUpdateData{}
	var failures []string

	if tailoredErr == nil {
		update.TailoredResume = &tailored
	} else {
		failures = append(failures, "tailored resume: "+tailoredErr.Error())
	}

	if coverErr == nil {
		update.CoverLetter = &cover
	} else {
		failures = append(failures, "cover letter: "+coverErr.Error())
	}

	if interviewErr == nil {
		parsed := ParseInterviewQuestionsResult(interviewRaw)
		if parsed.FallbackUsed {
			log.WithError(parsed.Err).Warn("⚠️ Interview response could not be parsed, using fallback questions")
		}
		update.InterviewQuestions = parsed.Questions
		update.InterviewFallbackUsed = parsed.FallbackUsed
	} else {
		failures = append(failures, "interview questions: "+interviewErr.Error())
	}

	if len(failures) > 0 {
		msg := strings.Join(failures, "; ")
		update.ErrorMessage = &msg
	}

	log.Info("💾 Saving generated material...")
	if err := g.appRepo.UpdateResult(appID, update); err != nil {
		return fmt.Errorf("failed to save results: %w", err)
	}

	if err := errors.Join(tailoredErr, coverErr, interviewErr); err != nil {
		return fmt.Errorf("generation incomplete: %w", err)
	}

	log.Info("✅ Generation completed")
	return nil
}

func (g *generatorService) loadInputs(ctx context.Context, sessionID, appID uuid.UUID) (string, string, error) {
	session, err := g.sessions.Get(ctx, sessionID)
	if errors.Is(err, ErrSessionNotFound) {
		return "", "", ErrSessionExpired
	}
	if err != nil {
		return "", "", fmt.Errorf("failed to load session: %w", err)
	}

	inputs, ok := session.Pending[appID]
	if !ok {
		return "", "", ErrInputsMissing
	}
	if strings.TrimSpace(inputs.ResumeText) == "" {
		return "", "", ErrResumeMissing
	}
	if strings.TrimSpace(inputs.JobDescription) == "" {
		return "", "", ErrJobDescMissing
	}
	return inputs.ResumeText, inputs.JobDescription, nil
}

// releaseInputs drops the captured inputs once the application has a result.
func (g *generatorService) releaseInputs(ctx context.Context, sessionID, appID uuid.UUID) {
	_, err := g.sessions.Update(ctx, sessionID, func(s *models.Session) error {
		delete(s.Pending, appID)
		return nil
	})
	if err != nil && !errors.Is(err, ErrSessionNotFound) {
		g.logger.WithError(err).WithField("application_id", appID).Warn("⚠️ Failed to release generation inputs")
	}
}
