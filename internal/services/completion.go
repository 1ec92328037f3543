package services

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"alfredoptarigan/career-copilot/internal/config"
	"alfredoptarigan/career-copilot/internal/models"
)

const (
	DefaultRateLimitBackoff = 3 * time.Second
	DefaultRateLimitRetries = 3
)

// CallSettings are fixed per call site. Empty fields fall back to the client defaults; a nil
// Temperature means unset, so 0 can still be requested explicitly.
type CallSettings struct {
	Model       string
	Temperature *float32
	MaxTokens   int
}

type CompletionRequest struct {
	Messages    []models.PromptMessage
	Model       string
	Temperature float32
	MaxTokens   int
}

// CompletionProvider performs exactly one request. Failures must be *CompletionError.
type CompletionProvider interface {
	Name() string
	DefaultModel() string
	Send(ctx context.Context, req CompletionRequest) (string, error)
}

type RetryPolicy struct {
	Backoff    time.Duration
	MaxRetries int
}

// Completer is what prompt consumers depend on.
type Completer interface {
	Complete(ctx context.Context, messages []models.PromptMessage, settings CallSettings) (string, error)
}

// CompletionClient wraps a provider with the rate-limit retry policy. Only RateLimited
// failures are retried; every call is independent.
type CompletionClient struct {
	provider CompletionProvider
	policy   RetryPolicy
	limiter  *rate.Limiter
	defaults CompletionRequest
	logger   *logrus.Logger
}

func NewCompletionClient(provider CompletionProvider, cfg config.LLMConfig, logger *logrus.Logger) *CompletionClient {
	policy := RetryPolicy{
		Backoff:    cfg.RateLimitBackoff,
		MaxRetries: cfg.RateLimitRetries,
	}
	if policy.Backoff <= 0 {
		policy.Backoff = DefaultRateLimitBackoff
	}
	if policy.MaxRetries < 0 {
		policy.MaxRetries = 0
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), 1)
	}

	model := cfg.Model
	if model == "" {
		model = provider.DefaultModel()
	}

	return &CompletionClient{
		provider: provider,
		policy:   policy,
		limiter:  limiter,
		defaults: CompletionRequest{
			Model:       model,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
		},
		logger: logger,
	}
}

func (c *CompletionClient) Complete(ctx context.Context, messages []models.PromptMessage, settings CallSettings) (string, error) {
	req := c.buildRequest(messages, settings)
	log := c.logger.WithFields(logrus.Fields{
		"provider": c.provider.Name(),
		"model":    req.Model,
	})

	start := time.Now()
	attempts := 0

	operation := func() (string, error) {
		attempts++
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return "", backoff.Permanent(&CompletionError{Kind: ErrKindNetworkFailure, Provider: c.provider.Name(), err: err})
			}
		}

		text, err := c.provider.Send(ctx, req)
		if err == nil {
			return text, nil
		}
		if errors.Is(err, ErrRateLimited) {
			return "", err
		}
		return "", backoff.Permanent(err)
	}

	text, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewConstantBackOff(c.policy.Backoff)),
		backoff.WithMaxTries(uint(c.policy.MaxRetries+1)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, next time.Duration) {
			log.WithFields(logrus.Fields{
				"attempt": attempts,
				"wait":    next,
			}).Warn("⚠️ Rate limited, retrying")
		}),
	)
	if err != nil {
		cerr := c.normalizeError(err)
		log.WithError(cerr).WithField("attempts", attempts).Error("❌ Completion failed")
		return "", cerr
	}

	fields := logrus.Fields{
		"attempts": attempts,
		"duration": time.Since(start),
		"chars":    len(text),
	}
	if text == "" {
		log.WithFields(fields).Warn("⚠️ Completion returned no content")
	} else {
		log.WithFields(fields).Info("✅ Completion received")
	}

	return text, nil
}

func (c *CompletionClient) buildRequest(messages []models.PromptMessage, settings CallSettings) CompletionRequest {
	req := CompletionRequest{
		Messages:    messages,
		Model:       settings.Model,
		Temperature: c.defaults.Temperature,
		MaxTokens:   settings.MaxTokens,
	}
	if req.Model == "" {
		req.Model = c.defaults.Model
	}
	if settings.Temperature != nil {
		req.Temperature = *settings.Temperature
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = c.defaults.MaxTokens
	}
	return req
}

// normalizeError strips backoff wrappers and turns context errors into NetworkFailure.
func (c *CompletionClient) normalizeError(err error) *CompletionError {
	var cerr *CompletionError
	if errors.As(err, &cerr) {
		return cerr
	}
	return &CompletionError{Kind: ErrKindNetworkFailure, Provider: c.provider.Name(), err: err}
}
