package services

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"alfredoptarigan/career-copilot/internal/config"
	"alfredoptarigan/career-copilot/internal/models"
)

const defaultClaudeModel = string(anthropic.ModelClaude3_7SonnetLatest)

// ClaudeProvider sends chat prompts through Anthropic's Messages API. SDK retries are
// disabled so that CompletionClient alone decides what gets retried.
type ClaudeProvider struct {
	client anthropic.Client
}

func NewClaudeProvider(cfg config.LLMConfig) (*ClaudeProvider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, &CompletionError{Kind: ErrKindUnauthorized, Provider: "claude", err: errors.New("LLM_API_KEY is not set")}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &ClaudeProvider{client: anthropic.NewClient(opts...)}, nil
}

func (cp *ClaudeProvider) Name() string {
	return "claude"
}

func (cp *ClaudeProvider) DefaultModel() string {
	return defaultClaudeModel
}

func (cp *ClaudeProvider) Send(ctx context.Context, req CompletionRequest) (string, error) {
	system, rest := splitSystem(req.Messages)

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(req.Model),
		MaxTokens:   int64(req.MaxTokens),
		Temperature: anthropic.Float(float64(req.Temperature)),
		Messages:    make([]anthropic.MessageParam, 0, len(rest)),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	for _, m := range rest {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == models.RoleAssistant {
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(block))
		} else {
			params.Messages = append(params.Messages, anthropic.NewUserMessage(block))
		}
	}

	response, err := cp.client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			cerr := classifyStatus(cp.Name(), apiErr.StatusCode, apiErr.RawJSON())
			cerr.err = err
			return "", cerr
		}
		return "", &CompletionError{Kind: ErrKindNetworkFailure, Provider: cp.Name(), err: err}
	}

	var parts []string
	for _, content := range response.Content {
		if content.Type == "text" {
			parts = append(parts, content.AsText().Text)
		}
	}
	return strings.Join(parts, ""), nil
}

var _ CompletionProvider = (*ClaudeProvider)(nil)
