package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"alfredoptarigan/career-copilot/internal/config"
	"alfredoptarigan/career-copilot/internal/models"
)

const defaultGeminiModel = "gemini-2.5-flash"

// GeminiProvider sends chat prompts through the Gemini API.
type GeminiProvider struct {
	client  *genai.Client
	timeout time.Duration
}

func NewGeminiProvider(ctx context.Context, cfg config.LLMConfig) (*GeminiProvider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, &CompletionError{Kind: ErrKindUnauthorized, Provider: "gemini", err: errors.New("LLM_API_KEY is not set")}
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiProvider{client: client, timeout: cfg.Timeout}, nil
}

func (g *GeminiProvider) Name() string {
	return "gemini"
}

func (g *GeminiProvider) DefaultModel() string {
	return defaultGeminiModel
}

func (g *GeminiProvider) Send(ctx context.Context, req CompletionRequest) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	system, rest := splitSystem(req.Messages)

	temperature := req.Temperature
	genCfg := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: int32(req.MaxTokens),
	}
	if system != "" {
		genCfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	contents := make([]*genai.Content, 0, len(rest))
	for _, m := range rest {
		var role genai.Role = genai.RoleUser
		if m.Role == models.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}

	resp, err := g.client.Models.GenerateContent(ctx, req.Model, contents, genCfg)
	if err != nil {
		return "", g.classify(err)
	}
	if resp == nil {
		return "", nil
	}

	return resp.Text(), nil
}

func (g *GeminiProvider) classify(err error) *CompletionError {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code != 0 {
		cerr := classifyStatus(g.Name(), apiErr.Code, apiErr.Message)
		cerr.err = err
		return cerr
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr.Code != 0 {
		cerr := classifyStatus(g.Name(), apiErrPtr.Code, apiErrPtr.Message)
		cerr.err = err
		return cerr
	}
	return &CompletionError{Kind: ErrKindNetworkFailure, Provider: g.Name(), err: err}
}

var _ CompletionProvider = (*GeminiProvider)(nil)
