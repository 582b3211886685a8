package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// TextGenerator produces a JSON document for a prompt.
type TextGenerator interface {
	GenerateJSON(ctx context.Context, prompt string) (string, error)
}

// GeminiClient walks a list of models in order, moving to the next one when
// a model is rate limited or the backend fails.
type GeminiClient struct {
	client *genai.Client
	models []string
}

func NewGeminiClient(ctx context.Context, apiKey string, models []string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is empty")
	}
	if len(models) == 0 {
		return nil, errors.New("no gemini models configured")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiClient{client: client, models: models}, nil
}

func (g *GeminiClient) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0.2),
	}

	var lastErr error
	for _, model := range g.models {
		resp, err := g.client.Models.GenerateContent(ctx, model, genai.Text(prompt), config)
		if err != nil {
			if !retryableGeminiError(err) {
				return "", err
			}
			zap.L().Warn("[GEMINI] model unavailable, trying next",
				zap.String("model", model), zap.Error(err))
			lastErr = err
			continue
		}

		text := stripCodeFence(resp.Text())
		if text == "" {
			lastErr = fmt.Errorf("model %s returned an empty response", model)
			continue
		}
		return text, nil
	}
	return "", fmt.Errorf("%w: %v", ErrAIUnavailable, lastErr)
}

func retryableGeminiError(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError
	}
	return false
}

// stripCodeFence removes a ```json ... ``` wrapper some models add even in
// JSON mode.
func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimPrefix(text, "json")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
