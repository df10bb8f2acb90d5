package advisor

import (
	"context"
	"strings"

	"github.com/metalagman/taskflow/internal/advisor/openaiapi"
)

const suggestionInstructions = `Respond with a single JSON object and nothing else.
Shape: {"description": string, "priority": "low" | "medium" | "high", "tags": [string]}.`

type openAIBackend struct {
	client *openaiapi.Client
}

func newOpenAIBackend(cfg Config, apiKey string) (*openAIBackend, error) {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultOpenAIModel
	}
	client, err := openaiapi.NewClient(openaiapi.Config{
		Model:      model,
		BaseURL:    cfg.BaseURL,
		APIKey:     apiKey,
		Timeout:    cfg.Timeout,
		HTTPClient: cfg.HTTPClient,
	})
	if err != nil {
		return nil, err
	}
	return &openAIBackend{client: client}, nil
}

func (o *openAIBackend) name() string { return ProviderOpenAI }

func (o *openAIBackend) generateSuggestion(ctx context.Context, prompt string) (string, error) {
	return o.client.Complete(ctx, openaiapi.CompletionRequest{
		Instructions: suggestionInstructions,
		Input:        prompt,
	})
}

func (o *openAIBackend) generateText(ctx context.Context, prompt string) (string, error) {
	return o.client.Complete(ctx, openaiapi.CompletionRequest{Input: prompt})
}
