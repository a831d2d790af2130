package grader

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/SAP-F-2025/pte-scoring-service/internal/models"
)

const ProviderOpenAI = "openai"

// OpenAI grades through any OpenAI-compatible chat completion endpoint.
type OpenAI struct {
	api         *openai.Client
	model       string
	temperature float32
}

func NewOpenAI(baseURL, apiKey, model string) *OpenAI {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &OpenAI{
		api:         openai.NewClientWithConfig(config),
		model:       model,
		temperature: 0.1,
	}
}

func (o *OpenAI) Name() string { return ProviderOpenAI }

func (o *OpenAI) Grade(ctx context.Context, task Task) (*models.ProviderRawScore, error) {
	resp, err := o.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: BuildSystemPrompt(task)},
			{Role: openai.ChatMessageRoleUser, Content: BuildUserPrompt(task)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: o.temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai returned no choices")
	}

	model := resp.Model
	if model == "" {
		model = o.model
	}
	return decodeReply(resp.Choices[0].Message.Content, ProviderOpenAI, model)
}
