package grader

import (
	"context"
	"fmt"

	"github.com/yankeguo/zhipu"

	"github.com/SAP-F-2025/pte-scoring-service/internal/models"
)

const ProviderZhipu = "zhipu"

// Zhipu grades with a GLM chat model.
type Zhipu struct {
	client      *zhipu.Client
	model       string
	temperature float64
}

func NewZhipu(apiKey, model string) (*Zhipu, error) {
	client, err := zhipu.NewClient(zhipu.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create zhipu client: %w", err)
	}
	if model == "" {
		model = "glm-4-flash"
	}
	return &Zhipu{client: client, model: model, temperature: 0.1}, nil
}

func (z *Zhipu) Name() string { return ProviderZhipu }

func (z *Zhipu) Grade(ctx context.Context, task Task) (*models.ProviderRawScore, error) {
	completion, err := z.client.ChatCompletion(z.model).
		AddMessage(zhipu.ChatCompletionMessage{
			Role:    zhipu.RoleSystem,
			Content: BuildSystemPrompt(task),
		}).
		AddMessage(zhipu.ChatCompletionMessage{
			Role:    zhipu.RoleUser,
			Content: BuildUserPrompt(task),
		}).
		SetTemperature(z.temperature).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("zhipu chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("zhipu returned no choices")
	}
	return decodeReply(completion.Choices[0].Message.Content, ProviderZhipu, z.model)
}
