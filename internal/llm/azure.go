package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/azure"

	"github.com/shaiso/Surfer/internal/domain"
)

// azureChat — адаптер Azure OpenAI через openai-go.
type azureChat struct {
	client openai.Client
	model  string
}

func (c *azureChat) Provider() domain.Provider { return domain.ProviderAzure }
func (c *azureChat) Model() string             { return c.model }

func (c *azureChat) Chat(ctx context.Context, messages []Message) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)),
	}
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			params.Messages = append(params.Messages, openai.SystemMessage(m.Content))
		case RoleAssistant:
			params.Messages = append(params.Messages, openai.AssistantMessage(m.Content))
		default:
			params.Messages = append(params.Messages, openai.UserMessage(m.Content))
		}
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("azure chat: %w", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("azure chat: %w", ErrEmptyResponse)
	}
	return resp.Choices[0].Message.Content, nil
}

func buildAzure(_ context.Context, cfg domain.LLMConfig) (ChatCapability, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	endpoint := azureEndpoint(cfg)
	if endpoint == "" {
		return nil, ErrMissingEndpoint
	}

	client := openai.NewClient(
		azure.WithEndpoint(endpoint, AzureAPIVersion),
		azure.WithAPIKey(cfg.APIKey),
	)
	return &azureChat{client: client, model: cfg.Model}, nil
}
