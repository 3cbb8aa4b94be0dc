package openai

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"

	"github.com/muffingang/go-interrogate-cli/pkg/generator"
)

const defaultMaxTokens = 1024

// OpenAIClient handles persona replies through the chat completions API
type OpenAIClient struct {
	client    *openai.Client
	model     string
	maxTokens int
}

// NewOpenAIClient creates a new OpenAI-backed persona client.
// OPENAI_BASE_URL is honored for Azure and compatible endpoints.
func NewOpenAIClient(model string, maxTokens int) (*OpenAIClient, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	client := openai.NewClient(opts...)

	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	return &OpenAIClient{
		client:    &client,
		model:     model,
		maxTokens: maxTokens,
	}, nil
}

// ModelID returns the model name
func (c *OpenAIClient) ModelID() string {
	return c.model
}

// Generate sends the persona prompt to OpenAI and returns the reply text
func (c *OpenAIClient) Generate(ctx context.Context, req generator.Request) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.History)*2+2)
	messages = append(messages, openai.SystemMessage(req.System))
	for _, ex := range req.History {
		messages = append(messages,
			openai.UserMessage(ex.Question),
			openai.AssistantMessage(ex.Answer),
		)
	}
	messages = append(messages, openai.UserMessage(req.Question))

	completion, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages:            messages,
		Model:               shared.ChatModel(c.model),
		MaxCompletionTokens: openai.Int(int64(c.maxTokens)),
	})
	if err != nil {
		return "", fmt.Errorf("%w: openai: %v", generator.ErrUnavailable, err)
	}

	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices from %s", generator.ErrUnavailable, c.model)
	}

	text := strings.TrimSpace(completion.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("%w: empty reply from %s", generator.ErrUnavailable, c.model)
	}
	return text, nil
}
