package anthropic

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/muffingang/go-interrogate-cli/pkg/generator"
)

const defaultMaxTokens = 1024

// AnthropicClient handles persona replies through Claude models
type AnthropicClient struct {
	client    *anthropic.Client
	model     string
	maxTokens int
}

// NewAnthropicClient creates a new Anthropic-backed persona client
func NewAnthropicClient(model string, maxTokens int) (*AnthropicClient, error) {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
	}

	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
	)

	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	return &AnthropicClient{
		client:    &client,
		model:     model,
		maxTokens: maxTokens,
	}, nil
}

// ModelID returns the model name
func (c *AnthropicClient) ModelID() string {
	return c.model
}

// Generate sends the persona prompt to Claude and returns the reply text
func (c *AnthropicClient) Generate(ctx context.Context, req generator.Request) (string, error) {
	messages := make([]anthropic.MessageParam, 0, len(req.History)*2+1)
	for _, ex := range req.History {
		messages = append(messages,
			anthropic.NewUserMessage(anthropic.NewTextBlock(ex.Question)),
			anthropic.NewAssistantMessage(anthropic.NewTextBlock(ex.Answer)),
		)
	}
	messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(req.Question)))

	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(c.maxTokens),
		System: []anthropic.TextBlockParam{
			{Text: req.System},
		},
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("%w: anthropic: %v", generator.ErrUnavailable, err)
	}

	var content strings.Builder
	for _, block := range msg.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			content.WriteString(variant.Text)
		}
	}

	text := strings.TrimSpace(content.String())
	if text == "" {
		return "", fmt.Errorf("%w: empty reply from %s", generator.ErrUnavailable, c.model)
	}
	return text, nil
}
