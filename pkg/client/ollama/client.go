package ollama

import (
	"context"
	"fmt"
	"strings"

	"github.com/muffingang/go-interrogate-cli/pkg/generator"
	"github.com/ollama/ollama/api"
)

const defaultMaxTokens = 1024

// OllamaClient drives one local Ollama model as a persona voice.
// Each persona gets its own client so the three gang members can run on
// different local models.
type OllamaClient struct {
	client    *api.Client
	model     string
	maxTokens int
}

// NewOllamaClient creates a client from the environment (OLLAMA_HOST etc.)
func NewOllamaClient(model string, maxTokens int) (*OllamaClient, error) {
	client, err := api.ClientFromEnvironment()
	if err != nil {
		return nil, fmt.Errorf("failed to create Ollama client: %w", err)
	}

	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	return &OllamaClient{
		client:    client,
		model:     model,
		maxTokens: maxTokens,
	}, nil
}

// ModelID returns the model name
func (c *OllamaClient) ModelID() string {
	return c.model
}

// Generate sends the persona prompt to Ollama and collects the streamed reply
func (c *OllamaClient) Generate(ctx context.Context, req generator.Request) (string, error) {
	messages := []api.Message{{Role: "system", Content: req.System}}
	for _, ex := range req.History {
		messages = append(messages,
			api.Message{Role: "user", Content: ex.Question},
			api.Message{Role: "assistant", Content: ex.Answer},
		)
	}
	messages = append(messages, api.Message{Role: "user", Content: req.Question})

	chatRequest := &api.ChatRequest{
		Model:    c.model,
		Messages: messages,
		Options: map[string]any{
			"temperature": 0.7,
			"num_predict": c.maxTokens,
		},
	}

	var reply strings.Builder
	err := c.client.Chat(ctx, chatRequest, func(resp api.ChatResponse) error {
		reply.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: ollama chat: %v", generator.ErrUnavailable, err)
	}

	text := strings.TrimSpace(reply.String())
	if text == "" {
		return "", fmt.Errorf("%w: empty reply from %s", generator.ErrUnavailable, c.model)
	}
	return text, nil
}
