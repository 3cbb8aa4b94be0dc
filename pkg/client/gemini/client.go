package gemini

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/muffingang/go-interrogate-cli/pkg/generator"
	"google.golang.org/genai"
)

const defaultMaxTokens = 1024

// GeminiClient handles persona replies through the Gemini API
type GeminiClient struct {
	client    *genai.Client
	model     string
	maxTokens int
}

// NewGeminiClient creates a new Gemini-backed persona client
func NewGeminiClient(model string, maxTokens int) (*GeminiClient, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	return &GeminiClient{
		client:    client,
		model:     model,
		maxTokens: maxTokens,
	}, nil
}

// ModelID returns the model name
func (c *GeminiClient) ModelID() string {
	return c.model
}

// Generate sends the persona prompt to Gemini and returns the reply text
func (c *GeminiClient) Generate(ctx context.Context, req generator.Request) (string, error) {
	contents := make([]*genai.Content, 0, len(req.History)*2+1)
	for _, ex := range req.History {
		contents = append(contents,
			genai.NewContentFromText(ex.Question, genai.RoleUser),
			genai.NewContentFromText(ex.Answer, genai.RoleModel),
		)
	}
	contents = append(contents, genai.NewContentFromText(req.Question, genai.RoleUser))

	config := &genai.GenerateContentConfig{
		MaxOutputTokens:   int32(c.maxTokens),
		SystemInstruction: genai.NewContentFromText(req.System, genai.RoleUser),
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("%w: gemini: %v", generator.ErrUnavailable, err)
	}

	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no candidates from %s", generator.ErrUnavailable, c.model)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("%w: empty reply from %s", generator.ErrUnavailable, c.model)
	}
	return text, nil
}
