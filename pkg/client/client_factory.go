package client

import (
	"fmt"
	"strings"

	"github.com/muffingang/go-interrogate-cli/pkg/client/anthropic"
	"github.com/muffingang/go-interrogate-cli/pkg/client/gemini"
	"github.com/muffingang/go-interrogate-cli/pkg/client/ollama"
	"github.com/muffingang/go-interrogate-cli/pkg/client/openai"
	"github.com/muffingang/go-interrogate-cli/pkg/generator"
)

// NewGenerator creates a persona generator for the requested backend.
// Each persona gets its own generator so models can differ per gang member.
func NewGenerator(backend, model string, maxTokens int) (generator.Generator, error) {
	switch strings.ToLower(backend) {
	case "ollama", "":
		return ollama.NewOllamaClient(model, maxTokens)
	case "anthropic":
		return anthropic.NewAnthropicClient(model, maxTokens)
	case "openai":
		return openai.NewOpenAIClient(model, maxTokens)
	case "gemini":
		return gemini.NewGeminiClient(model, maxTokens)
	default:
		return nil, fmt.Errorf("unsupported backend: %s (expected ollama, anthropic, openai, or gemini)", backend)
	}
}
