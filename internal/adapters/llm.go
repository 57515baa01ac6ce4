package adapters

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/groupguard/internal/adapters/llm"
)

// LLM defines the interface for language model operations
type LLM interface {
	// ChatCompletion performs a chat completion request
	ChatCompletion(ctx context.Context, messages []llm.ChatCompletionMessage) (llm.ChatCompletionResponse, error)
}

const (
	TypeOpenAI = "openai"
	TypeGemini = "gemini"
)

// Factory builds an LLM client for one backend.
type Factory func(apiKey, model, baseURL string, logger *log.Entry) (LLM, error)

var factories = map[string]Factory{}

// Register makes a backend available to New. Backends register themselves from main.
func Register(kind string, factory Factory) {
	factories[kind] = factory
}

func New(kind, apiKey, model, baseURL string, logger *log.Entry) (LLM, error) {
	factory, ok := factories[kind]
	if !ok {
		return nil, fmt.Errorf("unknown llm type %q", kind)
	}
	return factory(apiKey, model, baseURL, logger)
}
