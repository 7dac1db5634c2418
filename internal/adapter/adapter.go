// Package adapter provides a unified interface for LLM providers.
package adapter

import (
	"context"
	"fmt"
	"strings"
)

// Provider name constants.
const (
	ProviderClaude = "claude"
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// DefaultOllamaHost is used when no Ollama host is configured.
const DefaultOllamaHost = "http://localhost:11434"

// StreamChunk is a single token or error delivered during streaming.
type StreamChunk struct {
	Text  string
	Error error
}

// CompletionRequest holds the parameters for a completion call.
type CompletionRequest struct {
	SystemPrompt string
	Context      string // few-shot examples placed ahead of the user message
	UserMessage  string
	Model        string
	MaxTokens    int
	Temperature  float64
	Stream       bool
}

// ModelInfo describes the capabilities of a model.
type ModelInfo struct {
	Name              string
	Provider          string
	MaxContextWindow  int
	SupportsStreaming bool
}

// LLMAdapter is the common interface all provider adapters implement.
type LLMAdapter interface {
	// Complete sends a prompt and streams the response.
	Complete(ctx context.Context, req CompletionRequest) (<-chan StreamChunk, error)

	// Info returns metadata about the adapter/model.
	Info() ModelInfo
}

// New constructs the LLMAdapter for the named provider.
//
//   - provider: "claude", "openai", "ollama"
//   - model: default model for requests that do not name one
//   - apiKey: provider API key (empty = read from env in the concrete adapter)
//   - baseURL: API endpoint override; for Ollama this is the server host
func New(provider, model, apiKey, baseURL string) (LLMAdapter, error) {
	switch provider {
	case ProviderClaude:
		return NewClaude(apiKey, model, baseURL), nil
	case ProviderOpenAI:
		return NewOpenAI(apiKey, model, baseURL), nil
	case ProviderOllama:
		host := baseURL
		if host == "" {
			host = DefaultOllamaHost
		}
		return NewOllama(host, model), nil
	default:
		return nil, fmt.Errorf("adapter: unknown provider %q; valid providers: claude, openai, ollama", provider)
	}
}

// send delivers c on ch unless ctx is done first. It reports whether c was
// delivered; producers stop once it returns false.
func send(ctx context.Context, ch chan<- StreamChunk, c StreamChunk) bool {
	select {
	case ch <- c:
		return true
	case <-ctx.Done():
		return false
	}
}

// Collect drains a completion stream into a single string.
func Collect(ctx context.Context, stream <-chan StreamChunk) (string, error) {
	var sb strings.Builder
	for {
		select {
		case <-ctx.Done():
			return sb.String(), ctx.Err()
		case chunk, ok := <-stream:
			if !ok {
				return sb.String(), nil
			}
			if chunk.Error != nil {
				return sb.String(), chunk.Error
			}
			sb.WriteString(chunk.Text)
		}
	}
}

// Complete runs a non-streaming completion and returns the full text.
func Complete(ctx context.Context, llm LLMAdapter, req CompletionRequest) (string, error) {
	req.Stream = false
	stream, err := llm.Complete(ctx, req)
	if err != nil {
		return "", err
	}
	return Collect(ctx, stream)
}

func userContent(req CompletionRequest) string {
	if req.Context == "" {
		return req.UserMessage
	}
	return fmt.Sprintf("<examples>\n%s\n</examples>\n\n%s", req.Context, req.UserMessage)
}
