// Package llm provides a minimal client interface for text-generation models.
//
// The recommender uses generation for one thing only: pairwise relevance
// scoring of (query, assessment) pairs. Streaming and chat surfaces are
// deliberately absent.
package llm

import (
	"context"
)

// GenerateOptions configures a generation request.
type GenerateOptions struct {
	// Model specifies the model to use (e.g., "llama3.2", "mistral").
	Model string

	// SystemPrompt sets the system-level instructions for the model.
	SystemPrompt string

	// Temperature controls randomness (0.0 = deterministic scoring).
	Temperature float32

	// MaxTokens limits the maximum number of tokens in the response.
	MaxTokens int
}

// LLM defines the interface for text-generation clients.
type LLM interface {
	// Generate sends a prompt and returns the complete response. It blocks
	// until the full response is received or the context is done.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
}
