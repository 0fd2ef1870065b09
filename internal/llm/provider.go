// Package llm defines the contract for the generation collaborators' model
// backend and provides an OpenAI-compatible HTTP implementation.
package llm

import "context"

// Request is a single completion request to a model backend.
type Request struct {
	System      string  `json:"system,omitempty"`
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
	JSONOutput  bool    `json:"json_output,omitempty"`
}

// Response carries the model's text output plus accounting metadata.
type Response struct {
	Content      string `json:"content"`
	Model        string `json:"model"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
}

// Provider is a pure request/response model backend. Implementations must be
// safe for concurrent use; each call is independent.
type Provider interface {
	Complete(ctx context.Context, req *Request) (*Response, error)
	Name() string
}
