package llm

import (
	"context"
	"encoding/json"
)

// Provider asks a model for one structured answer.
type Provider interface {
	// Generate sends req and returns the model's reply. When req.Schema is
	// set, Content is a JSON object that has already been validated
	// against it.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID names the model requests are sent to.
	ModelID() string
}

// Request is a single prompt. lexi only sends one user turn per request,
// but Messages keeps the shape every vendor API expects.
type Request struct {
	System   string
	Messages []Message

	// Schema asks the provider for JSON matching it, using the vendor's
	// structured output mode where one exists. Nil means free text.
	Schema *Schema

	MaxTokens int

	// Temperature in [0, 1]. Zero leaves the provider default.
	Temperature float64
}

// Message is one conversation turn.
type Message struct {
	Role    Role
	Content string
}

// Role is who sent a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema is a named JSON Schema document. Name doubles as the cache key for
// the compiled validator, so two schemas must not share one.
type Schema struct {
	Name        string
	Description string
	Definition  map[string]any
}

// Normalised values for Response.StopReason.
const (
	StopEnd       = "end"
	StopMaxTokens = "max_tokens"
	StopBlocked   = "blocked"
)

// Response is a successful reply.
type Response struct {
	Content    json.RawMessage
	Usage      Usage
	Model      string
	StopReason string
}

// Usage is the token count reported for one request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
