package ai

import (
	"context"
	"errors"
)

// Message is one chat-completion message forwarded to the provider.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest captures everything a completion call needs.
type CompletionRequest struct {
	Messages    []Message
	Temperature float32
	MaxTokens   int
	// JSONOnly asks the provider to constrain output to a JSON object.
	JSONOnly bool
}

// StreamEvent is one item of a streaming completion: a content fragment, or
// the error that ended the stream. At most one event carries a non-nil Err
// and it is always the last event before the channel closes.
type StreamEvent struct {
	Content string
	Err     error
}

// Client abstracts the text-completion transport for analysis and chat.
type Client interface {
	// Complete performs a single-shot completion and returns the full text.
	Complete(ctx context.Context, req CompletionRequest) (string, error)
	// Stream performs a streaming completion. Events arrive on the returned
	// channel in order and the channel is closed when the stream ends. A
	// mid-stream transport failure is delivered as a final event with Err
	// set rather than a silent close.
	Stream(ctx context.Context, req CompletionRequest) (<-chan StreamEvent, error)
}

// ErrNotConfigured is returned by the placeholder client.
var ErrNotConfigured = errors.New("llm client not configured")

// PlaceholderClient is a stub implementation until provider wiring is added.
type PlaceholderClient struct{}

// Complete returns ErrNotConfigured.
func (PlaceholderClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	_ = ctx
	_ = req
	return "", ErrNotConfigured
}

// Stream returns ErrNotConfigured.
func (PlaceholderClient) Stream(ctx context.Context, req CompletionRequest) (<-chan StreamEvent, error) {
	_ = ctx
	_ = req
	return nil, ErrNotConfigured
}
