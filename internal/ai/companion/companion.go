package companion

import (
	"context"
	"strings"
	"time"

	"journal-backend/internal/ai"
	"journal-backend/internal/shared/telemetry"
)

const (
	chatTemperature = 0.7
	chatMaxTokens   = 800

	// FallbackReply is the in-character message shown when the companion
	// cannot reach the completion transport. Raw errors never surface to
	// the user.
	FallbackReply = "I apologize, but I'm having difficulty connecting right now. Please try again in a moment."
)

// Message is one turn of companion conversation history. Order is
// chronological and preserved verbatim when forwarded to the transport;
// timestamps are never forwarded.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

const personaPrompt = `You are Sage, a warm and thoughtful companion inside a personal journaling app. ` +
	`You listen closely, reflect feelings back gently, and ask small questions that help the writer ` +
	`explore their own thoughts. Keep replies conversational and reasonably short.`

// Companion converses with the user, optionally grounded in recent diary
// context. Transport failures degrade to FallbackReply; no error crosses
// this boundary.
type Companion struct {
	Client ai.Client
}

// New constructs a Companion over the given completion client.
func New(client ai.Client) *Companion {
	return &Companion{Client: client}
}

// Respond returns a single-shot reply to the conversation. History order is
// forwarded unchanged; diaryContext, when non-empty, grounds the system
// prompt in the user's recent entries.
func (c *Companion) Respond(ctx context.Context, history []Message, diaryContext string) string {
	if c == nil || c.Client == nil {
		return FallbackReply
	}

	reply, err := c.Client.Complete(ctx, ai.CompletionRequest{
		Messages:    buildMessages(history, diaryContext),
		Temperature: chatTemperature,
		MaxTokens:   chatMaxTokens,
	})
	if err != nil {
		telemetry.Error("companion.respond", map[string]any{"error": err.Error()})
		return FallbackReply
	}
	if strings.TrimSpace(reply) == "" {
		telemetry.Error("companion.respond", map[string]any{"error": "empty completion"})
		return FallbackReply
	}
	return reply
}

// RespondStream streams reply fragments in order. The returned channel is
// always non-nil and finite. Whether the transport fails before the first
// fragment or mid-stream, the channel carries exactly one fallback fragment
// after any content already delivered, then closes.
func (c *Companion) RespondStream(ctx context.Context, history []Message, diaryContext string) <-chan string {
	out := make(chan string, 1)

	if c == nil || c.Client == nil {
		out <- FallbackReply
		close(out)
		return out
	}

	events, err := c.Client.Stream(ctx, ai.CompletionRequest{
		Messages:    buildMessages(history, diaryContext),
		Temperature: chatTemperature,
		MaxTokens:   chatMaxTokens,
	})
	if err != nil {
		telemetry.Error("companion.respond_stream", map[string]any{"error": err.Error()})
		out <- FallbackReply
		close(out)
		return out
	}

	go func() {
		defer close(out)
		yielded := false
		for ev := range events {
			if ev.Err != nil {
				telemetry.Error("companion.respond_stream", map[string]any{"error": ev.Err.Error()})
				select {
				case out <- FallbackReply:
				case <-ctx.Done():
				}
				return
			}
			yielded = true
			select {
			case out <- ev.Content:
			case <-ctx.Done():
				return
			}
		}
		if !yielded {
			// Stream ended without content; keep the companion in character.
			out <- FallbackReply
		}
	}()
	return out
}

func buildMessages(history []Message, diaryContext string) []ai.Message {
	system := personaPrompt
	if strings.TrimSpace(diaryContext) != "" {
		system += "\n\nRecent diary entries from the writer, for context:\n" + diaryContext
	}

	messages := make([]ai.Message, 0, len(history)+1)
	messages = append(messages, ai.Message{Role: "system", Content: system})
	for _, m := range history {
		messages = append(messages, ai.Message{Role: m.Role, Content: m.Content})
	}
	return messages
}
