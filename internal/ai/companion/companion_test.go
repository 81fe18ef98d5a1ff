package companion

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"journal-backend/internal/ai"
)

type fakeClient struct {
	response  string
	err       error
	fragments []string
	streamErr error
	midErr    error

	gotMessages []ai.Message
}

func (f *fakeClient) Complete(ctx context.Context, req ai.CompletionRequest) (string, error) {
	f.gotMessages = req.Messages
	return f.response, f.err
}

func (f *fakeClient) Stream(ctx context.Context, req ai.CompletionRequest) (<-chan ai.StreamEvent, error) {
	f.gotMessages = req.Messages
	if f.streamErr != nil {
		return nil, f.streamErr
	}
	out := make(chan ai.StreamEvent)
	go func() {
		defer close(out)
		for _, fr := range f.fragments {
			out <- ai.StreamEvent{Content: fr}
		}
		if f.midErr != nil {
			out <- ai.StreamEvent{Err: f.midErr}
		}
	}()
	return out, nil
}

func TestRespondForwardsHistoryInOrder(t *testing.T) {
	client := &fakeClient{response: "Hello there."}
	c := New(client)

	history := []Message{
		{Role: "user", Content: "first", Timestamp: time.Now()},
		{Role: "assistant", Content: "second", Timestamp: time.Now()},
		{Role: "user", Content: "third", Timestamp: time.Now()},
	}

	got := c.Respond(context.Background(), history, "")
	if got != "Hello there." {
		t.Fatalf("Respond = %q", got)
	}

	if len(client.gotMessages) != 4 {
		t.Fatalf("expected 4 forwarded messages, got %d", len(client.gotMessages))
	}
	if client.gotMessages[0].Role != "system" {
		t.Fatalf("expected system message first, got role %q", client.gotMessages[0].Role)
	}
	for i, want := range []string{"first", "second", "third"} {
		if client.gotMessages[i+1].Content != want {
			t.Fatalf("message %d = %q, want %q", i+1, client.gotMessages[i+1].Content, want)
		}
	}
}

func TestRespondEmbedsDiaryContext(t *testing.T) {
	client := &fakeClient{response: "ok"}
	c := New(client)

	c.Respond(context.Background(), []Message{{Role: "user", Content: "hi"}}, "[2026-08-29] A good day: walked in the park")

	if !strings.Contains(client.gotMessages[0].Content, "walked in the park") {
		t.Fatalf("expected diary context in system prompt, got %q", client.gotMessages[0].Content)
	}
}

func TestRespondTransportErrorReturnsFallback(t *testing.T) {
	client := &fakeClient{err: errors.New("connection reset")}
	c := New(client)

	got := c.Respond(context.Background(), []Message{{Role: "user", Content: "hi"}}, "")
	if got != FallbackReply {
		t.Fatalf("Respond = %q, want fallback", got)
	}
}

func TestRespondEmptyCompletionReturnsFallback(t *testing.T) {
	client := &fakeClient{response: "   "}
	c := New(client)

	got := c.Respond(context.Background(), []Message{{Role: "user", Content: "hi"}}, "")
	if got != FallbackReply {
		t.Fatalf("Respond = %q, want fallback", got)
	}
}

func TestRespondStreamYieldsFragmentsInOrder(t *testing.T) {
	client := &fakeClient{fragments: []string{"Hel", "lo ", "there"}}
	c := New(client)

	var got []string
	for fragment := range c.RespondStream(context.Background(), []Message{{Role: "user", Content: "hi"}}, "") {
		got = append(got, fragment)
	}

	if strings.Join(got, "") != "Hello there" {
		t.Fatalf("stream = %v", got)
	}
}

func TestRespondStreamFailureYieldsSingleFallbackFragment(t *testing.T) {
	client := &fakeClient{streamErr: errors.New("dial tcp: connection refused")}
	c := New(client)

	var got []string
	for fragment := range c.RespondStream(context.Background(), []Message{{Role: "user", Content: "hi"}}, "") {
		got = append(got, fragment)
	}

	if len(got) != 1 {
		t.Fatalf("expected exactly one fragment, got %d: %v", len(got), got)
	}
	if got[0] != FallbackReply {
		t.Fatalf("fragment = %q, want fallback", got[0])
	}
}

func TestRespondStreamMidStreamFailureAppendsFallback(t *testing.T) {
	client := &fakeClient{
		fragments: []string{"Hel", "lo"},
		midErr:    errors.New("unexpected EOF"),
	}
	c := New(client)

	var got []string
	for fragment := range c.RespondStream(context.Background(), []Message{{Role: "user", Content: "hi"}}, "") {
		got = append(got, fragment)
	}

	if len(got) != 3 {
		t.Fatalf("expected 3 fragments, got %d: %v", len(got), got)
	}
	if got[0] != "Hel" || got[1] != "lo" {
		t.Fatalf("content fragments = %v", got[:2])
	}
	if got[2] != FallbackReply {
		t.Fatalf("terminal fragment = %q, want fallback", got[2])
	}
}

func TestRespondStreamEmptyStreamYieldsFallback(t *testing.T) {
	client := &fakeClient{fragments: nil}
	c := New(client)

	var got []string
	for fragment := range c.RespondStream(context.Background(), []Message{{Role: "user", Content: "hi"}}, "") {
		got = append(got, fragment)
	}

	if len(got) != 1 || got[0] != FallbackReply {
		t.Fatalf("expected single fallback fragment, got %v", got)
	}
}
