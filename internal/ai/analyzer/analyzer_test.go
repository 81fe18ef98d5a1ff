package analyzer

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"journal-backend/internal/ai"
)

type fakeClient struct {
	response string
	err      error
}

func (f *fakeClient) Complete(ctx context.Context, req ai.CompletionRequest) (string, error) {
	return f.response, f.err
}

func (f *fakeClient) Stream(ctx context.Context, req ai.CompletionRequest) (<-chan ai.StreamEvent, error) {
	return nil, errors.New("not used")
}

func TestAnalyzeValidResponse(t *testing.T) {
	client := &fakeClient{response: `{"mood":"happy","sentiment":0.8,"emotions":["joyful","grateful"],"tags":["outdoors","nature"],"summary":"A joyful day outdoors."}`}
	a := New(client)

	got := a.Analyze(context.Background(), "I had a wonderful day at the park.")

	want := EmotionAnalysis{
		Mood:      "happy",
		Sentiment: 0.8,
		Emotions:  []string{"joyful", "grateful"},
		Tags:      []string{"outdoors", "nature"},
		Summary:   "A joyful day outdoors.",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Analyze = %+v, want %+v", got, want)
	}
}

func TestAnalyzeClampsAndTruncates(t *testing.T) {
	client := &fakeClient{response: `{"mood":"happy","sentiment":2.5,"emotions":["a","b","c","d"],"tags":["x"],"summary":"s"}`}
	a := New(client)

	got := a.Analyze(context.Background(), "text")

	if got.Sentiment != 1 {
		t.Fatalf("expected sentiment clamped to 1, got %v", got.Sentiment)
	}
	if !reflect.DeepEqual(got.Emotions, []string{"a", "b", "c"}) {
		t.Fatalf("expected emotions truncated to 3, got %v", got.Emotions)
	}
	if !reflect.DeepEqual(got.Tags, []string{"x"}) {
		t.Fatalf("expected tags unchanged, got %v", got.Tags)
	}
}

func TestAnalyzeMalformedJSONReturnsFallback(t *testing.T) {
	client := &fakeClient{response: `not json at all`}
	a := New(client)

	got := a.Analyze(context.Background(), "text")

	if !reflect.DeepEqual(got, Fallback()) {
		t.Fatalf("expected exact fallback, got %+v", got)
	}
}

func TestAnalyzeTransportErrorReturnsFallback(t *testing.T) {
	client := &fakeClient{err: errors.New("connection refused")}
	a := New(client)

	got := a.Analyze(context.Background(), "text")

	if !reflect.DeepEqual(got, Fallback()) {
		t.Fatalf("expected exact fallback, got %+v", got)
	}
}

func TestAnalyzeMissingTagsDefaultsToEmpty(t *testing.T) {
	client := &fakeClient{response: `{"mood":"calm","sentiment":0.2,"emotions":["serene"],"summary":"A calm day."}`}
	a := New(client)

	got := a.Analyze(context.Background(), "text")

	if got.Tags == nil || len(got.Tags) != 0 {
		t.Fatalf("expected empty tags slice, got %v", got.Tags)
	}
	if got.Mood != "calm" {
		t.Fatalf("expected mood preserved, got %q", got.Mood)
	}
}

func TestSanitizeBounds(t *testing.T) {
	tests := []struct {
		name string
		in   EmotionAnalysis
		want EmotionAnalysis
	}{
		{
			name: "empty input gets defaults",
			in:   EmotionAnalysis{},
			want: EmotionAnalysis{Mood: "neutral", Sentiment: 0, Emotions: []string{}, Tags: []string{}, Summary: fallbackSummary},
		},
		{
			name: "negative sentiment clamped",
			in:   EmotionAnalysis{Mood: "sad", Sentiment: -3, Emotions: []string{"down"}, Tags: []string{"hard"}, Summary: "s"},
			want: EmotionAnalysis{Mood: "sad", Sentiment: -1, Emotions: []string{"down"}, Tags: []string{"hard"}, Summary: "s"},
		},
		{
			name: "tags truncated to five",
			in:   EmotionAnalysis{Mood: "busy", Sentiment: 0.1, Emotions: []string{"a"}, Tags: []string{"1", "2", "3", "4", "5", "6"}, Summary: "s"},
			want: EmotionAnalysis{Mood: "busy", Sentiment: 0.1, Emotions: []string{"a"}, Tags: []string{"1", "2", "3", "4", "5"}, Summary: "s"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got := Sanitize(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Sanitize = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestGenerateTags(t *testing.T) {
	client := &fakeClient{response: "  Work, Family ,stress,, sleep, health, extra "}
	a := New(client)

	got := a.GenerateTags(context.Background(), "text")

	want := []string{"work", "family", "stress", "sleep", "health"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("GenerateTags = %v, want %v", got, want)
	}
}

func TestGenerateTagsTransportErrorReturnsEmpty(t *testing.T) {
	client := &fakeClient{err: errors.New("timeout")}
	a := New(client)

	got := a.GenerateTags(context.Background(), "text")

	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty slice, got %v", got)
	}
}
