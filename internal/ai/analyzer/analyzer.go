package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"journal-backend/internal/ai"
	"journal-backend/internal/shared/telemetry"
)

const (
	maxEmotions = 3
	maxTags     = 5

	analysisTemperature = 0.3
	analysisMaxTokens   = 500
	tagsTemperature     = 0.3
	tagsMaxTokens       = 100

	fallbackSummary = "Unable to analyze emotions at this time"
)

// EmotionAnalysis is the structured result of analyzing a diary entry.
// Every field is always populated and within bounds; callers never see a
// partial or out-of-range value.
type EmotionAnalysis struct {
	Mood      string   `json:"mood"`
	Sentiment float64  `json:"sentiment"`
	Emotions  []string `json:"emotions"`
	Tags      []string `json:"tags"`
	Summary   string   `json:"summary"`
}

const analysisSystemPrompt = `You are an empathetic emotional analyst for a personal journaling app. ` +
	`You read diary entries and respond with careful, kind analysis. ` +
	`Respond with a JSON object only, no prose outside the JSON.`

// Analyzer requests emotional analysis for diary text. It never returns an
// error: every failure mode degrades to a fixed fallback result.
type Analyzer struct {
	Client ai.Client
}

// New constructs an Analyzer over the given completion client.
func New(client ai.Client) *Analyzer {
	return &Analyzer{Client: client}
}

// Analyze returns an emotional analysis of the given diary text. The result
// is always fully populated; transport failures, empty responses, and
// malformed JSON all collapse into the fallback structure.
func (a *Analyzer) Analyze(ctx context.Context, text string) EmotionAnalysis {
	if a == nil || a.Client == nil {
		return Fallback()
	}

	raw, err := a.Client.Complete(ctx, ai.CompletionRequest{
		Messages: []ai.Message{
			{Role: "system", Content: analysisSystemPrompt},
			{Role: "user", Content: buildAnalysisPrompt(text)},
		},
		Temperature: analysisTemperature,
		MaxTokens:   analysisMaxTokens,
		JSONOnly:    true,
	})
	if err != nil {
		telemetry.Error("analyzer.complete", map[string]any{"error": err.Error()})
		return Fallback()
	}
	if strings.TrimSpace(raw) == "" {
		telemetry.Error("analyzer.complete", map[string]any{"error": "empty completion"})
		return Fallback()
	}

	var parsed EmotionAnalysis
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		telemetry.Error("analyzer.parse", map[string]any{"error": err.Error()})
		return Fallback()
	}

	return Sanitize(parsed)
}

// GenerateTags asks for 3-5 comma-separated tags for the given text. It
// returns an empty slice on any failure.
func (a *Analyzer) GenerateTags(ctx context.Context, text string) []string {
	if a == nil || a.Client == nil {
		return []string{}
	}

	raw, err := a.Client.Complete(ctx, ai.CompletionRequest{
		Messages: []ai.Message{
			{Role: "system", Content: "You label diary entries. Respond with tags only, no extra text."},
			{Role: "user", Content: fmt.Sprintf("Suggest 3-5 short comma-separated tags for this diary entry:\n\n%s", text)},
		},
		Temperature: tagsTemperature,
		MaxTokens:   tagsMaxTokens,
	})
	if err != nil {
		telemetry.Error("analyzer.generate_tags", map[string]any{"error": err.Error()})
		return []string{}
	}

	return splitTags(raw)
}

// Sanitize enforces the EmotionAnalysis bounds independently of how the
// value was produced: missing fields get defaults, sentiment is clamped to
// [-1, 1], emotions are capped at 3 and tags at 5.
func Sanitize(in EmotionAnalysis) EmotionAnalysis {
	out := in
	if strings.TrimSpace(out.Mood) == "" {
		out.Mood = "neutral"
	}
	if out.Sentiment < -1 {
		out.Sentiment = -1
	}
	if out.Sentiment > 1 {
		out.Sentiment = 1
	}
	if out.Emotions == nil {
		out.Emotions = []string{}
	}
	if len(out.Emotions) > maxEmotions {
		out.Emotions = out.Emotions[:maxEmotions]
	}
	if out.Tags == nil {
		out.Tags = []string{}
	}
	if len(out.Tags) > maxTags {
		out.Tags = out.Tags[:maxTags]
	}
	if strings.TrimSpace(out.Summary) == "" {
		out.Summary = fallbackSummary
	}
	return out
}

// Fallback is the fixed safe result substituted when analysis fails.
func Fallback() EmotionAnalysis {
	return EmotionAnalysis{
		Mood:      "neutral",
		Sentiment: 0,
		Emotions:  []string{"reflective"},
		Tags:      []string{"personal"},
		Summary:   fallbackSummary,
	}
}

func buildAnalysisPrompt(text string) string {
	var b strings.Builder
	b.WriteString("Analyze the emotional content of this diary entry and return a JSON object with exactly these fields:\n")
	b.WriteString(`{"mood": "one-word mood label", "sentiment": number between -1 and 1, "emotions": ["up to 3 emotions"], "tags": ["up to 5 topical tags"], "summary": "one-sentence empathetic summary"}`)
	b.WriteString("\n\nDiary entry:\n")
	b.WriteString(text)
	return b.String()
}

func splitTags(raw string) []string {
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		tag := strings.ToLower(strings.TrimSpace(p))
		if tag == "" {
			continue
		}
		tags = append(tags, tag)
		if len(tags) == maxTags {
			break
		}
	}
	return tags
}
