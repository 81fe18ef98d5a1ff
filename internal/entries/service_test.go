package entries

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"journal-backend/internal/ai"
	"journal-backend/internal/ai/analyzer"
	"journal-backend/internal/usage"
)

type fakeAI struct {
	response string
	err      error
}

func (f *fakeAI) Complete(ctx context.Context, req ai.CompletionRequest) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func (f *fakeAI) Stream(ctx context.Context, req ai.CompletionRequest) (<-chan ai.StreamEvent, error) {
	ch := make(chan ai.StreamEvent, 1)
	if f.err == nil {
		ch <- ai.StreamEvent{Content: f.response}
	}
	close(ch)
	return ch, f.err
}

type fakeStore struct {
	mu      sync.Mutex
	deleted []string
}

func (f *fakeStore) Save(ctx context.Context, userID, fileName string, r io.Reader) (string, int64, string, error) {
	return "objects/" + userID + "/" + fileName, 0, "application/octet-stream", nil
}

func (f *fakeStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("")), nil
}

func (f *fakeStore) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, key)
	return nil
}

func newTestService(client ai.Client) (*Service, *MemoryRepo, *fakeStore) {
	repo := NewMemoryRepo()
	store := &fakeStore{}
	svc := &Service{
		Repo:     repo,
		Analyzer: analyzer.New(client),
		Usage:    usage.NewService(),
		Store:    store,
	}
	return svc, repo, store
}

func waitForAnalysis(t *testing.T, repo Repo, userID, entryID string) Entry {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		entry, err := repo.GetByID(context.Background(), userID, entryID)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if entry.Analysis != nil {
			return entry
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("analysis never completed")
	return Entry{}
}

func TestCreateAnalyzesAsynchronously(t *testing.T) {
	client := &fakeAI{response: `{"mood":"happy","sentiment":0.8,"emotions":["joy"],"tags":["park"],"summary":"A good day."}`}
	svc, repo, _ := newTestService(client)

	entry, err := svc.Create(context.Background(), "user-1", CreateInput{
		Title:   "Park",
		Content: "I had a wonderful day at the park.",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if entry.ID == "" {
		t.Fatal("expected generated entry ID")
	}
	if entry.WordCount != 8 {
		t.Fatalf("WordCount = %d, want 8", entry.WordCount)
	}

	analyzed := waitForAnalysis(t, repo, "user-1", entry.ID)
	if analyzed.Analysis.Mood != "happy" {
		t.Fatalf("Mood = %q, want happy", analyzed.Analysis.Mood)
	}
	if analyzed.AnalyzedAt == nil {
		t.Fatal("expected AnalyzedAt to be set")
	}
}

func TestCreateRequiresContent(t *testing.T) {
	svc, _, _ := newTestService(&fakeAI{response: "{}"})

	if _, err := svc.Create(context.Background(), "user-1", CreateInput{Content: "   "}); err != ErrInvalidInput {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestCreateAnalysisFailureFallsBack(t *testing.T) {
	client := &fakeAI{err: context.DeadlineExceeded}
	svc, repo, _ := newTestService(client)

	entry, err := svc.Create(context.Background(), "user-1", CreateInput{Content: "A quiet evening."})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	analyzed := waitForAnalysis(t, repo, "user-1", entry.ID)
	want := analyzer.Fallback()
	if analyzed.Analysis.Mood != want.Mood || analyzed.Analysis.Summary != want.Summary {
		t.Fatalf("analysis = %+v, want fallback", analyzed.Analysis)
	}
}

func TestUpdateContentClearsAndReanalyzes(t *testing.T) {
	client := &fakeAI{response: `{"mood":"calm","sentiment":0.2,"emotions":["peace"],"tags":["home"],"summary":"Settled."}`}
	svc, repo, _ := newTestService(client)

	entry, err := svc.Create(context.Background(), "user-1", CreateInput{Content: "First draft."})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	waitForAnalysis(t, repo, "user-1", entry.ID)

	newContent := "A completely different evening."
	updated, err := svc.Update(context.Background(), "user-1", entry.ID, UpdateInput{Content: &newContent})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Content != newContent {
		t.Fatalf("Content = %q", updated.Content)
	}
	if updated.WordCount != 4 {
		t.Fatalf("WordCount = %d, want 4", updated.WordCount)
	}

	// The returned value reflects the cleared analysis; the async pass
	// repopulates it.
	if updated.Analysis != nil {
		t.Fatal("expected analysis cleared on content change")
	}
	waitForAnalysis(t, repo, "user-1", entry.ID)
}

func TestUpdateTitleKeepsAnalysis(t *testing.T) {
	client := &fakeAI{response: `{"mood":"calm","sentiment":0.2,"emotions":[],"tags":[],"summary":"Settled."}`}
	svc, repo, _ := newTestService(client)

	entry, err := svc.Create(context.Background(), "user-1", CreateInput{Content: "Notes."})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	waitForAnalysis(t, repo, "user-1", entry.ID)

	title := "Renamed"
	updated, err := svc.Update(context.Background(), "user-1", entry.ID, UpdateInput{Title: &title})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Analysis == nil {
		t.Fatal("title-only update should keep analysis")
	}
	if updated.Title != "Renamed" {
		t.Fatalf("Title = %q", updated.Title)
	}
}

func TestDeleteRemovesImage(t *testing.T) {
	svc, _, store := newTestService(&fakeAI{response: "{}"})

	entry, err := svc.Create(context.Background(), "user-1", CreateInput{
		Content:  "With a photo.",
		ImageKey: "objects/user-1/photo.jpg",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.Delete(context.Background(), "user-1", entry.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.deleted) != 1 || store.deleted[0] != "objects/user-1/photo.jpg" {
		t.Fatalf("deleted = %v", store.deleted)
	}
}

func TestReanalyzeSkipsWhenAlreadyAnalyzedWithoutForce(t *testing.T) {
	client := &fakeAI{response: `{"mood":"happy","sentiment":0.5,"emotions":[],"tags":[],"summary":"Nice."}`}
	svc, repo, _ := newTestService(client)

	entry, err := svc.Create(context.Background(), "user-1", CreateInput{Content: "Day one."})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	first := waitForAnalysis(t, repo, "user-1", entry.ID)

	client.response = `{"mood":"sad","sentiment":-0.5,"emotions":[],"tags":[],"summary":"Different."}`

	same, err := svc.Reanalyze(context.Background(), "user-1", entry.ID, false)
	if err != nil {
		t.Fatalf("Reanalyze: %v", err)
	}
	if same.Analysis.Mood != first.Analysis.Mood {
		t.Fatalf("Mood changed without force: %q", same.Analysis.Mood)
	}

	forced, err := svc.Reanalyze(context.Background(), "user-1", entry.ID, true)
	if err != nil {
		t.Fatalf("Reanalyze force: %v", err)
	}
	if forced.Analysis.Mood != "sad" {
		t.Fatalf("Mood = %q, want sad", forced.Analysis.Mood)
	}
}

func TestSuggestTags(t *testing.T) {
	client := &fakeAI{response: "Family, Beach, Summer"}
	svc, repo, _ := newTestService(client)

	entry, err := svc.Create(context.Background(), "user-1", CreateInput{Content: "Beach day with family."})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	waitForAnalysis(t, repo, "user-1", entry.ID)

	tags, err := svc.SuggestTags(context.Background(), "user-1", entry.ID)
	if err != nil {
		t.Fatalf("SuggestTags: %v", err)
	}
	want := []string{"family", "beach", "summer"}
	if len(tags) != len(want) {
		t.Fatalf("tags = %v", tags)
	}
	for i := range want {
		if tags[i] != want[i] {
			t.Fatalf("tags[%d] = %q, want %q", i, tags[i], want[i])
		}
	}
}

func TestRecentContextFormatsEntries(t *testing.T) {
	svc, repo, _ := newTestService(&fakeAI{response: "{}"})

	day := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	for i, content := range []string{"Walked the dog.", "Long day at work."} {
		_, err := svc.Create(context.Background(), "user-1", CreateInput{
			Title:     "Day " + string(rune('A'+i)),
			Content:   content,
			EntryDate: day.AddDate(0, 0, i),
		})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	// Drain async analyses so they don't race the assertions below.
	list, _ := repo.ListByUser(context.Background(), "user-1", ListFilter{})
	for _, e := range list {
		waitForAnalysis(t, repo, "user-1", e.ID)
	}

	got, err := svc.RecentContext(context.Background(), "user-1", 5)
	if err != nil {
		t.Fatalf("RecentContext: %v", err)
	}

	lines := strings.Split(got, "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d:\n%s", len(lines), got)
	}
	if !strings.HasPrefix(lines[0], "[2026-08-21] Day B: Long day at work.") {
		t.Fatalf("first line = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "[2026-08-20] Day A: Walked the dog.") {
		t.Fatalf("second line = %q", lines[1])
	}
}

func TestRecentContextTruncatesLongContent(t *testing.T) {
	svc, repo, _ := newTestService(&fakeAI{response: "{}"})

	long := strings.Repeat("word ", 100)
	entry, err := svc.Create(context.Background(), "user-1", CreateInput{Content: long})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	waitForAnalysis(t, repo, "user-1", entry.ID)

	got, err := svc.RecentContext(context.Background(), "user-1", 5)
	if err != nil {
		t.Fatalf("RecentContext: %v", err)
	}
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("expected truncated snippet, got %q", got)
	}
	if len(got) > 250 {
		t.Fatalf("snippet too long: %d chars", len(got))
	}
}

func TestListFilters(t *testing.T) {
	svc, repo, _ := newTestService(&fakeAI{response: `{"mood":"happy","sentiment":0.5,"emotions":[],"tags":["travel"],"summary":"Fun."}`})

	entry, err := svc.Create(context.Background(), "user-1", CreateInput{Content: "Trip to the coast."})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	waitForAnalysis(t, repo, "user-1", entry.ID)

	byMood, err := svc.List(context.Background(), "user-1", ListFilter{Mood: "HAPPY"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(byMood) != 1 {
		t.Fatalf("mood filter matched %d entries", len(byMood))
	}

	byTag, err := svc.List(context.Background(), "user-1", ListFilter{Tag: "travel"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(byTag) != 1 {
		t.Fatalf("tag filter matched %d entries", len(byTag))
	}

	none, err := svc.List(context.Background(), "user-1", ListFilter{Mood: "sad"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("mood=sad matched %d entries", len(none))
	}
}

func TestDeleteAllForUser(t *testing.T) {
	svc, repo, store := newTestService(&fakeAI{response: "{}"})

	for i := 0; i < 3; i++ {
		in := CreateInput{Content: "Entry body."}
		if i == 0 {
			in.ImageKey = "objects/user-1/pic.png"
		}
		entry, err := svc.Create(context.Background(), "user-1", in)
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		waitForAnalysis(t, repo, "user-1", entry.ID)
	}

	n, err := svc.DeleteAllForUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("DeleteAllForUser: %v", err)
	}
	if n != 3 {
		t.Fatalf("deleted %d entries, want 3", n)
	}

	store.mu.Lock()
	deleted := len(store.deleted)
	store.mu.Unlock()
	if deleted != 1 {
		t.Fatalf("deleted %d objects, want 1", deleted)
	}

	left, err := svc.List(context.Background(), "user-1", ListFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(left) != 0 {
		t.Fatalf("%d entries remain", len(left))
	}
}
